// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package zaidel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/danielhkuo/researches/models"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "http://zaidel.test"

func newMockedClient(t *testing.T) (*HTTPClient, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	client := NewHTTPClient(Config{
		BaseURL:     testBaseURL + "/",
		Timeout:     time.Second,
		SettingsTTL: time.Minute,
		HTTPClient:  &http.Client{Transport: transport},
	})
	return client, transport
}

func TestDefaultPeaksSettings_Cached(t *testing.T) {
	client, transport := newMockedClient(t)

	var gotAuth string
	transport.RegisterResponder(http.MethodGet, testBaseURL+"/peaks/settings",
		func(req *http.Request) (*http.Response, error) {
			gotAuth = req.Header.Get("Authorization")
			return httpmock.NewStringResponse(http.StatusOK, `{"sigma":1.5,"smoothMarkov":true}`), nil
		})

	first, err := client.DefaultPeaksSettings(context.Background(), "Bearer abc")
	require.NoError(t, err)
	require.NotNil(t, first.Sigma)
	assert.InDelta(t, 1.5, *first.Sigma, 0.0001)
	require.NotNil(t, first.SmoothMarkov)
	assert.True(t, *first.SmoothMarkov)
	assert.Nil(t, first.Threshold)
	assert.Equal(t, "Bearer abc", gotAuth)

	second, err := client.DefaultPeaksSettings(context.Background(), "Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, 1, transport.GetCallCountInfo()["GET "+testBaseURL+"/peaks/settings"])
}

func TestDefaultChemicalElementsSettings(t *testing.T) {
	client, transport := newMockedClient(t)
	transport.RegisterResponder(http.MethodGet, testBaseURL+"/spectrumlines/settings",
		httpmock.NewStringResponder(http.StatusOK, `{"maxElementsPerPeak":5,"waveLengthRange":0.2}`))

	settings, err := client.DefaultChemicalElementsSettings(context.Background(), "Bearer abc")
	require.NoError(t, err)
	require.NotNil(t, settings.MaxElementsPerPeak)
	assert.Equal(t, 5, *settings.MaxElementsPerPeak)
	require.NotNil(t, settings.WaveLengthRange)
	assert.InDelta(t, 0.2, *settings.WaveLengthRange, 0.0001)
}

func TestDefaultSettings_ErrorNotCached(t *testing.T) {
	client, transport := newMockedClient(t)
	transport.RegisterResponder(http.MethodGet, testBaseURL+"/peaks/settings",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, "down"))

	_, err := client.DefaultPeaksSettings(context.Background(), "")
	require.Error(t, err)

	transport.RegisterResponder(http.MethodGet, testBaseURL+"/peaks/settings",
		httpmock.NewStringResponder(http.StatusOK, `{"threshold":3}`))

	settings, err := client.DefaultPeaksSettings(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, settings.Threshold)
	assert.InDelta(t, 3.0, *settings.Threshold, 0.0001)
}

func TestFindPeaks(t *testing.T) {
	client, transport := newMockedClient(t)

	var body FindPeaksRequest
	transport.RegisterResponder(http.MethodPost, testBaseURL+"/peaks",
		func(req *http.Request) (*http.Response, error) {
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				return nil, err
			}
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
			assert.Equal(t, "Bearer xyz", req.Header.Get("Authorization"))
			return httpmock.NewStringResponse(http.StatusOK,
				`{"peaks":[{"peak":{"x":1,"y":10},"left":{"x":0.5,"y":0},"right":{"x":1.5,"y":0},"area":4}]}`), nil
		})

	sigma := 2.0
	resp, err := client.FindPeaks(context.Background(), FindPeaksRequest{
		OwnerID:  "owner-1",
		FileID:   "file-1",
		Settings: &models.PeaksSettings{Sigma: &sigma},
	}, "Bearer xyz")
	require.NoError(t, err)

	assert.Equal(t, "owner-1", body.OwnerID)
	assert.Equal(t, "file-1", body.FileID)
	require.NotNil(t, body.Settings)
	require.NotNil(t, body.Settings.Sigma)
	assert.InDelta(t, 2.0, *body.Settings.Sigma, 0.0001)

	require.Len(t, resp.Peaks, 1)
	assert.InDelta(t, 1.0, resp.Peaks[0].Peak.X, 0.0001)
	assert.InDelta(t, 4.0, resp.Peaks[0].Area, 0.0001)
}

func TestFindMatchedElements(t *testing.T) {
	client, transport := newMockedClient(t)
	transport.RegisterResponder(http.MethodPost, testBaseURL+"/spectrumlines",
		httpmock.NewStringResponder(http.StatusOK, `{
			"peaksCount": 1,
			"peaksWithElements": [{"peak":{"x":1,"y":10},"left":{"x":0,"y":0},"right":{"x":2,"y":0},"area":1,
				"elements":[{"element":"Fe","selected":true,"stage":1,"waveLength":1.01}],"totalElementsCount":1}],
			"autoSuggestions": [{"peak":{"peak":{"x":1,"y":10},"left":{"x":0,"y":0},"right":{"x":2,"y":0},"area":1},
				"element":{"element":"Fe","stage":1}}]
		}`))

	resp, err := client.FindMatchedElements(context.Background(), MatchElementsRequest{
		Peaks: []models.Peak{{Peak: models.Coordinates{X: 1, Y: 10}}},
	}, "Bearer xyz")
	require.NoError(t, err)

	assert.Equal(t, 1, resp.PeaksCount)
	require.Len(t, resp.PeaksWithElements, 1)
	require.Len(t, resp.PeaksWithElements[0].Elements, 1)
	assert.Equal(t, "Fe", resp.PeaksWithElements[0].Elements[0].Element)
	assert.True(t, resp.PeaksWithElements[0].Elements[0].Selected)
	require.Len(t, resp.AutoSuggestions, 1)
	assert.Equal(t, "Fe", resp.AutoSuggestions[0].Element.Element)
}

func TestTriggerComparison(t *testing.T) {
	client, transport := newMockedClient(t)

	var body TriggerComparisonRequest
	transport.RegisterResponder(http.MethodPost, testBaseURL+"/comparisons/trigger",
		func(req *http.Request) (*http.Response, error) {
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				return nil, err
			}
			return httpmock.NewStringResponse(http.StatusAccepted, ""), nil
		})

	err := client.TriggerComparison(context.Background(), TriggerComparisonRequest{ID: "cmp-1"}, "Bearer xyz")
	require.NoError(t, err)
	assert.Equal(t, "cmp-1", body.ID)
}

func TestUpstreamErrors(t *testing.T) {
	tests := []struct {
		name       string
		responder  httpmock.Responder
		wantStatus int
	}{
		{"server_error", httpmock.NewStringResponder(http.StatusInternalServerError, "boom"), http.StatusInternalServerError},
		{"unauthorized", httpmock.NewStringResponder(http.StatusUnauthorized, "no"), http.StatusUnauthorized},
		{"invalid_json", httpmock.NewStringResponder(http.StatusOK, `{invalid`), http.StatusOK},
		{"transport_error", httpmock.NewErrorResponder(errors.New("connection refused")), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, transport := newMockedClient(t)
			transport.RegisterResponder(http.MethodPost, testBaseURL+"/peaks", tt.responder)

			_, err := client.FindPeaks(context.Background(), FindPeaksRequest{OwnerID: "o", FileID: "f"}, "")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUpstream)

			var upstream *UpstreamError
			require.ErrorAs(t, err, &upstream)
			assert.Equal(t, OpFindPeaks, upstream.Op)
			assert.Equal(t, tt.wantStatus, upstream.StatusCode)
		})
	}
}

func TestDefaultTimeoutApplied(t *testing.T) {
	client, transport := newMockedClient(t)

	var hadDeadline bool
	transport.RegisterResponder(http.MethodPost, testBaseURL+"/comparisons/trigger",
		func(req *http.Request) (*http.Response, error) {
			_, hadDeadline = req.Context().Deadline()
			return httpmock.NewStringResponse(http.StatusOK, ""), nil
		})

	require.NoError(t, client.TriggerComparison(context.Background(), TriggerComparisonRequest{ID: "x"}, ""))
	assert.True(t, hadDeadline)
}

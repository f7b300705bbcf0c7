// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielhkuo/researches/auth"
	"github.com/danielhkuo/researches/comparison"
	"github.com/danielhkuo/researches/middleware"
	"github.com/danielhkuo/researches/store"
	"github.com/danielhkuo/researches/zaidel"
	"github.com/go-playground/validator/v10"
)

// ownerID returns the authenticated caller's id, writing 401 when absent
func ownerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return "", false
	}
	return claims.ID, true
}

// authHeader is forwarded verbatim to the analysis service
func authHeader(r *http.Request) string {
	return r.Header.Get("Authorization")
}

// parseListOptions reads query, limit, offset and researchID (comma separated)
func parseListOptions(r *http.Request) store.ListOptions {
	q := r.URL.Query()
	opts := store.ListOptions{Query: strings.TrimSpace(q.Get("query"))}

	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		opts.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil {
		opts.Offset = offset
	}
	for _, id := range strings.Split(q.Get("researchID"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			opts.ResearchIDs = append(opts.ResearchIDs, id)
		}
	}

	return opts.Normalized()
}

// decodeAndValidate parses the JSON body into v and runs its Validate method
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{ Validate() error }) bool {
	if err := middleware.ParseJSONBody(r, v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	if err := v.Validate(); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s is %s", fe.Namespace(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// writeError maps domain errors to HTTP responses. resource names the record
// in 404 messages.
func writeError(w http.ResponseWriter, err error, resource string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, resource+" not found")
	case errors.Is(err, comparison.ErrFinished):
		middleware.ErrorResponse(w, http.StatusBadRequest, "Forbidden to change finished comparison")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrMissingToken):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid token")
	case errors.Is(err, zaidel.ErrUpstream):
		slog.Error("analysis service call failed", "error", err)
		middleware.ErrorResponse(w, http.StatusBadGateway, "Analysis service failure")
	default:
		slog.Error("request failed", "resource", resource, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal server error")
	}
}

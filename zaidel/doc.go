// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package zaidel is the client for the external spectral analysis service.

The service owns every spectral computation. This package only moves JSON
between it and the rest of the application:

	GET  /peaks/settings          default peak-search settings
	GET  /spectrumlines/settings  default chemical-element settings
	POST /peaks                   find peaks in an uploaded file
	POST /spectrumlines           match chemical elements to peaks
	POST /comparisons/trigger     start or restart a comparison

The caller's Authorization header is forwarded verbatim. Default settings
are cached in memory (go-cache) for a configurable TTL. A request without a
context deadline gets the client's default timeout.

Every failure reported by the service, or a request that never reached it,
is an *UpstreamError and matches ErrUpstream with errors.Is. The client does
not retry.
*/
package zaidel

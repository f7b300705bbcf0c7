// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (request_id, method, path, remote) and completion
(status, duration_ms). The request id is taken from X-Request-ID or
generated, and echoed back in the response. Each request is also counted in
Prometheus by route pattern and status.

# Authentication

	protected := middleware.RequireAuth(secret)
	mux.HandleFunc("GET /researches", middleware.WithLogging(protected(h.List)))

Requests without a valid "Authorization: Bearer <jwt>" get 401. Handlers
read the caller with UserFromContext.

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, PATCH, DELETE, OPTIONS with headers
Content-Type, Authorization, X-Request-ID.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Parse JSON request bodies (at most 16 MiB):

	var req models.CreateResearchRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)
*/
package middleware

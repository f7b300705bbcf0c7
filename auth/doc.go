// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides bearer token verification and identifier generation.

# Tokens

Callers authenticate with an HMAC-signed JWT carrying {id, email, roles}:

	token, err := auth.BearerToken(r.Header.Get("Authorization"))
	claims, err := auth.ParseToken(token, secret)

Every failure mode (bad signature, expiry, wrong algorithm, missing id)
wraps ErrInvalidToken so callers can answer 401 uniformly.

IssueToken mints tokens with the same secret; it backs the "token"
subcommand and the test helpers.

# ID Generation

Records are keyed by short base62 ids, independent of any storage row id:

	id, err := auth.GenerateID()  // e.g. "3kTMd9xQf2a"
*/
package auth

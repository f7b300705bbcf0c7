// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Flags are declared on a pflag FlagSet and bound into viper, which looks
up the matching environment variable for every flag not given on the
command line.

# CLI Flags and Environment Variables

	-p, --port                PORT                    (default 3000)
	-d, --database-url        DATABASE_URL            (required)
	-t, --database-type       DATABASE_TYPE           sqlite | postgres (default sqlite)
	--token-secret            TOKEN_SECRET            (required)
	--zaidel-service-url      ZAIDEL_SERVICE_URL      (required)
	--zaidel-timeout          ZAIDEL_TIMEOUT          (default 30s)
	--settings-cache-ttl      SETTINGS_CACHE_TTL      (default 5m)
	--comparison-lock-window  COMPARISON_LOCK_WINDOW  (default 24h)
	--log-level               LOG_LEVEL               (default info)

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if required values are missing or a value is
out of range (port, database type, non-positive durations).
*/
package cliparse

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

A .env file in the working directory is loaded before flags are parsed.
Values already present in the environment are not overwritten by it.

# CLI Flags and Environment Variables

	-p               PORT                (default 3318)
	-d               DATABASE_URL        (required)
	-t               DATABASE_TYPE       sqlite | postgres (default sqlite)
	-admin-salt      ADMIN_KEY_SALT      (required)
	-pepper          CREDENTIAL_PEPPER   (required)
	-session-secret  SESSION_SECRET      (required)
	-session-ttl     SESSION_TTL         (default 15m)
	-rate-max        RATE_LIMIT_MAX      (default 10)
	-rate-window     RATE_LIMIT_WINDOW   (default 1m)
	-rate-backend    RATE_LIMIT_BACKEND  memory | database (default memory)
	-reconcile-log   RECONCILE_LOG       (default reconcile.log)

CLI flags take precedence over environment variables.

# Secrets

CREDENTIAL_PEPPER keys the credential hash. Changing it makes every
outstanding unconsumed credential unredeemable, so treat it like a
database migration, not a rotation.

SESSION_SECRET signs session proofs. Rotating it only invalidates sessions
that are in flight.
*/
package cliparse

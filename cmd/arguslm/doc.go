// Copyright 2026 ArgusLM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package main is ArgusLM's executable entry point: an HTTP API server,
database migrations, health checks, and version reporting.

# Overview

cmd/arguslm is the single binary that serves the REST surface of
api/handlers, runs the monitoring.Scheduler in the background, and
exposes Prometheus metrics on a separate port. It loads YAML
configuration plus environment overrides via the config package,
logs through zap, and optionally exports OpenTelemetry traces.

# Core types

  - Server     — owns the HTTP listener, the metrics listener, the
    wired Deps bundle, and the monitoring scheduler's lifecycle
  - Middleware — HTTP middleware function signature
    func(http.Handler) http.Handler

# Subcommands

  - serve    — start the server
  - migrate  — up, down, status, version, goto, force, reset
  - version  — print build metadata
  - health   — probe a running server's /health endpoint

# Middleware chain

Recovery, RequestID, SecurityHeaders, RequestLogger, MetricsMiddleware,
OTelTracing, CORS, RateLimiter (per-IP), SessionAuth (HS256 bearer
token signed with auth.secret_key).
*/
package main

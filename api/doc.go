// Copyright 2026 ArgusLM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package api provides the request/response DTOs shared across ArgusLM's
REST surface, served under /api/v1 by api/handlers.

# Resources

  - Providers   — /providers: CRUD over ProviderAccount, plus
    /test-connection, /{id}/test, and /{id}/refresh-models
  - Models      — /models: CRUD over the callable models within a
    ProviderAccount
  - Monitoring  — /monitoring/config, /monitoring/run,
    /monitoring/uptime(/export), /monitoring/prompt-packs
  - Benchmarks  — /benchmarks: create/list/detail/export, plus the
    {id}/stream WebSocket subscription to live progress
  - Alerts      — /alerts: rule CRUD, alert list, /unread-count,
    /recent, /{id}/acknowledge

# Envelope

JSON responses are wrapped in handlers.Response: a success flag, the
payload under data, and, on failure, a structured ErrorInfo built from
an apperr.Error. See api/handlers/common.go. The exceptions are
POST /benchmarks and POST /monitoring/run, which return their bare
acknowledgement body, the CSV exports, and the health endpoints,
which return a bare HealthStatus.
*/
package api

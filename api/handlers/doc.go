// Copyright 2026 ArgusLM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package handlers implements ArgusLM's HTTP API request handlers, served
under /api/v1.

# Core types

  - ProviderHandler   — ProviderAccount CRUD, test-connection, refresh-models
  - ModelHandler      — Model CRUD
  - MonitoringHandler — monitoring config, manual run trigger, uptime
    history/export, prompt-pack catalog
  - BenchmarkHandler  — benchmark run creation, results, export, and the
    {id}/stream WebSocket subscription to the Live Progress Bus
  - AlertHandler      — alert rule CRUD, alert list, unread count, recent
  - HealthHandler     — /health, /healthz, /ready
  - Response / ErrorInfo — the unified JSON envelope (success + data +
    error + timestamp)
  - Deps              — shared collaborators (store, provider registry,
    scheduler, bus, throttle, cache) every resource handler embeds

# Conventions

Every handler translates domain errors through WriteError, which maps
an *apperr.Error to its HTTP status via apperr.HTTPStatusOf (or the
error's own explicit status). DecodeJSONBody enforces a 1 MB body limit
and rejects unknown fields.
*/
package handlers

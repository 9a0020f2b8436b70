// Copyright 2026 ArgusLM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package metrics provides Prometheus-based instrumentation across
ArgusLM's HTTP surface, provider calls, throttle manager, benchmark
orchestrator, alert evaluator, model-discovery cache, and persistence
layer.

# Overview

Collector registers and records every Prometheus vector through
promauto's auto-registration, so no caller needs to manage a Registry
by hand. Metrics are namespaced and carry per-domain labels suited to
Grafana dashboards and alerting rules.

# Core type

  - Collector: holds the Counter, Histogram, and Gauge vectors, grouped
    by business domain.

# Metric domains

  - HTTP: request count, request duration, request/response size,
    grouped by method/path/status; status codes bucket into 2xx/3xx/4xx/5xx.
  - Provider calls: invocation count, total latency, time-to-first-token,
    input/output token counts, grouped by provider_kind/model_id.
  - Throttle manager: wait-time histogram and queue-depth gauge per tier
    (global/provider/model).
  - Benchmark orchestrator: task outcome count and run duration,
    grouped by status.
  - Alert evaluator: alerts emitted, grouped by rule_type.
  - Model-discovery cache: hit/miss counts, grouped by cache_type.
  - Persistence: open/idle connection gauges and query duration
    histogram, grouped by database/operation.
*/
package metrics

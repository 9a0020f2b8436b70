// Copyright 2026 ArgusLM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package cache provides a Redis-backed cache manager used for model
discovery results and other short-lived, read-heavy data.

# Overview

Manager wraps a go-redis client and gives callers a uniform
read/write interface, handling connection lifecycle (initialization,
health checks, graceful close) internally.

# Core types

  - Manager: the cache manager, holding the Redis client and pool
    configuration; exposes Get/Set/Delete/Exists/Expire plus
    GetJSON/SetJSON convenience serialization.
  - Config: cache settings — address, password, pool size, default
    TTL, and health-check interval.
  - Stats: fields for hits, misses, key count, memory usage, and
    connection count. GetStats does not fill them in: it only checks
    that Redis answers INFO and returns a zero Stats.

# Capabilities

  - Key-value access: string and JSON cache read/write modes.
  - Connection pooling: PoolSize and MinIdleConns control reuse.
  - Health checks: a background ticker pings Redis and logs failures
    via zap.
  - Graceful shutdown: Close safely releases the underlying Redis
    connection.
  - Error semantics: ErrCacheMiss sentinel plus IsCacheMiss for
    distinguishing a miss from a real failure.
*/
package cache

// Copyright 2026 ArgusLM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package database provides GORM-backed connection pool management,
with health checks, statistics collection, and transaction retry.

# Overview

PoolManager wraps GORM and database/sql's pool configuration,
managing connection lifetime, idle reclamation, and open-connection
limits. A background health-check loop pings the database on an
interval and logs failures through zap.

# Core types

  - PoolManager: holds the GORM instance and its underlying sql.DB,
    exposing DB(), Ping(), Stats(), and Close() lifecycle methods.
  - PoolConfig: max idle/open connections, connection lifetime, idle
    timeout, and health-check interval.
  - PoolStats: a friendlier, JSON-serializable view of pool statistics.
  - TransactionFunc: a unit of work run inside a transaction.

# Capabilities

  - Pool tuning via MaxIdleConns/MaxOpenConns/ConnMaxLifetime.
  - Background health checks via periodic PingContext, logging
    connection and idle counts.
  - WithTransaction runs a single transaction; WithTransactionRetry
    adds exponential-backoff retry for deadlocks, serialization
    failures, and transient connection errors.
  - GetStats returns structured pool statistics.
*/
package database

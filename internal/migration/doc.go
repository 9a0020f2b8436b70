// Copyright 2026 ArgusLM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package migration provides versioned database schema migration for
PostgreSQL and SQLite, built on golang-migrate.

# Overview

SQL migration files for each dialect are embedded via embed.FS and
driven by the golang-migrate engine, giving forward migration,
rollback, step-wise execution, jump-to-version, and forced
version-setting.

# Core interfaces and types

  - Migrator: the full operation set — Up/Down/DownAll/Steps/Goto/Force/
    Version/Status/Info/Close.
  - DefaultMigrator: the default Migrator implementation, wrapping a
    golang-migrate instance and its database connection.
  - Config: migration settings — database type, connection URL,
    migrations table name, and lock timeout.
  - DatabaseType: the dialect enum (postgres, sqlite).
  - MigrationStatus / MigrationInfo: per-migration and summary state.
  - CLI: a terminal-facing wrapper around Migrator with formatted output.

# Capabilities

  - Multi-dialect support: DatabaseType plus embedded SQL selects the
    right dialect automatically.
  - Factory functions: NewMigratorFromConfig / NewMigratorFromDatabaseConfig /
    NewMigratorFromURL construct a migrator from different configuration sources.
  - CLI integration: CLI exposes RunUp/RunDown/RunStatus/RunInfo and friends
    for the arguslm migrate subcommand.
  - Helpers: ParseDatabaseType parses a dialect string; BuildDatabaseURL
    assembles a dialect-specific connection URL from components.
*/
package migration

// Copyright 2026 ArgusLM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package config manages ArgusLM's configuration lifecycle: multi-source
loading, runtime hot reload, change auditing, and an HTTP management
API. Configuration merges in priority order: defaults -> YAML file ->
environment variables.

# Core types

  - Config: the top-level aggregate, covering Server, Database, Redis,
    Encryption, Auth, Monitoring, Throttle, CORS, Log, and Telemetry.
  - Loader: a Builder-pattern loader chaining config path, env prefix,
    and custom validators.
  - HotReloadManager: watches the config file and/or accepts field-level
    API updates, with change callbacks and a ring-buffered change log.
  - FileWatcher: polling-plus-debounce file change detector driving
    HotReloadManager's file-triggered reloads.
  - ConfigAPIHandler: an HTTP handler exposing config read, update,
    reload, field-registry, and change-history endpoints.

# Mandatory fields

Encryption.Key and Auth.SecretKey have no usable default — Validate
rejects a Config where either is empty or a known placeholder value,
so a deployment can never boot with the credential-at-rest protection
or the session-signing secret silently disabled.

# Usage

	cfg, err := config.NewLoader().
		WithConfigPath("config.yaml").
		WithEnvPrefix("ARGUSLM").
		Load()
*/
package config

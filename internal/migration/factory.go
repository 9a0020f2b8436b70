package migration

import (
	"fmt"

	appconfig "github.com/arguslm/arguslm/config"
)

// NewMigratorFromConfig creates a migrator from the application's
// top-level configuration.
func NewMigratorFromConfig(cfg *appconfig.Config) (*DefaultMigrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	return NewMigratorFromDatabaseConfig(cfg.Database)
}

// NewMigratorFromDatabaseConfig creates a migrator from a DatabaseConfig.
// Unlike the teacher's discrete Host/Port/User/Password/Name/SSLMode
// fields, ArgusLM's DatabaseConfig already carries a ready-to-use URL,
// so no URL assembly is needed here.
func NewMigratorFromDatabaseConfig(dbCfg appconfig.DatabaseConfig) (*DefaultMigrator, error) {
	dbType, err := ParseDatabaseType(dbCfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("invalid database type: %w", err)
	}

	migCfg := &Config{
		DatabaseType: dbType,
		DatabaseURL:  dbCfg.URL,
		TableName:    "schema_migrations",
	}

	return NewMigrator(migCfg)
}

// NewMigratorFromURL creates a migrator directly from a database type
// string and connection URL.
func NewMigratorFromURL(dbType, dbURL string) (*DefaultMigrator, error) {
	dt, err := ParseDatabaseType(dbType)
	if err != nil {
		return nil, err
	}

	return NewMigrator(&Config{
		DatabaseType: dt,
		DatabaseURL:  dbURL,
		TableName:    "schema_migrations",
	})
}

package dbcache

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the current cache schema version.
const SchemaVersion = 1

// CreateSchema creates the cache tables if they do not exist. A database
// written with another schema version is rejected.
func CreateSchema(db *sql.DB) error {
	if err := createSchemaVersionTable(db); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}
	if err := createDatabasesTable(db); err != nil {
		return fmt.Errorf("creating databases table: %w", err)
	}
	return nil
}

func createSchemaVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	var version int
	err = db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		_, err = db.Exec("INSERT INTO schema_version (version) VALUES (?)", SchemaVersion)
		return err
	case err != nil:
		return err
	case version != SchemaVersion:
		return fmt.Errorf("cache schema version %d, want %d", version, SchemaVersion)
	}
	return nil
}

func createDatabasesTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS databases (
			key TEXT PRIMARY KEY NOT NULL,
			info TEXT NOT NULL,
			blob BLOB NOT NULL,
			created_at INTEGER NOT NULL
		)
	`)
	return err
}

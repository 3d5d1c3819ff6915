package postgres

import "embed"

// Migrations holds the schema migrations compiled into the binary.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsPath is the directory of Migrations that holds the SQL files.
const MigrationsPath = "migrations"

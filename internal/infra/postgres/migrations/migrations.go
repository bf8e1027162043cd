package migrations

import (
	_ "embed"

	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_scores.sql
var createScoresSQL string

var Migrations = migrate.NewMigrations()

package db

import (
	"context"
	"database/sql"
	"fmt"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS tournaments (
		id   BIGSERIAL PRIMARY KEY,
		name VARCHAR(254) NOT NULL,
		CONSTRAINT tournaments_name_key UNIQUE (name)
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id                  BIGSERIAL PRIMARY KEY,
		tournament_id       BIGINT NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
		name                VARCHAR(254) NOT NULL,
		status              VARCHAR(32) NOT NULL,
		winning_team_number SMALLINT,
		CONSTRAINT matches_tournament_id_name_key UNIQUE (tournament_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS players (
		id          BIGSERIAL PRIMARY KEY,
		match_id    BIGINT NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
		name        VARCHAR(254) NOT NULL,
		team_number SMALLINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS betters (
		id            BIGSERIAL PRIMARY KEY,
		tournament_id BIGINT NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
		name          VARCHAR(254) NOT NULL,
		balance_cents BIGINT NOT NULL,
		CONSTRAINT betters_tournament_id_name_key UNIQUE (tournament_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS bets (
		id           BIGSERIAL PRIMARY KEY,
		better_id    BIGINT NOT NULL REFERENCES betters(id) ON DELETE CASCADE,
		match_id     BIGINT NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
		amount_cents BIGINT NOT NULL,
		team_number  SMALLINT NOT NULL,
		won          BOOLEAN
	)`,
	`CREATE INDEX IF NOT EXISTS bets_match_id_idx ON bets (match_id)`,
	`CREATE INDEX IF NOT EXISTS bets_better_id_idx ON bets (better_id)`,
	`CREATE INDEX IF NOT EXISTS players_match_id_idx ON players (match_id)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS tournaments (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id                  INTEGER PRIMARY KEY AUTOINCREMENT,
		tournament_id       INTEGER NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
		name                TEXT NOT NULL,
		status              TEXT NOT NULL,
		winning_team_number INTEGER,
		UNIQUE (tournament_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS players (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		match_id    INTEGER NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
		name        TEXT NOT NULL,
		team_number INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS betters (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		tournament_id INTEGER NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
		name          TEXT NOT NULL,
		balance_cents INTEGER NOT NULL,
		UNIQUE (tournament_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS bets (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		better_id    INTEGER NOT NULL REFERENCES betters(id) ON DELETE CASCADE,
		match_id     INTEGER NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
		amount_cents INTEGER NOT NULL,
		team_number  INTEGER NOT NULL,
		won          BOOLEAN
	)`,
	`CREATE INDEX IF NOT EXISTS bets_match_id_idx ON bets (match_id)`,
	`CREATE INDEX IF NOT EXISTS bets_better_id_idx ON bets (better_id)`,
	`CREATE INDEX IF NOT EXISTS players_match_id_idx ON players (match_id)`,
}

// Migrate создает таблицы, если их еще нет. Повторный вызов безопасен.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var statements []string
	switch driver {
	case DriverPostgres:
		statements = postgresSchema
	case DriverSQLite:
		statements = sqliteSchema
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i+1, err)
		}
	}
	return nil
}

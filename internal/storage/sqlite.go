package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure Go driver, registers "sqlite"

	"github.com/hammamikhairi/pantrychef/internal/domain"
	"github.com/hammamikhairi/pantrychef/internal/logger"
)

// Compile-time interface check.
var _ domain.ItemStore = (*SQLiteStore)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS storage_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	quantity REAL NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS shopping_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	checked INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS meals (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	cook_time INTEGER NOT NULL DEFAULT 0,
	servings INTEGER NOT NULL DEFAULT 0,
	ingredients TEXT NOT NULL DEFAULT '[]',
	instructions TEXT NOT NULL DEFAULT '[]',
	image TEXT NOT NULL DEFAULT '',
	planned_date TEXT
);`

// SQLiteStore reads the household tables from a local SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	log *logger.Logger
}

// NewSQLiteStore opens (creating if needed) the database at path and
// ensures the schema exists.
func NewSQLiteStore(ctx context.Context, path string, log *logger.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	log.Debug("sqlite store: opened %s", path)
	return &SQLiteStore{db: db, log: log}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Empty reports whether the meal catalog has no rows.
func (s *SQLiteStore) Empty(ctx context.Context) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM meals`).Scan(&n); err != nil {
		return false, fmt.Errorf("counting meals: %w", err)
	}
	return n == 0, nil
}

// Import inserts every row of seed in one transaction.
func (s *SQLiteStore) Import(ctx context.Context, seed *Seed) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	for _, it := range seed.Storage {
		if _, err := tx.ExecContext(ctx, `INSERT INTO storage_items (name, quantity) VALUES (?, ?)`, it.Name, it.Quantity); err != nil {
			return fmt.Errorf("inserting storage item %q: %w", it.Name, err)
		}
	}
	for _, it := range seed.Shopping {
		if _, err := tx.ExecContext(ctx, `INSERT INTO shopping_items (name) VALUES (?)`, it.Name); err != nil {
			return fmt.Errorf("inserting shopping item %q: %w", it.Name, err)
		}
	}
	for _, m := range seed.Meals {
		ingredients, _ := json.Marshal(nonNil(m.Ingredients))
		instructions, _ := json.Marshal(nonNil(m.Instructions))
		var planned any
		if m.PlannedDate != "" {
			planned = m.PlannedDate
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO meals (id, title, cook_time, servings, ingredients, instructions, image, planned_date)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.Title, m.CookTime, m.Servings, string(ingredients), string(instructions), m.Image, planned)
		if err != nil {
			return fmt.Errorf("inserting meal %q: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	s.log.Info("sqlite store: imported %d storage, %d shopping, %d meals", len(seed.Storage), len(seed.Shopping), len(seed.Meals))
	return nil
}

// PantryNames returns up to limit storage item names.
func (s *SQLiteStore) PantryNames(ctx context.Context, limit int) ([]string, error) {
	return s.names(ctx, `SELECT name FROM storage_items ORDER BY id LIMIT ?`, limit)
}

// ShoppingNames returns up to limit unchecked shopping list names.
func (s *SQLiteStore) ShoppingNames(ctx context.Context, limit int) ([]string, error) {
	return s.names(ctx, `SELECT name FROM shopping_items WHERE checked = 0 ORDER BY id LIMIT ?`, limit)
}

func (s *SQLiteStore) names(ctx context.Context, query string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("querying names: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning name: %w", err)
		}
		if name = normalizeName(name); name != "" {
			out = append(out, name)
		}
	}
	return out, rows.Err()
}

// ExplorableRecipes returns up to limit meals with no planned date.
func (s *SQLiteStore) ExplorableRecipes(ctx context.Context, limit int) ([]domain.Recipe, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, cook_time, servings, ingredients, instructions, image
		 FROM meals WHERE planned_date IS NULL ORDER BY seq LIMIT ?`, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("querying meals: %w", err)
	}
	defer rows.Close()

	var out []domain.Recipe
	for rows.Next() {
		var r domain.Recipe
		var ingredients, instructions string
		if err := rows.Scan(&r.ID, &r.Title, &r.CookTime, &r.Servings, &ingredients, &instructions, &r.Image); err != nil {
			return nil, fmt.Errorf("scanning meal: %w", err)
		}
		if err := json.Unmarshal([]byte(ingredients), &r.Ingredients); err != nil {
			return nil, fmt.Errorf("meal %s ingredients: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(instructions), &r.Instructions); err != nil {
			return nil, fmt.Errorf("meal %s instructions: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

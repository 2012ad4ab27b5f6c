// Package sqlite stores scenes and placement runs in a SQLite database.
//
// A scene database holds the named objects of a host scene (an ObjectProvider)
// and can record the placements of a run (an Instantiator).
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Extensions lists the file extensions treated as scene databases.
var Extensions = []string{".db", ".sqlite", ".sqlite3"}

// Store wraps a scene database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene database: %w", err)
	}
	s, err := NewFromDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenReadOnly opens an existing database at path for reading only.
// Nothing is created or migrated; a database without an objects table
// fails on the first query.
func OpenReadOnly(path string) (*Store, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scene database path: %w", err)
	}
	dsn := (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs), RawQuery: "mode=ro"}).String()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene database: %w", err)
	}
	return &Store{db: db}, nil
}

// NewFromDB wraps an existing connection and applies pending migrations.
func NewFromDB(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	// Note: m is not closed because that would close the underlying DB connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Objects lists the scene objects in insertion order.
func (s *Store) Objects(ctx context.Context) ([]domain.Object, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, ref, attributes FROM objects ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query objects: %w", err)
	}
	defer rows.Close()

	var objects []domain.Object
	for rows.Next() {
		var o domain.Object
		var attrs string
		if err := rows.Scan(&o.Name, &o.Ref, &attrs); err != nil {
			return nil, fmt.Errorf("failed to scan object: %w", err)
		}
		if attrs != "" && attrs != "{}" {
			if err := json.Unmarshal([]byte(attrs), &o.Attributes); err != nil {
				return nil, fmt.Errorf("object %s has invalid attributes: %w", o.Name, err)
			}
		}
		objects = append(objects, o)
	}
	return objects, rows.Err()
}

// PutObjects appends objects to the scene.
func (s *Store) PutObjects(ctx context.Context, objects ...domain.Object) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO objects (name, ref, attributes) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range objects {
		attrs := []byte("{}")
		if len(o.Attributes) > 0 {
			if attrs, err = json.Marshal(o.Attributes); err != nil {
				return fmt.Errorf("failed to encode attributes for %s: %w", o.Name, err)
			}
		}
		if _, err := stmt.ExecContext(ctx, o.Name, o.Ref, string(attrs)); err != nil {
			return fmt.Errorf("failed to insert object %s: %w", o.Name, err)
		}
	}
	return tx.Commit()
}

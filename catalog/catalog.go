// Package catalog stores snapshots of a dispatch method table in SQLite so
// introspection tools can list registered methods without a live resolver.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/chazu/classdispatch/dispatch"

	_ "modernc.org/sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS methods (
		generic TEXT NOT NULL,
		class   TEXT NOT NULL,
		label   TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (generic, class)
	)`,
	`CREATE TABLE IF NOT EXISTS primitives (
		generic TEXT PRIMARY KEY
	)`,
}

// Method is one catalogued method.
type Method struct {
	Generic string
	Class   dispatch.ClassTag
	Label   string
}

// Catalog handles SQLite storage for method table snapshots
type Catalog struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// Open opens or creates the catalog database at dbPath.
func Open(dbPath string) (*Catalog, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating catalog dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating tables: %w", err)
		}
	}

	return &Catalog{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection
func (c *Catalog) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (c *Catalog) Path() string {
	return c.dbPath
}

// Save replaces the stored snapshot with the current contents of t.
func (c *Catalog) Save(ctx context.Context, t *dispatch.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning snapshot: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM methods"); err != nil {
		return fmt.Errorf("clearing methods: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM primitives"); err != nil {
		return fmt.Errorf("clearing primitives: %w", err)
	}

	for _, e := range t.Entries() {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO methods (generic, class, label) VALUES (?, ?, ?)",
			e.Key.Generic, string(e.Key.Class), e.Label,
		)
		if err != nil {
			return fmt.Errorf("saving method %s/%s: %w", e.Key.Generic, e.Key.Class, err)
		}
	}
	for _, g := range t.Primitives() {
		if _, err := tx.ExecContext(ctx, "INSERT INTO primitives (generic) VALUES (?)", g); err != nil {
			return fmt.Errorf("saving primitive %s: %w", g, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// Methods returns every catalogued method ordered by generic, then class.
func (c *Catalog) Methods(ctx context.Context) ([]Method, error) {
	return c.queryMethods(ctx, "SELECT generic, class, label FROM methods ORDER BY generic, class")
}

// MethodsFor returns the catalogued methods of one generic.
func (c *Catalog) MethodsFor(ctx context.Context, generic string) ([]Method, error) {
	return c.queryMethods(ctx,
		"SELECT generic, class, label FROM methods WHERE generic = ? ORDER BY class", generic)
}

func (c *Catalog) queryMethods(ctx context.Context, query string, args ...any) ([]Method, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying methods: %w", err)
	}
	defer rows.Close()

	var methods []Method
	for rows.Next() {
		var m Method
		var class string
		if err := rows.Scan(&m.Generic, &class, &m.Label); err != nil {
			return nil, fmt.Errorf("scanning method: %w", err)
		}
		m.Class = dispatch.ClassTag(class)
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

// Primitives returns the catalogued primitive generics in sorted order.
func (c *Catalog) Primitives(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT generic FROM primitives ORDER BY generic")
	if err != nil {
		return nil, fmt.Errorf("querying primitives: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning primitive: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

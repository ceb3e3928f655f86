package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jcdickinson/apiperms/internal/apidoc"
	"github.com/jcdickinson/apiperms/internal/model"
	"github.com/jcdickinson/apiperms/internal/perms"
	_ "github.com/marcboeker/go-duckdb"
)

type DB struct {
	conn *sql.DB
}

func New(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	conn, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	queries := []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_source_id START 1;`,
		`CREATE SEQUENCE IF NOT EXISTS seq_package_id START 1;`,
		`CREATE SEQUENCE IF NOT EXISTS seq_class_id START 1;`,
		`CREATE SEQUENCE IF NOT EXISTS seq_method_id START 1;`,
		`CREATE SEQUENCE IF NOT EXISTS seq_permission_id START 1;`,

		`CREATE TABLE IF NOT EXISTS sources (
			id INTEGER PRIMARY KEY,
			methods_path TEXT NOT NULL,
			perms_path TEXT NOT NULL,
			methods_hash TEXT NOT NULL,
			perms_hash TEXT NOT NULL,
			imported_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(methods_hash, perms_hash)
		)`,

		`CREATE TABLE IF NOT EXISTS packages (
			id INTEGER PRIMARY KEY,
			source_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_packages_source ON packages (source_id)`,

		`CREATE TABLE IF NOT EXISTS classes (
			id INTEGER PRIMARY KEY,
			package_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_classes_package ON classes (package_id)`,

		`CREATE TABLE IF NOT EXISTS methods (
			id INTEGER PRIMARY KEY,
			class_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_methods_class ON methods (class_id)`,

		`CREATE TABLE IF NOT EXISTS permissions (
			id INTEGER PRIMARY KEY,
			source_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			protection_level TEXT NOT NULL,
			is_group BOOLEAN NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_permissions_source ON permissions (source_id)`,
	}

	for _, q := range queries {
		if _, err := db.conn.Exec(q); err != nil {
			return fmt.Errorf("executing %q: %w", q, err)
		}
	}
	return nil
}

// --- Source operations ---

// Source is one imported pair of input files.
type Source struct {
	ID          int
	MethodsPath string
	PermsPath   string
	MethodsHash string
	PermsHash   string
	ImportedAt  time.Time
}

func (db *DB) GetSource(ctx context.Context, methodsHash, permsHash string) (*Source, error) {
	var s Source
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, methods_path, perms_path, methods_hash, perms_hash, imported_at
		 FROM sources WHERE methods_hash = ? AND perms_hash = ?`,
		methodsHash, permsHash,
	).Scan(&s.ID, &s.MethodsPath, &s.PermsPath, &s.MethodsHash, &s.PermsHash, &s.ImportedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (db *DB) ListSources(ctx context.Context) ([]Source, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, methods_path, perms_path, methods_hash, perms_hash, imported_at FROM sources ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.MethodsPath, &s.PermsPath, &s.MethodsHash, &s.PermsHash, &s.ImportedAt); err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// SaveModel stores m and returns its source ID. A model whose inputs were
// already imported is not stored again.
func (db *DB) SaveModel(ctx context.Context, m *model.Model) (int, error) {
	existing, err := db.GetSource(ctx, m.Source.MethodsHash, m.Source.PermsHash)
	if err != nil {
		return 0, fmt.Errorf("checking source: %w", err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var sourceID int
	err = tx.QueryRowContext(ctx,
		`INSERT INTO sources (id, methods_path, perms_path, methods_hash, perms_hash)
		 VALUES (nextval('seq_source_id'), ?, ?, ?, ?) RETURNING id`,
		m.Source.MethodsPath, m.Source.PermsPath, m.Source.MethodsHash, m.Source.PermsHash,
	).Scan(&sourceID)
	if err != nil {
		return 0, fmt.Errorf("inserting source: %w", err)
	}

	if err := insertTree(ctx, tx, sourceID, m.Packages); err != nil {
		return 0, err
	}
	if err := insertPermissions(ctx, tx, sourceID, m.Permissions.Sorted()); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing model: %w", err)
	}
	return sourceID, nil
}

func insertTree(ctx context.Context, tx *sql.Tx, sourceID int, pkgs []*apidoc.Package) error {
	for pi, p := range pkgs {
		var pkgID int
		err := tx.QueryRowContext(ctx,
			`INSERT INTO packages (id, source_id, position, name, description)
			 VALUES (nextval('seq_package_id'), ?, ?, ?, ?) RETURNING id`,
			sourceID, pi, p.Name, p.Description,
		).Scan(&pkgID)
		if err != nil {
			return fmt.Errorf("inserting package %s: %w", p.Name, err)
		}

		for ci, c := range p.Classes {
			var classID int
			err := tx.QueryRowContext(ctx,
				`INSERT INTO classes (id, package_id, position, name, description)
				 VALUES (nextval('seq_class_id'), ?, ?, ?, ?) RETURNING id`,
				pkgID, ci, c.Name, c.Description,
			).Scan(&classID)
			if err != nil {
				return fmt.Errorf("inserting class %s.%s: %w", p.Name, c.Name, err)
			}

			for mi, m := range c.Methods {
				_, err := tx.ExecContext(ctx,
					`INSERT INTO methods (id, class_id, position, name, description)
					 VALUES (nextval('seq_method_id'), ?, ?, ?, ?)`,
					classID, mi, m.Name, m.Description,
				)
				if err != nil {
					return fmt.Errorf("inserting method %s.%s.%s: %w", p.Name, c.Name, m.Name, err)
				}
			}
		}
	}
	return nil
}

func insertPermissions(ctx context.Context, tx *sql.Tx, sourceID int, ps []perms.Permission) error {
	for _, p := range ps {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO permissions (id, source_id, name, protection_level, is_group)
			 VALUES (nextval('seq_permission_id'), ?, ?, ?, ?)`,
			sourceID, p.Name, string(p.Level), p.IsGroup,
		)
		if err != nil {
			return fmt.Errorf("inserting permission %s: %w", p.Name, err)
		}
	}
	return nil
}

// LoadModel rebuilds the model stored under sourceID, in file order.
func (db *DB) LoadModel(ctx context.Context, sourceID int) (*model.Model, error) {
	var m model.Model
	err := db.conn.QueryRowContext(ctx,
		`SELECT methods_path, perms_path, methods_hash, perms_hash FROM sources WHERE id = ?`, sourceID,
	).Scan(&m.Source.MethodsPath, &m.Source.PermsPath, &m.Source.MethodsHash, &m.Source.PermsHash)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("source %d not found", sourceID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading source: %w", err)
	}

	pkgs, err := db.loadTree(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	m.Packages = pkgs

	set, err := db.loadPermissions(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	m.Permissions = set
	return &m, nil
}

func (db *DB) loadTree(ctx context.Context, sourceID int) ([]*apidoc.Package, error) {
	pkgs := []*apidoc.Package{}
	byPkgID := make(map[int]*apidoc.Package)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, description FROM packages WHERE source_id = ? ORDER BY position`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("querying packages: %w", err)
	}
	for rows.Next() {
		var id int
		var name, desc string
		if err := rows.Scan(&id, &name, &desc); err != nil {
			rows.Close()
			return nil, err
		}
		p := apidoc.NewPackage(name, desc)
		pkgs = append(pkgs, p)
		byPkgID[id] = p
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	byClassID := make(map[int]*apidoc.Class)
	rows, err = db.conn.QueryContext(ctx,
		`SELECT c.id, c.package_id, c.name, c.description
		 FROM classes c JOIN packages p ON c.package_id = p.id
		 WHERE p.source_id = ? ORDER BY c.package_id, c.position`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("querying classes: %w", err)
	}
	for rows.Next() {
		var id, pkgID int
		var name, desc string
		if err := rows.Scan(&id, &pkgID, &name, &desc); err != nil {
			rows.Close()
			return nil, err
		}
		c := apidoc.NewClass(name, desc)
		byPkgID[pkgID].Classes = append(byPkgID[pkgID].Classes, c)
		byClassID[id] = c
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = db.conn.QueryContext(ctx,
		`SELECT m.class_id, m.name, m.description
		 FROM methods m JOIN classes c ON m.class_id = c.id JOIN packages p ON c.package_id = p.id
		 WHERE p.source_id = ? ORDER BY m.class_id, m.position`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("querying methods: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var classID int
		var name, desc string
		if err := rows.Scan(&classID, &name, &desc); err != nil {
			return nil, err
		}
		c := byClassID[classID]
		c.Methods = append(c.Methods, apidoc.NewMethod(name, desc))
	}
	return pkgs, rows.Err()
}

func (db *DB) loadPermissions(ctx context.Context, sourceID int) (*perms.Set, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT name, protection_level, is_group FROM permissions WHERE source_id = ? ORDER BY name`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("querying permissions: %w", err)
	}
	defer rows.Close()

	set := perms.NewSet()
	for rows.Next() {
		var p perms.Permission
		var level string
		if err := rows.Scan(&p.Name, &level, &p.IsGroup); err != nil {
			return nil, err
		}
		p.Level = perms.Level(level)
		set.Add(p)
	}
	return set, rows.Err()
}

// PermissionsByLevel counts the permissions of a source per protection level.
func (db *DB) PermissionsByLevel(ctx context.Context, sourceID int) (map[perms.Level]int, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT protection_level, COUNT(*) FROM permissions WHERE source_id = ? GROUP BY protection_level`, sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[perms.Level]int)
	for rows.Next() {
		var level string
		var n int
		if err := rows.Scan(&level, &n); err != nil {
			return nil, err
		}
		counts[perms.Level(level)] = n
	}
	return counts, rows.Err()
}

// DeleteSource removes a source and everything imported with it.
func (db *DB) DeleteSource(ctx context.Context, sourceID int) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	queries := []string{
		`DELETE FROM methods WHERE class_id IN (
			SELECT c.id FROM classes c JOIN packages p ON c.package_id = p.id WHERE p.source_id = ?)`,
		`DELETE FROM classes WHERE package_id IN (SELECT id FROM packages WHERE source_id = ?)`,
		`DELETE FROM packages WHERE source_id = ?`,
		`DELETE FROM permissions WHERE source_id = ?`,
		`DELETE FROM sources WHERE id = ?`,
	}
	for _, q := range queries {
		if _, err := tx.ExecContext(ctx, q, sourceID); err != nil {
			return fmt.Errorf("deleting source %d: %w", sourceID, err)
		}
	}
	return tx.Commit()
}

package classdef

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

const catalogSchema = `
CREATE TABLE IF NOT EXISTS classes (
	name      TEXT PRIMARY KEY,
	super     TEXT NOT NULL,
	modifiers TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS interfaces (
	class TEXT NOT NULL,
	pos   INTEGER NOT NULL,
	name  TEXT NOT NULL,
	PRIMARY KEY (class, pos)
);
CREATE TABLE IF NOT EXISTS fields (
	class     TEXT NOT NULL,
	pos       INTEGER NOT NULL,
	name      TEXT NOT NULL,
	type      TEXT NOT NULL,
	modifiers TEXT NOT NULL,
	PRIMARY KEY (class, pos)
);
CREATE TABLE IF NOT EXISTS methods (
	class      TEXT NOT NULL,
	pos        INTEGER NOT NULL,
	name       TEXT NOT NULL,
	descriptor TEXT NOT NULL,
	modifiers  TEXT NOT NULL,
	native     TEXT NOT NULL,
	PRIMARY KEY (class, pos)
);
`

// Catalog is a persistent store of class definitions backed by SQLite.
type Catalog struct {
	db *sql.DB
}

// OpenCatalog opens (creating if needed) the catalog at path.
func OpenCatalog(ctx context.Context, path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	// A single connection keeps :memory: catalogs coherent.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, catalogSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init catalog %s: %w", path, err)
	}
	return &Catalog{db: db}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// Put stores the given classes, replacing any previous definition with the
// same name. All classes are written in one transaction.
func (c *Catalog) Put(ctx context.Context, classes ...Class) (err error) {
	for _, class := range classes {
		if err := class.Validate(); err != nil {
			return err
		}
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, class := range classes {
		if err := deleteClass(ctx, tx, class.Name); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO classes (name, super, modifiers) VALUES (?, ?, ?)`,
			class.Name, class.Super, joinModifiers(class.Modifiers),
		); err != nil {
			return fmt.Errorf("store class %s: %w", class.Name, err)
		}
		for i, iface := range class.Interfaces {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO interfaces (class, pos, name) VALUES (?, ?, ?)`,
				class.Name, i, iface,
			); err != nil {
				return fmt.Errorf("store class %s: %w", class.Name, err)
			}
		}
		for i, f := range class.Fields {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO fields (class, pos, name, type, modifiers) VALUES (?, ?, ?, ?, ?)`,
				class.Name, i, f.Name, f.Type, joinModifiers(f.Modifiers),
			); err != nil {
				return fmt.Errorf("store class %s: %w", class.Name, err)
			}
		}
		for i, m := range class.Methods {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO methods (class, pos, name, descriptor, modifiers, native) VALUES (?, ?, ?, ?, ?, ?)`,
				class.Name, i, m.Name, m.Descriptor, joinModifiers(m.Modifiers), m.Native,
			); err != nil {
				return fmt.Errorf("store class %s: %w", class.Name, err)
			}
		}
	}
	return tx.Commit()
}

// Delete removes a class definition. Deleting an unknown class is not an error.
func (c *Catalog) Delete(ctx context.Context, name string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := deleteClass(ctx, tx, name); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func deleteClass(ctx context.Context, tx *sql.Tx, name string) error {
	for _, table := range []string{"interfaces", "fields", "methods"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE class = ?`, name); err != nil {
			return fmt.Errorf("delete class %s: %w", name, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM classes WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete class %s: %w", name, err)
	}
	return nil
}

// Names lists the catalogued class names in lexical order.
func (c *Catalog) Names(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT name FROM classes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Load returns every catalogued class, ordered by name.
func (c *Catalog) Load(ctx context.Context) ([]Class, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT name, super, modifiers FROM classes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	var classes []Class
	index := make(map[string]int)
	for rows.Next() {
		var class Class
		var mods string
		if err := rows.Scan(&class.Name, &class.Super, &mods); err != nil {
			rows.Close()
			return nil, err
		}
		class.Modifiers = splitModifiers(mods)
		index[class.Name] = len(classes)
		classes = append(classes, class)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := c.scan(ctx, `SELECT class, name FROM interfaces ORDER BY class, pos`, func(rows *sql.Rows) error {
		var owner, name string
		if err := rows.Scan(&owner, &name); err != nil {
			return err
		}
		if i, ok := index[owner]; ok {
			classes[i].Interfaces = append(classes[i].Interfaces, name)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := c.scan(ctx, `SELECT class, name, type, modifiers FROM fields ORDER BY class, pos`, func(rows *sql.Rows) error {
		var owner, mods string
		var f Field
		if err := rows.Scan(&owner, &f.Name, &f.Type, &mods); err != nil {
			return err
		}
		f.Modifiers = splitModifiers(mods)
		if i, ok := index[owner]; ok {
			classes[i].Fields = append(classes[i].Fields, f)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := c.scan(ctx, `SELECT class, name, descriptor, modifiers, native FROM methods ORDER BY class, pos`, func(rows *sql.Rows) error {
		var owner, mods string
		var m Method
		if err := rows.Scan(&owner, &m.Name, &m.Descriptor, &mods, &m.Native); err != nil {
			return err
		}
		m.Modifiers = splitModifiers(mods)
		if i, ok := index[owner]; ok {
			classes[i].Methods = append(classes[i].Methods, m)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return classes, nil
}

func (c *Catalog) scan(ctx context.Context, query string, fn func(*sql.Rows) error) error {
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func joinModifiers(mods []string) string {
	return strings.Join(mods, " ")
}

func splitModifiers(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}

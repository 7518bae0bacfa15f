// Package catalog records one row per extracted swath in a SQLite database,
// for reporting and re-run bookkeeping.
package catalog

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/cumulus-data/swath.report/internal/monitoring"
	"github.com/cumulus-data/swath.report/internal/swath"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Catalog is an open extraction catalog.
type Catalog struct {
	db *sql.DB
}

// Extraction is one catalog row.
type Extraction struct {
	ID              string
	SwathName       string
	CanonicalName   string
	Tag             swath.Tag
	FilledChannels  int
	Duration        time.Duration
	LabelledTiles   int
	UnlabelledTiles int
}

// TagCount is one bucket of the tag distribution.
type TagCount struct {
	Tag   string
	Count int
}

// Open opens (creating if necessary) the catalog at path and applies any
// pending schema migrations.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", path, err)
	}
	c := &Catalog{db: db}
	if err := c.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error { return c.db.Close() }

func (c *Catalog) migrateUp() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(c.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating sqlite migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}
	// Closing m would close the shared database connection.
	m.Log = migrateLogger{}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// RecordExtraction inserts one extraction row and returns its ID. A blank
// ID is replaced by a fresh UUID.
func (c *Catalog) RecordExtraction(e Extraction) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := c.db.Exec(`
		INSERT INTO extractions
			(id, swath_name, canonical_name, tag, filled_channels, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.SwathName, e.CanonicalName, string(e.Tag), e.FilledChannels,
		e.Duration.Milliseconds())
	if err != nil {
		return "", fmt.Errorf("recording extraction %s: %w", e.CanonicalName, err)
	}
	return e.ID, nil
}

// RecordTileCounts stores the tile counts for an already-recorded swath.
func (c *Catalog) RecordTileCounts(canonicalName string, labelled, unlabelled int) error {
	res, err := c.db.Exec(`
		UPDATE extractions
		SET labelled_tiles = ?, unlabelled_tiles = ?
		WHERE canonical_name = ?`,
		labelled, unlabelled, canonicalName)
	if err != nil {
		return fmt.Errorf("recording tile counts for %s: %w", canonicalName, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no catalog row for %s", canonicalName)
	}
	return nil
}

// TagDistribution returns the number of extractions per usability tag,
// alphabetically by tag.
func (c *Catalog) TagDistribution() ([]TagCount, error) {
	rows, err := c.db.Query(`
		SELECT tag, COUNT(*) FROM extractions GROUP BY tag ORDER BY tag`)
	if err != nil {
		return nil, fmt.Errorf("querying tag distribution: %w", err)
	}
	defer rows.Close()

	var out []TagCount
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

// TileTotals returns the labelled and unlabelled tile counts summed over all
// extractions.
func (c *Catalog) TileTotals() (labelled, unlabelled int, err error) {
	err = c.db.QueryRow(`
		SELECT COALESCE(SUM(labelled_tiles), 0), COALESCE(SUM(unlabelled_tiles), 0)
		FROM extractions`).Scan(&labelled, &unlabelled)
	if err != nil {
		return 0, 0, fmt.Errorf("querying tile totals: %w", err)
	}
	return labelled, unlabelled, nil
}

// Extractions returns all rows, newest first.
func (c *Catalog) Extractions() ([]Extraction, error) {
	rows, err := c.db.Query(`
		SELECT id, swath_name, canonical_name, tag, filled_channels,
		       duration_ms, labelled_tiles, unlabelled_tiles
		FROM extractions ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("querying extractions: %w", err)
	}
	defer rows.Close()

	var out []Extraction
	for rows.Next() {
		var e Extraction
		var tag string
		var durationMS int64
		if err := rows.Scan(&e.ID, &e.SwathName, &e.CanonicalName, &tag,
			&e.FilledChannels, &durationMS, &e.LabelledTiles, &e.UnlabelledTiles); err != nil {
			return nil, err
		}
		e.Tag = swath.Tag(tag)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}

type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...interface{}) {
	monitoring.Logf("[migrate] "+format, v...)
}

func (migrateLogger) Verbose() bool { return false }

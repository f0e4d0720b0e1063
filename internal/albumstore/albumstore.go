// Package albumstore keeps a local mirror of the account's album
// listing so repeated runs can resolve album indexes and render the
// album list without hitting the API.
package albumstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"photoflow/internal/logging"
	"photoflow/internal/photoslib"
)

const defaultTimeout = 5 * time.Second

// ErrNotFound indicates no album exists at the requested index.
var ErrNotFound = errors.New("albumstore: no album at that index")

// Store is the on-disk album mirror. Albums keep the enumeration order
// the API returned them in, so indexes are stable between a list run
// and a later fetch run.
type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// Open opens or creates the mirror database at path. The parent
// directory must exist.
func Open(ctx context.Context, path string, logger logging.Logger) (*Store, error) {
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open album database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to album database: %w", err)
	}

	s := &Store{db: db, logger: logging.Or(logger)}
	if err := s.initialize(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize album schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS albums (
		position INTEGER PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		item_count INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);
	`
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// ReplaceAll swaps the whole mirror for the given listing in one
// transaction, preserving slice order as the stored position.
func (s *Store) ReplaceAll(ctx context.Context, albums []photoslib.Album) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting album refresh: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM albums"); err != nil {
		return fmt.Errorf("clearing album mirror: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO albums (position, id, title, item_count) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing album insert: %w", err)
	}
	defer stmt.Close()

	for i, album := range albums {
		if _, err := stmt.ExecContext(ctx, i, album.ID, album.Title, album.ItemCount()); err != nil {
			return fmt.Errorf("storing album %q: %w", album.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing album refresh: %w", err)
	}
	s.logger.Info("album mirror refreshed with %d albums", len(albums))
	return nil
}

// Entry is one mirrored album.
type Entry struct {
	Position  int
	ID        string
	Title     string
	ItemCount int
}

// All returns every mirrored album in stored order.
func (s *Store) All(ctx context.Context) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		"SELECT position, id, title, item_count FROM albums ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("listing albums: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Position, &e.ID, &e.Title, &e.ItemCount); err != nil {
			return nil, fmt.Errorf("scanning album row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ByIndex returns the album stored at the given enumeration position.
func (s *Store) ByIndex(ctx context.Context, position int) (Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var e Entry
	err := s.db.QueryRowContext(ctx,
		"SELECT position, id, title, item_count FROM albums WHERE position = ?", position).
		Scan(&e.Position, &e.ID, &e.Title, &e.ItemCount)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("looking up album %d: %w", position, err)
	}
	return e, nil
}

// Count returns the number of mirrored albums.
func (s *Store) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM albums").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting albums: %w", err)
	}
	return n, nil
}

// FormatList renders entries one per line in the fixed-width form
// used by the album listing output:
//
//	[ 0003 | albumId | count: 128 | "Summer 2023" ]
func FormatList(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "[ %04d | %s | count: %d | %q ]\n", e.Position, e.ID, e.ItemCount, e.Title)
	}
	return b.String()
}

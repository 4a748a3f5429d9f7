package image

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/vertex/pkg/program"
)

var (
	// ErrImageNotFound indicates the requested image is not in the store.
	ErrImageNotFound = errors.New("image not found")

	// ErrCorrupt indicates a stored image no longer matches its hash.
	ErrCorrupt = errors.New("stored image hash mismatch")
)

// Entry describes one stored image.
type Entry struct {
	Name     string
	Hash     string
	Size     int
	StoredAt time.Time
}

// Store keeps images in a SQLite database, one per package name.
type Store struct {
	db   *sql.DB
	path string
	log  commonlog.Logger
	mu   sync.Mutex
}

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS images (
		name TEXT PRIMARY KEY,
		hash TEXT NOT NULL,
		data BLOB NOT NULL,
		stored_at TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{db: db, path: path, log: commonlog.GetLogger("vertex.image")}, nil
}

// Path returns the database file.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put encodes pkg and stores it under its package name, replacing any
// earlier image of the same name.
func (s *Store) Put(pkg *program.Package) (Entry, error) {
	data, err := Encode(pkg)
	if err != nil {
		return Entry{}, err
	}
	e := Entry{
		Name:     pkg.Name(),
		Hash:     hashOf(data),
		Size:     len(data),
		StoredAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO images (name, hash, data, stored_at) VALUES (?, ?, ?, ?)",
		e.Name, e.Hash, data, e.StoredAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("saving image: %w", err)
	}
	s.log.Infof("stored image %s (%d bytes, sha256 %.12s)", e.Name, e.Size, e.Hash)
	return e, nil
}

// Get loads and decodes the image stored under name.
func (s *Store) Get(name string) (*program.Package, error) {
	var hash string
	var data []byte
	err := s.db.QueryRow("SELECT hash, data FROM images WHERE name = ?", name).Scan(&hash, &data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrImageNotFound, name)
		}
		return nil, fmt.Errorf("querying image: %w", err)
	}
	if got := hashOf(data); got != hash {
		return nil, fmt.Errorf("%w: %s", ErrCorrupt, name)
	}
	s.log.Debugf("loaded image %s (%d bytes)", name, len(data))
	return Decode(data)
}

// List returns every stored image ordered by name.
func (s *Store) List() ([]Entry, error) {
	rows, err := s.db.Query("SELECT name, hash, length(data), stored_at FROM images ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var stored string
		if err := rows.Scan(&e.Name, &e.Hash, &e.Size, &stored); err != nil {
			return nil, fmt.Errorf("scanning image: %w", err)
		}
		if e.StoredAt, err = time.Parse(time.RFC3339Nano, stored); err != nil {
			return nil, fmt.Errorf("image %s: stored_at: %w", e.Name, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes the image stored under name.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM images WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting image: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting image: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrImageNotFound, name)
	}
	s.log.Infof("deleted image %s", name)
	return nil
}

func hashOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

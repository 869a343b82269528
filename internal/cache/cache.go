// Package cache persists per-file function embeddings keyed by the file's
// path relative to the scan root. An entry is valid only while its stored
// content hash matches the file's current SHA-256; a mismatch invalidates
// every vector for that file. Validity is file-granular, storage is
// function-granular.
package cache

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// Entry is the cached state for one file.
type Entry struct {
	Hash    string
	Vectors map[string][]float32
}

// Store provides persistence for file hashes and function embeddings.
type Store interface {
	// Lookup returns the entry for a relative path, or nil on a miss.
	Lookup(relPath string) (*Entry, error)
	// Put buffers an entry for a relative path until Flush.
	Put(relPath string, e *Entry)
	// Flush durably persists all buffered entries in one transaction.
	Flush() error
	// Model returns the recorded embedding model name and dimensionality.
	Model() (string, int, error)
	// SetModel records the embedding model name and dimensionality.
	SetModel(name string, dim int) error
	// Purge removes every cached file and vector.
	Purge() error
	// Close closes the underlying database.
	Close() error
}

// SQLiteStore implements Store backed by SQLite. Reads are safe from
// concurrent workers; writes are buffered in memory and committed by a
// single Flush after the parallel phase, so the store handle sees no
// concurrent write contention.
type SQLiteStore struct {
	db *sql.DB

	mu      sync.Mutex
	pending map[string]*Entry
}

// Open creates or opens a cache database at the given path and initializes
// the schema.
func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if err := Init(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	return &SQLiteStore{
		db:      db,
		pending: make(map[string]*Entry),
	}, nil
}

func (s *SQLiteStore) Lookup(relPath string) (*Entry, error) {
	var hash string
	err := s.db.QueryRow("SELECT hash FROM files WHERE path = ?", relPath).Scan(&hash)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query("SELECT name, embedding FROM vectors WHERE path = ?", relPath)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entry := &Entry{Hash: hash, Vectors: make(map[string][]float32)}
	for rows.Next() {
		var name string
		var blob []byte
		if err := rows.Scan(&name, &blob); err != nil {
			return nil, err
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, err
		}
		entry.Vectors[name] = vec
	}
	return entry, rows.Err()
}

func (s *SQLiteStore) Put(relPath string, e *Entry) {
	s.mu.Lock()
	s.pending[relPath] = e
	s.mu.Unlock()
}

func (s *SQLiteStore) Flush() error {
	s.mu.Lock()
	pending := s.pending
	s.pending = make(map[string]*Entry)
	s.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for relPath, e := range pending {
		if _, err := tx.Exec("INSERT OR REPLACE INTO files (path, hash) VALUES (?, ?)", relPath, e.Hash); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM vectors WHERE path = ?", relPath); err != nil {
			return err
		}
		for name, vec := range e.Vectors {
			if _, err := tx.Exec(
				"INSERT INTO vectors (path, name, embedding) VALUES (?, ?, ?)",
				relPath, name, encodeVector(vec),
			); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Model() (string, int, error) {
	name, err := s.getMeta("embedding_model")
	if err != nil {
		return "", 0, err
	}
	dimStr, err := s.getMeta("embedding_dim")
	if err != nil {
		return "", 0, err
	}
	dim, _ := strconv.Atoi(dimStr)
	return name, dim, nil
}

func (s *SQLiteStore) SetModel(name string, dim int) error {
	if err := s.setMeta("embedding_model", name); err != nil {
		return err
	}
	return s.setMeta("embedding_dim", strconv.Itoa(dim))
}

func (s *SQLiteStore) Purge() error {
	if _, err := s.db.Exec("DELETE FROM vectors"); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM files")
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) getMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (s *SQLiteStore) setMeta(key, value string) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)", key, value)
	return err
}

// encodeVector serializes a float32 slice as little-endian bytes.
func encodeVector(vec []float32) []byte {
	blob := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// decodeVector deserializes a little-endian float32 blob.
func decodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(blob))
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec, nil
}

// Package store keeps encoded levels in a LevelDB database keyed by name.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/goleveldb/leveldb/opt"
	"github.com/df-mc/goleveldb/leveldb/storage"
	"github.com/df-mc/goleveldb/leveldb/util"

	"rubble/internal/core"
	"rubble/internal/lattice"
)

var (
	// ErrNotFound is returned when no level is stored under a name.
	ErrNotFound = errors.New("level not found")
	// ErrInvalidName is returned for empty level names.
	ErrInvalidName = errors.New("invalid level name")
)

const levelPrefix = "level/"

// Store is a named collection of flat-encoded levels.
type Store struct {
	db  *leveldb.DB
	log *slog.Logger
}

// Open opens or creates the database at path.
func Open(path string, log *slog.Logger) (*Store, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{Compression: opt.SnappyCompression})
	if err != nil {
		return nil, fmt.Errorf("open level store %s: %w", path, err)
	}
	return &Store{db: db, log: core.Logger(log)}, nil
}

// OpenStorage opens a store over an arbitrary LevelDB storage, such as
// storage.NewMemStorage for tests.
func OpenStorage(stor storage.Storage, log *slog.Logger) (*Store, error) {
	db, err := leveldb.Open(stor, nil)
	if err != nil {
		return nil, fmt.Errorf("open level store: %w", err)
	}
	return &Store{db: db, log: core.Logger(log)}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func key(name string) ([]byte, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	return []byte(levelPrefix + name), nil
}

// Put stores encoded level bytes under name, replacing any previous level.
func (s *Store) Put(name string, data []byte) error {
	k, err := key(name)
	if err != nil {
		return err
	}
	if err := s.db.Put(k, data, nil); err != nil {
		return fmt.Errorf("put level %q: %w", name, err)
	}
	s.log.Debug("level stored", "name", name, "bytes", len(data))
	return nil
}

// Get returns the encoded level stored under name.
func (s *Store) Get(name string) ([]byte, error) {
	k, err := key(name)
	if err != nil {
		return nil, err
	}
	data, err := s.db.Get(k, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("get level %q: %w", name, err)
	}
	return data, nil
}

// Delete removes a level. Deleting a missing level is not an error.
func (s *Store) Delete(name string) error {
	k, err := key(name)
	if err != nil {
		return err
	}
	if err := s.db.Delete(k, nil); err != nil {
		return fmt.Errorf("delete level %q: %w", name, err)
	}
	return nil
}

// List returns the stored level names in key order.
func (s *Store) List() ([]string, error) {
	it := s.db.NewIterator(util.BytesPrefix([]byte(levelPrefix)), nil)
	defer it.Release()
	var names []string
	for it.Next() {
		names = append(names, strings.TrimPrefix(string(it.Key()), levelPrefix))
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}
	return names, nil
}

// Header decodes only the size header of a stored level.
func (s *Store) Header(name string) (lattice.Header, error) {
	data, err := s.Get(name)
	if err != nil {
		return lattice.Header{}, err
	}
	return lattice.ReadHeader(bytes.NewReader(data))
}

// SaveLattice encodes l and stores it under name.
func (s *Store) SaveLattice(name string, l *lattice.Lattice) error {
	var buf bytes.Buffer
	if err := l.Encode(&buf); err != nil {
		return fmt.Errorf("encode level %q: %w", name, err)
	}
	return s.Put(name, buf.Bytes())
}

// LoadLattice decodes the level stored under name into a new lattice sized
// by the stored header. Spacing and cutoff come from cfg.
func (s *Store) LoadLattice(name string, cfg lattice.Config) (*lattice.Lattice, error) {
	data, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	l, err := lattice.Decode(bytes.NewReader(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("decode level %q: %w", name, err)
	}
	return l, nil
}

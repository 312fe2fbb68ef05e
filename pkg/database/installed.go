// Package database stores a record of every installed toolchain in the cache root.
package database

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/glorpus-work/gccfetch/pkg/errors"
	"github.com/glorpus-work/gccfetch/pkg/fsutil"
	"go.etcd.io/bbolt"
)

// FileName is the database file inside the cache root.
const FileName = "gccfetch.db"

const (
	installsBucket = "installs"
	metadataBucket = "metadata"
	schemaVersion  = 1
)

// Record describes one successful acquisition. Records are keyed by variant name.
type Record struct {
	Variant     string    `json:"variant"`
	Path        string    `json:"path"`
	AssetName   string    `json:"asset_name"`
	URL         string    `json:"url"`
	Size        int64     `json:"size"`
	Attempts    int       `json:"attempts"`
	InstalledAt time.Time `json:"installed_at"`
}

// InstalledStore is the record store used by the orchestrator and the CLI.
type InstalledStore interface {
	Put(rec Record) error
	Get(variant string) (Record, error)
	List() ([]Record, error)
	Delete(variant string) error
	Close() error
}

// Store is a bbolt backed InstalledStore.
type Store struct {
	db *bbolt.DB
}

// DefaultPath returns the database path inside cacheDir.
func DefaultPath(cacheDir string) string {
	return filepath.Join(cacheDir, FileName)
}

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	if err := fsutil.EnsureFileDir(path); err != nil {
		return nil, errors.Wrap(errors.ErrRecordStore, err.Error())
	}
	db, err := bbolt.Open(path, fsutil.FileModeSecure, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(errors.ErrRecordStore, fmt.Sprintf("failed to open database: %v", err),
			errors.V("path", path))
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(installsBucket)); err != nil {
			return fmt.Errorf("failed to create installs bucket: %w", err)
		}
		meta, err := tx.CreateBucketIfNotExists([]byte(metadataBucket))
		if err != nil {
			return fmt.Errorf("failed to create metadata bucket: %w", err)
		}
		return meta.Put([]byte("schema_version"), []byte(fmt.Sprint(schemaVersion)))
	})
	return errors.Wrap(errors.Classify(err, errors.ErrRecordStore), "failed to initialize database")
}

// Put stores rec, replacing any record of the same variant.
func (s *Store) Put(rec Record) error {
	if rec.Variant == "" {
		return errors.Wrap(errors.ErrRecordStore, "record has no variant")
	}
	if rec.InstalledAt.IsZero() {
		rec.InstalledAt = time.Now().UTC()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(errors.ErrRecordStore, fmt.Sprintf("failed to marshal record: %v", err))
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(installsBucket)).Put([]byte(rec.Variant), data)
	})
	return errors.Wrap(errors.Classify(err, errors.ErrRecordStore), "failed to save record", errors.V("variant", rec.Variant))
}

// Get returns the record of variant or an error matching ErrRecordNotFound.
func (s *Store) Get(variant string) (Record, error) {
	var rec Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(installsBucket)).Get([]byte(variant))
		if data == nil {
			return errors.ErrRecordNotFound
		}
		return json.Unmarshal(data, &rec)
	})
	if errors.Is(err, errors.ErrRecordNotFound) {
		return Record{}, errors.Wrap(err, variant)
	}
	if err != nil {
		return Record{}, errors.Wrap(errors.Classify(err, errors.ErrRecordStore), "failed to read record")
	}
	return rec, nil
}

// List returns all records sorted by variant.
func (s *Store) List() ([]Record, error) {
	var records []Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(installsBucket)).ForEach(func(_, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to unmarshal record: %w", err)
			}
			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(errors.Classify(err, errors.ErrRecordStore), "failed to list records")
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Variant < records[j].Variant })
	return records, nil
}

// Delete removes the record of variant. Deleting a missing record is not an error.
func (s *Store) Delete(variant string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(installsBucket)).Delete([]byte(variant))
	})
	return errors.Wrap(errors.Classify(err, errors.ErrRecordStore), "failed to delete record")
}

// Close releases the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

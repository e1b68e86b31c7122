// Package history records completed ranking runs in an embedded bbolt
// database so earlier results can be listed and compared.
//
// All runs live in a single "runs" bucket keyed by run ID. IDs are UTC
// timestamps formatted to sort lexically in time order; values are
// JSON-encoded Run records. Writes are transactional.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/unbound-force/sbfl/internal/spectrum"
	"github.com/unbound-force/sbfl/internal/suspicion"
)

// ErrNotFound reports a run ID with no stored run.
var ErrNotFound = errors.New("run not found")

var bucketRuns = []byte("runs")

// idLayout sorts lexically in chronological order.
const idLayout = "20060102T150405.000000000Z"

// Run is one recorded ranking run.
type Run struct {
	ID        string                      `json:"id"`
	CreatedAt time.Time                   `json:"created_at"`
	Source    string                      `json:"source"`
	Totals    spectrum.GlobalCounters     `json:"totals"`
	Composite []suspicion.CompositeRecord `json:"composite"`
}

// NewRun builds a Run for result, stamped with now.
func NewRun(now time.Time, source string, result *suspicion.Result) Run {
	now = now.UTC()
	return Run{
		ID:        now.Format(idLayout),
		CreatedAt: now,
		Source:    source,
		Totals:    result.Totals,
		Composite: result.Composite,
	}
}

// Store is a bbolt-backed run history.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the history database at path, creating its
// parent directory if needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRuns)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create runs bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores run, replacing any run with the same ID.
func (s *Store) Save(run Run) error {
	if run.ID == "" {
		return fmt.Errorf("run has no ID")
	}
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRuns).Put([]byte(run.ID), data)
	})
}

// Load returns the run with the given ID.
func (s *Store) Load(id string) (*Run, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		// Copy bytes out of the transaction; bbolt slices are only
		// valid inside it.
		if v := tx.Bucket(bucketRuns).Get([]byte(id)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("unmarshal run %s: %w", id, err)
	}
	return &run, nil
}

// Latest returns the most recent run, or ErrNotFound when the history
// is empty.
func (s *Store) Latest() (*Run, error) {
	var id []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if k, _ := tx.Bucket(bucketRuns).Cursor().Last(); k != nil {
			id = append([]byte(nil), k...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, fmt.Errorf("%w: history is empty", ErrNotFound)
	}
	return s.Load(string(id))
}

// List returns every stored run, newest first. Composite rows are
// omitted; use Load for a full run.
func (s *Store) List() ([]Run, error) {
	runs := []Run{}
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketRuns).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var run Run
			if err := json.Unmarshal(v, &run); err != nil {
				return fmt.Errorf("unmarshal run %s: %w", k, err)
			}
			run.Composite = nil
			runs = append(runs, run)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return runs, nil
}

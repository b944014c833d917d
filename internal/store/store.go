// Package store persists analysis runs and their findings in a bbolt file so
// earlier runs can be listed, shown and regrouped later.
package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"

	"github.com/olehluchkiv/bugtree/internal/bug"
)

// ErrRunNotFound is returned for run IDs the store does not hold.
var ErrRunNotFound = errors.New("run not found")

var (
	runsBucket     = []byte("runs")
	findingsBucket = []byte("findings")
)

// Run is the metadata of one analysis run.
type Run struct {
	ID        string        `msgpack:"id" json:"id" yaml:"id"`
	Input     string        `msgpack:"input" json:"input" yaml:"input"`
	Dir       string        `msgpack:"dir" json:"dir" yaml:"dir"`
	GroupBy   string        `msgpack:"group_by" json:"group_by" yaml:"group_by"`
	StartedAt time.Time     `msgpack:"started_at" json:"started_at" yaml:"started_at"`
	Duration  time.Duration `msgpack:"duration" json:"duration" yaml:"duration"`
	Packages  int           `msgpack:"packages" json:"packages" yaml:"packages"`
	Patterns  int           `msgpack:"patterns" json:"patterns" yaml:"patterns"`
	Findings  int           `msgpack:"findings" json:"findings" yaml:"findings"`
	Dropped   int           `msgpack:"dropped" json:"dropped" yaml:"dropped"`
	Failures  int           `msgpack:"failures" json:"failures" yaml:"failures"`
}

// Store is a bbolt backed run store. Safe for concurrent use.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the store file at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	opts := *bbolt.DefaultOptions
	opts.Timeout = time.Second
	db, err := bbolt.Open(path, 0o644, &opts)
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{runsBucket, findingsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the store file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the store file location.
func (s *Store) Path() string {
	return s.db.Path()
}

// SaveRun writes run and its findings in one transaction, replacing any run
// stored under the same ID.
func (s *Store) SaveRun(run Run, bugs []bug.Bug) error {
	if run.ID == "" {
		return errors.New("saving run: empty run ID")
	}
	key := []byte(run.ID)

	return s.db.Update(func(tx *bbolt.Tx) error {
		meta, err := encode(run)
		if err != nil {
			return fmt.Errorf("encoding run %s: %w", run.ID, err)
		}
		if err := tx.Bucket(runsBucket).Put(key, meta); err != nil {
			return err
		}

		parent := tx.Bucket(findingsBucket)
		if err := parent.DeleteBucket(key); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		b, err := parent.CreateBucket(key)
		if err != nil {
			return err
		}
		for i, f := range bugs {
			v, err := encode(f)
			if err != nil {
				return fmt.Errorf("encoding finding %s: %w", f.ID, err)
			}
			if err := b.Put(seqKey(uint64(i)), v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Runs lists stored runs, newest first.
func (s *Store) Runs() ([]Run, error) {
	var runs []Run
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(runsBucket).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var run Run
			if err := decode(v, &run); err != nil {
				return fmt.Errorf("decoding run %s: %w", k, err)
			}
			runs = append(runs, run)
		}
		return nil
	})
	return runs, err
}

// Latest returns the newest run. Run IDs are UUIDv7, so key order is
// chronological.
func (s *Store) Latest() (Run, error) {
	var run Run
	err := s.db.View(func(tx *bbolt.Tx) error {
		k, v := tx.Bucket(runsBucket).Cursor().Last()
		if k == nil {
			return fmt.Errorf("%w: store is empty", ErrRunNotFound)
		}
		return decode(v, &run)
	})
	return run, err
}

// LoadRun returns the metadata of run id.
func (s *Store) LoadRun(id string) (Run, error) {
	var run Run
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(runsBucket).Get([]byte(id))
		if v == nil {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return decode(v, &run)
	})
	return run, err
}

// LoadFindings returns the findings of run id in their original order.
func (s *Store) LoadFindings(id string) ([]bug.Bug, error) {
	var bugs []bug.Bug
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(findingsBucket).Bucket([]byte(id))
		if b == nil {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return b.ForEach(func(k, v []byte) error {
			var f bug.Bug
			if err := decode(v, &f); err != nil {
				return fmt.Errorf("decoding finding %d of run %s: %w", binary.BigEndian.Uint64(k), id, err)
			}
			bugs = append(bugs, f)
			return nil
		})
	})
	return bugs, err
}

// DeleteRun removes run id and its findings.
func (s *Store) DeleteRun(id string) error {
	key := []byte(id)
	return s.db.Update(func(tx *bbolt.Tx) error {
		runs := tx.Bucket(runsBucket)
		if runs.Get(key) == nil {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		if err := runs.Delete(key); err != nil {
			return err
		}
		err := tx.Bucket(findingsBucket).DeleteBucket(key)
		if err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		return nil
	})
}

func seqKey(i uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, i)
	return k
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	enc.Reset(&buf)
	enc.SetSortMapKeys(true)
	err := enc.Encode(v)
	msgpack.PutEncoder(enc)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte, v any) error {
	dec := msgpack.GetDecoder()
	dec.Reset(bytes.NewReader(data))
	err := dec.Decode(v)
	msgpack.PutDecoder(dec)
	return err
}

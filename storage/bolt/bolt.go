// Package bolt is a bbolt-backed Storage with one bucket per run.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/storage"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/util"
)

var ErrNotOpen = errors.New("storage not open")

type Storage struct {
	Debug    bool
	filename string
	db       *bolt.DB
}

func NewStorage(filename string) (*Storage, error) {
	return &Storage{
		filename: filename,
	}, nil
}

func (s *Storage) Open(ctx context.Context) error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}

	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Storage) logf(format string, args ...interface{}) {
	if s.Debug {
		util.Logger().Debugf("bolt storage."+format, args...)
	}
}

// key is the big-endian Seq so that a cursor walks a run in order.
func key(seq int) []byte {
	bs := make([]byte, 8)
	binary.BigEndian.PutUint64(bs, uint64(seq))
	return bs
}

func (s *Storage) MakeRun(ctx context.Context, run string) error {
	s.logf("MakeRun %s", run)
	if s.db == nil {
		return ErrNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucket([]byte(run))
		return err
	})
}

func (s *Storage) RemRun(ctx context.Context, run string) error {
	s.logf("RemRun %s", run)
	if s.db == nil {
		return ErrNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		err := tx.DeleteBucket([]byte(run))
		if errors.Is(err, bolt.ErrBucketNotFound) {
			return nil
		}
		return err
	})
}

func (s *Storage) Read(ctx context.Context, run string) ([]*storage.Transition, error) {
	s.logf("Read %s", run)
	if s.db == nil {
		return nil, ErrNotOpen
	}
	ts := make([]*storage.Transition, 0, 32)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(run))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, bs := c.First(); k != nil; k, bs = c.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var t storage.Transition
			if err := json.Unmarshal(bs, &t); err != nil {
				return err
			}
			t.Seq = int(binary.BigEndian.Uint64(k))
			ts = append(ts, &t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logf("Read %s found %d transitions", run, len(ts))

	if len(ts) == 0 {
		return nil, nil
	}

	return ts, nil
}

func (s *Storage) Write(ctx context.Context, run string, ts []*storage.Transition) error {
	s.logf("Write %s %d", run, len(ts))

	if 0 == len(ts) {
		return nil
	}
	if s.db == nil {
		return ErrNotOpen
	}

	vals := make([][]byte, len(ts))
	for i, t := range ts {
		js, err := json.Marshal(t)
		if err != nil {
			return err
		}
		vals[i] = js
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(run))
		if err != nil {
			return err
		}
		for i, bs := range vals {
			if err := b.Put(key(ts[i].Seq), bs); err != nil {
				return err
			}
		}
		return nil
	})
}

// Package store provides optional durable persistence for External
// variables (§4.3), backed by BadgerDB. It is entirely optional: a Mesh
// with no Store attached keeps External variables in memory only, as
// the core spec requires nothing more.
//
// Only scalar Values (Bool, Int, Float, String, Bytes) are persisted;
// persisting a container or handle Kind returns ErrUnsupportedKind — the
// core's reference-counted container model is an in-process concept
// that does not survive serialization to a KV store.
package store

import (
	"encoding/binary"
	"errors"
	"math"

	badger "github.com/dgraph-io/badger/v4"
	"golang.org/x/sync/singleflight"

	"github.com/Voskan/shards/pkg/value"
)

// ErrUnsupportedKind is returned by Put for any Value.Kind that cannot
// be durably represented.
var ErrUnsupportedKind = errors.New("store: unsupported kind for durable external variable")

// ErrNotFound is returned by Get when name has no persisted entry.
var ErrNotFound = errors.New("store: key not found")

// Store wraps a Badger database keyed by variable name.
type Store struct {
	db    *badger.DB
	loads singleflight.Group
}

// Open opens (or creates) a Badger database rooted at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

const (
	tagBool byte = iota
	tagInt
	tagFloat
	tagString
	tagBytes
)

// Put persists v under name, overwriting any previous entry.
func (s *Store) Put(name string, v value.Value) error {
	enc, err := encode(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(name), enc)
	})
}

// Get loads the Value previously stored under name.
func (s *Store) Get(name string) (value.Value, error) {
	var out value.Value
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(name))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return item.Value(func(b []byte) error {
			v, derr := decode(b)
			out = v
			return derr
		})
	})
	return out, err
}

// GetOrLoad returns name's persisted value, computing and persisting it
// via load when absent. Concurrent GetOrLoad calls for the same name
// share a single load/Put round trip rather than each hitting disk —
// the same singleflight de-duplication the teacher's loader.go applied
// to cache misses, here keyed directly by variable name since a Store
// has no generic K,V shape to preserve.
func (s *Store) GetOrLoad(name string, load func() (value.Value, error)) (value.Value, error) {
	if v, err := s.Get(name); err == nil {
		return v, nil
	} else if !errors.Is(err, ErrNotFound) {
		return value.None, err
	}

	res, err, _ := s.loads.Do(name, func() (any, error) {
		v, err := load()
		if err != nil {
			return nil, err
		}
		if err := s.Put(name, v); err != nil {
			return nil, err
		}
		return v, nil
	})
	if err != nil {
		return value.None, err
	}
	return res.(value.Value), nil
}

// Delete removes name's persisted entry, if any.
func (s *Store) Delete(name string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(name))
	})
}

func encode(v value.Value) ([]byte, error) {
	switch v.Kind {
	case value.KindBool:
		b := byte(0)
		if v.AsBool() {
			b = 1
		}
		return []byte{tagBool, b}, nil
	case value.KindInt:
		buf := make([]byte, 9)
		buf[0] = tagInt
		binary.LittleEndian.PutUint64(buf[1:], uint64(v.AsInt()))
		return buf, nil
	case value.KindFloat:
		buf := make([]byte, 9)
		buf[0] = tagFloat
		binary.LittleEndian.PutUint64(buf[1:], math.Float64bits(v.AsFloat()))
		return buf, nil
	case value.KindString:
		s := v.AsString()
		buf := make([]byte, 1+len(s))
		buf[0] = tagString
		copy(buf[1:], s)
		return buf, nil
	case value.KindBytes:
		b := v.AsBytes()
		buf := make([]byte, 1+len(b))
		buf[0] = tagBytes
		copy(buf[1:], b)
		return buf, nil
	default:
		return nil, ErrUnsupportedKind
	}
}

func decode(b []byte) (value.Value, error) {
	if len(b) == 0 {
		return value.None, ErrUnsupportedKind
	}
	switch b[0] {
	case tagBool:
		return value.Bool(b[1] != 0), nil
	case tagInt:
		return value.Int(int64(binary.LittleEndian.Uint64(b[1:]))), nil
	case tagFloat:
		return value.Float(math.Float64frombits(binary.LittleEndian.Uint64(b[1:]))), nil
	case tagString:
		return value.StringFromBytes(append([]byte(nil), b[1:]...)), nil
	case tagBytes:
		return value.Bytes(append([]byte(nil), b[1:]...)), nil
	default:
		return value.None, ErrUnsupportedKind
	}
}

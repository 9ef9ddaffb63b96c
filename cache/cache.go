// Package cache stores fingerprints keyed by audio content and feature
// configuration, so repeated comparisons against the same reference skip
// decoding and extraction.
package cache

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/OneOfOne/xxhash"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/RyanBlaney/sonido-plagio/fingerprint"
	"github.com/RyanBlaney/sonido-plagio/logging"
)

const keyPrefix = "fp:"

// Options configures the badger-backed store
type Options struct {
	// Dir holds the badger files. Required unless InMemory is set.
	Dir string

	// InMemory keeps everything in memory; used by tests.
	InMemory bool

	// TTL expires entries after the given age. Zero keeps them forever.
	TTL time.Duration
}

// Store is a fingerprint cache backed by BadgerDB
type Store struct {
	db     *badger.DB
	ttl    time.Duration
	logger logging.Logger
}

// Open opens (or creates) a store
func Open(opts Options) (*Store, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("cache: Dir is required for on-disk mode")
	}

	logger := logging.WithFields(logging.Fields{
		"component": "fingerprint_cache",
	})

	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(badgerLogger{logger})
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("cache: open badger: %w", err)
	}

	logger.Debug("Fingerprint cache opened", logging.Fields{
		"dir":       opts.Dir,
		"in_memory": opts.InMemory,
		"ttl":       opts.TTL.String(),
	})

	return &Store{db: db, ttl: opts.TTL, logger: logger}, nil
}

// Key derives the cache key for audio content under a feature config signature
func Key(content []byte, signature string) []byte {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], xxhash.Checksum64(content))
	binary.BigEndian.PutUint64(buf[8:], xxhash.Checksum64([]byte(signature)))
	return []byte(keyPrefix + hex.EncodeToString(buf[:]))
}

// Get returns the cached fingerprint for key. The boolean is false on a miss.
func (s *Store) Get(_ context.Context, key []byte) (*fingerprint.Fingerprint, bool, error) {
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get: %w", err)
	}

	var fp fingerprint.Fingerprint
	if err := msgpack.Unmarshal(val, &fp); err != nil {
		return nil, false, fmt.Errorf("cache: decode fingerprint: %w", err)
	}
	return &fp, true, nil
}

// Put stores a fingerprint under key
func (s *Store) Put(_ context.Context, key []byte, fp *fingerprint.Fingerprint) error {
	if fp == nil {
		return errors.New("cache: nil fingerprint")
	}
	data, err := msgpack.Marshal(fp)
	if err != nil {
		return fmt.Errorf("cache: encode fingerprint: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key, data)
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("cache: put: %w", err)
	}
	return nil
}

// Delete removes key; deleting a missing key is not an error
func (s *Store) Delete(_ context.Context, key []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

// Len counts cached fingerprints
func (s *Store) Len() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Close flushes and closes the store
func (s *Store) Close() error {
	return s.db.Close()
}

// badgerLogger routes badger output through our logger, dropping its
// info and debug chatter.
type badgerLogger struct {
	logger logging.Logger
}

func (b badgerLogger) Errorf(f string, v ...interface{}) {
	b.logger.Error(fmt.Errorf(f, v...), "badger")
}

func (b badgerLogger) Warningf(f string, v ...interface{}) {
	b.logger.Warn(fmt.Sprintf("badger: "+f, v...))
}

func (badgerLogger) Infof(string, ...interface{})  {}
func (badgerLogger) Debugf(string, ...interface{}) {}

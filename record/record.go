// Package record keeps a persistent transcript of the JSONRPC envelopes that
// pass through a connection, stored with badger.
package record

import (
	"time"

	"github.com/dgraph-io/badger"
)

// Direction of a recorded envelope.
type Direction string

const (
	Sent     Direction = "send"
	Received Direction = "recv"
)

var (
	entryPrefix = []byte("rec:entry:")
	seqName     = []byte("rec:seq")
)

// Entry is one recorded envelope.
type Entry struct {
	Seq       uint64
	Time      time.Time
	Direction Direction
	// Label identifies the connection, usually its address.
	Label   string
	Message []byte
}

// Open returns a transcript Store persisted in dir. The store should be
// .Close()'d after use.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = logger
	return OpenOptions(opts)
}

// OpenOptions is Open with custom badger options.
func OpenOptions(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	if err := migrate(db, opts.Dir); err != nil {
		db.Close()
		return nil, err
	}
	seq, err := db.GetSequence(seqName, 64)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, seq: seq}, nil
}

// Store is a badger-backed transcript.
type Store struct {
	db  *badger.DB
	seq *badger.Sequence
}

// Close releases the sequence lease and closes the database.
func (s *Store) Close() error {
	if err := s.seq.Release(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}

// Append records a copy of msg and returns its entry.
func (s *Store) Append(dir Direction, label string, msg []byte) (*Entry, error) {
	seq, err := s.seq.Next()
	if err != nil {
		return nil, err
	}
	entry := &Entry{
		Seq:       seq,
		Time:      time.Now(),
		Direction: dir,
		Label:     label,
		Message:   append([]byte(nil), msg...),
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return setItem(txn, seqKey(entryPrefix, seq), entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Entries returns up to limit of the most recent entries, oldest first. A
// limit <= 0 returns everything.
func (s *Store) Entries(limit int) ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts from the largest key with the prefix.
		start := seqKey(entryPrefix, ^uint64(0))
		for it.Seek(start); it.ValidForPrefix(entryPrefix); it.Next() {
			if limit > 0 && len(entries) >= limit {
				break
			}
			var entry Entry
			if err := getItem(txn, it.Item().KeyCopy(nil), &entry); err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// Clear deletes every recorded entry.
func (s *Store) Clear() error {
	return s.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(entryPrefix); it.ValidForPrefix(entryPrefix); it.Next() {
			if err := txn.Delete(it.Item().KeyCopy(nil)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Package eventbuf holds events addressed to plugins that are still starting.
// Events are kept in an in-memory BadgerDB, gob encoded and keyed by plugin id
// and arrival sequence so they replay in receipt order.
package eventbuf

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"log/slog"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"navplug.szuro.net/internal/logger"
	"navplug.szuro.net/pkg/signalk"
)

// DefaultLimit is the number of events kept per plugin.
const DefaultLimit = 100

type Buffer struct {
	db     *badger.DB
	limit  int
	mu     sync.Mutex
	seq    map[string]uint64
	counts map[string]int
}

// Open creates an in-memory buffer keeping at most limit events per plugin.
func Open(limit int) (*Buffer, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(logger.Default()))
	if err != nil {
		return nil, fmt.Errorf("cannot open event buffer: %w", err)
	}
	return &Buffer{
		db:     db,
		limit:  limit,
		seq:    make(map[string]uint64),
		counts: make(map[string]int),
	}, nil
}

func prefix(pluginID string) []byte {
	return append([]byte(pluginID), 0)
}

func key(pluginID string, seq uint64) []byte {
	k := prefix(pluginID)
	return binary.BigEndian.AppendUint64(k, seq)
}

// Push stores e for pluginID. When the plugin already holds limit events the
// oldest one is dropped and dropped is true.
func (b *Buffer) Push(pluginID string, e signalk.Event) (dropped bool, err error) {
	var value bytes.Buffer
	if err = gob.NewEncoder(&value).Encode(e); err != nil {
		return false, fmt.Errorf("cannot encode event: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	err = b.db.Update(func(txn *badger.Txn) error {
		if b.counts[pluginID] >= b.limit {
			if err := deleteOldest(txn, pluginID); err != nil {
				return err
			}
			dropped = true
		}
		b.seq[pluginID]++
		return txn.Set(key(pluginID, b.seq[pluginID]), value.Bytes())
	})
	if err != nil {
		return false, err
	}
	if !dropped {
		b.counts[pluginID]++
	}
	return dropped, nil
}

func deleteOldest(txn *badger.Txn, pluginID string) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix(pluginID)
	it := txn.NewIterator(opts)
	defer it.Close()

	it.Rewind()
	if !it.Valid() {
		return nil
	}
	return txn.Delete(it.Item().KeyCopy(nil))
}

// Drain returns the buffered events of pluginID in arrival order and removes them.
func (b *Buffer) Drain(pluginID string) (events []signalk.Event, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var keys [][]byte
	err = b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix(pluginID)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			// undecodable entries are discarded with the rest
			keys = append(keys, item.KeyCopy(nil))
			val, err := item.ValueCopy(nil)
			if err != nil {
				logger.Error("Failed to copy value from event buffer", slog.String("plugin", pluginID), slog.Any("error", err))
				continue
			}
			var e signalk.Event
			if err := gob.NewDecoder(bytes.NewReader(val)).Decode(&e); err != nil {
				logger.Error("Failed to decode from event buffer", slog.String("plugin", pluginID), slog.Any("error", err))
				continue
			}
			events = append(events, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	wb := b.db.NewWriteBatch()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			wb.Cancel()
			return events, err
		}
	}
	if err := wb.Flush(); err != nil {
		return events, err
	}
	delete(b.counts, pluginID)
	return events, nil
}

// Len is the number of events buffered for pluginID.
func (b *Buffer) Len(pluginID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts[pluginID]
}

func (b *Buffer) Close() error {
	return b.db.Close()
}

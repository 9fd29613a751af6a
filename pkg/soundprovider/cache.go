package soundprovider

import (
	"context"
	"errors"
	"fmt"
	"log"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/loamforge/mixer/pkg/mixer"
)

// Cache is a BadgerDB-backed decode cache: it stores the parsed sample
// data for a sound path so a second Load skips re-reading and
// re-decoding the container file.
type Cache struct {
	db *badger.DB
}

// cachedSound is the msgpack wire form stored in Badger; mixer.Sound
// itself carries unexported refcount state that has no business being
// persisted.
type cachedSound struct {
	Samples []int16
	Stereo  bool
}

// OpenCache opens (creating if absent) a Badger decode cache rooted at
// dir. Pass "" for an in-memory cache, useful for tests and for
// single-process runs that don't need the cache to survive a restart.
func OpenCache(dir string) (*Cache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(quietLogger{})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("soundprovider: open decode cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the cache's underlying Badger handles.
func (c *Cache) Close() error {
	return c.db.Close()
}

// quietLogger suppresses Badger's debug/info chatter, surfacing only
// warnings and errors through the standard logger.
type quietLogger struct{}

func (quietLogger) Errorf(f string, v ...interface{})   { log.Printf("[badger] ERROR: "+f, v...) }
func (quietLogger) Warningf(f string, v ...interface{}) { log.Printf("[badger] WARN: "+f, v...) }
func (quietLogger) Infof(string, ...interface{})        {}
func (quietLogger) Debugf(string, ...interface{})       {}

// Get returns the cached sound for path, if present.
func (c *Cache) Get(_ context.Context, path string) (*mixer.Sound, bool, error) {
	var cs cachedSound
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(path))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &cs)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("soundprovider: cache get %s: %w", path, err)
	}
	return mixer.NewSound(path, cs.Samples, cs.Stereo), true, nil
}

// Put stores the decoded sound's sample data under path.
func (c *Cache) Put(_ context.Context, path string, snd *mixer.Sound) error {
	cs := cachedSound{Samples: snd.Samples, Stereo: snd.Stereo}
	data, err := msgpack.Marshal(&cs)
	if err != nil {
		return fmt.Errorf("soundprovider: cache encode %s: %w", path, err)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(path), data)
	})
	if err != nil {
		return fmt.Errorf("soundprovider: cache put %s: %w", path, err)
	}
	return nil
}

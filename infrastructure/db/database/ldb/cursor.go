package ldb

import (
	"bytes"
	"sort"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb/iterator"

	"github.com/unitdag/unitd/infrastructure/db/database"
)

// LevelDBCursor is a thin wrapper around native leveldb iterators.
type LevelDBCursor struct {
	ldbIterator iterator.Iterator
	bucket      *database.Bucket

	isClosed bool
}

func newLevelDBCursor(ldbIterator iterator.Iterator, bucket *database.Bucket) *LevelDBCursor {
	return &LevelDBCursor{
		ldbIterator: ldbIterator,
		bucket:      bucket,
		isClosed:    false,
	}
}

// Next moves the iterator to the next key/value pair. It returns whether the
// iterator is exhausted. Panics if the cursor is closed.
func (c *LevelDBCursor) Next() bool {
	if c.isClosed {
		panic("cannot call next on a closed cursor")
	}
	return c.ldbIterator.Next()
}

// First moves the iterator to the first key/value pair. It returns false if
// such a pair does not exist. Panics if the cursor is closed.
func (c *LevelDBCursor) First() bool {
	if c.isClosed {
		panic("cannot call first on a closed cursor")
	}
	return c.ldbIterator.First()
}

// Seek moves the iterator to the first key/value pair whose key is greater
// than or equal to the given key. It returns ErrNotFound if such pair does not
// exist.
func (c *LevelDBCursor) Seek(key *database.Key) error {
	if c.isClosed {
		return errors.New("cannot seek a closed cursor")
	}

	notFoundErr := errors.Wrapf(database.ErrNotFound, "key %s not "+
		"found", key)
	found := c.ldbIterator.Seek(key.Bytes())
	if !found {
		return notFoundErr
	}

	// Use c.ldbIterator.Key because c.Key removes the prefix from the key
	currentKey := c.ldbIterator.Key()
	if currentKey == nil || !bytes.Equal(currentKey, key.Bytes()) {
		return notFoundErr
	}

	return nil
}

// Key returns the key of the current key/value pair, or ErrNotFound if done.
// Note that the key is trimmed to not include the prefix the cursor was opened
// with. The caller should not modify the contents of the returned slice, and
// its contents may change on the next call to Next.
func (c *LevelDBCursor) Key() (*database.Key, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the key of a closed cursor")
	}
	fullKeyPath := c.ldbIterator.Key()
	if fullKeyPath == nil {
		return nil, errors.Wrapf(database.ErrNotFound, "cannot get the "+
			"key of an exhausted cursor")
	}
	suffix := bytes.TrimPrefix(fullKeyPath, c.bucket.Path())
	return c.bucket.Key(suffix), nil
}

// Value returns the value of the current key/value pair, or ErrNotFound if done.
// The caller should not modify the contents of the returned slice, and its
// contents may change on the next call to Next.
func (c *LevelDBCursor) Value() ([]byte, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the value of a closed cursor")
	}
	value := c.ldbIterator.Value()
	if value == nil {
		return nil, errors.Wrapf(database.ErrNotFound, "cannot get the "+
			"value of an exhausted cursor")
	}
	return value, nil
}

// Close releases associated resources.
func (c *LevelDBCursor) Close() error {
	if c.isClosed {
		return errors.New("cannot close an already closed cursor")
	}
	c.isClosed = true
	c.ldbIterator.Release()
	c.ldbIterator = nil
	c.bucket = nil
	return nil
}

type cursorEntry struct {
	key   []byte
	value []byte
}

// overlayCursor iterates a bucket as seen by a transaction: the snapshot
// entries merged with the transaction's own pending writes.
type overlayCursor struct {
	entries []cursorEntry
	bucket  *database.Bucket
	index   int

	isClosed bool
}

func newOverlayCursor(snapshotIterator iterator.Iterator, pending map[string]*pendingWrite,
	bucket *database.Bucket) (*overlayCursor, error) {

	defer snapshotIterator.Release()
	prefix := bucket.Path()
	merged := make(map[string][]byte)
	for snapshotIterator.Next() {
		merged[string(snapshotIterator.Key())] = append([]byte(nil), snapshotIterator.Value()...)
	}
	if err := snapshotIterator.Error(); err != nil {
		return nil, errors.WithStack(err)
	}
	for key, write := range pending {
		if !bytes.HasPrefix([]byte(key), prefix) {
			continue
		}
		if write.isDelete {
			delete(merged, key)
			continue
		}
		merged[key] = write.value
	}

	entries := make([]cursorEntry, 0, len(merged))
	for key, value := range merged {
		entries = append(entries, cursorEntry{key: []byte(key), value: value})
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].key, entries[j].key) < 0
	})
	return &overlayCursor{entries: entries, bucket: bucket, index: -1}, nil
}

func (c *overlayCursor) Next() bool {
	if c.isClosed {
		panic("cannot call next on a closed cursor")
	}
	if c.index < len(c.entries) {
		c.index++
	}
	return c.index < len(c.entries)
}

func (c *overlayCursor) First() bool {
	if c.isClosed {
		panic("cannot call first on a closed cursor")
	}
	c.index = 0
	return len(c.entries) > 0
}

func (c *overlayCursor) Seek(key *database.Key) error {
	if c.isClosed {
		return errors.New("cannot seek a closed cursor")
	}
	keyBytes := key.Bytes()
	c.index = sort.Search(len(c.entries), func(i int) bool {
		return bytes.Compare(c.entries[i].key, keyBytes) >= 0
	})
	if c.index == len(c.entries) || !bytes.Equal(c.entries[c.index].key, keyBytes) {
		return errors.Wrapf(database.ErrNotFound, "key %s not found", key)
	}
	return nil
}

func (c *overlayCursor) Key() (*database.Key, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the key of a closed cursor")
	}
	if c.index < 0 || c.index >= len(c.entries) {
		return nil, errors.Wrapf(database.ErrNotFound, "cannot get the "+
			"key of an exhausted cursor")
	}
	suffix := bytes.TrimPrefix(c.entries[c.index].key, c.bucket.Path())
	return c.bucket.Key(suffix), nil
}

func (c *overlayCursor) Value() ([]byte, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the value of a closed cursor")
	}
	if c.index < 0 || c.index >= len(c.entries) {
		return nil, errors.Wrapf(database.ErrNotFound, "cannot get the "+
			"value of an exhausted cursor")
	}
	return c.entries[c.index].value, nil
}

func (c *overlayCursor) Close() error {
	if c.isClosed {
		return errors.New("cannot close an already closed cursor")
	}
	c.isClosed = true
	c.entries = nil
	return nil
}

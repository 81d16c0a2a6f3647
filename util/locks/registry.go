package locks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ErrLockTimeout is returned by Registry.Lock when the context is done before
// all the requested keys were acquired.
var ErrLockTimeout = errors.New("lock timeout")

type keyRank int

// Keys are always acquired in ascending rank order, and by name within a rank.
const (
	rankAddress keyRank = iota
	rankHashTree
	rankCatchupChain
	rankPrivateWrite
	rankWrite
)

// Key identifies a lockable resource.
type Key struct {
	rank keyRank
	name string
}

func (k Key) String() string {
	return k.name
}

// IsAddress returns whether k locks an address rather than a named resource
func (k Key) IsAddress() bool {
	return k.rank == rankAddress
}

func (k Key) less(other Key) bool {
	if k.rank != other.rank {
		return k.rank < other.rank
	}
	return k.name < other.name
}

// Named resources.
var (
	Write        = Key{rank: rankWrite, name: "write"}
	CatchupChain = Key{rank: rankCatchupChain, name: "catchup_chain"}
	HashTree     = Key{rank: rankHashTree, name: "hash_tree"}
	PrivateWrite = Key{rank: rankPrivateWrite, name: "private_write"}
)

// AddressKey returns the lock key of a single address.
func AddressKey(address string) Key {
	return Key{rank: rankAddress, name: "address:" + address}
}

// AddressSetKeys returns the sorted, deduplicated keys of the given author set.
// Two sets sharing any address contend on that address.
func AddressSetKeys(addresses []string) []Key {
	keys := make([]Key, 0, len(addresses))
	for _, address := range addresses {
		keys = append(keys, AddressKey(address))
	}
	return normalize(keys)
}

func normalize(keys []Key) []Key {
	sorted := make([]Key, len(keys))
	copy(sorted, keys)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].less(sorted[j]) })
	result := sorted[:0]
	for i, key := range sorted {
		if i > 0 && key == sorted[i-1] {
			continue
		}
		result = append(result, key)
	}
	return result
}

// WaitObserver is notified of how long every Lock call waited.
type WaitObserver interface {
	ObserveLockWait(keys []Key, waited time.Duration)
}

type entry struct {
	semaphore chan struct{}
	refs      int
}

// Registry hands out exclusive locks on named resources and address sets.
type Registry struct {
	mtx      sync.Mutex
	entries  map[Key]*entry
	observer WaitObserver
}

// NewRegistry creates an empty Registry. observer may be nil.
func NewRegistry(observer WaitObserver) *Registry {
	return &Registry{
		entries:  make(map[Key]*entry),
		observer: observer,
	}
}

func (r *Registry) reference(key Key) *entry {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	e, ok := r.entries[key]
	if !ok {
		e = &entry{semaphore: make(chan struct{}, 1)}
		r.entries[key] = e
	}
	e.refs++
	return e
}

func (r *Registry) dereference(key Key) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	e := r.entries[key]
	e.refs--
	if e.refs == 0 {
		delete(r.entries, key)
	}
}

// Lock acquires all the given keys in the global order and returns a function
// releasing them. If ctx is done first, everything acquired so far is released
// and an error wrapping ErrLockTimeout is returned.
func (r *Registry) Lock(ctx context.Context, keys ...Key) (unlock func(), err error) {
	keys = normalize(keys)
	start := time.Now()

	acquired := make([]Key, 0, len(keys))
	release := func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			key := acquired[i]
			r.mtx.Lock()
			e := r.entries[key]
			r.mtx.Unlock()
			<-e.semaphore
			r.dereference(key)
		}
	}

	for _, key := range keys {
		e := r.reference(key)
		select {
		case e.semaphore <- struct{}{}:
			acquired = append(acquired, key)
		case <-ctx.Done():
			r.dereference(key)
			release()
			return nil, errors.Wrapf(ErrLockTimeout, "failed acquiring %s: %s", key, ctx.Err())
		}
	}

	if r.observer != nil {
		r.observer.ObserveLockWait(keys, time.Since(start))
	}
	log.Tracef("Acquired %v", keys)

	var once sync.Once
	return func() {
		once.Do(func() {
			release()
			log.Tracef("Released %v", keys)
		})
	}, nil
}

// IsLocked returns whether key is currently held.
func (r *Registry) IsLocked(key Key) bool {
	r.mtx.Lock()
	e, ok := r.entries[key]
	r.mtx.Unlock()
	return ok && len(e.semaphore) > 0
}

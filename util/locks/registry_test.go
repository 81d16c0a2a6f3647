package locks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestAddressSetKeysSortsAndDeduplicates(t *testing.T) {
	keys := AddressSetKeys([]string{"BBB", "AAA", "BBB"})
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
	if keys[0] != AddressKey("AAA") || keys[1] != AddressKey("BBB") {
		t.Fatalf("unexpected key order %v", keys)
	}
}

func TestGlobalOrder(t *testing.T) {
	keys := normalize([]Key{Write, PrivateWrite, AddressKey("Z"), HashTree, CatchupChain, AddressKey("A")})
	expected := []Key{AddressKey("A"), AddressKey("Z"), HashTree, CatchupChain, PrivateWrite, Write}
	if len(keys) != len(expected) {
		t.Fatalf("unexpected length %d", len(keys))
	}
	for i := range keys {
		if keys[i] != expected[i] {
			t.Fatalf("key %d: got %s, want %s", i, keys[i], expected[i])
		}
	}
}

func TestOverlappingAddressSetsAreSerialized(t *testing.T) {
	registry := NewRegistry(nil)
	unlock, err := registry.Lock(context.Background(), AddressSetKeys([]string{"A", "B"})...)
	if err != nil {
		t.Fatalf("Lock: %+v", err)
	}

	acquired := make(chan struct{})
	go func() {
		secondUnlock, err := registry.Lock(context.Background(), AddressSetKeys([]string{"B", "C"})...)
		if err != nil {
			t.Errorf("Lock: %+v", err)
			close(acquired)
			return
		}
		close(acquired)
		secondUnlock()
	}()

	select {
	case <-acquired:
		t.Fatalf("an overlapping address set was acquired while the first one was held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatalf("the overlapping address set was never acquired")
	}
}

func TestDisjointAddressSetsDoNotBlock(t *testing.T) {
	registry := NewRegistry(nil)
	unlockFirst, err := registry.Lock(context.Background(), AddressSetKeys([]string{"A"})...)
	if err != nil {
		t.Fatalf("Lock: %+v", err)
	}
	defer unlockFirst()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockSecond, err := registry.Lock(ctx, AddressSetKeys([]string{"B"})...)
	if err != nil {
		t.Fatalf("Lock: %+v", err)
	}
	unlockSecond()
}

func TestLockTimeoutReleasesPartialAcquisition(t *testing.T) {
	registry := NewRegistry(nil)
	unlockWrite, err := registry.Lock(context.Background(), Write)
	if err != nil {
		t.Fatalf("Lock: %+v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = registry.Lock(ctx, AddressKey("A"), Write)
	if !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %+v", err)
	}
	if registry.IsLocked(AddressKey("A")) {
		t.Fatalf("address key stayed locked after a timed out Lock")
	}

	unlockWrite()
	if registry.IsLocked(Write) {
		t.Fatalf("write key stayed locked after unlock")
	}
}

func TestUnlockIsIdempotent(t *testing.T) {
	registry := NewRegistry(nil)
	unlock, err := registry.Lock(context.Background(), Write)
	if err != nil {
		t.Fatalf("Lock: %+v", err)
	}
	unlock()
	unlock()
	if len(registry.entries) != 0 {
		t.Fatalf("expected no entries left, got %d", len(registry.entries))
	}
}

type recordingObserver struct {
	sync.Mutex
	calls int
}

func (o *recordingObserver) ObserveLockWait([]Key, time.Duration) {
	o.Lock()
	defer o.Unlock()
	o.calls++
}

func TestObserverIsNotified(t *testing.T) {
	observer := &recordingObserver{}
	registry := NewRegistry(observer)
	for i := 0; i < 3; i++ {
		unlock, err := registry.Lock(context.Background(), HashTree)
		if err != nil {
			t.Fatalf("Lock: %+v", err)
		}
		unlock()
	}
	if observer.calls != 3 {
		t.Fatalf("expected 3 observations, got %d", observer.calls)
	}
}

package notifications

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
)

// UnitAcceptedNotification is raised once a joint is committed
type UnitAcceptedNotification struct {
	Joint *externalapi.DomainJoint
}

// OnUnitAcceptedListener is a listener function for when a unit is committed
type OnUnitAcceptedListener func(notification *UnitAcceptedNotification) error

// NotificationManager dispatches unit notifications to registered listeners
// and to callers waiting for a specific unit
type NotificationManager struct {
	sync.RWMutex
	listeners map[*NotificationListener]struct{}
	waiters   map[externalapi.DomainHash][]chan struct{}
}

// NotificationListener represents a registered notification listener
type NotificationListener struct {
	onUnitAcceptedListener         OnUnitAcceptedListener
	onUnitAcceptedNotificationChan chan *UnitAcceptedNotification

	closeChan chan struct{}
}

const listenerBufferSize = 100

// NewNotificationManager creates a new NotificationManager
func NewNotificationManager() *NotificationManager {
	return &NotificationManager{
		listeners: make(map[*NotificationListener]struct{}),
		waiters:   make(map[externalapi.DomainHash][]chan struct{}),
	}
}

// AddListener registers a new listener
func (nm *NotificationManager) AddListener() *NotificationListener {
	nm.Lock()
	defer nm.Unlock()

	listener := newNotificationListener()
	nm.listeners[listener] = struct{}{}
	return listener
}

// RemoveListener unregisters the given listener
func (nm *NotificationManager) RemoveListener(listener *NotificationListener) {
	nm.Lock()
	defer nm.Unlock()

	if _, ok := nm.listeners[listener]; !ok {
		return
	}
	listener.close()
	delete(nm.listeners, listener)
}

// NotifyUnitAccepted notifies listeners and waiters that joint was committed
func (nm *NotificationManager) NotifyUnitAccepted(joint *externalapi.DomainJoint) {
	nm.Lock()
	waiters := nm.waiters[*joint.Unit.Hash]
	delete(nm.waiters, *joint.Unit.Hash)
	nm.Unlock()
	for _, waiter := range waiters {
		close(waiter)
	}

	nm.RLock()
	defer nm.RUnlock()

	notification := &UnitAcceptedNotification{Joint: joint}
	for listener := range nm.listeners {
		if listener.onUnitAcceptedListener != nil {
			select {
			case listener.onUnitAcceptedNotificationChan <- notification:
			case <-listener.closeChan:
				continue
			}
		}
	}
}

// WaitForUnit blocks until unitHash is committed or ctx is done. isKnown
// is checked after the waiter is registered, so a unit committed in
// between is not missed.
func (nm *NotificationManager) WaitForUnit(ctx context.Context, unitHash *externalapi.DomainHash,
	isKnown func() (bool, error)) error {

	waiter := make(chan struct{})
	nm.Lock()
	nm.waiters[*unitHash] = append(nm.waiters[*unitHash], waiter)
	nm.Unlock()

	known, err := isKnown()
	if err != nil || known {
		nm.removeWaiter(unitHash, waiter)
		return err
	}

	select {
	case <-waiter:
		return nil
	case <-ctx.Done():
		nm.removeWaiter(unitHash, waiter)
		return errors.Wrapf(ctx.Err(), "stopped waiting for unit %s", unitHash)
	}
}

func (nm *NotificationManager) removeWaiter(unitHash *externalapi.DomainHash, waiter chan struct{}) {
	nm.Lock()
	defer nm.Unlock()

	waiters := nm.waiters[*unitHash]
	for i, w := range waiters {
		if w == waiter {
			waiters = append(waiters[:i], waiters[i+1:]...)
			break
		}
	}
	if len(waiters) == 0 {
		delete(nm.waiters, *unitHash)
		return
	}
	nm.waiters[*unitHash] = waiters
}

func newNotificationListener() *NotificationListener {
	return &NotificationListener{
		onUnitAcceptedNotificationChan: make(chan *UnitAcceptedNotification, listenerBufferSize),
		closeChan:                      make(chan struct{}, 1),
	}
}

// SetOnUnitAcceptedListener sets the onUnitAcceptedListener handler for this listener
func (nl *NotificationListener) SetOnUnitAcceptedListener(onUnitAcceptedListener OnUnitAcceptedListener) {
	nl.onUnitAcceptedListener = onUnitAcceptedListener
}

// ProcessNextNotification waits until a notification arrives and processes it.
// It returns ErrListenerClosed once the listener was removed.
func (nl *NotificationListener) ProcessNextNotification() error {
	select {
	case notification := <-nl.onUnitAcceptedNotificationChan:
		err := nl.onUnitAcceptedListener(notification)
		if err != nil {
			log.Warnf("Unit accepted listener failed for %s: %s", notification.Joint.Unit.Hash, err)
		}
		return err
	case <-nl.closeChan:
		return ErrListenerClosed
	}
}

// ErrListenerClosed is returned by ProcessNextNotification after RemoveListener
var ErrListenerClosed = errors.New("listener closed")

func (nl *NotificationListener) close() {
	nl.closeChan <- struct{}{}
}

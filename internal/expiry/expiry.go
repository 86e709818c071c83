// Package expiry broadcasts "the current session is invalid" from any call
// site to the single mounted session-expired dialog.
package expiry

import (
	"context"
	"sync"

	"todo/internal/session"
)

// Bus is a single-slot broadcast. At most one listener is registered at a time.
type Bus struct {
	mu       sync.Mutex
	listener func()
	slot     uint64
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Register installs fn as the listener, replacing any previous one.
// The returned func removes fn; it is a no-op if fn was already replaced.
func (b *Bus) Register(fn func()) (unregister func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.slot++
	id := b.slot
	b.listener = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.slot == id {
			b.listener = nil
		}
	}
}

// Signal notifies the listener. Without a listener it does nothing.
func (b *Bus) Signal() {
	if b == nil {
		return
	}
	b.mu.Lock()
	fn := b.listener
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Dialog is the session-expired prompt. It opens when the bus signals and,
// once acknowledged, clears the session and sends the user to login.
type Dialog struct {
	store    session.Store
	redirect func()

	mu   sync.Mutex
	open bool
}

// NewDialog creates a dialog that clears store and calls redirect on acknowledgment.
func NewDialog(store session.Store, redirect func()) *Dialog {
	return &Dialog{store: store, redirect: redirect}
}

// Mount registers the dialog on bus and returns the unmount func.
func (d *Dialog) Mount(bus *Bus) (unmount func()) {
	return bus.Register(d.show)
}

func (d *Dialog) show() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = true
}

// Open reports whether the dialog is showing.
func (d *Dialog) Open() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// Acknowledge clears the session, closes the dialog and redirects to login.
func (d *Dialog) Acknowledge(ctx context.Context) error {
	if err := d.store.Clear(ctx); err != nil {
		return err
	}
	d.mu.Lock()
	d.open = false
	d.mu.Unlock()
	if d.redirect != nil {
		d.redirect()
	}
	return nil
}

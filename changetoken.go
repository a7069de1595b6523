package fileref

import (
	"context"
	"sync"
	"sync/atomic"
)

// CallbackChangeToken is a ChangeToken that supports active callbacks.
// Used by sources that have native change events (local, memory).
type CallbackChangeToken struct {
	mu        sync.RWMutex
	changed   atomic.Bool
	callbacks []func()
}

// NewCallbackChangeToken creates a new ChangeToken that supports active callbacks.
func NewCallbackChangeToken() *CallbackChangeToken {
	return &CallbackChangeToken{}
}

func (t *CallbackChangeToken) HasChanged() bool {
	return t.changed.Load()
}

func (t *CallbackChangeToken) ActiveChangeCallbacks() bool {
	return true
}

// RegisterChangeCallback registers callback. If the token has already
// changed, callback runs immediately.
func (t *CallbackChangeToken) RegisterChangeCallback(callback func()) (unregister func()) {
	t.mu.Lock()
	t.callbacks = append(t.callbacks, callback)
	index := len(t.callbacks) - 1
	t.mu.Unlock()

	unregister = func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if index < len(t.callbacks) {
			// Set to nil instead of removing to avoid index shifting
			t.callbacks[index] = nil
		}
	}

	if t.changed.Load() {
		callback()
	}
	return unregister
}

// SignalChange marks the token as changed and invokes all callbacks.
// Sources call this when a change is detected.
func (t *CallbackChangeToken) SignalChange() {
	if t.changed.Swap(true) {
		return
	}

	t.mu.RLock()
	callbacks := make([]func(), len(t.callbacks))
	copy(callbacks, t.callbacks)
	t.mu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb()
		}
	}
}

// OnChange continuously watches for changes, creating a new token each time
// the previous one fires, and runs changeAction after every change. It stops
// when ctx is done, the returned cancel is called, or tokenProducer fails.
func OnChange(ctx context.Context, tokenProducer func(ctx context.Context) (ChangeToken, error), changeAction func()) (cancel func()) {
	ctx, cancelFunc := context.WithCancel(ctx)

	go func() {
		for {
			// Each token is scoped to its iteration.
			iterCtx, iterCancel := context.WithCancel(ctx)
			token, err := tokenProducer(iterCtx)
			if err != nil {
				iterCancel()
				Logger().Debug("change token producer failed, stopping")
				return
			}

			// Closed at most once; callbacks may run more than once if the
			// token is registered after it changed.
			var once sync.Once
			done := make(chan struct{})
			unregister := token.RegisterChangeCallback(func() {
				once.Do(func() { close(done) })
			})

			select {
			case <-ctx.Done():
				unregister()
				iterCancel()
				return
			case <-done:
				unregister()
				iterCancel()
				changeAction()
			}
		}
	}()

	return cancelFunc
}

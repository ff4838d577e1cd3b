package input

import (
	"sync"

	"github.com/Carmen-Shannon/oxen-go/common"
)

// Keyboard maps logical keys to their pressed state.
// The render goroutine writes it while polling window events; the simulation goroutine reads it
// one key at a time through Pressed. A key with no entry is not pressed.
type Keyboard struct {
	mu   *sync.Mutex
	keys map[common.Key]bool
}

// NewKeyboard creates an empty keyboard table.
//
// Returns:
//   - *Keyboard: the table with every key released
func NewKeyboard() *Keyboard {
	return &Keyboard{
		mu:   &sync.Mutex{},
		keys: make(map[common.Key]bool),
	}
}

// Set records the pressed state of a key.
//
// Parameters:
//   - key: the logical key
//   - pressed: true when the key went down, false when released
func (k *Keyboard) Set(key common.Key, pressed bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys[key] = pressed
}

// Press marks a key as pressed.
func (k *Keyboard) Press(key common.Key) {
	k.Set(key, true)
}

// Release marks a key as released.
func (k *Keyboard) Release(key common.Key) {
	k.Set(key, false)
}

// Pressed reports whether key is currently pressed. The lock is held only for the lookup.
// Its signature matches behaviour.KeyQuery.
//
// Parameters:
//   - key: the logical key
//
// Returns:
//   - bool: true if pressed, false if released or never seen
func (k *Keyboard) Pressed(key common.Key) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.keys[key]
}

// Reset releases every key. The render loop calls it on surface.EventFocusLost.
func (k *Keyboard) Reset() {
	k.mu.Lock()
	defer k.mu.Unlock()
	clear(k.keys)
}

package input

import (
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxen-go/common"
	"github.com/stretchr/testify/assert"
)

func TestKeyboard_DefaultsToReleased(t *testing.T) {
	k := NewKeyboard()
	assert.False(t, k.Pressed(common.KeyW))
}

func TestKeyboard_PressRelease(t *testing.T) {
	k := NewKeyboard()

	k.Press(common.KeyA)
	assert.True(t, k.Pressed(common.KeyA))
	assert.False(t, k.Pressed(common.KeyD))

	k.Release(common.KeyA)
	assert.False(t, k.Pressed(common.KeyA))

	k.Set(common.KeySpace, true)
	k.Reset()
	assert.False(t, k.Pressed(common.KeySpace))
}

func TestKeyboard_ConcurrentReadWrite(t *testing.T) {
	k := NewKeyboard()
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			k.Set(common.KeyW, i%2 == 0)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			_ = k.Pressed(common.KeyW)
		}
	}()
	wg.Wait()

	// Last write was i=999: released.
	assert.False(t, k.Pressed(common.KeyW))
}

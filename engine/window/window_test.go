package window

import (
	"testing"

	"github.com/Carmen-Shannon/oxen-go/common"
	"github.com/Carmen-Shannon/oxen-go/engine/surface"
	"github.com/stretchr/testify/assert"
)

// These tests exercise the event queue without creating a platform window.

func TestNewEngineWindow_Options(t *testing.T) {
	w := newEngineWindow(
		WithTitle("test"),
		WithWidth(640),
		WithHeight(480),
		WithSizeLimits(100, 100, 800, 600),
		WithCloseOnEscape(false),
	)

	assert.Equal(t, "test", w.title)
	assert.Equal(t, 640, w.Width())
	assert.Equal(t, 480, w.Height())
	assert.Equal(t, 100, w.minWidth)
	assert.Equal(t, 600, w.maxHeight)
	assert.False(t, w.closeOnEscape)
}

func TestPollEvents_NoPlatformWindowReportsCloseOnce(t *testing.T) {
	w := newEngineWindow()
	w.push(surface.Event{Kind: surface.EventKeyPressed, Key: common.KeyW})

	events := w.PollEvents()
	assert.Equal(t, []surface.Event{
		{Kind: surface.EventKeyPressed, Key: common.KeyW},
		{Kind: surface.EventClosed},
	}, events)

	assert.Empty(t, w.PollEvents())
	assert.False(t, w.IsRunning())
}

func TestPush_ResizeUpdatesSize(t *testing.T) {
	w := newEngineWindow()
	w.push(surface.Event{Kind: surface.EventResized, Width: 800, Height: 600})

	assert.Equal(t, 800, w.Width())
	assert.Equal(t, 600, w.Height())
}

func TestClose_Uninitialized(t *testing.T) {
	w := newEngineWindow()
	assert.Error(t, w.Close())
}

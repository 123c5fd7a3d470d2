package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withEvents(t *testing.T) {
	t.Helper()
	require.True(t, EventSystemInitialize())
	t.Cleanup(func() { _ = EventSystemShutdown() })
}

func TestEventsAreDeliveredOnDispatch(t *testing.T) {
	withEvents(t)

	var got []SystemEventCode
	EventRegister(EVENT_CODE_APPLICATION_QUIT, func(ctx EventContext) {
		got = append(got, ctx.Type)
	})

	assert.True(t, EventFire(EventContext{Type: EVENT_CODE_APPLICATION_QUIT}))
	assert.Empty(t, got)

	assert.Equal(t, 1, EventDispatch())
	assert.Equal(t, []SystemEventCode{EVENT_CODE_APPLICATION_QUIT}, got)
	assert.Equal(t, 0, EventDispatch())
}

func TestEveryListenerSeesTheEvent(t *testing.T) {
	withEvents(t)

	var widths []uint32
	listener := func(ctx EventContext) {
		widths = append(widths, ctx.Data.(*ResizeEvent).Width)
	}
	EventRegister(EVENT_CODE_RESIZED, listener)
	EventRegister(EVENT_CODE_RESIZED, listener)

	EventFire(EventContext{Type: EVENT_CODE_RESIZED, Data: &ResizeEvent{Width: 10, Height: 10}})
	EventDispatch()
	assert.Equal(t, []uint32{10, 10}, widths)
}

func TestFullQueueDropsEvents(t *testing.T) {
	withEvents(t)

	for i := 0; i < MAX_PENDING_EVENTS; i++ {
		require.True(t, EventFire(EventContext{Type: EVENT_CODE_KEY_PRESSED}))
	}
	assert.False(t, EventFire(EventContext{Type: EVENT_CODE_KEY_PRESSED}))
	assert.Equal(t, MAX_PENDING_EVENTS, EventDispatch())
}

func TestInputFiresOnTransitionsOnly(t *testing.T) {
	withEvents(t)
	require.NoError(t, InputInitialize())
	t.Cleanup(func() { _ = InputShutdown() })

	var keys []KeyCode
	EventRegister(EVENT_CODE_KEY_PRESSED, func(ctx EventContext) {
		keys = append(keys, ctx.Data.(*KeyEvent).KeyCode)
	})

	InputProcessKey(KEY_RIGHT, true)
	InputProcessKey(KEY_RIGHT, true)
	assert.True(t, InputIsKeyDown(KEY_RIGHT))
	assert.False(t, InputWasKeyDown(KEY_RIGHT))

	require.NoError(t, InputUpdate(0))
	assert.True(t, InputWasKeyDown(KEY_RIGHT))

	InputProcessKey(KEY_RIGHT, false)
	assert.True(t, InputIsKeyUp(KEY_RIGHT))

	EventDispatch()
	assert.Equal(t, []KeyCode{KEY_RIGHT}, keys)
}

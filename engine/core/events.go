package core

import (
	"sync"

	"github.com/spaghettifunk/rendermatic/engine/containers"
)

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode uint16

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01
	// Data: *KeyEvent
	EVENT_CODE_KEY_PRESSED SystemEventCode = 0x02
	// Data: *KeyEvent
	EVENT_CODE_KEY_RELEASED SystemEventCode = 0x03
	// Data: *ResizeEvent
	EVENT_CODE_RESIZED SystemEventCode = 0x08

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

// Events fired between two calls to EventDispatch are buffered up to this count.
const MAX_PENDING_EVENTS = 256

type EventContext struct {
	Type SystemEventCode
	Data interface{}
}

type KeyEvent struct {
	KeyCode KeyCode
}

type ResizeEvent struct {
	Width  uint32
	Height uint32
}

type FnOnEvent func(context EventContext)

type eventSystemState struct {
	mu         sync.Mutex
	registered map[SystemEventCode][]FnOnEvent
	pending    *containers.RingQueue[EventContext]
}

var eventState *eventSystemState

func EventSystemInitialize() bool {
	if eventState != nil {
		return false
	}
	eventState = &eventSystemState{
		registered: make(map[SystemEventCode][]FnOnEvent),
		pending:    containers.NewRingQueue[EventContext](MAX_PENDING_EVENTS),
	}
	return true
}

func EventSystemShutdown() error {
	eventState = nil
	return nil
}

// EventRegister adds a listener for code. Listeners run in registration order.
func EventRegister(code SystemEventCode, onEvent FnOnEvent) bool {
	if eventState == nil || onEvent == nil {
		return false
	}
	eventState.mu.Lock()
	defer eventState.mu.Unlock()
	eventState.registered[code] = append(eventState.registered[code], onEvent)
	return true
}

// EventFire queues an event. It is delivered on the next EventDispatch so that
// window callbacks never run game code re-entrantly.
func EventFire(ctx EventContext) bool {
	if eventState == nil {
		return false
	}
	eventState.mu.Lock()
	defer eventState.mu.Unlock()
	if err := eventState.pending.Enqueue(ctx); err != nil {
		LogWarn("dropping event %d: %s", ctx.Type, err)
		return false
	}
	return true
}

// EventDispatch delivers every queued event to its listeners and returns how
// many events were delivered.
func EventDispatch() int {
	if eventState == nil {
		return 0
	}
	delivered := 0
	for {
		eventState.mu.Lock()
		ctx, err := eventState.pending.Dequeue()
		listeners := eventState.registered[ctx.Type]
		eventState.mu.Unlock()
		if err != nil {
			return delivered
		}
		for _, fn := range listeners {
			fn(ctx)
		}
		delivered++
	}
}

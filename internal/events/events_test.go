package events

import (
	"sync/atomic"
	"testing"

	console "ruralsite/internal/utils/logger"

	"github.com/stretchr/testify/assert"
)

func TestEmitDeliversToAllHandlers(t *testing.T) {
	bus := NewEventBus()
	var calls atomic.Int32

	bus.On(Name("products", ActionCreated), func(data interface{}) {
		evt := data.(ContentEvent)
		assert.Equal(t, "product", evt.Resource)
		calls.Add(1)
	})
	bus.On(Name("products", ActionCreated), func(interface{}) { calls.Add(1) })
	bus.On(Name("products", ActionDeleted), func(interface{}) { calls.Add(100) })

	bus.Emit(Name("products", ActionCreated), ContentEvent{Resource: "product", ID: "1"})
	bus.Wait()

	assert.EqualValues(t, 2, calls.Load())
}

func TestPanickingHandlerIsContained(t *testing.T) {
	restore := console.Discard()
	defer restore()

	bus := NewEventBus()
	var reached atomic.Bool
	bus.On(AssetStranded, func(interface{}) { panic("boom") })
	bus.On(AssetStranded, func(interface{}) { reached.Store(true) })

	bus.Emit(AssetStranded, StrandedEvent{Handle: "blog/x.png"})
	bus.Wait()

	assert.True(t, reached.Load())
}

func TestNilBusIsSafe(t *testing.T) {
	var bus *EventBus
	bus.Emit(Name("products", ActionUpdated), nil)
	bus.Wait()
}

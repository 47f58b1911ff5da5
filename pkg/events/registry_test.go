package events

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func TestEmitInSubscriptionOrder(t *testing.T) {
	r := NewRegistry[string](nil, "test")

	var got []string
	r.Subscribe(func(e string) { got = append(got, "a:"+e) })
	r.Subscribe(func(e string) { got = append(got, "b:"+e) })

	r.Emit("x")
	assert.Equal(t, []string{"a:x", "b:x"}, got)
}

func TestUnsubscribe(t *testing.T) {
	r := NewRegistry[int](nil, "test")

	var a, b int
	unsubA := r.Subscribe(func(v int) { a += v })
	r.Subscribe(func(v int) { b += v })

	r.Emit(1)
	unsubA()
	unsubA()
	r.Emit(2)

	assert.Equal(t, 1, a)
	assert.Equal(t, 3, b)
	assert.Equal(t, 1, r.Len())
}

func TestUnsubscribeDuringEmit(t *testing.T) {
	r := NewRegistry[int](nil, "test")

	calls := 0
	var unsub func()
	unsub = r.Subscribe(func(int) {
		calls++
		unsub()
	})
	r.Subscribe(func(int) { calls++ })

	r.Emit(1)
	assert.Equal(t, 2, calls)

	r.Emit(1)
	assert.Equal(t, 3, calls)
}

func TestPanickingHandlerIsIsolated(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := NewRegistry[string](logger, "test")

	delivered := false
	r.Subscribe(func(string) { panic("boom") })
	r.Subscribe(func(string) { delivered = true })

	assert.NotPanics(t, func() { r.Emit("event") })
	assert.True(t, delivered)

	entry := hook.LastEntry()
	if assert.NotNil(t, entry) {
		assert.Equal(t, logrus.ErrorLevel, entry.Level)
		assert.Equal(t, "boom", entry.Data["panic_value"])
		assert.Equal(t, "test", entry.Data["component"])
	}
}

func TestNilHandlerAndClear(t *testing.T) {
	r := NewRegistry[int](nil, "test")

	unsub := r.Subscribe(nil)
	assert.NotPanics(t, unsub)
	assert.Equal(t, 0, r.Len())

	r.Subscribe(func(int) {})
	r.Clear()
	assert.Equal(t, 0, r.Len())
}

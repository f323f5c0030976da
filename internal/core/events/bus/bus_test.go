package bus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()

	var got []string
	b.Subscribe("session.join", func(e Event) error {
		got = append(got, e.Source)
		return nil
	})

	require.NoError(t, b.Publish(Event{Type: "session.join", Source: "ruins"}))
	require.NoError(t, b.Publish(Event{Type: "session.stop", Source: "ruins"}))

	assert.Equal(t, []string{"ruins"}, got)
}

func TestWildcardSubscription(t *testing.T) {
	b := New()

	count := 0
	b.Subscribe("", func(e Event) error { count++; return nil })

	_ = b.Publish(Event{Type: "a"})
	_ = b.Publish(Event{Type: "b"})

	assert.Equal(t, 2, count)
}

func TestCancelStopsDelivery(t *testing.T) {
	b := New()

	count := 0
	sub := b.Subscribe("x", func(e Event) error { count++; return nil })

	_ = b.Publish(Event{Type: "x"})
	sub.Cancel()
	sub.Cancel() // idempotent
	_ = b.Publish(Event{Type: "x"})

	assert.Equal(t, 1, count)
}

func TestHandlerErrorDoesNotBlockOthers(t *testing.T) {
	b := New()

	reached := false
	b.Subscribe("x", func(e Event) error { return errors.New("bad handler") })
	b.Subscribe("x", func(e Event) error { reached = true; return nil })

	err := b.Publish(Event{Type: "x"})

	assert.True(t, reached)
	assert.Error(t, err)
}

func TestTimestampDefaulted(t *testing.T) {
	b := New()

	var got Event
	b.Subscribe("x", func(e Event) error { got = e; return nil })
	_ = b.Publish(Event{Type: "x"})

	assert.False(t, got.Timestamp.IsZero())
}

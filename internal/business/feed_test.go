package business

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeedFanOut(t *testing.T) {
	feed := NewFeed()

	a, cancelA := feed.Subscribe()
	b, cancelB := feed.Subscribe()
	defer cancelA()
	defer cancelB()

	require.Equal(t, 2, feed.SubscriberCount())

	feed.Publish(Event{Type: EventCreated})
	require.Equal(t, EventCreated, (<-a).Type)
	require.Equal(t, EventCreated, (<-b).Type)
}

func TestFeedUnsubscribeClosesChannel(t *testing.T) {
	feed := NewFeed()

	ch, cancel := feed.Subscribe()
	cancel()

	_, open := <-ch
	require.False(t, open)
	require.Zero(t, feed.SubscriberCount())

	// A second cancel is a no-op
	cancel()
}

func TestFeedDropsWhenSubscriberIsFull(t *testing.T) {
	feed := NewFeed()

	ch, cancel := feed.Subscribe()
	defer cancel()

	// Fill the buffer and keep publishing; Publish must never block.
	for i := 0; i < subscriberBuffer*2; i++ {
		feed.Publish(Event{Type: EventUpdated})
	}

	drained := 0
	for {
		select {
		case <-ch:
			drained++
			continue
		default:
		}
		break
	}
	require.Equal(t, subscriberBuffer, drained)
}

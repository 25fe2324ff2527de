package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBroadcastToReachesOnlySubscribers(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	sub := NewClient(hub, nil, "obra-42")
	other := NewClient(hub, nil, "obra-7")
	global := NewClient(hub, nil, "")
	hub.Register <- sub
	hub.Register <- other
	hub.Register <- global

	hub.BroadcastTo("obra-42", []byte("hola"))

	select {
	case msg := <-sub.Send:
		assert.Equal(t, "hola", string(msg))
	case <-time.After(time.Second):
		t.Fatal("subscriber never received the frame")
	}
	// The hub processes frames in order, so by now the others were skipped.
	select {
	case msg := <-other.Send:
		t.Fatalf("unrelated subscriber received %q", msg)
	case msg := <-global.Send:
		t.Fatalf("global client received targeted frame %q", msg)
	default:
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	a := NewClient(hub, nil, "obra-42")
	b := NewClient(hub, nil, "")
	hub.Register <- a
	hub.Register <- b

	hub.Broadcast <- []byte("adios")

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.Send:
			assert.Equal(t, "adios", string(msg))
		case <-time.After(time.Second):
			t.Fatal("client never received the frame")
		}
	}
}

// Targeted broadcasts race against clients connecting and dropping; all map
// mutation has to stay on the Run goroutine.
func TestBroadcastToDuringChurn(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			hub.BroadcastTo("obra-42", []byte("hola"))
		}
	}()

	for i := 0; i < 200; i++ {
		client := NewClient(hub, nil, "obra-42")
		hub.Register <- client
		hub.Unregister <- client
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("broadcasts did not drain during client churn")
	}
}

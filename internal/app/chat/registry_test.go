package chat

import (
	"sync"
	"testing"
)

func newTestClient() *Client {
	return &Client{
		send: make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}
}

func TestRegistry_JoinAndMembers(t *testing.T) {
	r := NewRegistry()
	a := newTestClient()
	b := newTestClient()

	r.Join("sala", a)
	r.Join("sala", b)

	members := r.Members("sala")
	if len(members) != 2 {
		t.Fatalf("Members = %d, want 2", len(members))
	}

	room, ok := r.Room(a)
	if !ok || room != "sala" {
		t.Errorf("Room(a) = %q, %v, want \"sala\", true", room, ok)
	}
}

func TestRegistry_JoinIsIdempotentPerConnection(t *testing.T) {
	r := NewRegistry()
	c := newTestClient()

	r.Join("sala", c)
	r.Join("sala", c)
	r.Join("sala", c)

	if got := len(r.Members("sala")); got != 1 {
		t.Fatalf("Members after repeated Join = %d, want 1", got)
	}
}

func TestRegistry_JoinMovesBetweenRooms(t *testing.T) {
	r := NewRegistry()
	c := newTestClient()

	r.Join("uno", c)
	r.Join("dos", c)

	if got := len(r.Members("uno")); got != 0 {
		t.Errorf("Members(uno) = %d, want 0 after move", got)
	}
	if got := len(r.Members("dos")); got != 1 {
		t.Errorf("Members(dos) = %d, want 1 after move", got)
	}

	room, ok := r.Room(c)
	if !ok || room != "dos" {
		t.Errorf("Room(c) = %q, %v, want \"dos\", true", room, ok)
	}
}

func TestRegistry_LeaveUnregisteredIsNoOp(t *testing.T) {
	r := NewRegistry()
	c := newTestClient()

	r.Leave(c)
	r.Leave(c)

	if got := len(r.Members("sala")); got != 0 {
		t.Fatalf("Members = %d, want 0", got)
	}
}

func TestRegistry_EmptyRoomIsDeleted(t *testing.T) {
	r := NewRegistry()
	c := newTestClient()

	r.Join("sala", c)
	r.Leave(c)

	r.mu.RLock()
	_, exists := r.rooms["sala"]
	r.mu.RUnlock()

	if exists {
		t.Error("empty room still present in registry")
	}
	if _, ok := r.Room(c); ok {
		t.Error("Room(c) still registered after Leave")
	}
}

func TestRegistry_MembersIsASnapshot(t *testing.T) {
	r := NewRegistry()
	a := newTestClient()
	b := newTestClient()

	r.Join("sala", a)
	snapshot := r.Members("sala")

	r.Join("sala", b)
	r.Leave(a)

	if len(snapshot) != 1 || snapshot[0] != a {
		t.Fatalf("snapshot changed after later joins and leaves")
	}
}

func TestRegistry_ConcurrentChurn(t *testing.T) {
	r := NewRegistry()
	rooms := []string{"uno", "dos", "tres"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			c := newTestClient()
			for _, room := range rooms {
				r.Join(room, c)
			}
			r.Leave(c)
		}()
	}
	wg.Wait()

	for _, room := range rooms {
		if got := len(r.Members(room)); got != 0 {
			t.Errorf("Members(%s) = %d after churn, want 0", room, got)
		}
	}
}

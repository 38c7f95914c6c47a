package messaging

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pixil98/go-testutil"
)

func startServer(t *testing.T) *NatsServer {
	t.Helper()

	s, err := NewNatsServer(WithPort(-1), WithStartTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.Start(ctx); err != nil {
			t.Errorf("server stopped: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})

	select {
	case <-s.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("server never became ready")
	}
	return s
}

func TestNatsServer_PublishBeforeStart(t *testing.T) {
	s, err := NewNatsServer(WithPort(-1))
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}
	testutil.AssertErrorContains(t, s.Publish("zone-1", nil), "not started")
}

func TestGateway_OverNats(t *testing.T) {
	s := startServer(t)

	w := &fakeWorld{}
	g := NewGateway(s, w, newFakeRoster())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	nc, err := nats.Connect(s.ClientURL())
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer nc.Close()

	zoneMsgs := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe("zone-4", zoneMsgs)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer func() { _ = sub.Unsubscribe() }()
	if err := nc.Flush(); err != nil {
		t.Fatalf("flushing: %v", err)
	}

	// The gateway subscribes asynchronously; retry until it answers.
	var msg *nats.Msg
	deadline := time.Now().Add(5 * time.Second)
	for {
		msg, err = nc.Request(SubjectPlace, []byte(`{"player_id":1,"building_type":"WOOD_WALL","x":1,"y":2}`), 250*time.Millisecond)
		if err == nil || time.Now().After(deadline) {
			break
		}
	}
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	testutil.AssertEqual(t, "reply", string(msg.Data), `{"ok":true,"data":{"building_id":1}}`)

	if err := NewNatsPublisher(s).PublishToZone(4, []byte("hello")); err != nil {
		t.Fatalf("publishing: %v", err)
	}
	select {
	case m := <-zoneMsgs:
		testutil.AssertEqual(t, "zone message", string(m.Data), "hello")
	case <-time.After(5 * time.Second):
		t.Fatal("zone message not delivered")
	}
}

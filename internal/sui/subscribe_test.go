package sui

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// wsNode acks the subscription and pushes one event per connection. The first dropConns
// connections are closed right after the ack.
func wsNode(t *testing.T, dropConns int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var conns atomic.Int32
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		n := conns.Add(1)

		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		if req.Method != "suix_subscribeEvent" {
			t.Errorf("unexpected method %s", req.Method)
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"jsonrpc":"2.0","id":1,"result":42}`))
		if n <= dropConns {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"jsonrpc":"2.0","method":"suix_subscribeEvent","params":{"subscription":42,
			"result":{"id":{"txDigest":"d1","eventSeq":"0"},"sender":"0xa1","type":"0xc::box_nft::ClaimCouponEvent"}}}`))
		// hold the connection until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &conns
}

func wsURL(srv *httptest.Server) string { return "ws" + strings.TrimPrefix(srv.URL, "http") }

func TestSubscriberDeliversEvents(t *testing.T) {
	srv, _ := wsNode(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan Event, 1)
	errc := make(chan error, 1)
	go func() {
		errc <- NewSubscriber(wsURL(srv), zerolog.Nop()).Run(ctx, EventFilter{MoveEventType: "0xc::box_nft::ClaimCouponEvent"}, out)
	}()

	select {
	case ev := <-out:
		if ev.Sender != "0xa1" || ev.ID.TxDigest != "d1" {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for event")
	}

	cancel()
	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
}

func TestSubscriberReconnects(t *testing.T) {
	srv, conns := wsNode(t, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	out := make(chan Event, 1)
	go func() {
		_ = NewSubscriber(wsURL(srv), zerolog.Nop()).Run(ctx, EventFilter{MoveEventType: "x"}, out)
	}()

	select {
	case <-out:
	case <-ctx.Done():
		t.Fatalf("no event after reconnect")
	}
	if got := conns.Load(); got != 2 {
		t.Fatalf("expected 2 connections, got %d", got)
	}
}

func TestSubscriberBackoffStartsOverAfterSubscribe(t *testing.T) {
	// every connection is dropped right after the ack; without a reset the third wait would be ~5s
	srv, conns := wsNode(t, 100)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := NewSubscriber(wsURL(srv), zerolog.Nop())
	sub.retry = func() *backoff.ExponentialBackOff {
		b := reconnectPolicy()
		b.InitialInterval = 50 * time.Millisecond
		b.Multiplier = 10
		return b
	}
	go func() { _ = sub.Run(ctx, EventFilter{MoveEventType: "x"}, make(chan Event)) }()

	deadline := time.Now().Add(2 * time.Second)
	for conns.Load() < 5 {
		if time.Now().After(deadline) {
			t.Fatalf("only %d connections in 2s, backoff kept growing", conns.Load())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestReconnectPolicy(t *testing.T) {
	b := reconnectPolicy()
	if b.InitialInterval != time.Second || b.MaxInterval != 30*time.Second || b.MaxElapsedTime != 0 {
		t.Fatalf("unexpected policy %+v", b)
	}
	for i := 0; i < 50; i++ {
		if d := b.NextBackOff(); d == backoff.Stop || d > 45*time.Second {
			t.Fatalf("attempt %d: wait %v", i, d)
		}
	}
}

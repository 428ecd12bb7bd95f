package sui

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Subscriber streams events over the node's websocket endpoint.
type Subscriber struct {
	url   string
	log   zerolog.Logger
	retry func() *backoff.ExponentialBackOff
}

// NewSubscriber targets a ws:// or wss:// full node URL.
func NewSubscriber(url string, log zerolog.Logger) *Subscriber {
	return &Subscriber{url: url, log: log, retry: reconnectPolicy}
}

// reconnectPolicy starts at 1s and grows 1.8x per failed attempt, capped at 30s, forever.
func reconnectPolicy() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.Multiplier = 1.8
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

type wsRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type wsMessage struct {
	ID     *int            `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
	Params *struct {
		Subscription json.RawMessage `json:"subscription"`
		Result       Event           `json:"result"`
	} `json:"params,omitempty"`
}

// Run pushes matching events onto out until ctx is canceled, reconnecting with backoff. The delay
// starts over once a subscription is acknowledged.
func (s *Subscriber) Run(ctx context.Context, filter EventFilter, out chan<- Event) error {
	policy := s.retry()
	policy.Reset()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := s.consume(ctx, filter, out, policy.Reset)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		wait := policy.NextBackOff()
		if wait == backoff.Stop {
			return fmt.Errorf("event subscription: %w", err)
		}
		s.log.Warn().Err(err).Dur("retry_in", wait).Msg("event subscription dropped, retrying")
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Subscriber) consume(ctx context.Context, filter EventFilter, out chan<- Event, onSubscribed func()) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// unblock ReadMessage on shutdown
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	req := wsRequest{JSONRPC: "2.0", ID: 1, Method: "suix_subscribeEvent", Params: []any{filter}}
	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(20 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					s.log.Warn().Err(err).Msg("websocket ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	subscribed := false
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.log.Warn().Err(err).Msg("failed to decode websocket message")
			continue
		}
		if msg.Error != nil {
			return fmt.Errorf("subscribe rpc error %d: %s", msg.Error.Code, msg.Error.Message)
		}
		if !subscribed && msg.ID != nil {
			subscribed = true
			onSubscribed()
			s.log.Info().Str("filter", filter.MoveEventType).RawJSON("subscription", nonEmpty(msg.Result)).Msg("event subscription active")
			continue
		}
		if msg.Params == nil {
			continue
		}
		select {
		case out <- msg.Params.Result:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func nonEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}

package wire

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"netexam/internal/domain"
)

// Envelope is the JSON frame used by every session transport.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type credentialPayload struct {
	Value string `json:"value"`
}

type answerPayload struct {
	Option int `json:"option"`
}

// Codec reads and writes JSON frames on one connection.
type Codec interface {
	ReadEnvelope(env *Envelope) error
	WriteJSON(v any) error
	Close() error
}

// Peer adapts a Codec to app.Peer. A read pump owns the read side for the
// whole connection so a disconnect is noticed even while the session is
// blocked in the lobby.
type Peer struct {
	codec   Codec
	inbound chan domain.Inbound
	done    chan struct{}
	closed  chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func NewPeer(codec Codec) *Peer {
	p := &Peer{
		codec:   codec,
		inbound: make(chan domain.Inbound, 16),
		done:    make(chan struct{}),
		closed:  make(chan struct{}),
	}
	go p.readPump()
	return p
}

func (p *Peer) readPump() {
	defer close(p.done)
	for {
		var env Envelope
		if err := p.codec.ReadEnvelope(&env); err != nil {
			log.Debug().Err(err).Msg("session read ended")
			return
		}
		in, err := decode(env)
		if err != nil {
			_ = p.Send(domain.Outbound{Type: domain.MsgError, Payload: domain.ErrorPayload{Message: err.Error()}})
			continue
		}
		select {
		case p.inbound <- in:
		case <-p.closed:
			return
		}
	}
}

func decode(env Envelope) (domain.Inbound, error) {
	in := domain.Inbound{Type: env.Type}
	switch env.Type {
	case domain.MsgCredential:
		var payload credentialPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return in, fmt.Errorf("invalid credential payload")
		}
		in.Value = payload.Value
	case domain.MsgAnswer:
		var payload answerPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return in, fmt.Errorf("invalid answer payload")
		}
		in.Option = payload.Option
	default:
		return in, fmt.Errorf("unsupported message type %q", env.Type)
	}
	return in, nil
}

// Send writes one message. Write failures are reported as disconnects.
func (p *Peer) Send(msg domain.Outbound) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if err := p.codec.WriteJSON(outboundMessage[any]{Type: msg.Type, Payload: msg.Payload}); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDisconnected, err)
	}
	return nil
}

// Receive prefers already-buffered messages over a disconnect signal.
func (p *Peer) Receive(ctx context.Context) (domain.Inbound, error) {
	select {
	case in := <-p.inbound:
		return in, nil
	default:
	}
	select {
	case in := <-p.inbound:
		return in, nil
	case <-p.done:
		select {
		case in := <-p.inbound:
			return in, nil
		default:
			return domain.Inbound{}, domain.ErrDisconnected
		}
	case <-ctx.Done():
		return domain.Inbound{}, ctx.Err()
	}
}

func (p *Peer) Done() <-chan struct{} {
	return p.done
}

func (p *Peer) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.closed)
		err = p.codec.Close()
	})
	return err
}

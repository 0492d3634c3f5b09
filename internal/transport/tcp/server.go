package tcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"

	"github.com/rs/zerolog/log"

	"netexam/internal/app"
	"netexam/internal/transport/wire"
)

// Server accepts raw TCP sessions framed as newline-delimited JSON envelopes.
type Server struct {
	coordinator *app.Coordinator
}

func NewServer(coordinator *app.Coordinator) *Server {
	return &Server{coordinator: coordinator}
}

type lineCodec struct {
	conn net.Conn
	dec  *json.Decoder
	enc  *json.Encoder
}

func newLineCodec(conn net.Conn) *lineCodec {
	return &lineCodec{
		conn: conn,
		dec:  json.NewDecoder(bufio.NewReader(conn)),
		enc:  json.NewEncoder(conn),
	}
}

func (c *lineCodec) ReadEnvelope(env *wire.Envelope) error { return c.dec.Decode(env) }
func (c *lineCodec) WriteJSON(v any) error                 { return c.enc.Encode(v) }
func (c *lineCodec) Close() error                          { return c.conn.Close() }

// Serve accepts connections until ctx is canceled, then closes the listener
// and waits for running sessions to unwind.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	log.Info().Str("addr", ln.Addr().String()).Msg("tcp session listener started")
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			peer := wire.NewPeer(newLineCodec(conn))
			if err := s.coordinator.Handle(ctx, peer); err != nil {
				log.Error().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("session ended with error")
			}
		}()
	}
}

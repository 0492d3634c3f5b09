package broadcast

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// UDPSender writes each payload as one datagram to a broadcast or unicast address.
type UDPSender struct {
	conn *net.UDPConn
}

func NewUDPSender(addr string) (*UDPSender, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve fan-out address: %w", err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("dial fan-out address: %w", err)
	}
	return &UDPSender{conn: conn}, nil
}

func (s *UDPSender) Send(_ context.Context, payload []byte) error {
	_, err := s.conn.Write(payload)
	return err
}

func (s *UDPSender) Close() error {
	return s.conn.Close()
}

// NATSSender publishes each payload on a subject. Core NATS is at-most-once,
// which matches the fan-out contract.
type NATSSender struct {
	conn    *nats.Conn
	subject string
}

func NewNATSSender(conn *nats.Conn, subject string) *NATSSender {
	if subject == "" {
		subject = DefaultNATSSubject
	}
	return &NATSSender{conn: conn, subject: subject}
}

func (s *NATSSender) Send(_ context.Context, payload []byte) error {
	return s.conn.Publish(s.subject, payload)
}

// ConnectNATS dials NATS with reconnects enabled and logs connection events.
func ConnectNATS(url string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("netexam-broadcast"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("nats error")
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return nc, nil
}

// UDPTrigger sends the start sentinel to a broadcaster running in another process.
type UDPTrigger struct {
	Addr string
}

func (t UDPTrigger) Trigger(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", t.Addr)
	if err != nil {
		return fmt.Errorf("dial control address: %w", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte(StartSentinel)); err != nil {
		return fmt.Errorf("send start signal: %w", err)
	}
	log.Info().Str("addr", t.Addr).Msg("start signal sent to broadcaster")
	return nil
}

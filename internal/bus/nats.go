package bus

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/alderglen/lookout/internal/idgen"
)

const (
	reconnectWait  = time.Second
	connectTimeout = 5 * time.Second
)

// Subscriber maintains at most one live NATS connection. The connection
// reconnects indefinitely on transport failure; the handle is cleared only
// when the connection is explicitly closed.
type Subscriber struct {
	url    string
	user   string
	pass   string
	logger *slog.Logger

	mu sync.Mutex
	nc *nats.Conn
}

var _ Bus = (*Subscriber)(nil)

// NewSubscriber prepares a subscriber for the broker at url. Credentials
// are optional; empty user disables authentication.
func NewSubscriber(url, user, pass string, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{url: url, user: user, pass: pass, logger: logger}
}

func (s *Subscriber) Connect(handler Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nc != nil && !s.nc.IsClosed() {
		return nil
	}

	clientID, err := idgen.ClientID()
	if err != nil {
		return err
	}

	opts := []nats.Option{
		nats.Name(clientID),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(reconnectWait),
		nats.Timeout(connectTimeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			// Transient: the transport reconnects on its own. The handle
			// stays live so an explicit close remains distinguishable.
			s.logger.Warn("bus connection lost", "err", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			s.logger.Info("bus reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			s.logger.Info("bus connection closed")
			s.mu.Lock()
			if s.nc == nc {
				s.nc = nil
			}
			s.mu.Unlock()
		}),
	}
	if s.user != "" {
		opts = append(opts, nats.UserInfo(s.user, s.pass))
	}

	nc, err := nats.Connect(s.url, opts...)
	if err != nil {
		return fmt.Errorf("connecting to bus at %s: %w", s.url, err)
	}
	s.logger.Info("connected to bus", "url", s.url, "client_id", clientID)

	// Each topic is attempted independently; one failed subscription does
	// not abort the others.
	for _, topic := range Topics() {
		if _, err := nc.Subscribe(topic, func(msg *nats.Msg) {
			handler(msg.Subject, msg.Data)
		}); err != nil {
			s.logger.Error("subscribe failed", "topic", topic, "err", err)
			continue
		}
		s.logger.Info("subscribed", "topic", topic)
	}
	if err := nc.Flush(); err != nil {
		s.logger.Warn("flushing subscriptions", "err", err)
	}

	s.nc = nc
	return nil
}

func (s *Subscriber) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nc != nil && s.nc.IsConnected()
}

func (s *Subscriber) Disconnect() {
	s.mu.Lock()
	nc := s.nc
	s.nc = nil
	s.mu.Unlock()
	if nc != nil {
		nc.Close()
	}
}

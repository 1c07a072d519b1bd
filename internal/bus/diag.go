package bus

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/alderglen/lookout/internal/idgen"
)

// TestLog is one line produced by the diagnostic cycle.
type TestLog struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "error" or "success"
	Message   string    `json:"message"`
	Topic     string    `json:"topic,omitempty"`
}

// Diagnose runs a synchronous connect-subscribe-disconnect cycle against
// the broker at url to validate the configured credentials. Nothing is
// persisted. The collected log lines are returned in both outcomes; err is
// non-nil when the connection itself failed.
func Diagnose(url, user, pass string) ([]TestLog, error) {
	var logs []TestLog
	addLog := func(level, message, topic string) {
		logs = append(logs, TestLog{
			Timestamp: time.Now().UTC(),
			Level:     level,
			Message:   message,
			Topic:     topic,
		})
	}

	clientID, err := idgen.ClientID()
	if err != nil {
		return logs, err
	}

	addLog("info", fmt.Sprintf("connecting to bus at %s", url), "")

	opts := []nats.Option{
		nats.Name(clientID),
		nats.NoReconnect(),
		nats.Timeout(connectTimeout),
	}
	if user != "" {
		opts = append(opts, nats.UserInfo(user, pass))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		addLog("error", fmt.Sprintf("connection failed: %v", err), "")
		return logs, fmt.Errorf("connecting to bus at %s: %w", url, err)
	}
	defer nc.Close()

	addLog("success", "connected to bus", "")

	for _, topic := range Topics() {
		sub, err := nc.SubscribeSync(topic)
		if err != nil {
			addLog("error", fmt.Sprintf("subscribe failed: %v", err), topic)
			continue
		}
		addLog("info", "subscribed", topic)
		_ = sub.Unsubscribe()
	}
	if err := nc.Flush(); err != nil {
		addLog("error", fmt.Sprintf("flush failed: %v", err), "")
	}

	addLog("info", "disconnecting", "")
	return logs, nil
}

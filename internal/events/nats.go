package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// natsConn is the part of *nats.Conn used by NATSPublisher.
type natsConn interface {
	Publish(subject string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	Drain() error
}

// NATSPublisher publishes events as JSON messages on
// "<prefix>.<event type>.<plate or person id>".
type NATSPublisher struct {
	conn    natsConn
	prefix  string
	timeout time.Duration
}

// NATSOptions configures NewNATSPublisher.
type NATSOptions struct {
	URL           string
	Name          string
	SubjectPrefix string
	Timeout       time.Duration
}

// NewNATSPublisher connects to a NATS server and returns a publisher.
func NewNATSPublisher(opts NATSOptions) (*NATSPublisher, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("nats url is required")
	}
	if opts.Name == "" {
		opts.Name = "fleet-ledger"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	conn, err := nats.Connect(opts.URL,
		nats.Name(opts.Name),
		nats.Timeout(opts.Timeout),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return newNATSPublisher(conn, opts.SubjectPrefix, opts.Timeout), nil
}

func newNATSPublisher(conn natsConn, prefix string, timeout time.Duration) *NATSPublisher {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		prefix = "fleet"
	}
	return &NATSPublisher{conn: conn, prefix: prefix, timeout: timeout}
}

// Subject returns the subject an event is published on.
func (p *NATSPublisher) Subject(event Event) string {
	subject := p.prefix + "." + event.Type
	key := event.Plate
	if key == "" {
		key = event.PersonID
	}
	if key != "" {
		// '.' separates tokens, '*' and '>' are wildcards
		key = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(key)
		subject += "." + key
	}
	return subject
}

// Publish implements Publisher. It returns once the server has
// acknowledged the flush or the timeout expires.
func (p *NATSPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.conn.Publish(p.Subject(event), payload); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	timeout := p.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if err := p.conn.FlushTimeout(timeout); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	_ = p.conn.Drain()
}

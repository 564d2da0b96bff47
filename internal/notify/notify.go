// Package notify publishes ledger alerts.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Alert is published when a closing count disagrees with the ledger.
type Alert struct {
	BusinessDate string    `json:"business_date"`
	ItemKind     string    `json:"item_kind"`
	Expected     float64   `json:"expected"`
	Actual       float64   `json:"actual"`
	Variance     float64   `json:"variance"`
	RaisedAt     time.Time `json:"raised_at"`
}

type Publisher interface {
	Publish(ctx context.Context, a Alert) error
	Close() error
}

type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("shiftcost"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, a Alert) error {
	msg, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.subject, msg)
}

func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// LogPublisher only logs alerts; used when no NATS server is configured.
type LogPublisher struct {
	Log *zap.Logger
}

func (p LogPublisher) Publish(_ context.Context, a Alert) error {
	p.Log.Warn("ledger alert",
		zap.String("business_date", a.BusinessDate),
		zap.String("item_kind", a.ItemKind),
		zap.Float64("expected", a.Expected),
		zap.Float64("actual", a.Actual),
		zap.Float64("variance", a.Variance),
	)
	return nil
}

func (LogPublisher) Close() error { return nil }

// New picks the NATS publisher when url is set.
func New(url, subject string, log *zap.Logger) (Publisher, error) {
	if url == "" {
		return LogPublisher{Log: log}, nil
	}
	return NewNATSPublisher(url, subject)
}

package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// message is the wire shape of a spend signal on the feed topic.
type message struct {
	UserID      int64            `json:"user_id"`
	Merchant    string           `json:"merchant"`
	Amount      *decimal.Decimal `json:"amount"`
	Currency    string           `json:"currency"`
	AccountHint string           `json:"account_hint"`
	RawPayload  string           `json:"raw_payload"`
	Source      string           `json:"source"`
}

// Consumer reads spend signals from Kafka and feeds them through the
// gateway. Malformed or invalid messages are logged and committed so a
// bad producer cannot wedge the partition.
type Consumer struct {
	logger  *slog.Logger
	gateway *Gateway
	reader  *kafka.Reader
}

// ConsumerConfig carries the Kafka wiring for the signal feed.
type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// NewConsumer constructs a Consumer over the given feed.
func NewConsumer(logger *slog.Logger, gateway *Gateway, cfg ConsumerConfig) *Consumer {
	return &Consumer{
		logger:  logger,
		gateway: gateway,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: cfg.Brokers,
			Topic:   cfg.Topic,
			GroupID: cfg.GroupID,
		}),
	}
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		c.handle(ctx, msg)
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	var m message
	if err := json.Unmarshal(msg.Value, &m); err != nil {
		c.logger.Warn("drop malformed signal",
			slog.Int64("offset", msg.Offset), slog.Any("error", err))
		return
	}
	source := m.Source
	if source == "" {
		source = "feed"
	}
	_, err := c.gateway.Submit(ctx, Signal{
		UserID:      m.UserID,
		Merchant:    m.Merchant,
		Amount:      m.Amount,
		Currency:    m.Currency,
		AccountHint: m.AccountHint,
		RawPayload:  m.RawPayload,
		Source:      source,
	})
	if err != nil {
		c.logger.Warn("drop rejected signal",
			slog.Int64("offset", msg.Offset),
			slog.Int64("user_id", m.UserID),
			slog.Any("error", err))
	}
}

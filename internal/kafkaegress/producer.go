// Package kafkaegress wraps one franz-go producer client for the three
// topics the gateway writes to: the raw-payload mirror, the FHIR transaction
// bundles and the parse/translation exceptions (spec.md §4.6, §6).
package kafkaegress

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl"
	"go.uber.org/zap"
)

// Producer publishes to the gateway's three egress topics. PublishRequestIn
// is a fire-and-forget kgo.Client.Produce call whose callback only logs.
// PublishFhirTransaction and PublishException wait for the produce result
// (or ctx cancellation) and return it, so they block their caller, which
// for both is the MLLP connection goroutine, until the broker answers.
type Producer struct {
	client         *kgo.Client
	logger         *zap.Logger
	requestInTopic string
	fhirTopic      string
	exceptionTopic string
}

// Config carries the settings NewProducer needs, mirroring the fields
// internal/kafka.NewStateConsumer takes for the consumer side.
type Config struct {
	Brokers        []string
	ClientID       string
	FetchMaxBytes  int32 // reused as ProducerBatchMaxBytes below
	TLS            *tls.Config
	SASL           sasl.Mechanism
	RequestInTopic string
	FHIRTopic      string
	ExceptionTopic string
}

// NewProducer builds a kgo.Client configured as a producer: no
// ConsumerGroup, no ConsumeTopics, just seed brokers, TLS/SASL and a batch
// size ceiling.
func NewProducer(cfg Config, logger *zap.Logger) (*Producer, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
	}
	if cfg.FetchMaxBytes > 0 {
		opts = append(opts, kgo.ProducerBatchMaxBytes(cfg.FetchMaxBytes))
	}
	if cfg.TLS != nil {
		opts = append(opts, kgo.DialTLSConfig(cfg.TLS))
	}
	if cfg.SASL != nil {
		opts = append(opts, kgo.SASL(cfg.SASL))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("building kafka producer client: %w", err)
	}

	return &Producer{
		client:         client,
		logger:         logger,
		requestInTopic: cfg.RequestInTopic,
		fhirTopic:      cfg.FHIRTopic,
		exceptionTopic: cfg.ExceptionTopic,
	}, nil
}

// PublishRequestIn mirrors the raw, decoded HL7 payload before the ACK is
// written. Per spec.md §5's ordering guarantee this is issued but not
// awaited, so a slow broker round trip never delays the ACK write.
func (p *Producer) PublishRequestIn(ctx context.Context, key, value []byte) {
	record := &kgo.Record{Topic: p.requestInTopic, Key: key, Value: value}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("kafka produce failed",
				zap.String("topic", p.requestInTopic),
				zap.ByteString("key", key),
				zap.Error(err),
			)
		}
	})
}

// PublishFhirTransaction satisfies internal/dispatch.Publisher.
func (p *Producer) PublishFhirTransaction(ctx context.Context, key, value []byte) error {
	return p.produce(ctx, p.fhirTopic, key, value)
}

// PublishException records a parse or mapping failure that could not be
// carried as a Bundle.
func (p *Producer) PublishException(ctx context.Context, key, value []byte) error {
	return p.produce(ctx, p.exceptionTopic, key, value)
}

func (p *Producer) produce(ctx context.Context, topic string, key, value []byte) error {
	record := &kgo.Record{Topic: topic, Key: key, Value: value}

	done := make(chan error, 1)
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("kafka produce failed",
				zap.String("topic", topic),
				zap.ByteString("key", key),
				zap.Error(err),
			)
		}
		done <- err
	})

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ping checks connectivity to the seed brokers for internal/http's readyz
// check, without publishing anything.
func (p *Producer) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Close flushes and closes the underlying client.
func (p *Producer) Close() {
	p.client.Close()
}

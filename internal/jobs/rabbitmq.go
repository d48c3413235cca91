package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const routingPrefix = "job."

type RabbitConfig struct {
	URL      string
	Exchange string
	Queue    string
	DLX      string
	Prefetch int
	// PublishTimeout bounds how long Enqueue waits for the broker.
	PublishTimeout time.Duration
}

const defaultPublishTimeout = 5 * time.Second

type publishFunc func(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error

func routingKey(kind Kind) string {
	return routingPrefix + string(kind)
}

// Publisher sends jobs to a durable topic exchange.
type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	timeout  time.Duration
	publish  publishFunc
	// sem serializes publishes; amqp channels are not safe for concurrent use.
	sem chan struct{}
}

func newPublisher(exchange string, timeout time.Duration, publish publishFunc) *Publisher {
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	return &Publisher{
		exchange: exchange,
		timeout:  timeout,
		publish:  publish,
		sem:      make(chan struct{}, 1),
	}
}

func NewPublisher(cfg RabbitConfig) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	p := newPublisher(cfg.Exchange, cfg.PublishTimeout, ch.PublishWithContext)
	p.conn = conn
	p.ch = ch
	return p, nil
}

func (p *Publisher) Enqueue(ctx context.Context, kind Kind, payload any) error {
	job, err := NewJob(kind, payload)
	if err != nil {
		return err
	}
	return p.Publish(ctx, job)
}

// Publish hands job to the broker, giving up after the publish timeout. A
// publish that outlives the timeout finishes in the background.
func (p *Publisher) Publish(ctx context.Context, job Job) error {
	b, err := json.Marshal(job)
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID.String(),
		Timestamp:    job.EnqueuedAt,
		Type:         string(job.Kind),
		Body:         b,
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("publish %s: %w", job.Kind, ctx.Err())
	}

	done := make(chan error, 1)
	go func() {
		defer func() { <-p.sem }()
		done <- p.publish(ctx, p.exchange, routingKey(job.Kind), false, false, msg)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("publish %s: %w", job.Kind, ctx.Err())
	}
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Consumer drains the job queue into a Router.
type Consumer struct {
	cfg    RabbitConfig
	router *Router
	log    *slog.Logger

	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewConsumer(cfg RabbitConfig, router *Router, log *slog.Logger) *Consumer {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 8
	}
	return &Consumer{
		cfg:    cfg,
		router: router,
		log:    log.With(slog.String("component", "jobs.rabbitmq")),
	}
}

func (c *Consumer) Connect() error {
	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	fail := func(err error) error {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	if err := ch.ExchangeDeclare(c.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fail(fmt.Errorf("declare exchange: %w", err))
	}

	args := amqp.Table{}
	if c.cfg.DLX != "" {
		args["x-dead-letter-exchange"] = c.cfg.DLX
		if err := ch.ExchangeDeclare(c.cfg.DLX, "topic", true, false, false, false, nil); err != nil {
			return fail(fmt.Errorf("declare dlx: %w", err))
		}
		dlq := c.cfg.Queue + ".dead"
		if _, err := ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
			return fail(fmt.Errorf("declare dlq: %w", err))
		}
		if err := ch.QueueBind(dlq, "#", c.cfg.DLX, false, nil); err != nil {
			return fail(fmt.Errorf("bind dlq: %w", err))
		}
	}

	q, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, args)
	if err != nil {
		return fail(fmt.Errorf("declare queue: %w", err))
	}
	if err := ch.QueueBind(q.Name, routingPrefix+"#", c.cfg.Exchange, false, nil); err != nil {
		return fail(fmt.Errorf("bind queue: %w", err))
	}
	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return fail(fmt.Errorf("set qos: %w", err))
	}

	c.conn = conn
	c.ch = ch
	return nil
}

func (c *Consumer) Run(ctx context.Context) error {
	if c.ch == nil {
		return errors.New("consumer not connected")
	}
	msgs, err := c.ch.ConsumeWithContext(ctx, c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			c.handleDelivery(ctx, d)
		}
	}
}

type outcome int

const (
	outcomeAck outcome = iota
	outcomeRequeue
	outcomeReject
)

func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) outcome {
	var job Job
	if err := json.Unmarshal(d.Body, &job); err != nil {
		c.log.Error("malformed job", slog.Any("err", err), slog.String("routing_key", d.RoutingKey))
		_ = d.Reject(false)
		return outcomeReject
	}

	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err := c.router.Run(runCtx, job)
	cancel()

	if err == nil {
		_ = d.Ack(false)
		return outcomeAck
	}

	args := []any{
		slog.Any("err", err),
		slog.String("job_id", job.ID.String()),
		slog.String("kind", string(job.Kind)),
		slog.Bool("redelivered", d.Redelivered),
	}
	if d.Redelivered || errors.Is(err, ErrUnknownKind) {
		c.log.Error("job failed; rejecting", args...)
		_ = d.Reject(false)
		return outcomeReject
	}
	c.log.Warn("job failed; requeueing", args...)
	_ = d.Nack(false, true)
	return outcomeRequeue
}

func (c *Consumer) Close() {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

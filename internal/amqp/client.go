// Package amqp fans ledger change notifications out over RabbitMQ.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"fincal/internal/log"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
)

// ErrCircuitOpen is returned while the broker is considered unavailable.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type Client struct {
	url          string
	exchangeName string
	queueName    string
	logger       *log.Logger

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	failureCount int64
	state        int32
	lastFailure  time.Time
}

func NewClient(url, exchangeName, queueName string, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.Nop()
	}
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       logger.WithComponent(log.ComponentAMQP),
	}
	if err := client.connect(); err != nil {
		return nil, err
	}
	return client, nil
}

func (c *Client) log() *log.Logger {
	if c.logger == nil {
		return log.Nop()
	}
	return c.logger
}

// connect dials the broker and declares the topology. Callers hold no lock.
func (c *Client) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked()
}

func (c *Client) connectLocked() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := c.setup(channel); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}
	c.conn, c.channel = conn, channel
	return nil
}

func (c *Client) setup(ch *amqp091.Channel) error {
	err := ch.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = ch.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// routing key is the queue name on a direct exchange
	if err := ch.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// openChannel returns a live channel, reconnecting when the previous one
// was closed by the broker.
func (c *Client) openChannel() (*amqp091.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil && !c.channel.IsClosed() {
		return c.channel, nil
	}
	c.closeLocked()
	if err := c.connectLocked(); err != nil {
		return nil, err
	}
	c.log().Info("reconnected to broker", "exchange", c.exchangeName, "queue", c.queueName)
	return c.channel, nil
}

// PublishChange publishes msg as a persistent JSON message.
func (c *Client) PublishChange(ctx context.Context, msg *ChangeMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return fmt.Errorf("publish %s: %w", msg.Event, ErrCircuitOpen)
	}

	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ch, err := c.openChannel()
	if err != nil {
		c.recordFailure()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    msg.Timestamp,
			Type:         string(msg.Event),
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			c.mu.Lock()
			c.closeLocked()
			c.mu.Unlock()
		}
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()

	c.log().DebugContext(ctx, "published change",
		log.FieldEvent, string(msg.Event),
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// ConsumeChanges delivers change messages to handler until ctx is done.
// Undecodable messages are dropped, handler failures are requeued.
func (c *Client) ConsumeChanges(ctx context.Context, handler func(context.Context, *ChangeMessage) error) error {
	ch, err := c.openChannel()
	if err != nil {
		return err
	}
	msgs, err := ch.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	logger := c.log()
	logger.InfoContext(ctx, "started consuming change messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			msg, err := ChangeMessageFromJSON(delivery.Body)
			if err != nil {
				logger.ErrorContext(ctx, "failed to unmarshal message", log.FieldError, err)
				delivery.Nack(false, false)
				continue
			}

			if err := handler(ctx, msg); err != nil {
				logger.ErrorContext(ctx, "failed to handle message",
					log.FieldError, err,
					log.FieldEvent, string(msg.Event))
				delivery.Nack(false, true)
				continue
			}

			delivery.Ack(false)
			logger.DebugContext(ctx, "processed change message", log.FieldEvent, string(msg.Event))
		}
	}
}

func (c *Client) isCircuitOpen() bool {
	switch atomic.LoadInt32(&c.state) {
	case StateOpen:
		c.mu.Lock()
		elapsed := time.Since(c.lastFailure)
		c.mu.Unlock()
		if elapsed > openTimeout {
			atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
			return false
		}
		return true
	default:
		return false
	}
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if atomic.AddInt64(&c.failureCount, 1) >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		if atomic.SwapInt32(&c.state, StateOpen) != StateOpen {
			c.log().Warn("circuit breaker opened", "failures", atomic.LoadInt64(&c.failureCount))
		}
	}
}

// isConnectionError reports errors after which the connection is unusable.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "channel/connection is not open"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// exponentialBackoff is 1s doubled per attempt, capped at 30s.
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 5 {
		return 30 * time.Second
	}
	return time.Second << attempt
}

func (c *Client) closeLocked() {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
	return nil
}

// Package messaging fans conversation events out to an AMQP exchange.
package messaging

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"duplex-server/pkg/circuitbreaker"
	"duplex-server/pkg/errors"
	"duplex-server/pkg/metrics"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

const (
	dialTimeout       = 5 * time.Second
	maxReconnectDelay = 30 * time.Second
)

// Message is the JSON body published for one session event
type Message struct {
	SessionID string      `json:"session_id"`
	Event     string      `json:"event"`
	Source    string      `json:"source"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// Config holds the publisher settings
type Config struct {
	URL              string
	Exchange         string
	ExchangeType     string
	RoutingKeyPrefix string
	ReconnectDelay   time.Duration
	PublishTimeout   time.Duration
	QueueSize        int

	// Breaker guards publishes against a broker that accepts connections but
	// fails sends. Nil uses circuitbreaker.DefaultConfig.
	Breaker *circuitbreaker.Config
}

// Connection is the part of *amqp.Connection the publisher uses
type Connection interface {
	Channel() (Channel, error)
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	Close() error
}

// Channel is the part of *amqp.Channel the publisher uses
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Dialer opens a broker connection
type Dialer func(url string, cfg amqp.Config) (Connection, error)

type connAdapter struct {
	*amqp.Connection
}

func (c connAdapter) Channel() (Channel, error) {
	ch, err := c.Connection.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// DialAMQP dials a real broker
func DialAMQP(url string, cfg amqp.Config) (Connection, error) {
	conn, err := amqp.DialConfig(url, cfg)
	if err != nil {
		return nil, err
	}
	return connAdapter{conn}, nil
}

// AMQPPublisher publishes session events to a durable exchange. Events are
// queued by Enqueue and sent by a single worker; a full queue drops events
// rather than blocking the session that produced them.
type AMQPPublisher struct {
	logger *logrus.Entry
	config Config
	dial   Dialer

	connMutex sync.RWMutex
	conn      Connection
	channel   Channel
	connected bool
	closed    bool

	breaker *circuitbreaker.CircuitBreaker

	queue    chan Message
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewAMQPPublisher creates a publisher. Connect must be called before events
// are delivered.
func NewAMQPPublisher(cfg Config, logger *logrus.Logger) *AMQPPublisher {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	if cfg.ExchangeType == "" {
		cfg.ExchangeType = amqp.ExchangeTopic
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 2 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}

	return &AMQPPublisher{
		logger:   logger.WithField("component", "amqp_publisher"),
		config:   cfg,
		dial:     DialAMQP,
		breaker:  circuitbreaker.NewCircuitBreaker("amqp", cfg.Breaker, logger),
		queue:    make(chan Message, cfg.QueueSize),
		stopChan: make(chan struct{}),
	}
}

// SetDialer replaces the broker dialer
func (p *AMQPPublisher) SetDialer(dial Dialer) {
	p.connMutex.Lock()
	p.dial = dial
	p.connMutex.Unlock()
}

// Connect dials the broker, declares the exchange and starts watching the
// connection for closure.
func (p *AMQPPublisher) Connect(ctx context.Context) error {
	p.connMutex.Lock()
	defer p.connMutex.Unlock()

	if p.closed {
		return errors.New("amqp publisher closed")
	}
	if p.connected {
		return nil
	}
	if p.config.URL == "" || p.config.Exchange == "" {
		return errors.NewInvalidInput("AMQP URL or exchange not configured")
	}

	type dialResult struct {
		conn Connection
		err  error
	}
	resultChan := make(chan dialResult, 1)
	dial := p.dial
	url := p.config.URL
	go func() {
		conn, err := dial(url, amqp.Config{
			Heartbeat: 10 * time.Second,
			Locale:    "en_US",
			Dial: func(network, addr string) (net.Conn, error) {
				return net.DialTimeout(network, addr, dialTimeout)
			},
		})
		resultChan <- dialResult{conn, err}
	}()

	var conn Connection
	select {
	case result := <-resultChan:
		if result.err != nil {
			return errors.Wrap(result.err, "failed to connect to AMQP server").WithCode(errors.CodeUnavailable)
		}
		conn = result.conn
	case <-ctx.Done():
		// A late connection is closed once it arrives
		go func() {
			if result := <-resultChan; result.conn != nil {
				result.conn.Close()
			}
		}()
		return errors.Wrap(ctx.Err(), "connection to AMQP server timed out").WithCode(errors.CodeUnavailable)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return errors.Wrap(err, "failed to open AMQP channel")
	}

	err = channel.ExchangeDeclare(
		p.config.Exchange,
		p.config.ExchangeType,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return errors.Wrap(err, "failed to declare AMQP exchange", map[string]interface{}{
			"exchange": p.config.Exchange,
		})
	}

	p.conn = conn
	p.channel = channel
	p.connected = true
	p.breaker.Reset()
	metrics.SetAMQPConnectionStatus(true)

	closeChan := conn.NotifyClose(make(chan *amqp.Error, 1))
	p.wg.Add(1)
	go p.monitorConnection(closeChan)

	p.logger.WithFields(logrus.Fields{
		"exchange":      p.config.Exchange,
		"exchange_type": p.config.ExchangeType,
	}).Info("Connected to AMQP server")
	return nil
}

// monitorConnection reconnects with exponential backoff when the broker
// drops the connection. A successful reconnect starts a new monitor.
func (p *AMQPPublisher) monitorConnection(closeChan chan *amqp.Error) {
	defer p.wg.Done()

	var closeErr *amqp.Error
	select {
	case <-p.stopChan:
		return
	case err, ok := <-closeChan:
		if !ok || err == nil {
			return
		}
		closeErr = err
	}

	p.connMutex.Lock()
	p.connected = false
	p.conn = nil
	p.channel = nil
	p.connMutex.Unlock()
	metrics.SetAMQPConnectionStatus(false)

	p.logger.WithError(closeErr).Warn("AMQP connection closed, attempting to reconnect")

	backoff := p.config.ReconnectDelay
	for attempt := 1; ; attempt++ {
		select {
		case <-p.stopChan:
			return
		case <-time.After(backoff):
		}

		ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
		err := p.Connect(ctx)
		cancel()
		if err == nil {
			p.logger.WithField("attempt", attempt).Info("Reconnected to AMQP server")
			return
		}

		p.logger.WithError(err).WithField("attempt", attempt).Error("Failed to reconnect to AMQP server")
		backoff *= 2
		if backoff > maxReconnectDelay {
			backoff = maxReconnectDelay
		}
	}
}

// Start launches the worker that drains the event queue
func (p *AMQPPublisher) Start() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case <-p.stopChan:
				return
			case msg := <-p.queue:
				ctx, cancel := context.WithTimeout(context.Background(), p.config.PublishTimeout)
				if err := p.Publish(ctx, msg); err != nil {
					p.logger.WithError(err).WithFields(logrus.Fields{
						"session_id": msg.SessionID,
						"event":      msg.Event,
					}).Warn("Failed to publish session event")
				}
				cancel()
			}
		}
	}()
}

// Enqueue hands msg to the worker. It reports false when the publisher is
// closed or the queue is full.
func (p *AMQPPublisher) Enqueue(msg Message) bool {
	p.connMutex.RLock()
	closed := p.closed
	p.connMutex.RUnlock()
	if closed {
		return false
	}

	select {
	case p.queue <- msg:
		return true
	default:
		metrics.RecordAMQPPublish(msg.Event, "dropped")
		p.logger.WithField("event", msg.Event).Debug("AMQP queue full, dropping event")
		return false
	}
}

// Publish sends msg synchronously
func (p *AMQPPublisher) Publish(ctx context.Context, msg Message) error {
	key := p.RoutingKey(msg)

	p.connMutex.RLock()
	channel := p.channel
	connected := p.connected
	p.connMutex.RUnlock()

	if !connected || channel == nil {
		metrics.RecordAMQPPublish(msg.Event, "failed")
		return errors.NewPublishFailed(errors.ErrUnavailable, key)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		metrics.RecordAMQPPublish(msg.Event, "failed")
		return errors.Wrap(err, "failed to marshal session event")
	}

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    msg.Timestamp,
		Type:         msg.Event,
		Headers: amqp.Table{
			"x-session-id": msg.SessionID,
			"x-source":     msg.Source,
		},
	}

	err = p.breaker.Execute(ctx, func(ctx context.Context) error {
		return p.send(ctx, channel, key, publishing)
	})
	switch {
	case err == nil:
	case errors.IsErrorType(err, errors.ErrCircuitOpen):
		metrics.RecordAMQPPublish(msg.Event, "rejected")
		return errors.NewPublishFailed(err, key)
	case ctx.Err() != nil:
		metrics.RecordAMQPPublish(msg.Event, "timeout")
		return errors.NewPublishFailed(ctx.Err(), key)
	default:
		metrics.RecordAMQPPublish(msg.Event, "failed")
		return errors.NewPublishFailed(err, key)
	}

	metrics.RecordAMQPPublish(msg.Event, "success")
	p.logger.WithField("routing_key", key).Debug("Published session event")
	return nil
}

// send runs the blocking channel publish under ctx
func (p *AMQPPublisher) send(ctx context.Context, channel Channel, key string, publishing amqp.Publishing) error {
	publishChan := make(chan error, 1)
	go func() {
		publishChan <- channel.Publish(p.config.Exchange, key, false, false, publishing)
	}()

	select {
	case err := <-publishChan:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Breaker returns the breaker guarding publishes
func (p *AMQPPublisher) Breaker() *circuitbreaker.CircuitBreaker {
	return p.breaker
}

// RoutingKey returns <prefix>.<session>.<event>
func (p *AMQPPublisher) RoutingKey(msg Message) string {
	parts := make([]string, 0, 3)
	if p.config.RoutingKeyPrefix != "" {
		parts = append(parts, p.config.RoutingKeyPrefix)
	}
	parts = append(parts, msg.SessionID, msg.Event)
	return strings.Join(parts, ".")
}

// IsConnected returns the connection status
func (p *AMQPPublisher) IsConnected() bool {
	p.connMutex.RLock()
	defer p.connMutex.RUnlock()
	return p.connected
}

// Close stops the worker and the connection monitor and closes the broker
// connection. Queued events that were not yet sent are discarded.
func (p *AMQPPublisher) Close() error {
	p.connMutex.Lock()
	if p.closed {
		p.connMutex.Unlock()
		return nil
	}
	p.closed = true
	close(p.stopChan)

	var firstErr error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			firstErr = err
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.channel = nil
	p.conn = nil
	p.connected = false
	p.connMutex.Unlock()

	p.wg.Wait()
	metrics.SetAMQPConnectionStatus(false)
	p.logger.Info("Disconnected from AMQP server")

	if firstErr != nil {
		return errors.Wrap(firstErr, "failed to close AMQP connection")
	}
	return nil
}

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/metinatakli/movie-booking/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// dialer opens a connection and a channel with the queue declared on it.
type dialer func() (io.Closer, channel, error)

// Publisher sends booking.confirmed events over a long lived channel. A
// channel closed by the broker is replaced on the next publish.
type Publisher struct {
	mu   sync.Mutex
	dial dialer
	conn io.Closer
	ch   channel
	now  func() time.Time
}

// NewPublisher dials the broker and declares the durable booking.confirmed
// queue.
func NewPublisher(url string) (*Publisher, error) {
	p := &Publisher{dial: brokerDialer(url), now: time.Now}

	if err := p.reconnect(); err != nil {
		return nil, err
	}

	return p, nil
}

func brokerDialer(url string) dialer {
	return func() (io.Closer, channel, error) {
		conn, err := amqp.Dial(url)
		if err != nil {
			return nil, nil, fmt.Errorf("rabbitmq: dial: %w", err)
		}

		ch, err := conn.Channel()
		if err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("rabbitmq: open channel: %w", err)
		}

		_, err = ch.QueueDeclare(
			BookingConfirmedQueue,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,
		)
		if err != nil {
			ch.Close()
			conn.Close()
			return nil, nil, fmt.Errorf("rabbitmq: declare queue: %w", err)
		}

		return conn, ch, nil
	}
}

// reconnect drops the current channel and dials a new one. Callers hold mu,
// except NewPublisher.
func (p *Publisher) reconnect() error {
	p.closeLocked()

	conn, ch, err := p.dial()
	if err != nil {
		return err
	}

	p.conn, p.ch = conn, ch
	return nil
}

func (p *Publisher) PublishBookingConfirmed(ctx context.Context, event BookingConfirmedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.BookingID.String(),
		Timestamp:    p.now().UTC(),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil {
		if p.dial == nil {
			return fmt.Errorf("rabbitmq: publish: %w", amqp.ErrClosed)
		}
		if err := p.reconnect(); err != nil {
			return err
		}
	}

	err = p.ch.PublishWithContext(ctx, "", BookingConfirmedQueue, false, false, msg)
	if errors.Is(err, amqp.ErrClosed) && p.dial != nil {
		if rerr := p.reconnect(); rerr != nil {
			return fmt.Errorf("rabbitmq: publish: %w", errors.Join(err, rerr))
		}

		err = p.ch.PublishWithContext(ctx, "", BookingConfirmedQueue, false, false, msg)
	}
	if err != nil {
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}

	return nil
}

// BookingPaid publishes the event for a booking that has just been paid.
func (p *Publisher) BookingPaid(ctx context.Context, b *domain.Booking) error {
	return p.PublishBookingConfirmed(ctx, NewBookingConfirmedEvent(b, p.now()))
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.closeLocked()
}

func (p *Publisher) closeLocked() error {
	var err error

	if p.ch != nil {
		err = p.ch.Close()
	}
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}

	p.conn, p.ch = nil, nil
	return err
}

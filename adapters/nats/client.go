// Package nats connects processes to NATS subjects: subscriptions feed
// process mailboxes, a publishing mission emits to a subject, and request
// operations plug into process.Async.
//
// Message tuples travel as JSON arrays. Numbers decode as float64.
package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"golang.org/x/sync/singleflight"

	"github.com/leonoel/mission/core/process"
	"github.com/leonoel/mission/core/xf"
	"github.com/leonoel/mission/internal/codec"
)

var (
	ErrClientClosed = errors.New("nats client closed")
	ErrNoResponders = errors.New("no responders")
)

// Sender is anything with a mailbox, typically a *process.Process.
type Sender interface {
	Send(vals ...any)
}

type Config struct {
	Connect Connector    // Connect creates the underlying connection. If nil, ConnectDefault() is used.
	Log     *slog.Logger // Log for diagnostics (optional)
}

type Client struct {
	nc      *natsgo.Conn
	closeNc closeFunc
	log     *slog.Logger
	codec   codec.Codec

	// inflight collapses identical concurrent requests.
	inflight singleflight.Group

	mu   sync.Mutex
	subs map[*natsgo.Subscription]struct{}

	closed atomic.Bool
}

func NewClient(cfg Config) (*Client, error) {
	connFn := cfg.Connect
	if connFn == nil {
		connFn = ConnectDefault()
	}

	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	nc, closeNc, err := connFn()
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	return &Client{
		nc:      nc,
		closeNc: closeNc,
		log:     log.With(slog.String("adapter", "nats")),
		codec:   codec.Default,
		subs:    make(map[*natsgo.Subscription]struct{}),
	}, nil
}

// Feed subscribes to subject and sends every message tuple to dst. Messages
// that fail to decode are logged and skipped. The subscription lives until
// the returned func or Close is called.
func (c *Client) Feed(subject string, dst Sender) (unsubscribe func() error, err error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}

	sub, err := c.nc.Subscribe(subject, func(msg *natsgo.Msg) {
		vals, err := codec.DecodeTuple(c.codec, msg.Data)
		if err != nil {
			c.log.Warn("dropping undecodable message", slog.String("subject", msg.Subject), slog.Any("error", err))
			return
		}
		dst.Send(vals...)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}

	return c.track(sub), nil
}

// Publish returns a mission that publishes every message to subject and then
// forwards it unchanged. Encoding or publish errors are faults.
func (c *Client) Publish(subject string) process.Mission {
	return func(p process.Ctx, rf xf.Reducer) xf.Reducer {
		return func(acc any, vals ...any) (any, error) {
			if c.closed.Load() {
				return acc, ErrClientClosed
			}
			data, err := codec.EncodeTuple(c.codec, vals)
			if err != nil {
				return acc, err
			}
			if err := c.nc.Publish(subject, data); err != nil {
				return acc, fmt.Errorf("publish %s: %w", subject, err)
			}
			return rf(acc, vals...)
		}
	}
}

// DefaultRequestTimeout bounds requests made with a zero timeout.
const DefaultRequestTimeout = 5 * time.Second

// Request returns an Operation that sends its input as a request to subject
// and resolves with the decoded reply tuple. A zero timeout means
// DefaultRequestTimeout.
//
// Identical requests (same subject, timeout and data) in flight at the same
// time share a single round trip. The round trip is detached from the
// processes waiting on it, so a process that stops only abandons its own
// wait.
func (c *Client) Request(subject string, timeout time.Duration) process.Operation {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return func(ctx context.Context, in []any, resolve func(...any), reject func(error)) {
		if c.closed.Load() {
			reject(ErrClientClosed)
			return
		}
		data, err := codec.EncodeTuple(c.codec, in)
		if err != nil {
			reject(err)
			return
		}

		key := fmt.Sprintf("%s\x00%d\x00%s", subject, timeout, data)
		flight := c.inflight.DoChan(key, func() (any, error) {
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
			defer cancel()
			msg, err := c.nc.RequestWithContext(rctx, subject, data)
			if err != nil {
				return nil, err
			}
			return msg.Data, nil
		})

		go func() {
			var res singleflight.Result
			select {
			case <-ctx.Done():
				reject(context.Cause(ctx))
				return
			case res = <-flight:
			}
			if res.Err != nil {
				err := res.Err
				if errors.Is(err, natsgo.ErrNoResponders) {
					err = ErrNoResponders
				}
				reject(fmt.Errorf("request %s: %w", subject, err))
				return
			}
			out, err := codec.DecodeTuple(c.codec, res.Val.([]byte))
			if err != nil {
				reject(err)
				return
			}
			resolve(out...)
		}()
	}
}

// Reply serves requests on subject with fn. The reply carries the tuple fn
// returns; an error is logged and the request is left to time out.
func (c *Client) Reply(subject string, fn func(in []any) ([]any, error)) (unsubscribe func() error, err error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}

	sub, err := c.nc.Subscribe(subject, func(msg *natsgo.Msg) {
		in, err := codec.DecodeTuple(c.codec, msg.Data)
		if err != nil {
			c.log.Warn("dropping undecodable request", slog.String("subject", msg.Subject), slog.Any("error", err))
			return
		}
		out, err := fn(in)
		if err != nil {
			c.log.Warn("request handler failed", slog.String("subject", msg.Subject), slog.Any("error", err))
			return
		}
		data, err := codec.EncodeTuple(c.codec, out)
		if err != nil {
			c.log.Warn("failed to encode reply", slog.String("subject", msg.Subject), slog.Any("error", err))
			return
		}
		if err := msg.Respond(data); err != nil {
			c.log.Warn("failed to respond", slog.String("subject", msg.Subject), slog.Any("error", err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}

	return c.track(sub), nil
}

// track remembers sub for Close and returns its unsubscribe func.
func (c *Client) track(sub *natsgo.Subscription) func() error {
	c.mu.Lock()
	c.subs[sub] = struct{}{}
	c.mu.Unlock()

	return func() error {
		c.mu.Lock()
		delete(c.subs, sub)
		c.mu.Unlock()
		return sub.Unsubscribe()
	}
}

// Flush blocks until the server has processed everything published so far.
func (c *Client) Flush() error { return c.nc.Flush() }

// Close unsubscribes everything and closes the connection. Idempotent.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.mu.Lock()
	var errs []error
	for sub := range c.subs {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, natsgo.ErrConnectionClosed) {
			errs = append(errs, err)
		}
	}
	c.subs = nil
	c.mu.Unlock()

	c.closeNc()
	return errors.Join(errs...)
}

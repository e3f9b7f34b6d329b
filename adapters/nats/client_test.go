package nats

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"

	"github.com/leonoel/mission/core/process"
	"github.com/leonoel/mission/core/xf"
)

type collector chan []any

func (c collector) sink(vals ...any) { c <- vals }

func (c collector) next(t *testing.T) []any {
	t.Helper()
	select {
	case v := <-c:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for output")
		return nil
	}
}

func TestNats_Client(t *testing.T) {
	slog.SetLogLoggerLevel(slog.LevelDebug)

	connect := NewTestContainer(t)

	newClient := func(t *testing.T) *Client {
		c, err := NewClient(Config{Connect: connect, Log: slog.Default()})
		require.NoError(t, err)
		t.Cleanup(func() { _ = c.Close() })
		return c
	}

	t.Run("feed into process", func(t *testing.T) {
		c := newClient(t)
		out := make(collector, 16)

		warn := xf.Filter(func(vals ...any) bool { return vals[0] == "WARN" || vals[0] == "ERROR" })
		p := process.Spawn(process.Lift(warn), out.sink, nil)

		unsub, err := c.Feed("logs.in", p)
		require.NoError(t, err)
		require.NoError(t, c.Flush())

		nc, closeNc, err := connect()
		require.NoError(t, err)
		defer closeNc()
		for _, m := range []string{`["INFO","a"]`, `["ERROR","b"]`, `{`, `["DEBUG","c"]`, `["WARN","d"]`} {
			require.NoError(t, nc.Publish("logs.in", []byte(m)))
		}
		require.NoError(t, nc.Flush())

		require.Equal(t, []any{"ERROR", "b"}, out.next(t))
		require.Equal(t, []any{"WARN", "d"}, out.next(t))
		require.NoError(t, unsub())
	})

	t.Run("publish mission", func(t *testing.T) {
		c := newClient(t)

		nc, closeNc, err := connect()
		require.NoError(t, err)
		defer closeNc()
		msgs := make(chan *natsgo.Msg, 4)
		sub, err := nc.ChanSubscribe("logs.out", msgs)
		require.NoError(t, err)
		defer func() { _ = sub.Unsubscribe() }()
		require.NoError(t, nc.Flush())

		out := make(collector, 4)
		p := process.Spawn(c.Publish("logs.out"), out.sink, nil)
		p.Send("WARN", "d")

		require.Equal(t, []any{"WARN", "d"}, out.next(t))
		select {
		case m := <-msgs:
			require.JSONEq(t, `["WARN","d"]`, string(m.Data))
		case <-time.After(5 * time.Second):
			t.Fatal("nothing published")
		}
	})

	t.Run("request through async", func(t *testing.T) {
		c := newClient(t)

		unsub, err := c.Reply("calc.double", func(in []any) ([]any, error) {
			n, ok := in[0].(float64)
			if !ok {
				return nil, errors.New("not a number")
			}
			return []any{n * 2}, nil
		})
		require.NoError(t, err)
		defer func() { _ = unsub() }()
		require.NoError(t, c.Flush())

		out := make(collector, 4)
		p := process.Spawn(process.Async(c.Request("calc.double", 2*time.Second)), out.sink, nil)
		p.Send(21)
		require.Equal(t, []any{float64(42)}, out.next(t))
	})

	t.Run("request without responders fails the process", func(t *testing.T) {
		c := newClient(t)

		faults := make(chan error, 1)
		p := process.Spawn(process.Async(c.Request("nobody.home", time.Second)), nil, func(err error) { faults <- err })
		p.Send("hello")

		select {
		case err := <-faults:
			require.ErrorIs(t, err, ErrNoResponders)
		case <-time.After(5 * time.Second):
			t.Fatal("no fault reported")
		}
	})

	t.Run("stopped caller does not fail a shared request", func(t *testing.T) {
		c := newClient(t)

		received := make(chan struct{}, 4)
		gate := make(chan struct{})
		unsub, err := c.Reply("slow.echo", func(in []any) ([]any, error) {
			received <- struct{}{}
			<-gate
			return in, nil
		})
		require.NoError(t, err)
		defer func() { _ = unsub() }()
		require.NoError(t, c.Flush())

		m := process.Chain(
			process.Lift(xf.HaltWhen(func(vals ...any) bool { return vals[0] == "stop" })),
			process.Async(c.Request("slow.echo", 0)),
		)
		faults1 := make(chan error, 1)
		faults2 := make(chan error, 1)
		p1 := process.Spawn(m, nil, func(err error) { faults1 <- err })
		out := make(collector, 4)
		p2 := process.Spawn(m, out.sink, func(err error) { faults2 <- err })

		p1.Send("q")
		p2.Send("q")
		select {
		case <-received:
		case <-time.After(5 * time.Second):
			t.Fatal("request never reached the responder")
		}
		// give p2 time to join the round trip p1 may have started
		time.Sleep(50 * time.Millisecond)

		p1.Send("stop")
		<-p1.Done()
		close(gate)

		require.Equal(t, []any{"q"}, out.next(t))
		require.Empty(t, faults1)
		require.Empty(t, faults2)
	})

	t.Run("closed client", func(t *testing.T) {
		c := newClient(t)
		require.NoError(t, c.Close())
		require.NoError(t, c.Close())

		_, err := c.Feed("x", process.Spawn(nil, nil, nil))
		require.ErrorIs(t, err, ErrClientClosed)

		faults := make(chan error, 1)
		p := process.Spawn(c.Publish("x"), nil, func(err error) { faults <- err })
		p.Send(1)
		require.ErrorIs(t, <-faults, ErrClientClosed)
	})
}

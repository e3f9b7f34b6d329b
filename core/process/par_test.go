package process

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leonoel/mission/core/actor"
	"github.com/leonoel/mission/core/xf"
)

func label(s string) Mission {
	return Lift(xf.Map(func(vals ...any) []any { return append([]any{s}, vals...) }))
}

// jitter sleeps a random short while before forwarding.
func jitter(max time.Duration) Mission {
	return Lift(xf.Tap(func(...any) { time.Sleep(rand.N(max)) }))
}

func TestPending_OneSideBuffered(t *testing.T) {
	var p pending

	_, ok := p.offer(sideA, []any{"a1"})
	require.False(t, ok)
	_, ok = p.offer(sideA, []any{"a2"})
	require.False(t, ok)
	s, n := p.buffered()
	require.Equal(t, sideA, s)
	require.Equal(t, 2, n)

	out, ok := p.offer(sideB, []any{"b1"})
	require.True(t, ok)
	require.Equal(t, []any{"a1", "b1"}, out)

	out, ok = p.offer(sideB, []any{"b2"})
	require.True(t, ok)
	require.Equal(t, []any{"a2", "b2"}, out)
	s, n = p.buffered()
	require.Equal(t, sideNone, s)
	require.Zero(t, n)

	// B first: A values still come first in the pair
	_, ok = p.offer(sideB, []any{"b3"})
	require.False(t, ok)
	out, ok = p.offer(sideA, []any{"a3"})
	require.True(t, ok)
	require.Equal(t, []any{"a3", "b3"}, out)
}

func TestPending_RandomInterleaving(t *testing.T) {
	var p pending
	var aSent, bSent, paired int
	for i := 0; i < 2000; i++ {
		var out []any
		var ok bool
		if rand.IntN(2) == 0 {
			out, ok = p.offer(sideA, []any{aSent})
			aSent++
		} else {
			out, ok = p.offer(sideB, []any{bSent})
			bSent++
		}
		if ok {
			require.Equal(t, []any{paired, paired}, out)
			paired++
		}
		s, n := p.buffered()
		switch {
		case aSent > bSent:
			require.Equal(t, sideA, s)
			require.Equal(t, aSent-bSent, n)
		case bSent > aSent:
			require.Equal(t, sideB, s)
			require.Equal(t, bSent-aSent, n)
		default:
			require.Zero(t, n)
		}
	}
}

func testPositional(t *testing.T, a, b Mission) {
	const n = 200
	c := newCapture()
	var f faults
	p := Spawn(Par(a, b), c.sink, f.handle)

	for i := 0; i < n; i++ {
		p.Send(i)
	}
	for i := 0; i < n; i++ {
		require.Equal(t, []any{"a", i, "b", i}, c.next(t))
	}
	require.Empty(t, f.list())
}

func TestPar_PositionalPairing_SlowB(t *testing.T) {
	testPositional(t, label("a"), Chain(jitter(200*time.Microsecond), label("b")))
}

func TestPar_PositionalPairing_SlowA(t *testing.T) {
	testPositional(t, Chain(jitter(200*time.Microsecond), label("a")), label("b"))
}

func TestPar_FilteredBranchesPairByPosition(t *testing.T) {
	// A keeps even inputs, B keeps odd ones: the k-th outputs pair up even
	// though they stem from different inputs
	even := Chain(Lift(xf.Filter(func(vals ...any) bool { return vals[0].(int)%2 == 0 })), label("a"))
	odd := Chain(Lift(xf.Filter(func(vals ...any) bool { return vals[0].(int)%2 == 1 })), label("b"))

	c := newCapture()
	p := Spawn(Par(even, odd), c.sink, nil)
	for i := 0; i < 10; i++ {
		p.Send(i)
	}
	for k := 0; k < 5; k++ {
		require.Equal(t, []any{"a", 2 * k, "b", 2*k + 1}, c.next(t))
	}
}

func TestPar_NaryIsLeftFold(t *testing.T) {
	c := newCapture()
	p := Spawn(Par(label("a"), label("b"), label("c")), c.sink, nil)
	p.Send(1)
	p.Send(2)
	require.Equal(t, []any{"a", 1, "b", 1, "c", 1}, c.next(t))
	require.Equal(t, []any{"a", 2, "b", 2, "c", 2}, c.next(t))
}

func TestPar_BranchesRunInParallel(t *testing.T) {
	bStarted := make(chan struct{})
	a := Lift(xf.Tap(func(...any) {
		select {
		case <-bStarted:
		case <-time.After(2 * time.Second):
			panic("branch b never ran while a was busy")
		}
	}))
	b := Lift(xf.Tap(func(...any) { close(bStarted) }))

	c := newCapture()
	var f faults
	p := Spawn(Par(a, b), c.sink, f.handle)
	p.Send("go")

	require.Equal(t, []any{"go", "go"}, c.next(t))
	require.Empty(t, f.list())
}

func TestPar_ChildFaultFailsParent(t *testing.T) {
	boom := errors.New("branch b failed")
	b := func(p Ctx, rf xf.Reducer) xf.Reducer {
		return func(acc any, vals ...any) (any, error) {
			if vals[0] == "bad" {
				return acc, boom
			}
			return rf(acc, vals...)
		}
	}

	c := newCapture()
	var f faults
	p := Spawn(Par(label("a"), b), c.sink, f.handle)
	p.Send("ok")
	require.Equal(t, []any{"a", "ok", "ok"}, c.next(t))

	p.Send("bad")
	waitDone(t, p)
	p.Send("ok")

	errs := f.list()
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], boom)
	requireNoOutput(t, c, 20*time.Millisecond)
}

func TestPar_TerminatesWithDownstream(t *testing.T) {
	c := newCapture()
	p := Spawn(Chain(Par(label("a"), label("b")), Lift(xf.Take(2))), c.sink, nil)
	for i := 0; i < 5; i++ {
		p.Send(i)
	}
	waitDone(t, p)
	require.Equal(t, [][]any{{"a", 0, "b", 0}, {"a", 1, "b", 1}}, c.values())
}

func TestPar_BranchHalts(t *testing.T) {
	t.Run("a halts with an unpaired output", func(t *testing.T) {
		c := newCapture()
		var f faults
		p := Spawn(Par(Chain(Lift(xf.Take(1)), label("a")), label("b")), c.sink, f.handle)

		p.Send(1)
		waitDone(t, p)
		p.Send(2)

		require.Equal(t, [][]any{{"a", 1, "b", 1}}, c.values())
		require.Equal(t, actor.Terminated, p.State())
		require.Empty(t, f.list())
	})

	t.Run("b halts while a keeps producing", func(t *testing.T) {
		c := newCapture()
		var f faults
		p := Spawn(Par(label("a"), Chain(Lift(xf.Take(1)), label("b"))), c.sink, f.handle)

		for i := 0; i < 3; i++ {
			p.Send(i)
		}
		waitDone(t, p)

		require.Equal(t, [][]any{{"a", 0, "b", 0}}, c.values())
		require.Equal(t, actor.Terminated, p.State())
		require.Empty(t, f.list())
	})

	t.Run("b halts with outputs still to pair", func(t *testing.T) {
		// b emits twice for the first input and then halts; a filters the
		// first input out, so b's outputs wait for a's next two
		twice := Chain(Lift(xf.MapCat(func(vals ...any) [][]any { return [][]any{vals, vals} })), Lift(xf.Take(2)), label("b"))
		skipFirst := Chain(Lift(xf.Filter(func(vals ...any) bool { return vals[0].(int) > 0 })), label("a"))

		c := newCapture()
		p := Spawn(Par(skipFirst, twice), c.sink, nil)
		for i := 0; i < 4; i++ {
			p.Send(i)
		}
		waitDone(t, p)

		require.Equal(t, [][]any{{"a", 1, "b", 0}, {"a", 2, "b", 0}}, c.values())
	})
}

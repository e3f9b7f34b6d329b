package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	promadapter "github.com/leonoel/mission/adapters/prometheus"
	"github.com/leonoel/mission/core/actor"
	"github.com/leonoel/mission/core/process"
	"github.com/leonoel/mission/core/xf"
)

// === Config ===

var (
	logLevel   = slog.LevelInfo
	N          = getEnvInt("N", 200_000)
	senders    = getEnvInt("SENDERS", 8)
	branches   = getEnvInt("BRANCHES", 2)
	maxTasks   = getEnvInt("MAX_TASKS", 0)
	partitions = getEnvInt("PARTITIONS", 0)
	verbose    = getEnvBool("VERBOSE", false)
)

func getEnvBool(key string, fallback bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	return v == "1" || strings.ToLower(v) == "true"
}

func getEnv(key, fallback string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, fmt.Sprintf("%d", fallback)))
	if err != nil {
		return fallback
	}
	return v
}

// branch tags each message with its branch index.
func branch(i int) process.Mission {
	return process.Lift(xf.Map(func(vals ...any) []any { return append([]any{i}, vals...) }))
}

func mission() process.Mission {
	var m process.Mission
	switch {
	case branches >= 2:
		ms := make([]process.Mission, branches)
		for i := range ms {
			ms[i] = branch(i)
		}
		m = process.Par(ms[0], ms[1], ms[2:]...)
	default:
		m = branch(0)
	}
	if partitions > 0 {
		m = process.Partition(func(vals ...any) string {
			return strconv.Itoa(vals[1].(int) % partitions)
		}, m)
	}
	return process.Chain(m, process.Lift(xf.Take(N)))
}

func main() {
	if verbose {
		logLevel = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)

	if err := run(context.Background(), log); err != nil {
		log.Error("loadtest failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	metrics := promadapter.NewActorMetrics(reg)
	sched := actor.NewSchedulerWithMetrics(maxTasks, ctx, log, metrics)

	var emitted atomic.Int64
	failed := make(chan error, 1)

	log.Info("starting",
		slog.Int("n", N),
		slog.Int("senders", senders),
		slog.Int("branches", branches),
		slog.Int("partitions", partitions),
		slog.Int("max_tasks", maxTasks),
	)

	start := time.Now()
	p := process.Spawn(
		mission(),
		func(vals ...any) { emitted.Add(1) },
		func(err error) { failed <- err },
		process.WithName("loadtest"),
		process.WithLogger(log),
		process.WithScheduler(sched),
		process.WithMetrics(metrics),
	)

	var g errgroup.Group
	per := N / senders
	for s := 0; s < senders; s++ {
		count := per
		if s == senders-1 {
			count = N - per*(senders-1)
		}
		g.Go(func() error {
			for i := 0; i < count; i++ {
				p.Send("msg", s*per+i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	sent := time.Since(start)

	select {
	case err := <-failed:
		return err
	case <-p.Done():
	case <-time.After(time.Minute):
		return fmt.Errorf("timeout: emitted %d of %d", emitted.Load(), N)
	}
	total := time.Since(start)

	mfs, err := reg.Gather()
	if err != nil {
		return err
	}

	log.Info("done",
		slog.Int64("emitted", emitted.Load()),
		slog.Duration("send_duration", sent),
		slog.Duration("total_duration", total),
		slog.Float64("msgs_per_sec", float64(N)/total.Seconds()),
		slog.Int("metric_families", len(mfs)),
	)
	return nil
}

// Command yggauth-loadtest drives many accounts through check and refresh
// tasks concurrently against an in-memory Yggdrasil server and reports task
// latency percentiles.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/MrEthical07/yggauth"
	"github.com/MrEthical07/yggauth/yggdrasil"
	"github.com/MrEthical07/yggauth/yggdrasil/yggdrasiltest"
)

// slot serializes tasks on one account; the engine rejects overlapping ones.
type slot struct {
	mu  sync.Mutex
	acc *yggauth.Account
}

type options struct {
	accounts    int
	concurrency int
	ops         int
	poolSize    int
	redisAddr   string
	prefix      string
	encoding    string
}

func main() {
	opts := options{}
	fs := pflag.NewFlagSet("yggauth-loadtest", pflag.ExitOnError)
	fs.IntVar(&opts.accounts, "accounts", 1000, "number of accounts to log in")
	fs.IntVar(&opts.concurrency, "concurrency", 64, "number of concurrent workers")
	fs.IntVar(&opts.ops, "ops", 20000, "tasks per phase (check + refresh)")
	fs.IntVar(&opts.poolSize, "pool-size", 128, "executor pool size")
	fs.StringVar(&opts.redisAddr, "redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	fs.StringVar(&opts.prefix, "prefix", "ygglt", "account key prefix")
	fs.StringVar(&opts.encoding, "encoding", "msgpack", "stored document encoding")
	_ = fs.Parse(os.Args[1:])

	if opts.accounts <= 0 || opts.concurrency <= 0 || opts.ops <= 0 || opts.poolSize <= 0 {
		fmt.Fprintln(os.Stderr, "accounts, concurrency, ops and pool-size must be > 0")
		os.Exit(2)
	}

	if err := run(context.Background(), opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	addr := opts.redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("start miniredis: %w", err)
		}
		defer mr.Close()
		addr = mr.Addr()
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		fmt.Printf("using redis at %s\n", addr)
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	defer client.Close()

	seed := make([]yggdrasiltest.Account, opts.accounts)
	for i := range seed {
		seed[i] = yggdrasiltest.Account{
			Username: fmt.Sprintf("user-%d@example.com", i),
			Password: "pw",
			Profiles: []yggdrasil.Profile{{ID: fmt.Sprintf("p%032d", i), Name: fmt.Sprintf("Player%d", i)}},
		}
	}
	srv := yggdrasiltest.NewServer(seed...)
	defer srv.Close()

	cfg := yggauth.DefaultConfig()
	cfg.Remote.BaseURL = srv.URL
	cfg.Executor.PoolSize = opts.poolSize
	cfg.Document.Encoding = opts.encoding
	cfg.Store.RedisPrefix = opts.prefix
	cfg.Metrics.EnableLatencyHistograms = true

	engine, err := yggauth.New().WithConfig(cfg).WithRedis(client).Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	fmt.Printf("logging in %d accounts...\n", opts.accounts)
	slots := make([]slot, opts.accounts)
	startSeed := time.Now()
	for i, a := range seed {
		acc := engine.NewAccount(a.Username)
		if err := runTask(ctx, acc.CreateLoginTask(a.Username, a.Password)); err != nil {
			return fmt.Errorf("login %s: %w", a.Username, err)
		}
		if err := engine.Persist(ctx, acc); err != nil {
			return fmt.Errorf("persist %s: %w", a.Username, err)
		}
		slots[i].acc = acc
	}
	fmt.Printf("logged in in %s\n", time.Since(startSeed).Round(time.Millisecond))

	checkStats := runPhase(ctx, engine, slots, opts, func(acc *yggauth.Account) *yggauth.Task {
		return acc.CreateCheckTask()
	})
	refreshStats := runPhase(ctx, engine, slots, opts, func(acc *yggauth.Account) *yggauth.Task {
		return acc.CreateRefreshTask()
	})

	fmt.Println("---- results ----")
	printStats("check", checkStats)
	printStats("refresh", refreshStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("engine: network_errors=%d rejected=%d already_running=%d\n",
		snap.Counters[yggauth.MetricNetworkError],
		snap.Counters[yggauth.MetricTaskRejected],
		snap.Counters[yggauth.MetricTaskAlreadyRunning],
	)
	return nil
}

func runTask(ctx context.Context, t *yggauth.Task) error {
	if err := t.Start(ctx); err != nil {
		return err
	}
	return t.Wait(ctx)
}

// runPhase restores a random account, runs one task on it and persists the
// result, ops times across the workers.
func runPhase(ctx context.Context, engine *yggauth.Engine, slots []slot, opts options, next func(*yggauth.Account) *yggauth.Task) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, opts.ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < opts.concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				if int(atomic.AddInt64(&cursor, 1)) > opts.ops {
					return
				}
				s := &slots[r.Intn(len(slots))]

				s.mu.Lock()
				t0 := time.Now()
				err := runTask(ctx, next(s.acc))
				if err == nil {
					err = engine.Persist(ctx, s.acc)
				}
				d := time.Since(t0)
				s.mu.Unlock()

				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total, failures: failures}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	switch {
	case len(samples) == 0:
		return 0
	case p <= 0:
		return samples[0]
	case p >= 100:
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%-8s ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name, s.ops, s.failures,
		s.total.Round(time.Millisecond), s.opsPerS,
		s.p50.Round(time.Microsecond), s.p95.Round(time.Microsecond), s.p99.Round(time.Microsecond),
	)
}

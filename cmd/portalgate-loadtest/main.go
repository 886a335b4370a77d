package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	portalgate "github.com/MrEthical07/portalgate"
	"github.com/MrEthical07/portalgate/audit/redisstream"
	"github.com/MrEthical07/portalgate/session"
)

type client struct {
	token string
	ip    string
	mac   string
}

func main() {
	var (
		sessions    = flag.Int("sessions", 100000, "number of sessions to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase")
		sweep       = flag.String("sweep", "scan", "sweep strategy: scan or heap")
		ttl         = flag.Duration("ttl", time.Hour, "session TTL")
		audit       = flag.Bool("audit", false, "emit audit events to a redis stream")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *sessions <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "sessions, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	if _, err := session.ParseSweepStrategy(*sweep); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg := portalgate.DefaultConfig()
	cfg.Session.TTL = *ttl
	cfg.Session.Sweep = *sweep
	cfg.Audit.Enabled = *audit

	builder := portalgate.New().
		WithConfig(cfg).
		WithCredentialVerifier(portalgate.CredentialVerifierFunc(func(context.Context, string, string) error {
			return nil
		}))

	if *audit {
		rdb, cleanup, err := openRedis(*redisAddr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "redis: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		sink, err := redisstream.New(rdb, redisstream.Config{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "audit sink: %v\n", err)
			os.Exit(1)
		}
		builder = builder.WithAuditSink(sink)
	}

	engine, err := builder.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	ctx := context.Background()

	fmt.Printf("seeding %d sessions (sweep=%s)...\n", *sessions, *sweep)
	startSeed := time.Now()
	clients, createStats := runCreatePhase(ctx, engine, *sessions, *concurrency)
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	checkStats := runCheckPhase(ctx, engine, clients, *ops, *concurrency)
	mixedStats := runMixedPhase(ctx, engine, clients, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("create", createStats)
	printStats("check", checkStats)
	printStats("mixed", mixedStats)

	st := engine.SessionStats()
	fmt.Printf("store: live=%d created=%d revoked=%d expired=%d audit_dropped=%d\n",
		st.Live, st.Created, st.Revoked, st.Expired, engine.AuditDropped())
}

func openRedis(addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, err
		}
		rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		fmt.Printf("using miniredis at %s\n", mr.Addr())
		return rdb, func() {
			_ = rdb.Close()
			mr.Close()
		}, nil
	}

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	fmt.Printf("using redis at %s\n", addr)
	return rdb, func() { _ = rdb.Close() }, nil
}

func runCreatePhase(ctx context.Context, engine *portalgate.Engine, n, concurrency int) ([]client, phaseStats) {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		clients   = make([]client, n)
		latencies = make([]time.Duration, n)
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= n {
					return
				}
				c := client{ip: ipFor(i), mac: macFor(i)}
				t0 := time.Now()
				res, err := engine.Login(ctx, portalgate.LoginRequest{
					Username: fmt.Sprintf("user-%d", i),
					Password: "x",
					IP:       c.ip,
					MAC:      c.mac,
				})
				latencies[i] = time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				c.token = res.Token
				clients[i] = c
			}
		}()
	}
	wg.Wait()
	return clients, computeStats(time.Since(start), latencies, failures)
}

func runCheckPhase(ctx context.Context, engine *portalgate.Engine, clients []client, ops, concurrency int) phaseStats {
	return runPhase(ops, concurrency, 7919, func(r *rand.Rand) bool {
		c := clients[r.Intn(len(clients))]
		_, ok := engine.Check(ctx, c.token, c.ip, c.mac)
		return ok
	})
}

// runMixedPhase interleaves checks with logout/login churn: roughly one in ten
// operations revokes a session and creates a replacement.
func runMixedPhase(ctx context.Context, engine *portalgate.Engine, clients []client, ops, concurrency int) phaseStats {
	locks := make([]sync.Mutex, len(clients))
	return runPhase(ops, concurrency, 6151, func(r *rand.Rand) bool {
		idx := r.Intn(len(clients))
		locks[idx].Lock()
		defer locks[idx].Unlock()

		c := clients[idx]
		if r.Intn(10) != 0 {
			_, ok := engine.Check(ctx, c.token, c.ip, c.mac)
			return ok
		}

		engine.Logout(ctx, c.token)
		res, err := engine.Login(ctx, portalgate.LoginRequest{Username: "churn", IP: c.ip, MAC: c.mac})
		if err != nil {
			return false
		}
		clients[idx].token = res.Token
		return true
	})
}

func runPhase(ops, concurrency int, seedStride int64, op func(r *rand.Rand) bool) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, ops)
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seedStride))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				ok := op(r)
				latencies[i] = time.Since(t0)
				if !ok {
					atomic.AddInt64(&failures, 1)
				}
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
		return phaseStats{total: total}
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
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func ipFor(i int) string {
	return fmt.Sprintf("10.%d.%d.%d", (i>>16)&0xFF, (i>>8)&0xFF, i&0xFF)
}

func macFor(i int) string {
	return fmt.Sprintf("02:00:00:%02x:%02x:%02x", (i>>16)&0xFF, (i>>8)&0xFF, i&0xFF)
}

// Command authload measures access-token decoding and refresh-token rotation
// throughput against Redis, or an embedded miniredis when no address is given.
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
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/deliveryAuth/jwt"
	"github.com/MrEthical07/deliveryAuth/permission"
	"github.com/MrEthical07/deliveryAuth/refresh"
	"github.com/MrEthical07/deliveryAuth/refresh/redisstore"
)

type tokenState struct {
	mu      sync.Mutex
	current string
}

func main() {
	var (
		accounts    = flag.Int("accounts", 10000, "number of refresh tokens to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 100000, "operations per phase (decode + rotate)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *accounts <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "accounts, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	// Each run gets its own namespace so repeated runs against a shared
	// Redis do not collide.
	prefix := "load:" + uuid.NewString()[:8] + ":"
	store, err := redisstore.New(client, redisstore.Config{
		Config: refresh.Config{TTL: 24 * time.Hour},
		Prefix: prefix,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "store init failed: %v\n", err)
		os.Exit(1)
	}

	secret := []byte(uuid.NewString() + uuid.NewString())
	codec, err := jwt.NewManager(jwt.Config{AccessTTL: 15 * time.Minute, Secret: secret})
	if err != nil {
		fmt.Fprintf(os.Stderr, "codec init failed: %v\n", err)
		os.Exit(1)
	}

	states := make([]tokenState, *accounts)
	fmt.Printf("seeding %d refresh tokens under %s...\n", *accounts, prefix)
	startSeed := time.Now()
	for i := range states {
		issued, err := store.Issue(ctx, int64(i+1), time.Now())
		if err != nil {
			fmt.Fprintf(os.Stderr, "issue failed: %v\n", err)
			os.Exit(1)
		}
		states[i].current = issued.Value
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	access, _, err := codec.Mint("load@example.com", permission.RoleCliente, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint failed: %v\n", err)
		os.Exit(1)
	}

	decodeStats := runPhase(*ops, *concurrency, func(_ *rand.Rand, _ int) error {
		_, err := codec.Decode(access, time.Now())
		return err
	})
	rotateStats := runPhase(*ops, *concurrency, func(r *rand.Rand, _ int) error {
		idx := r.Intn(len(states))
		return rotate(ctx, store, &states[idx], int64(idx+1))
	})

	fmt.Println("---- results ----")
	printStats("decode", decodeStats)
	printStats("rotate", rotateStats)
}

// rotate consumes the current token and issues its successor, the same pair of
// store calls Engine.Refresh makes.
func rotate(ctx context.Context, store refresh.Store, state *tokenState, accountID int64) error {
	state.mu.Lock()
	defer state.mu.Unlock()

	now := time.Now()
	if _, err := store.ValidateAndRotate(ctx, state.current, now); err != nil {
		return err
	}
	next, err := store.Issue(ctx, accountID, now)
	if err != nil {
		return err
	}
	state.current = next.Value
	return nil
}

func runPhase(ops, concurrency int, op func(r *rand.Rand, i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r, i)
				d := time.Since(t0)
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

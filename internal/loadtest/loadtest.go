// Package loadtest generates traffic against a running eventreg server to
// exercise registration admission under concurrency and to validate the
// monitoring dashboards.
package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"slices"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// LoadProfile names a predefined load scenario.
type LoadProfile string

const (
	ProfileLight  LoadProfile = "light"  // 5 req/s, 1 minute
	ProfileMedium LoadProfile = "medium" // 20 req/s, 2 minutes
	ProfileHeavy  LoadProfile = "heavy"  // 50 req/s, 5 minutes
	ProfileBurst  LoadProfile = "burst"  // 100 req/s, no ramp
)

// ProfileConfig defines the parameters for a load test.
type ProfileConfig struct {
	RequestsPerSecond int
	Duration          time.Duration
	RampUpTime        time.Duration
	RampDownTime      time.Duration
	// ReadWriteRatio is the share of reads; 0.8 means 80% reads.
	ReadWriteRatio float64
}

// LoadProfiles contains the predefined scenarios.
var LoadProfiles = map[LoadProfile]ProfileConfig{
	ProfileLight: {
		RequestsPerSecond: 5,
		Duration:          1 * time.Minute,
		RampUpTime:        10 * time.Second,
		RampDownTime:      10 * time.Second,
		ReadWriteRatio:    0.8,
	},
	ProfileMedium: {
		RequestsPerSecond: 20,
		Duration:          2 * time.Minute,
		RampUpTime:        20 * time.Second,
		RampDownTime:      20 * time.Second,
		ReadWriteRatio:    0.8,
	},
	ProfileHeavy: {
		RequestsPerSecond: 50,
		Duration:          5 * time.Minute,
		RampUpTime:        30 * time.Second,
		RampDownTime:      30 * time.Second,
		ReadWriteRatio:    0.7,
	},
	ProfileBurst: {
		RequestsPerSecond: 100,
		Duration:          1 * time.Minute,
		ReadWriteRatio:    0.5,
	},
}

// LoadTester drives requests at a server.
type LoadTester struct {
	baseURL    string
	httpClient *http.Client
	faker      *gofakeit.Faker
	rng        *rand.Rand
	stats      *Statistics

	mu       sync.Mutex
	eventIDs []int64
	sequence int
}

// NewLoadTester creates a load tester targeting baseURL. A seed of 0 picks
// a random one.
func NewLoadTester(baseURL string, seed uint64) *LoadTester {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &LoadTester{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		faker:      gofakeit.New(seed),
		rng:        rand.New(rand.NewPCG(seed, seed>>1)),
		stats:      newStatistics(),
	}
}

// Run executes the named profile.
func (lt *LoadTester) Run(ctx context.Context, profile LoadProfile) (*Statistics, error) {
	cfg, ok := LoadProfiles[profile]
	if !ok {
		return nil, fmt.Errorf("unknown profile: %s", profile)
	}
	return lt.RunCustom(ctx, cfg)
}

// RunCustom executes a load test with cfg and returns the collected
// statistics. Cancelling ctx stops the test early.
func (lt *LoadTester) RunCustom(ctx context.Context, cfg ProfileConfig) (*Statistics, error) {
	if cfg.RequestsPerSecond <= 0 {
		return nil, fmt.Errorf("requests per second must be positive")
	}
	if cfg.Duration <= 0 {
		return nil, fmt.Errorf("duration must be positive")
	}
	if cfg.ReadWriteRatio < 0 || cfg.ReadWriteRatio > 1 {
		return nil, fmt.Errorf("read/write ratio must be between 0 and 1")
	}

	lt.stats = newStatistics()
	lt.stats.startTime = time.Now()

	workers := max(cfg.RequestsPerSecond*2, 10)
	work := make(chan workItem, workers*2)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			lt.worker(gctx, work)
			return nil
		})
	}
	g.Go(func() error {
		defer close(work)
		lt.generateWork(gctx, cfg, work)
		return nil
	})
	_ = g.Wait()

	lt.stats.endTime = time.Now()
	return lt.stats, nil
}

type workItem struct {
	method   string
	path     string
	body     any
	endpoint string
}

func (lt *LoadTester) generateWork(ctx context.Context, cfg ProfileConfig, work chan<- workItem) {
	start := time.Now()
	total := cfg.RampUpTime + cfg.Duration + cfg.RampDownTime
	limiter := rate.NewLimiter(rate.Limit(currentRPS(0, cfg)), 1)

	for {
		elapsed := time.Since(start)
		if elapsed >= total {
			return
		}
		limiter.SetLimit(rate.Limit(currentRPS(elapsed, cfg)))
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		var item workItem
		if lt.rng.Float64() < cfg.ReadWriteRatio {
			item = lt.readRequest()
		} else {
			item = lt.writeRequest()
		}

		select {
		case <-ctx.Done():
			return
		case work <- item:
		}
	}
}

// currentRPS returns the target rate at elapsed, following the ramp-up and
// ramp-down phases. It never drops below 1.
func currentRPS(elapsed time.Duration, cfg ProfileConfig) int {
	target := cfg.RequestsPerSecond

	if elapsed < cfg.RampUpTime {
		progress := float64(elapsed) / float64(cfg.RampUpTime)
		return max(int(float64(target)*progress), 1)
	}

	steadyEnd := cfg.RampUpTime + cfg.Duration
	if elapsed < steadyEnd {
		return target
	}

	if down := elapsed - steadyEnd; down < cfg.RampDownTime {
		progress := float64(down) / float64(cfg.RampDownTime)
		return max(int(float64(target)*(1.0-progress)), 1)
	}
	return 1
}

func (lt *LoadTester) readRequest() workItem {
	operations := []workItem{
		{method: http.MethodGet, path: "/healthz", endpoint: "healthz"},
		{method: http.MethodGet, path: "/events", endpoint: "list_events"},
		{method: http.MethodGet, path: "/users", endpoint: "list_users"},
		{method: http.MethodGet, path: "/registrations", endpoint: "list_registrations"},
	}
	return operations[lt.rng.IntN(len(operations))]
}

// writeRequest creates an event or registers a new user for a known event.
// Registrations carry a profile so the user is created on admission.
func (lt *LoadTester) writeRequest() workItem {
	lt.mu.Lock()
	ids := slices.Clone(lt.eventIDs)
	lt.sequence++
	seq := lt.sequence
	lt.mu.Unlock()

	if len(ids) == 0 || lt.rng.IntN(4) == 0 {
		description := lt.faker.HackerPhrase()
		return workItem{
			method: http.MethodPost,
			path:   "/events",
			body: map[string]any{
				"title":       fmt.Sprintf("%s %s Meetup", lt.faker.HackerAdjective(), lt.faker.ProgrammingLanguage()),
				"description": description,
				"date":        lt.faker.FutureDate().UTC().Format(time.RFC3339),
				"location":    lt.faker.City(),
			},
			endpoint: "create_event",
		}
	}

	username := fmt.Sprintf("load-%s-%d", lt.faker.Username(), seq)
	if len(username) > 50 {
		username = username[len(username)-50:]
	}
	return workItem{
		method: http.MethodPost,
		path:   "/registrations",
		body: map[string]any{
			"username": username,
			"event_id": ids[lt.rng.IntN(len(ids))],
			"name":     lt.faker.Name(),
			"email":    lt.faker.Email(),
		},
		endpoint: "register",
	}
}

func (lt *LoadTester) worker(ctx context.Context, work <-chan workItem) {
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-work:
			if !ok {
				return
			}
			lt.execute(ctx, item)
		}
	}
}

func (lt *LoadTester) execute(ctx context.Context, item workItem) {
	var body io.Reader
	if item.body != nil {
		data, err := json.Marshal(item.body)
		if err != nil {
			lt.stats.recordError(item.endpoint)
			return
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, item.method, lt.baseURL+item.path, body)
	if err != nil {
		lt.stats.recordError(item.endpoint)
		return
	}
	if item.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := lt.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			lt.stats.recordError(item.endpoint)
		}
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if item.endpoint == "create_event" && resp.StatusCode == http.StatusCreated {
		var created struct {
			ID int64 `json:"id"`
		}
		if json.NewDecoder(resp.Body).Decode(&created) == nil && created.ID > 0 {
			lt.mu.Lock()
			lt.eventIDs = append(lt.eventIDs, created.ID)
			lt.mu.Unlock()
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	lt.stats.recordResponse(resp.StatusCode, time.Since(start), item.endpoint)
}

// Statistics collects load test results.
type Statistics struct {
	mu sync.Mutex

	total     int64
	succeeded int64
	failed    int64

	responseTimes []time.Duration
	// status code -> count; transport failures are recorded under 0
	errors    map[int]int64
	endpoints map[string]*endpointStats

	startTime time.Time
	endTime   time.Time
}

type endpointStats struct {
	count  int64
	errors int64
	times  []time.Duration
}

func newStatistics() *Statistics {
	return &Statistics{
		errors:    make(map[int]int64),
		endpoints: make(map[string]*endpointStats),
	}
}

func (s *Statistics) endpoint(name string) *endpointStats {
	ep := s.endpoints[name]
	if ep == nil {
		ep = &endpointStats{}
		s.endpoints[name] = ep
	}
	return ep
}

func (s *Statistics) recordResponse(status int, elapsed time.Duration, endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.responseTimes = append(s.responseTimes, elapsed)
	ep := s.endpoint(endpoint)
	ep.count++
	ep.times = append(ep.times, elapsed)

	if status >= 200 && status < 300 {
		s.succeeded++
		return
	}
	s.failed++
	s.errors[status]++
	ep.errors++
}

func (s *Statistics) recordError(endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.failed++
	s.errors[0]++
	ep := s.endpoint(endpoint)
	ep.count++
	ep.errors++
}

// Total returns the number of requests issued.
func (s *Statistics) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Failed returns the number of requests that errored or got a non-2xx status.
func (s *Statistics) Failed() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}

// EndpointCount returns how many requests hit the named endpoint.
func (s *Statistics) EndpointCount(name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ep := s.endpoints[name]; ep != nil {
		return ep.count
	}
	return 0
}

// Report writes a human readable summary to w.
func (s *Statistics) Report(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	duration := s.endTime.Sub(s.startTime)
	fmt.Fprintf(w, "Duration:        %s\n", duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Total Requests:  %d\n", s.total)
	if s.total > 0 {
		fmt.Fprintf(w, "Successful:      %d (%.1f%%)\n", s.succeeded, float64(s.succeeded)/float64(s.total)*100)
		fmt.Fprintf(w, "Failed:          %d (%.1f%%)\n", s.failed, float64(s.failed)/float64(s.total)*100)
	}
	if duration > 0 {
		fmt.Fprintf(w, "Requests/sec:    %.2f\n", float64(s.total)/duration.Seconds())
	}

	if len(s.responseTimes) > 0 {
		fmt.Fprintf(w, "\nResponse Times:\n")
		fmt.Fprintf(w, "  p50:  %s\n", percentile(s.responseTimes, 0.50))
		fmt.Fprintf(w, "  p95:  %s\n", percentile(s.responseTimes, 0.95))
		fmt.Fprintf(w, "  p99:  %s\n", percentile(s.responseTimes, 0.99))
	}

	if len(s.errors) > 0 {
		fmt.Fprintf(w, "\nErrors by Status Code:\n")
		codes := make([]int, 0, len(s.errors))
		for code := range s.errors {
			codes = append(codes, code)
		}
		slices.Sort(codes)
		for _, code := range codes {
			label := fmt.Sprint(code)
			if code == 0 {
				label = "transport"
			}
			fmt.Fprintf(w, "  %s: %d\n", label, s.errors[code])
		}
	}

	if len(s.endpoints) == 0 {
		return nil
	}
	names := make([]string, 0, len(s.endpoints))
	for name := range s.endpoints {
		names = append(names, name)
	}
	slices.Sort(names)

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ENDPOINT\tCOUNT\tERRORS\tP95")
	for _, name := range names {
		ep := s.endpoints[name]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", name, ep.count, ep.errors, percentile(ep.times, 0.95))
	}
	return tw.Flush()
}

func percentile(times []time.Duration, p float64) time.Duration {
	if len(times) == 0 {
		return 0
	}
	sorted := slices.Clone(times)
	slices.Sort(sorted)

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index].Round(time.Microsecond)
}

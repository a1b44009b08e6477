package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/apierror"
	promexport "github.com/MrEthical07/goSession/metrics/export/prometheus"
	"github.com/spf13/cobra"
)

type probeOptions struct {
	count       int
	concurrency int
	method      string
	attempts    int
	baseDelay   time.Duration
	metrics     bool
}

func newProbeCmd(o *options) *cobra.Command {
	po := &probeOptions{}

	cmd := &cobra.Command{
		Use:   "probe <url>",
		Short: "Call an API through the session pipeline and report outcomes",
		Long: "Send requests carrying the stored credential. Failures are classified,\n" +
			"retried and shown to the session guard exactly as a client would see\n" +
			"them; the summary lists latency percentiles and failure kinds.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if po.count <= 0 || po.concurrency <= 0 {
				return errors.New("count and concurrency must be > 0")
			}
			cfg, err := o.config()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("attempts") {
				cfg.Retry.MaxAttempts = po.attempts
			}
			if cmd.Flags().Changed("base-delay") {
				cfg.Retry.BaseDelay = po.baseDelay
			}
			cfg.Metrics.Enabled = true
			cfg.Metrics.EnableLatencyHistograms = true
			cfg.Notify.ReportFailures = true

			client, cleanup, err := openClient(o, cfg)
			if err != nil {
				return err
			}
			defer cleanup()
			client.Restore(cmd.Context())

			res := runProbe(cmd.Context(), client, args[0], po)
			out := cmd.OutOrStdout()
			printStats(out, "probe", res.stats)
			for _, k := range apierror.Kinds() {
				if n := res.kinds[k]; n > 0 {
					fmt.Fprintf(out, "  %-14s %d\n", k, n)
				}
			}
			fmt.Fprintf(out, "session: %s\n", client.Phase())

			if po.metrics {
				return writeMetrics(out, client)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&po.count, "count", 1, "number of operations")
	f.IntVar(&po.concurrency, "concurrency", 1, "concurrent workers")
	f.StringVar(&po.method, "method", http.MethodGet, "HTTP method")
	f.IntVar(&po.attempts, "attempts", 3, "attempts per operation")
	f.DurationVar(&po.baseDelay, "base-delay", time.Second, "linear backoff step")
	f.BoolVar(&po.metrics, "metrics", false, "print Prometheus metrics after the run")
	return cmd
}

type probeResult struct {
	stats phaseStats
	kinds map[apierror.Kind]int
}

func runProbe(ctx context.Context, client *goSession.Client, url string, po *probeOptions) probeResult {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, po.count)
		kinds     = map[apierror.Kind]int{}
		mu        sync.Mutex
	)

	op := func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, po.method, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.HTTPClient().Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if se := apierror.FromResponse(resp, client.Config().Transport.MaxErrorBodyBytes); se != nil {
			return se
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	start := time.Now()
	for w := 0; w < po.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= po.count {
					return
				}
				t0 := time.Now()
				err := client.Run(ctx, op, map[string]any{"probe": i})
				d := time.Since(t0)

				mu.Lock()
				latencies = append(latencies, d)
				if err != nil {
					failures++
					var env *apierror.Envelope
					if errors.As(err, &env) {
						kinds[env.Kind]++
					}
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return probeResult{
		stats: computeStats(time.Since(start), latencies, failures),
		kinds: kinds,
	}
}

func writeMetrics(w io.Writer, client *goSession.Client) error {
	rec := httptest.NewRecorder()
	promexport.NewPrometheusExporter(client).Handler().
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	_, err := io.Copy(w, rec.Body)
	return err
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

func printStats(w io.Writer, name string, s phaseStats) {
	fmt.Fprintf(w, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
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

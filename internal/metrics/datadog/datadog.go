// Package datadog implements a Datadog backend for the internal/metrics
// package.
//
// Points are buffered in memory and submitted on a periodic Flush plus one
// final Flush on Close, so both one-shot CLI runs and long-lived hosts get
// usable series. Selection counters become count series tagged by archetype;
// classification durations become percentile gauges.
package datadog

import (
	"context"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	dd "github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"

	"github.com/sfc-gh-sweingartner/CortexCharts/internal/metrics"
)

// Options controls backend configuration.
type Options struct {
	// JobName becomes tag "job:<name>" on every series. Defaults to
	// "cortexcharts".
	JobName string

	// Tags are extra Datadog tags (e.g. []string{"env:prod"}).
	Tags []string

	// FlushEvery controls the submission interval. <= 0 defaults to 60s.
	FlushEvery time.Duration

	// Unexported test seams: deterministic clock, ticker and submission
	// without real HTTP. Production code never sets these.
	now       func() time.Time
	newTicker func(d time.Duration) *time.Ticker
	submitter metricsSubmitter
}

// metricsSubmitter is the slice of the Datadog SDK the backend needs. The
// SDK only exposes the concrete *datadogV2.MetricsApi; depending on this
// interface keeps tests off the network.
type metricsSubmitter interface {
	SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error)
}

// Backend implements metrics.Backend for Datadog.
type Backend struct {
	api submitCtx

	flushEvery time.Duration
	stopCh     chan struct{}
	doneCh     chan struct{}
	closeOnce  sync.Once

	baseTags []string

	now       func() time.Time
	newTicker func(d time.Duration) *time.Ticker

	mu sync.Mutex

	selectedCounts  map[string]float64 // archetype tag -> count
	noMatchCount    float64
	classifySamples []float64
}

type submitCtx struct {
	api metricsSubmitter
	ctx context.Context
}

func resolveEnvTag() string {
	if v := strings.TrimSpace(os.Getenv("ENV")); v != "" {
		return "env:" + v
	}
	if v := strings.TrimSpace(os.Getenv("DD_ENV")); v != "" {
		return "env:" + v
	}
	return "env:unknown"
}

// NewBackend constructs a Datadog backend using the official client and
// starts the background flush loop. Credentials come from the standard
// DD_API_KEY environment; network errors surface from Flush, not here.
func NewBackend(parent context.Context, opts Options) (*Backend, error) {
	job := opts.JobName
	if job == "" {
		job = "cortexcharts"
	}
	flushEvery := opts.FlushEvery
	if flushEvery <= 0 {
		flushEvery = 60 * time.Second
	}

	baseTags := make([]string, 0, 2+len(opts.Tags))
	baseTags = append(baseTags, resolveEnvTag(), "job:"+job)
	baseTags = append(baseTags, opts.Tags...)

	nowFn := opts.now
	if nowFn == nil {
		nowFn = time.Now
	}
	newTicker := opts.newTicker
	if newTicker == nil {
		newTicker = time.NewTicker
	}

	submitter := opts.submitter
	if submitter == nil {
		client := dd.NewAPIClient(dd.NewConfiguration())
		submitter = datadogV2.NewMetricsApi(client)
	}

	b := &Backend{
		api:        submitCtx{api: submitter, ctx: dd.NewDefaultContext(parent)},
		flushEvery: flushEvery,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
		baseTags:   baseTags,
		now:        nowFn,
		newTicker:  newTicker,

		selectedCounts: make(map[string]float64),
	}

	go b.loop()
	return b, nil
}

func (b *Backend) loop() {
	defer close(b.doneCh)

	t := b.newTicker(b.flushEvery)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			_ = b.Flush()
		case <-b.stopCh:
			return
		}
	}
}

// Close stops the flush loop and performs one final Flush. Safe to call
// more than once; only the first call stops the loop.
func (b *Backend) Close() error {
	b.closeOnce.Do(func() {
		close(b.stopCh)
		<-b.doneCh
	})
	return b.Flush()
}

// Count implements metrics.Backend.
func (b *Backend) Count(name string, delta float64, tags metrics.Tags) {
	if delta <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch name {
	case metrics.MetricChartsSelected:
		archetype := tags["archetype"]
		if archetype == "" {
			archetype = "unknown"
		}
		b.selectedCounts[archetype] += delta

	case metrics.MetricChartsNoMatch:
		b.noMatchCount += delta

	default:
		// Unknown counters are dropped.
	}
}

// Observe implements metrics.Backend.
func (b *Backend) Observe(name string, value float64, tags metrics.Tags) {
	if value < 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch name {
	case metrics.MetricClassifySeconds:
		b.classifySamples = append(b.classifySamples, value)
	default:
		// Unknown histograms are dropped.
	}
}

// snapshot is the detached buffered state a Flush submits.
type snapshot struct {
	selectedCounts  map[string]float64
	noMatchCount    float64
	classifySamples []float64
}

// snapshotAndReset grabs the current buffers under the lock and replaces
// them, so payload building and submission run lock-free.
func (b *Backend) snapshotAndReset() snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := snapshot{
		selectedCounts:  b.selectedCounts,
		noMatchCount:    b.noMatchCount,
		classifySamples: b.classifySamples,
	}
	b.selectedCounts = make(map[string]float64)
	b.noMatchCount = 0
	b.classifySamples = nil
	return s
}

func (s snapshot) isEmpty() bool {
	return len(s.selectedCounts) == 0 && s.noMatchCount == 0 && len(s.classifySamples) == 0
}

// Flush submits buffered metrics and resets the buffers. Buffers reset even
// when submission fails; delivery is best effort.
func (b *Backend) Flush() error {
	snap := b.snapshotAndReset()
	if snap.isEmpty() {
		return nil
	}

	series := b.buildSeries(snap, b.now().Unix())
	payload := datadogV2.MetricPayload{Series: series}

	_, _, err := b.api.api.SubmitMetrics(b.api.ctx, payload, *datadogV2.NewSubmitMetricsOptionalParameters())
	return err
}

// buildSeries converts a snapshot into Datadog series at a fixed timestamp.
// Pure: no locks, clocks or network, and iteration order is sorted so
// payloads are deterministic.
func (b *Backend) buildSeries(s snapshot, nowUnix int64) []datadogV2.MetricSeries {
	series := make([]datadogV2.MetricSeries, 0, len(s.selectedCounts)+8)

	archetypes := make([]string, 0, len(s.selectedCounts))
	for k := range s.selectedCounts {
		archetypes = append(archetypes, k)
	}
	sort.Strings(archetypes)
	for _, archetype := range archetypes {
		v := s.selectedCounts[archetype]
		if v == 0 {
			continue
		}
		tags := withTags(b.baseTags, "archetype:"+archetype)
		series = append(series, countSeries(metrics.MetricChartsSelected, v, tags, nowUnix))
	}

	if s.noMatchCount != 0 {
		series = append(series, countSeries(metrics.MetricChartsNoMatch, s.noMatchCount, b.baseTags, nowUnix))
	}

	if len(s.classifySamples) > 0 {
		cp := append([]float64(nil), s.classifySamples...)
		sort.Float64s(cp)
		for _, p := range []struct {
			suffix string
			value  float64
		}{
			{".p50", percentileNearestRank(cp, 0.50)},
			{".p90", percentileNearestRank(cp, 0.90)},
			{".p99", percentileNearestRank(cp, 0.99)},
			{".max", cp[len(cp)-1]},
			{".samples", float64(len(cp))},
		} {
			series = append(series, gaugeSeries(metrics.MetricClassifySeconds+p.suffix, p.value, b.baseTags, nowUnix))
		}
	}

	return series
}

func countSeries(metric string, value float64, tags []string, nowUnix int64) datadogV2.MetricSeries {
	return datadogV2.MetricSeries{
		Metric: metric,
		Type:   datadogV2.METRICINTAKETYPE_COUNT.Ptr(),
		Points: []datadogV2.MetricPoint{
			{Timestamp: dd.PtrInt64(nowUnix), Value: dd.PtrFloat64(value)},
		},
		Tags: tags,
	}
}

func gaugeSeries(metric string, value float64, tags []string, nowUnix int64) datadogV2.MetricSeries {
	return datadogV2.MetricSeries{
		Metric: metric,
		Type:   datadogV2.METRICINTAKETYPE_GAUGE.Ptr(),
		Points: []datadogV2.MetricPoint{
			{Timestamp: dd.PtrInt64(nowUnix), Value: dd.PtrFloat64(value)},
		},
		Tags: tags,
	}
}

func withTags(base []string, extras ...string) []string {
	out := make([]string, 0, len(base)+len(extras))
	out = append(out, base...)
	out = append(out, extras...)
	return out
}

func percentileNearestRank(s []float64, p float64) float64 {
	n := len(s)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return s[0]
	}
	if p >= 1 {
		return s[n-1]
	}
	idx := int(p*float64(n-1) + 0.5)
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return s[idx]
}

var _ metrics.Backend = (*Backend)(nil)

// ParseTagsCSV parses comma-separated tags like "env:prod,team:analytics".
func ParseTagsCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

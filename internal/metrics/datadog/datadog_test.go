package datadog

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"

	"github.com/sfc-gh-sweingartner/CortexCharts/internal/metrics"
)

// fakeSubmitter captures payloads submitted by Backend.Flush().
type fakeSubmitter struct {
	mu       sync.Mutex
	payloads []datadogV2.MetricPayload
	err      error
}

func (f *fakeSubmitter) SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, body)
	return datadogV2.IntakePayloadAccepted{}, nil, f.err
}

func (f *fakeSubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func (f *fakeSubmitter) last() datadogV2.MetricPayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payloads[len(f.payloads)-1]
}

// neverTicker returns a ticker that never fires, so tests control flushing
// explicitly.
func neverTicker(time.Duration) *time.Ticker {
	t := time.NewTicker(time.Hour)
	t.Stop()
	return t
}

func newTestBackend(t *testing.T, fake *fakeSubmitter) *Backend {
	t.Helper()
	b, err := NewBackend(context.Background(), Options{
		JobName:   "test",
		now:       func() time.Time { return time.Unix(1700000000, 0) },
		newTicker: neverTicker,
		submitter: fake,
	})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	return b
}

func seriesByMetric(p datadogV2.MetricPayload) map[string]datadogV2.MetricSeries {
	out := map[string]datadogV2.MetricSeries{}
	for _, s := range p.Series {
		out[s.Metric] = s
	}
	return out
}

func TestFlushSubmitsBufferedSeries(t *testing.T) {
	fake := &fakeSubmitter{}
	b := newTestBackend(t, fake)
	defer b.Close()

	b.Count(metrics.MetricChartsSelected, 1, metrics.Tags{"archetype": "chart1"})
	b.Count(metrics.MetricChartsSelected, 1, metrics.Tags{"archetype": "chart1"})
	b.Count(metrics.MetricChartsSelected, 1, metrics.Tags{"archetype": "chart5"})
	b.Count(metrics.MetricChartsNoMatch, 1, nil)
	b.Observe(metrics.MetricClassifySeconds, 0.010, nil)
	b.Observe(metrics.MetricClassifySeconds, 0.030, nil)

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if fake.count() != 1 {
		t.Fatalf("payloads = %d, want 1", fake.count())
	}

	got := seriesByMetric(fake.last())

	// Two archetype count series, one no-match, five duration gauges.
	if len(fake.last().Series) != 2+1+5 {
		t.Fatalf("series = %d, want 8", len(fake.last().Series))
	}
	if _, ok := got[metrics.MetricChartsSelected]; !ok {
		t.Fatalf("no selected series in payload")
	}

	found := map[string]float64{}
	for _, s := range fake.last().Series {
		if s.Metric != metrics.MetricChartsSelected {
			continue
		}
		for _, tag := range s.Tags {
			if tag == "archetype:chart1" || tag == "archetype:chart5" {
				found[tag] = *s.Points[0].Value
			}
		}
	}
	if found["archetype:chart1"] != 2 || found["archetype:chart5"] != 1 {
		t.Fatalf("selected counts = %v", found)
	}

	if p50 := got[metrics.MetricClassifySeconds+".p50"]; *p50.Points[0].Value != 0.010 {
		t.Errorf("p50 = %v, want 0.010", *p50.Points[0].Value)
	}
	if max := got[metrics.MetricClassifySeconds+".max"]; *max.Points[0].Value != 0.030 {
		t.Errorf("max = %v, want 0.030", *max.Points[0].Value)
	}
	if ts := got[metrics.MetricChartsNoMatch].Points[0].Timestamp; *ts != 1700000000 {
		t.Errorf("timestamp = %d, want injected clock", *ts)
	}
}

func TestFlushEmptyIsNoop(t *testing.T) {
	fake := &fakeSubmitter{}
	b := newTestBackend(t, fake)
	defer b.Close()

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if fake.count() != 0 {
		t.Fatalf("empty flush submitted %d payloads", fake.count())
	}
}

func TestFlushResetsBuffers(t *testing.T) {
	fake := &fakeSubmitter{}
	b := newTestBackend(t, fake)
	defer b.Close()

	b.Count(metrics.MetricChartsSelected, 1, metrics.Tags{"archetype": "chart1"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := b.Flush(); err != nil {
		t.Fatalf("second Flush: %v", err)
	}
	if fake.count() != 1 {
		t.Fatalf("payloads = %d, want 1 (buffers reset)", fake.count())
	}
}

func TestFlushPropagatesSubmitError(t *testing.T) {
	wantErr := errors.New("intake down")
	fake := &fakeSubmitter{err: wantErr}
	b := newTestBackend(t, fake)
	defer b.Close()

	b.Count(metrics.MetricChartsNoMatch, 1, nil)
	if err := b.Flush(); !errors.Is(err, wantErr) {
		t.Fatalf("Flush = %v, want %v", err, wantErr)
	}
	// Buffers reset even on failure: delivery is best effort.
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush after failure = %v, want nil (empty)", err)
	}
}

func TestUnknownMetricsDropped(t *testing.T) {
	fake := &fakeSubmitter{}
	b := newTestBackend(t, fake)
	defer b.Close()

	b.Count("something.else", 1, nil)
	b.Observe("something.else", 1, nil)
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if fake.count() != 0 {
		t.Fatalf("unknown metrics were submitted")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	fake := &fakeSubmitter{}
	b := newTestBackend(t, fake)

	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestParseTagsCSV(t *testing.T) {
	t.Parallel()

	got := ParseTagsCSV(" env:prod , team:analytics ,, ")
	if len(got) != 2 || got[0] != "env:prod" || got[1] != "team:analytics" {
		t.Fatalf("ParseTagsCSV = %v", got)
	}
	if got := ParseTagsCSV(""); got != nil {
		t.Fatalf("ParseTagsCSV(\"\") = %v, want nil", got)
	}
}

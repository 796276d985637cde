package metrics

import (
	"sync/atomic"
	"time"
)

// Collector keeps process-wide counters. All methods are safe on a nil
// receiver so handlers can run without metrics.
type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64
	scoresSaved     uint64
	autoPopulated   uint64
	xlsxExports     uint64
	pdfExports      uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) ScoresSaved(n int) {
	if c == nil || n <= 0 {
		return
	}
	atomic.AddUint64(&c.scoresSaved, uint64(n))
}

func (c *Collector) AutoPopulated(n int) {
	if c == nil || n <= 0 {
		return
	}
	atomic.AddUint64(&c.autoPopulated, uint64(n))
}

func (c *Collector) Export(format string) {
	if c == nil {
		return
	}
	switch format {
	case "xlsx":
		atomic.AddUint64(&c.xlsxExports, 1)
	case "pdf":
		atomic.AddUint64(&c.pdfExports, 1)
	}
}

func (c *Collector) Snapshot() map[string]any {
	if c == nil {
		return map[string]any{}
	}
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":      total,
		"errorsTotal":        errs,
		"rateLimitedTotal":   limited,
		"avgDurationMs":      avg,
		"totalDurationMs":    totalMs,
		"scoresSavedTotal":   atomic.LoadUint64(&c.scoresSaved),
		"autoPopulatedTotal": atomic.LoadUint64(&c.autoPopulated),
		"xlsxExportsTotal":   atomic.LoadUint64(&c.xlsxExports),
		"pdfExportsTotal":    atomic.LoadUint64(&c.pdfExports),
	}
}

package metrics

import (
	"testing"
	"time"
)

func TestCollectorSnapshot(t *testing.T) {
	c := New()
	c.Record(200, 10*time.Millisecond)
	c.Record(503, 30*time.Millisecond)
	c.Record(429, 0)
	c.ScoresSaved(20)
	c.ScoresSaved(-1)
	c.AutoPopulated(3)
	c.Export("xlsx")
	c.Export("pdf")
	c.Export("csv")

	snap := c.Snapshot()
	if snap["requestsTotal"] != uint64(3) {
		t.Fatalf("expected 3 requests, got %v", snap["requestsTotal"])
	}
	if snap["errorsTotal"] != uint64(1) || snap["rateLimitedTotal"] != uint64(1) {
		t.Fatalf("unexpected error counters: %v", snap)
	}
	if snap["avgDurationMs"] != float64(40)/3 {
		t.Fatalf("unexpected average duration: %v", snap["avgDurationMs"])
	}
	if snap["scoresSavedTotal"] != uint64(20) || snap["autoPopulatedTotal"] != uint64(3) {
		t.Fatalf("unexpected domain counters: %v", snap)
	}
	if snap["xlsxExportsTotal"] != uint64(1) || snap["pdfExportsTotal"] != uint64(1) {
		t.Fatalf("unexpected export counters: %v", snap)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.Record(200, time.Second)
	c.ScoresSaved(1)
	c.Export("pdf")
	if len(c.Snapshot()) != 0 {
		t.Fatal("expected empty snapshot from nil collector")
	}
}

package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	metrics.ObserveFile(true)
	metrics.ObserveFile(false)
	metrics.ObserveReference("RULE-SET", true, 20*time.Millisecond)
	metrics.ObserveRules(map[string]int{"DOMAIN": 3, "IP-CIDR": 2})
	metrics.ObserveRules(map[string]int{"DOMAIN": 1})

	if got := testutil.ToFloat64(metrics.filesTotal.WithLabelValues("success")); got != 1 {
		t.Fatalf("expected 1 successful file, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.referencesTotal.WithLabelValues("RULE-SET", "success")); got != 1 {
		t.Fatalf("expected 1 resolved reference, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.rulesTotal.WithLabelValues("DOMAIN")); got != 4 {
		t.Fatalf("expected 4 DOMAIN rules, got %v", got)
	}
	if _, err := reg.Gather(); err != nil {
		t.Fatalf("expected metrics gather to succeed: %v", err)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveFile(true)
	metrics.ObserveReference("DOMAIN-SET", false, time.Second)
	metrics.ObserveRules(map[string]int{"DOMAIN": 1})
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	metrics.ObserveFile(true)

	path := filepath.Join(t.TempDir(), "rulexpand.prom")
	if err := WriteTextfile(path, reg); err != nil {
		t.Fatalf("WriteTextfile error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), `rulexpand_files_total{result="success"} 1`) {
		t.Fatalf("unexpected textfile content:\n%s", data)
	}
}

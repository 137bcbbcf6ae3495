package resolve

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rulexpand/rulexpand/internal/observability"
	"github.com/rulexpand/rulexpand/internal/rules"
)

type stubFetcher map[string]string

func (s stubFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	body, ok := s[url]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return []byte(body), nil
}

func TestResolveRuleSet(t *testing.T) {
	fetcher := stubFetcher{
		"https://example.test/rules.list": "# Total: 2\nIP-CIDR,10.0.0.0/8,PROXY\n\n# comment\nDOMAIN,foo.com,PROXY\n",
	}

	exp, err := New(fetcher).Resolve(context.Background(), rules.KindRuleSet, "https://example.test/rules.list")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}

	want := []string{"IP-CIDR,10.0.0.0/8,PROXY,no-resolve", "DOMAIN,foo.com,PROXY"}
	if !reflect.DeepEqual(exp.Rules, want) {
		t.Fatalf("expected %q, got %q", want, exp.Rules)
	}
	if exp.DeclaredTotal != 2 {
		t.Fatalf("expected declared total 2, got %d", exp.DeclaredTotal)
	}
	if exp.Downloaded() != 2 {
		t.Fatalf("expected 2 downloaded, got %d", exp.Downloaded())
	}
}

func TestResolveDomainSet(t *testing.T) {
	fetcher := stubFetcher{
		"https://example.test/set.txt": "# TOTAL: 7\nexample.com\n.cdn.example.net\nDOMAIN,exact.test\nIP-CIDR,1.1.1.1/32\n",
	}

	exp, err := New(fetcher).Resolve(context.Background(), rules.KindDomainSet, "https://example.test/set.txt")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}

	want := []string{
		"DOMAIN-SUFFIX,example.com",
		"DOMAIN-SUFFIX,.cdn.example.net",
		"DOMAIN,exact.test",
		"IP-CIDR,1.1.1.1/32",
	}
	if !reflect.DeepEqual(exp.Rules, want) {
		t.Fatalf("expected %q, got %q", want, exp.Rules)
	}
	if exp.DeclaredTotal != 7 {
		t.Fatalf("expected declared total 7, got %d", exp.DeclaredTotal)
	}
}

func TestResolveFetchFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	resolver := New(stubFetcher{})
	resolver.SetMetrics(metrics)

	exp, err := resolver.Resolve(context.Background(), rules.KindRuleSet, "https://example.test/missing.list")
	if err == nil {
		t.Fatal("expected fetch error")
	}
	if exp.Downloaded() != 0 {
		t.Fatalf("expected no rules, got %d", exp.Downloaded())
	}

	count, err := testutil.GatherAndCount(reg, "rulexpand_references_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one reference series, got %d", count)
	}
}

func TestResolveRejectsLiteralKind(t *testing.T) {
	if _, err := New(stubFetcher{}).Resolve(context.Background(), rules.KindDomain, "x"); err == nil {
		t.Fatal("expected error for non-reference kind")
	}
}

func TestDeclaredTotal(t *testing.T) {
	cases := []struct {
		line  string
		total int
		ok    bool
	}{
		{"# Total: 42", 42, true},
		{"# TOTAL: 5", 5, true},
		{"# NAME: x\t# Total:  9 ", 9, true},
		{"# total: 42", 0, false},
		{"# Total: many", 0, false},
		{"# Updated: 2024-01-01 10:00:00", 0, false},
		{"Total: 3", 0, false},
	}

	for _, tt := range cases {
		total, ok := DeclaredTotal(tt.line)
		if total != tt.total || ok != tt.ok {
			t.Fatalf("DeclaredTotal(%q) expected (%d,%v) got (%d,%v)", tt.line, tt.total, tt.ok, total, ok)
		}
	}
}

func TestExpandWithoutTotal(t *testing.T) {
	exp, err := Expand(rules.KindRuleSet, "u", []byte("GEOIP,CN\n"))
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}
	if exp.DeclaredTotal != 0 {
		t.Fatalf("expected no declared total, got %d", exp.DeclaredTotal)
	}
	if exp.Rules[0] != "GEOIP,CN,no-resolve" {
		t.Fatalf("unexpected rule %q", exp.Rules[0])
	}
}

func TestExpandKeepsTotalOnParseFailure(t *testing.T) {
	exp, err := Expand(rules.KindRuleSet, "u", []byte("# Total: 3\n# Total: n/a\nDOMAIN,a.com\n"))
	if err != nil {
		t.Fatalf("Expand error: %v", err)
	}
	if exp.DeclaredTotal != 3 {
		t.Fatalf("expected declared total to stay 3, got %d", exp.DeclaredTotal)
	}
}

// Package resolve expands RULE-SET and DOMAIN-SET references into local rules.
package resolve

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rulexpand/rulexpand/internal/normalize"
	"github.com/rulexpand/rulexpand/internal/observability"
	"github.com/rulexpand/rulexpand/internal/rules"
)

// Fetcher returns the raw content of a remote document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Expansion is the outcome of resolving one reference.
type Expansion struct {
	URL  string
	Kind rules.Kind
	// Rules are the normalized entries in document order.
	Rules []string
	// DeclaredTotal is the count the document reports about itself, 0 if absent.
	DeclaredTotal int
}

func (e Expansion) Downloaded() int {
	return len(e.Rules)
}

type Resolver struct {
	fetcher Fetcher
	metrics *observability.Metrics
}

func New(fetcher Fetcher) *Resolver {
	return &Resolver{fetcher: fetcher}
}

func (r *Resolver) SetMetrics(metrics *observability.Metrics) {
	r.metrics = metrics
}

// Resolve fetches url and normalizes its entries for kind. A fetch error is
// returned as is; callers treat it as a reference contributing no rules.
func (r *Resolver) Resolve(ctx context.Context, kind rules.Kind, url string) (Expansion, error) {
	if kind != rules.KindRuleSet && kind != rules.KindDomainSet {
		return Expansion{}, fmt.Errorf("%s is not a reference kind", kind)
	}

	start := time.Now()
	body, err := r.fetcher.Fetch(ctx, url)
	r.metrics.ObserveReference(kind.String(), err == nil, time.Since(start))
	if err != nil {
		return Expansion{}, fmt.Errorf("fetch %s: %w", url, err)
	}

	exp, err := Expand(kind, url, body)
	if err != nil {
		return Expansion{}, fmt.Errorf("read %s: %w", url, err)
	}
	return exp, nil
}

// Expand normalizes an already fetched document.
func Expand(kind rules.Kind, url string, body []byte) (Expansion, error) {
	exp := Expansion{URL: url, Kind: kind}

	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if total, ok := DeclaredTotal(line); ok {
				exp.DeclaredTotal = total
			}
			continue
		}

		switch kind {
		case rules.KindRuleSet:
			exp.Rules = append(exp.Rules, normalize.RuleSetEntry(line))
		case rules.KindDomainSet:
			exp.Rules = append(exp.Rules, normalize.DomainSetEntry(line))
		}
	}
	if err := scanner.Err(); err != nil {
		return Expansion{}, err
	}
	return exp, nil
}

// DeclaredTotal extracts the count from a "# Total: N" or "# TOTAL: N"
// comment. The value after the last colon must be an integer.
func DeclaredTotal(line string) (int, bool) {
	if !strings.HasPrefix(line, "#") {
		return 0, false
	}
	if !strings.Contains(line, "Total:") && !strings.Contains(line, "TOTAL:") {
		return 0, false
	}
	idx := strings.LastIndex(line, ":")
	total, err := strconv.Atoi(strings.TrimSpace(line[idx+1:]))
	if err != nil {
		return 0, false
	}
	return total, true
}

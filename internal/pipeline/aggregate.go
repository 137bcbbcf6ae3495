package pipeline

import (
	"context"

	"github.com/rulexpand/rulexpand/internal/logging"
	"github.com/rulexpand/rulexpand/internal/normalize"
	"github.com/rulexpand/rulexpand/internal/report"
	"github.com/rulexpand/rulexpand/internal/resolve"
	"github.com/rulexpand/rulexpand/internal/rules"
)

// Resolver expands one reference directive.
type Resolver interface {
	Resolve(ctx context.Context, kind rules.Kind, url string) (resolve.Expansion, error)
}

// Aggregate is the normalized content of one input file.
type Aggregate struct {
	Rules      []string
	Sources    []report.Source
	RuleSets   int
	DomainSets int
}

// Aggregator merges literal rules and reference expansions in file order.
type Aggregator struct {
	Resolver Resolver
	Logger   logging.Logger
	// ExpandDomainSets resolves DOMAIN-SET references; when false they are
	// kept as truncated literal directives.
	ExpandDomainSets bool
}

func (a *Aggregator) Aggregate(ctx context.Context, lines []rules.Line) Aggregate {
	var out Aggregate
	for _, line := range lines {
		if !a.isExpanded(line) {
			if rule, ok := normalize.Literal(line); ok {
				out.Rules = append(out.Rules, rule)
			}
			continue
		}

		url := line.URL()
		if url == "" {
			a.Logger.Warn("reference without url skipped", "line", line.Raw)
			continue
		}
		a.Logger.Info("expanding reference", "kind", line.Tag, "url", url)
		exp, err := a.Resolver.Resolve(ctx, line.Kind, url)
		if err != nil {
			a.Logger.Error("reference skipped", "kind", line.Tag, "url", url, "error", err)
			continue
		}

		a.Logger.Info("reference expanded", "kind", line.Tag, "url", url, "rules", exp.Downloaded(), "declared_total", exp.DeclaredTotal)
		out.Rules = append(out.Rules, exp.Rules...)
		out.Sources = append(out.Sources, report.Source{
			URL:           exp.URL,
			Downloaded:    exp.Downloaded(),
			DeclaredTotal: exp.DeclaredTotal,
		})
		if exp.Downloaded() == 0 {
			continue
		}
		if line.Kind == rules.KindDomainSet {
			out.DomainSets++
		} else {
			out.RuleSets++
		}
	}
	return out
}

func (a *Aggregator) isExpanded(line rules.Line) bool {
	if !line.IsReference() {
		return false
	}
	if line.Kind == rules.KindDomainSet {
		return a.ExpandDomainSets
	}
	return true
}

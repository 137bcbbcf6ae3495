package normalize

import (
	"strings"

	"github.com/rulexpand/rulexpand/internal/rules"
)

const noResolve = "no-resolve"

type policy struct {
	// truncate keeps only kind and first field, dropping the routing policy.
	truncate bool
	// annotate appends no-resolve so the rule never triggers DNS lookups.
	annotate bool
}

var policies = map[rules.Kind]policy{
	rules.KindOther:         {},
	rules.KindUnknown:       {},
	rules.KindDomain:        {truncate: true},
	rules.KindDomainSuffix:  {truncate: true},
	rules.KindDomainKeyword: {truncate: true},
	rules.KindDomainSet:     {truncate: true},
	rules.KindIPCIDR:        {annotate: true},
	rules.KindIPCIDR6:       {annotate: true},
	rules.KindGeoIP:         {annotate: true},
	rules.KindIPASN:         {annotate: true},
	rules.KindProcessName:   {},
	rules.KindUserAgent:     {},
	rules.KindURLRegex:      {},
	rules.KindAnd:           {},
	rules.KindOr:            {},
	rules.KindNot:           {},
	rules.KindRuleSet:       {},
}

// Literal normalizes a directive that appears directly in an input file.
// It returns false when the line must be dropped.
func Literal(line rules.Line) (string, bool) {
	p := policies[line.Kind]
	out := line.Raw
	if p.truncate {
		if len(line.Fields) < 1 {
			return "", false
		}
		out = line.Tag + rules.Delimiter + line.Fields[0]
	}
	if p.annotate {
		out = NoResolve(out)
	}
	return out, true
}

// RuleSetEntry normalizes one entry of a fetched RULE-SET document. Entries
// keep their own formatting apart from the no-resolve annotation.
func RuleSetEntry(entry string) string {
	return NoResolve(entry)
}

// DomainSetEntry normalizes one entry of a fetched DOMAIN-SET document. Bare
// domains become DOMAIN-SUFFIX directives; full directives pass through.
func DomainSetEntry(entry string) string {
	if strings.Contains(entry, rules.Delimiter) {
		return entry
	}
	return rules.KindDomainSuffix.String() + rules.Delimiter + entry
}

// NoResolve appends the no-resolve flag to IP based directives that lack it.
func NoResolve(rule string) string {
	line := rules.Parse(rule)
	if !policies[line.Kind].annotate {
		return rule
	}
	for _, field := range line.Fields {
		if strings.EqualFold(strings.TrimSpace(field), noResolve) {
			return rule
		}
	}
	return rule + rules.Delimiter + noResolve
}

package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rulexpand/rulexpand/internal/rules"
)

// TimeLayout is the header timestamp format.
const TimeLayout = "2006-01-02 15:04:05"

// kindOrder fixes the header order of well known kinds.
var kindOrder = []string{
	"DOMAIN",
	"DOMAIN-KEYWORD",
	"DOMAIN-SUFFIX",
	"IP-CIDR",
	"IP-CIDR6",
	"PROCESS-NAME",
	"USER-AGENT",
	"GEOIP",
	"DOMAIN-SET",
	"URL-REGEX",
	"AND",
	"OR",
	"NOT",
}

// Stats maps a rule tag to its occurrence count.
type Stats map[string]int

type CountItem struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Count buckets rules by the text before their first delimiter.
func Count(ruleLines []string) Stats {
	stats := Stats{}
	for _, rule := range ruleLines {
		stats[rules.TagOf(rule)]++
	}
	return stats
}

func (s Stats) Total() int {
	total := 0
	for _, n := range s {
		total += n
	}
	return total
}

// Ordered returns the non-zero counts in header order: well known kinds
// first, then any other tag sorted lexically.
func (s Stats) Ordered() []CountItem {
	items := make([]CountItem, 0, len(s))
	known := make(map[string]struct{}, len(kindOrder))
	for _, kind := range kindOrder {
		known[kind] = struct{}{}
		if n := s[kind]; n > 0 {
			items = append(items, CountItem{Key: kind, Count: n})
		}
	}

	extra := make([]string, 0)
	for key, n := range s {
		if _, ok := known[key]; ok || n <= 0 {
			continue
		}
		extra = append(extra, key)
	}
	sort.Strings(extra)
	for _, key := range extra {
		items = append(items, CountItem{Key: key, Count: s[key]})
	}
	return items
}

// Source is the provenance of one resolved reference.
type Source struct {
	URL           string `json:"url"`
	Downloaded    int    `json:"downloaded"`
	DeclaredTotal int    `json:"declared_total,omitempty"`
}

type Header struct {
	Name    string
	Updated time.Time
	Sources []Source
	Stats   Stats
}

func RenderHeader(h Header) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Name: %s\n", h.Name)
	fmt.Fprintf(&b, "# Updated: %s\n", h.Updated.Format(TimeLayout))
	b.WriteString("#\n")

	if len(h.Sources) > 0 {
		b.WriteString("# Source RULE-SETs:\n")
		for i, src := range h.Sources {
			fmt.Fprintf(&b, "#   %d. %s\n", i+1, src.URL)
			if src.DeclaredTotal > 0 {
				fmt.Fprintf(&b, "#      Downloaded: %d rules (Source Total: %d)\n", src.Downloaded, src.DeclaredTotal)
			} else {
				fmt.Fprintf(&b, "#      Downloaded: %d rules\n", src.Downloaded)
			}
		}
		b.WriteString("#\n")
	}

	for _, item := range h.Stats.Ordered() {
		fmt.Fprintf(&b, "# %s: %d\n", item.Key, item.Count)
	}
	fmt.Fprintf(&b, "# Total: %d\n", h.Stats.Total())

	return b.String()
}

// Render produces a complete output document: header, a blank separator and
// one newline terminated rule per line.
func Render(h Header, ruleLines []string) []byte {
	var b strings.Builder
	b.WriteString(RenderHeader(h))
	b.WriteString("\n")
	for _, rule := range ruleLines {
		b.WriteString(rule)
		b.WriteString("\n")
	}
	return []byte(b.String())
}

// FileResult describes how one input file was processed.
type FileResult struct {
	Name       string `json:"name"`
	Output     string `json:"output,omitempty"`
	RuleSets   int    `json:"rule_sets"`
	DomainSets int    `json:"domain_sets"`
	Rules      int    `json:"rules"`
	Error      string `json:"error,omitempty"`
}

func (r FileResult) OK() bool {
	return r.Error == ""
}

type Summary struct {
	Start time.Time    `json:"start"`
	End   time.Time    `json:"end"`
	Files []FileResult `json:"files"`
}

func (s Summary) Succeeded() int {
	n := 0
	for _, f := range s.Files {
		if f.OK() {
			n++
		}
	}
	return n
}

func RenderText(summary Summary) string {
	var b strings.Builder
	for _, f := range summary.Files {
		if !f.OK() {
			fmt.Fprintf(&b, "- %s: failed: %s\n", f.Name, f.Error)
			continue
		}
		fmt.Fprintf(&b, "- %s: %d rules (%d RULE-SET, %d DOMAIN-SET expanded)\n", f.Name, f.Rules, f.RuleSets, f.DomainSets)
	}
	fmt.Fprintf(&b, "Done: %d/%d files succeeded in %s\n", summary.Succeeded(), len(summary.Files), summary.End.Sub(summary.Start).Round(time.Millisecond))
	return b.String()
}

func RenderJSON(summary Summary) ([]byte, error) {
	return json.MarshalIndent(summary, "", "  ")
}

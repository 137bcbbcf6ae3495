package rules

type Kind int

const (
	KindOther Kind = iota
	KindUnknown
	KindDomain
	KindDomainSuffix
	KindDomainKeyword
	KindDomainSet
	KindIPCIDR
	KindIPCIDR6
	KindGeoIP
	KindIPASN
	KindProcessName
	KindUserAgent
	KindURLRegex
	KindAnd
	KindOr
	KindNot
	KindRuleSet
)

// OtherTag is the tag reported for lines without a delimiter.
const OtherTag = "OTHER"

const Delimiter = ","

var kindTags = map[Kind]string{
	KindOther:         OtherTag,
	KindDomain:        "DOMAIN",
	KindDomainSuffix:  "DOMAIN-SUFFIX",
	KindDomainKeyword: "DOMAIN-KEYWORD",
	KindDomainSet:     "DOMAIN-SET",
	KindIPCIDR:        "IP-CIDR",
	KindIPCIDR6:       "IP-CIDR6",
	KindGeoIP:         "GEOIP",
	KindIPASN:         "IP-ASN",
	KindProcessName:   "PROCESS-NAME",
	KindUserAgent:     "USER-AGENT",
	KindURLRegex:      "URL-REGEX",
	KindAnd:           "AND",
	KindOr:            "OR",
	KindNot:           "NOT",
	KindRuleSet:       "RULE-SET",
}

var tagKinds = func() map[string]Kind {
	out := make(map[string]Kind, len(kindTags))
	for kind, tag := range kindTags {
		if kind == KindOther {
			continue
		}
		out[tag] = kind
	}
	return out
}()

// Kinds lists every kind, in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, int(KindRuleSet)+1)
	for k := KindOther; k <= KindRuleSet; k++ {
		out = append(out, k)
	}
	return out
}

func (k Kind) String() string {
	if tag, ok := kindTags[k]; ok {
		return tag
	}
	return "UNKNOWN"
}

// KindOf maps a directive tag to its kind. Tags outside the known set map to
// KindUnknown.
func KindOf(tag string) Kind {
	if kind, ok := tagKinds[tag]; ok {
		return kind
	}
	return KindUnknown
}

// Line is one classified directive.
type Line struct {
	Kind Kind
	// Tag is the text before the first delimiter, or OtherTag.
	Tag    string
	Fields []string
	Raw    string
}

func (l Line) IsReference() bool {
	return l.Kind == KindRuleSet || l.Kind == KindDomainSet
}

// URL returns the first field of a reference directive.
func (l Line) URL() string {
	if len(l.Fields) == 0 {
		return ""
	}
	return l.Fields[0]
}

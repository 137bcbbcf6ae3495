package rules

import (
	"reflect"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		kind   Kind
		tag    string
		fields []string
	}{
		{"domain", "DOMAIN,example.com,PROXY", KindDomain, "DOMAIN", []string{"example.com", "PROXY"}},
		{"rule-set", "RULE-SET,https://example.test/a.list,DIRECT", KindRuleSet, "RULE-SET", []string{"https://example.test/a.list", "DIRECT"}},
		{"ip-asn", "IP-ASN,13335", KindIPASN, "IP-ASN", []string{"13335"}},
		{"unknown", "DST-PORT,443,DIRECT", KindUnknown, "DST-PORT", []string{"443", "DIRECT"}},
		{"no-delimiter", "  FINAL  ", KindOther, OtherTag, []string{"FINAL"}},
		{"trailing-comma", "DOMAIN,", KindDomain, "DOMAIN", []string{""}},
	}

	for _, tt := range cases {
		got := Parse(tt.input)
		if got.Kind != tt.kind {
			t.Fatalf("%s: expected kind %s, got %s", tt.name, tt.kind, got.Kind)
		}
		if got.Tag != tt.tag {
			t.Fatalf("%s: expected tag %q, got %q", tt.name, tt.tag, got.Tag)
		}
		if !reflect.DeepEqual(got.Fields, tt.fields) {
			t.Fatalf("%s: expected fields %q, got %q", tt.name, tt.fields, got.Fields)
		}
	}
}

func TestLineReference(t *testing.T) {
	line := Parse("DOMAIN-SET,https://example.test/set.txt,PROXY")
	if !line.IsReference() {
		t.Fatal("expected DOMAIN-SET to be a reference")
	}
	if line.URL() != "https://example.test/set.txt" {
		t.Fatalf("unexpected url %q", line.URL())
	}

	if Parse("DOMAIN,example.com").IsReference() {
		t.Fatal("DOMAIN must not be a reference")
	}
	if Parse("MATCH").URL() != "MATCH" {
		t.Fatal("expected opaque field for OTHER line")
	}
}

func TestRead(t *testing.T) {
	input := "# header\n\nDOMAIN,a.com,PROXY\n   \n# note\nGEOIP,CN,DIRECT\n"
	lines, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[1].Kind != KindGeoIP {
		t.Fatalf("expected GEOIP, got %s", lines[1].Kind)
	}
}

func TestTagOf(t *testing.T) {
	cases := map[string]string{
		"DOMAIN-SUFFIX,a.com":  "DOMAIN-SUFFIX",
		"DST-PORT,443":         "DST-PORT",
		"FINAL":                OtherTag,
		"IP-CIDR,1.1.1.1/32,x": "IP-CIDR",
	}
	for input, expected := range cases {
		if got := TagOf(input); got != expected {
			t.Fatalf("TagOf(%q) expected %q, got %q", input, expected, got)
		}
	}
}

func TestKindStringRoundTrip(t *testing.T) {
	for _, kind := range Kinds() {
		if kind == KindOther || kind == KindUnknown {
			continue
		}
		if KindOf(kind.String()) != kind {
			t.Fatalf("kind %s does not round trip", kind)
		}
	}
	if KindOf(OtherTag) != KindUnknown {
		t.Fatal("OTHER tag must not map to a known kind")
	}
}

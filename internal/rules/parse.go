package rules

import (
	"bufio"
	"io"
	"strings"
)

// Parse classifies a single directive. It never fails: a line without a
// delimiter becomes KindOther with the whole trimmed text as its only field.
func Parse(raw string) Line {
	line := strings.TrimSpace(raw)

	tag, rest, found := strings.Cut(line, Delimiter)
	if !found {
		return Line{Kind: KindOther, Tag: OtherTag, Fields: []string{line}, Raw: line}
	}

	return Line{
		Kind:   KindOf(tag),
		Tag:    tag,
		Fields: strings.Split(rest, Delimiter),
		Raw:    line,
	}
}

// Skip reports whether a trimmed line carries no directive.
func Skip(line string) bool {
	return line == "" || strings.HasPrefix(line, "#")
}

// Read parses every directive in r, dropping blank and comment lines.
func Read(r io.Reader) ([]Line, error) {
	var lines []Line
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if Skip(text) {
			continue
		}
		lines = append(lines, Parse(text))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// TagOf returns the statistics bucket of an emitted rule.
func TagOf(rule string) string {
	tag, _, found := strings.Cut(rule, Delimiter)
	if !found {
		return OtherTag
	}
	return tag
}

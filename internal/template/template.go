// Package template implements the line-oriented, score-based text extraction
// engine used by both the fingerprint engine and the parse-and-load
// layer: named templates of field regexps, scored against raw command
// output, with a minimum-score gate instead of best-effort regex fallback.
package template

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldSpec describes one extractable field within a template: a regular
// expression whose first capture group is the value, matched against every
// line of output. Repeatable fields (e.g. stacked-switch HARDWARE/SERIAL_NUMBER
// lists) accumulate every match in line order; non-repeatable fields keep
// only the first.
type FieldSpec struct {
	Name       string
	Pattern    *regexp.Regexp
	Repeatable bool
}

// Template is a named, ordered set of field extractors scored against raw
// command output.
type Template struct {
	Name   string
	Fields []FieldSpec
}

// Result is the outcome of scoring one template against one output.
type Result struct {
	Template string
	Score    int
	Values   map[string][]string
}

// Value returns the first captured value for field, or "" if absent.
func (r Result) Value(field string) string {
	vs := r.Values[field]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// DB is an in-memory template database keyed by template name.
type DB struct {
	templates map[string]Template
}

// NewDB returns an empty template database.
func NewDB() *DB {
	return &DB{templates: make(map[string]Template)}
}

// Register adds or replaces a template.
func (db *DB) Register(t Template) {
	db.templates[t.Name] = t
}

// Get returns the named template.
func (db *DB) Get(name string) (Template, bool) {
	t, ok := db.templates[name]
	return t, ok
}

// score runs t against output and returns the number of populated fields
// weighted by how many lines matched, so a template that explains more of
// the output outscores one that merely fires once.
func score(t Template, output string) Result {
	values := make(map[string][]string)
	lines := strings.Split(output, "\n")

	for _, field := range t.Fields {
		for _, line := range lines {
			m := field.Pattern.FindStringSubmatch(line)
			if m == nil || len(m) < 2 {
				continue
			}
			v := strings.TrimSpace(m[1])
			if v == "" {
				continue
			}
			if !field.Repeatable && len(values[field.Name]) > 0 {
				continue
			}
			values[field.Name] = append(values[field.Name], v)
		}
	}

	total := 0
	for _, vs := range values {
		total += len(vs)
	}
	return Result{Template: t.Name, Score: total, Values: values}
}

// FilterList builds the ordered candidate template name list, most specific
// to least specific, so a vendor+command-exact template is always preferred
// over a generic fallback.
//
//	[vendor]_[command_with_underscores]
//	[vendor]_[base_command]
//	[command_with_underscores]
//	[base_command]
//	[first_word]
func FilterList(vendorPrefix, command string) []string {
	underscored := toUnderscore(command)
	fields := strings.Fields(command)

	var baseCommand, firstWord string
	if len(fields) > 0 {
		firstWord = fields[0]
	}
	if len(fields) >= 2 {
		baseCommand = toUnderscore(strings.Join(fields[:2], " "))
	} else {
		baseCommand = firstWord
	}

	var out []string
	if vendorPrefix != "" {
		out = append(out, vendorPrefix+"_"+underscored)
		if baseCommand != underscored {
			out = append(out, vendorPrefix+"_"+baseCommand)
		}
	}
	out = append(out, underscored)
	if baseCommand != underscored {
		out = append(out, baseCommand)
	}
	if firstWord != "" && firstWord != baseCommand {
		out = append(out, firstWord)
	}
	return dedupe(out)
}

func toUnderscore(s string) string {
	return strings.Join(strings.Fields(s), "_")
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// Best scores every candidate in filterList that exists in db, weighting
// earlier (more specific) candidates more heavily, and returns the
// highest-scoring result. It returns an error if no candidate reaches
// minScore — the engine deliberately refuses to fall back to ad-hoc
// regexes, which would silently corrupt data.
func (db *DB) Best(filterList []string, output string, minScore int) (Result, error) {
	var best Result
	found := false

	for i, name := range filterList {
		t, ok := db.templates[name]
		if !ok {
			continue
		}
		r := score(t, output)
		// Specificity weighting: earlier candidates in the filter list carry
		// more weight per populated field, so a generic template cannot
		// out-score a specific one merely by having more fields.
		weight := len(filterList) - i
		weighted := r.Score * weight
		r.Score = weighted
		if !found || r.Score > best.Score {
			best = r
			found = true
		}
	}

	if !found {
		return Result{}, fmt.Errorf("template: no registered template among candidates %v", filterList)
	}
	if best.Score < minScore {
		return best, fmt.Errorf("template: best candidate %s scored %d, below minimum %d",
			best.Template, best.Score, minScore)
	}
	return best, nil
}

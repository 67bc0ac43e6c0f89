// Package redact scrubs personally identifying strings from transcript
// segments before they are stored or exported.
package redact

import (
	"regexp"
)

// Kind names a category of redacted data and appears in the sentinel token.
type Kind string

const (
	KindPersonalNumber Kind = "PNR"
	KindEmail          Kind = "EMAIL"
	KindAddress        Kind = "ADDRESS"
	KindPhone          Kind = "PHONE"
)

// Rule is one pattern/replacement pair. Rules are value objects passed as
// explicit configuration; disable one by flipping Enabled rather than by
// reordering the slice.
type Rule struct {
	Kind    Kind
	Pattern *regexp.Regexp
	Enabled bool
}

// Sentinel returns the replacement token for the rule's kind. Tokens contain
// no digits or address-like text, so no later rule can match inside one;
// re-running the pipeline over redacted text is a no-op.
func (r Rule) Sentinel() string {
	return "[REDACTED-" + string(r.Kind) + "]"
}

// DefaultRules returns the standard rule set, ordered. The personal identity
// number rule requires the century digits or the customary separator so it
// does not swallow phone numbers.
func DefaultRules() []Rule {
	return []Rule{
		{
			Kind:    KindPersonalNumber,
			Pattern: regexp.MustCompile(`\b(?:\d{6}|\d{8})[-+]\d{4}\b|\b(?:19|20)\d{10}\b`),
			Enabled: true,
		},
		{
			Kind:    KindEmail,
			Pattern: regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
			Enabled: true,
		},
		{
			Kind:    KindAddress,
			Pattern: regexp.MustCompile(`\b[A-ZÅÄÖ][a-zåäöé]*(?:gatan|vägen|gränd|torget|torg|allén|stigen|backen|plan)\s+\d+[A-Za-z]?\b`),
			Enabled: true,
		},
		{
			Kind:    KindPhone,
			Pattern: regexp.MustCompile(`(?:\+46[-\s]?|0)\d{1,3}[-\s]?\d{2,3}\s?\d{2}\s?\d{2,3}\b`),
			Enabled: true,
		},
	}
}

// Segment is one transcript utterance. Only Text is subject to redaction;
// the remaining fields pass through unchanged.
type Segment struct {
	Speaker string
	StartMS int
	EndMS   int
	Text    string
}

// Pipeline applies its rules in order over segment text.
type Pipeline struct {
	rules []Rule
}

// New creates a pipeline over the given rules. Pass DefaultRules() for the
// standard set.
func New(rules []Rule) *Pipeline {
	return &Pipeline{rules: rules}
}

// RedactText applies every enabled rule to s.
func (p *Pipeline) RedactText(s string) string {
	for _, rule := range p.rules {
		if !rule.Enabled {
			continue
		}
		s = rule.Pattern.ReplaceAllString(s, rule.Sentinel())
	}
	return s
}

// Redact returns a copy of the segment with its text scrubbed.
func (p *Pipeline) Redact(seg Segment) Segment {
	seg.Text = p.RedactText(seg.Text)
	return seg
}

package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactText(t *testing.T) {
	p := New(DefaultRules())

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "personal number with separator",
			in:   "Kunden är 850412-1234 enligt avtalet",
			want: "Kunden är [REDACTED-PNR] enligt avtalet",
		},
		{
			name: "personal number twelve digits",
			in:   "personnummer 198504121234 noterat",
			want: "personnummer [REDACTED-PNR] noterat",
		},
		{
			name: "email",
			in:   "maila anna.svensson@example.se imorgon",
			want: "maila [REDACTED-EMAIL] imorgon",
		},
		{
			name: "street address",
			in:   "leverans till Storgatan 12B klockan tre",
			want: "leverans till [REDACTED-ADDRESS] klockan tre",
		},
		{
			name: "phone number",
			in:   "ring 070-123 45 67 innan fem",
			want: "ring [REDACTED-PHONE] innan fem",
		},
		{
			name: "international phone",
			in:   "nås på +46 70 123 45 67 hela dagen",
			want: "nås på [REDACTED-PHONE] hela dagen",
		},
		{
			name: "multiple kinds in one segment",
			in:   "Anna (anna@example.com) bor på Kungsvägen 3",
			want: "Anna ([REDACTED-EMAIL]) bor på [REDACTED-ADDRESS]",
		},
		{
			name: "clean text untouched",
			in:   "vi beslutade att byta leverantör nästa kvartal",
			want: "vi beslutade att byta leverantör nästa kvartal",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, p.RedactText(tc.in))
		})
	}
}

func TestRedactIsIdempotent(t *testing.T) {
	p := New(DefaultRules())

	inputs := []string{
		"Kunden är 850412-1234, maila anna@example.se eller ring 070-123 45 67",
		"bor på Storgatan 12, personnummer 198504121234",
	}
	for _, in := range inputs {
		once := p.RedactText(in)
		twice := p.RedactText(once)
		assert.Equal(t, once, twice, "second pass must be a no-op")
	}
}

func TestDisabledRuleIsSkipped(t *testing.T) {
	rules := DefaultRules()
	for i := range rules {
		if rules[i].Kind == KindEmail {
			rules[i].Enabled = false
		}
	}
	p := New(rules)

	got := p.RedactText("maila anna@example.se om 850412-1234")
	assert.Contains(t, got, "anna@example.se")
	assert.Contains(t, got, "[REDACTED-PNR]")
}

func TestRedactSegmentPreservesMetadata(t *testing.T) {
	p := New(DefaultRules())

	seg := Segment{Speaker: "anna", StartMS: 1000, EndMS: 4200, Text: "mitt nummer är 070-123 45 67"}
	got := p.Redact(seg)

	assert.Equal(t, "anna", got.Speaker)
	assert.Equal(t, 1000, got.StartMS)
	assert.Equal(t, 4200, got.EndMS)
	assert.Equal(t, "mitt nummer är [REDACTED-PHONE]", got.Text)
	assert.Equal(t, "mitt nummer är 070-123 45 67", seg.Text, "input segment must not be mutated")
}

package carrier

import (
	"strings"

	"simops/internal"
	"simops/internal/util"
)

// Canonicalize classifies a scanned SIM number and repairs known OCR noise:
// numbers longer than the carrier's length lose their trailing digits, then
// the carrier's suffix artifact is stripped once.
func (t Table) Canonicalize(raw string) internal.SimCard {
	card := internal.SimCard{Number: raw, Operator: t.UnknownLabel, Raw: raw}
	c, ok := t.Resolve(raw)
	if !ok {
		return card
	}
	card.Operator = c.Label

	if c.Length > 0 && len(card.Number) > c.Length {
		card.Number = card.Number[:c.Length]
	}
	if c.StripSuffix != "" && strings.HasSuffix(card.Number, c.StripSuffix) {
		card.Number = strings.TrimSuffix(card.Number, c.StripSuffix)
	}
	return card
}

// ProcessNumbers canonicalizes every number that starts with the SIM number
// stem and drops the rest.
func (t Table) ProcessNumbers(numbers []string) []internal.SimCard {
	out := make([]internal.SimCard, 0, len(numbers))
	for _, n := range numbers {
		if !strings.HasPrefix(n, t.NumberStem) {
			continue
		}
		out = append(out, t.Canonicalize(n))
	}
	return out
}

// JoinFragments glues OCR text fragments into candidate numbers. A fragment
// starting with stem opens a new number; any other fragment continues the
// current one, so a stem split over several fragments still joins up.
// Candidates are not filtered here; ProcessNumbers drops the ineligible ones.
func JoinFragments(fragments []string, stem string) []string {
	out := []string{}
	current := ""
	for _, f := range fragments {
		digits := util.Digits(f)
		if digits == "" {
			continue
		}
		if strings.HasPrefix(digits, stem) {
			if current != "" {
				out = append(out, current)
			}
			current = digits
			continue
		}
		current += digits
	}
	if current != "" {
		out = append(out, current)
	}
	return out
}

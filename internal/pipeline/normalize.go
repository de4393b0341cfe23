package pipeline

import (
	"padronizador/internal"
	"padronizador/internal/util"
)

// Normalizer maps one raw cell value to its canonical string. It never fails
// and holds no mutable state, so one instance may be shared.
type Normalizer struct {
	rules Rules
}

func NewNormalizer() *Normalizer {
	return &Normalizer{rules: DefaultRules()}
}

func (n *Normalizer) Rules() Rules {
	return n.rules
}

func (n *Normalizer) Normalize(value any) string {
	out, _ := n.NormalizeCell(value)
	return out
}

// NormalizeCell also reports which outcome produced the result.
func (n *Normalizer) NormalizeCell(value any) (string, internal.CellOutcome) {
	text := util.CoerceText(value)
	for _, g := range n.rules.Guards {
		if out, ok := g.Match(value, text); ok {
			return out, g.Outcome
		}
	}

	out := text
	for _, s := range n.rules.Steps {
		out = s.Apply(out)
	}
	if out == "" {
		return out, internal.OutcomeEmptied
	}
	return out, internal.OutcomeNormalized
}

var defaultNormalizer = NewNormalizer()

// Normalize applies the default rules to one value.
func Normalize(value any) string {
	return defaultNormalizer.Normalize(value)
}

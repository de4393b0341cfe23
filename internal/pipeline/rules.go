package pipeline

import (
	"padronizador/internal"
	"padronizador/internal/util"
)

// ExceptionPhrase marks a cell as an administrative note rather than a name.
const ExceptionPhrase = "informação indisponível no site"

// Guard ends normalization early when Match reports true, yielding the
// returned string.
type Guard struct {
	Name    string
	Outcome internal.CellOutcome
	Match   func(value any, text string) (string, bool)
}

// Step rewrites the coerced text. Steps run in order after every guard passed.
type Step struct {
	Name  string
	Apply func(string) string
}

// Rules is the ordered rule set applied by a Normalizer.
type Rules struct {
	Guards []Guard
	Steps  []Step
}

var (
	blankGuard = Guard{
		Name:    "blank",
		Outcome: internal.OutcomeBlank,
		Match: func(value any, text string) (string, bool) {
			if util.IsNull(value) || text == "" {
				return "", true
			}
			return "", false
		},
	}
	exceptionGuard = Guard{
		Name:    "exception-phrase",
		Outcome: internal.OutcomeException,
		Match: func(_ any, text string) (string, bool) {
			if util.ContainsFold(text, ExceptionPhrase) {
				return text, true
			}
			return "", false
		},
	}

	stripAccentsStep   = Step{Name: "strip-accents", Apply: util.StripAccents}
	uppercaseStep      = Step{Name: "uppercase", Apply: util.Upper}
	filterStep         = Step{Name: "filter", Apply: util.KeepUpperASCIIAndSpace}
	collapseSpacesStep = Step{Name: "collapse-spaces", Apply: util.CollapseSpaces}
)

// DefaultRules is the fixed policy: blanks stay blank, cells carrying the
// exception phrase pass through untouched, everything else is reduced to
// uppercase unaccented letters separated by single spaces.
func DefaultRules() Rules {
	return Rules{
		Guards: []Guard{blankGuard, exceptionGuard},
		Steps:  []Step{stripAccentsStep, uppercaseStep, filterStep, collapseSpacesStep},
	}
}

// Names lists the rules in the order they run.
func (r Rules) Names() []string {
	out := make([]string, 0, len(r.Guards)+len(r.Steps)+1)
	for _, g := range r.Guards {
		out = append(out, g.Name)
	}
	out = append(out, "coerce")
	for _, s := range r.Steps {
		out = append(out, s.Name)
	}
	return out
}

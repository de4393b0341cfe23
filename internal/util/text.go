package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// StripAccents decomposes s and drops combining marks: "Ação" -> "Acao".
func StripAccents(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err == nil {
		return out
	}
	b := strings.Builder{}
	for _, r := range norm.NFKD.String(s) {
		if !unicode.Is(unicode.Mn, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Upper applies the full Unicode uppercase mapping, so "ß" becomes "SS".
func Upper(s string) string {
	// Casers are stateful; one per call keeps this safe for concurrent use.
	return cases.Upper(language.Und).String(s)
}

// KeepUpperASCIIAndSpace drops every rune that is neither A-Z nor whitespace.
func KeepUpperASCIIAndSpace(s string) string {
	out := strings.Builder{}
	out.Grow(len(s))
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || unicode.IsSpace(r) {
			out.WriteRune(r)
		}
	}
	return out.String()
}

func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ContainsFold reports whether sub occurs in s ignoring case. Both sides are
// composed first so decomposed accents match their precomposed form.
func ContainsFold(s, sub string) bool {
	s = strings.ToLower(norm.NFC.String(s))
	sub = strings.ToLower(norm.NFC.String(sub))
	return strings.Contains(s, sub)
}

// IsNull reports whether a cell value counts as missing.
func IsNull(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(t)
	case float32:
		return math.IsNaN(float64(t))
	case *string:
		return t == nil
	default:
		return false
	}
}

// CoerceText renders any scalar cell value as text.
func CoerceText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case *string:
		if t == nil {
			return ""
		}
		return *t
	case []byte:
		return string(t)
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int8, int16, int32, int64:
		return fmt.Sprintf("%d", t)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", t)
	case float64:
		if math.IsNaN(t) {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		if math.IsNaN(float64(t)) {
			return ""
		}
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case time.Time:
		return t.Format(time.RFC3339)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func StringPtr(v string) *string {
	return &v
}

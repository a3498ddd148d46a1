// Package normalize canonicalises course codes and names so that catalog data
// and student input compare safely.
package normalize

import (
	"sort"
	"strings"
	"unicode"
)

// CourseCode strips every rune that is not a letter or digit and upper-cases
// the rest. "csc s 201" and "CSCS-201" both become "CSCS201".
func CourseCode(code string) string {
	var b strings.Builder
	b.Grow(len(code))
	for _, r := range code {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// CourseName trims, collapses inner whitespace and title-cases each word.
func CourseName(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

func titleWord(w string) string {
	runes := []rune(strings.ToLower(w))
	upperNext := true
	for i, r := range runes {
		if upperNext && unicode.IsLetter(r) {
			runes[i] = unicode.ToUpper(r)
		}
		// "object-oriented" -> "Object-Oriented"
		upperNext = !unicode.IsLetter(r)
	}
	return string(runes)
}

// Prefix returns the leading alphabetic run of a normalized code:
// "MATH101" -> "MATH". Codes that start with a digit have no prefix.
func Prefix(code string) string {
	code = CourseCode(code)
	for i, r := range code {
		if !unicode.IsLetter(r) {
			return code[:i]
		}
	}
	return code
}

// HasDigit reports whether s contains a decimal digit.
func HasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

// CodeSet normalizes codes into a set. Inputs that normalize to the empty
// string are dropped.
func CodeSet(codes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		if n := CourseCode(c); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// SortedCodes returns the members of a code set in ascending order.
func SortedCodes(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Key folds a free-text label (major or sub-major name) for lookups.
func Key(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

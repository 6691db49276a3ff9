package syncer

import (
	"regexp"
	"sort"
	"unicode"
	"unicode/utf8"
)

// placeholderPattern matches interpolation tokens that must survive
// translation unchanged: {{name}}, {name} and printf verbs such as %s,
// %d, %1$s or %.2f. "%%" is consumed so it never matches as a verb.
// A verb glued to a following letter ("50%off") is prose and is dropped
// in Placeholders.
var placeholderPattern = regexp.MustCompile(
	`\{\{[^{}]+\}\}` +
		`|\{[A-Za-z0-9_.$-]+\}` +
		`|%%` +
		`|%(?:\d+\$)?[-+#0]*\d*(?:\.\d+)?[sdfiuxXoeEgGcqv@]`)

// Placeholders returns the interpolation tokens in s, sorted.
func Placeholders(s string) []string {
	var out []string
	for _, loc := range placeholderPattern.FindAllStringIndex(s, -1) {
		m := s[loc[0]:loc[1]]
		if m == "%%" {
			continue
		}
		if m[0] == '%' && loc[1] < len(s) {
			if r, _ := utf8.DecodeRuneInString(s[loc[1]:]); unicode.IsLetter(r) {
				continue
			}
		}
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// PlaceholdersPreserved reports whether translated carries exactly the
// same multiset of placeholders as source.
func PlaceholdersPreserved(source, translated string) bool {
	want := Placeholders(source)
	if len(want) == 0 {
		return true
	}
	got := Placeholders(translated)
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

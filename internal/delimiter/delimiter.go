// Package delimiter defines statement delimiters and the per-dialect
// policies that decide which delimiter is active while a script is split.
package delimiter

import "strings"

// Delimiter marks the end of one statement.
//
// A SingleLine delimiter is only recognized when it is the sole non-blank
// content of its line. Delimiter is comparable; two delimiters are equal
// when both fields are.
type Delimiter struct {
	Text       string
	SingleLine bool
}

// Predefined delimiters.
var (
	None     = Delimiter{}
	Standard = Delimiter{Text: ";"}
	Oracle   = Delimiter{Text: "/", SingleLine: true}
	MSSQL    = Delimiter{Text: "GO", SingleLine: true}
)

// singleLineSuffixes mark a single-line delimiter in configuration strings.
var singleLineSuffixes = []string{";sl", ":sl"}

// Parse reads a delimiter from a configuration string. A trailing ";sl" or
// ":sl" makes it single-line, so "/;sl" is the Oracle delimiter. Blanks
// around the text are ignored; an empty string yields None.
func Parse(s string) Delimiter {
	s = strings.TrimSpace(s)
	single := false
	for _, suffix := range singleLineSuffixes {
		if len(s) > len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix) {
			s = strings.TrimSpace(s[:len(s)-len(suffix)])
			single = true
			break
		}
	}
	if s == "" {
		return None
	}
	return Delimiter{Text: s, SingleLine: single}
}

// IsEmpty reports whether d is the None delimiter.
func (d Delimiter) IsEmpty() bool { return d.Text == "" }

// IsWord reports whether d consists of letters only, such as GO. Word
// delimiters match case-insensitively and need a word boundary after them.
func (d Delimiter) IsWord() bool {
	if d.Text == "" {
		return false
	}
	for i := 0; i < len(d.Text); i++ {
		c := d.Text[i]
		if !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}

// String renders d in the form accepted by Parse.
func (d Delimiter) String() string {
	if d.SingleLine {
		return d.Text + ";sl"
	}
	return d.Text
}

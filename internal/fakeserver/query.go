package fakeserver

import (
	"regexp"
	"strings"
	"unicode"
)

var nearOperator = regexp.MustCompile(`^NEAR(/\d+)?$`)

// query is a conjunction of terms. A term ending in * matches as a prefix.
type query struct {
	terms []string
}

// parseQuery reads an FTS-style query. Operators (AND, NEAR/n) and quotes are
// dropped, every remaining term is required.
func parseQuery(q string) query {
	var terms []string
	for _, field := range strings.Fields(q) {
		if field == "AND" || nearOperator.MatchString(field) {
			continue
		}
		term := strings.ToLower(strings.Trim(field, `"()`))
		if term == "" || term == "*" {
			continue
		}
		terms = append(terms, term)
	}
	return query{terms: terms}
}

func (q query) matchWord(term, word string) bool {
	if strings.HasSuffix(term, "*") {
		return strings.HasPrefix(word, strings.TrimSuffix(term, "*"))
	}
	return word == term
}

func (q query) matchAny(word string) bool {
	word = strings.ToLower(word)
	for _, term := range q.terms {
		if q.matchWord(term, word) {
			return true
		}
	}
	return false
}

// match returns a score for text if every term occurs in it. Lower scores
// are better.
func (q query) match(text string) (float64, bool) {
	if len(q.terms) == 0 {
		return 0, false
	}
	words := strings.FieldsFunc(strings.ToLower(text), isSeparator)
	hits := 0
	for _, term := range q.terms {
		found := false
		for _, word := range words {
			if q.matchWord(term, word) {
				found = true
				hits++
			}
		}
		if !found {
			return 0, false
		}
	}
	return -float64(hits) / float64(len(words)), true
}

// highlight wraps every matching word of text in <b></b>.
func (q query) highlight(text string) string {
	var out, word strings.Builder
	flush := func() {
		if word.Len() == 0 {
			return
		}
		if q.matchAny(word.String()) {
			out.WriteString("<b>")
			out.WriteString(word.String())
			out.WriteString("</b>")
		} else {
			out.WriteString(word.String())
		}
		word.Reset()
	}
	for _, r := range text {
		if isSeparator(r) {
			flush()
			out.WriteRune(r)
			continue
		}
		word.WriteRune(r)
	}
	flush()
	return out.String()
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

package filter

import (
	"strings"

	"github.com/okholm/feedwatch/internal/models"
)

// Highlight markers wrapped around matched tokens.
const (
	markOpen  = "<mark>"
	markClose = "</mark>"
)

// Tokenize splits a search query into its non-empty whitespace-delimited
// tokens.
func Tokenize(query string) []string {
	return strings.Fields(query)
}

// StripTags removes HTML tags from markup, returning the plain text the
// search matches against. Unterminated tags are dropped to the end.
func StripTags(markup string) string {
	var b strings.Builder
	b.Grow(len(markup))

	inTag := false
	for _, r := range markup {
		switch {
		case inTag:
			if r == '>' {
				inTag = false
			}
		case r == '<':
			inTag = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MatchesTokens reports whether every token occurs, case-insensitively, in
// the event's stripped text. Tokens are conjunctive; an event failing any
// token does not match.
func MatchesTokens(e models.Event, tokens []string) bool {
	text := strings.ToLower(StripTags(e.Message))
	for _, token := range tokens {
		if !strings.Contains(text, strings.ToLower(token)) {
			return false
		}
	}
	return true
}

// Highlight wraps every occurrence of every token inside the markup in a
// highlight marker. Occurrences immediately preceded by '<' or '/' are
// left alone so tag names and closers stay intact.
func Highlight(markup string, tokens []string) string {
	out := markup
	for _, token := range tokens {
		if token == "" {
			continue
		}
		out = highlightToken(out, token)
	}
	return out
}

func highlightToken(markup, token string) string {
	lower := strings.ToLower(markup)
	needle := strings.ToLower(token)

	var b strings.Builder
	b.Grow(len(markup) + 2*(len(markOpen)+len(markClose)))

	pos := 0
	for {
		idx := strings.Index(lower[pos:], needle)
		if idx < 0 {
			b.WriteString(markup[pos:])
			break
		}
		idx += pos

		if idx > 0 && (markup[idx-1] == '<' || markup[idx-1] == '/') {
			end := idx + len(needle)
			b.WriteString(markup[pos:end])
			pos = end
			continue
		}

		b.WriteString(markup[pos:idx])
		b.WriteString(markOpen)
		b.WriteString(markup[idx : idx+len(needle)])
		b.WriteString(markClose)
		pos = idx + len(needle)
	}
	return b.String()
}

// Search returns the events matching the query, newest-first order
// preserved, with the highlighted markup attached as the render
// annotation. An empty query matches everything unhighlighted.
func Search(events []models.Event, query string) []models.Event {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		out := make([]models.Event, len(events))
		copy(out, events)
		return out
	}

	var out []models.Event
	for _, e := range events {
		if !MatchesTokens(e, tokens) {
			continue
		}
		e.Rendered = Highlight(e.Message, tokens)
		out = append(out, e)
	}
	return out
}

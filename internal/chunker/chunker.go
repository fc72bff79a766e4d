// Package chunker cuts text into pieces small enough for services with a
// per-request size cap, and puts translated pieces back together with the
// original paragraph and sentence spacing.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// Piece is one fragment of the input and the whitespace that followed it.
type Piece struct {
	Text string
	Sep  string
}

// Split cuts text into pieces of at most maxBytes bytes of UTF-8. Cuts are
// tried, in order, at:
//  1. Paragraph breaks (a blank line)
//  2. Sentence-ending punctuation followed by whitespace
//  3. Whitespace
//  4. The last rune boundary within maxBytes
//
// Text that already fits, or maxBytes ≤ 0, yields a single piece.
// Joining every Text+Sep reproduces text exactly.
func Split(text string, maxBytes int) []Piece {
	if maxBytes <= 0 || len(text) <= maxBytes {
		return []Piece{{Text: text}}
	}

	var pieces []Piece
	remaining := text
	for len(remaining) > maxBytes {
		end := findCut(remaining, maxBytes)
		next := end
		for next < len(remaining) && isSpace(remaining[next]) {
			next++
		}
		pieces = append(pieces, Piece{Text: remaining[:end], Sep: remaining[end:next]})
		remaining = remaining[next:]
	}
	if remaining != "" {
		pieces = append(pieces, Piece{Text: remaining})
	}
	return pieces
}

// Join rebuilds the text from pieces, substituting texts[i] for pieces[i].Text.
// Missing entries in texts keep the original piece.
func Join(pieces []Piece, texts []string) string {
	var b strings.Builder
	for i, p := range pieces {
		if i < len(texts) {
			b.WriteString(texts[i])
		} else {
			b.WriteString(p.Text)
		}
		b.WriteString(p.Sep)
	}
	return b.String()
}

// findCut returns the byte length of the next piece. It is always > 0.
func findCut(text string, maxBytes int) int {
	limit := maxBytes
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	if limit == 0 {
		_, size := utf8.DecodeRuneInString(text)
		return size
	}
	candidate := text[:limit]

	// 1. Paragraph break.
	para := strings.LastIndex(candidate, "\n\n")
	if crlf := strings.LastIndex(candidate, "\n\r\n"); crlf > para {
		para = crlf
	}
	if para > 0 {
		if end := len(strings.TrimRight(candidate[:para], " \t\r")); end > 0 {
			return end
		}
	}

	// 2. Sentence end.
	for i := len(candidate) - 2; i > 0; i-- {
		switch candidate[i] {
		case '.', '!', '?':
			if isSpace(candidate[i+1]) {
				return i + 1
			}
		}
	}

	// 3. Whitespace.
	for i := len(candidate) - 1; i > 0; i-- {
		if isSpace(candidate[i]) {
			return i
		}
	}

	// 4. Hard cut.
	return limit
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r'
}

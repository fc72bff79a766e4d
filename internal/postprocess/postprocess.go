// Package postprocess strips the wrapping that chat models add around the
// text they were asked to produce.
//
// Every LLM-backed adapter (the rewriter backends and the Ollama translator)
// runs its raw output through Clean before handing it back.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean removes model artifacts and returns the trimmed text:
//  1. reasoning blocks (<think>, <thinking>, <reasoning>, <reflection>)
//  2. a leading preamble such as "Sure, here's a more natural version:"
//  3. a matching pair of quotes around the whole text
func Clean(text string) string {
	text = removeThinkingBlocks(text)
	text = removePreamble(text)
	text = removeQuoteWrapping(text)
	return strings.TrimSpace(text)
}

// RE2 has no backreferences, so each tag pair is spelled out.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`,
)

// An opening tag without its closing tag means the model was cut off mid-thought.
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>|<reflection>).*$`,
)

func removeThinkingBlocks(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Preambles are anchored at the start and must end in a colon, so ordinary
// sentences that happen to begin with "Here is" survive.
var preamblePatterns = []*regexp.Regexp{
	// "[Sure, ]here's [the|a|your] [more natural|rewritten|...] text|version|translation|rewrite:"
	regexp.MustCompile(`(?i)^(?:(?:certainly|sure|of course|okay|ok)[,.!]?\s+)?here(?:'s| is)(?: the| a| your)?(?:\s+[\p{L}-]+){0,3}?\s+(?:text|version|translation|rewrite)\s*:`),
	// "[The] rewritten|corrected|... [text|version|translation]:"
	regexp.MustCompile(`(?i)^(?:the )?(?:rewritten|corrected|revised|humanized|humanised|polished|refined|translated)(?: text| version| translation)?\s*:`),
	// "Translation:" / "Rewrite:" inline, "Output:" only as a line of its own
	regexp.MustCompile(`(?i)^(?:translation|rewrite)\s*:`),
	regexp.MustCompile(`(?i)^output[ \t]*:[ \t]*\r?\n`),
}

func removePreamble(text string) string {
	text = strings.TrimSpace(text)
	for _, re := range preamblePatterns {
		if loc := re.FindStringIndex(text); loc != nil && loc[0] == 0 {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}
	return text
}

// removeQuoteWrapping strips one matching pair of outer quotes:
//
//	"…"  '…'  «…»  “…”  ‘…’
func removeQuoteWrapping(text string) string {
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return text
	}
	first, last := runes[0], runes[n-1]
	if (first == '"' && last == '"') ||
		(first == '\'' && last == '\'') ||
		(first == '«' && last == '»') ||
		(first == '“' && last == '”') ||
		(first == '‘' && last == '’') {
		inner := string(runes[1 : n-1])
		// "a" and "b" is quoted twice, not wrapped once.
		if first == '"' && strings.ContainsRune(inner, '"') {
			return text
		}
		return strings.TrimSpace(inner)
	}
	return text
}

// Package ats scores a resume against a job description the way keyword
// screeners do: tokenize both, measure overlap, and surface what matched
// and what's missing.
package ats

import "strings"

// stopWords are filtered out before matching. Tokens this common carry no
// signal about fit.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"the", "and", "for", "are", "but", "not", "you", "all", "can", "had",
		"her", "was", "one", "our", "out", "has", "have", "his", "him", "she",
		"they", "them", "this", "that", "these", "those", "with", "will",
		"your", "from", "been", "were", "when", "where", "which", "while",
		"what", "who", "whom", "why", "how", "than", "then", "there", "here",
		"about", "into", "over", "under", "after", "before", "between",
		"both", "each", "more", "most", "other", "some", "such", "only",
		"same", "very", "just", "also", "any", "its", "per", "via", "able",
		"well", "work", "working", "years", "year", "including", "strong",
		"experience", "required", "preferred", "must", "should", "would",
		"could", "candidate", "role", "team", "skills", "knowledge",
		"ability", "using", "etc",
	} {
		stopWords[w] = struct{}{}
	}
}

func isWordChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '+' || r == '#' || r == '.':
		return true
	}
	return false
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func hasAlnum(s string) bool {
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

// Keywords tokenizes text for matching. `+`, `#`, and `.` stay word
// characters so c++, c#, and node.js survive; sentence-final periods are
// trimmed. Tokens shorter than three runes are dropped unless they carry
// a + or # (c#), as are stop words and bare numbers. The result is
// unique, in order of first appearance.
func Keywords(text string) []string {
	text = strings.ToLower(text)

	var out []string
	seen := map[string]struct{}{}
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		tok := strings.TrimRight(text[start:end], ".")
		start = -1
		if !hasAlnum(tok) || allDigits(tok) {
			return
		}
		if len([]rune(tok)) < 3 && !strings.ContainsAny(tok, "+#") {
			return
		}
		if _, stop := stopWords[tok]; stop {
			return
		}
		if _, dup := seen[tok]; dup {
			return
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}

	for i, r := range text {
		if isWordChar(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(text))
	return out
}

func keywordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

package interview

import (
	"regexp"
	"strings"
)

var sentenceSplit = regexp.MustCompile(`[.!?]`)

// evaluateClarity scores sentence construction on 1-10. Word-count gates
// keep trivially short answers at the bottom; past those, the score is
// earned through sentence length in the readable band, no run-ons, and
// length variation.
func evaluateClarity(answer string) int {
	wordCount := len(strings.Fields(answer))
	switch {
	case wordCount < 5:
		return 1
	case wordCount < 10:
		return 2
	case wordCount < 20:
		return 3
	}

	score := 3

	var sentences []string
	for _, s := range sentenceSplit.Split(answer, -1) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		return 1
	}
	if len(sentences) < 2 {
		return 2
	}

	totalWords := 0
	lengths := make([]int, len(sentences))
	for i, s := range sentences {
		lengths[i] = len(strings.Fields(s))
		totalWords += lengths[i]
	}
	avg := float64(totalWords) / float64(len(sentences))

	switch {
	case avg >= 10 && avg <= 25:
		score += 4
	case avg >= 8 && avg <= 30:
		score += 2
	case avg > 40:
		score--
	case avg < 5:
		score--
	}

	runOns := 0
	minLen, maxLen := lengths[0], lengths[0]
	for _, n := range lengths {
		if n > 40 {
			runOns++
		}
		if n < minLen {
			minLen = n
		}
		if n > maxLen {
			maxLen = n
		}
	}
	if runOns == 0 && len(sentences) >= 3 {
		score += 2
	}
	if len(sentences) >= 4 && maxLen-minLen > 5 {
		score++
	}

	return clamp(score, 1, 10)
}

// localHedges is the shorter hedge list the confidence score penalizes;
// the full list feeds red-flag detection instead.
var localHedges = []string{
	"maybe", "perhaps", "i think", "i guess", "sort of", "kind of", "probably",
}

var ownershipPatterns = []string{
	"i led", "i managed", "i decided", "i took", "my decision", "i initiated",
}

// evaluateConfidence scores demonstrated confidence on 1-10 from
// confidence/leadership keyword density, first-person ownership, and
// hedging penalties. Takes the lowercased answer.
func evaluateConfidence(lower string) int {
	wordCount := len(strings.Fields(lower))
	switch {
	case wordCount < 10:
		return 2
	case wordCount < 20:
		return 3
	}

	score := 2

	total := countConfidenceKeywords(lower) + countLeadershipKeywords(lower)
	switch {
	case total >= 8:
		score += 5
	case total >= 5:
		score += 4
	case total >= 3:
		score += 3
	case total >= 2:
		score += 2
	case total >= 1:
		score++
	}

	switch ownership := countContained(lower, ownershipPatterns); {
	case ownership >= 3:
		score += 2
	case ownership >= 1:
		score++
	}

	switch hedges := countContained(lower, localHedges); {
	case hedges >= 3:
		score -= 3
	case hedges >= 1:
		score--
	}

	return clamp(score, 1, 10)
}

// evaluateStructure scores STAR-method presence on 1-10: how many of the
// four components appear, with a bonus for having both bookends
// (situation and result). Takes the lowercased answer.
func evaluateStructure(lower string) int {
	wordCount := len(strings.Fields(lower))
	switch {
	case wordCount < 10:
		return 1
	case wordCount < 20:
		return 2
	}

	components := detectSTARComponents(lower)
	count := 0
	for _, found := range components {
		if found {
			count++
		}
	}

	var score int
	switch count {
	case 4:
		score = 10
	case 3:
		score = 7
	case 2:
		score = 4
	case 1:
		score = 2
	default:
		score = 1
	}

	if components["situation"] && components["result"] {
		score = clamp(score+1, 1, 10)
	}
	return score
}

func detectSTARComponents(lower string) map[string]bool {
	components := make(map[string]bool, len(starOrder))
	for _, name := range starOrder {
		components[name] = containsAny(lower, starIndicators[name])
	}
	return components
}

func countConfidenceKeywords(lower string) int {
	return countContained(lower, confidenceKeywords)
}

func countLeadershipKeywords(lower string) int {
	return countContained(lower, leadershipKeywords)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

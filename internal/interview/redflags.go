package interview

import (
	"regexp"
	"strings"
)

var blamePatterns = []string{
	"it was their fault", "they made me", "not my fault", "blame",
	"they didn't", "my manager was bad", "my team was incompetent",
	"no one helped me", "they were useless",
}

var negativePatterns = []string{
	"i hate", "i hated", "stupid", "dumb", "worst", "terrible company",
	"bad manager", "toxic", "the company was awful",
}

var numberPattern = regexp.MustCompile(`\d+%?`)

// DetectRedFlags lists the concerns a screener would note: blame,
// negativity, no individual ownership, missing or unquantified results,
// brevity, hedging, and vagueness.
func DetectRedFlags(answer string) []string {
	lower := strings.ToLower(answer)
	var flags []string

	if containsAny(lower, blamePatterns) {
		flags = append(flags, "Blames others instead of taking accountability - major red flag in big tech interviews")
	}

	if containsAny(lower, negativePatterns) {
		flags = append(flags, "Displays negative attitude about previous employers - interviewers note this")
	}

	weCount := strings.Count(lower, " we ")
	iCount := strings.Count(lower, " i ")
	if weCount > 5 && iCount < 2 {
		flags = append(flags, "Uses 'we' excessively without clarifying your individual contribution")
	}

	hasResultKeywords := containsAny(lower, starIndicators["result"])
	hasNumbers := numberPattern.MatchString(answer)
	wordCount := len(strings.Fields(answer))

	if wordCount > 50 && !hasResultKeywords {
		flags = append(flags, "Long answer with no clear outcome or result mentioned")
	}

	if hasResultKeywords && !hasNumbers && wordCount > 30 {
		flags = append(flags, "Claims results but provides no quantifiable metrics (%, $, time saved, etc.)")
	}

	if wordCount < 30 {
		flags = append(flags, "Response is too brief for a behavioral question - shows lack of depth or preparation")
	}

	if countContained(lower, hedgingWords) >= 3 {
		flags = append(flags, "Excessive hedging language undermines confidence")
	}

	if countContained(lower, vaguePhrases) >= 2 {
		flags = append(flags, "Uses vague phrases without concrete details - interviewers want specifics")
	}

	return flags
}

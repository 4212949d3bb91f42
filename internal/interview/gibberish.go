package interview

import (
	"regexp"
	"strings"
)

// gibberishPatterns cover keyboard mashing, repeated characters,
// placeholder text, one-word non-answers, and admissions of not knowing.
var gibberishPatterns = []*regexp.Regexp{
	regexp.MustCompile(`asdf`),
	regexp.MustCompile(`qwerty`),
	regexp.MustCompile(`zxcv`),
	regexp.MustCompile(`jkl`),
	regexp.MustCompile(`;\s*;\s*;`),
	regexp.MustCompile(`(.)\1{4,}`),
	regexp.MustCompile(`test\s*test`),
	regexp.MustCompile(`hello\s*hello`),
	regexp.MustCompile(`blah\s*blah`),
	regexp.MustCompile(`^(yes|no|ok|okay|sure|fine|good|bad|idk|dunno)\.?$`),
	regexp.MustCompile(`lorem ipsum`),
	regexp.MustCompile(`i don'?t know`),
	regexp.MustCompile(`no idea`),
	regexp.MustCompile(`not sure`),
}

const punctuationChars = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Gibberish is the spam/junk verdict for an answer. Severity runs 0
// (clean) to 3 (severe); anything at 2 or above is rejected outright.
type Gibberish struct {
	IsGibberish bool     `json:"isGibberish"`
	Severity    int      `json:"severity"`
	Issues      []string `json:"issues,omitempty"`
}

// DetectGibberish flags answers that aren't genuine attempts: random
// typing, placeholder text, heavy repetition, or degenerate character
// statistics.
func DetectGibberish(text string) Gibberish {
	lower := strings.ToLower(text)

	var g Gibberish
	raise := func(issue string, severity int) {
		g.Issues = append(g.Issues, issue)
		if severity > g.Severity {
			g.Severity = severity
		}
	}

	for _, p := range gibberishPatterns {
		if p.MatchString(lower) {
			raise("Contains random or placeholder text", 3)
			break
		}
	}

	noSpaces := strings.ReplaceAll(lower, " ", "")
	uniqueChars := map[rune]struct{}{}
	for _, r := range noSpaces {
		uniqueChars[r] = struct{}{}
	}
	if len([]rune(noSpaces)) > 20 && len(uniqueChars) < 8 {
		raise("Very low character diversity - appears random", 3)
	}

	runes := []rune(text)
	punctCount := 0
	digitCount := 0
	for _, r := range runes {
		if strings.ContainsRune(punctuationChars, r) {
			punctCount++
		}
		if r >= '0' && r <= '9' {
			digitCount++
		}
	}
	if len(runes) > 10 && float64(punctCount)/float64(len(runes)) > 0.3 {
		raise("Excessive punctuation", 2)
	}

	total := len(runes)
	if total == 0 {
		total = 1
	}
	if float64(digitCount)/float64(total) > 0.3 &&
		!strings.Contains(text, "%") && !strings.Contains(text, "$") {
		raise("Excessive numbers without context", 2)
	}

	words := strings.Fields(lower)
	if len(words) > 0 {
		counts := map[string]int{}
		maxRepeat := 0
		for _, w := range words {
			if len(w) > 2 {
				counts[w]++
				if counts[w] > maxRepeat {
					maxRepeat = counts[w]
				}
			}
		}
		if maxRepeat > 5 && len(words) < 50 {
			raise("Excessive word repetition", 2)
		}

		totalLen := 0
		for _, w := range words {
			totalLen += len([]rune(w))
		}
		avg := float64(totalLen) / float64(len(words))
		if avg > 12 || avg < 2 {
			raise("Unusual word patterns", 2)
		}
	}

	g.IsGibberish = g.Severity >= 2
	return g
}

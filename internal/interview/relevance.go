package interview

import (
	"fmt"
	"strings"
)

var storyIndicators = []string{
	"when", "once", "time", "example", "project", "company", "role", "job",
}

var genericStarts = []string{
	"i am a hard worker", "i always try", "i believe in", "i am passionate",
	"communication is important", "teamwork is essential", "i am dedicated",
}

// Relevance reports whether an answer actually addresses the question.
type Relevance struct {
	Score        int      `json:"score"`
	QuestionType string   `json:"questionType,omitempty"`
	Issues       []string `json:"issues,omitempty"`
	IsRelevant   bool     `json:"isRelevant"`
}

// CheckRelevance classifies the question by its keywords, then checks the
// answer against that type: topical keyword matches score up, off-topic
// phrases, missing examples, and generic boilerplate score down. The
// threshold for relevant is 4 on a 0-10 scale starting from neutral 5.
func CheckRelevance(question, answer string) Relevance {
	questionLower := strings.ToLower(question)
	answerLower := strings.ToLower(answer)

	res := Relevance{Score: 5}

	for _, qt := range questionTypes {
		if containsAny(questionLower, qt.keywords) {
			res.QuestionType = qt.name
			matches := 0
			for _, kw := range qt.keywords {
				if strings.Contains(answerLower, kw) {
					matches++
				}
			}
			switch {
			case matches == 0:
				res.Issues = append(res.Issues,
					fmt.Sprintf("Answer doesn't address the '%s' aspect of the question", qt.name))
				res.Score -= 3
			case matches >= 2:
				res.Score += 2
			}
			break
		}
	}

	if containsAny(answerLower, offTopicPhrases) {
		res.Issues = append(res.Issues, "Contains off-topic indicators")
		res.Score -= 2
	}

	if !containsAny(answerLower, storyIndicators) && len(strings.Fields(answer)) > 20 {
		res.Issues = append(res.Issues, "Doesn't provide a specific example or story")
		res.Score -= 2
	}

	for _, phrase := range genericStarts {
		if strings.HasPrefix(answerLower, phrase) || strings.Contains(answerLower, ". "+phrase) {
			res.Issues = append(res.Issues, "Uses generic statements instead of specific examples")
			res.Score -= 2
			break
		}
	}

	res.IsRelevant = res.Score >= 4
	if res.Score < 0 {
		res.Score = 0
	}
	if res.Score > 10 {
		res.Score = 10
	}
	return res
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func countContained(s string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		if strings.Contains(s, p) {
			n++
		}
	}
	return n
}

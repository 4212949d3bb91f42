package interview

import (
	"math"
	"strings"
)

// Details carries the evidence behind an analysis for display.
type Details struct {
	STARComponents     map[string]bool `json:"starComponents,omitempty"`
	ConfidenceKeywords int             `json:"confidenceKeywords"`
	LeadershipKeywords int             `json:"leadershipKeywords"`
	RedFlags           []string        `json:"redFlags,omitempty"`
	RelevanceIssues    []string        `json:"relevanceIssues,omitempty"`
}

// Analysis is the scored verdict on one behavioral answer. Scores run
// 1-10; Total is their integer mean. Invalid answers (gibberish) bottom
// out at 1 across the board.
type Analysis struct {
	Clarity         int     `json:"clarity"`
	Confidence      int     `json:"confidence"`
	Structure       int     `json:"structure"`
	Total           int     `json:"total"`
	Valid           bool    `json:"valid"`
	RejectionReason string  `json:"rejectionReason,omitempty"`
	Feedback        string  `json:"feedback"`
	Details         Details `json:"details"`
}

// Analyze scores an answer to a behavioral question. Gibberish
// short-circuits to an invalid all-ones result. Otherwise clarity,
// confidence, and structure are scored independently, then red flags
// shave clarity and confidence (1.5 per flag, capped at 5, halved per
// score) and an irrelevant answer costs structure 3. Passing an empty
// question skips the relevance check.
func Analyze(question, answer string) Analysis {
	lower := strings.ToLower(answer)

	if g := DetectGibberish(answer); g.IsGibberish {
		return Analysis{
			Clarity:         1,
			Confidence:      1,
			Structure:       1,
			Total:           1,
			Valid:           false,
			RejectionReason: "Invalid response detected",
			Feedback:        rejectionFeedback(g.Issues),
			Details:         Details{RedFlags: g.Issues},
		}
	}

	var relevance *Relevance
	if question != "" {
		r := CheckRelevance(question, answer)
		relevance = &r
	}

	redFlags := DetectRedFlags(answer)

	clarity := evaluateClarity(answer)
	confidence := evaluateConfidence(lower)
	structure := evaluateStructure(lower)

	flagPenalty := math.Min(float64(len(redFlags))*1.5, 5)
	clarity = clamp(clarity-int(flagPenalty/2), 1, 10)
	confidence = clamp(confidence-int(flagPenalty/2), 1, 10)

	if relevance != nil && !relevance.IsRelevant {
		structure = clamp(structure-3, 1, 10)
	}

	details := Details{
		STARComponents:     detectSTARComponents(lower),
		ConfidenceKeywords: countConfidenceKeywords(lower),
		LeadershipKeywords: countLeadershipKeywords(lower),
		RedFlags:           redFlags,
	}
	if relevance != nil {
		details.RelevanceIssues = relevance.Issues
	}

	return Analysis{
		Clarity:    clarity,
		Confidence: confidence,
		Structure:  structure,
		Total:      (clarity + confidence + structure) / 3,
		Valid:      true,
		Feedback:   buildFeedback(clarity, confidence, structure, lower, redFlags, relevance),
		Details:    details,
	}
}

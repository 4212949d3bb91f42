package ats

import (
	"fmt"
	"math"
	"regexp"
)

const maxMissing = 20

// Result is the screening outcome for one resume.
type Result struct {
	Score      float64  `json:"score"`
	Matching   []string `json:"matching,omitempty"`
	Missing    []string `json:"missing,omitempty"`
	Strengths  []string `json:"strengths,omitempty"`
	Weaknesses []string `json:"weaknesses,omitempty"`
}

var (
	emailPattern  = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern  = regexp.MustCompile(`\+?\d[\d\s().-]{7,}\d`)
	metricPattern = regexp.MustCompile(`\d+(\.\d+)?\s*%|\$\s*\d|\b\d+x\b`)
)

// actionVerbs are the delivery verbs screeners look for in experience
// bullets.
var actionVerbs = []string{
	"led", "managed", "built", "developed", "created", "designed",
	"implemented", "delivered", "launched", "shipped", "improved",
	"increased", "reduced", "optimized", "automated", "migrated",
}

// Score measures keyword overlap between the resume and the job
// description (Jaccard, scaled to 0-100), then nudges the score with
// section heuristics: contact info, action verbs, and quantified results.
// With no job description the overlap base is a neutral 50 and only the
// heuristics move it.
func Score(resumeText, jobDescription string) Result {
	resumeWords := Keywords(resumeText)
	resumeSet := keywordSet(resumeWords)

	var res Result
	base := 50.0

	jobWords := Keywords(jobDescription)
	if len(jobWords) > 0 {
		matched := 0
		for _, w := range jobWords {
			if _, ok := resumeSet[w]; ok {
				matched++
				res.Matching = append(res.Matching, w)
			} else if len(res.Missing) < maxMissing {
				res.Missing = append(res.Missing, w)
			}
		}
		union := len(resumeWords) + len(jobWords) - matched
		if union > 0 {
			base = float64(matched) / float64(union) * 100
		} else {
			base = 0
		}
	}

	adjust := 0.0

	if emailPattern.MatchString(resumeText) || phonePattern.MatchString(resumeText) {
		adjust += 5
		res.Strengths = append(res.Strengths, "Contact information is present")
	} else {
		adjust -= 5
		res.Weaknesses = append(res.Weaknesses, "No contact information found")
	}

	if n := countVerbs(resumeWords); n >= 3 {
		adjust += 5
		res.Strengths = append(res.Strengths,
			fmt.Sprintf("Experience described with %d action verbs", n))
	} else {
		adjust -= 5
		res.Weaknesses = append(res.Weaknesses,
			"Experience bullets rarely use action verbs (led, built, shipped)")
	}

	if metricPattern.MatchString(resumeText) {
		adjust += 5
		res.Strengths = append(res.Strengths, "Achievements are quantified")
	} else {
		adjust -= 5
		res.Weaknesses = append(res.Weaknesses,
			"No quantified achievements (percentages, dollar amounts, multiples)")
	}

	res.Score = clampScore(base + adjust)
	return res
}

func countVerbs(words []string) int {
	set := keywordSet(words)
	n := 0
	for _, v := range actionVerbs {
		if _, ok := set[v]; ok {
			n++
		}
	}
	return n
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return math.Round(s*10) / 10
}

package aptitude

import "math"

// Answer is one submitted choice. Question indexes into the bank,
// Choice into the question's options, and Seconds is the time the
// candidate took.
type Answer struct {
	Question int     `json:"question"`
	Choice   int     `json:"choice"`
	Seconds  float64 `json:"seconds"`
}

// Submission is the full set of answers for one test sitting.
type Submission struct {
	Answers []Answer `json:"answers"`
}

// CategoryScore is the breakdown for one question category.
type CategoryScore struct {
	Category string  `json:"category"`
	Correct  int     `json:"correct"`
	Total    int     `json:"total"`
	Percent  float64 `json:"percent"`
}

// Result is a graded submission. Categories follow the bank's order of
// first appearance.
type Result struct {
	Score      float64         `json:"score"`
	Correct    int             `json:"correct"`
	Total      int             `json:"total"`
	Grade      string          `json:"grade"`
	Categories []CategoryScore `json:"categories"`
}

// PerCategory flattens the category breakdown for persistence.
func (r Result) PerCategory() map[string]float64 {
	out := make(map[string]float64, len(r.Categories))
	for _, c := range r.Categories {
		out[c.Category] = c.Percent
	}
	return out
}

// Grade scores a submission against the bank. An unanswered question, a
// wrong choice, and a correct choice made after the question's time
// allowance all count as wrong. When the same question is answered more
// than once the last answer stands.
func Grade(bank []Question, sub Submission) Result {
	byQuestion := make(map[int]Answer, len(sub.Answers))
	for _, a := range sub.Answers {
		byQuestion[a.Question] = a
	}

	var res Result
	slot := make(map[string]int)
	for i, q := range bank {
		j, ok := slot[q.Category]
		if !ok {
			j = len(res.Categories)
			slot[q.Category] = j
			res.Categories = append(res.Categories, CategoryScore{Category: q.Category})
		}
		res.Total++
		res.Categories[j].Total++

		a, answered := byQuestion[i]
		if !answered || a.Choice != q.Answer {
			continue
		}
		if a.Seconds > float64(q.Seconds) {
			continue
		}
		res.Correct++
		res.Categories[j].Correct++
	}

	for j := range res.Categories {
		c := &res.Categories[j]
		c.Percent = percent(c.Correct, c.Total)
	}
	res.Score = percent(res.Correct, res.Total)
	res.Grade = letterGrade(res.Score)
	return res
}

func percent(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*1000) / 10
}

func letterGrade(percent float64) string {
	switch {
	case percent >= 90:
		return "A"
	case percent >= 80:
		return "B"
	case percent >= 70:
		return "C"
	case percent >= 60:
		return "D"
	default:
		return "F"
	}
}

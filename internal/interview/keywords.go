package interview

// Keyword tables the scorers match by substring, the way recruiters'
// screening tools do. Matching is against the lowercased answer.

var confidenceKeywords = []string{
	"led", "lead", "managed", "directed", "spearheaded", "initiated",
	"achieved", "accomplished", "delivered", "exceeded", "surpassed",
	"improved", "increased", "reduced", "optimized", "transformed",
	"responsible", "ownership", "accountable", "drove", "championed",
	"successfully", "effectively", "efficiently", "proactively",
	"decided", "determined", "resolved", "solved", "overcame",
}

var leadershipKeywords = []string{
	"team", "collaborated", "coordinated", "mentored", "coached",
	"delegated", "motivated", "inspired", "influenced", "persuaded",
	"negotiated", "facilitated", "organized", "supervised", "trained",
	"led", "leadership", "cross-functional", "stakeholder", "consensus",
}

// starOrder fixes the reporting order of the four components.
var starOrder = []string{"situation", "task", "action", "result"}

var starIndicators = map[string][]string{
	"situation": {
		"situation", "context", "background", "scenario", "challenge",
		"problem", "issue", "when", "while working", "at my previous",
		"in my role", "during", "faced with",
	},
	"task": {
		"task", "responsibility", "goal", "objective", "assigned",
		"needed to", "had to", "required to", "expected to", "my role was",
		"i was responsible", "charged with",
	},
	"action": {
		"action", "i did", "i took", "implemented", "developed", "created",
		"designed", "built", "established", "initiated", "executed",
		"i decided", "i started", "i began", "my approach", "steps i took",
	},
	"result": {
		"result", "outcome", "impact", "achieved", "accomplished",
		"led to", "resulted in", "consequently", "as a result", "ultimately",
		"success", "improved", "increased", "reduced", "saved", "delivered",
	},
}

// questionTypes are checked in order; the first type whose keywords
// appear in the question wins.
var questionTypes = []struct {
	name     string
	keywords []string
}{
	{"challenge", []string{"challenge", "difficult", "hard", "problem", "obstacle", "struggle", "issue", "tough", "overcome"}},
	{"difficult team member", []string{"team", "colleague", "coworker", "conflict", "disagreement", "difficult person", "communication"}},
	{"leadership", []string{"lead", "led", "team", "managed", "directed", "initiative", "guided", "motivated", "inspired"}},
	{"failed", []string{"fail", "mistake", "error", "wrong", "learned", "lesson", "setback", "didn't work"}},
	{"deadline", []string{"deadline", "time", "urgent", "quick", "fast", "pressure", "rushed", "days", "hours", "weeks"}},
	{"above and beyond", []string{"extra", "beyond", "more than", "additional", "volunteered", "initiative", "own time"}},
	{"persuade", []string{"persuade", "convince", "argument", "presented", "explained", "showed", "demonstrated", "negotiated"}},
	{"feedback", []string{"feedback", "criticism", "critique", "review", "told me", "suggested", "improved", "changed"}},
}

var vaguePhrases = []string{
	"i worked hard", "i did my best", "i tried", "we worked together",
	"it was difficult", "i managed it", "things worked out", "it went well",
	"i handled it", "i dealt with it", "we figured it out", "i made it happen",
	"i was successful", "good results", "positive outcome", "everything was fine",
}

var hedgingWords = []string{
	"maybe", "perhaps", "i think", "i guess", "sort of", "kind of",
	"probably", "might have", "could have", "possibly", "somewhat",
	"i believe", "i feel like", "in a way", "more or less",
}

var offTopicPhrases = []string{
	"what was the question", "can you repeat", "i forgot",
	"anyway", "by the way", "unrelated but", "off topic",
}

package interview

import (
	"fmt"
	"strings"
)

func rejectionFeedback(issues []string) string {
	return "This response cannot be evaluated. " +
		strings.Join(issues, " ") + " " +
		"In a real interview at companies like Google, Amazon, or Microsoft, " +
		"this type of response would immediately disqualify you. " +
		"Please provide a genuine, thoughtful answer that describes a specific situation from your experience."
}

// buildFeedback writes the interviewer-style assessment: red flags first,
// then relevance, structure, ownership, clarity, missing metrics, and an
// overall verdict band. Tone is deliberately blunt; that is the product.
func buildFeedback(clarity, confidence, structure int, lower string, redFlags []string, relevance *Relevance) string {
	var parts []string
	add := func(lines ...string) { parts = append(parts, lines...) }
	avg := float64(clarity+confidence+structure) / 3

	if len(redFlags) > 0 {
		add("🚨 CRITICAL ISSUES DETECTED:")
		for _, flag := range redFlags[:min(3, len(redFlags))] {
			add("• " + flag)
		}
		add("")
	}

	if relevance != nil && len(relevance.Issues) > 0 {
		add("⚠️ RELEVANCE CONCERNS:")
		for _, issue := range relevance.Issues[:min(2, len(relevance.Issues))] {
			add("• " + issue)
		}
		add("")
	}

	components := detectSTARComponents(lower)
	var present, missing []string
	for _, name := range starOrder {
		if components[name] {
			present = append(present, strings.ToUpper(name))
		} else {
			missing = append(missing, strings.ToUpper(name))
		}
	}

	add("📋 STRUCTURE ANALYSIS:")
	switch {
	case structure >= 8:
		add("• Strong STAR method execution. All components clearly present.")
	case structure >= 5:
		presentList := "None"
		if len(present) > 0 {
			presentList = strings.Join(present, ", ")
		}
		add(fmt.Sprintf("• Partial STAR structure detected. Found: %s.", presentList))
		if len(missing) > 0 {
			add(fmt.Sprintf("• Missing: %s. At Google/Amazon, incomplete STAR = incomplete answer.",
				strings.Join(missing, ", ")))
		}
	case structure >= 3:
		add("• Weak structure. Your answer rambles without clear organization.")
		add(fmt.Sprintf("• Missing STAR components: %s.", strings.Join(missing, ", ")))
		add("• Big tech interviewers are trained to detect missing structure - this would hurt your scorecard.")
	default:
		add("• No discernible STAR structure. This is a fundamental requirement for behavioral interviews.")
		add("• At companies like Meta, Microsoft, or Amazon, this answer would receive a 'Not Inclined' rating.")
	}
	add("")

	add("💪 OWNERSHIP & CONFIDENCE:")
	weCount := strings.Count(lower, " we ")
	iCount := strings.Count(lower, " i ")
	switch {
	case confidence >= 8:
		add("• Good use of first-person ownership. You clearly articulated your individual contributions.")
	case confidence >= 5:
		if weCount > iCount {
			add("• Too much 'we' and not enough 'I'. Interviewers want to know what YOU did, not your team.")
			add("• Hiring managers will ask: 'But what was YOUR specific contribution?'")
		} else {
			add("• Moderate confidence shown. Add more action verbs (led, drove, delivered, achieved).")
		}
	case confidence >= 3:
		add("• Weak ownership demonstrated. You sound unsure of your own contributions.")
		add("• Hedging words like 'maybe', 'I think', 'sort of' undermine your credibility.")
	default:
		add("• Poor confidence projection. In a real interview, this would raise doubts about your capabilities.")
		add("• Senior interviewers specifically look for candidates who can clearly articulate their impact.")
	}
	add("")

	add("🎯 CLARITY & COMMUNICATION:")
	switch {
	case clarity >= 8:
		add("• Clear, well-structured sentences. Easy to follow your narrative.")
	case clarity >= 5:
		add("• Acceptable clarity but could be sharper. Aim for concise, punchy sentences.")
		add("• Remember: interviewers are evaluating 5-8 candidates. Make your points memorable.")
	case clarity >= 3:
		add("• Unclear communication. Sentences are either too long or too choppy.")
		add("• Practice the 'headline + details' approach: state your point, then elaborate.")
	default:
		add("• Very poor clarity. Hard to understand your main points.")
		add("• This would be flagged as a communication concern in interviewer feedback.")
	}
	add("")

	if !numberPattern.MatchString(lower) && avg < 8 {
		add("📊 MISSING METRICS:")
		add("• No quantifiable results mentioned. Big tech LOVES numbers.")
		add("• Add metrics like: '20% improvement', 'reduced from 2 weeks to 3 days', '$50K saved'.")
		add("")
	}

	add("📝 OVERALL ASSESSMENT:")
	switch {
	case avg >= 8:
		add("• STRONG RESPONSE - Would likely receive a 'Strong Hire' signal for behavioral fit.")
		add("• This demonstrates the depth and structure expected at top tech companies.")
	case avg >= 6:
		add("• ACCEPTABLE RESPONSE - 'Inclined' but not exceptional.")
		add("• In a competitive loop, this might not be enough. Aim higher.")
	case avg >= 4:
		add("• WEAK RESPONSE - Would likely receive a 'Not Inclined' rating.")
		add("• At companies like Amazon (Bar Raiser interviews), this would be concerning.")
		add("• You need significant improvement in structure and specificity.")
	case avg >= 2:
		add("• POOR RESPONSE - Would result in 'Strong No Hire' feedback.")
		add("• This answer shows lack of preparation for behavioral interviews.")
		add("• Recommend: Study STAR method, prepare 6-8 stories with specific metrics.")
	default:
		add("• UNACCEPTABLE RESPONSE - Interview would likely be stopped early.")
		add("• This type of answer suggests either unprepared candidate or poor fit.")
		add("• Action required: Complete preparation overhaul before real interviews.")
	}

	return strings.Join(parts, "\n")
}

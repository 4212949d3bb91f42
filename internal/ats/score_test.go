package ats

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestKeywords(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			"keeps tech punctuation",
			"Expert in C++, C# and node.js development.",
			[]string{"c++", "c#", "node.js", "development"},
		},
		{
			"trims sentence periods",
			"Shipped the platform. Maintained uptime.",
			[]string{"shipped", "platform", "maintained", "uptime"},
		},
		{
			"drops stop words and short tokens",
			"the team will go with a strong candidate",
			nil,
		},
		{
			"drops bare numbers but keeps mixed tokens",
			"2024 saw 150 releases of sdk2 and es2015",
			[]string{"saw", "releases", "sdk2", "es2015"},
		},
		{
			"dedupes preserving first appearance",
			"kubernetes docker kubernetes terraform docker",
			[]string{"kubernetes", "docker", "terraform"},
		},
		{
			"empty input",
			"",
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Keywords(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Keywords(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

const sampleResume = `Ada Lovelace
ada@example.com | +1 555 123 4567

Led migration to kubernetes, built terraform modules, reduced deploy time by 40%.
Designed golang microservices handling 2x traffic growth.`

func TestScore_OverlapAndHeuristics(t *testing.T) {
	job := "Looking for kubernetes and terraform expertise with golang services"

	res := Score(sampleResume, job)

	for _, want := range []string{"kubernetes", "terraform", "golang"} {
		found := false
		for _, m := range res.Matching {
			if m == want {
				found = true
			}
		}
		if !found {
			t.Errorf("Matching = %v, missing %q", res.Matching, want)
		}
	}
	for _, m := range res.Missing {
		if m == "kubernetes" || m == "terraform" || m == "golang" {
			t.Errorf("%q should not be in Missing %v", m, res.Missing)
		}
	}
	if res.Score <= 0 || res.Score > 100 {
		t.Errorf("Score = %v, want in (0, 100]", res.Score)
	}
	if len(res.Strengths) != 3 {
		t.Errorf("Strengths = %v, want contact + verbs + metrics", res.Strengths)
	}
	if len(res.Weaknesses) != 0 {
		t.Errorf("Weaknesses = %v, want none", res.Weaknesses)
	}
}

func TestScore_WeakResume(t *testing.T) {
	res := Score("generic person seeking opportunities in business", "kubernetes golang terraform")

	if len(res.Matching) != 0 {
		t.Errorf("Matching = %v, want none", res.Matching)
	}
	if len(res.Missing) != 3 {
		t.Errorf("Missing = %v, want all three job keywords", res.Missing)
	}
	if len(res.Weaknesses) != 3 {
		t.Errorf("Weaknesses = %v, want contact + verbs + metrics flags", res.Weaknesses)
	}
	if res.Score > 10 {
		t.Errorf("Score = %v, want near zero", res.Score)
	}
}

func TestScore_MissingCappedAtTwenty(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "keyword%02d ", i)
	}
	res := Score("nothing relevant", b.String())
	if len(res.Missing) != maxMissing {
		t.Errorf("len(Missing) = %d, want %d", len(res.Missing), maxMissing)
	}
}

func TestScore_NoJobDescriptionNeutralBase(t *testing.T) {
	res := Score(sampleResume, "")

	if res.Matching != nil || res.Missing != nil {
		t.Errorf("overlap lists should be empty without a job description: %v %v",
			res.Matching, res.Missing)
	}
	// 50 base plus all three heuristic bonuses.
	if res.Score != 65 {
		t.Errorf("Score = %v, want 65", res.Score)
	}
}

func TestScore_ClampedToZero(t *testing.T) {
	res := Score("", "kubernetes terraform golang")
	if res.Score != 0 {
		t.Errorf("Score = %v, want 0", res.Score)
	}
}

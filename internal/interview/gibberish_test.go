package interview

import "testing"

func TestDetectGibberish(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantSeverity int
	}{
		{"keyboard mashing", "asdf asdf asdf", 3},
		{"repeated characters", "aaaaaaa", 3},
		{"one-word answer", "ok", 3},
		{"one-word with period", "Okay.", 3},
		{"admits not knowing", "I don't know", 3},
		{"admits not knowing no apostrophe", "i dont know", 3},
		{"placeholder text", "lorem ipsum dolor sit amet", 3},
		{"low character diversity", "abc abc abc abc abc abc abc abc", 3},
		{"excessive punctuation", "a... b,,, c--- d___", 2},
		{"mostly digits", "12345 67890 12345 road", 2},
		{"very long words", "supercalifragilistic extraordinarily incomprehensibilities", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := DetectGibberish(tt.text)
			if g.Severity != tt.wantSeverity {
				t.Errorf("Severity = %d, want %d (issues: %v)", g.Severity, tt.wantSeverity, g.Issues)
			}
			if !g.IsGibberish {
				t.Error("IsGibberish = false, want true")
			}
			if len(g.Issues) == 0 {
				t.Error("Issues is empty")
			}
		})
	}
}

func TestDetectGibberish_DigitsWithMetricsAllowed(t *testing.T) {
	g := DetectGibberish("12345 67890 12345 90%")
	if g.Severity != 0 {
		t.Errorf("Severity = %d, want 0 (issues: %v)", g.Severity, g.Issues)
	}
}

func TestDetectGibberish_CleanAnswer(t *testing.T) {
	text := "When our deployment pipeline broke before a release, I took charge of debugging it. " +
		"I traced the failure to a misconfigured cache entry and fixed it within two hours. " +
		"As a result, we shipped on schedule."
	g := DetectGibberish(text)
	if g.IsGibberish || g.Severity != 0 || len(g.Issues) != 0 {
		t.Errorf("clean answer flagged: severity=%d issues=%v", g.Severity, g.Issues)
	}
}

func TestDetectGibberish_Empty(t *testing.T) {
	g := DetectGibberish("")
	if g.IsGibberish {
		t.Errorf("empty string flagged: %+v", g)
	}
}

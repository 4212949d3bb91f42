package proctor

import "testing"

func TestLevelFor(t *testing.T) {
	tests := []struct {
		name        string
		cameraError bool
		cameraReady bool
		warnings    int
		want        StatusLevel
	}{
		{"no warnings", false, true, 0, StatusGood},
		{"one warning", false, true, 1, StatusCaution},
		{"two warnings", false, true, 2, StatusCaution},
		{"three warnings", false, true, 3, StatusWarning},
		{"four warnings", false, true, 4, StatusWarning},
		{"five warnings", false, true, 5, StatusCritical},
		{"many warnings", false, true, 12, StatusCritical},
		{"not ready yet", false, false, 0, StatusGood},
		{"camera error overrides zero", true, false, 0, StatusError},
		{"camera error overrides many", true, true, 12, StatusError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LevelFor(tt.cameraError, tt.cameraReady, tt.warnings)
			if got != tt.want {
				t.Errorf("LevelFor(%v, %v, %d) = %v, want %v",
					tt.cameraError, tt.cameraReady, tt.warnings, got, tt.want)
			}
		})
	}
}

func TestLevelForDeterministic(t *testing.T) {
	// Same inputs, same answer: the level is derived, never stored.
	for i := 0; i < 3; i++ {
		if got := LevelFor(false, true, 4); got != StatusWarning {
			t.Fatalf("call %d: LevelFor = %v, want %v", i, got, StatusWarning)
		}
	}
}

func TestStatusLevelString(t *testing.T) {
	tests := []struct {
		level StatusLevel
		want  string
	}{
		{StatusGood, "good"},
		{StatusCaution, "caution"},
		{StatusWarning, "warning"},
		{StatusCritical, "critical"},
		{StatusError, "error"},
		{StatusLevel(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("StatusLevel(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		name        string
		cameraError bool
		cameraReady bool
		want        string
	}{
		{"monitoring", false, true, "MONITORING"},
		{"initializing", false, false, "INITIALIZING"},
		{"error", true, false, "ERROR"},
		{"error wins over ready", true, true, "ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Label(tt.cameraError, tt.cameraReady); got != tt.want {
				t.Errorf("Label(%v, %v) = %q, want %q", tt.cameraError, tt.cameraReady, got, tt.want)
			}
		})
	}
}

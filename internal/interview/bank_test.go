package interview

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultBank(t *testing.T) {
	bank := DefaultBank()
	if len(bank) != 8 {
		t.Fatalf("len = %d, want 8", len(bank))
	}
	if bank[0].Text != "Tell me about a time you faced a significant challenge at work." {
		t.Errorf("first question = %q", bank[0].Text)
	}
	for i, q := range bank {
		if len(q.Focus) == 0 {
			t.Errorf("question %d has no focus areas", i)
		}
	}

	// Callers get their own copy.
	bank[0].Text = "mutated"
	if DefaultBank()[0].Text == "mutated" {
		t.Error("DefaultBank shares its backing slice with callers")
	}
}

func TestLoadBank(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.yaml")
	data := `questions:
  - question: "Why this team?"
    focus: [motivation]
  - question: "Walk me through a recent project."
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	bank, err := LoadBank(path)
	if err != nil {
		t.Fatalf("LoadBank: %v", err)
	}
	if len(bank) != 2 {
		t.Fatalf("len = %d, want 2", len(bank))
	}
	if bank[0].Text != "Why this team?" || bank[0].Focus[0] != "motivation" {
		t.Errorf("first question = %+v", bank[0])
	}
	if bank[1].Focus != nil {
		t.Errorf("second question focus = %v, want none", bank[1].Focus)
	}
}

func TestLoadBank_EmptyPathUsesDefault(t *testing.T) {
	bank, err := LoadBank("")
	if err != nil {
		t.Fatalf("LoadBank: %v", err)
	}
	if len(bank) != 8 {
		t.Errorf("len = %d, want the built-in 8", len(bank))
	}
}

func TestLoadBank_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadBank(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("questions: [not: {a: valid"), 0o644)
	if _, err := LoadBank(bad); err == nil {
		t.Error("malformed yaml should fail")
	}

	empty := filepath.Join(dir, "empty.yaml")
	os.WriteFile(empty, []byte("questions: []"), 0o644)
	if _, err := LoadBank(empty); err == nil {
		t.Error("empty bank should fail")
	}

	missingText := filepath.Join(dir, "notext.yaml")
	os.WriteFile(missingText, []byte("questions:\n  - focus: [x]\n"), 0o644)
	if _, err := LoadBank(missingText); err == nil {
		t.Error("question without text should fail")
	}
}

// Package interview scores behavioral interview answers with the rule
// tables a screening pass uses: gibberish detection, relevance to the
// question asked, red flags, and clarity/confidence/STAR-structure
// scoring, plus the written feedback assembled from those scores.
package interview

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed bank.yaml
var defaultBankYAML []byte

// Question is one behavioral prompt and the qualities it probes.
type Question struct {
	Text  string   `yaml:"question" json:"question"`
	Focus []string `yaml:"focus" json:"focus,omitempty"`
}

type bankFile struct {
	Questions []Question `yaml:"questions"`
}

var defaultBank []Question

func init() {
	var f bankFile
	if err := yaml.Unmarshal(defaultBankYAML, &f); err != nil {
		panic(fmt.Sprintf("interview: embedded bank: %v", err))
	}
	defaultBank = f.Questions
}

// DefaultBank returns the built-in question set.
func DefaultBank() []Question {
	out := make([]Question, len(defaultBank))
	copy(out, defaultBank)
	return out
}

// LoadBank reads a YAML question file. An empty path means the built-in
// bank.
func LoadBank(path string) ([]Question, error) {
	if path == "" {
		return DefaultBank(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question bank: %w", err)
	}
	var f bankFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse question bank: %w", err)
	}
	if len(f.Questions) == 0 {
		return nil, fmt.Errorf("question bank %s has no questions", path)
	}
	for i, q := range f.Questions {
		if q.Text == "" {
			return nil, fmt.Errorf("question bank %s: question %d has no text", path, i)
		}
	}
	return f.Questions, nil
}

// Package aptitude holds the timed multiple-choice test: a categorized
// question bank and the grader that scores a submission against it.
package aptitude

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed bank.yaml
var defaultBankYAML []byte

// defaultSeconds is the time allowance for questions that do not set one.
const defaultSeconds = 60

// Question is one multiple-choice item. Answer is the index of the
// correct option and never serializes to JSON, so a bank can be handed
// to clients as-is.
type Question struct {
	Category string   `yaml:"category" json:"category"`
	Text     string   `yaml:"question" json:"question"`
	Options  []string `yaml:"options" json:"options"`
	Answer   int      `yaml:"answer" json:"-"`
	Seconds  int      `yaml:"seconds" json:"seconds"`
}

type bankFile struct {
	Questions []Question `yaml:"questions"`
}

var defaultBank []Question

func init() {
	var f bankFile
	if err := yaml.Unmarshal(defaultBankYAML, &f); err != nil {
		panic(fmt.Sprintf("aptitude: embedded bank: %v", err))
	}
	if err := validateBank(f.Questions, "embedded bank"); err != nil {
		panic(fmt.Sprintf("aptitude: %v", err))
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
	if err := validateBank(f.Questions, fmt.Sprintf("question bank %s", path)); err != nil {
		return nil, err
	}
	return f.Questions, nil
}

// validateBank rejects banks the grader cannot score and fills in the
// default time allowance.
func validateBank(qs []Question, src string) error {
	if len(qs) == 0 {
		return fmt.Errorf("%s has no questions", src)
	}
	for i := range qs {
		q := &qs[i]
		if q.Text == "" {
			return fmt.Errorf("%s: question %d has no text", src, i)
		}
		if q.Category == "" {
			return fmt.Errorf("%s: question %d has no category", src, i)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("%s: question %d needs at least two options", src, i)
		}
		if q.Answer < 0 || q.Answer >= len(q.Options) {
			return fmt.Errorf("%s: question %d answer index %d out of range", src, i, q.Answer)
		}
		if q.Seconds <= 0 {
			q.Seconds = defaultSeconds
		}
	}
	return nil
}

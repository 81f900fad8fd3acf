package profile

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Load decodes a YAML profile document. Unknown fields are rejected so typos
// in hand-edited profiles surface early.
func Load(r io.Reader) (Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return Profile{}, errors.New("profile document is empty")
		}
		return Profile{}, fmt.Errorf("decoding profile: %w", err)
	}
	return p, nil
}

// LoadFile reads and decodes the profile at path.
func LoadFile(path string) (Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return Profile{}, fmt.Errorf("opening profile: %w", err)
	}
	defer f.Close()
	p, err := Load(f)
	if err != nil {
		return Profile{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Default returns the profile compiled into the binary.
func Default() Profile {
	p, err := Load(bytes.NewReader(defaultYAML))
	if err != nil {
		panic("profile: embedded default is invalid: " + err.Error())
	}
	return p
}

// DefaultYAML returns a copy of the embedded profile document, used by
// `folio profile init` as a starting point.
func DefaultYAML() []byte {
	return bytes.Clone(defaultYAML)
}

// ValidationError lists every problem found in a profile.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid profile: " + strings.Join(e.Problems, "; ")
}

// Validate checks the invariants the chat responder relies on: a name to
// introduce and non-empty phrase banks.
func (p Profile) Validate() error {
	var problems []string
	if strings.TrimSpace(p.Basic.Name) == "" {
		problems = append(problems, "basic.name is required")
	}
	for _, name := range BankNames() {
		bank := p.Conversational.Bank(name)
		if len(bank) == 0 {
			problems = append(problems, fmt.Sprintf("conversational.%s must not be empty", name))
			continue
		}
		for i, phrase := range bank {
			if strings.TrimSpace(phrase) == "" {
				problems = append(problems, fmt.Sprintf("conversational.%s[%d] is blank", name, i))
			}
		}
	}
	for i, proj := range p.Projects {
		if strings.TrimSpace(proj.Name) == "" {
			problems = append(problems, fmt.Sprintf("projects[%d].name is required", i))
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

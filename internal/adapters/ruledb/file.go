package ruledb

import (
	"context"
	"os"
	"path/filepath"

	"go.trai.ch/seer/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// rulesFile is the document layout of seer.rules.yaml.
type rulesFile struct {
	Rules []ruleDTO `yaml:"rules"`
}

type ruleDTO struct {
	Name    string   `yaml:"name"`
	Cmd     string   `yaml:"cmd"`
	Inputs  []string `yaml:"inputs"`
	Outputs []string `yaml:"outputs"`
}

// File is a RuleDatabase loaded from a static rules file. Every output,
// and the optional name, of a rule resolves to it.
type File struct {
	rules map[string]*domain.Rule
}

// LoadFile reads and indexes the rules file at path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrRulesFileInvalid.Error()), "path", path)
	}

	var doc rulesFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrRulesFileInvalid.Error()), "path", path)
	}

	f := &File{rules: make(map[string]*domain.Rule)}
	for i, dto := range doc.Rules {
		if len(dto.Outputs) == 0 {
			return nil, zerr.With(zerr.With(domain.ErrRulesFileInvalid, "path", path), "rule_index", i)
		}

		outputs := cleanAll(dto.Outputs)
		target := dto.Name
		if target == "" {
			target = outputs[0]
		}
		rule := domain.NewRule(target, dto.Cmd, cleanAll(dto.Inputs), outputs)

		names := outputs
		if dto.Name != "" {
			names = append([]string{dto.Name}, outputs...)
		}
		for _, name := range names {
			if prev, ok := f.rules[name]; ok && prev != rule {
				return nil, zerr.With(zerr.With(domain.ErrDuplicateOutput, "path", path), "output", name)
			}
			f.rules[name] = rule
		}
	}
	return f, nil
}

// Query returns the rule producing target, or nil.
func (f *File) Query(_ context.Context, target string) (*domain.Rule, error) {
	return f.rules[filepath.Clean(target)], nil
}

// Close is a no-op.
func (f *File) Close() error {
	return nil
}

func cleanAll(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, filepath.Clean(p))
	}
	return out
}

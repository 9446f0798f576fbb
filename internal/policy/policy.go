// Package policy handles redaction policy file parsing.
package policy

import (
	"fmt"
	"os"

	"google.golang.org/protobuf/encoding/protowire"
	"gopkg.in/yaml.v3"

	"github.com/majorcontext/scrub/internal/schema"
)

// Policy is an optional per-run adjustment layered over the built-in
// allowlists. Events are named by their trace names (e.g. "sched_switch");
// deny wins over allow.
type Policy struct {
	TargetPackage string   `yaml:"target_package,omitempty"`
	Allow         []string `yaml:"allow,omitempty"`
	Deny          []string `yaml:"deny,omitempty"`
}

// Load reads a policy file. A path that cannot be read is an error: the
// caller asked for this policy by name, and running without it would
// silently weaken the redaction.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy %s: %w", path, err)
	}

	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing policy %s: %w", path, err)
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("policy %s: %w", path, err)
	}
	return &p, nil
}

// Validate checks that every named event is known. An unknown name is a
// typo that would silently weaken or fail to strengthen the policy.
func (p *Policy) Validate() error {
	for _, name := range p.Allow {
		if _, ok := schema.EventByName[name]; !ok {
			return fmt.Errorf("unknown event %q in allow list", name)
		}
	}
	for _, name := range p.Deny {
		if _, ok := schema.EventByName[name]; !ok {
			return fmt.Errorf("unknown event %q in deny list", name)
		}
	}
	return nil
}

// AllowNumbers resolves the allow entries to field numbers.
func (p *Policy) AllowNumbers() []protowire.Number {
	return resolve(p.Allow)
}

// DenyNumbers resolves the deny entries to field numbers.
func (p *Policy) DenyNumbers() []protowire.Number {
	return resolve(p.Deny)
}

func resolve(names []string) []protowire.Number {
	nums := make([]protowire.Number, 0, len(names))
	for _, name := range names {
		if num, ok := schema.EventByName[name]; ok {
			nums = append(nums, num)
		}
	}
	return nums
}

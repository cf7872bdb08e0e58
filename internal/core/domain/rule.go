package domain

import (
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// RuleKey is the identity of a Rule within one build. Two rules with the same
// command, inputs and outputs share a key no matter which target name they
// were resolved from.
type RuleKey uint64

// String returns the hex representation of the key.
func (k RuleKey) String() string {
	return strconv.FormatUint(uint64(k), 16)
}

// Rule is a buildable target: a command line together with its declared
// inputs and outputs. A Rule is immutable once resolved.
type Rule struct {
	target  InternedString
	command string
	inputs  []string
	outputs []string
	key     RuleKey
}

// NewRule creates a Rule resolved from the given target name.
func NewRule(target, command string, inputs, outputs []string) *Rule {
	r := &Rule{
		target:  NewInternedString(target),
		command: command,
		inputs:  append([]string(nil), inputs...),
		outputs: append([]string(nil), outputs...),
	}
	r.key = r.hash()
	return r
}

// Target returns the name the rule was resolved from.
func (r *Rule) Target() string { return r.target.String() }

// Command returns the shell command line. It may be empty.
func (r *Rule) Command() string { return r.command }

// Inputs returns a copy of the declared inputs, in declaration order.
func (r *Rule) Inputs() []string { return append([]string(nil), r.inputs...) }

// Outputs returns a copy of the declared outputs, in declaration order.
func (r *Rule) Outputs() []string { return append([]string(nil), r.outputs...) }

// Key returns the rule identity.
func (r *Rule) Key() RuleKey { return r.key }

// Equal reports whether both rules describe the same build step.
func (r *Rule) Equal(other *Rule) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.command == other.command &&
		slices.Equal(r.inputs, other.inputs) &&
		slices.Equal(r.outputs, other.outputs)
}

// Less orders rules by key, then by command for the (unlikely) equal-key case.
func (r *Rule) Less(other *Rule) bool {
	if r.key != other.key {
		return r.key < other.key
	}
	return r.command < other.command
}

// String returns a short human readable name for logs and telemetry.
func (r *Rule) String() string {
	if len(r.outputs) == 0 {
		return r.Target()
	}
	if len(r.outputs) == 1 {
		return r.outputs[0]
	}
	return r.outputs[0] + " (+" + strconv.Itoa(len(r.outputs)-1) + ")"
}

func (r *Rule) hash() RuleKey {
	h := xxhash.New()
	sep := []byte{0}

	_, _ = h.WriteString(r.command)
	_, _ = h.Write(sep)
	_, _ = h.WriteString(strings.Join(r.inputs, "\x00"))
	_, _ = h.Write([]byte{1})
	_, _ = h.WriteString(strings.Join(r.outputs, "\x00"))

	return RuleKey(h.Sum64())
}

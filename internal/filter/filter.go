package filter

import (
	"strings"

	"golang.org/x/exp/slices"
)

// Filter selects Signal K paths and event types by name. A pattern ending
// in "*" matches every name with that prefix.
type Filter struct {
	Accepted []string `yaml:"accepted"`
	Rejected []string `yaml:"rejected"`
	active   bool
}

func (f *Filter) Activate() {
	if len(f.Accepted) != 0 || len(f.Rejected) != 0 {
		f.active = true
	}
}

// Check if value should be accepted or not
// No patterns specified -> everything is accepted
// only Accepted are provided -> only matching names are allowed
// only Rejected are specified -> everything is allowed except for matching names
// both Accepted and Rejected are provided -> only accepted names that were not rejected later are accepted
func (f *Filter) EvaluateFilter(names []string) (accepted bool) {
	if !f.active {
		return true
	}
	for _, name := range names {
		if len(f.Accepted) == 0 {
			accepted = true
			break
		}
		if matchAny(f.Accepted, name) {
			accepted = true
		}
	}

	for _, name := range names {
		if matchAny(f.Rejected, name) {
			accepted = false
		}
	}
	return
}

func (f *Filter) Accept(name string) bool {
	return f.EvaluateFilter([]string{name})
}

func matchAny(patterns []string, name string) bool {
	if slices.Contains(patterns, name) {
		return true
	}
	return slices.ContainsFunc(patterns, func(p string) bool {
		prefix, ok := strings.CutSuffix(p, "*")
		return ok && strings.HasPrefix(name, prefix)
	})
}

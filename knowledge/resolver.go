package knowledge

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// AliasRule maps trigger substrings onto a topic
type AliasRule struct {
	Topic string     `yaml:"topic"`
	Any   []string   `yaml:"any"`
	All   [][]string `yaml:"all"`
	Defer bool       `yaml:"defer"`
}

func (r AliasRule) matches(text string) bool {
	for _, s := range r.Any {
		if strings.Contains(text, s) {
			return true
		}
	}
	for _, group := range r.All {
		if len(group) == 0 {
			continue
		}
		hit := true
		for _, s := range group {
			if !strings.Contains(text, s) {
				hit = false
				break
			}
		}
		if hit {
			return true
		}
	}
	return false
}

// Resolver maps free text onto knowledge base topics. It holds no mutable
// state and is safe for concurrent use.
type Resolver struct {
	base  *Base
	names []string // lower-cased topic names in listing order
	rules []AliasRule
}

// NewResolver builds a resolver over base using the embedded alias table
func NewResolver(base *Base) (*Resolver, error) {
	return ParseResolver(base, bytes.NewReader(aliasesYAML))
}

// ParseResolver builds a resolver over base from a YAML alias table
func ParseResolver(base *Base, r io.Reader) (*Resolver, error) {
	if base == nil {
		return nil, errors.New("knowledge base is required")
	}

	var rules []AliasRule
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&rules); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode alias rules: %w", err)
	}

	for i := range rules {
		rule := &rules[i]
		if rule.Defer {
			if rule.Topic != "" {
				return nil, fmt.Errorf("alias rule #%d defers but names topic %q", i+1, rule.Topic)
			}
		} else {
			t, ok := base.Topic(rule.Topic)
			if !ok {
				return nil, fmt.Errorf("alias rule #%d references unknown topic %q", i+1, rule.Topic)
			}
			rule.Topic = t.Name
		}
		if len(rule.Any) == 0 && len(rule.All) == 0 {
			return nil, fmt.Errorf("alias rule #%d has no triggers", i+1)
		}
		rule.Any = lowerAll(rule.Any)
		for j := range rule.All {
			rule.All[j] = lowerAll(rule.All[j])
		}
	}

	names := make([]string, 0, base.Len())
	for _, n := range base.Topics() {
		names = append(names, strings.ToLower(n))
	}

	return &Resolver{base: base, names: names, rules: rules}, nil
}

// Resolve returns the topic key a question is about, if any.
// Exact names win, then the longest topic name contained in the text, then
// the first alias rule that matches.
func (r *Resolver) Resolve(text string) (string, bool) {
	q := strings.ToLower(strings.TrimSpace(text))
	if q == "" {
		return "", false
	}

	if t, ok := r.base.Topic(q); ok {
		return t.Name, true
	}

	best := -1
	for i, name := range r.names {
		if strings.Contains(q, name) && (best < 0 || len(name) > len(r.names[best])) {
			best = i
		}
	}
	if best >= 0 {
		return r.base.topics[best].Name, true
	}

	for _, rule := range r.rules {
		if !rule.matches(q) {
			continue
		}
		if rule.Defer {
			return "", false
		}
		return rule.Topic, true
	}

	return "", false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

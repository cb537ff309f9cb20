// Package knowledge holds the rental-law topic snapshot and the resolver
// that maps free-text questions onto it.
package knowledge

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"mietrecht-backend/models"
)

//go:embed data/topics.yaml
var topicsYAML []byte

//go:embed data/aliases.yaml
var aliasesYAML []byte

// Base is the immutable in-memory knowledge base. It is safe for concurrent use.
type Base struct {
	topics []models.LegalTopic
	index  map[string]int // lower-cased name -> position in topics
}

// Load builds the knowledge base from the embedded snapshot
func Load() (*Base, error) {
	return Parse(bytes.NewReader(topicsYAML))
}

// Parse builds a knowledge base from a YAML sequence of topic records.
// The order of the sequence is the listing order.
func Parse(r io.Reader) (*Base, error) {
	var topics []models.LegalTopic
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&topics); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("knowledge snapshot is empty")
		}
		return nil, fmt.Errorf("failed to decode knowledge snapshot: %w", err)
	}
	if len(topics) == 0 {
		return nil, errors.New("knowledge snapshot is empty")
	}

	b := &Base{
		topics: topics,
		index:  make(map[string]int, len(topics)),
	}
	for i, t := range topics {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return nil, fmt.Errorf("topic #%d has no name", i+1)
		}
		if name != t.Name {
			return nil, fmt.Errorf("topic %q has surrounding whitespace", t.Name)
		}
		key := strings.ToLower(name)
		if _, dup := b.index[key]; dup {
			return nil, fmt.Errorf("duplicate topic %q", name)
		}
		if t.Summary == "" || t.Analysis == "" || t.Rulings == "" {
			return nil, fmt.Errorf("topic %q is missing narrative fields", name)
		}
		switch t.RiskLevel {
		case "", models.RiskLow, models.RiskMedium, models.RiskHigh:
		default:
			return nil, fmt.Errorf("topic %q has unknown risk level %q", name, t.RiskLevel)
		}
		b.index[key] = i
	}

	return b, nil
}

// Topics returns the topic names in listing order
func (b *Base) Topics() []string {
	names := make([]string, len(b.topics))
	for i, t := range b.topics {
		names[i] = t.Name
	}
	return names
}

// Topic looks up a record by name, ignoring case
func (b *Base) Topic(name string) (models.LegalTopic, bool) {
	i, ok := b.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return models.LegalTopic{}, false
	}
	t := b.topics[i]
	t.Recommendations = append([]string(nil), t.Recommendations...)
	return t, true
}

// Len returns the number of topics
func (b *Base) Len() int {
	return len(b.topics)
}

package knowledge

import (
	"strings"
	"testing"

	"mietrecht-backend/models"
)

func mustLoad(t *testing.T) *Base {
	t.Helper()
	b, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return b
}

func TestLoadEmbeddedSnapshot(t *testing.T) {
	b := mustLoad(t)

	if got, want := b.Len(), 26; got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}

	names := b.Topics()
	if names[0] != "Kündigung" {
		t.Errorf("first topic = %q, want %q", names[0], "Kündigung")
	}
	if last := names[len(names)-1]; last != "Vermieterfragen" {
		t.Errorf("last topic = %q, want %q", last, "Vermieterfragen")
	}
}

func TestTopicsReturnsCopy(t *testing.T) {
	b := mustLoad(t)

	names := b.Topics()
	names[0] = "changed"
	if got := b.Topics()[0]; got != "Kündigung" {
		t.Errorf("Topics()[0] = %q after caller mutation", got)
	}

	topic, _ := b.Topic("Kündigung")
	topic.Recommendations[0] = "changed"
	again, _ := b.Topic("Kündigung")
	if again.Recommendations[0] == "changed" {
		t.Error("Topic() shares recommendation slice with the snapshot")
	}
}

func TestTopicLookup(t *testing.T) {
	b := mustLoad(t)

	tests := []struct {
		name   string
		lookup string
		want   string
		found  bool
	}{
		{"exact", "Kaution", "Kaution", true},
		{"lower case", "kaution", "Kaution", true},
		{"upper case", "MIETERHÖHUNG", "Mieterhöhung", true},
		{"multi word", "unwirksame klauseln", "Unwirksame Klauseln", true},
		{"padded", "  Lärm ", "Lärm", true},
		{"partial", "Kaut", "", false},
		{"unknown", "Grundsteuer", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := b.Topic(tt.lookup)
			if ok != tt.found {
				t.Fatalf("Topic(%q) found = %v, want %v", tt.lookup, ok, tt.found)
			}
			if got.Name != tt.want {
				t.Errorf("Topic(%q) = %q, want %q", tt.lookup, got.Name, tt.want)
			}
		})
	}
}

func TestTopicRecordFields(t *testing.T) {
	b := mustLoad(t)

	topic, ok := b.Topic("Mieterhöhung")
	if !ok {
		t.Fatal("Mieterhöhung missing")
	}
	if !strings.Contains(topic.Analysis, "§ 558 BGB") {
		t.Errorf("analysis = %q, want reference to § 558 BGB", topic.Analysis)
	}
	if len(topic.Recommendations) != 4 {
		t.Errorf("recommendations = %d, want 4", len(topic.Recommendations))
	}
	if topic.RiskLevel != models.RiskMedium {
		t.Errorf("risk = %q, want %q", topic.RiskLevel, models.RiskMedium)
	}

	res := topic.Result()
	if res.Topic != "Mieterhöhung" || res.Source != models.SourceKnowledgeBase {
		t.Errorf("Result() tagged %q/%q", res.Topic, res.Source)
	}
	if err := res.Validate(); err != nil {
		t.Errorf("Result().Validate() = %v", err)
	}
}

func TestParseRejectsInvalidSnapshots(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", ""},
		{"empty list", "[]"},
		{"missing name", "- summary: a\n  analysis: b\n  rulings: c\n"},
		{"duplicate", "- {name: Kaution, summary: a, analysis: b, rulings: c}\n- {name: KAUTION, summary: a, analysis: b, rulings: c}\n"},
		{"missing rulings", "- {name: Kaution, summary: a, analysis: b}\n"},
		{"bad risk", "- {name: Kaution, summary: a, analysis: b, rulings: c, risk: extrem}\n"},
		{"unknown field", "- {name: Kaution, summary: a, analysis: b, rulings: c, color: red}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.yaml)); err == nil {
				t.Error("Parse() error = nil, want error")
			}
		})
	}
}

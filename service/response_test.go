package service

import (
	"errors"
	"testing"

	"mietrecht-backend/models"
)

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantSummary string
		wantRulings string
		wantRisk    models.RiskLevel
	}{
		{
			name:        "plain",
			raw:         `{"KI-Einschätzung":"Zulässig.","Professionelle Analyse":"§ 558 BGB","Gerichtsurteile":"BGH VIII ZR 234/18","Risiko":"Mittel"}`,
			wantSummary: "Zulässig.",
			wantRulings: "BGH VIII ZR 234/18",
			wantRisk:    models.RiskMedium,
		},
		{
			name:        "fenced with language tag",
			raw:         "```json\n{\"KI-Einschätzung\":\"Zulässig.\",\"Professionelle Analyse\":\"a\",\"Gerichtsurteile\":\"b\"}\n```",
			wantSummary: "Zulässig.",
			wantRulings: "b",
		},
		{
			name:        "prose around object",
			raw:         "Hier die Einschätzung:\n{\"KI-Einschätzung\":\"Ja.\",\"Professionelle Analyse\":\"a\",\"Gerichtsurteile\":\"b\",\"Risiko\":\"high\"}\nViel Erfolg.",
			wantSummary: "Ja.",
			wantRulings: "b",
			wantRisk:    models.RiskHigh,
		},
		{
			name:        "backticks inside a value",
			raw:         "{\"KI-Einschätzung\":\"Schreiben Sie ``` nicht\",\"Professionelle Analyse\":\"a\",\"Gerichtsurteile\":\"b\"}",
			wantSummary: "Schreiben Sie ``` nicht",
			wantRulings: "b",
		},
		{
			name:        "rulings as list",
			raw:         `{"KI-Einschätzung":"s","Professionelle Analyse":"a","Gerichtsurteile":["BGH VIII ZR 1/20"," ","LG Berlin 65 S 2/21"]}`,
			wantSummary: "s",
			wantRulings: "BGH VIII ZR 1/20; LG Berlin 65 S 2/21",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAnswer("test", tt.raw)
			if err != nil {
				t.Fatalf("parseAnswer() error = %v", err)
			}
			if got.Summary != tt.wantSummary {
				t.Errorf("Summary = %q, want %q", got.Summary, tt.wantSummary)
			}
			if got.Rulings != tt.wantRulings {
				t.Errorf("Rulings = %q, want %q", got.Rulings, tt.wantRulings)
			}
			if got.RiskLevel != tt.wantRisk {
				t.Errorf("RiskLevel = %q, want %q", got.RiskLevel, tt.wantRisk)
			}
			if got.Source != models.SourceProvider {
				t.Errorf("Source = %q, want provider", got.Source)
			}
		})
	}
}

func TestParseAnswerRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "Leider kann ich das nicht beantworten."},
		{"missing analysis", `{"KI-Einschätzung":"s","Gerichtsurteile":"b"}`},
		{"rulings wrong type", `{"KI-Einschätzung":"s","Professionelle Analyse":"a","Gerichtsurteile":42}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseAnswer("test", tt.raw)
			var perr *ProviderError
			if !errors.As(err, &perr) {
				t.Fatalf("parseAnswer() error = %v, want *ProviderError", err)
			}
			if perr.Raw != tt.raw {
				t.Errorf("Raw = %q, want the provider output", perr.Raw)
			}
		})
	}
}

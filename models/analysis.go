package models

import "fmt"

// RiskLevel is the coarse risk rating attached to an answer
type RiskLevel string

const (
	RiskLow    RiskLevel = "niedrig"
	RiskMedium RiskLevel = "mittel"
	RiskHigh   RiskLevel = "hoch"
)

// Source tells where an AnalysisResult came from
type Source string

const (
	SourceKnowledgeBase Source = "wissensdatenbank"
	SourceProvider      Source = "ki-anbieter"
	SourceOffline       Source = "offline"
)

// AnalysisResult is the normalized legal answer returned to clients.
// The JSON keys are the wire contract shared with the AI providers and the web frontend.
type AnalysisResult struct {
	Summary         string    `json:"KI-Einschätzung"`
	Analysis        string    `json:"Professionelle Analyse"`
	Rulings         string    `json:"Gerichtsurteile"`
	Recommendations []string  `json:"Handlungsempfehlungen,omitempty"`
	RiskLevel       RiskLevel `json:"Risiko,omitempty"`
	DocumentType    string    `json:"Dokument-Typ,omitempty"`

	// Set by the service, never by a provider
	Topic      string `json:"Thema,omitempty"`
	Source     Source `json:"Quelle,omitempty"`
	DocumentID string `json:"Dokument-ID,omitempty"`
}

// Validate checks that the narrative fields every consumer relies on are present
func (a *AnalysisResult) Validate() error {
	switch {
	case a.Summary == "":
		return fmt.Errorf("missing field %q", "KI-Einschätzung")
	case a.Analysis == "":
		return fmt.Errorf("missing field %q", "Professionelle Analyse")
	case a.Rulings == "":
		return fmt.Errorf("missing field %q", "Gerichtsurteile")
	}
	return nil
}

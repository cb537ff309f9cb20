package models

// LegalTopic is one immutable record of the rental-law knowledge base
type LegalTopic struct {
	Name            string    `json:"-" yaml:"name"`
	Summary         string    `json:"KI-Einschätzung" yaml:"summary"`
	Analysis        string    `json:"Professionelle Analyse" yaml:"analysis"`
	Rulings         string    `json:"Gerichtsurteile" yaml:"rulings"`
	Recommendations []string  `json:"Handlungsempfehlungen,omitempty" yaml:"recommendations"`
	RiskLevel       RiskLevel `json:"Risiko,omitempty" yaml:"risk"`
}

// Result converts the record into the AnalysisResult shape
func (t LegalTopic) Result() AnalysisResult {
	recs := make([]string, len(t.Recommendations))
	copy(recs, t.Recommendations)
	return AnalysisResult{
		Summary:         t.Summary,
		Analysis:        t.Analysis,
		Rulings:         t.Rulings,
		Recommendations: recs,
		RiskLevel:       t.RiskLevel,
		Topic:           t.Name,
		Source:          SourceKnowledgeBase,
	}
}

package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"mietrecht-backend/models"
)

// providerAnswer mirrors the answer contract with lenient field types
type providerAnswer struct {
	Summary         string          `json:"KI-Einschätzung"`
	Analysis        string          `json:"Professionelle Analyse"`
	Rulings         json.RawMessage `json:"Gerichtsurteile"`
	Recommendations json.RawMessage `json:"Handlungsempfehlungen"`
	RiskLevel       string          `json:"Risiko"`
	DocumentType    string          `json:"Dokument-Typ"`
}

// parseAnswer turns raw provider output into a validated AnalysisResult
func parseAnswer(provider, raw string) (*models.AnalysisResult, error) {
	var answer providerAnswer
	if err := unmarshalAIJSON(raw, &answer); err != nil {
		return nil, &ProviderError{Provider: provider, Raw: raw, Err: err}
	}

	rulings, err := stringOrList(answer.Rulings, "; ")
	if err != nil {
		return nil, &ProviderError{Provider: provider, Raw: raw, Err: fmt.Errorf("Gerichtsurteile: %w", err)}
	}
	recs, err := listOrString(answer.Recommendations)
	if err != nil {
		return nil, &ProviderError{Provider: provider, Raw: raw, Err: fmt.Errorf("Handlungsempfehlungen: %w", err)}
	}

	result := &models.AnalysisResult{
		Summary:         strings.TrimSpace(answer.Summary),
		Analysis:        strings.TrimSpace(answer.Analysis),
		Rulings:         rulings,
		Recommendations: recs,
		RiskLevel:       normalizeRisk(answer.RiskLevel),
		DocumentType:    strings.TrimSpace(answer.DocumentType),
		Source:          models.SourceProvider,
	}
	if err := result.Validate(); err != nil {
		return nil, &ProviderError{Provider: provider, Raw: raw, Err: err}
	}
	return result, nil
}

// unmarshalAIJSON tries the raw text first, then strips Markdown fences and
// retries on the outermost braces
func unmarshalAIJSON(raw string, out interface{}) error {
	trimmed := strings.TrimSpace(raw)
	if err := json.Unmarshal([]byte(trimmed), out); err == nil {
		return nil
	}

	cleaned := stripCodeFence(trimmed)
	if err := json.Unmarshal([]byte(cleaned), out); err == nil {
		return nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), out); err == nil {
			return nil
		}
	}

	return errors.New("invalid JSON response from AI")
}

func stripCodeFence(s string) string {
	open := strings.Index(s, "```")
	if open < 0 {
		return s
	}
	body := s[open+3:]
	// drop the language tag on the opening fence line
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.Contains(body[:nl], "{") {
		body = body[nl+1:]
	}
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

func stringOrList(raw json.RawMessage, sep string) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return "", errors.New("expected string or list of strings")
	}
	return strings.Join(compact(list), sep), nil
}

func listOrString(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return compact(list), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.New("expected list of strings or string")
	}
	return compact(strings.Split(s, "\n")), nil
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(s), "-•*"))
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func normalizeRisk(raw string) models.RiskLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "niedrig", "gering", "low":
		return models.RiskLow
	case "mittel", "mäßig", "medium":
		return models.RiskMedium
	case "hoch", "high":
		return models.RiskHigh
	}
	return ""
}

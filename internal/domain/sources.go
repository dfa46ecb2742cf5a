package domain

import "strings"

// institutionalSources is the allow-list of health authorities whose
// documents carry extra weight. Matching is case-insensitive substring
// against the document's feed or source name.
var institutionalSources = []string{
	"WHO", "CDC", "ISS", "MINISTERO", "AIFA", "EMA", "FDA",
	"ECDC", "WORLD HEALTH", "CENTERS FOR DISEASE", "ISTITUTO SUPERIORE",
	"MINISTRY OF HEALTH", "HEALTH MINISTRY", "PUBMED", "NEJM", "LANCET",
}

// InstitutionalRegistry answers whether a document comes from a recognized
// health authority. The list is immutable static configuration, injected
// into the scorers that need it rather than read as an ambient global.
type InstitutionalRegistry struct {
	names []string
}

// NewInstitutionalRegistry returns a registry over the default allow-list.
func NewInstitutionalRegistry() *InstitutionalRegistry {
	return &InstitutionalRegistry{names: institutionalSources}
}

// IsInstitutional reports whether the document's feed or source name
// matches the allow-list.
func (r *InstitutionalRegistry) IsInstitutional(doc Document) bool {
	name := strings.ToUpper(doc.SourceName())
	if name == "" {
		return false
	}
	for _, inst := range r.names {
		if strings.Contains(name, inst) {
			return true
		}
	}
	return false
}

// medicalTerms feeds the chunk quality score: fragments dense in clinical
// vocabulary are better citation material than boilerplate.
var medicalTerms = []string{
	"salute", "medico", "medicina", "farmaco", "terapia", "diagnosi",
	"sintomo", "malattia", "virus", "vaccino", "cura", "trattamento",
}

// MedicalTermDensity counts how many seed medical terms occur in content,
// capped at cap.
func MedicalTermDensity(content string, cap int) int {
	lower := strings.ToLower(content)
	hits := 0
	for _, term := range medicalTerms {
		if strings.Contains(lower, term) {
			hits++
			if hits >= cap {
				break
			}
		}
	}
	return hits
}

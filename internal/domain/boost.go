package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// CategorySurveillance tags epidemiological surveillance bulletins, which
// carry the local and temporal specifics that matter for claim checking.
const CategorySurveillance = "surveillance"

// BoostFactors holds the named multipliers applied to a base hybrid score.
// Each factor is independent; the final adjustment is their product, so a
// factor near zero can suppress an otherwise-strong match.
type BoostFactors struct {
	Country       float64
	Year          float64
	Category      float64
	Keyword       float64
	Institutional float64
	TimeDecay     float64
}

// Product multiplies all factors. Zero-valued (unset) factors count as 1.
func (f BoostFactors) Product() float64 {
	product := 1.0
	for _, v := range []float64{f.Country, f.Year, f.Category, f.Keyword, f.Institutional, f.TimeDecay} {
		if v > 0 {
			product *= v
		}
	}
	return product
}

// BoostCalculator computes the per-document relevance adjustments.
// All methods are pure functions of the document and the given signal;
// the reference time for decay is passed in so scoring stays deterministic
// under test.
type BoostCalculator struct {
	registry *InstitutionalRegistry
}

// NewBoostCalculator creates a calculator backed by the given registry.
func NewBoostCalculator(registry *InstitutionalRegistry) *BoostCalculator {
	if registry == nil {
		registry = NewInstitutionalRegistry()
	}
	return &BoostCalculator{registry: registry}
}

var italianIndicators = []string{"italia", "italy"}

// CountryBoost rewards documents matching an extracted "italy" locale
// signal: Italian content or language tag gets x1.15, an Italy signal with
// neither gets x0.92. Any other (or absent) signal is neutral.
func (b *BoostCalculator) CountryBoost(doc Document, countrySignal string) float64 {
	if countrySignal != "italy" {
		return 1.0
	}
	combined := strings.ToLower(doc.CombinedText())
	hasItalianContent := false
	for _, indicator := range italianIndicators {
		if strings.Contains(combined, indicator) {
			hasItalianContent = true
			break
		}
	}
	if hasItalianContent || strings.HasPrefix(doc.LangCode(), "it") {
		return 1.15
	}
	return 0.92
}

// YearBoost rewards documents mentioning the claim year in title, body or
// URL (x1.12). Non-matching surveillance documents get a mild x0.98 penalty
// since bulletins often omit the year from the text; everything else gets
// x0.93. No extracted year is neutral.
func (b *BoostCalculator) YearBoost(doc Document, claimYear int) float64 {
	if claimYear == 0 {
		return 1.0
	}
	combined := strings.ToLower(doc.CombinedText() + " " + doc.URL)
	if strings.Contains(combined, strconv.Itoa(claimYear)) {
		return 1.12
	}
	if doc.Category() == CategorySurveillance {
		return 0.98
	}
	return 0.93
}

// CategoryBoost gives surveillance documents x1.10.
func (b *BoostCalculator) CategoryBoost(doc Document) float64 {
	if doc.Category() == CategorySurveillance {
		return 1.10
	}
	return 1.0
}

// KeywordBoost is min(1.0 + 0.05*hits, 1.25) where hits counts must-terms
// appearing in title+body. Always in [1.0, 1.25].
func (b *BoostCalculator) KeywordBoost(doc Document, mustTerms []string) float64 {
	if len(mustTerms) == 0 {
		return 1.0
	}
	combined := strings.ToLower(doc.CombinedText())
	hits := 0
	for _, term := range mustTerms {
		if strings.Contains(combined, strings.ToLower(term)) {
			hits++
		}
	}
	return math.Min(1.0+0.05*float64(hits), 1.25)
}

// InstitutionalBoost gives allow-listed health authorities x1.10, a single
// consistent multiplier contract.
func (b *BoostCalculator) InstitutionalBoost(doc Document) float64 {
	if b.registry.IsInstitutional(doc) {
		return 1.10
	}
	return 1.0
}

// TimeDecay is the exponential half-life decay 0.5^(days/halfLife),
// always in (0, 1]. A missing or unparseable timestamp means no decay.
func (b *BoostCalculator) TimeDecay(doc Document, halfLifeDays int, now time.Time) float64 {
	published, ok := doc.PublishedTime()
	if !ok {
		return 1.0
	}
	if halfLifeDays < 1 {
		halfLifeDays = 1
	}
	days := now.Sub(published).Hours() / 24
	if days <= 0 {
		return 1.0
	}
	return math.Pow(0.5, days/float64(halfLifeDays))
}

package bias

import (
	"math"
	"sort"
	"strings"
	"sync"
)

// Item is a recommended item submitted for bias analysis.
// Category may be empty; classification then falls back to keyword matching
// over Title and Description, and finally to "Uncategorized".
type Item struct {
	Title       string
	Description string
	Category    string
}

// Uncategorized is assigned when no category signal matches an item.
const Uncategorized = "Uncategorized"

// Config tunes the detector.
type Config struct {
	// DominanceThreshold is the share of one category above which the set is
	// flagged as biased. Defaults to 0.6.
	DominanceThreshold float64
	// MinItems is the minimum set size required for a bias claim.
	// Below it the outcome is insufficient data, not bias. Defaults to 3.
	MinItems int
}

// DefaultConfig returns the default detector configuration.
func DefaultConfig() Config {
	return Config{
		DominanceThreshold: 0.6,
		MinItems:           3,
	}
}

// TeachingBiasReport is the outcome of a teaching-bias analysis.
// Severity is the rounded percentage of how far past the threshold the
// dominance extends: clamp((share-threshold)/(1-threshold), 0, 1) * 100.
type TeachingBiasReport struct {
	HasBias            bool    `json:"has_bias"`
	TeachingCount      int     `json:"teaching_count"`
	TeachingPercentage float64 `json:"teaching_percentage"`
	Severity           int     `json:"severity"`
	Reason             string  `json:"reason,omitempty"`
}

// Reasons reported by DetectTeachingBias.
const (
	ReasonInsufficientData = "insufficient_data"
	ReasonBelowThreshold   = "below_threshold"
	ReasonDominance        = "teaching_dominance"
)

// CategoryShare is one category's slice of a distribution.
type CategoryShare struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// DistributionReport describes how categories are spread across an item set.
// Diversity is the ratio of distinct categories to items, in [0, 1].
type DistributionReport struct {
	Categories          map[string]CategoryShare `json:"categories"`
	DominantCategory    string                   `json:"dominant_category,omitempty"`
	DominancePercentage float64                  `json:"dominance_percentage"`
	Diversity           float64                  `json:"diversity"`
	HasDominance        bool                     `json:"has_dominance"`
}

// Stats are cumulative counters across all analyses in this process.
type Stats struct {
	TotalAnalyses         int     `json:"total_analyses"`
	BiasDetectionRate     float64 `json:"bias_detection_rate"`
	TeachingBiasRate      float64 `json:"teaching_bias_rate"`
	CategoryDominanceRate float64 `json:"category_dominance_rate"`
}

// Detector analyzes recommendation sets for category dominance.
// It is advisory: it never mutates the item set, only reports on it.
// The cumulative counters are explicit instance state so tests can run
// against fresh detectors; Reset restores the zero state.
type Detector struct {
	cfg Config

	mu           sync.Mutex
	analyses     int
	biased       int
	teachingBias int
	dominance    int
}

// New creates a Detector. Zero-valued config fields fall back to defaults.
func New(cfg Config) *Detector {
	if cfg.DominanceThreshold <= 0 || cfg.DominanceThreshold >= 1 {
		cfg.DominanceThreshold = DefaultConfig().DominanceThreshold
	}
	if cfg.MinItems < 1 {
		cfg.MinItems = DefaultConfig().MinItems
	}
	return &Detector{cfg: cfg}
}

// teachingKeywords classify an item as education/teaching when its category
// field or text mentions them.
var teachingKeywords = []string{
	"teach", "teacher", "teaching", "educator", "education", "lecturer", "tutor", "school",
}

// categoryKeywords is the documented classification heuristic for items
// without an explicit category.
var categoryKeywords = map[string][]string{
	"Education":   {"teach", "educator", "education", "lecturer", "tutor", "curriculum"},
	"Engineering": {"engineer", "engineering", "mechanical", "electrical", "civil"},
	"Healthcare":  {"doctor", "nurse", "medical", "health", "pharma", "physio"},
	"Technology":  {"software", "developer", "programmer", "data scientist", "it ", "computer"},
	"Business":    {"business", "entrepreneur", "manager", "marketing", "sales"},
	"Finance":     {"account", "finance", "financial", "actuary", "audit", "bank"},
	"Law":         {"lawyer", "attorney", "legal", "advocate", "law"},
	"Science":     {"scientist", "research", "laboratory", "biolog", "chemist", "physicist"},
	"Arts":        {"artist", "design", "music", "writer", "creative", "drama"},
	"Agriculture": {"farm", "agricult", "horticult", "veterinar"},
	"Trades":      {"electrician", "plumber", "welder", "artisan", "mechanic"},
}

// Classify returns the category for an item: the explicit field when set,
// otherwise the first keyword category matching title or description,
// otherwise Uncategorized.
func Classify(item Item) string {
	if c := strings.TrimSpace(item.Category); c != "" {
		return c
	}

	text := strings.ToLower(item.Title + " " + item.Description)

	// Stable iteration so identical inputs classify identically
	names := make([]string, 0, len(categoryKeywords))
	for name := range categoryKeywords {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, kw := range categoryKeywords[name] {
			if strings.Contains(text, kw) {
				return name
			}
		}
	}
	return Uncategorized
}

// isTeaching reports whether an item belongs to the education/teaching domain.
func isTeaching(item Item) bool {
	category := strings.ToLower(Classify(item))
	if category == "education" || category == "teaching" {
		return true
	}
	text := strings.ToLower(item.Title + " " + item.Description)
	for _, kw := range teachingKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// DetectTeachingBias checks the final recommended item set for
// over-representation of education/teaching careers. It never fails for a
// well-formed input: too few items is a normal insufficient-data outcome.
func (d *Detector) DetectTeachingBias(items []Item) TeachingBiasReport {
	report := TeachingBiasReport{}

	if len(items) < d.cfg.MinItems {
		report.Reason = ReasonInsufficientData
		d.record(false, false, false)
		return report
	}

	for _, item := range items {
		if isTeaching(item) {
			report.TeachingCount++
		}
	}

	share := float64(report.TeachingCount) / float64(len(items))
	report.TeachingPercentage = math.Round(share * 100)

	if share > d.cfg.DominanceThreshold {
		report.HasBias = true
		report.Reason = ReasonDominance
		severity := (share - d.cfg.DominanceThreshold) / (1 - d.cfg.DominanceThreshold)
		severity = math.Min(math.Max(severity, 0), 1)
		report.Severity = int(math.Round(severity * 100))
	} else {
		report.Reason = ReasonBelowThreshold
	}

	d.record(report.HasBias, report.HasBias, false)
	return report
}

// AnalyzeCategoryDistribution computes the category spread of an item set.
// An empty set yields no dominant category and zero diversity.
func (d *Detector) AnalyzeCategoryDistribution(items []Item) DistributionReport {
	report := DistributionReport{
		Categories: make(map[string]CategoryShare),
	}

	if len(items) == 0 {
		d.record(false, false, false)
		return report
	}

	counts := make(map[string]int)
	for _, item := range items {
		counts[Classify(item)]++
	}

	var dominant string
	var dominantCount int
	for category, count := range counts {
		report.Categories[category] = CategoryShare{
			Count:      count,
			Percentage: math.Round(float64(count) / float64(len(items)) * 100),
		}
		// Tie broken by category name for determinism
		if count > dominantCount || (count == dominantCount && category < dominant) {
			dominant = category
			dominantCount = count
		}
	}

	report.DominantCategory = dominant
	report.DominancePercentage = math.Round(float64(dominantCount) / float64(len(items)) * 100)
	report.Diversity = float64(len(counts)) / float64(len(items))
	report.HasDominance = len(items) >= d.cfg.MinItems &&
		float64(dominantCount)/float64(len(items)) > d.cfg.DominanceThreshold

	d.record(report.HasDominance, false, report.HasDominance)
	return report
}

// Stats returns the cumulative counters as rates.
func (d *Detector) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	stats := Stats{TotalAnalyses: d.analyses}
	if d.analyses > 0 {
		stats.BiasDetectionRate = float64(d.biased) / float64(d.analyses)
		stats.TeachingBiasRate = float64(d.teachingBias) / float64(d.analyses)
		stats.CategoryDominanceRate = float64(d.dominance) / float64(d.analyses)
	}
	return stats
}

// Reset clears the cumulative counters.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.analyses = 0
	d.biased = 0
	d.teachingBias = 0
	d.dominance = 0
}

func (d *Detector) record(biased, teaching, dominance bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.analyses++
	if biased {
		d.biased++
	}
	if teaching {
		d.teachingBias++
	}
	if dominance {
		d.dominance++
	}
}

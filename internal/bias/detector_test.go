package bias

import (
	"fmt"
	"math"
	"testing"
)

func teachingItems(n int) []Item {
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{
			Title:       fmt.Sprintf("Teacher %d", i),
			Description: "teach learners at a school",
			Category:    "Education",
		}
	}
	return items
}

func otherItems(n int) []Item {
	categories := []string{"Engineering", "Healthcare", "Finance", "Law", "Science"}
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{
			Title:    fmt.Sprintf("Career %d", i),
			Category: categories[i%len(categories)],
		}
	}
	return items
}

func TestDetectTeachingBiasSevenOfTen(t *testing.T) {
	// 7 of 10 items in education against threshold 0.6:
	// share 0.7, percentage 70, severity round((0.7-0.6)/0.4*100) = 25.
	detector := New(DefaultConfig())
	items := append(teachingItems(7), otherItems(3)...)

	report := detector.DetectTeachingBias(items)

	if !report.HasBias {
		t.Fatal("expected bias to be flagged")
	}
	if report.TeachingCount != 7 {
		t.Errorf("expected teaching count 7, got %d", report.TeachingCount)
	}
	if report.TeachingPercentage != 70 {
		t.Errorf("expected teaching percentage 70, got %v", report.TeachingPercentage)
	}
	if report.Severity != 25 {
		t.Errorf("expected severity 25, got %d", report.Severity)
	}
	if report.Reason != ReasonDominance {
		t.Errorf("expected reason %q, got %q", ReasonDominance, report.Reason)
	}
}

func TestDetectTeachingBias(t *testing.T) {
	tests := []struct {
		name         string
		items        []Item
		wantBias     bool
		wantReason   string
		wantSeverity int
	}{
		{
			name:       "empty set is insufficient data",
			items:      nil,
			wantBias:   false,
			wantReason: ReasonInsufficientData,
		},
		{
			name:       "two items is insufficient data",
			items:      teachingItems(2),
			wantBias:   false,
			wantReason: ReasonInsufficientData,
		},
		{
			name:       "exactly at threshold is not bias",
			items:      append(teachingItems(6), otherItems(4)...),
			wantBias:   false,
			wantReason: ReasonBelowThreshold,
		},
		{
			name:         "all teaching is maximum severity",
			items:        teachingItems(5),
			wantBias:     true,
			wantReason:   ReasonDominance,
			wantSeverity: 100,
		},
		{
			name:       "balanced set",
			items:      append(teachingItems(2), otherItems(8)...),
			wantBias:   false,
			wantReason: ReasonBelowThreshold,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := New(DefaultConfig()).DetectTeachingBias(tt.items)
			if report.HasBias != tt.wantBias {
				t.Errorf("HasBias = %v, want %v", report.HasBias, tt.wantBias)
			}
			if report.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", report.Reason, tt.wantReason)
			}
			if report.Severity != tt.wantSeverity {
				t.Errorf("Severity = %d, want %d", report.Severity, tt.wantSeverity)
			}
		})
	}
}

func TestDetectTeachingBiasByKeywordOnly(t *testing.T) {
	// No explicit categories: classification falls back to keywords.
	detector := New(DefaultConfig())
	items := []Item{
		{Title: "High School Teacher", Description: "teach mathematics"},
		{Title: "Lecturer", Description: "lecture at a university"},
		{Title: "Tutor", Description: "tutor learners after hours"},
		{Title: "Boilermaker", Description: "fabricate steel structures"},
	}

	report := detector.DetectTeachingBias(items)

	if report.TeachingCount != 3 {
		t.Errorf("expected 3 teaching items, got %d", report.TeachingCount)
	}
	if !report.HasBias {
		t.Error("expected bias at 75% teaching share")
	}
}

func TestAnalyzeCategoryDistribution(t *testing.T) {
	detector := New(DefaultConfig())
	items := append(teachingItems(6), otherItems(2)...)

	report := detector.AnalyzeCategoryDistribution(items)

	if report.DominantCategory != "Education" {
		t.Errorf("expected Education dominant, got %q", report.DominantCategory)
	}
	if report.DominancePercentage != 75 {
		t.Errorf("expected dominance 75, got %v", report.DominancePercentage)
	}
	if !report.HasDominance {
		t.Error("expected dominance flag")
	}
	// 3 distinct categories over 8 items.
	if math.Abs(report.Diversity-3.0/8.0) > 1e-9 {
		t.Errorf("expected diversity 0.375, got %v", report.Diversity)
	}
	if share := report.Categories["Education"]; share.Count != 6 || share.Percentage != 75 {
		t.Errorf("unexpected Education share: %+v", share)
	}
}

func TestAnalyzeCategoryDistributionEmptySet(t *testing.T) {
	report := New(DefaultConfig()).AnalyzeCategoryDistribution(nil)

	if report.DominantCategory != "" {
		t.Errorf("expected no dominant category, got %q", report.DominantCategory)
	}
	if report.Diversity != 0 {
		t.Errorf("expected zero diversity, got %v", report.Diversity)
	}
	if report.HasDominance {
		t.Error("expected no dominance for empty set")
	}
	if len(report.Categories) != 0 {
		t.Errorf("expected no categories, got %d", len(report.Categories))
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want string
	}{
		{name: "explicit category wins", item: Item{Title: "teach kids", Category: "Healthcare"}, want: "Healthcare"},
		{name: "keyword match", item: Item{Title: "Software Developer", Description: "write code"}, want: "Technology"},
		{name: "no signal", item: Item{Title: "Xyzzy", Description: "plover"}, want: Uncategorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.item); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatsAndReset(t *testing.T) {
	detector := New(DefaultConfig())

	detector.DetectTeachingBias(teachingItems(5))                        // biased
	detector.DetectTeachingBias(append(teachingItems(2), otherItems(8)...)) // clean
	detector.AnalyzeCategoryDistribution(teachingItems(6))               // dominant

	stats := detector.Stats()
	if stats.TotalAnalyses != 3 {
		t.Errorf("expected 3 analyses, got %d", stats.TotalAnalyses)
	}
	if math.Abs(stats.TeachingBiasRate-1.0/3.0) > 1e-9 {
		t.Errorf("expected teaching bias rate 1/3, got %v", stats.TeachingBiasRate)
	}
	if math.Abs(stats.CategoryDominanceRate-1.0/3.0) > 1e-9 {
		t.Errorf("expected dominance rate 1/3, got %v", stats.CategoryDominanceRate)
	}

	detector.Reset()
	stats = detector.Stats()
	if stats.TotalAnalyses != 0 || stats.BiasDetectionRate != 0 {
		t.Errorf("expected zeroed stats after reset, got %+v", stats)
	}
}

func TestDetectorIsolation(t *testing.T) {
	// Counters are per-detector, not global.
	a := New(DefaultConfig())
	b := New(DefaultConfig())

	a.DetectTeachingBias(teachingItems(5))

	if b.Stats().TotalAnalyses != 0 {
		t.Error("expected fresh detector to have no analyses")
	}
}

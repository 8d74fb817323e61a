package profile

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Extractor parses a free-text query (plus optional structured fields) into a
// normalized StudentProfile. Extraction from prose is a documented heuristic:
// it is keyword and pattern based, and a miss simply leaves the field unset.
// Nothing downstream depends on any field being present.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

var (
	gradePattern     = regexp.MustCompile(`(?i)\bgrade\s*(10|11|12)\b`)
	markForPattern   = regexp.MustCompile(`(?i)\b(\d{1,3})\s*%\s*(?:for|in)\s+([a-z]+(?: [a-z]+){0,2})`)
	markAfterPattern = regexp.MustCompile(`(?i)\b([a-z]+(?: [a-z]+){0,2})\s*[:\-]\s*(\d{1,3})\s*%`)
	rangePattern     = regexp.MustCompile(`(?i)\b(\d{1,3})\s*(?:-|–|to)\s*(\d{1,3})\s*%\s*(?:for|in)\s+([a-z]+(?: [a-z]+){0,2})`)
	apsPattern       = regexp.MustCompile(`(?i)\baps\s*(?:of|is|:)?\s*(\d{1,2})\b`)
	yearPattern      = regexp.MustCompile(`\b(20\d{2})\b`)
)

// subjectAliases maps query phrasings to canonical subject names.
var subjectAliases = map[string]string{
	"maths":                   "mathematics",
	"math":                    "mathematics",
	"mathematics":             "mathematics",
	"maths literacy":          "mathematical literacy",
	"mathematical literacy":   "mathematical literacy",
	"physics":                 "physical sciences",
	"physical science":        "physical sciences",
	"physical sciences":       "physical sciences",
	"biology":                 "life sciences",
	"life science":            "life sciences",
	"life sciences":           "life sciences",
	"accounting":              "accounting",
	"economics":               "economics",
	"business studies":        "business studies",
	"geography":               "geography",
	"history":                 "history",
	"english":                 "english",
	"afrikaans":               "afrikaans",
	"isizulu":                 "isizulu",
	"cat":                     "computer applications technology",
	"computer applications":   "computer applications technology",
	"information technology":  "information technology",
	"it":                      "information technology",
	"life orientation":        "life orientation",
	"tourism":                 "tourism",
	"agricultural sciences":   "agricultural sciences",
	"engineering graphics":    "engineering graphics and design",
	"egd":                     "engineering graphics and design",
	"visual arts":             "visual arts",
	"art":                     "visual arts",
	"dramatic arts":           "dramatic arts",
	"music":                   "music",
}

// interestKeywords maps query phrasings to canonical interest labels.
var interestKeywords = map[string]string{
	"coding":           "technology",
	"programming":      "technology",
	"computers":        "technology",
	"technology":       "technology",
	"software":         "technology",
	"helping people":   "helping people",
	"medicine":         "healthcare",
	"doctor":           "healthcare",
	"nursing":          "healthcare",
	"health":           "healthcare",
	"teaching":         "education",
	"teacher":          "education",
	"design":           "design",
	"drawing":          "design",
	"creative":         "design",
	"business":         "business",
	"entrepreneur":     "business",
	"money":            "finance",
	"finance":          "finance",
	"investing":        "finance",
	"law":              "law",
	"lawyer":           "law",
	"justice":          "law",
	"animals":          "nature",
	"environment":      "nature",
	"outdoors":         "nature",
	"farming":          "agriculture",
	"agriculture":      "agriculture",
	"building":         "engineering",
	"engineering":      "engineering",
	"machines":         "engineering",
	"science":          "science",
	"research":         "science",
	"sports":           "sports",
	"writing":          "media",
	"journalism":       "media",
	"media":            "media",
}

// budgetKeywords maps phrasings to a budget tier.
var budgetKeywords = map[string]string{
	"bursary":     "low",
	"bursaries":   "low",
	"scholarship": "low",
	"nsfas":       "low",
	"afford":      "low",
	"cheap":       "low",
	"low budget":  "low",
	"no money":    "low",
	"expensive":   "high",
	"private":     "high",
}

// locations the extractor recognizes: South African provinces and major cities.
var knownLocations = []string{
	"gauteng", "western cape", "eastern cape", "northern cape", "kwazulu-natal",
	"free state", "north west", "mpumalanga", "limpopo",
	"johannesburg", "pretoria", "cape town", "durban", "bloemfontein",
	"port elizabeth", "gqeberha", "polokwane", "stellenbosch",
}

// Extract builds a StudentProfile from query text and optional structured
// fields. Structured fields win over anything found in the text.
func (e *Extractor) Extract(query string, fields *Fields) StudentProfile {
	lower := strings.ToLower(query)

	p := StudentProfile{
		Marks: make(map[string]Mark),
		Depth: DepthComprehensive,
	}

	if m := gradePattern.FindStringSubmatch(query); m != nil {
		grade, _ := strconv.Atoi(m[1])
		p.Grade = &grade
	}

	p.Subjects = matchKeywords(lower, subjectAliases)
	p.Interests = matchKeywords(lower, interestKeywords)
	e.extractMarks(query, &p)

	for phrase, tier := range budgetKeywords {
		if strings.Contains(lower, phrase) {
			t := tier
			p.Constraints.Budget = &t
			break
		}
	}
	for _, loc := range knownLocations {
		if strings.Contains(lower, loc) {
			l := loc
			p.Constraints.Location = &l
			break
		}
	}
	if m := yearPattern.FindStringSubmatch(query); m != nil {
		d := m[1]
		p.Constraints.Deadline = &d
	}

	if m := apsPattern.FindStringSubmatch(query); m != nil {
		aps, _ := strconv.Atoi(m[1])
		p.APS = &aps
	}

	if strings.Contains(lower, "quick") || strings.Contains(lower, "brief") || strings.Contains(lower, "short answer") {
		p.Depth = DepthQuick
	}

	applyFields(&p, fields)
	return p
}

// extractMarks pulls exact marks ("70% for maths") and ranges
// ("60-70% in physics") out of the query text.
func (e *Extractor) extractMarks(query string, p *StudentProfile) {
	for _, m := range rangePattern.FindAllStringSubmatch(query, -1) {
		low, err1 := strconv.ParseFloat(m[1], 64)
		high, err2 := strconv.ParseFloat(m[2], 64)
		subject, ok := resolveLeading(m[3])
		if err1 != nil || err2 != nil || !ok || low > high || high > 100 {
			continue
		}
		p.Marks[subject] = Mark{Low: &low, High: &high}
	}

	for _, m := range markForPattern.FindAllStringSubmatch(query, -1) {
		exact, err := strconv.ParseFloat(m[1], 64)
		subject, ok := resolveLeading(m[2])
		if err != nil || !ok || exact > 100 {
			continue
		}
		if _, exists := p.Marks[subject]; exists {
			continue // Range form already captured this subject
		}
		p.Marks[subject] = Mark{Exact: &exact}
	}

	for _, m := range markAfterPattern.FindAllStringSubmatch(query, -1) {
		exact, err := strconv.ParseFloat(m[2], 64)
		subject, ok := resolveTrailing(m[1])
		if err != nil || !ok || exact > 100 {
			continue
		}
		if _, exists := p.Marks[subject]; exists {
			continue
		}
		p.Marks[subject] = Mark{Exact: &exact}
	}

	// Subjects with marks are subjects the student takes
	for subject := range p.Marks {
		if !containsString(p.Subjects, subject) {
			p.Subjects = append(p.Subjects, subject)
		}
	}
	sort.Strings(p.Subjects)
}

// applyFields overlays structured form fields onto the extracted profile.
func applyFields(p *StudentProfile, fields *Fields) {
	if fields == nil {
		return
	}
	if fields.Grade != nil {
		p.Grade = fields.Grade
	}
	if len(fields.Subjects) > 0 {
		p.Subjects = normalizeList(fields.Subjects)
	}
	for subject, mark := range fields.Marks {
		exact := mark
		canonical := subject
		if c, ok := canonicalSubject(subject); ok {
			canonical = c
		} else {
			canonical = strings.ToLower(strings.TrimSpace(subject))
		}
		p.Marks[canonical] = Mark{Exact: &exact}
		if !containsString(p.Subjects, canonical) {
			p.Subjects = append(p.Subjects, canonical)
		}
	}
	if len(fields.Interests) > 0 {
		p.Interests = normalizeList(fields.Interests)
	}
	if fields.Budget != nil {
		p.Constraints.Budget = fields.Budget
	}
	if fields.Location != nil {
		loc := strings.ToLower(strings.TrimSpace(*fields.Location))
		p.Constraints.Location = &loc
	}
	if fields.Deadline != nil {
		p.Constraints.Deadline = fields.Deadline
	}
	if fields.Depth != nil && strings.EqualFold(*fields.Depth, string(DepthQuick)) {
		p.Depth = DepthQuick
	}
	if fields.APS != nil {
		p.APS = fields.APS
	}
	sort.Strings(p.Subjects)
	sort.Strings(p.Interests)
}

// matchKeywords returns the sorted, deduplicated canonical values whose alias
// appears in the text. Longer aliases are checked first so "life sciences"
// wins over "science".
func matchKeywords(lower string, aliases map[string]string) []string {
	keys := make([]string, 0, len(aliases))
	for k := range aliases {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	seen := make(map[string]struct{})
	var result []string
	for _, alias := range keys {
		if !containsWord(lower, alias) {
			continue
		}
		canonical := aliases[alias]
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		result = append(result, canonical)
	}
	sort.Strings(result)
	return result
}

// containsWord reports whether phrase occurs in text on word boundaries.
// Plain substring matching would let "it" match inside "university".
func containsWord(text, phrase string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		beforeOK := start == 0 || !isWordRune(rune(text[start-1]))
		afterOK := end == len(text) || !isWordRune(rune(text[end]))
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordRune(r rune) bool {
	return r == '-' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
}

// canonicalSubject resolves a raw subject phrase to its canonical name.
func canonicalSubject(raw string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := subjectAliases[key]; ok {
		return canonical, true
	}
	return "", false
}

// resolveLeading canonicalizes a phrase that starts with the subject but may
// carry trailing words, e.g. "maths and i" from "70% for maths and I...".
// Longest prefix wins so "life sciences and" resolves to "life sciences".
func resolveLeading(raw string) (string, bool) {
	words := strings.Fields(strings.ToLower(raw))
	for end := len(words); end > 0; end-- {
		if canonical, ok := canonicalSubject(strings.Join(words[:end], " ")); ok {
			return canonical, true
		}
	}
	return "", false
}

// resolveTrailing canonicalizes a phrase that ends with the subject but may
// carry leading words, e.g. "results were accounting" from "...accounting: 85%".
func resolveTrailing(raw string) (string, bool) {
	words := strings.Fields(strings.ToLower(raw))
	for start := 0; start < len(words); start++ {
		if canonical, ok := canonicalSubject(strings.Join(words[start:], " ")); ok {
			return canonical, true
		}
	}
	return "", false
}

func normalizeList(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var result []string
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if canonical, ok := subjectAliases[v]; ok {
			v = canonical
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	sort.Strings(result)
	return result
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

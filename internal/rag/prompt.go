package rag

import (
	"fmt"
	"sort"
	"strings"

	"careerpath-ai/internal/profile"
)

// systemPrompt frames the model as a guidance counsellor and pins the
// required disclaimer footer.
const systemPrompt = `You are a career guidance assistant for South African high school students (grades 10 to 12).
Answer using only the provided context. If the context does not cover the question, say so and give general direction instead of inventing specifics.
Structure your answer in markdown with a "## Recommended Careers" section listing each recommendation as "- Career: why it fits", followed by a "## Next Steps" section.
Recommend a diverse range of career directions; do not concentrate on a single field unless the student's profile clearly demands it.
End your answer with this exact line:
` + DisclaimerMarker

// buildUserPrompt renders the assembled context, the student profile and the
// question into the user message.
func buildUserPrompt(query string, p profile.StudentProfile, bundle ContextBundle) string {
	var builder strings.Builder

	builder.WriteString("Context:\n")
	for i, item := range bundle.Items {
		fmt.Fprintf(&builder, "[%d] %s\n", i+1, item.Text)
	}

	builder.WriteString("\nStudent profile:\n")
	builder.WriteString(describeProfile(p))

	builder.WriteString("\nQuestion: ")
	builder.WriteString(query)
	builder.WriteString("\n")

	return builder.String()
}

// describeProfile renders the known profile fields as plain lines, omitting
// anything the student never expressed.
func describeProfile(p profile.StudentProfile) string {
	var lines []string

	if p.Grade != nil {
		lines = append(lines, fmt.Sprintf("- Grade: %d", *p.Grade))
	}
	if len(p.Subjects) > 0 {
		lines = append(lines, "- Subjects: "+strings.Join(p.Subjects, ", "))
	}
	if len(p.Marks) > 0 {
		subjects := make([]string, 0, len(p.Marks))
		for subject := range p.Marks {
			subjects = append(subjects, subject)
		}
		sort.Strings(subjects)
		parts := make([]string, 0, len(subjects))
		for _, subject := range subjects {
			parts = append(parts, subject+" "+describeMark(p.Marks[subject]))
		}
		lines = append(lines, "- Marks: "+strings.Join(parts, ", "))
	}
	if len(p.Interests) > 0 {
		lines = append(lines, "- Interests: "+strings.Join(p.Interests, ", "))
	}
	if p.Constraints.Budget != nil {
		lines = append(lines, "- Budget: "+*p.Constraints.Budget)
	}
	if p.Constraints.Location != nil {
		lines = append(lines, "- Location: "+*p.Constraints.Location)
	}
	if p.Constraints.Deadline != nil {
		lines = append(lines, "- Deadline: "+*p.Constraints.Deadline)
	}
	if p.APS != nil {
		lines = append(lines, fmt.Sprintf("- APS: %d", *p.APS))
	}
	lines = append(lines, "- Requested depth: "+string(p.Depth))

	return strings.Join(lines, "\n") + "\n"
}

func describeMark(m profile.Mark) string {
	switch {
	case m.Exact != nil:
		return fmt.Sprintf("%.0f%%", *m.Exact)
	case m.Low != nil && m.High != nil:
		return fmt.Sprintf("%.0f-%.0f%%", *m.Low, *m.High)
	default:
		return "unknown"
	}
}

// FallbackGuidance is the generic answer used when retrieval finds nothing
// or generation fails: general options rather than a raw error.
func FallbackGuidance(p profile.StudentProfile) string {
	var builder strings.Builder
	builder.WriteString("I could not find guidance specific to your question, so here are some general options.\n\n")
	builder.WriteString("## Recommended Careers\n")
	builder.WriteString("- Explore broad fields: compare engineering, healthcare, business, technology and the trades before narrowing down\n")
	if len(p.Interests) > 0 {
		builder.WriteString("- Follow your interests: look for careers connected to " + strings.Join(p.Interests, ", ") + "\n")
	}
	builder.WriteString("- Speak to your school's life orientation teacher about aptitude assessments\n")
	builder.WriteString("\n## Next Steps\n")
	builder.WriteString("- Visit university and TVET college open days to see programmes first-hand\n")
	builder.WriteString("- Check NSFAS and bursary deadlines early if funding is a concern\n")
	builder.WriteString("\n" + DisclaimerMarker + "\n")
	return builder.String()
}

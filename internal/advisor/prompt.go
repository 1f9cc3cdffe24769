package advisor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"career-assessment-service/internal/domain"
	"career-assessment-service/internal/scoring"
)

const promptTopN = 5

func recommendationPrompt(snaps []domain.Snapshot) string {
	var b strings.Builder
	b.WriteString("You are a career guidance AI assistant. Based on the assessment results provided, recommend the top 3 most suitable career options for the user.\n\n")
	b.WriteString("## Assessment Results\n\n")
	for _, s := range snaps {
		if !s.Completed() {
			fmt.Fprintf(&b, "%s: Not completed\n\n", s.Title)
			continue
		}
		fmt.Fprintf(&b, "### %s (Top Categories)\n", s.Title)
		for _, c := range scoring.TopN(s.Scores, promptTopN) {
			fmt.Fprintf(&b, "- %s: %s points\n", c.Category, formatScore(c.Score))
		}
		fmt.Fprintf(&b, "\nFull %s Results:\n%s\n\n", s.Title, indentJSON(s.Scores))
	}
	b.WriteString(`## Analysis Instructions

1. Analyze the assessment results to identify patterns, strengths, and preferences.
2. Consider both traditional and non-traditional career paths that align with the results.
3. Focus on careers that match the user's highest-scoring categories across all completed assessments.
4. For each recommended career, provide:
   - A specific career title (not a general field)
   - A match percentage between 75-98% that reflects how well it aligns with the assessment results
   - A concise, informative one-sentence description of the career

## Response Format

Respond ONLY with a valid JSON array of exactly 3 career recommendation objects with the following structure:
[
  {
    "career": "Specific Career Title",
    "match": 95,
    "description": "Brief description of what this career involves and why it matches the user's profile."
  }
]

Do not include any explanatory text before or after the JSON array.
`)
	return b.String()
}

func chatSystemPrompt(snaps []domain.Snapshot) string {
	var b strings.Builder
	b.WriteString("You are an AI career guidance counselor for an educational platform. Your purpose is to help students with career-related questions based on their assessment results.\n\n")
	b.WriteString("## Student's Assessment Results\n")
	for _, s := range snaps {
		if !s.Completed() {
			fmt.Fprintf(&b, "%s: Not completed\n\n", s.Title)
			continue
		}
		fmt.Fprintf(&b, "%s Results: %s\n\n", s.Title, indentJSON(s.Scores))
	}
	fmt.Fprintf(&b, `## Your Role and Restrictions
1. ONLY answer questions related to education, careers, skills development, and professional growth.
2. If a question is not related to careers or education, politely redirect the conversation by saying: "%s"
3. Use the student's assessment results to provide personalized advice.
4. Be encouraging, supportive, and professional in your responses.
5. Provide specific, actionable advice when possible.
6. When discussing careers, focus on those that align with the student's assessment results.
7. If asked about sensitive topics, politics, entertainment, or anything unrelated to education/careers, politely redirect.

Remember, your purpose is to guide students in their career journey based on their assessment results. Stay focused on this mission.
`, redirectReply)
	return b.String()
}

func indentJSON(scores domain.CategoryScores) string {
	raw, err := json.MarshalIndent(scores, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

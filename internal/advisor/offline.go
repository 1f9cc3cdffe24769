package advisor

import (
	"strings"

	"career-assessment-service/internal/domain"
)

var careerKeywords = []string{"career", "job", "profession", "study", "college", "course", "education", "skill"}

var cannedCareerReplies = []string{
	"Based on your assessment results, you show strong aptitude in analytical thinking. Have you considered careers in data analysis or research?",
	"Your interest assessment indicates a preference for creative work. Fields like design, content creation, or marketing might be good fits for you.",
	"Looking at your assessment results, I notice you score highly in both technical and communication skills. Roles that combine these, like technical project management, could be worth exploring.",
	"Your non-conventional career assessment suggests you might thrive in emerging fields. Have you looked into sustainability consulting or digital experience design?",
	"Based on your aptitude scores, you have strong logical reasoning skills. This would be valuable in fields like software development, engineering, or financial analysis.",
}

// offlineReply answers without a model: off-topic questions get the
// redirect sentence, career questions a canned suggestion picked by hashing
// the question so the same question always gets the same answer.
func offlineReply(question string) domain.ChatReply {
	q := strings.ToLower(question)
	content := redirectReply
	for _, kw := range careerKeywords {
		if strings.Contains(q, kw) {
			var h uint32
			for i := 0; i < len(q); i++ {
				h = h*31 + uint32(q[i])
			}
			content = cannedCareerReplies[h%uint32(len(cannedCareerReplies))]
			break
		}
	}
	return domain.ChatReply{
		Message: domain.ChatMessage{Role: domain.ChatRoleAssistant, Content: content},
	}
}

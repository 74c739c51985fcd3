// Package classify maps inbound messages to routing categories.
//
// Classification is a fixed decision table: ordered keyword rules matched by
// case-insensitive substring, first hit wins. The canonical priority is
// quiz > education > customer-service, with customer-service as the default
// for text that matches nothing. Non-text messages never enter keyword
// matching; they route to a single configured media category.
package classify

import (
	"strings"

	"github.com/botfront-labs/whatsapp-relay/internal/domain"
)

// rule pairs a category with the keywords that select it. Rules are
// evaluated in declaration order.
type rule struct {
	category domain.Category
	keywords []string
}

// Matching is substring-based, not tokenized: "quizzing" matches "quiz".
var rules = []rule{
	{
		category: domain.CategoryQuiz,
		keywords: []string{"quiz", "trivia", "jeu", "game", "play", "devinette"},
	},
	{
		category: domain.CategoryEducation,
		keywords: []string{"cours", "course", "learn", "lesson", "education", "formation", "study", "apprendre"},
	},
	{
		category: domain.CategoryCustomerService,
		keywords: []string{"help", "support", "aide", "problem", "probleme", "issue", "complaint", "reclamation"},
	},
}

// Classifier assigns a routing category to each message. It is pure and
// deterministic; the only state is the configured media category.
type Classifier struct {
	mediaCategory domain.Category
}

func New(mediaCategory domain.Category) *Classifier {
	if mediaCategory == "" {
		mediaCategory = domain.CategoryCustomerService
	}
	return &Classifier{mediaCategory: mediaCategory}
}

// Classify returns the routing category for a message. Messages without a
// text body (media, audio, unknown types) take the fixed media category
// regardless of attachment content.
func (c *Classifier) Classify(msg *domain.Message) domain.Category {
	if msg.Type != domain.MessageTypeText {
		return c.mediaCategory
	}

	text := strings.ToLower(msg.TextBody)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return r.category
			}
		}
	}
	return domain.CategoryCustomerService
}

package intent

import (
	"github.com/sayeesx/folio/internal/composer"
)

// Topic binds trigger keywords to a reply generator. Topics are evaluated in
// declared order and the first one with a matching keyword wins.
type Topic struct {
	Key      string
	Keywords []string
	Generate composer.Generator
}

// Topic keys.
const (
	TopicEducation  = "education"
	TopicSkills     = "skills"
	TopicProjects   = "projects"
	TopicContact    = "contact"
	TopicBackground = "background"
	TopicHumor      = "humor"
)

// DefaultTopics returns the portfolio topics bound to c's generators.
func DefaultTopics(c *composer.Composer) []Topic {
	return []Topic{
		{
			Key: TopicEducation,
			Keywords: []string{
				"education", "study", "studies", "college", "university", "degree",
				"bca", "school", "course", "academic", "qualification", "student",
			},
			Generate: c.Education,
		},
		{
			Key: TopicSkills,
			Keywords: []string{
				"skill", "technology", "tech", "stack", "language", "programming",
				"tool", "framework", "expertise", "coding", "code",
			},
			Generate: c.Skills,
		},
		{
			Key: TopicProjects,
			Keywords: []string{
				"project", "work", "portfolio", "built", "build", "app", "application",
				"experience",
			},
			Generate: c.Projects,
		},
		{
			Key: TopicContact,
			Keywords: []string{
				"contact", "email", "mail", "reach", "hire", "connect", "linkedin",
				"github", "social",
			},
			Generate: c.Contact,
		},
		{
			Key: TopicBackground,
			Keywords: []string{
				"where", "location", "live", "from", "hometown", "city", "based",
				"country", "origin", "speak",
			},
			Generate: c.Background,
		},
		{
			Key:      TopicHumor,
			Keywords: []string{"joke", "funny", "humor", "humour", "laugh", "fun"},
			Generate: c.Humor,
		},
	}
}

// MatchTopic returns the first topic with a keyword present in tokens.
func MatchTopic(tokens map[string]struct{}, topics []Topic) (Topic, bool) {
	for _, t := range topics {
		for _, kw := range t.Keywords {
			if hasStem(tokens, kw) {
				return t, true
			}
		}
	}
	return Topic{}, false
}

// hasStem reports whether tokens contain kw as-is or with "s" or "ing"
// appended.
func hasStem(tokens map[string]struct{}, kw string) bool {
	for _, form := range [...]string{kw, kw + "s", kw + "ing"} {
		if _, ok := tokens[form]; ok {
			return true
		}
	}
	return false
}

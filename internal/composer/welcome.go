package composer

import (
	"fmt"
	"strings"

	"github.com/sayeesx/folio/internal/profile"
)

// Welcome is the first bot message of every chat session.
func Welcome(p profile.Profile) string {
	name := p.FirstName()
	if name == "" {
		return "👋 Hi! I'm an AI assistant. How can I help you today?"
	}
	return fmt.Sprintf("👋 Hi! I'm %s's AI assistant. How can I help you today?", name)
}

// QuickAction is a canned question offered as a one-tap button.
type QuickAction struct {
	Label string `json:"label"`
	Query string `json:"query"`
}

// QuickActions returns the suggested questions shown when a session opens.
func QuickActions(p profile.Profile) []QuickAction {
	var actions []QuickAction
	if name := p.FirstName(); name != "" {
		actions = append(actions, QuickAction{
			Label: fmt.Sprintf("👋 Who is %s?", name),
			Query: "who is " + strings.ToLower(name),
		})
	}
	return append(actions,
		QuickAction{Label: "🎓 Education", Query: "education"},
		QuickAction{Label: "💼 Projects", Query: "projects"},
		QuickAction{Label: "🛠 Skills", Query: "skills"},
		QuickAction{Label: "📍 Location", Query: "where are you from"},
	)
}

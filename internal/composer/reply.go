// Package composer turns profile data into chat replies: template filling for
// topic answers and random phrase selection for small talk.
package composer

import (
	"errors"

	"github.com/sayeesx/folio/internal/profile"
)

// Target names a section of the portfolio site a reply can navigate to.
type Target string

const (
	TargetAbout     Target = "about"
	TargetEducation Target = "education"
	TargetSkills    Target = "skills"
	TargetProjects  Target = "projects"
	TargetContact   Target = "contact"
)

var targetPaths = map[Target]string{
	TargetAbout:     "/aboutme",
	TargetEducation: "/aboutme#education",
	TargetSkills:    "/skills",
	TargetProjects:  "/works",
	TargetContact:   "/contact",
}

var targetLabels = map[Target]string{
	TargetAbout:     "Learn more about me",
	TargetEducation: "View my education",
	TargetSkills:    "See my skills",
	TargetProjects:  "View my projects",
	TargetContact:   "Get in touch",
}

// Action is a navigation hint attached to a reply.
type Action struct {
	Label  string `json:"label"`
	Target Target `json:"target"`
	Path   string `json:"path"`
}

// NavigateTo returns the action for t. Unknown targets get an empty path.
func NavigateTo(t Target) *Action {
	return &Action{Label: targetLabels[t], Target: t, Path: targetPaths[t]}
}

// Reply is composed response text plus an optional navigation action.
type Reply struct {
	Text   string
	Action *Action
}

// Generator builds a topic reply from the profile.
type Generator func(p profile.Profile) (Reply, error)

// ErrNoContent is returned by a generator when the profile has nothing to
// say about its topic.
var ErrNoContent = errors.New("composer: profile has no content for topic")

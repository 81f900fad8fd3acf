package composer

import (
	"fmt"
	"strings"

	"github.com/sayeesx/folio/internal/profile"
)

// Composer fills reply templates from a profile. Each exported method with
// the Generator signature can be bound to a topic.
type Composer struct {
	picker *Picker
}

// New creates a Composer that draws random phrases from picker. A nil picker
// uses the global random source.
func New(picker *Picker) *Composer {
	if picker == nil {
		picker = NewPicker(nil)
	}
	return &Composer{picker: picker}
}

// Pick returns a random phrase from the named bank of p.
func (c *Composer) Pick(p profile.Profile, bank string) string {
	return c.picker.Pick(p.Conversational.Bank(bank))
}

// Introduce builds the first-person introduction used for identity questions.
func (c *Composer) Introduce(p profile.Profile) (Reply, error) {
	b := p.Basic
	if b.Name == "" {
		return Reply{}, ErrNoContent
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Hi! I'm %s", b.Name)
	if b.Role != "" {
		fmt.Fprintf(&sb, ", %s", b.Role)
	}
	sb.WriteString(".")
	if b.Headline != "" {
		fmt.Fprintf(&sb, " %s.", strings.TrimSuffix(b.Headline, "."))
	}
	switch {
	case b.Age > 0 && b.Location.Current != "":
		fmt.Fprintf(&sb, " I'm %d and currently based in %s.", b.Age, b.Location.Current)
	case b.Location.Current != "":
		fmt.Fprintf(&sb, " I'm currently based in %s.", b.Location.Current)
	}
	if len(b.Interests) > 0 {
		fmt.Fprintf(&sb, " I'm interested in %s.", joinList(b.Interests))
	}
	return Reply{Text: sb.String(), Action: NavigateTo(TargetAbout)}, nil
}

// Education describes the current programme and earlier schooling.
func (c *Composer) Education(p profile.Profile) (Reply, error) {
	cur := p.Education.Current
	if cur.Degree == "" && len(p.Education.Previous) == 0 {
		return Reply{}, ErrNoContent
	}

	var sb strings.Builder
	if cur.Degree != "" {
		fmt.Fprintf(&sb, "I'm currently pursuing a %s", cur.Degree)
		if cur.Specialization != "" {
			fmt.Fprintf(&sb, " specializing in %s", cur.Specialization)
		}
		if cur.College != "" {
			fmt.Fprintf(&sb, " at %s", cur.College)
			if cur.University != "" && cur.University != cur.College {
				fmt.Fprintf(&sb, " (%s)", cur.University)
			}
		}
		if cur.Location != "" {
			fmt.Fprintf(&sb, ", %s", cur.Location)
		}
		sb.WriteString(".")
	}
	if len(p.Education.Previous) > 0 {
		var prev []string
		for _, s := range p.Education.Previous {
			entry := s.Level
			if s.Institution != "" {
				entry += " at " + s.Institution
			}
			if s.Year != "" {
				entry += " (" + s.Year + ")"
			}
			prev = append(prev, entry)
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "Before that I completed %s.", joinList(prev))
	}
	return Reply{Text: sb.String(), Action: NavigateTo(TargetEducation)}, nil
}

// Skills lists skills by category.
func (c *Composer) Skills(p profile.Profile) (Reply, error) {
	s := p.Skills
	groups := []struct {
		label string
		items []string
	}{
		{"Programming languages", s.Languages},
		{"Web and app frameworks", s.Frameworks},
		{"Data and AI", s.DataAI},
		{"Tools", s.Tools},
		{"Soft skills", s.Soft},
	}

	var lines []string
	for _, g := range groups {
		if len(g.items) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s.", g.label, strings.Join(g.items, ", ")))
	}
	if len(lines) == 0 {
		return Reply{}, ErrNoContent
	}
	text := "Here's what I work with. " + strings.Join(lines, " ")
	return Reply{Text: text, Action: NavigateTo(TargetSkills)}, nil
}

// Projects summarizes projects in declared order, first project first.
func (c *Composer) Projects(p profile.Profile) (Reply, error) {
	if len(p.Projects) == 0 {
		return Reply{}, ErrNoContent
	}

	var items []string
	for _, proj := range p.Projects {
		item := proj.Name
		if proj.Description != "" {
			item += ": " + strings.TrimSuffix(proj.Description, ".")
		}
		if len(proj.Technologies) > 0 {
			item += " (" + strings.Join(proj.Technologies, ", ") + ")"
		}
		items = append(items, item+".")
	}
	text := "Here are some things I've built. " + strings.Join(items, " ")
	return Reply{Text: text, Action: NavigateTo(TargetProjects)}, nil
}

// Background answers where the owner is from and where they live now.
func (c *Composer) Background(p profile.Profile) (Reply, error) {
	loc := p.Basic.Location
	var text string
	switch {
	case loc.Hometown != "" && loc.Current != "" && loc.Hometown != loc.Current:
		text = fmt.Sprintf("I'm originally from %s, and I currently live in %s.", loc.Hometown, loc.Current)
	case loc.Current != "":
		text = fmt.Sprintf("I currently live in %s.", loc.Current)
	case loc.Hometown != "":
		text = fmt.Sprintf("I'm from %s.", loc.Hometown)
	default:
		return Reply{}, ErrNoContent
	}
	if langs := p.Basic.Languages; len(langs) > 0 {
		text += fmt.Sprintf(" I speak %s.", joinList(langs))
	}
	return Reply{Text: text, Action: NavigateTo(TargetAbout)}, nil
}

// Contact lists public contact handles and points at the contact form.
func (c *Composer) Contact(p profile.Profile) (Reply, error) {
	ct := p.Contact
	var parts []string
	parts = append(parts, "The best way to reach me is the contact form on this site.")
	if ct.LinkedIn != "" {
		parts = append(parts, "LinkedIn: "+ct.LinkedIn+".")
	}
	if ct.GitHub != "" {
		parts = append(parts, "GitHub: "+ct.GitHub+".")
	}
	return Reply{Text: strings.Join(parts, " "), Action: NavigateTo(TargetContact)}, nil
}

// Humor returns a random line from the humor bank.
func (c *Composer) Humor(p profile.Profile) (Reply, error) {
	if len(p.Conversational.Humor) == 0 {
		return Reply{}, ErrNoContent
	}
	return Reply{Text: c.picker.Pick(p.Conversational.Humor), Action: NavigateTo(TargetAbout)}, nil
}

// joinList renders items as "a, b and c".
func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}

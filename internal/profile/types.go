package profile

// Profile is the portfolio owner's static, read-only self description. It
// feeds every composed chat reply and the public profile endpoint.
type Profile struct {
	Basic          Basic         `yaml:"basic" json:"basic"`
	Education      Education     `yaml:"education" json:"education"`
	Timeline       []Milestone   `yaml:"timeline" json:"timeline"`
	Skills         Skills        `yaml:"skills" json:"skills"`
	Projects       []Project     `yaml:"projects" json:"projects"`
	Contact        Contact       `yaml:"contact" json:"contact"`
	Conversational Conversational `yaml:"conversational" json:"-"`
}

// Basic captures identity: who the owner is and where they are.
type Basic struct {
	Name      string   `yaml:"name" json:"name"`
	Role      string   `yaml:"role" json:"role"`
	Headline  string   `yaml:"headline" json:"headline"`
	Age       int      `yaml:"age" json:"age,omitempty"`
	Birth     Birth    `yaml:"birth" json:"birth"`
	Location  Location `yaml:"location" json:"location"`
	Interests []string `yaml:"interests" json:"interests"`
	Languages []string `yaml:"languages" json:"languages"`
}

type Birth struct {
	Year  int    `yaml:"year" json:"year,omitempty"`
	Place string `yaml:"place" json:"place,omitempty"`
}

type Location struct {
	Current  string `yaml:"current" json:"current"`
	Hometown string `yaml:"hometown" json:"hometown"`
}

// Education holds the current programme and earlier schooling, oldest last.
type Education struct {
	Current  Programme `yaml:"current" json:"current"`
	Previous []School  `yaml:"previous" json:"previous"`
}

type Programme struct {
	Degree         string `yaml:"degree" json:"degree"`
	Specialization string `yaml:"specialization" json:"specialization"`
	College        string `yaml:"college" json:"college"`
	University     string `yaml:"university" json:"university"`
	Location       string `yaml:"location" json:"location"`
	Year           string `yaml:"year" json:"year"`
}

type School struct {
	Level       string `yaml:"level" json:"level"`
	Institution string `yaml:"institution" json:"institution"`
	Year        string `yaml:"year" json:"year"`
}

// Milestone is one entry of the about-page timeline.
type Milestone struct {
	Title       string `yaml:"title" json:"title"`
	Institution string `yaml:"institution" json:"institution,omitempty"`
	Period      string `yaml:"period" json:"period"`
	Description string `yaml:"description" json:"description"`
}

// Skills groups skill names by category.
type Skills struct {
	Languages  []string `yaml:"languages" json:"languages"`
	Frameworks []string `yaml:"frameworks" json:"frameworks"`
	DataAI     []string `yaml:"data_ai" json:"data_ai"`
	Tools      []string `yaml:"tools" json:"tools"`
	Soft       []string `yaml:"soft" json:"soft"`
}

type Project struct {
	Name         string   `yaml:"name" json:"name"`
	Description  string   `yaml:"description" json:"description"`
	Technologies []string `yaml:"technologies" json:"technologies"`
	Link         string   `yaml:"link" json:"link,omitempty"`
}

type Contact struct {
	Email    string            `yaml:"email" json:"email"`
	LinkedIn string            `yaml:"linkedin" json:"linkedin"`
	GitHub   string            `yaml:"github" json:"github"`
	Other    map[string]string `yaml:"other" json:"other,omitempty"`
}

// Phrase bank names.
const (
	BankGreetings = "greetings"
	BankGoodbye   = "goodbye"
	BankThanks    = "thanks"
	BankHumor     = "humor"
	BankUnknown   = "unknown"
)

// Conversational holds the canned phrase banks used for small talk.
type Conversational struct {
	Greetings []string `yaml:"greetings"`
	Goodbye   []string `yaml:"goodbye"`
	Thanks    []string `yaml:"thanks"`
	Humor     []string `yaml:"humor"`
	Unknown   []string `yaml:"unknown"`
}

// Bank returns the named phrase bank, or nil when the name is unknown.
func (c Conversational) Bank(name string) []string {
	switch name {
	case BankGreetings:
		return c.Greetings
	case BankGoodbye:
		return c.Goodbye
	case BankThanks:
		return c.Thanks
	case BankHumor:
		return c.Humor
	case BankUnknown:
		return c.Unknown
	}
	return nil
}

// BankNames lists every bank a valid profile must populate.
func BankNames() []string {
	return []string{BankGreetings, BankGoodbye, BankThanks, BankHumor, BankUnknown}
}

// FirstName returns the first word of the owner's name.
func (p Profile) FirstName() string {
	for i, r := range p.Basic.Name {
		if r == ' ' {
			return p.Basic.Name[:i]
		}
	}
	return p.Basic.Name
}

// Package intent classifies visitor chat messages against an ordered rule
// table and composes the reply from the portfolio profile.
package intent

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/sayeesx/folio/internal/composer"
	"github.com/sayeesx/folio/internal/profile"
)

// Category is the kind of answer a message received.
type Category string

const (
	CategoryClarify  Category = "clarify"
	CategoryIdentity Category = "identity"
	CategoryPrivacy  Category = "privacy"
	CategoryGreeting Category = "greeting"
	CategoryGoodbye  Category = "goodbye"
	CategoryThanks   Category = "thanks"
	CategoryTopic    Category = "topic"
	CategoryFallback Category = "fallback"
)

// Result is the outcome of classifying one message.
type Result struct {
	Category Category         `json:"category"`
	Text     string           `json:"text"`
	Action   *composer.Action `json:"action,omitempty"`
	Topic    string           `json:"topic,omitempty"`
}

// query is a message prepared once for every rule.
type query struct {
	normalized string
	tokens     map[string]struct{}
}

func newQuery(input string) query {
	toks := Tokens(input)
	return query{
		normalized: strings.Join(toks, " "),
		tokens:     toSet(toks...),
	}
}

// rule is one row of the precedence table. respond returns false to fall
// through to the fallback reply.
type rule struct {
	category Category
	match    func(c *Classifier, q query, p profile.Profile) bool
	respond  func(c *Classifier, q query, p profile.Profile) (Result, bool)
}

// rules is evaluated top to bottom; the first matching rule answers.
var rules = []rule{
	{
		category: CategoryIdentity,
		match:    matchIdentity,
		respond: func(c *Classifier, _ query, p profile.Profile) (Result, bool) {
			return c.generate(CategoryIdentity, "", c.composer.Introduce, p)
		},
	},
	{
		category: CategoryPrivacy,
		match: func(_ *Classifier, q query, _ profile.Profile) bool {
			for _, kw := range privacyKeywords {
				if hasStem(q.tokens, kw) {
					return true
				}
			}
			return false
		},
		respond: func(_ *Classifier, _ query, _ profile.Profile) (Result, bool) {
			return Result{Category: CategoryPrivacy, Text: PrivacyText}, true
		},
	},
	bankRule(CategoryGreeting, greetingWords, profile.BankGreetings),
	bankRule(CategoryGoodbye, goodbyeWords, profile.BankGoodbye),
	bankRule(CategoryThanks, thanksWords, profile.BankThanks),
	{
		category: CategoryTopic,
		match: func(c *Classifier, q query, _ profile.Profile) bool {
			_, ok := MatchTopic(q.tokens, c.topics)
			return ok
		},
		respond: func(c *Classifier, q query, p profile.Profile) (Result, bool) {
			t, _ := MatchTopic(q.tokens, c.topics)
			return c.generate(CategoryTopic, t.Key, t.Generate, p)
		},
	},
}

func bankRule(cat Category, words map[string]struct{}, bank string) rule {
	return rule{
		category: cat,
		match: func(_ *Classifier, q query, _ profile.Profile) bool {
			for w := range q.tokens {
				if _, ok := words[w]; ok {
					return true
				}
			}
			return false
		},
		respond: func(c *Classifier, _ query, p profile.Profile) (Result, bool) {
			return Result{Category: cat, Text: c.composer.Pick(p, bank)}, true
		},
	}
}

func matchIdentity(_ *Classifier, q query, p profile.Profile) bool {
	for _, phrase := range identityPhrases {
		if strings.Contains(q.normalized, phrase) {
			return true
		}
	}
	if first := strings.ToLower(p.FirstName()); first != "" {
		if strings.Contains(q.normalized, "who is "+first) {
			return true
		}
	}
	return false
}

// Classifier answers visitor messages. It holds no mutable state besides
// the composer's random source, so one instance can serve concurrent
// requests.
type Classifier struct {
	composer *composer.Composer
	topics   []Topic
	logger   *slog.Logger
}

// New creates a Classifier. When topics is nil the default portfolio topics
// bound to c are used. A nil composer uses the global random source.
func New(c *composer.Composer, topics []Topic) *Classifier {
	if c == nil {
		c = composer.New(nil)
	}
	if topics == nil {
		topics = DefaultTopics(c)
	}
	return &Classifier{composer: c, topics: topics, logger: slog.Default()}
}

// Topics returns the topics in evaluation order.
func (c *Classifier) Topics() []Topic {
	out := make([]Topic, len(c.topics))
	copy(out, c.topics)
	return out
}

// Classify answers input using p. It never fails: noisy input gets the
// clarification text, and any internal fault yields the fallback reply.
func (c *Classifier) Classify(input string, p profile.Profile) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("classifier panic, using fallback", "panic", fmt.Sprint(r))
			res = c.fallback(p)
		}
	}()

	if IsNoisy(input) {
		return Result{Category: CategoryClarify, Text: ClarificationText}
	}

	q := newQuery(input)
	for _, r := range rules {
		if !r.match(c, q, p) {
			continue
		}
		if out, ok := r.respond(c, q, p); ok {
			return out
		}
		c.logger.Debug("rule matched but produced no reply", "category", r.category)
		break
	}
	return c.fallback(p)
}

// generate runs gen, converting errors and panics into a false return so the
// caller falls through to the fallback reply.
func (c *Classifier) generate(cat Category, topic string, gen composer.Generator, p profile.Profile) (res Result, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("reply generator panicked", "category", cat, "topic", topic, "panic", fmt.Sprint(r))
			res, ok = Result{}, false
		}
	}()

	if gen == nil {
		return Result{}, false
	}
	reply, err := gen(p)
	if err != nil {
		c.logger.Warn("reply generator failed", "category", cat, "topic", topic, "error", err)
		return Result{}, false
	}
	return Result{Category: cat, Text: reply.Text, Action: reply.Action, Topic: topic}, true
}

func (c *Classifier) fallback(p profile.Profile) Result {
	return Result{Category: CategoryFallback, Text: c.composer.Pick(p, profile.BankUnknown)}
}

var defaultClassifier = New(nil, nil)

// Classify answers input with p and topics using the global random source.
// A nil topics slice selects the default portfolio topics.
func Classify(input string, p profile.Profile, topics []Topic) Result {
	if topics == nil {
		return defaultClassifier.Classify(input, p)
	}
	return New(nil, topics).Classify(input, p)
}

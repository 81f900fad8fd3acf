package intent

import (
	"strings"
)

// NoiseThreshold is the highest noise score still treated as a real
// question. The threshold is intentionally low: two suspicious tokens are
// enough to ask the visitor to rephrase.
const NoiseThreshold = 1

// ClarificationText is the fixed reply for inputs that look like typos or
// keyboard mashing.
const ClarificationText = "I'm not sure I understood that. Could you rephrase your question? " +
	"You can ask me about my education, skills, projects, or how to get in touch."

// shorthand lists chat shorthand and common misspellings that count as noise.
var shorthand = toSet(
	"u", "r", "ur", "wat", "wut", "wht", "ya", "teh", "abt", "hw", "y", "k",
	"pls", "plz", "dat", "dis", "da", "tht", "bcoz", "coz", "cuz", "wen",
)

// shortAllowed are single-character tokens that are real words.
var shortAllowed = toSet("a", "i")

// vowelExempt are vowel-less tokens that are legitimate in a portfolio chat.
var vowelExempt = toSet(
	"sql", "css", "html", "php", "npm", "nlp", "llm", "llms", "gpt", "xml",
	"dns", "ssh", "tcp", "http", "https", "mvc", "crm", "cms", "pdf", "svg",
	"jwt", "grpc", "cnn", "rnn", "gcp", "thx", "hmm", "mrs", "pvt", "ltd",
	"dbms", "rdbms", "mvp", "b2b", "b2c", "sdk", "gpu", "ssd", "hdd", "mcp",
	"tls", "ssl", "vpn", "nltk", "dsp",
)

// quoteFolder maps typographic apostrophes to the ASCII one.
var quoteFolder = strings.NewReplacer("\u2019", "'", "\u2018", "'")

// edgePunct is trimmed from both ends of each token before scoring.
const edgePunct = `.,!?;:"()`

// Tokens lower-cases input, folds curly apostrophes, splits it on whitespace
// and trims surrounding sentence punctuation from each token. Tokens that are
// pure punctuation are dropped.
func Tokens(input string) []string {
	fields := strings.Fields(quoteFolder.Replace(strings.ToLower(input)))
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, edgePunct)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// NoiseScore counts tokens that look like shorthand, stray characters,
// symbol soup or consonant mashing. Each token adds at most one point.
func NoiseScore(input string) int {
	score := 0
	for _, tok := range Tokens(input) {
		if tokenNoise(tok) {
			score++
		}
	}
	return score
}

// IsNoisy reports whether input scores above NoiseThreshold.
func IsNoisy(input string) bool {
	return NoiseScore(input) > NoiseThreshold
}

func tokenNoise(tok string) bool {
	if _, ok := shorthand[tok]; ok {
		return true
	}
	n := len([]rune(tok))
	switch {
	case n < 2:
		_, ok := shortAllowed[tok]
		return !ok
	case n > 2 && hasForeignChar(tok):
		return true
	case n > 2 && lacksVowel(tok):
		_, ok := vowelExempt[tok]
		return !ok
	}
	return false
}

func hasForeignChar(tok string) bool {
	for _, r := range tok {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ', r == '-', r == '\'':
		default:
			return true
		}
	}
	return false
}

// lacksVowel reports whether tok has letters but none of a, e, i, o, u, y.
func lacksVowel(tok string) bool {
	letters := false
	for _, r := range tok {
		if r < 'a' || r > 'z' {
			continue
		}
		letters = true
		if strings.ContainsRune("aeiouy", r) {
			return false
		}
	}
	return letters
}

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

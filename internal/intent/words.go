package intent

// PrivacyText is the fixed reply for questions about personal matters.
const PrivacyText = "I prefer to keep personal matters private. " +
	"I'm happy to talk about my education, skills, and projects though!"

// identityPhrases are matched as substrings of the normalized input.
var identityPhrases = []string{
	"who are you",
	"who r you",
	"tell me about yourself",
	"about yourself",
	"introduce yourself",
	"what do you do",
	"your background",
	"what's your name",
	"what is your name",
	"whats your name",
}

// privacyKeywords are matched as whole tokens, tolerating "s" and "ing".
var privacyKeywords = []string{
	"family", "families", "relationship", "girlfriend", "boyfriend", "married",
	"marriage", "wife", "husband", "dating", "crush", "salary", "income",
	"religion", "religious",
	"politics", "political", "caste", "address", "phone", "parent", "father",
	"mother", "sibling", "brother", "sister", "password",
}

var greetingWords = toSet(
	"hi", "hii", "hiii", "hello", "helo", "hey", "heya", "hiya", "howdy",
	"greetings", "namaste", "hola", "yo",
)

var goodbyeWords = toSet(
	"bye", "byee", "goodbye", "cya", "farewell", "goodnight",
)

var thanksWords = toSet(
	"thanks", "thank", "thx", "ty", "appreciate", "appreciated", "cheers",
)

package intent

import "strings"

// Intent is the lecture scope a question is aimed at.
type Intent string

const (
	Previous Intent = "previous"
	Current  Intent = "current"
	// Default means current-lecture-first with a fallback to earlier lectures.
	Default Intent = "default"
)

var previousPhrases = []string{
	"previous lecture", "last lecture", "prev lecture",
	"previous video", "last video", "earlier lecture",
	"pichle lecture", "pichli lecture", "pehle wala", "pehle ki lecture", "pichla video",
	"in the last", "in the previous", "from the previous",
	"you said earlier", "you mentioned earlier", "earlier you said", "earlier you mentioned",
}

var currentPhrases = []string{
	"this lecture", "current lecture", "this video", "in this video",
	"covered in this", "what is covered", "what was covered",
	"what did we", "what have we", "lecture summary", "overview of this",
	"explain this lecture", "summarize this", "recap",
	"what topics", "what we learned", "what did we learn", "what are we learning",
	"what was taught", "what did you teach", "what are we covering", "what did the instructor",
	"explain the concept", "summary", "summarize",
	"is yahan", "is lecture", "yeh lecture", "ye lecture", "ye video", "yeh video",
	"is video mein", "ye video mein", "abhi", "aaj ka", "aaj ki",
	"kya padha rahe", "kya sikha rahe", "is mein",
}

// Detect classifies a question by case-insensitive phrase matching.
// Previous-lecture phrases win over current-lecture phrases.
func Detect(question string) Intent {
	q := strings.ToLower(question)
	if containsAny(q, previousPhrases) {
		return Previous
	}
	if containsAny(q, currentPhrases) {
		return Current
	}
	return Default
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

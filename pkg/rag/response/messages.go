package response

import (
	"fmt"

	"course-buddy-be/pkg/store"
)

// OffTopic declines a question unrelated to the course.
func OffTopic(courseTitle string) string {
	return fmt.Sprintf(
		"Hmm, that's actually outside what I can help with. I'm here specifically for the %s course. "+
			"But any doubts on the current lecture, I'm all yours!",
		courseTitle,
	)
}

// FutureTopic tells the learner the topic is covered later, naming the lecture when known.
func FutureTopic(courseTitle string, hint *store.ScoredChunk) string {
	where := ""
	if hint != nil && hint.Metadata.LectureTitle != "" {
		where = fmt.Sprintf(" in **%s** (Chapter: %s)", hint.Metadata.LectureTitle, hint.Metadata.ChapterTitle)
	}
	return fmt.Sprintf(
		"Good question! That topic is actually coming up later in the %s course%s. "+
			"You'll get there soon! For now, let's focus on what we're learning right now. "+
			"Anything about the current lecture I can help with?",
		courseTitle, where,
	)
}

// CapacityExhausted is shown when every model in the chain is over capacity.
func CapacityExhausted() string {
	return "Oops, the model is busy right now. If this is a per-minute limit, wait about 60 seconds and try again. " +
		"If it's the daily limit, it resets at midnight UTC. Hang tight!"
}

// InvalidKey is shown when the provider rejects the credentials.
func InvalidKey() string {
	return "Invalid API key. Please update your key in Profile Settings."
}

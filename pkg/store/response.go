package store

// ResponseType tells the client how to render an answer.
type ResponseType string

const (
	ResponseInScope     ResponseType = "in_scope"
	ResponseFutureTopic ResponseType = "future_topic"
	ResponseOffTopic    ResponseType = "off_topic"
	ResponseRateLimited ResponseType = "rate_limited"
	ResponseError       ResponseType = "error"
)

// Reference is a clickable citation to another lecture.
type Reference struct {
	LectureTitle string `json:"lecture_title"`
	ChapterTitle string `json:"chapter_title"`
	Timestamp    string `json:"timestamp"`
	URL          string `json:"url"`
}

// RAGResponse is the final answer returned to the learner.
// ShowReferences is decided from the retrieved chunks when the answer is
// generated and travels with it into the semantic cache.
type RAGResponse struct {
	Message        string       `json:"message"`
	References     []Reference  `json:"references"`
	ResponseType   ResponseType `json:"response_type"`
	CacheHit       bool         `json:"cache_hit"`
	ShowReferences bool         `json:"show_references"`
	TokensUsed     *int         `json:"tokens_used,omitempty"`
}

// Clone returns a deep copy so cached answers are never aliased.
func (r *RAGResponse) Clone() *RAGResponse {
	if r == nil {
		return nil
	}
	out := *r
	out.References = append([]Reference(nil), r.References...)
	if r.TokensUsed != nil {
		t := *r.TokensUsed
		out.TokensUsed = &t
	}
	return &out
}

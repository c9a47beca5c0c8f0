package struggle

import (
	"context"

	"course-buddy-be/pkg/llm"
	"course-buddy-be/pkg/rag"
	"course-buddy-be/pkg/rag/cache"
)

const (
	minHistory     = 4
	recentQuestion = 6
	sameTopic      = 0.7
	repeatsNeeded  = 2
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Detector flags learners who keep asking about the same topic.
type Detector struct {
	embedder Embedder
	logger   rag.Logger
}

func NewDetector(embedder Embedder, logger rag.Logger) *Detector {
	return &Detector{embedder: embedder, logger: rag.OrNop(logger)}
}

// Struggling reports whether question is close to at least two of the
// learner's last six questions. Embedding failures count as not struggling.
func (d *Detector) Struggling(ctx context.Context, history []llm.Message, question string) bool {
	if len(history) < minHistory {
		return false
	}

	var asked []string
	for _, m := range history {
		if m.Role == llm.RoleUser {
			asked = append(asked, m.Content)
		}
	}
	if len(asked) < 2 {
		return false
	}
	if len(asked) > recentQuestion {
		asked = asked[len(asked)-recentQuestion:]
	}

	current, err := d.embedder.Embed(ctx, question)
	if err != nil {
		d.logger.Warn("STRUGGLE", "Embedding failed, skipping detection", map[string]interface{}{"error": err.Error()})
		return false
	}

	similar := 0
	for _, q := range asked {
		v, err := d.embedder.Embed(ctx, q)
		if err != nil {
			return false
		}
		if cache.Dot(current, v) > sameTopic {
			similar++
		}
	}
	return similar >= repeatsNeeded
}

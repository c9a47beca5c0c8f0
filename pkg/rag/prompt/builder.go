package prompt

import (
	"fmt"
	"strings"

	"course-buddy-be/pkg/llm"
	"course-buddy-be/pkg/store"
)

// historyWindow is the number of prior turns sent to the model.
const historyWindow = 4

const (
	ModeFix   = "fix"
	ModeTeach = "teach"

	StyleCasual = "casual"
	StyleDirect = "direct"
)

// Persona names the instructor voice.
type Persona struct {
	Name         string
	Organization string
}

// Options selects the conditional sections of the system prompt.
type Options struct {
	CourseTitle   string
	LectureTitle  string
	TeachingMode  string
	ResponseStyle string
	HintStage     int
	Struggling    bool
	HasScreenshot bool
}

// Builder assembles the system prompt and message list for a model call.
type Builder struct {
	persona Persona
}

func NewBuilder(persona Persona) *Builder {
	return &Builder{persona: persona}
}

// SystemPrompt includes only the sections relevant to the active modes.
func (b *Builder) SystemPrompt(opts Options) string {
	parts := []string{
		fmt.Sprintf(sectionIntro, b.persona.Name, b.persona.Organization),
		sectionLectureAccuracy,
		sectionIdentity,
	}

	if opts.ResponseStyle == StyleDirect {
		parts = append(parts, sectionVoiceDirect)
	} else {
		parts = append(parts, sectionVoiceCasual)
	}

	if opts.TeachingMode == ModeTeach {
		parts = append(parts, fmt.Sprintf(sectionSocratic, clampHint(opts.HintStage)))
	}
	if opts.Struggling {
		parts = append(parts, sectionStruggle)
	}
	if opts.HasScreenshot {
		parts = append(parts, sectionScreenshot)
	}

	parts = append(parts,
		sectionClarify,
		fmt.Sprintf(sectionScope, opts.CourseTitle, opts.LectureTitle),
		sectionHowToAnswer,
		sectionTimestamps,
		sectionNever,
	)
	return strings.Join(parts, "\n")
}

func clampHint(stage int) int {
	if stage < 1 {
		return 1
	}
	if stage > 3 {
		return 3
	}
	return stage
}

// Messages orders the system prompt, the context, the recent history and the question.
func (b *Builder) Messages(opts Options, contextString string, history []llm.Message, question string) []llm.Message {
	msgs := []llm.Message{
		{Role: llm.RoleSystem, Content: b.SystemPrompt(opts)},
		{Role: llm.RoleUser, Content: contextString},
	}
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	msgs = append(msgs, history...)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: question})
	return msgs
}

// LectureContext describes the lecture the learner is watching.
type LectureContext struct {
	CourseTitle      string
	ChapterTitle     string
	LectureTitle     string
	CurrentLectureID string
}

// Context renders retrieved chunks with current-lecture excerpts first.
func Context(chunks []store.ScoredChunk, lc LectureContext) string {
	if len(chunks) == 0 {
		return ""
	}

	var current, previous []string
	for _, c := range chunks {
		meta := c.Metadata
		isCurrent := lc.CurrentLectureID != "" && meta.LectureID == lc.CurrentLectureID

		label := "Previous Lecture"
		if isCurrent {
			label = "Current Lecture"
		}
		part := fmt.Sprintf("[%s: %s (Chapter: %s)]\n[Timestamp: %s - %s]\n\"%s\"",
			label, meta.LectureTitle, meta.ChapterTitle,
			meta.TimestampStart, meta.TimestampEnd, c.Text)

		if isCurrent {
			current = append(current, part)
		} else {
			previous = append(previous, part)
		}
	}

	var sb strings.Builder
	sb.WriteString("---\nCURRENT CONTEXT:\n")
	fmt.Fprintf(&sb, "Course: %s\n", lc.CourseTitle)
	fmt.Fprintf(&sb, "Chapter: %s\n", lc.ChapterTitle)
	fmt.Fprintf(&sb, "Lecture: %s (the learner is currently watching THIS lecture)\n", lc.LectureTitle)
	fmt.Fprintf(&sb, "Current lecture excerpts: %d, Previous lecture excerpts: %d\n\n", len(current), len(previous))
	sb.WriteString("RELEVANT TRANSCRIPT EXCERPTS:\n\n")

	parts := current
	if len(previous) > 0 {
		parts = append(parts, "--- (Previous lectures for additional context) ---")
		parts = append(parts, previous...)
	}
	sb.WriteString(strings.Join(parts, "\n\n"))

	if len(previous) > 0 {
		sb.WriteString("\n\nNote: Some excerpts are from previous lectures. Prioritize current lecture content. When referencing previous content, mention the lecture name naturally.")
	} else {
		sb.WriteString("\n\nNote: All excerpts are from the current lecture. Focus your answer on this lecture's content only.")
	}
	sb.WriteString("\n---")
	return sb.String()
}

// WithScreenshot prepends a screenshot description to the context.
func WithScreenshot(contextString, analysis string) string {
	if analysis == "" {
		return contextString
	}
	return "[Screenshot Analysis]\n" + analysis + "\n\n" + contextString
}

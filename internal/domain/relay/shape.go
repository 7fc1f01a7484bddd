package relay

import "strings"

// Labels shown when a reply carries both a reasoning trace and an answer.
const (
	reasoningHeader = "🤔 **Reasoning:**"
	answerHeader    = "💬 **Answer:**"
)

// shape classifies what one completion returned. Exactly one variant applies;
// shapeOf decides which. The pipeline matches all four explicitly so the
// "neither" case cannot slip through as an accidental success.
type shape interface{ isShape() }

type answerWithReasoning struct {
	answer    string
	reasoning string
}

type answerOnly struct{ answer string }

type reasoningOnly struct{ reasoning string }

type emptyResponse struct{}

func (answerWithReasoning) isShape() {}
func (answerOnly) isShape()          {}
func (reasoningOnly) isShape()       {}
func (emptyResponse) isShape()       {}

// shapeOf classifies a completion. Whitespace-only fields count as absent.
// Reasoning is only meaningful for reasoner models; callers mask it for
// everything else before classifying.
func shapeOf(answer, reasoning string) shape {
	answer = strings.TrimSpace(answer)
	reasoning = strings.TrimSpace(reasoning)

	switch {
	case answer != "" && reasoning != "":
		return answerWithReasoning{answer: answer, reasoning: reasoning}
	case answer != "":
		return answerOnly{answer: answer}
	case reasoning != "":
		return reasoningOnly{reasoning: reasoning}
	default:
		return emptyResponse{}
	}
}

// render lays out the dual-channel reply: a fenced, labeled reasoning block,
// a blank line, then the labeled answer.
func (s answerWithReasoning) render() string {
	var b strings.Builder
	b.WriteString(reasoningHeader)
	b.WriteString("\n```\n")
	b.WriteString(s.reasoning)
	b.WriteString("\n```\n\n")
	b.WriteString(answerHeader)
	b.WriteString("\n")
	b.WriteString(s.answer)
	return b.String()
}

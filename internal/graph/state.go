// Package graph implements the agent routing graph for the studyhall backend.
//
// A single inbound request is one sequential traversal of the graph: the
// Router classifies the query into a coarse operation, the matching handler
// produces a result, and an optional delegation hop hands the request from
// the content processor to the tutor. State threads through every hop; each
// handler reads the fields it needs and writes fields downstream handlers
// consume.
package graph

import "context"

// Step identifies the next handler to act on a request.
// It is a closed enum: handler dispatch switches over it exhaustively
// instead of comparing ad hoc strings.
type Step int

const (
	// StepEnd marks the traversal as complete.
	StepEnd Step = iota

	// StepQA answers a question directly from retrieved context.
	StepQA

	// StepSummarize produces a summary of the provided documents.
	StepSummarize

	// StepContentProcessor is the superset handler for document analysis,
	// RAG chat, and learning-unit generation. Unclassifiable requests land here.
	StepContentProcessor

	// StepTutor is the personalized tutoring sub-agent. Only ever reached by
	// delegation from the content processor; always terminal.
	StepTutor
)

// String returns the wire label for the step.
func (s Step) String() string {
	switch s {
	case StepQA:
		return "qa"
	case StepSummarize:
		return "summarization"
	case StepContentProcessor:
		return "content_processor_agent"
	case StepTutor:
		return "tutor_agent"
	case StepEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Document is a retrieved or uploaded document chunk.
type Document struct {
	Content  string
	Metadata map[string]string
}

// Language returns the document's language metadata, or "" when absent.
func (d Document) Language() string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata["language"]
}

// State is the unit of data passed through the graph. It is created once per
// inbound request and owned by the Driver; handlers add fields, they never
// remove fields other handlers may still need.
type State struct {
	// Inbound request fields.
	Query      string
	Documents  []Document
	LearnerID  string // empty or malformed triggers the guest path in the tutor
	SessionID  string
	Adaptation string // optional content-adaptation hint, e.g. "simplify"

	// Next is set by the Router and by delegating handlers; the Driver
	// performs the hop.
	Next Step

	// Output fields.
	Result         string
	HandledBy      string // name of the handler that produced Result
	ProfileSummary string // resolved learner profile, for tracing
}

// Handler is a unit of work in the graph. Process mutates the state in place:
// it sets Result and HandledBy on completion, or Next to delegate.
type Handler interface {
	Name() string
	Process(ctx context.Context, s *State) error
}

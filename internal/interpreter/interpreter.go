package interpreter

import (
	"context"

	"github.com/inboxpilot/scheduler/internal/models"
)

// AnalysisInput carries one message plus thread context to the
// interpreter.
type AnalysisInput struct {
	Subject               string
	Body                  string
	SideChannelRecipients []string
	ConversationContext   string
	Timezone              string
}

// Interpreter turns one natural-language message into a structured
// proposal. A returned error means the output was malformed or the
// provider failed; the reconciler treats that as terminal for the
// message.
type Interpreter interface {
	Analyze(ctx context.Context, input AnalysisInput) (*models.Proposal, error)
}

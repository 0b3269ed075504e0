package interpreter

import (
	"context"
	"regexp"
	"strings"

	"github.com/inboxpilot/scheduler/internal/models"
)

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// KeywordInterpreter is a rule-based fallback for development and
// tests. It looks for scheduling verbs and extracts addresses with a
// regular expression; it makes no attempt at time-phrase extraction
// beyond "at/on/tomorrow/next" clauses.
type KeywordInterpreter struct{}

func NewKeywordInterpreter() *KeywordInterpreter {
	return &KeywordInterpreter{}
}

func (k *KeywordInterpreter) Analyze(ctx context.Context, input AnalysisInput) (*models.Proposal, error) {
	text := strings.ToLower(input.Subject + " " + input.Body)

	intent := models.IntentUnrelated
	switch {
	case containsAny(text, "cancel the meeting", "cancel our meeting", "call it off"):
		intent = models.IntentCancel
	case containsAny(text, "reschedule", "push it", "push to", "move the meeting", "move it to"):
		intent = models.IntentReschedule
	case containsAny(text, "how about", "would", "instead", "alternative time"):
		if containsAny(text, "meet", "meeting", "call", "sync") {
			intent = models.IntentProposeNewTime
		}
	case containsAny(text, "confirm", "works for me", "see you then"):
		if containsAny(text, "meet", "meeting", "call") {
			intent = models.IntentConfirm
		}
	case containsAny(text, "schedule", "set up a meeting", "let's meet", "can we meet", "book a"):
		intent = models.IntentScheduleNew
	}

	proposal := &models.Proposal{Intent: intent}
	if intent == models.IntentUnrelated {
		return proposal, nil
	}

	proposal.AttendeeHints = emailPattern.FindAllString(input.Body, -1)
	if phrase := extractTimeClause(input.Body); phrase != "" {
		proposal.TimePhrases = []string{phrase}
	}
	return proposal, nil
}

func containsAny(text string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

var timeClausePattern = regexp.MustCompile(`(?i)(tomorrow[^.,;\n]*|next \w+[^.,;\n]*|on \w+day[^.,;\n]*|at \d[^.,;\n]*)`)

func extractTimeClause(body string) string {
	match := timeClausePattern.FindString(body)
	return strings.TrimSpace(match)
}

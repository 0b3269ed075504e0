package interpreter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/inboxpilot/scheduler/internal/models"
)

const analysisPromptTemplate = `You are an expert administrative assistant AI. Analyze the CURRENT email below (subject and body) to understand its primary purpose concerning meeting scheduling, from the recipient's perspective.
Today's date and current time for your reference is: %s.
The user's timezone (relevant for interpreting relative dates like 'tomorrow') is %s.

Use the conversation context to understand the CURRENT email, but your JSON output must pertain ONLY to the CURRENT email.

--- CONVERSATION CONTEXT START ---
%s
--- CONVERSATION CONTEXT END ---

CURRENT Email Subject:
---
%s
---

CURRENT Email Body:
---
%s
---

CC'd addresses in CURRENT email:
---
%s
---

Respond ONLY with a valid JSON object using these keys:
- "intent": one of "schedule_new_meeting", "reschedule_meeting", "cancel_meeting", "confirm_attendance", "decline_attendance", "propose_new_time", "meeting_related_query", "not_meeting_related".
- "attendees": list of VALID email addresses of meeting participants mentioned in the CURRENT email, or null. Include CC'd addresses ONLY when the body explicitly asks to include them in the meeting. Never invent addresses for bare names.
- "topic": the meeting topic, or null.
- "proposed_dates_times": list of NEWLY suggested date/time phrases from the CURRENT email, or null. For reschedules, extract only the new alternatives.
- "duration_minutes": integer duration, or null.
- "constraints_preferences": other constraints or preferences as a string, or null.

JSON Output:`

// OpenAIInterpreter classifies messages through a chat-completion call
// that returns structured JSON.
type OpenAIInterpreter struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
	logger      *zap.Logger
}

func NewOpenAIInterpreter(apiKey, model string, maxTokens int, temperature float64, logger *zap.Logger) *OpenAIInterpreter {
	return &OpenAIInterpreter{
		client:      openai.NewClient(apiKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger,
	}
}

func (i *OpenAIInterpreter) Analyze(ctx context.Context, input AnalysisInput) (*models.Proposal, error) {
	convCtx := input.ConversationContext
	if strings.TrimSpace(convCtx) == "" {
		convCtx = "No previous conversation context. This is the first interaction analyzed for this thread."
	}
	ccList := "None"
	if len(input.SideChannelRecipients) > 0 {
		ccList = strings.Join(input.SideChannelRecipients, ", ")
	}

	now := time.Now()
	if loc, err := time.LoadLocation(input.Timezone); err == nil {
		now = now.In(loc)
	}
	prompt := fmt.Sprintf(analysisPromptTemplate,
		now.Format("Monday, January 2, 2006, 3:04 PM MST (-0700)"),
		input.Timezone,
		convCtx,
		input.Subject,
		input.Body,
		ccList,
	)

	resp, err := i.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: i.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			MaxTokens:   i.maxTokens,
			Temperature: float32(i.temperature),
		},
	)
	if err != nil {
		i.logger.Error("Failed to get interpreter response", zap.Error(err))
		return nil, fmt.Errorf("interpreter completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("interpreter returned no choices")
	}

	raw := stripCodeFence(resp.Choices[0].Message.Content)

	var proposal models.Proposal
	if err := json.Unmarshal([]byte(raw), &proposal); err != nil {
		i.logger.Error("Failed to parse interpreter response",
			zap.Error(err),
			zap.String("response", raw))
		return nil, fmt.Errorf("interpreter returned malformed JSON: %w", err)
	}
	if proposal.Intent == "" {
		return nil, fmt.Errorf("interpreter response missing intent")
	}
	return &proposal, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

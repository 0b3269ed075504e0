package timeparse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// isoLayout is the only shape the normalizer is allowed to answer in.
const isoLayout = "2006-01-02T15:04:05"

const normalizePromptTemplate = `Your sole task is to convert a natural language date and time string into a "YYYY-MM-DDTHH:MM:SS" format.
You must use the provided "Current date and time" as the reference for any relative expressions like "tomorrow", "next Monday", or "in 2 days".
Reference Information:
- Current date and time: %s
- Target timezone for the output: %s (the output string should represent this local time, without an explicit offset)
- Natural language input: "%s"
Instructions:
1. Analyze the input in conjunction with the reference date and time.
2. Calculate the specific date and time it refers to.
3. Format the result as a "YYYY-MM-DDTHH:MM:SS" string, 24-hour time.
4. If a precise conversion is impossible, output the exact string "None".
5. Only output the "YYYY-MM-DDTHH:MM:SS" string or "None".
Converted Datetime:`

// OpenAIResolver resolves time phrases with a tightly constrained
// chat-completion call and validates the answer strictly: anything
// other than a well-formed local timestamp is ErrUnresolvable.
type OpenAIResolver struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewOpenAIResolver(apiKey, model string, logger *zap.Logger) *OpenAIResolver {
	return &OpenAIResolver{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

func (r *OpenAIResolver) Resolve(ctx context.Context, phrase string, reference time.Time, loc *time.Location) (time.Time, error) {
	if strings.TrimSpace(phrase) == "" {
		return time.Time{}, ErrUnresolvable
	}

	prompt := fmt.Sprintf(normalizePromptTemplate,
		reference.In(loc).Format(time.RFC3339),
		loc.String(),
		phrase,
	)

	resp, err := r.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: r.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			MaxTokens:   32,
			Temperature: 0,
		},
	)
	if err != nil {
		r.logger.Error("Time normalization request failed",
			zap.Error(err),
			zap.String("phrase", phrase))
		return time.Time{}, fmt.Errorf("time normalization failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return time.Time{}, fmt.Errorf("time normalizer returned no choices")
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" || strings.EqualFold(answer, "none") {
		r.logger.Info("Normalizer could not resolve phrase", zap.String("phrase", phrase))
		return time.Time{}, ErrUnresolvable
	}

	parsed, err := time.ParseInLocation(isoLayout, answer, loc)
	if err != nil {
		r.logger.Warn("Normalizer returned unexpected format",
			zap.String("phrase", phrase),
			zap.String("answer", answer))
		return time.Time{}, ErrUnresolvable
	}
	return parsed, nil
}

package narrative

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/prophetd/prophetd/internal/engine"
)

const summaryTemperature = 0.3

// maxSummaryRows bounds how many forecast rows are sent in the prompt
const maxSummaryRows = 60

// Summarizer turns a prediction table into a short prose summary using an
// LLM. A nil client disables summaries.
type Summarizer struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// New creates a summarizer. Pass an empty apiKey to disable summarization.
func New(apiKey, model string, logger *slog.Logger) *Summarizer {
	var client *openai.Client
	if apiKey != "" {
		client = openai.NewClient(apiKey)
	}
	return &Summarizer{client: client, model: model, logger: logger}
}

// Enabled reports whether a client is configured.
func (s *Summarizer) Enabled() bool {
	return s.client != nil
}

// Summarize produces a short narrative for the forecast. Returns an empty
// string when summarization is disabled.
func (s *Summarizer) Summarize(ctx context.Context, modelName string, table *engine.PredictionTable) (string, error) {
	if s.client == nil {
		return "", nil
	}
	if table == nil || len(table.Dates) == 0 {
		return "", fmt.Errorf("no forecast rows to summarize")
	}

	prompt := s.buildSummaryPrompt(modelName, table)

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: summaryTemperature,
		MaxTokens:   300,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are a forecasting analyst. Summarize forecast output in two or three plain sentences for a business audience. Mention direction, magnitude and any notable swings. Do not list raw numbers row by row."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("summary request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("summary response contained no choices")
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	s.logger.Info("forecast summary generated", "model", modelName, "tokens", resp.Usage.TotalTokens)

	return summary, nil
}

func (s *Summarizer) buildSummaryPrompt(modelName string, table *engine.PredictionTable) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Forecast output for model %q, %d rows.\n\n", modelName, len(table.Dates)))

	first := 0
	last := len(table.Dates) - 1
	sb.WriteString(fmt.Sprintf("Range: %s to %s\n", table.Dates[first], table.Dates[last]))

	// Interval columns are optional on the wire; a point-only forecast
	// still gets a summary.
	hasIntervals := len(table.YhatLower) == len(table.Dates) && len(table.YhatUpper) == len(table.Dates)
	if hasIntervals {
		sb.WriteString(fmt.Sprintf("First yhat: %.2f (interval %.2f to %.2f)\n", table.Yhat[first], table.YhatLower[first], table.YhatUpper[first]))
		sb.WriteString(fmt.Sprintf("Last yhat: %.2f (interval %.2f to %.2f)\n\n", table.Yhat[last], table.YhatLower[last], table.YhatUpper[last]))
	} else {
		sb.WriteString(fmt.Sprintf("First yhat: %.2f\n", table.Yhat[first]))
		sb.WriteString(fmt.Sprintf("Last yhat: %.2f\n\n", table.Yhat[last]))
	}

	step := 1
	if len(table.Dates) > maxSummaryRows {
		step = len(table.Dates) / maxSummaryRows
	}

	sb.WriteString("Sampled rows (ds, yhat):\n")
	for i := 0; i < len(table.Dates); i += step {
		sb.WriteString(fmt.Sprintf("%s %.2f\n", table.Dates[i], table.Yhat[i]))
	}

	return sb.String()
}

// Package advisor turns a markdown analysis report into a short
// plain-language narrative using Gemini.
package advisor

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

// Advisor wraps a Gemini chat configured to comment analysis reports.
type Advisor struct {
	client *genai.Client
}

// New creates an Advisor. The genai client reads its API key from the
// environment (GEMINI_API_KEY).
func New(ctx context.Context) (*Advisor, error) {
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("initializing Gemini client: %w", err)
	}
	return &Advisor{client: client}, nil
}

var config = &genai.GenerateContentConfig{
	SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
	You are a portfolio risk analyst. The user hands you a markdown report
	produced by their analysis tool: an equity curve summary, risk and
	performance metrics, and possibly a stress scenario or a forecast.

	Write a short narrative (3 to 6 sentences) a non-quant investor can
	follow. Name the figures that matter, say what they mean, and point
	out the single most important caveat. Never invent numbers that are
	not in the report, and never give buy or sell advice.
`}}},
}

// Explain sends the rendered report and returns the narrative.
func (a *Advisor) Explain(ctx context.Context, report string) (string, error) {
	chat, err := a.client.Chats.Create(ctx, model, config, nil)
	if err != nil {
		return "", fmt.Errorf("starting advisor chat: %w", err)
	}

	resp, err := chat.Send(ctx, &genai.Part{Text: report})
	if err != nil {
		return "", fmt.Errorf("asking advisor: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from advisor")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

package openai

import (
	"context"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/asiaspanel/voicegate/internal/errorsx"
)

// Translate asks the chat model for a translation and returns only the
// translated text. There is no fallback chain here; the caller decides what
// to do on failure.
func (c *Client) Translate(ctx context.Context, text, source, target string) (string, error) {
	if err := c.Available(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	prompt := fmt.Sprintf("Translate the following text to %s:\n\n%s\n\nReturn only the translation.", target, text)
	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", errorsx.New("no choices in completion response", errorsx.ReasonMalformedResponse)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

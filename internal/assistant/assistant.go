// Package assistant forwards chat, analysis, and image requests to the
// hosted OpenAI API. It is a thin adapter: no retry, no caching, no rate
// limiting. The only added behavior is memory injection: the last few
// stored chat messages are prepended as conversational context.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/vipudev/vipudev/internal/store"
)

// ErrNotConfigured indicates no API key is configured on the server.
// Routes surface this as a 500 with a descriptive message.
var ErrNotConfigured = errors.New("openai api key not configured")

// ErrEmptyPrompt indicates a request with no usable prompt text.
var ErrEmptyPrompt = errors.New("prompt is empty")

// memoryLimit is the number of stored chat messages injected before each call.
const memoryLimit = 20

// systemPrompt is the fixed assistant persona.
const systemPrompt = `You are VipuDev, a senior full-stack engineer and architect acting as the operator's AI developer assistant.

Rules:
- Never refuse with "I can't" or "I don't know"; if something is missing, assume the most likely scenario and still give a working solution.
- Prefer concrete, working code and step-by-step fixes.
- Use headings, bullet points, and full code blocks where useful.`

// MemorySource supplies stored chat history for memory injection.
// *store.Store satisfies this interface.
type MemorySource interface {
	ChatMessages(ctx context.Context, limit int) ([]*store.ChatMessage, error)
}

// Message is one turn in an assistant conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config holds adapter settings.
type Config struct {
	APIKey     string
	ChatModel  string // default: gpt-4o-mini
	ImageModel string // default: dall-e-3
}

// Client is the OpenAI adapter.
type Client struct {
	api        openai.Client
	chatModel  string
	imageModel string
	memory     MemorySource
	logger     *slog.Logger
	configured bool
}

// New creates the adapter. An empty API key yields a client whose calls
// return ErrNotConfigured, so the rest of the dashboard keeps working.
// memory may be nil to disable memory injection.
func New(cfg Config, memory MemorySource, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = "gpt-4o-mini"
	}
	imageModel := cfg.ImageModel
	if imageModel == "" {
		imageModel = "dall-e-3"
	}

	c := &Client{
		chatModel:  chatModel,
		imageModel: imageModel,
		memory:     memory,
		logger:     logger,
		configured: cfg.APIKey != "",
	}

	if c.configured {
		c.api = openai.NewClient(option.WithAPIKey(cfg.APIKey))
		logger.Info("assistant configured", "chat_model", chatModel, "image_model", imageModel)
	} else {
		logger.Warn("assistant disabled: no OpenAI API key configured")
	}

	return c
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.configured
}

// Chat sends a memory-augmented chat completion and returns the reply text.
// codeContext, when non-empty, is injected as an extra user message before
// the conversation.
func (c *Client) Chat(ctx context.Context, messages []Message, codeContext string) (string, error) {
	if !c.configured {
		return "", ErrNotConfigured
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.chatModel),
		Messages:    c.buildMessages(ctx, messages, codeContext),
		Temperature: openai.Float(0.1),
		MaxTokens:   openai.Int(4000),
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// Analyze asks the model to review sampled project files (from an uploaded
// archive) and returns the analysis text.
func (c *Client) Analyze(ctx context.Context, combined string) (string, error) {
	if !c.configured {
		return "", ErrNotConfigured
	}

	if combined == "" {
		combined = "(no readable text files found)"
	}

	messages := []Message{
		{Role: store.RoleUser, Content: "I uploaded a ZIP project. Analyze its structure, tech stack, potential issues, and suggest improvements."},
		{Role: store.RoleUser, Content: combined},
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.chatModel),
		Messages:    c.buildMessages(ctx, messages, ""),
		Temperature: openai.Float(0.2),
		MaxTokens:   openai.Int(4000),
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("analyze completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("analyze completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// GenerateImage creates one 1024x1024 image and returns its URL.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if !c.configured {
		return "", ErrNotConfigured
	}
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	resp, err := c.api.Images.Generate(ctx, openai.ImageGenerateParams{
		Model:  openai.ImageModel(c.imageModel),
		Prompt: prompt,
		Size:   openai.ImageGenerateParamsSize1024x1024,
		N:      openai.Int(1),
	})
	if err != nil {
		return "", fmt.Errorf("image generation: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", errors.New("image generation returned no data")
	}

	return resp.Data[0].URL, nil
}

// buildMessages assembles the request: persona system prompt with memory,
// optional code context, then the caller's conversation.
func (c *Client) buildMessages(ctx context.Context, messages []Message, codeContext string) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+2)
	out = append(out, openai.SystemMessage(systemPrompt+"\n\nMEMORY:\n"+c.recallMemory(ctx)))

	if codeContext != "" {
		out = append(out, openai.UserMessage("Here is the current code/project context:\n"+codeContext))
	}

	for _, m := range messages {
		switch m.Role {
		case store.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		case store.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}

	return out
}

// Package insight asks Claude for short narratives about a student's ranks
// and answers free-form questions grounded on the overview report.
package insight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"examdash/internal/detail"
	"examdash/internal/report"
)

const (
	defaultModel        = "claude-haiku-4-5"
	defaultMaxTokens    = 1024
	defaultSystemPrompt = "你是一名中学教务分析助手。请根据提供的排名数据作答, 只使用给出的数字, 不要编造。回答使用简体中文, 简洁明了。"
)

// ErrNoAPIKey is returned when no Anthropic key is configured.
var ErrNoAPIKey = errors.New("anthropic API key is not configured")

type settings struct {
	apiKey         string
	model          string
	systemPrompt   string
	maxTokens      int64
	logger         *slog.Logger
	requestOptions []option.RequestOption
}

// Option configures a Service.
type Option func(*settings) error

// WithAPIKey sets the Anthropic API key.
func WithAPIKey(apiKey string) Option {
	return func(s *settings) error {
		if apiKey == "" {
			return ErrNoAPIKey
		}
		s.apiKey = apiKey
		return nil
	}
}

// WithAPIKeyFromEnv reads the key from ANTHROPIC_API_KEY.
func WithAPIKeyFromEnv() Option {
	return func(s *settings) error {
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return fmt.Errorf("%w: ANTHROPIC_API_KEY environment variable not set", ErrNoAPIKey)
		}
		s.apiKey = apiKey
		return nil
	}
}

// WithModel sets the Claude model (default: claude-haiku-4-5).
func WithModel(model string) Option {
	return func(s *settings) error {
		if model == "" {
			return fmt.Errorf("model cannot be empty")
		}
		s.model = model
		return nil
	}
}

// WithSystemPrompt replaces the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(s *settings) error {
		s.systemPrompt = prompt
		return nil
	}
}

// WithMaxTokens caps the length of a generated narrative.
func WithMaxTokens(n int64) Option {
	return func(s *settings) error {
		if n <= 0 {
			return fmt.Errorf("max tokens must be positive, got %d", n)
		}
		s.maxTokens = n
		return nil
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) error {
		s.logger = logger
		return nil
	}
}

// WithRequestOptions passes extra options to the Anthropic client, e.g. a
// base URL.
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(s *settings) error {
		s.requestOptions = append(s.requestOptions, opts...)
		return nil
	}
}

// Service wraps an Anthropic client.
type Service struct {
	client       anthropic.Client
	model        anthropic.Model
	systemPrompt string
	maxTokens    int64
	logger       *slog.Logger
}

// New creates a Service. An API key option is required.
func New(opts ...Option) (*Service, error) {
	s := &settings{
		model:        defaultModel,
		systemPrompt: defaultSystemPrompt,
		maxTokens:    defaultMaxTokens,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	if s.apiKey == "" {
		return nil, fmt.Errorf("%w (use WithAPIKey or WithAPIKeyFromEnv)", ErrNoAPIKey)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}

	clientOpts := append([]option.RequestOption{option.WithAPIKey(s.apiKey)}, s.requestOptions...)
	return &Service{
		client:       anthropic.NewClient(clientOpts...),
		model:        anthropic.Model(s.model),
		systemPrompt: s.systemPrompt,
		maxTokens:    s.maxTokens,
		logger:       s.logger,
	}, nil
}

// Narrate asks for a short commentary on one student's rank changes.
func (s *Service) Narrate(ctx context.Context, p detail.Projection) (string, error) {
	return s.complete(ctx, NarrativePrompt(p))
}

// Ask answers a question about the cohort, grounded on the overview report.
func (s *Service) Ask(ctx context.Context, question, overview string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("question cannot be empty")
	}
	return s.complete(ctx, AskPrompt(question, overview))
}

func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if s.systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: s.systemPrompt}}
	}

	message, err := s.client.Messages.New(ctx, params)
	if err != nil {
		s.logger.Error("Claude API request failed", "error", err, "model", string(s.model))
		return "", fmt.Errorf("failed to call Claude API: %w", err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if textBlock, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(textBlock.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("no text in Claude response")
	}

	s.logger.Info("Claude response received",
		"model", string(s.model),
		"input_tokens", message.Usage.InputTokens,
		"output_tokens", message.Usage.OutputTokens)
	return strings.TrimSpace(text.String()), nil
}

// NarrativePrompt builds the prompt used by Narrate.
func NarrativePrompt(p detail.Projection) string {
	var b strings.Builder
	b.WriteString("以下是一名学生两次考试的年级排名 (数字越小越好, 变化为正表示进步):\n\n")
	b.WriteString(report.Student(p))
	b.WriteString("\n请用三到五句话点评该生的进退步情况, 指出最突出的科目, 并给出一条具体建议。")
	return b.String()
}

// AskPrompt builds the prompt used by Ask.
func AskPrompt(question, overview string) string {
	return fmt.Sprintf("以下是本次考试的汇总数据:\n\n%s\n\n问题: %s", strings.TrimSpace(overview), strings.TrimSpace(question))
}

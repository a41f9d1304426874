package insight

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"

	"examdash/internal/dataset"
	"examdash/internal/detail"
)

const messageResponse = `{
  "id": "msg_01",
  "type": "message",
  "role": "assistant",
  "model": "claude-haiku-4-5",
  "content": [{"type": "text", "text": "  张三总排名进步 80 名。  "}],
  "stop_reason": "end_turn",
  "usage": {"input_tokens": 120, "output_tokens": 20}
}`

func testProjection() detail.Projection {
	return detail.Project(dataset.Student{
		StudentID:        "1001",
		Name:             "张三",
		ClassLabel:       "1",
		TotalRankMonthly: 200,
		TotalRankMidterm: 120,
		RankChange:       80,
		Subjects:         []dataset.SubjectRank{{Name: "语文", RankMonthly: 150, RankMidterm: 100, Change: 50}},
	})
}

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := New(
		WithAPIKey("test-key"),
		WithRequestOptions(option.WithBaseURL(srv.URL), option.WithMaxRetries(0)),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return svc
}

func TestNewRequiresAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	if _, err := New(); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("Expected ErrNoAPIKey, got %v", err)
	}
	if _, err := New(WithAPIKey("")); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("Expected ErrNoAPIKey for empty key, got %v", err)
	}
	if _, err := New(WithAPIKeyFromEnv()); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("Expected ErrNoAPIKey for unset env, got %v", err)
	}
}

func TestOptionValidation(t *testing.T) {
	testCases := []struct {
		name string
		opt  Option
	}{
		{"empty model", WithModel("")},
		{"zero max tokens", WithMaxTokens(0)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(WithAPIKey("k"), tc.opt); err == nil {
				t.Error("Expected option error")
			}
		})
	}
}

func TestWithAPIKeyFromEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-key")
	if _, err := New(WithAPIKeyFromEnv(), WithModel("claude-haiku-4-5")); err != nil {
		t.Errorf("Expected env key to be accepted, got %v", err)
	}
}

func TestNarrate(t *testing.T) {
	var request struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		System    []struct {
			Text string `json:"text"`
		} `json:"system"`
		Messages []struct {
			Role    string `json:"role"`
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"messages"`
	}

	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("X-Api-Key"); got != "test-key" {
			t.Errorf("Expected API key header, got %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &request); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, messageResponse)
	})

	text, err := svc.Narrate(context.Background(), testProjection())
	if err != nil {
		t.Fatalf("Narrate failed: %v", err)
	}
	if text != "张三总排名进步 80 名。" {
		t.Errorf("Unexpected narrative: %q", text)
	}

	if request.Model != defaultModel {
		t.Errorf("Expected model %s, got %s", defaultModel, request.Model)
	}
	if request.MaxTokens != defaultMaxTokens {
		t.Errorf("Expected max tokens %d, got %d", defaultMaxTokens, request.MaxTokens)
	}
	if len(request.System) != 1 || request.System[0].Text != defaultSystemPrompt {
		t.Errorf("Expected default system prompt, got %+v", request.System)
	}
	if len(request.Messages) != 1 || !strings.Contains(request.Messages[0].Content[0].Text, "| 总排名 | 200 | 120 |") {
		t.Errorf("Expected the rank table in the prompt, got %+v", request.Messages)
	}
}

func TestAskErrors(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`)
	})

	if _, err := svc.Ask(context.Background(), "  ", "overview"); err == nil {
		t.Error("Expected error for blank question")
	}
	if _, err := svc.Ask(context.Background(), "哪个班进步最大?", "overview"); err == nil {
		t.Error("Expected API error to surface")
	}
}

func TestPrompts(t *testing.T) {
	p := NarrativePrompt(testProjection())
	if !strings.Contains(p, "| 语文 | 150 | 100 | +50 进步 |") {
		t.Errorf("Expected subject row in narrative prompt:\n%s", p)
	}

	a := AskPrompt(" 平均分多少? ", "\n# 成绩概览\n")
	if a != "以下是本次考试的汇总数据:\n\n# 成绩概览\n\n问题: 平均分多少?" {
		t.Errorf("Unexpected ask prompt: %q", a)
	}
}

// Package ollamaagent is the default AgentPlugin, adapted from the
// teacher's llm.Client to speak Ollama's streaming /api/chat endpoint and
// emit stream.Events instead of a single buffered LLMResponse.
package ollamaagent

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/parlance-sh/parlance/internal/apperrors"
	"github.com/parlance-sh/parlance/internal/command"
	"github.com/parlance-sh/parlance/internal/plugin"
	"github.com/parlance-sh/parlance/internal/session"
	"github.com/parlance-sh/parlance/internal/stream"
)

// Plugin is the default chat-model AgentPlugin, backed by a local or remote
// Ollama server.
type Plugin struct {
	Endpoint string
	Model    string
	Debug    bool

	client *http.Client
}

var _ plugin.Plugin = (*Plugin)(nil)
var _ plugin.AgentPlugin = (*Plugin)(nil)

// New builds a Plugin. An empty endpoint defaults to the local Ollama
// daemon.
func New(endpoint, model string) *Plugin {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	return &Plugin{
		Endpoint: endpoint,
		Model:    model,
		client:   &http.Client{Timeout: 5 * time.Minute},
	}
}

func (p *Plugin) Name() string        { return "ollama" }
func (p *Plugin) Description() string { return "chat with a local Ollama model" }
func (p *Plugin) Commands() []command.Command {
	return nil
}
func (p *Plugin) OnLoad(ctx context.Context) error   { return nil }
func (p *Plugin) OnUnload(ctx context.Context) error { return nil }
func (p *Plugin) StatusHint() string                 { return "ollama:" + p.Model }
func (p *Plugin) DefaultModel() string               { return p.Model }

// CompactHistory produces a deterministic, non-LLM summary of sess: the
// turn count and the latest assistant response, since the plugin has no
// access to the dispatcher's private conversation outside what it is given.
func (p *Plugin) CompactHistory(sess *session.Session) string {
	hist := sess.GetHistory()
	last, ok := sess.LastAssistantResponse()
	if !ok {
		return fmt.Sprintf("%d prior turn(s), no assistant response yet", len(hist))
	}
	return fmt.Sprintf("%d prior turn(s); last response: %s", len(hist), truncate(last, 200))
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatChunk struct {
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	EvalCount       int         `json:"eval_count"`
	PromptEvalCount int         `json:"prompt_eval_count"`
}

// SendMessage posts mc to /api/chat with stream:true and translates each
// NDJSON line into a stream.Event on the returned channel, which is closed
// when the server reports done or the request fails.
func (p *Plugin) SendMessage(ctx context.Context, mc plugin.MessageContext) (<-chan stream.Event, error) {
	payload := map[string]any{
		"model":    p.model(),
		"stream":   true,
		"messages": p.buildMessages(mc),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrAgentFailure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrAgentFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrAgentFailure, err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: ollama %s: %s", apperrors.ErrAgentFailure, resp.Status, strings.TrimSpace(string(detail)))
	}

	events := make(chan stream.Event)
	go p.pump(resp.Body, events)
	return events, nil
}

func (p *Plugin) pump(body io.ReadCloser, events chan<- stream.Event) {
	defer close(events)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var usage session.TokenUsage

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk chatChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			p.logf("malformed stream chunk: %v", err)
			continue
		}
		if chunk.Message.Content != "" {
			events <- stream.Event{Kind: stream.TextDelta, Text: chunk.Message.Content}
		}
		if chunk.EvalCount > 0 {
			usage.OutputTokens = chunk.EvalCount
		}
		if chunk.PromptEvalCount > 0 {
			usage.InputTokens = chunk.PromptEvalCount
		}
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		events <- stream.Event{Kind: stream.Error, ErrorMessage: err.Error(), ErrorFatal: true}
		return
	}
	if usage.InputTokens > 0 || usage.OutputTokens > 0 {
		events <- stream.Event{Kind: stream.Usage, TokenUsage: usage}
	}
}

func (p *Plugin) buildMessages(mc plugin.MessageContext) []chatMessage {
	out := make([]chatMessage, 0, len(mc.History)+len(mc.FileContexts)+1)
	for _, t := range mc.History {
		role := string(t.Role)
		out = append(out, chatMessage{Role: role, Content: t.Content})
	}
	for _, fc := range mc.FileContexts {
		if fc.Err != nil {
			continue
		}
		out = append(out, chatMessage{
			Role:    "system",
			Content: fmt.Sprintf("file %s:\n%s", fc.Path, fc.Content),
		})
	}
	out = append(out, chatMessage{Role: "user", Content: mc.Message})
	return out
}

func (p *Plugin) model() string {
	if p.Model != "" {
		return p.Model
	}
	return "llama3"
}

func (p *Plugin) httpClient() *http.Client {
	if p.client != nil {
		return p.client
	}
	p.client = &http.Client{Timeout: 5 * time.Minute}
	return p.client
}

func (p *Plugin) logf(format string, args ...any) {
	if !p.Debug {
		return
	}
	log.Printf("[ollamaagent] "+format, args...)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

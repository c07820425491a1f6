// Package procplugin implements out-of-process plugin loading: a plugin
// module identifier may name an external binary rather than an in-process
// factory. The binary is spawned as a subprocess and speaks JSON-RPC 2.0
// over stdio, framed exactly as tools/lsp_process_client.go frames a
// language server (jsonrpc2.NewBufferedStream + VSCodeObjectCodec), with an
// initialize/shutdown handshake reusing go.lsp.dev/protocol's envelope
// shape for capability negotiation. An optional "<command>.plugin.yaml"
// sidecar manifest can supply extra launch arguments and environment
// variables (see manifest.go).
package procplugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/parlance-sh/parlance/internal/command"
	"github.com/parlance-sh/parlance/internal/plugin"
	"github.com/parlance-sh/parlance/internal/session"
	"github.com/parlance-sh/parlance/internal/stream"
	"github.com/sourcegraph/jsonrpc2"
	"go.lsp.dev/protocol"
	"gopkg.in/yaml.v3"
)

// Config describes how to launch a plugin subprocess.
type Config struct {
	Command  string
	Args     []string
	Env      []string
	ModuleID string

	// ExtraConfig is the plugin's own untouched config section from the
	// workspace config file (internal/config's Extra map, keyed by
	// plugin name). It is re-marshalled to YAML and handed to the
	// plugin during the handshake, so a plugin author can define their
	// own sub-config shape without the workspace config format needing
	// to know about it.
	ExtraConfig map[string]any
}

// commandDescriptor is the wire shape returned by "plugin/commands".
type commandDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CLIExposed  bool   `json:"cliExposed"`
	Pinned      bool   `json:"pinned"`
}

// capabilityDescriptor is returned alongside the initialize handshake and
// tells the loader whether this plugin also implements AgentPlugin.
type capabilityDescriptor struct {
	IsAgent      bool   `json:"isAgent"`
	DefaultModel string `json:"defaultModel"`
	StatusHint   string `json:"statusHint"`
	Description  string `json:"description"`
}

// streamEventWire is the notification payload shape for
// "plugin/streamEvent".
type streamEventWire struct {
	Kind        string         `json:"kind"`
	Text        string         `json:"text,omitempty"`
	ToolName    string         `json:"toolName,omitempty"`
	ToolID      string         `json:"toolId,omitempty"`
	ToolInput   map[string]any `json:"toolInput,omitempty"`
	ToolResult  string         `json:"toolResult,omitempty"`
	ToolIsError bool           `json:"toolIsError,omitempty"`
	InputTokens int            `json:"inputTokens,omitempty"`
	OutputTokens int           `json:"outputTokens,omitempty"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
	ErrorFatal   bool          `json:"errorFatal,omitempty"`
	Prompt       string        `json:"prompt,omitempty"`
	InputType    string        `json:"inputType,omitempty"`
	Choices      []string      `json:"choices,omitempty"`
	RequestID    string        `json:"requestId,omitempty"`
}

// Plugin is an out-of-process plugin bound over JSON-RPC. It implements
// plugin.Plugin always, and plugin.AgentPlugin when the remote process
// reports IsAgent during the handshake.
type Plugin struct {
	cfg    Config
	cmd    *exec.Cmd
	conn   *jsonrpc2.Conn
	cancel context.CancelFunc

	caps capabilityDescriptor

	mu          sync.Mutex
	activeCh    chan stream.Event
	pendingResp map[string]stream.ResponseHandle
}

var _ plugin.Plugin = (*Plugin)(nil)
var _ plugin.AgentPlugin = (*Plugin)(nil)

// Launch spawns the subprocess and performs the initialize handshake.
func Launch(ctx context.Context, cfg Config) (*Plugin, error) {
	if cfg.Command == "" {
		return nil, errors.New("procplugin: command is required")
	}

	m, err := loadManifest(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("procplugin: reading manifest for %s: %w", cfg.Command, err)
	}
	cfg = applyManifest(cfg, m)

	pctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(pctx, cfg.Command, cfg.Args...)
	if len(cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), cfg.Env...)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}

	rwc := &stdioReadWriteCloser{reader: stdout, writer: stdin}
	jsonStream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})

	p := &Plugin{cfg: cfg, cmd: cmd, cancel: cancel, pendingResp: make(map[string]stream.ResponseHandle)}

	handler := jsonrpc2.HandlerWithError(func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
		if req.Method == "plugin/streamEvent" && req.Notif {
			var wire streamEventWire
			if req.Params != nil {
				if err := json.Unmarshal(*req.Params, &wire); err != nil {
					return nil, err
				}
			}
			p.dispatchStreamEvent(wire)
			return nil, nil
		}
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not handled"}
	})

	conn := jsonrpc2.NewConn(pctx, jsonStream, handler)
	p.conn = conn

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, err
	}

	if err := p.initialize(pctx); err != nil {
		cancel()
		_ = cmd.Process.Kill()
		return nil, err
	}

	return p, nil
}

func (p *Plugin) initialize(ctx context.Context) error {
	params := &protocol.InitializeParams{
		ClientInfo: &protocol.ClientInfo{Name: "parlance", Version: "0.1"},
	}
	var result protocol.InitializeResult
	if err := p.conn.Call(ctx, "initialize", params, &result); err != nil {
		return err
	}

	var caps capabilityDescriptor
	if err := p.conn.Call(ctx, "plugin/capabilities", nil, &caps); err != nil {
		return err
	}
	p.caps = caps

	if err := p.conn.Notify(ctx, "initialized", &protocol.InitializedParams{}); err != nil {
		return err
	}

	if len(p.cfg.ExtraConfig) > 0 {
		configYAML, err := yaml.Marshal(p.cfg.ExtraConfig)
		if err != nil {
			return fmt.Errorf("procplugin: marshaling extra config: %w", err)
		}
		if err := p.conn.Notify(ctx, "plugin/configure", map[string]any{"configYAML": string(configYAML)}); err != nil {
			return err
		}
	}

	return nil
}

// Name implements plugin.Plugin.
func (p *Plugin) Name() string { return p.cfg.ModuleID }

// Description implements plugin.Plugin.
func (p *Plugin) Description() string { return p.caps.Description }

// StatusHint implements plugin.Plugin.
func (p *Plugin) StatusHint() string { return p.caps.StatusHint }

// Commands implements plugin.Plugin by fetching the remote command list and
// binding each handler to a "plugin/invoke" call.
func (p *Plugin) Commands() []command.Command {
	var descriptors []commandDescriptor
	if err := p.conn.Call(context.Background(), "plugin/commands", nil, &descriptors); err != nil {
		return nil
	}
	out := make([]command.Command, 0, len(descriptors))
	for _, d := range descriptors {
		d := d
		out = append(out, command.Command{
			Name:        d.Name,
			Description: d.Description,
			CLIExposed:  d.CLIExposed,
			Pinned:      d.Pinned,
			Handler: func(ctx command.Context) error {
				var reply struct {
					Error string `json:"error"`
				}
				callErr := p.conn.Call(context.Background(), "plugin/invoke", map[string]any{
					"name": d.Name,
					"args": ctx.Args,
				}, &reply)
				if callErr != nil {
					return callErr
				}
				if reply.Error != "" {
					return fmt.Errorf("%s", reply.Error)
				}
				return nil
			},
		})
	}
	return out
}

// OnLoad implements plugin.Plugin. The handshake already ran in Launch, so
// OnLoad is a no-op hook point for symmetry with in-process plugins.
func (p *Plugin) OnLoad(ctx context.Context) error { return nil }

// OnUnload implements plugin.Plugin by sending the shutdown/exit sequence.
func (p *Plugin) OnUnload(ctx context.Context) error {
	_ = p.conn.Call(ctx, "shutdown", nil, nil)
	_ = p.conn.Notify(ctx, "exit", nil)
	p.cancel()
	return p.conn.Close()
}

// DefaultModel implements plugin.AgentPlugin.
func (p *Plugin) DefaultModel() string { return p.caps.DefaultModel }

// CompactHistory implements plugin.AgentPlugin by asking the remote process
// to summarize the given session.
func (p *Plugin) CompactHistory(sess *session.Session) string {
	var result string
	history := sess.GetHistory()
	wire := make([]map[string]any, 0, len(history))
	for _, t := range history {
		wire = append(wire, map[string]any{"role": string(t.Role), "content": t.Content})
	}
	if err := p.conn.Call(context.Background(), "plugin/compactHistory", map[string]any{"history": wire}, &result); err != nil {
		return ""
	}
	return result
}

// SendMessage implements plugin.AgentPlugin. Exactly one SendMessage call
// may be in flight at a time, matching the cooperative single-stream model
// (spec §5); events arrive as "plugin/streamEvent" notifications and are
// forwarded onto the returned channel until a "plugin/streamEvent" of kind
// "stream-end" closes it.
func (p *Plugin) SendMessage(ctx context.Context, mc plugin.MessageContext) (<-chan stream.Event, error) {
	p.mu.Lock()
	if p.activeCh != nil {
		p.mu.Unlock()
		return nil, errors.New("procplugin: a stream is already in flight")
	}
	ch := make(chan stream.Event, 8)
	p.activeCh = ch
	p.mu.Unlock()

	fileContexts := make([]map[string]any, 0, len(mc.FileContexts))
	for _, fc := range mc.FileContexts {
		entry := map[string]any{"path": fc.Path}
		if fc.Err == nil {
			entry["content"] = fc.Content
		} else {
			entry["error"] = fc.Err.Error()
		}
		fileContexts = append(fileContexts, entry)
	}

	if err := p.conn.Notify(ctx, "plugin/sendMessage", map[string]any{
		"message":      mc.Message,
		"fileContexts": fileContexts,
	}); err != nil {
		p.mu.Lock()
		p.activeCh = nil
		p.mu.Unlock()
		return nil, err
	}

	return ch, nil
}

func (p *Plugin) dispatchStreamEvent(wire streamEventWire) {
	p.mu.Lock()
	ch := p.activeCh
	p.mu.Unlock()
	if ch == nil {
		return
	}

	if wire.Kind == "stream-end" {
		p.mu.Lock()
		p.activeCh = nil
		p.mu.Unlock()
		close(ch)
		return
	}

	ev, handle := translateEvent(p, wire)
	select {
	case ch <- ev:
	default:
	}
	_ = handle
}

// translateEvent maps the wire event into a stream.Event. input-request
// events get a ResponseHandle that resolves by calling back
// "plugin/resolveInput" on the remote process with the outcome.
func translateEvent(p *Plugin, wire streamEventWire) (stream.Event, stream.ResponseHandle) {
	switch wire.Kind {
	case "text-delta":
		return stream.Event{Kind: stream.TextDelta, Text: wire.Text}, nil
	case "tool-use-start":
		return stream.Event{Kind: stream.ToolUseStart, ToolName: wire.ToolName, ToolID: wire.ToolID, ToolInput: wire.ToolInput}, nil
	case "tool-result":
		return stream.Event{Kind: stream.ToolResult, ToolName: wire.ToolName, ToolID: wire.ToolID, ToolResult: wire.ToolResult, ToolIsError: wire.ToolIsError}, nil
	case "usage":
		return stream.Event{Kind: stream.Usage, TokenUsage: session.TokenUsage{InputTokens: wire.InputTokens, OutputTokens: wire.OutputTokens}}, nil
	case "error":
		return stream.Event{Kind: stream.Error, ErrorMessage: wire.ErrorMessage, ErrorFatal: wire.ErrorFatal}, nil
	case "input-request":
		handleCh := make(chan any, 1)
		go func() {
			outcome := <-handleCh
			_ = p.conn.Notify(context.Background(), "plugin/resolveInput", map[string]any{
				"requestId": wire.RequestID,
				"outcome":   outcome,
			})
		}()
		return stream.Event{
			Kind:           stream.InputRequest,
			Prompt:         wire.Prompt,
			InputType:      stream.InputType(wire.InputType),
			Choices:        wire.Choices,
			ResponseHandle: handleCh,
		}, handleCh
	default:
		return stream.Event{Kind: stream.TextDelta}, nil
	}
}

type stdioReadWriteCloser struct {
	reader io.ReadCloser
	writer io.WriteCloser
}

func (s *stdioReadWriteCloser) Read(p []byte) (int, error)  { return s.reader.Read(p) }
func (s *stdioReadWriteCloser) Write(p []byte) (int, error) { return s.writer.Write(p) }
func (s *stdioReadWriteCloser) Close() error {
	werr := s.writer.Close()
	rerr := s.reader.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

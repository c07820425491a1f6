// Package plugin implements dynamic plugin registration, the single-active-
// agent invariant, and duck-typed AgentPlugin capability detection (spec
// §4.6, §9 "Protocols → capability sets").
package plugin

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/parlance-sh/parlance/internal/apperrors"
	"github.com/parlance-sh/parlance/internal/command"
	"github.com/parlance-sh/parlance/internal/session"
	"github.com/parlance-sh/parlance/internal/stream"
)

// Plugin is the minimum capability set spec §9 names: {name, description,
// commands, on_load, on_unload, status_hints}.
type Plugin interface {
	Name() string
	Description() string
	Commands() []command.Command
	OnLoad(ctx context.Context) error
	OnUnload(ctx context.Context) error
	StatusHint() string
}

// MessageContext is the input to AgentPlugin.SendMessage (spec §4.8).
type MessageContext struct {
	Message      string
	FileContexts []session.FileContext
	History      []session.Turn
}

// AgentPlugin additionally requires {send_message, compact_history,
// default_model}. Any Plugin whose concrete type also implements this
// interface is eligible to become the active agent.
type AgentPlugin interface {
	Plugin
	SendMessage(ctx context.Context, mc MessageContext) (<-chan stream.Event, error)
	CompactHistory(sess *session.Session) string
	DefaultModel() string
}

// Registry owns every registered Plugin and the single active AgentPlugin,
// exclusively.
type Registry struct {
	logger      *log.Logger
	plugins     []Plugin
	activeAgent AgentPlugin
}

// NewRegistry builds an empty Registry. logger may be nil.
func NewRegistry(logger *log.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register registers every command the plugin declares into cmdReg, then
// adopts the plugin as the active agent if it implements AgentPlugin and no
// agent is active yet. Adopting a second agent is a recoverable
// configuration error returned to the caller (I3, multi-agent row in §7).
func (r *Registry) Register(ctx context.Context, p Plugin, cmdReg *command.Registry) error {
	if err := p.OnLoad(ctx); err != nil {
		if r.logger != nil {
			r.logger.Printf("plugin %s: on_load failed: %v", p.Name(), err)
		}
		return fmt.Errorf("%w: %s: %v", apperrors.ErrPluginOnLoad, p.Name(), err)
	}

	for _, c := range p.Commands() {
		cmdReg.Register(c)
	}

	if agent, ok := p.(AgentPlugin); ok {
		if r.activeAgent != nil {
			return fmt.Errorf("%w: plugin %s", apperrors.ErrMultiAgent, p.Name())
		}
		r.activeAgent = agent
	}

	r.plugins = append(r.plugins, p)
	return nil
}

// ActiveAgent returns the current active agent, or nil if none is set.
func (r *Registry) ActiveAgent() AgentPlugin {
	return r.activeAgent
}

// GetStatusHints concatenates per-plugin hints in registration order.
func (r *Registry) GetStatusHints() string {
	var hints []string
	for _, p := range r.plugins {
		if h := p.StatusHint(); h != "" {
			hints = append(hints, h)
		}
	}
	return strings.Join(hints, " ")
}

// Plugins returns every registered plugin, in registration order.
func (r *Registry) Plugins() []Plugin {
	out := make([]Plugin, len(r.plugins))
	copy(out, r.plugins)
	return out
}

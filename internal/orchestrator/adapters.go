package orchestrator

import (
	"context"

	"github.com/parlance-sh/parlance/internal/apperrors"
	"github.com/parlance-sh/parlance/internal/command"
	"github.com/parlance-sh/parlance/internal/plugin"
	"github.com/parlance-sh/parlance/internal/spawn"
)

// agentInfoAdapter satisfies command.AgentInfoProvider by wrapping a
// *plugin.Registry, avoiding an import cycle (plugin already imports
// command for the Command type).
type agentInfoAdapter struct {
	registry *plugin.Registry
}

func (a agentInfoAdapter) ActiveAgentInfo() command.AgentInfo {
	agent := a.registry.ActiveAgent()
	if agent == nil {
		return command.AgentInfo{}
	}
	return command.AgentInfo{Present: true, Name: agent.Name(), DefaultModel: agent.DefaultModel()}
}

// spawnAdapter satisfies command.SpawnInvoker by wrapping a *spawn.Spawner,
// avoiding the same import-cycle problem as agentInfoAdapter (spawn
// transitively imports plugin, which imports command). It drives every
// spawn against the currently active primary-session agent; spec §4.11
// leaves spawn's pre/post hooks unconfigured in the general case, so both
// are nil here.
type spawnAdapter struct {
	spawner *spawn.Spawner
	plugins *plugin.Registry
}

func (a spawnAdapter) Spawn(prompt string) command.SpawnResult {
	report := a.spawner.Spawn(context.Background(), spawn.Config{
		Prompt: prompt,
		Factory: func(context.Context) (plugin.AgentPlugin, error) {
			if agent := a.plugins.ActiveAgent(); agent != nil {
				return agent, nil
			}
			return nil, apperrors.ErrNoActiveAgent
		},
	})
	result := command.SpawnResult{
		Output:      report.Turn.Content,
		PreHookErr:  report.PreHookErr,
		AgentErr:    report.AgentErr,
		PostHookErr: report.PostHookErr,
	}
	return result
}

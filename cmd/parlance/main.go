// Command parlance is the terminal entry point: a root command that runs the
// REPL plus non-interactive subcommands for the /version, /agent and /stats
// builtins. Other slash commands, CLI-exposed or not, have no subcommand.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/parlance-sh/parlance/internal/command"
	"github.com/parlance-sh/parlance/internal/orchestrator"
)

var version = "dev"

var opts orchestrator.Options

// main's context only carries SIGTERM: an unconditional shutdown signal.
// Ctrl+C (SIGINT) is armed fresh per blocking operation inside the
// Dispatcher (see internal/repl.Dispatcher.arm), so one interrupt cancels
// only the operation in flight rather than poisoning every iteration that
// follows it.
func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "parlance",
		Short:         "Terminal REPL for conversing with a pluggable AI agent",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&opts.Workspace, "workspace", "", "workspace root for @-mentions (default: cwd)")
	root.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "configuration file path")
	root.PersistentFlags().StringVar(&opts.OllamaURL, "ollama-endpoint", "", "Ollama endpoint URL")
	root.PersistentFlags().StringVar(&opts.OllamaModel, "ollama-model", "", "Ollama model name")
	opts.Version = version

	root.AddCommand(cliExposedCommands()...)
	return root
}

// runREPL boots every collaborator and drives the dispatcher until /quit,
// EOF, or interrupt. Exit codes follow spec §6: 0 for a clean exit, 1 for a
// boot failure.
func runREPL(ctx context.Context) error {
	d, cleanup, err := orchestrator.Boot(opts)
	if err != nil {
		return err
	}
	defer cleanup()
	d.Run(ctx)
	return nil
}

// cliExposedCommands generates one subcommand for each name in a fixed list
// (version, agent, stats), so e.g. `parlance version` runs the /version
// handler non-interactively against a freshly booted (but otherwise unused)
// dispatcher. The list is not derived from the CLIExposed flag: other
// CLIExposed commands are not reachable from the command line, and no
// arguments are passed to the handler.
func cliExposedCommands() []*cobra.Command {
	names := []string{"version", "agent", "stats"}
	var cmds []*cobra.Command
	for _, name := range names {
		name := name
		cmds = append(cmds, &cobra.Command{
			Use:   name,
			Short: "run /" + name + " non-interactively",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runOneShot(cmd.Context(), name)
			},
		})
	}
	return cmds
}

func runOneShot(ctx context.Context, name string) error {
	d, cleanup, err := orchestrator.Boot(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	cmd, ok := d.Registry.Get(name)
	if !ok {
		return fmt.Errorf("unknown command: %s", name)
	}
	cctx := d.CommandContext("")
	return cmd.Handler(commandContextWithoutQuit(cctx))
}

// commandContextWithoutQuit disarms RequestQuit for one-shot CLI
// invocations: nothing here ever runs inside the REPL loop, so there is no
// loop to end.
func commandContextWithoutQuit(ctx command.Context) command.Context {
	ctx.RequestQuit = func() {}
	return ctx
}

package plugin

import (
	"context"
	"fmt"
	"log"
)

// Factory produces a Plugin instance for a dotted module identifier. Go has
// no portable runtime equivalent of importing an arbitrary module by string
// (the standard library's plugin.Open is Linux-only, ELF-specific, and
// unused anywhere in the example corpus), so in-process "dynamic load"
// is modeled as a registry of known factories keyed by identifier, looked
// up the same way spec §4.6 describes: missing identifier, missing
// factory, or a factory error are all treated identically (log and skip).
// Out-of-process plugins (internal/plugin/procplugin) give genuinely
// dynamic loading of third-party plugin binaries.
type Factory func(ctx context.Context) (Plugin, error)

// Loader resolves module identifiers to Factory functions.
type Loader struct {
	logger    *log.Logger
	factories map[string]Factory
}

// NewLoader builds a Loader. logger may be nil.
func NewLoader(logger *log.Logger) *Loader {
	return &Loader{logger: logger, factories: make(map[string]Factory)}
}

// Declare registers a factory under a module identifier, available to be
// loaded by name from configuration.
func (l *Loader) Declare(moduleID string, f Factory) {
	l.factories[moduleID] = f
}

// Load locates moduleID and invokes its factory. Any failure (missing
// module, missing factory, factory error) is logged and nil is returned so
// the caller skips the plugin without aborting the boot sequence.
func (l *Loader) Load(ctx context.Context, moduleID string) Plugin {
	f, ok := l.factories[moduleID]
	if !ok {
		l.logf("plugin load failed: module %q not found", moduleID)
		return nil
	}
	p, err := f(ctx)
	if err != nil {
		l.logf("plugin load failed: module %q: %v", moduleID, err)
		return nil
	}
	if p == nil {
		l.logf("plugin load failed: module %q: factory returned nil", moduleID)
		return nil
	}
	return p
}

func (l *Loader) logf(format string, args ...any) {
	if l.logger != nil {
		l.logger.Printf(format, args...)
		return
	}
	_ = fmt.Sprintf(format, args...)
}

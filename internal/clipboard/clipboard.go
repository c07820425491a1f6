// Package clipboard wraps the system clipboard for the /copy command,
// mapping platform failures onto the ClipboardError taxonomy (spec §7).
package clipboard

import (
	"errors"
	"os/exec"
	"runtime"

	"github.com/atotto/clipboard"

	"github.com/parlance-sh/parlance/internal/apperrors"
)

// System is the default Clipboard collaborator, backed by atotto/clipboard.
type System struct{}

// New returns the default system clipboard.
func New() *System { return &System{} }

// Copy writes text to the system clipboard. Failures are classified per
// apperrors.ClipboardErrorKind so callers can render an actionable message
// instead of a raw platform error.
func (System) Copy(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return classify(err)
	}
	return nil
}

func classify(err error) error {
	if errors.Is(err, clipboard.ErrUnsupported) {
		return &apperrors.ClipboardError{Kind: apperrors.ClipboardUnsupportedPlatform, Detail: err.Error()}
	}
	if runtime.GOOS == "linux" && errors.Is(err, exec.ErrNotFound) {
		// atotto/clipboard shells out to xclip/xsel/wl-copy on Linux and
		// returns a wrapped exec.ErrNotFound when none are on PATH.
		return &apperrors.ClipboardError{Kind: apperrors.ClipboardMissingUtility, Detail: err.Error()}
	}
	return &apperrors.ClipboardError{Kind: apperrors.ClipboardSubprocessFailure, Detail: err.Error()}
}

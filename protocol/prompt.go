package protocol

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/datazip-inc/rowsync/destination"
	"github.com/datazip-inc/rowsync/types"
	"github.com/datazip-inc/rowsync/utils/logger"
	"github.com/mattn/go-isatty"
)

// confirmTimeout is how long a prompt waits for the operator before it declines.
const confirmTimeout = 10 * time.Minute

// TerminalConfirmer asks the operator on the terminal. A prompt left
// unanswered for Timeout is declined.
type TerminalConfirmer struct {
	Timeout time.Duration
}

func (c TerminalConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	return confirmWithin(ctx, c.Timeout, func(ctx context.Context, confirmed *bool) error {
		field := huh.NewConfirm().
			Title(prompt).
			Description("This removes rows from the target table. A backup has been written.").
			Affirmative("Yes, truncate").
			Negative("No").
			Value(confirmed)
		return huh.NewForm(huh.NewGroup(field)).RunWithContext(ctx)
	})
}

// confirmWithin runs ask under timeout. Running out of time is a decline,
// not an error.
func confirmWithin(ctx context.Context, timeout time.Duration, ask func(ctx context.Context, confirmed *bool) error) (bool, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	confirmed := false
	if err := ask(ctx, &confirmed); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			logger.Warnf("no answer within %s, declining", timeout)
			return false, nil
		}
		return false, err
	}
	return confirmed, nil
}

// Attended reports whether an operator is at the terminal.
func Attended() bool {
	return isTerminal(os.Stdin.Fd()) && isTerminal(os.Stdout.Fd())
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// NewConfirmer picks the truncate confirmation: the truncate.confirm token
// always suffices, otherwise an attended run prompts and an unattended run
// declines.
func NewConfirmer(job types.SyncJobConfig, attended bool) destination.Confirmer {
	if job.TruncateConfirm || !attended {
		return destination.FlagConfirmer(job.TruncateConfirm)
	}
	return TerminalConfirmer{Timeout: confirmTimeout}
}

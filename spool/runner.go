package spool

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"

	"github.com/andrewtimmins/riscos-access-server/config"
)

// ExecRunner executes the printer's command template with %f replaced
// by the queued file's path. The command is split into an argv with
// shell-style quoting and run directly, never through a shell.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, p config.Printer, queuedPath string) error {
	line := strings.ReplaceAll(p.Command, "%f", queuedPath)
	argv, err := shellwords.Parse(line)
	if err != nil {
		return fmt.Errorf("parse command: %w", err)
	}
	if len(argv) == 0 {
		return fmt.Errorf("empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", argv[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

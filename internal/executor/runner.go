package executor

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// runFunc executes a binary and returns its combined output
type runFunc func(ctx context.Context, binary string, args ...string) ([]byte, error)

// runCombined is the default runFunc backed by os/exec
func runCombined(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return output, fmt.Errorf("%s %s: %w", binary, strings.Join(args, " "), ctx.Err())
		}
		return output, fmt.Errorf("%s %s: %w (output: %s)",
			binary, strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

// commandExists checks if a binary exists in PATH
func commandExists(binary string) bool {
	_, err := exec.LookPath(binary)
	return err == nil
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
)

// Commander runs external tools.
type Commander interface {
	Run(ctx context.Context, dir, name string, args ...string) error
}

// Runner runs commands as subprocesses. Stdout is streamed to Stdout
// when set; stderr is collected and returned with a failed exit.
type Runner struct {
	Stdout io.Writer
}

// Run executes name with args in dir.
func (r *Runner) Run(ctx context.Context, dir, name string, args ...string) error {
	slog.Info("exec", "cmd", strings.Join(append([]string{name}, args...), " "), "dir", dir)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = r.Stdout
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%s: subprocess exited with code %d\n%s", name, exitErr.ExitCode(), stderr.String())
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	slog.Debug("exec finished", "cmd", name)
	return nil
}

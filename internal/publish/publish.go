// Package publish runs the post-run command, typically a git commit and push
// of the output directory.
package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const DefaultTimeout = 60 * time.Second

// ErrTimeout is returned when the command outlives its deadline.
var ErrTimeout = errors.New("command timed out")

type Command struct {
	Name    string
	Args    []string
	Dir     string
	Timeout time.Duration
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

type Runner struct{}

// Run executes cmd synchronously and captures its output. A non-zero exit
// status is reported through Result.ExitCode together with a non-nil error.
func (Runner) Run(ctx context.Context, cmd Command) (Result, error) {
	if cmd.Name == "" {
		return Result{}, errors.New("command name is required")
	}
	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	proc := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	proc.Dir = cmd.Dir
	proc.Stdout = &stdout
	proc.Stderr = &stderr
	proc.WaitDelay = time.Second

	start := time.Now()
	err := proc.Run()
	res := Result{
		ExitCode: -1,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if proc.ProcessState != nil {
		res.ExitCode = proc.ProcessState.ExitCode()
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return res, fmt.Errorf("%s after %s: %w", cmd, timeout, ErrTimeout)
	}
	if err != nil {
		return res, fmt.Errorf("run %s: %w", cmd, err)
	}
	return res, nil
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package instance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"

	"github.com/matt-FFFFFF/bootperf/internal/ctxlog"
)

const (
	defaultBinary = "lxc"
	// maxCaptureSize caps each captured stream. systemd-analyze dot on a
	// full system is a few megabytes; anything beyond this is noise.
	maxCaptureSize = 8 * 1024 * 1024
)

var (
	// ErrCommandStart is returned when the CLI binary could not be invoked.
	ErrCommandStart = errors.New("could not start lxc command")
	// ErrLifecycle is returned when a lifecycle operation fails.
	ErrLifecycle = errors.New("instance lifecycle operation failed")
)

var _ Driver = (*LXD)(nil)

// LXD drives instances through the lxc command-line client.
type LXD struct {
	binary string
	run    runFunc
}

// runFunc invokes one CLI command and captures its outcome. Split out so
// tests can intercept the exec layer.
type runFunc func(ctx context.Context, stdin io.Reader, name string, args ...string) (ExecResult, error)

// LXDOption configures the LXD driver.
type LXDOption func(*LXD)

// WithBinary overrides the lxc binary path.
func WithBinary(path string) LXDOption {
	return func(l *LXD) {
		if path != "" {
			l.binary = path
		}
	}
}

// withRunner replaces the exec layer, for tests.
func withRunner(run runFunc) LXDOption {
	return func(l *LXD) {
		l.run = run
	}
}

// NewLXD creates a driver that shells out to the lxc client.
func NewLXD(opts ...LXDOption) *LXD {
	l := &LXD{
		binary: defaultBinary,
		run:    runCommand,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Launch implements Driver.
func (l *LXD) Launch(ctx context.Context, image, name string, kind Kind) error {
	args := []string{"launch", image, name}
	if kind == KindVM {
		args = append(args, "--vm")
	}

	return l.lifecycle(ctx, args...)
}

// Stop implements Driver.
func (l *LXD) Stop(ctx context.Context, name string) error {
	return l.lifecycle(ctx, "stop", "--force", name)
}

// Restart implements Driver.
func (l *LXD) Restart(ctx context.Context, name string) error {
	return l.lifecycle(ctx, "restart", "--force", name)
}

// Delete implements Driver.
func (l *LXD) Delete(ctx context.Context, name string) error {
	return l.lifecycle(ctx, "delete", "--force", name)
}

// Exec implements Driver. The remote exit code passes through lxc exec
// unchanged; lxc's own failure modes (no exec session yet, agent not
// running) surface as exit codes too and are left for the caller to
// interpret.
func (l *LXD) Exec(ctx context.Context, name string, command ...string) (ExecResult, error) {
	args := append([]string{"exec", name, "--"}, command...)

	return l.run(ctx, nil, l.binary, args...)
}

// Push implements Driver using lxc file push with content on stdin.
func (l *LXD) Push(ctx context.Context, name, dest string, content []byte, mode fs.FileMode) error {
	args := []string{
		"file", "push",
		"--create-dirs",
		"--mode", fmt.Sprintf("%04o", mode.Perm()),
		"-", name + dest,
	}

	res, err := l.run(ctx, bytes.NewReader(content), l.binary, args...)
	if err != nil {
		return err
	}

	if res.ExitCode != 0 {
		return fmt.Errorf("%w: push %s to %s: exit code %d: %s",
			ErrLifecycle, dest, name, res.ExitCode, bytes.TrimSpace(res.Stderr))
	}

	return nil
}

func (l *LXD) lifecycle(ctx context.Context, args ...string) error {
	ctxlog.Debug(ctx, "lxc lifecycle", "args", args)

	res, err := l.run(ctx, nil, l.binary, args...)
	if err != nil {
		return err
	}

	if res.ExitCode != 0 {
		return fmt.Errorf("%w: lxc %s: exit code %d: %s",
			ErrLifecycle, args[0], res.ExitCode, bytes.TrimSpace(res.Stderr))
	}

	return nil
}

// runCommand is the real exec layer. Non-zero exit codes are data; only a
// failure to start the process at all is an error.
func runCommand(ctx context.Context, stdin io.Reader, name string, args ...string) (ExecResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin

	stdout := newCappedBuffer(maxCaptureSize)
	stderr := newCappedBuffer(maxCaptureSize)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()

	res := ExecResult{
		Stdout:    stdout.Bytes(),
		Stderr:    stderr.Bytes(),
		Truncated: stdout.Truncated() || stderr.Truncated(),
	}

	var exitErr *exec.ExitError

	switch {
	case err == nil:
		res.ExitCode = 0
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		return res, errors.Join(ErrCommandStart, err)
	}

	return res, nil
}

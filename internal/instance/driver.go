// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package instance

import (
	"context"
	"io/fs"
)

// Kind is the flavour of instance to launch.
type Kind string

const (
	// KindContainer is a system container.
	KindContainer Kind = "container"
	// KindVM is a virtual machine.
	KindVM Kind = "vm"
)

// Valid reports whether the kind is one the harness knows how to launch.
func (k Kind) Valid() bool {
	return k == KindContainer || k == KindVM
}

// ExecResult is the captured outcome of a command run inside an instance.
type ExecResult struct {
	// ExitCode is the remote command's exit code, or the transport's own
	// code when the command never ran (255 for an unreachable guest).
	ExitCode int
	// Stdout holds the captured standard output, possibly truncated.
	Stdout []byte
	// Stderr holds the captured standard error, possibly truncated.
	Stderr []byte
	// Truncated is set when either stream exceeded the capture limit.
	Truncated bool
}

// Driver manages instances and runs commands inside them.
type Driver interface {
	// Launch creates and starts a new instance from the image.
	Launch(ctx context.Context, image, name string, kind Kind) error
	// Stop stops a running instance.
	Stop(ctx context.Context, name string) error
	// Restart stops and starts a running instance.
	Restart(ctx context.Context, name string) error
	// Delete forcefully removes an instance.
	Delete(ctx context.Context, name string) error
	// Exec runs a command inside the instance. A non-zero remote exit
	// code is reported in the result, not as an error; err is reserved
	// for failures to invoke the transport at all.
	Exec(ctx context.Context, name string, command ...string) (ExecResult, error)
	// Push writes content to a file inside the instance, creating parent
	// directories as needed.
	Push(ctx context.Context, name, dest string, content []byte, mode fs.FileMode) error
}

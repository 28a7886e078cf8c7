// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package instance manages the test instances (LXD containers or virtual
// machines) that the harness measures. The Driver interface covers the
// lifecycle operations the harness needs plus Exec and Push for reaching
// inside the guest; the LXD implementation shells out to the lxc binary.
//
// Exec deliberately reports the remote command's exit code and output as
// data rather than as a Go error: during early boot a failing status query
// is the signal the boot waiter classifies, not a fault.
package instance

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package bootwait blocks until a systemd target inside a freshly started
// instance is confirmed active. Very early in boot the status query itself is
// not serviceable: the guest's service manager may not be reachable over
// D-Bus yet, or the instance may not accept exec sessions at all. Those
// transport states are classified separately from "target not active yet" so
// the wait can ride out boot noise without ever treating it as failure.
//
// The wait has two independent success conditions. Either the named target
// reports active, or the system as a whole reports running. The second
// condition matters for instrumented boots where units have been masked or
// overridden to no-ops: the system can converge to its stable state without
// the target's usual dependency chain ever resolving.
//
// There is no hard timeout. Crossing the soft threshold triggers a
// diagnostic escalation (a pending-job dump) and polling continues; the only
// way to abandon a wait is to cancel the context.
package bootwait

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog provides a context-aware logger that can be used to log messages.
// It uses the slog package for structured logging and supports different log levels.
//
// The default is a pretty console handler to format the log messages in a human-readable way.
//
// The log level is read from an environment variable derived from the
// executable name, e.g. BOOTPERF_LOG_LEVEL for an executable named
// bootperf. Accepted values are DEBUG, INFO, WARN and ERROR; anything else
// defaults to INFO.
package ctxlog

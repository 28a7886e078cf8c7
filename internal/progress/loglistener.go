// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"context"
	"log/slog"

	"github.com/matt-FFFFFF/bootperf/internal/ctxlog"
)

// LogListener renders events through the structured logger. It is the
// default sink when the TUI is not active.
type LogListener struct {
	ctx context.Context
}

// NewLogListener creates a listener that logs to the logger carried by ctx.
func NewLogListener(ctx context.Context) *LogListener {
	return &LogListener{ctx: ctx}
}

// OnEvent implements Listener.
func (ll *LogListener) OnEvent(event Event) {
	attrs := []any{
		slog.Int("run", event.Run),
		slog.String("profile", event.Profile),
	}

	if event.Instance != "" {
		attrs = append(attrs, slog.String("instance", event.Instance))
	}

	if event.Phase.Terminal() && event.Polls > 0 {
		attrs = append(attrs, slog.Int("polls", event.Polls))
	}

	if event.Err != nil {
		attrs = append(attrs, slog.String("error", event.Err.Error()))
		ctxlog.Error(ll.ctx, event.Phase.String(), attrs...)

		return
	}

	ctxlog.Info(ll.ctx, event.Phase.String(), attrs...)
}

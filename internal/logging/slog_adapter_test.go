// Slotwise - Warehouse Slotting Analytics and Placement Recommendations
// Copyright 2026 Slotwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotwise/slotwise

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newCaptureSlogger(buf *bytes.Buffer, level zerolog.Level) *slog.Logger {
	logger := zerolog.New(buf).Level(level)
	return slog.New(NewSlogHandlerWithLogger(logger))
}

func TestSlogHandlerLevels(t *testing.T) {
	tests := []struct {
		name      string
		log       func(*slog.Logger)
		wantLevel string
	}{
		{"debug", func(l *slog.Logger) { l.Debug("m") }, "debug"},
		{"info", func(l *slog.Logger) { l.Info("m") }, "info"},
		{"warn", func(l *slog.Logger) { l.Warn("m") }, "warn"},
		{"error", func(l *slog.Logger) { l.Error("m") }, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(newCaptureSlogger(&buf, zerolog.TraceLevel))
			if !strings.Contains(buf.String(), `"level":"`+tt.wantLevel+`"`) {
				t.Errorf("output %q missing level %q", buf.String(), tt.wantLevel)
			}
		})
	}
}

func TestSlogHandlerAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := newCaptureSlogger(&buf, zerolog.TraceLevel)

	logger.Info("run complete", slog.String("run_id", "abc"), slog.Int("clusters", 4))

	out := buf.String()
	if !strings.Contains(out, `"run_id":"abc"`) {
		t.Errorf("output %q missing string attribute", out)
	}
	if !strings.Contains(out, `"clusters":4`) {
		t.Errorf("output %q missing int attribute", out)
	}
}

func TestSlogHandlerWithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := newCaptureSlogger(&buf, zerolog.TraceLevel)

	logger.With(slog.String("supervisor", "root")).WithGroup("service").Info("started", slog.String("name", "api"))

	out := buf.String()
	if !strings.Contains(out, `"supervisor":"root"`) {
		t.Errorf("output %q missing pre-configured attribute", out)
	}
	if !strings.Contains(out, `"service.name":"api"`) {
		t.Errorf("output %q missing group-prefixed attribute", out)
	}
}

func TestSlogHandlerNestedGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := newCaptureSlogger(&buf, zerolog.TraceLevel)

	logger.WithGroup("tree").With(slog.String("layer", "data")).WithGroup("service").
		Info("restarted", slog.Int("failures", 2))

	out := buf.String()
	if !strings.Contains(out, `"tree.layer":"data"`) {
		t.Errorf("output %q missing attr qualified by its own group path", out)
	}
	if !strings.Contains(out, `"tree.service.failures":2`) {
		t.Errorf("output %q missing nested group-prefixed attr", out)
	}
	if strings.Contains(out, `"tree.service.layer"`) {
		t.Errorf("output %q applies a later group to an earlier attr", out)
	}
}

func TestSlogHandlerInlineGroupValue(t *testing.T) {
	var buf bytes.Buffer
	logger := newCaptureSlogger(&buf, zerolog.TraceLevel)

	logger.Info("m", slog.Group("run", slog.String("id", "abc"), slog.Int("clusters", 4)))

	out := buf.String()
	if !strings.Contains(out, `"run.id":"abc"`) || !strings.Contains(out, `"run.clusters":4`) {
		t.Errorf("output %q missing flattened group members", out)
	}
}

func TestSlogHandlerEnabled(t *testing.T) {
	var buf bytes.Buffer
	handler := NewSlogHandlerWithLogger(zerolog.New(&buf).Level(zerolog.WarnLevel))

	if handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Enabled(info) = true with warn-level backend")
	}
	if !handler.Enabled(context.Background(), slog.LevelError) {
		t.Error("Enabled(error) = false with warn-level backend")
	}
}

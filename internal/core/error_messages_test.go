package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "wrapped missing column maps correctly",
			err:         fmt.Errorf("impute amounts: %w %q", ErrMissingColumn, "Quantity"),
			wantCode:    "VAL004",
			wantMessage: "A column required by a cleaning step is missing",
		},
		{
			name:        "invalid config maps correctly",
			err:         fmt.Errorf("%w:\n  - duplicates.keep", ErrInvalidConfig),
			wantCode:    "CFG001",
			wantMessage: "The cleaning configuration is invalid",
		},
		{
			name:        "unknown yaml key maps correctly",
			err:         errors.New("yaml: unmarshal errors:\n  line 3: field colour not found in type config.pipelineFile"),
			wantCode:    "CFG002",
			wantMessage: "The config file contains an unrecognized key",
		},
		{
			name:        "invalid type wins over invalid config",
			err:         fmt.Errorf("invalid config: %w: unknown type \"money\"", ErrInvalidType),
			wantCode:    "CFG003",
			wantMessage: "A schema column declares an unknown type",
		},
		{
			name:        "file too large maps correctly",
			err:         errors.New("file too large: exceeds 100MB"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds maximum size limit",
		},
		{
			name:        "busy maps correctly",
			err:         errors.New("too many concurrent runs, please try again later"),
			wantCode:    "RUN002",
			wantMessage: "Too many cleaning runs in progress",
		},
		{
			name:        "cancelled context maps correctly",
			err:         fmt.Errorf("read: %w", context.Canceled),
			wantCode:    "RUN004",
			wantMessage: "Request was cancelled",
		},
		{
			name:        "connection refused maps correctly",
			err:         errors.New("dial tcp: connection refused"),
			wantCode:    "DB004",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("MISSING REQUIRED COLUMN"),
			wantCode:    "VAL004",
			wantMessage: "A column required by a cleaning step is missing",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("something strange happened"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError().Code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError().Message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestMapError_AllPatternsHaveAction(t *testing.T) {
	for _, p := range errorPatterns {
		if p.msg.Action == "" {
			t.Errorf("pattern %q has no action", p.pattern)
		}
		if p.msg.Code == "" {
			t.Errorf("pattern %q has no code", p.pattern)
		}
	}
}

func TestFormatUserError(t *testing.T) {
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}

	got := FormatUserError(fmt.Errorf("deduplicate: %w %q", ErrMissingColumn, "Transaction ID"))
	if !strings.Contains(got, "(VAL004)") {
		t.Errorf("FormatUserError() = %q, want code VAL004", got)
	}
}

package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/csvstats/internal/profile"
	"github.com/JonMunkholm/csvstats/internal/store"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "nil error returns empty", err: nil, wantCode: ""},
		{
			name:     "parse error",
			err:      fmt.Errorf("analysis: %w", &profile.SourceParseError{Line: 3, Err: errors.New(`bare " in non-quoted field`)}),
			wantCode: "SRC002",
		},
		{
			name:     "read error",
			err:      &profile.SourceReadError{Err: errors.New("unexpected EOF")},
			wantCode: "SRC001",
		},
		{
			name:     "read error wins over wrapped cancellation",
			err:      &profile.SourceReadError{Err: context.Canceled},
			wantCode: "SRC001",
		},
		{name: "too many analyses", err: fmt.Errorf("start: %w", ErrTooManyAnalyses), wantCode: "UPL002"},
		{name: "analysis not found", err: ErrAnalysisNotFound, wantCode: "UPL003"},
		{name: "analytics not found", err: ErrAnalyticsNotFound, wantCode: "CACHE001"},
		{name: "store not found", err: fmt.Errorf("get: %w", store.ErrNotFound), wantCode: "CACHE001"},
		{name: "no file", err: ErrNoFile, wantCode: "FILE004"},
		{name: "max bytes reader", err: errors.New("http: request body too large"), wantCode: "FILE001"},
		{name: "context canceled", err: context.Canceled, wantCode: "UPL004"},
		{name: "deadline", err: fmt.Errorf("cache: %w", context.DeadlineExceeded), wantCode: "UPL005"},
		{name: "connection refused", err: errors.New("dial tcp 127.0.0.1:6379: connect: connection refused"), wantCode: "DB004"},
		{name: "timeout pattern", err: errors.New("i/o timeout"), wantCode: "DB006"},
		{name: "sqlite busy", err: errors.New("database is locked (5) (SQLITE_BUSY)"), wantCode: "DB007"},
		{name: "case insensitive", err: errors.New("UNIQUE constraint failed: files.id"), wantCode: "DB002"},
		{name: "unknown error returns default", err: errors.New("some random internal error"), wantCode: "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapError(tt.err); got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(ErrTooManyAnalyses)
	want := "System is busy analyzing other files (Code: UPL002). Please wait a moment and try again"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error is not user facing", err: nil, want: false},
		{name: "known error is user facing", err: ErrNoFile, want: true},
		{name: "unknown error is not user facing", err: errors.New("random internal error xyz"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	if got := NewUserError(nil); got != nil {
		t.Errorf("NewUserError(nil) = %v, want nil", got)
	}

	techErr := fmt.Errorf("sqlite: insert file x: %w", errors.New("UNIQUE constraint failed: files.id"))
	userErr := NewUserError(techErr)
	if userErr.Error() != "A file with this ID already exists" {
		t.Errorf("Error() = %q, want user message", userErr.Error())
	}
	if !errors.Is(userErr, techErr) {
		t.Error("Unwrap() should return original error")
	}
}

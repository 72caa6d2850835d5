package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	errs "github.com/edgard/chatstats/internal/errors"
)

func TestCode(t *testing.T) {
	t.Parallel()

	cause := stderrors.New("boom")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "plain error", err: cause, want: errs.CodeUnknown},
		{name: "nil error", err: nil, want: errs.CodeUnknown},
		{name: "io error", err: errs.NewIOError("open input", cause), want: errs.CodeIO},
		{name: "wrapped parse error", err: fmt.Errorf("graph: %w", errs.NewParseError("bad hour", cause)), want: errs.CodeParse},
		{name: "line error inside render error", err: errs.NewRenderError("draw", &errs.LineError{Line: 3, Err: cause}), want: errs.CodeRender},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := errs.Code(tt.err); got != tt.want {
				t.Errorf("Code() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	t.Parallel()

	cause := stderrors.New("unexpected EOF")
	err := errs.NewParseError("invalid csv", &errs.LineError{Line: 7, Err: cause})

	if got, want := err.Error(), "invalid csv: line 7: unexpected EOF"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the root cause")
	}

	var lineErr *errs.LineError
	if !stderrors.As(err, &lineErr) || lineErr.Line != 7 {
		t.Errorf("errors.As did not recover the line error: %#v", lineErr)
	}
	if !errs.Is(err, errs.CodeParse) {
		t.Error("Is(err, CodeParse) = false, want true")
	}
}

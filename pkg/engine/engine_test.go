package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chazu/birdomatic/pkg/params"
)

func TestEvaluateEmptyString(t *testing.T) {
	eng := NewEngine()

	for _, src := range []string{"", "   \n\t  \n  "} {
		rec, evalErrs, err := eng.Evaluate(src)
		if err != nil {
			t.Fatalf("unexpected fatal error: %v", err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("unexpected eval errors: %v", evalErrs)
		}
		if rec == nil {
			t.Fatal("expected non-nil record")
		}
		if *rec != params.Defaults() {
			t.Errorf("empty source %q should yield the defaults, got %+v", src, *rec)
		}
	}
}

func TestEvaluateValidExpression(t *testing.T) {
	eng := NewEngine()

	// Plain arithmetic builds no bird, so the defaults come back.
	rec, evalErrs, err := eng.Evaluate("(+ 1 2)")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if rec == nil || *rec != params.Defaults() {
		t.Errorf("expected defaults, got %+v", rec)
	}
}

func TestEvaluateMultipleExpressions(t *testing.T) {
	eng := NewEngine()

	source := `
(def x 10)
(def y 20)
(bird :tail-length (+ x y))
`
	rec, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if rec.TailLength != 30 {
		t.Errorf("tail_length = %g, want 30", rec.TailLength)
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	eng := NewEngine()

	// Unmatched paren is a parse error.
	rec, evalErrs, err := eng.Evaluate("(bird :beak-length 2")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if rec != nil {
		t.Fatal("expected nil record on syntax error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for syntax error")
	}
	if evalErrs[0].Message == "" {
		t.Error("eval error message should not be empty")
	}
}

func TestEvaluateUndefinedSymbol(t *testing.T) {
	eng := NewEngine()

	rec, evalErrs, err := eng.Evaluate("(bird :beak-length undefined-symbol)")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if rec != nil {
		t.Fatal("expected nil record on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for undefined symbol")
	}
}

func TestEvaluateSyntaxErrorHasLineInfo(t *testing.T) {
	eng := NewEngine()

	// Put the error on line 2.
	source := "(bird)\n(bird :head-size"
	rec, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if rec != nil {
		t.Fatal("expected nil record on syntax error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error")
	}

	// Line info depends on the zygomys error format; only check it is sane.
	e := evalErrs[0]
	if e.Message == "" {
		t.Error("eval error message should not be empty")
	}
	if e.Line < 0 {
		t.Errorf("line = %d, want >= 0", e.Line)
	}
}

func TestEvalErrorImplementsError(t *testing.T) {
	e := EvalError{Line: 5, Col: 0, Message: "something went wrong"}
	s := e.Error()
	if !strings.Contains(s, "line 5") {
		t.Errorf("Error() should contain line info, got: %s", s)
	}
	if !strings.Contains(s, "something went wrong") {
		t.Errorf("Error() should contain message, got: %s", s)
	}

	// No line info.
	e2 := EvalError{Line: 0, Col: 0, Message: "no location"}
	s2 := e2.Error()
	if strings.Contains(s2, "line") {
		t.Errorf("Error() with no line should not contain 'line', got: %s", s2)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	eng := NewEngine()

	var first *params.Record
	for i := 0; i < 5; i++ {
		rec, evalErrs, err := eng.Evaluate("(bird :eye-size 4 :head-yaw -15)")
		if err != nil {
			t.Fatalf("iteration %d: unexpected fatal error: %v", i, err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("iteration %d: unexpected eval errors: %v", i, evalErrs)
		}
		if first == nil {
			first = rec
			continue
		}
		if *rec != *first {
			t.Errorf("iteration %d: got %+v, want %+v", i, *rec, *first)
		}
	}
}

func TestEvaluateResultWarnings(t *testing.T) {
	eng := NewEngine()

	res := eng.EvaluateResult("(bird :tail-pitch 120 :beak-width 3)")
	if len(res.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if res.Params == nil {
		t.Fatal("expected a record")
	}
	if res.Params.TailPitch != 120 {
		t.Errorf("out-of-range values are kept, got tail_pitch %g", res.Params.TailPitch)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Field != params.TailPitch {
		t.Fatalf("expected one tail_pitch warning, got %+v", res.Warnings)
	}

	res = eng.EvaluateResult("(bird :no-such-field 1)")
	if res.Params != nil || len(res.Errors) == 0 {
		t.Errorf("expected an error for an unknown field, got %+v", res)
	}
}

func TestEvaluateTimeout(t *testing.T) {
	// Drive wait directly with a channel that never sends;
	// a program zygomys would loop on forever is not needed.
	eng := NewEngine(WithTimeout(50 * time.Millisecond))
	eng.generation = 1
	ch := make(chan evalResult)

	done := make(chan struct{})
	var resultErr error

	go func() {
		defer close(done)
		_, _, resultErr = eng.wait(context.Background(), ch, 1)
	}()

	select {
	case <-done:
		if !errors.Is(resultErr, ErrTimeout) {
			t.Fatalf("expected ErrTimeout, got: %v", resultErr)
		}
		if !strings.Contains(resultErr.Error(), "timed out after 50ms") {
			t.Errorf("expected timeout error message, got: %v", resultErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("test itself timed out waiting for evaluation timeout")
	}
}

func TestEvaluateContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewEngine().EvaluateContext(ctx, "(bird)")
	// The evaluation may win the race against the canceled context.
	if err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got: %v", err)
	}
}

func TestWithTimeoutIgnoresNonPositive(t *testing.T) {
	if got := NewEngine(WithTimeout(0)).timeout; got != DefaultTimeout {
		t.Errorf("timeout = %s, want %s", got, DefaultTimeout)
	}
	if got := NewEngine(WithTimeout(time.Second)).timeout; got != time.Second {
		t.Errorf("timeout = %s, want 1s", got)
	}
}

func TestEvaluateGenerationDiscardsStale(t *testing.T) {
	eng := NewEngine()
	eng.generation = 2 // Current generation is 2

	ch := make(chan evalResult, 1)
	ch <- evalResult{}

	// Pass generation 1 (stale).
	_, _, err := eng.wait(context.Background(), ch, 1)
	if !errors.Is(err, ErrSuperseded) {
		t.Errorf("expected ErrSuperseded, got: %v", err)
	}
}

func TestConcurrentKeepsStaleResults(t *testing.T) {
	eng := NewEngine(Concurrent())
	eng.generation = 2

	want := params.Defaults().With(params.BeakLength, 30)
	ch := make(chan evalResult, 1)
	ch <- evalResult{rec: &want}

	rec, evalErrs, err := eng.wait(context.Background(), ch, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(evalErrs) != 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if rec == nil || rec.BeakLength != 30 {
		t.Errorf("expected the older evaluation's record, got %+v", rec)
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{
			name:     "error on line format",
			msg:      "Error on line 5: unexpected token\n",
			wantLine: 5,
			wantMsg:  "unexpected token",
		},
		{
			name:     "no line info",
			msg:      "some generic error",
			wantLine: 0,
			wantMsg:  "some generic error",
		},
		{
			name:     "line format lowercase",
			msg:      "error on line 12: missing paren",
			wantLine: 12,
			wantMsg:  "missing paren",
		},
		{
			name:     "short line format",
			msg:      "line 3: bird: unknown field",
			wantLine: 3,
			wantMsg:  "unknown field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errString(tt.msg))
			if len(errs) == 0 {
				t.Fatal("expected at least one error")
			}
			e := errs[0]
			if e.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", e.Line, tt.wantLine)
			}
			if !strings.Contains(e.Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", e.Message, tt.wantMsg)
			}
		})
	}
}

// errString is a simple error type for testing.
type errString string

func (e errString) Error() string { return string(e) }

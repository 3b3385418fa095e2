// Package engine evaluates bird presets written in a small Lisp. It wraps
// zygomys in a sandboxed environment and produces a params.Record from
// user source code.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/birdomatic/pkg/params"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning flags a field the preset left outside its advisory range.
type EvalWarning struct {
	Field   params.Field
	Value   float64
	Message string
}

// EvalResult bundles the full output of an evaluation for use by UI bindings.
type EvalResult struct {
	Params   *params.Record
	Errors   []EvalError
	Warnings []EvalWarning
}

// Engine wraps the zygomys interpreter for preset evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	timeout    time.Duration
	concurrent bool

	mu         sync.Mutex
	generation uint64
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs a preset and returns the record it describes: the value of
// the last top-level form if that is a bird, otherwise the last bird the
// program built. A program that builds no bird yields the defaults.
//
// Return semantics:
//   - On success: returns record + nil errors + nil error
//   - On parse/eval failure: returns nil record + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*params.Record, []EvalError, error) {
	return e.EvaluateContext(context.Background(), source)
}

// EvaluateContext is Evaluate, abandoned early when ctx is done.
func (e *Engine) EvaluateContext(ctx context.Context, source string) (*params.Record, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		rec, evalErrs, err := e.evaluate(source)
		ch <- evalResult{rec: rec, errors: evalErrs, err: err}
	}()

	return e.wait(ctx, ch, gen)
}

// EvaluateResult is Evaluate plus range warnings, packaged for hosts.
// Fatal failures are reported as a single EvalError.
func (e *Engine) EvaluateResult(source string) EvalResult {
	rec, evalErrs, err := e.Evaluate(source)
	if err != nil {
		return EvalResult{Errors: []EvalError{{Message: err.Error()}}}
	}
	res := EvalResult{Params: rec, Errors: evalErrs}
	if rec != nil {
		res.Warnings = Warnings(*rec)
	}
	return res
}

// Warnings lists the fields of rec outside their advisory range.
func Warnings(rec params.Record) []EvalWarning {
	var out []EvalWarning
	for _, is := range rec.Validate() {
		if is.Severity != params.SeverityWarning {
			continue
		}
		out = append(out, EvalWarning{Field: is.Field, Value: is.Value, Message: is.Message})
	}
	return out
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*params.Record, []EvalError, error) {
	// Empty source is a valid program that produces the defaults.
	if strings.TrimSpace(source) == "" {
		rec := params.Defaults()
		return &rec, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	var s session
	registerBuiltins(env, &s)

	err := env.LoadString(preprocessSource(source))
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	out, err := env.Run()
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	var rec params.Record
	switch {
	case isBird(out):
		rec = out.(*sexpBird).rec
	case s.last != nil:
		rec = *s.last
	default:
		rec = params.Defaults()
	}

	var evalErrs []EvalError
	for _, is := range rec.Validate() {
		if is.Severity == params.SeverityError {
			evalErrs = append(evalErrs, EvalError{Message: is.Error()})
		}
	}
	if len(evalErrs) > 0 {
		return nil, evalErrs, nil
	}
	return &rec, nil, nil
}

func isBird(s zygo.Sexp) bool {
	_, ok := s.(*sexpBird)
	return ok
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}

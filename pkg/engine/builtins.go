package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/chazu/birdomatic/pkg/params"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpBird wraps a params.Record so it can be passed between builtins and
// bound to variables.
type sexpBird struct {
	rec params.Record
}

// SexpString prints only the fields that differ from the defaults.
func (b *sexpBird) SexpString(ps *zygo.PrintState) string {
	def := params.Defaults()
	var sb strings.Builder
	sb.WriteString("(bird")
	for _, f := range params.Fields() {
		if v := b.rec.Get(f); v != def.Get(f) {
			fmt.Fprintf(&sb, " :%s %s", kebab(f.Key()), formatNumber(v))
		}
	}
	sb.WriteString(")")
	return sb.String()
}
func (b *sexpBird) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
// Keywords keep their source order so later overrides win.
type kwArgs struct {
	keys       []string
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if _, seen := result.kw[name]; !seen {
				result.keys = append(result.keys, name)
			}
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_tail-yaw) and plain strings ("tail_yaw").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toField resolves a keyword or string to a record field.
func toField(s zygo.Sexp) (params.Field, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, err
	}
	f, ok := params.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("unknown field %q", name)
	}
	return f, nil
}

// toBird extracts a Record from a sexpBird.
func toBird(s zygo.Sexp) (params.Record, error) {
	if b, ok := s.(*sexpBird); ok {
		return b.rec, nil
	}
	return params.Record{}, fmt.Errorf("expected bird, got %T (%s)", s, s.SexpString(nil))
}

// applyFields sets every keyword argument on rec.
func applyFields(op string, rec params.Record, pa kwArgs) (params.Record, error) {
	for _, key := range pa.keys {
		f, ok := params.Lookup(key)
		if !ok {
			return rec, fmt.Errorf("%s: unknown field %q", op, key)
		}
		v, err := toFloat64(pa.kw[key])
		if err != nil {
			return rec, fmt.Errorf("%s: %s: %w", op, key, err)
		}
		rec.Set(f, v)
	}
	return rec, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// session collects the records built during one evaluation.
type session struct {
	last *params.Record
}

func (s *session) emit(rec params.Record) zygo.Sexp {
	s.last = &rec
	return &sexpBird{rec: rec}
}

// registerBuiltins installs the preset builtins into a zygomys environment.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, s *session) {

	// -----------------------------------------------------------------------
	// (defaults)
	// -----------------------------------------------------------------------
	env.AddFunction("defaults", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 0 {
			return zygo.SexpNull, fmt.Errorf("defaults takes no arguments, got %d", len(args))
		}
		return s.emit(params.Defaults()), nil
	})

	// -----------------------------------------------------------------------
	// (bird :beak-length 20 :tail-pitch 60)
	// -----------------------------------------------------------------------
	env.AddFunction("bird", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) > 0 {
			return zygo.SexpNull, fmt.Errorf("bird: unexpected positional argument %s", pa.positional[0].SexpString(nil))
		}
		rec, err := applyFields("bird", params.Defaults(), pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		return s.emit(rec), nil
	})

	// -----------------------------------------------------------------------
	// (bird-with base :head-yaw 30)
	// -----------------------------------------------------------------------
	env.AddFunction("bird_with", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("bird-with requires exactly one bird, got %d positional arguments", len(pa.positional))
		}
		base, err := toBird(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("bird-with: %w", err)
		}
		rec, err := applyFields("bird-with", base, pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		return s.emit(rec), nil
	})

	// -----------------------------------------------------------------------
	// (clamp b)
	// -----------------------------------------------------------------------
	env.AddFunction("clamp", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("clamp requires exactly one bird, got %d arguments", len(args))
		}
		rec, err := toBird(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("clamp: %w", err)
		}
		return s.emit(rec.Clamp()), nil
	})

	// -----------------------------------------------------------------------
	// (bird-get b :belly-size)
	// -----------------------------------------------------------------------
	env.AddFunction("bird_get", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("bird-get requires a bird and a field, got %d arguments", len(args))
		}
		rec, err := toBird(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("bird-get: %w", err)
		}
		f, err := toField(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("bird-get: %w", err)
		}
		return &zygo.SexpFloat{Val: rec.Get(f)}, nil
	})

	// -----------------------------------------------------------------------
	// (field-range :tail-pitch) => [min max]
	// -----------------------------------------------------------------------
	env.AddFunction("field_range", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("field-range requires exactly one field, got %d arguments", len(args))
		}
		f, err := toField(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("field-range: %w", err)
		}
		r := f.Range()
		return env.NewSexpArray([]zygo.Sexp{&zygo.SexpFloat{Val: r.Min}, &zygo.SexpFloat{Val: r.Max}}), nil
	})
}

// ---------------------------------------------------------------------------
// Formatting
// ---------------------------------------------------------------------------

// Format writes rec as a preset script that Evaluate reads back to an
// identical record. Every field is listed, one group per line.
func Format(rec params.Record) string {
	var sb strings.Builder
	sb.WriteString("(bird")
	for _, g := range params.Groups() {
		sb.WriteString("\n ")
		for _, f := range params.FieldsIn(g) {
			fmt.Fprintf(&sb, " :%s %s", kebab(f.Key()), formatNumber(rec.Get(f)))
		}
	}
	sb.WriteString(")\n")
	return sb.String()
}

// Keywords lists every field as it is written in a preset, sorted.
func Keywords() []string {
	out := make([]string, 0, params.NumFields)
	for _, f := range params.Fields() {
		out = append(out, ":"+kebab(f.Key()))
	}
	sort.Strings(out)
	return out
}

func kebab(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// formatNumber prints the shortest decimal that reads back as v, never in
// exponent form.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

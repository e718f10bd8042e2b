// Package filter evaluates user-supplied predicates against completed
// records, e.g. `seconds > 30 && datacenter == "DC1"`.
package filter

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/reqsift/reqsift/internal/model"
)

// recordEnv is the typed expression environment: one variable per summary
// column. Unknown names fail at compile time.
type recordEnv struct {
	Datetime   string  `expr:"datetime"`
	Datacenter string  `expr:"datacenter"`
	Request    string  `expr:"request"`
	Filename   string  `expr:"filename"`
	Status     string  `expr:"status"`
	Seconds    float64 `expr:"seconds"`
}

// Filter is a compiled record predicate.
type Filter struct {
	program *vm.Program
}

// Compile builds a Filter from an expression. The expression sees the
// record's summary columns by name (datetime, datacenter, request,
// filename, and status as strings, seconds as a float) and must evaluate
// to a boolean.
func Compile(src string) (*Filter, error) {
	program, err := expr.Compile(src, expr.Env(recordEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	return &Filter{program: program}, nil
}

// Match reports whether the record satisfies the predicate.
func (f *Filter) Match(rec *model.Record) (bool, error) {
	env := recordEnv{
		Datetime:   rec.StartText(),
		Datacenter: rec.Datacenter,
		Request:    rec.Request,
		Filename:   rec.Filename,
		Status:     rec.Status,
		Seconds:    rec.Seconds,
	}
	out, err := expr.Run(f.program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate filter: %w", err)
	}
	return out.(bool), nil
}

// Package rules evaluates boolean expressions written in expr-lang against a
// flat variable map.
package rules

import (
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rotisserie/eris"
)

// Evaluator evaluates a rule expression against variables.
type Evaluator interface {
	Evaluate(expression string, vars map[string]any) (bool, error)
}

// ExprEvaluator compiles expressions once and caches the programs. It is
// safe for concurrent use.
type ExprEvaluator struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// NewExprEvaluator creates an evaluator with an empty program cache.
func NewExprEvaluator() *ExprEvaluator {
	return &ExprEvaluator{cache: make(map[string]*vm.Program)}
}

// Compile type-checks expression against the shape of vars and caches it.
func (e *ExprEvaluator) Compile(expression string, vars map[string]any) error {
	_, err := e.program(expression, vars)
	return err
}

// Evaluate runs expression. The result must be a boolean.
func (e *ExprEvaluator) Evaluate(expression string, vars map[string]any) (bool, error) {
	program, err := e.program(expression, vars)
	if err != nil {
		return false, err
	}

	out, err := expr.Run(program, vars)
	if err != nil {
		return false, eris.Wrapf(err, "rules: run %q", expression)
	}
	b, ok := out.(bool)
	if !ok {
		return false, eris.Errorf("rules: expression %q did not evaluate to a boolean, got %T", expression, out)
	}
	return b, nil
}

func (e *ExprEvaluator) program(expression string, vars map[string]any) (*vm.Program, error) {
	e.mu.RLock()
	p, ok := e.cache[expression]
	e.mu.RUnlock()
	if ok {
		return p, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok = e.cache[expression]; ok {
		return p, nil
	}
	p, err := expr.Compile(expression, expr.Env(vars), expr.AsBool())
	if err != nil {
		return nil, eris.Wrapf(err, "rules: compile %q", expression)
	}
	e.cache[expression] = p
	return p, nil
}

// Package evaluator runs a single node's source inside a restricted
// namespace and dispatches to its entry point following the same priority
// and argument-binding rules whether the node runs in-process or inside a
// worker process: RunScript, then main, then the bare expression body.
package evaluator

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Evaluator compiles and runs node sources against the restricted
// namespace. Evaluators are safe for concurrent use.
type Evaluator struct {
	opts namespaceOptions
}

// New creates an Evaluator. allowedEnvKeys, if non-nil, restricts which
// process environment variables env.get can observe.
func New(allowedEnvKeys map[string]bool) *Evaluator {
	return &Evaluator{opts: namespaceOptions{allowedEnvKeys: allowedEnvKeys}}
}

// Run parses and evaluates a node's source text against input, returning
// whatever the dispatched callable returns. Any failure (malformed header,
// compile error, runtime panic inside the expression) is returned as an
// error rather than propagated as a panic, mirroring the contract that
// evaluation failures are local to the vertex.
func (e *Evaluator) Run(source string, input interface{}) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("evaluator: panic during evaluation: %v", r)
		}
	}()

	src, err := Parse(source)
	if err != nil {
		return nil, err
	}
	if src.Body == "" {
		return nil, ErrNoCallable
	}

	env := baseNamespace(e.opts)
	env["input_data"] = input
	bindArgs(src, input, env)

	program, err := expr.Compile(src.Body, expr.Env(env))
	if err != nil {
		return nil, fmt.Errorf("evaluator: compiling node source: %w", err)
	}
	return runProgram(program, env)
}

func runProgram(program *vm.Program, env map[string]interface{}) (interface{}, error) {
	out, err := expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("evaluator: evaluating node source: %w", err)
	}
	return out, nil
}

// bindArgs implements the call convention of the sandboxed evaluator:
// RunScript always binds from a keyword mapping (falling back to binding
// the whole input to the first declared parameter when the input is not a
// mapping); any other dispatch mode binds by name only when arity exceeds
// one and the input is a mapping, otherwise binds the raw input to the
// first parameter.
func bindArgs(src *Source, input interface{}, env map[string]interface{}) {
	if len(src.Params) == 0 {
		return
	}

	mapping, isMap := input.(map[string]interface{})

	if src.Mode == ModeScript {
		if isMap {
			bindByName(src.Params, mapping, env)
			return
		}
		env[src.Params[0].Name] = input
		return
	}

	if isMap && len(src.Params) > 1 {
		bindByName(src.Params, mapping, env)
		return
	}
	env[src.Params[0].Name] = input
}

func bindByName(params []Param, mapping map[string]interface{}, env map[string]interface{}) {
	for _, p := range params {
		if v, ok := mapping[p.Name]; ok {
			env[p.Name] = v
		} else if p.HasDefault {
			env[p.Name] = p.Default
		}
		// A required parameter absent from the mapping is left unbound;
		// referencing it inside the body surfaces as an evaluation error,
		// matching the contract that unbound required params are the
		// callee's problem to raise on.
	}
}

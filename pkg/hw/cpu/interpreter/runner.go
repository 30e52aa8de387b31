// Package interpreter provides an automatic interpreter for LC-2K machine code.
//
// # Runner - High-Level Program Execution
//
// This file provides a high-level API to execute a program image to
// completion, so that CLI tools can focus on user interaction.
//
// The typical execution flow is:
//
//  1. Create a Runner with NewRunner(image)
//  2. Execute with runner.Run(maxSteps) or runner.RunWithTrace(maxSteps, callback)
//  3. Inspect runner.Summary() or runner.Interpreter()
package interpreter

// Runner wraps the Interpreter and Debugger to run whole programs
type Runner struct {
	interp *Interpreter
	dbg    *Debugger
	result *ExecutionResult
}

// NewRunner creates a runner with the image loaded at address 0
func NewRunner(image []uint32, opts ...Option) (*Runner, error) {
	interp, err := New(image, opts...)
	if err != nil {
		return nil, err
	}

	return &Runner{
		interp: interp,
		dbg:    NewDebugger(interp),
	}, nil
}

func (r *Runner) Interpreter() *Interpreter {
	return r.interp
}

// Debugger returns the underlying debugger for advanced usage
func (r *Runner) Debugger() *Debugger {
	return r.dbg
}

// Run executes the program until it halts or faults.
// maxSteps limits the number of instructions (0 = unlimited).
func (r *Runner) Run(maxSteps int) *ExecutionResult {
	r.result = r.dbg.Run(maxSteps)
	return r.result
}

// Result returns the result of the last execution, or nil if not run yet
func (r *Runner) Result() *ExecutionResult {
	return r.result
}

// Summary summarizes the last execution
func (r *Runner) Summary() *ExecutionSummary {
	return Summarize(r.interp, r.result)
}

// TraceCallback is called after each executed instruction with the step
// number (starting at 0) and the executed instruction.
// Return true to continue execution, false to stop.
type TraceCallback func(step int, executed Disassembled, state *CPUState) bool

// RunWithTrace executes with per-instruction callbacks for tracing.
// maxSteps limits the number of instructions (0 = unlimited).
func (r *Runner) RunWithTrace(maxSteps int, callback TraceCallback) *ExecutionResult {
	step := 0

	r.dbg.SetEventCallback(func(event ExecutionEvent, result *ExecutionResult) bool {
		if event != EventStep {
			return true
		}

		executed := Disassembled{
			Address:     result.LastPC,
			Word:        result.LastWord,
			Instruction: result.LastInstruction,
		}

		cont := callback(step, executed, r.interp.state)
		step++
		return cont
	})
	defer r.dbg.SetEventCallback(nil)

	r.result = r.dbg.Run(maxSteps)
	return r.result
}

// Interrupt stops a running Run or RunWithTrace call. Safe to call from any goroutine.
func (r *Runner) Interrupt() {
	r.dbg.Interrupt()
}

// Package script drives LC-2K debugging sessions from Starlark scripts.
//
// A script sees the following builtins on top of the Starlark language:
//
//	step(n=1)       execute up to n instructions, returns the halted state
//	run(max=0)      run until a stop condition, returns the stop reason
//	reg(i)          value of register i
//	mem(addr)       word at addr
//	mem(addr, n)    list of n words starting at addr
//	pc()            program counter
//	count()         executed instruction count
//	halted()        whether the machine has halted
//	fault()         memory fault message, or None
//	disasm(n=1)     list of n disassembled instructions starting at pc
//	break_at(addr)  set a breakpoint, returns its id
//	watch(addr)     set a watchpoint, returns its id
//	eval(expr)      evaluate a debugger expression ("r1 + [five]")
//	check(cond, msg="")  fail the script if cond is false
//
// Labels of the loaded program are predeclared as integer globals. A label
// named like a builtin is not visible to scripts; the builtin takes
// precedence.
// print() writes to the runner output.
package script

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/Manu343726/lc2k/pkg/hw/cpu/debugger"
	"github.com/Manu343726/lc2k/pkg/hw/cpu/interpreter"
	"github.com/Manu343726/lc2k/pkg/hw/cpu/isa"
	"github.com/Manu343726/lc2k/pkg/utils"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

var (
	ErrCheckFailed = errors.New("check failed")
	ErrArgument    = errors.New("invalid argument")
)

// Runner executes scripts against a debugger backend
type Runner struct {
	backend *debugger.Backend
	out     io.Writer
	logger  *slog.Logger
	thread  atomic.Pointer[starlark.Thread]
}

type Option func(*Runner)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

func NewRunner(backend *debugger.Backend, out io.Writer, opts ...Option) *Runner {
	r := &Runner{
		backend: backend,
		out:     out,
		logger:  slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// ExecFile runs the script at path
func (r *Runner) ExecFile(path string) error {
	return r.Exec(path, nil)
}

// Exec runs a script. src may be a string, a []byte, an io.Reader or nil, in
// which case the script is read from filename.
func (r *Runner) Exec(filename string, src any) error {
	thread := &starlark.Thread{
		Name: filename,
		Print: func(_ *starlark.Thread, msg string) {
			fmt.Fprintln(r.out, msg)
		},
	}
	r.thread.Store(thread)
	defer r.thread.Store(nil)

	r.logger.Debug("running script", "file", filename)
	_, err := starlark.ExecFileOptions(&syntax.FileOptions{}, thread, filename, src, r.globals())
	if err != nil {
		r.logger.Warn("script failed", "file", filename, "error", err)
	}
	return err
}

// Interrupt cancels the running script and any run() in progress. Safe to
// call from another goroutine.
func (r *Runner) Interrupt() {
	r.backend.Interrupt()
	if thread := r.thread.Load(); thread != nil {
		thread.Cancel("interrupted")
	}
}

func (r *Runner) globals() starlark.StringDict {
	builtins := map[string]func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error){
		"step":     r.step,
		"run":      r.run,
		"reg":      r.reg,
		"mem":      r.mem,
		"pc":       r.pc,
		"count":    r.count,
		"halted":   r.halted,
		"fault":    r.fault,
		"disasm":   r.disasm,
		"break_at": r.breakAt,
		"watch":    r.watch,
		"eval":     r.eval,
		"check":    r.check,
	}

	globals := starlark.StringDict{}
	for name, fn := range builtins {
		globals[name] = starlark.NewBuiltin(name, fn)
	}

	for _, name := range r.backend.Labels() {
		if _, isBuiltin := builtins[name]; isBuiltin {
			r.logger.Warn("label shadowed by script builtin", "label", name)
			continue
		}

		addr, _ := r.backend.ResolveSymbol(name)
		globals[name] = starlark.MakeUint(uint(addr))
	}

	return globals
}

// Unpacks a memory address argument
func address(b *starlark.Builtin, value int) (uint32, error) {
	if value < 0 || value >= interpreter.MemorySize {
		return 0, utils.MakeError(ErrArgument, "%s: address %d out of range", b.Name(), value)
	}
	return uint32(value), nil
}

func (r *Runner) step(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	n := 1
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "n?", &n); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, utils.MakeError(ErrArgument, "%s: negative count %d", b.Name(), n)
	}

	halted, err := r.backend.Step(n)
	if err != nil {
		return nil, err
	}
	return starlark.Bool(halted), nil
}

func (r *Runner) run(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	maxSteps := 0
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "max?", &maxSteps); err != nil {
		return nil, err
	}
	if maxSteps < 0 {
		return nil, utils.MakeError(ErrArgument, "%s: negative step limit %d", b.Name(), maxSteps)
	}

	result := r.backend.Run(maxSteps)
	r.logger.Debug("script run", "stop", result.StopReason.String(), "steps", result.StepsExecuted, "pc", r.backend.PC())
	return starlark.String(result.StopReason.String()), nil
}

func (r *Runner) reg(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var index int
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &index); err != nil {
		return nil, err
	}
	if index < 0 || index >= isa.TotalRegisters {
		return nil, utils.MakeError(interpreter.ErrInvalidRegister, "%s: r%d", b.Name(), index)
	}

	value, err := r.backend.Interpreter().ReadRegister(isa.Register(index))
	if err != nil {
		return nil, err
	}
	return starlark.MakeUint(uint(value)), nil
}

func (r *Runner) mem(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var addrArg int
	var count starlark.Value = starlark.None
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "addr", &addrArg, "n?", &count); err != nil {
		return nil, err
	}

	addr, err := address(b, addrArg)
	if err != nil {
		return nil, err
	}

	if count == starlark.None {
		words, err := r.backend.ReadMemory(addr, 1)
		if err != nil {
			return nil, err
		}
		return starlark.MakeUint(uint(words[0])), nil
	}

	n, err := starlark.AsInt32(count)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}

	words, err := r.backend.ReadMemory(addr, n)
	if err != nil {
		return nil, err
	}

	values := make([]starlark.Value, len(words))
	for i, word := range words {
		values[i] = starlark.MakeUint(uint(word))
	}
	return starlark.NewList(values), nil
}

func (r *Runner) pc(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	return starlark.MakeUint(uint(r.backend.PC())), nil
}

func (r *Runner) count(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	return starlark.MakeUint64(r.backend.InstructionCount()), nil
}

func (r *Runner) halted(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	return starlark.Bool(r.backend.Halted()), nil
}

func (r *Runner) fault(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	if err := r.backend.Interpreter().Fault(); err != nil {
		return starlark.String(err.Error()), nil
	}
	return starlark.None, nil
}

func (r *Runner) disasm(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	n := 1
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "n?", &n); err != nil {
		return nil, err
	}

	listing := r.backend.PeekInstructions(n)
	values := make([]starlark.Value, len(listing))
	for i, info := range listing {
		values[i] = starlark.String(info.Text())
	}
	return starlark.NewList(values), nil
}

func (r *Runner) breakAt(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var addrArg int
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &addrArg); err != nil {
		return nil, err
	}

	addr, err := address(b, addrArg)
	if err != nil {
		return nil, err
	}

	bp, err := r.backend.AddBreakpoint(addr)
	if err != nil {
		return nil, err
	}
	return starlark.MakeInt(bp.ID), nil
}

func (r *Runner) watch(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var addrArg int
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &addrArg); err != nil {
		return nil, err
	}

	addr, err := address(b, addrArg)
	if err != nil {
		return nil, err
	}

	wp, err := r.backend.AddWatchpoint(addr)
	if err != nil {
		return nil, err
	}
	return starlark.MakeInt(wp.ID), nil
}

func (r *Runner) eval(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var expr string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &expr); err != nil {
		return nil, err
	}

	result, err := r.backend.Evaluate(expr)
	if err != nil {
		return nil, err
	}
	return starlark.MakeUint(uint(result.Value)), nil
}

func (r *Runner) check(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var cond starlark.Value
	msg := ""
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "cond", &cond, "msg?", &msg); err != nil {
		return nil, err
	}

	if !cond.Truth() {
		if msg == "" {
			return nil, ErrCheckFailed
		}
		return nil, utils.MakeError(ErrCheckFailed, "%s", msg)
	}
	return starlark.None, nil
}

package script

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/Manu343726/lc2k/pkg/hw/cpu/asm"
	"github.com/Manu343726/lc2k/pkg/hw/cpu/debugger"
	"github.com/Manu343726/lc2k/pkg/hw/cpu/interpreter"
	"github.com/Manu343726/lc2k/pkg/hw/cpu/isa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sum = `
        lw      0       1       a
        lw      0       2       b
        add     1       2       3
        sw      0       3       res
        halt
a       .fill   30
b       .fill   12
res     .fill   0
`

func newRunner(t *testing.T, source string) (*Runner, *bytes.Buffer) {
	t.Helper()

	program, err := asm.AssembleString(source)
	require.NoError(t, err)

	interp, err := interpreter.New(program.Words)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	backend := debugger.NewBackend(interpreter.NewDebugger(interp), program.Labels)
	return NewRunner(backend, out), out
}

func TestRunner_Builtins(t *testing.T) {
	r, out := newRunner(t, sum)

	err := r.Exec("test.star", `
check(pc() == 0)
check(not halted())
check(disasm(2) == ["0: lw 0 1 5 : r1 <- mem[r0 + 5]", "1: lw 0 2 6 : r2 <- mem[r0 + 6]"])

check(step() == False)
check(reg(1) == 30, "r1 should hold a")
check(step(n = 2) == False)
check(reg(3) == 42)

check(mem(res) == 0)
check(mem(a, 3) == [30, 12, 0])
check(eval("[a] + [b]") == 42)

check(step(10))
check(halted())
check(count() == 5)
check(mem(res) == 42)
check(fault() == None)
print("sum", mem(res))
`)
	require.NoError(t, err)
	assert.Equal(t, "sum 42\n", out.String())
}

func TestRunner_RunAndBreakpoints(t *testing.T) {
	r, _ := newRunner(t, sum)

	err := r.Exec("test.star", `
id = break_at(3)
check(id == 1)
check(run() == "breakpoint")
check(pc() == 3)

w = watch(res)
check(w == 2)
check(run() == "watchpoint")
check(mem(res) == 42)
check(run() == "halt")
`)
	require.NoError(t, err)
}

func TestRunner_StepLimit(t *testing.T) {
	r, _ := newRunner(t, sum)
	require.NoError(t, r.Exec("test.star", `check(run(max = 2) == "max_steps" and pc() == 2)`))
}

func TestRunner_Failures(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		contains string
	}{
		{"failed check", `check(reg(1) == 1, "r1 is not one")`, "check failed: r1 is not one"},
		{"failed check without message", `check(False)`, "check failed"},
		{"bad register", `reg(8)`, "invalid register"},
		{"bad address", `mem(70000)`, "out of range"},
		{"negative count", `step(-1)`, "negative count"},
		{"syntax error", `step(`, "test.star:1"},
		{"unknown expression symbol", `eval("nowhere")`, "unknown symbol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newRunner(t, sum)
			err := r.Exec("test.star", tt.script)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestRunner_Fault(t *testing.T) {
	interp, err := interpreter.New(isa.Program(isa.Sw(0, 0, -1)))
	require.NoError(t, err)
	r := NewRunner(debugger.NewBackend(interpreter.NewDebugger(interp), nil), &bytes.Buffer{})

	require.NoError(t, r.Exec("run.star", `check(run() == "fault" and fault() != None and halted())`))

	interp, err = interpreter.New(isa.Program(isa.Sw(0, 0, -1)))
	require.NoError(t, err)
	r = NewRunner(debugger.NewBackend(interpreter.NewDebugger(interp), nil), &bytes.Buffer{})

	err = r.Exec("step.star", `step()`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memory fault")
}

func TestRunner_ExecFile(t *testing.T) {
	r, out := newRunner(t, sum)

	path := filepath.Join(t.TempDir(), "script.star")
	require.NoError(t, os.WriteFile(path, []byte("step(5)\nprint(reg(3), count())\n"), 0o644))

	require.NoError(t, r.ExecFile(path))
	assert.Equal(t, "42 5\n", out.String())
}

func TestRunner_LabelsNamedLikeBuiltins(t *testing.T) {
	program, err := asm.AssembleString(`
        lw      0       1       pc
        halt
pc      .fill   7
data    .fill   9
`)
	require.NoError(t, err)

	interp, err := interpreter.New(program.Words)
	require.NoError(t, err)

	logs := &bytes.Buffer{}
	backend := debugger.NewBackend(interpreter.NewDebugger(interp), program.Labels)
	r := NewRunner(backend, &bytes.Buffer{}, WithLogger(slog.New(slog.NewTextHandler(logs, nil))))

	err = r.Exec("test.star", `
check(type(pc) == "builtin_function_or_method")
check(pc() == 0)
check(data == 3)
`)
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "label shadowed by script builtin")
	assert.Contains(t, logs.String(), "label=pc")
}

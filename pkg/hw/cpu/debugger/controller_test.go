package debugger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Manu343726/lc2k/pkg/hw/cpu/asm"
	"github.com/Manu343726/lc2k/pkg/hw/cpu/interpreter"
	"github.com/Manu343726/lc2k/pkg/hw/cpu/isa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Loads 30 and 12, stores their sum at address 7
func sumProgram() []uint32 {
	image := isa.Program(
		isa.Lw(0, 1, 5),
		isa.Lw(0, 2, 6),
		isa.Add(1, 2, 3),
		isa.Sw(0, 3, 7),
		isa.Halt(),
	)
	return append(image, 30, 12, 0)
}

type session struct {
	*Controller
	out *bytes.Buffer
}

func newSession(t *testing.T, image []uint32, labels map[string]uint32) *session {
	t.Helper()

	interp, err := interpreter.New(image)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	backend := NewBackend(interpreter.NewDebugger(interp), labels)
	return &session{
		Controller: NewController(backend, NewTextUI(out, interpreter.StylePlain)),
		out:        out,
	}
}

// Runs a command and returns what it printed
func (s *session) run(t *testing.T, line string) string {
	t.Helper()
	s.out.Reset()
	require.NoError(t, s.Execute(line), line)
	return s.out.String()
}

func TestController_InspectionCommands(t *testing.T) {
	s := newSession(t, sumProgram(), nil)

	assert.Equal(t, "R0: 0\nR1: 0\nR2: 0\nR3: 0\nR4: 0\nR5: 0\nR6: 0\nR7: 0\n", s.run(t, "regs"))
	assert.Equal(t, "0\n", s.run(t, "pc"))
	assert.Equal(t, "0\n", s.run(t, "count"))
	assert.Equal(t, "00810005 \n", s.run(t, "mem"))
	assert.Equal(t, "0000001E 0000000C 00000000 \n", s.run(t, "m 5 3"))
	assert.Equal(t, "0000001E \n", s.run(t, "mem 0x5"))
	assert.Equal(t, "0: lw 0 1 5 : r1 <- mem[r0 + 5]\n", s.run(t, "ins"))
	assert.Equal(t, "0: lw 0 1 5 : r1 <- mem[r0 + 5]\n1: lw 0 2 6 : r2 <- mem[r0 + 6]\n", s.run(t, "i 2"))
}

func TestController_Step(t *testing.T) {
	s := newSession(t, sumProgram(), nil)

	assert.Empty(t, s.run(t, "step"))
	assert.Empty(t, s.run(t, "s 2"))
	assert.Equal(t, "3\n", s.run(t, "p"))

	regs := s.run(t, "r")
	assert.Contains(t, regs, "R1: 30\n")
	assert.Contains(t, regs, "R2: 12\n")
	assert.Contains(t, regs, "R3: 42\n")

	assert.Equal(t, "Program has halted\n", s.run(t, "step 10"))
	assert.Equal(t, "5\n", s.run(t, "count"))
	assert.Equal(t, "5\n", s.run(t, "pc"))
	assert.Equal(t, "0000002A \n", s.run(t, "mem 7"))

	// Stepping a halted machine changes nothing
	assert.Equal(t, "Program has halted\n", s.run(t, "step"))
	assert.Equal(t, "5\n", s.run(t, "count"))
}

func TestController_EmptyLineRepeatsLastCommand(t *testing.T) {
	s := newSession(t, sumProgram(), nil)

	assert.Empty(t, s.run(t, ""))
	s.run(t, "step")
	s.run(t, "")
	s.run(t, "   ")
	assert.Equal(t, "3\n", s.run(t, "pc"))
}

func TestController_Errors(t *testing.T) {
	s := newSession(t, sumProgram(), nil)

	for _, line := range []string{"bogus", "step x", "step -1", "mem nowhere", "mem 0 many", "ins 1.5", "delete", "delete one", "break", "print", "print 1 +", "dump",
		"step 1 2", "run 1 2", "regs x", "mem 0 1 2", "pc 1", "ins 1 2", "count 1", "delete 1 2", "list x", "dump a b"} {
		t.Run(line, func(t *testing.T) {
			s.out.Reset()
			err := s.Execute(line)
			assert.ErrorIs(t, err, ErrCommandParse)
			assert.Equal(t, err.Error()+"\n", s.out.String())
		})
	}

	t.Run("unrecognized command message", func(t *testing.T) {
		s.out.Reset()
		require.Error(t, s.Execute("jump 4"))
		assert.Equal(t, "Unrecognized command. Use `help` for usage.\n", s.out.String())
	})

	t.Run("memory window out of range", func(t *testing.T) {
		assert.ErrorIs(t, s.Execute("mem 65535 2"), interpreter.ErrOutOfRange)
	})

	t.Run("unknown id", func(t *testing.T) {
		assert.ErrorIs(t, s.Execute("delete 9"), ErrUnknownID)
	})

	// Errors never change the machine or end the session
	assert.False(t, s.Done())
	assert.Equal(t, "0\n", s.run(t, "pc"))
}

func TestController_Fault(t *testing.T) {
	s := newSession(t, isa.Program(isa.Lw(0, 1, -1)), nil)

	s.out.Reset()
	err := s.Execute("step")
	assert.ErrorIs(t, err, interpreter.ErrMemoryFault)
	assert.Equal(t, "Program faulted: "+err.Error()+"\n", s.out.String())

	assert.Equal(t, "0\n", s.run(t, "pc"))
	assert.Equal(t, "0\n", s.run(t, "count"))
	assert.Equal(t, "Program has halted\n", s.run(t, "step"))
}

func TestController_Breakpoints(t *testing.T) {
	s := newSession(t, sumProgram(), nil)

	assert.Equal(t, "No breakpoints or watchpoints\n", s.run(t, "list"))
	assert.Equal(t, "Breakpoint 1 at 3\n", s.run(t, "break 3"))
	assert.Equal(t, "Breakpoint 1 hit at 3\n", s.run(t, "run"))
	assert.Equal(t, "3\n", s.run(t, "pc"))
	assert.Equal(t, "#1 breakpoint at 3 hits=1  sw 0 3 7\n", s.run(t, "l"))

	assert.Equal(t, "Deleted 1\n", s.run(t, "d 1"))
	assert.Equal(t, "Program has halted\n", s.run(t, "run"))
	assert.Equal(t, "5\n", s.run(t, "count"))
}

func TestController_Watchpoints(t *testing.T) {
	s := newSession(t, sumProgram(), nil)

	assert.Equal(t, "Watchpoint 1 at 7\n", s.run(t, "watch 5 + 2"))
	assert.Equal(t, "Watchpoint 1 triggered, pc is 4\n", s.run(t, "run"))
	assert.Equal(t, "#1 watchpoint at 7 hits=1 value=42\n", s.run(t, "list"))
	assert.Equal(t, "Program has halted\n", s.run(t, "run"))
}

func TestController_RunLimit(t *testing.T) {
	s := newSession(t, sumProgram(), nil)

	assert.Equal(t, "Step limit reached after 2 steps\n", s.run(t, "run 2"))
	assert.Equal(t, "2\n", s.run(t, "pc"))
}

func TestController_Print(t *testing.T) {
	s := newSession(t, sumProgram(), nil)
	s.run(t, "step 4")

	assert.Equal(t, "r1 + r2 = 42 (0x0000002A, 0b00000000_00000000_00000000_00101010)\n", s.run(t, "print r1 + r2"))
	assert.Equal(t, "[7] - 43 = -1 (0xFFFFFFFF, 0b11111111_11111111_11111111_11111111)\n", s.run(t, "e [7] - 43"))
}

func TestController_Labels(t *testing.T) {
	program, err := asm.AssembleString(`
        lw      0       1       five
        noop
done    halt
five    .fill   5
`)
	require.NoError(t, err)

	s := newSession(t, program.Words, program.Labels)

	assert.Equal(t, "Breakpoint 1 at 2 <done>\n", s.run(t, "break done"))
	assert.Equal(t, "Breakpoint 1 hit at 2\n", s.run(t, "run"))
	assert.Equal(t, "done:\n2: halt : halt the machine\n", s.run(t, "ins"))
	assert.Equal(t, "five = 3 (0x00000003, 0b00000000_00000000_00000000_00000011)\n", s.run(t, "print five"))
	assert.Equal(t, "00000005 \n", s.run(t, "mem five"))
}

func TestController_Dump(t *testing.T) {
	s := newSession(t, sumProgram(), nil)
	s.run(t, "step 5")

	path := filepath.Join(t.TempDir(), "state.yaml")
	assert.Equal(t, "State written to "+path+"\n", s.run(t, "dump "+path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	snapshot, err := interpreter.ReadSnapshot(f)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 30, 12, 42, 0, 0, 0, 0}, snapshot.Registers)
	assert.True(t, snapshot.Halted)
	assert.Equal(t, uint64(5), snapshot.InstructionCount)
}

func TestController_HelpAndQuit(t *testing.T) {
	s := newSession(t, sumProgram(), nil)

	help := s.run(t, "help")
	assert.Contains(t, help, "h|help           -> show this help message\n")
	assert.Contains(t, help, "s|step `n`       -> step program forward `n` steps (default: 1)\n")
	assert.Contains(t, help, "r|regs           -> show current register values\n")
	assert.Contains(t, help, "p|pc             -> display current program counter\n")
	assert.Contains(t, help, "q|quit           -> close debugger\n")
	assert.Len(t, s.Commands(), 15)

	assert.Empty(t, s.run(t, "q"))
	assert.True(t, s.Done())
}

func TestBackend_Registers(t *testing.T) {
	interp, err := interpreter.New(sumProgram())
	require.NoError(t, err)
	backend := NewBackend(interpreter.NewDebugger(interp), map[string]uint32{"b": 4, "a": 4, "c": 1})

	_, err = backend.Step(3)
	require.NoError(t, err)

	value, err := backend.ReadRegister("r3")
	require.NoError(t, err)
	assert.Equal(t, uint32(42), value)

	value, err = backend.ReadRegister("pc")
	require.NoError(t, err)
	assert.Equal(t, uint32(3), value)

	_, err = backend.ReadRegister("r8")
	assert.ErrorIs(t, err, interpreter.ErrInvalidRegister)

	regs := backend.Registers()
	require.Len(t, regs, isa.TotalRegisters)
	assert.Equal(t, RegisterInfo{Name: "r3", Index: 3, Value: 42}, regs[3])

	assert.Equal(t, "a", backend.SymbolAt(4))
	assert.Equal(t, "", backend.SymbolAt(0))
	assert.Equal(t, []string{"c", "a", "b"}, backend.Labels())
}

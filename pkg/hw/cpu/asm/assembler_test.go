package asm

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Manu343726/lc2k/pkg/hw/cpu/isa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const countdown = `# counts r1 down from five
        lw      0       1       five    load five
        lw      0       2       neg1
start   add     1       2       1       decrement r1
        beq     0       1       done
        beq     0       0       start   # loop
done    sw      0       1       result
        halt
five    .fill   5
neg1    .fill   -1
result  .fill   0
addr    .fill   start
`

func TestAssemble(t *testing.T) {
	program, err := AssembleString(countdown)
	require.NoError(t, err)

	assert.Equal(t, map[string]uint32{
		"start":  2,
		"done":   5,
		"five":   7,
		"neg1":   8,
		"result": 9,
		"addr":   10,
	}, program.Labels)

	expected := isa.Program(
		isa.Lw(0, 1, 7),
		isa.Lw(0, 2, 8),
		isa.Add(1, 2, 1),
		isa.Beq(0, 1, 2),
		isa.Beq(0, 0, -2),
		isa.Sw(0, 1, 9),
		isa.Halt(),
	)
	expected = append(expected, 5, 0xFFFFFFFF, 0, 2)

	assert.Equal(t, expected, program.Words)

	require.Len(t, program.Statements, 11)
	assert.Equal(t, 2, program.Statements[0].Line)
	assert.Equal(t, "start", program.Statements[2].Label)
	assert.Equal(t, []string{"1", "2", "1"}, program.Statements[2].Fields)

	label, ok := program.LabelAt(5)
	assert.True(t, ok)
	assert.Equal(t, "done", label)

	_, ok = program.LabelAt(1)
	assert.False(t, ok)
}

func TestAssemble_Syntax(t *testing.T) {
	t.Run("register prefixes and hex numbers", func(t *testing.T) {
		program, err := AssembleString("  LW r0 r1 0x10\n  JALR r4 r7\n  noop\n")
		require.NoError(t, err)
		assert.Equal(t, isa.Program(isa.Lw(0, 1, 16), isa.Jalr(4, 7), isa.Noop()), program.Words)
	})

	t.Run("label on an otherwise empty opcode column", func(t *testing.T) {
		program, err := AssembleString("halt\n")
		require.NoError(t, err)
		assert.Equal(t, isa.Program(isa.Halt()), program.Words)
		assert.Empty(t, program.Labels)
	})

	t.Run("fill range", func(t *testing.T) {
		program, err := AssembleString("  .fill 4294967295\n  .fill -2147483648\n")
		require.NoError(t, err)
		assert.Equal(t, []uint32{0xFFFFFFFF, 0x80000000}, program.Words)
	})

	t.Run("empty source", func(t *testing.T) {
		program, err := AssembleString("\n# nothing\n\n")
		require.NoError(t, err)
		assert.Empty(t, program.Words)
	})
}

func TestAssemble_Errors(t *testing.T) {
	cases := []struct {
		name   string
		source string
		err    error
		line   int
	}{
		{"undefined label", "  beq 0 0 nowhere\n", ErrUndefinedLabel, 1},
		{"duplicate label", "a halt\na noop\n", ErrDuplicateLabel, 2},
		{"label too long", "toolong halt\n", ErrBadLabel, 1},
		{"label starting with digit", "1abc halt\n", ErrBadLabel, 1},
		{"unknown opcode", "  mul 1 2 3\n", ErrBadOpcode, 1},
		{"label alone", "  noop\nlonely\n", ErrBadOpcode, 2},
		{"missing fields", "  add 1 2\n", ErrBadOperand, 1},
		{"bad register", "  add 1 2 8\n", ErrBadOperand, 1},
		{"bad number", "  lw 0 1 12x\n", ErrBadOperand, 1},
		{"offset too big", "  lw 0 1 32768\n", ErrOffsetRange, 1},
		{"offset too small", "  sw 0 1 -32769\n", ErrOffsetRange, 1},
		{"fill too big", "  .fill 4294967296\n", ErrOffsetRange, 1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := AssembleString(c.source)
			require.ErrorIs(t, err, c.err)

			var syntaxErr *SyntaxError
			require.True(t, errors.As(err, &syntaxErr))
			assert.Equal(t, c.line, syntaxErr.Line)
			assert.Equal(t, "<input>", syntaxErr.File)
		})
	}
}

func TestAssembleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "countdown.as")
	require.NoError(t, os.WriteFile(path, []byte(countdown), 0o644))

	program, err := AssembleFile(path)
	require.NoError(t, err)
	assert.Len(t, program.Words, 11)

	_, err = AssembleFile(filepath.Join(t.TempDir(), "missing.as"))
	assert.Error(t, err)
}

package asm

import (
	"errors"
	"fmt"
)

var (
	ErrUndefinedLabel = errors.New("undefined label")
	ErrDuplicateLabel = errors.New("duplicate label")
	ErrBadLabel       = errors.New("invalid label")
	ErrBadOpcode      = errors.New("unknown opcode")
	ErrBadOperand     = errors.New("invalid operand")
	ErrOffsetRange    = errors.New("offset out of range")
	ErrProgramTooLong = errors.New("program too long")
)

// SyntaxError reports an assembly error at a given source line
type SyntaxError struct {
	File string
	Line int
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

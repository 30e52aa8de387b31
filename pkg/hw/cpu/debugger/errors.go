package debugger

import (
	"errors"
	"fmt"
)

var (
	// Unknown command, or malformed or missing argument
	ErrCommandParse = errors.New("command parse error")
	ErrEval         = errors.New("expression error")
	ErrUnknownID    = errors.New("no breakpoint or watchpoint with that id")
	ErrUnknownLabel = errors.New("unknown symbol")
)

// CommandError reports a command that could not be parsed. It matches
// ErrCommandParse with errors.Is. The session is expected to continue.
type CommandError struct {
	Command string
	Message string
	Err     error
}

func (e *CommandError) Error() string {
	switch {
	case e.Command == "":
		return e.Message
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Command, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Command, e.Message)
	}
}

func (e *CommandError) Is(target error) bool {
	return target == ErrCommandParse
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func unrecognizedCommand() *CommandError {
	return &CommandError{Message: "Unrecognized command. Use `help` for usage."}
}

func badArgument(command, format string, args ...any) *CommandError {
	return &CommandError{Command: command, Message: fmt.Sprintf(format, args...)}
}

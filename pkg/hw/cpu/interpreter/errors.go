package interpreter

import (
	"errors"
	"fmt"
)

var (
	ErrImageTooLarge   = errors.New("image too large")
	ErrMemoryFault     = errors.New("memory fault")
	ErrOutOfRange      = errors.New("out of range")
	ErrInvalidRegister = errors.New("invalid register")
)

// Kind of memory access that caused a fault
type AccessKind int

const (
	AccessFetch AccessKind = iota
	AccessLoad
	AccessStore
)

func (k AccessKind) String() string {
	switch k {
	case AccessFetch:
		return "fetch"
	case AccessLoad:
		return "load"
	case AccessStore:
		return "store"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// MemoryFault is returned when an instruction fetch, load or store resolves
// to an address outside of the machine memory. It matches ErrMemoryFault
// with errors.Is.
type MemoryFault struct {
	Access  AccessKind
	Address uint32
	// Address of the faulting instruction
	PC uint32
}

func (f *MemoryFault) Error() string {
	return fmt.Sprintf("%v: %v at address %d (0x%08X) by instruction at pc %d", ErrMemoryFault, f.Access, f.Address, f.Address, f.PC)
}

func (f *MemoryFault) Unwrap() error {
	return ErrMemoryFault
}

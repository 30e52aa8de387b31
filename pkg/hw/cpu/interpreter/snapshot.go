package interpreter

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Snapshot is a read-only dump of the machine state, meant to be inspected by
// humans or compared by tests. Memory is stored as runs of non-zero words.
type Snapshot struct {
	PC               uint32        `yaml:"pc"`
	Halted           bool          `yaml:"halted"`
	InstructionCount uint64        `yaml:"instruction_count"`
	Fault            string        `yaml:"fault,omitempty"`
	Registers        []uint32      `yaml:"registers,flow"`
	Memory           []MemoryBlock `yaml:"memory,omitempty"`
}

// A run of consecutive non-zero memory words
type MemoryBlock struct {
	Address uint32   `yaml:"address"`
	Words   []uint32 `yaml:"words,flow"`
}

// Snapshot captures the current machine state
func (i *Interpreter) Snapshot() *Snapshot {
	s := i.state
	snapshot := &Snapshot{
		PC:               s.PC,
		Halted:           s.Halted,
		InstructionCount: s.InstructionCount,
		Registers:        append([]uint32(nil), s.Registers[:]...),
	}

	if s.Fault != nil {
		snapshot.Fault = s.Fault.Error()
	}

	var block *MemoryBlock
	for addr, word := range s.Memory {
		if word == 0 {
			block = nil
			continue
		}
		if block == nil {
			snapshot.Memory = append(snapshot.Memory, MemoryBlock{Address: uint32(addr)})
			block = &snapshot.Memory[len(snapshot.Memory)-1]
		}
		block.Words = append(block.Words, word)
	}

	return snapshot
}

// WriteYAML writes the snapshot as a YAML document
func (s *Snapshot) WriteYAML(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	if err := encoder.Encode(s); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	return encoder.Close()
}

// ReadSnapshot parses a YAML snapshot
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	snapshot := &Snapshot{}
	if err := yaml.NewDecoder(r).Decode(snapshot); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return snapshot, nil
}

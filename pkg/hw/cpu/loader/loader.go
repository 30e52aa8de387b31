// Package loader provides high-level APIs for loading LC-2K programs.
//
// It abstracts the details of the supported file formats and returns a
// program image ready to be loaded into an interpreter:
//
//   - Machine code images (.mc and any other extension): one signed decimal
//     integer per line, truncated to 32 bits. The first line that is not a
//     number ends the image.
//   - Assembly sources (.as, .s, .asm): assembled with the asm package. The
//     result keeps the label table for symbolic debugging.
//
// Typical usage:
//
//	result, err := loader.LoadFile("program.as")
//	if err != nil { ... }
//	interp, err := interpreter.New(result.Image)
package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Manu343726/lc2k/pkg/hw/cpu/asm"
	"github.com/Manu343726/lc2k/pkg/hw/cpu/interpreter"
	"github.com/Manu343726/lc2k/pkg/utils"
)

// FileFormat represents the type of program file
type FileFormat int

const (
	// FormatImage indicates a machine code image (.mc)
	FormatImage FileFormat = iota
	// FormatAssembly indicates an assembly source (.as, .s, .asm)
	FormatAssembly
)

func (f FileFormat) String() string {
	switch f {
	case FormatImage:
		return "image"
	case FormatAssembly:
		return "assembly"
	default:
		return "unknown"
	}
}

// Result contains the result of a load operation
type Result struct {
	// Image to load at address 0
	Image []uint32

	// Path is the file path provided
	Path string

	// Format is the detected file format
	Format FileFormat

	// Labels defined by the source, empty for machine code images
	Labels map[string]uint32

	// Assembled program, nil for machine code images
	Program *asm.Program
}

// DetectFormat returns the file format implied by the file extension
func DetectFormat(path string) FileFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".as", ".s", ".asm":
		return FormatAssembly
	default:
		return FormatImage
	}
}

// LoadFile loads a program file from the given path, detecting its format
// by extension
func LoadFile(path string) (*Result, error) {
	result := &Result{
		Path:   path,
		Format: DetectFormat(path),
		Labels: map[string]uint32{},
	}

	switch result.Format {
	case FormatAssembly:
		program, err := asm.AssembleFile(path)
		if err != nil {
			return nil, fmt.Errorf("assembling %s: %w", path, err)
		}
		result.Program = program
		result.Image = program.Words
		result.Labels = program.Labels
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()

		image, err := ParseImage(f)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		result.Image = image
	}

	if len(result.Image) > interpreter.MemorySize {
		return nil, utils.MakeError(interpreter.ErrImageTooLarge, "%s has %d words, memory holds %d", path, len(result.Image), interpreter.MemorySize)
	}

	return result, nil
}

// ParseImage reads a machine code image: one signed integer per line,
// optionally followed by blanks. The first line that does not parse ends the
// image.
func ParseImage(r io.Reader) ([]uint32, error) {
	var image []uint32

	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			value, parseErr := strconv.ParseInt(strings.TrimRight(line, " \t\r\n"), 10, 64)
			if parseErr != nil {
				return image, nil
			}
			image = append(image, uint32(value))
		}

		if errors.Is(err, io.EOF) {
			return image, nil
		}
		if err != nil {
			return nil, fmt.Errorf("error reading image: %w", err)
		}
	}
}

// WriteImage writes an image in the format read by ParseImage. Words are
// written as signed 32 bit integers.
func WriteImage(w io.Writer, image []uint32) error {
	buffered := bufio.NewWriter(w)

	for _, word := range image {
		if _, err := fmt.Fprintln(buffered, int32(word)); err != nil {
			return err
		}
	}

	return buffered.Flush()
}

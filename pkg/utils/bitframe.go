package utils

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidFrame     = errors.New("invalid bit frame")
	ErrOverlappingField = errors.New("overlapping bit field")
)

type BitField struct {
	// Name of the field
	Name string

	// First (least significant) bit of the field
	Begin int

	// Field width in bits
	Width int
}

// The most significant bit used by this field
func (f BitField) TopBit() int {
	return f.Begin + f.Width - 1
}

// Sorts the fields from the least significant one and fills the gaps between them
// with "(unused)" fields so that the whole frame is covered
func fillBitFrameGaps(fields []BitField, frameWidth int) ([]BitField, error) {
	sorted := append([]BitField(nil), fields...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Begin < sorted[j].Begin })

	result := make([]BitField, 0, len(sorted)+1)
	current := 0

	for _, field := range sorted {
		if field.Width <= 0 || field.Begin < 0 || field.TopBit() >= frameWidth {
			return nil, MakeError(ErrInvalidFrame, "field %q [%v, %v] does not fit a %v bits frame", field.Name, field.Begin, field.TopBit(), frameWidth)
		}
		if field.Begin < current {
			return nil, MakeError(ErrOverlappingField, "field %q starts at bit %v but bit %v is already used", field.Name, field.Begin, current-1)
		}
		if field.Begin > current {
			result = append(result, BitField{Name: "(unused)", Begin: current, Width: field.Begin - current})
		}

		result = append(result, field)
		current = field.Begin + field.Width
	}

	if current < frameWidth {
		result = append(result, BitField{Name: "(unused)", Begin: current, Width: frameWidth - current})
	}

	return result, nil
}

// Draws an ascii diagram of a binary word made of contiguous bit fields, most
// significant bits on the left:
//
//	24       21         0
//	+--------+----------+
//	| opcode | (unused) |
//	+--------+----------+
func BitFrame(fields []BitField, frameWidth int, leftpad int) (string, error) {
	if frameWidth <= 0 {
		return "", MakeError(ErrInvalidFrame, "frame width must be positive, got %v", frameWidth)
	}

	all, err := fillBitFrameGaps(fields, frameWidth)
	if err != nil {
		return "", err
	}

	pad := strings.Repeat(" ", leftpad)

	var indices, border, body strings.Builder
	indices.WriteString(pad)
	border.WriteString(pad)
	body.WriteString(pad)

	for i := len(all) - 1; i >= 0; i-- {
		field := all[i]
		index := fmt.Sprint(field.TopBit())
		width := Max([]int{len(field.Name) + 2, len(index) + 1})

		indices.WriteString(index)
		indices.WriteString(strings.Repeat(" ", width+1-len(index)))

		border.WriteString("+")
		border.WriteString(strings.Repeat("-", width))

		left := (width - len(field.Name)) / 2
		body.WriteString("|")
		body.WriteString(strings.Repeat(" ", left))
		body.WriteString(field.Name)
		body.WriteString(strings.Repeat(" ", width-left-len(field.Name)))
	}

	indices.WriteString("0")
	border.WriteString("+")
	body.WriteString("|")

	return strings.Join([]string{indices.String(), border.String(), body.String(), border.String()}, "\n") + "\n", nil
}

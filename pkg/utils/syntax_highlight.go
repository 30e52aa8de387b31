package utils

import (
	"regexp"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// Assembly syntax highlighting colors
var (
	asmMnemonicColor = color.New(color.FgYellow, color.Bold)
	asmRegisterColor = color.New(color.FgGreen)
	asmNumberColor   = color.New(color.FgCyan)
	asmCommentColor  = color.New(color.FgHiBlack)
	asmOperatorColor = color.New(color.FgRed)
	asmLabelColor    = color.New(color.FgHiMagenta)
)

// Patterns for syntax elements
var (
	asmCommentPattern    = regexp.MustCompile(`#.*$`)
	asmRegisterPattern   = regexp.MustCompile(`\b(?:r[0-7]|pc)\b`)
	asmNumberPattern     = regexp.MustCompile(`-?\b(?:0[xX][0-9a-fA-F]+|[0-9]+)\b`)
	asmIdentifierPattern = regexp.MustCompile(`\.?\b[a-zA-Z_][a-zA-Z0-9_]*\b`)
	asmOperatorPattern   = regexp.MustCompile(`<-|==|<<|>>|[+\-*/%&|^~]`)
)

// token represents a syntax-highlighted token
type token struct {
	text  string
	color *color.Color
	start int
	end   int
}

// Highlights assembly text. Identifiers found in Mnemonics are highlighted as
// instructions; identifiers found in Labels are highlighted as symbols.
type AsmHighlighter struct {
	Mnemonics map[string]bool
	Labels    map[string]bool
}

// Applies syntax highlighting to a line of assembly or disassembly text
func (h *AsmHighlighter) Highlight(line string) string {
	if line == "" {
		return ""
	}

	var tokens []token

	add := func(matches [][]int, pick func(text string) *color.Color) {
		for _, match := range matches {
			if overlapsAny(match[0], match[1], tokens) {
				continue
			}
			text := line[match[0]:match[1]]
			if c := pick(text); c != nil {
				tokens = append(tokens, token{text: text, color: c, start: match[0], end: match[1]})
			}
		}
	}

	// Comments first, nothing inside them is highlighted
	add(asmCommentPattern.FindAllStringIndex(line, -1), func(string) *color.Color { return asmCommentColor })
	add(asmRegisterPattern.FindAllStringIndex(line, -1), func(string) *color.Color { return asmRegisterColor })
	add(asmIdentifierPattern.FindAllStringIndex(line, -1), func(word string) *color.Color {
		switch {
		case h.Mnemonics[strings.ToLower(word)]:
			return asmMnemonicColor
		case h.Labels[word]:
			return asmLabelColor
		default:
			return nil
		}
	})
	add(asmNumberPattern.FindAllStringIndex(line, -1), func(string) *color.Color { return asmNumberColor })
	add(asmOperatorPattern.FindAllStringIndex(line, -1), func(string) *color.Color { return asmOperatorColor })

	return buildHighlightedString(line, tokens)
}

// overlapsAny checks if a range overlaps with any existing token
func overlapsAny(start, end int, tokens []token) bool {
	for _, t := range tokens {
		if start < t.end && end > t.start {
			return true
		}
	}
	return false
}

// buildHighlightedString constructs the final string with color codes
func buildHighlightedString(code string, tokens []token) string {
	if len(tokens) == 0 {
		return code
	}

	sort.Slice(tokens, func(i, j int) bool { return tokens[i].start < tokens[j].start })

	var result strings.Builder
	pos := 0

	for _, t := range tokens {
		if t.start > pos {
			result.WriteString(code[pos:t.start])
		}
		result.WriteString(t.color.Sprint(t.text))
		pos = t.end
	}

	if pos < len(code) {
		result.WriteString(code[pos:])
	}

	return result.String()
}

package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Manu343726/lc2k/pkg/utils"
)

// Token types for expression parsing
type TokenType int

const (
	TokenNumber TokenType = iota
	TokenRegister
	TokenSymbol
	TokenPlus
	TokenMinus
	TokenMul
	TokenDiv
	TokenMod
	TokenAnd
	TokenOr
	TokenXor
	TokenNot
	TokenShiftLeft
	TokenShiftRight
	TokenLBracket
	TokenRBracket
	TokenLParen
	TokenRParen
)

// Token represents a lexical token in an expression
type Token struct {
	Type  TokenType
	Value string
	Num   uint32 // For number tokens
}

// EvalContext gives the evaluator access to machine state
type EvalContext interface {
	ReadRegister(name string) (uint32, error)
	ReadMemory(addr uint32, count int) ([]uint32, error)
	ResolveSymbol(name string) (uint32, error)
}

// ExpressionEvaluator evaluates expressions in the context of a debugger
// session. Supported syntax: decimal, 0x hex and 0b binary numbers,
// registers (r0-r7, pc), labels, [addr] memory dereference, parentheses and
// the operators | ^ & << >> + - * / % ~ (C precedence).
type ExpressionEvaluator struct {
	ctx EvalContext
}

func NewExpressionEvaluator(ctx EvalContext) *ExpressionEvaluator {
	return &ExpressionEvaluator{ctx: ctx}
}

func evalError(format string, args ...any) error {
	return utils.MakeError(ErrEval, format, args...)
}

// Eval evaluates an expression string and returns the result
func (e *ExpressionEvaluator) Eval(expr string) (uint32, error) {
	tokens, err := Tokenize(expr)
	if err != nil {
		return 0, err
	}

	if len(tokens) == 0 {
		return 0, evalError("empty expression")
	}

	result, remaining, err := e.parseOr(tokens)
	if err != nil {
		return 0, err
	}

	if len(remaining) > 0 {
		return 0, evalError("unexpected token: %s", remaining[0].Value)
	}

	return result, nil
}

var singleCharTokens = map[byte]TokenType{
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenMul,
	'/': TokenDiv,
	'%': TokenMod,
	'&': TokenAnd,
	'|': TokenOr,
	'^': TokenXor,
	'~': TokenNot,
	'[': TokenLBracket,
	']': TokenRBracket,
	'(': TokenLParen,
	')': TokenRParen,
}

// Tokenize breaks an expression into tokens
func Tokenize(expr string) ([]Token, error) {
	var tokens []Token

	for {
		expr = strings.TrimSpace(expr)
		if len(expr) == 0 {
			break
		}

		if typ, ok := singleCharTokens[expr[0]]; ok {
			tokens = append(tokens, Token{Type: typ, Value: expr[:1]})
			expr = expr[1:]
			continue
		}

		if strings.HasPrefix(expr, "<<") {
			tokens = append(tokens, Token{Type: TokenShiftLeft, Value: "<<"})
			expr = expr[2:]
			continue
		}
		if strings.HasPrefix(expr, ">>") {
			tokens = append(tokens, Token{Type: TokenShiftRight, Value: ">>"})
			expr = expr[2:]
			continue
		}

		if IsDigit(expr[0]) {
			end := 0
			for end < len(expr) && (IsAlphaNum(expr[end]) || expr[end] == '_') {
				end++
			}
			text := expr[:end]
			num, err := strconv.ParseUint(text, 0, 32)
			if err != nil {
				return nil, evalError("invalid number: %s", text)
			}
			tokens = append(tokens, Token{Type: TokenNumber, Value: text, Num: uint32(num)})
			expr = expr[end:]
			continue
		}

		if IsAlpha(expr[0]) || expr[0] == '_' {
			end := 0
			for end < len(expr) && (IsAlphaNum(expr[end]) || expr[end] == '_') {
				end++
			}
			name := expr[:end]

			if IsRegisterName(strings.ToLower(name)) {
				tokens = append(tokens, Token{Type: TokenRegister, Value: strings.ToLower(name)})
			} else {
				tokens = append(tokens, Token{Type: TokenSymbol, Value: name})
			}
			expr = expr[end:]
			continue
		}

		return nil, evalError("unexpected character: %c", expr[0])
	}

	return tokens, nil
}

// Character classification helpers
func IsDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func IsAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func IsAlphaNum(c byte) bool {
	return IsAlpha(c) || IsDigit(c)
}

func IsRegisterName(name string) bool {
	switch name {
	case "r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7", "pc":
		return true
	}
	return false
}

// Recursive descent parser with operator precedence
// Precedence (lowest to highest):
// 1. | (OR)
// 2. ^ (XOR)
// 3. & (AND)
// 4. << >> (shifts)
// 5. + - (add/sub)
// 6. * / % (mul/div/mod)
// 7. unary - ~, []

type binaryLevel struct {
	ops  map[TokenType]func(a, b uint32) (uint32, error)
	next func(e *ExpressionEvaluator, tokens []Token) (uint32, []Token, error)
}

func (e *ExpressionEvaluator) parseLevel(level binaryLevel, tokens []Token) (uint32, []Token, error) {
	left, tokens, err := level.next(e, tokens)
	if err != nil {
		return 0, nil, err
	}

	for len(tokens) > 0 {
		op, ok := level.ops[tokens[0].Type]
		if !ok {
			break
		}

		right, remaining, err := level.next(e, tokens[1:])
		if err != nil {
			return 0, nil, err
		}
		if left, err = op(left, right); err != nil {
			return 0, nil, err
		}
		tokens = remaining
	}

	return left, tokens, nil
}

func (e *ExpressionEvaluator) parseOr(tokens []Token) (uint32, []Token, error) {
	return e.parseLevel(binaryLevel{
		ops:  map[TokenType]func(a, b uint32) (uint32, error){TokenOr: func(a, b uint32) (uint32, error) { return a | b, nil }},
		next: (*ExpressionEvaluator).parseXor,
	}, tokens)
}

func (e *ExpressionEvaluator) parseXor(tokens []Token) (uint32, []Token, error) {
	return e.parseLevel(binaryLevel{
		ops:  map[TokenType]func(a, b uint32) (uint32, error){TokenXor: func(a, b uint32) (uint32, error) { return a ^ b, nil }},
		next: (*ExpressionEvaluator).parseAnd,
	}, tokens)
}

func (e *ExpressionEvaluator) parseAnd(tokens []Token) (uint32, []Token, error) {
	return e.parseLevel(binaryLevel{
		ops:  map[TokenType]func(a, b uint32) (uint32, error){TokenAnd: func(a, b uint32) (uint32, error) { return a & b, nil }},
		next: (*ExpressionEvaluator).parseShift,
	}, tokens)
}

func (e *ExpressionEvaluator) parseShift(tokens []Token) (uint32, []Token, error) {
	return e.parseLevel(binaryLevel{
		ops: map[TokenType]func(a, b uint32) (uint32, error){
			TokenShiftLeft:  func(a, b uint32) (uint32, error) { return a << b, nil },
			TokenShiftRight: func(a, b uint32) (uint32, error) { return a >> b, nil },
		},
		next: (*ExpressionEvaluator).parseAddSub,
	}, tokens)
}

func (e *ExpressionEvaluator) parseAddSub(tokens []Token) (uint32, []Token, error) {
	return e.parseLevel(binaryLevel{
		ops: map[TokenType]func(a, b uint32) (uint32, error){
			TokenPlus:  func(a, b uint32) (uint32, error) { return a + b, nil },
			TokenMinus: func(a, b uint32) (uint32, error) { return a - b, nil },
		},
		next: (*ExpressionEvaluator).parseMulDiv,
	}, tokens)
}

func (e *ExpressionEvaluator) parseMulDiv(tokens []Token) (uint32, []Token, error) {
	return e.parseLevel(binaryLevel{
		ops: map[TokenType]func(a, b uint32) (uint32, error){
			TokenMul: func(a, b uint32) (uint32, error) { return a * b, nil },
			TokenDiv: func(a, b uint32) (uint32, error) {
				if b == 0 {
					return 0, evalError("division by zero")
				}
				return a / b, nil
			},
			TokenMod: func(a, b uint32) (uint32, error) {
				if b == 0 {
					return 0, evalError("modulo by zero")
				}
				return a % b, nil
			},
		},
		next: (*ExpressionEvaluator).parseUnary,
	}, tokens)
}

func (e *ExpressionEvaluator) parseUnary(tokens []Token) (uint32, []Token, error) {
	if len(tokens) == 0 {
		return 0, nil, evalError("unexpected end of expression")
	}

	switch tokens[0].Type {
	case TokenMinus:
		val, remaining, err := e.parseUnary(tokens[1:])
		if err != nil {
			return 0, nil, err
		}
		return uint32(-int32(val)), remaining, nil

	case TokenNot:
		val, remaining, err := e.parseUnary(tokens[1:])
		if err != nil {
			return 0, nil, err
		}
		return ^val, remaining, nil

	case TokenLBracket:
		addr, remaining, err := e.parseOr(tokens[1:])
		if err != nil {
			return 0, nil, err
		}
		if len(remaining) == 0 || remaining[0].Type != TokenRBracket {
			return 0, nil, evalError("expected ']' after memory address")
		}

		words, err := e.ctx.ReadMemory(addr, 1)
		if err != nil {
			return 0, nil, fmt.Errorf("cannot read memory at %d: %w", addr, err)
		}
		return words[0], remaining[1:], nil
	}

	return e.parsePrimary(tokens)
}

func (e *ExpressionEvaluator) parsePrimary(tokens []Token) (uint32, []Token, error) {
	tok := tokens[0]
	tokens = tokens[1:]

	switch tok.Type {
	case TokenNumber:
		return tok.Num, tokens, nil

	case TokenRegister:
		val, err := e.ctx.ReadRegister(tok.Value)
		if err != nil {
			return 0, nil, err
		}
		return val, tokens, nil

	case TokenSymbol:
		val, err := e.ctx.ResolveSymbol(tok.Value)
		if err != nil {
			return 0, nil, err
		}
		return val, tokens, nil

	case TokenLParen:
		val, remaining, err := e.parseOr(tokens)
		if err != nil {
			return 0, nil, err
		}
		if len(remaining) == 0 || remaining[0].Type != TokenRParen {
			return 0, nil, evalError("expected ')' after expression")
		}
		return val, remaining[1:], nil

	default:
		return 0, nil, evalError("unexpected token: %s", tok.Value)
	}
}

// FormatBinary formats a 32-bit value as a binary string with underscore separators
func FormatBinary(val uint32) string {
	s := utils.FormatUintBinary(val, 32)
	return s[0:8] + "_" + s[8:16] + "_" + s[16:24] + "_" + s[24:32]
}

/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package core

import (
	"strings"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/scan"
)

// The infix front end: mark unary minus, expand the marks into
// (0-x), then convert to prefix with an operand stack and an operator
// stack.
//
// The output is a string like "add(2,mult(3,4))" which is itself
// accepted by the same pipeline unchanged.

const unaryMinus = "#"

func isOperator(tok string) bool {
	switch tok {
	case "+", "-", "*", "/", "%", "^", unaryMinus:
		return true
	}
	return false
}

// isFunction reports whether tok is treated as a prefix function by
// the converter.  The comma is the two-argument "function" that
// builds argument lists.
func isFunction(tok string) bool {
	switch tok {
	case ",", "select", "pref":
		return true
	}
	_, have := opcodes[tok]
	return have
}

func priority(tok string) int {
	switch {
	case tok == unaryMinus, tok == "-", tok == "+":
		return 2
	case tok == "*", tok == "/":
		return 3
	case tok == "^":
		return 4
	case tok == ",":
		return 1
	case isFunction(tok):
		return 5
	}
	return 0
}

func expandOperator(op string) string {
	switch op {
	case "+":
		return "add"
	case "-":
		return "sub"
	case "*":
		return "mult"
	case "/":
		return "div"
	case "^":
		return "pow"
	}
	return op
}

// markUnaryMinus replaces each '-' that starts the text or follows an
// operator, '(' or ',' with the sentinel.
func markUnaryMinus(s string) string {
	var (
		b    strings.Builder
		last = true
	)
	for _, tok := range scan.Tokens(s) {
		if last && tok == "-" {
			tok = unaryMinus
		} else {
			last = isOperator(tok) || tok == "(" || tok == ","
		}
		b.WriteString(tok)
	}
	return b.String()
}

// expandMinus rewrites each sentinel into (0-x) where x is the
// operand the sentinel applies to.
func expandMinus(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] != unaryMinus[0] {
			b.WriteByte(s[i])
			i++
			continue
		}
		inner, next, err := unaryOperand(s, i+1)
		if err != nil {
			return "", err
		}
		b.WriteString("(0-" + inner + ")")
		i = next
	}
	return b.String(), nil
}

// unaryOperand returns the expanded operand that starts at pos and
// the position after it.
func unaryOperand(s string, pos int) (string, int, error) {
	if len(s) <= pos {
		return "", 0, parseErr(s, "unary minus at end of string")
	}
	switch s[pos] {
	case unaryMinus[0]:
		inner, next, err := unaryOperand(s, pos+1)
		if err != nil {
			return "", 0, err
		}
		return "(0-" + inner + ")", next, nil
	case '(':
		end := scan.MatchingParen(s, pos)
		if end < 0 {
			return "", 0, parseErr(s, "missing right paren")
		}
		sub, err := expandMinus(s[pos+1 : end])
		if err != nil {
			return "", 0, err
		}
		return "(" + sub + ")", end + 1, nil
	}
	tok := scan.NextToken(s, pos)
	if len(tok) == 1 && scan.IsDelimiter(tok[0]) {
		return "", 0, parseErr(s, "missing operand after unary minus")
	}
	end := pos + len(tok)
	if end < len(s) && s[end] == '(' {
		close := scan.MatchingParen(s, end)
		if close < 0 {
			return "", 0, parseErr(s, "missing right paren")
		}
		args, err := expandMinus(s[end+1 : close])
		if err != nil {
			return "", 0, err
		}
		return tok + "(" + args + ")", close + 1, nil
	}
	return tok, end, nil
}

type prefixer struct {
	text      string
	operands  []string
	operators []string
}

func (p *prefixer) popOperand() (string, error) {
	n := len(p.operands)
	if n == 0 {
		return "", parseErr(p.text, "missing operand")
	}
	x := p.operands[n-1]
	p.operands = p.operands[:n-1]
	return x, nil
}

// reduce pops one operator and combines its operands.
func (p *prefixer) reduce() error {
	n := len(p.operators)
	op := p.operators[n-1]
	p.operators = p.operators[:n-1]

	op1, err := p.popOperand()
	if err != nil {
		return err
	}
	if isFunction(op) && op != "," {
		p.operands = append(p.operands, op+"("+op1+")")
		return nil
	}
	op2, err := p.popOperand()
	if err != nil {
		return err
	}
	if op == "," {
		p.operands = append(p.operands, op2+","+op1)
	} else {
		p.operands = append(p.operands, expandOperator(op)+"("+op2+","+op1+")")
	}
	return nil
}

func (p *prefixer) top() string {
	return p.operators[len(p.operators)-1]
}

// toPrefix converts expanded infix text into prefix form.
//
// A name that is not a known function but is followed by '(' (a
// predicate inside filter(), for example) is carried through as a
// single operand.
func toPrefix(s string) (string, error) {
	p := &prefixer{text: s}
	for pos := 0; pos < len(s); {
		tok := scan.NextToken(s, pos)
		pos += len(tok)
		switch {
		case tok == "(":
			p.operators = append(p.operators, tok)
		case tok == ")":
			for 0 < len(p.operators) && p.top() != "(" {
				if err := p.reduce(); err != nil {
					return "", err
				}
			}
			if len(p.operators) == 0 {
				return "", parseErr(s, "missing left paren")
			}
			p.operators = p.operators[:len(p.operators)-1]
		case tok == "%":
			return "", parseErr(s, "unknown operator '%'")
		case isOperator(tok) || isFunction(tok):
			for 0 < len(p.operators) && priority(tok) <= priority(p.top()) {
				if err := p.reduce(); err != nil {
					return "", err
				}
			}
			p.operators = append(p.operators, tok)
		default:
			if pos < len(s) && s[pos] == '(' {
				close := scan.MatchingParen(s, pos)
				if close < 0 {
					return "", parseErr(s, "missing right paren")
				}
				tok += s[pos : close+1]
				pos = close + 1
			}
			p.operands = append(p.operands, tok)
		}
	}
	for 0 < len(p.operators) {
		if p.top() == "(" {
			return "", parseErr(s, "missing right paren")
		}
		if err := p.reduce(); err != nil {
			return "", err
		}
	}
	switch len(p.operands) {
	case 0:
		return "", parseErr(s, "missing operand")
	case 1:
		return p.operands[0], nil
	}
	return "", parseErr(s, "missing operator")
}

// ToPrefix runs the whole infix front end on expression text.
func ToPrefix(text string) (string, error) {
	s := scan.DeleteSpaces(text)
	if s == "" {
		return "", parseErr(text, "empty expression")
	}
	if err := scan.Balanced(s); err != nil {
		return "", parseErr(text, err.Error())
	}
	expanded, err := expandMinus(markUnaryMinus(s))
	if err != nil {
		return "", err
	}
	return toPrefix(expanded)
}

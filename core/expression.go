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
	"strconv"
	"strings"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/scan"
)

type opcode int

const (
	opNone opcode = iota
	opAdd
	opSub
	opMult
	opDiv
	opDist
	opEqual
	opMin
	opMax
	opUniform
	opNormal
	opLognormal
	opExponential
	opGeometric
	opPow
	opLog
	opExp
	opAbs
	opSin
	opCos
	opPool
	opFilter
	opList
	opValue
	opDistance
)

// Opcodes after lastTwoArgOp may be given a single argument.
const lastTwoArgOp = opLognormal

var opcodes = map[string]opcode{
	"add": opAdd, "sub": opSub, "mult": opMult, "div": opDiv,
	"dist": opDist, "equal": opEqual, "min": opMin, "max": opMax,
	"uniform": opUniform, "normal": opNormal, "lognormal": opLognormal,
	"exponential": opExponential, "geometric": opGeometric,
	"pow": opPow, "log": opLog, "exp": opExp, "abs": opAbs,
	"sin": opSin, "cos": opCos,
	"pool": opPool, "filter": opFilter, "list": opList,
	"value": opValue, "distance": opDistance,
}

// IsKnownFunction reports whether name is an expression function.
func IsKnownFunction(name string) bool {
	_, have := opcodes[name]
	return have
}

type exprKind int

const (
	exprNumber exprKind = iota
	exprFactor
	exprListVar
	exprOp
	exprSelect
	exprValue
	exprDistance
	exprPool
	exprFilter
	exprList
)

// Expression is a compiled arithmetic, statistical, or list-valued
// expression.
//
// An Expression is immutable once CompileExpression returns it.
type Expression struct {
	// Text is the text the Expression was compiled from.
	Text string
	// prefix is the prefix form.
	prefix string

	kind exprKind

	number float64
	factor *Factor

	// list variables
	listVar  int
	global   bool
	useOther bool

	op   opcode
	args []*Expression

	clause     *Clause
	preference *Preference
	pool       []int

	isList bool
}

// String returns the prefix form.
func (e *Expression) String() string {
	return e.prefix
}

// IsList reports whether the Expression is list-valued.
func (e *Expression) IsList() bool {
	return e.isList
}

// CompileExpression parses infix text into an Expression.
//
// The whole text, a filter's clause included, goes through the same
// infix to prefix pass.  A filter comparison that needs arithmetic or
// a unary minus must be written in prefix form, as in
// filter(contacts,gt(other:score,0-1)) rather than
// filter(contacts,other:score>-1).
//
// Errors are *ParseError, *ArgCountError, or *UnknownName.  Use
// IsWarning to check whether an unknown name is only a warning.
func CompileExpression(reg *Registry, text string) (*Expression, error) {
	prefix, err := ToPrefix(text)
	if err != nil {
		return nil, err
	}
	e := &Expression{
		Text:   text,
		prefix: prefix,
	}
	if err := e.parse(reg); err != nil {
		return nil, err
	}
	return e, nil
}

// MustCompileExpression is CompileExpression that panics.
func MustCompileExpression(reg *Registry, text string) *Expression {
	e, err := CompileExpression(reg, text)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Expression) sub(reg *Registry, text string) (*Expression, error) {
	return CompileExpression(reg, text)
}

// scalarArg compiles an argument that must not be list-valued.
func (e *Expression) scalarArg(reg *Registry, text, what string) (*Expression, error) {
	x, err := e.sub(reg, text)
	if err != nil {
		return nil, err
	}
	if x.isList {
		return nil, parseErr(e.prefix, what+" can't be a list")
	}
	return x, nil
}

// splitCall splits "f(args)" into "f" and "args".  ok is false if s
// isn't a call.
func splitCall(s string) (name, inner string, ok bool) {
	i := strings.IndexByte(s, '(')
	if i <= 0 {
		return "", "", false
	}
	if scan.MatchingParen(s, i) != len(s)-1 {
		return "", "", false
	}
	return s[:i], s[i+1 : len(s)-1], true
}

func (e *Expression) parse(reg *Registry) error {
	s := e.prefix

	if scan.IsNumber(s) {
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return parseErr(s, "bad number")
		}
		e.kind, e.number = exprNumber, n
		return nil
	}

	if v, have := SymbolValue(s); have {
		e.kind, e.number = exprNumber, v
		return nil
	}

	if strings.IndexByte(s, '(') < 0 {
		return e.parseLeaf(reg, s)
	}

	name, inner, ok := splitCall(s)
	if !ok {
		return parseErr(s, "unrecognized expression")
	}

	switch name {
	case "select":
		return e.parseSelect(reg, inner)
	case "value":
		return e.parseValue(reg, inner)
	case "distance":
		return e.parseDistance(reg, inner)
	}

	op, have := opcodes[name]
	if !have {
		return &UnknownName{
			Kind: "function",
			Name: name,
			Text: e.Text,
		}
	}
	e.kind, e.op = exprOp, op

	switch op {
	case opPool:
		return e.parsePool(reg, inner)
	case opList:
		return e.parseList(reg, inner)
	case opFilter:
		return e.parseFilter(reg, inner)
	}

	comma := scan.TopLevelIndex(inner, ',')
	if comma < 0 {
		if op <= lastTwoArgOp {
			return &ArgCountError{Name: name, Text: e.Text, Want: "2", Got: 1}
		}
		x, err := e.sub(reg, inner)
		if err != nil {
			return err
		}
		e.args = []*Expression{x}
		return nil
	}
	if 0 <= scan.TopLevelIndex(inner[comma+1:], ',') {
		return &ArgCountError{Name: name, Text: e.Text, Want: "at most 2", Got: 3}
	}
	x, err := e.sub(reg, inner[:comma])
	if err != nil {
		return err
	}
	y, err := e.sub(reg, inner[comma+1:])
	if err != nil {
		return err
	}
	e.args = []*Expression{x, y}
	return nil
}

func (e *Expression) parseLeaf(reg *Registry, s string) error {
	name := s
	if strings.HasPrefix(name, "other:") {
		e.useOther = true
		name = strings.TrimPrefix(name, "other:")
	}

	if id := reg.AgentListVarID(name); 0 <= id {
		e.kind, e.listVar, e.isList = exprListVar, id, true
		return nil
	}
	if id := reg.GlobalListVarID(name); 0 <= id {
		e.kind, e.listVar, e.global, e.isList = exprListVar, id, true, true
		return nil
	}

	f, err := CompileFactor(reg, name)
	if err != nil {
		return err
	}
	e.kind, e.factor = exprFactor, f
	return nil
}

func (e *Expression) parseSelect(reg *Registry, inner string) error {
	comma := scan.TopLevelIndex(inner, ',')
	if comma < 0 {
		return &ArgCountError{Name: "select", Text: e.Text, Want: "2", Got: 1}
	}
	list, err := e.sub(reg, inner[:comma])
	if err != nil {
		return err
	}
	if !list.isList {
		return parseErr(e.Text, "select needs a list expression")
	}
	e.kind = exprSelect
	e.args = []*Expression{list}

	rest := inner[comma+1:]
	if name, prefs, ok := splitCall(rest); ok && name == "pref" {
		p, err := CompilePreference(reg, prefs)
		if err != nil {
			return err
		}
		e.preference = p
		return nil
	}
	index, err := e.scalarArg(reg, rest, "select index")
	if err != nil {
		return err
	}
	e.args = append(e.args, index)
	return nil
}

func (e *Expression) parseValue(reg *Registry, inner string) error {
	parts, err := scan.TopLevelSplit(inner, ',')
	if err != nil {
		return parseErr(e.Text, err.Error())
	}
	if len(parts) != 2 {
		return &ArgCountError{Name: "value", Text: e.Text, Want: "2", Got: len(parts)}
	}
	index := parts[0]
	if 0 <= reg.GroupTypeID(index) {
		index = "admin_of_" + index
	}
	x, err := e.scalarArg(reg, index, "value index")
	if err != nil {
		return err
	}
	y, err := e.scalarArg(reg, parts[1], "value")
	if err != nil {
		return err
	}
	e.kind = exprValue
	e.args = []*Expression{x, y}
	return nil
}

func (e *Expression) parseDistance(reg *Registry, inner string) error {
	parts, err := scan.TopLevelSplit(inner, ',')
	if err != nil {
		return parseErr(e.Text, err.Error())
	}
	if len(parts) != 4 {
		return &ArgCountError{Name: "distance", Text: e.Text, Want: "4", Got: len(parts)}
	}
	e.kind = exprDistance
	for _, p := range parts {
		x, err := e.scalarArg(reg, p, "distance argument")
		if err != nil {
			return err
		}
		e.args = append(e.args, x)
	}
	return nil
}

func (e *Expression) parsePool(reg *Registry, inner string) error {
	e.kind, e.isList = exprPool, true
	for _, name := range strings.Split(inner, ",") {
		id := reg.GroupTypeID(name)
		if id < 0 {
			return &UnknownName{
				Kind: "group",
				Name: name,
				Text: e.Text,
			}
		}
		e.pool = append(e.pool, id)
	}
	return nil
}

// parseList handles list(a,b,...) as a head and list(b,...).
func (e *Expression) parseList(reg *Registry, inner string) error {
	e.kind, e.isList = exprList, true
	comma := scan.TopLevelIndex(inner, ',')
	if comma < 0 {
		x, err := e.sub(reg, inner)
		if err != nil {
			return err
		}
		e.args = []*Expression{x}
		return nil
	}
	x, err := e.sub(reg, inner[:comma])
	if err != nil {
		return err
	}
	e.args = []*Expression{x}
	if rest := inner[comma+1:]; rest != "" {
		y, err := e.sub(reg, "list("+rest+")")
		if err != nil {
			return err
		}
		e.args = append(e.args, y)
	}
	return nil
}

// parseFilter compiles filter(LIST,CLAUSE).  See CompileExpression
// for the form comparisons in CLAUSE take.
func (e *Expression) parseFilter(reg *Registry, inner string) error {
	comma := scan.TopLevelIndex(inner, ',')
	if comma < 0 {
		return &ArgCountError{Name: "filter", Text: e.Text, Want: "2", Got: 1}
	}
	list, err := e.sub(reg, inner[:comma])
	if err != nil {
		return err
	}
	if !list.isList {
		return parseErr(e.Text, "filter needs a list expression")
	}
	c, err := CompileClause(reg, inner[comma+1:])
	if err != nil {
		return err
	}
	e.kind, e.isList = exprFilter, true
	e.args = []*Expression{list}
	e.clause = c
	return nil
}

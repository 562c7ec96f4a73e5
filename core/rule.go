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
	"unicode"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/scan"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/util"
)

// RuleKind is what sort of statement a Rule is.
type RuleKind int

const (
	UnknownRule RuleKind = iota
	WaitRule
	ExposureRule
	NextRule
	DefaultRule
	ActionRule
)

var ruleKindNames = []string{"unknown", "wait", "exposure", "next", "default", "action"}

func (k RuleKind) String() string {
	if k < 0 || int(k) >= len(ruleKindNames) {
		return "unknown"
	}
	return ruleKindNames[k]
}

// Rule is one statement of the rule language.
//
// A Rule is built in two phases.  Parse classifies the text and
// pulls out its pieces.  Compile, which needs a sealed Registry,
// resolves names and compiles the Expressions and Clause.
//
// Which Expression slot holds what depends on the Action:
//
//	wait                     Expr: duration in hours
//	next                     Expr: probability
//	join                     Expr: optional group id
//	edges                    Expr: agent id or list of ids
//	set                      Expr: value; Expr2: optional agent id
//	set_list, report         Expr
//	set_sus, set_trans       Expr: value
//	set_weight               Expr: agent id; Expr2: weight
//	randomize_network        Expr: mean degree; Expr2: max degree
//	import_count             Expr: count
//	import_per_capita        Expr: probability per agent
//	import_location          Expr: latitude; Expr2: longitude; Expr3: radius
//	import_census_tract      Expr: tract code
//	import_ages              Expr: min age; Expr2: max age
//	import_list              Expr: list of ids
type Rule struct {
	// Source is the text as given.
	Source string

	// Text is the normalized text after any shorthand rewrite.
	Text string

	Kind RuleKind

	Cond       string
	State      string
	NextState  string
	ClauseText string
	ActionName string
	Args       string

	CondID      int
	StateID     int
	NextStateID int
	Action      Action

	Clause *Clause
	Expr   *Expression
	Expr2  *Expression
	Expr3  *Expression

	// Until is the target of wait(until_...).
	Until *TimeSpec

	// VarID is the scalar or list variable for set and set_list.
	// Global tells whether it's a global variable.
	VarID  int
	Global bool

	// GroupType is the place type or network for join, quit, and
	// the network actions.
	GroupType int

	// SrcCond, SrcState, and DestState are for set_state,
	// set_sus, and set_trans.
	SrcCond   int
	SrcState  int
	DestState int

	// Groups are the group types that absent, present, and close
	// affect.
	Groups []int

	// Used is set when a Natural History installs the Rule.
	Used bool

	// HiddenBy is the later Rule that took this one's place.
	HiddenBy *Rule

	// Err is the last parse or compile error.
	Err error

	parsed   bool
	compiled bool
}

// NewRule makes an unparsed Rule.
func NewRule(text string) *Rule {
	return &Rule{
		Source:      text,
		CondID:      -1,
		StateID:     -1,
		NextStateID: -1,
		Action:      NoAction,
		VarID:       -1,
		GroupType:   -1,
		SrcCond:     -1,
		SrcState:    -1,
		DestState:   -1,
	}
}

// ParseRule is NewRule followed by Parse.
func ParseRule(text string) (*Rule, error) {
	r := NewRule(text)
	if err := r.Parse(); err != nil {
		return r, err
	}
	return r, nil
}

// Parsed reports whether Parse succeeded.
func (r *Rule) Parsed() bool {
	return r.parsed
}

// Compiled reports whether Compile succeeded.
func (r *Rule) Compiled() bool {
	return r.compiled
}

// IsWarning reports whether the Rule's error only refers to
// something that isn't configured in this run.
func (r *Rule) IsWarning() bool {
	return r.Err != nil && IsWarning(r.Err)
}

func (r *Rule) fail(err error) error {
	if _, is := err.(*RuleError); !is {
		err = &RuleError{Rule: r.Source, Err: err}
	}
	r.Err = err
	return err
}

// words deletes whitespace inside parentheses and splits what's left
// on whitespace.
func words(s string) []string {
	var b strings.Builder
	depth := 0
	for _, c := range s {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		}
		if 0 < depth && unicode.IsSpace(c) {
			continue
		}
		b.WriteRune(c)
	}
	return strings.Fields(b.String())
}

// call returns the argument text of "name(args)".
func call(s, name string) (string, bool) {
	if !strings.HasPrefix(s, name+"(") || !strings.HasSuffix(s, ")") {
		return "", false
	}
	return s[len(name)+1 : len(s)-1], true
}

// Parse classifies the Rule and extracts its parts.  Names aren't
// checked until Compile.
func (r *Rule) Parse() error {
	r.parsed = false
	r.Err = nil
	ws := words(r.Source)
	r.Text = strings.Join(ws, " ")

	var err error
	switch {
	case strings.Contains(r.Text, "then wait("):
		err = r.parseWait(ws)
	case strings.HasPrefix(r.Text, "if exposed("):
		err = r.parseExposure(ws)
	case strings.Contains(r.Text, "then next("):
		err = r.parseNext(ws)
	case strings.Contains(r.Text, "then default("):
		err = r.parseDefault(ws)
	default:
		if !strings.Contains(r.Text, " then ") {
			err = parseErr(r.Text, "no then")
			break
		}
		err = r.parseAction(ws)
	}
	if err != nil {
		return r.fail(err)
	}
	r.parsed = true
	return nil
}

func (r *Rule) parseState(ws []string) error {
	if len(ws) < 4 || ws[0] != "if" {
		return parseErr(r.Text, "can't parse rule")
	}
	arg, ok := call(ws[1], "state")
	if !ok {
		if arg, ok = call(ws[1], "enter"); !ok {
			return parseErr(r.Text, "expected state(COND.STATE)")
		}
	}
	i := strings.IndexByte(arg, '.')
	if i < 0 {
		i = strings.IndexByte(arg, ',')
	}
	if i < 0 {
		return parseErr(r.Text, "expected state(COND.STATE)")
	}
	r.Cond, r.State = arg[:i], arg[i+1:]
	return nil
}

func (r *Rule) parseWait(ws []string) error {
	if err := r.parseState(ws); err != nil {
		return err
	}
	if ws[2] != "then" || len(ws) != 4 {
		return parseErr(r.Text, "expected if state(...) then wait(...)")
	}
	arg, ok := call(ws[3], "wait")
	if !ok {
		return parseErr(r.Text, "bad wait")
	}
	if arg == "" {
		arg = strconv.Itoa(Forever)
	}
	r.Kind = WaitRule
	if until := strings.TrimPrefix(arg, "until_"); until != arg {
		r.ActionName, r.Action, r.Args = "wait_until", ActWaitUntil, until
	} else {
		r.ActionName, r.Action, r.Args = "wait", ActWait, arg
	}
	return nil
}

func (r *Rule) parseExposure(ws []string) error {
	if len(ws) != 4 || ws[0] != "if" || ws[2] != "then" {
		return parseErr(r.Text, "expected if exposed(COND) then next(STATE)")
	}
	cond, ok := call(ws[1], "exposed")
	if !ok {
		return parseErr(r.Text, "bad exposed")
	}
	next, ok := call(ws[3], "next")
	if !ok {
		return parseErr(r.Text, "bad next")
	}
	if next == "" {
		return parseErr(r.Text, "no next state")
	}
	r.Kind, r.Cond, r.NextState = ExposureRule, cond, next
	return nil
}

func (r *Rule) parseNext(ws []string) error {
	if err := r.parseState(ws); err != nil {
		return err
	}
	at := 3
	if clause, ok := call(ws[2], "and"); ok {
		r.ClauseText = clause
		at++
	}
	if len(ws) <= at || ws[at-1] != "then" {
		return parseErr(r.Text, "expected then next(STATE)")
	}
	next, ok := call(ws[at], "next")
	if !ok {
		return parseErr(r.Text, "bad next")
	}
	if next == "" {
		return parseErr(r.Text, "no next state")
	}
	r.NextState = next

	switch len(ws) {
	case at + 1:
		r.Args = "1"
	case at + 3:
		if ws[at+1] != "with" {
			return parseErr(r.Text, "expected with prob(...)")
		}
		prob, ok := call(ws[at+2], "prob")
		if !ok || prob == "" {
			return parseErr(r.Text, "bad prob")
		}
		r.Args = prob
	default:
		return parseErr(r.Text, "extra words")
	}
	r.Kind = NextRule
	return nil
}

func (r *Rule) parseDefault(ws []string) error {
	if err := r.parseState(ws); err != nil {
		return err
	}
	if ws[2] != "then" || len(ws) != 4 {
		return parseErr(r.Text, "expected if state(...) then default(STATE)")
	}
	next, ok := call(ws[3], "default")
	if !ok {
		return parseErr(r.Text, "bad default")
	}
	if next == "" {
		return parseErr(r.Text, "no next state")
	}
	r.Kind, r.NextState = DefaultRule, next
	return nil
}

// rewriteAction expands the sus, trans, mult_sus, and mult_trans
// shorthands.
func (r *Rule) rewriteAction(head string) (string, error) {
	switch {
	case strings.HasPrefix(head, "sus("):
		return "set_sus(" + r.Cond + "," + head[len("sus("):], nil
	case strings.HasPrefix(head, "trans("):
		return "set_trans(" + r.Cond + "," + head[len("trans("):], nil
	case strings.HasPrefix(head, "mult_sus("), strings.HasPrefix(head, "mult_trans("):
		open := strings.IndexByte(head, '(')
		comma := strings.IndexByte(head, ',')
		if comma < 0 || !strings.HasSuffix(head, ")") {
			return "", parseErr(r.Text, "expected "+head[:open]+"(COND,EXPR)")
		}
		src := head[open+1 : comma]
		x := head[comma+1 : len(head)-1]
		if head[:open] == "mult_sus" {
			return "set_sus(" + src + ",susceptibility_to_" + src + "*(" + x + "))", nil
		}
		return "set_trans(" + src + ",transmissibility_for_" + src + "*(" + x + "))", nil
	}
	return head, nil
}

func (r *Rule) parseAction(ws []string) error {
	if err := r.parseState(ws); err != nil {
		return err
	}
	at := 3
	switch {
	case len(ws) == 4 && ws[2] == "then":
	case len(ws) == 5 && ws[3] == "then":
		clause, ok := call(ws[2], "and")
		if !ok {
			return parseErr(r.Text, "expected and(...)")
		}
		r.ClauseText = clause
		at = 4
	default:
		return parseErr(r.Text, "can't parse action rule")
	}

	head, err := r.rewriteAction(ws[at])
	if err != nil {
		return err
	}
	if head != ws[at] {
		ws[at] = head
		r.Text = strings.Join(ws, " ")
	}

	open := strings.IndexByte(head, '(')
	if open < 0 || !strings.HasSuffix(head, ")") {
		return parseErr(r.Text, "expected ACTION(...)")
	}
	r.Kind = ActionRule
	r.ActionName = head[:open]
	r.Args = head[open+1 : len(head)-1]
	return nil
}

// Compile resolves names and compiles the Rule's Expressions and
// Clause.  The Registry must be sealed.
func (r *Rule) Compile(reg *Registry) error {
	r.compiled = false
	if !r.parsed {
		return r.fail(ErrNotParsed)
	}
	if !reg.Sealed() {
		return r.fail(ErrNotSealed)
	}
	if err := r.compile(reg); err != nil {
		return r.fail(err)
	}
	r.Err = nil
	r.compiled = true
	util.Logf("compiled %s rule %s", r.Kind, r.Text)
	return nil
}

func (r *Rule) compile(reg *Registry) error {
	if r.CondID = reg.ConditionID(r.Cond); r.CondID < 0 {
		return &UnknownName{Kind: "condition", Name: r.Cond, Text: r.Text, Warning: true}
	}

	if r.Kind == ExposureRule {
		return r.compileNextState(reg)
	}

	if r.StateID = reg.StateID(r.CondID, r.State); r.StateID < 0 {
		return &UnknownName{Kind: "state", Name: r.State, Text: r.Text, Warning: true}
	}

	switch r.Kind {
	case WaitRule:
		if r.Action == ActWaitUntil {
			ts, err := ParseTimeSpec(r.Args)
			if err != nil {
				return err
			}
			r.Until = ts
			return nil
		}
		return r.expr(reg, &r.Expr, r.Args)
	case NextRule:
		if err := r.compileNextState(reg); err != nil {
			return err
		}
		if err := r.expr(reg, &r.Expr, r.Args); err != nil {
			return err
		}
		return r.compileClause(reg)
	case DefaultRule:
		return r.compileNextState(reg)
	case ActionRule:
		if err := r.compileClause(reg); err != nil {
			return err
		}
		return r.compileAction(reg)
	}
	return parseErr(r.Text, "unknown rule kind")
}

func (r *Rule) compileNextState(reg *Registry) error {
	if r.NextStateID = reg.StateID(r.CondID, r.NextState); r.NextStateID < 0 {
		return &UnknownName{Kind: "state", Name: r.NextState, Text: r.Text, Warning: true}
	}
	return nil
}

func (r *Rule) compileClause(reg *Registry) error {
	if r.ClauseText == "" {
		return nil
	}
	c, err := CompileClause(reg, r.ClauseText)
	if err != nil {
		return err
	}
	r.Clause = c
	return nil
}

func (r *Rule) expr(reg *Registry, slot **Expression, text string) error {
	e, err := CompileExpression(reg, text)
	if err != nil {
		return err
	}
	*slot = e
	return nil
}

func (r *Rule) listExpr(reg *Registry, slot **Expression, text string) error {
	if err := r.expr(reg, slot, text); err != nil {
		return err
	}
	if !(*slot).IsList() {
		return parseErr(r.Text, "need a list-valued expression: "+text)
	}
	return nil
}

func (r *Rule) args(want string, min, max int) ([]string, error) {
	if r.Args == "" {
		if min == 0 {
			return nil, nil
		}
		return nil, &ArgCountError{Name: r.ActionName, Text: r.Text, Want: want, Got: 0}
	}
	parts, err := scan.TopLevelSplit(r.Args, ',')
	if err != nil {
		return nil, parseErr(r.Text, err.Error())
	}
	if len(parts) < min || max < len(parts) {
		return nil, &ArgCountError{Name: r.ActionName, Text: r.Text, Want: want, Got: len(parts)}
	}
	return parts, nil
}

func (r *Rule) network(reg *Registry, name string) error {
	if r.GroupType = reg.NetworkID(name); r.GroupType < 0 {
		return &UnknownName{Kind: "network", Name: name, Text: r.Text}
	}
	return nil
}

func (r *Rule) srcCond(reg *Registry, name string) error {
	if r.SrcCond = reg.ConditionID(name); r.SrcCond < 0 {
		return &UnknownName{Kind: "condition", Name: name, Text: r.Text, Warning: true}
	}
	return nil
}

func (r *Rule) compileAction(reg *Registry) error {
	a, ok := ParseAction(r.ActionName)
	if !ok {
		return &UnknownName{Kind: "action", Name: r.ActionName, Text: r.Text}
	}
	switch a {
	case ActChangeState:
		a, r.ActionName = ActSetState, "set_state"
	case ActWait, ActWaitUntil:
		return parseErr(r.Text, "wait isn't an action")
	}
	r.Action = a

	switch a {
	case ActGiveBirth, ActDie, ActDieOld:
		return nil

	case ActSus, ActTrans:
		// Parse rewrites these.
		return r.expr(reg, &r.Expr, r.Args)

	case ActJoin:
		args, err := r.args("1 or 2", 1, 2)
		if err != nil {
			return err
		}
		if r.GroupType = reg.GroupTypeID(args[0]); r.GroupType < 0 {
			return &UnknownName{Kind: "group", Name: args[0], Text: r.Text}
		}
		if len(args) == 2 {
			return r.expr(reg, &r.Expr, args[1])
		}
		return nil

	case ActQuit:
		args, err := r.args("1", 1, 1)
		if err != nil {
			return err
		}
		if r.GroupType = reg.GroupTypeID(args[0]); r.GroupType < 0 {
			return &UnknownName{Kind: "group", Name: args[0], Text: r.Text}
		}
		return nil

	case ActAddEdgeFrom, ActAddEdgeTo, ActDeleteEdgeFrom, ActDeleteEdgeTo:
		args, err := r.args("2", 2, 2)
		if err != nil {
			return err
		}
		if err := r.network(reg, args[0]); err != nil {
			return err
		}
		return r.expr(reg, &r.Expr, args[1])

	case ActSet:
		args, err := r.args("2 or 3", 2, 3)
		if err != nil {
			return err
		}
		if r.VarID = reg.AgentVarID(args[0]); r.VarID < 0 {
			if r.VarID = reg.GlobalVarID(args[0]); r.VarID < 0 {
				return &UnknownName{Kind: "variable", Name: args[0], Text: r.Text}
			}
			r.Global = true
		}
		if len(args) == 3 {
			if err := r.expr(reg, &r.Expr2, args[1]); err != nil {
				return err
			}
			return r.expr(reg, &r.Expr, args[2])
		}
		return r.expr(reg, &r.Expr, args[1])

	case ActSetList:
		args, err := r.args("2", 2, 2)
		if err != nil {
			return err
		}
		if r.VarID = reg.AgentListVarID(args[0]); r.VarID < 0 {
			if r.VarID = reg.GlobalListVarID(args[0]); r.VarID < 0 {
				return &UnknownName{Kind: "list variable", Name: args[0], Text: r.Text}
			}
			r.Global = true
		}
		return r.listExpr(reg, &r.Expr, args[1])

	case ActSetState:
		args, err := r.args("3", 3, 3)
		if err != nil {
			return err
		}
		if err := r.srcCond(reg, args[0]); err != nil {
			return err
		}
		if r.SrcState = reg.StateID(r.SrcCond, args[1]); r.SrcState < 0 {
			return &UnknownName{Kind: "state", Name: args[1], Text: r.Text, Warning: true}
		}
		if r.DestState = reg.StateID(r.SrcCond, args[2]); r.DestState < 0 {
			return &UnknownName{Kind: "state", Name: args[2], Text: r.Text, Warning: true}
		}
		return nil

	case ActSetSus, ActSetTrans:
		args, err := r.args("2", 2, 2)
		if err != nil {
			return err
		}
		if err := r.srcCond(reg, args[0]); err != nil {
			return err
		}
		return r.expr(reg, &r.Expr, args[1])

	case ActSetWeight:
		args, err := r.args("3", 3, 3)
		if err != nil {
			return err
		}
		if err := r.network(reg, args[0]); err != nil {
			return err
		}
		if err := r.expr(reg, &r.Expr, args[1]); err != nil {
			return err
		}
		return r.expr(reg, &r.Expr2, args[2])

	case ActReport:
		return r.expr(reg, &r.Expr, r.Args)

	case ActAbsent, ActPresent, ActClose:
		r.Groups = r.Groups[:0]
		if r.Args == "" {
			for id := 0; id < reg.NumGroupTypes(); id++ {
				r.Groups = append(r.Groups, id)
			}
			return nil
		}
		for _, name := range strings.Split(r.Args, ",") {
			id := reg.GroupTypeID(name)
			if id < 0 {
				return &UnknownName{Kind: "group", Name: name, Text: r.Text}
			}
			r.Groups = append(r.Groups, id)
		}
		return nil

	case ActRandomizeNetwork:
		args, err := r.args("3", 3, 3)
		if err != nil {
			return err
		}
		if err := r.network(reg, args[0]); err != nil {
			return err
		}
		if err := r.expr(reg, &r.Expr, args[1]); err != nil {
			return err
		}
		return r.expr(reg, &r.Expr2, args[2])

	case ActImportCount, ActImportPerCapita, ActImportCensusTract:
		args, err := r.args("1", 1, 1)
		if err != nil {
			return err
		}
		return r.expr(reg, &r.Expr, args[0])

	case ActImportLocation:
		args, err := r.args("3", 3, 3)
		if err != nil {
			return err
		}
		for i, slot := range []**Expression{&r.Expr, &r.Expr2, &r.Expr3} {
			if err := r.expr(reg, slot, args[i]); err != nil {
				return err
			}
		}
		return nil

	case ActImportAges:
		args, err := r.args("2", 2, 2)
		if err != nil {
			return err
		}
		if err := r.expr(reg, &r.Expr, args[0]); err != nil {
			return err
		}
		return r.expr(reg, &r.Expr2, args[1])

	case ActCountAllImportAttempts:
		_, err := r.args("0", 0, 0)
		return err

	case ActImportList:
		args, err := r.args("1", 1, 1)
		if err != nil {
			return err
		}
		return r.listExpr(reg, &r.Expr, args[0])
	}

	return &UnknownName{Kind: "action", Name: r.ActionName, Text: r.Text}
}

// Guard reports whether the Rule's and(...) clause, if any, holds for
// agent a.
func (r *Rule) Guard(env *Env, a Agent) bool {
	return r.Clause == nil || r.Clause.Eval(env, a, nil)
}

// Value is the guard-gated probability of a next Rule: 0 when the
// guard fails.
func (r *Rule) Value(env *Env, a Agent) float64 {
	if !r.Guard(env, a) {
		return 0
	}
	if r.Expr == nil {
		return 1
	}
	return r.Expr.Eval(env, a, nil)
}

// Slot names what the Rule competes with in its state.  A later Rule
// with the same non-empty Slot hides an earlier one.
func (r *Rule) Slot() string {
	switch r.Kind {
	case WaitRule:
		return "wait"
	case DefaultRule:
		return "default"
	case ExposureRule:
		return "exposure"
	case ActionRule:
		switch {
		case r.Action == ActSetSus:
			return "sus." + strconv.Itoa(r.SrcCond)
		case r.Action == ActSetTrans:
			return "trans." + strconv.Itoa(r.SrcCond)
		case r.Action.IsImport():
			return r.Action.String()
		}
	}
	return ""
}

// Hide records that later replaces r.
func (r *Rule) Hide(later *Rule) {
	r.HiddenBy = later
	util.Warnf("ignoring duplicate rule: %s is hidden by: %s", r.Text, later.Text)
}

// Warnings returns the diagnostics for a Rule that was never used.
func (r *Rule) Warnings() []string {
	if r.Used {
		return nil
	}
	if r.HiddenBy != nil {
		return []string{"ignoring duplicate rule: " + r.Text + " is hidden by: " + r.HiddenBy.Text}
	}
	if r.Err != nil {
		return []string{r.Err.Error()}
	}
	return []string{"ignoring rule (check for typos): " + r.Text}
}

func (r *Rule) current() string {
	return r.Cond + "." + r.State
}

// String gives the canonical text of the Rule.
func (r *Rule) String() string {
	and := ""
	if r.ClauseText != "" {
		and = " and(" + r.ClauseText + ")"
	}
	switch r.Kind {
	case WaitRule:
		arg := r.Args
		if r.Action == ActWaitUntil {
			arg = "until_" + arg
		}
		return "if state(" + r.current() + ") then wait(" + arg + ")"
	case ExposureRule:
		return "if exposed(" + r.Cond + ") then next(" + r.NextState + ")"
	case NextRule:
		return "if state(" + r.current() + ")" + and + " then next(" + r.NextState + ") with prob(" + r.Args + ")"
	case DefaultRule:
		return "if state(" + r.current() + ") then default(" + r.NextState + ")"
	case ActionRule:
		return "if state(" + r.current() + ")" + and + " then " + r.ActionName + "(" + r.Args + ")"
	}
	return r.Text
}

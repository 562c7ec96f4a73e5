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

type predKind int

const (
	pTrait predKind = iota
	pCompare
	pRange
	pDate
	pDateRange
	pAt
	pMember
	pAdmin
	pHost
	pOpen
	pExposedIn
	pExposedExternally
)

type comparison int

const (
	cmpEq comparison = iota
	cmpNeq
	cmpLt
	cmpLte
	cmpGt
	cmpGte
)

var comparisons = map[string]comparison{
	"eq": cmpEq, "neq": cmpNeq,
	"lt": cmpLt, "lte": cmpLte,
	"gt": cmpGt, "gte": cmpGte,
}

// infixComparisons is the order in which infix operators are looked
// for.  The first one found splits the text.
var infixComparisons = []struct {
	op, name string
}{
	{"==", "eq"},
	{"!=", "neq"},
	{"<=", "lte"},
	{">=", "gte"},
	{">", "gt"},
	{"<", "lt"},
}

var traits = map[string]Trait{
	"is_student":                             Student,
	"is_import_agent":                        ImportAgent,
	"is_employed":                            Employed,
	"is_unemployed":                          Unemployed,
	"is_teacher":                             Teacher,
	"is_retired":                             Retired,
	"lives_in_group_quarters":                GroupQuartersResident,
	"is_college_dorm_resident":               CollegeDormResident,
	"is_nursing_home_resident":               NursingHomeResident,
	"is_military_base_resident":              MilitaryBaseResident,
	"is_prisoner":                            Prisoner,
	"is_householder":                         Householder,
	"household_is_in_low_vaccination_school": HouseholdInLowVaccinationSchool,
	"household_refuses_vaccines":             HouseholdRefusesVaccines,
	"attends_low_vaccination_school":         AttendsLowVaccinationSchool,
	"refuses_vaccine":                        RefusesVaccine,
	"is_ineligible_for_vaccine":              IneligibleForVaccine,
	"has_received_vaccine":                   ReceivedVaccine,
}

var groupPredicates = map[string]predKind{
	"at":     pAt,
	"member": pMember,
	"admin":  pAdmin,
	"admins": pAdmin,
	"host":   pHost,
	"hosts":  pHost,
	"open":   pOpen,
}

// Predicate is one boolean test.
type Predicate struct {
	Text   string
	Negate bool

	kind  predKind
	trait Trait
	cmp   comparison
	args  []*Expression

	// date codes
	lo, hi int

	cond  int
	group int
	// alsoGroup is a second group type that exposed_in accepts.
	alsoGroup int
}

// ToPrefixComparison rewrites "a<=b" as "lte(a,b)".  Text without an
// infix comparison is returned unchanged.
func ToPrefixComparison(s string) string {
	for _, c := range infixComparisons {
		if i := strings.Index(s, c.op); 0 <= i {
			return c.name + "(" + s[:i] + "," + s[i+len(c.op):] + ")"
		}
	}
	return s
}

// CompilePredicate compiles one predicate.
func CompilePredicate(reg *Registry, text string) (*Predicate, error) {
	p := &Predicate{
		Text:      text,
		cond:      -1,
		group:     -1,
		alsoGroup: -1,
	}
	if err := p.parse(reg); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Predicate) parse(reg *Registry) error {
	s := scan.DeleteSpaces(p.Text)
	if strings.HasPrefix(s, "not(") {
		end := strings.LastIndexByte(s, ')')
		if end < len("not(") {
			return parseErr(p.Text, "unrecognized predicate")
		}
		p.Negate = true
		s = s[len("not("):end]
	}
	s = ToPrefixComparison(s)

	open := strings.IndexByte(s, '(')
	close := strings.LastIndexByte(s, ')')
	if open < 0 || close < open {
		t, have := traits[s]
		if !have {
			return &UnknownName{Kind: "predicate", Name: s, Text: p.Text}
		}
		p.kind, p.trait = pTrait, t
		return nil
	}

	name, inner := s[:open], s[open+1:close]

	if c, have := comparisons[name]; have {
		p.kind, p.cmp = pCompare, c
		return p.parseComparison(reg, name, inner)
	}

	switch name {
	case "range":
		p.kind = pRange
		parts, err := scan.TopLevelSplit(inner, ',')
		if err != nil {
			return parseErr(p.Text, err.Error())
		}
		if len(parts) != 3 {
			return &ArgCountError{Name: name, Text: p.Text, Want: "3", Got: len(parts)}
		}
		return p.compileArgs(reg, parts...)
	case "date":
		p.kind = pDate
		code, err := ParseDateCode(inner)
		if err != nil {
			return err
		}
		p.lo = code
		return nil
	case "date_range":
		p.kind = pDateRange
		parts := strings.Split(inner, ",")
		if len(parts) != 2 {
			return &ArgCountError{Name: name, Text: p.Text, Want: "2", Got: len(parts)}
		}
		var err error
		if p.lo, err = ParseDateCode(parts[0]); err != nil {
			return err
		}
		if p.hi, err = ParseDateCode(parts[1]); err != nil {
			return err
		}
		return nil
	case "exposed_in":
		p.kind = pExposedIn
		i := strings.IndexByte(inner, ',')
		if i < 0 {
			return &ArgCountError{Name: name, Text: p.Text, Want: "2", Got: 1}
		}
		cond, group := inner[:i], inner[i+1:]
		if p.cond = reg.ConditionID(cond); p.cond < 0 {
			return &UnknownName{Kind: "condition", Name: cond, Text: p.Text, Warning: true}
		}
		if p.group = reg.GroupTypeID(group); p.group < 0 {
			return &UnknownName{Kind: "group", Name: group, Text: p.Text}
		}
		switch group {
		case "School":
			p.alsoGroup = reg.GroupTypeID("Classroom")
		case "Workplace":
			p.alsoGroup = reg.GroupTypeID("Office")
		}
		return nil
	case "exposed_externally":
		p.kind = pExposedExternally
		if p.cond = reg.ConditionID(inner); p.cond < 0 {
			return &UnknownName{Kind: "condition", Name: inner, Text: p.Text, Warning: true}
		}
		return nil
	}

	k, have := groupPredicates[name]
	if !have {
		return &UnknownName{Kind: "predicate", Name: name, Text: p.Text}
	}
	p.kind = k
	if p.group = reg.GroupTypeID(inner); p.group < 0 {
		return &UnknownName{Kind: "group", Name: inner, Text: p.Text}
	}
	return nil
}

func (p *Predicate) compileArgs(reg *Registry, parts ...string) error {
	for _, s := range parts {
		e, err := CompileExpression(reg, s)
		if err != nil {
			return err
		}
		p.args = append(p.args, e)
	}
	return nil
}

// parseComparison compiles the two sides of a comparison.  When the
// left side is current_state_in_COND, the right side is a state name
// of COND.
func (p *Predicate) parseComparison(reg *Registry, name, inner string) error {
	i := scan.TopLevelIndex(inner, ',')
	if i < 0 {
		return &ArgCountError{Name: name, Text: p.Text, Want: "2", Got: 1}
	}
	first, second := inner[:i], inner[i+1:]
	left, err := CompileExpression(reg, first)
	if err != nil {
		return err
	}
	if cond := strings.TrimPrefix(first, "current_state_in_"); cond != first {
		c := reg.ConditionID(cond)
		if c < 0 {
			return &UnknownName{Kind: "condition", Name: cond, Text: p.Text, Warning: true}
		}
		state := reg.StateID(c, second)
		if state < 0 {
			return &UnknownName{Kind: "state", Name: second, Text: p.Text, Warning: true}
		}
		second = strconv.Itoa(state)
	}
	right, err := CompileExpression(reg, second)
	if err != nil {
		return err
	}
	p.args = []*Expression{left, right}
	return nil
}

// Eval evaluates the Predicate for agent a and optional other.
func (p *Predicate) Eval(env *Env, a, other Agent) bool {
	v := p.eval(env, a, other)
	if p.Negate {
		return !v
	}
	return v
}

func (p *Predicate) eval(env *Env, a, other Agent) bool {
	switch p.kind {
	case pCompare:
		x := p.args[0].Eval(env, a, other)
		y := p.args[1].Eval(env, a, other)
		switch p.cmp {
		case cmpEq:
			return x == y
		case cmpNeq:
			return x != y
		case cmpLt:
			return x < y
		case cmpLte:
			return x <= y
		case cmpGt:
			return x > y
		case cmpGte:
			return x >= y
		}
		return false
	case pRange:
		x := p.args[0].Eval(env, a, other)
		lo := p.args[1].Eval(env, a, other)
		hi := p.args[2].Eval(env, a, other)
		return lo <= x && x <= hi
	case pDate:
		return DateCode(env.World.Date()) == p.lo
	case pDateRange:
		return InDateRange(DateCode(env.World.Date()), p.lo, p.hi)
	}

	if a == nil {
		return false
	}

	switch p.kind {
	case pTrait:
		return a.Has(p.trait)
	case pAt:
		g := a.Group(p.group)
		day := env.World.Day()
		return g != nil && g.IsOpen(day) && a.IsPresent(p.group, day)
	case pMember:
		return a.Group(p.group) != nil
	case pAdmin:
		return a.IsAdmin(p.group)
	case pHost:
		return a.IsHost(p.group)
	case pOpen:
		g := a.Group(p.group)
		return g != nil && g.IsOpen(env.World.Day())
	case pExposedIn:
		gt := a.ExposureGroupType(p.cond)
		return gt == p.group || (0 <= p.alsoGroup && gt == p.alsoGroup)
	case pExposedExternally:
		return a.ExposedExternally(p.cond)
	}
	return false
}

func (p *Predicate) String() string {
	s := scan.DeleteSpaces(p.Text)
	if p.Negate && !strings.HasPrefix(s, "not(") {
		return "not(" + s + ")"
	}
	return s
}

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

// Package history is the compiled natural history of a condition:
// its states, dwell times, transition probabilities, and the actions
// agents take when they enter a state.
package history

import (
	"fmt"
	"strconv"

	"github.com/gorhill/cronexpr"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/core"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/util"
)

// State is one compiled state.
type State struct {
	ID   int
	Name string
	Doc  string

	Dormant bool

	// Fatal states kill the agent on entry.
	Fatal bool

	// Maternity states make the agent give birth on entry.
	Maternity bool

	// Wait is the state's wait rule, if any.
	Wait *core.Rule

	// Default is the state that gets the remaining probability.
	// It's the state itself when there's no default rule.
	Default     int
	DefaultRule *core.Rule

	// Next holds the next rules for each destination state.
	Next [][]*core.Rule

	// Actions are the action rules run on entry, in order.
	Actions []*core.Rule

	// Schedule holds absent, present, and close rules.
	Schedule []*core.Rule

	// Imports holds the import rules, at most one of each kind.
	Imports []*core.Rule

	until *cronexpr.Expression
}

// Transient reports whether an agent without a wait rule passes
// through the state at once.
func (s *State) Transient() bool {
	if s.Default != s.ID {
		return true
	}
	for _, rs := range s.Next {
		if 0 < len(rs) {
			return true
		}
	}
	return false
}

// History is a condition's compiled natural history.
type History struct {
	Name string
	Doc  string
	Cond int

	States []*State
	Start  int

	// ImportStart is where the import agent starts, or -1.
	ImportStart int

	// Exposure is the active exposure rule, if any.  ExposedState
	// is its target or -1.
	Exposure     *core.Rule
	ExposedState int

	Transmissibility float64

	rules []*core.Rule
}

// New builds the History for the condition from compiled rules.
//
// Only rules for the condition are considered.  Rules that failed to
// compile are kept for Unused.  Of the rules that compete for the
// same slot of the same state, the last one wins and the earlier ones
// are hidden.
func New(reg *core.Registry, cond int, spec *Spec, rules []*core.Rule) (*History, error) {
	c := reg.Condition(cond)
	if c == nil {
		return nil, fmt.Errorf("unknown condition %d", cond)
	}
	if spec.Name != reg.ConditionName(cond) {
		return nil, fmt.Errorf("spec for %s given for condition %s", spec.Name, reg.ConditionName(cond))
	}
	n := reg.NumStates(cond)
	if len(spec.States) != n {
		return nil, fmt.Errorf("%s has %d states but %d are registered", spec.Name, len(spec.States), n)
	}

	h := &History{
		Name:             spec.Name,
		Doc:              spec.Doc,
		Cond:             cond,
		States:           make([]*State, n),
		ImportStart:      -1,
		ExposedState:     -1,
		Transmissibility: spec.Transmissibility,
	}
	for i, ss := range spec.States {
		if reg.StateName(cond, i) != ss.Name {
			return nil, fmt.Errorf("%s state %d is %s but %s is registered", spec.Name, i, ss.Name, reg.StateName(cond, i))
		}
		h.States[i] = &State{
			ID:      i,
			Name:    ss.Name,
			Doc:     ss.Doc,
			Dormant: ss.Dormant,
			Default: i,
			Next:    make([][]*core.Rule, n),
		}
	}
	if spec.Start != "" {
		if h.Start = reg.StateID(cond, spec.Start); h.Start < 0 {
			return nil, fmt.Errorf("%s has no start state %s", spec.Name, spec.Start)
		}
	}
	if spec.ImportStart != "" {
		if h.ImportStart = reg.StateID(cond, spec.ImportStart); h.ImportStart < 0 {
			return nil, fmt.Errorf("%s has no import start state %s", spec.Name, spec.ImportStart)
		}
	}

	// First pass: hide the losers of each slot.
	slots := make([]map[string]*core.Rule, n)
	for i := range slots {
		slots[i] = make(map[string]*core.Rule)
	}
	var exposure *core.Rule
	for _, r := range rules {
		if r.Cond != h.Name {
			continue
		}
		h.rules = append(h.rules, r)
		if !r.Compiled() {
			continue
		}
		if r.Kind == core.ExposureRule {
			if exposure != nil {
				exposure.Hide(r)
			}
			exposure = r
			continue
		}
		slot := r.Slot()
		if slot == "" {
			continue
		}
		if prev := slots[r.StateID][slot]; prev != nil {
			prev.Hide(r)
		}
		slots[r.StateID][slot] = r
	}

	// Second pass: install the survivors in order.
	for _, r := range h.rules {
		if !r.Compiled() || r.HiddenBy != nil {
			continue
		}
		if err := h.install(r); err != nil {
			return nil, err
		}
		r.Used = true
	}

	util.Logf("history %s: %d states, %d rules", h.Name, n, len(h.rules))
	return h, nil
}

func (h *History) install(r *core.Rule) error {
	if r.Kind == core.ExposureRule {
		h.Exposure = r
		h.ExposedState = r.NextStateID
		return nil
	}
	s := h.States[r.StateID]
	switch r.Kind {
	case core.WaitRule:
		s.Wait = r
		s.until = nil
		if r.Until != nil && r.Until.Offset < 0 {
			c, err := cronexpr.Parse(cronSpec(r.Until))
			if err != nil {
				return fmt.Errorf("%s: %w", r.Text, err)
			}
			s.until = c
		}
	case core.NextRule:
		s.Next[r.NextStateID] = append(s.Next[r.NextStateID], r)
	case core.DefaultRule:
		s.Default = r.NextStateID
		s.DefaultRule = r
	case core.ActionRule:
		switch {
		case r.Action.IsImport():
			s.Imports = append(s.Imports, r)
		case r.Action.IsSchedule():
			s.Schedule = append(s.Schedule, r)
		default:
			switch r.Action {
			case core.ActDie, core.ActDieOld:
				s.Fatal = true
			case core.ActGiveBirth:
				s.Maternity = true
			}
			s.Actions = append(s.Actions, r)
		}
	}
	return nil
}

// cronSpec gives the cron expression for a weekday or date TimeSpec.
func cronSpec(ts *core.TimeSpec) string {
	hour := strconv.Itoa(ts.Hour)
	if 0 <= ts.Weekday {
		return "0 " + hour + " * * " + strconv.Itoa(ts.Weekday)
	}
	return "0 " + hour + " " + strconv.Itoa(ts.Day) + " " + strconv.Itoa(ts.Month) + " *"
}

// Rules returns all of the condition's rules in order.
func (h *History) Rules() []*core.Rule {
	return h.rules
}

// Unused returns the condition's rules that aren't installed.
func (h *History) Unused() []*core.Rule {
	var acc []*core.Rule
	for _, r := range h.rules {
		if !r.Used {
			acc = append(acc, r)
		}
	}
	return acc
}

// State returns the state with the name or nil.
func (h *History) State(name string) *State {
	for _, s := range h.States {
		if s.Name == name {
			return s
		}
	}
	return nil
}

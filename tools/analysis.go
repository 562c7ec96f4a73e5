package tools

import (
	"fmt"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/core"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/history"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/model"
)

// HistoryAnalysis reports on the structure of a natural history.
type HistoryAnalysis struct {
	history *history.History

	Errors     []string `json:"errors,omitempty"`
	StateCount int      `json:"stateCount"`
	NextRules  int      `json:"nextRules"`
	Actions    int      `json:"actions"`
	Guards     int      `json:"guards"`

	// Terminal states have no way out.
	Terminal []string `json:"terminal,omitempty"`

	// Unreachable states can't be reached from the start state,
	// the import start state, or a set_state.
	Unreachable []string `json:"unreachable,omitempty"`

	Dormant []string `json:"dormant,omitempty"`

	// Unused and Hidden hold the text of rules that weren't
	// installed.
	Unused []string `json:"unused,omitempty"`
	Hidden []string `json:"hidden,omitempty"`
}

// Analyze looks at a natural history by itself.
func Analyze(h *history.History) (*HistoryAnalysis, error) {
	return analyze(h, nil)
}

// AnalyzeProgram analyzes each of the Program's histories.  A
// set_state in one condition counts as a way into the state of the
// other condition.
func AnalyzeProgram(p *model.Program) (map[string]*HistoryAnalysis, error) {
	entries := make(map[int][]int)
	for _, h := range p.Histories {
		for _, s := range h.States {
			for _, r := range s.Actions {
				if r.Action == core.ActSetState {
					entries[r.SrcCond] = append(entries[r.SrcCond], r.DestState)
				}
			}
		}
	}
	acc := make(map[string]*HistoryAnalysis, len(p.Histories))
	for _, h := range p.Histories {
		a, err := analyze(h, entries[h.Cond])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", h.Name, err)
		}
		acc[h.Name] = a
	}
	return acc, nil
}

func analyze(h *history.History, entries []int) (*HistoryAnalysis, error) {
	if len(h.States) == 0 {
		return nil, fmt.Errorf("%s has no states", h.Name)
	}
	a := &HistoryAnalysis{
		history:    h,
		StateCount: len(h.States),
		Errors:     make([]string, 0, 8),
	}

	edges := make([][]int, len(h.States))
	for _, s := range h.States {
		for to, rs := range s.Next {
			for _, r := range rs {
				a.NextRules++
				if r.Clause != nil {
					a.Guards++
				}
				edges[s.ID] = append(edges[s.ID], to)
			}
		}
		if s.Default != s.ID {
			edges[s.ID] = append(edges[s.ID], s.Default)
		}
		for _, r := range s.Actions {
			a.Actions++
			if r.Clause != nil {
				a.Guards++
			}
			if r.Action == core.ActSetState && r.SrcCond == h.Cond {
				entries = append(entries, r.DestState)
			}
		}
		if !s.Transient() {
			a.Terminal = append(a.Terminal, s.Name)
			if s.Wait != nil {
				a.Errors = append(a.Errors, fmt.Sprintf("%s waits but has nowhere to go", s.Name))
			}
		}
		if s.Dormant {
			a.Dormant = append(a.Dormant, s.Name)
		}
		if 0 < len(s.Imports) && h.ExposedState < 0 {
			a.Errors = append(a.Errors, fmt.Sprintf("%s imports but %s has no exposure rule", s.Name, h.Name))
		}
	}

	roots := append([]int{h.Start}, entries...)
	if 0 <= h.ImportStart {
		roots = append(roots, h.ImportStart)
	}
	if 0 <= h.ExposedState {
		roots = append(roots, h.ExposedState)
	}
	reached := make([]bool, len(h.States))
	for len(roots) > 0 {
		id := roots[len(roots)-1]
		roots = roots[:len(roots)-1]
		if id < 0 || reached[id] {
			continue
		}
		reached[id] = true
		roots = append(roots, edges[id]...)
	}
	for _, s := range h.States {
		if !reached[s.ID] {
			a.Unreachable = append(a.Unreachable, s.Name)
		}
	}

	for _, r := range h.Unused() {
		if r.HiddenBy != nil {
			a.Hidden = append(a.Hidden, r.Source)
		} else {
			a.Unused = append(a.Unused, r.Source)
		}
	}
	return a, nil
}

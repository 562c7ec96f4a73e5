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

package history

import (
	"math"
	"time"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/core"
)

const (
	// minWeight is the smallest transition weight that isn't
	// treated as round-off.
	minWeight = 1e-20

	// wholeWeight is the total at which weights are normalized
	// instead of topped up with the default state.
	wholeWeight = 0.999999999
)

// Stride is one transition of one agent in one condition.
type Stride struct {
	Agent int `json:"agent"`
	Cond  int `json:"cond"`
	From  int `json:"from"`
	To    int `json:"to"`

	// At is the sim hour of the transition.
	At int `json:"at"`

	// Dwell is the hours the agent will stay in To, or
	// core.Forever.  It's set by whoever applies the Stride.
	Dwell int `json:"dwell"`
}

// Distribution gives the probability of each next state for an agent
// leaving the state.
//
// The weight of a destination is the largest guard-gated probability
// of its next rules.  If the weights come to (about) 1, they are
// normalized.  Otherwise the shortfall goes to the default state.
func (h *History) Distribution(env *core.Env, a core.Agent, state int) []float64 {
	s := h.States[state]
	ws := make([]float64, len(h.States))
	total := 0.0
	for to, rs := range s.Next {
		w := 0.0
		for _, r := range rs {
			if p := r.Value(env, a); w < p {
				w = p
			}
		}
		if w < minWeight {
			w = 0
		}
		ws[to] = w
		total += w
	}
	if wholeWeight <= total {
		for i := range ws {
			ws[i] /= total
		}
	} else {
		ws[s.Default] += 1 - total
	}
	return ws
}

// Next picks the agent's next state.
//
// A destination with weight 1 is taken without a draw.  Otherwise one
// uniform draw picks the first state whose cumulative weight exceeds
// it.
func (h *History) Next(env *core.Env, a core.Agent, state int) int {
	ws := h.Distribution(env, a, state)
	for i, w := range ws {
		if w == 1 {
			return i
		}
	}
	u := env.Rand.Float64()
	cum := 0.0
	last := state
	for i, w := range ws {
		if w <= 0 {
			continue
		}
		cum += w
		last = i
		if u < cum {
			return i
		}
	}
	return last
}

// Step decides the agent's transition out of its current state at
// the given sim hour.  The Stride's Dwell is left for the caller to
// set once the agent is in its new state.
func (h *History) Step(env *core.Env, a core.Agent, at int) *Stride {
	from := a.State(h.Cond)
	if from < 0 || len(h.States) <= from {
		from = h.Start
	}
	return &Stride{
		Agent: a.ID(),
		Cond:  h.Cond,
		From:  from,
		To:    h.Next(env, a, from),
		At:    at,
	}
}

// Dwell returns how many hours the agent stays in the state, entered
// at the current time of env's World.
//
// A duration is rounded to the nearest hour, with negative durations
// treated as 0.  Without a wait rule, transient states take no time
// and others last forever.
func (h *History) Dwell(env *core.Env, a core.Agent, state int) int {
	s := h.States[state]
	r := s.Wait
	if r == nil {
		if s.Transient() {
			return 0
		}
		return core.Forever
	}
	if r.Expr != nil {
		x := r.Expr.Eval(env, a, nil)
		if x <= 0 || math.IsNaN(x) {
			return 0
		}
		d := math.Floor(x + 0.5)
		if core.Forever <= d {
			return core.Forever
		}
		return int(d)
	}
	return s.untilHours(env)
}

// now is the calendar time of env's World.
func now(env *core.Env) time.Time {
	return env.World.Date().Add(time.Duration(env.World.Hour()) * time.Hour)
}

// untilHours resolves a wait(until_...) rule.
func (s *State) untilHours(env *core.Env) int {
	ts := s.Wait.Until
	t := now(env)
	var then time.Time
	if 0 <= ts.Offset {
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		then = day.AddDate(0, 0, ts.Offset).Add(time.Duration(ts.Hour) * time.Hour)
	} else if s.until != nil {
		then = s.until.Next(t)
	}
	if then.IsZero() {
		return core.Forever
	}
	d := int(then.Sub(t) / time.Hour)
	if d < 0 {
		return 0
	}
	if core.Forever <= d {
		return core.Forever
	}
	return d
}

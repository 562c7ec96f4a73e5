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
	"github.com/PublicHealthDynamicsLab/FRED-sub002/core"
)

// Import is what a state's import rules ask for: external
// introductions of the condition.
type Import struct {
	// Count is how many agents to expose.
	Count int `json:"count,omitempty"`

	// PerCapita is the chance each eligible agent is exposed.
	PerCapita float64 `json:"perCapita,omitempty"`

	// Location limits imports to agents whose household is within
	// Radius km of (Lat,Lon).
	Location bool    `json:"location,omitempty"`
	Lat      float64 `json:"lat,omitempty"`
	Lon      float64 `json:"lon,omitempty"`
	Radius   float64 `json:"radius,omitempty"`

	// Tract limits imports to a census tract when nonzero.
	Tract int64 `json:"tract,omitempty"`

	// Ages limits imports to MinAge <= age <= MaxAge.
	Ages   bool    `json:"ages,omitempty"`
	MinAge float64 `json:"minAge,omitempty"`
	MaxAge float64 `json:"maxAge,omitempty"`

	// List names agents to expose directly.
	List []int `json:"list,omitempty"`

	// CountAll makes Count count attempts on agents that weren't
	// susceptible.
	CountAll bool `json:"countAll,omitempty"`
}

// Empty reports whether the Import exposes nobody.
func (im *Import) Empty() bool {
	return im.Count <= 0 && im.PerCapita <= 0 && len(im.List) == 0
}

// Imports evaluates the state's import rules.  The result is nil if
// the state has none.  Import rules are evaluated with no agent.
func (h *History) Imports(env *core.Env, state int) *Import {
	s := h.States[state]
	if len(s.Imports) == 0 {
		return nil
	}
	im := &Import{}
	for _, r := range s.Imports {
		if !r.Guard(env, nil) {
			continue
		}
		switch r.Action {
		case core.ActImportCount:
			im.Count = int(r.Expr.Eval(env, nil, nil))
		case core.ActImportPerCapita:
			im.PerCapita = r.Expr.Eval(env, nil, nil)
		case core.ActImportLocation:
			im.Location = true
			im.Lat = r.Expr.Eval(env, nil, nil)
			im.Lon = r.Expr2.Eval(env, nil, nil)
			im.Radius = r.Expr3.Eval(env, nil, nil)
		case core.ActImportCensusTract:
			im.Tract = int64(r.Expr.Eval(env, nil, nil))
		case core.ActImportAges:
			im.Ages = true
			im.MinAge = r.Expr.Eval(env, nil, nil)
			im.MaxAge = r.Expr2.Eval(env, nil, nil)
		case core.ActImportList:
			for _, x := range r.Expr.EvalList(env, nil, nil) {
				im.List = append(im.List, int(x))
			}
		case core.ActCountAllImportAttempts:
			im.CountAll = true
		}
	}
	return im
}

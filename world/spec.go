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

package world

import (
	"fmt"
	"time"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/core"
)

// PlaceSpec describes one place.
type PlaceSpec struct {
	ID          int     `json:"id" yaml:"id"`
	Type        string  `json:"type" yaml:"type"`
	Income      float64 `json:"income,omitempty" yaml:",omitempty"`
	Elevation   float64 `json:"elevation,omitempty" yaml:",omitempty"`
	Lat         float64 `json:"lat,omitempty" yaml:",omitempty"`
	Lon         float64 `json:"lon,omitempty" yaml:",omitempty"`
	BlockGroup  int64   `json:"blockGroup,omitempty" yaml:"blockGroup,omitempty"`
	ADIState    int     `json:"adiState,omitempty" yaml:"adiState,omitempty"`
	ADINational int     `json:"adiNational,omitempty" yaml:"adiNational,omitempty"`
	Closed      bool    `json:"closed,omitempty" yaml:",omitempty"`
}

// AgentSpec describes one agent.
type AgentSpec struct {
	ID  int `json:"id" yaml:"id"`
	Age int `json:"age" yaml:"age"`
	// Sex is "M" or "F".
	Sex          string   `json:"sex,omitempty" yaml:",omitempty"`
	Race         int      `json:"race,omitempty" yaml:",omitempty"`
	Profile      int      `json:"profile,omitempty" yaml:",omitempty"`
	Relationship int      `json:"relationship,omitempty" yaml:",omitempty"`
	Children     int      `json:"children,omitempty" yaml:",omitempty"`
	Traits       []string `json:"traits,omitempty" yaml:",omitempty"`

	Vars  map[string]float64   `json:"vars,omitempty" yaml:",omitempty"`
	Lists map[string][]float64 `json:"lists,omitempty" yaml:",omitempty"`

	// Places gives the id of the agent's place for each place
	// type it belongs to.
	Places map[string]int `json:"places,omitempty" yaml:",omitempty"`

	// Admin and Host name the place types where the agent is the
	// admin or a host.
	Admin []string `json:"admin,omitempty" yaml:",omitempty"`
	Host  []string `json:"host,omitempty" yaml:",omitempty"`

	// States gives initial states by condition name.
	States map[string]string `json:"states,omitempty" yaml:",omitempty"`
}

// EdgeSpec is one network link.
type EdgeSpec struct {
	Network string  `json:"network" yaml:"network"`
	From    int     `json:"from" yaml:"from"`
	To      int     `json:"to" yaml:"to"`
	Weight  float64 `json:"weight,omitempty" yaml:",omitempty"`
}

// Spec describes a population.
type Spec struct {
	Places []*PlaceSpec `json:"places,omitempty" yaml:",omitempty"`
	Agents []*AgentSpec `json:"agents,omitempty" yaml:",omitempty"`
	Edges  []*EdgeSpec  `json:"edges,omitempty" yaml:",omitempty"`

	Globals     map[string]float64   `json:"globals,omitempty" yaml:",omitempty"`
	GlobalLists map[string][]float64 `json:"globalLists,omitempty" yaml:"globalLists,omitempty"`
}

var traitNames = map[string]core.Trait{
	"student":                      core.Student,
	"import_agent":                 core.ImportAgent,
	"employed":                     core.Employed,
	"unemployed":                   core.Unemployed,
	"teacher":                      core.Teacher,
	"retired":                      core.Retired,
	"group_quarters":               core.GroupQuartersResident,
	"college_dorm":                 core.CollegeDormResident,
	"nursing_home":                 core.NursingHomeResident,
	"military_base":                core.MilitaryBaseResident,
	"prisoner":                     core.Prisoner,
	"householder":                  core.Householder,
	"low_vaccination_school_house": core.HouseholdInLowVaccinationSchool,
	"household_refuses_vaccines":   core.HouseholdRefusesVaccines,
	"low_vaccination_school":       core.AttendsLowVaccinationSchool,
	"refuses_vaccine":              core.RefusesVaccine,
	"ineligible_for_vaccine":       core.IneligibleForVaccine,
	"received_vaccine":             core.ReceivedVaccine,
}

// ParseTrait returns the trait with the given name.
func ParseTrait(name string) (core.Trait, bool) {
	t, have := traitNames[name]
	return t, have
}

// Build makes a World from the Spec.  Place ids in the Spec are
// mapped to the World's own group ids.
func (s *Spec) Build(reg *core.Registry, start time.Time) (*World, error) {
	w := New(reg, start)

	places := make(map[int]int, len(s.Places))
	for _, ps := range s.Places {
		gt := reg.PlaceTypeID(ps.Type)
		if gt < 0 {
			return nil, fmt.Errorf("place %d: unknown place type %q", ps.ID, ps.Type)
		}
		if _, have := places[ps.ID]; have {
			return nil, fmt.Errorf("place %d: %w", ps.ID, core.ErrDuplicateName)
		}
		g := w.AddPlace(gt)
		g.income = ps.Income
		g.elevation = ps.Elevation
		g.lat, g.lon = ps.Lat, ps.Lon
		g.blockGroup = ps.BlockGroup
		g.adiState, g.adiNational = ps.ADIState, ps.ADINational
		g.closed = ps.Closed
		places[ps.ID] = g.id
	}

	for _, as := range s.Agents {
		if err := w.addAgentSpec(as, places); err != nil {
			return nil, fmt.Errorf("agent %d: %w", as.ID, err)
		}
	}

	for _, e := range s.Edges {
		net := reg.NetworkID(e.Network)
		if net < 0 {
			return nil, fmt.Errorf("unknown network %q", e.Network)
		}
		weight := e.Weight
		if weight == 0 {
			weight = 1
		}
		w.AddEdge(net, e.From, e.To, weight)
	}

	for name, x := range s.Globals {
		id := reg.GlobalVarID(name)
		if id < 0 {
			return nil, fmt.Errorf("unknown global variable %q", name)
		}
		w.SetGlobalVar(id, x)
	}
	for name, xs := range s.GlobalLists {
		id := reg.GlobalListVarID(name)
		if id < 0 {
			return nil, fmt.Errorf("unknown global list variable %q", name)
		}
		w.SetGlobalListVar(id, xs)
	}

	return w, nil
}

func (w *World) addAgentSpec(as *AgentSpec, places map[int]int) error {
	reg := w.reg
	if w.agent(as.ID) != nil {
		return core.ErrDuplicateName
	}
	a := w.AddAgent(as.ID)
	a.birthDay = -365 * as.Age
	if as.Sex == "M" {
		a.sex = 'M'
	}
	a.race = as.Race
	a.profile = as.Profile
	a.relationship = as.Relationship
	a.children = as.Children
	for _, name := range as.Traits {
		t, have := ParseTrait(name)
		if !have {
			return fmt.Errorf("unknown trait %q", name)
		}
		a.traits[t] = true
	}
	for name, x := range as.Vars {
		id := reg.AgentVarID(name)
		if id < 0 {
			return fmt.Errorf("unknown variable %q", name)
		}
		a.vars[id] = x
	}
	for name, xs := range as.Lists {
		id := reg.AgentListVarID(name)
		if id < 0 {
			return fmt.Errorf("unknown list variable %q", name)
		}
		a.lists[id] = xs
	}
	for typ, pid := range as.Places {
		gid, have := places[pid]
		if !have {
			return fmt.Errorf("unknown place %d", pid)
		}
		if w.groups[gid].typ != reg.PlaceTypeID(typ) {
			return fmt.Errorf("place %d isn't a %s", pid, typ)
		}
		w.Join(a.id, gid)
	}
	for _, typ := range as.Admin {
		w.SetAdmin(a.id, reg.PlaceTypeID(typ))
	}
	for _, typ := range as.Host {
		if gt := reg.PlaceTypeID(typ); 0 <= gt {
			a.host[gt] = true
		}
	}
	for cname, sname := range as.States {
		c := reg.ConditionID(cname)
		if c < 0 {
			return fmt.Errorf("unknown condition %q", cname)
		}
		s := reg.StateID(c, sname)
		if s < 0 {
			return fmt.Errorf("unknown state %q of %s", sname, cname)
		}
		a.enter(c, s, 0)
	}
	return nil
}

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
	"fmt"
)

// GroupKind distinguishes places from networks.
type GroupKind int

const (
	PlaceKind GroupKind = iota
	NetworkKind
)

func (k GroupKind) String() string {
	if k == NetworkKind {
		return "network"
	}
	return "place"
}

// GroupType is a registered kind of place or network.
type GroupType struct {
	ID   int
	Name string
	Kind GroupKind

	// Undirected only matters for networks.
	Undirected bool
}

// Condition is a registered condition with its ordered state names.
type Condition struct {
	ID     int
	Name   string
	States []string

	stateIndex map[string]int
}

// StateID returns the id of the named state or -1.
func (c *Condition) StateID(name string) int {
	if id, have := c.stateIndex[name]; have {
		return id
	}
	return -1
}

type nameTable struct {
	names []string
	index map[string]int
}

func (t *nameTable) add(name string) (int, error) {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if _, have := t.index[name]; have {
		return -1, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	id := len(t.names)
	t.names = append(t.names, name)
	t.index[name] = id
	return id, nil
}

func (t *nameTable) id(name string) int {
	if id, have := t.index[name]; have {
		return id
	}
	return -1
}

func (t *nameTable) name(id int) string {
	if id < 0 || len(t.names) <= id {
		return ""
	}
	return t.names[id]
}

// Registry is the symbol table that every parse and compile consults.
//
// A Registry is written by a single goroutine during setup and then
// sealed.  After Seal, it is read-only and safe for concurrent use.
// Lookups return -1 for unknown names.
type Registry struct {
	sealed bool

	conditions []*Condition
	condIndex  map[string]int

	groups     []*GroupType
	groupIndex map[string]int

	agentVars   nameTable
	globalVars  nameTable
	agentLists  nameTable
	globalLists nameTable
}

// NewRegistry makes an empty, unsealed Registry.
func NewRegistry() *Registry {
	return &Registry{
		condIndex:  make(map[string]int),
		groupIndex: make(map[string]int),
	}
}

// Seal ends the setup phase.
func (r *Registry) Seal() {
	r.sealed = true
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	return r.sealed
}

func (r *Registry) check() error {
	if r.sealed {
		return ErrSealed
	}
	return nil
}

// AddCondition registers a condition and its states in order.
func (r *Registry) AddCondition(name string, states ...string) (int, error) {
	if err := r.check(); err != nil {
		return -1, err
	}
	if _, have := r.condIndex[name]; have {
		return -1, fmt.Errorf("%w: condition %q", ErrDuplicateName, name)
	}
	c := &Condition{
		ID:         len(r.conditions),
		Name:       name,
		States:     append([]string(nil), states...),
		stateIndex: make(map[string]int, len(states)),
	}
	for i, s := range states {
		if _, have := c.stateIndex[s]; have {
			return -1, fmt.Errorf("%w: state %q in condition %q", ErrDuplicateName, s, name)
		}
		c.stateIndex[s] = i
	}
	r.conditions = append(r.conditions, c)
	r.condIndex[name] = c.ID
	return c.ID, nil
}

func (r *Registry) addGroup(name string, kind GroupKind, undirected bool) (int, error) {
	if err := r.check(); err != nil {
		return -1, err
	}
	if _, have := r.groupIndex[name]; have {
		return -1, fmt.Errorf("%w: group type %q", ErrDuplicateName, name)
	}
	g := &GroupType{
		ID:         len(r.groups),
		Name:       name,
		Kind:       kind,
		Undirected: undirected,
	}
	r.groups = append(r.groups, g)
	r.groupIndex[name] = g.ID
	return g.ID, nil
}

// AddPlaceType registers a place type such as "Household".
func (r *Registry) AddPlaceType(name string) (int, error) {
	return r.addGroup(name, PlaceKind, false)
}

// AddNetwork registers a network type.
func (r *Registry) AddNetwork(name string, undirected bool) (int, error) {
	return r.addGroup(name, NetworkKind, undirected)
}

// AddAgentVar registers an agent-scoped scalar variable.
func (r *Registry) AddAgentVar(name string) (int, error) {
	if err := r.check(); err != nil {
		return -1, err
	}
	return r.agentVars.add(name)
}

// AddGlobalVar registers a global scalar variable.
func (r *Registry) AddGlobalVar(name string) (int, error) {
	if err := r.check(); err != nil {
		return -1, err
	}
	return r.globalVars.add(name)
}

// AddAgentListVar registers an agent-scoped list variable.
func (r *Registry) AddAgentListVar(name string) (int, error) {
	if err := r.check(); err != nil {
		return -1, err
	}
	return r.agentLists.add(name)
}

// AddGlobalListVar registers a global list variable.
func (r *Registry) AddGlobalListVar(name string) (int, error) {
	if err := r.check(); err != nil {
		return -1, err
	}
	return r.globalLists.add(name)
}

func (r *Registry) ConditionID(name string) int {
	if id, have := r.condIndex[name]; have {
		return id
	}
	return -1
}

// Condition returns the condition with the given id or nil.
func (r *Registry) Condition(id int) *Condition {
	if id < 0 || len(r.conditions) <= id {
		return nil
	}
	return r.conditions[id]
}

func (r *Registry) ConditionName(id int) string {
	if c := r.Condition(id); c != nil {
		return c.Name
	}
	return ""
}

func (r *Registry) NumConditions() int {
	return len(r.conditions)
}

// StateID returns the id of the named state of the given condition
// or -1.
func (r *Registry) StateID(cond int, name string) int {
	if c := r.Condition(cond); c != nil {
		return c.StateID(name)
	}
	return -1
}

func (r *Registry) StateName(cond, state int) string {
	c := r.Condition(cond)
	if c == nil || state < 0 || len(c.States) <= state {
		return ""
	}
	return c.States[state]
}

func (r *Registry) NumStates(cond int) int {
	if c := r.Condition(cond); c != nil {
		return len(c.States)
	}
	return 0
}

// GroupTypeID returns the id of the named place or network type, or
// -1.
func (r *Registry) GroupTypeID(name string) int {
	if id, have := r.groupIndex[name]; have {
		return id
	}
	return -1
}

// GroupType returns the group type with the given id or nil.
func (r *Registry) GroupType(id int) *GroupType {
	if id < 0 || len(r.groups) <= id {
		return nil
	}
	return r.groups[id]
}

func (r *Registry) GroupTypeName(id int) string {
	if g := r.GroupType(id); g != nil {
		return g.Name
	}
	return ""
}

func (r *Registry) NumGroupTypes() int {
	return len(r.groups)
}

// IsPlaceType reports whether id names a place type.
func (r *Registry) IsPlaceType(id int) bool {
	g := r.GroupType(id)
	return g != nil && g.Kind == PlaceKind
}

// IsNetwork reports whether id names a network type.
func (r *Registry) IsNetwork(id int) bool {
	g := r.GroupType(id)
	return g != nil && g.Kind == NetworkKind
}

// PlaceTypeID returns the id of a place type (not a network) or -1.
func (r *Registry) PlaceTypeID(name string) int {
	id := r.GroupTypeID(name)
	if !r.IsPlaceType(id) {
		return -1
	}
	return id
}

// NetworkID returns the id of a network type or -1.
func (r *Registry) NetworkID(name string) int {
	id := r.GroupTypeID(name)
	if !r.IsNetwork(id) {
		return -1
	}
	return id
}

func (r *Registry) AgentVarID(name string) int      { return r.agentVars.id(name) }
func (r *Registry) GlobalVarID(name string) int     { return r.globalVars.id(name) }
func (r *Registry) AgentListVarID(name string) int  { return r.agentLists.id(name) }
func (r *Registry) GlobalListVarID(name string) int { return r.globalLists.id(name) }

func (r *Registry) AgentVarName(id int) string      { return r.agentVars.name(id) }
func (r *Registry) GlobalVarName(id int) string     { return r.globalVars.name(id) }
func (r *Registry) AgentListVarName(id int) string  { return r.agentLists.name(id) }
func (r *Registry) GlobalListVarName(id int) string { return r.globalLists.name(id) }

func (r *Registry) NumAgentVars() int      { return len(r.agentVars.names) }
func (r *Registry) NumGlobalVars() int     { return len(r.globalVars.names) }
func (r *Registry) NumAgentListVars() int  { return len(r.agentLists.names) }
func (r *Registry) NumGlobalListVars() int { return len(r.globalLists.names) }

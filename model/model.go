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

// Package model reads model files and compiles them into Programs.
//
// A model file is YAML (or JSON) that names everything the rule
// language can refer to (conditions and their states, place types,
// networks, and variables) and carries the rules themselves.  It may
// also carry a population.
package model

import (
	"context"
	"fmt"
	"time"

	"github.com/jsccast/yaml"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/core"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/history"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/util"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/world"
)

// DateLayout is the layout of a model's start date.
const DateLayout = "2006-01-02"

// NetworkSpec declares a network.
type NetworkSpec struct {
	Name       string `json:"name" yaml:"name"`
	Undirected bool   `json:"undirected,omitempty" yaml:",omitempty"`
}

// Model is a model file.
type Model struct {
	Name string `json:"name" yaml:"name"`
	Doc  string `json:"doc,omitempty" yaml:",omitempty"`

	// Start is the calendar date of sim day 0 (YYYY-MM-DD).  The
	// default is January 1, 2020.
	Start string `json:"start,omitempty" yaml:",omitempty"`

	Seed int64 `json:"seed,omitempty" yaml:",omitempty"`
	Days int   `json:"days,omitempty" yaml:",omitempty"`

	PlaceTypes []string       `json:"placeTypes,omitempty" yaml:"placeTypes,omitempty"`
	Networks   []*NetworkSpec `json:"networks,omitempty" yaml:",omitempty"`

	Vars           []string `json:"vars,omitempty" yaml:",omitempty"`
	GlobalVars     []string `json:"globalVars,omitempty" yaml:"globalVars,omitempty"`
	ListVars       []string `json:"listVars,omitempty" yaml:"listVars,omitempty"`
	GlobalListVars []string `json:"globalListVars,omitempty" yaml:"globalListVars,omitempty"`

	Conditions []*history.Spec `json:"conditions" yaml:"conditions"`

	// Rules are free-standing rules.  They are assigned to
	// conditions by the condition they name.
	Rules []string `json:"rules,omitempty" yaml:",omitempty"`

	Population *world.Spec `json:"population,omitempty" yaml:",omitempty"`
}

// Parse reads a Model from YAML or JSON.
func Parse(bs []byte) (*Model, error) {
	var m Model
	if err := yaml.Unmarshal(bs, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads a Model from a file after inlining any files it names
// with '%inline("NAME")'.
func Load(filename string) (*Model, error) {
	bs, err := ReadFileWithInlines(filename)
	if err != nil {
		return nil, err
	}
	m, err := Parse(bs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return m, nil
}

// StartDate parses the Model's Start.
func (m *Model) StartDate() (time.Time, error) {
	if m.Start == "" {
		return time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse(DateLayout, m.Start)
}

// Registry builds and seals the Registry for the Model.
func (m *Model) Registry() (*core.Registry, error) {
	reg := core.NewRegistry()
	for _, c := range m.Conditions {
		if _, err := reg.AddCondition(c.Name, c.StateNames()...); err != nil {
			return nil, fmt.Errorf("condition %s: %w", c.Name, err)
		}
	}
	for _, name := range m.PlaceTypes {
		if _, err := reg.AddPlaceType(name); err != nil {
			return nil, fmt.Errorf("place type %s: %w", name, err)
		}
	}
	for _, n := range m.Networks {
		if _, err := reg.AddNetwork(n.Name, n.Undirected); err != nil {
			return nil, fmt.Errorf("network %s: %w", n.Name, err)
		}
	}
	for _, vs := range []struct {
		names []string
		add   func(string) (int, error)
	}{
		{m.Vars, reg.AddAgentVar},
		{m.GlobalVars, reg.AddGlobalVar},
		{m.ListVars, reg.AddAgentListVar},
		{m.GlobalListVars, reg.AddGlobalListVar},
	} {
		for _, name := range vs.names {
			if _, err := vs.add(name); err != nil {
				return nil, fmt.Errorf("variable %s: %w", name, err)
			}
		}
	}
	reg.Seal()
	return reg, nil
}

// Program is a compiled Model.
type Program struct {
	Model    *Model
	Registry *core.Registry
	Start    time.Time

	// Rules are all of the Model's rules in order: each
	// condition's rules followed by the free-standing rules.
	Rules []*core.Rule

	Histories []*history.History

	// Errors are the rules' parse and compile errors.  They don't
	// stop compilation.
	Errors []error
}

// Compile builds the registry, compiles every rule, and builds every
// condition's History.
//
// A rule that doesn't parse or compile is recorded in Errors and left
// unused.  The returned error is for problems with the Model itself.
func (m *Model) Compile(ctx context.Context) (*Program, error) {
	start, err := m.StartDate()
	if err != nil {
		return nil, fmt.Errorf("bad start date: %w", err)
	}
	reg, err := m.Registry()
	if err != nil {
		return nil, err
	}
	p := &Program{
		Model:    m,
		Registry: reg,
		Start:    start,
	}

	var texts []string
	for _, c := range m.Conditions {
		texts = append(texts, c.Rules...)
	}
	texts = append(texts, m.Rules...)

	for _, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r := core.NewRule(text)
		if err := r.Parse(); err == nil {
			err = r.Compile(reg)
			if err != nil {
				p.Errors = append(p.Errors, err)
			}
		} else {
			p.Errors = append(p.Errors, err)
		}
		p.Rules = append(p.Rules, r)
	}

	for id, c := range m.Conditions {
		h, err := history.New(reg, id, c, p.Rules)
		if err != nil {
			return nil, err
		}
		p.Histories = append(p.Histories, h)
	}

	for _, err := range p.Errors {
		if core.IsWarning(err) {
			util.Warnf("%s", err)
		} else {
			util.Logger().Errorf("%s", err)
		}
	}
	util.Logf("compiled %s: %d rules, %d errors", m.Name, len(p.Rules), len(p.Errors))
	return p, nil
}

// HardErrors returns the Errors that aren't warnings.
func (p *Program) HardErrors() []error {
	var acc []error
	for _, err := range p.Errors {
		if !core.IsWarning(err) {
			acc = append(acc, err)
		}
	}
	return acc
}

// Unused returns every rule that no History installed.
func (p *Program) Unused() []*core.Rule {
	var acc []*core.Rule
	for _, r := range p.Rules {
		if !r.Used {
			acc = append(acc, r)
		}
	}
	return acc
}

// History returns the History for the named condition or nil.
func (p *Program) History(name string) *history.History {
	for _, h := range p.Histories {
		if h.Name == name {
			return h
		}
	}
	return nil
}

// World builds the Model's population.
func (p *Program) World() (*world.World, error) {
	spec := p.Model.Population
	if spec == nil {
		spec = &world.Spec{}
	}
	return spec.Build(p.Registry, p.Start)
}

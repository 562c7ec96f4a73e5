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
	"time"
)

// Sentinels returned by evaluation in place of errors.
const (
	// Missing is returned by select() when there's nothing to
	// select.
	Missing = -99999999

	// NoAgent is the id-valued factor result when there is no
	// such agent.
	NoAgent = -999999

	// LogOfNonPositive is log(x) for x <= 0.
	LogOfNonPositive = -1e100

	// NoDistance is dist() for unknown places.
	NoDistance = 9999999
)

// Rand is the injected source of randomness.
//
// *math/rand.Rand satisfies this interface.
type Rand interface {
	Float64() float64
	NormFloat64() float64
	ExpFloat64() float64
}

// Trait is a yes/no property of an agent that the built-in
// zero-argument predicates test.
type Trait int

const (
	Student Trait = iota
	ImportAgent
	Employed
	Unemployed
	Teacher
	Retired
	GroupQuartersResident
	CollegeDormResident
	NursingHomeResident
	MilitaryBaseResident
	Prisoner
	Householder
	HouseholdInLowVaccinationSchool
	HouseholdRefusesVaccines
	AttendsLowVaccinationSchool
	RefusesVaccine
	IneligibleForVaccine
	ReceivedVaccine
)

// Verb selects which count a state count means.
type Verb int

const (
	// Incidence counts entries into the state today.
	Incidence Verb = iota + 1
	// Current counts agents in the state now.
	Current
	// Total counts agents that ever entered the state.
	Total
)

// Direction of a network link relative to the agent.
type Direction int

const (
	Inward Direction = iota
	Outward
)

// Link is one network edge as seen from an agent.
type Link struct {
	Other  int
	Weight float64
	// Timestamp is the sim day the edge was created.
	Timestamp int
}

// Measure selects a place measurement.
type Measure int

const (
	Size Measure = iota + 1
	Income
	Elevation
	SizeQuartile
	IncomeQuartile
	ElevationQuartile
	SizeQuintile
	IncomeQuintile
	ElevationQuintile
	Latitude
	Longitude
)

// AdminLevel selects one of a place's administrative codes.
type AdminLevel int

const (
	BlockGroup AdminLevel = iota
	CensusTract
	County
	State
)

// Agent is the read-only view of one agent that evaluation needs.
type Agent interface {
	ID() int
	BirthYear() int
	AgeInDays() int
	// Age is in whole years.
	Age() int
	// Sex is 'M' or 'F'.
	Sex() byte
	Race() int
	Profile() int
	HouseholdRelationship() int
	NumberOfChildren() int
	Has(Trait) bool

	Var(id int) float64
	ListVar(id int) []float64

	// State returns the agent's current state in the condition.
	State(cond int) int
	// TimeEntered returns the sim hour when the agent last
	// entered the state, or a negative number if never.
	TimeEntered(cond, state int) int
	Susceptibility(cond int) float64
	Transmissibility(cond int) float64
	Transmissions(cond int) int
	// Source returns the id of the agent that transmitted the
	// condition or -1.
	Source(cond int) int
	// ExposureGroupType is the group type where the agent was
	// exposed or -1.
	ExposureGroupType(cond int) int
	ExposedExternally(cond int) bool

	// Group returns the agent's group of the given type or nil.
	Group(groupType int) Group
	IsAdmin(groupType int) bool
	IsHost(groupType int) bool
	// IsPresent reports whether the agent's schedule has it at
	// its group of the given type on the given sim day.
	IsPresent(groupType, day int) bool
	Links(network int, dir Direction) []Link
}

// Group is a place or a network.
type Group interface {
	ID() int
	Type() int
	Size() int
	Members() []int
	// Admin is the id of the administering agent or -1.
	Admin() int
	IsOpen(day int) bool
	StateCount(cond, state int, verb Verb) int
	// Sum totals an agent variable over the members.
	Sum(varID int) float64
	Income() float64
	Elevation() float64
	Latitude() float64
	Longitude() float64
	AdminCode(AdminLevel) int64
	ADIRank(national bool) int
}

// World is the read-only view of the simulation.
type World interface {
	Day() int
	Hour() int
	// Date is today's calendar date.
	Date() time.Time
	Agent(id int) Agent
	Place(id int) Group
	PopulationSize() int
	StateCount(cond, state int, verb Verb) int
	GlobalVar(id int) float64
	GlobalListVar(id int) []float64
	// Quantile returns g's 1-based n-tile among groups of its
	// type for the given measure.
	Quantile(g Group, m Measure, n int) int
}

// Env is what evaluation runs against.
type Env struct {
	World World
	Rand  Rand
}

// Hours is the current sim time in hours.
func (env *Env) Hours() int {
	return 24*env.World.Day() + env.World.Hour()
}

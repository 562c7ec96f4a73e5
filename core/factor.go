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

type factorKind int

const (
	fConst factorKind = iota
	fAgentVar
	fGlobalVar
	fGroupID
	fListSize

	fRandom
	fNormal
	fExponential

	fSimDay
	fSimWeek
	fSimMonth
	fSimYear
	fDayOfWeek
	fDayOfMonth
	fDayOfYear
	fMonth
	fYear
	fDate
	fHour
	fEpiWeek
	fEpiYear

	fID
	fBirthYear
	fAgeInDays
	fAgeInWeeks
	fAgeInMonths
	fAgeInYears
	fAge
	fSex
	fRace
	fProfile
	fHouseholdRelationship
	fNumberOfChildren

	fCurrentState
	fTimeSinceEntering
	fSusceptibility
	fTransmissibility
	fTransmissions
	fSourceID

	fCount
	fSum
	fAverage
	fAdmin
	fMeasure
	fADIRank
	fAdminCode

	fInDegree
	fOutDegree
	fDegree
	fEdgeID

	// two-agent factors
	fConnected
	fEdgeWeight
	fEdgeTimestamp
)

type edgePick int

const (
	pickMaxWeight edgePick = iota
	pickMinWeight
	pickLast
)

// Factor is a leaf of an Expression: a constant or an accessor bound
// to resolved ids.
type Factor struct {
	Name string

	kind   factorKind
	number float64

	cond, state int
	group       int
	varID       int
	global      bool

	verb        Verb
	percent     bool
	excludingMe bool

	measure  Measure
	level    AdminLevel
	national bool
	dir      Direction
	pick     edgePick

	// undirected networks list each link both ways
	undirected bool
}

var simpleFactors = map[string]factorKind{
	"random":                 fRandom,
	"normal":                 fNormal,
	"exponential":            fExponential,
	"sim_day":                fSimDay,
	"sim_week":               fSimWeek,
	"sim_month":              fSimMonth,
	"sim_year":               fSimYear,
	"day_of_week":            fDayOfWeek,
	"day_of_month":           fDayOfMonth,
	"day_of_year":            fDayOfYear,
	"month":                  fMonth,
	"year":                   fYear,
	"date":                   fDate,
	"hour":                   fHour,
	"epi_week":               fEpiWeek,
	"epi_year":               fEpiYear,
	"id":                     fID,
	"birth_year":             fBirthYear,
	"age_in_days":            fAgeInDays,
	"age_in_weeks":           fAgeInWeeks,
	"age_in_months":          fAgeInMonths,
	"age_in_years":           fAgeInYears,
	"age":                    fAge,
	"sex":                    fSex,
	"race":                   fRace,
	"profile":                fProfile,
	"household_relationship": fHouseholdRelationship,
	"number_of_children":     fNumberOfChildren,
}

var measurePrefixes = []struct {
	prefix    string
	measure   Measure
	placeOnly bool
}{
	{"size_of_", Size, false},
	{"income_of_", Income, false},
	{"elevation_of_", Elevation, true},
	{"size_quartile_of_", SizeQuartile, true},
	{"income_quartile_of_", IncomeQuartile, true},
	{"elevation_quartile_of_", ElevationQuartile, true},
	{"size_quintile_of_", SizeQuintile, true},
	{"income_quintile_of_", IncomeQuintile, true},
	{"elevation_quintile_of_", ElevationQuintile, true},
	{"latitude_of_", Latitude, true},
	{"longitude_of_", Longitude, true},
}

var adminCodePrefixes = []struct {
	prefix string
	level  AdminLevel
}{
	{"block_group_of_", BlockGroup},
	{"census_tract_of_", CensusTract},
	{"county_of_", County},
	{"state_of_", State},
}

// CompileFactor resolves a leaf name.
//
// Name shapes are tried in a fixed order and the first match wins.
// Changing the order changes which names are legal.
func CompileFactor(reg *Registry, name string) (*Factor, error) {
	f := &Factor{
		Name:  name,
		cond:  -1,
		state: -1,
		group: -1,
		varID: -1,
	}
	if err := f.resolve(reg); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Factor) unknown(kind, name string, warning bool) error {
	return &UnknownName{
		Kind:    kind,
		Name:    name,
		Text:    f.Name,
		Warning: warning,
	}
}

// condition resolves a condition name.  Unknown conditions are
// warnings.
func (f *Factor) condition(reg *Registry, name string) error {
	f.cond = reg.ConditionID(name)
	if f.cond < 0 {
		return f.unknown("condition", name, true)
	}
	return nil
}

// groupType resolves a group type name.  Unknown groups are errors.
func (f *Factor) groupType(reg *Registry, name string) error {
	f.group = reg.GroupTypeID(name)
	if f.group < 0 {
		return f.unknown("group", name, false)
	}
	return nil
}

func (f *Factor) placeType(reg *Registry, name string) error {
	if err := f.groupType(reg, name); err != nil {
		return err
	}
	if !reg.IsPlaceType(f.group) {
		return f.unknown("place type", name, false)
	}
	return nil
}

func (f *Factor) network(reg *Registry, name string) error {
	f.group = reg.NetworkID(name)
	if f.group < 0 {
		return f.unknown("network", name, false)
	}
	f.undirected = reg.GroupType(f.group).Undirected
	return nil
}

func (f *Factor) resolve(reg *Registry) error {
	name := f.Name

	if name == "" {
		f.kind = fConst
		return nil
	}
	if scan.IsNumber(name) {
		n, err := strconv.ParseFloat(name, 64)
		if err != nil {
			return parseErr(name, "bad number")
		}
		f.kind, f.number = fConst, n
		return nil
	}

	if id := reg.AgentVarID(name); 0 <= id {
		f.kind, f.varID = fAgentVar, id
		return nil
	}
	if id := reg.GlobalVarID(name); 0 <= id {
		f.kind, f.varID, f.global = fGlobalVar, id, true
		return nil
	}

	if id := reg.GroupTypeID(name); 0 <= id {
		f.kind, f.group = fGroupID, id
		return nil
	}

	if rest := strings.TrimPrefix(name, "list_size_of_"); rest != name {
		if id := reg.AgentListVarID(rest); 0 <= id {
			f.kind, f.varID = fListSize, id
			return nil
		}
		if id := reg.GlobalListVarID(rest); 0 <= id {
			f.kind, f.varID, f.global = fListSize, id, true
			return nil
		}
		return f.unknown("list variable", rest, false)
	}

	if k, have := simpleFactors[name]; have {
		f.kind = k
		return nil
	}

	if rest := strings.TrimPrefix(name, "current_state_in_"); rest != name {
		f.kind = fCurrentState
		return f.condition(reg, rest)
	}

	if rest := strings.TrimPrefix(name, "time_since_entering_"); rest != name {
		f.kind = fTimeSinceEntering
		return f.conditionState(reg, rest)
	}

	if rest := strings.TrimPrefix(name, "susceptibility_to_"); rest != name {
		f.kind = fSusceptibility
		return f.condition(reg, rest)
	}

	if rest := strings.TrimPrefix(name, "transmissibility_for_"); rest != name {
		f.kind = fTransmissibility
		return f.condition(reg, rest)
	}
	if rest := strings.TrimPrefix(name, "transmissibility_of_"); rest != name {
		f.kind = fTransmissibility
		return f.condition(reg, rest)
	}

	if rest := strings.TrimPrefix(name, "transmissions_of_"); rest != name {
		f.kind = fTransmissions
		return f.condition(reg, rest)
	}

	if rest := strings.TrimPrefix(name, "id_of_source_of_"); rest != name {
		f.kind = fSourceID
		return f.condition(reg, rest)
	}

	if isCountName(name) {
		return f.resolveCount(reg)
	}

	if rest := strings.TrimPrefix(name, "sum_of_"); rest != name {
		f.kind = fSum
		return f.resolveVarInGroup(reg, rest)
	}
	if rest := strings.TrimPrefix(name, "ave_of_"); rest != name {
		f.kind = fAverage
		return f.resolveVarInGroup(reg, rest)
	}

	if rest := strings.TrimPrefix(name, "admin_of_"); rest != name {
		f.kind = fAdmin
		return f.groupType(reg, rest)
	}

	for _, m := range measurePrefixes {
		if rest := strings.TrimPrefix(name, m.prefix); rest != name {
			f.kind, f.measure = fMeasure, m.measure
			if m.placeOnly {
				return f.placeType(reg, rest)
			}
			return f.groupType(reg, rest)
		}
	}

	if rest := strings.TrimPrefix(name, "adi_state_rank_of_"); rest != name {
		f.kind = fADIRank
		return f.placeType(reg, rest)
	}
	if rest := strings.TrimPrefix(name, "adi_national_rank_of_"); rest != name {
		f.kind, f.national = fADIRank, true
		return f.placeType(reg, rest)
	}

	for _, a := range adminCodePrefixes {
		if rest := strings.TrimPrefix(name, a.prefix); rest != name {
			f.kind, f.level = fAdminCode, a.level
			return f.placeType(reg, rest)
		}
	}

	if rest := strings.TrimPrefix(name, "in_degree_of_"); rest != name {
		f.kind = fInDegree
		return f.network(reg, rest)
	}
	if rest := strings.TrimPrefix(name, "out_degree_of_"); rest != name {
		f.kind = fOutDegree
		return f.network(reg, rest)
	}
	if rest := strings.TrimPrefix(name, "degree_of_"); rest != name {
		f.kind = fDegree
		return f.network(reg, rest)
	}

	if strings.HasPrefix(name, "id_of_") && strings.Contains(name, "_edge_in_") {
		return f.resolveEdgeID(reg)
	}

	for _, tw := range []struct {
		prefix string
		kind   factorKind
	}{
		{"is_connected_in_", fConnected},
		{"edge_weight_in_", fEdgeWeight},
		{"edge_timestamp_in_", fEdgeTimestamp},
	} {
		if rest := strings.TrimPrefix(name, tw.prefix); rest != name {
			f.kind = tw.kind
			return f.network(reg, rest)
		}
	}

	return f.unknown("factor", name, false)
}

// conditionState resolves "COND.STATE".
func (f *Factor) conditionState(reg *Registry, s string) error {
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return parseErr(f.Name, "expected CONDITION.STATE")
	}
	if err := f.condition(reg, s[:i]); err != nil {
		return err
	}
	f.state = reg.StateID(f.cond, s[i+1:])
	if f.state < 0 {
		return f.unknown("state", s[i+1:], true)
	}
	return nil
}

func isCountName(name string) bool {
	verb := strings.Contains(name, "incidence_") ||
		strings.Contains(name, "current_") ||
		strings.Contains(name, "total_")
	what := strings.Contains(name, "_count_") ||
		strings.Contains(name, "_percent_")
	return verb && what
}

// resolveCount handles VERB_(count|percent)_of_COND.STATE[_in_GROUP][_excluding_me].
func (f *Factor) resolveCount(reg *Registry) error {
	name := f.Name
	f.kind = fCount
	switch {
	case strings.Contains(name, "incidence_"):
		f.verb = Incidence
	case strings.Contains(name, "current_"):
		f.verb = Current
	default:
		f.verb = Total
	}
	f.percent = !strings.Contains(name, "_count_")

	i := strings.Index(name, "_of_")
	if i < 0 {
		return parseErr(name, "count needs _of_")
	}
	rest := name[i+len("_of_"):]
	dot := strings.IndexByte(rest, '.')
	if dot < 0 {
		return parseErr(name, "count needs CONDITION.STATE")
	}
	cond, rest := rest[:dot], rest[dot+1:]

	if r := strings.TrimSuffix(rest, "_excluding_me"); r != rest {
		f.excludingMe = true
		rest = r
	}
	state := rest
	var group string
	if j := strings.Index(rest, "_in_"); 0 <= j {
		state, group = rest[:j], rest[j+len("_in_"):]
	}

	if err := f.condition(reg, cond); err != nil {
		return err
	}
	if f.state = reg.StateID(f.cond, state); f.state < 0 {
		return f.unknown("state", state, true)
	}
	if group != "" {
		return f.groupType(reg, group)
	}
	return nil
}

// resolveVarInGroup handles VAR_in_GROUP.
func (f *Factor) resolveVarInGroup(reg *Registry, s string) error {
	i := strings.LastIndex(s, "_in_")
	if i < 0 {
		return parseErr(f.Name, "expected VAR_in_GROUP")
	}
	v, g := s[:i], s[i+len("_in_"):]
	if f.varID = reg.AgentVarID(v); f.varID < 0 {
		return f.unknown("variable", v, false)
	}
	return f.groupType(reg, g)
}

// resolveEdgeID handles id_of_(max_weight|min_weight|last)_(inward|outward)_edge_in_NET.
func (f *Factor) resolveEdgeID(reg *Registry) error {
	f.kind = fEdgeID
	s := strings.TrimPrefix(f.Name, "id_of_")
	switch {
	case strings.HasPrefix(s, "max_weight_"):
		f.pick, s = pickMaxWeight, strings.TrimPrefix(s, "max_weight_")
	case strings.HasPrefix(s, "min_weight_"):
		f.pick, s = pickMinWeight, strings.TrimPrefix(s, "min_weight_")
	case strings.HasPrefix(s, "last_"):
		f.pick, s = pickLast, strings.TrimPrefix(s, "last_")
	default:
		return f.unknown("factor", f.Name, false)
	}
	switch {
	case strings.HasPrefix(s, "inward_edge_in_"):
		f.dir, s = Inward, strings.TrimPrefix(s, "inward_edge_in_")
	case strings.HasPrefix(s, "outward_edge_in_"):
		f.dir, s = Outward, strings.TrimPrefix(s, "outward_edge_in_")
	default:
		return f.unknown("factor", f.Name, false)
	}
	return f.network(reg, s)
}

// IsTwoAgent reports whether the Factor needs a second agent.
func (f *Factor) IsTwoAgent() bool {
	switch f.kind {
	case fConnected, fEdgeWeight, fEdgeTimestamp:
		return true
	}
	return false
}

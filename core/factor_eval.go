package core

// Eval evaluates the Factor for agent a.  other is only used by
// two-agent factors.  Missing agents, groups, or links give the
// documented sentinel for each kind, never an error.
func (f *Factor) Eval(env *Env, a, other Agent) float64 {
	w := env.World
	switch f.kind {
	case fConst:
		return f.number
	case fGlobalVar:
		return w.GlobalVar(f.varID)
	case fRandom:
		return drawUniform(env.Rand, -1, 1)
	case fNormal:
		return env.Rand.NormFloat64()
	case fExponential:
		return env.Rand.ExpFloat64()
	case fSimDay:
		return float64(w.Day())
	case fSimWeek:
		return float64(w.Day() / 7)
	case fSimMonth:
		return float64(w.Day() / 30)
	case fSimYear:
		return float64(w.Day() / 365)
	case fDayOfWeek:
		return float64(w.Date().Weekday())
	case fDayOfMonth:
		return float64(w.Date().Day())
	case fDayOfYear:
		return float64(w.Date().YearDay())
	case fMonth:
		return float64(w.Date().Month())
	case fYear:
		return float64(w.Date().Year())
	case fDate:
		return float64(DateCode(w.Date()))
	case fHour:
		return float64(w.Hour())
	case fEpiWeek:
		week, _ := EpiWeek(w.Date())
		return float64(week)
	case fEpiYear:
		_, year := EpiWeek(w.Date())
		return float64(year)
	case fCount:
		if f.group < 0 {
			return f.populationCount(env, a)
		}
	case fListSize:
		if f.global {
			return float64(len(w.GlobalListVar(f.varID)))
		}
	}

	if a == nil {
		return f.noAgent()
	}

	switch f.kind {
	case fAgentVar:
		return a.Var(f.varID)
	case fListSize:
		return float64(len(a.ListVar(f.varID)))
	case fGroupID:
		if g := a.Group(f.group); g != nil {
			return float64(g.ID())
		}
		return -1
	case fID:
		return float64(a.ID())
	case fBirthYear:
		return float64(a.BirthYear())
	case fAgeInDays:
		return float64(a.AgeInDays())
	case fAgeInWeeks:
		return float64(a.AgeInDays() / 7)
	case fAgeInMonths:
		return float64(a.AgeInDays() / 30)
	case fAgeInYears:
		return float64(a.AgeInDays()) / 365
	case fAge:
		return float64(a.Age())
	case fSex:
		if a.Sex() == 'M' {
			return 1
		}
		return 0
	case fRace:
		return float64(a.Race())
	case fProfile:
		return float64(a.Profile())
	case fHouseholdRelationship:
		return float64(a.HouseholdRelationship())
	case fNumberOfChildren:
		return float64(a.NumberOfChildren())

	case fCurrentState:
		return float64(a.State(f.cond))
	case fTimeSinceEntering:
		entered := a.TimeEntered(f.cond, f.state)
		if entered < 0 {
			return float64(entered)
		}
		return float64(env.Hours() - entered)
	case fSusceptibility:
		return a.Susceptibility(f.cond)
	case fTransmissibility:
		return a.Transmissibility(f.cond)
	case fTransmissions:
		return float64(a.Transmissions(f.cond))
	case fSourceID:
		if id := a.Source(f.cond); 0 <= id {
			return float64(id)
		}
		return NoAgent

	case fCount:
		return f.groupCount(a)
	case fSum, fAverage:
		g := a.Group(f.group)
		if g == nil {
			return 0
		}
		sum := g.Sum(f.varID)
		if f.kind == fAverage {
			if n := g.Size(); 0 < n {
				return sum / float64(n)
			}
		}
		return sum
	case fAdmin:
		if g := a.Group(f.group); g != nil {
			return float64(g.Admin())
		}
		return -1
	case fMeasure:
		return f.evalMeasure(env, a.Group(f.group))
	case fADIRank:
		if g := a.Group(f.group); g != nil {
			return float64(g.ADIRank(f.national))
		}
		return 0
	case fAdminCode:
		if g := a.Group(f.group); g != nil {
			return float64(g.AdminCode(f.level))
		}
		return 0

	case fInDegree:
		return float64(len(a.Links(f.group, Inward)))
	case fOutDegree:
		return float64(len(a.Links(f.group, Outward)))
	case fDegree:
		n := len(a.Links(f.group, Inward))
		if !f.undirected {
			n += len(a.Links(f.group, Outward))
		}
		return float64(n)
	case fEdgeID:
		return f.edgeID(a)

	case fConnected, fEdgeWeight, fEdgeTimestamp:
		return f.edge(a, other)
	}
	return 0
}

// noAgent is what an agent-based Factor gives without an agent.
func (f *Factor) noAgent() float64 {
	switch f.kind {
	case fGroupID, fAdmin:
		return -1
	case fSourceID, fEdgeID:
		return NoAgent
	case fEdgeTimestamp:
		return -1
	}
	return 0
}

func (f *Factor) percentOf(count, size int) float64 {
	if !f.percent {
		return float64(count)
	}
	if size == 0 {
		return 0
	}
	return 100 * float64(count) / float64(size)
}

func (f *Factor) excluding(a Agent, count int) int {
	if f.excludingMe && a != nil && a.State(f.cond) == f.state {
		count--
	}
	return count
}

func (f *Factor) populationCount(env *Env, a Agent) float64 {
	w := env.World
	count := f.excluding(a, w.StateCount(f.cond, f.state, f.verb))
	return f.percentOf(count, w.PopulationSize())
}

func (f *Factor) groupCount(a Agent) float64 {
	g := a.Group(f.group)
	if g == nil {
		return 0
	}
	count := f.excluding(a, g.StateCount(f.cond, f.state, f.verb))
	return f.percentOf(count, g.Size())
}

func (f *Factor) evalMeasure(env *Env, g Group) float64 {
	if g == nil {
		return 0
	}
	switch f.measure {
	case Size:
		return float64(g.Size())
	case Income:
		return g.Income()
	case Elevation:
		return g.Elevation()
	case Latitude:
		return g.Latitude()
	case Longitude:
		return g.Longitude()
	case SizeQuartile, IncomeQuartile, ElevationQuartile:
		return float64(env.World.Quantile(g, f.measure, 4))
	case SizeQuintile, IncomeQuintile, ElevationQuintile:
		return float64(env.World.Quantile(g, f.measure, 5))
	}
	return 0
}

func (f *Factor) edgeID(a Agent) float64 {
	links := a.Links(f.group, f.dir)
	best := -1
	for i, l := range links {
		if best < 0 {
			best = i
			continue
		}
		b := links[best]
		switch f.pick {
		case pickMaxWeight:
			if b.Weight < l.Weight {
				best = i
			}
		case pickMinWeight:
			if l.Weight < b.Weight {
				best = i
			}
		case pickLast:
			if b.Timestamp <= l.Timestamp {
				best = i
			}
		}
	}
	if best < 0 {
		return NoAgent
	}
	return float64(links[best].Other)
}

func (f *Factor) edge(a, other Agent) float64 {
	missing := 0.0
	if f.kind == fEdgeTimestamp {
		missing = -1
	}
	if other == nil {
		return missing
	}
	id := other.ID()
	for _, l := range a.Links(f.group, Outward) {
		if l.Other != id {
			continue
		}
		switch f.kind {
		case fConnected:
			return 1
		case fEdgeWeight:
			return l.Weight
		default:
			return float64(l.Timestamp)
		}
	}
	return missing
}

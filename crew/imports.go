package crew

import (
	"context"

	"github.com/PublicHealthDynamicsLab/FRED-sub002/core"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/history"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/util"
	"github.com/PublicHealthDynamicsLab/FRED-sub002/world"
)

// importId is the random stream id of a condition's import agent.
func importId(cond int) int {
	return -1 - cond
}

// stepImport moves a condition's import agent.  Its first step
// enters the import start state.  Entering a state with import rules
// exposes agents.
func (c *Crew) stepImport(ctx context.Context, m *Machine) error {
	var (
		h   = c.Program.Histories[m.Cond]
		env = c.env(importId(m.Cond))
		to  = h.ImportStart
	)
	if 0 <= m.State {
		to = h.Next(env, nil, m.State)
	}

	t := c.record(m, to, CauseImport)
	m.State, m.Entered = to, c.Hour

	if im := h.Imports(env, to); im != nil && !im.Empty() {
		n, err := c.seed(ctx, h, im)
		if err != nil {
			return err
		}
		util.Logf("crew %s hour %d: %s imports exposed %d", c.Id, c.Hour, h.Name, n)
	}

	t.Dwell = h.Dwell(env, nil, to)
	m.wait(c.Hour, t.Dwell)
	return nil
}

// seed exposes agents as the Import asks and returns how many were
// exposed.
//
// Listed agents are exposed first.  Count then exposes that many
// eligible agents picked at random.  With CountAll, every attempt
// counts, even on agents that weren't susceptible.  PerCapita gives
// each eligible agent that chance of exposure.
func (c *Crew) seed(ctx context.Context, h *history.History, im *history.Import) (int, error) {
	if h.ExposedState < 0 {
		util.Warnf("%s has imports but no exposure rule", h.Name)
		return 0, nil
	}

	var (
		n   = 0
		rng = c.rng(importId(h.Cond))
	)
	expose := func(id int) (bool, error) {
		a := c.World.Get(id)
		if a == nil || !c.susceptible(h, a) {
			return false, nil
		}
		a.SetExposure(h.Cond, -1, -1)
		m := c.Machine(id, h.Cond)
		if err := c.apply(ctx, m, h.ExposedState, CauseExposure); err != nil {
			return false, err
		}
		n++
		return true, nil
	}

	for _, id := range im.List {
		if _, err := expose(id); err != nil {
			return n, err
		}
	}

	cands := c.candidates(h, im)

	if 0 < im.Count {
		rng.Shuffle(len(cands), func(i, j int) {
			cands[i], cands[j] = cands[j], cands[i]
		})
		left := im.Count
		for _, id := range cands {
			if left <= 0 {
				break
			}
			ok, err := expose(id)
			if err != nil {
				return n, err
			}
			if ok || im.CountAll {
				left--
			}
		}
	}

	if 0 < im.PerCapita {
		for _, id := range cands {
			if im.PerCapita <= rng.Float64() {
				continue
			}
			if _, err := expose(id); err != nil {
				return n, err
			}
		}
	}

	return n, nil
}

func (c *Crew) susceptible(h *history.History, a *world.Agent) bool {
	return a.Alive() && a.State(h.Cond) == h.Start && 0 < a.Susceptibility(h.Cond)
}

// candidates lists the living agents that pass the Import's location,
// tract, and age limits.  Without CountAll, only susceptible agents
// are candidates.
func (c *Crew) candidates(h *history.History, im *history.Import) []int {
	hh := c.World.Registry().PlaceTypeID("Household")
	var acc []int
	for _, id := range c.World.Alive() {
		a := c.World.Get(id)
		if !im.CountAll && !c.susceptible(h, a) {
			continue
		}
		if im.Ages {
			if age := float64(a.Age()); age < im.MinAge || im.MaxAge < age {
				continue
			}
		}
		if im.Location || im.Tract != 0 {
			g := a.Group(hh)
			if g == nil {
				continue
			}
			if im.Location && im.Radius < core.XYDistance(im.Lat, im.Lon, g.Latitude(), g.Longitude()) {
				continue
			}
			if im.Tract != 0 && g.AdminCode(core.CensusTract) != im.Tract {
				continue
			}
		}
		acc = append(acc, id)
	}
	return acc
}

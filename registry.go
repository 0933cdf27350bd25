package bond

import "slices"

// registry holds the deployed agents in registration order.
// Callers hold the Context mutex.
type registry struct {
	agents []*Agent
}

func (r *registry) add(agents ...*Agent) {
	for _, a := range agents {
		if a != nil {
			r.agents = append(r.agents, a)
		}
	}
}

// remove drops a; it reports whether a was deployed.
func (r *registry) remove(a *Agent) bool {
	i := slices.Index(r.agents, a)
	if i < 0 {
		return false
	}
	r.agents = slices.Delete(r.agents, i, i+1)
	return true
}

// match selects the most recently deployed agent accepting the observation.
// The match counts toward the agent's bound only when its terminal suits
// the call (errCall for SpyErr); agents reaching their bound leave the
// registry.
func (r *registry) match(point string, f Fields, errCall bool) *Agent {
	for i := len(r.agents) - 1; i >= 0; i-- {
		a := r.agents[i]
		if !a.accepts(point, f) {
			continue
		}
		if !a.suits(errCall) {
			return a
		}
		a.matched++
		if a.exhausted() {
			r.agents = slices.Delete(r.agents, i, i+1)
		}
		return a
	}
	return nil
}

func (r *registry) len() int {
	return len(r.agents)
}

func (r *registry) clear() {
	r.agents = nil
}

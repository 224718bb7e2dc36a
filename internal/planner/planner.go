// Package planner finds forward routes between stations.
//
// A route starts at one station and hops forward, each hop covering at most
// the autonomy of the best car parked at the station it leaves from. Among the
// stations able to reach a given station, the one closest to the start wins,
// and the route is rebuilt by following those choices back from the
// destination. Equally short alternatives therefore resolve toward the
// station nearest the start.
package planner

import (
	"errors"
	"fmt"

	"github.com/Kopyshevskiy/highway-path-planner/internal/arena"
	"github.com/Kopyshevskiy/highway-path-planner/internal/station"
)

// ErrNoPath is returned when the destination cannot be reached, when either
// endpoint is unknown, and for every backward query (from > to), which is not
// supported.
var ErrNoPath = errors.New("planner: no path")

// Planner holds scratch buffers reused across calls. Nothing in it carries
// meaning from one call to the next. Not safe for concurrent use.
type Planner struct {
	hops   *arena.Arena[int]
	run    []*station.Station
	parent []int
}

// New returns a planner whose reconstructed routes may hold up to maxHops
// stations. Longer routes exhaust the hop arena, which panics.
func New(maxHops int) *Planner {
	return &Planner{hops: arena.New[int]("path_nodes", maxHops)}
}

// Hops returns the arena route reconstruction draws from.
func (p *Planner) Hops() *arena.Arena[int] { return p.hops }

// Plan returns the distances of the stations on the route from from to to, in
// ascending order.
func (p *Planner) Plan(r *station.Registry, from, to int) ([]int, error) {
	if from == to {
		return []int{from}, nil
	}
	if from > to {
		return nil, fmt.Errorf("%w: backward route %d to %d", ErrNoPath, from, to)
	}
	if r.Lookup(from) == nil || r.Lookup(to) == nil {
		return nil, fmt.Errorf("%w: unknown endpoint in %d to %d", ErrNoPath, from, to)
	}

	p.run = p.run[:0]
	p.parent = p.parent[:0]
	for s := range r.Ascend(from, to) {
		p.run = append(p.run, s)
		p.parent = append(p.parent, -1)
	}
	run, parent := p.run, p.parent
	last := len(run) - 1

	// Stations at index >= frontier have no parent yet. Every hop covers a
	// contiguous range right after its origin, so the assigned stations past
	// any origin are always a prefix and the frontier only moves forward.
	frontier := 1
	for u := 0; u < last && frontier <= last; u++ {
		reach, ok := run[u].Reach()
		if !ok {
			continue
		}
		if frontier <= u {
			frontier = u + 1
		}
		for frontier <= last && run[frontier].Distance <= reach {
			parent[frontier] = u
			frontier++
		}
	}
	if parent[last] < 0 {
		return nil, fmt.Errorf("%w: %d unreachable from %d", ErrNoPath, to, from)
	}

	p.hops.Reset()
	for i := last; ; i = parent[i] {
		if i < 0 {
			return nil, fmt.Errorf("%w: route to %d does not start at %d", ErrNoPath, to, from)
		}
		*p.hops.Alloc() = run[i].Distance
		if i == 0 {
			break
		}
	}

	hops := p.hops.Allocated()
	path := make([]int, len(hops))
	for i, d := range hops {
		path[len(hops)-1-i] = d
	}
	return path, nil
}

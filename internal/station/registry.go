// Package station maintains the distance-ordered index of stations.
//
// Stations live in a red–black tree keyed by distance and are additionally
// threaded, in ascending distance order, through a doubly-linked list. The
// list gives O(1) access to the next and previous station independent of the
// tree's shape and is what ordered scans walk.
package station

import (
	"errors"
	"fmt"
	"iter"

	"github.com/Kopyshevskiy/highway-path-planner/internal/arena"
	"github.com/Kopyshevskiy/highway-path-planner/internal/carpark"
	"github.com/Kopyshevskiy/highway-path-planner/internal/rbtree"
)

var (
	// ErrExists is returned when adding a station at an occupied distance.
	ErrExists = errors.New("station: already exists")

	// ErrNotFound is returned when no station lives at the requested distance.
	ErrNotFound = errors.New("station: not found")

	// ErrListOrder is reported by Validate when the linked list disagrees with the tree.
	ErrListOrder = errors.New("station: list out of sync with tree")

	// ErrCarCount is reported by Validate when the cached car total is wrong.
	ErrCarCount = errors.New("station: car count mismatch")
)

// Station is a service point along the highway.
type Station struct {
	Distance int
	cars     *carpark.Park
	prev     *rbtree.Node[Station]
	next     *rbtree.Node[Station]
}

// Node is a station as stored in the registry tree.
type Node = rbtree.Node[Station]

// Cars returns the station's car park.
func (s *Station) Cars() *carpark.Park { return s.cars }

// Reach returns the farthest distance reachable in one hop from s, and false
// if s has no cars.
func (s *Station) Reach() (int, bool) {
	a, ok := s.cars.MaxAutonomy()
	if !ok {
		return s.Distance, false
	}
	return s.Distance + a, true
}

func stationKey(s *Station) int { return s.Distance }

// Pools are the arenas the registry draws storage from.
type Pools struct {
	Stations *arena.Arena[Node]
	Parks    *arena.Arena[carpark.Park]
	Cars     *carpark.Pool
}

// NewPools reserves the three arenas with the given capacities.
func NewPools(stations, parks, cars int) Pools {
	return Pools{
		Stations: arena.New[Node]("stations", stations),
		Parks:    arena.New[carpark.Park]("car_parks", parks),
		Cars:     arena.New[carpark.CarNode]("cars", cars),
	}
}

// Registry is the set of live stations. Not safe for concurrent use: the
// tree, the list and the car parks must be guarded together by the caller.
type Registry struct {
	stations rbtree.Tree[Station]
	pools    Pools
	cars     int
}

// New returns an empty registry backed by pools.
func New(pools Pools) *Registry {
	r := &Registry{pools: pools}
	r.stations.Init(stationKey)
	return r
}

// Len returns the number of live stations.
func (r *Registry) Len() int { return r.stations.Len() }

// Cars returns the number of cars parked across all live stations.
func (r *Registry) Cars() int { return r.cars }

// Pools returns the arenas backing the registry.
func (r *Registry) Pools() Pools { return r.pools }

// Lookup returns the station at distance, or nil.
func (r *Registry) Lookup(distance int) *Station {
	if n := r.stations.Search(distance); n != nil {
		return &n.Value
	}
	return nil
}

// AddStation creates a station at distance with the given initial cars.
func (r *Registry) AddStation(distance int, autonomies []int) error {
	if r.stations.Search(distance) != nil {
		return fmt.Errorf("%w: distance %d", ErrExists, distance)
	}

	n := r.pools.Stations.Alloc()
	n.Value.Distance = distance
	n.Value.cars = r.pools.Parks.Alloc().Init(r.pools.Cars)
	for _, a := range autonomies {
		n.Value.cars.Add(a)
	}
	r.cars += len(autonomies)

	r.stations.Insert(n)
	n.Value.prev = r.stations.Predecessor(n)
	n.Value.next = r.stations.Successor(n)
	if n.Value.prev != nil {
		n.Value.prev.Value.next = n
	}
	if n.Value.next != nil {
		n.Value.next.Value.prev = n
	}
	return nil
}

// RemoveStation demolishes the station at distance together with its cars.
// The station's storage is not reclaimed.
func (r *Registry) RemoveStation(distance int) error {
	n := r.stations.Search(distance)
	if n == nil {
		return fmt.Errorf("%w: distance %d", ErrNotFound, distance)
	}

	s := &n.Value
	if s.prev != nil {
		s.prev.Value.next = s.next
	}
	if s.next != nil {
		s.next.Value.prev = s.prev
	}
	s.prev, s.next = nil, nil

	// Delete relinks the successor node instead of copying it into n, so the
	// neighbours' list pointers and car parks need no migration.
	r.stations.Delete(n)
	r.cars -= s.cars.Len()
	return nil
}

// AddCar parks a car at the station at distance.
func (r *Registry) AddCar(distance, autonomy int) error {
	s := r.Lookup(distance)
	if s == nil {
		return fmt.Errorf("%w: distance %d", ErrNotFound, distance)
	}
	s.cars.Add(autonomy)
	r.cars++
	return nil
}

// RemoveCar scraps one car of the given autonomy from the station at distance.
func (r *Registry) RemoveCar(distance, autonomy int) error {
	s := r.Lookup(distance)
	if s == nil {
		return fmt.Errorf("%w: distance %d", ErrNotFound, distance)
	}
	if err := s.cars.Remove(autonomy); err != nil {
		return fmt.Errorf("station %d: %w", distance, err)
	}
	r.cars--
	return nil
}

// Ascend yields the stations with distance in [from, to] in ascending order,
// starting from the station at from. The sequence is empty if there is no
// station at from. It may be ranged over repeatedly but must not be used
// across mutations of the registry.
func (r *Registry) Ascend(from, to int) iter.Seq[*Station] {
	return func(yield func(*Station) bool) {
		for n := r.stations.Search(from); n != nil && n.Value.Distance <= to; n = n.Value.next {
			if !yield(&n.Value) {
				return
			}
		}
	}
}

// Validate checks the tree invariants, that the linked list visits exactly
// the tree's nodes in the same strictly ascending order, and every car park.
func (r *Registry) Validate() error {
	if err := r.stations.Validate(); err != nil {
		return err
	}

	cur := r.stations.Min()
	if cur != nil && cur.Value.prev != nil {
		return fmt.Errorf("%w: head %d has a predecessor", ErrListOrder, cur.Value.Distance)
	}
	var (
		prev *Node
		cars int
		err  error
	)
	r.stations.Ascend(func(n *Node) bool {
		switch {
		case cur != n:
			err = fmt.Errorf("%w: tree visits %d, list visits %s", ErrListOrder, n.Value.Distance, describe(cur))
		case n.Value.prev != prev:
			err = fmt.Errorf("%w: bad back link at %d", ErrListOrder, n.Value.Distance)
		case prev != nil && prev.Value.Distance >= n.Value.Distance:
			err = fmt.Errorf("%w: %d not after %d", ErrListOrder, n.Value.Distance, prev.Value.Distance)
		default:
			err = n.Value.cars.Validate()
		}
		if err != nil {
			return false
		}
		cars += n.Value.cars.Len()
		prev, cur = n, n.Value.next
		return true
	})
	if err != nil {
		return err
	}
	if cur != nil {
		return fmt.Errorf("%w: list continues past tail at %d", ErrListOrder, cur.Value.Distance)
	}
	if cars != r.cars {
		return fmt.Errorf("%w: counted %d, cached %d", ErrCarCount, cars, r.cars)
	}
	return nil
}

func describe(n *Node) string {
	if n == nil {
		return "end"
	}
	return fmt.Sprint(n.Value.Distance)
}

// Package carpark holds the cars parked at one station, indexed by autonomy,
// with an O(1) cached maximum.
package carpark

import (
	"errors"
	"fmt"

	"github.com/Kopyshevskiy/highway-path-planner/internal/arena"
	"github.com/Kopyshevskiy/highway-path-planner/internal/rbtree"
)

// ErrNotFound is returned when no car with the requested autonomy is parked.
var ErrNotFound = errors.New("carpark: car not found")

// ErrStaleMax is reported by Validate when the cached maximum is wrong.
var ErrStaleMax = errors.New("carpark: cached maximum out of date")

// Car is a single vehicle. Duplicated autonomies are allowed.
type Car struct {
	Autonomy int
}

// CarNode is a car as stored in a park's tree.
type CarNode = rbtree.Node[Car]

// Pool is the arena cars are allocated from. It is shared by every park.
type Pool = arena.Arena[CarNode]

func carKey(c *Car) int { return c.Autonomy }

// Park is a station's car collection. The zero value is not usable; call Init.
type Park struct {
	cars rbtree.Tree[Car]
	max  *CarNode // nil iff empty
	pool *Pool
}

// Init empties p and binds it to the arena new cars are drawn from.
func (p *Park) Init(pool *Pool) *Park {
	p.cars.Init(carKey)
	p.max = nil
	p.pool = pool
	return p
}

// Add parks a new car with the given autonomy.
func (p *Park) Add(autonomy int) {
	n := p.pool.Alloc()
	n.Value.Autonomy = autonomy
	p.cars.Insert(n)
	if p.max == nil || autonomy >= p.max.Value.Autonomy {
		p.max = n
	}
}

// Remove scraps one car with the given autonomy.
func (p *Park) Remove(autonomy int) error {
	n := p.cars.Search(autonomy)
	if n == nil {
		return fmt.Errorf("%w: autonomy %d", ErrNotFound, autonomy)
	}
	if n == p.max {
		p.max = p.cars.Predecessor(n)
	}
	p.cars.Delete(n)
	return nil
}

// MaxAutonomy returns the greatest autonomy parked, or false if the park is empty.
func (p *Park) MaxAutonomy() (int, bool) {
	if p.max == nil {
		return 0, false
	}
	return p.max.Value.Autonomy, true
}

// Len returns the number of parked cars.
func (p *Park) Len() int { return p.cars.Len() }

// Autonomies returns the parked autonomies in ascending order.
func (p *Park) Autonomies() []int {
	out := make([]int, 0, p.cars.Len())
	p.cars.Ascend(func(n *CarNode) bool {
		out = append(out, n.Value.Autonomy)
		return true
	})
	return out
}

// Validate checks the tree invariants and the cached maximum.
func (p *Park) Validate() error {
	if err := p.cars.Validate(); err != nil {
		return err
	}
	top := p.cars.Max()
	switch {
	case top == nil && p.max != nil:
		return fmt.Errorf("%w: empty park caches %d", ErrStaleMax, p.max.Value.Autonomy)
	case top != nil && p.max == nil:
		return fmt.Errorf("%w: park of %d cars caches nothing", ErrStaleMax, p.cars.Len())
	case top != nil && top.Value.Autonomy != p.max.Value.Autonomy:
		return fmt.Errorf("%w: cached %d, actual %d", ErrStaleMax, p.max.Value.Autonomy, top.Value.Autonomy)
	}
	return nil
}

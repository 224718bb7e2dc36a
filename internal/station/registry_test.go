package station

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kopyshevskiy/highway-path-planner/internal/carpark"
)

func newTestRegistry() *Registry {
	return New(NewPools(1<<12, 1<<12, 1<<14))
}

func distances(r *Registry, from, to int) []int {
	var out []int
	for s := range r.Ascend(from, to) {
		out = append(out, s.Distance)
	}
	return out
}

func TestAddStationDuplicate(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.AddStation(10, []int{5}))
	assert.ErrorIs(t, r.AddStation(10, nil), ErrExists)

	s := r.Lookup(10)
	require.NotNil(t, s)
	assert.Equal(t, []int{5}, s.Cars().Autonomies(), "failed add must not touch the existing station")
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 1, r.Cars())
}

func TestAddStationLinksNeighbours(t *testing.T) {
	r := newTestRegistry()
	for _, d := range []int{50, 10, 30, 20, 40} {
		require.NoError(t, r.AddStation(d, nil))
	}
	assert.Equal(t, []int{10, 20, 30, 40, 50}, distances(r, 10, 50))
	assert.Equal(t, []int{20, 30, 40}, distances(r, 20, 45))
	require.NoError(t, r.Validate())
}

func TestRemoveStationMissingLeavesRegistryUnchanged(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.AddStation(0, []int{5}))
	require.NoError(t, r.AddStation(10, []int{7}))

	assert.ErrorIs(t, r.RemoveStation(5), ErrNotFound)
	assert.ErrorIs(t, r.RemoveStation(5), ErrNotFound)
	assert.Equal(t, []int{0, 10}, distances(r, 0, 10))
	assert.Equal(t, 2, r.Cars())
	require.NoError(t, r.Validate())
}

// Removing a station with two tree children must not disturb the station
// that takes its place in the tree.
func TestRemoveStationTwoChildren(t *testing.T) {
	r := newTestRegistry()
	for _, d := range []int{40, 20, 60, 10, 30, 50, 70} {
		require.NoError(t, r.AddStation(d, []int{d + 1}))
	}
	require.NoError(t, r.RemoveStation(40))
	require.NoError(t, r.Validate())

	assert.Nil(t, r.Lookup(40))
	assert.Equal(t, []int{10, 20, 30, 50, 60, 70}, distances(r, 10, 70))
	for _, d := range []int{10, 20, 30, 50, 60, 70} {
		s := r.Lookup(d)
		require.NotNil(t, s)
		top, ok := s.Cars().MaxAutonomy()
		require.True(t, ok)
		assert.Equal(t, d+1, top, "station %d must keep its own cars", d)
	}
	assert.Equal(t, 6, r.Cars())
}

func TestCarOperations(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.AddStation(10, []int{5, 8}))

	require.NoError(t, r.AddCar(10, 12))
	assert.ErrorIs(t, r.AddCar(11, 3), ErrNotFound)

	reach, ok := r.Lookup(10).Reach()
	require.True(t, ok)
	assert.Equal(t, 22, reach)

	require.NoError(t, r.RemoveCar(10, 12))
	err := r.RemoveCar(10, 12)
	assert.ErrorIs(t, err, carpark.ErrNotFound)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, r.RemoveCar(99, 5), ErrNotFound)

	require.NoError(t, r.RemoveCar(10, 5))
	require.NoError(t, r.RemoveCar(10, 8))
	_, ok = r.Lookup(10).Reach()
	assert.False(t, ok)
	assert.Zero(t, r.Cars())
	require.NoError(t, r.Validate())
}

func TestAscendRestartableAndBounded(t *testing.T) {
	r := newTestRegistry()
	for d := 0; d <= 100; d += 10 {
		require.NoError(t, r.AddStation(d, nil))
	}
	seq := r.Ascend(30, 65)
	collect := func() []int {
		var out []int
		for s := range seq {
			out = append(out, s.Distance)
		}
		return out
	}
	first := collect()
	assert.Equal(t, []int{30, 40, 50, 60}, first)
	assert.Equal(t, first, collect(), "sequence must be re-iterable")

	assert.Empty(t, distances(r, 35, 100), "no station at from")

	var stopped []int
	for s := range r.Ascend(0, 100) {
		stopped = append(stopped, s.Distance)
		if s.Distance == 20 {
			break
		}
	}
	assert.Equal(t, []int{0, 10, 20}, stopped)
}

func TestRegistryRandomizedConsistency(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 24))
	r := New(NewPools(1<<13, 1<<13, 1<<15))
	live := map[int][]int{}

	for step := 0; step < 3000; step++ {
		d := rng.IntN(300)
		switch op := rng.IntN(4); op {
		case 0:
			cars := make([]int, rng.IntN(4))
			for i := range cars {
				cars[i] = rng.IntN(40)
			}
			err := r.AddStation(d, cars)
			if _, ok := live[d]; ok {
				require.ErrorIs(t, err, ErrExists)
			} else {
				require.NoError(t, err)
				live[d] = cars
			}
		case 1:
			err := r.RemoveStation(d)
			if _, ok := live[d]; ok {
				require.NoError(t, err)
				delete(live, d)
			} else {
				require.ErrorIs(t, err, ErrNotFound)
			}
		case 2:
			a := rng.IntN(40)
			err := r.AddCar(d, a)
			if _, ok := live[d]; ok {
				require.NoError(t, err)
				live[d] = append(live[d], a)
			} else {
				require.ErrorIs(t, err, ErrNotFound)
			}
		case 3:
			a := rng.IntN(40)
			err := r.RemoveCar(d, a)
			cars, ok := live[d]
			switch {
			case !ok:
				require.ErrorIs(t, err, ErrNotFound)
			case slices.Contains(cars, a):
				require.NoError(t, err)
				i := slices.Index(cars, a)
				live[d] = slices.Delete(cars, i, i+1)
			default:
				require.ErrorIs(t, err, carpark.ErrNotFound)
			}
		}
		require.NoError(t, r.Validate(), "step %d", step)
	}

	require.NotEmpty(t, live)
	want := make([]int, 0, len(live))
	total := 0
	for d, cars := range live {
		want = append(want, d)
		total += len(cars)
	}
	slices.Sort(want)
	assert.Equal(t, want, distances(r, want[0], want[len(want)-1]))
	assert.Equal(t, total, r.Cars())

	for d, cars := range live {
		s := r.Lookup(d)
		require.NotNil(t, s)
		assert.ElementsMatch(t, cars, s.Cars().Autonomies(), "station %d", d)
	}
}

func BenchmarkAddRemoveStation(b *testing.B) {
	r := New(NewPools(b.N+1, b.N+1, 1))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.AddStation(i, nil)
		if i%2 == 1 {
			_ = r.RemoveStation(i - 1)
		}
	}
}

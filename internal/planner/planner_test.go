package planner

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kopyshevskiy/highway-path-planner/internal/station"
)

func newTestEnv() (*station.Registry, *Planner) {
	return station.New(station.NewPools(1<<12, 1<<12, 1<<14)), New(1 << 10)
}

func addStations(t *testing.T, r *station.Registry, stations map[int][]int) {
	t.Helper()
	for d, cars := range stations {
		require.NoError(t, r.AddStation(d, cars))
	}
}

func TestPlanHopsThroughIntermediate(t *testing.T) {
	r, p := newTestEnv()
	addStations(t, r, map[int][]int{0: {5}, 5: {5}, 10: {999}})

	path, err := p.Plan(r, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 5, 10}, path)
}

func TestPlanEmptyRegistry(t *testing.T) {
	r, p := newTestEnv()
	_, err := p.Plan(r, 0, 10)
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestPlanSameEndpoint(t *testing.T) {
	r, p := newTestEnv()
	path, err := p.Plan(r, 7, 7)
	require.NoError(t, err)
	assert.Equal(t, []int{7}, path)
}

func TestPlanBackwardUnsupported(t *testing.T) {
	r, p := newTestEnv()
	addStations(t, r, map[int][]int{0: {50}, 10: {50}})
	_, err := p.Plan(r, 10, 0)
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestPlanUnknownEndpoint(t *testing.T) {
	r, p := newTestEnv()
	addStations(t, r, map[int][]int{0: {50}, 10: {50}})
	_, err := p.Plan(r, 0, 20)
	assert.ErrorIs(t, err, ErrNoPath)
	_, err = p.Plan(r, 3, 10)
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestPlanAfterScrappingOnlyCar(t *testing.T) {
	r, p := newTestEnv()
	addStations(t, r, map[int][]int{0: {5}, 5: {5}, 10: {1}})
	_, err := p.Plan(r, 0, 10)
	require.NoError(t, err)

	require.NoError(t, r.RemoveCar(5, 5))
	_, err = p.Plan(r, 0, 10)
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestPlanPrefersEarliestOrigin(t *testing.T) {
	r, p := newTestEnv()
	// Both 5 and 10 are one hop from 0 and both reach 25.
	addStations(t, r, map[int][]int{0: {10}, 5: {20}, 10: {15}, 25: nil})

	path, err := p.Plan(r, 0, 25)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 5, 25}, path)
}

func TestPlanDirectHop(t *testing.T) {
	r, p := newTestEnv()
	addStations(t, r, map[int][]int{0: {100}, 20: {1}, 40: {1}, 60: nil})

	path, err := p.Plan(r, 0, 60)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 60}, path)
}

// A station that cannot itself be reached may still assign parents further
// down; the backward walk must then fail rather than report a broken route.
func TestPlanUnreachableMiddleStation(t *testing.T) {
	r, p := newTestEnv()
	addStations(t, r, map[int][]int{0: {3}, 10: {100}, 50: nil})

	_, err := p.Plan(r, 0, 50)
	assert.ErrorIs(t, err, ErrNoPath)

	path, err := p.Plan(r, 10, 50)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 50}, path)
}

func TestPlanSubrange(t *testing.T) {
	r, p := newTestEnv()
	addStations(t, r, map[int][]int{0: {1000}, 10: {10}, 20: {10}, 30: {10}, 40: nil})

	path, err := p.Plan(r, 10, 40)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 20, 30, 40}, path, "stations before from must be ignored")
}

func TestPlanDeterministic(t *testing.T) {
	r, p := newTestEnv()
	addStations(t, r, map[int][]int{0: {7}, 3: {9}, 6: {2}, 9: {8}, 14: {6}, 20: nil})

	first, err := p.Plan(r, 0, 20)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := p.Plan(r, 0, 20)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPlanHopCapacityExceededPanics(t *testing.T) {
	r := station.New(station.NewPools(16, 16, 16))
	p := New(2)
	addStations(t, r, map[int][]int{0: {1}, 1: {1}, 2: {1}})

	assert.Panics(t, func() { _, _ = p.Plan(r, 0, 2) })
}

// reference is the quadratic formulation: every station assigns itself as the
// parent of every later, still unassigned station within its reach.
func reference(r *station.Registry, from, to int) []int {
	var run []*station.Station
	for s := range r.Ascend(from, to) {
		run = append(run, s)
	}
	parent := make([]int, len(run))
	for i := range parent {
		parent[i] = -1
	}
	for u := 0; u < len(run)-1; u++ {
		reach, ok := run[u].Reach()
		if !ok {
			continue
		}
		for v := u + 1; v < len(run) && run[v].Distance <= reach; v++ {
			if parent[v] < 0 {
				parent[v] = u
			}
		}
	}
	var rev []int
	for i := len(run) - 1; i >= 0; i = parent[i] {
		rev = append(rev, run[i].Distance)
		if i == 0 {
			out := make([]int, len(rev))
			for j, d := range rev {
				out[len(rev)-1-j] = d
			}
			return out
		}
	}
	return nil
}

func TestPlanMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	for round := 0; round < 50; round++ {
		r, p := newTestEnv()
		var ds []int
		for d := 0; d < 400; d += 1 + rng.IntN(15) {
			cars := make([]int, rng.IntN(3))
			for i := range cars {
				cars[i] = rng.IntN(40)
			}
			require.NoError(t, r.AddStation(d, cars))
			ds = append(ds, d)
		}
		for q := 0; q < 20; q++ {
			from := ds[rng.IntN(len(ds))]
			to := ds[rng.IntN(len(ds))]
			if from >= to {
				continue
			}
			want := reference(r, from, to)
			got, err := p.Plan(r, from, to)
			if want == nil {
				require.ErrorIs(t, err, ErrNoPath, "round %d %d->%d", round, from, to)
				continue
			}
			require.NoError(t, err, "round %d %d->%d", round, from, to)
			require.Equal(t, want, got, "round %d %d->%d", round, from, to)
		}
	}
}

func BenchmarkPlan(b *testing.B) {
	r := station.New(station.NewPools(1<<14, 1<<14, 1<<14))
	for d := 0; d < 10000; d++ {
		_ = r.AddStation(d*10, []int{25})
	}
	p := New(1 << 14)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Plan(r, 0, 99990); err != nil {
			b.Fatal(err)
		}
	}
}

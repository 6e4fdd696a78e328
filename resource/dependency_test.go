package resource

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDependencyTracker_LoadOrderIsDependencyFirst(t *testing.T) {
	// S3: B depends on A, C depends on B. Loading C must order A, B, C.
	tr := NewDependencyTracker()
	tr.AddDependency("B", "A")
	tr.AddDependency("C", "B")

	order, err := tr.LoadOrder([]ID{"C"})
	require.NoError(t, err)
	require.Equal(t, []ID{"A", "B", "C"}, order)
}

func TestDependencyTracker_LoadOrderDedupesSharedDependency(t *testing.T) {
	tr := NewDependencyTracker()
	tr.AddDependency("B", "A")
	tr.AddDependency("C", "A")

	order, err := tr.LoadOrder([]ID{"B", "C"})
	require.NoError(t, err)
	require.Equal(t, 3, len(order))
	require.Equal(t, ID("A"), order[0], "the shared dependency must load before either dependent")
}

func TestDependencyTracker_LoadOrderDetectsCycle(t *testing.T) {
	tr := NewDependencyTracker()
	tr.AddDependency("X", "Y")
	tr.AddDependency("Y", "X")

	_, err := tr.LoadOrder([]ID{"X"})
	require.Error(t, err)
	var cycleErr *ErrCircularDependency
	require.ErrorAs(t, err, &cycleErr)
}

func TestDependencyTracker_HasCircularDependency(t *testing.T) {
	tr := NewDependencyTracker()
	require.False(t, tr.HasCircularDependency("A"))

	tr.AddDependency("A", "B")
	tr.AddDependency("B", "A")
	require.True(t, tr.HasCircularDependency("A"))
}

func TestDependencyTracker_AllDependenciesIsTransitive(t *testing.T) {
	tr := NewDependencyTracker()
	tr.AddDependency("C", "B")
	tr.AddDependency("B", "A")

	deps := tr.AllDependencies("C")
	require.ElementsMatch(t, []ID{"A", "B"}, deps)
}

func TestDependencyTracker_RemoveDependencyBreaksTheEdge(t *testing.T) {
	tr := NewDependencyTracker()
	tr.AddDependency("B", "A")
	tr.RemoveDependency("B", "A")

	require.Empty(t, tr.AllDependencies("B"))
}

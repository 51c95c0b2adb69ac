package deployer

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestDependencyTracker_Register(t *testing.T) {
	dt := NewDependencyTracker()
	err := dt.Register([]Step{{Name: "A"}, {Name: "A"}})
	require.ErrorIs(t, err, ErrDuplicateStep)

	dt = NewDependencyTracker()
	err = dt.Register([]Step{{Name: "B", DependsOn: []string{"A"}}, {Name: "A"}})
	require.ErrorIs(t, err, ErrUnknownDependency)

	dt = NewDependencyTracker()
	require.NoError(t, dt.Register(DefaultPlan()))
}

func TestDependencyTracker_Resolve(t *testing.T) {
	dt := NewDependencyTracker()
	plan := []Step{
		{Name: "A"},
		{Name: "B", DependsOn: []string{"A"}},
	}
	require.NoError(t, dt.Register(plan))

	_, err := dt.Resolve(plan[1])
	require.ErrorIs(t, err, ErrDependencyNotConfirmed)
	require.False(t, dt.IsConfirmed("A"))

	addr := common.HexToAddress("0x0a")
	dt.Confirm("A", addr)
	require.True(t, dt.IsConfirmed("A"))

	deps, err := dt.Resolve(plan[1])
	require.NoError(t, err)
	require.Equal(t, map[string]common.Address{"A": addr}, deps)

	deps, err = dt.Resolve(plan[0])
	require.NoError(t, err)
	require.Empty(t, deps)
}

func TestDependencyTracker_DependentsAreTransitive(t *testing.T) {
	dt := NewDependencyTracker()
	require.NoError(t, dt.Register([]Step{
		{Name: "A"},
		{Name: "B", DependsOn: []string{"A"}},
		{Name: "C", DependsOn: []string{"B"}},
		{Name: "D", DependsOn: []string{"A", "C"}},
		{Name: "E"},
	}))

	require.Equal(t, []string{"B", "D", "C"}, dt.Dependents("A"))
	require.Empty(t, dt.Dependents("E"))
}

package inglesh

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestPlugin struct {
	name        string
	deps        []string
	optDeps     []string
	shutdownErr error
}

func (tp *TestPlugin) Name() string {
	return tp.name
}

func (tp *TestPlugin) Deps() []string {
	return tp.deps
}

func (tp *TestPlugin) OptDeps() []string {
	return tp.optDeps
}

func (tp *TestPlugin) Init(ctx context.Context, r *Registry) error {
	initOrder = append(initOrder, tp.name)
	return nil
}

func (tp *TestPlugin) Shutdown(ctx context.Context) error {
	shutdownOrder = append(shutdownOrder, tp.name)
	return tp.shutdownErr
}

var (
	initOrder     []string
	shutdownOrder []string
)

func TestInit(t *testing.T) {
	ctx := context.Background()

	// Resetting initOrder for the test
	initOrder = []string{}
	r := &Registry{}

	// Register plugins with dependencies
	r.Register(&TestPlugin{name: "A", deps: []string{"B", "C"}})
	r.Register(&TestPlugin{name: "B", deps: []string{"C", "D"}})
	r.Register(&TestPlugin{name: "C", deps: []string{"D"}})
	r.Register(&TestPlugin{name: "D"})

	// Initialize plugins
	err := r.Init(ctx)
	require.NoError(t, err, "initialization failed")

	// Check initialization order
	expectedOrder := []string{"D", "C", "B", "A"}
	for i, name := range initOrder {
		assert.Equal(t, expectedOrder[i], name, "out of order at index %d", i)
	}
}

func TestCycleDetection(t *testing.T) {
	ctx := context.Background()

	// Resetting initOrder for the test
	initOrder = []string{}

	r := &Registry{}

	// Register plugins with a cycle: A -> B -> C -> A
	r.Register(&TestPlugin{name: "A", deps: []string{"B"}})
	r.Register(&TestPlugin{name: "B", deps: []string{"C"}})
	r.Register(&TestPlugin{name: "C", deps: []string{"A"}})

	err := r.Init(ctx)
	assert.EqualError(t, err, "plugin: dependency cycle detected involving 'A'")
}

func TestMissingDependency(t *testing.T) {
	ctx := context.Background()

	// Resetting initOrder for the test
	initOrder = []string{}

	r := &Registry{}

	// Register plugins with a missing dependency: A -> B -> XX
	r.Register(&TestPlugin{name: "A", deps: []string{"B"}})
	r.Register(&TestPlugin{name: "B", deps: []string{"XX"}})

	err := r.Init(ctx)
	assert.EqualError(t, err, "plugin: missing dependency, 'XX' not registered")
}

func TestOptionalDependencyOrder(t *testing.T) {
	ctx := context.Background()

	initOrder = []string{}
	r := &Registry{}

	// A optionally depends on B: since B is registered, it initializes
	// first, even though A was registered ahead of it.
	r.Register(&TestPlugin{name: "A", optDeps: []string{"B"}})
	r.Register(&TestPlugin{name: "B"})

	require.NoError(t, r.Init(ctx))
	assert.Equal(t, []string{"B", "A"}, initOrder)
}

func TestOptionalDependencyAbsent(t *testing.T) {
	ctx := context.Background()

	initOrder = []string{}
	r := &Registry{}

	r.Register(&TestPlugin{name: "A", optDeps: []string{"XX"}})

	require.NoError(t, r.Init(ctx), "an absent optional dependency is not an error")
	assert.Equal(t, []string{"A"}, initOrder)
}

func TestShutdownOrder(t *testing.T) {
	ctx := context.Background()

	initOrder = []string{}
	shutdownOrder = []string{}

	r := &Registry{}
	r.Register(&TestPlugin{name: "A"})
	r.Register(&TestPlugin{name: "B", deps: []string{"A"}})
	r.Register(&TestPlugin{name: "C", deps: []string{"B"}})

	require.NoError(t, r.Init(ctx))
	require.NoError(t, r.Shutdown(ctx))

	// Reverse of registration order, so dependents go first.
	assert.Equal(t, []string{"C", "B", "A"}, shutdownOrder)
}

func TestShutdownContinuesOnError(t *testing.T) {
	ctx := context.Background()

	shutdownOrder = []string{}

	r := &Registry{}
	r.Register(&TestPlugin{name: "A"})
	r.Register(&TestPlugin{name: "B", shutdownErr: assert.AnError})
	r.Register(&TestPlugin{name: "C"})

	err := r.Shutdown(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to shutdown 'B'")

	// All plugins were still visited.
	assert.Equal(t, []string{"C", "B", "A"}, shutdownOrder)
}

package deployer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrUnknownDependency      = errors.New("unknown dependency")
	ErrDependencyNotConfirmed = errors.New("dependency not confirmed")
	ErrDuplicateStep          = errors.New("duplicate step")
)

// DependencyTracker records which steps have a confirmed address and which
// steps are waiting on them.
type DependencyTracker struct {
	// Maps step name to its deployed address once confirmed
	confirmed map[string]common.Address

	// Maps step name to the steps that need its address
	waitingOn map[string][]string

	mu sync.RWMutex
}

// NewDependencyTracker creates a new dependency tracker
func NewDependencyTracker() *DependencyTracker {
	return &DependencyTracker{
		confirmed: make(map[string]common.Address),
		waitingOn: make(map[string][]string),
	}
}

// Register validates plan and indexes its dependencies. A step may only
// depend on a step that comes before it.
func (dt *DependencyTracker) Register(plan []Step) error {
	dt.mu.Lock()
	defer dt.mu.Unlock()

	seen := make(map[string]bool, len(plan))
	for _, step := range plan {
		if seen[step.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateStep, step.Name)
		}
		for _, dep := range step.DependsOn {
			if !seen[dep] {
				return fmt.Errorf("%w: %s needs %s", ErrUnknownDependency, step.Name, dep)
			}
			dt.waitingOn[dep] = append(dt.waitingOn[dep], step.Name)
		}
		seen[step.Name] = true
	}
	return nil
}

// IsConfirmed checks if a step has been deployed
func (dt *DependencyTracker) IsConfirmed(name string) bool {
	dt.mu.RLock()
	defer dt.mu.RUnlock()
	_, ok := dt.confirmed[name]
	return ok
}

// Confirm marks a step as deployed at addr.
func (dt *DependencyTracker) Confirm(name string, addr common.Address) {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	dt.confirmed[name] = addr
}

// Resolve returns the addresses of every dependency of step, failing if any
// is not yet confirmed.
func (dt *DependencyTracker) Resolve(step Step) (map[string]common.Address, error) {
	dt.mu.RLock()
	defer dt.mu.RUnlock()

	deps := make(map[string]common.Address, len(step.DependsOn))
	for _, dep := range step.DependsOn {
		addr, ok := dt.confirmed[dep]
		if !ok {
			return nil, fmt.Errorf("%w: %s needs %s", ErrDependencyNotConfirmed, step.Name, dep)
		}
		deps[dep] = addr
	}
	return deps, nil
}

// Dependents lists the steps that transitively need name.
func (dt *DependencyTracker) Dependents(name string) []string {
	dt.mu.RLock()
	defer dt.mu.RUnlock()

	var out []string
	seen := make(map[string]bool)
	queue := []string{name}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range dt.waitingOn[cur] {
			if seen[next] {
				continue
			}
			seen[next] = true
			out = append(out, next)
			queue = append(queue, next)
		}
	}
	return out
}

package resource

import "sync"

// DependencyTracker is a directed graph of resource dependencies held as a
// pair of adjacency sets (Design Note "Cyclic graphs"): it never retains
// resource data, only ids.
type DependencyTracker struct {
	mu         sync.Mutex
	dependsOn  map[ID]map[ID]struct{} // a -> { b : a depends on b }
	dependents map[ID]map[ID]struct{} // b -> { a : a depends on b }
}

func NewDependencyTracker() *DependencyTracker {
	return &DependencyTracker{
		dependsOn:  make(map[ID]map[ID]struct{}),
		dependents: make(map[ID]map[ID]struct{}),
	}
}

// AddDependency records that a depends on b.
func (t *DependencyTracker) AddDependency(a, b ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dependsOn[a] == nil {
		t.dependsOn[a] = make(map[ID]struct{})
	}
	t.dependsOn[a][b] = struct{}{}
	if t.dependents[b] == nil {
		t.dependents[b] = make(map[ID]struct{})
	}
	t.dependents[b][a] = struct{}{}
}

// RemoveDependency undoes a prior AddDependency(a, b).
func (t *DependencyTracker) RemoveDependency(a, b ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.dependsOn[a], b)
	delete(t.dependents[b], a)
}

// AllDependencies returns the transitive closure of everything id depends
// on, via DFS with a visited set (which doubles as cycle protection: a
// revisited node simply isn't walked again).
func (t *DependencyTracker) AllDependencies(id ID) []ID {
	t.mu.Lock()
	defer t.mu.Unlock()
	visited := map[ID]struct{}{}
	var walk func(ID)
	var out []ID
	walk = func(cur ID) {
		for dep := range t.dependsOn[cur] {
			if _, seen := visited[dep]; seen {
				continue
			}
			visited[dep] = struct{}{}
			out = append(out, dep)
			walk(dep)
		}
	}
	walk(id)
	return out
}

// AllDependents returns the transitive closure of everything that depends
// on id (directly or indirectly).
func (t *DependencyTracker) AllDependents(id ID) []ID {
	t.mu.Lock()
	defer t.mu.Unlock()
	visited := map[ID]struct{}{}
	var walk func(ID)
	var out []ID
	walk = func(cur ID) {
		for dep := range t.dependents[cur] {
			if _, seen := visited[dep]; seen {
				continue
			}
			visited[dep] = struct{}{}
			out = append(out, dep)
			walk(dep)
		}
	}
	walk(id)
	return out
}

// HasCircularDependency reports whether id's dependency subgraph contains a
// cycle, via explicit recursion-stack DFS.
func (t *DependencyTracker) HasCircularDependency(id ID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	onStack := map[ID]struct{}{}
	visited := map[ID]struct{}{}
	var walk func(ID) bool
	walk = func(cur ID) bool {
		onStack[cur] = struct{}{}
		visited[cur] = struct{}{}
		for dep := range t.dependsOn[cur] {
			if _, on := onStack[dep]; on {
				return true
			}
			if _, seen := visited[dep]; seen {
				continue
			}
			if walk(dep) {
				return true
			}
		}
		delete(onStack, cur)
		return false
	}
	return walk(id)
}

// LoadOrder computes a dependency-first topological sort of ids: a node is
// emitted only after every dependency it has among ids is emitted.
// Re-entering a node still on the DFS stack reports ErrCircularDependency.
func (t *DependencyTracker) LoadOrder(ids []ID) ([]ID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	order := make([]ID, 0, len(ids))
	emitted := map[ID]struct{}{}
	onStack := map[ID]struct{}{}

	var visit func(ID) error
	visit = func(id ID) error {
		if _, done := emitted[id]; done {
			return nil
		}
		if _, on := onStack[id]; on {
			return &ErrCircularDependency{ID: id}
		}
		onStack[id] = struct{}{}
		for dep := range t.dependsOn[id] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		delete(onStack, id)
		emitted[id] = struct{}{}
		order = append(order, id)
		return nil
	}

	for _, id := range ids {
		if err := visit(id); err != nil {
			return nil, err
		}
	}
	return order, nil
}

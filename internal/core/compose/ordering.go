package compose

// =============================================================================
// Deploy Ordering
// =============================================================================

// DeployOrder computes the order services must start in, using Kahn's
// algorithm over the union of declared services and every referenced
// dependency target. Ties between simultaneously-ready nodes resolve in
// FIFO queue order: declared services seed the queue in declaration order,
// referenced-but-undeclared targets follow in first-reference order.
//
// Returns ErrCircularDependency when the graph has a cycle; callers must
// deploy nothing in that case.
//
// Example:
//
//	// a depends on b and c, b depends on c
//	order, _ := DeployOrder(m) // [c b a]
func DeployOrder(m *Manifest) ([]string, error) {
	// Union of declared services and referenced targets, insertion ordered.
	known := make(map[string]bool)
	var nodes []string
	add := func(name string) {
		if !known[name] {
			known[name] = true
			nodes = append(nodes, name)
		}
	}
	for _, svc := range m.Services {
		add(svc.Name)
	}
	for _, svc := range m.Services {
		for _, dep := range svc.DependsOn {
			add(dep)
		}
	}

	// In-degree per node and dependency → dependents adjacency. Dependents
	// accumulate in service declaration order so the FIFO order stays
	// reproducible.
	inDegree := make(map[string]int, len(nodes))
	dependents := make(map[string][]string)
	for _, name := range nodes {
		inDegree[name] = 0
	}
	for _, svc := range m.Services {
		for _, dep := range svc.DependsOn {
			inDegree[svc.Name]++
			dependents[dep] = append(dependents[dep], svc.Name)
		}
	}

	var queue []string
	for _, name := range nodes {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	order := make([]string, 0, len(nodes))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		order = append(order, name)

		for _, dep := range dependents[name] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(order) < len(nodes) {
		return nil, NewParseError("services", "circular dependency detected", ErrCircularDependency)
	}

	return order, nil
}

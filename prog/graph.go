// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package prog

import (
	"fmt"
	"sort"
	"strings"
)

// depGraph is a dependency graph over nodes 0..n-1; deps[i] lists the nodes i depends on.
type depGraph struct {
	deps [][]int
}

func newDepGraph(n int) *depGraph {
	return &depGraph{deps: make([][]int, n)}
}

func (g *depGraph) addDep(node, dep int) {
	g.deps[node] = append(g.deps[node], dep)
}

// order returns all nodes so that every node follows the nodes it depends on.
// Among nodes that are ready at the same time the lowest one goes first,
// which makes the order a pure function of the graph.
// If the graph has a cycle, returns the nodes that form it.
func (g *depGraph) order() ([]int, []int) {
	n := len(g.deps)
	indeg := make([]int, n)
	users := make([][]int, n)
	for node, deps := range g.deps {
		for _, dep := range deps {
			indeg[node]++
			users[dep] = append(users[dep], node)
		}
	}
	var ready, res []int
	for node := 0; node < n; node++ {
		if indeg[node] == 0 {
			ready = append(ready, node)
		}
	}
	for len(ready) != 0 {
		node := ready[0]
		ready = ready[1:]
		res = append(res, node)
		for _, user := range users[node] {
			indeg[user]--
			if indeg[user] == 0 {
				idx := sort.SearchInts(ready, user)
				ready = append(ready, 0)
				copy(ready[idx+1:], ready[idx:])
				ready[idx] = user
			}
		}
	}
	if len(res) == n {
		return res, nil
	}
	return nil, g.findCycle(indeg)
}

// findCycle walks dependencies of unresolved nodes until some node repeats.
// Every unresolved node has at least one unresolved dependency, so the walk cannot get stuck.
func (g *depGraph) findCycle(indeg []int) []int {
	start := -1
	for node := range indeg {
		if indeg[node] != 0 {
			start = node
			break
		}
	}
	seen := make(map[int]int)
	var path []int
	for node := start; ; {
		if pos, ok := seen[node]; ok {
			return append(path[pos:], node)
		}
		seen[node] = len(path)
		path = append(path, node)
		next := -1
		for _, dep := range g.deps[node] {
			if indeg[dep] != 0 {
				next = dep
				break
			}
		}
		if next == -1 {
			panic("unresolved node without unresolved dependencies")
		}
		node = next
	}
}

func cycleError(names []string) error {
	return fmt.Errorf("%w: %v", ErrResolutionCycle, strings.Join(names, " -> "))
}

// Package graph provides a small typed-state execution engine for sequential
// pipelines with conditional branch points. The topology is plain data (a
// table of node -> successor), so tests can assert routing without executing
// any node.
package graph

import (
	"context"
	"fmt"
)

// NodeFunc is the function executed by a node. It receives the shared state
// and returns the (possibly updated) state.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// ConditionFunc evaluates a branch point and returns the branch key.
type ConditionFunc[S any] func(ctx context.Context, state S) (string, error)

// Node represents one step in the execution flow. Exactly one of Run or
// Condition is set.
type Node[S any] struct {
	Name      string
	Run       NodeFunc[S]
	Condition ConditionFunc[S]
	Branches  map[string]string // condition result -> next node
	Next      string            // linear successor ("" for the end node)
}

// Graph represents an execution flow: an ordered set of nodes, linear edges,
// and condition nodes that pick their successor from a branch table.
type Graph[S any] struct {
	nodes     map[string]*Node[S]
	order     []string
	startNode string
	endNode   string
	maxVisits int
}

// NewGraph creates an empty graph.
func NewGraph[S any]() *Graph[S] {
	return &Graph[S]{
		nodes:     make(map[string]*Node[S]),
		maxVisits: 10,
	}
}

// AddNode adds a node to the graph.
func (g *Graph[S]) AddNode(node *Node[S]) {
	if node.Name == "" {
		panic("node name cannot be empty")
	}
	if _, exists := g.nodes[node.Name]; exists {
		panic(fmt.Sprintf("node %s already exists", node.Name))
	}
	if node.Condition == nil && node.Run == nil {
		panic(fmt.Sprintf("node %s must have a Run or Condition function", node.Name))
	}
	if node.Condition != nil && len(node.Branches) == 0 {
		panic(fmt.Sprintf("condition node %s must have branches", node.Name))
	}
	g.nodes[node.Name] = node
	g.order = append(g.order, node.Name)
}

// SetStartNode sets the start node.
func (g *Graph[S]) SetStartNode(name string) {
	if _, exists := g.nodes[name]; !exists {
		panic(fmt.Sprintf("node %s not found", name))
	}
	g.startNode = name
}

// SetEndNode sets the end node.
func (g *Graph[S]) SetEndNode(name string) {
	if _, exists := g.nodes[name]; !exists {
		panic(fmt.Sprintf("node %s not found", name))
	}
	g.endNode = name
}

// SetMaxVisits sets the per-node visit limit used to detect runaway loops.
func (g *Graph[S]) SetMaxVisits(maxVisits int) {
	g.maxVisits = maxVisits
}

// GetNode returns a node by name.
func (g *Graph[S]) GetNode(name string) (*Node[S], error) {
	node, exists := g.nodes[name]
	if !exists {
		return nil, fmt.Errorf("node %s not found", name)
	}
	return node, nil
}

// Routes returns the topology as data: every node name mapped to its possible
// successors, in node insertion order. Condition nodes list each branch
// target once.
func (g *Graph[S]) Routes() map[string][]string {
	routes := make(map[string][]string, len(g.nodes))
	for _, name := range g.order {
		node := g.nodes[name]
		if node.Condition != nil {
			seen := make(map[string]struct{}, len(node.Branches))
			var targets []string
			for _, target := range node.Branches {
				if _, ok := seen[target]; ok {
					continue
				}
				seen[target] = struct{}{}
				targets = append(targets, target)
			}
			routes[name] = targets
			continue
		}
		if node.Next != "" {
			routes[name] = []string{node.Next}
		} else {
			routes[name] = nil
		}
	}
	return routes
}

// Nodes returns node names in insertion order.
func (g *Graph[S]) Nodes() []string {
	return append([]string(nil), g.order...)
}

// Execute runs the graph from the start node. Execution is strictly
// sequential: each node either runs and hands off to its single successor, or
// evaluates its condition and follows the selected branch. The end node runs
// last and terminates the walk.
func (g *Graph[S]) Execute(ctx context.Context, initial S) (S, error) {
	state := initial
	if g.startNode == "" {
		return state, fmt.Errorf("start node not set")
	}
	if g.endNode == "" {
		return state, fmt.Errorf("end node not set")
	}

	visited := make(map[string]int)
	current := g.startNode

	for current != "" {
		node, exists := g.nodes[current]
		if !exists {
			return state, fmt.Errorf("node %s not found", current)
		}

		visited[current]++
		if visited[current] > g.maxVisits {
			return state, fmt.Errorf("infinite loop detected at node %s", current)
		}

		if node.Condition != nil {
			result, err := node.Condition(ctx, state)
			if err != nil {
				return state, fmt.Errorf("error evaluating condition at node %s: %w", current, err)
			}
			next, ok := node.Branches[result]
			if !ok {
				return state, fmt.Errorf("node %s has no branch for result %q", current, result)
			}
			current = next
			continue
		}

		var err error
		state, err = node.Run(ctx, state)
		if err != nil {
			return state, fmt.Errorf("error executing node %s: %w", current, err)
		}

		if current == g.endNode {
			return state, nil
		}
		if node.Next == "" {
			return state, fmt.Errorf("no next node specified for node %s", current)
		}
		current = node.Next
	}

	return state, nil
}

// Builder helps build graphs fluently.
type Builder[S any] struct {
	graph *Graph[S]
}

// NewBuilder creates a new graph builder.
func NewBuilder[S any]() *Builder[S] {
	return &Builder[S]{graph: NewGraph[S]()}
}

// AddNode adds an executable node.
func (b *Builder[S]) AddNode(name string, run NodeFunc[S]) *Builder[S] {
	b.graph.AddNode(&Node[S]{Name: name, Run: run})
	return b
}

// AddConditionNode adds a branch point.
func (b *Builder[S]) AddConditionNode(name string, condition ConditionFunc[S], branches map[string]string) *Builder[S] {
	b.graph.AddNode(&Node[S]{Name: name, Condition: condition, Branches: branches})
	return b
}

// AddEdge connects a node to its single successor.
func (b *Builder[S]) AddEdge(from, to string) *Builder[S] {
	node, exists := b.graph.nodes[from]
	if !exists {
		panic(fmt.Sprintf("node %s not found", from))
	}
	if node.Condition != nil {
		panic(fmt.Sprintf("condition node %s routes through its branches", from))
	}
	if node.Next != "" && node.Next != to {
		panic(fmt.Sprintf("node %s already has successor %s", from, node.Next))
	}
	node.Next = to
	return b
}

// SetStart sets the start node.
func (b *Builder[S]) SetStart(name string) *Builder[S] {
	b.graph.SetStartNode(name)
	return b
}

// SetEnd sets the end node.
func (b *Builder[S]) SetEnd(name string) *Builder[S] {
	b.graph.SetEndNode(name)
	return b
}

// SetMaxVisits sets the per-node visit limit.
func (b *Builder[S]) SetMaxVisits(maxVisits int) *Builder[S] {
	b.graph.SetMaxVisits(maxVisits)
	return b
}

// Build returns the constructed graph.
func (b *Builder[S]) Build() *Graph[S] {
	return b.graph
}

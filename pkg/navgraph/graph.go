package navgraph

import (
	"fmt"
)

// Node is a recognizable UI state, such as a screen or menu.
type Node struct {
	ID    string
	Label string
	// Verifications confirm the device actually shows this state.
	Verifications []Verification
	// ScreenshotRef points at a stored reference capture, if one exists.
	ScreenshotRef string
	Metadata      map[string]string
}

// Edge is a directed transition between two nodes. Traversing it means
// performing its actions in order.
type Edge struct {
	From    string
	To      string
	Label   string
	Actions []Action
	// Weight is the traversal cost, >= 1. Definitions that omit it get 1.
	Weight  int
	Applies *Applicability
	Retry   *RetryOverride

	ord int // declaration order across the whole definition
}

// Describe returns a short human-readable name for the edge.
func (e *Edge) Describe() string {
	if e.Label != "" {
		return e.Label
	}
	return fmt.Sprintf("%s -> %s", e.From, e.To)
}

// Graph is a loaded, validated navigation graph. It is immutable: updating
// a definition means loading a new Graph under a new version.
type Graph struct {
	name    string
	version string
	nodes   map[string]*Node
	order   []string           // node IDs in declaration order
	out     map[string][]*Edge // outgoing edges in declaration order
	edges   []*Edge            // all edges in declaration order
	uniform bool               // true when every edge has weight 1
}

// Load validates a definition and produces an immutable Graph. It collects
// every issue it finds and reports them together in a GraphValidationError,
// so a definition author sees all problems in one pass.
func Load(def Definition) (*Graph, error) {
	var issues []Issue
	addIssue := func(where, format string, args ...any) {
		issues = append(issues, Issue{Where: where, Message: fmt.Sprintf(format, args...)})
	}

	if def.Version == "" {
		addIssue("", "graph version is required")
	}
	if len(def.Nodes) == 0 {
		addIssue("", "graph has no nodes")
	}

	g := &Graph{
		name:    def.Name,
		version: def.Version,
		nodes:   make(map[string]*Node, len(def.Nodes)),
		out:     make(map[string][]*Edge),
		uniform: true,
	}

	for i, nd := range def.Nodes {
		where := fmt.Sprintf("node %s", nd.ID)
		if nd.ID == "" {
			addIssue(fmt.Sprintf("node #%d", i+1), "node id is required")
			continue
		}
		if _, dup := g.nodes[nd.ID]; dup {
			addIssue(where, "duplicate node id")
			continue
		}
		node := &Node{
			ID:            nd.ID,
			Label:         nd.Label,
			ScreenshotRef: nd.ScreenshotRef,
			Metadata:      nd.Metadata,
		}
		for j, vd := range nd.Verifications {
			v, err := decodeVerification(vd)
			if err != nil {
				addIssue(where, "verification #%d: %v", j+1, err)
				continue
			}
			node.Verifications = append(node.Verifications, v)
		}
		g.nodes[nd.ID] = node
		g.order = append(g.order, nd.ID)
	}

	for i, ed := range def.Edges {
		where := fmt.Sprintf("edge %s -> %s", ed.From, ed.To)
		if ed.From == "" || ed.To == "" {
			addIssue(fmt.Sprintf("edge #%d", i+1), "edge requires from and to")
			continue
		}
		if _, ok := g.nodes[ed.From]; !ok {
			addIssue(where, "from refers to unknown node %q", ed.From)
		}
		if _, ok := g.nodes[ed.To]; !ok {
			addIssue(where, "to refers to unknown node %q", ed.To)
		}

		edge := &Edge{
			From:    ed.From,
			To:      ed.To,
			Label:   ed.Label,
			Weight:  ed.Weight,
			Applies: ed.Applies,
			Retry:   ed.Retry,
			ord:     i,
		}

		if len(ed.Actions) == 0 {
			addIssue(where, "edge has no actions")
		}
		for j, ad := range ed.Actions {
			a, err := decodeAction(ad)
			if err != nil {
				addIssue(where, "action #%d: %v", j+1, err)
				continue
			}
			edge.Actions = append(edge.Actions, a)
		}

		switch {
		case edge.Weight < 0:
			addIssue(where, "weight must be >= 1, got %d", edge.Weight)
		case edge.Weight == 0:
			edge.Weight = 1
		}
		if edge.Weight > 1 {
			g.uniform = false
		}

		if ed.Applies != nil {
			if err := ed.Applies.validate(); err != nil {
				addIssue(where, "applies: %v", err)
			}
		}
		if ed.Retry != nil {
			if err := ed.Retry.validate(); err != nil {
				addIssue(where, "retry: %v", err)
			}
		}

		g.edges = append(g.edges, edge)
		g.out[edge.From] = append(g.out[edge.From], edge)
	}

	if len(issues) > 0 {
		return nil, &GraphValidationError{Graph: def.Name, Issues: issues}
	}
	return g, nil
}

// Name returns the graph name.
func (g *Graph) Name() string { return g.name }

// Version returns the graph version identifier.
func (g *Graph) Version() string { return g.version }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.order) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Node looks up a node by ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in declaration order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// Edges returns all edges in declaration order.
func (g *Graph) Edges() []*Edge {
	edges := make([]*Edge, len(g.edges))
	copy(edges, g.edges)
	return edges
}

// Neighbors returns the outgoing edges of a node in declaration order.
// The returned slice is a copy; callers may not mutate the graph through it.
func (g *Graph) Neighbors(id string) ([]*Edge, error) {
	if _, ok := g.nodes[id]; !ok {
		return nil, &UnknownNodeError{Graph: g.name, Node: id}
	}
	out := g.out[id]
	edges := make([]*Edge, len(out))
	copy(edges, out)
	return edges, nil
}

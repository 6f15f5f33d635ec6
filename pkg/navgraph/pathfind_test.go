package navgraph

import (
	"errors"
	"testing"
)

// exampleGraph is the canonical three-screen layout used across the
// pathfinding tests: home -> settings -> wifi.
func exampleGraph(t *testing.T) *Graph {
	t.Helper()
	return mustLoad(t, Definition{
		Name:    "example",
		Version: "v1",
		Nodes:   []NodeDef{nodeDef("home"), nodeDef("settings"), nodeDef("wifi")},
		Edges: []EdgeDef{
			{From: "home", To: "settings", Actions: []ActionDef{tapDef(100, 50)}},
			{From: "settings", To: "wifi", Actions: []ActionDef{tapDef(100, 120)}},
			{From: "settings", To: "home", Actions: []ActionDef{keyDef("BACK")}},
			{From: "wifi", To: "settings", Actions: []ActionDef{keyDef("BACK")}},
		},
	})
}

// assertChain checks that a path's edges connect from one node to another
// with no gaps.
func assertChain(t *testing.T, path []*Edge, from, to string) {
	t.Helper()
	if len(path) == 0 {
		if from != to {
			t.Fatalf("empty path for %s -> %s", from, to)
		}
		return
	}
	if path[0].From != from {
		t.Errorf("path starts at %s, expected %s", path[0].From, from)
	}
	if path[len(path)-1].To != to {
		t.Errorf("path ends at %s, expected %s", path[len(path)-1].To, to)
	}
	for i := 1; i < len(path); i++ {
		if path[i].From != path[i-1].To {
			t.Errorf("gap between step %d (to=%s) and step %d (from=%s)",
				i-1, path[i-1].To, i, path[i].From)
		}
	}
}

func TestFindPath_ChainsFromSourceToTarget(t *testing.T) {
	g := exampleGraph(t)

	path, err := FindPath(g, "home", "wifi", PathOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(path) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(path))
	}
	assertChain(t, path, "home", "wifi")

	// Every reachable pair chains.
	for _, from := range []string{"home", "settings", "wifi"} {
		for _, to := range []string{"home", "settings", "wifi"} {
			p, err := FindPath(g, from, to, PathOptions{})
			if err != nil {
				t.Fatalf("FindPath(%s,%s): %v", from, to, err)
			}
			assertChain(t, p, from, to)
		}
	}
}

func TestFindPath_SameNodeReturnsEmpty(t *testing.T) {
	g := exampleGraph(t)
	path, err := FindPath(g, "settings", "settings", PathOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(path) != 0 {
		t.Errorf("expected empty path, got %d edges", len(path))
	}
}

func TestFindPath_NoPath(t *testing.T) {
	g := mustLoad(t, Definition{
		Name:    "split",
		Version: "v1",
		Nodes:   []NodeDef{nodeDef("a"), nodeDef("b"), nodeDef("island")},
		Edges:   []EdgeDef{edgeDef("a", "b")},
	})

	_, err := FindPath(g, "a", "island", PathOptions{})
	var nperr *NoPathError
	if !errors.As(err, &nperr) {
		t.Fatalf("expected NoPathError, got %v", err)
	}
	if nperr.From != "a" || nperr.To != "island" {
		t.Errorf("expected from=a to=island, got from=%s to=%s", nperr.From, nperr.To)
	}

	// Directed: b -> a is not reachable either.
	if _, err := FindPath(g, "b", "a", PathOptions{}); !errors.As(err, &nperr) {
		t.Errorf("expected NoPathError for reverse direction, got %v", err)
	}
}

func TestFindPath_UnknownNode(t *testing.T) {
	g := exampleGraph(t)

	var uerr *UnknownNodeError
	if _, err := FindPath(g, "ghost", "wifi", PathOptions{}); !errors.As(err, &uerr) {
		t.Fatalf("expected UnknownNodeError, got %v", err)
	}
	if uerr.Node != "ghost" {
		t.Errorf("expected node=ghost, got %q", uerr.Node)
	}
	if _, err := FindPath(g, "home", "ghost", PathOptions{}); !errors.As(err, &uerr) {
		t.Fatalf("expected UnknownNodeError, got %v", err)
	}
}

func TestFindPath_Deterministic(t *testing.T) {
	// Two equal-cost routes; repeated searches must pick the same one.
	g := mustLoad(t, Definition{
		Name:    "diamond",
		Version: "v1",
		Nodes:   []NodeDef{nodeDef("s"), nodeDef("a"), nodeDef("b"), nodeDef("t")},
		Edges: []EdgeDef{
			edgeDef("s", "a"),
			edgeDef("s", "b"),
			edgeDef("a", "t"),
			edgeDef("b", "t"),
		},
	})

	first, err := FindPath(g, "s", "t", PathOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 50; i++ {
		path, err := FindPath(g, "s", "t", PathOptions{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(path) != len(first) {
			t.Fatalf("run %d: length changed from %d to %d", i, len(first), len(path))
		}
		for j := range path {
			if path[j] != first[j] {
				t.Fatalf("run %d: step %d differs", i, j)
			}
		}
	}
}

func TestFindPath_DeclarationOrderTieBreak(t *testing.T) {
	nodes := []NodeDef{nodeDef("s"), nodeDef("a"), nodeDef("b"), nodeDef("t")}
	viaA := []EdgeDef{edgeDef("s", "a"), edgeDef("s", "b"), edgeDef("a", "t"), edgeDef("b", "t")}
	viaB := []EdgeDef{edgeDef("s", "b"), edgeDef("s", "a"), edgeDef("a", "t"), edgeDef("b", "t")}

	g1 := mustLoad(t, Definition{Name: "g1", Version: "v1", Nodes: nodes, Edges: viaA})
	path, err := FindPath(g1, "s", "t", PathOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path[0].To != "a" {
		t.Errorf("expected first-declared route via a, got via %s", path[0].To)
	}

	g2 := mustLoad(t, Definition{Name: "g2", Version: "v1", Nodes: nodes, Edges: viaB})
	path, err = FindPath(g2, "s", "t", PathOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path[0].To != "b" {
		t.Errorf("expected first-declared route via b, got via %s", path[0].To)
	}
}

func TestFindPath_WeightedPrefersCheaperRoute(t *testing.T) {
	g := mustLoad(t, Definition{
		Name:    "weighted",
		Version: "v1",
		Nodes:   []NodeDef{nodeDef("s"), nodeDef("mid"), nodeDef("t")},
		Edges: []EdgeDef{
			{From: "s", To: "t", Weight: 5, Actions: []ActionDef{keyDef("OK")}},
			{From: "s", To: "mid", Actions: []ActionDef{keyDef("OK")}},
			{From: "mid", To: "t", Actions: []ActionDef{keyDef("OK")}},
		},
	})

	path, err := FindPath(g, "s", "t", PathOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(path) != 2 {
		t.Fatalf("expected the 2-hop route, got %d edge(s)", len(path))
	}
	if cost := PathCost(path); cost != 2 {
		t.Errorf("expected cost 2, got %d", cost)
	}
	assertChain(t, path, "s", "t")
}

func TestFindPath_WeightedTieBreaksByDeclaration(t *testing.T) {
	// Both routes cost 4; the one whose first edge is declared earlier wins.
	g := mustLoad(t, Definition{
		Name:    "weighted-tie",
		Version: "v1",
		Nodes:   []NodeDef{nodeDef("s"), nodeDef("a"), nodeDef("b"), nodeDef("t")},
		Edges: []EdgeDef{
			{From: "s", To: "a", Weight: 2, Actions: []ActionDef{keyDef("OK")}},
			{From: "s", To: "b", Weight: 2, Actions: []ActionDef{keyDef("OK")}},
			{From: "a", To: "t", Weight: 2, Actions: []ActionDef{keyDef("OK")}},
			{From: "b", To: "t", Weight: 2, Actions: []ActionDef{keyDef("OK")}},
		},
	})

	for i := 0; i < 10; i++ {
		path, err := FindPath(g, "s", "t", PathOptions{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if path[0].To != "a" {
			t.Fatalf("run %d: expected route via a, got via %s", i, path[0].To)
		}
	}
}

func TestFindPath_ModelFilterExcludesEdges(t *testing.T) {
	g := mustLoad(t, Definition{
		Name:    "filtered",
		Version: "v1",
		Nodes:   []NodeDef{nodeDef("s"), nodeDef("mid"), nodeDef("t")},
		Edges: []EdgeDef{
			{
				From:    "s",
				To:      "t",
				Actions: []ActionDef{keyDef("SHORTCUT")},
				Applies: &Applicability{Models: []string{"fire_tv"}},
			},
			edgeDef("s", "mid"),
			edgeDef("mid", "t"),
		},
	})

	// fire_tv takes the restricted shortcut.
	path, err := FindPath(g, "s", "t", PathOptions{DeviceModel: "fire_tv"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(path) != 1 {
		t.Fatalf("expected shortcut for fire_tv, got %d edges", len(path))
	}

	// Another model routes around it. Filtering is per call, so this holds
	// immediately after the fire_tv search.
	path, err = FindPath(g, "s", "t", PathOptions{DeviceModel: "apple_tv"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(path) != 2 {
		t.Fatalf("expected 2-hop route for apple_tv, got %d edges", len(path))
	}
	assertChain(t, path, "s", "t")
}

func TestFindPath_ModelFilterCanDisconnect(t *testing.T) {
	g := mustLoad(t, Definition{
		Name:    "gated",
		Version: "v1",
		Nodes:   []NodeDef{nodeDef("s"), nodeDef("t")},
		Edges: []EdgeDef{
			{
				From:    "s",
				To:      "t",
				Actions: []ActionDef{keyDef("OK")},
				Applies: &Applicability{Models: []string{"fire_tv"}},
			},
		},
	})

	_, err := FindPath(g, "s", "t", PathOptions{DeviceModel: "apple_tv"})
	var nperr *NoPathError
	if !errors.As(err, &nperr) {
		t.Fatalf("expected NoPathError, got %v", err)
	}
	if nperr.Model != "apple_tv" {
		t.Errorf("expected model=apple_tv in error, got %q", nperr.Model)
	}
}

func TestFindPath_OSVersionFilter(t *testing.T) {
	g := mustLoad(t, Definition{
		Name:    "versioned",
		Version: "v1",
		Nodes:   []NodeDef{nodeDef("s"), nodeDef("mid"), nodeDef("t")},
		Edges: []EdgeDef{
			{
				From:    "s",
				To:      "t",
				Actions: []ActionDef{keyDef("OK")},
				Applies: &Applicability{MinOSVersion: "12.0.0"},
			},
			edgeDef("s", "mid"),
			edgeDef("mid", "t"),
		},
	})

	path, err := FindPath(g, "s", "t", PathOptions{DeviceModel: "any", OSVersion: "13.1.0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(path) != 1 {
		t.Errorf("expected direct edge on 13.1.0, got %d edges", len(path))
	}

	path, err = FindPath(g, "s", "t", PathOptions{DeviceModel: "any", OSVersion: "11.0.0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(path) != 2 {
		t.Errorf("expected detour on 11.0.0, got %d edges", len(path))
	}
}

func TestFindPath_CyclesAndSelfLoops(t *testing.T) {
	g := mustLoad(t, Definition{
		Name:    "cyclic",
		Version: "v1",
		Nodes:   []NodeDef{nodeDef("a"), nodeDef("b"), nodeDef("c")},
		Edges: []EdgeDef{
			edgeDef("a", "a"), // refresh self-loop
			edgeDef("a", "b"),
			edgeDef("b", "a"),
			edgeDef("b", "c"),
			edgeDef("c", "a"),
		},
	})

	path, err := FindPath(g, "a", "c", PathOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(path) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(path))
	}
	assertChain(t, path, "a", "c")
}

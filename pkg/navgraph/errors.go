package navgraph

import (
	"fmt"
	"strings"
)

// Issue is a single problem found while loading a definition.
type Issue struct {
	Where   string // e.g. "node home", "edge home -> settings"
	Message string
}

func (i Issue) String() string {
	if i.Where == "" {
		return i.Message
	}
	return fmt.Sprintf("%s: %s", i.Where, i.Message)
}

// GraphValidationError aggregates every problem found while loading a
// definition. Loading is all-or-nothing: a definition with any issue
// produces no Graph.
type GraphValidationError struct {
	Graph  string
	Issues []Issue
}

func (e *GraphValidationError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, iss := range e.Issues {
		msgs[i] = iss.String()
	}
	return fmt.Sprintf("graph %q: %d validation issue(s): %s",
		e.Graph, len(e.Issues), strings.Join(msgs, "; "))
}

// UnknownNodeError indicates a node ID that does not exist in the graph.
type UnknownNodeError struct {
	Graph string
	Node  string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("graph %q: unknown node %q", e.Graph, e.Node)
}

// NoPathError indicates that no applicable route connects two nodes. Both
// endpoints exist; either the graph has no connecting edges at all or every
// candidate was filtered out for the requesting device.
type NoPathError struct {
	Graph string
	From  string
	To    string
	// Model is the device model the search was filtered for, if any.
	Model string
}

func (e *NoPathError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("graph %q: no path from %q to %q for model %q",
			e.Graph, e.From, e.To, e.Model)
	}
	return fmt.Sprintf("graph %q: no path from %q to %q", e.Graph, e.From, e.To)
}

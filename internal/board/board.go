// Package board implements the document synchronization engine behind
// boardsync: a single JSON board file shared between this process and
// external editors, kept consistent through self-write suppression,
// debounced change detection, and a bounded undo/redo history.
package board

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrDecode       = errors.New("board decode failed")
	ErrWatchSetup   = errors.New("watch setup failed")
	ErrInvalidInput = errors.New("invalid input")
)

const DefaultNodeType = "text"

// Board is the complete persisted document: positioned nodes plus the
// edges connecting them by ID. Edges referencing missing nodes are
// tolerated; they simply fail to render upstream.
type Board struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

type Node struct {
	ID       string   `json:"id"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Text     string   `json:"text"`
	NodeType string   `json:"nodeType"`
	Color    string   `json:"color,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Status   string   `json:"status,omitempty"`
	Group    string   `json:"group,omitempty"`
	Priority int      `json:"priority,omitempty"`
}

type Edge struct {
	ID       string `json:"id"`
	FromNode string `json:"fromNode"`
	ToNode   string `json:"toNode"`
}

// NewNode builds a text node of default size at the given position.
func NewNode(x, y float64, text string) Node {
	return Node{
		ID:       uuid.NewString(),
		X:        x,
		Y:        y,
		Width:    200,
		Height:   100,
		Text:     text,
		NodeType: DefaultNodeType,
	}
}

func NewEdge(fromNode, toNode string) Edge {
	return Edge{
		ID:       uuid.NewString(),
		FromNode: fromNode,
		ToNode:   toNode,
	}
}

// Clone returns an independent deep copy. History snapshots and values
// handed to subscribers must never alias the live board.
func (b Board) Clone() Board {
	clone := Board{}
	if b.Nodes != nil {
		clone.Nodes = make([]Node, len(b.Nodes))
		for i, node := range b.Nodes {
			copied := node
			if node.Tags != nil {
				copied.Tags = append([]string(nil), node.Tags...)
			}
			clone.Nodes[i] = copied
		}
	}
	if b.Edges != nil {
		clone.Edges = append([]Edge(nil), b.Edges...)
	}
	return clone
}

// normalize fills decode-time defaults for fields older or external
// writers may omit.
func (b *Board) normalize() {
	for i := range b.Nodes {
		if b.Nodes[i].NodeType == "" {
			b.Nodes[i].NodeType = DefaultNodeType
		}
	}
}

// Decode parses a board from JSON, tolerating unknown fields and
// filling defaults for absent ones.
func Decode(data []byte) (Board, error) {
	var b Board
	if err := json.Unmarshal(data, &b); err != nil {
		return Board{}, &DecodeError{Path: "payload", Err: err}
	}
	b.normalize()
	return b, nil
}

// NodeByID returns the node with the given ID, if present.
func (b Board) NodeByID(id string) (Node, bool) {
	for _, node := range b.Nodes {
		if node.ID == id {
			return node, true
		}
	}
	return Node{}, false
}

// DanglingEdges lists edges whose endpoints no longer resolve to nodes.
// External edits can produce these; the engine reports but never rejects
// them.
func (b Board) DanglingEdges() []Edge {
	ids := make(map[string]struct{}, len(b.Nodes))
	for _, node := range b.Nodes {
		ids[node.ID] = struct{}{}
	}
	var dangling []Edge
	for _, edge := range b.Edges {
		if _, ok := ids[edge.FromNode]; !ok {
			dangling = append(dangling, edge)
			continue
		}
		if _, ok := ids[edge.ToNode]; !ok {
			dangling = append(dangling, edge)
		}
	}
	return dangling
}

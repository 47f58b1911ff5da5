package mixer

import (
	"sync"
	"time"

	"duplex-server/pkg/errors"
)

// RampRecord describes one scheduled ramp on a MemoryGraph
type RampRecord struct {
	Node     NodeID
	From     float64
	To       float64
	Duration time.Duration
	Start    time.Time
}

type memoryRamp struct {
	from, to float64
	start    time.Time
	duration time.Duration
}

type memoryNode struct {
	gain    float64
	ramp    *memoryRamp
	outputs []NodeID
	source  bool
}

// MemoryGraph is a Graph that evaluates gain automation against a clock
// instead of rendering audio. Sessions without a real audio runtime use it,
// and it doubles as the test graph.
type MemoryGraph struct {
	mu     sync.Mutex
	now    func() time.Time
	nodes  map[NodeID]*memoryNode
	nextID NodeID
	dest   NodeID
	closed bool
	ramps  []RampRecord
}

// NewMemoryGraph creates a graph with a destination node. A nil clock uses
// the wall clock.
func NewMemoryGraph(now func() time.Time) *MemoryGraph {
	if now == nil {
		now = time.Now
	}
	g := &MemoryGraph{
		now:   now,
		nodes: make(map[NodeID]*memoryNode),
	}
	g.dest = g.add(&memoryNode{gain: 1})
	return g
}

func (g *MemoryGraph) add(n *memoryNode) NodeID {
	g.nextID++
	g.nodes[g.nextID] = n
	return g.nextID
}

func (g *MemoryGraph) node(id NodeID) (*memoryNode, error) {
	if g.closed {
		return nil, errors.NewNotInitialized("audio graph")
	}
	n, ok := g.nodes[id]
	if !ok {
		return nil, errors.NewUnknownNode(id)
	}
	return n, nil
}

// value evaluates n's gain at t
func (n *memoryNode) value(t time.Time) float64 {
	r := n.ramp
	if r == nil {
		return n.gain
	}
	elapsed := t.Sub(r.start)
	if r.duration <= 0 || elapsed >= r.duration {
		return r.to
	}
	if elapsed <= 0 {
		return r.from
	}
	return r.from + (r.to-r.from)*float64(elapsed)/float64(r.duration)
}

// settle folds a finished or cancelled ramp into the static gain
func (n *memoryNode) settle(t time.Time) {
	n.gain = n.value(t)
	n.ramp = nil
}

// AddSource registers an input node, such as a microphone stream
func (g *MemoryGraph) AddSource() NodeID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.add(&memoryNode{gain: 1, source: true})
}

// CreateGain implements Graph
func (g *MemoryGraph) CreateGain(initial float64) (NodeID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return 0, errors.NewNotInitialized("audio graph")
	}
	return g.add(&memoryNode{gain: initial}), nil
}

// Connect implements Graph
func (g *MemoryGraph) Connect(from, to NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	src, err := g.node(from)
	if err != nil {
		return err
	}
	if _, err := g.node(to); err != nil {
		return err
	}
	for _, o := range src.outputs {
		if o == to {
			return nil
		}
	}
	src.outputs = append(src.outputs, to)
	return nil
}

// Disconnect implements Graph
func (g *MemoryGraph) Disconnect(id NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, err := g.node(id)
	if err != nil {
		return err
	}
	n.outputs = nil
	return nil
}

// SetGain implements Graph
func (g *MemoryGraph) SetGain(id NodeID, value float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, err := g.node(id)
	if err != nil {
		return err
	}
	n.ramp = nil
	n.gain = value
	return nil
}

// RampGain implements Graph
func (g *MemoryGraph) RampGain(id NodeID, target float64, duration time.Duration) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, err := g.node(id)
	if err != nil {
		return err
	}
	now := g.now()
	n.settle(now)
	n.ramp = &memoryRamp{from: n.gain, to: target, start: now, duration: duration}
	g.ramps = append(g.ramps, RampRecord{Node: id, From: n.gain, To: target, Duration: duration, Start: now})
	return nil
}

// CancelRamp implements Graph
func (g *MemoryGraph) CancelRamp(id NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, err := g.node(id)
	if err != nil {
		return err
	}
	n.settle(g.now())
	return nil
}

// Gain implements Graph
func (g *MemoryGraph) Gain(id NodeID) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, err := g.node(id)
	if err != nil {
		return 0, err
	}
	return n.value(g.now()), nil
}

// Destination implements Graph
func (g *MemoryGraph) Destination() NodeID {
	return g.dest
}

// Close implements Graph. Closing twice is a no-op.
func (g *MemoryGraph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

// Outputs lists the nodes id feeds into
func (g *MemoryGraph) Outputs(id NodeID) []NodeID {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n, ok := g.nodes[id]; ok {
		return append([]NodeID(nil), n.outputs...)
	}
	return nil
}

// Ramps returns every ramp scheduled so far, oldest first
func (g *MemoryGraph) Ramps() []RampRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]RampRecord(nil), g.ramps...)
}

// Ramping reports whether id has a ramp that has not yet reached its target
func (g *MemoryGraph) Ramping(id NodeID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	if !ok || n.ramp == nil {
		return false
	}
	return g.now().Sub(n.ramp.start) < n.ramp.duration
}

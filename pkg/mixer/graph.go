// Package mixer drives the per-channel gain graph of a full-duplex voice
// session and provides offline sample mixing for monitoring.
package mixer

import "time"

// NodeID is a handle to a node owned by a Graph
type NodeID int

// Graph is the audio runtime the mixer controls. Implementations own the
// real-time rendering; the mixer only schedules gain changes.
type Graph interface {
	// CreateGain adds a gain node with the given initial gain
	CreateGain(initial float64) (NodeID, error)
	// Connect routes the output of from into to
	Connect(from, to NodeID) error
	// Disconnect removes every outgoing connection of node
	Disconnect(node NodeID) error
	// SetGain sets the gain immediately, cancelling any ramp in flight
	SetGain(node NodeID, value float64) error
	// RampGain moves the gain linearly from its current value to target over
	// duration. A ramp already in flight on node is cancelled first.
	RampGain(node NodeID, target float64, duration time.Duration) error
	// CancelRamp freezes the gain at its current value
	CancelRamp(node NodeID) error
	// Gain returns the gain at the current instant
	Gain(node NodeID) (float64, error)
	// Destination is the output sink node
	Destination() NodeID
	// Close releases the graph; every later call fails
	Close() error
}

// Package nn compiles a genome's enabled connections into an evaluable graph.
//
// The network has no topological sort of its own. Node ids are visited in
// ascending numeric order, and the genome guarantees that every hidden node id
// lies strictly between the ids of the connection it was split from, so the
// ascending order is a valid feed-forward evaluation order.
package nn

import (
	"errors"
	"fmt"
	"sort"
)

// MaxLayer is the largest hidden node id. Inputs are negative, the bias is 0,
// hidden nodes are 1..MaxLayer and outputs are above MaxLayer.
const MaxLayer = 100000

// BiasNode is the id of the bias node, whose value is always 1.
const BiasNode = 0

// ErrUnknownNode reports an edge whose endpoint is not a vertex of the graph.
// It means the owning genome referenced a node missing from its node set.
var ErrUnknownNode = errors.New("edge references unknown node")

// Edge is one enabled connection handed to New.
type Edge struct {
	Source int
	Target int
	Weight float64
}

type outgoing struct {
	target int
	weight float64
}

// neuron is one vertex during activation.
type neuron struct {
	outgoing []outgoing
	value    float64
	hasValue bool
}

// Network is the compiled phenotype of a genome.
type Network struct {
	order     []int // node ids, ascending
	neurons   map[int]*neuron
	numInputs int
}

// New builds a network with one vertex per node id and records every edge
// under its source vertex. Edges must already be filtered to enabled genes.
func New(nodes []int, edges []Edge) (*Network, error) {
	order := append([]int(nil), nodes...)
	sort.Ints(order)

	net := &Network{
		order:   order,
		neurons: make(map[int]*neuron, len(order)),
	}
	for _, id := range order {
		n := &neuron{}
		if id == BiasNode {
			n.value, n.hasValue = 1, true
		}
		if id < 0 {
			net.numInputs++
		}
		net.neurons[id] = n
	}

	for _, e := range edges {
		src, ok := net.neurons[e.Source]
		if !ok {
			return nil, fmt.Errorf("%w: source %d", ErrUnknownNode, e.Source)
		}
		if _, ok := net.neurons[e.Target]; !ok {
			return nil, fmt.Errorf("%w: target %d", ErrUnknownNode, e.Target)
		}
		src.outgoing = append(src.outgoing, outgoing{target: e.Target, weight: e.Weight})
	}
	return net, nil
}

// NumInputs returns the number of input vertices.
func (net *Network) NumInputs() int {
	return net.numInputs
}

// Activate feeds inputs through the network and returns the raw accumulated
// value of every output node keyed by node id. Input node -k receives
// inputs[k-1]. Outputs that received no signal report 0.
// A vertex without a value contributes weight*0 to its targets, so a target
// fed only by unreached vertices holds 0 and propagates Sigmoid(0) onward.
func (net *Network) Activate(inputs []float64) (map[int]float64, error) {
	if len(inputs) != net.numInputs {
		return nil, fmt.Errorf("mismatch between input count (%d) and network input nodes (%d)", len(inputs), net.numInputs)
	}

	for id, n := range net.neurons {
		if id == BiasNode {
			n.value, n.hasValue = 1, true
			continue
		}
		n.value, n.hasValue = 0, false
	}

	outputs := make(map[int]float64)
	for _, id := range net.order {
		n := net.neurons[id]
		if id < 0 {
			n.value, n.hasValue = inputs[-id-1], true
		}

		// A vertex that was never reached sends a zero signal, which still
		// marks its targets as reached.
		if len(n.outgoing) > 0 {
			signal := 0.0
			if n.hasValue {
				signal = Sigmoid(n.value)
			}
			for _, out := range n.outgoing {
				target := net.neurons[out.target]
				target.value += out.weight * signal
				target.hasValue = true
			}
		}

		if id > MaxLayer {
			outputs[id] = n.value
		}
	}
	return outputs, nil
}

// Package kernel provides small, reusable per-node/per-edge kernels
// for driving a scheduler.Scheduler against a toy spiking neural
// network — the Galves-Löcherbach leaky integrate-and-fire model used
// throughout the original llrt examples. They exist to give
// cmd/demo something concrete to schedule; nothing in
// internal/scheduler depends on this package.
package kernel

import (
	"math"
	"math/rand"
)

// Mu is the potential decay factor (μ) and K the activation-probability
// scale factor (k), matching the constants used across the original
// example network.
const (
	Mu = 0.99
	K  = 0.01
)

// IFNeuron is one neuron's state: potential and activation, double
// buffered across the current and next timestep so that a node's
// update never races a read of its own previous value.
type IFNeuron struct {
	V [2]float32
	X [2]float32
}

// IFDendrite is the state of one edge end: the synapse weight.
type IFDendrite struct {
	W float32
}

// Sigmoid is the standard logistic function.
func Sigmoid(x float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(x))))
}

// DecayPotential implements the first term of Vᵢ[t+1]: a neuron that
// fired last step resets to zero potential, otherwise its potential
// decays by Mu.
func DecayPotential(n *IFNeuron, cur, next int) {
	if n.X[cur] == 0 {
		n.V[next] = Mu * n.V[cur]
	} else {
		n.V[next] = 0
	}
}

// InjectInput adds an external input value to a neuron's
// next-timestep potential.
func InjectInput(n *IFNeuron, next int, input float32) {
	n.V[next] += input
}

// AccumulateDendrite adds one incoming synapse's contribution
// (weight times the far neuron's current activation) to a neuron's
// next-timestep potential.
func AccumulateDendrite(n *IFNeuron, d *IFDendrite, far *IFNeuron, cur, next int) {
	n.V[next] += d.W * far.X[cur]
}

// Activate stochastically fires a neuron based on its next-timestep
// potential: probability sigmoid(K*V).
func Activate(n *IFNeuron, next int, r *rand.Rand) {
	prob := Sigmoid(K * n.V[next])
	if r.Float32() < prob {
		n.X[next] = 1
	} else {
		n.X[next] = 0
	}
}

// InitDendriteWeight initializes a synapse weight to a standard
// normal sample.
func InitDendriteWeight(d *IFDendrite, r *rand.Rand) {
	d.W = float32(r.NormFloat64())
}

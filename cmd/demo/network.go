package main

import (
	"math/rand"

	"github.com/ChuLiYu/llrt/internal/job"
	"github.com/ChuLiYu/llrt/internal/link"
	"github.com/ChuLiYu/llrt/internal/scheduler"
	"github.com/ChuLiYu/llrt/pkg/kernel"
)

// ifNetwork is a toy Galves-Löcherbach integrate-and-fire network: a
// single population of size N, densely self-connected, matching
// original_source/examples/ex1.cpp with the two DenseLink components
// collapsed into one self-recurrent population to keep this demo
// small.
type ifNetwork struct {
	size      int64
	neurons   []kernel.IFNeuron
	dendrites []kernel.IFDendrite
	self      *link.Dense

	seed int64
}

const componentNeurons = 1

func newIFNetwork(size int64, seed int64) *ifNetwork {
	n := &ifNetwork{
		size:      size,
		neurons:   make([]kernel.IFNeuron, size),
		dendrites: make([]kernel.IFDendrite, size*size),
		self:      link.NewDense(),
		seed:      seed,
	}
	n.self.SetDimensions([]int64{size}, []int64{size})
	return n
}

// nodeKernel applies fn to every neuron in [start, end) of a
// JobChunk; it is the PureKernel type parameter for plain per-node
// scheduler.ProcessOp calls.
type nodeKernel struct {
	neurons []kernel.IFNeuron
	fn      func(n *kernel.IFNeuron, i int64)
}

func runNodeOp(s *scheduler.Scheduler, neurons []kernel.IFNeuron, opName string, fn func(n *kernel.IFNeuron, i int64), blocking bool) {
	pk := nodeKernel{neurons: neurons, fn: fn}
	identity := func(p int64) int64 { return p }
	iterate := func(pk *nodeKernel, start, end int64) {
		for i := start; i < end; i++ {
			pk.fn(&pk.neurons[i], i)
		}
	}
	scheduler.ProcessOp[struct{}, nodeKernel](
		s, nil, pk,
		"Dense", opName, job.OpTypeID(opName), componentNeurons,
		int64(len(neurons)), false, nil,
		identity, iterate,
		blocking, blocking,
	)
}

// dendriteKernel drives one pass over every synapse via the network's
// Dense link, applying fn to the near neuron, the dendrite, and the
// far neuron.
type dendriteKernel struct {
	self      *link.Dense
	neurons   []kernel.IFNeuron
	dendrites []kernel.IFDendrite
	fn        func(n *kernel.IFNeuron, d *kernel.IFDendrite, far *kernel.IFNeuron)
}

func runDendriteOp(s *scheduler.Scheduler, net *ifNetwork, opName string, fn func(n *kernel.IFNeuron, d *kernel.IFDendrite, far *kernel.IFNeuron), blocking bool) {
	pk := dendriteKernel{self: net.self, neurons: net.neurons, dendrites: net.dendrites, fn: fn}
	maxProgress := net.self.MaxProgress(0)
	nextProgressPoint := func(p int64) int64 { return net.self.RequestPartialProgress(0, p) }
	iterate := func(pk *dendriteKernel, start, end int64) {
		pk.self.Iterate(0, func(nearIx, nearEdgeIx, farIx, farEdgeIx, edgeInfo int64) {
			pk.fn(&pk.neurons[nearIx], &pk.dendrites[nearEdgeIx], &pk.neurons[farIx])
		}, start, end)
	}
	scheduler.ProcessOp[struct{}, dendriteKernel](
		s, nil, pk,
		"Dense", opName, job.OpTypeID(opName), componentNeurons,
		maxProgress, false, nil,
		nextProgressPoint, iterate,
		blocking, blocking,
	)
}

// initWeights randomizes every dendrite weight before the simulation
// starts. Blocking, since nothing else may run concurrently with it.
func (n *ifNetwork) initWeights(s *scheduler.Scheduler) {
	r := rand.New(rand.NewSource(n.seed))
	runDendriteOp(s, n, "initWeights", func(_ *kernel.IFNeuron, d *kernel.IFDendrite, _ *kernel.IFNeuron) {
		kernel.InitDendriteWeight(d, r)
	}, true)
}

// advance runs one simulation timestep: potential decay, external
// input injection, dendrite accumulation, and stochastic activation,
// in that order. Every op shares componentNeurons, so the scheduler's
// near-node exclusion guarantee serializes them correctly across
// Barriers without the caller needing an explicit join.
func (n *ifNetwork) advance(s *scheduler.Scheduler, timestep int64, inputs []float32) {
	cur := timestep % 2
	next := 1 - cur

	runNodeOp(s, n.neurons, "decay", func(nrn *kernel.IFNeuron, _ int64) {
		kernel.DecayPotential(nrn, int(cur), int(next))
	}, false)

	runNodeOp(s, n.neurons, "input", func(nrn *kernel.IFNeuron, i int64) {
		kernel.InjectInput(nrn, int(next), inputs[i])
	}, false)

	runDendriteOp(s, n, "dendrite", func(nrn *kernel.IFNeuron, d *kernel.IFDendrite, far *kernel.IFNeuron) {
		kernel.AccumulateDendrite(nrn, d, far, int(cur), int(next))
	}, false)

	r := rand.New(rand.NewSource(n.seed + timestep))
	runNodeOp(s, n.neurons, "activate", func(nrn *kernel.IFNeuron, _ int64) {
		kernel.Activate(nrn, int(next), r)
	}, true)
}

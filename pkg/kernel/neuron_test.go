package kernel

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecayPotential(t *testing.T) {
	n := &IFNeuron{}
	n.V[0] = 2.0
	n.X[0] = 0
	DecayPotential(n, 0, 1)
	assert.InDelta(t, Mu*2.0, n.V[1], 1e-6)

	n.X[0] = 1
	DecayPotential(n, 0, 1)
	assert.Equal(t, float32(0), n.V[1])
}

func TestInjectInput(t *testing.T) {
	n := &IFNeuron{}
	n.V[1] = 1.0
	InjectInput(n, 1, 0.5)
	assert.InDelta(t, 1.5, n.V[1], 1e-6)
}

func TestAccumulateDendrite(t *testing.T) {
	n := &IFNeuron{}
	far := &IFNeuron{}
	far.X[0] = 1
	d := &IFDendrite{W: 2.0}

	AccumulateDendrite(n, d, far, 0, 1)
	assert.InDelta(t, 2.0, n.V[1], 1e-6)
}

func TestSigmoidMonotonic(t *testing.T) {
	assert.Less(t, Sigmoid(-1), Sigmoid(0))
	assert.Less(t, Sigmoid(0), Sigmoid(1))
	assert.InDelta(t, 0.5, Sigmoid(0), 1e-6)
}

func TestActivateDeterministicBoundaries(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	n := &IFNeuron{}
	n.V[1] = 1e6 // pushes probability to ~1
	Activate(n, 1, r)
	assert.Equal(t, float32(1), n.X[1])

	n2 := &IFNeuron{}
	n2.V[1] = -1e6 // pushes probability to ~0
	Activate(n2, 1, r)
	assert.Equal(t, float32(0), n2.X[1])
}

func TestInitDendriteWeightVaries(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	d1 := &IFDendrite{}
	InitDendriteWeight(d1, r)
	d2 := &IFDendrite{}
	InitDendriteWeight(d2, r)
	assert.NotEqual(t, d1.W, d2.W)
}

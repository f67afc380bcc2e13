package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderedStagesIgnoresBitsetConstructionOrder(t *testing.T) {
	p1 := NewPlan(PackageBinary, Prep, Install)
	p2 := NewPlan(Install, PackageBinary, Prep)
	assert.Equal(t, p1.orderedStages(), p2.orderedStages())
	assert.Equal(t, []Stage{Prep, Install, PackageBinary}, p1.orderedStages())
}

func TestOrderedStagesShortCircuitSelectionOnlyReflectsExplicitBits(t *testing.T) {
	p := Plan{Stages: 1 << Install, ShortCircuit: true}
	assert.Equal(t, []Stage{Install}, p.orderedStages())
}

func TestOrderedStagesIncludesCleanupStagesInCanonicalOrder(t *testing.T) {
	p := NewPlan(RmSpec, RmSource, Prep, RmBuild)
	assert.Equal(t, []Stage{Prep, RmSource, RmBuild, RmSpec}, p.orderedStages())
}

func TestStageStringKnownAndUnknown(t *testing.T) {
	assert.Equal(t, "prep", Prep.String())
	assert.Equal(t, "package-binary", PackageBinary.String())
	assert.Equal(t, "unknown-stage", Stage(99).String())
}

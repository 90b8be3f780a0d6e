package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingParamsOrderIsFixed(t *testing.T) {
	var p ParameterSet
	assert.Equal(t,
		[]string{LabelCPU, LabelMemory, LabelStorage, LabelDuration},
		p.MissingParams(),
	)
}

func TestMissingParamsGPUOnlyForGPUImages(t *testing.T) {
	p := ParameterSet{
		Image:       "pytorch/pytorch:latest",
		CPUUnits:    8,
		MemorySize:  "16Gi",
		StorageSize: "100Gi",
		Duration:    "2h",
	}
	assert.Equal(t, []string{LabelGPUModel}, p.MissingParams())

	// GPU already extracted: nothing missing.
	p.GPU = &GPUSpec{Units: 1, Model: "a100"}
	assert.Empty(t, p.MissingParams())

	// Non-GPU image: GPU never required.
	p.GPU = nil
	p.Image = "nginx:latest"
	assert.Empty(t, p.MissingParams())

	for _, image := range []string{"repo/cuda:12", "tensorflow/tensorflow", "x/PyTorch-serve"} {
		p.Image = image
		assert.Equal(t, []string{LabelGPUModel}, p.MissingParams(), "image: %s", image)
	}
}

func TestMergeParamsScalarOverride(t *testing.T) {
	base := ParameterSet{CPUUnits: 4, MemorySize: "8Gi", Region: RegionWestCoast}
	overlay := ParameterSet{CPUUnits: 8, StorageSize: "100Gi"}

	out := MergeParams(base, overlay)

	assert.Equal(t, 8, out.CPUUnits)
	assert.Equal(t, "8Gi", out.MemorySize)
	assert.Equal(t, "100Gi", out.StorageSize)
	assert.Equal(t, RegionWestCoast, out.Region)
}

func TestMergeParamsGPUIsMergedFieldByField(t *testing.T) {
	base := ParameterSet{GPU: &GPUSpec{Units: 2, Model: "a100"}}

	// Overlay provides only a count: the model survives.
	out := MergeParams(base, ParameterSet{GPU: &GPUSpec{Units: 4}})
	require.NotNil(t, out.GPU)
	assert.Equal(t, 4, out.GPU.Units)
	assert.Equal(t, "a100", out.GPU.Model)

	// Overlay absent: base GPU untouched.
	out = MergeParams(base, ParameterSet{CPUUnits: 8})
	require.NotNil(t, out.GPU)
	assert.Equal(t, 2, out.GPU.Units)

	// Merge never aliases the base spec.
	out.GPU.Units = 99
	assert.Equal(t, 2, base.GPU.Units)
}

func TestMergeParamsEnvIsMergedKeyByKey(t *testing.T) {
	base := ParameterSet{Env: map[string]string{"A": "1", "B": "2"}}
	overlay := ParameterSet{Env: map[string]string{"B": "3", "C": "4"}}

	out := MergeParams(base, overlay)

	assert.Equal(t, map[string]string{"A": "1", "B": "3", "C": "4"}, out.Env)
	assert.Equal(t, "2", base.Env["B"])
}

func TestMergeParamsPortsReplacedWhenProvided(t *testing.T) {
	base := ParameterSet{Ports: DefaultPorts()}
	overlay := ParameterSet{Ports: []PortSpec{{ContainerPort: 80, PublishedPort: 8080, Global: true}}}

	out := MergeParams(base, overlay)
	require.Len(t, out.Ports, 1)
	assert.Equal(t, 80, out.Ports[0].ContainerPort)

	out = MergeParams(base, ParameterSet{})
	assert.Len(t, out.Ports, 2)
}

package manifest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"deploybot/internal/domain/entity"
)

func TestRenderIsIdempotent(t *testing.T) {
	params := entity.ParameterSet{
		CPUUnits:   8,
		MemorySize: "16Gi",
		Duration:   "3h",
		GPU:        &entity.GPUSpec{Units: 2, Model: "a100"},
		Env:        map[string]string{"B": "2", "A": "1"},
	}

	first, err := Render(params)
	require.NoError(t, err)
	second, err := Render(params)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRenderAppliesDefaults(t *testing.T) {
	out, err := Render(entity.ParameterSet{})
	require.NoError(t, err)

	var doc Document
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))

	svc, ok := doc.Services[entity.DefaultServiceName]
	require.True(t, ok)
	assert.Equal(t, entity.DefaultImage, svc.Image)
	assert.Equal(t, entity.DefaultPullPolicy, svc.PullPolicy)
	require.Len(t, svc.Expose, 2)
	assert.Equal(t, []string{entity.DefaultEnvKey + "=" + entity.DefaultEnvValue}, svc.Env)

	prof := doc.Profiles.Compute[entity.DefaultServiceName]
	assert.Equal(t, entity.DefaultCPUUnits, prof.Resources.CPU.Units)
	assert.Equal(t, entity.DefaultMemorySize, prof.Resources.Memory.Size)
	require.Len(t, prof.Resources.Storage, 1)
	assert.Equal(t, entity.DefaultStorageSize, prof.Resources.Storage[0].Size)
	// No GPU requested: no GPU section.
	assert.Nil(t, prof.Resources.GPU)

	assert.Equal(t, entity.DefaultDuration, doc.Profiles.Duration)
	assert.Equal(t, entity.DefaultMode, doc.Profiles.Mode)

	price := doc.Profiles.Placement[entity.DefaultRegion].Pricing[entity.DefaultServiceName]
	assert.Equal(t, entity.PricingToken, price.Token)
	// The renderer's own amount fallback; the extractor's is 6, and the two
	// are deliberately different.
	assert.Equal(t, float64(entity.DefaultAmount), price.Amount)

	cell := doc.Deployment[entity.DefaultServiceName][entity.DefaultRegion]
	assert.Equal(t, entity.DefaultServiceName, cell.Profile)
	assert.Equal(t, entity.DefaultReplicas, cell.Count)
}

func TestRenderGPUSectionOnRequest(t *testing.T) {
	out, err := Render(entity.ParameterSet{GPU: &entity.GPUSpec{}})
	require.NoError(t, err)

	var doc Document
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))

	gpu := doc.Profiles.Compute[entity.DefaultServiceName].Resources.GPU
	require.NotNil(t, gpu)
	assert.Equal(t, entity.DefaultGPUUnits, gpu.Units)
	require.Len(t, gpu.Attributes.Vendor.Nvidia, 1)
	assert.Equal(t, entity.DefaultGPUModel, gpu.Attributes.Vendor.Nvidia[0].Model)
}

func TestValidateRoundTripOfDefaults(t *testing.T) {
	out, err := Render(entity.ParameterSet{})
	require.NoError(t, err)

	res := Validate(out)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
}

func TestValidateParseFailureIsSingleError(t *testing.T) {
	res := Validate("services: [not: valid: yaml")
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "parse failed")
}

func TestValidateRejectsWrongToken(t *testing.T) {
	out, err := Render(entity.ParameterSet{})
	require.NoError(t, err)

	tampered := strings.Replace(out, "token: "+entity.PricingToken, "token: USDC", 1)
	res := Validate(tampered)
	assert.False(t, res.Valid)
	require.NotEmpty(t, res.Errors)
	assert.Contains(t, res.Errors[0], "token must be "+entity.PricingToken)
}

func TestUpdateEmptyPatchOnlyForcesToken(t *testing.T) {
	original, err := Render(entity.ParameterSet{CPUUnits: 4, MemorySize: "8Gi", Amount: 20})
	require.NoError(t, err)

	// Knock the token out of line to prove the updater restores it.
	tampered := strings.Replace(original, "token: "+entity.PricingToken, "token: USDC", 1)

	updated, err := Update(tampered, entity.ParameterSet{})
	require.NoError(t, err)

	var doc Document
	require.NoError(t, yaml.Unmarshal([]byte(updated), &doc))

	prof := doc.Profiles.Compute[entity.DefaultServiceName]
	assert.Equal(t, 4, prof.Resources.CPU.Units)
	assert.Equal(t, "8Gi", prof.Resources.Memory.Size)

	price := doc.Profiles.Placement[entity.DefaultRegion].Pricing[entity.DefaultServiceName]
	assert.Equal(t, entity.PricingToken, price.Token)
	assert.Equal(t, float64(20), price.Amount)
}

func TestUpdatePatchesOnlyProvidedFields(t *testing.T) {
	original, err := Render(entity.ParameterSet{CPUUnits: 4, MemorySize: "8Gi"})
	require.NoError(t, err)

	updated, err := Update(original, entity.ParameterSet{CPUUnits: 16, Replicas: 3})
	require.NoError(t, err)

	var doc Document
	require.NoError(t, yaml.Unmarshal([]byte(updated), &doc))

	prof := doc.Profiles.Compute[entity.DefaultServiceName]
	assert.Equal(t, 16, prof.Resources.CPU.Units)
	assert.Equal(t, "8Gi", prof.Resources.Memory.Size)

	cell := doc.Deployment[entity.DefaultServiceName][entity.DefaultRegion]
	assert.Equal(t, 3, cell.Count)
}

func TestUpdateRenamesService(t *testing.T) {
	original, err := Render(entity.ParameterSet{})
	require.NoError(t, err)

	updated, err := Update(original, entity.ParameterSet{Name: "trainer"})
	require.NoError(t, err)

	var doc Document
	require.NoError(t, yaml.Unmarshal([]byte(updated), &doc))

	_, ok := doc.Services["trainer"]
	assert.True(t, ok)
	_, ok = doc.Services[entity.DefaultServiceName]
	assert.False(t, ok)
	assert.Equal(t, "trainer", doc.Profiles.Name)
	assert.Equal(t, "trainer", doc.Deployment["trainer"][entity.DefaultRegion].Profile)
	_, ok = doc.Profiles.Placement[entity.DefaultRegion].Pricing["trainer"]
	assert.True(t, ok)
}

func TestUpdateParseFailureFallsBackToRender(t *testing.T) {
	updated, err := Update("{{{ not yaml", entity.ParameterSet{CPUUnits: 2})
	require.NoError(t, err)

	var doc Document
	require.NoError(t, yaml.Unmarshal([]byte(updated), &doc))
	assert.Equal(t, 2, doc.Profiles.Compute[entity.DefaultServiceName].Resources.CPU.Units)
	// The rest came from defaults, not from the unparseable input.
	assert.Equal(t, entity.DefaultMemorySize, doc.Profiles.Compute[entity.DefaultServiceName].Resources.Memory.Size)
}

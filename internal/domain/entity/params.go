package entity

import "strings"

// ParameterSet is the possibly-partial compute request extracted from free
// text. Zero values mean "not provided"; defaults are applied by the manifest
// renderer, never during extraction.
type ParameterSet struct {
	Name        string            `json:"name,omitempty" yaml:"name,omitempty"`
	Image       string            `json:"image,omitempty" yaml:"image,omitempty"`
	PullPolicy  string            `json:"pull_policy,omitempty" yaml:"pull_policy,omitempty"`
	Ports       []PortSpec        `json:"ports,omitempty" yaml:"ports,omitempty"`
	Env         map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	CPUUnits    int               `json:"cpu_units,omitempty" yaml:"cpu_units,omitempty"`
	MemorySize  string            `json:"memory_size,omitempty" yaml:"memory_size,omitempty"`
	StorageSize string            `json:"storage_size,omitempty" yaml:"storage_size,omitempty"`
	GPU         *GPUSpec          `json:"gpu,omitempty" yaml:"gpu,omitempty"`
	Duration    string            `json:"duration,omitempty" yaml:"duration,omitempty"`
	Mode        string            `json:"mode,omitempty" yaml:"mode,omitempty"`
	Region      string            `json:"region,omitempty" yaml:"region,omitempty"`
	Amount      float64           `json:"amount,omitempty" yaml:"amount,omitempty"`
	Replicas    int               `json:"replicas,omitempty" yaml:"replicas,omitempty"`
}

type PortSpec struct {
	ContainerPort int  `json:"container_port" yaml:"container_port"`
	PublishedPort int  `json:"published_port" yaml:"published_port"`
	Global        bool `json:"global" yaml:"global"`
}

type GPUSpec struct {
	Units int    `json:"units,omitempty" yaml:"units,omitempty"`
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
}

// Pricing token is a marketplace constant, never user supplied.
const (
	PricingToken = "CST"
	RatePerHour  = 3
)

// Deployment modes.
const (
	ModeProvider = "provider"
	ModeFizz     = "fizz"
)

// Canonical regions. Extraction collapses every recognized region keyword,
// eastcoast aliases included, down to RegionWestCoast. That narrowing is
// inherited behavior callers depend on; keep it until the mapping is revisited.
const (
	RegionWestCoast = "westcoast"
	RegionEastCoast = "eastcoast"
)

// Renderer fallback literals for fields absent from a ParameterSet.
const (
	DefaultServiceName = "py-cuda"
	DefaultImage       = "quay.io/jupyter/pytorch-notebook:cuda12-latest"
	DefaultPullPolicy  = "IfNotPresent"
	DefaultEnvKey      = "JUPYTER_TOKEN"
	DefaultEnvValue    = "insecure-token"
	DefaultCPUUnits    = 16
	DefaultMemorySize  = "64Gi"
	DefaultStorageSize = "500Gi"
	DefaultGPUModel    = "rtx6000-ada"
	DefaultGPUUnits    = 1
	DefaultRegion      = RegionWestCoast
	DefaultDuration    = "2h"
	DefaultAmount      = 15
	DefaultReplicas    = 1
	DefaultMode        = ModeProvider
)

func DefaultPorts() []PortSpec {
	return []PortSpec{
		{ContainerPort: 8888, PublishedPort: 8888, Global: true},
		{ContainerPort: 3000, PublishedPort: 3000, Global: true},
	}
}

// Human-readable labels for missing fields, used verbatim in follow-up
// questions. Order is fixed so repeated evaluations produce the same prompt.
const (
	LabelCPU      = "CPU cores"
	LabelMemory   = "memory size"
	LabelStorage  = "storage size"
	LabelDuration = "deployment duration"
	LabelGPUModel = "GPU model"
)

var gpuWorkloadKeywords = []string{"cuda", "pytorch", "tensorflow"}

// MissingParams reports which required fields are still absent, in the fixed
// label order. GPU model is required only for GPU-flavored images with no GPU
// extracted; amount is computed during extraction and is never reported.
func (p ParameterSet) MissingParams() []string {
	var missing []string
	if p.CPUUnits <= 0 {
		missing = append(missing, LabelCPU)
	}
	if p.MemorySize == "" {
		missing = append(missing, LabelMemory)
	}
	if p.StorageSize == "" {
		missing = append(missing, LabelStorage)
	}
	if p.Duration == "" {
		missing = append(missing, LabelDuration)
	}
	if p.GPU == nil && imageWantsGPU(p.Image) {
		missing = append(missing, LabelGPUModel)
	}
	return missing
}

func imageWantsGPU(image string) bool {
	image = strings.ToLower(image)
	for _, kw := range gpuWorkloadKeywords {
		if strings.Contains(image, kw) {
			return true
		}
	}
	return false
}

// MergeParams overlays one extraction result on top of another. Scalar fields
// and the port list are replaced when the overlay provides them; the GPU spec
// and env map are merged member-by-member so an answer that mentions only a
// GPU count does not wipe a previously extracted model.
func MergeParams(base, overlay ParameterSet) ParameterSet {
	out := base

	if overlay.Name != "" {
		out.Name = overlay.Name
	}
	if overlay.Image != "" {
		out.Image = overlay.Image
	}
	if overlay.PullPolicy != "" {
		out.PullPolicy = overlay.PullPolicy
	}
	if len(overlay.Ports) > 0 {
		out.Ports = overlay.Ports
	}
	if overlay.CPUUnits > 0 {
		out.CPUUnits = overlay.CPUUnits
	}
	if overlay.MemorySize != "" {
		out.MemorySize = overlay.MemorySize
	}
	if overlay.StorageSize != "" {
		out.StorageSize = overlay.StorageSize
	}
	if overlay.Duration != "" {
		out.Duration = overlay.Duration
	}
	if overlay.Mode != "" {
		out.Mode = overlay.Mode
	}
	if overlay.Region != "" {
		out.Region = overlay.Region
	}
	if overlay.Amount > 0 {
		out.Amount = overlay.Amount
	}
	if overlay.Replicas > 0 {
		out.Replicas = overlay.Replicas
	}

	if overlay.GPU != nil {
		merged := GPUSpec{}
		if base.GPU != nil {
			merged = *base.GPU
		}
		if overlay.GPU.Units > 0 {
			merged.Units = overlay.GPU.Units
		}
		if overlay.GPU.Model != "" {
			merged.Model = overlay.GPU.Model
		}
		out.GPU = &merged
	}

	if len(overlay.Env) > 0 {
		merged := make(map[string]string, len(base.Env)+len(overlay.Env))
		for k, v := range base.Env {
			merged[k] = v
		}
		for k, v := range overlay.Env {
			merged[k] = v
		}
		out.Env = merged
	}

	return out
}

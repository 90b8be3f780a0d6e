package manifest

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"deploybot/internal/domain/entity"
	"deploybot/internal/infrastructure/metrics"
)

const documentVersion = "1.0"

// Render projects a parameter set into the YAML deployment document. Every
// absent field gets its hardcoded fallback, so rendering never fails for a
// structurally valid ParameterSet. Output is deterministic: map keys are
// single-valued and env entries are emitted sorted.
func Render(params entity.ParameterSet) (string, error) {
	metrics.IncManifestRender()

	doc := Build(params)

	out, err := yaml.Marshal(&doc)
	if err != nil {
		metrics.IncError("manifest", "marshal")
		return "", fmt.Errorf("marshal document: %w", err)
	}
	return string(out), nil
}

// Build assembles the typed document with defaults applied. Split from Render
// so the updater can reuse it as its parse-failure fallback.
func Build(params entity.ParameterSet) Document {
	name := params.Name
	if name == "" {
		name = entity.DefaultServiceName
	}
	image := params.Image
	if image == "" {
		image = entity.DefaultImage
	}
	pullPolicy := params.PullPolicy
	if pullPolicy == "" {
		pullPolicy = entity.DefaultPullPolicy
	}
	ports := params.Ports
	if len(ports) == 0 {
		ports = entity.DefaultPorts()
	}
	env := params.Env
	if len(env) == 0 {
		env = map[string]string{entity.DefaultEnvKey: entity.DefaultEnvValue}
	}
	cpu := params.CPUUnits
	if cpu <= 0 {
		cpu = entity.DefaultCPUUnits
	}
	memory := params.MemorySize
	if memory == "" {
		memory = entity.DefaultMemorySize
	}
	storage := params.StorageSize
	if storage == "" {
		storage = entity.DefaultStorageSize
	}
	duration := params.Duration
	if duration == "" {
		duration = entity.DefaultDuration
	}
	mode := params.Mode
	if mode == "" {
		mode = entity.DefaultMode
	}
	region := params.Region
	if region == "" {
		region = entity.DefaultRegion
	}
	amount := params.Amount
	if amount <= 0 {
		amount = entity.DefaultAmount
	}
	replicas := params.Replicas
	if replicas <= 0 {
		replicas = entity.DefaultReplicas
	}

	return Document{
		Version: documentVersion,
		Services: map[string]Service{
			name: {
				Image:      image,
				PullPolicy: pullPolicy,
				Expose:     exposeList(ports),
				Env:        envList(env),
			},
		},
		Profiles: Profiles{
			Name:     name,
			Duration: duration,
			Mode:     mode,
			Compute: map[string]ComputeProfile{
				name: {Resources: Resources{
					CPU:     CPUResource{Units: cpu},
					Memory:  MemoryResource{Size: memory},
					Storage: []StorageMount{{Size: storage}},
					GPU:     gpuResource(params.GPU),
				}},
			},
			Placement: map[string]Placement{
				region: {Pricing: map[string]Price{
					name: {Token: entity.PricingToken, Amount: amount},
				}},
			},
		},
		Deployment: map[string]map[string]DeploymentCell{
			name: {
				region: {Profile: name, Count: replicas},
			},
		},
	}
}

func exposeList(ports []entity.PortSpec) []Expose {
	out := make([]Expose, 0, len(ports))
	for _, p := range ports {
		published := p.PublishedPort
		if published == 0 {
			published = p.ContainerPort
		}
		out = append(out, Expose{Port: p.ContainerPort, As: published, Global: p.Global})
	}
	return out
}

func envList(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

// gpuResource emits a GPU section only when one was requested, with per-field
// fallbacks for count and model.
func gpuResource(gpu *entity.GPUSpec) *GPUResource {
	if gpu == nil {
		return nil
	}
	units := gpu.Units
	if units <= 0 {
		units = entity.DefaultGPUUnits
	}
	model := gpu.Model
	if model == "" {
		model = entity.DefaultGPUModel
	}
	return &GPUResource{
		Units: units,
		Attributes: GPUAttributes{
			Vendor: GPUVendor{Nvidia: []GPUModel{{Model: model}}},
		},
	}
}

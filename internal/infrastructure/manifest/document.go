package manifest

// The deployment document: services, compute profiles, placement pricing and
// the deployment mapping, serialized as YAML. Maps are keyed by service name
// or region; the toolchain assumes a single entry at each level.

type Document struct {
	Version    string                               `yaml:"version"`
	Services   map[string]Service                   `yaml:"services"`
	Profiles   Profiles                             `yaml:"profiles"`
	Deployment map[string]map[string]DeploymentCell `yaml:"deployment"`
}

type Service struct {
	Image      string   `yaml:"image"`
	PullPolicy string   `yaml:"pull_policy,omitempty"`
	Expose     []Expose `yaml:"expose,omitempty"`
	Env        []string `yaml:"env,omitempty"`
}

type Expose struct {
	Port   int  `yaml:"port"`
	As     int  `yaml:"as"`
	Global bool `yaml:"global"`
}

type Profiles struct {
	Name      string                    `yaml:"name"`
	Duration  string                    `yaml:"duration"`
	Mode      string                    `yaml:"mode"`
	Compute   map[string]ComputeProfile `yaml:"compute"`
	Placement map[string]Placement      `yaml:"placement"`
}

type ComputeProfile struct {
	Resources Resources `yaml:"resources"`
}

type Resources struct {
	CPU     CPUResource    `yaml:"cpu"`
	Memory  MemoryResource `yaml:"memory"`
	Storage []StorageMount `yaml:"storage"`
	GPU     *GPUResource   `yaml:"gpu,omitempty"`
}

type CPUResource struct {
	Units int `yaml:"units"`
}

type MemoryResource struct {
	Size string `yaml:"size"`
}

type StorageMount struct {
	Size string `yaml:"size"`
}

type GPUResource struct {
	Units      int           `yaml:"units"`
	Attributes GPUAttributes `yaml:"attributes"`
}

type GPUAttributes struct {
	Vendor GPUVendor `yaml:"vendor"`
}

type GPUVendor struct {
	Nvidia []GPUModel `yaml:"nvidia"`
}

type GPUModel struct {
	Model string `yaml:"model"`
}

type Placement struct {
	Pricing map[string]Price `yaml:"pricing"`
}

type Price struct {
	Token  string  `yaml:"token"`
	Amount float64 `yaml:"amount"`
}

type DeploymentCell struct {
	Profile string `yaml:"profile"`
	Count   int    `yaml:"count"`
}

package compose

// =============================================================================
// Manifest - Main Output Type
// =============================================================================

// Manifest is a parsed compose manifest, decoupled from compose-go types.
// Services preserve manifest declaration order, which the deploy-order
// tie-breaking depends on.
type Manifest struct {
	Services []Service `json:"services"`
	Networks []string  `json:"networks,omitempty"`
	Volumes  []string  `json:"volumes,omitempty"`
}

// Service returns the named service, or nil if the manifest does not
// declare it.
func (m *Manifest) Service(name string) *Service {
	for i := range m.Services {
		if m.Services[i].Name == name {
			return &m.Services[i]
		}
	}
	return nil
}

// =============================================================================
// Service Types
// =============================================================================

// Service is a single service declaration.
type Service struct {
	Name        string            `json:"name"`
	Image       string            `json:"image,omitempty"`
	HasBuild    bool              `json:"has_build,omitempty"` // inline build context present
	Command     []string          `json:"command,omitempty"`
	Environment map[string]string `json:"environment,omitempty"`
	Ports       []PortMapping     `json:"ports,omitempty"`
	Volumes     []VolumeMount     `json:"volumes,omitempty"`
	DependsOn   []string          `json:"depends_on,omitempty"` // depends_on + link targets
	Restart     string            `json:"restart,omitempty"`    // always, unless-stopped, on-failure or ""
}

// PortMapping is a host:container port pair.
type PortMapping struct {
	HostPort      int `json:"host_port"`
	ContainerPort int `json:"container_port"`
}

// VolumeMount is a service volume declaration. Named mounts reference a
// manifest volume and get the project prefix at deploy time; bind mounts
// pass through verbatim.
type VolumeMount struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Named    bool   `json:"named"`
	ReadOnly bool   `json:"readonly,omitempty"`
}

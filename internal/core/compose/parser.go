// Package compose parses compose manifests and computes service deploy
// order. This is part of the Functional Core - no I/O, no side effects.
package compose

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
	"gopkg.in/yaml.v3"
)

// restartPolicies are the only restart values passed through to the runtime.
var restartPolicies = map[string]bool{
	"always":         true,
	"unless-stopped": true,
	"on-failure":     true,
}

// =============================================================================
// Parser
// =============================================================================

// Parse parses compose manifest text into a Manifest.
//
// Service order follows manifest declaration order, extracted with a
// separate yaml pass since compose-go returns services as a map. A manifest
// without a services key fails with ErrNoServices; services declaring only
// an inline build context are kept (with HasBuild set) so the orchestrator
// can skip them with a warning.
func Parse(manifest string) (*Manifest, error) {
	if strings.TrimSpace(manifest) == "" {
		return nil, NewParseError("", "manifest is empty", ErrEmptyInput)
	}

	declared, err := serviceOrder(manifest)
	if err != nil {
		return nil, err
	}

	proj, err := loadProject(manifest)
	if err != nil {
		return nil, err
	}

	out := &Manifest{
		Services: make([]Service, 0, len(declared)),
	}

	for _, name := range declared {
		svc, ok := proj.Services[name]
		if !ok {
			continue
		}
		out.Services = append(out.Services, convertService(name, svc))
	}

	for name := range proj.Networks {
		out.Networks = append(out.Networks, name)
	}
	sort.Strings(out.Networks)

	for name := range proj.Volumes {
		out.Volumes = append(out.Volumes, name)
	}
	sort.Strings(out.Volumes)

	return out, nil
}

// serviceOrder extracts service names in declaration order and validates the
// manifest shape. yaml.Node preserves mapping key order, which the FIFO
// deploy-order tie-breaking depends on.
func serviceOrder(manifest string) ([]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(manifest), &doc); err != nil {
		return nil, NewParseError("", "invalid YAML syntax", ErrInvalidYAML)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, NewParseError("", "manifest is not a mapping", ErrInvalidYAML)
	}

	root := doc.Content[0]
	var servicesNode *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == "services" {
			servicesNode = root.Content[i+1]
			break
		}
	}
	if servicesNode == nil {
		return nil, NewParseError("services", "'services' key not found", ErrNoServices)
	}
	if servicesNode.Kind != yaml.MappingNode || len(servicesNode.Content) == 0 {
		return nil, NewParseError("services", "no services defined", ErrNoServices)
	}

	names := make([]string, 0, len(servicesNode.Content)/2)
	for i := 0; i+1 < len(servicesNode.Content); i += 2 {
		names = append(names, servicesNode.Content[i].Value)
	}
	return names, nil
}

// loadProject loads the manifest with compose-go. Validation is skipped so
// image-less services survive parsing; the orchestrator decides what to do
// with them.
func loadProject(manifest string) (*types.Project, error) {
	var dict map[string]interface{}
	if err := yaml.Unmarshal([]byte(manifest), &dict); err != nil {
		return nil, NewParseError("", "invalid YAML syntax", ErrInvalidYAML)
	}

	proj, err := loader.LoadWithContext(context.Background(), types.ConfigDetails{
		ConfigFiles: []types.ConfigFile{
			{Content: []byte(manifest), Config: dict},
		},
	}, func(opts *loader.Options) {
		opts.SetProjectName("auraops-manifest", false)
		opts.SkipValidation = true
		opts.SkipInterpolation = true
		opts.SkipNormalization = true
		opts.SkipExtends = true
	})
	if err != nil {
		return nil, NewParseError("", err.Error(), ErrInvalidYAML)
	}
	return proj, nil
}

// convertService converts a compose-go service to our Service type.
func convertService(name string, svc types.ServiceConfig) Service {
	out := Service{
		Name:     name,
		Image:    svc.Image,
		HasBuild: svc.Build != nil,
		Command:  svc.Command,
	}

	if len(svc.Environment) > 0 {
		out.Environment = make(map[string]string, len(svc.Environment))
		for k, v := range svc.Environment {
			if v != nil {
				out.Environment[k] = *v
			}
		}
	}

	// Only fully specified host:container pairs are published.
	for _, p := range svc.Ports {
		if p.Published == "" || p.Target == 0 {
			continue
		}
		host, err := strconv.Atoi(p.Published)
		if err != nil {
			continue
		}
		out.Ports = append(out.Ports, PortMapping{
			HostPort:      host,
			ContainerPort: int(p.Target),
		})
	}

	for _, v := range svc.Volumes {
		if v.Target == "" {
			continue
		}
		named := v.Type == "volume"
		if v.Type == "" {
			named = !strings.HasPrefix(v.Source, "/") && !strings.HasPrefix(v.Source, ".")
		}
		out.Volumes = append(out.Volumes, VolumeMount{
			Source:   v.Source,
			Target:   v.Target,
			Named:    named,
			ReadOnly: v.ReadOnly,
		})
	}

	out.DependsOn = dependencies(svc)

	if restartPolicies[svc.Restart] {
		out.Restart = svc.Restart
	}

	return out
}

// dependencies merges depends_on and links declarations. Links of the form
// "service:alias" contribute only the service name. The result is
// deduplicated with depends_on targets sorted for stability.
func dependencies(svc types.ServiceConfig) []string {
	seen := make(map[string]bool)
	var deps []string

	var fromDependsOn []string
	for dep := range svc.DependsOn {
		fromDependsOn = append(fromDependsOn, dep)
	}
	sort.Strings(fromDependsOn)
	for _, dep := range fromDependsOn {
		if !seen[dep] {
			seen[dep] = true
			deps = append(deps, dep)
		}
	}

	for _, link := range svc.Links {
		dep := strings.SplitN(link, ":", 2)[0]
		if dep != "" && !seen[dep] {
			seen[dep] = true
			deps = append(deps, dep)
		}
	}

	return deps
}

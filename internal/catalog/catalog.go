// Package catalog holds the closed set of generation services the vending
// machine offers. The set is static configuration loaded at startup and is
// never modified at runtime.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Service describes one catalog entry: its route slug, free-trial
// allowance, the prompt sent to the text-generation provider, and the
// canned fallback used when no provider is configured. Both templates are
// text/template bodies rendered with the request parameters.
type Service struct {
	Name        string   `yaml:"name"`
	DisplayName string   `yaml:"display_name"`
	Trials      int      `yaml:"trials"`
	Params      []string `yaml:"params"`
	Prompt      string   `yaml:"prompt"`
	Canned      string   `yaml:"canned"`
}

// Catalog is the full service set with name lookup.
type Catalog struct {
	services []Service
	byName   map[string]Service
}

type catalogFile struct {
	Services []Service `yaml:"services"`
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	if len(file.Services) == 0 {
		return nil, fmt.Errorf("catalog file %s defines no services", path)
	}

	return build(file.Services)
}

// Default returns the built-in catalog matching the product's three
// vending-machine services plus the resume writer.
func Default() *Catalog {
	c, err := build([]Service{
		{
			Name:        "copywriting",
			DisplayName: "Elite Copywriting",
			Trials:      3,
			Params:      []string{"copy_type", "tone", "name"},
			Prompt:      "Write elite {{.copy_type}} copy for '{{.name}}' in a {{.tone}} tone.",
			Canned:      "Elite {{.copy_type}} for '{{.name}}' in a {{.tone}} tone.",
		},
		{
			Name:        "freelance",
			DisplayName: "Freelance Proposal",
			Trials:      3,
			Params:      []string{"job_type", "platform", "level"},
			Prompt:      "Write an elite freelance proposal for a {{.job_type}} job on {{.platform}} at {{.level}} level.",
			Canned:      "Elite proposal for {{.job_type}} on {{.platform}} at {{.level}} level.",
		},
		{
			Name:        "business-plan",
			DisplayName: "Business Plan",
			Trials:      3,
			Params:      []string{"niche", "output"},
			Prompt:      "Write an elite business plan for the {{.niche}} niche, delivered in {{.output}} format.",
			Canned:      "Elite business idea for {{.niche}} in {{.output}} format.",
		},
		{
			Name:        "resume",
			DisplayName: "Resume Writer",
			Trials:      3,
			Params:      []string{"role", "experience", "tone"},
			Prompt:      "Write an elite resume for a {{.role}} candidate with {{.experience}} experience in a {{.tone}} tone.",
			Canned:      "Elite resume for a {{.role}} with {{.experience}} experience in a {{.tone}} tone.",
		},
	})
	if err != nil {
		// The built-in catalog is validated by tests; a failure here is a bug
		panic(err)
	}
	return c
}

func build(services []Service) (*Catalog, error) {
	byName := make(map[string]Service, len(services))
	for _, svc := range services {
		if svc.Name == "" {
			return nil, fmt.Errorf("catalog service with empty name")
		}
		if _, dup := byName[svc.Name]; dup {
			return nil, fmt.Errorf("duplicate catalog service %q", svc.Name)
		}
		if svc.Trials < 0 {
			return nil, fmt.Errorf("catalog service %q has negative trial allowance", svc.Name)
		}
		byName[svc.Name] = svc
	}
	return &Catalog{services: services, byName: byName}, nil
}

// Services returns all catalog entries in declaration order.
func (c *Catalog) Services() []Service {
	return c.services
}

// Names returns the service slugs in declaration order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.services))
	for i, svc := range c.services {
		names[i] = svc.Name
	}
	return names
}

// Get looks up a service by slug.
func (c *Catalog) Get(name string) (Service, bool) {
	svc, ok := c.byName[name]
	return svc, ok
}

// Allowances returns the per-service trial allowance map the usage ledger
// is constructed from.
func (c *Catalog) Allowances() map[string]int {
	out := make(map[string]int, len(c.services))
	for _, svc := range c.services {
		out[svc.Name] = svc.Trials
	}
	return out
}

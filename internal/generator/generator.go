package generator

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/adetolarazak567-alt/AI-Smartvendoo/internal/catalog"
)

const systemPrompt = "You are an elite copywriter. Produce polished, ready-to-use text. Respond with the deliverable only."

// Generator renders a catalog service's prompt from request parameters
// and runs it through the configured provider. Without a provider it
// falls back to the service's canned template.
type Generator struct {
	catalog  *catalog.Catalog
	provider Provider
}

// New creates a generator. provider may be nil.
func New(cat *catalog.Catalog, provider Provider) *Generator {
	return &Generator{catalog: cat, provider: provider}
}

// Generate produces text for the named service. Unknown parameters are
// dropped; missing ones render as empty strings, matching the catalog's
// declared parameter list.
func (g *Generator) Generate(ctx context.Context, serviceName string, params map[string]string) (string, error) {
	svc, ok := g.catalog.Get(serviceName)
	if !ok {
		return "", fmt.Errorf("unknown service %q", serviceName)
	}

	values := make(map[string]string, len(svc.Params))
	for _, key := range svc.Params {
		values[key] = params[key]
	}

	if g.provider == nil {
		return renderTemplate(svc.Name+":canned", svc.Canned, values)
	}

	prompt, err := renderTemplate(svc.Name+":prompt", svc.Prompt, values)
	if err != nil {
		return "", err
	}

	result, err := g.provider.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	return result, nil
}

func renderTemplate(name, body string, values map[string]string) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=zero").Parse(body)
	if err != nil {
		return "", fmt.Errorf("invalid template for %s: %w", name, err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, values); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

package tags

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-tagbridge/pkg/foreign"
)

// Manifest is the declarative registration format for a set of tags:
//
//	tags:
//	  - name: stamp
//	    needs_context: true
//	    source: |
//	      function stamp(h)
//	        h:set("rendered_at", "now")
//	        return ""
//	      end
//	    function: stamp
type Manifest struct {
	Tags []ManifestTag `yaml:"tags"`
}

// ManifestTag declares one tag. Source carries the foreign script that
// defines the entry point named by Function; how both are turned into a
// callable is the factory's business, so the loader stays runtime-agnostic.
type ManifestTag struct {
	Name         string `yaml:"name"`
	NeedsContext bool   `yaml:"needs_context"`
	Source       string `yaml:"source"`
	Function     string `yaml:"function"`
}

// CallableFactory builds a foreign callable for one manifest entry.
type CallableFactory func(tag ManifestTag) (foreign.Callable, error)

// LoadManifest decodes a manifest from r.
func LoadManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("tags: decode manifest: %w", err)
	}
	return &m, nil
}

// LoadManifestFile decodes a manifest from a file on disk.
func LoadManifestFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tags: open manifest: %w", err)
	}
	defer f.Close()
	return LoadManifest(f)
}

// Register materialises every manifest entry through factory and adds it to
// the registry.
func (m *Manifest) Register(registry *Registry, factory CallableFactory) error {
	if registry == nil {
		return fmt.Errorf("tags: registry is required")
	}
	if factory == nil {
		return fmt.Errorf("tags: callable factory is required")
	}

	for _, tag := range m.Tags {
		if strings.TrimSpace(tag.Name) == "" {
			return fmt.Errorf("tags: manifest entry without a name")
		}
		callable, err := factory(tag)
		if err != nil {
			return fmt.Errorf("tags: build callable for %q: %w", tag.Name, err)
		}
		if err := registry.Register(Definition{
			Name:         tag.Name,
			Callable:     callable,
			NeedsContext: tag.NeedsContext,
		}); err != nil {
			return err
		}
	}
	return nil
}

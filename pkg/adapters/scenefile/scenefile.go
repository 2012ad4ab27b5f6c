// Package scenefile reads scene manifests: YAML or JSON documents listing the
// named objects a host scene exposes.
//
//	name: house
//	objects:
//	  - Wall                  # shorthand, ref = name
//	  - name: Roof
//	    ref: mesh/roof
//	    attributes:
//	      material: slate
package scenefile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Extensions lists the file extensions this adapter understands.
var Extensions = []string{".yaml", ".yml", ".json"}

// Manifest is a decoded scene document. It implements ports.ObjectProvider.
type Manifest struct {
	Name    string
	Entries []domain.Object
}

type rawManifest struct {
	Name    string `yaml:"name" json:"name"`
	Objects []any  `yaml:"objects" json:"objects"`
}

// Parse decodes manifest data. ext selects JSON (".json"); anything else is YAML.
func Parse(data []byte, ext string) (*Manifest, error) {
	var raw rawManifest
	if strings.ToLower(ext) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse scene json: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse scene yaml: %w", err)
		}
	}

	m := &Manifest{Name: raw.Name, Entries: make([]domain.Object, 0, len(raw.Objects))}
	for i, entry := range raw.Objects {
		obj, err := decodeObject(entry)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}
		m.Entries = append(m.Entries, obj)
	}
	return m, nil
}

func decodeObject(entry any) (domain.Object, error) {
	if s, ok := entry.(string); ok {
		return domain.Object{Name: s, Ref: s}, nil
	}

	var obj domain.Object
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &obj,
	})
	if err != nil {
		return obj, err
	}
	if err := decoder.Decode(entry); err != nil {
		return obj, fmt.Errorf("invalid object entry: %w", err)
	}
	if obj.Name == "" {
		return obj, fmt.Errorf("object missing name")
	}
	if obj.Ref == "" {
		obj.Ref = obj.Name
	}
	return obj, nil
}

// Open reads and decodes the manifest at path.
func Open(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}
	m, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return m, nil
}

// Objects returns the manifest entries.
func (m *Manifest) Objects(ctx context.Context) ([]domain.Object, error) {
	return append([]domain.Object(nil), m.Entries...), nil
}

// Encode writes the manifest as YAML.
func (m *Manifest) Encode() ([]byte, error) {
	out := struct {
		Name    string          `yaml:"name"`
		Objects []domain.Object `yaml:"objects"`
	}{Name: m.Name, Objects: m.Entries}
	return yaml.Marshal(out)
}

// Loader implements ports.DocumentLoader for manifests under a root directory.
type Loader struct {
	root string
}

// NewLoader creates a loader resolving names relative to root.
func NewLoader(root string) *Loader {
	return &Loader{root: root}
}

// Load opens the manifest named name.
func (l *Loader) Load(ctx context.Context, name string) (ports.ObjectProvider, error) {
	if !filepath.IsLocal(name) {
		return nil, fmt.Errorf("scene manifest %q is outside %s", name, l.root)
	}
	return Open(filepath.Join(l.root, name))
}

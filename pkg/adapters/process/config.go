package process

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Host is an allow-listed program that consumes placements on stdin.
type Host struct {
	Name    string            `yaml:"name"`
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env"`
	// Dir is the working directory, relative to the runner's base directory.
	Dir         string `yaml:"dir"`
	Description string `yaml:"description"`
}

func (h Host) check() error {
	switch {
	case h.Name == "":
		return errors.New("missing name")
	case h.Command == "":
		return fmt.Errorf("%s: missing command", h.Name)
	case h.Dir != "" && !filepath.IsLocal(h.Dir):
		return fmt.Errorf("%s: dir %q leaves the scene directory", h.Name, h.Dir)
	}
	for k := range h.Env {
		if strings.HasPrefix(strings.ToUpper(k), EnvPrefix) {
			return fmt.Errorf("%s: env %s uses the reserved %s prefix", h.Name, k, EnvPrefix)
		}
	}
	return nil
}

// Hosts is the allow-list keyed by host name.
type Hosts map[string]Host

// Names returns the host names, sorted.
func (h Hosts) Names() []string {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

type hostsFile struct {
	Hosts []Host `yaml:"hosts"`
}

// ParseHosts decodes a hosts document. JSON is accepted as YAML.
// Every entry needs a unique name and a command.
func ParseHosts(data []byte) (Hosts, error) {
	var f hostsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	hosts := make(Hosts, len(f.Hosts))
	var errs []error
	for i, h := range f.Hosts {
		if err := h.check(); err != nil {
			errs = append(errs, fmt.Errorf("host %d: %w", i+1, err))
			continue
		}
		if _, dup := hosts[h.Name]; dup {
			errs = append(errs, fmt.Errorf("host %d: %s listed twice", i+1, h.Name))
			continue
		}
		hosts[h.Name] = h
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return hosts, nil
}

// LoadHosts reads the hosts file at path. A missing file means no hosts.
func LoadHosts(path string) (Hosts, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Hosts{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read hosts file: %w", err)
	}
	hosts, err := ParseHosts(data)
	if err != nil {
		return nil, fmt.Errorf("invalid hosts file %s: %w", path, err)
	}
	return hosts, nil
}

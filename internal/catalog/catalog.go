// Package catalog loads the reference lists (roles, clusters) that profile edits are checked against.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sentinel choices that are not catalog entries themselves.
const (
	RoleOther       = "Other"
	ClusterMultiple = "Multiple"
)

//go:embed default.yaml
var defaultYAML []byte

// Catalog is the set of selectable roles and clusters.
type Catalog struct {
	Version  int      `yaml:"version"`
	Roles    []string `yaml:"roles"`
	Clusters []string `yaml:"clusters"`
}

// Parse decodes a catalog document.
func Parse(b []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if c.Version != 1 {
		return nil, errors.New("catalog: unsupported version")
	}
	if len(c.Roles) == 0 || len(c.Clusters) == 0 {
		return nil, errors.New("catalog: roles and clusters must not be empty")
	}
	return &c, nil
}

// Load reads a catalog file, or the built-in catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return Parse(b)
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// HasRole reports whether role is a catalog role. Other is not a catalog role.
func (c *Catalog) HasRole(role string) bool {
	return contains(c.Roles, role)
}

// HasCluster reports whether cluster is a catalog cluster.
func (c *Catalog) HasCluster(cluster string) bool {
	return contains(c.Clusters, cluster)
}

func contains(list []string, v string) bool {
	v = strings.TrimSpace(v)
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

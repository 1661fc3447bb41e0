// Package catalog is the Catalog Resolver (CR): it loads per-application
// manifests and produces the ordered, de-duplicated, filtered application
// list a deploy run operates over. Loading is grounded on the teacher's
// pkg/cmd/common.go resolveTestPlan, which locates a test plan's manifest.toml
// via BurntSushi/toml; CR generalizes that single-manifest lookup into a
// whole-directory catalog load.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/errs"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/model"
)

// Manifest is the declared metadata for one application, read from
// catalog/<id>.toml.
type Manifest struct {
	ID                string `toml:"id"`
	DeployType        string `toml:"deploy_type"`
	Lifecycle         string `toml:"lifecycle"`
	StorageRequiredMB int    `toml:"storage_required_mb"`
}

// Load reads every *.toml file directly under dir and returns the manifests
// in directory (filename) order — the "original catalog order" that CR's
// step 8 sort is defined against. Load is deterministic: repeated calls
// against an unchanged directory return an identical sequence.
func Load(dir string) ([]Manifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errs.Wrap(errs.Discovery, fmt.Sprintf("failed to read catalog directory %s", dir), err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	manifests := make([]Manifest, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		var m Manifest
		if _, err := toml.DecodeFile(path, &m); err != nil {
			return nil, errs.Wrap(errs.Discovery, fmt.Sprintf("failed to parse manifest %s", path), err)
		}
		if m.ID == "" {
			m.ID = strings.TrimSuffix(name, ".toml")
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}

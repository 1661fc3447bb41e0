// Package inventory is the Inventory Builder (IB): it generates the deploy
// inventory for a target host from a selected application subset and
// per-run variables. Idempotence (byte-identical output for identical
// input) is achieved by marshaling an explicit, ordered yaml.Node document
// instead of a Go map, whose iteration order Go deliberately randomizes.
// Serialization via gopkg.in/yaml.v3 is grounded on cuemby-warren's go.mod
// (see DESIGN.md); the "generate from a template plus a selected subset"
// shape is grounded on the teacher's pkg/build/docker.go staging approach
// (copy a template, inject the run-specific values, write it out).
package inventory

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/config"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/errs"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/model"
)

// VarEntry is one ordered key/value pair in the generated inventory's "vars"
// block. Order, not a map, is what makes IB's output byte-identical across
// calls with identical input.
type VarEntry struct {
	Key   string
	Value interface{}
}

// Well-known var keys.
const (
	VarAsyncEnabled = "ASYNC_ENABLED"
	VarRuntime      = "RUNTIME"
)

// Result is IB's output: the paths of the two files it manages.
type Result struct {
	InventoryPath string
	PasswordPath  string
}

// Build generates <inventory_dir>/<type>.yml and creates .password (mode
// 0600) if it does not already exist. Calling Build twice with identical
// (deployType, distro, apps, vars) produces a byte-identical <type>.yml.
// An empty apps list is rejected with InvalidInput.
func Build(dirs config.Dirs, deployType string, distro model.Distro, apps model.Catalog, vars []VarEntry) (*Result, error) {
	if len(apps) == 0 {
		return nil, errs.New(errs.InvalidInput, "inventory build requires a non-empty application list")
	}

	dir := dirs.Inventory(deployType)
	if err := config.EnsureDir(dir); err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to create inventory directory", err)
	}

	doc := buildDocument(distro, apps, vars)
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to marshal inventory document", err)
	}

	invPath := filepath.Join(dir, deployType+".yml")
	if err := os.WriteFile(invPath, out, 0o644); err != nil {
		return nil, errs.Wrap(errs.Internal, fmt.Sprintf("failed to write inventory %s", invPath), err)
	}

	pwPath := filepath.Join(dir, ".password")
	if err := ensurePasswordFile(pwPath); err != nil {
		return nil, err
	}

	return &Result{InventoryPath: invPath, PasswordPath: pwPath}, nil
}

func ensurePasswordFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return errs.Wrap(errs.Internal, "failed to stat password file", err)
	}

	pw, err := generatePassword()
	if err != nil {
		return errs.Wrap(errs.Internal, "failed to generate vault password", err)
	}
	if err := os.WriteFile(path, []byte(pw+"\n"), 0o600); err != nil {
		return errs.Wrap(errs.Internal, fmt.Sprintf("failed to write password file %s", path), err)
	}
	return nil
}

func buildDocument(distro model.Distro, apps model.Catalog, vars []VarEntry) *yaml.Node {
	root := &yaml.Node{Kind: yaml.MappingNode}

	root.Content = append(root.Content, scalar("distro"), scalar(string(distro)))

	appsSeq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, a := range apps {
		appsSeq.Content = append(appsSeq.Content, scalar(string(a)))
	}
	root.Content = append(root.Content, scalar("apps"), appsSeq)

	varsMap := &yaml.Node{Kind: yaml.MappingNode}
	for _, v := range vars {
		varsMap.Content = append(varsMap.Content, scalar(v.Key), valueNode(v.Value))
	}
	root.Content = append(root.Content, scalar("vars"), varsMap)

	return &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}
}

func scalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func valueNode(v interface{}) *yaml.Node {
	switch val := v.(type) {
	case bool:
		s := "false"
		if val {
			s = "true"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: s}
	case int:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprintf("%d", val)}
	case string:
		return scalar(val)
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: fmt.Sprintf("%v", val)}
	}
}

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli"

	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/catalog"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/config"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/model"
)

// DiscoverCommand is the specification of the `discover` command: it runs
// the Catalog Resolver and prints the kept application ids as a compact
// JSON array on stdout, per spec.md §6's file format.
var DiscoverCommand = cli.Command{
	Name:      "discover",
	Usage:     "resolve the application catalog for a deploy type",
	Action:    discoverCommand,
	ArgsUsage: "[catalog-dir]",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "type", Usage: "deploy type: server, workstation, universal", Required: true},
		cli.StringFlag{Name: "lifecycles", Usage: "space-separated lifecycle allow-list"},
		cli.StringFlag{Name: "include", Usage: "include regex"},
		cli.StringFlag{Name: "exclude", Usage: "exclude regex"},
		cli.StringFlag{Name: "final-exclude", Usage: "final exclude regex, applied after the storage gate"},
		cli.StringSliceFlag{Name: "whitelist", Usage: "app id to allow; repeatable"},
		cli.IntFlag{Name: "storage-available-mb", Usage: "storage available on the target host, in MB"},
	},
}

func discoverCommand(c *cli.Context) error {
	catalogDir := c.Args().First()
	if catalogDir == "" {
		catalogDir = "catalog"
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	deployType, err := model.ParseDeployType(firstNonEmpty(c.String("type"), cfg.DeployType))
	if err != nil {
		return err
	}

	lifecycles, err := resolveLifecycles(c, cfg)
	if err != nil {
		return err
	}

	manifests, err := catalog.Load(catalogDir)
	if err != nil {
		return err
	}

	whitelist := make([]model.AppId, 0, len(c.StringSlice("whitelist")))
	for _, w := range c.StringSlice("whitelist") {
		whitelist = append(whitelist, model.AppId(w))
	}

	res, err := catalog.Resolve(manifests, catalog.ResolveInput{
		DeployType:         deployType,
		Lifecycles:         lifecycles,
		IncludeRegex:       c.String("include"),
		ExcludeRegex:       c.String("exclude"),
		FinalExcludeRegex:  c.String("final-exclude"),
		Whitelist:          whitelist,
		StorageAvailableMB: c.Int("storage-available-mb"),
	})
	if err != nil {
		return err
	}

	out, err := json.Marshal(res.Kept)
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	emitGithubOutputs(cfg, res.Kept)
	return nil
}

func resolveLifecycles(c *cli.Context, cfg *config.Config) ([]model.Lifecycle, error) {
	raw := c.String("lifecycles")
	if raw == "" {
		return cfg.LifecycleList()
	}
	var out []model.Lifecycle
	for _, s := range strings.Fields(raw) {
		l, err := model.ParseLifecycle(s)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// emitGithubOutputs appends the resolved catalog to GITHUB_OUTPUT when
// running inside GitHub Actions (or act), per spec.md §6's env var list — a
// workflow-output convenience consumed only by the discovery path.
func emitGithubOutputs(cfg *config.Config, kept model.Catalog) {
	if cfg.GithubActions == "" && cfg.Act == "" {
		return
	}
	if cfg.GithubOutput == "" {
		return
	}
	out, err := json.Marshal(kept)
	if err != nil {
		return
	}
	f, err := os.OpenFile(cfg.GithubOutput, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "apps=%s\n", out)
}

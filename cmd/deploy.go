package cmd

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli"

	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/container"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/deploy"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/errs"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/model"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/orchestrator"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/purge"
)

// DeployCommand is the specification of the `deploy` command, with its two
// subcommands `one` (PAR) and `matrix` (GS), per spec.md §6.
var DeployCommand = cli.Command{
	Name:  "deploy",
	Usage: "run a deploy pass for one app, or a full distro matrix",
	Subcommands: []cli.Command{
		deployOneCommand,
		deployMatrixCommand,
	},
}

var composeFlags = []cli.Flag{
	cli.StringFlag{Name: "compose-bin", Value: "docker", Usage: "compose binary, e.g. docker or podman-compose"},
	cli.StringFlag{Name: "compose-file", Value: "docker-compose.yml"},
	cli.StringFlag{Name: "service", Value: "app", Usage: "compose service ansible-playbook runs inside"},
	cli.StringFlag{Name: "playbook", Value: "site.yml"},
}

func newContainerDriver(c *cli.Context) *container.Driver {
	var sub []string
	if bin := c.String("compose-bin"); bin == "docker" {
		sub = []string{"compose"}
	}
	return container.NewDriver(c.String("compose-bin"), sub, c.String("compose-file"))
}

var deployOneCommand = cli.Command{
	Name:   "one",
	Usage:  "run a single (distro, app) deploy pass through PAR",
	Action: deployOne,
	Flags: append(composeFlags,
		cli.StringFlag{Name: "distro", Required: true},
		cli.StringFlag{Name: "app", Required: true},
		cli.StringFlag{Name: "type", Required: true},
	),
}

func deployOne(c *cli.Context) error {
	ctx, cancel := ProcessContext()
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	distro, err := model.ParseDistro(c.String("distro"))
	if err != nil {
		return err
	}
	app := model.AppId(c.String("app"))
	deployType := c.String("type")

	runner := &orchestrator.AppRunner{
		CD:         newContainerDriver(c),
		DD:         deploy.NewDriver(newContainerDriver(c), c.String("playbook")),
		Purger:     &purge.Purger{CD: newContainerDriver(c), EntityRoot: "entities", DB: purge.EnvDBOpener{}},
		Dirs:       cfg.Dirs(),
		DeployType: deployType,
		Service:    c.String("service"),
	}

	result, err := runner.Run(ctx, distro, app, model.Catalog{app})
	if err != nil {
		return checkCancelled(ctx, err)
	}
	printRunRecords(result.Records)
	if result.Failed {
		return checkCancelled(ctx, errs.New(errs.DeployExit, fmt.Sprintf("deploy failed for %s/%s", distro, app)))
	}
	return nil
}

var deployMatrixCommand = cli.Command{
	Name:   "matrix",
	Usage:  "run a full distro matrix for one app through GS",
	Action: deployMatrix,
	Flags: append(composeFlags,
		cli.StringFlag{Name: "app", Required: true},
		cli.StringFlag{Name: "type", Required: true},
		cli.StringFlag{Name: "distros", Usage: "space-separated distro list"},
		cli.IntFlag{Name: "budget-seconds"},
		cli.BoolFlag{Name: "json-summary", Usage: "print the final DistroResult set as JSON"},
		cli.StringFlag{Name: "collect-outputs", Usage: "zip per-job log files into this path on completion"},
	),
}

func deployMatrix(c *cli.Context) error {
	ctx, cancel := ProcessContext()
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	app := model.AppId(c.String("app"))
	deployType := c.String("type")

	var distroNames []string
	if raw := c.String("distros"); raw != "" {
		distroNames = strings.Fields(raw)
	} else {
		distroNames = strings.Fields(cfg.Distros)
	}

	var distros []model.Distro
	for _, s := range distroNames {
		d, err := model.ParseDistro(s)
		if err != nil {
			return err
		}
		distros = append(distros, d)
	}
	if len(distros) == 0 {
		return errs.New(errs.InvalidInput, "deploy matrix requires at least one distro")
	}

	runner := &orchestrator.AppRunner{
		CD:         newContainerDriver(c),
		DD:         deploy.NewDriver(newContainerDriver(c), c.String("playbook")),
		Purger:     &purge.Purger{CD: newContainerDriver(c), EntityRoot: "entities", DB: purge.EnvDBOpener{}},
		Dirs:       cfg.Dirs(),
		DeployType: deployType,
		Service:    c.String("service"),
	}
	sched := &orchestrator.Scheduler{Runner: runner}

	budget := c.Int("budget-seconds")
	if budget == 0 {
		budget = cfg.MaxTotalSeconds
	}

	summary, runErr := sched.Run(ctx, orchestrator.Input{
		App:           app,
		DeployType:    deployType,
		Distros:       distros,
		Catalog:       model.Catalog{app},
		BudgetSeconds: budget,
	})

	printSummary(summary)
	if c.Bool("json-summary") {
		out, _ := json.Marshal(summary)
		fmt.Println(string(out))
	}
	if out := c.String("collect-outputs"); out != "" {
		if err := collectOutputs(cfg.Dirs().Logs(), out); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to collect outputs: %v\n", err)
		}
	}

	return checkCancelled(ctx, runErr)
}

func printRunRecords(records []model.RunRecord) {
	for _, r := range records {
		status := "ok"
		if !r.Success() {
			status = fmt.Sprintf("failed (%s, exit %d)", r.Cause, r.ExitCode)
		}
		fmt.Printf("%s/%s pass=%s: %s [%s]\n", r.Distro, r.App, r.Pass, status, r.LogPath)
	}
}

func printSummary(s orchestrator.Summary) {
	fmt.Printf("ran=%d skipped=%d failed=%d total=%s remaining_budget=%s\n",
		s.Ran, s.Skipped, s.Failed, s.TotalDuration, s.RemainingBudget)
	for _, dr := range s.Results {
		fmt.Printf("  %s: %s (%s)\n", dr.Distro, dr.State, dr.Duration)
	}
}

// collectOutputs zips every file under logsDir into a single archive at
// dest, modeled on the teacher's CollectOutputs/zipRunOutputs behavior.
func collectOutputs(logsDir, dest string) error {
	zf, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer zf.Close()

	zw := zip.NewWriter(zf)
	defer zw.Close()

	return filepath.Walk(logsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(logsDir, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(rel)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	})
}

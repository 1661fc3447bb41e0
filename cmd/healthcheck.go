package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/urfave/cli"

	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/config"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/model"
)

// HealthcheckCommand checks that a distro's compose project can come up
// without actually running a deploy, per SPEC_FULL.md §9.1: compose binary
// present, compose file resolvable, inventory base directory present.
// Modeled on the teacher's cmd/healthcheck.go check/fix reporting loop.
var HealthcheckCommand = cli.Command{
	Name:   "healthcheck",
	Usage:  "verify a distro's deploy prerequisites without running a deploy",
	Action: healthcheckCommand,
	Flags: append(composeFlags,
		cli.StringFlag{Name: "distro", Required: true},
		cli.BoolFlag{Name: "fix", Usage: "create missing prerequisites instead of just reporting them"},
	),
}

func healthcheckCommand(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if _, err := model.ParseDistro(c.String("distro")); err != nil {
		return err
	}

	fix := c.Bool("fix")
	bin := c.String("compose-bin")
	composeFile := c.String("compose-file")
	ok := true

	fmt.Printf("check: compose binary %q on PATH ... ", bin)
	if _, err := exec.LookPath(bin); err != nil {
		ok = false
		fmt.Println("MISSING")
	} else {
		fmt.Println("ok")
	}

	fmt.Printf("check: compose file %q resolvable ... ", composeFile)
	if _, err := os.Stat(composeFile); err != nil {
		ok = false
		fmt.Println("MISSING")
	} else {
		fmt.Println("ok")
	}

	invDir := cfg.InventoryDir
	fmt.Printf("check: inventory base directory %q present ... ", invDir)
	if _, err := os.Stat(invDir); err != nil {
		if fix {
			if err := config.EnsureDir(invDir); err != nil {
				return err
			}
			fmt.Println("created")
		} else {
			ok = false
			fmt.Println("MISSING (retry with --fix)")
		}
	} else {
		fmt.Println("ok")
	}

	if !ok {
		os.Exit(1)
	}
	return nil
}

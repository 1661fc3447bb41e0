package cmd

import (
	"fmt"
	"strings"

	"github.com/urfave/cli"

	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/errs"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/inventory"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/model"
)

// InventoryCommand is the specification of the `inventory` command, with
// its one subcommand `init` (spec.md §6: `inventory init`).
var InventoryCommand = cli.Command{
	Name:  "inventory",
	Usage: "manage deploy inventories",
	Subcommands: []cli.Command{
		inventoryInitCommand,
	},
}

var inventoryInitCommand = cli.Command{
	Name:   "init",
	Usage:  "generate an inventory bundle for a (type, distro) pair",
	Action: inventoryInit,
	Flags: []cli.Flag{
		cli.StringFlag{Name: "type", Required: true},
		cli.StringFlag{Name: "distro", Required: true},
		cli.StringFlag{Name: "apps", Usage: "comma-separated app id list", Required: true},
		cli.BoolFlag{Name: "async", Usage: "set ASYNC_ENABLED=true in the generated vars"},
		cli.StringFlag{Name: "runtime", Usage: "RUNTIME var value, e.g. docker or podman"},
	},
}

func inventoryInit(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	distro, err := model.ParseDistro(c.String("distro"))
	if err != nil {
		return err
	}

	deployType := c.String("type")
	if !model.DeployType(deployType).Valid() {
		return errs.New(errs.InvalidInput, fmt.Sprintf("unknown deploy type %q", deployType))
	}

	var apps model.Catalog
	for _, a := range strings.Split(c.String("apps"), ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			apps = append(apps, model.AppId(a))
		}
	}

	var vars []inventory.VarEntry
	vars = append(vars, inventory.VarEntry{Key: inventory.VarAsyncEnabled, Value: c.Bool("async")})
	if rt := c.String("runtime"); rt != "" {
		vars = append(vars, inventory.VarEntry{Key: inventory.VarRuntime, Value: rt})
	}

	res, err := inventory.Build(cfg.Dirs(), deployType, distro, apps, vars)
	if err != nil {
		return err
	}

	fmt.Printf("inventory: %s\n", res.InventoryPath)
	fmt.Printf("password:  %s\n", res.PasswordPath)
	return nil
}

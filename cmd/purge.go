package cmd

import (
	"github.com/urfave/cli"

	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/model"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/purge"
)

// PurgeCommand is the specification of the `purge` command: it runs the
// Entity Purger directly against one entity, per spec.md §6 (`purge: inputs
// {entity, mode} → runs EP`).
var PurgeCommand = cli.Command{
	Name:   "purge",
	Usage:  "tear down a named application stack",
	Action: purgeCommand,
	Flags: append(composeFlags,
		cli.StringFlag{Name: "distro", Required: true},
		cli.StringFlag{Name: "entity", Required: true},
		cli.StringFlag{Name: "mode", Value: string(purge.ModeAll), Usage: "drop, truncate, stack_only, or all"},
		cli.StringFlag{Name: "entity-root", Value: "entities"},
	),
}

func purgeCommand(c *cli.Context) error {
	ctx, cancel := ProcessContext()
	defer cancel()

	distro, err := model.ParseDistro(c.String("distro"))
	if err != nil {
		return err
	}

	p := &purge.Purger{
		CD:         newContainerDriver(c),
		EntityRoot: c.String("entity-root"),
		DB:         purge.EnvDBOpener{},
	}

	err = p.Purge(ctx, distro, c.String("entity"), purge.Mode(c.String("mode")))
	return checkCancelled(ctx, err)
}

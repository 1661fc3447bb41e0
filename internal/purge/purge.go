// Package purge is the Entity Purger (EP): it tears down a named
// application stack in three best-effort phases (database, compose,
// filesystem) and aggregates sub-failures with go-multierror rather than
// aborting on the first one. Grounded on the teacher's
// pkg/runner/local_docker.go deleteContainers/TerminateAll, which iterates
// every container/network, logs and collects a multierror per failure, and
// never returns early.
package purge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/container"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/errs"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/logging"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/model"
)

// Mode selects how thoroughly Purge tears down an entity.
type Mode string

const (
	ModeDrop      Mode = "drop"
	ModeTruncate  Mode = "truncate"
	ModeStackOnly Mode = "stack_only"
	ModeAll       Mode = "all"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeDrop, ModeTruncate, ModeStackOnly, ModeAll:
		return true
	}
	return false
}

// systemEntities must never be purged regardless of mode.
var systemEntities = map[string]bool{"postgres": true, "mysql": true, "system": true}

// Purger runs EP against a container driver and entity root directory
// layout. The distro a purge targets is passed per-call to Purge, not fixed
// at construction, since a single Purger is reused across every distro in a
// GS matrix run.
type Purger struct {
	CD         *container.Driver
	EntityRoot string // directory containing <entity>/ subdirectories
	DB         DBOpener
}

// DBOpener discovers and opens the relational backends present for an
// entity. Abstracted behind an interface so tests can stub it without a
// live postgres/mariadb instance.
type DBOpener interface {
	Discover(entity string, envPath string) ([]Backend, error)
}

// Backend is one relational database instance targeted by the database
// phase.
type Backend struct {
	Kind   string // "postgres" or "mariadb"
	DBName string
	Drop   func(ctx context.Context, dbName string) error
	Trunc  func(ctx context.Context, dbName string) error
}

// Purge tears down entity according to mode. It never returns early on a
// sub-phase failure: every phase runs, and failures are aggregated into the
// returned error via go-multierror. A purge of an already-purged (or
// never-existing) entity is a no-op that returns nil.
func (p *Purger) Purge(ctx context.Context, distro model.Distro, entity string, mode Mode) error {
	if entity == "" || systemEntities[strings.ToLower(entity)] {
		return errs.New(errs.InvalidInput, fmt.Sprintf("refusing to purge entity %q", entity))
	}
	if !mode.Valid() {
		return errs.New(errs.InvalidInput, fmt.Sprintf("unknown purge mode %q", mode))
	}

	// Mode controls which phases run: stack_only tears down only the compose
	// project; truncate clears data in place without destroying the stack or
	// its volumes; drop and all both drop the databases, tear down the
	// compose project, and remove the entity's persistent directory.
	var result *multierror.Error

	if mode == ModeDrop || mode == ModeTruncate || mode == ModeAll {
		if err := p.databasePhase(ctx, entity, mode); err != nil {
			logging.S().Warnw("database phase failed", "entity", entity, "err", err)
			result = multierror.Append(result, fmt.Errorf("database phase: %w", err))
		}
	}

	if mode == ModeStackOnly || mode == ModeDrop || mode == ModeAll {
		if err := p.composePhase(ctx, distro, entity); err != nil {
			logging.S().Warnw("compose phase failed", "entity", entity, "err", err)
			result = multierror.Append(result, fmt.Errorf("compose phase: %w", err))
		}
	}

	if mode == ModeDrop || mode == ModeAll {
		if err := p.filesystemPhase(entity); err != nil {
			logging.S().Warnw("filesystem phase failed", "entity", entity, "err", err)
			result = multierror.Append(result, fmt.Errorf("filesystem phase: %w", err))
		}
	}

	if result != nil {
		return errs.Wrap(errs.PurgeWarning, fmt.Sprintf("purge of %s completed with warnings", entity), result.ErrorOrNil())
	}
	return nil
}

func (p *Purger) databasePhase(ctx context.Context, entity string, mode Mode) error {
	envPath := filepath.Join(p.EntityRoot, entity, ".env")
	backends, err := p.DB.Discover(entity, envPath)
	if err != nil {
		// Discovery failure is a warning, never fatal: the entity may simply
		// have no database.
		logging.S().Warnw("database discovery skipped", "entity", entity, "err", err)
		return nil
	}

	var result *multierror.Error
	for _, b := range backends {
		var opErr error
		switch mode {
		case ModeDrop, ModeAll:
			opErr = b.Drop(ctx, b.DBName)
		case ModeTruncate:
			opErr = b.Trunc(ctx, b.DBName)
		}
		if opErr != nil {
			result = multierror.Append(result, fmt.Errorf("%s backend %s: %w", b.Kind, b.DBName, opErr))
		}
	}
	return result.ErrorOrNil()
}

func (p *Purger) composePhase(ctx context.Context, distro model.Distro, entity string) error {
	composeFile := filepath.Join(p.EntityRoot, entity, "docker-compose.yml")
	if _, err := os.Stat(composeFile); os.IsNotExist(err) {
		return nil
	}
	d := container.NewDriver(p.CD.Bin, p.CD.Subcommand, composeFile)
	_, err := d.Down(ctx, distro, true)
	return err
}

func (p *Purger) filesystemPhase(entity string) error {
	entityDir := filepath.Join(p.EntityRoot, entity)
	var result *multierror.Error
	if err := os.RemoveAll(filepath.Join(entityDir, "volumes")); err != nil {
		result = multierror.Append(result, fmt.Errorf("remove volumes: %w", err))
	}
	if err := os.RemoveAll(entityDir); err != nil {
		result = multierror.Append(result, fmt.Errorf("remove entity directory: %w", err))
	}
	return result.ErrorOrNil()
}

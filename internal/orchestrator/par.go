// Package orchestrator composes the Container Driver, Inventory Builder,
// Deploy Driver, and Entity Purger into the Per-App Runner (PAR) and Global
// Scheduler (GS). PAR's step sequence and its diagnostics-on-failure
// behavior are grounded on the teacher's LocalDockerRunner.Run group loop
// (pkg/runner/local_docker.go), which brings a run's shared infra up once,
// drives each instance, and collects results without retrying a failed one.
package orchestrator

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/config"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/container"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/deploy"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/errs"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/inventory"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/logging"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/logsink"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/model"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/purge"
)

// Purger is the subset of *purge.Purger's surface PAR needs, so tests can
// substitute a stub without standing up a real compose/database backend.
type Purger interface {
	Purge(ctx context.Context, distro model.Distro, entity string, mode purge.Mode) error
}

// AppRunner is the Per-App Runner (PAR). One instance is reused across every
// (distro, app) pair within a single distro's PAR step; it is not
// goroutine-safe for concurrent calls against the same distro.
type AppRunner struct {
	CD           *container.Driver
	DD           *deploy.Driver
	Purger       Purger
	Dirs         config.Dirs
	DeployType   string
	Service      string
	PrePurgeList []string // shared entities re-created before every app
}

// AppResult is PAR's output for one (distro, app).
type AppResult struct {
	Distro  model.Distro
	App     model.AppId
	Records []model.RunRecord
	Failed  bool
}

// Run executes PAR's full sequence for one (distro, app): ensure the stack
// is up, pre-purge shared entities, run the sync pass, and — only if the
// sync pass succeeded — the async pass.
func (p *AppRunner) Run(ctx context.Context, distro model.Distro, app model.AppId, catalog model.Catalog) (AppResult, error) {
	result := AppResult{Distro: distro, App: app}

	if _, err := p.CD.Up(ctx, distro, true); err != nil {
		return result, errs.Wrap(errs.ContainerUp, fmt.Sprintf("stack not ready for %s", distro), err)
	}

	for _, entity := range p.PrePurgeList {
		if err := p.Purger.Purge(ctx, distro, entity, purge.ModeDrop); err != nil {
			logging.S().Warnw("pre-purge failed", "entity", entity, "err", err)
		}
	}

	syncRecord, err := p.runPass(ctx, distro, app, catalog, model.PassSync, false)
	result.Records = append(result.Records, syncRecord)
	if err != nil || !syncRecord.Success() {
		result.Failed = true
		p.attachDiagnostics(ctx, distro, app, model.PassSync)
		return result, nil
	}

	asyncRecord, err := p.runPass(ctx, distro, app, catalog, model.PassAsync, true)
	result.Records = append(result.Records, asyncRecord)
	if err != nil || !asyncRecord.Success() {
		result.Failed = true
		p.attachDiagnostics(ctx, distro, app, model.PassAsync)
	}
	return result, nil
}

func (p *AppRunner) runPass(ctx context.Context, distro model.Distro, app model.AppId, catalog model.Catalog, pass model.Pass, async bool) (model.RunRecord, error) {
	vars := []inventory.VarEntry{{Key: inventory.VarAsyncEnabled, Value: async}}
	inv, err := inventory.Build(p.Dirs, p.DeployType, distro, catalog, vars)
	if err != nil {
		return model.RunRecord{
			Distro: distro, App: app, Pass: pass,
			Start: time.Now(), End: time.Now(),
			ExitCode: -1, Cause: model.CauseUpFailed,
		}, err
	}

	logPath := logsink.Path(p.Dirs, p.DeployType, distro, app)
	header := logsink.Header{
		DeployType: p.DeployType,
		Distro:     distro,
		App:        app,
		Pass:       pass,
		Extra:      map[string]string{"ASYNC_ENABLED": strconv.FormatBool(async)},
	}

	var record model.RunRecord
	var runErr error
	jobErr := logsink.WithJobLog(logPath, header, func(jw *logsink.JobWriter) error {
		record, runErr = p.DD.Run(ctx, deploy.Options{
			Distro:        distro,
			App:           app,
			Pass:          pass,
			Service:       p.Service,
			InventoryPath: inv.InventoryPath,
			VaultPassFile: inv.PasswordPath,
			Sink:          jw.Writer(),
		})
		return runErr
	})
	record.LogPath = logPath
	if jobErr != nil && runErr == nil {
		return record, jobErr
	}
	return record, nil
}

func (p *AppRunner) attachDiagnostics(ctx context.Context, distro model.Distro, app model.AppId, pass model.Pass) {
	logPath := logsink.Path(p.Dirs, p.DeployType, distro, app)
	psRes, _ := p.CD.Ps(ctx, distro)
	var ps string
	if psRes != nil {
		ps = string(psRes.Stdout)
	}

	_ = logsink.WithJobLog(logPath, logsink.Header{DeployType: p.DeployType, Distro: distro, App: app, Pass: pass}, func(jw *logsink.JobWriter) error {
		jw.AppendFailureDiagnostics("", ps, "")
		return nil
	})
}

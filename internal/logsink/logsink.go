// Package logsink is the Log Sink (LS): one log file per PAR invocation,
// teed to stdout, with a header banner and on-failure diagnostics appended.
// It is grounded on the teacher's pkg/rpc/writer.go OutputWriter: a
// zap.SugaredLogger wrapping an io.Writer, with a .With(...) that derives a
// child writer carrying extra structured fields.
package logsink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/config"
	"github.com/kevinveenbirkenbach/infinito-nexus-dto/internal/model"
)

const bannerWidth = 60

// JobWriter is the per-job log writer: tees to stdout while writing a file.
type JobWriter struct {
	*zap.SugaredLogger

	path string
	file *os.File
	tee  io.Writer
}

// Path returns the log file path this writer is attached to.
func (w *JobWriter) Path() string { return w.path }

// Writer returns an io.Writer suitable for streaming raw process output
// (e.g. as procrunner.Options.Sink) into both the file and stdout.
func (w *JobWriter) Writer() io.Writer { return w.tee }

// Path returns the log file path for a given (type, distro, app) job, per
// the persisted state layout: logs/deploy-<type>-<distro>-<app>.log
func Path(dirs config.Dirs, deployType string, distro model.Distro, app model.AppId) string {
	name := fmt.Sprintf("deploy-%s-%s-%s.log", deployType, distro, app)
	return filepath.Join(dirs.Logs(), name)
}

// Header carries the parameters written into a session's banner.
type Header struct {
	DeployType string
	Distro     model.Distro
	App        model.AppId
	Pass       model.Pass
	Extra      map[string]string
}

// Open opens (or appends to) the log file at path, writes a session banner
// and header, and returns a JobWriter teeing to both the file and stdout.
// Never truncates an existing file: if one exists, a new session is
// appended, separated by a banner line.
func Open(path string, h Header) (*JobWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logsink: failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logsink: failed to open log file %s: %w", path, err)
	}

	w := &JobWriter{path: path, file: f}
	w.tee = io.MultiWriter(f, os.Stdout)

	encCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w.tee), zapcore.DebugLevel)
	logger := zap.New(core)
	sugared := logger.Sugar().With(
		"deploy_type", h.DeployType,
		"distro", h.Distro,
		"app", h.App,
	)
	if h.Pass != "" {
		sugared = sugared.With("pass", h.Pass)
	}
	w.SugaredLogger = sugared

	w.writeBanner(h)
	return w, nil
}

func (w *JobWriter) writeBanner(h Header) {
	fmt.Fprintln(w.tee, strings.Repeat("=", bannerWidth))
	fmt.Fprintf(w.tee, "session start: %s\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(w.tee, "deploy_type=%s distro=%s app=%s\n", h.DeployType, h.Distro, h.App)
	if h.Pass != "" {
		fmt.Fprintf(w.tee, "pass=%s\n", h.Pass)
	}
	for k, v := range h.Extra {
		fmt.Fprintf(w.tee, "%s=%s\n", k, v)
	}
	fmt.Fprintln(w.tee, strings.Repeat("=", bannerWidth))
}

// AppendFailureDiagnostics appends a post-run snapshot (disk usage, container
// listing, tail of container logs) after a job has failed. The diagnostics
// are produced by the caller (typically internal/container) since only CD
// knows how to enumerate containers for this project.
func (w *JobWriter) AppendFailureDiagnostics(diskUsage, containerList, tailLogs string) {
	fmt.Fprintln(w.tee, strings.Repeat("-", bannerWidth))
	fmt.Fprintln(w.tee, "failure diagnostics:")
	fmt.Fprintln(w.tee, "disk usage:")
	fmt.Fprintln(w.tee, diskUsage)
	fmt.Fprintln(w.tee, "containers:")
	fmt.Fprintln(w.tee, containerList)
	fmt.Fprintln(w.tee, "container log tail:")
	fmt.Fprintln(w.tee, tailLogs)
}

// Close flushes and closes the underlying file.
func (w *JobWriter) Close() error {
	_ = w.SugaredLogger.Sync()
	return w.file.Close()
}

// WithJobLog is the scoped-acquisition helper: it opens the job log, invokes
// fn, and guarantees the file is closed on every exit path (including a
// panic propagating through fn), per SPEC_FULL.md §5.1.
func WithJobLog(path string, h Header, fn func(*JobWriter) error) (err error) {
	w, err := Open(path, h)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(w)
}

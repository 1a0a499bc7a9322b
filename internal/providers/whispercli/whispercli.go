// Package whispercli adapts the local openai-whisper command line tool to the
// recognition provider contract.
package whispercli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"scribe/internal/deps"
	"scribe/internal/media"
	"scribe/internal/recognition"
)

const remediation = "install openai-whisper (pip install openai-whisper) and make sure the binary is on PATH"

// CommandRunner executes the whisper binary. Injectable for tests.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Adapter shells out to the whisper CLI. Output files are written to a
// scratch directory and read back; the adapter itself returns content, never
// a path, so no partial output file survives a failed call.
type Adapter struct {
	binary  string
	workDir string
	runner  CommandRunner
	logger  *slog.Logger
}

// New builds the local whisper adapter. An empty binary defaults to
// "whisper".
func New(binary, workDir string, logger *slog.Logger) *Adapter {
	if strings.TrimSpace(binary) == "" {
		binary = "whisper"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		binary:  binary,
		workDir: workDir,
		logger:  logger.With("component", "whisper_local"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (a *Adapter) WithCommandRunner(runner CommandRunner) {
	a.runner = runner
}

func (a *Adapter) Method() recognition.Method { return recognition.MethodWhisperLocal }

func (a *Adapter) DisplayName() string { return "Whisper (local)" }

func (a *Adapter) SupportsTimestamps() bool { return true }

// Probe checks that the whisper binary resolves on PATH.
func (a *Adapter) Probe() deps.Status {
	return deps.CheckBinary(deps.Requirement{
		Name:        "whisper",
		Command:     a.binary,
		Description: "local Whisper speech recognition CLI",
	})
}

// Transcribe runs whisper over the unit and returns the produced document in
// the requested output format.
func (a *Adapter) Transcribe(ctx context.Context, unit media.AudioUnit, cfg recognition.Config) (recognition.Result, error) {
	var empty recognition.Result

	if status := a.Probe(); !status.Available {
		return empty, recognition.Wrap(recognition.ErrUnavailable, a.Method(), "prerequisites",
			status.Detail+"; "+remediation, nil)
	}
	if err := checkUnitFile(unit.Path); err != nil {
		return empty, recognition.Wrap(recognition.ErrUnavailable, a.Method(), "prerequisites", err.Error(), nil)
	}
	if err := os.MkdirAll(a.workDir, 0o755); err != nil {
		return empty, recognition.Wrap(recognition.ErrRecognition, a.Method(), "workdir", a.workDir, err)
	}

	args := []string{
		unit.Path,
		"--output_dir", a.workDir,
		"--output_format", string(cfg.OutputFormat),
		"--model", cfg.Model,
	}
	if cfg.Language != recognition.LanguageAuto {
		args = append(args, "--language", string(cfg.Language))
	}

	runCtx := ctx
	if cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, secondsDuration(cfg.TimeoutSeconds))
		defer cancel()
	}

	a.logger.Info("running whisper", "source", unit.Path, "model", cfg.Model)
	output, err := a.run(runCtx, a.binary, args...)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return empty, recognition.Wrap(recognition.ErrTimeout, a.Method(), "transcribe",
				fmt.Sprintf("whisper exceeded %d seconds; try a smaller model (--model tiny) or a longer timeout", cfg.TimeoutSeconds), nil)
		}
		if errors.Is(err, exec.ErrNotFound) {
			return empty, recognition.Wrap(recognition.ErrUnavailable, a.Method(), "transcribe", remediation, err)
		}
		detail := strings.TrimSpace(string(output))
		if detail == "" {
			detail = err.Error()
		}
		return empty, recognition.Wrap(recognition.ErrRecognition, a.Method(), "transcribe", detail, nil)
	}

	content, err := a.collectOutput(unit.Path, cfg.OutputFormat)
	if err != nil {
		return empty, err
	}
	return recognition.FormattedResult(cfg.OutputFormat, content), nil
}

// collectOutput reads the file whisper produced. The expected name is the
// source stem with the format extension; whisper versions differ in suffix
// handling, so a glob fallback covers the rest.
func (a *Adapter) collectOutput(sourcePath string, format recognition.OutputFormat) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	expected := filepath.Join(a.workDir, stem+"."+format.Ext())

	path := expected
	if _, err := os.Stat(path); err != nil {
		matches, _ := filepath.Glob(filepath.Join(a.workDir, stem+"*."+format.Ext()))
		if len(matches) == 0 {
			return "", recognition.Wrap(recognition.ErrRecognition, a.Method(), "collect output",
				fmt.Sprintf("whisper finished but produced no %s file for %s", format.Ext(), stem), nil)
		}
		path = matches[0]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", recognition.Wrap(recognition.ErrRecognition, a.Method(), "collect output", path, err)
	}
	if err := os.Remove(path); err != nil {
		a.logger.Warn("could not remove whisper scratch file", "path", path, "error", err)
	}
	return string(data), nil
}

func (a *Adapter) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if a.runner != nil {
		return a.runner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

func checkUnitFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("audio unit missing: %s", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("audio unit is empty: %s", path)
	}
	return nil
}

func secondsDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rulexpand/rulexpand/internal/logging"
	"github.com/rulexpand/rulexpand/internal/observability"
	"github.com/rulexpand/rulexpand/internal/publish"
	"github.com/rulexpand/rulexpand/internal/report"
	"github.com/rulexpand/rulexpand/internal/rules"
)

// ErrInputMissing aborts a run before any output is touched.
var ErrInputMissing = errors.New("input directory does not exist")

// Lister enumerates input documents.
type Lister interface {
	List() ([]string, error)
}

// DirLister lists files with extension Ext directly inside Dir, sorted.
type DirLister struct {
	Dir string
	Ext string
}

func (l DirLister) List() ([]string, error) {
	info, err := os.Stat(l.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", l.Dir, ErrInputMissing)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", l.Dir)
	}

	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), l.Ext) {
			continue
		}
		paths = append(paths, filepath.Join(l.Dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// CommandRunner runs the post-run publish command.
type CommandRunner interface {
	Run(ctx context.Context, cmd publish.Command) (publish.Result, error)
}

type Pipeline struct {
	Lister     Lister
	Aggregator *Aggregator
	OutputDir  string
	Logger     logging.Logger
	Metrics    *observability.Metrics

	Publisher CommandRunner
	// PublishCommand runs once after all files when Name is set.
	PublishCommand publish.Command

	Now func() time.Time
}

// Run processes every listed file in order. Only a missing input directory
// or an unusable output directory fail the run; per-file failures are
// recorded in the summary.
func (p *Pipeline) Run(ctx context.Context) (report.Summary, error) {
	summary := report.Summary{Start: p.now()}

	inputs, err := p.Lister.List()
	if err != nil {
		return summary, err
	}
	if len(inputs) == 0 {
		p.Logger.Warn("no input files found")
	} else {
		p.Logger.Info("input files found", "count", len(inputs))
	}

	if err := resetDir(p.OutputDir); err != nil {
		return summary, fmt.Errorf("prepare output dir: %w", err)
	}

	for _, input := range inputs {
		res := p.ProcessFile(ctx, input)
		p.Metrics.ObserveFile(res.OK())
		summary.Files = append(summary.Files, res)
	}

	p.publish(ctx)

	summary.End = p.now()
	return summary, nil
}

// ProcessFile expands one input file into OutputDir.
func (p *Pipeline) ProcessFile(ctx context.Context, input string) report.FileResult {
	name := filepath.Base(input)
	res := report.FileResult{Name: name}
	logger := p.Logger.With("file", name)
	logger.Info("processing file")

	file, err := os.Open(input)
	if err != nil {
		return p.fail(logger, res, "read input", err)
	}
	lines, err := rules.Read(file)
	_ = file.Close()
	if err != nil {
		return p.fail(logger, res, "read input", err)
	}

	agg := p.aggregator(logger).Aggregate(ctx, lines)
	stats := report.Count(agg.Rules)
	header := report.Header{
		Name:    strings.TrimSuffix(name, filepath.Ext(name)),
		Updated: p.now(),
		Sources: agg.Sources,
		Stats:   stats,
	}

	out := filepath.Join(p.OutputDir, name)
	if err := writeFileAtomic(out, report.Render(header, agg.Rules)); err != nil {
		return p.fail(logger, res, "write output", err)
	}

	p.Metrics.ObserveRules(stats)
	res.Output = out
	res.Rules = len(agg.Rules)
	res.RuleSets = agg.RuleSets
	res.DomainSets = agg.DomainSets
	logger.Info("file written", "output", out, "rules", res.Rules, "rule_sets", res.RuleSets, "domain_sets", res.DomainSets)
	return res
}

func (p *Pipeline) aggregator(logger logging.Logger) *Aggregator {
	a := *p.Aggregator
	a.Logger = logger
	return &a
}

func (p *Pipeline) fail(logger logging.Logger, res report.FileResult, stage string, err error) report.FileResult {
	logger.Error(stage+" failed", "error", err)
	res.Error = fmt.Sprintf("%s: %v", stage, err)
	return res
}

func (p *Pipeline) publish(ctx context.Context) {
	if p.Publisher == nil || p.PublishCommand.Name == "" {
		return
	}
	cmd := p.PublishCommand
	p.Logger.Info("running publish command", "command", cmd.String())
	res, err := p.Publisher.Run(ctx, cmd)
	if err != nil {
		p.Logger.Error("publish command failed", "error", err, "exit_code", res.ExitCode, "stdout", res.Stdout, "stderr", res.Stderr)
		return
	}
	p.Logger.Info("publish command finished", "duration", res.Duration.String(), "stdout", res.Stdout)
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

func writeFileAtomic(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

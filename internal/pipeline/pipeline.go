package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"sbtup/internal/analysis"
	"sbtup/internal/depmap"
	"sbtup/internal/editor"
	"sbtup/internal/generator"
	"sbtup/internal/git"
	"sbtup/internal/index"
	"sbtup/internal/planner"
	"sbtup/internal/selection"
	"sbtup/internal/storage"
	"sbtup/internal/version"
)

// ErrDirty is returned when clean files are required and a planned file has
// uncommitted changes.
var ErrDirty = errors.New("planned files have uncommitted changes")

// VersionSource lists the published versions of many dependencies.
type VersionSource interface {
	VersionsForAll(ctx context.Context, keys []depmap.Key, scala *version.Version) (map[depmap.Key][]version.Version, error)
}

// ChangeSource lists files with uncommitted changes in the work tree at root.
type ChangeSource func(ctx context.Context, root string) ([]git.ChangedFile, error)

// GitChanges diffs the work tree against HEAD.
func GitChanges(ctx context.Context, root string) ([]git.ChangedFile, error) {
	return git.GetChangedFiles(ctx, root, "HEAD")
}

// Options wires the collaborators of a Pipeline. Indexer and Versions are
// required.
type Options struct {
	Indexer  *index.Indexer
	Versions VersionSource
	Writer   *editor.Writer
	// History receives a record of every update run. Nil disables it.
	History storage.HistoryStore
	// Changes defaults to GitChanges.
	Changes ChangeSource
	Logger  *slog.Logger
	// Out receives progress lines. Nil discards them.
	Out io.Writer
}

// Pipeline runs scan, check and update against a project.
type Pipeline struct {
	indexer  *index.Indexer
	versions VersionSource
	writer   *editor.Writer
	history  storage.HistoryStore
	changes  ChangeSource
	logger   *slog.Logger
	out      io.Writer
}

func New(opts Options) *Pipeline {
	p := &Pipeline{
		indexer:  opts.Indexer,
		versions: opts.Versions,
		writer:   opts.Writer,
		history:  opts.History,
		changes:  opts.Changes,
		logger:   opts.Logger,
		out:      opts.Out,
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if p.writer == nil {
		p.writer = editor.NewWriter(p.logger)
	}
	if p.changes == nil {
		p.changes = GitChanges
	}
	if p.out == nil {
		p.out = io.Discard
	}
	return p
}

func (p *Pipeline) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

// Scan indexes the project at root.
func (p *Pipeline) Scan(ctx context.Context, root string) (*index.Snapshot, error) {
	return p.scan(ctx, root, nil)
}

func (p *Pipeline) scan(ctx context.Context, root string, rep *generator.RunReport) (*index.Snapshot, error) {
	start := time.Now()
	stage := rep.BeginStage("scan")
	snap, err := p.indexer.BuildMap(ctx, root)
	if err != nil {
		rep.EndStage(stage, "", nil, nil, err)
		return nil, err
	}
	rep.EndStage(stage, "", map[string]float64{
		"files":        float64(len(snap.Files)),
		"dependencies": float64(snap.Map.Len()),
		"unresolved":   float64(snap.Unresolved),
	}, nil, nil)

	p.printf("📊 Scanned %d files: %d dependencies in %v\n", len(snap.Files), snap.Map.Len(), time.Since(start).Round(time.Millisecond))
	if snap.Unresolved > 0 {
		p.printf("  -> %d declarations skipped: version reference not found\n", snap.Unresolved)
		rep.AddSignal("unresolved_reference", "scan", generator.SeverityInfo,
			fmt.Sprintf("%d declarations skipped: version reference not found", snap.Unresolved), float64(snap.Unresolved))
	}
	return snap, nil
}

// CheckResult pairs a snapshot with the update options of its dependencies.
type CheckResult struct {
	Snapshot *index.Snapshot
	Entries  *selection.EntryMap
	Report   *generator.RunReport
}

// Check scans root and computes update options for every dependency.
func (p *Pipeline) Check(ctx context.Context, root string) (*CheckResult, error) {
	rep := generator.NewRunReport("check", root)
	res, err := p.check(ctx, root, rep)
	if res != nil {
		res.Report = rep
	}
	return res, err
}

func (p *Pipeline) check(ctx context.Context, root string, rep *generator.RunReport) (*CheckResult, error) {
	snap, err := p.scan(ctx, root, rep)
	if err != nil {
		return nil, err
	}

	entries := selection.FromDependencyMap(snap.Map)
	if snap.Map.Len() == 0 {
		return &CheckResult{Snapshot: snap, Entries: entries}, nil
	}

	var scala *version.Version
	if v, ok := snap.Map.LanguageVersion(); ok {
		scala = &v
	}

	p.printf("🔄 Fetching versions for %d dependencies...\n", snap.Map.Len())
	stage := rep.BeginStage("fetch")
	available, err := p.versions.VersionsForAll(ctx, snap.Map.Keys(), scala)
	if err != nil {
		rep.EndStage(stage, "", nil, nil, err)
		return nil, fmt.Errorf("failed to fetch versions: %w", err)
	}
	missing := 0
	for _, k := range snap.Map.Keys() {
		if len(available[k]) == 0 {
			missing++
		}
	}
	rep.EndStage(stage, "", map[string]float64{
		"requested": float64(snap.Map.Len()),
		"missing":   float64(missing),
	}, nil, nil)
	if missing > 0 {
		rep.AddSignal("versions_unavailable", "fetch", generator.SeverityInfo,
			fmt.Sprintf("no published versions found for %d dependencies", missing), float64(missing))
	}

	stage = rep.BeginStage("options")
	entries.AddVersions(available)
	withUpdates := len(entries.WithUpdates())
	rep.EndStage(stage, "", map[string]float64{"with_updates": float64(withUpdates)}, nil, nil)
	p.printf("  -> %d dependencies have updates\n", withUpdates)
	return &CheckResult{Snapshot: snap, Entries: entries}, nil
}

// TierAuto selects each dependency's default tier.
const TierAuto = "auto"

// UpdateRequest describes one update run.
type UpdateRequest struct {
	Root string
	// Tier is TierAuto or a tier name accepted by version.ParseTier.
	Tier string
	// Only limits the run to these dependencies. Empty means all.
	Only         []depmap.Key
	DryRun       bool
	RequireClean bool
}

// UpdateResult reports what an update run planned and wrote.
type UpdateResult struct {
	Check  *CheckResult
	Plan   *planner.UpdatePlan
	Impact *analysis.ImpactReport
	Write  editor.Result
	RunID  int64
	Report *generator.RunReport
}

// Update checks root, selects updates per req, and rewrites the files.
func (p *Pipeline) Update(ctx context.Context, req UpdateRequest) (*UpdateResult, error) {
	tier, auto, err := parseTier(req.Tier)
	if err != nil {
		return nil, err
	}

	rep := generator.NewRunReport("update", req.Root)
	check, err := p.check(ctx, req.Root, rep)
	if err != nil {
		return nil, err
	}
	check.Report = rep
	res := &UpdateResult{Check: check, Report: rep}

	stage := rep.BeginStage("plan")
	choices := p.selectStage(check.Entries, tier, auto, req.Only)
	res.Plan = planner.BuildUpdatePlan(choices)
	rep.EndStage(stage, "", map[string]float64{
		"selected":  float64(len(choices)),
		"edits":     float64(res.Plan.ChangeCount()),
		"files":     float64(len(res.Plan.Files)),
		"conflicts": float64(len(res.Plan.Conflicts)),
	}, nil, nil)
	for _, c := range res.Plan.Conflicts {
		p.logger.Warn("conflicting updates for one location",
			"location", c.Location.String(),
			"kept", c.Kept.String()+"@"+c.KeptTo.Raw(),
			"dropped", c.Dropped.String()+"@"+c.DropTo.Raw())
		rep.AddSignal("conflicting_update", "plan", generator.SeverityWarning,
			fmt.Sprintf("%s: kept %s@%s, dropped %s@%s", c.Location, c.Kept, c.KeptTo.Raw(), c.Dropped, c.DropTo.Raw()), 1)
	}
	if res.Plan.IsEmpty() {
		p.printf("✅ Nothing to update.\n")
		return res, nil
	}
	p.printf("📝 Planned %d edits in %d files.\n", res.Plan.ChangeCount(), len(res.Plan.Files))

	res.Impact = p.guardStage(ctx, req.Root, res.Plan, rep)
	if res.Impact != nil && !res.Impact.IsClean() && req.RequireClean {
		return res, fmt.Errorf("%w: %v", ErrDirty, res.Impact.DirtyFiles)
	}

	if req.DryRun {
		p.printf("🧪 Dry run: no files written.\n")
		stage = rep.BeginStage("write")
		rep.EndStage(stage, "skipped", nil, []string{"dry run"}, nil)
		res.RunID = p.recordStage(ctx, req, res.Plan)
		return res, nil
	}

	stage = rep.BeginStage("write")
	res.Write, err = p.writer.WriteUpdates(ctx, res.Plan.Updates())
	rep.EndStage(stage, "", map[string]float64{
		"applied":   float64(res.Write.Applied),
		"written":   float64(len(res.Write.Written)),
		"discarded": float64(len(res.Write.Discarded)),
		"failed":    float64(len(res.Write.Failed)),
	}, nil, err)
	for _, f := range res.Write.Failed {
		rep.AddSignal("write_failed", "write", generator.SeverityCritical, "could not write "+f, 1)
	}
	p.printf("✍️  Wrote %d edits to %d files.\n", res.Write.Applied, len(res.Write.Written))
	res.RunID = p.recordStage(ctx, req, writtenOnly(res.Plan, res.Write.Written))
	if err != nil {
		return res, fmt.Errorf("failed to write updates: %w", err)
	}
	return res, nil
}

func parseTier(s string) (version.Tier, bool, error) {
	if s == "" || s == TierAuto {
		return 0, true, nil
	}
	t, err := version.ParseTier(s)
	if err != nil {
		return 0, false, err
	}
	return t, false, nil
}

func (p *Pipeline) selectStage(entries *selection.EntryMap, tier version.Tier, auto bool, only []depmap.Key) []selection.Choice {
	allowed := make(map[depmap.Key]bool, len(only))
	for _, k := range only {
		allowed[k] = true
	}

	for _, e := range entries.WithUpdates() {
		if len(allowed) > 0 && !allowed[e.Key] {
			continue
		}
		if !auto && !entries.SetTier(e.Key, tier) {
			p.logger.Info("no update in requested tier", "dependency", e.Key.String(), "tier", tier.String())
			continue
		}
		entries.Select(e.Key)
	}
	return entries.Selected()
}

// guardStage reports uncommitted changes in planned files. Outside a work
// tree it returns nil.
func (p *Pipeline) guardStage(ctx context.Context, root string, plan *planner.UpdatePlan, rep *generator.RunReport) *analysis.ImpactReport {
	stage := rep.BeginStage("guard")
	changes, err := p.changes(ctx, root)
	if err != nil {
		p.logger.Info("skipping uncommitted-change check", "error", err)
		rep.EndStage(stage, "skipped", nil, []string{err.Error()}, nil)
		return nil
	}
	report, err := analysis.NewAnalyzer(plan).AnalyzeImpact(changes)
	if err != nil {
		p.logger.Warn("impact analysis failed", "error", err)
		rep.EndStage(stage, "", nil, nil, err)
		return nil
	}
	rep.EndStage(stage, "", map[string]float64{
		"dirty_files":     float64(len(report.DirtyFiles)),
		"touched_changes": float64(len(report.TouchedChanges)),
	}, nil, nil)
	if !report.IsClean() {
		p.printf("⚠️  %d planned files have uncommitted changes", len(report.DirtyFiles))
		if n := len(report.TouchedChanges); n > 0 {
			p.printf(" (%d edits on changed lines)", n)
		}
		p.printf(".\n")
		rep.AddSignal("dirty_files", "guard", generator.SeverityWarning,
			fmt.Sprintf("%d planned files have uncommitted changes", len(report.DirtyFiles)), float64(len(report.DirtyFiles)))
	}
	return report
}

func (p *Pipeline) recordStage(ctx context.Context, req UpdateRequest, plan *planner.UpdatePlan) int64 {
	if p.history == nil || plan.IsEmpty() {
		return 0
	}
	run := storage.Run{StartedAt: time.Now(), Root: req.Root, DryRun: req.DryRun}
	for _, f := range plan.Files {
		for _, c := range f.Changes {
			run.Updates = append(run.Updates, storage.UpdateRecord{
				Organization: c.Key.Organization,
				Artifact:     c.Key.Artifact,
				FromVersion:  c.From.Raw(),
				ToVersion:    c.To.Raw(),
				File:         f.Path,
				Start:        c.Span.Start,
				End:          c.Span.End,
			})
		}
	}
	id, err := p.history.RecordRun(ctx, run)
	if err != nil {
		p.logger.Warn("failed to record history", "error", err)
		return 0
	}
	return id
}

func writtenOnly(plan *planner.UpdatePlan, written []string) *planner.UpdatePlan {
	ok := make(map[string]bool, len(written))
	for _, w := range written {
		ok[w] = true
	}
	out := &planner.UpdatePlan{}
	for _, f := range plan.Files {
		if ok[f.Path] {
			out.Files = append(out.Files, f)
		}
	}
	return out
}

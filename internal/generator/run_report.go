package generator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Severity ranks a report signal.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 2
	}
	return 3
}

// Stage statuses. Any other non-empty status counts as a failure.
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// Signal is a finding worth surfacing to whoever reads the report, such as a
// skipped declaration or a file that could not be written.
type Signal struct {
	Code     string   `json:"code"`
	Stage    string   `json:"stage"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Value    float64  `json:"value,omitempty"`
}

// StageMetric is the timing and counters of one pipeline stage.
type StageMetric struct {
	Name       string             `json:"name"`
	Status     string             `json:"status"`
	StartedAt  string             `json:"started_at"`
	FinishedAt string             `json:"finished_at"`
	DurationMS int64              `json:"duration_ms"`
	Counters   map[string]float64 `json:"counters,omitempty"`
	Notes      []string           `json:"notes,omitempty"`
	Error      string             `json:"error,omitempty"`
}

type ReportSummary struct {
	StageCount        int            `json:"stage_count"`
	FailedStages      int            `json:"failed_stages"`
	SignalsBySeverity map[string]int `json:"signals_by_severity"`
}

// RunReport records the stages of one scan, check or update run. All methods
// are no-ops on a nil report.
type RunReport struct {
	Version     string        `json:"version"`
	Mode        string        `json:"mode"`
	GeneratedAt string        `json:"generated_at"`
	Root        string        `json:"root"`
	Stages      []StageMetric `json:"stages"`
	Signals     []Signal      `json:"signals,omitempty"`
	Summary     ReportSummary `json:"summary"`
}

// StageHandle marks the start of a stage.
type StageHandle struct {
	name    string
	started time.Time
}

func NewRunReport(mode, root string) *RunReport {
	return &RunReport{
		Version:     "v1",
		Mode:        mode,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Root:        root,
		Stages:      []StageMetric{},
	}
}

func (r *RunReport) BeginStage(name string) StageHandle {
	return StageHandle{name: strings.TrimSpace(name), started: time.Now().UTC()}
}

// EndStage records a finished stage. An empty status means StatusOK, and a
// non-nil err turns StatusOK into StatusError.
func (r *RunReport) EndStage(h StageHandle, status string, counters map[string]float64, notes []string, err error) {
	if r == nil || h.name == "" {
		return
	}
	if status == "" {
		status = StatusOK
	}
	now := time.Now().UTC()
	m := StageMetric{
		Name:       h.name,
		Status:     status,
		StartedAt:  h.started.Format(time.RFC3339Nano),
		FinishedAt: now.Format(time.RFC3339Nano),
		DurationMS: now.Sub(h.started).Milliseconds(),
	}
	for k, v := range counters {
		if k = strings.TrimSpace(k); k != "" {
			if m.Counters == nil {
				m.Counters = make(map[string]float64, len(counters))
			}
			m.Counters[k] = v
		}
	}
	for _, n := range notes {
		if n = strings.TrimSpace(n); n != "" {
			m.Notes = append(m.Notes, n)
		}
	}
	if err != nil {
		m.Error = err.Error()
		if m.Status == StatusOK {
			m.Status = StatusError
		}
	}
	r.Stages = append(r.Stages, m)
}

// AddSignal records a finding. Signals with an empty code, stage, severity or
// message are dropped.
func (r *RunReport) AddSignal(code, stage string, severity Severity, message string, value float64) {
	if r == nil {
		return
	}
	s := Signal{
		Code:     strings.TrimSpace(code),
		Stage:    strings.TrimSpace(stage),
		Severity: Severity(strings.ToLower(strings.TrimSpace(string(severity)))),
		Message:  strings.TrimSpace(message),
		Value:    value,
	}
	if s.Code == "" || s.Stage == "" || s.Severity == "" || s.Message == "" {
		return
	}
	r.Signals = append(r.Signals, s)
}

// Stage returns the last metric recorded under name.
func (r *RunReport) Stage(name string) (StageMetric, bool) {
	if r == nil {
		return StageMetric{}, false
	}
	for i := len(r.Stages) - 1; i >= 0; i-- {
		if r.Stages[i].Name == name {
			return r.Stages[i], true
		}
	}
	return StageMetric{}, false
}

// Finalize orders signals most severe first and fills in the summary.
func (r *RunReport) Finalize() {
	if r == nil {
		return
	}
	r.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	slices.SortStableFunc(r.Signals, func(a, b Signal) int {
		if d := a.Severity.rank() - b.Severity.rank(); d != 0 {
			return d
		}
		if c := strings.Compare(a.Stage, b.Stage); c != 0 {
			return c
		}
		return strings.Compare(a.Code, b.Code)
	})

	counts := map[string]int{
		string(SeverityCritical): 0,
		string(SeverityWarning):  0,
		string(SeverityInfo):     0,
	}
	for _, s := range r.Signals {
		counts[string(s.Severity)]++
	}
	failed := 0
	for _, st := range r.Stages {
		if st.Status != StatusOK && st.Status != StatusSkipped {
			failed++
		}
	}
	r.Summary = ReportSummary{
		StageCount:        len(r.Stages),
		FailedStages:      failed,
		SignalsBySeverity: counts,
	}
}

// Save finalizes the report, validates it, and writes it as indented JSON.
func (r *RunReport) Save(path string) error {
	if r == nil {
		return nil
	}
	r.Finalize()
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	if err := ValidateReport(data); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

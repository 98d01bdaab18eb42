package operations

import (
	"sync"
	"time"

	"pricecharts/internal/charts"
	"pricecharts/internal/dataprocessing"
	"pricecharts/internal/exporter"
)

// OperationStatus represents the overall run status
type OperationStatus string

const (
	OperationStatusPending   OperationStatus = "pending"
	OperationStatusRunning   OperationStatus = "running"
	OperationStatusCompleted OperationStatus = "completed"
	OperationStatusFailed    OperationStatus = "failed"
	OperationStatusCancelled OperationStatus = "cancelled"
)

// OperationState is the shared state of one run. Steps publish their results
// here; chart steps read the cleaned table and selector concurrently.
type OperationState struct {
	mu sync.RWMutex

	ID        string
	InputPath string
	Status    OperationStatus
	StartTime time.Time
	EndTime   *time.Time
	Error     error

	steps map[string]*StepState

	raw        *dataprocessing.Table
	cleaned    *dataprocessing.Table
	cleanStats dataprocessing.CleanStats
	selector   *dataprocessing.Selector

	artifacts []charts.Artifact
	tables    []string
	frames    map[string]exporter.Frame
	workbook  string
}

// NewOperationState creates the state of a run over inputPath
func NewOperationState(id, inputPath string) *OperationState {
	return &OperationState{
		ID:        id,
		InputPath: inputPath,
		Status:    OperationStatusPending,
		StartTime: time.Now(),
		steps:     make(map[string]*StepState),
		frames:    make(map[string]exporter.Frame),
	}
}

// Start marks the run as running
func (p *OperationState) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = OperationStatusRunning
	p.StartTime = time.Now()
}

// Complete marks the run as completed
func (p *OperationState) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCompleted
}

// Fail marks the run as failed
func (p *OperationState) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusFailed
	p.Error = err
}

// Cancel marks the run as cancelled
func (p *OperationState) Cancel(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCancelled
	p.Error = err
}

// GetStatus returns the run status
func (p *OperationState) GetStatus() OperationStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Status
}

// Duration returns the duration of the run
func (p *OperationState) Duration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.EndTime != nil {
		return p.EndTime.Sub(p.StartTime)
	}
	return time.Since(p.StartTime)
}

// GetStage returns the state of a specific step
func (p *OperationState) GetStage(stepID string) *StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.steps[stepID]
}

// SetStage updates the state of a specific step
func (p *OperationState) SetStage(stepID string, state *StepState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps[stepID] = state
}

// SetRaw publishes the loaded table
func (p *OperationState) SetRaw(t *dataprocessing.Table) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.raw = t
}

// Raw returns the loaded table, or nil before the load step
func (p *OperationState) Raw() *dataprocessing.Table {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.raw
}

// SetCleaned publishes the cleaned table and the selector over it
func (p *OperationState) SetCleaned(t *dataprocessing.Table, stats dataprocessing.CleanStats, selector *dataprocessing.Selector) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cleaned = t
	p.cleanStats = stats
	p.selector = selector
}

// Cleaned returns the cleaned table, or nil before the clean step
func (p *OperationState) Cleaned() *dataprocessing.Table {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cleaned
}

// CleanStats returns what the clean step changed
func (p *OperationState) CleanStats() dataprocessing.CleanStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cleanStats
}

// Selector returns the cached selector over the cleaned table
func (p *OperationState) Selector() *dataprocessing.Selector {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.selector
}

// AddArtifact records a written chart
func (p *OperationState) AddArtifact(a charts.Artifact) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.artifacts = append(p.artifacts, a)
}

// Artifacts returns the charts written so far
func (p *OperationState) Artifacts() []charts.Artifact {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]charts.Artifact(nil), p.artifacts...)
}

// AddTable records a written CSV file
func (p *OperationState) AddTable(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tables = append(p.tables, path)
}

// Tables returns the CSV files written so far
func (p *OperationState) Tables() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.tables...)
}

// SetFrame stores the flattened view of a chart job for the workbook
func (p *OperationState) SetFrame(chart string, f exporter.Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames[chart] = f
}

// Frame returns the flattened view of a chart job
func (p *OperationState) Frame(chart string) (exporter.Frame, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	f, ok := p.frames[chart]
	return f, ok
}

// SetWorkbook records the written workbook
func (p *OperationState) SetWorkbook(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.workbook = path
}

// Workbook returns the written workbook path, or "" when none was written
func (p *OperationState) Workbook() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.workbook
}

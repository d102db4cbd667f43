package pipeline

import (
	"time"
)

// Step IDs in execution order
const (
	StepMetadata       = "metadata"
	StepFlows          = "flows"
	StepAggregate      = "aggregate"
	StepWriteTotals    = "write_totals"
	StepLoadTotals     = "load_totals"
	StepReadRegions    = "read_regions"
	StepMerge          = "merge"
	StepWriteShapefile = "write_shapefile"
	StepWriteGeoJSON   = "write_geojson"
)

var stepNames = map[string]string{
	StepMetadata:       "Load metadata",
	StepFlows:          "Read flow table",
	StepAggregate:      "Aggregate tonnage",
	StepWriteTotals:    "Write totals CSV",
	StepLoadTotals:     "Load totals CSV",
	StepReadRegions:    "Read region shapefile",
	StepMerge:          "Merge totals onto regions",
	StepWriteShapefile: "Write shapefile",
	StepWriteGeoJSON:   "Write GeoJSON",
}

// StepStatus represents the current status of a step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// IsTerminal reports whether the status is final.
func (s StepStatus) IsTerminal() bool {
	return s == StepStatusCompleted || s == StepStatusFailed || s == StepStatusSkipped
}

// StepState represents the runtime state of a step
type StepState struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    StepStatus `json:"status"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Message   string     `json:"message,omitempty"`
	Error     error      `json:"-"`
}

// NewStepState creates a pending step
func NewStepState(id string) *StepState {
	name, ok := stepNames[id]
	if !ok {
		name = id
	}
	return &StepState{ID: id, Name: name, Status: StepStatusPending}
}

// Start marks the step as active and sets the start time
func (s *StepState) Start() {
	now := time.Now()
	s.StartTime = &now
	s.Status = StepStatusActive
}

// Complete marks the step as completed
func (s *StepState) Complete() {
	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusCompleted
}

// Fail marks the step as failed with err
func (s *StepState) Fail(err error) {
	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusFailed
	s.Error = err
	if err != nil {
		s.Message = err.Error()
	}
}

// Skip marks the step as skipped with a reason
func (s *StepState) Skip(reason string) {
	s.Status = StepStatusSkipped
	s.Message = reason
}

// Duration returns the elapsed time of a started step. A step still active
// reports the time since it started.
func (s *StepState) Duration() time.Duration {
	if s.StartTime == nil {
		return 0
	}
	if s.EndTime == nil {
		return time.Since(*s.StartTime)
	}
	return s.EndTime.Sub(*s.StartTime)
}

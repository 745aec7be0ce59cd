package model

import (
	"time"

	"github.com/google/uuid"
)

// RunSummary captures metrics from a single processing run.
type RunSummary struct {
	RunID            uuid.UUID
	Inputs           map[string]string // input definition key → source file path
	RowsRead         int64
	RowsAssembled    map[TargetFile]int64
	OutputFiles      []string
	DurationClassify time.Duration
	DurationCompile  time.Duration
	DurationAssemble time.Duration
	DurationEmit     time.Duration
	DurationTotal    time.Duration
}

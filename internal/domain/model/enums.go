package model

// ListState is the lifecycle state of a mounted repository list.
type ListState string

const (
	ListIdle    ListState = "idle"
	ListLoading ListState = "loading"
	ListReady   ListState = "ready"
	ListErrored ListState = "errored"
)

// RowMode is the interaction mode of a single table row.
type RowMode string

const (
	RowView RowMode = "view"
	RowEdit RowMode = "edit"
)

// ProbeStatus summarises one check of the repository probe.
type ProbeStatus string

const (
	ProbeFound   ProbeStatus = "found"
	ProbeMissing ProbeStatus = "missing"
	ProbeSkipped ProbeStatus = "skipped"
	ProbeFailed  ProbeStatus = "failed"
)

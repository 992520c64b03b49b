package models

// SessionStatus represents the status of a dashboard session.
type SessionStatus string

const (
	SessionStatusEmpty     SessionStatus = "empty"
	SessionStatusIngesting SessionStatus = "ingesting"
	SessionStatusReady     SessionStatus = "ready"
	SessionStatusError     SessionStatus = "error"
)

// DashboardSession describes one dashboard and the dataset currently loaded into it.
type DashboardSession struct {
	ID               string        `json:"id"`
	FileID           string        `json:"fileId,omitempty"`
	FileName         string        `json:"fileName,omitempty"`
	Status           SessionStatus `json:"status"`
	WellID           string        `json:"wellId,omitempty"`
	StandCount       int           `json:"standCount"`
	SkippedRows      int           `json:"skippedRows"`
	ProcessingTimeMs int64         `json:"processingTimeMs,omitempty"`
	StartTime        int64         `json:"startTime,omitempty"` // Unix ms
	EndTime          int64         `json:"endTime,omitempty"`   // Unix ms
	ParserName       string        `json:"parserName,omitempty"`
	Error            string        `json:"error,omitempty"`
}

// NewDashboardSession creates a session with no dataset loaded.
func NewDashboardSession(id string) *DashboardSession {
	return &DashboardSession{
		ID:     id,
		Status: SessionStatusEmpty,
	}
}

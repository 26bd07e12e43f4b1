package model

import (
	"fmt"
	"time"
)

// DownloadTask tracks one granule asset being fetched to disk. Tasks are
// owned by the download service; the UI only reads them through update
// callbacks.
type DownloadTask struct {
	ID        string
	GranuleID string // native ID of the granule this asset belongs to
	URL       string // asset link being fetched
	Title     string // display name, usually the target file name

	Status     TaskStatus
	Progress   float64 // 0.0 to 1.0
	Percent    int     // 0 to 100
	BytesDone  int64
	BytesTotal int64 // -1 when the server does not report a length
	Speed      string
	ETASec     int // -1 if unknown

	LastError  string
	OutputPath string
	StartedAt  time.Time
	FinishedAt time.Time
}

// ETAString formats the remaining time as mm:ss or hh:mm:ss.
func (dt *DownloadTask) ETAString() string {
	if dt.ETASec <= 0 {
		return "—"
	}
	h := dt.ETASec / 3600
	m := (dt.ETASec % 3600) / 60
	s := dt.ETASec % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// ExtractionTask tracks one downloaded archive being unpacked next to the
// download. Reuses TaskStatus for its lifecycle.
type ExtractionTask struct {
	ID         string
	InputPath  string
	OutputDir  string
	Status     TaskStatus
	Progress   float64 // 0.0 to 1.0
	Percent    int     // 0 to 100
	FilesDone  int
	FilesTotal int
	LastError  string
	StartedAt  time.Time
	FinishedAt time.Time
}

// DisplayTitle returns the best available name for the task list row.
func (dt *DownloadTask) DisplayTitle() string {
	if dt.Title != "" {
		return dt.Title
	}
	if name := FileNameFromURL(dt.URL); name != "" {
		return name
	}
	return dt.ID
}

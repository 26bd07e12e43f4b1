package extract

import (
	"github.com/opengeos/earthdata-desktop/internal/model"
)

// Extractor defines the interface for the archive extraction service.
type Extractor interface {
	SetUpdateCallback(func(*model.ExtractionTask))
	StartExtraction(inputPath string) (*model.ExtractionTask, error)
	StopExtraction(taskID string) error
	GetTask(taskID string) (*model.ExtractionTask, bool)
}

// Package extract unpacks zipped granule bundles after download. Some
// providers deliver multi-band products as a single zip archive; extraction
// runs in the background and reports progress the same way downloads do.
package extract

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/opengeos/earthdata-desktop/internal/model"
)

const (
	taskIDPrefix = "extract-"

	// ZipExtension is the archive suffix extraction applies to.
	ZipExtension = ".zip"
)

// Service handles archive extraction operations
type Service struct {
	tasks      map[string]*model.ExtractionTask
	cancels    map[string]context.CancelFunc
	tasksMutex sync.RWMutex
	log        zerolog.Logger
	onUpdate   func(*model.ExtractionTask) // callback for UI updates
}

// NewService creates a new extraction service
func NewService(log zerolog.Logger) *Service {
	return &Service{
		tasks:   make(map[string]*model.ExtractionTask),
		cancels: make(map[string]context.CancelFunc),
		log:     log.With().Str("component", "extract").Logger(),
	}
}

// SetUpdateCallback sets the callback function for task updates
func (s *Service) SetUpdateCallback(callback func(*model.ExtractionTask)) {
	s.onUpdate = callback
}

// CanExtract reports whether the file is an archive this service handles.
func CanExtract(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ZipExtension)
}

// StartExtraction starts unpacking an archive into a sibling directory
// named after it.
func (s *Service) StartExtraction(inputPath string) (*model.ExtractionTask, error) {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()

	if !CanExtract(inputPath) {
		return nil, fmt.Errorf("not a zip archive: %s", inputPath)
	}

	for _, task := range s.tasks {
		if task.InputPath == inputPath &&
			(task.Status.IsActive() || task.Status == model.TaskStatusPending) {
			return nil, fmt.Errorf("extraction already in progress for file: %s", inputPath)
		}
	}

	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("input file does not exist: %s", inputPath)
	}

	task := &model.ExtractionTask{
		ID:        taskIDPrefix + uuid.NewString(),
		InputPath: inputPath,
		OutputDir: strings.TrimSuffix(inputPath, filepath.Ext(inputPath)),
		Status:    model.TaskStatusPending,
		StartedAt: time.Now(),
	}

	s.tasks[task.ID] = task

	ctx, cancel := context.WithCancel(context.Background())
	s.cancels[task.ID] = cancel

	go s.runExtraction(ctx, task)

	return task, nil
}

// StopExtraction stops a running extraction task
func (s *Service) StopExtraction(taskID string) error {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()

	task, exists := s.tasks[taskID]
	if !exists {
		return fmt.Errorf("extraction task not found: %s", taskID)
	}

	if !task.Status.IsActive() && task.Status != model.TaskStatusPending {
		return fmt.Errorf("extraction task is not active: %s", task.Status)
	}

	task.Status = model.TaskStatusStopping
	if cancel, ok := s.cancels[taskID]; ok {
		cancel()
	}
	s.notifyUpdate(task)

	return nil
}

// GetTask returns an extraction task by ID
func (s *Service) GetTask(taskID string) (*model.ExtractionTask, bool) {
	s.tasksMutex.RLock()
	defer s.tasksMutex.RUnlock()
	task, exists := s.tasks[taskID]
	return task, exists
}

// runExtraction performs the actual extraction
func (s *Service) runExtraction(ctx context.Context, task *model.ExtractionTask) {
	defer func() {
		s.tasksMutex.Lock()
		delete(s.cancels, task.ID)
		s.tasksMutex.Unlock()
	}()

	s.setStatus(task, model.TaskStatusStarting)

	reader, err := zip.OpenReader(task.InputPath)
	if err != nil {
		s.setTaskError(task, fmt.Errorf("cannot open archive: %w", err))
		return
	}
	defer reader.Close()

	s.tasksMutex.Lock()
	task.FilesTotal = len(reader.File)
	task.Status = model.TaskStatusDownloading
	s.tasksMutex.Unlock()
	s.notifyUpdate(task)

	for i, file := range reader.File {
		if ctx.Err() != nil {
			s.finishStopped(task)
			return
		}

		if err := extractOne(file, task.OutputDir); err != nil {
			s.setTaskError(task, err)
			return
		}

		s.tasksMutex.Lock()
		task.FilesDone = i + 1
		task.Progress = float64(task.FilesDone) / float64(task.FilesTotal)
		task.Percent = int(task.Progress * 100)
		s.tasksMutex.Unlock()
		s.notifyUpdate(task)
	}

	s.tasksMutex.Lock()
	task.Status = model.TaskStatusCompleted
	task.Progress = 1.0
	task.Percent = 100
	task.FinishedAt = time.Now()
	s.tasksMutex.Unlock()
	s.notifyUpdate(task)

	s.log.Info().Str("archive", task.InputPath).Int("files", task.FilesTotal).Msg("archive extracted")
}

// extractOne writes a single archive entry under destDir, refusing entries
// whose names escape it.
func extractOne(file *zip.File, destDir string) error {
	target := filepath.Join(destDir, filepath.FromSlash(file.Name))
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return fmt.Errorf("archive entry escapes destination: %s", file.Name)
	}

	if file.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("cannot read archive entry %s: %w", file.Name, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.Mode())
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("cannot write %s: %w", target, err)
	}
	return nil
}

func (s *Service) setStatus(task *model.ExtractionTask, status model.TaskStatus) {
	s.tasksMutex.Lock()
	task.Status = status
	s.tasksMutex.Unlock()
	s.notifyUpdate(task)
}

func (s *Service) finishStopped(task *model.ExtractionTask) {
	s.tasksMutex.Lock()
	task.Status = model.TaskStatusStopped
	task.FinishedAt = time.Now()
	s.tasksMutex.Unlock()
	s.notifyUpdate(task)
	// Partially extracted files stay on disk; a retry overwrites them.
}

func (s *Service) setTaskError(task *model.ExtractionTask, err error) {
	s.tasksMutex.Lock()
	task.Status = model.TaskStatusError
	task.LastError = err.Error()
	task.FinishedAt = time.Now()
	s.tasksMutex.Unlock()
	s.notifyUpdate(task)

	s.log.Error().Err(err).Str("archive", task.InputPath).Msg("extraction failed")
}

func (s *Service) notifyUpdate(task *model.ExtractionTask) {
	if s.onUpdate != nil {
		s.onUpdate(task)
	}
}

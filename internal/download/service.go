package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/opengeos/earthdata-desktop/internal/model"
)

// Service handles download operations
type Service struct {
	tasks       map[string]*model.DownloadTask
	cancels     map[string]context.CancelFunc
	tasksMutex  sync.RWMutex
	maxParallel int
	activeCount int
	downloadDir string
	httpClient  *http.Client
	log         zerolog.Logger
	onUpdate    func(*model.DownloadTask) // callback for UI updates
}

// NewService creates a new download service. The client must already carry
// Earthdata credentials; the service only moves bytes.
func NewService(downloadDir string, maxParallel int, client *http.Client, log zerolog.Logger) *Service {
	if client == nil {
		client = http.DefaultClient
	}
	return &Service{
		tasks:       make(map[string]*model.DownloadTask),
		cancels:     make(map[string]context.CancelFunc),
		maxParallel: maxParallel,
		downloadDir: downloadDir,
		httpClient:  client,
		log:         log.With().Str("component", "download").Logger(),
	}
}

// SetUpdateCallback sets the callback function for task updates
func (s *Service) SetUpdateCallback(callback func(*model.DownloadTask)) {
	s.onUpdate = callback
}

// SetMaxParallelDownloads sets the maximum number of parallel downloads
func (s *Service) SetMaxParallelDownloads(max int) {
	if max < 1 {
		max = 1
	}
	s.tasksMutex.Lock()
	s.maxParallel = max
	s.tasksMutex.Unlock()
}

// SetDownloadDirectory sets the download directory
func (s *Service) SetDownloadDirectory(dir string) {
	s.tasksMutex.Lock()
	s.downloadDir = dir
	s.tasksMutex.Unlock()
}

// AddGranule queues one task per data link of a granule. Granules without
// data links are an error.
func (s *Service) AddGranule(granule model.Granule) ([]*model.DownloadTask, error) {
	if len(granule.DataLinks) == 0 {
		return nil, fmt.Errorf("granule %s has no downloadable links", granule.DisplayID())
	}
	var tasks []*model.DownloadTask
	for _, link := range granule.DataLinks {
		task, err := s.AddTask(link, granule.DisplayID(), granule.ConceptID)
		if err != nil {
			// Duplicate links are skipped, not fatal.
			s.log.Debug().Err(err).Str("url", link).Msg("skipping link")
			continue
		}
		tasks = append(tasks, task)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("all links of granule %s are already queued", granule.DisplayID())
	}
	return tasks, nil
}

// AddTask adds a new download task
func (s *Service) AddTask(url, title, granuleID string) (*model.DownloadTask, error) {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()

	// Check for duplicate URLs
	for _, task := range s.tasks {
		if task.URL == url && !task.Status.IsFinished() {
			return nil, fmt.Errorf("task already exists for URL: %s", url)
		}
	}

	task := &model.DownloadTask{
		ID:        uuid.NewString(),
		GranuleID: granuleID,
		URL:       url,
		Title:     title,
		Status:    model.TaskStatusPending,
		Progress:  0.0,
		Percent:   0,
		ETASec:    -1,
		StartedAt: time.Now(),
	}

	s.tasks[task.ID] = task
	s.startTaskLocked(task)

	return task, nil
}

// GetTask returns a task by ID
func (s *Service) GetTask(id string) (*model.DownloadTask, bool) {
	s.tasksMutex.RLock()
	defer s.tasksMutex.RUnlock()
	task, exists := s.tasks[id]
	return task, exists
}

// GetAllTasks returns all tasks
func (s *Service) GetAllTasks() []*model.DownloadTask {
	s.tasksMutex.RLock()
	defer s.tasksMutex.RUnlock()

	tasks := make([]*model.DownloadTask, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, task)
	}
	return tasks
}

// StopTask stops a running task
func (s *Service) StopTask(id string) error {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()

	task, exists := s.tasks[id]
	if !exists {
		return fmt.Errorf("task not found: %s", id)
	}

	// A task that never started just goes straight to stopped.
	if task.Status == model.TaskStatusPending {
		task.Status = model.TaskStatusStopped
		task.FinishedAt = time.Now()
		s.notifyUpdate(task)
		return nil
	}

	if !task.Status.IsActive() {
		return fmt.Errorf("task is not active: %s", task.Status)
	}

	task.Status = model.TaskStatusStopping
	if cancel, ok := s.cancels[id]; ok {
		cancel()
	}
	s.notifyUpdate(task)
	return nil
}

// RestartTask re-queues a stopped or failed task from scratch.
func (s *Service) RestartTask(id string) error {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()

	task, exists := s.tasks[id]
	if !exists {
		return fmt.Errorf("task not found: %s", id)
	}
	if task.Status.IsActive() || task.Status == model.TaskStatusPending {
		return fmt.Errorf("task is still active: %s", task.Status)
	}

	task.Status = model.TaskStatusPending
	task.Progress = 0
	task.Percent = 0
	task.BytesDone = 0
	task.ETASec = -1
	task.LastError = ""
	task.StartedAt = time.Now()
	task.FinishedAt = time.Time{}
	s.notifyUpdate(task)

	s.startTaskLocked(task)
	return nil
}

// RemoveTask drops a finished task from the list.
func (s *Service) RemoveTask(id string) error {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()

	task, exists := s.tasks[id]
	if !exists {
		return fmt.Errorf("task not found: %s", id)
	}
	if task.Status.IsActive() {
		return fmt.Errorf("stop the task before removing it")
	}
	task.Status = model.TaskStatusStopped
	delete(s.tasks, id)
	return nil
}

// startTaskLocked reserves a parallel slot and launches the task's
// goroutine. Callers must hold tasksMutex. The reservation happens here,
// under the lock, so a burst of AddTask calls cannot oversubscribe the
// pool. No-op when the pool is full or the task is no longer pending.
func (s *Service) startTaskLocked(task *model.DownloadTask) {
	if s.activeCount >= s.maxParallel {
		return
	}
	if task.Status != model.TaskStatusPending {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.activeCount++
	s.cancels[task.ID] = cancel
	task.Status = model.TaskStatusStarting

	go s.runTask(ctx, cancel, task)
}

// runTask drives one reserved download to a terminal state.
func (s *Service) runTask(ctx context.Context, cancel context.CancelFunc, task *model.DownloadTask) {
	s.notifyUpdate(task)

	defer func() {
		cancel()
		s.tasksMutex.Lock()
		s.activeCount--
		delete(s.cancels, task.ID)
		s.tasksMutex.Unlock()

		// Try to start next pending task
		s.startNextPendingTask()
	}()

	s.tasksMutex.Lock()
	if task.Status != model.TaskStatusStarting {
		// Stopped between reservation and startup.
		task.Status = model.TaskStatusStopped
		task.FinishedAt = time.Now()
		s.tasksMutex.Unlock()
		s.notifyUpdate(task)
		return
	}
	task.Status = model.TaskStatusDownloading
	s.tasksMutex.Unlock()
	s.notifyUpdate(task)

	outPath, err := s.downloadWithRetry(ctx, task)

	s.tasksMutex.Lock()
	if err != nil {
		if ctx.Err() == context.Canceled {
			task.Status = model.TaskStatusStopped
		} else {
			task.Status = model.TaskStatusError
			task.LastError = err.Error()
			s.log.Error().Err(err).Str("task", task.ID).Str("url", task.URL).Msg("download failed")
		}
	} else {
		task.Status = model.TaskStatusCompleted
		task.Progress = 1.0
		task.Percent = 100
		task.OutputPath = outPath
		s.log.Info().Str("task", task.ID).Str("path", outPath).Msg("download completed")
	}
	task.FinishedAt = time.Now()
	s.tasksMutex.Unlock()

	s.notifyUpdate(task)
}

// downloadWithRetry attempts the transfer, retrying once on transient failure.
func (s *Service) downloadWithRetry(ctx context.Context, task *model.DownloadTask) (string, error) {
	maxRetries := 1
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(2 * time.Second):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			s.log.Debug().Str("task", task.ID).Int("attempt", attempt+1).Msg("retrying download")
		}

		path, err := s.downloadOnce(ctx, task)
		if err == nil {
			return path, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return "", lastErr
}

// downloadOnce streams the file to a .part sibling, then renames into place.
func (s *Service) downloadOnce(ctx context.Context, task *model.DownloadTask) (string, error) {
	s.tasksMutex.RLock()
	dir := s.downloadDir
	s.tasksMutex.RUnlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, task.URL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request %s: %w", task.URL, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", fmt.Errorf("authentication rejected (HTTP %d), check Earthdata credentials", resp.StatusCode)
	default:
		return "", fmt.Errorf("unexpected status %d for %s", resp.StatusCode, task.URL)
	}

	s.tasksMutex.Lock()
	task.BytesTotal = resp.ContentLength
	s.tasksMutex.Unlock()

	fileName := model.FileNameFromURL(task.URL)
	finalPath := filepath.Join(dir, fileName)
	partPath := finalPath + ".part"

	out, err := os.Create(partPath)
	if err != nil {
		return "", fmt.Errorf("create output file: %w", err)
	}

	reader := &progressReader{
		reader:  resp.Body,
		total:   resp.ContentLength,
		started: time.Now(),
		onProgress: func(done, total int64, speed float64, etaSec int) {
			s.recordProgress(task, done, total, speed, etaSec)
		},
	}

	_, copyErr := io.Copy(out, reader)
	closeErr := out.Close()
	if copyErr != nil {
		os.Remove(partPath)
		return "", fmt.Errorf("transfer %s: %w", fileName, copyErr)
	}
	if closeErr != nil {
		os.Remove(partPath)
		return "", fmt.Errorf("close output file: %w", closeErr)
	}

	if err := os.Rename(partPath, finalPath); err != nil {
		os.Remove(partPath)
		return "", fmt.Errorf("finalize output file: %w", err)
	}
	return finalPath, nil
}

func (s *Service) recordProgress(task *model.DownloadTask, done, total int64, speed float64, etaSec int) {
	s.tasksMutex.Lock()
	task.BytesDone = done
	if total > 0 {
		task.Progress = float64(done) / float64(total)
		task.Percent = int(task.Progress * 100)
	}
	if speed > 0 {
		task.Speed = fmt.Sprintf("%.1fMB/s", speed/1e6)
	}
	task.ETASec = etaSec
	s.tasksMutex.Unlock()

	s.notifyUpdate(task)
}

// startNextPendingTask starts the next pending task if we have capacity
func (s *Service) startNextPendingTask() {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()

	for _, task := range s.tasks {
		if task.Status == model.TaskStatusPending {
			s.startTaskLocked(task)
			return
		}
	}
}

// notifyUpdate calls the update callback if set
func (s *Service) notifyUpdate(task *model.DownloadTask) {
	if s.onUpdate != nil {
		s.onUpdate(task)
	}
}

// progressReader reports byte counts through a throttled callback.
type progressReader struct {
	reader     io.Reader
	total      int64
	done       int64
	started    time.Time
	lastNotify time.Time
	onProgress func(done, total int64, speed float64, etaSec int)
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		r.done += int64(n)
		now := time.Now()
		if now.Sub(r.lastNotify) >= 500*time.Millisecond || (err == io.EOF && r.total > 0) {
			r.lastNotify = now
			elapsed := now.Sub(r.started).Seconds()
			var speed float64
			etaSec := -1
			if elapsed > 0 {
				speed = float64(r.done) / elapsed
				if r.total > 0 && speed > 0 {
					etaSec = int(float64(r.total-r.done) / speed)
				}
			}
			r.onProgress(r.done, r.total, speed, etaSec)
		}
	}
	return n, err
}

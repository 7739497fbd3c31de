package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/csvstats/internal/config"
	"github.com/JonMunkholm/csvstats/internal/logging"
	"github.com/JonMunkholm/csvstats/internal/notify"
	"github.com/JonMunkholm/csvstats/internal/profile"
	"github.com/JonMunkholm/csvstats/internal/store"
	"github.com/google/uuid"
)

// OutcomeRetention is how long a finished analysis stays queryable in memory.
var OutcomeRetention = 5 * time.Minute

// SaveTimeout bounds the cache write and metadata insert after a pass.
var SaveTimeout = 30 * time.Second

// Notifier delivers outcomes to clients waiting on a file.
type Notifier interface {
	Notify(ctx context.Context, fileID string, msg notify.Message) int
}

// Service owns the analysis lifecycle for uploaded files.
type Service struct {
	files    store.MetadataStore
	cache    store.ResultCache
	notifier Notifier
	limiter  *AnalysisLimiter

	uploadDir     string
	keepFiles     bool
	csvOpts       profile.CSVOptions
	progressEvery int

	baseCtx context.Context
	cancel  context.CancelFunc

	mu       sync.RWMutex
	analyses map[string]*activeAnalysis
}

type activeAnalysis struct {
	mu        sync.Mutex
	progress  AnalysisProgress
	result    *profile.AnalysisResult
	err       error
	done      chan struct{}
	listeners []chan AnalysisProgress
}

// NewService wires the stores and notifier. notifier may be nil.
func NewService(cfg *config.Config, files store.MetadataStore, cache store.ResultCache, notifier Notifier) (*Service, error) {
	if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		files:    files,
		cache:    cache,
		notifier: notifier,
		limiter:  NewAnalysisLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),

		uploadDir: cfg.Upload.Dir,
		keepFiles: cfg.Upload.KeepFiles,
		csvOpts: profile.CSVOptions{
			Comma:      cfg.Profile.Comma(),
			LazyQuotes: cfg.Profile.LazyQuotes,
		},
		progressEvery: cfg.Profile.ProgressEvery,

		baseCtx:  ctx,
		cancel:   cancel,
		analyses: make(map[string]*activeAnalysis),
	}, nil
}

// newDatasetID returns "<unix millis>-<uuid>", which sorts by upload time.
func newDatasetID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString())
}

// StartAnalysis stores r under the upload directory and starts a pass over
// it. It returns as soon as the file is on disk.
//
// Returns ErrTooManyAnalyses when no slot frees up within the wait time.
func (s *Service) StartAnalysis(ctx context.Context, fileName string, r io.Reader) (string, error) {
	if r == nil {
		return "", ErrNoFile
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	id := newDatasetID()
	path := filepath.Join(s.uploadDir, storedFileName(id, fileName))

	size, err := persistUpload(path, r)
	if err != nil {
		s.limiter.Release()
		return "", err
	}

	a := &activeAnalysis{
		progress: AnalysisProgress{
			DatasetID:  id,
			FileName:   fileName,
			Phase:      PhaseQueued,
			BytesTotal: size,
		},
		done: make(chan struct{}),
	}

	s.mu.Lock()
	s.analyses[id] = a
	s.mu.Unlock()

	ip, ua := ClientFromContext(ctx)
	logging.WithFields(ctx, "dataset_id", id, "file", fileName).Info("analysis queued",
		"bytes", size,
		"client_ip", ip,
		"user_agent", ua,
	)

	go func() {
		defer s.limiter.Release()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in analysis", "dataset_id", id, "panic", r)
				s.finish(a, nil, fmt.Errorf("internal error: %v", r))
			}
		}()
		s.run(a, path)
	}()

	return id, nil
}

func persistUpload(path string, r io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("store upload: %w", err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("store upload: %w", err)
	}
	return n, nil
}

// storedFileName keeps a readable, path-safe form of the original name.
func storedFileName(id, original string) string {
	base := filepath.Base(strings.ReplaceAll(original, `\`, "/"))
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	safe = strings.Trim(safe, ".")
	if len(safe) > 100 {
		safe = safe[len(safe)-100:]
	}
	if safe == "" {
		safe = "upload.csv"
	}
	return id + "-" + safe
}

func (s *Service) run(a *activeAnalysis, path string) {
	snap := a.snapshot()
	log := slog.With("dataset_id", snap.DatasetID, "file", snap.FileName)
	start := time.Now()

	result, err := s.analyze(a, path, snap.BytesTotal)
	if err == nil {
		a.update(func(p *AnalysisProgress) { p.Phase = PhaseSaving })
		err = s.save(snap.DatasetID, snap.FileName, result)
	}

	if !s.keepFiles {
		if rerr := os.Remove(path); rerr != nil {
			log.Warn("failed to remove upload", "path", path, "error", rerr)
		}
	}

	if err != nil {
		log.Warn("analysis failed", "error", err, "duration", time.Since(start))
	} else {
		log.Info("analysis completed",
			"rows", result.TotalRows,
			"columns", result.ColumnCount(),
			"duration", time.Since(start),
		)
	}

	s.finish(a, result, err)
}

// analyze runs the pass. Closing the file aborts it when the service shuts
// down, since the engine itself cannot be cancelled.
func (s *Service) analyze(a *activeAnalysis, path string, size int64) (*profile.AnalysisResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &profile.SourceReadError{Err: err}
	}
	defer f.Close()

	src := profile.NewCSVSource(f, size, s.csvOpts)
	a.update(func(p *AnalysisProgress) { p.Phase = PhaseAnalyzing })

	task := profile.Start(src, profile.Options{
		ProgressEvery: s.progressEvery,
		OnProgress: func(rows int) {
			bytesRead := src.Input().BytesRead()
			a.update(func(p *AnalysisProgress) {
				p.RowsProcessed = rows
				p.BytesRead = bytesRead
			})
		},
	})

	result, err := task.Wait(s.baseCtx)
	if err != nil && s.baseCtx.Err() != nil && errors.Is(err, s.baseCtx.Err()) {
		f.Close()
		<-task.Done()
		return nil, fmt.Errorf("analysis aborted: %w", s.baseCtx.Err())
	}
	if err != nil {
		return nil, err
	}

	bytesRead := src.Input().BytesRead()
	a.update(func(p *AnalysisProgress) {
		p.RowsProcessed = result.TotalRows
		p.BytesRead = bytesRead
	})
	return result, nil
}

// save caches the result and records the file. The cache write must succeed
// for the analysis to count; a failed metadata insert is only logged.
func (s *Service) save(id, fileName string, result *profile.AnalysisResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), SaveTimeout)
	defer cancel()

	if err := s.cache.Set(ctx, id, result); err != nil {
		return fmt.Errorf("cache result: %w", err)
	}

	rec := store.FileRecord{
		ID:           id,
		OriginalName: fileName,
		RowCount:     result.TotalRows,
		ColumnCount:  result.ColumnCount(),
		UploadTime:   time.Now(),
	}
	if err := s.files.InsertFile(ctx, rec); err != nil {
		slog.Error("failed to record analyzed file", "dataset_id", id, "error", err)
	}
	return nil
}

func (s *Service) finish(a *activeAnalysis, result *profile.AnalysisResult, err error) {
	a.mu.Lock()
	select {
	case <-a.done:
		a.mu.Unlock()
		return
	default:
	}
	a.result, a.err = result, err
	if err != nil {
		a.result = nil
		a.progress.Phase = PhaseFailed
		a.progress.Error = FormatUserError(err)
	} else {
		a.progress.Phase = PhaseComplete
	}
	id := a.progress.DatasetID
	msg := a.messageLocked()
	a.broadcastLocked()
	for _, ch := range a.listeners {
		close(ch)
	}
	a.listeners = nil
	close(a.done)
	a.mu.Unlock()

	if s.notifier != nil {
		if n := s.notifier.Notify(context.Background(), id, msg); n > 0 {
			slog.Debug("notified clients", "dataset_id", id, "clients", n)
		}
	}

	time.AfterFunc(OutcomeRetention, func() {
		s.mu.Lock()
		delete(s.analyses, id)
		s.mu.Unlock()
	})
}

func (a *activeAnalysis) snapshot() AnalysisProgress {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.progress
}

func (a *activeAnalysis) update(fn func(*AnalysisProgress)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(&a.progress)
	a.broadcastLocked()
}

// broadcastLocked drops updates for listeners that are not keeping up.
func (a *activeAnalysis) broadcastLocked() {
	for _, ch := range a.listeners {
		select {
		case ch <- a.progress:
		default:
		}
	}
}

func (a *activeAnalysis) messageLocked() notify.Message {
	if a.err != nil {
		return notify.Message{Success: false, Error: a.progress.Error}
	}
	return notify.Message{Success: true, Analytics: a.result}
}

func (s *Service) lookup(id string) (*activeAnalysis, error) {
	s.mu.RLock()
	a, ok := s.analyses[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAnalysisNotFound, id)
	}
	return a, nil
}

// SubscribeProgress returns a channel of progress snapshots, starting with
// the current one. It is closed when the analysis finishes.
func (s *Service) SubscribeProgress(id string) (<-chan AnalysisProgress, error) {
	a, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	ch := make(chan AnalysisProgress, 10)

	a.mu.Lock()
	defer a.mu.Unlock()
	ch <- a.progress
	select {
	case <-a.done:
		close(ch)
	default:
		a.listeners = append(a.listeners, ch)
	}
	return ch, nil
}

// Progress returns the current snapshot without blocking.
func (s *Service) Progress(id string) (AnalysisProgress, error) {
	a, err := s.lookup(id)
	if err != nil {
		return AnalysisProgress{}, err
	}
	return a.snapshot(), nil
}

// WaitForResult blocks until the analysis finishes or ctx ends.
func (s *Service) WaitForResult(ctx context.Context, id string) (*profile.AnalysisResult, error) {
	a, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	select {
	case <-a.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result, a.err
}

// Outcome returns the in-memory outcome of a finished analysis.
func (s *Service) Outcome(id string) (AnalysisOutcome, bool) {
	a, err := s.lookup(id)
	if err != nil {
		return AnalysisOutcome{}, false
	}
	select {
	case <-a.done:
	default:
		return AnalysisOutcome{}, false
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return AnalysisOutcome{Progress: a.progress, Result: a.result, Err: a.err}, true
}

// GetAnalytics returns the cached result for id, or ErrAnalyticsNotFound.
func (s *Service) GetAnalytics(ctx context.Context, id string) (*profile.AnalysisResult, error) {
	result, err := s.cache.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrAnalyticsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analytics %s: %w", id, err)
	}
	return result, nil
}

// LookupNotification is the hub's late-registration hook: it returns the
// outcome for id if the analysis already finished.
func (s *Service) LookupNotification(ctx context.Context, id string) (notify.Message, bool) {
	if a, err := s.lookup(id); err == nil {
		select {
		case <-a.done:
			a.mu.Lock()
			defer a.mu.Unlock()
			return a.messageLocked(), true
		default:
			return notify.Message{}, false
		}
	}

	result, err := s.GetAnalytics(ctx, id)
	if err != nil {
		return notify.Message{}, false
	}
	return notify.Message{Success: true, Analytics: result}, true
}

// ListFiles returns analyzed files, newest first.
func (s *Service) ListFiles(ctx context.Context) ([]store.FileRecord, error) {
	files, err := s.files.ListFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}

// Ping checks both stores.
func (s *Service) Ping(ctx context.Context) error {
	return errors.Join(s.files.Ping(ctx), s.cache.Ping(ctx))
}

// LimiterStatus reports analysis slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForAnalyses blocks until no analysis is running or ctx ends.
func (s *Service) WaitForAnalyses(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Close aborts running analyses. They finish as failed.
func (s *Service) Close() {
	s.cancel()
}

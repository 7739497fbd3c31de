package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/csvstats/internal/config"
	"github.com/JonMunkholm/csvstats/internal/notify"
	"github.com/JonMunkholm/csvstats/internal/profile"
	"github.com/JonMunkholm/csvstats/internal/store"
)

type recordingNotifier struct {
	mu   sync.Mutex
	msgs map[string][]notify.Message
}

func (n *recordingNotifier) Notify(_ context.Context, fileID string, msg notify.Message) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.msgs == nil {
		n.msgs = make(map[string][]notify.Message)
	}
	n.msgs[fileID] = append(n.msgs[fileID], msg)
	return 1
}

func (n *recordingNotifier) get(fileID string) []notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Message(nil), n.msgs[fileID]...)
}

type testEnv struct {
	svc      *Service
	files    *store.SQLiteStore
	cache    *store.MemoryCache
	notifier *recordingNotifier
	cfg      *config.Config
}

func newTestService(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{
		Upload: config.UploadConfig{
			Dir:           filepath.Join(dir, "uploads"),
			MaxFileSize:   1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   50 * time.Millisecond,
			KeepFiles:     true,
		},
		Profile: config.ProfileConfig{Delimiter: ",", LazyQuotes: true, ProgressEvery: 1},
	}
	if mutate != nil {
		mutate(cfg)
	}

	files, err := store.NewSQLiteStore(context.Background(), filepath.Join(dir, "analytics.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { files.Close() })

	cache := store.NewMemoryCache(time.Hour)
	notifier := &recordingNotifier{}

	svc, err := NewService(cfg, files, cache, notifier)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	t.Cleanup(svc.Close)

	return &testEnv{svc: svc, files: files, cache: cache, notifier: notifier, cfg: cfg}
}

func (e *testEnv) analyze(t *testing.T, name, content string) (string, *profile.AnalysisResult, error) {
	t.Helper()
	id, err := e.svc.StartAnalysis(context.Background(), name, strings.NewReader(content))
	if err != nil {
		t.Fatalf("StartAnalysis() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := e.svc.WaitForResult(ctx, id)
	return id, res, err
}

func TestService_AnalysisSuccess(t *testing.T) {
	env := newTestService(t, nil)

	id, res, err := env.analyze(t, "sales.csv", "city,amount\nOslo,10\nBergen,20\nOslo,30\n")
	if err != nil {
		t.Fatalf("WaitForResult() error = %v", err)
	}
	if res.TotalRows != 3 || res.ColumnCount() != 2 {
		t.Errorf("result rows/cols = %d/%d, want 3/2", res.TotalRows, res.ColumnCount())
	}
	if got := res.ColumnData["amount"]; got.Type != profile.TypeNumeric || got.Average != 20 {
		t.Errorf("amount = %+v, want numeric average 20", got)
	}

	cached, err := env.svc.GetAnalytics(context.Background(), id)
	if err != nil {
		t.Fatalf("GetAnalytics() error = %v", err)
	}
	if cached.TotalRows != 3 {
		t.Errorf("cached TotalRows = %d, want 3", cached.TotalRows)
	}

	files, err := env.svc.ListFiles(context.Background())
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("ListFiles() = %d records, want 1", len(files))
	}
	rec := files[0]
	if rec.ID != id || rec.OriginalName != "sales.csv" || rec.RowCount != 3 || rec.ColumnCount != 2 {
		t.Errorf("record = %+v", rec)
	}

	msgs := env.notifier.get(id)
	if len(msgs) != 1 {
		t.Fatalf("notifications = %d, want exactly 1", len(msgs))
	}
	if !msgs[0].Success || msgs[0].Analytics == nil || msgs[0].Analytics.TotalRows != 3 {
		t.Errorf("notification = %+v", msgs[0])
	}

	progress, err := env.svc.Progress(id)
	if err != nil {
		t.Fatalf("Progress() error = %v", err)
	}
	if progress.Phase != PhaseComplete || progress.RowsProcessed != 3 || progress.Percent() != 100 {
		t.Errorf("progress = %+v", progress)
	}

	entries, _ := os.ReadDir(env.cfg.Upload.Dir)
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), id) {
		t.Errorf("upload dir = %v, want one file prefixed with %s", entries, id)
	}
}

func TestService_AnalysisFailure(t *testing.T) {
	env := newTestService(t, func(c *config.Config) { c.Profile.LazyQuotes = false })

	id, res, err := env.analyze(t, "broken.csv", "a,b\n\"unterminated,1\n")
	if res != nil {
		t.Errorf("failed analysis returned result %+v", res)
	}
	var parseErr *profile.SourceParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("WaitForResult() error = %v, want SourceParseError", err)
	}

	if _, err := env.svc.GetAnalytics(context.Background(), id); !errors.Is(err, ErrAnalyticsNotFound) {
		t.Errorf("GetAnalytics() error = %v, want ErrAnalyticsNotFound", err)
	}
	files, _ := env.svc.ListFiles(context.Background())
	if len(files) != 0 {
		t.Errorf("failed analysis recorded %d files", len(files))
	}

	msgs := env.notifier.get(id)
	if len(msgs) != 1 || msgs[0].Success || !strings.Contains(msgs[0].Error, "SRC002") {
		t.Errorf("notifications = %+v, want one SRC002 failure", msgs)
	}

	progress, _ := env.svc.Progress(id)
	if progress.Phase != PhaseFailed || progress.Error == "" {
		t.Errorf("progress = %+v, want failed with error", progress)
	}
}

func TestService_EmptyFile(t *testing.T) {
	env := newTestService(t, nil)

	_, res, err := env.analyze(t, "empty.csv", "")
	if err != nil {
		t.Fatalf("WaitForResult() error = %v", err)
	}
	if res.TotalRows != 0 || len(res.FileHeaders) != 0 || len(res.ColumnData) != 0 {
		t.Errorf("result = %+v, want empty", res)
	}
}

func TestService_OverflowingSumCompletes(t *testing.T) {
	env := newTestService(t, nil)

	id, res, err := env.analyze(t, "big.csv", "v\n1e308\n1e308\n")
	if err != nil {
		t.Fatalf("WaitForResult() error = %v", err)
	}
	if res.ColumnData["v"].Count != 2 {
		t.Errorf("v = %+v, want count 2", res.ColumnData["v"])
	}

	cached, err := env.svc.GetAnalytics(context.Background(), id)
	if err != nil {
		t.Fatalf("GetAnalytics() error = %v", err)
	}
	if v := cached.ColumnData["v"]; v.NumericStats == nil || v.Max != 1e308 {
		t.Errorf("cached v = %+v, want max 1e308", v)
	}
	if progress, _ := env.svc.Progress(id); progress.Phase != PhaseComplete {
		t.Errorf("progress = %+v, want complete", progress)
	}
}

func TestService_DiscardsUploadsWhenNotKept(t *testing.T) {
	env := newTestService(t, func(c *config.Config) { c.Upload.KeepFiles = false })

	if _, _, err := env.analyze(t, "a.csv", "x\n1\n"); err != nil {
		t.Fatalf("WaitForResult() error = %v", err)
	}
	entries, _ := os.ReadDir(env.cfg.Upload.Dir)
	if len(entries) != 0 {
		t.Errorf("upload dir has %d files, want 0", len(entries))
	}
}

func TestService_TooManyAnalyses(t *testing.T) {
	env := newTestService(t, func(c *config.Config) { c.Upload.MaxConcurrent = 1 })

	if !env.svc.limiter.TryAcquire() {
		t.Fatal("TryAcquire should succeed on idle service")
	}
	defer env.svc.limiter.Release()

	_, err := env.svc.StartAnalysis(context.Background(), "a.csv", strings.NewReader("x\n1\n"))
	if !errors.Is(err, ErrTooManyAnalyses) {
		t.Errorf("StartAnalysis() error = %v, want ErrTooManyAnalyses", err)
	}
}

func TestService_NoFile(t *testing.T) {
	env := newTestService(t, nil)

	if _, err := env.svc.StartAnalysis(context.Background(), "", nil); !errors.Is(err, ErrNoFile) {
		t.Errorf("StartAnalysis(nil) error = %v, want ErrNoFile", err)
	}
}

func TestService_UnknownAnalysis(t *testing.T) {
	env := newTestService(t, nil)

	if _, err := env.svc.Progress("missing"); !errors.Is(err, ErrAnalysisNotFound) {
		t.Errorf("Progress() error = %v, want ErrAnalysisNotFound", err)
	}
	if _, err := env.svc.SubscribeProgress("missing"); !errors.Is(err, ErrAnalysisNotFound) {
		t.Errorf("SubscribeProgress() error = %v, want ErrAnalysisNotFound", err)
	}
	if _, err := env.svc.GetAnalytics(context.Background(), "missing"); !errors.Is(err, ErrAnalyticsNotFound) {
		t.Errorf("GetAnalytics() error = %v, want ErrAnalyticsNotFound", err)
	}
}

func TestService_SubscribeAfterCompletion(t *testing.T) {
	env := newTestService(t, nil)

	id, _, err := env.analyze(t, "a.csv", "x\n1\n2\n")
	if err != nil {
		t.Fatalf("WaitForResult() error = %v", err)
	}

	ch, err := env.svc.SubscribeProgress(id)
	if err != nil {
		t.Fatalf("SubscribeProgress() error = %v", err)
	}
	first, ok := <-ch
	if !ok || first.Phase != PhaseComplete {
		t.Errorf("first update = %+v (ok=%v), want complete", first, ok)
	}
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after a finished analysis")
	}
}

func TestService_LookupNotification(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()

	id, _, err := env.analyze(t, "a.csv", "x\n1\n")
	if err != nil {
		t.Fatalf("WaitForResult() error = %v", err)
	}
	if msg, ok := env.svc.LookupNotification(ctx, id); !ok || !msg.Success || msg.Analytics.TotalRows != 1 {
		t.Errorf("LookupNotification(finished) = %+v, %v", msg, ok)
	}

	// Falls back to the cache once the in-memory outcome is gone.
	if err := env.cache.Set(ctx, "cached-only", &profile.AnalysisResult{TotalRows: 4}); err != nil {
		t.Fatalf("cache Set() error = %v", err)
	}
	if msg, ok := env.svc.LookupNotification(ctx, "cached-only"); !ok || msg.Analytics.TotalRows != 4 {
		t.Errorf("LookupNotification(cached) = %+v, %v", msg, ok)
	}

	if _, ok := env.svc.LookupNotification(ctx, "unknown"); ok {
		t.Error("LookupNotification(unknown) should report false")
	}
}

func TestService_ConcurrentAnalyses(t *testing.T) {
	env := newTestService(t, func(c *config.Config) {
		c.Upload.MaxConcurrent = 3
		c.Upload.MaxWaitTime = 5 * time.Second
	})

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := env.analyze(t, "n.csv", "n\n1\n2\n3\n"); err != nil {
				t.Errorf("analysis error = %v", err)
			}
		}()
	}
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := env.svc.WaitForAnalyses(ctx); err != nil {
		t.Errorf("WaitForAnalyses() error = %v", err)
	}
	files, _ := env.svc.ListFiles(context.Background())
	if len(files) != 6 {
		t.Errorf("ListFiles() = %d records, want 6", len(files))
	}
}

func TestStoredFileName(t *testing.T) {
	tests := []struct {
		original string
		want     string
	}{
		{"sales.csv", "id-sales.csv"},
		{"../../etc/passwd", "id-passwd"},
		{`C:\data\sales report.csv`, "id-sales_report.csv"},
		{"", "id-upload.csv"},
		{"..", "id-upload.csv"},
		{"données.csv", "id-donn_es.csv"},
	}
	for _, tt := range tests {
		if got := storedFileName("id", tt.original); got != tt.want {
			t.Errorf("storedFileName(%q) = %q, want %q", tt.original, got, tt.want)
		}
	}
}

func TestAnalysisProgress_Percent(t *testing.T) {
	tests := []struct {
		p    AnalysisProgress
		want int
	}{
		{AnalysisProgress{BytesRead: 50, BytesTotal: 200}, 25},
		{AnalysisProgress{BytesRead: 10}, 0},
		{AnalysisProgress{BytesRead: 300, BytesTotal: 200}, 100},
		{AnalysisProgress{Phase: PhaseComplete}, 100},
	}
	for _, tt := range tests {
		if got := tt.p.Percent(); got != tt.want {
			t.Errorf("Percent(%+v) = %d, want %d", tt.p, got, tt.want)
		}
	}
}

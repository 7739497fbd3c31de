package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JonMunkholm/csvstats/internal/core"
	webmw "github.com/JonMunkholm/csvstats/internal/web/middleware"
	"github.com/go-chi/chi/v5"
)

// uploadField is the multipart field carrying the CSV file.
const uploadField = "dataFile"

// multipartOverhead allows for boundaries and part headers on top of the
// file size limit.
const multipartOverhead = 1 << 20

// handleUpload streams the dataFile part to disk and starts an analysis.
// The body is never buffered in memory.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrNoFile, err), http.StatusBadRequest)
		return
	}

	var (
		fileName string
		body     io.Reader
	)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.respondError(w, r, fmt.Errorf("read upload: %w", err), uploadStatus(err))
			return
		}
		if part.FormName() == uploadField && part.FileName() != "" {
			fileName = filepath.Base(strings.ReplaceAll(part.FileName(), `\`, "/"))
			body = &sizeLimitedReader{r: part, remaining: maxSize}
			break
		}
	}
	if body == nil {
		s.respondError(w, r, core.ErrNoFile, http.StatusBadRequest)
		return
	}

	ctx := core.ContextWithClient(r.Context(), webmw.ClientIP(r), r.UserAgent())
	id, err := s.service.StartAnalysis(ctx, fileName, body)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusServiceUnavailable {
			w.Header().Set("Retry-After", strconv.Itoa(int(s.cfg.Upload.MaxWaitTime.Seconds())))
		}
		s.respondError(w, r, err, status)
		return
	}

	writeJSON(w, http.StatusAccepted, envelope{
		"success": true,
		"message": "File uploaded. Processing has started.",
		"fileId":  id,
	})
}

// uploadStatus treats unexpected multipart read failures as client errors.
func uploadStatus(err error) int {
	if status := statusFor(err); status != http.StatusInternalServerError {
		return status
	}
	return http.StatusBadRequest
}

// sizeLimitedReader fails with core.ErrFileTooLarge once more than
// remaining bytes have been read.
type sizeLimitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *sizeLimitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, core.ErrFileTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, core.ErrFileTooLarge
	}
	return n, err
}

// finalProgress returns the settled progress of a finished analysis. The
// subscriber channel drops updates under load, so the last value received may
// predate the terminal phase.
func (s *Server) finalProgress(fileID string, last core.AnalysisProgress) core.AnalysisProgress {
	progress, err := s.service.Progress(fileID)
	if err != nil {
		return last
	}
	return progress
}

// handleAnalysisProgress streams progress via Server-Sent Events until the
// analysis finishes. Event IDs are the completion percentage, so a client
// reconnecting with lastEventId skips what it has already seen.
func (s *Server) handleAnalysisProgress(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileId")

	lastEventIDStr := r.URL.Query().Get("lastEventId")
	if lastEventIDStr == "" {
		lastEventIDStr = r.Header.Get("Last-Event-ID")
	}
	lastEventID := -1
	if lastEventIDStr != "" {
		if n, err := strconv.Atoi(lastEventIDStr); err == nil {
			lastEventID = n
		}
	}

	progressCh, err := s.service.SubscribeProgress(fileID)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)

	var last core.AnalysisProgress
	for {
		select {
		case progress, ok := <-progressCh:
			if !ok {
				data, _ := json.Marshal(s.finalProgress(fileID, last))
				fmt.Fprintf(w, "event: complete\ndata: %s\n\n", data)
				rc.Flush()
				return
			}
			last = progress

			eventID := progress.Percent()
			if eventID <= lastEventID && !progress.Phase.Terminal() {
				continue
			}
			lastEventID = eventID

			data, _ := json.Marshal(progress)
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", eventID, data)
			if err := rc.Flush(); err != nil {
				requestLogger(r, "dataset_id", fileID).Warn("sse flush failed", "error", err)
				return
			}

		case <-r.Context().Done():
			return
		}
	}
}

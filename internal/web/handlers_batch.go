package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/certbatch/internal/batch"
	"github.com/JonMunkholm/certbatch/internal/core"
	"github.com/JonMunkholm/certbatch/internal/course"
	"github.com/JonMunkholm/certbatch/internal/logging"
	"github.com/JonMunkholm/certbatch/internal/tabular"
)

// multipartOverhead is allowed on top of the file size limit for the
// multipart envelope.
const multipartOverhead = 1 << 20

// UploadResponse is the JSON body of a successful upload.
type UploadResponse struct {
	FileName     string         `json:"fileName"`
	Format       tabular.Format `json:"format"`
	Rows         int            `json:"rows"`
	Accepted     int            `json:"accepted"`
	Dropped      int            `json:"dropped"`
	ErrorCount   int            `json:"errorCount"`
	ErrorPreview []string       `json:"errorPreview"`
	Stats        batch.Stats    `json:"stats"`
}

// CandidatesResponse is the JSON body of the candidate listing.
type CandidatesResponse struct {
	Candidates []batch.Candidate `json:"candidates"`
	Stats      batch.Stats       `json:"stats"`
	Running    bool              `json:"running"`
}

// progressEvent is one SSE progress payload.
type progressEvent struct {
	batch.Progress
	Percent int `json:"percent"`
}

// handleUpload ingests a candidate file from the "file" form field.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.service.Options().MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.respondError(w, r, fmt.Errorf("%w: request exceeds %d bytes", core.ErrFileTooLarge, tooBig.Limit), 0)
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrNoFile, err), 0)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, core.ErrNoFile, 0)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		s.respondError(w, r, fmt.Errorf("read upload: %w", err), http.StatusInternalServerError)
		return
	}

	result, err := s.service.Upload(r.Context(), header.Filename, data)
	if err != nil {
		extra := ErrorResponse{}
		if result != nil {
			extra.ErrorPreview = result.ErrorPreview
		}
		s.respondErrorWith(w, r, err, 0, extra)
		return
	}

	writeJSON(w, UploadResponse{
		FileName:     result.FileName,
		Format:       result.Format,
		Rows:         result.Rows,
		Accepted:     result.Accepted,
		Dropped:      len(result.Dropped),
		ErrorCount:   len(result.Errors),
		ErrorPreview: nonNil(result.ErrorPreview),
		Stats:        s.service.Stats(),
	})
}

// handleListCandidates returns the batch.
func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, CandidatesResponse{
		Candidates: s.service.Candidates(),
		Stats:      s.service.Stats(),
		Running:    s.service.Running(),
	})
}

// handleAddCandidate adds a manual entry sent as JSON or a form.
func (s *Server) handleAddCandidate(w http.ResponseWriter, r *http.Request) {
	var entry core.ManualEntry
	if wantsJSONBody(r) {
		if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&entry); err != nil {
			s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrInvalidEntry, err), http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrInvalidEntry, err), http.StatusBadRequest)
			return
		}
		entry = core.ManualEntry{
			Name:   r.PostFormValue("name"),
			Email:  r.PostFormValue("email"),
			Course: r.PostFormValue("course"),
		}
	}

	if problems := entry.Validate(); len(problems) > 0 {
		s.respondErrorWith(w, r, core.ErrInvalidEntry, http.StatusBadRequest, ErrorResponse{Fields: problems})
		return
	}

	cand, err := s.service.AddManual(r.Context(), entry)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSONStatus(w, http.StatusCreated, cand)
}

// handleClearCandidates empties the batch.
func (s *Server) handleClearCandidates(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Clear(r.Context()); err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, map[string]string{"status": "cleared"})
}

// handleStartBatch starts a certificate run.
func (s *Server) handleStartBatch(w http.ResponseWriter, r *http.Request) {
	runID, err := s.service.StartBatch(r.Context())
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSONStatus(w, http.StatusAccepted, map[string]string{"run_id": runID})
}

// handleCancelBatch stops the run named by the "run" query parameter, or
// the latest run.
func (s *Server) handleCancelBatch(w http.ResponseWriter, r *http.Request) {
	if err := s.service.CancelBatch(r.URL.Query().Get("run")); err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, map[string]string{"status": "cancelling"})
}

// handleBatchStatus returns the state of a run without streaming.
func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.service.RunStatus(r.URL.Query().Get("run"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, st)
}

// handleBatchProgress streams run progress via Server-Sent Events.
// Supports resumption via the Last-Event-ID header or lastEventId query
// parameter; the event ID is the number of certificates generated.
func (s *Server) handleBatchProgress(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run")

	lastEventID := -1
	if v := r.Header.Get("Last-Event-ID"); v != "" {
		lastEventID, _ = strconv.Atoi(v)
	} else if v := r.URL.Query().Get("lastEventId"); v != "" {
		lastEventID, _ = strconv.Atoi(v)
	}

	progressCh, err := s.service.SubscribeProgress(runID)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, r, errors.New("streaming not supported"), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	logger := logging.WithFields(r.Context(), "run_id", runID)

	for {
		select {
		case p, ok := <-progressCh:
			if !ok {
				data := []byte("{}")
				if st, err := s.service.RunStatus(runID); err == nil && st.Summary != nil {
					data, _ = json.Marshal(st.Summary)
				}
				fmt.Fprintf(w, "event: complete\ndata: %s\n\n", data)
				flusher.Flush()
				return
			}

			// Skip events the client already has, but always pass
			// phase changes through
			if p.Phase == batch.PhaseProcessing && p.Generated <= lastEventID {
				continue
			}

			data, err := json.Marshal(progressEvent{Progress: p, Percent: p.Percent()})
			if err != nil {
				logger.Error("encode progress", "error", err)
				continue
			}
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", p.Generated, data)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// handleExportBatch downloads the batch export as JSON.
func (s *Server) handleExportBatch(w http.ResponseWriter, r *http.Request) {
	exp := s.service.ExportBatch(r.Context())
	data, err := exp.JSON()
	if err != nil {
		s.respondError(w, r, fmt.Errorf("encode export: %w", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, batch.ExportFileName(exp.Metadata.BatchID)))
	_, _ = w.Write(data)
}

// handleDownloadCertificate returns one certificate as a PDF.
func (s *Server) handleDownloadCertificate(w http.ResponseWriter, r *http.Request) {
	crs, ok := course.ParseSlug(chi.URLParam(r, "course"))
	if !ok {
		s.respondError(w, r, fmt.Errorf("%w: unknown course %q", core.ErrInvalidEntry, chi.URLParam(r, "course")), http.StatusNotFound)
		return
	}

	name, data, err := s.service.RenderCertificate(r.Context(), chi.URLParam(r, "candidateID"), crs)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func wantsJSONBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

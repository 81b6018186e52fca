package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/algae-foundation/teacher-analytics/internal/analytics"
	"github.com/algae-foundation/teacher-analytics/internal/export"
	"github.com/algae-foundation/teacher-analytics/internal/ingest"
	"github.com/algae-foundation/teacher-analytics/internal/monitoring"
	"github.com/algae-foundation/teacher-analytics/internal/report"
	"github.com/algae-foundation/teacher-analytics/internal/session"
)

// uploadMemoryLimit caps how much of a multipart roster stays in memory.
const uploadMemoryLimit = 16 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := s.auth.Login(req.Password)
	if err != nil {
		if errors.Is(err, session.ErrBadPassword) {
			writeError(w, http.StatusUnauthorized, "wrong password")
			return
		}
		zap.L().Error("login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "login unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// parseFilter reads the shared filter query parameters.
func parseFilter(r *http.Request) analytics.Filter {
	q := r.URL.Query()
	return analytics.Filter{
		Year:       q.Get("year"),
		Semester:   q.Get("semester"),
		State:      q.Get("state"),
		County:     q.Get("county"),
		SchoolType: q.Get("school_type"),
	}
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.cache.Records(r.Context())
	if err != nil {
		zap.L().Error("load records", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "dataset unavailable")
		return
	}

	filtered := analytics.Apply(records, parseFilter(r))
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(filtered),
		"records": filtered,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	records, err := s.cache.Records(r.Context())
	if err != nil {
		zap.L().Error("load records", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "dataset unavailable")
		return
	}

	filtered := analytics.Apply(records, parseFilter(r))
	writeJSON(w, http.StatusOK, map[string]any{
		"summary":              analytics.Summarize(filtered),
		"by_state":             analytics.CountByState(filtered),
		"by_year":              analytics.CountByYear(filtered),
		"by_semester":          analytics.CountBySemester(filtered),
		"top_districts":        analytics.TopN(analytics.CountByDistrict(filtered), 10),
		"free_lunch_histogram": analytics.FreeLunchHistogram(filtered),
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(uploadMemoryLimit); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close() //nolint:errcheck

	res, err := s.pipeline.Ingest(r.Context(), header.Filename, file, nil)
	if err != nil {
		var ufe *ingest.UnsupportedFormatError
		var sme *ingest.SchemaMismatchError
		switch {
		case errors.As(err, &ufe), errors.As(err, &sme):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			zap.L().Error("upload failed", zap.String("file", header.Filename), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "upload failed")
		}
		return
	}

	s.cache.Invalidate()
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	records, err := s.cache.Records(r.Context())
	if err != nil {
		zap.L().Error("load records", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "dataset unavailable")
		return
	}

	filter := parseFilter(r)
	filtered := analytics.Apply(records, filter)
	filteredScope := filter != (analytics.Filter{})

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	filename := export.Filename(format, filteredScope, time.Now())

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		if err := export.WriteCSV(w, filtered); err != nil {
			monitoring.ObserveExport(format, monitoring.ResultError)
			zap.L().Error("csv export failed", zap.Error(err))
			return
		}
	case "xlsx":
		data, err := export.BuildXLSX(filtered)
		if err != nil {
			monitoring.ObserveExport(format, monitoring.ResultError)
			zap.L().Error("xlsx export failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "export failed")
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		w.Write(data) //nolint:errcheck
	default:
		writeError(w, http.StatusBadRequest, "unsupported export format: "+format)
		return
	}
	monitoring.ObserveExport(format, monitoring.ResultSuccess)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	records, err := s.cache.Records(r.Context())
	if err != nil {
		zap.L().Error("load records", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "dataset unavailable")
		return
	}

	filtered := analytics.Apply(records, parseFilter(r))
	data, err := report.BuildSummaryPDF(
		analytics.Summarize(filtered),
		analytics.TopN(analytics.CountByState(filtered), 10),
		time.Now(),
	)
	if err != nil {
		zap.L().Error("report failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "report failed")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="program_summary.pdf"`)
	w.Write(data) //nolint:errcheck
}

package diagnosis

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"agrivoice-ai/internal/auth"
)

// PDFRenderer renders one history record as a downloadable report.
type PDFRenderer interface {
	Render(rec *Record) ([]byte, error)
}

type Handler struct {
	svc Service
	pdf PDFRenderer
}

func NewHandler(svc Service, pdf PDFRenderer) *Handler {
	return &Handler{svc: svc, pdf: pdf}
}

type DiagnoseRequest struct {
	ImageBase64      string `json:"image_base64"`
	Question         string `json:"question"`
	Language         string `json:"language"`
	CropType         string `json:"crop_type,omitempty"`
	SeverityEstimate string `json:"severity_estimate,omitempty"`
	AffectedArea     string `json:"affected_area,omitempty"`
	FarmerExperience string `json:"farmer_experience,omitempty"`
	CurrentSeason    string `json:"current_season,omitempty"`
}

// HandleDiagnose runs the pipeline for a JSON request with a base64 image.
func (h *Handler) HandleDiagnose(w http.ResponseWriter, r *http.Request) {
	var req DiagnoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	image, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid base64 image: "+err.Error())
		return
	}

	resp, err := h.svc.Diagnose(r.Context(), toRequest(req, image))
	if err != nil {
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleDiagnoseAndSave accepts a multipart upload (file, query, language and
// optional crop context), runs the pipeline and appends to the farmer's
// history ledger.
func (h *Handler) HandleDiagnoseAndSave(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	// Crop images from phones; 10MB is plenty.
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing image file")
		return
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read image file")
		return
	}

	req := toRequest(DiagnoseRequest{
		Question:         r.FormValue("query"),
		Language:         r.FormValue("language"),
		CropType:         r.FormValue("crop_type"),
		SeverityEstimate: r.FormValue("severity_estimate"),
		AffectedArea:     r.FormValue("affected_area"),
		FarmerExperience: r.FormValue("farmer_experience"),
		CurrentSeason:    r.FormValue("current_season"),
	}, buf.Bytes())

	resp, rec, err := h.svc.DiagnoseAndSave(r.Context(), userID, req)
	if err != nil {
		writePipelineError(w, err)
		return
	}

	out := map[string]any{
		"status":    "success",
		"diagnosis": resp,
	}
	if rec != nil {
		out["id"] = rec.ID.String()
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleHistoryList(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := h.svc.History(r.Context(), userID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"count":  len(records),
		"data":   records,
	})
}

func (h *Handler) HandleHistoryDetail(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookupRecord(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": rec})
}

func (h *Handler) HandleHistoryDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid diagnosis ID")
		return
	}
	if err := h.svc.DeleteRecord(r.Context(), userID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "diagnosis not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete diagnosis")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("Diagnosis %s deleted", id),
	})
}

func (h *Handler) HandleHistoryStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	stats, err := h.svc.HistoryStats(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": stats})
}

// HandleExportPDF renders one history record as a PDF download.
func (h *Handler) HandleExportPDF(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookupRecord(w, r)
	if !ok {
		return
	}
	data, err := h.pdf.Render(rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "PDF generation failed: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=diagnosis_%s.pdf", rec.ID))
	w.Write(data)
}

func (h *Handler) HandleListCrops(w http.ResponseWriter, r *http.Request) {
	crops := Crops()
	writeJSON(w, http.StatusOK, map[string]any{"crops": crops, "count": len(crops)})
}

func (h *Handler) HandleListSeverityLevels(w http.ResponseWriter, r *http.Request) {
	levels := map[Severity]string{}
	for _, s := range Severities() {
		desc, _ := SeverityInfo(s)
		levels[s] = desc
	}
	writeJSON(w, http.StatusOK, map[string]any{"levels": levels})
}

func (h *Handler) HandleListExperienceLevels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"levels": ExperienceLevels()})
}

func (h *Handler) lookupRecord(w http.ResponseWriter, r *http.Request) (*Record, bool) {
	userID, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid diagnosis ID")
		return nil, false
	}
	rec, err := h.svc.HistoryDetail(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "diagnosis not found")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "failed to load diagnosis")
		return nil, false
	}
	return rec, true
}

func toRequest(req DiagnoseRequest, image []byte) Request {
	return Request{
		Image:            image,
		Question:         req.Question,
		Language:         req.Language,
		CropType:         CropType(req.CropType),
		SeverityEstimate: Severity(req.SeverityEstimate),
		AffectedArea:     req.AffectedArea,
		FarmerExperience: FarmerExperience(req.FarmerExperience),
		Season:           Season(req.CurrentSeason),
	}
}

func writePipelineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, ErrEmptyImage) {
		status = http.StatusBadRequest
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"status": "error", "error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// RegisterRoutes mounts the public diagnosis endpoints on r.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/v2/diagnose", h.HandleDiagnose)
	r.Get("/v2/crops", h.HandleListCrops)
	r.Get("/v2/severity-levels", h.HandleListSeverityLevels)
	r.Get("/v2/experience-levels", h.HandleListExperienceLevels)
}

// RegisterProtectedRoutes mounts the per-user history ledger; callers must
// wrap r with the auth middleware.
func RegisterProtectedRoutes(r chi.Router, h *Handler) {
	r.Post("/history/save", h.HandleDiagnoseAndSave)
	r.Get("/history", h.HandleHistoryList)
	r.Get("/history/stats", h.HandleHistoryStats)
	r.Get("/history/{id}", h.HandleHistoryDetail)
	r.Delete("/history/{id}", h.HandleHistoryDelete)
	r.Get("/history/{id}/pdf", h.HandleExportPDF)
}

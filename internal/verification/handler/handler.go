// Package handler exposes the verification HTTP API: submission and
// extraction for end users, record queries for operators.
package handler

import (
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"veridoc/internal/audit"
	document "veridoc/internal/document/models"
	"veridoc/internal/document/ocr"
	"veridoc/internal/face"
	"veridoc/internal/verification"
	"veridoc/internal/verification/models"
	"veridoc/internal/verification/store"
	dErrors "veridoc/pkg/domain-errors"
	"veridoc/pkg/platform/httputil"
	"veridoc/pkg/requestcontext"
)

// maxUploadBytes bounds the whole multipart form.
const maxUploadBytes = 32 << 20

// Service is the verification flow consumed by this handler.
type Service interface {
	Register(ctx context.Context, in verification.RegisterInput) (models.VerificationRecord, error)
	ExtractIDData(ctx context.Context, imagePath, hintedID, model string) (document.CanonicalFields, error)
	GetRecord(ctx context.Context, id string) (models.VerificationRecord, error)
	ListRecords(ctx context.Context, filter store.ListFilter) ([]models.VerificationRecord, error)
	Stats(ctx context.Context) ([]models.StatsBucket, error)
}

// OCRCatalog lists the registered recognition engines.
type OCRCatalog interface {
	Models(ctx context.Context) []ocr.ModelInfo
}

// FaceCatalog lists the registered face backends.
type FaceCatalog interface {
	Models(ctx context.Context) []face.ModelInfo
}

// AuditReader serves the operator audit view.
type AuditReader interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

// Handler handles verification endpoints.
type Handler struct {
	service     Service
	ocrCatalog  OCRCatalog
	faceCatalog FaceCatalog
	auditReader AuditReader
	uploadDir   string
	logger      *slog.Logger
}

// New creates a verification Handler. The upload directory must exist.
func New(
	service Service,
	ocrCatalog OCRCatalog,
	faceCatalog FaceCatalog,
	auditReader AuditReader,
	uploadDir string,
	logger *slog.Logger,
) *Handler {
	if uploadDir == "" {
		uploadDir = os.TempDir()
	}
	return &Handler{
		service:     service,
		ocrCatalog:  ocrCatalog,
		faceCatalog: faceCatalog,
		auditReader: auditReader,
		uploadDir:   uploadDir,
		logger:      logger,
	}
}

// Register mounts the verification routes. Operator routes are wrapped
// with the admin guard.
func (h *Handler) Register(r chi.Router, adminGuard func(http.Handler) http.Handler) {
	r.Post("/api/register", h.handleRegister)
	r.Post("/api/extract-id-data", h.handleExtractIDData)
	r.Get("/api/models", h.handleModels)
	r.Get("/api/models/ocr", h.handleOCRModels)
	r.Get("/api/models/face", h.handleFaceModels)

	r.Group(func(admin chi.Router) {
		admin.Use(adminGuard)
		admin.Get("/api/verifications", h.handleList)
		admin.Get("/api/verifications/stats", h.handleStats)
		admin.Get("/api/verifications/{id}", h.handleGet)
		admin.Get("/api/audit", h.handleAudit)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid multipart form"))
		return
	}

	idImagePath, cleanupID, err := h.saveUpload(r, "id_image")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	defer cleanupID()

	selfiePath, cleanupSelfie, err := h.saveUpload(r, "selfie")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	defer cleanupSelfie()

	in := verification.RegisterInput{
		Claim: models.Claim{
			FullName:    strings.TrimSpace(r.FormValue("full_name")),
			NationalID:  strings.TrimSpace(r.FormValue("national_id")),
			DateOfBirth: strings.TrimSpace(r.FormValue("date_of_birth")),
			PhoneNumber: strings.TrimSpace(r.FormValue("phone_number")),
			Address:     strings.TrimSpace(r.FormValue("address")),
		},
		IDImagePath: idImagePath,
		SelfiePath:  selfiePath,
		OCRModel:    r.FormValue("ocr_model"),
		FaceModel:   r.FormValue("face_model"),
	}

	record, err := h.service.Register(ctx, in)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeValidation) || dErrors.Is(err, dErrors.CodeBadRequest) {
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "verification submission failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, record)
}

func (h *Handler) handleExtractIDData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid multipart form"))
		return
	}

	imagePath, cleanup, err := h.saveUpload(r, "id_image")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	defer cleanup()

	canonical, err := h.service.ExtractIDData(ctx,
		imagePath,
		strings.TrimSpace(r.FormValue("hinted_id")),
		r.FormValue("ocr_model"),
	)
	if err != nil {
		h.logger.ErrorContext(ctx, "extraction failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, canonical)
}

type modelsResponse struct {
	OCR  []ocr.ModelInfo  `json:"ocr"`
	Face []face.ModelInfo `json:"face"`
}

func (h *Handler) handleModels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	httputil.WriteJSON(w, http.StatusOK, modelsResponse{
		OCR:  h.ocrCatalog.Models(ctx),
		Face: h.faceCatalog.Models(ctx),
	})
}

func (h *Handler) handleOCRModels(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.ocrCatalog.Models(r.Context()))
}

func (h *Handler) handleFaceModels(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.faceCatalog.Models(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := store.ListFilter{Limit: 50}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = models.Status(status)
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 500 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be between 1 and 500"))
			return
		}
		filter.Limit = limit
	}

	records, err := h.service.ListRecords(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "list verifications failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	if records == nil {
		records = []models.VerificationRecord{}
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid verification id"))
		return
	}

	record, err := h.service.GetRecord(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	buckets, err := h.service.Stats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "verification stats failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	if buckets == nil {
		buckets = []models.StatsBucket{}
	}
	httputil.WriteJSON(w, http.StatusOK, buckets)
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.auditReader == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "audit trail not configured"))
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be between 1 and 1000"))
			return
		}
		limit = parsed
	}

	events, err := h.auditReader.ListRecent(ctx, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	h.logger.InfoContext(ctx, "audit trail read",
		"admin", requestcontext.AdminSubject(ctx),
		"limit", limit,
	)
	httputil.WriteJSON(w, http.StatusOK, events)
}

// saveUpload copies one multipart file into the upload directory and
// returns its path plus a cleanup func that removes it.
func (h *Handler) saveUpload(r *http.Request, field string) (string, func(), error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", nil, dErrors.New(dErrors.CodeValidation, field+" file is required")
	}
	defer file.Close()

	path := filepath.Join(h.uploadDir, uuid.NewString()+uploadExt(header))
	dst, err := os.Create(path)
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "store uploaded file")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(path)
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "store uploaded file")
	}
	return path, func() { os.Remove(path) }, nil
}

func uploadExt(header *multipart.FileHeader) string {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".tif", ".tiff", ".bmp":
		return ext
	default:
		return ".img"
	}
}

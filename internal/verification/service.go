package verification

import (
	"context"
	"encoding/hex"
	"log/slog"
	"os"
	"regexp"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"veridoc/internal/audit"
	document "veridoc/internal/document/models"
	"veridoc/internal/face"
	"veridoc/internal/verification/metrics"
	"veridoc/internal/verification/models"
	"veridoc/internal/verification/store"
	dErrors "veridoc/pkg/domain-errors"
	"veridoc/pkg/requestcontext"
)

// Extractor is the document pipeline, implemented by
// pipeline.Pipeline.
type Extractor interface {
	ExtractCanonical(ctx context.Context, imagePath string, opts document.ExtractOptions) (document.CanonicalFields, document.RunSet, error)
}

// FaceComparer is the face fallback chain.
type FaceComparer interface {
	Compare(ctx context.Context, idImagePath, selfiePath, preferred string) (face.Result, string)
}

// RecentRecorder records submissions in the recent-duplicate index.
type RecentRecorder interface {
	Remember(ctx context.Context, idNumber, fullName string) error
}

// Auditor receives audit events without blocking the request path.
type Auditor interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service runs the full verification flow for one submission.
type Service struct {
	extractor        Extractor
	faces            FaceComparer
	duplicates       *DuplicateDetector
	store            store.Store
	recent           RecentRecorder
	auditor          Auditor
	logger           *slog.Logger
	metrics          *metrics.Metrics
	defaultFaceModel string
}

// Option configures optional Service dependencies.
type Option func(*Service)

// WithMetrics attaches verification metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithRecentRecorder records submissions in the recent-duplicate index.
func WithRecentRecorder(r RecentRecorder) Option {
	return func(s *Service) {
		s.recent = r
	}
}

// WithAuditor attaches the audit trail.
func WithAuditor(a Auditor) Option {
	return func(s *Service) {
		s.auditor = a
	}
}

// WithDefaultFaceModel sets the face backend preferred when a submission
// names none.
func WithDefaultFaceModel(model string) Option {
	return func(s *Service) {
		s.defaultFaceModel = model
	}
}

// NewService constructs the verification service.
func NewService(
	extractor Extractor,
	faces FaceComparer,
	duplicates *DuplicateDetector,
	recordStore store.Store,
	logger *slog.Logger,
	opts ...Option,
) (*Service, error) {
	if extractor == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "extractor is required")
	}
	if faces == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "face comparer is required")
	}
	if duplicates == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "duplicate detector is required")
	}
	if recordStore == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "record store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		extractor:  extractor,
		faces:      faces,
		duplicates: duplicates,
		store:      recordStore,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RegisterInput is one complete submission.
type RegisterInput struct {
	Claim       models.Claim
	IDImagePath string
	SelfiePath  string
	OCRModel    string
	FaceModel   string
}

var claimedIDShape = regexp.MustCompile(`^\d{7,12}$`)

func (in RegisterInput) validate() error {
	switch {
	case in.Claim.FullName == "":
		return dErrors.New(dErrors.CodeValidation, "full name is required")
	case in.Claim.NationalID == "":
		return dErrors.New(dErrors.CodeValidation, "national id is required")
	case !claimedIDShape.MatchString(document.NormalizeID(in.Claim.NationalID)):
		return dErrors.New(dErrors.CodeValidation, "national id must be 7 to 12 digits")
	case in.Claim.DateOfBirth == "":
		return dErrors.New(dErrors.CodeValidation, "date of birth is required")
	case in.IDImagePath == "":
		return dErrors.New(dErrors.CodeValidation, "id document image is required")
	case in.SelfiePath == "":
		return dErrors.New(dErrors.CodeValidation, "selfie image is required")
	}
	return nil
}

// Register runs extraction, face comparison, claim validation and the
// decision rules, persists the outcome and returns the record.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.VerificationRecord, error) {
	if err := in.validate(); err != nil {
		return models.VerificationRecord{}, err
	}

	submissionID := uuid.NewString()
	s.emit(ctx, audit.Event{
		SubmissionID:   submissionID,
		Action:         audit.ActionRegister,
		IDNumberMasked: audit.MaskIDNumber(document.NormalizeID(in.Claim.NationalID)),
	})

	canonical, runs, err := s.extractor.ExtractCanonical(ctx, in.IDImagePath, document.ExtractOptions{
		HintedID: in.Claim.NationalID,
		Model:    in.OCRModel,
	})
	if err != nil {
		return models.VerificationRecord{}, err
	}

	preferredFace := in.FaceModel
	if preferredFace == "" {
		preferredFace = s.defaultFaceModel
	}
	faceResult, faceBackend := s.faces.Compare(ctx, in.IDImagePath, in.SelfiePath, preferredFace)
	s.metrics.ObserveFaceSimilarity(faceBackend, faceResult.Similarity)

	match := Match(runs, in.Claim)
	dup := s.duplicates.Check(ctx, in.Claim)
	if dup.SameIDDifferentName {
		s.metrics.IncrementDuplicate("id_number")
		s.emit(ctx, audit.Event{SubmissionID: submissionID, Action: audit.ActionDuplicate, Reason: "id_number"})
	}
	if dup.SamePhoneDifferentName {
		s.metrics.IncrementDuplicate("phone")
		s.emit(ctx, audit.Event{SubmissionID: submissionID, Action: audit.ActionDuplicate, Reason: "phone"})
	}

	decision := Decide(match, faceResult.Similarity, dup)

	record := models.VerificationRecord{
		ID:               submissionID,
		Status:           decision.Status,
		FlaggedReason:    decision.FlaggedReason,
		Claim:            in.Claim,
		Extracted:        canonical,
		MatchedFields:    match.MatchedFields,
		SimilarMatches:   match.SimilarMatches,
		ValidationErrors: match.Errors,
		FaceSimilarity:   faceResult.Similarity,
		FaceBackend:      faceBackend,
		ImageHash:        s.fingerprint(ctx, in.IDImagePath),
		RequestID:        requestcontext.RequestID(ctx),
		ClientIP:         requestcontext.ClientIP(ctx),
		Device:           requestcontext.Device(ctx),
		CreatedAt:        requestcontext.Now(ctx),
	}
	if err := s.store.Save(ctx, record); err != nil {
		return models.VerificationRecord{}, dErrors.Wrap(err, dErrors.CodeInternal, "persist verification record")
	}

	if s.recent != nil {
		if err := s.recent.Remember(ctx, in.Claim.NationalID, in.Claim.FullName); err != nil {
			s.logger.WarnContext(ctx, "recent-submission index update failed", "error", err)
		}
	}

	s.metrics.IncrementDecision(string(decision.Status), string(decision.FlaggedReason))
	s.emit(ctx, audit.Event{
		SubmissionID:   submissionID,
		Action:         audit.ActionDecision,
		Status:         string(decision.Status),
		Reason:         string(decision.FlaggedReason),
		IDNumberMasked: audit.MaskIDNumber(document.NormalizeID(in.Claim.NationalID)),
		FaceBackend:    faceBackend,
	})
	s.logger.InfoContext(ctx, "verification decided",
		"submission_id", submissionID,
		"status", decision.Status,
		"reason", decision.FlaggedReason,
		"face_similarity", faceResult.Similarity,
		"matched_fields", match.MatchedFields,
	)
	return record, nil
}

// fingerprint hashes the submitted document image so resubmissions of
// the same artifact can be traced across records. Best effort: a
// missing file leaves the hash empty.
func (s *Service) fingerprint(ctx context.Context, path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.WarnContext(ctx, "image fingerprint skipped", "error", err)
		return ""
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ExtractIDData runs the document pipeline without deciding anything,
// for the extraction-only endpoint.
func (s *Service) ExtractIDData(ctx context.Context, imagePath, hintedID, model string) (document.CanonicalFields, error) {
	canonical, _, err := s.extractor.ExtractCanonical(ctx, imagePath, document.ExtractOptions{
		HintedID: hintedID,
		Model:    model,
	})
	if err != nil {
		return document.CanonicalFields{}, err
	}
	s.emit(ctx, audit.Event{
		SubmissionID:   uuid.NewString(),
		Action:         audit.ActionExtract,
		IDNumberMasked: audit.MaskIDNumber(canonical.IDNumber),
	})
	return canonical, nil
}

// GetRecord returns one persisted verification.
func (s *Service) GetRecord(ctx context.Context, id string) (models.VerificationRecord, error) {
	return s.store.FindByID(ctx, id)
}

// ListRecords returns persisted verifications for the operator view.
func (s *Service) ListRecords(ctx context.Context, filter store.ListFilter) ([]models.VerificationRecord, error) {
	return s.store.List(ctx, filter)
}

// Stats returns decision counts grouped by status.
func (s *Service) Stats(ctx context.Context) ([]models.StatsBucket, error) {
	return s.store.Stats(ctx)
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	event.ClientIP = requestcontext.ClientIP(ctx)
	event.Device = requestcontext.Device(ctx)
	s.auditor.Emit(ctx, event)
}

package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arunalla/relief-intake-api/internal/dto"
	"github.com/arunalla/relief-intake-api/internal/models"
	appErrors "github.com/arunalla/relief-intake-api/pkg/errors"
	"github.com/arunalla/relief-intake-api/pkg/export"
)

// SystemActor marks timeline entries produced by the service itself rather
// than a staff member.
const SystemActor = "system"

const requestListCachePrefix = "requests:list:"

type requestStore interface {
	Create(ctx context.Context, request *models.SupportRequest) error
	GetByID(ctx context.Context, id string) (*models.SupportRequest, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.SupportRequest, *models.Pagination, error)
	UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error
	UpdateVerification(ctx context.Context, id string, status models.VerificationStatus) error
	UpdatePriority(ctx context.Context, id string, priority models.PriorityLevel) error
	UpdateAdminNotes(ctx context.Context, id string, notes string) error
}

type listCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string)
}

// RequestListResult pairs a page of requests with pagination metadata. It
// is also the cached representation of a dashboard list.
type RequestListResult struct {
	Requests   []models.SupportRequest `json:"requests"`
	Pagination *models.Pagination      `json:"pagination"`
}

// RequestService implements the support request workflow: public intake,
// dashboard listing, and the staff classification updates that feed the
// request timeline.
type RequestService struct {
	requests requestStore
	timeline *TimelineService
	cache    listCache
	metrics  *MetricsService
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger

	referencePrefix string
	cacheEnabled    bool
	cacheTTL        time.Duration
}

// RequestServiceConfig bundles constructor options.
type RequestServiceConfig struct {
	ReferencePrefix string
	CacheEnabled    bool
	CacheTTL        time.Duration
}

// NewRequestService constructs the service. The metrics service may be nil;
// recording then degrades to a no-op.
func NewRequestService(requests requestStore, timeline *TimelineService, cache listCache, metrics *MetricsService, cfg RequestServiceConfig, logger *zap.Logger) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ReferencePrefix == "" {
		cfg.ReferencePrefix = "FLD"
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Second
	}
	return &RequestService{
		requests:        requests,
		timeline:        timeline,
		cache:           cache,
		metrics:         metrics,
		csv:             export.NewCSVExporter(),
		pdf:             export.NewPDFExporter(),
		logger:          logger,
		referencePrefix: cfg.ReferencePrefix,
		cacheEnabled:    cfg.CacheEnabled,
		cacheTTL:        cfg.CacheTTL,
	}
}

// Submit accepts a public intake form, assigns a reference code, and
// records the submission in the timeline.
func (s *RequestService) Submit(ctx context.Context, payload dto.SubmitRequestPayload) (*dto.SubmitRequestResult, error) {
	request := &models.SupportRequest{
		ReferenceCode:      s.newReferenceCode(),
		Name:               strings.TrimSpace(payload.Name),
		BirthYear:          payload.BirthYear,
		District:           payload.District,
		Phone:              payload.Phone,
		Grade:              payload.Grade,
		ExamYear:           payload.ExamYear,
		Subjects:           payload.Subjects,
		FloodImpact:        composeFloodImpact(payload),
		SupportNeeded:      payload.SupportNeeded,
		Status:             models.StatusNew,
		VerificationStatus: models.VerificationUnverified,
		Priority:           models.PriorityMedium,
	}
	if payload.NearestTown != "" {
		request.NearestTown = &payload.NearestTown
	}
	if payload.Email != "" {
		request.Email = &payload.Email
	}

	if err := s.requests.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to save support request")
	}

	// The submission entry follows the same write policy as staff
	// updates: a timeline failure is logged, not surfaced, and the
	// request stays saved.
	err := s.timeline.RecordCreated(ctx, request.ID, SystemActor)
	if err != nil {
		s.logger.Warn("timeline write failed after request creation",
			zap.String("request_id", request.ID), zap.Error(err))
	}
	s.recordTimelineOutcome(models.EventCreated, err)

	s.invalidateLists(ctx)

	return &dto.SubmitRequestResult{ID: request.ID, ReferenceCode: request.ReferenceCode}, nil
}

// Get loads one request.
func (s *RequestService) Get(ctx context.Context, id string) (*models.SupportRequest, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load request")
	}
	return request, nil
}

// List returns the dashboard page for the given query, consulting the
// Redis cache when enabled.
func (s *RequestService) List(ctx context.Context, query dto.RequestQuery) (*RequestListResult, error) {
	filter, err := buildRequestFilter(query)
	if err != nil {
		return nil, err
	}

	key := listCacheKey(filter)
	if s.cacheEnabled {
		var cached RequestListResult
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	requests, pagination, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list requests")
	}

	result := &RequestListResult{Requests: requests, Pagination: pagination}
	if s.cacheEnabled {
		if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
			s.logger.Warn("list cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return result, nil
}

// UpdateStatus moves a request to a new workflow status and records the
// transition. The two writes are deliberately not atomic: the field update
// is authoritative, and a timeline failure is logged at warn without
// rolling the field back.
func (s *RequestService) UpdateStatus(ctx context.Context, id, actor string, status models.RequestStatus) (*models.SupportRequest, error) {
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", status))
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == status {
		return current, nil
	}

	if err := s.requests.UpdateStatus(ctx, id, status); err != nil {
		return nil, s.updateError(err, "status")
	}
	trackErr := s.timeline.TrackStatusChange(ctx, id, actor, current.Status, status)
	if trackErr != nil {
		s.logger.Warn("timeline write failed after status update",
			zap.String("request_id", id), zap.String("actor", actor), zap.Error(trackErr))
	}
	s.recordTimelineOutcome(models.EventStatusChange, trackErr)
	s.invalidateLists(ctx)

	current.Status = status
	return current, nil
}

// UpdateVerification moves a request to a new verification status and
// records the transition. Same write policy as UpdateStatus.
func (s *RequestService) UpdateVerification(ctx context.Context, id, actor string, status models.VerificationStatus) (*models.SupportRequest, error) {
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown verification status %q", status))
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.VerificationStatus == status {
		return current, nil
	}

	if err := s.requests.UpdateVerification(ctx, id, status); err != nil {
		return nil, s.updateError(err, "verification status")
	}
	trackErr := s.timeline.TrackVerificationChange(ctx, id, actor, current.VerificationStatus, status)
	if trackErr != nil {
		s.logger.Warn("timeline write failed after verification update",
			zap.String("request_id", id), zap.String("actor", actor), zap.Error(trackErr))
	}
	s.recordTimelineOutcome(models.EventVerificationChange, trackErr)
	s.invalidateLists(ctx)

	current.VerificationStatus = status
	return current, nil
}

// UpdatePriority moves a request to a new priority and records the
// transition. Same write policy as UpdateStatus.
func (s *RequestService) UpdatePriority(ctx context.Context, id, actor string, priority models.PriorityLevel) (*models.SupportRequest, error) {
	if !priority.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown priority %q", priority))
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Priority == priority {
		return current, nil
	}

	if err := s.requests.UpdatePriority(ctx, id, priority); err != nil {
		return nil, s.updateError(err, "priority")
	}
	trackErr := s.timeline.TrackPriorityChange(ctx, id, actor, current.Priority, priority)
	if trackErr != nil {
		s.logger.Warn("timeline write failed after priority update",
			zap.String("request_id", id), zap.String("actor", actor), zap.Error(trackErr))
	}
	s.recordTimelineOutcome(models.EventPriorityChange, trackErr)
	s.invalidateLists(ctx)

	current.Priority = priority
	return current, nil
}

// UpdateAdminNotes replaces the staff notes and records a note entry with
// the new text.
func (s *RequestService) UpdateAdminNotes(ctx context.Context, id, actor, notes string) (*models.SupportRequest, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.requests.UpdateAdminNotes(ctx, id, notes); err != nil {
		return nil, s.updateError(err, "admin notes")
	}
	if strings.TrimSpace(notes) != "" {
		_, noteErr := s.timeline.AddNote(ctx, id, actor, notes)
		if noteErr != nil {
			s.logger.Warn("timeline write failed after notes update",
				zap.String("request_id", id), zap.String("actor", actor), zap.Error(noteErr))
		}
		s.recordTimelineOutcome(models.EventNote, noteErr)
	}
	s.invalidateLists(ctx)

	current.AdminNotes = &notes
	return current, nil
}

// AddComment appends a staff comment after confirming the request exists.
// Unlike the field-update saga, a failed comment append has no committed
// field write behind it, so the error is surfaced to the caller.
func (s *RequestService) AddComment(ctx context.Context, id, actor, text string) (*models.TimelineEntry, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	entry, err := s.timeline.AddComment(ctx, id, actor, text)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTimelineWrite(string(models.EventComment))
	return entry, nil
}

// Export renders the filtered request list as CSV or PDF.
func (s *RequestService) Export(ctx context.Context, query dto.RequestQuery, format string) ([]byte, string, string, error) {
	query.Page = 1
	query.PageSize = 200
	result, err := s.List(ctx, query)
	if err != nil {
		return nil, "", "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Reference", "Name", "District", "Grade", "Exam Year", "Status", "Verification", "Priority", "Submitted"},
	}
	for _, request := range result.Requests {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Reference":    request.ReferenceCode,
			"Name":         request.Name,
			"District":     request.District,
			"Grade":        request.Grade,
			"Exam Year":    request.ExamYear,
			"Status":       string(request.Status),
			"Verification": string(request.VerificationStatus),
			"Priority":     string(request.Priority),
			"Submitted":    request.CreatedAt.Format("2006-01-02 15:04"),
		})
	}

	stamp := time.Now().UTC().Format("20060102")
	switch format {
	case "csv":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return data, fmt.Sprintf("support-requests-%s.csv", stamp), "text/csv", nil
	case "pdf":
		data, err := s.pdf.Render(dataset, "Support Requests")
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return data, fmt.Sprintf("support-requests-%s.pdf", stamp), "application/pdf", nil
	}
	return nil, "", "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
}

// recordTimelineOutcome instruments the second half of the two-step write:
// the append either landed (counted by event type) or was lost after the
// field write had already been committed.
func (s *RequestService) recordTimelineOutcome(eventType models.TimelineEventType, err error) {
	if err != nil {
		s.metrics.RecordTimelineFailure()
		return
	}
	s.metrics.RecordTimelineWrite(string(eventType))
}

func (s *RequestService) updateError(err error, field string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "request not found")
	}
	return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to update "+field)
}

func (s *RequestService) invalidateLists(ctx context.Context) {
	if s.cacheEnabled {
		s.cache.Invalidate(ctx, requestListCachePrefix+"*")
	}
}

func (s *RequestService) newReferenceCode() string {
	return fmt.Sprintf("%s-%d-%05d", s.referencePrefix, time.Now().UTC().Year(), randomInt(100000))
}

func randomInt(max int64) int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		// crypto/rand failing means the platform is broken; fall back
		// to a time-derived value rather than panic.
		return time.Now().UnixNano() % max
	}
	return n.Int64()
}

func composeFloodImpact(payload dto.SubmitRequestPayload) string {
	sections := []string{
		"Types: " + strings.Join(payload.FloodImpactTypes, ", "),
		"Details: " + strings.TrimSpace(payload.FloodImpactDetail),
	}
	if other := strings.TrimSpace(payload.OtherSituations); other != "" {
		sections = append(sections, "Other: "+other)
	}
	return strings.Join(sections, "\n\n")
}

func buildRequestFilter(query dto.RequestQuery) (models.RequestFilter, error) {
	filter := models.RequestFilter{
		District: query.District,
		Search:   query.Search,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if query.Status != "" {
		status := models.RequestStatus(query.Status)
		if !status.Valid() {
			return filter, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status filter %q", query.Status))
		}
		filter.Status = status
	}
	if query.Verification != "" {
		verification := models.VerificationStatus(query.Verification)
		if !verification.Valid() {
			return filter, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown verification filter %q", query.Verification))
		}
		filter.Verification = verification
	}
	if query.Priority != "" {
		priority := models.PriorityLevel(query.Priority)
		if !priority.Valid() {
			return filter, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown priority filter %q", query.Priority))
		}
		filter.Priority = priority
	}
	return filter, nil
}

func listCacheKey(filter models.RequestFilter) string {
	return fmt.Sprintf("%s%s:%s:%s:%s:%s:%d:%d", requestListCachePrefix,
		filter.District, filter.Status, filter.Verification, filter.Priority,
		filter.Search, filter.Page, filter.PageSize)
}

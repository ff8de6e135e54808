package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"medimate-backend/internal/auth"
	"medimate-backend/internal/database"
	"medimate-backend/internal/messaging"
	"medimate-backend/pkg/api"
)

const defaultPageSize = 50

// HistoryService persists and serves per-user history records: saved
// prescription analyses and medical test results.
type HistoryService struct {
	db        *gorm.DB
	publisher messaging.Publisher
}

func NewHistoryService(db *gorm.DB, publisher messaging.Publisher) *HistoryService {
	return &HistoryService{db: db, publisher: publisher}
}

func (s *HistoryService) AddRoutes(r chi.Router) {
	r.Route("/history", func(r chi.Router) {
		r.Post("/prescription", RestHandler(s.SavePrescription))
		r.Get("/prescription", RestHandler(s.ListPrescriptions))
		r.Post("/medical-test", RestHandler(s.SaveMedicalTest))
		r.Get("/medical-test", RestHandler(s.ListMedicalTests))
		r.Get("/", RestHandler(s.ListAll))
		r.Delete("/{id}", RestHandler(s.Delete))
	})
}

func requireIdentity(r *http.Request) (auth.Identity, error) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || identity.UserId == "" {
		return auth.Identity{}, CodedErrorf(http.StatusUnauthorized, "User authentication required")
	}
	return identity, nil
}

func (s *HistoryService) SavePrescription(r *http.Request) (any, error) {
	return s.saveRecord(r, database.KindPrescription, "Prescription saved successfully")
}

func (s *HistoryService) SaveMedicalTest(r *http.Request) (any, error) {
	return s.saveRecord(r, database.KindMedicalTest, "Medical test saved successfully")
}

func (s *HistoryService) saveRecord(r *http.Request, kind, message string) (any, error) {
	identity, err := requireIdentity(r)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.SaveHistoryRequest](r)
	if err != nil {
		return nil, err
	}

	if req.FileName == "" || req.Results == nil {
		return nil, CodedErrorf(http.StatusBadRequest, "fileName and results are required")
	}

	// A missing medicines/tests array is substituted with an empty one; only
	// the results envelope itself is required.
	payload, err := marshalResults(kind, req.Results)
	if err != nil {
		slog.Error("error encoding results payload", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to save history record")
	}

	ctx := r.Context()

	record := database.HistoryRecord{
		Id:         uuid.New(),
		OwnerId:    identity.UserId,
		Kind:       kind,
		FileName:   req.FileName,
		UploadedAt: time.Now().UTC(),
		Results:    payload,
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		slog.Error("error creating history record", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to save history record")
	}

	// The record is already committed; a lost event must not fail the save.
	if err := s.publisher.PublishHistorySaved(ctx, messaging.HistorySavedPayload{
		RecordId:   record.Id,
		OwnerId:    record.OwnerId,
		Kind:       record.Kind,
		FileName:   record.FileName,
		UploadedAt: record.UploadedAt,
	}); err != nil {
		slog.Error("error publishing history saved event", "record_id", record.Id, "error", err)
	}

	return api.SaveHistoryResponse{
		Success: true,
		Data:    toHistoryItem(record),
		Message: message,
	}, nil
}

func marshalResults(kind string, results *api.HistoryResults) ([]byte, error) {
	switch kind {
	case database.KindPrescription:
		medicines := results.Medicines
		if medicines == nil {
			medicines = []api.Medicine{}
		}
		return json.Marshal(struct {
			Medicines []api.Medicine `json:"medicines"`
		}{medicines})
	default:
		tests := results.Tests
		if tests == nil {
			tests = []api.TestResult{}
		}
		return json.Marshal(struct {
			Tests []api.TestResult `json:"tests"`
		}{tests})
	}
}

type listHistoryParams struct {
	Type   string `schema:"type"`
	Limit  int    `schema:"limit"`
	Offset int    `schema:"offset"`
}

func (s *HistoryService) ListAll(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[listHistoryParams](r)
	if err != nil {
		return nil, err
	}

	// Unknown type values are ignored rather than rejected.
	kind := ""
	if params.Type == database.KindPrescription || params.Type == database.KindMedicalTest {
		kind = params.Type
	}

	return s.list(r, kind, params, "History retrieved successfully")
}

func (s *HistoryService) ListPrescriptions(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[listHistoryParams](r)
	if err != nil {
		return nil, err
	}
	return s.list(r, database.KindPrescription, params, "Prescription history retrieved successfully")
}

func (s *HistoryService) ListMedicalTests(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[listHistoryParams](r)
	if err != nil {
		return nil, err
	}
	return s.list(r, database.KindMedicalTest, params, "Medical test history retrieved successfully")
}

func (s *HistoryService) list(r *http.Request, kind string, params listHistoryParams, message string) (any, error) {
	identity, err := requireIdentity(r)
	if err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	ctx := r.Context()

	query := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&database.HistoryRecord{}).Where("owner_id = ?", identity.UserId)
		if kind != "" {
			q = q.Where("kind = ?", kind)
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		slog.Error("error counting history records", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to retrieve history")
	}

	var records []database.HistoryRecord
	if err := query().
		Order("uploaded_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error; err != nil {
		slog.Error("error listing history records", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to retrieve history")
	}

	items := make([]api.HistoryItem, 0, len(records))
	for _, record := range records {
		items = append(items, toHistoryItem(record))
	}

	return api.ListHistoryResponse{
		Success: true,
		Data:    items,
		Message: message,
		Pagination: api.Pagination{
			Total:   total,
			Limit:   limit,
			Offset:  offset,
			HasMore: total > int64(offset+len(items)),
		},
	}, nil
}

func (s *HistoryService) Delete(r *http.Request) (any, error) {
	identity, err := requireIdentity(r)
	if err != nil {
		return nil, err
	}

	id, err := URLParamUUID(r, "id")
	if err != nil {
		return nil, err
	}

	ctx := r.Context()

	var record database.HistoryRecord
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "History item not found")
		}
		slog.Error("error getting history record", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to retrieve history record")
	}

	if record.OwnerId != identity.UserId {
		return nil, CodedErrorf(http.StatusForbidden, "You can only delete your own history items")
	}

	if err := s.db.WithContext(ctx).Delete(&database.HistoryRecord{}, "id = ?", id).Error; err != nil {
		slog.Error("error deleting history record", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to delete history record")
	}

	if err := s.publisher.PublishHistoryDeleted(ctx, messaging.HistoryDeletedPayload{
		RecordId: record.Id,
		OwnerId:  record.OwnerId,
		Kind:     record.Kind,
	}); err != nil {
		slog.Error("error publishing history deleted event", "record_id", record.Id, "error", err)
	}

	return api.DeleteHistoryResponse{
		Success: true,
		Message: "History item deleted successfully",
	}, nil
}

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"medimate-backend/internal/storage"
	"medimate-backend/pkg/api"
)

var allowedUploadTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

const maxUploadSize = 20 << 20

// AnalyzerService fronts the document analysis engine. Uploaded files are
// archived to the upload bucket before being forwarded for extraction, so
// an analysis can be re-run later from the original document.
type AnalyzerService struct {
	client       *resty.Client
	storage      storage.Provider
	uploadBucket string
}

func NewAnalyzerService(analyzerURL string, store storage.Provider, uploadBucket string) *AnalyzerService {
	return &AnalyzerService{
		client:       resty.New().SetBaseURL(analyzerURL),
		storage:      store,
		uploadBucket: uploadBucket,
	}
}

func (s *AnalyzerService) AddRoutes(r chi.Router) {
	r.Post("/analyze/prescription", RestHandler(s.AnalyzePrescription))
	r.Post("/analyze/medical-test", RestHandler(s.AnalyzeMedicalTest))
	r.Get("/medicines", RestHandler(s.ListMedicines))
	r.Post("/drug-interactions", RestHandler(s.CheckDrugInteractions))
	r.Post("/chat", RestHandler(s.Chat))
}

type upload struct {
	name        string
	contentType string
	data        []byte
}

func (s *AnalyzerService) readUpload(r *http.Request) (upload, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return upload{}, CodedErrorf(http.StatusBadRequest, "No file uploaded")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return upload{}, CodedErrorf(http.StatusBadRequest, "No file uploaded")
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedUploadTypes[contentType] {
		return upload{}, CodedErrorf(http.StatusBadRequest, "Unsupported file format")
	}

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error("error reading uploaded file", "error", err)
		return upload{}, CodedErrorf(http.StatusInternalServerError, "failed to read uploaded file")
	}

	return upload{name: header.Filename, contentType: contentType, data: data}, nil
}

func (s *AnalyzerService) archiveUpload(r *http.Request, ownerId string, u upload) {
	key := fmt.Sprintf("%s/%s_%s", ownerId, uuid.New(), u.name)
	if err := s.storage.PutObject(r.Context(), s.uploadBucket, key, bytes.NewReader(u.data)); err != nil {
		slog.Error("error archiving uploaded file", "key", key, "error", err)
	}
}

func (s *AnalyzerService) AnalyzePrescription(r *http.Request) (any, error) {
	return s.analyze(r, "/extract-prescriptions", func(body []byte) (api.HistoryResults, error) {
		var parsed struct {
			Prescriptions []api.Medicine `json:"prescriptions"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return api.HistoryResults{}, err
		}
		if parsed.Prescriptions == nil {
			parsed.Prescriptions = []api.Medicine{}
		}
		return api.HistoryResults{Medicines: parsed.Prescriptions}, nil
	}, "Prescription analyzed successfully")
}

func (s *AnalyzerService) AnalyzeMedicalTest(r *http.Request) (any, error) {
	return s.analyze(r, "/extract-medical-tests", func(body []byte) (api.HistoryResults, error) {
		var parsed struct {
			MedicalTests []api.TestResult `json:"medical_tests"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return api.HistoryResults{}, err
		}
		if parsed.MedicalTests == nil {
			parsed.MedicalTests = []api.TestResult{}
		}
		return api.HistoryResults{Tests: parsed.MedicalTests}, nil
	}, "Medical test analyzed successfully")
}

func (s *AnalyzerService) analyze(r *http.Request, path string, parse func([]byte) (api.HistoryResults, error), message string) (any, error) {
	identity, err := requireIdentity(r)
	if err != nil {
		return nil, err
	}

	u, err := s.readUpload(r)
	if err != nil {
		return nil, err
	}

	s.archiveUpload(r, identity.UserId, u)

	res, err := s.client.R().
		SetContext(r.Context()).
		SetFileReader("file", u.name, bytes.NewReader(u.data)).
		Post(path)
	if err != nil {
		slog.Error("error calling analysis service", "path", path, "error", err)
		return nil, CodedErrorf(http.StatusBadGateway, "Analysis service is unavailable")
	}
	if res.IsError() {
		return nil, upstreamError(res)
	}

	results, err := parse(res.Body())
	if err != nil {
		slog.Error("error parsing analysis service response", "path", path, "error", err)
		return nil, CodedErrorf(http.StatusBadGateway, "Analysis service returned an invalid response")
	}

	return api.AnalyzeResponse{
		Success: true,
		Data:    api.AnalyzeData{FileName: u.name, Results: results},
		Message: message,
	}, nil
}

func (s *AnalyzerService) ListMedicines(r *http.Request) (any, error) {
	res, err := s.client.R().
		SetContext(r.Context()).
		SetQueryParamsFromValues(r.URL.Query()).
		Get("/medicines")
	if err != nil {
		slog.Error("error calling analysis service", "path", "/medicines", "error", err)
		return nil, CodedErrorf(http.StatusBadGateway, "Analysis service is unavailable")
	}
	if res.IsError() {
		return nil, upstreamError(res)
	}

	return json.RawMessage(res.Body()), nil
}

func (s *AnalyzerService) CheckDrugInteractions(r *http.Request) (any, error) {
	req, err := ParseRequest[api.DrugInteractionRequest](r)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.PrimaryDrug) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "primary_drug is required")
	}

	related := make([]string, 0, len(req.RelatedDrugs))
	for _, drug := range req.RelatedDrugs {
		if strings.TrimSpace(drug) != "" {
			related = append(related, drug)
		}
	}
	if len(related) == 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "At least one valid related_drug is required")
	}
	req.RelatedDrugs = related

	return s.forward(r, "/drug-interactions", req)
}

func (s *AnalyzerService) Chat(r *http.Request) (any, error) {
	req, err := ParseRequest[api.ChatRequest](r)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Message) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "Message is required")
	}

	return s.forward(r, "/chat", req)
}

func (s *AnalyzerService) forward(r *http.Request, path string, body any) (any, error) {
	res, err := s.client.R().
		SetContext(r.Context()).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(path)
	if err != nil {
		slog.Error("error calling analysis service", "path", path, "error", err)
		return nil, CodedErrorf(http.StatusBadGateway, "Analysis service is unavailable")
	}
	if res.IsError() {
		return nil, upstreamError(res)
	}

	return json.RawMessage(res.Body()), nil
}

func upstreamError(res *resty.Response) error {
	var parsed struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(res.Body(), &parsed); err == nil && parsed.Error != "" {
		return CodedErrorf(http.StatusBadGateway, "%s", parsed.Error)
	}
	return CodedErrorf(http.StatusBadGateway, "Analysis service returned an error")
}

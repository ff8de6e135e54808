package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Record kinds. The kind determines which half of Results is populated.
const (
	KindPrescription = "prescription"
	KindMedicalTest  = "medical-test"
)

// Time-of-day values accepted for Medicine.TimeOfDay.
const (
	TimeOfDayMorning   = "morning"
	TimeOfDayAfternoon = "afternoon"
	TimeOfDayEvening   = "evening"
	TimeOfDayNight     = "night"
	TimeOfDayMultiple  = "multiple"
)

type Medicine struct {
	Id              int      `json:"id"`
	Name            string   `json:"name"`
	Confidence      float64  `json:"confidence"`
	PossibleMatches []string `json:"possibleMatches"`
	Dosage          string   `json:"dosage,omitempty"`
	Frequency       string   `json:"frequency,omitempty"`
	Duration        string   `json:"duration,omitempty"`
	Instructions    []string `json:"instructions,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
	Category        string   `json:"category,omitempty"`
	TimeOfDay       string   `json:"timeOfDay,omitempty"`
	WithFood        *bool    `json:"withFood,omitempty"`
	WithWater       *bool    `json:"withWater,omitempty"`
}

type NormalRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type TestResult struct {
	Name           string      `json:"name"`
	Value          float64     `json:"value"`
	Unit           string      `json:"unit"`
	NormalRange    NormalRange `json:"normalRange"`
	Critical       bool        `json:"critical"`
	Trend          string      `json:"trend,omitempty"`
	Percentile     *float64    `json:"percentile,omitempty"`
	LastUpdated    *time.Time  `json:"lastUpdated,omitempty"`
	Category       string      `json:"category,omitempty"`
	Interpretation string      `json:"interpretation,omitempty"`
}

// HistoryResults is the variant payload of a history record. Exactly one of
// Medicines or Tests is present, keyed by the record kind.
type HistoryResults struct {
	Medicines []Medicine   `json:"medicines,omitempty"`
	Tests     []TestResult `json:"tests,omitempty"`
}

type SaveHistoryRequest struct {
	FileName string          `json:"fileName"`
	Results  *HistoryResults `json:"results"`
}

// HistoryItem is the public projection of a stored record. Results carries
// the payload verbatim as persisted so saved data round-trips unchanged.
type HistoryItem struct {
	Id         uuid.UUID       `json:"id"`
	Type       string          `json:"type"`
	FileName   string          `json:"fileName"`
	UploadedAt time.Time       `json:"uploadedAt"`
	Results    json.RawMessage `json:"results"`
}

type Pagination struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"hasMore"`
}

type SaveHistoryResponse struct {
	Success bool        `json:"success"`
	Data    HistoryItem `json:"data"`
	Message string      `json:"message"`
}

type ListHistoryResponse struct {
	Success    bool          `json:"success"`
	Data       []HistoryItem `json:"data"`
	Message    string        `json:"message"`
	Pagination Pagination    `json:"pagination"`
}

type DeleteHistoryResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse is the body for every non-2xx response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AnalyzeResponse wraps the extraction results for an uploaded document.
// The file itself is archived in the upload bucket; FileName is the name the
// client passes back when saving the results to history.
type AnalyzeResponse struct {
	Success bool        `json:"success"`
	Data    AnalyzeData `json:"data"`
	Message string      `json:"message"`
}

type AnalyzeData struct {
	FileName string         `json:"fileName"`
	Results  HistoryResults `json:"results"`
}

type DrugInteractionRequest struct {
	PrimaryDrug  string   `json:"primary_drug"`
	RelatedDrugs []string `json:"related_drugs"`
}

type ChatRequest struct {
	Message     string        `json:"message"`
	ChatHistory []ChatMessage `json:"chat_history,omitempty"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

package api

import (
	"encoding/json"

	"medimate-backend/internal/database"
	"medimate-backend/pkg/api"
)

func toHistoryItem(record database.HistoryRecord) api.HistoryItem {
	return api.HistoryItem{
		Id:         record.Id,
		Type:       record.Kind,
		FileName:   record.FileName,
		UploadedAt: record.UploadedAt,
		Results:    json.RawMessage(record.Results),
	}
}

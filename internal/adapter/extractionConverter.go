package adapter

import (
	"fmt"

	"github.com/akolanti/extractview/internal/api"
	"github.com/akolanti/extractview/internal/domain/extractionModel"
)

func ToHistoryEntry(e extractionModel.Extraction) api.HistoryEntry {
	return api.HistoryEntry{
		Id:          e.Id,
		Status:      int(e.Status),
		StatusText:  e.Status.String(),
		Name:        e.Name(),
		Filename:    e.Filename,
		DisplayName: e.DisplayName,
		UploadDate:  e.UploadDate,
		Size:        e.Size,
		SourceType:  string(e.SourceType),
		SourcePages: e.SourcePages,
		TotalPages:  e.TotalPages,
		TotalImages: e.TotalImages,
		TotalTables: e.TotalTables,
		TotalPdfs:   e.TotalPdfs,
		StartedAt:   e.StartedAt,
		FinishedAt:  e.FinishedAt,
		LastError:   e.LastError,
	}
}

func ToHistoryEntries(entries []extractionModel.Extraction) []api.HistoryEntry {
	out := make([]api.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, ToHistoryEntry(e))
	}
	return out
}

func ToExtractionSummary(e extractionModel.Extraction) api.ExtractionSummary {
	return api.ExtractionSummary{
		Id:          e.Id,
		Name:        e.Name(),
		Created:     e.UploadDate,
		TotalPages:  e.TotalPages,
		TotalImages: e.TotalImages,
		TotalTables: e.TotalTables,
		Status:      int(e.Status),
		StatusText:  e.Status.String(),
	}
}

func ToProcessResponse(id string) api.ProcessResponse {
	return api.ProcessResponse{
		Success:   true,
		Id:        id,
		Status:    extractionModel.StatusProcessing.String(),
		StatusURL: fmt.Sprintf("api/extraction/%s", id),
	}
}

func ToRenderTableResponse(r extractionModel.RenderResult) api.RenderTableResponse {
	return api.RenderTableResponse{
		Success:     true,
		HTML:        r.HTML,
		SheetName:   r.SheetName,
		RowCount:    r.RowCount,
		ColumnCount: r.ColumnCount,
	}
}

func BadRequest(message string) api.Envelope {
	return api.Envelope{Success: false, Error: message}
}

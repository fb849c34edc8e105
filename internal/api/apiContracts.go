package api

import (
	"time"

	"github.com/akolanti/extractview/internal/domain/extractionModel"
	"github.com/akolanti/extractview/internal/sheet"
)

// Envelope is the shape every JSON response shares.
type Envelope struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error,omitempty" example:"extraction not found"`
}

type MessageResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty" example:"file saved"`
}

type HistoryEntry struct {
	Id          string     `json:"id" example:"Annual_Report_1709971200000"`
	Status      int        `json:"status" example:"2"`
	StatusText  string     `json:"statusText" example:"Done"`
	Name        string     `json:"name" example:"Annual Report.pdf"`
	Filename    string     `json:"filename"`
	DisplayName string     `json:"displayName,omitempty"`
	UploadDate  time.Time  `json:"uploadDate"`
	Size        int64      `json:"size"`
	SourceType  string     `json:"sourceType,omitempty" example:"pdf"`
	SourcePages int        `json:"sourcePages,omitempty"`
	TotalPages  int        `json:"totalPages"`
	TotalImages int        `json:"totalImages"`
	TotalTables int        `json:"totalTables"`
	TotalPdfs   int        `json:"totalPdfs"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
	LastError   string     `json:"lastError,omitempty"`
}

type UploadResponse struct {
	Success      bool                        `json:"success" example:"true"`
	Id           string                      `json:"id"`
	ExtractPath  string                      `json:"extractPath"`
	HistoryEntry HistoryEntry                `json:"historyEntry"`
	Data         *extractionModel.ScanResult `json:"data,omitempty"`
}

type HistoryResponse struct {
	Success bool           `json:"success" example:"true"`
	History []HistoryEntry `json:"history"`
}

type ExtractionSummary struct {
	Id          string    `json:"id"`
	Name        string    `json:"name"`
	Created     time.Time `json:"created"`
	TotalPages  int       `json:"totalPages"`
	TotalImages int       `json:"totalImages"`
	TotalTables int       `json:"totalTables"`
	Status      int       `json:"status"`
	StatusText  string    `json:"statusText"`
}

type ExtractionsResponse struct {
	Success     bool                `json:"success" example:"true"`
	Extractions []ExtractionSummary `json:"extractions"`
}

type ExtractionData struct {
	extractionModel.ScanResult
	Groups []extractionModel.MasterGroup `json:"groups"`
	Entry  *HistoryEntry                 `json:"entry,omitempty"`
}

type ExtractionResponse struct {
	Success     bool           `json:"success" example:"true"`
	Data        ExtractionData `json:"data"`
	ExtractPath string         `json:"extractPath"`
}

type ProcessResponse struct {
	Success   bool   `json:"success" example:"true"`
	Id        string `json:"id"`
	Status    string `json:"status" example:"Processing"`
	StatusURL string `json:"statusUrl" example:"api/extraction/Annual_Report_1709971200000"`
}

type RescanResponse struct {
	Success bool                       `json:"success" example:"true"`
	Entry   HistoryEntry               `json:"entry"`
	Data    extractionModel.ScanResult `json:"data"`
}

type RenderTableResponse struct {
	Success     bool   `json:"success" example:"true"`
	HTML        string `json:"html"`
	SheetName   string `json:"sheetName" example:"Sheet1"`
	RowCount    int    `json:"rowCount"`
	ColumnCount int    `json:"columnCount"`
}

type TextContentResponse struct {
	Content string `json:"content"`
}

type SheetsResponse struct {
	Sheets []sheet.SheetData `json:"sheets"`
}

type OneDriveInfo struct {
	RootPath string `json:"rootPath"`
	Enabled  bool   `json:"enabled"`
}

type ConfigResponse struct {
	OneDrive OneDriveInfo `json:"oneDrive"`
}

type LinkResponse struct {
	Success bool   `json:"success" example:"true"`
	URL     string `json:"url" example:"https://onedrive.live.com/edit/..."`
}

// requests---------------------

type SaveTextRequest struct {
	ExtractId string  `json:"extractId" validate:"required"`
	FilePath  string  `json:"filePath" validate:"required"`
	Content   *string `json:"content" validate:"required"`
}

type SaveGroupsRequest struct {
	ExtractPath string                        `json:"extractPath" validate:"required"`
	Groups      []extractionModel.MasterGroup `json:"groups" validate:"required"`
}

type SaveTagsRequest struct {
	Tags []extractionModel.Tag `json:"tags" validate:"required"`
}

type DeleteFileRequest struct {
	ExtractId string `json:"extractId" validate:"required"`
	FilePath  string `json:"filePath" validate:"required"`
}

type DeleteFolderRequest struct {
	ExtractId  string `json:"extractId" validate:"required"`
	FolderName string `json:"folderName" validate:"required"`
}

type OpenOneDriveRequest struct {
	ExtractId string `json:"extractId" validate:"required"`
	FilePath  string `json:"filePath" validate:"required,endswith=.xlsx"`
}

package extractionModel

import (
	"context"
	"time"
)

type Status int

const (
	StatusUnprocessed Status = 0
	StatusProcessing  Status = 1
	StatusDone        Status = 2
	StatusError       Status = 3
)

func (s Status) String() string {
	switch s {
	case StatusUnprocessed:
		return "Unprocessed"
	case StatusProcessing:
		return "Processing"
	case StatusDone:
		return "Done"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// CanTrigger reports whether a run may start from this state.
func (s Status) CanTrigger() bool {
	return s == StatusUnprocessed || s == StatusError
}

type SourceType string

const (
	SourcePDF SourceType = "pdf"
	SourceZIP SourceType = "zip"
)

// Extraction is one history record, persisted in history.json.
type Extraction struct {
	Id          string     `json:"id"`
	Status      Status     `json:"status"`
	Filename    string     `json:"filename"`
	DisplayName string     `json:"displayName,omitempty"`
	UploadDate  time.Time  `json:"uploadDate"`
	Size        int64      `json:"size"`
	SourceType  SourceType `json:"sourceType,omitempty"`
	SourcePages int        `json:"sourcePages,omitempty"`

	TotalPages  int `json:"totalPages"`
	TotalImages int `json:"totalImages"`
	TotalTables int `json:"totalTables"`
	TotalPdfs   int `json:"totalPdfs"`

	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	LastError  string     `json:"lastError,omitempty"`
}

// Name is what users see: the original upload name once the file was renamed.
func (e Extraction) Name() string {
	if e.DisplayName != "" {
		return e.DisplayName
	}
	return e.Filename
}

func (e *Extraction) ApplyCounters(r ScanResult) {
	e.TotalPages = r.TotalPages
	e.TotalImages = r.TotalImages
	e.TotalTables = r.TotalTables
	e.TotalPdfs = r.TotalPdfs
}

type FileRef struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

type PageStats struct {
	Images     int `json:"images"`
	Tables     int `json:"tables"`
	TextLength int `json:"textLength"`
}

// Page is derived from the folder tree on every read and never persisted.
type Page struct {
	PageNumber int       `json:"pageNumber"`
	Images     []FileRef `json:"images"`
	Tables     []FileRef `json:"tables"`
	Text       string    `json:"text"`
	TextFile   *FileRef  `json:"textFile,omitempty"`
	PdfFile    *FileRef  `json:"pdfFile"`
	Stats      PageStats `json:"stats"`
}

type ScanResult struct {
	Pages       []Page   `json:"pages"`
	TotalPages  int      `json:"totalPages"`
	TotalImages int      `json:"totalImages"`
	TotalTables int      `json:"totalTables"`
	TotalPdfs   int      `json:"totalPdfs"`
	PdfFiles    []string `json:"pdfFiles"`
}

type ItemType string

const (
	ItemText  ItemType = "text"
	ItemImage ItemType = "image"
	ItemTable ItemType = "table"
)

func (t ItemType) Valid() bool {
	return t == ItemText || t == ItemImage || t == ItemTable
}

type ItemRef struct {
	Id      string   `json:"id"`
	Type    ItemType `json:"type"`
	Content string   `json:"content,omitempty"`
	Path    string   `json:"path,omitempty"`
	Page    int      `json:"page"`
}

type SubGroup struct {
	Tag   string    `json:"tag"`
	Items []ItemRef `json:"items"`
}

type MasterGroup struct {
	Name      string     `json:"name"`
	Page      int        `json:"page"`
	SubGroups []SubGroup `json:"subGroups"`
}

type Tag struct {
	Id    string `json:"id"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// LockPayload is the content of lock.txt. Only the file's presence is the lock;
// the heartbeat lets the scheduler spot runs abandoned by a crashed process.
type LockPayload struct {
	RunId       string    `json:"runId"`
	Pid         int       `json:"pid"`
	StartedAt   time.Time `json:"startedAt"`
	HeartbeatAt time.Time `json:"heartbeatAt"`
}

type RenderResult struct {
	HTML        string `json:"html"`
	SheetName   string `json:"sheetName"`
	RowCount    int    `json:"rowCount"`
	ColumnCount int    `json:"columnCount"`
}

type HistoryStore interface {
	List(ctx context.Context) ([]Extraction, error)
	Get(ctx context.Context, id string) (Extraction, error)
	Add(ctx context.Context, entry Extraction) error
	Update(ctx context.Context, id string, mutate func(*Extraction) error) (Extraction, error)
	Remove(ctx context.Context, id string) error
}

type RenderCache interface {
	Get(ctx context.Context, key string) (RenderResult, bool, error)
	Put(ctx context.Context, key string, result RenderResult) error
}

package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/akolanti/extractview/internal/adapter"
	"github.com/akolanti/extractview/internal/adapter/utils"
	"github.com/akolanti/extractview/internal/api"
	"github.com/akolanti/extractview/internal/cloud/onedrive"
	"github.com/akolanti/extractview/internal/config"
	"github.com/akolanti/extractview/internal/data/store"
	"github.com/akolanti/extractview/internal/domain/extractionModel"
	"github.com/akolanti/extractview/internal/fsutil"
	"github.com/akolanti/extractview/internal/job"
	"github.com/akolanti/extractview/internal/scanner"
	"github.com/akolanti/extractview/internal/sheet"
	"github.com/akolanti/extractview/internal/upload"
	"github.com/akolanti/extractview/pkg/logger_i"
	"github.com/go-playground/validator/v10"
)

// Dependencies are the services the HTTP layer drives. OneDrive may be nil.
type Dependencies struct {
	Config      config.Config
	History     extractionModel.HistoryStore
	Jobs        *job.Service
	Uploads     *upload.Service
	Tables      *sheet.Service
	Scanner     *scanner.Scanner
	Annotations *store.AnnotationStore
	OneDrive    onedrive.Uploader
}

type Handler struct {
	deps     Dependencies
	validate *validator.Validate
}

func New(deps Dependencies) *Handler {
	if deps.Scanner == nil {
		deps.Scanner = scanner.New()
	}
	return &Handler{
		deps:     deps,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func requestLogger(r *http.Request) *logger_i.Logger {
	return logger_i.FromContext(r.Context(), "RequestHandler")
}

// extractPath is the public location of an extraction, matching the static
// /uploads mount.
func extractPath(id string) string {
	return "/uploads/" + id
}

// resolveExtractPath accepts either a bare id or an extractPath as returned
// by extractPath and gives back the id and folder.
func (h *Handler) resolveExtractPath(p string) (string, string, error) {
	p = strings.Trim(fsutil.ToSlash(p), "/")
	p = strings.TrimPrefix(p, "uploads/")
	dir, err := fsutil.ExtractionDir(h.deps.Config.UploadsDir, p)
	if err != nil {
		return "", "", err
	}
	return p, dir, nil
}

func (h *Handler) existingExtraction(id string) (string, error) {
	dir, err := fsutil.ExtractionDir(h.deps.Config.UploadsDir, id)
	if err != nil {
		return "", err
	}
	if !fsutil.IsDir(dir) {
		return "", fmt.Errorf("extraction %s: %w", id, extractionModel.ErrNotFound)
	}
	return dir, nil
}

// Upload godoc
// @Summary      Upload a PDF or a pre-extracted ZIP
// @Description  A PDF becomes an Unprocessed extraction waiting for the tool. A ZIP is expanded and recorded as Done.
// @Tags         Extractions
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "The .pdf or .zip (the field may also be named zipFile)"
// @Success      201  {object}  api.UploadResponse
// @Failure      400  {object}  api.Envelope  "Missing file, wrong type or too large"
// @Failure      500  {object}  api.Envelope
// @Router       /api/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	r.Body = http.MaxBytesReader(w, r.Body, h.deps.Config.MaxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("File too large (limit %d bytes)", tooLarge.Limit))
			return
		}
		WriteErrorResponse(w, http.StatusBadRequest, "Expected a multipart upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(config.UploadFormFile)
	if errors.Is(err, http.ErrMissingFile) {
		file, header, err = r.FormFile("zipFile")
	}
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	result, err := h.deps.Uploads.Ingest(r.Context(), header.Filename, file)
	if err != nil {
		writeDomainError(w, log, err)
		return
	}
	writeJsonResponse(w, http.StatusCreated, api.UploadResponse{
		Success:      true,
		Id:           result.Entry.Id,
		ExtractPath:  extractPath(result.Entry.Id),
		HistoryEntry: adapter.ToHistoryEntry(result.Entry),
		Data:         result.Scan,
	})
}

// History godoc
// @Summary      Raw upload history
// @Tags         Extractions
// @Produce      json
// @Success      200  {object}  api.HistoryResponse
// @Router       /api/history [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.deps.History.List(r.Context())
	if err != nil {
		writeDomainError(w, requestLogger(r), err)
		return
	}
	writeJsonResponse(w, http.StatusOK, api.HistoryResponse{Success: true, History: adapter.ToHistoryEntries(entries)})
}

// Extractions godoc
// @Summary      List extractions
// @Description  History entries whose folder still exists, plus extraction-looking folders that were never recorded. Newest first.
// @Tags         Extractions
// @Produce      json
// @Success      200  {object}  api.ExtractionsResponse
// @Router       /api/extractions [get]
func (h *Handler) Extractions(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.listExtractions(r.Context())
	if err != nil {
		writeDomainError(w, requestLogger(r), err)
		return
	}
	writeJsonResponse(w, http.StatusOK, api.ExtractionsResponse{Success: true, Extractions: summaries})
}

func (h *Handler) listExtractions(ctx context.Context) ([]api.ExtractionSummary, error) {
	entries, err := h.deps.History.List(ctx)
	if err != nil {
		return nil, err
	}
	uploadsDir := h.deps.Config.UploadsDir
	known := make(map[string]bool, len(entries))
	summaries := make([]api.ExtractionSummary, 0, len(entries))
	for _, e := range entries {
		known[e.Id] = true
		if dir, err := fsutil.ExtractionDir(uploadsDir, e.Id); err != nil || !fsutil.IsDir(dir) {
			continue
		}
		summaries = append(summaries, adapter.ToExtractionSummary(e))
	}

	dirEntries, err := os.ReadDir(uploadsDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	var unregistered []string
	for _, d := range dirEntries {
		if d.IsDir() && !known[d.Name()] && scanner.IsExtractionFolder(d.Name()) {
			unregistered = append(unregistered, d.Name())
		}
	}
	if len(unregistered) > 0 {
		scans, err := h.deps.Scanner.ScanAll(ctx, uploadsDir, unregistered)
		if err != nil {
			return nil, err
		}
		for _, s := range scans {
			summaries = append(summaries, api.ExtractionSummary{
				Id:          s.Id,
				Name:        s.Id,
				Created:     s.Created,
				TotalPages:  s.Result.TotalPages,
				TotalImages: s.Result.TotalImages,
				TotalTables: s.Result.TotalTables,
				Status:      int(extractionModel.StatusDone),
				StatusText:  extractionModel.StatusDone.String(),
			})
		}
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Created.After(summaries[j].Created)
	})
	return summaries, nil
}

// GetExtraction godoc
// @Summary      Pages, groups and history entry of one extraction
// @Description  The page model is rebuilt from the folder on every call.
// @Tags         Extractions
// @Produce      json
// @Param        id   path      string  true  "Extraction id"
// @Success      200  {object}  api.ExtractionResponse
// @Failure      404  {object}  api.Envelope
// @Router       /api/extraction/{id} [get]
func (h *Handler) GetExtraction(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	id := utils.GetChiURLParam(r, "id")
	dir, err := h.existingExtraction(id)
	if err != nil {
		writeDomainError(w, log, err)
		return
	}
	scan, err := h.deps.Scanner.Scan(dir)
	if err != nil {
		writeDomainError(w, log, err)
		return
	}
	groups, err := h.deps.Annotations.LoadGroups(dir)
	if err != nil {
		log.Warn("unreadable groups file", "extractionId", id, "err", err)
	}

	data := api.ExtractionData{ScanResult: scan, Groups: groups}
	if entry, err := h.deps.History.Get(r.Context(), id); err == nil {
		historyEntry := adapter.ToHistoryEntry(entry)
		data.Entry = &historyEntry
	} else if !errors.Is(err, extractionModel.ErrNotFound) {
		log.Warn("history lookup failed", "extractionId", id, "err", err)
	}
	writeJsonResponse(w, http.StatusOK, api.ExtractionResponse{Success: true, Data: data, ExtractPath: extractPath(id)})
}

// DeleteExtraction godoc
// @Summary      Delete an extraction
// @Description  Removes the folder and the history entry. Refused while the tool is running on it.
// @Tags         Extractions
// @Produce      json
// @Param        id   path      string  true  "Extraction id"
// @Success      200  {object}  api.MessageResponse
// @Failure      403  {object}  api.Envelope
// @Failure      409  {object}  api.Envelope
// @Router       /api/extraction/{id} [delete]
func (h *Handler) DeleteExtraction(w http.ResponseWriter, r *http.Request) {
	id := utils.GetChiURLParam(r, "id")
	if h.deps.Jobs.IsRunning(id) {
		WriteErrorResponse(w, http.StatusConflict, "Extraction is processing")
		return
	}
	if err := h.deps.Uploads.Delete(r.Context(), id); err != nil {
		writeDomainError(w, requestLogger(r), err)
		return
	}
	writeJsonResponse(w, http.StatusOK, api.MessageResponse{Success: true, Message: "Extraction deleted"})
}

// Process godoc
// @Summary      Start the extraction tool
// @Description  Returns as soon as the tool is running. Poll the extraction for the outcome.
// @Tags         Processing
// @Produce      json
// @Param        id   path      string  true  "Extraction id"
// @Success      202  {object}  api.ProcessResponse
// @Failure      404  {object}  api.Envelope  "Unknown id or no document to process"
// @Failure      409  {object}  api.Envelope  "Already processing or already done"
// @Failure      502  {object}  api.Envelope  "The tool could not be started"
// @Router       /api/process/{id} [post]
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	id := utils.GetChiURLParam(r, "id")
	if _, err := h.deps.Jobs.Trigger(r.Context(), id); err != nil {
		writeDomainError(w, requestLogger(r), err)
		return
	}
	writeJsonResponse(w, http.StatusAccepted, adapter.ToProcessResponse(id))
}

// Rescan godoc
// @Summary      Recount pages, images and tables
// @Tags         Processing
// @Produce      json
// @Param        id   path      string  true  "Extraction id"
// @Success      200  {object}  api.RescanResponse
// @Failure      404  {object}  api.Envelope
// @Router       /api/rescan/{id} [post]
func (h *Handler) Rescan(w http.ResponseWriter, r *http.Request) {
	id := utils.GetChiURLParam(r, "id")
	entry, scan, err := h.deps.Jobs.Rescan(r.Context(), id)
	if err != nil {
		writeDomainError(w, requestLogger(r), err)
		return
	}
	writeJsonResponse(w, http.StatusOK, api.RescanResponse{Success: true, Entry: adapter.ToHistoryEntry(entry), Data: scan})
}

// pathParam returns the wildcard tail of the route. It is not cleaned, so
// traversal attempts reach SafeJoin and are rejected there.
func pathParam(r *http.Request) string {
	return utils.GetChiURLParam(r, "*")
}

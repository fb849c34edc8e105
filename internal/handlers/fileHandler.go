package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/extractview/internal/adapter"
	"github.com/akolanti/extractview/internal/adapter/utils"
	"github.com/akolanti/extractview/internal/api"
	"github.com/akolanti/extractview/internal/archive"
	"github.com/akolanti/extractview/internal/config"
	"github.com/akolanti/extractview/internal/domain/extractionModel"
	"github.com/akolanti/extractview/internal/fsutil"
	"github.com/akolanti/extractview/internal/scanner"
	"github.com/akolanti/extractview/internal/sheet"
	"github.com/akolanti/extractview/internal/upload"
)

// fileInExtraction resolves rel inside extraction id. The extraction must
// exist; the target may not.
func (h *Handler) fileInExtraction(id, rel string) (dir, target string, err error) {
	dir, err = h.existingExtraction(id)
	if err != nil {
		return "", "", err
	}
	target, err = fsutil.SafeJoin(dir, rel)
	if err != nil {
		return "", "", err
	}
	return dir, target, nil
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, extractionModel.ErrNotFound)
}

// RenderTable godoc
// @Summary      Render a spreadsheet as styled HTML
// @Description  Image placeholders in cells point at the page's images folder. Results are cached by path and modification time.
// @Tags         Files
// @Produce      json
// @Param        id    path      string  true  "Extraction id"
// @Param        path  path      string  true  "Table path inside the extraction, e.g. 2/tables/T1.xlsx"
// @Success      200  {object}  api.RenderTableResponse
// @Failure      403  {object}  api.Envelope
// @Failure      404  {object}  api.Envelope
// @Router       /api/render-table/{id}/{path} [get]
func (h *Handler) RenderTable(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	id := utils.GetChiURLParam(r, "id")
	rel := pathParam(r)
	_, target, err := h.fileInExtraction(id, rel)
	if err != nil {
		writeDomainError(w, log, err)
		return
	}
	result, err := h.deps.Tables.Render(r.Context(), target, sheet.RenderOptions{
		ExtractId:    id,
		RelativeBase: sheet.RelativeBase(rel),
	})
	if err != nil {
		writeDomainError(w, log, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToRenderTableResponse(result))
}

// GetFile godoc
// @Summary      Read a file of an extraction
// @Description  .txt files come back as {content}, .xlsx workbooks as {sheets}. Anything else is streamed as is.
// @Tags         Files
// @Produce      json
// @Param        id    path      string  true  "Extraction id"
// @Param        path  path      string  true  "File path inside the extraction"
// @Success      200  {object}  api.TextContentResponse
// @Failure      403  {object}  api.Envelope
// @Failure      404  {object}  api.Envelope
// @Router       /api/file/{id}/{path} [get]
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	id := utils.GetChiURLParam(r, "id")
	rel := pathParam(r)
	_, target, err := h.fileInExtraction(id, rel)
	if err != nil {
		writeDomainError(w, log, err)
		return
	}
	info, err := os.Stat(target)
	if err != nil || info.IsDir() {
		writeDomainError(w, log, notFound("file "+rel))
		return
	}

	switch strings.ToLower(filepath.Ext(target)) {
	case ".txt":
		data, err := os.ReadFile(target)
		if err != nil {
			writeDomainError(w, log, err)
			return
		}
		writeJsonResponse(w, http.StatusOK, api.TextContentResponse{Content: scanner.DecodeText(data, log)})
	case ".xlsx":
		sheets, err := sheet.ReadSheets(target)
		if err != nil {
			writeDomainError(w, log, err)
			return
		}
		writeJsonResponse(w, http.StatusOK, api.SheetsResponse{Sheets: sheets})
	default:
		f, err := os.Open(target)
		if err != nil {
			writeDomainError(w, log, err)
			return
		}
		defer f.Close()
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	}
}

// SaveText godoc
// @Summary      Overwrite a text file
// @Description  Only existing files can be saved. The content is written as UTF-8.
// @Tags         Files
// @Accept       json
// @Produce      json
// @Param        request  body      api.SaveTextRequest  true  "Extraction id, file path and new content"
// @Success      200  {object}  api.MessageResponse
// @Failure      400  {object}  api.Envelope
// @Failure      403  {object}  api.Envelope
// @Failure      404  {object}  api.Envelope
// @Router       /api/save-text [post]
func (h *Handler) SaveText(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	var req api.SaveTextRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeDomainError(w, log, err)
		return
	}
	_, target, err := h.fileInExtraction(req.ExtractId, req.FilePath)
	if err != nil {
		writeDomainError(w, log, err)
		return
	}
	info, err := os.Stat(target)
	if err != nil || info.IsDir() {
		writeDomainError(w, log, notFound("file "+req.FilePath))
		return
	}
	if err := os.WriteFile(target, []byte(*req.Content), info.Mode().Perm()); err != nil {
		writeDomainError(w, log, err)
		return
	}
	log.Info("text saved", "extractionId", req.ExtractId, "file", req.FilePath)
	writeJsonResponse(w, http.StatusOK, api.MessageResponse{Success: true, Message: "File saved"})
}

// OverwriteFile godoc
// @Summary      Replace a file, or expand a ZIP next to it
// @Description  An uploaded .zip is never stored as a file: it is expanded into the folder of relativePath.
// @Tags         Files
// @Accept       multipart/form-data
// @Produce      json
// @Param        extractPath   formData  string  true  "Extraction id or /uploads/{id}"
// @Param        relativePath  formData  string  true  "Target path inside the extraction"
// @Param        file          formData  file    true  "Replacement file or archive"
// @Success      200  {object}  api.MessageResponse
// @Failure      400  {object}  api.Envelope
// @Failure      403  {object}  api.Envelope
// @Failure      404  {object}  api.Envelope
// @Router       /api/overwrite-file [post]
func (h *Handler) OverwriteFile(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	r.Body = http.MaxBytesReader(w, r.Body, h.deps.Config.MaxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Expected a multipart upload within the size limit")
		return
	}
	defer r.MultipartForm.RemoveAll()

	extract := r.FormValue("extractPath")
	relativePath := r.FormValue("relativePath")
	if extract == "" || relativePath == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "extractPath and relativePath are required")
		return
	}
	file, header, err := r.FormFile(config.UploadFormFile)
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	id, _, err := h.resolveExtractPath(extract)
	if err != nil {
		writeDomainError(w, log, err)
		return
	}
	kind, err := h.deps.Uploads.Overwrite(r.Context(), id, relativePath, header.Filename, file)
	if err != nil {
		writeDomainError(w, log, err)
		return
	}
	message := "File replaced"
	if kind == upload.ArchiveExpand {
		message = "Archive expanded"
	}
	writeJsonResponse(w, http.StatusOK, api.MessageResponse{Success: true, Message: message})
}

// DeleteFile godoc
// @Summary      Delete a file of an extraction
// @Tags         Files
// @Accept       json
// @Produce      json
// @Param        request  body      api.DeleteFileRequest  true  "Extraction id and file path"
// @Success      200  {object}  api.MessageResponse
// @Failure      400  {object}  api.Envelope
// @Failure      403  {object}  api.Envelope
// @Failure      404  {object}  api.Envelope
// @Router       /api/delete-file [post]
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	var req api.DeleteFileRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeDomainError(w, log, err)
		return
	}
	_, target, err := h.fileInExtraction(req.ExtractId, req.FilePath)
	if err != nil {
		writeDomainError(w, log, err)
		return
	}
	info, err := os.Stat(target)
	if err != nil {
		writeDomainError(w, log, notFound("file "+req.FilePath))
		return
	}
	if info.IsDir() {
		WriteErrorResponse(w, http.StatusBadRequest, "Path is a folder")
		return
	}
	if err := os.Remove(target); err != nil {
		writeDomainError(w, log, err)
		return
	}
	log.Info("file deleted", "extractionId", req.ExtractId, "file", req.FilePath)
	writeJsonResponse(w, http.StatusOK, api.MessageResponse{Success: true, Message: "File deleted"})
}

// DeleteFolder godoc
// @Summary      Delete a folder of an extraction
// @Description  The extraction root itself cannot be deleted here; use DELETE /api/extraction/{id}.
// @Tags         Files
// @Accept       json
// @Produce      json
// @Param        request  body      api.DeleteFolderRequest  true  "Extraction id and folder"
// @Success      200  {object}  api.MessageResponse
// @Failure      400  {object}  api.Envelope
// @Failure      403  {object}  api.Envelope
// @Failure      404  {object}  api.Envelope
// @Router       /api/delete-folder [post]
func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	var req api.DeleteFolderRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeDomainError(w, log, err)
		return
	}
	dir, target, err := h.fileInExtraction(req.ExtractId, req.FolderName)
	if err != nil {
		writeDomainError(w, log, err)
		return
	}
	if target == dir {
		WriteErrorResponse(w, http.StatusBadRequest, "Refusing to delete the extraction root")
		return
	}
	if !fsutil.IsDir(target) {
		writeDomainError(w, log, notFound("folder "+req.FolderName))
		return
	}
	if err := os.RemoveAll(target); err != nil {
		writeDomainError(w, log, err)
		return
	}
	log.Info("folder deleted", "extractionId", req.ExtractId, "folder", req.FolderName)
	writeJsonResponse(w, http.StatusOK, api.MessageResponse{Success: true, Message: "Folder deleted"})
}

// DownloadFolder godoc
// @Summary      Download a folder as a ZIP
// @Description  Without folderName the whole extraction is zipped.
// @Tags         Files
// @Produce      application/zip
// @Param        extractPath  query  string  true   "Extraction id or /uploads/{id}"
// @Param        folderName   query  string  false  "Folder inside the extraction"
// @Success      200
// @Failure      400  {object}  api.Envelope
// @Failure      403  {object}  api.Envelope
// @Failure      404  {object}  api.Envelope
// @Router       /api/download-folder [get]
func (h *Handler) DownloadFolder(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	extract := r.URL.Query().Get("extractPath")
	folderName := r.URL.Query().Get("folderName")
	if extract == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "extractPath is required")
		return
	}
	id, _, err := h.resolveExtractPath(extract)
	if err != nil {
		writeDomainError(w, log, err)
		return
	}
	dir, target, err := h.fileInExtraction(id, folderName)
	if err != nil {
		writeDomainError(w, log, err)
		return
	}
	if !fsutil.IsDir(target) {
		writeDomainError(w, log, notFound("folder "+folderName))
		return
	}

	name := filepath.Base(target)
	if target == dir {
		name = id
	}
	filename := fmt.Sprintf("%s_%d.zip", name, time.Now().UnixMilli())
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := archive.WriteDir(w, target); err != nil {
		// headers are gone; the client sees a truncated archive
		if r.Context().Err() == nil {
			log.Error("zipping folder failed", "extractionId", id, "folder", folderName, "err", err)
		}
	}
}

package handlers

import (
	"net/http"

	"github.com/akolanti/extractview/internal/api"
)

// Config godoc
// @Summary      Client configuration
// @Tags         Cloud
// @Produce      json
// @Success      200  {object}  api.ConfigResponse
// @Router       /api/config [get]
func (h *Handler) Config(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, api.ConfigResponse{
		OneDrive: api.OneDriveInfo{
			RootPath: h.deps.Config.OneDrive.RootPath,
			Enabled:  h.deps.OneDrive != nil,
		},
	})
}

// OpenOneDrive godoc
// @Summary      Open a spreadsheet in OneDrive
// @Description  Uploads the workbook to the configured drive and returns an anonymous edit link.
// @Tags         Cloud
// @Accept       json
// @Produce      json
// @Param        request  body      api.OpenOneDriveRequest  true  "Extraction id and .xlsx path"
// @Success      200  {object}  api.LinkResponse
// @Failure      400  {object}  api.Envelope
// @Failure      404  {object}  api.Envelope
// @Failure      502  {object}  api.Envelope  "OneDrive rejected the upload"
// @Failure      503  {object}  api.Envelope  "OneDrive is not configured"
// @Router       /api/open-onedrive [post]
func (h *Handler) OpenOneDrive(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	if h.deps.OneDrive == nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, "OneDrive is not configured")
		return
	}
	var req api.OpenOneDriveRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeDomainError(w, log, err)
		return
	}
	_, target, err := h.fileInExtraction(req.ExtractId, req.FilePath)
	if err != nil {
		writeDomainError(w, log, err)
		return
	}
	if !fileExists(target) {
		writeDomainError(w, log, notFound("file "+req.FilePath))
		return
	}
	link, err := h.deps.OneDrive.UploadAndGetLink(r.Context(), target)
	if err != nil {
		log.Error("onedrive upload failed", "extractionId", req.ExtractId, "file", req.FilePath, "err", err)
		WriteErrorResponse(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJsonResponse(w, http.StatusOK, api.LinkResponse{Success: true, URL: link})
}

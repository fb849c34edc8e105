package handlers

import (
	"net/http"

	"github.com/akolanti/extractview/internal/api"
)

// SaveGroups godoc
// @Summary      Save the groups of an extraction
// @Description  Replaces groups.json. An item may sit in only one group per page.
// @Tags         Annotations
// @Accept       json
// @Produce      json
// @Param        request  body      api.SaveGroupsRequest  true  "Extraction and its groups"
// @Success      200  {object}  api.MessageResponse
// @Failure      400  {object}  api.Envelope
// @Failure      403  {object}  api.Envelope
// @Failure      404  {object}  api.Envelope
// @Router       /api/save-groups [post]
func (h *Handler) SaveGroups(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	var req api.SaveGroupsRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeDomainError(w, log, err)
		return
	}
	id, _, err := h.resolveExtractPath(req.ExtractPath)
	if err != nil {
		writeDomainError(w, log, err)
		return
	}
	dir, err := h.existingExtraction(id)
	if err != nil {
		writeDomainError(w, log, err)
		return
	}
	if err := h.deps.Annotations.SaveGroups(dir, req.Groups); err != nil {
		writeDomainError(w, log, err)
		return
	}
	log.Info("groups saved", "extractionId", id, "groups", len(req.Groups))
	writeJsonResponse(w, http.StatusOK, api.MessageResponse{Success: true, Message: "Groups saved"})
}

// GetTags godoc
// @Summary      Tag vocabulary
// @Description  Returns a bare array. The built-in tags are returned until a vocabulary is saved.
// @Tags         Annotations
// @Produce      json
// @Success      200  {array}  extractionModel.Tag
// @Router       /api/tags [get]
func (h *Handler) GetTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.deps.Annotations.LoadTags()
	if err != nil {
		requestLogger(r).Warn("unreadable tags file, serving defaults", "err", err)
	}
	writeJsonResponse(w, http.StatusOK, tags)
}

// SaveTags godoc
// @Summary      Replace the tag vocabulary
// @Tags         Annotations
// @Accept       json
// @Produce      json
// @Param        request  body      api.SaveTagsRequest  true  "Tags"
// @Success      200  {object}  api.MessageResponse
// @Failure      400  {object}  api.Envelope
// @Router       /api/save-tags [post]
func (h *Handler) SaveTags(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	var req api.SaveTagsRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeDomainError(w, log, err)
		return
	}
	if err := h.deps.Annotations.SaveTags(req.Tags); err != nil {
		writeDomainError(w, log, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, api.MessageResponse{Success: true, Message: "Tags saved"})
}

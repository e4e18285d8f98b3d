package image

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/picstash/service/internal/middleware"
	"github.com/picstash/service/internal/response"
)

// Handler holds HTTP handlers for image endpoints.
type Handler struct {
	svc            *Service
	maxUploadBytes int64
}

// NewHandler creates a new image Handler.
func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	return &Handler{svc: svc, maxUploadBytes: maxUploadBytes}
}

type deleteData struct {
	Success bool `json:"success" example:"true"`
}

// Upload godoc
//
//	@Summary		Upload an image
//	@Description	Accepts a multipart form with an "image" field, stores the bytes in object storage, and records the image for the authenticated user.
//	@Tags			images
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			image	formData	file	true	"Image file"
//	@Success		200		{object}	Image
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		401		{object}	response.ErrorBody
//	@Failure		403		{object}	response.ErrorBody
//	@Failure		500		{object}	response.ErrorBody
//	@Router			/images [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.UserID(r.Context())
	if ownerID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		response.BadRequest(w, "image field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.InternalError(w)
		return
	}

	img, err := h.svc.Upload(r.Context(), ownerID, data, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, ErrEmptyFile) {
			response.BadRequest(w, "empty file")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, img)
}

// List godoc
//
//	@Summary		List own images
//	@Description	Returns all images owned by the authenticated user, oldest first.
//	@Tags			images
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}		Image
//	@Failure		401	{object}	response.ErrorBody
//	@Failure		403	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/images [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.UserID(r.Context())
	if ownerID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	images, err := h.svc.List(r.Context(), ownerID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, images)
}

// Delete godoc
//
//	@Summary		Delete an image
//	@Description	Deletes the image if it belongs to the authenticated user. An id owned by someone else is indistinguishable from a missing one.
//	@Tags			images
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Image ID"
//	@Success		200	{object}	deleteData
//	@Failure		401	{object}	response.ErrorBody
//	@Failure		403	{object}	response.ErrorBody
//	@Failure		404	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/images/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.UserID(r.Context())
	if ownerID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	imageID := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), ownerID, imageID); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, deleteData{Success: true})
}

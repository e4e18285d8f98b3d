package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"github.com/picstash/service/internal/response"
	"github.com/picstash/service/internal/user"
)

// emailRegex is a permissive shape check: something@something.tld.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Handler holds HTTP handlers for auth endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new auth Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type credentialsRequest struct {
	Email    string `json:"email"    example:"u1@example.com"`
	Password string `json:"password" example:"pw123"`
}

type registerData struct {
	ID    string `json:"id"    example:"e7eedc79-0707-4fe4-8734-526b7ef13a7b"`
	Email string `json:"email" example:"u1@example.com"`
}

type loginData struct {
	Token string `json:"token" example:"eyJhbGci..."`
}

// validate checks the request fields before any side-effecting call runs.
func (c *credentialsRequest) validate() string {
	if c.Email == "" || c.Password == "" {
		return "email and password are required"
	}
	if !emailRegex.MatchString(c.Email) {
		return "invalid email format"
	}
	return ""
}

// Register godoc
//
//	@Summary		Register a new account
//	@Description	Create an account for the given email. Returns the public identity; the password digest is never exposed.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		credentialsRequest	true	"Email and password"
//	@Success		200		{object}	registerData
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		500		{object}	response.ErrorBody
//	@Router			/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		response.BadRequest(w, msg)
		return
	}

	u, err := h.svc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrAlreadyExists) {
			response.BadRequest(w, "user already exists")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, registerData{ID: u.ID, Email: u.Email})
}

// Login godoc
//
//	@Summary		Log in
//	@Description	Verify the credentials and return a bearer token. Unknown email and wrong password are indistinguishable.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		credentialsRequest	true	"Email and password"
//	@Success		200		{object}	loginData
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		401		{object}	response.ErrorBody
//	@Failure		500		{object}	response.ErrorBody
//	@Router			/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		response.BadRequest(w, msg)
		return
	}

	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Unauthorized(w, "invalid credentials")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, loginData{Token: token})
}

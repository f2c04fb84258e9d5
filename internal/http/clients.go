package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/oddsock-dev/tokend/internal/domain"
	"github.com/oddsock-dev/tokend/internal/service"
	"github.com/oddsock-dev/tokend/pkg/httpx"
	"github.com/oddsock-dev/tokend/pkg/slogx"
)

// ClientsHandler handles the bearer-protected client management endpoints.
type ClientsHandler struct {
	ClientService *service.ClientService
}

type CreateClientRequest struct {
	Name string `json:"name"`
}

// ClientInfo is a client as shown in list/get responses. It never carries the
// secret.
type ClientInfo struct {
	ClientID        string  `json:"client_id"`
	Name            string  `json:"name"`
	CreatedAt       string  `json:"created_at"`
	SecretExpiresAt *string `json:"secret_expires_at,omitempty"`
}

// CreateClientResponse additionally carries the plaintext secret. It is shown
// once, at creation, and never again.
type CreateClientResponse struct {
	ClientInfo
	ClientSecret string `json:"client_secret"`
}

type StatusResponse struct {
	Status string `json:"status"`
	Msg    string `json:"msg"`
}

func clientInfo(c domain.Client) ClientInfo {
	info := ClientInfo{
		ClientID:  c.ClientID,
		Name:      c.Name,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
	if c.SecretExpiresAt != nil {
		v := c.SecretExpiresAt.Format(time.RFC3339)
		info.SecretExpiresAt = &v
	}
	return info
}

// HandleCreate godoc
//
//	@Summary		Register a new client
//	@Description	Creates a client under the authenticated account and returns its generated credentials.
//	@Description	The client_secret is shown in this response only and is never retrievable again.
//	@Tags			Clients
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		CreateClientRequest		true	"name"
//	@Success		201		{object}	CreateClientResponse	"client_id, client_secret, name, created_at"
//	@Failure		401		{object}	ErrorResponse			"missing or invalid bearer token"
//	@Failure		409		{array}		ValidationError			"name already exists"
//	@Failure		422		{array}		ValidationError			"loc, msg, type"
//	@Router			/clients [post].
func (h *ClientsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	accountID, ok := accountFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "")
		return
	}

	var req CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationErrors(w, http.StatusUnprocessableEntity, invalidBody("invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeValidationErrors(w, http.StatusUnprocessableEntity, missingField("name"))
		return
	}

	client, err := h.ClientService.Create(ctx, accountID, strings.TrimSpace(req.Name))
	if err != nil {
		if errors.Is(err, service.ErrDuplicateClientName) {
			writeValidationErrors(w, http.StatusConflict, ValidationError{
				Loc:  []string{"body", "name"},
				Msg:  "a client with this name already exists",
				Type: "value_error.name_exists",
			})
			return
		}
		log.Error("failed to create client", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, CreateClientResponse{
		ClientInfo:   clientInfo(client),
		ClientSecret: client.ClientSecret,
	})
}

// HandleList godoc
//
//	@Summary		List the account's clients
//	@Tags			Clients
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}		ClientInfo		"client_id, name, created_at"
//	@Failure		401	{object}	ErrorResponse	"missing or invalid bearer token"
//	@Router			/clients [get].
func (h *ClientsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	accountID, ok := accountFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "")
		return
	}

	clients, err := h.ClientService.List(ctx, accountID)
	if err != nil {
		log.Error("failed to list clients", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	infos := make([]ClientInfo, len(clients))
	for i, c := range clients {
		infos[i] = clientInfo(c)
	}
	httpx.WriteJSON(w, http.StatusOK, infos)
}

// HandleGet godoc
//
//	@Summary		Get one of the account's clients
//	@Tags			Clients
//	@Produce		json
//	@Security		BearerAuth
//	@Param			client_id	path		string			true	"Public client identifier"
//	@Success		200			{object}	ClientInfo		"client_id, name, created_at"
//	@Failure		401			{object}	ErrorResponse	"missing or invalid bearer token"
//	@Failure		404			{object}	ErrorResponse	"client not found"
//	@Router			/clients/{client_id} [get].
func (h *ClientsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	accountID, ok := accountFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "")
		return
	}

	client, err := h.ClientService.Get(ctx, accountID, r.PathValue("client_id"))
	if err != nil {
		if errors.Is(err, service.ErrClientNotFound) {
			writeError(w, http.StatusNotFound, "client_not_found", "Client not found")
			return
		}
		log.Error("failed to get client", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, clientInfo(client))
}

// HandleDelete godoc
//
//	@Summary		Delete one of the account's clients
//	@Description	Removes the client and cascade-deletes every token issued to it.
//	@Tags			Clients
//	@Produce		json
//	@Security		BearerAuth
//	@Param			client_id	path		string			true	"Public client identifier"
//	@Success		200			{object}	StatusResponse	"status, msg"
//	@Failure		401			{object}	ErrorResponse	"missing or invalid bearer token"
//	@Failure		404			{object}	ErrorResponse	"client not found"
//	@Router			/clients/{client_id} [delete].
func (h *ClientsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	accountID, ok := accountFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "")
		return
	}

	clientID := r.PathValue("client_id")
	if err := h.ClientService.Delete(ctx, accountID, clientID); err != nil {
		if errors.Is(err, service.ErrClientNotFound) {
			writeError(w, http.StatusNotFound, "client_not_found", "Client not found")
			return
		}
		log.Error("failed to delete client", "error", err, "client_id", clientID)
		writeError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, StatusResponse{
		Status: "ok",
		Msg:    "client deleted",
	})
}

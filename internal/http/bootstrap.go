package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/oddsock-dev/tokend/internal/service"
	"github.com/oddsock-dev/tokend/pkg/httpx"
	"github.com/oddsock-dev/tokend/pkg/slogx"
)

// BootstrapHandler serves POST /bootstrap: the one-time creation of the first
// account and client on an empty store.
type BootstrapHandler struct {
	BootstrapService *service.BootstrapService
}

type BootstrapRequest struct {
	Token       string `json:"token,omitempty"`
	AccountName string `json:"account_name"`
	ClientName  string `json:"client_name"`
}

type BootstrapResponse struct {
	AccountID    int64  `json:"account_id"`
	AccountName  string `json:"account_name"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	ClientName   string `json:"client_name"`
}

// ServeHTTP godoc
//
//	@Summary		Bootstrap the token service
//	@Description	Creates the first account and its first client on an empty store.
//	@Description	Available exactly once; subsequent calls return 409.
//	@Tags			Bootstrap
//	@Accept			json
//	@Produce		json
//	@Param			request	body		BootstrapRequest	true	"token (if configured), account_name, client_name"
//	@Success		201		{object}	BootstrapResponse	"account_id, account_name, client_id, client_secret, client_name"
//	@Failure		401		{object}	ErrorResponse		"invalid bootstrap token"
//	@Failure		409		{object}	ErrorResponse		"already bootstrapped"
//	@Failure		422		{array}		ValidationError		"loc, msg, type"
//	@Router			/bootstrap [post].
func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req BootstrapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationErrors(w, http.StatusUnprocessableEntity, invalidBody("invalid JSON body"))
		return
	}

	var missing []ValidationError
	if strings.TrimSpace(req.AccountName) == "" {
		missing = append(missing, missingField("account_name"))
	}
	if strings.TrimSpace(req.ClientName) == "" {
		missing = append(missing, missingField("client_name"))
	}
	if len(missing) > 0 {
		writeValidationErrors(w, http.StatusUnprocessableEntity, missing...)
		return
	}

	account, client, err := h.BootstrapService.Bootstrap(ctx, req.Token,
		strings.TrimSpace(req.AccountName), strings.TrimSpace(req.ClientName))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBootstrapAlready):
			writeError(w, http.StatusConflict, "already_bootstrapped",
				"The system has already been bootstrapped")
		case errors.Is(err, service.ErrBootstrapUnauthorized):
			writeError(w, http.StatusUnauthorized, "unauthorized",
				"Invalid bootstrap token")
		default:
			log.Error("bootstrap failed", "error", err)
			writeError(w, http.StatusInternalServerError, "server_error", "")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, BootstrapResponse{
		AccountID:    account.ID,
		AccountName:  account.Name,
		ClientID:     client.ClientID,
		ClientSecret: client.ClientSecret,
		ClientName:   client.Name,
	})
}

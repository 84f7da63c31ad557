// Package natsverify answers token verification requests published on NATS,
// for services that prefer request/reply over HTTP.
package natsverify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dmitrijs2005/moviesauth/internal/common"
	"github.com/dmitrijs2005/moviesauth/internal/logging"
	"github.com/dmitrijs2005/moviesauth/internal/server/services"
	"github.com/nats-io/nats.go"
)

// Validator resolves an access token.
type Validator interface {
	ValidateAccess(ctx context.Context, token string) (*services.Identity, error)
}

type verifyRequest struct {
	Token string `json:"token"`
}

type verifyResponse struct {
	OK    bool     `json:"ok"`
	User  string   `json:"user,omitempty"`
	Roles []string `json:"roles,omitempty"`
	JTI   string   `json:"jti,omitempty"`
	Error string   `json:"error,omitempty"`
}

type VerifyHandler struct {
	users     Validator
	logger    logging.Logger
	timeout   time.Duration
	respondFn func(msg *nats.Msg, resp verifyResponse)
}

func NewVerifyHandler(users Validator, logger logging.Logger) *VerifyHandler {
	return &VerifyHandler{
		users:     users,
		logger:    logger.With("module", "nats_verify"),
		timeout:   5 * time.Second,
		respondFn: respond,
	}
}

// Subscribe joins queue on subject so replicas share the load.
func (h *VerifyHandler) Subscribe(conn *nats.Conn, subject, queue string) (*nats.Subscription, error) {
	if conn == nil {
		return nil, errors.New("nats connection is nil")
	}
	return conn.QueueSubscribe(subject, queue, h.handle)
}

func (h *VerifyHandler) handle(msg *nats.Msg) {
	var req verifyRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil || req.Token == "" {
		h.respondFn(msg, verifyResponse{Error: "invalid_payload"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	id, err := h.users.ValidateAccess(ctx, req.Token)
	if err != nil {
		code := errorCode(err)
		if code == "internal" || code == "unavailable" {
			h.logger.Warn(ctx, "token verification failed", "subject", msg.Subject, "error", err)
		}
		h.respondFn(msg, verifyResponse{Error: code})
		return
	}
	h.respondFn(msg, verifyResponse{OK: true, User: id.Login, Roles: id.Roles, JTI: id.JTI})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		return "expired"
	case errors.Is(err, common.ErrTokenRevoked):
		return "revoked"
	case errors.Is(err, common.ErrTokenMalformed):
		return "invalid_token"
	case errors.Is(err, common.ErrorNotFound):
		return "unknown_user"
	case errors.Is(err, common.ErrBackendUnavailable):
		return "unavailable"
	default:
		return "internal"
	}
}

func respond(msg *nats.Msg, resp verifyResponse) {
	data, _ := json.Marshal(resp)
	_ = msg.Respond(data)
}

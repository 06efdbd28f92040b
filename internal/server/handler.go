package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/diogo/aichat/internal/config"
	apierrors "github.com/diogo/aichat/internal/errors"
	"github.com/diogo/aichat/internal/models"
)

// maxRequestBody caps the size of a POST /api/chat body.
const maxRequestBody = 1 << 20

// handleChat relays one message to the upstream model.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With(zap.String("request_id", middleware.GetReqID(r.Context())))

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, models.RelayBadRequest)
		return
	}

	payload := gjson.ParseBytes(body)
	if !gjson.ValidBytes(body) || isEmptyValue(payload) {
		writeError(w, http.StatusBadRequest, models.RelayBadRequest)
		return
	}

	message := payload.Get(models.PathMessage)
	if message.Type != gjson.String || message.Str == "" {
		writeError(w, http.StatusBadRequest, models.RelayEmptyMessage)
		return
	}

	logger.Info("received message", zap.Int("length", len(message.Str)))

	if err := s.cfg.CheckUpstream(); err != nil {
		logger.Warn("relay is not configured", zap.Error(err))
		writeError(w, http.StatusInternalServerError, missingSettingText(err))
		return
	}

	reply, err := s.completer.Complete(r.Context(), message.Str)
	if err != nil {
		status, text := errorResponse(err)
		logger.Warn("completion failed", zap.Int("status", status), zap.Error(err))
		writeError(w, status, text)
		return
	}

	writeJSON(w, http.StatusOK, models.ChatReply{Message: reply})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// missingSettingText returns the client-facing text for the first empty
// upstream setting in err.
func missingSettingText(err error) string {
	var cfgErr *apierrors.ConfigError
	if !errors.As(err, &cfgErr) {
		return models.RelayServerErrPrefix + err.Error()
	}
	switch cfgErr.Key {
	case config.KeyAPIKey:
		return models.RelayMissingKey
	case config.KeyAPIURL:
		return models.RelayMissingURL
	case config.KeyModel:
		return models.RelayMissingModel
	}
	return models.RelayServerErrPrefix + err.Error()
}

// errorResponse maps a completion error to the status and text returned to
// the chat client.
func errorResponse(err error) (int, string) {
	var (
		apiErr *apierrors.APIError
		netErr *apierrors.NetworkError
	)

	switch {
	case apierrors.IsTimeoutError(err):
		return http.StatusGatewayTimeout, models.RelayTimeout
	case errors.As(err, &apiErr):
		status := apiErr.StatusCode
		if status < 100 || status > 599 {
			status = http.StatusBadGateway
		}
		return status, models.RelayAPIErrorPrefix + apiErr.Message
	case errors.Is(err, apierrors.ErrInvalidResponse):
		return http.StatusInternalServerError, models.RelayBadUpstreamShape
	case errors.As(err, &netErr):
		return http.StatusInternalServerError, models.NetworkErrorPrefix + netErr.Description()
	default:
		return http.StatusInternalServerError, models.RelayServerErrPrefix + err.Error()
	}
}

// isEmptyValue reports whether v is a JSON value that carries nothing:
// null, false, 0, "", [] or {}.
func isEmptyValue(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null, gjson.False:
		return true
	case gjson.Number:
		return v.Num == 0
	case gjson.String:
		return v.Str == ""
	case gjson.JSON:
		empty := true
		v.ForEach(func(_, _ gjson.Result) bool {
			empty = false
			return false
		})
		return empty
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, text string) {
	writeJSON(w, status, models.ChatResponse{Error: text})
}

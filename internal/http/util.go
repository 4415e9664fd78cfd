package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"healthtwin-data/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return errors.New("empty request body")
	}
	return json.Unmarshal(body, out)
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError 统一的错误 → 状态码映射
// 校验 400 / 未找到 404 / 凭据与令牌 401 / 模型服务 502 / 其余 500
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case domain.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "record not found"})
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid worker id or password"})
	case errors.Is(err, domain.ErrInvalidToken):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid or expired token"})
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "prediction service unavailable"})
	default:
		logger.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}

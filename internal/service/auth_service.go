package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"healthtwin-data/internal/domain"
	"healthtwin-data/internal/repository"
	"healthtwin-data/internal/store"
)

const authTokenKeyPrefix = "healthtwin:auth:token:"

// AuthService 工作者登录：sha256 口令比对 + redis 会话令牌
type AuthService struct {
	workers  repository.HealthWorkersRepository
	kv       store.KV
	tokenTTL time.Duration
	logger   *zap.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(workers repository.HealthWorkersRepository, kv store.KV, tokenTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		workers:  workers,
		kv:       kv,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// AuthSession 令牌对应的会话信息（redis 中以 JSON 存储）
type AuthSession struct {
	WorkerID string `json:"worker_id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	State    string `json:"state"`
	District string `json:"district"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string
	Session   AuthSession
	ExpiresIn int // 秒
}

// Login 校验 worker_id + password，签发不透明 uuid 令牌
// 口令未开通（password_hash 为 NULL）、账号停用、口令不符均返回 ErrInvalidCredentials，
// 不区分具体原因，避免探测哪些 worker_id 存在。
func (s *AuthService) Login(ctx context.Context, workerID, password string) (*LoginResponse, error) {
	if workerID == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	worker, err := s.workers.GetByWorkerID(ctx, workerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !worker.IsActive || worker.PasswordHash == nil {
		return nil, domain.ErrInvalidCredentials
	}
	if hashPassword(password) != *worker.PasswordHash {
		s.logger.Warn("login rejected", zap.String("worker_id", workerID))
		return nil, domain.ErrInvalidCredentials
	}

	session := AuthSession{
		WorkerID: worker.WorkerID,
		Name:     worker.Name,
		Role:     worker.Role,
		State:    worker.State,
		District: worker.District,
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return nil, err
	}

	token := uuid.New().String()
	if err := s.kv.Set(ctx, authTokenKeyPrefix+token, string(raw), s.tokenTTL); err != nil {
		s.logger.Error("failed to store auth token", zap.Error(err))
		return nil, err
	}

	s.logger.Info("worker logged in",
		zap.String("worker_id", worker.WorkerID),
		zap.String("role", worker.Role),
	)
	return &LoginResponse{
		Token:     token,
		Session:   session,
		ExpiresIn: int(s.tokenTTL.Seconds()),
	}, nil
}

// Verify 校验令牌并返回会话；未知或过期令牌返回 ErrInvalidToken
func (s *AuthService) Verify(ctx context.Context, token string) (*AuthSession, error) {
	if token == "" {
		return nil, domain.ErrInvalidToken
	}
	raw, err := s.kv.Get(ctx, authTokenKeyPrefix+token)
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	var session AuthSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, domain.ErrInvalidToken
	}
	return &session, nil
}

// Logout 使令牌立即失效；令牌本就不存在时静默成功
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.kv.Del(ctx, authTokenKeyPrefix+token)
}

// hashPassword sha256 hex，与 health_workers.password_hash 的存储格式一致
func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// HashPassword 导出给播种/运维脚本使用
func HashPassword(password string) string {
	return hashPassword(password)
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"healthtwin-data/internal/domain"
	"healthtwin-data/internal/repository"
	"healthtwin-data/internal/store"
)

func newAuthFixture(t *testing.T) (*AuthService, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	kv := store.NewRedisKV(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	workers := repository.NewMemoryHealthWorkersRepository()

	hash := HashPassword("secret123")
	require.NoError(t, workers.SeedIfEmpty(context.Background(), []*domain.HealthWorker{
		{Name: "Priya Sharma", WorkerID: "AS001", Role: "ASHA", State: "Assam", District: "Guwahati", PasswordHash: &hash},
		{Name: "Mary Kom", WorkerID: "MN001", Role: "ANM", State: "Manipur", District: "Imphal"},
	}))

	return NewAuthService(workers, kv, 10*time.Minute, zap.NewNop()), mr
}

func TestLogin_Success(t *testing.T) {
	svc, _ := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), "AS001", "secret123")

	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Priya Sharma", resp.Session.Name)
	assert.Equal(t, "ASHA", resp.Session.Role)
	assert.Equal(t, 600, resp.ExpiresIn)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), "AS001", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogin_UnknownWorker(t *testing.T) {
	svc, _ := newAuthFixture(t)

	// 未知 worker_id 与口令错误返回同一错误，不泄露账号存在性
	_, err := svc.Login(context.Background(), "XX999", "secret123")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogin_NoPasswordSet(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), "MN001", "anything")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestVerify_RoundTrip(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	resp, err := svc.Login(ctx, "AS001", "secret123")
	require.NoError(t, err)

	session, err := svc.Verify(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "AS001", session.WorkerID)
	assert.Equal(t, "Assam", session.State)
}

func TestVerify_ExpiredToken(t *testing.T) {
	svc, mr := newAuthFixture(t)
	ctx := context.Background()

	resp, err := svc.Login(ctx, "AS001", "secret123")
	require.NoError(t, err)

	mr.FastForward(11 * time.Minute)

	_, err = svc.Verify(ctx, resp.Token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestVerify_UnknownToken(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Verify(context.Background(), "not-a-real-token")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestLogout_InvalidatesToken(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	resp, err := svc.Login(ctx, "AS001", "secret123")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, resp.Token))

	_, err = svc.Verify(ctx, resp.Token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

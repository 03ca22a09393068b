package service

import (
	"context"
	"fmt"
	"time"

	"blogpulse/pkg/utils"
)

// 驗證呼叫允許的最長等待時間，超過就放棄這條連線
const defaultAuthTimeout = 5 * time.Second

// Identity 是驗證成功後得到的最小身份訊息
type Identity struct {
	UserID uint
}

// TokenVerifier 是外部憑證驗證方的抽象
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*Identity, error)
}

// JWTVerifier 用本地 JWT 密鑰實作 TokenVerifier
type JWTVerifier struct{}

func (JWTVerifier) VerifyToken(_ context.Context, token string) (*Identity, error) {
	claims, err := utils.ParseToken(token)
	if err != nil {
		return nil, err
	}
	return &Identity{UserID: claims.UserID}, nil
}

// ConnectionAuthenticator 在連線加入房間前驗證其憑證
type ConnectionAuthenticator struct {
	verifier TokenVerifier
	timeout  time.Duration
}

func NewConnectionAuthenticator(verifier TokenVerifier) *ConnectionAuthenticator {
	return &ConnectionAuthenticator{
		verifier: verifier,
		timeout:  defaultAuthTimeout,
	}
}

// Authenticate 驗證連線參數與憑證，成功時回傳身份
// 驗證呼叫與固定期限賽跑，期限先到就回 ErrAuthTimeout，
// 還在路上的驗證結果直接丟棄，不再等待
func (a *ConnectionAuthenticator) Authenticate(ctx context.Context, token, roomID string) (*Identity, error) {
	if roomID == "" {
		return nil, ErrMissingConnParams
	}
	if token == "" {
		return nil, ErrMissingToken
	}

	type result struct {
		identity *Identity
		err      error
	}
	// 緩衝為 1，輸掉賽跑的 goroutine 寫完就能退出，不會洩漏
	resultCh := make(chan result, 1)
	go func() {
		identity, err := a.verifier.VerifyToken(ctx, token)
		resultCh <- result{identity: identity, err: err}
	}()

	timer := time.NewTimer(a.timeout)
	defer timer.Stop()

	select {
	case res := <-resultCh:
		if res.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAuthentication, res.err)
		}
		if res.identity == nil || res.identity.UserID == 0 {
			return nil, ErrInvalidAuthentication
		}
		return res.identity, nil
	case <-timer.C:
		return nil, ErrAuthTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

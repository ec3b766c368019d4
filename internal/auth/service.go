package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/kobadaidesu/shade-route-app/internal/db"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour

	refreshKeyPrefix = "auth:refresh:"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Service issues JWT access tokens backed by Postgres accounts. Refresh
// tokens live in Redis under a TTL, so revocation is a key delete.
type Service struct {
	secret []byte
	db     db.Querier
	redis  *redis.Client
}

type Claims struct {
	AccountID string `json:"account_id"`
	jwt.RegisteredClaims
}

func NewService(secret string, q db.Querier, redisClient *redis.Client) *Service {
	return &Service{
		secret: []byte(secret),
		db:     q,
		redis:  redisClient,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (Account, TokenResponse, error) {
	hash, err := hashPasswordFn([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, TokenResponse{}, err
	}

	acc := Account{
		ID:           uuid.NewString(),
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		PasswordHash: string(hash),
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO accounts (id, email, display_name, password_hash)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, acc.ID, acc.Email, acc.DisplayName, acc.PasswordHash)
	if err := row.Scan(&acc.CreatedAt); err != nil {
		return Account{}, TokenResponse{}, err
	}

	tokens, err := s.GenerateTokens(ctx, acc.ID)
	if err != nil {
		return Account{}, TokenResponse{}, err
	}
	return acc, tokens, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (Account, TokenResponse, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, email, display_name, password_hash, created_at
		FROM accounts WHERE email = $1
	`, req.Email)

	var acc Account
	if err := row.Scan(&acc.ID, &acc.Email, &acc.DisplayName, &acc.PasswordHash, &acc.CreatedAt); err != nil {
		return Account{}, TokenResponse{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)); err != nil {
		return Account{}, TokenResponse{}, ErrInvalidCredentials
	}

	tokens, err := s.GenerateTokens(ctx, acc.ID)
	if err != nil {
		return Account{}, TokenResponse{}, err
	}
	return acc, tokens, nil
}

func (s *Service) GenerateTokens(ctx context.Context, accountID string) (TokenResponse, error) {
	access, err := signTokenFn(s, accountID, accessTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}

	refresh, err := signTokenFn(s, accountID, refreshTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}

	if s.redis != nil {
		if err := s.redis.Set(ctx, refreshKeyPrefix+refresh, accountID, refreshTokenTTL).Err(); err != nil {
			return TokenResponse{}, err
		}
	}

	return TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(accessTokenTTL.Seconds()),
	}, nil
}

// Refresh rotates the refresh token: the presented token is consumed and a
// fresh pair is issued.
func (s *Service) Refresh(ctx context.Context, token string) (TokenResponse, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return TokenResponse{}, err
	}

	if s.redis != nil {
		accountID, err := s.redis.Get(ctx, refreshKeyPrefix+token).Result()
		if err != nil || accountID != claims.AccountID {
			return TokenResponse{}, errors.New("refresh token invalid")
		}
		if err := s.redis.Del(ctx, refreshKeyPrefix+token).Err(); err != nil {
			return TokenResponse{}, err
		}
	}

	return s.GenerateTokens(ctx, claims.AccountID)
}

func (s *Service) ValidateAccessToken(token string) (string, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return "", err
	}
	return claims.AccountID, nil
}

func signToken(s *Service, accountID string, ttl time.Duration) (string, error) {
	// a unique jti keeps back-to-back tokens distinct even within the same
	// second, so rotating a refresh token can never reissue the consumed one
	claims := Claims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) parseToken(token string) (*Claims, error) {
	parsed, err := parseWithClaimsFn(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("token invalid")
	}
	return claims, nil
}

// test seams
var (
	signTokenFn       = signToken
	hashPasswordFn    = bcrypt.GenerateFromPassword
	parseWithClaimsFn = jwt.ParseWithClaims
)

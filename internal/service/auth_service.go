package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/plumefed/plume/internal/domain"
	"github.com/plumefed/plume/internal/federation"
	"github.com/plumefed/plume/internal/repository"
	"golang.org/x/crypto/argon2"
)

var (
	ErrAlreadySetUp = errors.New("this node is already set up")
	ErrInvalidCreds = errors.New("invalid username or password")
)

// AuthService performs first-run setup of the single local account and
// issues bearer tokens for the write endpoints.
type AuthService struct {
	userRepo  repository.UserRepository
	uris      *federation.URIs
	jwtSecret []byte
}

func NewAuthService(userRepo repository.UserRepository, uris *federation.URIs, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		uris:      uris,
		jwtSecret: []byte(jwtSecret),
	}
}

type SetupInput struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"access_token"`
}

// Setup creates the single local user together with its actor row in
// one transaction. A second setup attempt is rejected.
func (s *AuthService) Setup(ctx context.Context, input SetupInput) (*AuthResponse, error) {
	existing, err := s.userRepo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadySetUp
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &domain.User{
		Username:     input.Username,
		PasswordHash: hash,
	}

	actorURI := s.uris.Actor(input.Username)
	sharedInbox := s.uris.SharedInbox()
	displayName := input.DisplayName
	actor := &domain.Actor{
		URI:            actorURI,
		Handle:         s.uris.Handle(input.Username),
		Name:           &displayName,
		InboxURL:       s.uris.Inbox(input.Username),
		SharedInboxURL: &sharedInbox,
		URL:            &actorURI,
	}

	if err := s.userRepo.CreateWithActor(ctx, user, actor); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	return &AuthResponse{User: user, AccessToken: token}, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCreds
	}

	if !verifyPassword(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCreds
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	return &AuthResponse{User: user, AccessToken: token}, nil
}

// User returns the single local account, or nil before setup.
func (s *AuthService) User(ctx context.Context) (*domain.User, error) {
	return s.userRepo.Get(ctx)
}

func (s *AuthService) generateToken(userID int64) (string, error) {
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)

	return fmt.Sprintf("%s:%s",
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func verifyPassword(password, encoded string) bool {
	saltB64, hashB64, ok := strings.Cut(encoded, ":")
	if !ok {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(saltB64)
	if err != nil {
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(hashB64)
	if err != nil {
		return false
	}

	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return subtle.ConstantTimeCompare(hash, expectedHash) == 1
}

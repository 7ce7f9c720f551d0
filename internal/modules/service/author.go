package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mianjunaid1223/Collab-Studio/internal/config"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/model"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/repo"
	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/utils/secrets"
	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/utils/tokens"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AuthorService interface {
	// Create provisions an author and returns its bearer token. The token is
	// not stored and cannot be recovered later.
	Create(ctx context.Context, in CreateAuthorInput) (*CreateAuthorOutput, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Author, error)
	// Authenticate resolves a raw bearer token to its author.
	Authenticate(ctx context.Context, rawToken string) (*model.Author, error)
	// Ensure creates or refreshes the author owning token.
	Ensure(ctx context.Context, token, name string) (*model.Author, error)
}

type authorService struct {
	r   repo.AuthorRepo
	cfg *config.Config
	log *zap.Logger
}

func NewAuthorService(r repo.AuthorRepo, cfg *config.Config, log *zap.Logger) AuthorService {
	return &authorService{r: r, cfg: cfg, log: log}
}

type CreateAuthorInput struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

type CreateAuthorOutput struct {
	Author *model.Author `json:"author"`
	Token  string        `json:"token"`
}

func (s *authorService) Create(ctx context.Context, in CreateAuthorInput) (*CreateAuthorOutput, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidPayload)
	}

	secret, err := secrets.Generate()
	if err != nil {
		return nil, err
	}
	a, err := s.newAuthor(name, secret)
	if err != nil {
		return nil, err
	}
	a.Avatar = in.Avatar

	if err := s.r.Create(ctx, a); err != nil {
		return nil, storeErr(err)
	}
	s.log.Sugar().Infow("author created", "author_id", a.ID)
	return &CreateAuthorOutput{Author: a, Token: tokens.Format(s.cfg.Root.AuthorBearerTokenPrefix, secret)}, nil
}

func (s *authorService) newAuthor(name, secret string) (*model.Author, error) {
	phc, err := secrets.HashSecret(secret, s.cfg.Root.SecretPepper)
	if err != nil {
		return nil, err
	}
	return &model.Author{
		Name:             name,
		SecretKeyHMAC:    tokens.HMAC256Hex(s.cfg.Root.SecretPepper, secret),
		SecretKeyHashPHC: phc,
	}, nil
}

func (s *authorService) Get(ctx context.Context, id uuid.UUID) (*model.Author, error) {
	a, err := s.r.Get(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAuthorNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return a, nil
}

func (s *authorService) Authenticate(ctx context.Context, rawToken string) (*model.Author, error) {
	secret, ok := tokens.ParseToken(rawToken, s.cfg.Root.AuthorBearerTokenPrefix)
	if !ok {
		return nil, ErrUnauthenticated
	}

	a, err := s.r.GetBySecretHMAC(ctx, tokens.HMAC256Hex(s.cfg.Root.SecretPepper, secret))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, storeErr(err)
	}

	if s.cfg.Root.EnableArgon2Verification {
		pass, err := secrets.VerifySecret(secret, s.cfg.Root.SecretPepper, a.SecretKeyHashPHC)
		if err != nil || !pass {
			return nil, ErrUnauthenticated
		}
	}
	return a, nil
}

func (s *authorService) Ensure(ctx context.Context, token, name string) (*model.Author, error) {
	secret, ok := tokens.ParseToken(token, s.cfg.Root.AuthorBearerTokenPrefix)
	if !ok {
		return nil, fmt.Errorf("author token must start with %q", s.cfg.Root.AuthorBearerTokenPrefix)
	}
	a, err := s.newAuthor(name, secret)
	if err != nil {
		return nil, err
	}
	out, err := s.r.UpsertBySecretHMAC(ctx, a)
	if err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

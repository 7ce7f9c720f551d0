package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/mianjunaid1223/Collab-Studio/internal/modules/model"
	"gorm.io/gorm"
)

type AuthorRepo interface {
	Create(ctx context.Context, a *model.Author) error
	Get(ctx context.Context, id uuid.UUID) (*model.Author, error)
	GetBySecretHMAC(ctx context.Context, lookup string) (*model.Author, error)
	// UpsertBySecretHMAC creates the author owning lookup, or refreshes its name and hash.
	UpsertBySecretHMAC(ctx context.Context, a *model.Author) (*model.Author, error)
}

type authorRepo struct{ db *gorm.DB }

func NewAuthorRepo(db *gorm.DB) AuthorRepo {
	return &authorRepo{db: db}
}

func (r *authorRepo) Create(ctx context.Context, a *model.Author) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *authorRepo) Get(ctx context.Context, id uuid.UUID) (*model.Author, error) {
	var a model.Author
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *authorRepo) GetBySecretHMAC(ctx context.Context, lookup string) (*model.Author, error) {
	var a model.Author
	if err := r.db.WithContext(ctx).Where(&model.Author{SecretKeyHMAC: lookup}).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *authorRepo) UpsertBySecretHMAC(ctx context.Context, a *model.Author) (*model.Author, error) {
	existing, err := r.GetBySecretHMAC(ctx, a.SecretKeyHMAC)
	switch err {
	case nil:
		updates := map[string]interface{}{
			"name":                a.Name,
			"secret_key_hash_phc": a.SecretKeyHashPHC,
		}
		if uErr := r.db.WithContext(ctx).Model(existing).Updates(updates).Error; uErr != nil {
			return nil, uErr
		}
		return existing, nil
	case gorm.ErrRecordNotFound:
		if cErr := r.Create(ctx, a); cErr != nil {
			return nil, cErr
		}
		return a, nil
	default:
		return nil, err
	}
}

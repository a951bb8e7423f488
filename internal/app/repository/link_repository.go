package repository

import (
	"context"
	"errors"

	"github.com/laghulabs/laghu/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrLinkNotFound signals that the requested short link does not exist.
	ErrLinkNotFound = errors.New("link not found")
	// ErrSlugTaken signals a unique-index violation on the slug column.
	ErrSlugTaken = errors.New("slug already taken")
)

// LinkRepository defines the data access contract for short links.
type LinkRepository interface {
	Create(ctx context.Context, link *model.Link) error
	GetBySlug(ctx context.Context, slug string) (*model.Link, error)
	GetOwned(ctx context.Context, id, ownerID string) (*model.Link, error)
	FindByOwnerAndURL(ctx context.Context, ownerID, originalURL string) (*model.Link, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	CountCustomByOwner(ctx context.Context, ownerID string) (int64, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Link, error)
	ListSlugs(ctx context.Context) ([]string, error)
	Update(ctx context.Context, link *model.Link) error
	Delete(ctx context.Context, id string) error
}

type linkRepository struct {
	db *gorm.DB
}

// NewLinkRepository returns a GORM-backed LinkRepository.
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Create(ctx context.Context, link *model.Link) error {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrSlugTaken
		}
		return err
	}
	return nil
}

func (r *linkRepository) GetBySlug(ctx context.Context, slug string) (*model.Link, error) {
	var link model.Link
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *linkRepository) GetOwned(ctx context.Context, id, ownerID string) (*model.Link, error) {
	var link model.Link
	if err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *linkRepository) FindByOwnerAndURL(ctx context.Context, ownerID, originalURL string) (*model.Link, error) {
	var link model.Link
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND original_url = ?", ownerID, originalURL).
		First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *linkRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.Link{}).
		Where("slug = ?", slug).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *linkRepository) CountCustomByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.Link{}).
		Where("owner_id = ? AND is_custom = ?", ownerID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *linkRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Link, error) {
	var result []model.Link
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *linkRepository) ListSlugs(ctx context.Context) ([]string, error) {
	var slugs []string
	if err := r.db.WithContext(ctx).
		Model(&model.Link{}).
		Pluck("slug", &slugs).Error; err != nil {
		return nil, err
	}
	return slugs, nil
}

func (r *linkRepository) Update(ctx context.Context, link *model.Link) error {
	result := r.db.WithContext(ctx).
		Model(&model.Link{}).
		Where("id = ?", link.ID).
		Updates(map[string]interface{}{
			"original_url":     link.OriginalURL,
			"expires_at":       link.ExpiresAt,
			"meta_title":       link.MetaTitle,
			"meta_description": link.MetaDescription,
			"meta_image":       link.MetaImage,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLinkNotFound
	}

	return r.db.WithContext(ctx).Where("id = ?", link.ID).First(link).Error
}

func (r *linkRepository) Delete(ctx context.Context, id string) error {
	// Clicks go first so the delete also works on databases migrated
	// without the FK cascade.
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("link_id = ?", id).Delete(&model.Click{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&model.Link{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrLinkNotFound
		}
		return nil
	})
}

package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/skvorcov/blog_backend/internal/models"
)

type PostRepo struct {
	DB *gorm.DB
}

func (r *PostRepo) Create(ctx context.Context, p *models.Post) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *PostRepo) ByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.DB.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *PostRepo) Update(ctx context.Context, p *models.Post) error {
	return r.DB.WithContext(ctx).Save(p).Error
}

func (r *PostRepo) Delete(ctx context.Context, id uint) error {
	tx := r.DB.WithContext(ctx).Delete(&models.Post{}, id)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostRepo) List(ctx context.Context, offset, limit int) ([]models.Post, int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Post{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var posts []models.Post
	if err := r.DB.WithContext(ctx).Order("id ASC").Offset(offset).Limit(limit).Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *PostRepo) ListByAuthor(ctx context.Context, authorID uint, offset, limit int) ([]models.Post, int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Post{}).Where("author_id = ?", authorID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var posts []models.Post
	if err := r.DB.WithContext(ctx).Where("author_id = ?", authorID).Order("id ASC").Offset(offset).Limit(limit).Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

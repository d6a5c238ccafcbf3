package repo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/skvorcov/blog_backend/internal/models"
)

var ErrTokenRevoked = errors.New("repo: refresh token revoked or expired")

type RefreshRepo struct {
	DB *gorm.DB
}

// Sha256Hex is the digest stored instead of the raw refresh token, so a
// database leak does not hand out usable credentials.
func Sha256Hex(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (r *RefreshRepo) Save(ctx context.Context, rawToken, jti string, userID uint, expiresAt time.Time) error {
	record := models.RefreshToken{
		JTI:       jti,
		TokenHash: Sha256Hex(rawToken),
		UserID:    userID,
		ExpiresAt: expiresAt.Unix(),
	}
	return r.DB.WithContext(ctx).Create(&record).Error
}

// CheckActive verifies that the refresh token identified by jti is
// stored, not revoked and not past its expiry.
func (r *RefreshRepo) CheckActive(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var stored models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if stored.Revoked || time.Now().Unix() > stored.ExpiresAt {
		return nil, ErrTokenRevoked
	}
	return &stored, nil
}

func (r *RefreshRepo) RevokeByJTI(ctx context.Context, jti string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("jti = ?", jti).
		Update("revoked", true).Error
}

func (r *RefreshRepo) RevokeByToken(ctx context.Context, rawToken string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", Sha256Hex(rawToken)).
		Update("revoked", true).Error
}

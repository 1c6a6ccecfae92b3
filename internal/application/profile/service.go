package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/agribiz-identity/internal/domain"
	"github.com/agribiz-identity/internal/pkg/id"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldFirstName  = "first_name"
	fieldLastName   = "last_name"
	fieldNationalID = "national_id"
	fieldAddress    = "address"
	fieldPhone      = "phone"
	fieldBio        = "bio"
)

const defaultPageSize = 50

// allowedImageTypes maps accepted upload content types to object key extensions.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72,nefield=CurrentPassword"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

type Service interface {
	GetProfile(ctx context.Context, userID string) (*domain.UserInfo, error)
	UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.UserInfo, error)
	UpdateProfileImage(ctx context.Context, userID string, r io.Reader, contentType string) (*domain.UserInfo, error)
	ListByRole(ctx context.Context, role string, limit int, cursor string) ([]domain.UserInfo, string, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
}

type userStore interface {
	GetByID(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, email string, fields map[string]interface{}) (*domain.User, error)
	SetProfileImage(ctx context.Context, email, url string) (*domain.User, error)
	UpdatePassword(ctx context.Context, email, passwordHash string) (*domain.User, error)
	ListByRole(ctx context.Context, role string, limit int32, cursor string) ([]domain.User, string, error)
}

type imageStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) (string, bool)
}

type passwordHasher interface {
	Hash(plain string) (string, error)
	Matches(hash, plain string) bool
}

type notifier interface {
	PasswordChanged(ctx context.Context, u *domain.User)
}

type service struct {
	repo     userStore
	images   imageStore
	hasher   passwordHasher
	notifier notifier
}

type ServiceDeps struct {
	UserRepo userStore
	Images   imageStore
	Hasher   passwordHasher
	Notifier notifier
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:     deps.UserRepo,
		images:   deps.Images,
		hasher:   deps.Hasher,
		notifier: deps.Notifier,
	}
}

func (s *service) GetProfile(ctx context.Context, userID string) (*domain.UserInfo, error) {
	u, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	info := u.Info()
	return &info, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.UserInfo, error) {
	u, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.FirstName != nil {
		if *req.FirstName == "" {
			return nil, fmt.Errorf("first_name cannot be empty: %w", domain.ErrBadRequest)
		}
		updates[fieldFirstName] = *req.FirstName
	}
	if req.LastName != nil {
		updates[fieldLastName] = *req.LastName
	}
	if req.NationalID != nil {
		updates[fieldNationalID] = *req.NationalID
	}
	if req.Address != nil {
		updates[fieldAddress] = *req.Address
	}
	if req.Phone != nil {
		updates[fieldPhone] = *req.Phone
	}
	if req.Bio != nil {
		updates[fieldBio] = *req.Bio
	}
	if len(updates) == 0 {
		info := u.Info()
		return &info, nil
	}
	updated, err := s.repo.UpdateProfile(ctx, u.Email, updates)
	if err != nil {
		return nil, err
	}
	info := updated.Info()
	return &info, nil
}

func (s *service) UpdateProfileImage(ctx context.Context, userID string, r io.Reader, contentType string) (*domain.UserInfo, error) {
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("unsupported image type %q: %w", contentType, domain.ErrBadRequest)
	}
	u, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("profile-images/%s/%s%s", u.UserID, id.New(), ext)
	url, err := s.images.Upload(ctx, key, r, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload profile image: %w", err)
	}
	updated, err := s.repo.SetProfileImage(ctx, u.Email, url)
	if err != nil {
		if delErr := s.images.Delete(ctx, key); delErr != nil {
			slog.Warn("failed to remove orphaned profile image", "key", key, "err", delErr)
		}
		return nil, err
	}

	if u.ProfileImageURL != nil {
		if oldKey, ok := s.images.KeyFromURL(*u.ProfileImageURL); ok {
			if err := s.images.Delete(ctx, oldKey); err != nil {
				slog.Warn("failed to delete previous profile image", "key", oldKey, "err", err)
			}
		}
	}
	info := updated.Info()
	return &info, nil
}

func (s *service) ListByRole(ctx context.Context, role string, limit int, cursor string) ([]domain.UserInfo, string, error) {
	switch role {
	case domain.RoleFarmer, domain.RoleBuyer, domain.RoleAdmin:
	default:
		return nil, "", fmt.Errorf("invalid role %q: %w", role, domain.ErrBadRequest)
	}
	if limit < 1 || limit > 100 {
		limit = defaultPageSize
	}
	users, next, err := s.repo.ListByRole(ctx, role, int32(limit), cursor)
	if err != nil {
		return nil, "", err
	}
	infos := make([]domain.UserInfo, 0, len(users))
	for i := range users {
		infos = append(infos, users[i].Info())
	}
	return infos, next, nil
}

// ChangePassword also clears any outstanding reset token, so a reset link mailed
// before the change can no longer be used.
func (s *service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	u, err := s.get(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Matches(u.PasswordHash, currentPassword) {
		return fmt.Errorf("current password is incorrect: %w", domain.ErrInvalidCredentials)
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	updated, err := s.repo.UpdatePassword(ctx, u.Email, hash)
	if err != nil {
		return err
	}
	s.notifier.PasswordChanged(ctx, updated)
	return nil
}

func (s *service) get(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, domain.ErrAccountNotFound)
		}
		return nil, err
	}
	return u, nil
}

package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/workpay-hr/payroll-backend-go/internal/domain/user"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/jwt"
	"github.com/workpay-hr/payroll-backend-go/internal/service/file"
	"golang.org/x/crypto/bcrypt"
)

type UserServiceImpl struct {
	userRepo    user.UserRepository
	fileService file.FileService
	bcryptCost  int
}

func NewUserService(userRepo user.UserRepository, fileService file.FileService, bcryptCost int) user.UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserServiceImpl{
		userRepo:    userRepo,
		fileService: fileService,
		bcryptCost:  bcryptCost,
	}
}

// List implements user.UserService.
func (s *UserServiceImpl) List(ctx context.Context, filter user.UserFilter) (user.ListUserResponse, error) {
	if err := filter.Validate(); err != nil {
		return user.ListUserResponse{}, err
	}

	users, total, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return user.ListUserResponse{}, fmt.Errorf("failed to list users: %w", err)
	}

	resp := user.ListUserResponse{
		Users:      make([]user.UserResponse, 0, len(users)),
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int((total + int64(filter.Limit) - 1) / int64(filter.Limit)),
	}
	for _, u := range users {
		resp.Users = append(resp.Users, user.ToResponse(u))
	}
	return resp, nil
}

// GetByID implements user.UserService.
func (s *UserServiceImpl) GetByID(ctx context.Context, id string) (user.UserResponse, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return user.UserResponse{}, err
	}
	return user.ToResponse(u), nil
}

// Delete implements user.UserService.
func (s *UserServiceImpl) Delete(ctx context.Context, id string) error {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return err
	}
	if claims.UserID == id {
		return user.ErrCannotDeleteSelf
	}

	if err := s.userRepo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	slog.Info("user deleted", "user_id", id, "deleted_by", claims.UserID)
	return nil
}

// UpdateMe implements user.UserService.
func (s *UserServiceImpl) UpdateMe(ctx context.Context, req user.UpdateProfileRequest) (user.UserResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return user.UserResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return user.UserResponse{}, err
	}

	u, err := s.userRepo.UpdateProfile(ctx, claims.UserID, req)
	if err != nil {
		return user.UserResponse{}, err
	}
	return user.ToResponse(u), nil
}

// ChangePassword implements user.UserService.
func (s *UserServiceImpl) ChangePassword(ctx context.Context, req user.ChangePasswordRequest) error {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	u, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return err
	}
	if !u.HasPassword() || bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return user.ErrIncorrectPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, u.ID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// UploadAvatar implements user.UserService.
func (s *UserServiceImpl) UploadAvatar(ctx context.Context, file io.Reader) (user.UserResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return user.UserResponse{}, err
	}

	current, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return user.UserResponse{}, err
	}

	key, url, err := s.fileService.UploadAvatar(ctx, claims.UserID, file)
	if err != nil {
		return user.UserResponse{}, err
	}
	if err := s.userRepo.UpdateAvatar(ctx, claims.UserID, url); err != nil {
		_ = s.fileService.DeleteFile(ctx, key)
		return user.UserResponse{}, fmt.Errorf("failed to save avatar: %w", err)
	}

	current.AvatarURL = &url
	return user.ToResponse(current), nil
}

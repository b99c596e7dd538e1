package user

import (
	"context"
	"io"
)

type UserService interface {
	List(ctx context.Context, filter UserFilter) (ListUserResponse, error)
	GetByID(ctx context.Context, id string) (UserResponse, error)
	Delete(ctx context.Context, id string) error
	UpdateMe(ctx context.Context, req UpdateProfileRequest) (UserResponse, error)
	ChangePassword(ctx context.Context, req ChangePasswordRequest) error
	UploadAvatar(ctx context.Context, file io.Reader) (UserResponse, error)
}

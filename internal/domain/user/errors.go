package user

import "errors"

var (
	ErrUserNotFound            = errors.New("user not found")
	ErrUserEmailExists         = errors.New("email already registered")
	ErrInvalidEmailFormat      = errors.New("invalid email format")
	ErrInvalidPasswordLength   = errors.New("password must be at least 8 characters")
	ErrIncorrectPassword       = errors.New("current password is incorrect")
	ErrCannotDeleteSelf        = errors.New("you cannot delete your own account")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrCompanyIDRequired       = errors.New("company ID is required")
	ErrInvalidAvatar           = errors.New("avatar must be a JPEG, PNG or GIF image")
	ErrAvatarTooLarge          = errors.New("avatar exceeds the maximum upload size")
)

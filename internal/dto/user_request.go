package dto

// UserRequest is the body of user create/update calls. Nil fields are left
// untouched on update; a nil or empty password keeps the current one.
type UserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

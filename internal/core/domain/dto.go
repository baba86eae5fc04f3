package domain

// SignupRequest is the request body for POST /auth/signup.
type SignupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest is the request body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserView is the public shape of a user returned by the auth endpoints.
// It never carries credential material.
type UserView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// NewUserView maps a user entity to its public view.
func NewUserView(u *User) UserView {
	return UserView{
		ID:       u.ID.String(),
		Username: u.Username,
		Email:    u.Email,
	}
}

// ThingCreateRequest is the request body for POST /api/things.
type ThingCreateRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

// ThingUpdateRequest is the request body for PATCH /api/things/:id.
// Nil fields are left unchanged.
type ThingUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// ThingView is the public shape of a thing.
type ThingView struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// NewThingView maps a thing entity to its public view.
func NewThingView(t *Thing) ThingView {
	return ThingView{
		ID:          t.ID.String(),
		Name:        t.Name,
		Description: t.Description,
	}
}

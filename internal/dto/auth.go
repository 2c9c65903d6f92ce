package dto

// ── auth requests ──

// SignInRequest email/password sign-in
type SignInRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SignUpRequest creates a user, its profile and its role in one step
type SignUpRequest struct {
	Email     string `json:"email"      binding:"required,email,max=150"`
	Password  string `json:"password"   binding:"required,min=8,max=72"`
	FullName  string `json:"full_name"  binding:"required,min=2,max=150"`
	Role      string `json:"role"       binding:"required,oneof=admin gestor operador"`
	CompanyID string `json:"company_id" binding:"omitempty,uuid"`
}

// RefreshTokenRequest refresh token exchange
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ── auth responses ──

// TokenResponse token pair
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"`
	User         UserResponse `json:"user"`
}

// UserResponse user as seen by clients
type UserResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	Role         string `json:"role"`
	CompanyID    string `json:"company_id,omitempty"`
	IsActive     bool   `json:"is_active"`
	LastSignInAt string `json:"last_sign_in_at,omitempty"`
	CreatedAt    string `json:"created_at"`
}

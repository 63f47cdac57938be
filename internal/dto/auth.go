package dto

// ── 认证模块 DTO ──

// RegisterRequest 注册请求（学生自助注册；首个用户按配置引导为管理员）
type RegisterRequest struct {
	Name       string `json:"name"        binding:"required,min=2,max=100"`
	Email      string `json:"email"       binding:"required,email"`
	Password   string `json:"password"    binding:"required,min=8,max=72"`
	Code       string `json:"code"        binding:"required,max=20"` // 学号
	ClassCode  string `json:"class_code"  binding:"omitempty,max=20"`
	Major      string `json:"major"       binding:"omitempty,max=100"`
	EnrollYear int    `json:"enroll_year" binding:"omitempty,gte=2000,lte=2100"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest 刷新 Token 请求
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // Access Token 有效期（秒）
	User         UserResponse `json:"user"`
}

// RegisterResponse 注册成功响应
type RegisterResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

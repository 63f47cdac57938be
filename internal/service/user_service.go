package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"capstone-hub/backend/internal/dto"
	"capstone-hub/backend/internal/model"
	"capstone-hub/backend/internal/repository"
)

// ── 用户模块业务错误 ──

var (
	ErrProfileRequired   = errors.New("缺少对应角色的档案信息")
	ErrTeacherCodeTaken  = errors.New("教师工号已被注册")
	ErrCannotDisableSelf = errors.New("不能停用自己的账号")
	ErrTeacherNotFound   = errors.New("教师不存在")
	ErrStudentNotFound   = errors.New("学生不存在")
)

// UserService 用户管理业务接口（管理员维护全量用户）
type UserService interface {
	CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error)
	GetUser(ctx context.Context, userID string) (*dto.UserResponse, error)
	UpdateUser(ctx context.Context, operatorID, userID string, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	DeleteUser(ctx context.Context, operatorID, userID string) error
	ListUsers(ctx context.Context, req *dto.UserListRequest) ([]*dto.UserResponse, int64, error)
	ListReviewers(ctx context.Context) ([]*dto.TeacherResponse, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────────────── CreateUser ──────────────────────

func (s *userService) CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	if req.Role == model.RoleStudent && req.Student == nil {
		return nil, ErrProfileRequired
	}
	if req.Role == model.RoleTeacher && req.Teacher == nil {
		return nil, ErrProfileRequired
	}

	if _, err := s.repo.User.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		IsActive:     true,
		// 管理员代建账号首次登录强制改密
		MustChangePassword: true,
	}
	if err := txRepo.User.Create(ctx, user); err != nil {
		tx.Rollback()
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}

	switch req.Role {
	case model.RoleStudent:
		student := &model.Student{
			UserID:     user.UserID,
			Code:       req.Student.Code,
			ClassCode:  req.Student.ClassCode,
			Major:      req.Student.Major,
			EnrollYear: req.Student.EnrollYear,
		}
		if err := txRepo.Student.Create(ctx, student); err != nil {
			tx.Rollback()
			s.logger.Warn("创建学生档案失败", zap.String("code", req.Student.Code), zap.Error(err))
			return nil, ErrStudentCodeTaken
		}
		user.Student = student
	case model.RoleTeacher:
		teacher := &model.Teacher{
			UserID:       user.UserID,
			Code:         req.Teacher.Code,
			Department:   req.Teacher.Department,
			MaxStudents:  req.Teacher.MaxStudents,
			CanSupervise: true,
			CanReview:    true,
		}
		if teacher.MaxStudents <= 0 {
			teacher.MaxStudents = 8
		}
		if req.Teacher.CanSupervise != nil {
			teacher.CanSupervise = *req.Teacher.CanSupervise
		}
		if req.Teacher.CanReview != nil {
			teacher.CanReview = *req.Teacher.CanReview
		}
		if err := txRepo.Teacher.Create(ctx, teacher); err != nil {
			tx.Rollback()
			s.logger.Warn("创建教师档案失败", zap.String("code", req.Teacher.Code), zap.Error(err))
			return nil, ErrTeacherCodeTaken
		}
		user.Teacher = teacher
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("提交事务失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("管理员创建用户成功",
		zap.String("user_id", user.UserID),
		zap.String("role", user.Role),
	)

	return toUserResponse(user), nil
}

// ────────────────────── GetUser ──────────────────────

func (s *userService) GetUser(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", userID), zap.Error(err))
		return nil, err
	}
	return toUserResponse(user), nil
}

// ────────────────────── UpdateUser ──────────────────────

func (s *userService) UpdateUser(ctx context.Context, operatorID, userID string, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", userID), zap.Error(err))
		return nil, err
	}

	if req.IsActive != nil && !*req.IsActive && operatorID == userID {
		return nil, ErrCannotDisableSelf
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil && *req.Email != user.Email {
		if _, err := s.repo.User.GetByEmail(ctx, *req.Email); err == nil {
			return nil, ErrEmailTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询用户失败", zap.Error(err))
			return nil, err
		}
		user.Email = *req.Email
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	if err := txRepo.User.Update(ctx, user); err != nil {
		tx.Rollback()
		s.logger.Error("更新用户失败", zap.String("id", userID), zap.Error(err))
		return nil, err
	}

	if req.Student != nil && user.Student != nil {
		st := user.Student
		st.Code = req.Student.Code
		st.ClassCode = req.Student.ClassCode
		st.Major = req.Student.Major
		st.EnrollYear = req.Student.EnrollYear
		if err := txRepo.Student.Update(ctx, st); err != nil {
			tx.Rollback()
			s.logger.Error("更新学生档案失败", zap.String("user_id", userID), zap.Error(err))
			return nil, err
		}
	}
	if req.Teacher != nil && user.Teacher != nil {
		t := user.Teacher
		t.Code = req.Teacher.Code
		t.Department = req.Teacher.Department
		if req.Teacher.MaxStudents > 0 {
			t.MaxStudents = req.Teacher.MaxStudents
		}
		if req.Teacher.CanSupervise != nil {
			t.CanSupervise = *req.Teacher.CanSupervise
		}
		if req.Teacher.CanReview != nil {
			t.CanReview = *req.Teacher.CanReview
		}
		if err := txRepo.Teacher.Update(ctx, t); err != nil {
			tx.Rollback()
			s.logger.Error("更新教师档案失败", zap.String("user_id", userID), zap.Error(err))
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("提交事务失败", zap.Error(err))
		return nil, err
	}

	return toUserResponse(user), nil
}

// ────────────────────── DeleteUser ──────────────────────

func (s *userService) DeleteUser(ctx context.Context, operatorID, userID string) error {
	if operatorID == userID {
		return ErrCannotDisableSelf
	}

	if _, err := s.repo.User.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", userID), zap.Error(err))
		return err
	}

	if err := s.repo.User.Delete(ctx, userID, operatorID); err != nil {
		s.logger.Error("删除用户失败", zap.String("id", userID), zap.Error(err))
		return err
	}

	s.logger.Info("用户已删除", zap.String("user_id", userID))
	return nil
}

// ────────────────────── ListUsers ──────────────────────

func (s *userService) ListUsers(ctx context.Context, req *dto.UserListRequest) ([]*dto.UserResponse, int64, error) {
	offset, limit := pageToRange(req.Page, req.PageSize)

	users, total, err := s.repo.User.List(ctx, req.Role, req.Keyword, offset, limit)
	if err != nil {
		s.logger.Error("查询用户列表失败", zap.Error(err))
		return nil, 0, err
	}

	resp := make([]*dto.UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, toUserResponse(&users[i]))
	}
	return resp, total, nil
}

// ────────────────────── ListReviewers ──────────────────────

func (s *userService) ListReviewers(ctx context.Context) ([]*dto.TeacherResponse, error) {
	teachers, err := s.repo.Teacher.ListActiveReviewers(ctx)
	if err != nil {
		s.logger.Error("查询评阅教师列表失败", zap.Error(err))
		return nil, err
	}

	resp := make([]*dto.TeacherResponse, 0, len(teachers))
	for i := range teachers {
		resp = append(resp, toTeacherResponse(&teachers[i]))
	}
	return resp, nil
}

// ── 转换辅助函数 ──

func toUserResponse(u *model.User) *dto.UserResponse {
	resp := &dto.UserResponse{
		ID:                 u.UserID,
		Name:               u.Name,
		Email:              u.Email,
		Role:               u.Role,
		IsActive:           u.IsActive,
		MustChangePassword: u.MustChangePassword,
	}
	if u.Student != nil {
		resp.Student = &dto.StudentResponse{
			ID:         u.Student.StudentID,
			Code:       u.Student.Code,
			ClassCode:  u.Student.ClassCode,
			Major:      u.Student.Major,
			EnrollYear: u.Student.EnrollYear,
		}
	}
	if u.Teacher != nil {
		resp.Teacher = toTeacherResponse(u.Teacher)
	}
	return resp
}

func toTeacherResponse(t *model.Teacher) *dto.TeacherResponse {
	resp := &dto.TeacherResponse{
		ID:           t.TeacherID,
		Code:         t.Code,
		Department:   t.Department,
		MaxStudents:  t.MaxStudents,
		GuidingCount: t.GuidingCount,
		CanSupervise: t.CanSupervise,
		CanReview:    t.CanReview,
	}
	if t.User != nil {
		resp.Name = t.User.Name
	}
	return resp
}

// pageToRange 将页码换算为 offset/limit，越界取默认值
func pageToRange(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return (page - 1) * pageSize, pageSize
}

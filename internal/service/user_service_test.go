package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"capstone-hub/backend/internal/dto"
	"capstone-hub/backend/internal/model"
)

// ── 测试辅助 ──

func setupTestUserService() (UserService, *testRepos) {
	repos := newTestRepos()
	svc := NewUserService(repos.repo, zap.NewNop())
	return svc, repos
}

// ── CreateUser 测试 ──

func TestUserService_CreateUser_Student(t *testing.T) {
	svc, repos := setupTestUserService()

	result, err := svc.CreateUser(context.Background(), &dto.CreateUserRequest{
		Name: "王五", Email: "wangwu@test.edu", Password: "password123",
		Role:    model.RoleStudent,
		Student: &dto.StudentProfileRequest{Code: "20220010", Major: "软件工程"},
	})
	if err != nil {
		t.Fatalf("CreateUser 应成功: %v", err)
	}
	if !result.MustChangePassword {
		t.Error("代建账号应强制首次改密")
	}
	if result.Student == nil || result.Student.Code != "20220010" {
		t.Error("应同时创建学生档案")
	}
	if len(repos.students.students) != 1 {
		t.Errorf("期望 1 条学生档案，实际=%d", len(repos.students.students))
	}
}

func TestUserService_CreateUser_TeacherDefaults(t *testing.T) {
	svc, _ := setupTestUserService()

	result, err := svc.CreateUser(context.Background(), &dto.CreateUserRequest{
		Name: "赵六", Email: "zhaoliu@test.edu", Password: "password123",
		Role:    model.RoleTeacher,
		Teacher: &dto.TeacherProfileRequest{Code: "T100"},
	})
	if err != nil {
		t.Fatalf("CreateUser 应成功: %v", err)
	}
	if result.Teacher == nil {
		t.Fatal("应同时创建教师档案")
	}
	if result.Teacher.MaxStudents != 8 {
		t.Errorf("未指定时指导名额默认 8，实际=%d", result.Teacher.MaxStudents)
	}
	if !result.Teacher.CanSupervise || !result.Teacher.CanReview {
		t.Error("未指定时默认可指导可评阅")
	}
}

func TestUserService_CreateUser_ProfileRequired(t *testing.T) {
	svc, _ := setupTestUserService()

	_, err := svc.CreateUser(context.Background(), &dto.CreateUserRequest{
		Name: "王五", Email: "wangwu@test.edu", Password: "password123",
		Role: model.RoleStudent,
	})
	if !errors.Is(err, ErrProfileRequired) {
		t.Errorf("期望 ErrProfileRequired，实际: %v", err)
	}
}

func TestUserService_CreateUser_EmailTaken(t *testing.T) {
	svc, repos := setupTestUserService()
	repos.users.users["u-1"] = &model.User{UserID: "u-1", Email: "wangwu@test.edu", Role: model.RoleAdmin}

	_, err := svc.CreateUser(context.Background(), &dto.CreateUserRequest{
		Name: "王五", Email: "wangwu@test.edu", Password: "password123", Role: model.RoleAdmin,
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("期望 ErrEmailTaken，实际: %v", err)
	}
}

func TestUserService_CreateUser_TeacherCodeTaken(t *testing.T) {
	svc, repos := setupTestUserService()
	seedTeacher(repos, "t-001", "u-t-001", "T100", true)

	_, err := svc.CreateUser(context.Background(), &dto.CreateUserRequest{
		Name: "赵六", Email: "zhaoliu@test.edu", Password: "password123",
		Role:    model.RoleTeacher,
		Teacher: &dto.TeacherProfileRequest{Code: "T100"},
	})
	if !errors.Is(err, ErrTeacherCodeTaken) {
		t.Errorf("期望 ErrTeacherCodeTaken，实际: %v", err)
	}
}

// ── UpdateUser 测试 ──

func TestUserService_UpdateUser_CannotDisableSelf(t *testing.T) {
	svc, repos := setupTestUserService()
	repos.users.users["u-admin"] = &model.User{UserID: "u-admin", Role: model.RoleAdmin, IsActive: true}

	inactive := false
	_, err := svc.UpdateUser(context.Background(), "u-admin", "u-admin",
		&dto.UpdateUserRequest{IsActive: &inactive})
	if !errors.Is(err, ErrCannotDisableSelf) {
		t.Errorf("期望 ErrCannotDisableSelf，实际: %v", err)
	}
}

func TestUserService_UpdateUser_DisableOther(t *testing.T) {
	svc, repos := setupTestUserService()
	repos.users.users["u-admin"] = &model.User{UserID: "u-admin", Role: model.RoleAdmin, IsActive: true}
	user := &model.User{UserID: "u-1", Name: "王五", Email: "wangwu@test.edu", Role: model.RoleStudent, IsActive: true}
	repos.users.users["u-1"] = user

	inactive := false
	result, err := svc.UpdateUser(context.Background(), "u-admin", "u-1",
		&dto.UpdateUserRequest{IsActive: &inactive})
	if err != nil {
		t.Fatalf("UpdateUser 应成功: %v", err)
	}
	if result.IsActive {
		t.Error("账号应被停用")
	}
}

func TestUserService_UpdateUser_EmailConflict(t *testing.T) {
	svc, repos := setupTestUserService()
	repos.users.users["u-1"] = &model.User{UserID: "u-1", Email: "a@test.edu", Role: model.RoleStudent, IsActive: true}
	repos.users.users["u-2"] = &model.User{UserID: "u-2", Email: "b@test.edu", Role: model.RoleStudent, IsActive: true}

	taken := "b@test.edu"
	_, err := svc.UpdateUser(context.Background(), "u-admin", "u-1",
		&dto.UpdateUserRequest{Email: &taken})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("期望 ErrEmailTaken，实际: %v", err)
	}
}

func TestUserService_UpdateUser_TeacherProfile(t *testing.T) {
	svc, repos := setupTestUserService()
	teacher := seedTeacher(repos, "t-001", "u-t-001", "T001", true)
	repos.users.users["u-t-001"].Teacher = teacher

	noReview := false
	result, err := svc.UpdateUser(context.Background(), "u-admin", "u-t-001",
		&dto.UpdateUserRequest{
			Teacher: &dto.TeacherProfileRequest{Code: "T001", Department: "计算机学院", MaxStudents: 12, CanReview: &noReview},
		})
	if err != nil {
		t.Fatalf("UpdateUser 应成功: %v", err)
	}
	if result.Teacher.MaxStudents != 12 || result.Teacher.Department != "计算机学院" {
		t.Error("教师档案应更新")
	}
	if result.Teacher.CanReview {
		t.Error("应关闭评阅资格")
	}
}

// ── DeleteUser 测试 ──

func TestUserService_DeleteUser(t *testing.T) {
	svc, repos := setupTestUserService()
	repos.users.users["u-1"] = &model.User{UserID: "u-1", Role: model.RoleStudent}

	if err := svc.DeleteUser(context.Background(), "u-admin", "u-1"); err != nil {
		t.Fatalf("DeleteUser 应成功: %v", err)
	}
	if _, ok := repos.users.users["u-1"]; ok {
		t.Error("用户应被删除")
	}

	if err := svc.DeleteUser(context.Background(), "u-admin", "u-admin"); !errors.Is(err, ErrCannotDisableSelf) {
		t.Errorf("删除自己期望 ErrCannotDisableSelf，实际: %v", err)
	}
	if err := svc.DeleteUser(context.Background(), "u-admin", "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

// ── ListUsers / ListReviewers 测试 ──

func TestUserService_ListUsers_RoleFilter(t *testing.T) {
	svc, repos := setupTestUserService()
	seedTeacher(repos, "t-001", "u-t-001", "T001", true)
	seedStudent(repos, "s-001", "u-s-001", "S001")
	seedStudent(repos, "s-002", "u-s-002", "S002")

	result, total, err := svc.ListUsers(context.Background(), &dto.UserListRequest{Role: model.RoleStudent})
	if err != nil {
		t.Fatalf("ListUsers 应成功: %v", err)
	}
	if total != 2 || len(result) != 2 {
		t.Fatalf("期望 2 名学生，实际 total=%d len=%d", total, len(result))
	}
}

func TestUserService_ListReviewers_OnlyEligible(t *testing.T) {
	svc, repos := setupTestUserService()
	seedTeacher(repos, "t-001", "u-t-001", "T001", true)
	seedTeacher(repos, "t-002", "u-t-002", "T002", false)
	seedTeacher(repos, "t-003", "u-t-003", "T003", true)

	result, err := svc.ListReviewers(context.Background())
	if err != nil {
		t.Fatalf("ListReviewers 应成功: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("期望 2 名可评阅教师，实际=%d", len(result))
	}
	// 按工号排序
	if result[0].Code != "T001" || result[1].Code != "T003" {
		t.Errorf("评阅教师应按工号排序，实际=%s, %s", result[0].Code, result[1].Code)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"capstone-hub/backend/internal/dto"
	"capstone-hub/backend/internal/model"
	"capstone-hub/backend/internal/repository"
)

// ── 评审模块业务错误 ──

var (
	ErrNotProjectEvaluator = errors.New("您不是该项目的评审教师")
	ErrScoreOutOfRange     = errors.New("评分必须在 0 到 10 之间")
	ErrUnknownCriterion    = errors.New("未知的评分项")
	ErrProjectNotScorable  = errors.New("项目当前状态不允许评分")
)

// ── 评分权重与等级线 ──

// criteriaWeights 单次评审内各评分项权重
var criteriaWeights = map[string]float64{
	"content":      0.4,
	"technical":    0.3,
	"presentation": 0.2,
	"defense":      0.1,
}

// 总评权重：指导 40%、评阅 20%、答辩委员会 40%
const (
	weightSupervisor = 0.4
	weightReviewer   = 0.2
	weightCouncil    = 0.4
)

// gradeOf 总评分换算等级
func gradeOf(score float64) string {
	switch {
	case score >= 9.0:
		return "A"
	case score >= 8.5:
		return "B+"
	case score >= 8.0:
		return "B"
	case score >= 7.5:
		return "C+"
	case score >= 7.0:
		return "C"
	case score >= 6.5:
		return "D+"
	case score >= 6.0:
		return "D"
	default:
		return "F"
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// EvaluationService 评审与成绩业务接口
type EvaluationService interface {
	SubmitEvaluation(ctx context.Context, operatorID, projectID string, req *dto.SubmitEvaluationRequest) (*dto.EvaluationResponse, error)
	SetCouncilScore(ctx context.Context, operatorID, projectID string, req *dto.SetCouncilScoreRequest) (*dto.ProjectResponse, error)
	ListEvaluations(ctx context.Context, projectID string) ([]*dto.EvaluationDetailResponse, error)
}

type evaluationService struct {
	repo         *repository.Repository
	notification NotificationService
	logger       *zap.Logger
}

// NewEvaluationService 创建 EvaluationService 实例
func NewEvaluationService(repo *repository.Repository, notification NotificationService, logger *zap.Logger) EvaluationService {
	return &evaluationService{repo: repo, notification: notification, logger: logger}
}

// ────────────────────── SubmitEvaluation ──────────────────────
//
// 指导/评阅教师提交评审。同一角色重复提交视为覆盖，总评分在
// 双方评分齐备后自动重算，整个过程在一个事务内完成。

func (s *evaluationService) SubmitEvaluation(ctx context.Context, operatorID, projectID string, req *dto.SubmitEvaluationRequest) (*dto.EvaluationResponse, error) {
	project, err := s.repo.Project.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		s.logger.Error("查询项目失败", zap.String("id", projectID), zap.Error(err))
		return nil, err
	}

	// 已注册之后、终态之前均可评分
	if project.Status == model.ProjectStatusCompleted || project.Status == model.ProjectStatusFailed {
		return nil, ErrProjectNotScorable
	}

	teacher, err := s.repo.Teacher.GetByUserID(ctx, operatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotProjectEvaluator
		}
		s.logger.Error("查询教师档案失败", zap.String("user_id", operatorID), zap.Error(err))
		return nil, err
	}

	// 只有项目绑定的对应角色教师可提交
	switch req.EvaluatorRole {
	case "supervisor":
		if project.SupervisorID == nil || *project.SupervisorID != teacher.TeacherID {
			return nil, ErrNotProjectEvaluator
		}
	case "reviewer":
		if project.ReviewerID == nil || *project.ReviewerID != teacher.TeacherID {
			return nil, ErrNotProjectEvaluator
		}
	}

	total, err := weightedTotal(req.CriteriaScore)
	if err != nil {
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

	evaluation, err := txRepo.Evaluation.GetByProjectAndRole(ctx, projectID, req.EvaluatorRole)
	switch {
	case err == nil:
		// 覆盖旧评审
		evaluation.EvaluatorID = teacher.TeacherID
		applyScores(evaluation, req.CriteriaScore, total, req)
		if err := txRepo.Evaluation.Update(ctx, evaluation); err != nil {
			tx.Rollback()
			s.logger.Error("更新评审失败", zap.String("project_id", projectID), zap.Error(err))
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		evaluation = &model.Evaluation{
			ProjectID:     projectID,
			EvaluatorID:   teacher.TeacherID,
			EvaluatorRole: req.EvaluatorRole,
		}
		applyScores(evaluation, req.CriteriaScore, total, req)
		if err := txRepo.Evaluation.Create(ctx, evaluation); err != nil {
			tx.Rollback()
			s.logger.Error("创建评审失败", zap.String("project_id", projectID), zap.Error(err))
			return nil, err
		}
	default:
		tx.Rollback()
		s.logger.Error("查询评审失败", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}

	switch req.EvaluatorRole {
	case "supervisor":
		project.SupervisorScore = &total
	case "reviewer":
		project.ReviewerScore = &total
	}
	recomputeFinal(project)
	project.UpdatedBy = &operatorID

	if err := txRepo.Project.Update(ctx, project); err != nil {
		tx.Rollback()
		s.logger.Error("写入项目评分失败", zap.String("id", projectID), zap.Error(err))
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("提交事务失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("评审已提交",
		zap.String("project_id", projectID),
		zap.String("evaluator_role", req.EvaluatorRole),
		zap.Float64("total_score", total),
	)
	s.notifyStudent(ctx, project)

	return &dto.EvaluationResponse{
		EvaluationID: evaluation.EvaluationID,
		TotalScore:   total,
	}, nil
}

// ────────────────────── SetCouncilScore ──────────────────────

func (s *evaluationService) SetCouncilScore(ctx context.Context, operatorID, projectID string, req *dto.SetCouncilScoreRequest) (*dto.ProjectResponse, error) {
	if req.CouncilScore < 0 || req.CouncilScore > 10 {
		return nil, ErrScoreOutOfRange
	}

	project, err := s.repo.Project.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		s.logger.Error("查询项目失败", zap.String("id", projectID), zap.Error(err))
		return nil, err
	}
	if project.Status == model.ProjectStatusCompleted || project.Status == model.ProjectStatusFailed {
		return nil, ErrProjectNotScorable
	}

	score := round2(req.CouncilScore)
	project.CouncilScore = &score
	recomputeFinal(project)
	project.UpdatedBy = &operatorID

	if err := s.repo.Project.Update(ctx, project); err != nil {
		s.logger.Error("写入答辩评分失败", zap.String("id", projectID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("答辩委员会评分已录入",
		zap.String("project_id", projectID),
		zap.Float64("council_score", score),
	)
	s.notifyStudent(ctx, project)

	return toProjectResponse(project), nil
}

// ────────────────────── ListEvaluations ──────────────────────

func (s *evaluationService) ListEvaluations(ctx context.Context, projectID string) ([]*dto.EvaluationDetailResponse, error) {
	if _, err := s.repo.Project.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		s.logger.Error("查询项目失败", zap.String("id", projectID), zap.Error(err))
		return nil, err
	}

	evaluations, err := s.repo.Evaluation.ListByProject(ctx, projectID)
	if err != nil {
		s.logger.Error("查询评审列表失败", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}

	resp := make([]*dto.EvaluationDetailResponse, 0, len(evaluations))
	for i := range evaluations {
		e := &evaluations[i]
		resp = append(resp, &dto.EvaluationDetailResponse{
			ID:                e.EvaluationID,
			ProjectID:         e.ProjectID,
			EvaluatorRole:     e.EvaluatorRole,
			ContentScore:      e.ContentScore,
			TechnicalScore:    e.TechnicalScore,
			PresentationScore: e.PresentationScore,
			DefenseScore:      e.DefenseScore,
			TotalScore:        e.TotalScore,
			Comments:          e.Comments,
			Strengths:         e.Strengths,
			Weaknesses:        e.Weaknesses,
			Suggestions:       e.Suggestions,
			UpdatedAt:         e.UpdatedAt.Format(time.RFC3339),
		})
	}
	return resp, nil
}

// ── 内部辅助方法 ──

// weightedTotal 按权重合成单次评审总分，缺项按 0 分计
func weightedTotal(scores map[string]float64) (float64, error) {
	total := 0.0
	for name, score := range scores {
		weight, ok := criteriaWeights[name]
		if !ok {
			return 0, ErrUnknownCriterion
		}
		if score < 0 || score > 10 {
			return 0, ErrScoreOutOfRange
		}
		total += score * weight
	}
	return round2(total), nil
}

func applyScores(e *model.Evaluation, scores map[string]float64, total float64, req *dto.SubmitEvaluationRequest) {
	e.ContentScore = scores["content"]
	e.TechnicalScore = scores["technical"]
	e.PresentationScore = scores["presentation"]
	e.DefenseScore = scores["defense"]
	e.TotalScore = total
	e.Comments = req.Comments
	e.Strengths = req.Strengths
	e.Weaknesses = req.Weaknesses
	e.Suggestions = req.Suggestions
}

// recomputeFinal 指导与评阅评分齐备后重算总评与等级。
// 答辩委员会评分缺失按 0 分计入。
func recomputeFinal(p *model.Project) {
	if p.SupervisorScore == nil || p.ReviewerScore == nil {
		return
	}
	council := 0.0
	if p.CouncilScore != nil {
		council = *p.CouncilScore
	}
	final := round2(*p.SupervisorScore*weightSupervisor + *p.ReviewerScore*weightReviewer + council*weightCouncil)
	p.FinalScore = &final
	p.Grade = gradeOf(final)
}

func (s *evaluationService) notifyStudent(ctx context.Context, project *model.Project) {
	if project.Student == nil {
		return
	}
	if project.FinalScore != nil {
		s.notification.Notify(ctx, project.Student.UserID, EventGradeFinalized,
			"成绩已生成",
			fmt.Sprintf("您的项目总评分为 %.2f，等级 %s。", *project.FinalScore, project.Grade))
		return
	}
	s.notification.Notify(ctx, project.Student.UserID, EventScoreSubmitted,
		"收到新的评审",
		"您的项目收到了新的评审评分。")
}

package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"capstone-hub/backend/internal/model"
	"capstone-hub/backend/internal/repository"
	pkgerrors "capstone-hub/backend/pkg/errors"
)

// 内存版 Repository 实现，贴近真实 SQL 语义：
// 冗余计数的条件更新用命中与否（bool 返回值）模拟 RowsAffected。

// ── Mock UserRepository ──

type mockUserRepo struct {
	users   map[string]*model.User // key: user_id
	counter int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.counter++
	if user.UserID == "" {
		user.UserID = fmt.Sprintf("user-%d", m.counter)
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, role, keyword string, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.users {
		if role != "" && u.Role != role {
			continue
		}
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UserID < all[j].UserID })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	students map[string]*model.Student
	counter  int
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: make(map[string]*model.Student)}
}

func (m *mockStudentRepo) Create(_ context.Context, student *model.Student) error {
	for _, s := range m.students {
		if s.Code == student.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	m.counter++
	if student.StudentID == "" {
		student.StudentID = fmt.Sprintf("student-%d", m.counter)
	}
	m.students[student.StudentID] = student
	return nil
}

func (m *mockStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) GetByUserID(_ context.Context, userID string) (*model.Student, error) {
	for _, s := range m.students {
		if s.UserID == userID {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) Update(_ context.Context, student *model.Student) error {
	m.students[student.StudentID] = student
	return nil
}

// ── Mock TeacherRepository ──

type mockTeacherRepo struct {
	teachers map[string]*model.Teacher
	counter  int
}

func newMockTeacherRepo() *mockTeacherRepo {
	return &mockTeacherRepo{teachers: make(map[string]*model.Teacher)}
}

func (m *mockTeacherRepo) Create(_ context.Context, teacher *model.Teacher) error {
	for _, t := range m.teachers {
		if t.Code == teacher.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	m.counter++
	if teacher.TeacherID == "" {
		teacher.TeacherID = fmt.Sprintf("teacher-%d", m.counter)
	}
	m.teachers[teacher.TeacherID] = teacher
	return nil
}

func (m *mockTeacherRepo) GetByID(_ context.Context, id string) (*model.Teacher, error) {
	if t, ok := m.teachers[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeacherRepo) GetByUserID(_ context.Context, userID string) (*model.Teacher, error) {
	for _, t := range m.teachers {
		if t.UserID == userID {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeacherRepo) Update(_ context.Context, teacher *model.Teacher) error {
	m.teachers[teacher.TeacherID] = teacher
	return nil
}

func (m *mockTeacherRepo) ListActiveReviewers(_ context.Context) ([]model.Teacher, error) {
	var result []model.Teacher
	for _, t := range m.teachers {
		if t.CanReview {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *mockTeacherRepo) ListAll(_ context.Context) ([]model.Teacher, error) {
	var result []model.Teacher
	for _, t := range m.teachers {
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *mockTeacherRepo) IncrementGuiding(_ context.Context, teacherID string) error {
	if t, ok := m.teachers[teacherID]; ok {
		t.GuidingCount++
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (m *mockTeacherRepo) DecrementGuiding(_ context.Context, teacherID string) error {
	if t, ok := m.teachers[teacherID]; ok && t.GuidingCount > 0 {
		t.GuidingCount--
	}
	return nil
}

func (m *mockTeacherRepo) SetGuidingCount(_ context.Context, teacherID string, count int) error {
	if t, ok := m.teachers[teacherID]; ok {
		t.GuidingCount = count
	}
	return nil
}

// ── Mock TopicRepository ──

type mockTopicRepo struct {
	topics  map[string]*model.Topic
	counter int
}

func newMockTopicRepo() *mockTopicRepo {
	return &mockTopicRepo{topics: make(map[string]*model.Topic)}
}

func (m *mockTopicRepo) Create(_ context.Context, topic *model.Topic) error {
	m.counter++
	if topic.TopicID == "" {
		topic.TopicID = fmt.Sprintf("topic-%d", m.counter)
	}
	m.topics[topic.TopicID] = topic
	return nil
}

func (m *mockTopicRepo) GetByID(_ context.Context, id string) (*model.Topic, error) {
	if t, ok := m.topics[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTopicRepo) List(_ context.Context, filter repository.TopicFilter) ([]model.Topic, int64, error) {
	var all []model.Topic
	for _, t := range m.topics {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Semester != "" && t.Semester != filter.Semester {
			continue
		}
		if filter.SupervisorID != "" && (t.SupervisorID == nil || *t.SupervisorID != filter.SupervisorID) {
			continue
		}
		all = append(all, *t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].TopicID < all[j].TopicID })
	total := int64(len(all))
	if filter.Offset >= len(all) {
		return nil, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[filter.Offset:end], total, nil
}

func (m *mockTopicRepo) ListByStatus(_ context.Context, status string) ([]model.Topic, error) {
	var result []model.Topic
	for _, t := range m.topics {
		if t.Status == status {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TopicID < result[j].TopicID })
	return result, nil
}

func (m *mockTopicRepo) ListAll(_ context.Context) ([]model.Topic, error) {
	var result []model.Topic
	for _, t := range m.topics {
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TopicID < result[j].TopicID })
	return result, nil
}

func (m *mockTopicRepo) Update(_ context.Context, topic *model.Topic) error {
	m.topics[topic.TopicID] = topic
	return nil
}

func (m *mockTopicRepo) Delete(_ context.Context, id string, _ string) error {
	if _, ok := m.topics[id]; !ok {
		return pkgerrors.ErrStaleWrite
	}
	delete(m.topics, id)
	return nil
}

func (m *mockTopicRepo) IncrementStudents(_ context.Context, topicID string) (bool, error) {
	t, ok := m.topics[topicID]
	if !ok || t.CurrentStudents >= t.MaxStudents {
		return false, nil
	}
	t.CurrentStudents++
	return true, nil
}

func (m *mockTopicRepo) DecrementStudents(_ context.Context, topicID string) (bool, error) {
	t, ok := m.topics[topicID]
	if !ok || t.CurrentStudents <= 0 {
		return false, nil
	}
	t.CurrentStudents--
	return true, nil
}

func (m *mockTopicRepo) SetStudentCount(_ context.Context, topicID string, count int) error {
	if t, ok := m.topics[topicID]; ok {
		t.CurrentStudents = count
	}
	return nil
}

func (m *mockTopicRepo) SetReviewer(_ context.Context, topicID string, reviewerID string, _ string) error {
	t, ok := m.topics[topicID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.ReviewerID = &reviewerID
	return nil
}

// ── Mock ProjectRepository ──

type mockProjectRepo struct {
	projects map[string]*model.Project
	counter  int
}

func newMockProjectRepo() *mockProjectRepo {
	return &mockProjectRepo{projects: make(map[string]*model.Project)}
}

func (m *mockProjectRepo) Create(_ context.Context, project *model.Project) error {
	m.counter++
	if project.ProjectID == "" {
		project.ProjectID = fmt.Sprintf("project-%d", m.counter)
	}
	m.projects[project.ProjectID] = project
	return nil
}

func (m *mockProjectRepo) GetByID(_ context.Context, id string) (*model.Project, error) {
	if p, ok := m.projects[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProjectRepo) List(_ context.Context, filter repository.ProjectFilter) ([]model.Project, int64, error) {
	var all []model.Project
	for _, p := range m.projects {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.SupervisorID != "" && (p.SupervisorID == nil || *p.SupervisorID != filter.SupervisorID) {
			continue
		}
		if filter.Semester != "" && (p.Topic == nil || p.Topic.Semester != filter.Semester) {
			continue
		}
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ProjectID < all[j].ProjectID })
	total := int64(len(all))
	if filter.Offset >= len(all) {
		return nil, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[filter.Offset:end], total, nil
}

func (m *mockProjectRepo) ListByStudent(_ context.Context, studentID string) ([]model.Project, error) {
	var result []model.Project
	for _, p := range m.projects {
		if p.StudentID == studentID {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ProjectID < result[j].ProjectID })
	return result, nil
}

func (m *mockProjectRepo) ListBySemester(_ context.Context, semester string) ([]model.Project, error) {
	var result []model.Project
	for _, p := range m.projects {
		if p.Topic != nil && p.Topic.Semester == semester {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ProjectID < result[j].ProjectID })
	return result, nil
}

func (m *mockProjectRepo) CountActiveByStudent(_ context.Context, studentID string) (int64, error) {
	var total int64
	for _, p := range m.projects {
		if p.StudentID == studentID && isActiveProjectStatus(p.Status) {
			total++
		}
	}
	return total, nil
}

func (m *mockProjectRepo) CountActiveByTopic(_ context.Context, topicID string) (int64, error) {
	var total int64
	for _, p := range m.projects {
		if p.TopicID == topicID && isActiveProjectStatus(p.Status) {
			total++
		}
	}
	return total, nil
}

func (m *mockProjectRepo) CountActiveBySupervisor(_ context.Context, teacherID string) (int64, error) {
	var total int64
	for _, p := range m.projects {
		if p.SupervisorID != nil && *p.SupervisorID == teacherID && isActiveProjectStatus(p.Status) {
			total++
		}
	}
	return total, nil
}

func (m *mockProjectRepo) Update(_ context.Context, project *model.Project) error {
	m.projects[project.ProjectID] = project
	return nil
}

func (m *mockProjectRepo) Delete(_ context.Context, id string, _ string) error {
	if _, ok := m.projects[id]; !ok {
		return pkgerrors.ErrStaleWrite
	}
	delete(m.projects, id)
	return nil
}

func isActiveProjectStatus(status string) bool {
	for _, s := range model.ActiveProjectStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// ── Mock EvaluationRepository ──

type mockEvaluationRepo struct {
	evaluations map[string]*model.Evaluation
	counter     int
}

func newMockEvaluationRepo() *mockEvaluationRepo {
	return &mockEvaluationRepo{evaluations: make(map[string]*model.Evaluation)}
}

func (m *mockEvaluationRepo) GetByProjectAndRole(_ context.Context, projectID, role string) (*model.Evaluation, error) {
	for _, e := range m.evaluations {
		if e.ProjectID == projectID && e.EvaluatorRole == role {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEvaluationRepo) ListByProject(_ context.Context, projectID string) ([]model.Evaluation, error) {
	var result []model.Evaluation
	for _, e := range m.evaluations {
		if e.ProjectID == projectID {
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EvaluatorRole < result[j].EvaluatorRole })
	return result, nil
}

func (m *mockEvaluationRepo) Create(_ context.Context, evaluation *model.Evaluation) error {
	m.counter++
	if evaluation.EvaluationID == "" {
		evaluation.EvaluationID = fmt.Sprintf("eval-%d", m.counter)
	}
	m.evaluations[evaluation.EvaluationID] = evaluation
	return nil
}

func (m *mockEvaluationRepo) Update(_ context.Context, evaluation *model.Evaluation) error {
	m.evaluations[evaluation.EvaluationID] = evaluation
	return nil
}

// ── Mock ProposalRepository ──

type mockProposalRepo struct {
	proposals map[string]*model.TopicProposal
	counter   int
}

func newMockProposalRepo() *mockProposalRepo {
	return &mockProposalRepo{proposals: make(map[string]*model.TopicProposal)}
}

func (m *mockProposalRepo) Create(_ context.Context, proposal *model.TopicProposal) error {
	m.counter++
	if proposal.ProposalID == "" {
		proposal.ProposalID = fmt.Sprintf("proposal-%d", m.counter)
	}
	m.proposals[proposal.ProposalID] = proposal
	return nil
}

func (m *mockProposalRepo) GetByID(_ context.Context, id string) (*model.TopicProposal, error) {
	if p, ok := m.proposals[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProposalRepo) list(match func(*model.TopicProposal) bool, status string, offset, limit int) ([]model.TopicProposal, int64, error) {
	var all []model.TopicProposal
	for _, p := range m.proposals {
		if !match(p) {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ProposalID < all[j].ProposalID })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockProposalRepo) ListByStudent(_ context.Context, studentID string, status string, offset, limit int) ([]model.TopicProposal, int64, error) {
	return m.list(func(p *model.TopicProposal) bool { return p.StudentID == studentID }, status, offset, limit)
}

func (m *mockProposalRepo) ListByTeacher(_ context.Context, teacherID string, status string, offset, limit int) ([]model.TopicProposal, int64, error) {
	return m.list(func(p *model.TopicProposal) bool { return p.TeacherID == teacherID }, status, offset, limit)
}

func (m *mockProposalRepo) ListAll(_ context.Context, status string, offset, limit int) ([]model.TopicProposal, int64, error) {
	return m.list(func(*model.TopicProposal) bool { return true }, status, offset, limit)
}

func (m *mockProposalRepo) CountOpenByStudent(_ context.Context, studentID string) (int64, error) {
	var total int64
	for _, p := range m.proposals {
		if p.StudentID != studentID {
			continue
		}
		if p.Status == model.ProposalStatusPending || p.Status == model.ProposalStatusApproved {
			total++
		}
	}
	return total, nil
}

func (m *mockProposalRepo) Update(_ context.Context, proposal *model.TopicProposal) error {
	m.proposals[proposal.ProposalID] = proposal
	return nil
}

func (m *mockProposalRepo) Delete(_ context.Context, id string) error {
	delete(m.proposals, id)
	return nil
}

// ── Mock ProgressReportRepository ──

type mockReportRepo struct {
	reports map[string]*model.ProgressReport
	counter int
}

func newMockReportRepo() *mockReportRepo {
	return &mockReportRepo{reports: make(map[string]*model.ProgressReport)}
}

func (m *mockReportRepo) Create(_ context.Context, report *model.ProgressReport) error {
	m.counter++
	if report.ReportID == "" {
		report.ReportID = fmt.Sprintf("report-%d", m.counter)
	}
	m.reports[report.ReportID] = report
	return nil
}

func (m *mockReportRepo) GetByID(_ context.Context, id string) (*model.ProgressReport, error) {
	if r, ok := m.reports[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReportRepo) ListByProject(_ context.Context, projectID string) ([]model.ProgressReport, error) {
	var result []model.ProgressReport
	for _, r := range m.reports {
		if r.ProjectID == projectID {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].WeekNo < result[j].WeekNo })
	return result, nil
}

func (m *mockReportRepo) Update(_ context.Context, report *model.ProgressReport) error {
	m.reports[report.ReportID] = report
	return nil
}

// ── Mock MeetingSlotRepository ──

type mockSlotRepo struct {
	slots   map[string]*model.MeetingSlot
	counter int
}

func newMockSlotRepo() *mockSlotRepo {
	return &mockSlotRepo{slots: make(map[string]*model.MeetingSlot)}
}

func (m *mockSlotRepo) Create(_ context.Context, slot *model.MeetingSlot) error {
	m.counter++
	if slot.SlotID == "" {
		slot.SlotID = fmt.Sprintf("slot-%d", m.counter)
	}
	m.slots[slot.SlotID] = slot
	return nil
}

func (m *mockSlotRepo) GetByID(_ context.Context, id string) (*model.MeetingSlot, error) {
	if s, ok := m.slots[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSlotRepo) List(_ context.Context, filter repository.SlotFilter) ([]model.MeetingSlot, error) {
	var result []model.MeetingSlot
	for _, s := range m.slots {
		if filter.TeacherID != "" && s.TeacherID != filter.TeacherID {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if filter.From != nil && s.StartsAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && s.StartsAt.After(*filter.To) {
			continue
		}
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartsAt.Before(result[j].StartsAt) })
	return result, nil
}

func (m *mockSlotRepo) Update(_ context.Context, slot *model.MeetingSlot) error {
	m.slots[slot.SlotID] = slot
	return nil
}

func (m *mockSlotRepo) Delete(_ context.Context, id string) error {
	delete(m.slots, id)
	return nil
}

func (m *mockSlotRepo) IncrementBooked(_ context.Context, slotID string) (bool, error) {
	s, ok := m.slots[slotID]
	if !ok || s.Status != model.SlotStatusOpen || s.BookedCount >= s.MaxStudents {
		return false, nil
	}
	s.BookedCount++
	return true, nil
}

func (m *mockSlotRepo) DecrementBooked(_ context.Context, slotID string) (bool, error) {
	s, ok := m.slots[slotID]
	if !ok || s.BookedCount <= 0 {
		return false, nil
	}
	s.BookedCount--
	return true, nil
}

func (m *mockSlotRepo) CloseExpired(_ context.Context, before time.Time) (int64, error) {
	var closed int64
	for _, s := range m.slots {
		if s.Status == model.SlotStatusOpen && s.EndsAt.Before(before) {
			s.Status = model.SlotStatusClosed
			closed++
		}
	}
	return closed, nil
}

// ── Mock SlotBookingRepository ──

type mockBookingRepo struct {
	bookings map[string]*model.SlotBooking
	slots    *mockSlotRepo // GetByID 模拟 Slot 预加载
	counter  int
}

func newMockBookingRepo(slots *mockSlotRepo) *mockBookingRepo {
	return &mockBookingRepo{bookings: make(map[string]*model.SlotBooking), slots: slots}
}

func (m *mockBookingRepo) Create(_ context.Context, booking *model.SlotBooking) error {
	// 部分唯一索引：同一学生对同一时段只允许一个 booked 行
	for _, b := range m.bookings {
		if b.SlotID == booking.SlotID && b.StudentID == booking.StudentID &&
			b.Status == model.BookingStatusBooked {
			return gorm.ErrDuplicatedKey
		}
	}
	m.counter++
	if booking.BookingID == "" {
		booking.BookingID = fmt.Sprintf("booking-%d", m.counter)
	}
	m.bookings[booking.BookingID] = booking
	return nil
}

func (m *mockBookingRepo) GetByID(_ context.Context, id string) (*model.SlotBooking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if b.Slot == nil && m.slots != nil {
		if s, ok := m.slots.slots[b.SlotID]; ok {
			b.Slot = s
		}
	}
	return b, nil
}

func (m *mockBookingRepo) GetActiveBySlotAndStudent(_ context.Context, slotID, studentID string) (*model.SlotBooking, error) {
	for _, b := range m.bookings {
		if b.SlotID == slotID && b.StudentID == studentID && b.Status == model.BookingStatusBooked {
			return b, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBookingRepo) CountActiveOverlapping(_ context.Context, studentID string, start, end time.Time) (int64, error) {
	var count int64
	for _, b := range m.bookings {
		if b.StudentID != studentID || b.Status != model.BookingStatusBooked {
			continue
		}
		slot, ok := m.slots.slots[b.SlotID]
		if !ok {
			continue
		}
		if slot.StartsAt.Before(end) && slot.EndsAt.After(start) {
			count++
		}
	}
	return count, nil
}

func (m *mockBookingRepo) ListByStudent(_ context.Context, studentID string) ([]model.SlotBooking, error) {
	var result []model.SlotBooking
	for _, b := range m.bookings {
		if b.StudentID == studentID {
			bc := *b
			if bc.Slot == nil && m.slots != nil {
				if s, ok := m.slots.slots[bc.SlotID]; ok {
					bc.Slot = s
				}
			}
			result = append(result, bc)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].BookingID < result[j].BookingID })
	return result, nil
}

func (m *mockBookingRepo) ListBySlot(_ context.Context, slotID string) ([]model.SlotBooking, error) {
	var result []model.SlotBooking
	for _, b := range m.bookings {
		if b.SlotID == slotID {
			result = append(result, *b)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].BookingID < result[j].BookingID })
	return result, nil
}

func (m *mockBookingRepo) Update(_ context.Context, booking *model.SlotBooking) error {
	m.bookings[booking.BookingID] = booking
	return nil
}

// ── Mock AnnouncementRepository ──

type mockAnnouncementRepo struct {
	announcements map[string]*model.Announcement
	counter       int
}

func newMockAnnouncementRepo() *mockAnnouncementRepo {
	return &mockAnnouncementRepo{announcements: make(map[string]*model.Announcement)}
}

func (m *mockAnnouncementRepo) Create(_ context.Context, announcement *model.Announcement) error {
	m.counter++
	if announcement.AnnouncementID == "" {
		announcement.AnnouncementID = fmt.Sprintf("announcement-%d", m.counter)
	}
	m.announcements[announcement.AnnouncementID] = announcement
	return nil
}

func (m *mockAnnouncementRepo) GetByID(_ context.Context, id string) (*model.Announcement, error) {
	if a, ok := m.announcements[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAnnouncementRepo) GetCurrentPublished(_ context.Context, semester string) (*model.Announcement, error) {
	var latest *model.Announcement
	for _, a := range m.announcements {
		if !a.Published {
			continue
		}
		if semester != "" && a.Semester != semester {
			continue
		}
		if latest == nil || (a.PublishedAt != nil && latest.PublishedAt != nil && a.PublishedAt.After(*latest.PublishedAt)) {
			latest = a
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (m *mockAnnouncementRepo) List(_ context.Context, publishedOnly bool) ([]model.Announcement, error) {
	var result []model.Announcement
	for _, a := range m.announcements {
		if publishedOnly && !a.Published {
			continue
		}
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AnnouncementID < result[j].AnnouncementID })
	return result, nil
}

func (m *mockAnnouncementRepo) Update(_ context.Context, announcement *model.Announcement) error {
	m.announcements[announcement.AnnouncementID] = announcement
	return nil
}

func (m *mockAnnouncementRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.announcements, id)
	return nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	notifications map[string]*model.Notification
	counter       int
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{notifications: make(map[string]*model.Notification)}
}

func (m *mockNotificationRepo) Create(_ context.Context, notification *model.Notification) error {
	m.counter++
	if notification.NotificationID == "" {
		notification.NotificationID = fmt.Sprintf("notification-%d", m.counter)
	}
	m.notifications[notification.NotificationID] = notification
	return nil
}

func (m *mockNotificationRepo) GetByID(_ context.Context, id string) (*model.Notification, error) {
	if n, ok := m.notifications[id]; ok {
		return n, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	var all []model.Notification
	for _, n := range m.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		all = append(all, *n)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].NotificationID < all[j].NotificationID })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id string) error {
	if n, ok := m.notifications[id]; ok {
		n.IsRead = true
	}
	return nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string) error {
	for _, n := range m.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

// countByUser 测试辅助：统计某用户收到的通知数
func (m *mockNotificationRepo) countByUser(userID string) int {
	count := 0
	for _, n := range m.notifications {
		if n.UserID == userID {
			count++
		}
	}
	return count
}

// ── Mock SystemStateRepository ──

type mockSystemStateRepo struct {
	state model.SystemState
}

func newMockSystemStateRepo() *mockSystemStateRepo {
	return &mockSystemStateRepo{state: model.SystemState{ID: 1}}
}

func (m *mockSystemStateRepo) Get(_ context.Context) (*model.SystemState, error) {
	s := m.state
	return &s, nil
}

func (m *mockSystemStateRepo) MarkInitialized(_ context.Context) (bool, error) {
	if m.state.Initialized {
		return false, nil
	}
	now := time.Now()
	m.state.Initialized = true
	m.state.InitializedAt = &now
	return true, nil
}

// ── 测试用聚合 ──

type testRepos struct {
	repo          *repository.Repository
	users         *mockUserRepo
	students      *mockStudentRepo
	teachers      *mockTeacherRepo
	topics        *mockTopicRepo
	projects      *mockProjectRepo
	evaluations   *mockEvaluationRepo
	proposals     *mockProposalRepo
	reports       *mockReportRepo
	slots         *mockSlotRepo
	bookings      *mockBookingRepo
	announcements *mockAnnouncementRepo
	notifications *mockNotificationRepo
	systemState   *mockSystemStateRepo
}

func newTestRepos() *testRepos {
	users := newMockUserRepo()
	students := newMockStudentRepo()
	teachers := newMockTeacherRepo()
	topics := newMockTopicRepo()
	projects := newMockProjectRepo()
	evaluations := newMockEvaluationRepo()
	proposals := newMockProposalRepo()
	reports := newMockReportRepo()
	slots := newMockSlotRepo()
	bookings := newMockBookingRepo(slots)
	announcements := newMockAnnouncementRepo()
	notifications := newMockNotificationRepo()
	systemState := newMockSystemStateRepo()

	return &testRepos{
		repo: &repository.Repository{
			User:         users,
			Student:      students,
			Teacher:      teachers,
			Topic:        topics,
			Project:      projects,
			Evaluation:   evaluations,
			Proposal:     proposals,
			Report:       reports,
			Slot:         slots,
			Booking:      bookings,
			Announcement: announcements,
			Notification: notifications,
			SystemState:  systemState,
		},
		users:         users,
		students:      students,
		teachers:      teachers,
		topics:        topics,
		projects:      projects,
		evaluations:   evaluations,
		proposals:     proposals,
		reports:       reports,
		slots:         slots,
		bookings:      bookings,
		announcements: announcements,
		notifications: notifications,
		systemState:   systemState,
	}
}

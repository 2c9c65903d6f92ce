package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/eddwmvv/projetovereler-sub001/internal/model"
	"github.com/eddwmvv/projetovereler-sub001/internal/repository"
)

// ── generic CRUD mock ──

// mockCRUD stores copies so callers never alias stored rows
type mockCRUD[T any] struct {
	rows   map[string]*T
	id     func(*T) *string
	prefix string
	seq    int
}

func newMockCRUD[T any](prefix string, id func(*T) *string) mockCRUD[T] {
	return mockCRUD[T]{rows: make(map[string]*T), id: id, prefix: prefix}
}

func (m *mockCRUD[T]) put(entity *T) {
	cp := *entity
	m.rows[*m.id(&cp)] = &cp
}

func (m *mockCRUD[T]) Create(_ context.Context, entity *T) error {
	for *m.id(entity) == "" {
		m.seq++
		id := fmt.Sprintf("%s-%d", m.prefix, m.seq)
		if _, taken := m.rows[id]; !taken {
			*m.id(entity) = id
		}
	}
	m.put(entity)
	return nil
}

func (m *mockCRUD[T]) GetByID(_ context.Context, id string) (*T, error) {
	if row, ok := m.rows[id]; ok {
		cp := *row
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCRUD[T]) Update(_ context.Context, entity *T) error {
	if _, ok := m.rows[*m.id(entity)]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.put(entity)
	return nil
}

func (m *mockCRUD[T]) Delete(_ context.Context, id string) error {
	if _, ok := m.rows[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *mockCRUD[T]) all() []T {
	out := make([]T, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, *row)
	}
	return out
}

func page[T any](rows []T, offset, limit int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users    map[string]*model.User
	profiles map[string]*model.Profile
	roles    map[string][]model.UserRole
	seq      int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		users:    make(map[string]*model.User),
		profiles: make(map[string]*model.Profile),
		roles:    make(map[string][]model.UserRole),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) CreateProfile(_ context.Context, profile *model.Profile) error {
	profile.ProfileID = "profile-" + profile.UserID
	cp := *profile
	m.profiles[profile.UserID] = &cp
	return nil
}

func (m *mockUserRepo) AddRole(_ context.Context, role *model.UserRole) error {
	role.UserRoleID = "role-" + role.UserID + "-" + role.Role
	m.roles[role.UserID] = append(m.roles[role.UserID], *role)
	return nil
}

func (m *mockUserRepo) hydrate(u *model.User) *model.User {
	cp := *u
	if p, ok := m.profiles[u.UserID]; ok {
		pc := *p
		cp.Profile = &pc
	}
	cp.Roles = append([]model.UserRole(nil), m.roles[u.UserID]...)
	return &cp
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return m.hydrate(u), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return m.hydrate(u), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) TouchSignIn(_ context.Context, id string, at time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.LastSignInAt = &at
	return nil
}

func (m *mockUserRepo) CountByRole(_ context.Context, role string) (int64, error) {
	var n int64
	for _, roles := range m.roles {
		for _, r := range roles {
			if r.Role == role {
				n++
			}
		}
	}
	return n, nil
}

// ── Mock registry repositories ──

type mockCompanyRepo struct {
	mockCRUD[model.Company]
}

func newMockCompanyRepo() *mockCompanyRepo {
	return &mockCompanyRepo{newMockCRUD[model.Company]("comp", func(c *model.Company) *string { return &c.CompanyID })}
}

func (m *mockCompanyRepo) List(_ context.Context, f repository.CompanyFilter, offset, limit int) ([]model.Company, int64, error) {
	var out []model.Company
	for _, c := range m.all() {
		if f.CompanyID != "" && c.CompanyID != f.CompanyID {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(c.LegalName+" "+c.TradeName), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LegalName < out[j].LegalName })
	return page(out, offset, limit), int64(len(out)), nil
}

type mockProjectRepo struct {
	mockCRUD[model.Project]
}

func newMockProjectRepo() *mockProjectRepo {
	return &mockProjectRepo{newMockCRUD[model.Project]("prj", func(p *model.Project) *string { return &p.ProjectID })}
}

func (m *mockProjectRepo) List(_ context.Context, f repository.ProjectFilter, offset, limit int) ([]model.Project, int64, error) {
	var out []model.Project
	for _, p := range m.all() {
		if f.CompanyID != "" && p.CompanyID != f.CompanyID {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, offset, limit), int64(len(out)), nil
}

func (m *mockProjectRepo) ListByIDs(_ context.Context, ids []string) ([]model.Project, error) {
	var out []model.Project
	for _, id := range ids {
		if p, ok := m.rows[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProjectRepo) ReplaceMunicipalities(_ context.Context, project *model.Project, municipalities []model.Municipality) error {
	p, ok := m.rows[project.ProjectID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Municipalities = append([]model.Municipality(nil), municipalities...)
	return nil
}

type mockMunicipalityRepo struct {
	mockCRUD[model.Municipality]
}

func newMockMunicipalityRepo() *mockMunicipalityRepo {
	return &mockMunicipalityRepo{newMockCRUD[model.Municipality]("mun", func(m *model.Municipality) *string { return &m.MunicipalityID })}
}

func (m *mockMunicipalityRepo) List(_ context.Context, f repository.MunicipalityFilter) ([]model.Municipality, error) {
	var out []model.Municipality
	for _, mu := range m.all() {
		if f.StateCode != "" && mu.StateCode != f.StateCode {
			continue
		}
		out = append(out, mu)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockMunicipalityRepo) ListByIDs(_ context.Context, ids []string) ([]model.Municipality, error) {
	var out []model.Municipality
	for _, id := range ids {
		if mu, ok := m.rows[id]; ok {
			out = append(out, *mu)
		}
	}
	return out, nil
}

type mockSchoolRepo struct {
	mockCRUD[model.School]
}

func newMockSchoolRepo() *mockSchoolRepo {
	return &mockSchoolRepo{newMockCRUD[model.School]("sch", func(s *model.School) *string { return &s.SchoolID })}
}

func (m *mockSchoolRepo) List(_ context.Context, f repository.SchoolFilter, offset, limit int) ([]model.School, int64, error) {
	var out []model.School
	for _, s := range m.all() {
		if f.CompanyID != "" && s.CompanyID != f.CompanyID {
			continue
		}
		if f.MunicipalityID != "" && s.MunicipalityID != f.MunicipalityID {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, offset, limit), int64(len(out)), nil
}

func (m *mockSchoolRepo) ReplaceProjects(_ context.Context, school *model.School, projects []model.Project) error {
	s, ok := m.rows[school.SchoolID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Projects = append([]model.Project(nil), projects...)
	return nil
}

type mockClassRepo struct {
	mockCRUD[model.Class]
	schools *mockSchoolRepo
}

func newMockClassRepo(schools *mockSchoolRepo) *mockClassRepo {
	return &mockClassRepo{
		mockCRUD: newMockCRUD[model.Class]("cls", func(c *model.Class) *string { return &c.ClassID }),
		schools:  schools,
	}
}

// GetByID preloads the school like the gorm repository does
func (m *mockClassRepo) GetByID(ctx context.Context, id string) (*model.Class, error) {
	c, err := m.mockCRUD.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s, ok := m.schools.rows[c.SchoolID]; ok {
		sc := *s
		c.School = &sc
	}
	return c, nil
}

func (m *mockClassRepo) List(_ context.Context, f repository.ClassFilter) ([]model.Class, error) {
	var out []model.Class
	for _, c := range m.all() {
		if f.SchoolID != "" && c.SchoolID != f.SchoolID {
			continue
		}
		if f.CompanyID != "" {
			if s, ok := m.schools.rows[c.SchoolID]; !ok || s.CompanyID != f.CompanyID {
				continue
			}
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	mockCRUD[model.Student]
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{newMockCRUD[model.Student]("stu", func(s *model.Student) *string { return &s.StudentID })}
}

func (m *mockStudentRepo) List(_ context.Context, f repository.StudentFilter, offset, limit int) ([]model.Student, int64, error) {
	var out []model.Student
	for _, s := range m.all() {
		if studentMatches(&s, f) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FullName != out[j].FullName {
			return out[i].FullName < out[j].FullName
		}
		return out[i].StudentID < out[j].StudentID
	})
	return page(out, offset, limit), int64(len(out)), nil
}

func studentMatches(s *model.Student, f repository.StudentFilter) bool {
	switch {
	case f.ClassID != "" && s.ClassID != f.ClassID,
		f.SchoolID != "" && s.SchoolID != f.SchoolID,
		f.MunicipalityID != "" && s.MunicipalityID != f.MunicipalityID,
		f.ProjectID != "" && s.ProjectID != f.ProjectID,
		f.CompanyID != "" && s.CompanyID != f.CompanyID,
		f.Sex != "" && s.Sex != f.Sex,
		f.Active != nil && s.IsActive != *f.Active,
		f.Search != "" && !strings.Contains(strings.ToLower(s.FullName), strings.ToLower(f.Search)),
		f.CreatedFrom != nil && s.CreatedAt.Before(*f.CreatedFrom),
		f.CreatedTo != nil && !s.CreatedAt.Before(*f.CreatedTo):
		return false
	}
	if len(f.Phases) > 0 {
		for _, p := range f.Phases {
			if s.Phase == p {
				return true
			}
		}
		return false
	}
	return true
}

func (m *mockStudentRepo) ListByIDs(_ context.Context, ids []string) ([]model.Student, error) {
	var out []model.Student
	for _, id := range ids {
		if s, ok := m.rows[id]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

// ── Mock PhaseHistoryRepository ──

type mockPhaseHistoryRepo struct {
	rows []model.PhaseHistory
}

func newMockPhaseHistoryRepo() *mockPhaseHistoryRepo {
	return &mockPhaseHistoryRepo{}
}

func (m *mockPhaseHistoryRepo) Create(_ context.Context, h *model.PhaseHistory) error {
	h.PhaseHistoryID = fmt.Sprintf("ph-%d", len(m.rows)+1)
	h.CreatedAt = mockClock(len(m.rows))
	m.rows = append(m.rows, *h)
	return nil
}

func (m *mockPhaseHistoryRepo) ListByStudent(_ context.Context, studentID string) ([]model.PhaseHistory, error) {
	var out []model.PhaseHistory
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].StudentID == studentID {
			out = append(out, m.rows[i])
		}
	}
	return out, nil
}

func (m *mockPhaseHistoryRepo) forStudent(studentID string) []model.PhaseHistory {
	rows, _ := m.ListByStudent(context.Background(), studentID)
	return rows
}

// mockClock deterministic, strictly increasing history timestamps
func mockClock(n int) time.Time {
	return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC).Add(time.Duration(n) * time.Second)
}

// ── Mock frame repositories ──

type mockFrameRepo struct {
	mockCRUD[model.Frame]
	history *mockFrameHistoryRepo
	sizes   *mockFrameSizeRepo
	nextSeq int64
}

func newMockFrameRepo(history *mockFrameHistoryRepo, sizes *mockFrameSizeRepo) *mockFrameRepo {
	return &mockFrameRepo{
		mockCRUD: newMockCRUD[model.Frame]("frm", func(f *model.Frame) *string { return &f.FrameID }),
		history:  history,
		sizes:    sizes,
	}
}

func (m *mockFrameRepo) withSize(f model.Frame) model.Frame {
	if f.FrameSizeID != nil {
		if s, ok := m.sizes.rows[*f.FrameSizeID]; ok {
			sc := *s
			f.Size = &sc
		}
	}
	return f
}

func (m *mockFrameRepo) sorted(keep func(*model.Frame) bool) []model.Frame {
	var out []model.Frame
	for _, f := range m.all() {
		if keep(&f) {
			out = append(out, m.withSize(f))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Numbering < out[j].Numbering })
	return out
}

func (m *mockFrameRepo) List(_ context.Context, f repository.FrameFilter, offset, limit int) ([]model.Frame, int64, error) {
	out := m.sorted(func(fr *model.Frame) bool {
		if f.Status != "" && fr.Status != f.Status {
			return false
		}
		if f.FrameSizeID != "" && (fr.FrameSizeID == nil || *fr.FrameSizeID != f.FrameSizeID) {
			return false
		}
		return f.Search == "" || strings.Contains(fr.Numbering, f.Search)
	})
	return page(out, offset, limit), int64(len(out)), nil
}

func (m *mockFrameRepo) ListByNumberings(_ context.Context, numberings []string) ([]model.Frame, error) {
	want := make(map[string]bool, len(numberings))
	for _, n := range numberings {
		want[n] = true
	}
	return m.sorted(func(fr *model.Frame) bool { return want[fr.Numbering] }), nil
}

func (m *mockFrameRepo) ListAvailable(_ context.Context, limit int) ([]model.Frame, error) {
	out := m.sorted(func(fr *model.Frame) bool { return fr.Status == model.FrameAvailable })
	return page(out, 0, limit), nil
}

func (m *mockFrameRepo) CreateBatch(ctx context.Context, frames []model.Frame) error {
	for i := range frames {
		for _, existing := range m.rows {
			if existing.Numbering == frames[i].Numbering {
				return fmt.Errorf("duplicate numbering %s", frames[i].Numbering)
			}
		}
		if err := m.Create(ctx, &frames[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockFrameRepo) NextNumbering(_ context.Context) (int64, error) {
	m.nextSeq++
	return m.nextSeq, nil
}

func (m *mockFrameRepo) MarkUsedIfAvailable(_ context.Context, frameID, _ string) (bool, error) {
	f, ok := m.rows[frameID]
	if !ok || f.Status != model.FrameAvailable {
		return false, nil
	}
	f.Status = model.FrameUsed
	return true, nil
}

func (m *mockFrameRepo) SetStatus(_ context.Context, frameID string, status model.FrameStatus, _ string) error {
	f, ok := m.rows[frameID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.Status = status
	return nil
}

func (m *mockFrameRepo) CurrentForStudents(_ context.Context, studentIDs []string) (map[string]model.Frame, error) {
	want := make(map[string]bool, len(studentIDs))
	for _, id := range studentIDs {
		want[id] = true
	}
	latest := make(map[string]model.FrameHistory)
	for _, h := range m.history.rows {
		latest[h.FrameID] = h
	}
	held := make(map[string]model.Frame)
	for frameID, h := range latest {
		f, ok := m.rows[frameID]
		if !ok || f.Status != model.FrameUsed || h.Status != model.FrameHistoryAssigned || h.StudentID == nil {
			continue
		}
		if want[*h.StudentID] {
			held[*h.StudentID] = *f
		}
	}
	return held, nil
}

func (m *mockFrameRepo) status(id string) model.FrameStatus {
	return m.rows[id].Status
}

type mockFrameSizeRepo struct {
	mockCRUD[model.FrameSize]
}

func newMockFrameSizeRepo() *mockFrameSizeRepo {
	return &mockFrameSizeRepo{newMockCRUD[model.FrameSize]("size", func(s *model.FrameSize) *string { return &s.FrameSizeID })}
}

func (m *mockFrameSizeRepo) List(_ context.Context) ([]model.FrameSize, error) {
	out := m.all()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockFrameSizeRepo) ListByNames(_ context.Context, names []string) ([]model.FrameSize, error) {
	var out []model.FrameSize
	for _, s := range m.all() {
		for _, n := range names {
			if s.Name == n {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

type mockFrameHistoryRepo struct {
	rows   []model.FrameHistory
	frames *mockFrameRepo
}

func newMockFrameHistoryRepo() *mockFrameHistoryRepo {
	return &mockFrameHistoryRepo{}
}

func (m *mockFrameHistoryRepo) Create(_ context.Context, h *model.FrameHistory) error {
	h.FrameHistoryID = fmt.Sprintf("fh-%d", len(m.rows)+1)
	h.CreatedAt = mockClock(len(m.rows))
	m.rows = append(m.rows, *h)
	return nil
}

// failingFrameHistoryRepo fails the failAt-th Create and delegates the rest
type failingFrameHistoryRepo struct {
	repository.FrameHistoryRepository
	failAt int
	calls  int
	err    error
}

func (m *failingFrameHistoryRepo) Create(ctx context.Context, h *model.FrameHistory) error {
	m.calls++
	if m.calls == m.failAt {
		return m.err
	}
	return m.FrameHistoryRepository.Create(ctx, h)
}

func (m *mockFrameHistoryRepo) ListByFrame(_ context.Context, frameID string) ([]model.FrameHistory, error) {
	var out []model.FrameHistory
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].FrameID == frameID {
			out = append(out, m.rows[i])
		}
	}
	return out, nil
}

func (m *mockFrameHistoryRepo) ListByStudent(_ context.Context, studentID string) ([]model.FrameHistory, error) {
	var out []model.FrameHistory
	for i := len(m.rows) - 1; i >= 0; i-- {
		h := m.rows[i]
		if h.StudentID == nil || *h.StudentID != studentID {
			continue
		}
		if m.frames != nil {
			if f, ok := m.frames.rows[h.FrameID]; ok {
				fc := *f
				h.Frame = &fc
			}
		}
		out = append(out, h)
	}
	return out, nil
}

// ── Mock ReportRepository ──

type mockReportRepo struct {
	st *mockStore
}

func (m *mockReportRepo) SchoolNames(_ context.Context, companyID string) (map[string]string, error) {
	out := make(map[string]string)
	for _, s := range m.st.schools.rows {
		if companyID == "" || s.CompanyID == companyID {
			out[s.SchoolID] = s.Name
		}
	}
	return out, nil
}

func (m *mockReportRepo) MunicipalityNames(_ context.Context) (map[string]string, error) {
	out := make(map[string]string)
	for _, mu := range m.st.municipalities.rows {
		out[mu.MunicipalityID] = mu.Name + " / " + mu.StateCode
	}
	return out, nil
}

func (m *mockReportRepo) CompanyNames(_ context.Context, companyID string) (map[string]string, error) {
	out := make(map[string]string)
	for _, c := range m.st.companies.rows {
		if companyID == "" || c.CompanyID == companyID {
			out[c.CompanyID] = c.LegalName
		}
	}
	return out, nil
}

func (m *mockReportRepo) ClassNames(_ context.Context, _ string) (map[string]string, error) {
	out := make(map[string]string)
	for _, c := range m.st.classes.rows {
		out[c.ClassID] = c.Name
	}
	return out, nil
}

func (m *mockReportRepo) FrameCounts(_ context.Context) ([]repository.FrameCountRow, error) {
	type key struct {
		status model.FrameStatus
		size   string
	}
	counts := make(map[key]int)
	for _, f := range m.st.frames.rows {
		k := key{status: f.Status}
		if f.FrameSizeID != nil {
			if s, ok := m.st.sizes.rows[*f.FrameSizeID]; ok {
				k.size = s.Name
			}
		}
		counts[k]++
	}
	var out []repository.FrameCountRow
	for k, n := range counts {
		out = append(out, repository.FrameCountRow{Status: k.status, SizeName: k.size, Count: n})
	}
	return out, nil
}

// ── Mock ReportCache ──

type mockReportCache struct {
	values        map[string][]byte
	generation    int64
	invalidations int
	hits          int
	// beforeSet runs inside SetJSON before the value is stored
	beforeSet func()
}

func newMockReportCache() *mockReportCache {
	return &mockReportCache{values: make(map[string][]byte)}
}

func (c *mockReportCache) GetJSON(_ context.Context, key string, dst interface{}) (bool, error) {
	raw, ok := c.values[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(raw, dst)
}

func (c *mockReportCache) SetJSON(_ context.Context, key string, v interface{}, _ time.Duration) error {
	if c.beforeSet != nil {
		c.beforeSet()
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.values[key] = raw
	return nil
}

func (c *mockReportCache) ReportGeneration(_ context.Context) (int64, error) {
	return c.generation, nil
}

func (c *mockReportCache) InvalidateReports(_ context.Context) error {
	c.invalidations++
	c.generation++
	c.values = make(map[string][]byte)
	return nil
}

// ── store fixture ──

type mockStore struct {
	users          *mockUserRepo
	companies      *mockCompanyRepo
	projects       *mockProjectRepo
	municipalities *mockMunicipalityRepo
	schools        *mockSchoolRepo
	classes        *mockClassRepo
	students       *mockStudentRepo
	phaseHistory   *mockPhaseHistoryRepo
	frames         *mockFrameRepo
	sizes          *mockFrameSizeRepo
	frameHistory   *mockFrameHistoryRepo
	repo           *repository.Repository
}

// newMockStore wires every mock into a Repository without a database, so
// Transaction runs its callback directly against the mocks
func newMockStore() *mockStore {
	st := &mockStore{
		users:          newMockUserRepo(),
		companies:      newMockCompanyRepo(),
		projects:       newMockProjectRepo(),
		municipalities: newMockMunicipalityRepo(),
		schools:        newMockSchoolRepo(),
		phaseHistory:   newMockPhaseHistoryRepo(),
		students:       newMockStudentRepo(),
		sizes:          newMockFrameSizeRepo(),
		frameHistory:   newMockFrameHistoryRepo(),
	}
	st.classes = newMockClassRepo(st.schools)
	st.frames = newMockFrameRepo(st.frameHistory, st.sizes)
	st.frameHistory.frames = st.frames

	st.repo = &repository.Repository{
		User:         st.users,
		Company:      st.companies,
		Project:      st.projects,
		Municipality: st.municipalities,
		School:       st.schools,
		Class:        st.classes,
		Student:      st.students,
		PhaseHistory: st.phaseHistory,
		Frame:        st.frames,
		FrameSize:    st.sizes,
		FrameHistory: st.frameHistory,
		Report:       &mockReportRepo{st: st},
	}
	return st
}

var (
	adminSess  = Session{UserID: "admin-1", Role: model.RoleAdmin}
	gestorSess = Session{UserID: "gestor-1", Role: model.RoleGestor, CompanyID: "comp-1"}
	otherSess  = Session{UserID: "gestor-2", Role: model.RoleGestor, CompanyID: "comp-2"}
)

// seedRegistry two companies, one municipality, one school and class of
// comp-1, one project per company
func (st *mockStore) seedRegistry() {
	st.companies.put(&model.Company{CompanyID: "comp-1", LegalName: "Instituto Olhar", TaxID: "11222333000181", Status: model.StatusActive})
	st.companies.put(&model.Company{CompanyID: "comp-2", LegalName: "Fundação Visão", TaxID: "11444777000161", Status: model.StatusActive})
	st.municipalities.put(&model.Municipality{MunicipalityID: "mun-1", Name: "Campinas", StateCode: "SP"})
	st.projects.put(&model.Project{ProjectID: "prj-1", CompanyID: "comp-1", Name: "Ver e Ler 2026", Status: model.StatusActive})
	st.projects.put(&model.Project{ProjectID: "prj-2", CompanyID: "comp-2", Name: "Outro Projeto", Status: model.StatusActive})
	st.schools.put(&model.School{SchoolID: "sch-1", Name: "EE Central", MunicipalityID: "mun-1", CompanyID: "comp-1"})
	st.classes.put(&model.Class{ClassID: "cls-1", SchoolID: "sch-1", Name: "3A", Grade: "3", Shift: model.ShiftMorning, SchoolYear: 2026, Status: model.StatusActive})
}

func (st *mockStore) addStudent(id, name string, phase model.Phase, active bool) *model.Student {
	s := &model.Student{
		StudentID:      id,
		ClassID:        "cls-1",
		SchoolID:       "sch-1",
		MunicipalityID: "mun-1",
		ProjectID:      "prj-1",
		CompanyID:      "comp-1",
		FullName:       name,
		Sex:            model.SexFemale,
		Phase:          phase,
		PhaseStatus:    model.PhaseStatusPending,
		IsActive:       active,
	}
	st.students.put(s)
	return s
}

func (st *mockStore) addFrame(id, numbering string, status model.FrameStatus) *model.Frame {
	f := &model.Frame{FrameID: id, Numbering: numbering, Status: status}
	st.frames.put(f)
	return f
}

func (st *mockStore) student(id string) *model.Student {
	return st.students.rows[id]
}

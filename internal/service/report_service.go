package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eddwmvv/projetovereler-sub001/config"
	"github.com/eddwmvv/projetovereler-sub001/internal/dto"
	"github.com/eddwmvv/projetovereler-sub001/internal/model"
	"github.com/eddwmvv/projetovereler-sub001/internal/repository"
	pkgerrors "github.com/eddwmvv/projetovereler-sub001/pkg/errors"
)

// ReportService read-side rollups. Loading hits the store, aggregation is
// pure (BuildDashboard, BuildInventorySummary).
type ReportService interface {
	Dashboard(ctx context.Context, sess Session, req *dto.ReportFilterRequest) (*dto.DashboardResponse, error)
	InventorySummary(ctx context.Context) (*dto.InventorySummaryResponse, error)
}

type reportService struct {
	cfg    *config.ReportConfig
	repo   *repository.Repository
	cache  ReportCache
	logger *zap.Logger
}

// NewReportService creates a ReportService; a nil cache disables caching
func NewReportService(cfg *config.ReportConfig, repo *repository.Repository, cache ReportCache, logger *zap.Logger) ReportService {
	return &reportService{cfg: cfg, repo: repo, cache: cache, logger: logger}
}

// ────────────────────── filter ──────────────────────

// ReportFilter parsed report filter; zero values are ignored, To is exclusive
type ReportFilter struct {
	From            *time.Time
	To              *time.Time
	Phases          []model.Phase
	SchoolID        string
	MunicipalityID  string
	CompanyID       string
	ProjectID       string
	Sex             string
	IncludeInactive bool
}

// ParseReportFilter converts the request; the To date is inclusive on input
func ParseReportFilter(req *dto.ReportFilterRequest) (ReportFilter, error) {
	f := ReportFilter{
		SchoolID:        req.SchoolID,
		MunicipalityID:  req.MunicipalityID,
		CompanyID:       req.CompanyID,
		ProjectID:       req.ProjectID,
		Sex:             req.Sex,
		IncludeInactive: req.IncludeInactive,
	}
	if req.From != "" {
		t, err := time.Parse(dto.DateLayout, req.From)
		if err != nil {
			return f, pkgerrors.NewValidation(pkgerrors.KindInvalidField, "from must be YYYY-MM-DD", req.From)
		}
		f.From = &t
	}
	if req.To != "" {
		t, err := time.Parse(dto.DateLayout, req.To)
		if err != nil {
			return f, pkgerrors.NewValidation(pkgerrors.KindInvalidField, "to must be YYYY-MM-DD", req.To)
		}
		t = t.AddDate(0, 0, 1)
		f.To = &t
	}
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return f, pkgerrors.NewValidation(pkgerrors.KindInvalidField, "from must not be after to", req.From, req.To)
	}

	seen := make(map[model.Phase]bool)
	for _, raw := range req.Phases {
		p := model.Phase(raw)
		if !p.Valid() {
			return f, pkgerrors.NewValidation(pkgerrors.KindInvalidField, "unknown phase", raw)
		}
		if !seen[p] {
			seen[p] = true
			f.Phases = append(f.Phases, p)
		}
	}
	sort.Slice(f.Phases, func(i, j int) bool { return f.Phases[i].Rank() < f.Phases[j].Rank() })
	return f, nil
}

// Matches applies every criterion except the active flag
func (f ReportFilter) Matches(st *model.Student) bool {
	if f.From != nil && st.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !st.CreatedAt.Before(*f.To) {
		return false
	}
	if len(f.Phases) > 0 {
		found := false
		for _, p := range f.Phases {
			if st.Phase == p {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	switch {
	case f.SchoolID != "" && st.SchoolID != f.SchoolID,
		f.MunicipalityID != "" && st.MunicipalityID != f.MunicipalityID,
		f.CompanyID != "" && st.CompanyID != f.CompanyID,
		f.ProjectID != "" && st.ProjectID != f.ProjectID,
		f.Sex != "" && st.Sex != f.Sex:
		return false
	}
	return true
}

func (f ReportFilter) studentFilter() repository.StudentFilter {
	return repository.StudentFilter{
		SchoolID:       f.SchoolID,
		MunicipalityID: f.MunicipalityID,
		ProjectID:      f.ProjectID,
		CompanyID:      f.CompanyID,
		Phases:         f.Phases,
		Sex:            f.Sex,
		CreatedFrom:    f.From,
		CreatedTo:      f.To,
	}
}

// cacheKey stable key for a normalized filter
func (f ReportFilter) cacheKey() string {
	day := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format(dto.DateLayout)
	}
	phases := make([]string, len(f.Phases))
	for i, p := range f.Phases {
		phases[i] = string(p)
	}
	return fmt.Sprintf("dashboard:%s:%s:%s:%s:%s:%s:%s:%s:%t",
		day(f.From), day(f.To), strings.Join(phases, ","),
		f.SchoolID, f.MunicipalityID, f.CompanyID, f.ProjectID, f.Sex, f.IncludeInactive)
}

// ReportNames labels for the per-entity rollups
type ReportNames struct {
	Schools        map[string]string
	Municipalities map[string]string
	Companies      map[string]string
}

// ────────────────────── Dashboard ──────────────────────

func (s *reportService) Dashboard(ctx context.Context, sess Session, req *dto.ReportFilterRequest) (*dto.DashboardResponse, error) {
	filter, err := ParseReportFilter(req)
	if err != nil {
		return nil, err
	}
	if filter.CompanyID, err = sess.scopedCompany(filter.CompanyID); err != nil {
		return nil, err
	}

	key, cacheable := s.versionedKey(ctx, filter.cacheKey())
	var cached dto.DashboardResponse
	if cacheable && s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	var (
		students []model.Student
		names    ReportNames
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		students, _, err = s.repo.Student.List(gctx, filter.studentFilter(), 0, 0)
		return err
	})
	g.Go(func() error {
		var err error
		names.Schools, err = s.repo.Report.SchoolNames(gctx, filter.CompanyID)
		return err
	})
	g.Go(func() error {
		var err error
		names.Municipalities, err = s.repo.Report.MunicipalityNames(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		names.Companies, err = s.repo.Report.CompanyNames(gctx, filter.CompanyID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load report snapshot", zap.Error(err))
		return nil, err
	}

	resp := BuildDashboard(students, names, filter, time.Now())
	if cacheable {
		s.cacheSet(ctx, key, resp)
	}
	return &resp, nil
}

// BuildDashboard aggregates a student snapshot. Inactive students only count
// towards Inactive unless the filter includes them.
func BuildDashboard(students []model.Student, names ReportNames, filter ReportFilter, now time.Time) dto.DashboardResponse {
	var (
		included  []*model.Student
		inactive  int
		byPhase   = make(map[model.Phase]int)
		bySex     = make(map[string]int)
		byBracket = make(map[string]int)
		bySchool  = make(map[string]int)
		byMuni    = make(map[string]int)
		byCompany = make(map[string]int)
		ageSum    int
		withBirth int
	)

	for i := range students {
		st := &students[i]
		if !filter.Matches(st) {
			continue
		}
		if !st.IsActive {
			inactive++
			if !filter.IncludeInactive {
				continue
			}
		}
		included = append(included, st)

		byPhase[st.Phase]++
		bySex[st.Sex]++
		bySchool[st.SchoolID]++
		byMuni[st.MunicipalityID]++
		byCompany[st.CompanyID]++

		age, ok := st.AgeAt(now)
		byBracket[ageBracket(age, ok)]++
		if ok {
			ageSum += age
			withBirth++
		}
	}

	total := len(included)
	resp := dto.DashboardResponse{
		Total:          total,
		Inactive:       inactive,
		ByPhase:        make([]dto.PhaseCount, 0, len(model.Phases)),
		BySex:          make([]dto.LabelCount, 0, 2),
		ByAgeBracket:   make([]dto.LabelCount, 0, len(AgeBrackets)),
		BySchool:       entityCounts(bySchool, names.Schools),
		ByMunicipality: entityCounts(byMuni, names.Municipalities),
		ByCompany:      entityCounts(byCompany, names.Companies),
		CompletionRate: percentage(byPhase[model.PhaseDelivered], total),
		WithBirthDate:  withBirth,
	}
	for _, p := range model.Phases {
		resp.ByPhase = append(resp.ByPhase, dto.PhaseCount{
			Phase:      string(p),
			Count:      byPhase[p],
			Percentage: percentage(byPhase[p], total),
		})
	}
	for _, sex := range []string{model.SexMale, model.SexFemale} {
		resp.BySex = append(resp.BySex, dto.LabelCount{Label: sex, Count: bySex[sex], Percentage: percentage(bySex[sex], total)})
	}
	for _, b := range AgeBrackets {
		resp.ByAgeBracket = append(resp.ByAgeBracket, dto.LabelCount{Label: b, Count: byBracket[b], Percentage: percentage(byBracket[b], total)})
	}
	if withBirth > 0 {
		resp.AverageAge = round2(float64(ageSum) / float64(withBirth))
	}
	return resp
}

// AgeBrackets dashboard age labels in display order
var AgeBrackets = []string{"0-5", "6-10", "11-14", "15-17", "18+", "unknown"}

func ageBracket(age int, known bool) string {
	switch {
	case !known:
		return "unknown"
	case age <= 5:
		return "0-5"
	case age <= 10:
		return "6-10"
	case age <= 14:
		return "11-14"
	case age <= 17:
		return "15-17"
	}
	return "18+"
}

// entityCounts sorted by count descending then name; unnamed ids fall back to the id
func entityCounts(counts map[string]int, names map[string]string) []dto.EntityCount {
	out := make([]dto.EntityCount, 0, len(counts))
	for id, n := range counts {
		name, ok := names[id]
		if !ok {
			name = id
		}
		out = append(out, dto.EntityCount{ID: id, Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// percentage count/total×100 rounded to two decimals; 0 when total is 0
func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(count) * 100 / float64(total))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ────────────────────── InventorySummary ──────────────────────

const inventoryCacheKey = "inventory"

func (s *reportService) InventorySummary(ctx context.Context) (*dto.InventorySummaryResponse, error) {
	key, cacheable := s.versionedKey(ctx, inventoryCacheKey)
	var cached dto.InventorySummaryResponse
	if cacheable && s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	rows, err := s.repo.Report.FrameCounts(ctx)
	if err != nil {
		s.logger.Error("failed to count frames", zap.Error(err))
		return nil, err
	}

	resp := BuildInventorySummary(rows)
	if cacheable {
		s.cacheSet(ctx, key, resp)
	}
	return &resp, nil
}

// UnsizedLabel size label of frames without a size reference
const UnsizedLabel = "unsized"

// BuildInventorySummary folds status/size counts into per-status and per-size rollups
func BuildInventorySummary(rows []repository.FrameCountRow) dto.InventorySummaryResponse {
	byStatus := make(map[model.FrameStatus]int)
	bySize := make(map[string]int)
	total := 0
	for _, r := range rows {
		total += r.Count
		byStatus[r.Status] += r.Count
		size := r.SizeName
		if size == "" {
			size = UnsizedLabel
		}
		bySize[size] += r.Count
	}

	resp := dto.InventorySummaryResponse{
		Total:    total,
		ByStatus: make([]dto.LabelCount, 0, len(model.FrameStatuses)),
		BySize:   make([]dto.LabelCount, 0, len(bySize)),
	}
	for _, st := range model.FrameStatuses {
		resp.ByStatus = append(resp.ByStatus, dto.LabelCount{
			Label:      string(st),
			Count:      byStatus[st],
			Percentage: percentage(byStatus[st], total),
		})
	}

	sizes := make([]string, 0, len(bySize))
	for name := range bySize {
		sizes = append(sizes, name)
	}
	sort.Strings(sizes)
	for _, name := range sizes {
		resp.BySize = append(resp.BySize, dto.LabelCount{
			Label:      name,
			Count:      bySize[name],
			Percentage: percentage(bySize[name], total),
		})
	}
	return resp
}

// ── cache ──

// versionedKey prefixes key with the cache generation. It is read before the
// snapshot load: an invalidation landing in between advances the generation,
// so the write that follows is never served.
func (s *reportService) versionedKey(ctx context.Context, key string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	gen, err := s.cache.ReportGeneration(ctx)
	if err != nil {
		s.logger.Warn("report cache generation read failed", zap.Error(err))
		return "", false
	}
	return fmt.Sprintf("g%d:%s", gen, key), true
}

func (s *reportService) cacheGet(ctx context.Context, key string, dst interface{}) bool {
	if s.cache == nil {
		return false
	}
	found, err := s.cache.GetJSON(ctx, key, dst)
	if err != nil {
		s.logger.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return found
}

func (s *reportService) cacheSet(ctx context.Context, key string, v interface{}) {
	if s.cache == nil || s.cfg == nil || s.cfg.CacheTTL <= 0 {
		return
	}
	if err := s.cache.SetJSON(ctx, key, v, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
}

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/eddwmvv/projetovereler-sub001/config"
	"github.com/eddwmvv/projetovereler-sub001/internal/dto"
	"github.com/eddwmvv/projetovereler-sub001/internal/model"
	"github.com/eddwmvv/projetovereler-sub001/internal/repository"
	pkgerrors "github.com/eddwmvv/projetovereler-sub001/pkg/errors"
)

var (
	ErrNumberingExists = errors.New("numbering already registered")
	ErrFrameInUse      = errors.New("frame is assigned to a student")
	ErrSizeNotFound    = errors.New("frame size not found")
	ErrSizeNameExists  = errors.New("frame size name already registered")

	ErrImportNoData      = errors.New("spreadsheet has no data rows (row 1 is the header)")
	ErrImportTooManyRows = errors.New("spreadsheet exceeds the import row limit")
	ErrImportBadHeader   = errors.New("spreadsheet header lacks the Numbering column")
	ErrImportUnreadable  = errors.New("file is not a readable spreadsheet")
)

// maxNumberingAttempts bounds skips over codes already taken by imports
const maxNumberingAttempts = 100

// ImportTemplateHeaders fixed columns of the frame import spreadsheet
var ImportTemplateHeaders = []string{"Numbering", "Color", "Type", "Brand", "Size", "Status"}

// FrameImportRow one parsed spreadsheet row; Row is 1-based with the header on row 1
type FrameImportRow struct {
	Row       int
	Numbering string
	Color     string
	FrameType string
	Brand     string
	SizeName  string
	Status    string
}

// FrameService frame inventory and size reference
type FrameService interface {
	Create(ctx context.Context, sess Session, req *dto.CreateFrameRequest) (*dto.FrameResponse, error)
	GetByID(ctx context.Context, id string) (*dto.FrameResponse, error)
	List(ctx context.Context, req *dto.FrameListRequest) ([]dto.FrameResponse, int64, error)
	Update(ctx context.Context, sess Session, id string, req *dto.UpdateFrameRequest) (*dto.FrameResponse, error)
	Delete(ctx context.Context, sess Session, id string) error
	History(ctx context.Context, id string) ([]dto.FrameHistoryResponse, error)

	CreateSize(ctx context.Context, sess Session, req *dto.CreateFrameSizeRequest) (*dto.FrameSizeResponse, error)
	ListSizes(ctx context.Context) ([]dto.FrameSizeResponse, error)
	UpdateSize(ctx context.Context, sess Session, id string, req *dto.UpdateFrameSizeRequest) (*dto.FrameSizeResponse, error)
	DeleteSize(ctx context.Context, sess Session, id string) error

	ParseImportFile(reader io.Reader) ([]FrameImportRow, error)
	Import(ctx context.Context, sess Session, rows []FrameImportRow) (*dto.FrameImportResponse, error)
	ImportTemplate() (*bytes.Buffer, error)
}

type frameService struct {
	cfg    *config.InventoryConfig
	repo   *repository.Repository
	inv    reportInvalidator
	logger *zap.Logger
}

// NewFrameService creates a FrameService
func NewFrameService(cfg *config.InventoryConfig, repo *repository.Repository, inv reportInvalidator, logger *zap.Logger) FrameService {
	return &frameService{cfg: cfg, repo: repo, inv: inv, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *frameService) Create(ctx context.Context, sess Session, req *dto.CreateFrameRequest) (*dto.FrameResponse, error) {
	status := model.FrameStatus(req.Status)
	if status == "" {
		status = model.FrameAvailable
	}
	if status == model.FrameUsed {
		return nil, pkgerrors.NewValidation(pkgerrors.KindInvalidField, "frames become used only through assignment", req.Status)
	}

	frame := &model.Frame{
		Numbering: strings.TrimSpace(req.Numbering),
		Color:     strings.TrimSpace(req.Color),
		FrameType: strings.TrimSpace(req.FrameType),
		Brand:     strings.TrimSpace(req.Brand),
		Status:    status,
	}
	if req.FrameSizeID != "" {
		size, err := s.loadSize(ctx, req.FrameSizeID)
		if err != nil {
			return nil, err
		}
		frame.FrameSizeID = &size.FrameSizeID
		frame.Size = size
	}
	frame.Stamp(sess.UserID)

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if frame.Numbering == "" {
			code, err := s.generateNumbering(ctx, tx, nil)
			if err != nil {
				return err
			}
			frame.Numbering = code
		}
		return tx.Frame.Create(ctx, frame)
	})
	if err != nil {
		if _, dup := pkgerrors.UniqueViolation(err); dup {
			return nil, ErrNumberingExists
		}
		s.logger.Error("failed to create frame", zap.Error(err))
		return nil, err
	}

	s.inv.invalidate(ctx)
	return toFrameResponse(frame), nil
}

// generateNumbering draws sequence values until one is free; taken holds
// codes reserved by the caller that are not in the store yet
func (s *frameService) generateNumbering(ctx context.Context, tx *repository.Repository, taken map[string]bool) (string, error) {
	width := 4
	if s.cfg != nil && s.cfg.NumberingWidth > 0 {
		width = s.cfg.NumberingWidth
	}
	for i := 0; i < maxNumberingAttempts; i++ {
		n, err := tx.Frame.NextNumbering(ctx)
		if err != nil {
			return "", err
		}
		code := fmt.Sprintf("%0*d", width, n)
		if taken[code] {
			continue
		}
		existing, err := tx.Frame.ListByNumberings(ctx, []string{code})
		if err != nil {
			return "", err
		}
		if len(existing) == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("no free numbering after %d attempts", maxNumberingAttempts)
}

// ────────────────────── GetByID / List ──────────────────────

func (s *frameService) GetByID(ctx context.Context, id string) (*dto.FrameResponse, error) {
	frame, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toFrameResponse(frame), nil
}

func (s *frameService) List(ctx context.Context, req *dto.FrameListRequest) ([]dto.FrameResponse, int64, error) {
	frames, total, err := s.repo.Frame.List(ctx, repository.FrameFilter{
		Status:      model.FrameStatus(req.Status),
		FrameSizeID: req.FrameSizeID,
		Search:      strings.TrimSpace(req.Search),
	}, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("failed to list frames", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.FrameResponse, 0, len(frames))
	for i := range frames {
		result = append(result, *toFrameResponse(&frames[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *frameService) Update(ctx context.Context, sess Session, id string, req *dto.UpdateFrameRequest) (*dto.FrameResponse, error) {
	frame, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		next := model.FrameStatus(*req.Status)
		if next != frame.Status && (next == model.FrameUsed || frame.Status == model.FrameUsed) {
			return nil, ErrFrameInUse
		}
		frame.Status = next
	}
	if req.Numbering != nil {
		frame.Numbering = strings.TrimSpace(*req.Numbering)
	}
	if req.Color != nil {
		frame.Color = strings.TrimSpace(*req.Color)
	}
	if req.FrameType != nil {
		frame.FrameType = strings.TrimSpace(*req.FrameType)
	}
	if req.Brand != nil {
		frame.Brand = strings.TrimSpace(*req.Brand)
	}
	if req.FrameSizeID != nil {
		if *req.FrameSizeID == "" {
			frame.FrameSizeID = nil
			frame.Size = nil
		} else {
			size, err := s.loadSize(ctx, *req.FrameSizeID)
			if err != nil {
				return nil, err
			}
			frame.FrameSizeID = &size.FrameSizeID
			frame.Size = size
		}
	}
	frame.Stamp(sess.UserID)

	if err := s.repo.Frame.Update(ctx, frame); err != nil {
		if _, dup := pkgerrors.UniqueViolation(err); dup {
			return nil, ErrNumberingExists
		}
		s.logger.Error("failed to update frame", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.inv.invalidate(ctx)
	return toFrameResponse(frame), nil
}

// ────────────────────── Delete ──────────────────────

func (s *frameService) Delete(ctx context.Context, sess Session, id string) error {
	frame, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if frame.Status == model.FrameUsed {
		return ErrFrameInUse
	}
	if err := s.repo.Frame.Delete(ctx, id); err != nil {
		if pkgerrors.IsNotFound(err) {
			return ErrFrameNotFound
		}
		s.logger.Error("failed to delete frame", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("frame deleted", zap.String("numbering", frame.Numbering), zap.String("actor", sess.UserID))
	s.inv.invalidate(ctx)
	return nil
}

// ────────────────────── History ──────────────────────

func (s *frameService) History(ctx context.Context, id string) ([]dto.FrameHistoryResponse, error) {
	frame, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.FrameHistory.ListByFrame(ctx, id)
	if err != nil {
		s.logger.Error("failed to list frame history", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	result := make([]dto.FrameHistoryResponse, 0, len(rows))
	for i := range rows {
		item := toFrameHistoryResponse(&rows[i])
		item.Numbering = frame.Numbering
		result = append(result, item)
	}
	return result, nil
}

// ────────────────────── sizes ──────────────────────

func (s *frameService) CreateSize(ctx context.Context, sess Session, req *dto.CreateFrameSizeRequest) (*dto.FrameSizeResponse, error) {
	name := strings.TrimSpace(req.Name)
	existing, err := s.repo.FrameSize.ListByNames(ctx, []string{name})
	if err != nil {
		s.logger.Error("failed to look up size", zap.String("name", name), zap.Error(err))
		return nil, err
	}
	if len(existing) > 0 {
		return nil, ErrSizeNameExists
	}

	size := &model.FrameSize{Name: name, Description: strings.TrimSpace(req.Description)}
	size.Stamp(sess.UserID)
	if err := s.repo.FrameSize.Create(ctx, size); err != nil {
		if _, dup := pkgerrors.UniqueViolation(err); dup {
			return nil, ErrSizeNameExists
		}
		s.logger.Error("failed to create size", zap.Error(err))
		return nil, err
	}

	resp := toFrameSizeResponse(size)
	return &resp, nil
}

func (s *frameService) ListSizes(ctx context.Context) ([]dto.FrameSizeResponse, error) {
	sizes, err := s.repo.FrameSize.List(ctx)
	if err != nil {
		s.logger.Error("failed to list sizes", zap.Error(err))
		return nil, err
	}
	result := make([]dto.FrameSizeResponse, 0, len(sizes))
	for i := range sizes {
		result = append(result, toFrameSizeResponse(&sizes[i]))
	}
	return result, nil
}

func (s *frameService) UpdateSize(ctx context.Context, sess Session, id string, req *dto.UpdateFrameSizeRequest) (*dto.FrameSizeResponse, error) {
	size, err := s.loadSize(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name != size.Name {
			existing, err := s.repo.FrameSize.ListByNames(ctx, []string{name})
			if err != nil {
				return nil, err
			}
			if len(existing) > 0 {
				return nil, ErrSizeNameExists
			}
		}
		size.Name = name
	}
	if req.Description != nil {
		size.Description = strings.TrimSpace(*req.Description)
	}
	size.Stamp(sess.UserID)

	if err := s.repo.FrameSize.Update(ctx, size); err != nil {
		if _, dup := pkgerrors.UniqueViolation(err); dup {
			return nil, ErrSizeNameExists
		}
		s.logger.Error("failed to update size", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.inv.invalidate(ctx)
	resp := toFrameSizeResponse(size)
	return &resp, nil
}

func (s *frameService) DeleteSize(ctx context.Context, sess Session, id string) error {
	if err := s.repo.FrameSize.Delete(ctx, id); err != nil {
		if pkgerrors.IsNotFound(err) {
			return ErrSizeNotFound
		}
		s.logger.Error("failed to delete size", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("frame size deleted", zap.String("id", id), zap.String("actor", sess.UserID))
	s.inv.invalidate(ctx)
	return nil
}

// ────────────────────── ParseImportFile ──────────────────────

// ParseImportFile reads the first sheet; columns are located by header name
// (English or Portuguese) so their order is free
func (s *frameService) ParseImportFile(reader io.Reader) ([]FrameImportRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportUnreadable, err)
	}
	defer f.Close()

	excelRows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportUnreadable, err)
	}
	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	col := parseFrameHeader(excelRows[0])
	if col["numbering"] < 0 {
		return nil, ErrImportBadHeader
	}
	get := func(row []string, key string) string {
		if idx := col[key]; idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	var rows []FrameImportRow
	for i := 1; i < len(excelRows); i++ {
		r := excelRows[i]
		item := FrameImportRow{
			Row:       i + 1,
			Numbering: get(r, "numbering"),
			Color:     get(r, "color"),
			FrameType: get(r, "type"),
			Brand:     get(r, "brand"),
			SizeName:  get(r, "size"),
			Status:    get(r, "status"),
		}
		if item == (FrameImportRow{Row: item.Row}) {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if limit := s.maxImportRows(); len(rows) > limit {
		return nil, fmt.Errorf("%w (%d)", ErrImportTooManyRows, limit)
	}
	return rows, nil
}

func (s *frameService) maxImportRows() int {
	if s.cfg != nil && s.cfg.MaxImportRows > 0 {
		return s.cfg.MaxImportRows
	}
	return 2000
}

// parseFrameHeader maps column keys to their index, -1 when absent
func parseFrameHeader(header []string) map[string]int {
	idx := map[string]int{"numbering": -1, "color": -1, "type": -1, "brand": -1, "size": -1, "status": -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "numbering", "numeração", "numeracao", "número", "numero":
			idx["numbering"] = i
		case "color", "cor":
			idx["color"] = i
		case "type", "tipo":
			idx["type"] = i
		case "brand", "marca":
			idx["brand"] = i
		case "size", "tamanho":
			idx["size"] = i
		case "status", "situação", "situacao":
			idx["status"] = i
		}
	}
	return idx
}

// importStatus maps a spreadsheet status cell to a frame status; used is not
// importable since it requires an assignment
func importStatus(raw string) (model.FrameStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "available", "disponível", "disponivel":
		return model.FrameAvailable, true
	case "lost", "perdido", "perdida", "extraviado", "extraviada":
		return model.FrameLost, true
	case "damaged", "danificado", "danificada", "quebrado", "quebrada":
		return model.FrameDamaged, true
	}
	return "", false
}

// ────────────────────── Import ──────────────────────

// Import validates every row first; with any row error nothing is written.
// Valid batches are written in one transaction, creating missing sizes.
func (s *frameService) Import(ctx context.Context, sess Session, rows []FrameImportRow) (*dto.FrameImportResponse, error) {
	resp := &dto.FrameImportResponse{}
	rowErr := func(r FrameImportRow, reason string) {
		resp.Errors = append(resp.Errors, dto.FrameImportRowError{Row: r.Row, Numbering: r.Numbering, Reason: reason})
	}

	// phase 1: validation without writes
	codes := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Numbering != "" {
			codes = append(codes, r.Numbering)
		}
	}
	existing, err := s.repo.Frame.ListByNumberings(ctx, uniqueStrings(codes))
	if err != nil {
		s.logger.Error("failed to check numberings", zap.Error(err))
		return nil, err
	}
	taken := make(map[string]bool, len(existing)+len(codes))
	for _, f := range existing {
		taken[f.Numbering] = true
	}

	seen := make(map[string]int, len(codes))
	statuses := make([]model.FrameStatus, len(rows))
	for i, r := range rows {
		status, ok := importStatus(r.Status)
		if !ok {
			rowErr(r, fmt.Sprintf("invalid status %q", r.Status))
		}
		statuses[i] = status
		if len(r.Numbering) > 20 {
			rowErr(r, "numbering longer than 20 characters")
		}
		if len(r.SizeName) > 50 {
			rowErr(r, "size name longer than 50 characters")
		}
		if r.Numbering == "" {
			continue
		}
		if taken[r.Numbering] {
			rowErr(r, "numbering already registered")
		}
		if first, dup := seen[r.Numbering]; dup {
			rowErr(r, fmt.Sprintf("numbering repeated from row %d", first))
		} else {
			seen[r.Numbering] = r.Row
		}
	}
	if len(resp.Errors) > 0 {
		return resp, nil
	}
	for code := range seen {
		taken[code] = true
	}

	// phase 2: one transaction
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		sizes, created, err := s.resolveSizes(ctx, tx, sess, rows)
		if err != nil {
			return err
		}
		resp.SizesCreated = created

		frames := make([]model.Frame, 0, len(rows))
		for i, r := range rows {
			frame := model.Frame{
				Numbering: r.Numbering,
				Color:     r.Color,
				FrameType: r.FrameType,
				Brand:     r.Brand,
				Status:    statuses[i],
			}
			if frame.Numbering == "" {
				code, err := s.generateNumbering(ctx, tx, taken)
				if err != nil {
					return err
				}
				frame.Numbering = code
				taken[code] = true
			}
			if size, ok := sizes[strings.ToLower(r.SizeName)]; ok {
				id := size.FrameSizeID
				frame.FrameSizeID = &id
			}
			frame.Stamp(sess.UserID)
			frames = append(frames, frame)
		}
		return tx.Frame.CreateBatch(ctx, frames)
	})
	if err != nil {
		if _, dup := pkgerrors.UniqueViolation(err); dup {
			return nil, ErrNumberingExists
		}
		s.logger.Error("failed to import frames", zap.Error(err))
		return nil, err
	}

	resp.Created = len(rows)
	s.logger.Info("frames imported", zap.Int("created", resp.Created), zap.Strings("sizes_created", resp.SizesCreated))
	s.inv.invalidate(ctx)
	return resp, nil
}

// resolveSizes returns sizes keyed by lower-cased name, creating the missing ones
func (s *frameService) resolveSizes(ctx context.Context, tx *repository.Repository, sess Session, rows []FrameImportRow) (map[string]model.FrameSize, []string, error) {
	var names []string
	for _, r := range rows {
		if r.SizeName != "" {
			names = append(names, r.SizeName)
		}
	}
	names = uniqueStrings(names)
	byName := make(map[string]model.FrameSize, len(names))
	if len(names) == 0 {
		return byName, nil, nil
	}

	found, err := tx.FrameSize.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	for _, size := range found {
		byName[strings.ToLower(size.Name)] = size
	}

	var created []string
	for _, name := range names {
		key := strings.ToLower(name)
		if _, ok := byName[key]; ok {
			continue
		}
		size := &model.FrameSize{Name: name}
		size.Stamp(sess.UserID)
		if err := tx.FrameSize.Create(ctx, size); err != nil {
			return nil, nil, err
		}
		byName[key] = *size
		created = append(created, name)
	}
	return byName, created, nil
}

// ────────────────────── ImportTemplate ──────────────────────

// ImportTemplate empty spreadsheet carrying the import headers
func (s *frameService) ImportTemplate() (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Frames"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	for i, h := range ImportTemplateHeaders {
		f.SetCellValue(sheet, cell(colName(i), 1), h)
	}
	last := colName(len(ImportTemplateHeaders) - 1)
	f.SetCellStyle(sheet, "A1", cell(last, 1), headerStyle)
	f.SetColWidth(sheet, "A", last, 16)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("failed to write import template", zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	return buf, nil
}

// ── helpers ──

func (s *frameService) load(ctx context.Context, id string) (*model.Frame, error) {
	frame, err := s.repo.Frame.GetByID(ctx, id)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrFrameNotFound
		}
		s.logger.Error("failed to load frame", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return frame, nil
}

func (s *frameService) loadSize(ctx context.Context, id string) (*model.FrameSize, error) {
	size, err := s.repo.FrameSize.GetByID(ctx, id)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrSizeNotFound
		}
		s.logger.Error("failed to load size", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return size, nil
}

func toFrameResponse(f *model.Frame) *dto.FrameResponse {
	resp := &dto.FrameResponse{
		ID:        f.FrameID,
		Numbering: f.Numbering,
		Color:     f.Color,
		FrameType: f.FrameType,
		Brand:     f.Brand,
		Status:    string(f.Status),
		CreatedAt: dto.FormatTime(f.CreatedAt),
		UpdatedAt: dto.FormatTime(f.UpdatedAt),
	}
	if f.FrameSizeID != nil {
		resp.FrameSizeID = *f.FrameSizeID
	}
	if f.Size != nil {
		resp.SizeName = f.Size.Name
	}
	return resp
}

func toFrameSizeResponse(s *model.FrameSize) dto.FrameSizeResponse {
	return dto.FrameSizeResponse{
		ID:          s.FrameSizeID,
		Name:        s.Name,
		Description: s.Description,
	}
}

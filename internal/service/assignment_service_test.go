package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eddwmvv/projetovereler-sub001/config"
	"github.com/eddwmvv/projetovereler-sub001/internal/dto"
	"github.com/eddwmvv/projetovereler-sub001/internal/model"
	pkgerrors "github.com/eddwmvv/projetovereler-sub001/pkg/errors"
)

func setupTestAssignmentService(atomic bool) (AssignmentService, *mockStore, *mockReportCache) {
	st := newMockStore()
	st.seedRegistry()
	cache := newMockReportCache()
	cfg := &config.InventoryConfig{AtomicBatchAssign: atomic}
	svc := NewAssignmentService(cfg, st.repo, reportInvalidator{cache: cache, logger: zap.NewNop()}, zap.NewNop())
	return svc, st, cache
}

// ────────────────────── Assign ──────────────────────

func TestAssign_Success(t *testing.T) {
	svc, st, cache := setupTestAssignmentService(false)
	st.addStudent("stu-a", "Ana", model.PhaseConsultation, true)
	st.addFrame("frame-1", "0001", model.FrameAvailable)

	resp, err := svc.Assign(context.Background(), gestorSess, "frame-1", &dto.AssignFrameRequest{StudentID: "stu-a"})
	require.NoError(t, err)
	assert.Equal(t, "0001", resp.Numbering)
	assert.Equal(t, "stu-a", resp.StudentID)
	assert.Equal(t, model.FrameUsed, st.frames.status("frame-1"))

	require.Len(t, st.frameHistory.rows, 1)
	row := st.frameHistory.rows[0]
	assert.Equal(t, model.FrameHistoryAssigned, row.Status)
	assert.Equal(t, "stu-a", *row.StudentID)
	assert.Equal(t, "gestor-1", *row.ActorID)
	assert.Equal(t, 1, cache.invalidations)

	current, err := svc.CurrentForStudent(context.Background(), gestorSess, "stu-a")
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "frame-1", current.ID)
}

func TestAssign_SecondAssignmentOfSameFrameFails(t *testing.T) {
	svc, st, _ := setupTestAssignmentService(false)
	st.addStudent("stu-a", "Ana", model.PhaseConsultation, true)
	st.addStudent("stu-b", "Bruno", model.PhaseConsultation, true)
	st.addFrame("frame-1", "0001", model.FrameAvailable)

	_, err := svc.Assign(context.Background(), gestorSess, "frame-1", &dto.AssignFrameRequest{StudentID: "stu-a"})
	require.NoError(t, err)

	_, err = svc.Assign(context.Background(), gestorSess, "frame-1", &dto.AssignFrameRequest{StudentID: "stu-b"})
	assert.ErrorIs(t, err, ErrFrameNotAvailable)
	assert.Len(t, st.frameHistory.rows, 1)
}

func TestAssign_StudentAlreadyHoldsFrame(t *testing.T) {
	svc, st, _ := setupTestAssignmentService(false)
	st.addStudent("stu-a", "Ana", model.PhaseConsultation, true)
	st.addFrame("frame-1", "0001", model.FrameAvailable)
	st.addFrame("frame-2", "0002", model.FrameAvailable)

	_, err := svc.Assign(context.Background(), gestorSess, "frame-1", &dto.AssignFrameRequest{StudentID: "stu-a"})
	require.NoError(t, err)

	_, err = svc.Assign(context.Background(), gestorSess, "frame-2", &dto.AssignFrameRequest{StudentID: "stu-a"})
	assert.ErrorIs(t, err, ErrStudentHasFrame)
	assert.Equal(t, model.FrameAvailable, st.frames.status("frame-2"))
}

func TestAssign_Rejections(t *testing.T) {
	svc, st, _ := setupTestAssignmentService(false)
	st.addStudent("stu-a", "Ana", model.PhaseConsultation, true)
	st.addStudent("stu-off", "Off", model.PhaseConsultation, false)
	st.addFrame("frame-1", "0001", model.FrameAvailable)
	st.addFrame("frame-lost", "0009", model.FrameLost)

	_, err := svc.Assign(context.Background(), gestorSess, "frame-1", &dto.AssignFrameRequest{StudentID: "stu-off"})
	assert.ErrorIs(t, err, ErrStudentInactive)

	_, err = svc.Assign(context.Background(), gestorSess, "frame-404", &dto.AssignFrameRequest{StudentID: "stu-a"})
	assert.ErrorIs(t, err, ErrFrameNotFound)

	_, err = svc.Assign(context.Background(), gestorSess, "frame-lost", &dto.AssignFrameRequest{StudentID: "stu-a"})
	assert.ErrorIs(t, err, ErrFrameNotAvailable)

	_, err = svc.Assign(context.Background(), otherSess, "frame-1", &dto.AssignFrameRequest{StudentID: "stu-a"})
	assert.ErrorIs(t, err, ErrForbiddenCompany)

	assert.Empty(t, st.frameHistory.rows)
	assert.Equal(t, model.FrameAvailable, st.frames.status("frame-1"))
}

// ────────────────────── ValidateNumberings ──────────────────────

func TestValidateNumberings(t *testing.T) {
	svc, st, _ := setupTestAssignmentService(false)
	st.addFrame("frame-1", "0001", model.FrameAvailable)
	st.addFrame("frame-2", "0002", model.FrameUsed)

	checks, err := svc.ValidateNumberings(context.Background(), []string{"0001", " 0002 ", "9999", ""})
	require.NoError(t, err)
	require.Len(t, checks, 4)

	valid, ok := checks[0].(ValidNumbering)
	require.True(t, ok)
	assert.Equal(t, "frame-1", valid.Frame.FrameID)

	assert.Equal(t, InvalidNumbering{Code: "0002", Reason: "frame is used"}, checks[1])
	assert.Equal(t, InvalidNumbering{Code: "9999", Reason: reasonUnknownNumbering}, checks[2])
	assert.Equal(t, InvalidNumbering{Code: "", Reason: reasonEmptyNumbering}, checks[3])
}

// ────────────────────── BatchAssign ──────────────────────

func seedBatch(st *mockStore) {
	st.addStudent("stu-a", "Ana", model.PhaseConsultation, true)
	st.addStudent("stu-b", "Bruno", model.PhaseConsultation, true)
	st.addStudent("stu-c", "Carla", model.PhaseProduction, true)
	st.addFrame("frame-1", "0001", model.FrameAvailable)
	st.addFrame("frame-2", "0002", model.FrameAvailable)
	st.addFrame("frame-3", "0003", model.FrameAvailable)
}

func assertNothingAssigned(t *testing.T, st *mockStore) {
	t.Helper()
	assert.Empty(t, st.frameHistory.rows)
	for _, id := range []string{"frame-1", "frame-2", "frame-3"} {
		assert.Equal(t, model.FrameAvailable, st.frames.status(id), id)
	}
}

func TestBatchAssign_Success(t *testing.T) {
	for _, atomic := range []bool{false, true} {
		svc, st, _ := setupTestAssignmentService(atomic)
		seedBatch(st)

		resp, err := svc.BatchAssign(context.Background(), gestorSess, &dto.BatchAssignRequest{Items: []dto.BatchAssignItem{
			{StudentID: "stu-a", Numbering: "0002"},
			{StudentID: "stu-b", Numbering: " 0001 "},
		}})
		require.NoError(t, err)
		assert.Equal(t, atomic, resp.Atomic)
		require.Len(t, resp.Assigned, 2)
		assert.Equal(t, "frame-2", resp.Assigned[0].FrameID)
		assert.Equal(t, "frame-1", resp.Assigned[1].FrameID)
		assert.Equal(t, model.FrameUsed, st.frames.status("frame-1"))
		assert.Equal(t, model.FrameUsed, st.frames.status("frame-2"))
		assert.Equal(t, model.FrameAvailable, st.frames.status("frame-3"))
	}
}

// failSecondHistoryWrite makes the second assignment of a batch fail at its history insert
func failSecondHistoryWrite(st *mockStore) error {
	boom := errors.New("history insert failed")
	st.repo.FrameHistory = &failingFrameHistoryRepo{FrameHistoryRepository: st.frameHistory, failAt: 2, err: boom}
	return boom
}

var threeItemBatch = &dto.BatchAssignRequest{Items: []dto.BatchAssignItem{
	{StudentID: "stu-a", Numbering: "0001"},
	{StudentID: "stu-b", Numbering: "0002"},
	{StudentID: "stu-c", Numbering: "0003"},
}}

func TestBatchAssign_HaltsAtFirstFailure(t *testing.T) {
	svc, st, _ := setupTestAssignmentService(false)
	seedBatch(st)
	boom := failSecondHistoryWrite(st)

	resp, err := svc.BatchAssign(context.Background(), gestorSess, threeItemBatch)
	require.ErrorIs(t, err, boom)
	require.NotNil(t, resp)
	assert.False(t, resp.Atomic)

	// only the committed item is reported
	require.Len(t, resp.Assigned, 1)
	assert.Equal(t, "frame-1", resp.Assigned[0].FrameID)
	assert.Equal(t, "stu-a", resp.Assigned[0].StudentID)

	// the first item stays committed, the third is never attempted
	assert.Equal(t, model.FrameUsed, st.frames.status("frame-1"))
	assert.Equal(t, model.FrameAvailable, st.frames.status("frame-3"))
	require.Len(t, st.frameHistory.rows, 1)
	assert.Equal(t, "frame-1", st.frameHistory.rows[0].FrameID)
	for _, h := range st.frameHistory.rows {
		assert.NotEqual(t, "stu-c", *h.StudentID)
	}
}

func TestBatchAssign_AtomicFailureReportsNothing(t *testing.T) {
	svc, st, cache := setupTestAssignmentService(true)
	seedBatch(st)
	boom := failSecondHistoryWrite(st)

	resp, err := svc.BatchAssign(context.Background(), gestorSess, threeItemBatch)
	require.ErrorIs(t, err, boom)
	require.NotNil(t, resp)
	assert.True(t, resp.Atomic)
	assert.Empty(t, resp.Assigned)
	assert.Equal(t, model.FrameAvailable, st.frames.status("frame-3"))
	assert.Zero(t, cache.invalidations)
}

func TestBatchAssign_DuplicateNumberingRejected(t *testing.T) {
	svc, st, _ := setupTestAssignmentService(false)
	seedBatch(st)

	_, err := svc.BatchAssign(context.Background(), gestorSess, &dto.BatchAssignRequest{Items: []dto.BatchAssignItem{
		{StudentID: "stu-a", Numbering: "0001"},
		{StudentID: "stu-b", Numbering: "0001"},
	}})
	var verr *pkgerrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, pkgerrors.KindDuplicateNumbering, verr.Kind)
	assert.Equal(t, []string{"0001"}, verr.Items)
	assertNothingAssigned(t, st)
}

func TestBatchAssign_UnknownNumberingRejectsWholeBatch(t *testing.T) {
	svc, st, _ := setupTestAssignmentService(false)
	seedBatch(st)
	st.addFrame("frame-9", "0009", model.FrameDamaged)

	_, err := svc.BatchAssign(context.Background(), gestorSess, &dto.BatchAssignRequest{Items: []dto.BatchAssignItem{
		{StudentID: "stu-a", Numbering: "0001"},
		{StudentID: "stu-b", Numbering: "9999"},
		{StudentID: "stu-c", Numbering: "0009"},
	}})
	var verr *pkgerrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, pkgerrors.KindUnknownNumbering, verr.Kind)
	assert.Equal(t, []string{"9999", "0009"}, verr.Items)
	assertNothingAssigned(t, st)
}

func TestBatchAssign_MissingNumberingReportsStudents(t *testing.T) {
	svc, st, _ := setupTestAssignmentService(false)
	seedBatch(st)

	_, err := svc.BatchAssign(context.Background(), gestorSess, &dto.BatchAssignRequest{Items: []dto.BatchAssignItem{
		{StudentID: "stu-a", Numbering: ""},
		{StudentID: "stu-b", Numbering: "0001"},
		{StudentID: "stu-c", Numbering: "  "},
	}})
	var verr *pkgerrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, pkgerrors.KindMissingNumbering, verr.Kind)
	assert.Equal(t, []string{"stu-a", "stu-c"}, verr.Items)
	assertNothingAssigned(t, st)
}

func TestBatchAssign_InvalidStudents(t *testing.T) {
	svc, st, _ := setupTestAssignmentService(false)
	seedBatch(st)
	st.addStudent("stu-off", "Off", model.PhaseConsultation, false)

	_, err := svc.BatchAssign(context.Background(), gestorSess, &dto.BatchAssignRequest{Items: []dto.BatchAssignItem{
		{StudentID: "stu-a", Numbering: "0001"},
		{StudentID: "stu-off", Numbering: "0002"},
		{StudentID: "stu-404", Numbering: "0003"},
	}})
	var verr *pkgerrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, pkgerrors.KindInvalidField, verr.Kind)
	assert.Equal(t, []string{"stu-off", "stu-404"}, verr.Items)
	assertNothingAssigned(t, st)
}

func TestBatchAssign_OtherCompanyStudentsRejected(t *testing.T) {
	svc, st, _ := setupTestAssignmentService(false)
	seedBatch(st)

	_, err := svc.BatchAssign(context.Background(), otherSess, &dto.BatchAssignRequest{Items: []dto.BatchAssignItem{
		{StudentID: "stu-a", Numbering: "0001"},
	}})
	assert.ErrorIs(t, err, &pkgerrors.ValidationError{Kind: pkgerrors.KindInvalidField})
	assertNothingAssigned(t, st)
}

// ────────────────────── PlanAutoAssign ──────────────────────

func TestPlanAutoAssign_PicksLowestAvailable(t *testing.T) {
	svc, st, _ := setupTestAssignmentService(false)
	seedBatch(st)

	resp, err := svc.PlanAutoAssign(context.Background(), &dto.AutoAssignRequest{Items: []dto.BatchAssignItem{
		{StudentID: "stu-a"},
		{StudentID: "stu-b"},
	}})
	require.NoError(t, err)
	assert.Equal(t, []dto.BatchAssignItem{
		{StudentID: "stu-a", Numbering: "0001"},
		{StudentID: "stu-b", Numbering: "0002"},
	}, resp.Items)
	assert.Empty(t, resp.Unmatched)
	assertNothingAssigned(t, st)
}

func TestPlanAutoAssign_SkipsNamedCodesAndReportsUnmatched(t *testing.T) {
	svc, st, _ := setupTestAssignmentService(false)
	seedBatch(st)

	resp, err := svc.PlanAutoAssign(context.Background(), &dto.AutoAssignRequest{Items: []dto.BatchAssignItem{
		{StudentID: "stu-a"},
		{StudentID: "stu-b", Numbering: "0001"},
		{StudentID: "stu-c"},
		{StudentID: "stu-d"},
	}})
	require.NoError(t, err)
	assert.Equal(t, []dto.BatchAssignItem{
		{StudentID: "stu-a", Numbering: "0002"},
		{StudentID: "stu-b", Numbering: "0001"},
		{StudentID: "stu-c", Numbering: "0003"},
		{StudentID: "stu-d"},
	}, resp.Items)
	assert.Equal(t, []string{"stu-d"}, resp.Unmatched)
}

// ────────────────────── Release ──────────────────────

func TestRelease_ReturnsFrameToPool(t *testing.T) {
	svc, st, _ := setupTestAssignmentService(false)
	st.addStudent("stu-a", "Ana", model.PhaseConsultation, true)
	st.addFrame("frame-1", "0001", model.FrameAvailable)
	_, err := svc.Assign(context.Background(), gestorSess, "frame-1", &dto.AssignFrameRequest{StudentID: "stu-a"})
	require.NoError(t, err)

	_, err = svc.Release(context.Background(), otherSess, "frame-1", "")
	assert.ErrorIs(t, err, ErrForbiddenCompany)

	resp, err := svc.Release(context.Background(), gestorSess, "frame-1", "broken hinge")
	require.NoError(t, err)
	assert.Equal(t, "stu-a", resp.StudentID)
	assert.Equal(t, model.FrameAvailable, st.frames.status("frame-1"))

	history, err := svc.StudentFrameHistory(context.Background(), gestorSess, "stu-a")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, string(model.FrameHistoryReleased), history[0].Status)
	assert.Equal(t, "broken hinge", history[0].Notes)
	assert.Equal(t, "0001", history[0].Numbering)
	assert.Equal(t, string(model.FrameHistoryAssigned), history[1].Status)

	_, err = svc.Release(context.Background(), gestorSess, "frame-1", "")
	assert.ErrorIs(t, err, ErrFrameNotInUse)
}

func TestReleaseCurrentForStudent_NoFrame(t *testing.T) {
	svc, st, _ := setupTestAssignmentService(false)
	st.addStudent("stu-a", "Ana", model.PhaseConsultation, true)

	resp, err := svc.ReleaseCurrentForStudent(context.Background(), gestorSess, "stu-a", "")
	assert.NoError(t, err)
	assert.Nil(t, resp)

	current, err := svc.CurrentForStudent(context.Background(), gestorSess, "stu-a")
	assert.NoError(t, err)
	assert.Nil(t, current)
}

func TestDuplicates(t *testing.T) {
	assert.Equal(t, []string{"b", "a"}, duplicates([]string{"b", "a", "b", "c", "a", "b"}))
	assert.Empty(t, duplicates([]string{"a", "b"}))
}

package repository

import (
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "govhub/internal/db"
	"govhub/internal/domain"
)

func setupApprovalRepo(t *testing.T) *ApprovalRequestRepo {
	t.Helper()
	db, _ := internaldb.OpenTestSQLite(t)
	return NewApprovalRequestRepo(db)
}

func durPtr(d time.Duration) *time.Duration { return &d }

func sampleRequest(id string) *domain.ApprovalRequest {
	return &domain.ApprovalRequest{
		RequestID:      id,
		Status:         domain.ApprovalStatusPending,
		CatalogID:      "cat",
		ApprovalFlowID: "grant",
		RequestUserID:  "requester",
		RequestComment: "please",
		InputParams:    map[string]interface{}{"table": "orders"},
		InputResources: []domain.InputResource{{ResourceTypeID: "schema", ResourceID: "s1"}},
		ApproverType:   domain.ApproverTypeGroup,
		ApproverID:     "approvers",
		RequestDate:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestApprovalRequestRepo_SetAndGet(t *testing.T) {
	repo := setupApprovalRepo(t)

	req := sampleRequest("req1")
	req.AutoRevokeDuration = durPtr(72 * time.Hour)
	require.NoError(t, repo.Set(ctx, req))

	got, err := repo.GetByID(ctx, "req1")
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalStatusPending, got.Status)
	assert.Equal(t, "orders", got.InputParams["table"])
	require.Len(t, got.InputResources, 1)
	assert.Equal(t, "s1", got.InputResources[0].ResourceID)
	assert.True(t, got.RequestDate.Equal(req.RequestDate))
	require.NotNil(t, got.AutoRevokeDuration)
	assert.Equal(t, 72*time.Hour, *got.AutoRevokeDuration)
	assert.Nil(t, got.ApprovedDate)
	assert.Nil(t, got.ValidationHandlerResult)
}

func TestApprovalRequestRepo_GetByID_NotFound(t *testing.T) {
	repo := setupApprovalRepo(t)

	_, err := repo.GetByID(ctx, "ghost")
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestApprovalRequestRepo_SetUpdatesTransitionFields(t *testing.T) {
	repo := setupApprovalRepo(t)

	req := sampleRequest("req1")
	require.NoError(t, repo.Set(ctx, req))

	approvedAt := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	req.Status = domain.ApprovalStatusApproved
	req.ApprovedDate = &approvedAt
	result := "ok"
	req.ValidationHandlerResult = &result
	require.NoError(t, repo.Set(ctx, req))

	got, err := repo.GetByID(ctx, "req1")
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalStatusApproved, got.Status)
	require.NotNil(t, got.ApprovedDate)
	assert.True(t, got.ApprovedDate.Equal(approvedAt))
	require.NotNil(t, got.ValidationHandlerResult)
	assert.Equal(t, "ok", *got.ValidationHandlerResult)
}

func TestApprovalRequestRepo_List(t *testing.T) {
	repo := setupApprovalRepo(t)

	first := sampleRequest("req1")
	require.NoError(t, repo.Set(ctx, first))

	second := sampleRequest("req2")
	second.Status = domain.ApprovalStatusApproved
	second.RequestUserID = "someone-else"
	second.ApproverID = "other-group"
	second.RequestDate = first.RequestDate.Add(time.Hour)
	require.NoError(t, repo.Set(ctx, second))

	elsewhere := sampleRequest("req3")
	elsewhere.CatalogID = "other"
	require.NoError(t, repo.Set(ctx, elsewhere))

	// Catalog scope, newest first.
	all, err := repo.List(ctx, domain.ApprovalRequestFilter{CatalogID: "cat"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "req2", all[0].RequestID)
	assert.Equal(t, "req1", all[1].RequestID)

	pending := domain.ApprovalStatusPending
	byStatus, err := repo.List(ctx, domain.ApprovalRequestFilter{CatalogID: "cat", Status: &pending})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "req1", byStatus[0].RequestID)

	requester := "requester"
	byUser, err := repo.List(ctx, domain.ApprovalRequestFilter{CatalogID: "cat", RequestUserID: &requester})
	require.NoError(t, err)
	require.Len(t, byUser, 1)

	group := "other-group"
	byGroup, err := repo.List(ctx, domain.ApprovalRequestFilter{CatalogID: "cat", ApproverGroupID: &group})
	require.NoError(t, err)
	require.Len(t, byGroup, 1)
	assert.Equal(t, "req2", byGroup[0].RequestID)

	flow := "grant"
	status := domain.ApprovalStatusApproved
	combined, err := repo.List(ctx, domain.ApprovalRequestFilter{
		CatalogID:      "cat",
		ApprovalFlowID: &flow,
		Status:         &status,
	})
	require.NoError(t, err)
	require.Len(t, combined, 1)
	assert.Equal(t, "req2", combined[0].RequestID)
}

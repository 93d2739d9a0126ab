package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/checkmapper/internal/audit/domain"
	"github.com/smallbiznis/checkmapper/internal/audit/repository"
	"github.com/smallbiznis/checkmapper/internal/clock"
	obscontext "github.com/smallbiznis/checkmapper/internal/observability/context"
	"github.com/smallbiznis/checkmapper/pkg/db"
	"github.com/smallbiznis/checkmapper/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T) (auditdomain.Service, *clock.FakeClock) {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	svc := NewService(Params{
		DB:    conn,
		Log:   zaptest.NewLogger(t),
		GenID: node,
		Clock: clk,
		Repo:  repository.Provide(),
	})
	return svc, clk
}

func TestAuditLogRecordsActorFromContext(t *testing.T) {
	svc, _ := newTestService(t)

	ctx := obscontext.WithActor(context.Background(), "pepper")
	ctx = obscontext.WithRequestID(ctx, "req-1")
	targetID := "42"
	require.NoError(t, svc.AuditLog(ctx, "check.manual_update", "check", &targetID, map[string]any{
		"status":         "Approved",
		"photo_data_uri": "data:image/jpeg;base64,AAAA",
	}))

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{Action: "check.manual_update"})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)

	entry := resp.AuditLogs[0]
	assert.Equal(t, "pepper", entry.Actor)
	assert.Equal(t, "check", entry.TargetType)
	require.NotNil(t, entry.TargetID)
	assert.Equal(t, "42", *entry.TargetID)
	assert.Equal(t, "Approved", entry.Metadata["status"])
	assert.Equal(t, "[redacted]", entry.Metadata["photo_data_uri"])
	assert.Equal(t, "req-1", entry.Metadata["request_id"])
}

func TestAuditLogRejectsBlankAction(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.AuditLog(context.Background(), " ", "check", nil, nil)
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

func TestListPaginatesNewestFirst(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.AuditLog(ctx, "tenant.create", "tenant", nil, nil))
		clk.Advance(time.Minute)
	}

	first, err := svc.List(ctx, auditdomain.ListAuditLogRequest{Pagination: pagination.Pagination{PageSize: 2}})
	require.NoError(t, err)
	require.Len(t, first.AuditLogs, 2)
	assert.True(t, first.HasMore)
	assert.True(t, first.AuditLogs[0].CreatedAt.After(first.AuditLogs[1].CreatedAt))
	assert.Equal(t, "system", first.AuditLogs[0].Actor)

	second, err := svc.List(ctx, auditdomain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageSize: 2, PageToken: first.NextPageToken},
	})
	require.NoError(t, err)
	require.Len(t, second.AuditLogs, 1)
	assert.False(t, second.HasMore)

	_, err = svc.List(ctx, auditdomain.ListAuditLogRequest{Pagination: pagination.Pagination{PageToken: "%%%"}})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)
}

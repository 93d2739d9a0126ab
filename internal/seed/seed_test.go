package seed

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	checkdomain "github.com/smallbiznis/checkmapper/internal/check/domain"
	checkrepo "github.com/smallbiznis/checkmapper/internal/check/repository"
	"github.com/smallbiznis/checkmapper/internal/clock"
	mappingdomain "github.com/smallbiznis/checkmapper/internal/mapping/domain"
	mappingrepo "github.com/smallbiznis/checkmapper/internal/mapping/repository"
	tenantdomain "github.com/smallbiznis/checkmapper/internal/tenant/domain"
	tenantrepo "github.com/smallbiznis/checkmapper/internal/tenant/repository"
	"github.com/smallbiznis/checkmapper/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRunLoadsDemoFixturesIdempotently(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&tenantdomain.Tenant{}, &mappingdomain.Mapping{}, &checkdomain.Check{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	seeder := New(Params{
		DB:          conn,
		Log:         zaptest.NewLogger(t),
		GenID:       node,
		Clock:       clock.NewFakeClock(time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)),
		TenantRepo:  tenantrepo.Provide(),
		MappingRepo: mappingrepo.Provide(),
		CheckRepo:   checkrepo.Provide(),
	})

	ctx := context.Background()
	require.NoError(t, seeder.Run(ctx))
	require.NoError(t, seeder.Run(ctx))

	var tenants []tenantdomain.Tenant
	require.NoError(t, conn.Order("tenant_name").Find(&tenants).Error)
	require.Len(t, tenants, 4)
	assert.Equal(t, "Cyberdyne Systems", tenants[0].TenantName)

	var mappings int64
	require.NoError(t, conn.Model(&mappingdomain.Mapping{}).Count(&mappings).Error)
	assert.EqualValues(t, 5, mappings)

	var checks []checkdomain.Check
	require.NoError(t, conn.Order("check_id").Find(&checks).Error)
	require.Len(t, checks, 5)

	assert.Equal(t, checkdomain.StatusIncoming, checks[0].Status)
	assert.Nil(t, checks[0].MappedTenantID)

	suggestion := checks[2]
	assert.Equal(t, "Lucius Fox", suggestion.SenderName)
	assert.True(t, suggestion.IsSuggestion)
	require.NotNil(t, suggestion.SuggestionReason)
	assert.Contains(t, *suggestion.SuggestionReason, "Wayne Enterprises")
	require.NotNil(t, suggestion.MappingConfidence)
	assert.InDelta(t, 0.85, *suggestion.MappingConfidence, 1e-9)

	assert.Equal(t, checkdomain.StatusApproved, checks[3].Status)
	assert.Equal(t, checkdomain.StatusDenied, checks[4].Status)
}

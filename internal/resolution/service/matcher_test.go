package service

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/checkmapper/internal/config"
	mappingdomain "github.com/smallbiznis/checkmapper/internal/mapping/domain"
	"github.com/smallbiznis/checkmapper/internal/namekey"
	"github.com/smallbiznis/checkmapper/internal/resolution/domain"
	tenantdomain "github.com/smallbiznis/checkmapper/internal/tenant/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

func tenant(id int64, name string) tenantdomain.Tenant {
	return tenantdomain.Tenant{ID: snowflake.ID(id), TenantName: name, NameKey: namekey.Normalize(name)}
}

func alias(id int64, sender string, tenantID int64, age time.Duration) mappingdomain.Mapping {
	return mappingdomain.Mapping{
		ID:         snowflake.ID(id),
		SenderName: sender,
		SenderKey:  namekey.Normalize(sender),
		TenantID:   snowflake.ID(tenantID),
		CreatedAt:  base.Add(-age),
	}
}

func fixtures() ([]mappingdomain.Mapping, []tenantdomain.Tenant) {
	tenants := []tenantdomain.Tenant{
		tenant(1, "Stark Industries"),
		tenant(2, "Wayne Enterprises"),
		tenant(3, "Cyberdyne Systems"),
		tenant(4, "Ollivanders Wand Shop"),
	}
	mappings := []mappingdomain.Mapping{
		alias(11, "Tony Stark", 1, 5*time.Hour),
		alias(12, "Stark Expo", 1, 4*time.Hour),
		alias(13, "Bruce Wayne", 2, 3*time.Hour),
		alias(14, "Wayne Foundation", 2, 2*time.Hour),
		alias(15, "Cyberdyne", 3, time.Hour),
	}
	return mappings, tenants
}

func TestMatchExactAlias(t *testing.T) {
	mappings, tenants := fixtures()

	p := match("tony  STARK", mappings, tenants, config.DefaultResolutionConfig())

	assert.Equal(t, domain.KindExact, p.Kind)
	require.NotNil(t, p.TenantID)
	assert.Equal(t, snowflake.ID(1), *p.TenantID)
	require.NotNil(t, p.Confidence)
	assert.Equal(t, 1.0, *p.Confidence)
	assert.False(t, p.IsSuggestion)
	assert.Nil(t, p.Reason)
	assert.Equal(t, "Tony Stark", p.MatchedAlias)
}

func TestMatchFuzzyAlias(t *testing.T) {
	mappings, tenants := fixtures()

	p := match("Tony Starks", mappings, tenants, config.DefaultResolutionConfig())

	assert.Equal(t, domain.KindFuzzy, p.Kind)
	require.NotNil(t, p.TenantID)
	assert.Equal(t, snowflake.ID(1), *p.TenantID)
	require.NotNil(t, p.Confidence)
	assert.Greater(t, *p.Confidence, 0.0)
	assert.Less(t, *p.Confidence, 1.0)
	assert.True(t, p.IsSuggestion)
	require.NotNil(t, p.Reason)
	assert.Equal(t, `Sender name "Tony Starks" is similar to known alias "Tony Stark" for "Stark Industries".`, *p.Reason)
}

func TestMatchReorderedTokensIsCappedBelowExact(t *testing.T) {
	mappings, tenants := fixtures()

	p := match("Stark, Tony", mappings, tenants, config.DefaultResolutionConfig())

	assert.Equal(t, domain.KindFuzzy, p.Kind)
	require.NotNil(t, p.Confidence)
	assert.Equal(t, 0.99, *p.Confidence)
}

func TestMatchTenantName(t *testing.T) {
	mappings, tenants := fixtures()

	p := match("Ollivanders Wand Shop", mappings, tenants, config.DefaultResolutionConfig())

	assert.Equal(t, domain.KindTenantName, p.Kind)
	require.NotNil(t, p.TenantID)
	assert.Equal(t, snowflake.ID(4), *p.TenantID)
	require.NotNil(t, p.Confidence)
	assert.Equal(t, 0.95, *p.Confidence)
	assert.True(t, p.IsSuggestion)
	require.NotNil(t, p.Reason)
	assert.Equal(t, `Sender name "Ollivanders Wand Shop" matches tenant name "Ollivanders Wand Shop".`, *p.Reason)
	assert.Nil(t, p.MappingID)
}

func TestMatchNone(t *testing.T) {
	mappings, tenants := fixtures()

	p := match("A N Other", mappings, tenants, config.DefaultResolutionConfig())

	assert.Equal(t, domain.KindNone, p.Kind)
	assert.Nil(t, p.TenantID)
	assert.Nil(t, p.Confidence)
	assert.False(t, p.IsSuggestion)
	assert.Nil(t, p.Reason)
	assert.Equal(t, "A N Other", p.SenderName)
}

func TestMatchEmptyTablesYieldNone(t *testing.T) {
	p := match("Tony Stark", nil, nil, config.DefaultResolutionConfig())
	assert.Equal(t, domain.KindNone, p.Kind)
}

func TestMatchTieBreakPrefersNewestMapping(t *testing.T) {
	tenants := []tenantdomain.Tenant{tenant(1, "Stark Industries"), tenant(2, "Wayne Enterprises")}
	mappings := []mappingdomain.Mapping{
		alias(21, "Pepper Potts", 1, 2*time.Hour),
		alias(22, "Pepper Potts", 2, time.Hour),
	}

	p := match("pepper potts", mappings, tenants, config.DefaultResolutionConfig())
	require.NotNil(t, p.TenantID)
	assert.Equal(t, snowflake.ID(2), *p.TenantID)

	// equal timestamps fall back to the higher id
	mappings[0].CreatedAt = mappings[1].CreatedAt
	mappings[0].ID = 23
	p = match("pepper potts", mappings, tenants, config.DefaultResolutionConfig())
	require.NotNil(t, p.TenantID)
	assert.Equal(t, snowflake.ID(1), *p.TenantID)
}

func TestMatchFuzzyTieBreakPrefersNewestMapping(t *testing.T) {
	tenants := []tenantdomain.Tenant{tenant(1, "Stark Industries"), tenant(2, "Wayne Enterprises")}
	mappings := []mappingdomain.Mapping{
		alias(31, "Happy Hogan", 1, 2*time.Hour),
		alias(32, "Happy Hogan", 2, time.Hour),
	}

	p := match("Happy Hogans", mappings, tenants, config.DefaultResolutionConfig())
	assert.Equal(t, domain.KindFuzzy, p.Kind)
	require.NotNil(t, p.TenantID)
	assert.Equal(t, snowflake.ID(2), *p.TenantID)
}

func TestMatchRespectsMinConfidence(t *testing.T) {
	mappings, tenants := fixtures()
	cfg := config.DefaultResolutionConfig()
	cfg.MinConfidence = 0.95

	p := match("Tony Starks", mappings, tenants, cfg)
	assert.Equal(t, domain.KindNone, p.Kind)
}

func TestSimilarityHelpers(t *testing.T) {
	assert.InDelta(t, 1-1.0/11, editSimilarity("tony-starks", "tony-stark"), 1e-9)
	assert.Equal(t, 0.0, editSimilarity("", ""))
	assert.InDelta(t, 1.0/3, tokenJaccard([]string{"tony", "starks"}, []string{"tony", "stark"}), 1e-9)
	assert.Equal(t, 1.0, tokenJaccard([]string{"stark", "tony"}, []string{"tony", "stark"}))
	assert.Equal(t, 0.0, tokenJaccard(nil, []string{"tony"}))
}

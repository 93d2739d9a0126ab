package service_test

import (
	"testing"

	"github.com/smallbiznis/checkmapper/internal/resolution/domain"
	"github.com/smallbiznis/checkmapper/internal/testkit"
	"github.com/smallbiznis/checkmapper/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveExactAliasIgnoresCaseAndSpacing(t *testing.T) {
	app := testkit.New(t, testkit.Options{})
	tenants := app.Demo(t)

	proposal, err := app.Resolver.Resolve(t.Context(), "  tony   STARK ")
	require.NoError(t, err)

	assert.Equal(t, domain.KindExact, proposal.Kind)
	require.NotNil(t, proposal.TenantID)
	assert.Equal(t, tenants["Stark Industries"].ID, *proposal.TenantID)
	require.NotNil(t, proposal.Confidence)
	assert.Equal(t, 1.0, *proposal.Confidence)
	assert.False(t, proposal.IsSuggestion)
	assert.Nil(t, proposal.Reason)
	assert.Equal(t, "Tony Stark", proposal.MatchedAlias)
}

func TestResolveFallsBackToTenantName(t *testing.T) {
	app := testkit.New(t, testkit.Options{})
	tenants := app.Demo(t)

	proposal, err := app.Resolver.Resolve(t.Context(), "Ollivanders Wand Shop")
	require.NoError(t, err)

	assert.Equal(t, domain.KindTenantName, proposal.Kind)
	require.NotNil(t, proposal.TenantID)
	assert.Equal(t, tenants["Ollivanders Wand Shop"].ID, *proposal.TenantID)
	require.NotNil(t, proposal.Confidence)
	assert.Less(t, *proposal.Confidence, 1.0)
	assert.True(t, proposal.IsSuggestion)
	require.NotNil(t, proposal.Reason)
	assert.Contains(t, *proposal.Reason, "Ollivanders Wand Shop")
}

func TestResolveUnknownSender(t *testing.T) {
	app := testkit.New(t, testkit.Options{})
	app.Demo(t)

	proposal, err := app.Resolver.Resolve(t.Context(), "Qxv Zzyq")
	require.NoError(t, err)

	assert.Equal(t, domain.KindNone, proposal.Kind)
	assert.False(t, proposal.Matched())
	assert.Nil(t, proposal.Confidence)
}

func TestResolveSeesNewAliasImmediately(t *testing.T) {
	app := testkit.New(t, testkit.Options{})
	tenants := app.Demo(t)

	before, err := app.Resolver.Resolve(t.Context(), "Qxv Zzyq")
	require.NoError(t, err)
	require.False(t, before.Matched())

	app.Alias(t, "Qxv Zzyq", tenants["Cyberdyne Systems"])

	after, err := app.Resolver.Resolve(t.Context(), "qxv zzyq")
	require.NoError(t, err)
	assert.Equal(t, domain.KindExact, after.Kind)
	require.NotNil(t, after.TenantID)
	assert.Equal(t, tenants["Cyberdyne Systems"].ID, *after.TenantID)
}

func TestResolveRejectsBlankSender(t *testing.T) {
	app := testkit.New(t, testkit.Options{})

	for _, name := range []string{"", "   "} {
		_, err := app.Resolver.Resolve(t.Context(), name)
		require.Error(t, err, name)
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err), name)
	}
}

package domain

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/checkmapper/internal/config"
	resolutiondomain "github.com/smallbiznis/checkmapper/internal/resolution/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)

func incoming() *Check {
	return &Check{ID: 1234567, CheckID: "CHK-1", SenderName: InitialSenderName, Status: StatusIncoming}
}

func TestParseStatus(t *testing.T) {
	for _, raw := range []string{"Incoming", "Processed", "Approved", " Denied "} {
		_, err := ParseStatus(raw)
		assert.NoError(t, err, raw)
	}
	_, err := ParseStatus("approved")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestApplyResolutionMatched(t *testing.T) {
	tenantID := snowflake.ID(9)
	conf := 0.91
	reason := "similar"
	c := incoming()

	err := c.ApplyResolution(resolutiondomain.Proposal{
		SenderName:   "Tony Starks",
		Kind:         resolutiondomain.KindFuzzy,
		TenantID:     &tenantID,
		Confidence:   &conf,
		IsSuggestion: true,
		Reason:       &reason,
	}, config.UnmatchedKeepIncoming, now)
	require.NoError(t, err)

	assert.Equal(t, StatusProcessed, c.Status)
	assert.Equal(t, "Tony Starks", c.SenderName)
	assert.Equal(t, tenantID, *c.MappedTenantID)
	assert.True(t, c.IsSuggestion)
	assert.Equal(t, 0.91, *c.MappingConfidence)
	assert.Equal(t, now, c.UpdatedAt)

	// the check owns its copies
	conf = 0.1
	assert.Equal(t, 0.91, *c.MappingConfidence)

	err = c.ApplyResolution(resolutiondomain.Proposal{SenderName: "x"}, config.UnmatchedKeepIncoming, now)
	assert.ErrorIs(t, err, ErrNotIncoming)
}

func TestApplyResolutionUnmatched(t *testing.T) {
	c := incoming()
	require.NoError(t, c.ApplyResolution(resolutiondomain.Proposal{SenderName: "Pepper Potts", Kind: resolutiondomain.KindNone}, config.UnmatchedKeepIncoming, now))
	assert.Equal(t, StatusIncoming, c.Status)
	assert.Equal(t, "Pepper Potts", c.SenderName)
	assert.Nil(t, c.MappedTenantID)

	c = incoming()
	require.NoError(t, c.ApplyResolution(resolutiondomain.Proposal{SenderName: "Pepper Potts", Kind: resolutiondomain.KindNone}, config.UnmatchedProcessed, now))
	assert.Equal(t, StatusProcessed, c.Status)
	assert.Nil(t, c.MappedTenantID)
	assert.Nil(t, c.MappingConfidence)
}

func TestManualUpdate(t *testing.T) {
	stark := snowflake.ID(1)
	wayne := snowflake.ID(2)
	conf := 0.85
	reason := "associated"
	c := &Check{Status: StatusProcessed, MappedTenantID: &stark, IsSuggestion: true, MappingConfidence: &conf, SuggestionReason: &reason}

	c.ManualUpdate(StatusApproved, &stark, now)
	assert.Equal(t, StatusApproved, c.Status)
	assert.False(t, c.IsSuggestion)
	assert.NotNil(t, c.MappingConfidence)
	assert.NotNil(t, c.SuggestionReason)

	c.ManualUpdate(StatusApproved, &wayne, now)
	assert.Equal(t, wayne, *c.MappedTenantID)
	assert.Nil(t, c.MappingConfidence)
	assert.Nil(t, c.SuggestionReason)

	c.ManualUpdate(StatusDenied, nil, now)
	assert.Nil(t, c.MappedTenantID)
	assert.Equal(t, StatusDenied, c.Status)
}

func TestObjectKeyAndPlaceholder(t *testing.T) {
	c := incoming()
	assert.Equal(t, "checks/1234567/CHK-1.jpg", c.ObjectKey())
	assert.Equal(t, "Uploaded Check 1234", c.PlaceholderSenderName())
}

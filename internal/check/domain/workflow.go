package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/checkmapper/internal/config"
	resolutiondomain "github.com/smallbiznis/checkmapper/internal/resolution/domain"
)

func ParseStatus(value string) (Status, error) {
	switch Status(strings.TrimSpace(value)) {
	case StatusIncoming:
		return StatusIncoming, nil
	case StatusProcessed:
		return StatusProcessed, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusDenied:
		return StatusDenied, nil
	default:
		return "", ErrInvalidStatus
	}
}

// ApplyResolution records a proposal on an Incoming check. Matched proposals
// move the check to Processed; unmatched ones follow unmatchedPolicy.
func (c *Check) ApplyResolution(p resolutiondomain.Proposal, unmatchedPolicy string, now time.Time) error {
	if c.Status != StatusIncoming {
		return ErrNotIncoming
	}

	c.SenderName = strings.TrimSpace(p.SenderName)
	c.UpdatedAt = now

	if !p.Matched() {
		c.MappedTenantID = nil
		c.IsSuggestion = false
		c.SuggestionReason = nil
		c.MappingConfidence = nil
		if unmatchedPolicy == config.UnmatchedProcessed {
			c.Status = StatusProcessed
		}
		return nil
	}

	tenantID := *p.TenantID
	c.MappedTenantID = &tenantID
	c.IsSuggestion = p.IsSuggestion
	c.SuggestionReason = copyString(p.Reason)
	c.MappingConfidence = copyFloat(p.Confidence)
	c.Status = StatusProcessed
	return nil
}

// ManualUpdate applies an operator decision. The result is never a
// suggestion; reason and confidence survive only when the operator keeps the
// proposed tenant.
func (c *Check) ManualUpdate(status Status, tenantID *snowflake.ID, now time.Time) {
	if !sameTenant(c.MappedTenantID, tenantID) {
		c.SuggestionReason = nil
		c.MappingConfidence = nil
	}
	if tenantID != nil {
		id := *tenantID
		c.MappedTenantID = &id
	} else {
		c.MappedTenantID = nil
	}
	c.Status = status
	c.IsSuggestion = false
	c.UpdatedAt = now
}

func sameTenant(a, b *snowflake.ID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

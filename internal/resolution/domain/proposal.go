package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/checkmapper/pkg/apperror"
)

// Kind describes how a proposal was reached.
type Kind string

const (
	KindExact      Kind = "exact"
	KindFuzzy      Kind = "fuzzy"
	KindTenantName Kind = "tenant_name"
	KindNone       Kind = "none"
)

// Proposal is the engine's answer for one sender name. TenantID and
// Confidence are nil when nothing matched.
type Proposal struct {
	SenderName   string        `json:"sender_name"`
	Kind         Kind          `json:"kind"`
	TenantID     *snowflake.ID `json:"tenant_id"`
	TenantName   string        `json:"tenant_name,omitempty"`
	MatchedAlias string        `json:"matched_alias,omitempty"`
	MappingID    *snowflake.ID `json:"mapping_id,omitempty"`
	Confidence   *float64      `json:"confidence"`
	IsSuggestion bool          `json:"is_suggestion"`
	Reason       *string       `json:"reason"`
}

func (p Proposal) Matched() bool {
	return p.TenantID != nil
}

type Service interface {
	Resolve(ctx context.Context, senderName string) (Proposal, error)
}

var ErrInvalidSenderName = apperror.Validation("invalid_sender_name")

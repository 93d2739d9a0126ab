package service

import (
	"fmt"
	"math"

	"github.com/agnivade/levenshtein"
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/checkmapper/internal/config"
	mappingdomain "github.com/smallbiznis/checkmapper/internal/mapping/domain"
	"github.com/smallbiznis/checkmapper/internal/namekey"
	"github.com/smallbiznis/checkmapper/internal/resolution/domain"
	tenantdomain "github.com/smallbiznis/checkmapper/internal/tenant/domain"
)

const exactConfidence = 1.0

type candidate struct {
	kind    domain.Kind
	score   float64
	tenant  tenantdomain.Tenant
	mapping *mappingdomain.Mapping
}

// better reports whether c should replace best: higher score first, then
// aliases over tenant names, then the most recently added mapping.
func (c candidate) better(best *candidate) bool {
	if best == nil {
		return true
	}
	if c.score != best.score {
		return c.score > best.score
	}
	if (c.mapping != nil) != (best.mapping != nil) {
		return c.mapping != nil
	}
	if c.mapping == nil {
		return c.tenant.ID > best.tenant.ID
	}
	return newer(c.mapping, best.mapping)
}

func newer(a, b *mappingdomain.Mapping) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// match resolves senderName against the alias table and the tenant
// directory. The caller guarantees senderName normalizes to a non-empty key.
func match(senderName string, mappings []mappingdomain.Mapping, tenants []tenantdomain.Tenant, cfg config.ResolutionConfig) domain.Proposal {
	key := namekey.Normalize(senderName)
	tokens := namekey.Tokens(key)

	tenantsByID := make(map[snowflake.ID]tenantdomain.Tenant, len(tenants))
	for _, tenant := range tenants {
		tenantsByID[tenant.ID] = tenant
	}

	var exact *candidate
	var best *candidate
	for i := range mappings {
		m := &mappings[i]
		tenant, ok := tenantsByID[m.TenantID]
		if !ok {
			continue
		}
		aliasKey := m.SenderKey
		if aliasKey == "" {
			aliasKey = namekey.Normalize(m.SenderName)
		}

		if aliasKey == key {
			c := candidate{kind: domain.KindExact, score: exactConfidence, tenant: tenant, mapping: m}
			if c.better(exact) {
				exact = &c
			}
			continue
		}
		if exact != nil {
			continue
		}

		score := similarity(key, tokens, aliasKey)
		if score < cfg.MinConfidence {
			continue
		}
		c := candidate{kind: domain.KindFuzzy, score: suggestionScore(score, cfg), tenant: tenant, mapping: m}
		if c.better(best) {
			best = &c
		}
	}
	if exact != nil {
		return proposalFor(senderName, *exact)
	}

	for _, tenant := range tenants {
		tenantKey := tenant.NameKey
		if tenantKey == "" {
			tenantKey = namekey.Normalize(tenant.TenantName)
		}
		score := 1.0
		if tenantKey != key {
			score = similarity(key, tokens, tenantKey)
		}
		score *= cfg.TenantNameWeight
		if score < cfg.MinConfidence {
			continue
		}
		c := candidate{kind: domain.KindTenantName, score: suggestionScore(score, cfg), tenant: tenant}
		if c.better(best) {
			best = &c
		}
	}
	if best != nil {
		return proposalFor(senderName, *best)
	}

	return domain.Proposal{SenderName: senderName, Kind: domain.KindNone}
}

func proposalFor(senderName string, c candidate) domain.Proposal {
	tenantID := c.tenant.ID
	confidence := c.score
	p := domain.Proposal{
		SenderName: senderName,
		Kind:       c.kind,
		TenantID:   &tenantID,
		TenantName: c.tenant.TenantName,
		Confidence: &confidence,
	}
	if c.mapping != nil {
		mappingID := c.mapping.ID
		p.MappingID = &mappingID
		p.MatchedAlias = c.mapping.SenderName
	}

	var reason string
	switch c.kind {
	case domain.KindExact:
		return p
	case domain.KindFuzzy:
		reason = fmt.Sprintf("Sender name %q is similar to known alias %q for %q.", senderName, c.mapping.SenderName, c.tenant.TenantName)
	case domain.KindTenantName:
		reason = fmt.Sprintf("Sender name %q matches tenant name %q.", senderName, c.tenant.TenantName)
	}
	p.IsSuggestion = true
	p.Reason = &reason
	return p
}

// suggestionScore rounds to two decimals and keeps the result strictly
// below an exact match.
func suggestionScore(score float64, cfg config.ResolutionConfig) float64 {
	rounded := math.Round(score*100) / 100
	return math.Min(rounded, cfg.MaxSuggestionConfidence)
}

// similarity is the larger of the edit-distance similarity and the token
// Jaccard index of two normalized keys.
func similarity(key string, tokens []string, other string) float64 {
	return math.Max(editSimilarity(key, other), tokenJaccard(tokens, namekey.Tokens(other)))
}

func editSimilarity(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 0
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1 - float64(distance)/float64(longest)
}

func tokenJaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]uint8, len(a)+len(b))
	for _, token := range a {
		set[token] |= 1
	}
	for _, token := range b {
		set[token] |= 2
	}
	var inter int
	for _, bits := range set {
		if bits == 3 {
			inter++
		}
	}
	return float64(inter) / float64(len(set))
}

package service

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/checkmapper/internal/check/domain"
	"github.com/smallbiznis/checkmapper/internal/namekey"
	obscontext "github.com/smallbiznis/checkmapper/internal/observability/context"
	"github.com/smallbiznis/checkmapper/internal/observability/tracing"
	resolutiondomain "github.com/smallbiznis/checkmapper/internal/resolution/domain"
	"github.com/smallbiznis/checkmapper/pkg/apperror"
	"github.com/smallbiznis/checkmapper/pkg/db"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxImageBytes   = 10 << 20
	maxCheckIDLen   = 100
	uploadEndpoint  = "checks.upload"
	denyRateLimited = "rate_limited"
	denyLocked      = "in_progress"
)

// Upload stores the image first and the record second. Retrying with the same
// check id converges on one record and one object key.
func (s *Service) Upload(ctx context.Context, req domain.UploadCheckRequest) (domain.Check, error) {
	image, err := decodeImage(req)
	if err != nil {
		return domain.Check{}, err
	}
	senderName := strings.TrimSpace(req.SenderName)
	if senderName != "" && namekey.Normalize(senderName) == "" {
		return domain.Check{}, resolutiondomain.ErrInvalidSenderName
	}

	checkID := strings.TrimSpace(req.CheckID)
	if checkID == "" {
		checkID = ulid.Make().String()
	}
	if len(checkID) > maxCheckIDLen || strings.ContainsAny(checkID, `/\`) {
		return domain.Check{}, domain.ErrInvalidCheckID
	}

	ctx, span := tracing.StartSpan(ctx, "check", "upload", attribute.String("check.id", checkID))
	defer span.End()

	release, err := s.acquireUpload(ctx, checkID)
	if err != nil {
		return domain.Check{}, err
	}
	defer release()

	check, reused, err := s.findOrCreate(ctx, checkID)
	if err != nil {
		return domain.Check{}, err
	}

	url, err := s.blob.Put(ctx, check.ObjectKey(), image, domain.ImageContentType)
	if err != nil {
		s.log.Warn("check image upload failed",
			zap.String("check_id", checkID),
			zap.String("key", check.ObjectKey()),
			zap.Error(err),
		)
		return domain.Check{}, apperror.Storage("store check image", err)
	}

	var updated domain.Check
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindByID(ctx, tx, check.ID, true)
		if err != nil {
			return apperror.Storage("load check", err)
		}
		if item == nil {
			return domain.ErrNotFound
		}
		item.ImageURL = &url
		if item.SenderName == domain.InitialSenderName {
			item.SenderName = item.PlaceholderSenderName()
		}
		item.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, item); err != nil {
			return apperror.Storage("update check", err)
		}
		updated = *item
		return nil
	})
	if err != nil {
		return domain.Check{}, err
	}

	s.metrics.RecordCheckUploaded(ctx, s.blobStoreName, reused)
	s.emitAudit(ctx, "check.upload", &updated, map[string]any{
		"reused":    reused,
		"image_url": url,
		"size":      len(image),
	})
	s.log.Info("check image stored",
		zap.String("check_id", updated.CheckID),
		zap.String("id", updated.ID.String()),
		zap.Bool("reused", reused),
	)

	if senderName == "" || updated.Status != domain.StatusIncoming {
		return updated, nil
	}
	return s.Resolve(ctx, domain.ResolveCheckRequest{ID: updated.ID.String(), SenderName: senderName})
}

// acquireUpload applies the operator rate limit and the per-check lock. Redis
// failures let the upload through.
func (s *Service) acquireUpload(ctx context.Context, checkID string) (func(), error) {
	noop := func() {}
	if !s.limiter.Enabled() {
		return noop, nil
	}

	operator := obscontext.ActorFromContext(ctx)
	res, err := s.limiter.Allow(ctx, operator)
	if err != nil {
		s.log.Warn("upload rate limit unavailable", zap.Error(err))
	} else if !res.Allowed {
		s.metrics.RecordRateLimitDenied(ctx, uploadEndpoint, denyRateLimited)
		return noop, domain.ErrRateLimited
	}

	token, ok, err := s.limiter.TryLock(ctx, checkID)
	if err != nil {
		s.log.Warn("upload lock unavailable", zap.String("check_id", checkID), zap.Error(err))
		s.metrics.RecordRateLimitAllowed(ctx, uploadEndpoint)
		return noop, nil
	}
	if !ok {
		s.metrics.RecordRateLimitDenied(ctx, uploadEndpoint, denyLocked)
		return noop, domain.ErrUploadInProgress
	}

	s.metrics.RecordRateLimitAllowed(ctx, uploadEndpoint)
	return func() {
		if err := s.limiter.Release(context.WithoutCancel(ctx), checkID, token); err != nil {
			s.log.Warn("release upload lock", zap.String("check_id", checkID), zap.Error(err))
		}
	}, nil
}

func (s *Service) findOrCreate(ctx context.Context, checkID string) (*domain.Check, bool, error) {
	existing, err := s.repo.FindByCheckID(ctx, s.db, checkID)
	if err != nil {
		return nil, false, apperror.Storage("load check", err)
	}
	if existing != nil {
		return existing, true, nil
	}

	now := s.clock.Now()
	check := &domain.Check{
		ID:         s.genID.Generate(),
		CheckID:    checkID,
		SenderName: domain.InitialSenderName,
		Status:     domain.StatusIncoming,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Insert(ctx, s.db, check); err != nil {
		if !db.IsDuplicateKeyErr(err) {
			return nil, false, apperror.Storage("insert check", err)
		}
		// lost the race to a concurrent upload of the same check id
		existing, err := s.repo.FindByCheckID(ctx, s.db, checkID)
		if err != nil {
			return nil, false, apperror.Storage("load check", err)
		}
		if existing == nil {
			return nil, false, apperror.Storage("insert check", err)
		}
		return existing, true, nil
	}
	return check, false, nil
}

func decodeImage(req domain.UploadCheckRequest) ([]byte, error) {
	image := req.Image
	if len(image) == 0 && strings.TrimSpace(req.DataURI) != "" {
		decoded, err := decodeDataURI(req.DataURI)
		if err != nil {
			return nil, err
		}
		image = decoded
	}
	if len(image) == 0 || len(image) > maxImageBytes {
		return nil, domain.ErrInvalidImage
	}
	return image, nil
}

// decodeDataURI accepts "data:<mime>;base64,<payload>" and bare base64.
func decodeDataURI(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	payload := value
	if strings.HasPrefix(value, "data:") {
		header, rest, ok := strings.Cut(value, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return nil, domain.ErrInvalidImage
		}
		payload = rest
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, domain.ErrInvalidImage
		}
	}
	return decoded, nil
}

package service_test

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	auditdomain "github.com/smallbiznis/checkmapper/internal/audit/domain"
	"github.com/smallbiznis/checkmapper/internal/check/domain"
	"github.com/smallbiznis/checkmapper/internal/config"
	obscontext "github.com/smallbiznis/checkmapper/internal/observability/context"
	"github.com/smallbiznis/checkmapper/internal/testkit"
	"github.com/smallbiznis/checkmapper/pkg/apperror"
	"github.com/smallbiznis/checkmapper/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jpeg = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}

func upload(t *testing.T, app *testkit.App, checkID, sender string) domain.Check {
	t.Helper()
	check, err := app.Checks.Upload(context.Background(), domain.UploadCheckRequest{
		CheckID:    checkID,
		Image:      jpeg,
		SenderName: sender,
	})
	require.NoError(t, err)
	app.Clock.Advance(time.Second)
	return check
}

func TestUploadCreatesIncomingCheckWithPlaceholder(t *testing.T) {
	app := testkit.New(t, testkit.Options{})

	check, err := app.Checks.Upload(context.Background(), domain.UploadCheckRequest{
		CheckID: "CHK-100",
		DataURI: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg),
	})
	require.NoError(t, err)

	assert.Equal(t, "CHK-100", check.CheckID)
	assert.Equal(t, domain.StatusIncoming, check.Status)
	assert.Nil(t, check.MappedTenantID)
	assert.False(t, check.IsSuggestion)
	assert.Equal(t, "Uploaded Check "+check.ID.String()[:4], check.SenderName)
	require.NotNil(t, check.ImageURL)
	assert.Equal(t, "http://blobs.test/"+check.ObjectKey(), *check.ImageURL)

	obj, ok := app.Memory.Get(check.ObjectKey())
	require.True(t, ok)
	assert.Equal(t, jpeg, obj.Data)
	assert.Equal(t, "image/jpeg", obj.ContentType)
}

func TestUploadRetryReusesRecordAndObject(t *testing.T) {
	app := testkit.New(t, testkit.Options{})

	first := upload(t, app, "CHK-RETRY", "")
	second := upload(t, app, "CHK-RETRY", "")

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.SenderName, second.SenderName)
	assert.Equal(t, *first.ImageURL, *second.ImageURL)
	assert.Equal(t, 1, app.Memory.Len())

	resp, err := app.Checks.List(context.Background(), domain.ListCheckRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.Checks, 1)
}

func TestUploadGeneratesCheckIDWhenOmitted(t *testing.T) {
	app := testkit.New(t, testkit.Options{})

	a := upload(t, app, "", "")
	b := upload(t, app, "", "")

	assert.NotEmpty(t, a.CheckID)
	assert.NotEqual(t, a.CheckID, b.CheckID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestUploadRejectsMissingOrMalformedImage(t *testing.T) {
	app := testkit.New(t, testkit.Options{})
	ctx := context.Background()

	_, err := app.Checks.Upload(ctx, domain.UploadCheckRequest{CheckID: "CHK-1"})
	assert.ErrorIs(t, err, domain.ErrInvalidImage)

	_, err = app.Checks.Upload(ctx, domain.UploadCheckRequest{CheckID: "CHK-1", DataURI: "data:image/jpeg;base64,@@@"})
	assert.ErrorIs(t, err, domain.ErrInvalidImage)

	_, err = app.Checks.Upload(ctx, domain.UploadCheckRequest{CheckID: "CHK-1", DataURI: "data:image/jpeg,plain"})
	assert.ErrorIs(t, err, domain.ErrInvalidImage)

	_, err = app.Checks.Upload(ctx, domain.UploadCheckRequest{CheckID: "a/b", Image: jpeg})
	assert.ErrorIs(t, err, domain.ErrInvalidCheckID)
}

func TestUploadRejectsUnusableSenderBeforeWriting(t *testing.T) {
	app := testkit.New(t, testkit.Options{})
	ctx := context.Background()

	_, err := app.Checks.Upload(ctx, domain.UploadCheckRequest{
		CheckID:    "CHK-BAD-SENDER",
		Image:      jpeg,
		SenderName: "!!!",
	})
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = app.Checks.GetByCheckID(ctx, "CHK-BAD-SENDER")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, app.Memory.Len())
}

func TestUploadWithKnownSenderResolvesExactly(t *testing.T) {
	app := testkit.New(t, testkit.Options{})
	tenants := app.Demo(t)

	check := upload(t, app, "CHK-200", "Tony Stark")

	assert.Equal(t, domain.StatusProcessed, check.Status)
	assert.Equal(t, "Tony Stark", check.SenderName)
	require.NotNil(t, check.MappedTenantID)
	assert.Equal(t, tenants["Stark Industries"].ID, *check.MappedTenantID)
	assert.False(t, check.IsSuggestion)
	assert.Nil(t, check.SuggestionReason)
	require.NotNil(t, check.MappingConfidence)
	assert.Equal(t, 1.0, *check.MappingConfidence)
	require.NotNil(t, check.ImageURL)

	// a retry after resolution leaves the decision alone
	again := upload(t, app, "CHK-200", "Somebody Else")
	assert.Equal(t, check.ID, again.ID)
	assert.Equal(t, "Tony Stark", again.SenderName)
	assert.Equal(t, domain.StatusProcessed, again.Status)
}

func TestResolveFuzzyAliasProducesSuggestion(t *testing.T) {
	app := testkit.New(t, testkit.Options{})
	tenants := app.Demo(t)
	check := upload(t, app, "CHK-300", "")

	resolved, err := app.Checks.Resolve(context.Background(), domain.ResolveCheckRequest{
		ID:         check.ID.String(),
		SenderName: "  Tony Starks ",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusProcessed, resolved.Status)
	assert.Equal(t, "Tony Starks", resolved.SenderName)
	require.NotNil(t, resolved.MappedTenantID)
	assert.Equal(t, tenants["Stark Industries"].ID, *resolved.MappedTenantID)
	assert.True(t, resolved.IsSuggestion)
	require.NotNil(t, resolved.SuggestionReason)
	assert.Equal(t, `Sender name "Tony Starks" is similar to known alias "Tony Stark" for "Stark Industries".`, *resolved.SuggestionReason)
	require.NotNil(t, resolved.MappingConfidence)
	assert.Greater(t, *resolved.MappingConfidence, 0.0)
	assert.Less(t, *resolved.MappingConfidence, 1.0)

	_, err = app.Checks.Resolve(context.Background(), domain.ResolveCheckRequest{ID: check.ID.String(), SenderName: "Tony Stark"})
	assert.ErrorIs(t, err, domain.ErrNotIncoming)
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
}

func TestResolveTenantNameMatch(t *testing.T) {
	app := testkit.New(t, testkit.Options{})
	tenants := app.Demo(t)
	check := upload(t, app, "CHK-301", "")

	resolved, err := app.Checks.Resolve(context.Background(), domain.ResolveCheckRequest{
		ID:         check.ID.String(),
		SenderName: "Ollivanders Wand Shop",
	})
	require.NoError(t, err)

	require.NotNil(t, resolved.MappedTenantID)
	assert.Equal(t, tenants["Ollivanders Wand Shop"].ID, *resolved.MappedTenantID)
	assert.True(t, resolved.IsSuggestion)
	require.NotNil(t, resolved.MappingConfidence)
	assert.Equal(t, 0.95, *resolved.MappingConfidence)
}

func TestResolveUnmatchedFollowsPolicy(t *testing.T) {
	app := testkit.New(t, testkit.Options{})
	app.Demo(t)
	check := upload(t, app, "CHK-400", "")

	kept, err := app.Checks.Resolve(context.Background(), domain.ResolveCheckRequest{ID: check.ID.String(), SenderName: "Pepper Potts"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIncoming, kept.Status)
	assert.Equal(t, "Pepper Potts", kept.SenderName)
	assert.Nil(t, kept.MappedTenantID)
	assert.Nil(t, kept.MappingConfidence)

	cfg := config.DefaultResolutionConfig()
	cfg.UnmatchedPolicy = config.UnmatchedProcessed
	strict := testkit.New(t, testkit.Options{Resolution: cfg})
	strict.Demo(t)
	other := upload(t, strict, "CHK-401", "")

	processed, err := strict.Checks.Resolve(context.Background(), domain.ResolveCheckRequest{ID: other.ID.String(), SenderName: "Pepper Potts"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessed, processed.Status)
	assert.Nil(t, processed.MappedTenantID)
}

func TestResolveValidatesInput(t *testing.T) {
	app := testkit.New(t, testkit.Options{})
	check := upload(t, app, "CHK-402", "")
	ctx := context.Background()

	_, err := app.Checks.Resolve(ctx, domain.ResolveCheckRequest{ID: check.ID.String(), SenderName: "   "})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = app.Checks.Resolve(ctx, domain.ResolveCheckRequest{ID: "nope", SenderName: "Tony Stark"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = app.Checks.Resolve(ctx, domain.ResolveCheckRequest{ID: "12345", SenderName: "Tony Stark"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestManualUpdateKeepsScoreOnlyForSameTenant(t *testing.T) {
	app := testkit.New(t, testkit.Options{})
	tenants := app.Demo(t)
	check := upload(t, app, "CHK-500", "")
	ctx := obscontext.WithActor(context.Background(), "pepper")

	resolved, err := app.Checks.Resolve(ctx, domain.ResolveCheckRequest{ID: check.ID.String(), SenderName: "Tony Starks"})
	require.NoError(t, err)
	require.True(t, resolved.IsSuggestion)

	stark := tenants["Stark Industries"].ID.String()
	approved, err := app.Checks.ManualUpdate(ctx, domain.ManualUpdateRequest{
		ID:             check.ID.String(),
		Status:         "Approved",
		MappedTenantID: &stark,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)
	assert.False(t, approved.IsSuggestion)
	assert.NotNil(t, approved.SuggestionReason)
	assert.NotNil(t, approved.MappingConfidence)

	wayne := tenants["Wayne Enterprises"].ID.String()
	moved, err := app.Checks.ManualUpdate(ctx, domain.ManualUpdateRequest{
		ID:             check.ID.String(),
		Status:         "Processed",
		MappedTenantID: &wayne,
	})
	require.NoError(t, err)
	require.NotNil(t, moved.MappedTenantID)
	assert.Equal(t, tenants["Wayne Enterprises"].ID, *moved.MappedTenantID)
	assert.Nil(t, moved.SuggestionReason)
	assert.Nil(t, moved.MappingConfidence)

	denied, err := app.Checks.ManualUpdate(ctx, domain.ManualUpdateRequest{ID: check.ID.String(), Status: "Denied"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDenied, denied.Status)
	assert.Nil(t, denied.MappedTenantID)

	logs, err := app.Audit.List(context.Background(), auditdomain.ListAuditLogRequest{Action: "check.manual_update"})
	require.NoError(t, err)
	require.Len(t, logs.AuditLogs, 3)
	assert.Equal(t, "pepper", logs.AuditLogs[0].Actor)
	assert.Equal(t, "Denied", logs.AuditLogs[0].Metadata["status"])
	assert.Equal(t, "Processed", logs.AuditLogs[0].Metadata["previous_status"])
}

func TestManualUpdateRejectsInvalidInput(t *testing.T) {
	app := testkit.New(t, testkit.Options{})
	check := upload(t, app, "CHK-501", "")
	ctx := context.Background()

	_, err := app.Checks.ManualUpdate(ctx, domain.ManualUpdateRequest{ID: check.ID.String(), Status: "Archived"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	missing := "987654321"
	_, err = app.Checks.ManualUpdate(ctx, domain.ManualUpdateRequest{ID: check.ID.String(), Status: "Approved", MappedTenantID: &missing})
	assert.ErrorIs(t, err, domain.ErrInvalidTenantID)

	garbage := "stark"
	_, err = app.Checks.ManualUpdate(ctx, domain.ManualUpdateRequest{ID: check.ID.String(), Status: "Approved", MappedTenantID: &garbage})
	assert.ErrorIs(t, err, domain.ErrInvalidTenantID)

	_, err = app.Checks.ManualUpdate(ctx, domain.ManualUpdateRequest{ID: "12345", Status: "Approved"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	unchanged, err := app.Checks.GetByID(ctx, check.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIncoming, unchanged.Status)
}

func TestListFiltersAndPaginates(t *testing.T) {
	app := testkit.New(t, testkit.Options{})
	tenants := app.Demo(t)
	ctx := context.Background()

	upload(t, app, "CHK-A", "Tony Stark")
	upload(t, app, "CHK-B", "Tony Starks")
	upload(t, app, "CHK-C", "")
	upload(t, app, "CHK-D", "Bruce Wayne")

	processed, err := app.Checks.List(ctx, domain.ListCheckRequest{Status: "Processed"})
	require.NoError(t, err)
	assert.Len(t, processed.Checks, 3)

	suggestion := true
	suggested, err := app.Checks.List(ctx, domain.ListCheckRequest{Suggestion: &suggestion})
	require.NoError(t, err)
	require.Len(t, suggested.Checks, 1)
	assert.Equal(t, "CHK-B", suggested.Checks[0].CheckID)

	stark, err := app.Checks.List(ctx, domain.ListCheckRequest{TenantID: tenants["Stark Industries"].ID.String()})
	require.NoError(t, err)
	assert.Len(t, stark.Checks, 2)

	page, err := app.Checks.List(ctx, domain.ListCheckRequest{Pagination: pagination.Pagination{PageSize: 3}})
	require.NoError(t, err)
	require.Len(t, page.Checks, 3)
	assert.Equal(t, "CHK-D", page.Checks[0].CheckID)
	require.True(t, page.HasMore)

	rest, err := app.Checks.List(ctx, domain.ListCheckRequest{Pagination: pagination.Pagination{PageSize: 3, PageToken: page.NextPageToken}})
	require.NoError(t, err)
	require.Len(t, rest.Checks, 1)
	assert.Equal(t, "CHK-A", rest.Checks[0].CheckID)

	_, err = app.Checks.List(ctx, domain.ListCheckRequest{Status: "Lost"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
	_, err = app.Checks.List(ctx, domain.ListCheckRequest{Pagination: pagination.Pagination{PageToken: "%%%"}})
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}

func TestGetByCheckID(t *testing.T) {
	app := testkit.New(t, testkit.Options{})
	check := upload(t, app, "CHK-600", "")

	found, err := app.Checks.GetByCheckID(context.Background(), " CHK-600 ")
	require.NoError(t, err)
	assert.Equal(t, check.ID, found.ID)

	_, err = app.Checks.GetByCheckID(context.Background(), "CHK-404")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

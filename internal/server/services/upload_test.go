package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/deliverhub/deliverhub/internal/common"
	"github.com/deliverhub/deliverhub/internal/server/metrics"
	"github.com/deliverhub/deliverhub/internal/server/models"
	"github.com/deliverhub/deliverhub/internal/server/sessions"
	"github.com/deliverhub/deliverhub/internal/server/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPartSize = 10 * 1024 * 1024

func uploadWith(repos *fakeRepos, store *fakeStorage, sess sessions.Store) *UploadService {
	if sess == nil {
		sess = sessions.NewMemoryStore(time.Hour)
	}
	catalog := catalogWith(repos, store)
	return NewUploadService(nil, repos, store, sess, catalog,
		testPartSize, time.Hour, testLogger(), metrics.New())
}

func initiateFixture() InitiateInput {
	return InitiateInput{
		Kind:        models.KindDelivery,
		ProjectID:   "p1",
		Filename:    "final-cut.mp4",
		ContentType: "video/mp4",
		SizeBytes:   25 * 1024 * 1024, // 3 parts at 10 MiB
	}
}

func happyStorage() *fakeStorage {
	return &fakeStorage{
		create: func(context.Context, string, string) (string, error) { return "up1", nil },
		presignPart: func(_ context.Context, key, uploadID string, n int32, _ time.Duration) (string, error) {
			return fmt.Sprintf("https://signed.example/%s/%d", uploadID, n), nil
		},
	}
}

func TestInitiateUpload_PartsAndSession(t *testing.T) {
	repos := scopedRepos(testProject(), []string{"staff1"})
	store := happyStorage()
	sess := sessions.NewMemoryStore(time.Hour)
	svc := uploadWith(repos, store, sess)

	res, err := svc.InitiateUpload(context.Background(), staffP, initiateFixture())
	require.NoError(t, err)

	assert.Equal(t, "up1", res.UploadID)
	assert.Equal(t, int64(testPartSize), res.PartSize)
	require.Len(t, res.Parts, 3)
	for i, p := range res.Parts {
		assert.Equal(t, int32(i+1), p.PartNumber)
		assert.NotEmpty(t, p.URL)
	}
	assert.True(t, strings.HasPrefix(res.Key, "projects/p1/deliveries/"))
	assert.True(t, strings.HasSuffix(res.Key, "/final-cut.mp4"))

	stored, err := sess.Get(context.Background(), "up1")
	require.NoError(t, err)
	assert.Equal(t, staffP.ID, stored.OwnerID)
	assert.Equal(t, int32(3), stored.ExpectedParts)
}

func TestInitiateUpload_RejectsBeforeContactingStorage(t *testing.T) {
	store := &fakeStorage{
		create: func(context.Context, string, string) (string, error) {
			t.Fatal("storage contacted for an invalid request")
			return "", nil
		},
	}
	svc := uploadWith(&fakeRepos{}, store, nil)

	in := initiateFixture()
	in.SizeBytes = 0
	in.Filename = ""
	_, err := svc.InitiateUpload(context.Background(), staffP, in)

	var verr *common.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "sizeBytes")
	assert.Contains(t, verr.Fields, "filename")
}

func TestInitiateUpload_ClientForbidden(t *testing.T) {
	svc := uploadWith(&fakeRepos{}, &fakeStorage{}, nil)

	_, err := svc.InitiateUpload(context.Background(), clientP, initiateFixture())
	assert.True(t, errors.Is(err, common.ErrorForbidden))
}

func TestInitiateUpload_KeySanitizesFilename(t *testing.T) {
	repos := scopedRepos(testProject(), []string{"staff1"})
	svc := uploadWith(repos, happyStorage(), nil)

	in := initiateFixture()
	in.Filename = "../../etc/passwd"
	res, err := svc.InitiateUpload(context.Background(), staffP, in)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Key, "projects/p1/deliveries/"))
	assert.True(t, strings.HasSuffix(res.Key, "/.._.._etc_passwd"))
}

func completeFixture() CompleteInput {
	return CompleteInput{
		UploadID:    "up1",
		Key:         "projects/p1/deliveries/x/final-cut.mp4",
		Kind:        models.KindDelivery,
		ProjectID:   "p1",
		Filename:    "final-cut.mp4",
		ContentType: "video/mp4",
		SizeBytes:   25 * 1024 * 1024,
		Parts: []storage.CompletedPart{
			{PartNumber: 2, ETag: "b"},
			{PartNumber: 1, ETag: "a"},
			{PartNumber: 3, ETag: "c"},
		},
	}
}

func TestCompleteUpload_SortsPartsBeforeFinalizing(t *testing.T) {
	var finalized []storage.CompletedPart
	store := &fakeStorage{
		complete: func(_ context.Context, _, _ string, parts []storage.CompletedPart) (string, error) {
			finalized = parts
			return "loc", nil
		},
	}

	var inserted *models.Item
	repos := scopedRepos(testProject(), []string{"staff1"})
	repos.items = &fakeItems{
		insert: func(_ context.Context, it *models.Item) error {
			inserted = it
			return nil
		},
	}
	svc := uploadWith(repos, store, nil)

	item, err := svc.CompleteUpload(context.Background(), staffP, completeFixture())
	require.NoError(t, err)

	require.Len(t, finalized, 3)
	for i, p := range finalized {
		assert.Equal(t, int32(i+1), p.PartNumber)
	}
	require.NotNil(t, inserted)
	assert.Equal(t, item.ID, inserted.ID)
	assert.Equal(t, staffP.ID, inserted.UploadedByID)
}

func TestCompleteUpload_RejectsEmptyOrMalformedParts(t *testing.T) {
	svc := uploadWith(&fakeRepos{}, &fakeStorage{}, nil)

	in := completeFixture()
	in.Parts = nil
	_, err := svc.CompleteUpload(context.Background(), staffP, in)
	assert.True(t, errors.Is(err, common.ErrorValidation))

	in = completeFixture()
	in.Parts[1].ETag = ""
	_, err = svc.CompleteUpload(context.Background(), staffP, in)
	assert.True(t, errors.Is(err, common.ErrorValidation))
}

func TestCompleteUpload_AmbiguousFailureWithExistingObject(t *testing.T) {
	store := &fakeStorage{
		complete: func(context.Context, string, string, []storage.CompletedPart) (string, error) {
			return "", &common.UpstreamError{Op: "CompleteMultipartUpload", Err: errors.New("connection reset")}
		},
		exists: func(context.Context, string) (bool, error) { return true, nil },
	}

	repos := scopedRepos(testProject(), []string{"staff1"})
	repos.items = &fakeItems{
		insert: func(context.Context, *models.Item) error { return nil },
	}
	svc := uploadWith(repos, store, nil)

	_, err := svc.CompleteUpload(context.Background(), staffP, completeFixture())
	assert.NoError(t, err)
}

func TestCompleteUpload_AmbiguousFailureWithoutObject(t *testing.T) {
	store := &fakeStorage{
		complete: func(context.Context, string, string, []storage.CompletedPart) (string, error) {
			return "", &common.UpstreamError{Op: "CompleteMultipartUpload", Err: errors.New("connection reset")}
		},
		exists: func(context.Context, string) (bool, error) { return false, nil },
	}
	repos := scopedRepos(testProject(), []string{"staff1"})
	svc := uploadWith(repos, store, nil)

	_, err := svc.CompleteUpload(context.Background(), staffP, completeFixture())
	assert.True(t, errors.Is(err, common.ErrorUpstream))
}

func TestCompleteUpload_SessionOwnershipEnforced(t *testing.T) {
	sess := sessions.NewMemoryStore(time.Hour)
	require.NoError(t, sess.Put(context.Background(), &sessions.Session{
		UploadID:  "up1",
		Key:       "projects/p1/deliveries/x/final-cut.mp4",
		OwnerID:   "staff1",
		Kind:      models.KindDelivery,
		ProjectID: "p1",
		Filename:  "final-cut.mp4",
	}))

	repos := scopedRepos(testProject(), []string{"staff1", "staff2"})
	svc := uploadWith(repos, &fakeStorage{}, sess)

	other := models.Principal{ID: "staff2", Role: models.RoleStaff}
	_, err := svc.CompleteUpload(context.Background(), other, completeFixture())
	assert.True(t, errors.Is(err, common.ErrorForbidden))
}

func TestAbortUpload_Idempotent(t *testing.T) {
	calls := 0
	store := &fakeStorage{
		abort: func(context.Context, string, string) error {
			calls++
			return nil // unknown uploads are not an error
		},
	}
	svc := uploadWith(&fakeRepos{}, store, nil)

	require.NoError(t, svc.AbortUpload(context.Background(), staffP, "up1", "k"))
	require.NoError(t, svc.AbortUpload(context.Background(), staffP, "up1", "k"))
	assert.Equal(t, 2, calls)
}

func TestReconcileStale_AbortsOldSessions(t *testing.T) {
	aborted := map[string]bool{}
	store := &fakeStorage{
		listStale: func(context.Context, time.Time) ([]storage.UnfinishedUpload, error) {
			return []storage.UnfinishedUpload{
				{Key: "k1", UploadID: "u1"},
				{Key: "k2", UploadID: "u2"},
			}, nil
		},
		abort: func(_ context.Context, _, uploadID string) error {
			if uploadID == "u1" {
				return &common.UpstreamError{Op: "AbortMultipartUpload", Err: errors.New("timeout")}
			}
			aborted[uploadID] = true
			return nil
		},
	}
	svc := uploadWith(&fakeRepos{}, store, nil)

	n, err := svc.ReconcileStale(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, aborted["u2"])
}

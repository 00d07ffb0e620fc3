package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"time"

	"github.com/deliverhub/deliverhub/internal/dbx"
	"github.com/deliverhub/deliverhub/internal/logging"
	"github.com/deliverhub/deliverhub/internal/server/models"
	"github.com/deliverhub/deliverhub/internal/server/notify"
	"github.com/deliverhub/deliverhub/internal/server/repositories/assignments"
	"github.com/deliverhub/deliverhub/internal/server/repositories/folders"
	"github.com/deliverhub/deliverhub/internal/server/repositories/items"
	"github.com/deliverhub/deliverhub/internal/server/repositories/projects"
	"github.com/deliverhub/deliverhub/internal/server/repositories/users"
	"github.com/deliverhub/deliverhub/internal/server/storage"
)

// Shared test fakes. Each fake embeds its interface so only the methods a
// test cares about need stubbing; calling an unstubbed method panics, which
// is exactly what we want from an unexpected interaction.

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var (
	adminP  = models.Principal{ID: "admin1", Role: models.RoleAdmin, Name: "Admin"}
	staffP  = models.Principal{ID: "staff1", Role: models.RoleStaff, Name: "Sam"}
	clientP = models.Principal{ID: "client1", Role: models.RoleClient, Name: "Casey"}
)

func testProject() *models.Project {
	return &models.Project{
		ID:          "p1",
		Title:       "Launch site",
		ClientID:    "client1",
		CreatedByID: "admin1",
		Status:      models.StatusInProgress,
		CreatedAt:   time.Now(),
	}
}

type fakeRepos struct {
	users       users.Repository
	projects    projects.Repository
	assignments assignments.Repository
	folders     folders.Repository
	items       items.Repository
}

func (f *fakeRepos) Users(dbx.DBTX) users.Repository             { return f.users }
func (f *fakeRepos) Projects(dbx.DBTX) projects.Repository      { return f.projects }
func (f *fakeRepos) Assignments(dbx.DBTX) assignments.Repository { return f.assignments }
func (f *fakeRepos) Folders(dbx.DBTX) folders.Repository        { return f.folders }
func (f *fakeRepos) Items(dbx.DBTX) items.Repository            { return f.items }
func (f *fakeRepos) RunMigrations(context.Context, *sql.DB) error { return nil }

type fakeProjects struct {
	projects.Repository
	getByID             func(ctx context.Context, id string) (*models.Project, error)
	insert              func(ctx context.Context, p *models.Project) error
	updateTitle         func(ctx context.Context, id, title string) error
	markCompleted       func(ctx context.Context, id string, at time.Time, byID string) error
	setStatusClearing   func(ctx context.Context, id string, status models.ProjectStatus) error
	markNotified        func(ctx context.Context, id string, at time.Time, byID, email string, cc *string) error
	setStaffID          func(ctx context.Context, id string, staffID *string) error
	deleteFn            func(ctx context.Context, id string) error
}

func (f *fakeProjects) GetByID(ctx context.Context, id string) (*models.Project, error) {
	return f.getByID(ctx, id)
}
func (f *fakeProjects) Insert(ctx context.Context, p *models.Project) error { return f.insert(ctx, p) }
func (f *fakeProjects) UpdateTitle(ctx context.Context, id, title string) error {
	return f.updateTitle(ctx, id, title)
}
func (f *fakeProjects) MarkCompleted(ctx context.Context, id string, at time.Time, byID string) error {
	return f.markCompleted(ctx, id, at, byID)
}
func (f *fakeProjects) SetStatusClearingCompletion(ctx context.Context, id string, status models.ProjectStatus) error {
	return f.setStatusClearing(ctx, id, status)
}
func (f *fakeProjects) MarkCompletionNotified(ctx context.Context, id string, at time.Time, byID, email string, cc *string) error {
	return f.markNotified(ctx, id, at, byID, email, cc)
}
func (f *fakeProjects) SetStaffID(ctx context.Context, id string, staffID *string) error {
	return f.setStaffID(ctx, id, staffID)
}
func (f *fakeProjects) Delete(ctx context.Context, id string) error { return f.deleteFn(ctx, id) }

type fakeAssignments struct {
	assignments.Repository
	staffIDs        func(ctx context.Context, projectID string) ([]string, error)
	deleteByProject func(ctx context.Context, projectID string) error
	insert          func(ctx context.Context, a *models.StaffAssignment) error
}

func (f *fakeAssignments) StaffIDs(ctx context.Context, projectID string) ([]string, error) {
	return f.staffIDs(ctx, projectID)
}
func (f *fakeAssignments) DeleteByProject(ctx context.Context, projectID string) error {
	return f.deleteByProject(ctx, projectID)
}
func (f *fakeAssignments) Insert(ctx context.Context, a *models.StaffAssignment) error {
	return f.insert(ctx, a)
}

type fakeUsers struct {
	users.Repository
	getByID func(ctx context.Context, id string) (*models.User, error)
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	return f.getByID(ctx, id)
}

type fakeFolders struct {
	folders.Repository
	insert         func(ctx context.Context, fo *models.Folder) error
	insertSystem   func(ctx context.Context, fo *models.Folder) error
	getByID        func(ctx context.Context, id string) (*models.Folder, error)
	getSystem      func(ctx context.Context, projectID string, t models.FolderType) (*models.Folder, error)
	listByProject  func(ctx context.Context, projectID string) ([]*models.FolderWithCount, error)
}

func (f *fakeFolders) Insert(ctx context.Context, fo *models.Folder) error { return f.insert(ctx, fo) }
func (f *fakeFolders) InsertSystemIfAbsent(ctx context.Context, fo *models.Folder) error {
	return f.insertSystem(ctx, fo)
}
func (f *fakeFolders) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	return f.getByID(ctx, id)
}
func (f *fakeFolders) GetSystem(ctx context.Context, projectID string, t models.FolderType) (*models.Folder, error) {
	return f.getSystem(ctx, projectID, t)
}
func (f *fakeFolders) ListByProject(ctx context.Context, projectID string) ([]*models.FolderWithCount, error) {
	return f.listByProject(ctx, projectID)
}

type fakeItems struct {
	items.Repository
	insert         func(ctx context.Context, it *models.Item) error
	getByID        func(ctx context.Context, kind models.ItemKind, id string) (*models.Item, error)
	deleteFn       func(ctx context.Context, kind models.ItemKind, id string) error
	setFolder      func(ctx context.Context, kind models.ItemKind, id string, folderID *string) error
	countByProject func(ctx context.Context, projectID string, kind models.ItemKind) (int64, error)
}

func (f *fakeItems) Insert(ctx context.Context, it *models.Item) error { return f.insert(ctx, it) }
func (f *fakeItems) GetByID(ctx context.Context, kind models.ItemKind, id string) (*models.Item, error) {
	return f.getByID(ctx, kind, id)
}
func (f *fakeItems) Delete(ctx context.Context, kind models.ItemKind, id string) error {
	return f.deleteFn(ctx, kind, id)
}
func (f *fakeItems) SetFolder(ctx context.Context, kind models.ItemKind, id string, folderID *string) error {
	return f.setFolder(ctx, kind, id, folderID)
}
func (f *fakeItems) CountByProject(ctx context.Context, projectID string, kind models.ItemKind) (int64, error) {
	return f.countByProject(ctx, projectID, kind)
}

type fakeStorage struct {
	storage.ObjectStorage
	create       func(ctx context.Context, key, contentType string) (string, error)
	presignPart  func(ctx context.Context, key, uploadID string, partNumber int32, ttl time.Duration) (string, error)
	complete     func(ctx context.Context, key, uploadID string, parts []storage.CompletedPart) (string, error)
	abort        func(ctx context.Context, key, uploadID string) error
	deleteObject func(ctx context.Context, key string) error
	exists       func(ctx context.Context, key string) (bool, error)
	presignGet   func(ctx context.Context, key string, ttl time.Duration, disposition string) (string, error)
	listStale    func(ctx context.Context, olderThan time.Time) ([]storage.UnfinishedUpload, error)
}

func (f *fakeStorage) CreateMultipartUpload(ctx context.Context, key, contentType string) (string, error) {
	return f.create(ctx, key, contentType)
}
func (f *fakeStorage) PresignUploadPart(ctx context.Context, key, uploadID string, partNumber int32, ttl time.Duration) (string, error) {
	return f.presignPart(ctx, key, uploadID, partNumber, ttl)
}
func (f *fakeStorage) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []storage.CompletedPart) (string, error) {
	return f.complete(ctx, key, uploadID, parts)
}
func (f *fakeStorage) AbortMultipartUpload(ctx context.Context, key, uploadID string) error {
	return f.abort(ctx, key, uploadID)
}
func (f *fakeStorage) DeleteObject(ctx context.Context, key string) error {
	return f.deleteObject(ctx, key)
}
func (f *fakeStorage) ObjectExists(ctx context.Context, key string) (bool, error) {
	return f.exists(ctx, key)
}
func (f *fakeStorage) PresignGetObject(ctx context.Context, key string, ttl time.Duration, disposition string) (string, error) {
	return f.presignGet(ctx, key, ttl, disposition)
}
func (f *fakeStorage) ListUnfinishedUploads(ctx context.Context, olderThan time.Time) ([]storage.UnfinishedUpload, error) {
	return f.listStale(ctx, olderThan)
}

type fakeNotifier struct {
	assignments chan notify.AssignmentNotification
	completions chan notify.CompletionNotification
	err         error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		assignments: make(chan notify.AssignmentNotification, 16),
		completions: make(chan notify.CompletionNotification, 16),
	}
}

func (f *fakeNotifier) NotifyAssignment(_ context.Context, n notify.AssignmentNotification) error {
	f.assignments <- n
	return f.err
}

func (f *fakeNotifier) NotifyCompletion(_ context.Context, n notify.CompletionNotification) error {
	f.completions <- n
	return f.err
}

// scopedRepos builds a fakeRepos whose project/assignment lookups resolve the
// given project with the given staff set, which is all most policy paths need.
func scopedRepos(project *models.Project, staffIDs []string) *fakeRepos {
	return &fakeRepos{
		projects: &fakeProjects{
			getByID: func(_ context.Context, _ string) (*models.Project, error) {
				cp := *project
				return &cp, nil
			},
		},
		assignments: &fakeAssignments{
			staffIDs: func(context.Context, string) ([]string, error) { return staffIDs, nil },
		},
	}
}

package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/deliverhub/deliverhub/internal/common"
	"github.com/deliverhub/deliverhub/internal/dbx"
	"github.com/deliverhub/deliverhub/internal/logging"
	"github.com/deliverhub/deliverhub/internal/server/access"
	"github.com/deliverhub/deliverhub/internal/server/metrics"
	"github.com/deliverhub/deliverhub/internal/server/models"
	"github.com/deliverhub/deliverhub/internal/server/notify"
	"github.com/deliverhub/deliverhub/internal/server/repositories/repomanager"
)

// notifyTimeout bounds the background notification fan-out.
const notifyTimeout = 10 * time.Second

// ProjectService owns the project lifecycle: creation, listing under the
// three-tier policy, the status state machine with its completion guard,
// staff assignment, and the notification fan-outs that follow mutations.
type ProjectService struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	notifier notify.Notifier
	logger   logging.Logger
	metrics  *metrics.Metrics
}

func NewProjectService(db *sql.DB, repos repomanager.RepositoryManager, notifier notify.Notifier,
	logger logging.Logger, m *metrics.Metrics) *ProjectService {
	return &ProjectService{db: db, repos: repos, notifier: notifier, logger: logger, metrics: m}
}

// ProjectDetail is a project together with its resolved staff assignment.
type ProjectDetail struct {
	Project  *models.Project
	StaffIDs []string
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", common.NewValidationError("title", "must not be empty")
	}
	if utf8.RuneCountInString(title) > 255 {
		return "", common.NewValidationError("title", "must be at most 255 characters")
	}
	return title, nil
}

// Create opens a new project for a client. Admin only.
func (s *ProjectService) Create(ctx context.Context, p models.Principal, title, clientID string) (*models.Project, error) {
	if !p.IsAdmin() {
		return nil, common.ErrorForbidden
	}

	title, err := validateTitle(title)
	if err != nil {
		return nil, err
	}
	if clientID == "" {
		return nil, common.NewValidationError("clientId", "must not be empty")
	}

	client, err := s.repos.Users(s.db).GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewValidationError("clientId", "unknown user")
		}
		return nil, err
	}
	if client.Role != models.RoleClient {
		return nil, common.NewValidationError("clientId", "user is not a client")
	}

	project := &models.Project{
		ID:          newID(),
		Title:       title,
		ClientID:    clientID,
		CreatedByID: p.ID,
		Status:      models.StatusPending,
		CreatedAt:   nowFunc(),
	}
	if err := s.repos.Projects(s.db).Insert(ctx, project); err != nil {
		return nil, fmt.Errorf("inserting project: %w", err)
	}

	s.logger.Info(ctx, "project created", "project_id", project.ID, "client_id", clientID)
	return project, nil
}

// Get returns one project with its staff assignment, under view policy.
func (s *ProjectService) Get(ctx context.Context, p models.Principal, id string) (*ProjectDetail, error) {
	project, scope, err := projectScope(ctx, s.db, s.repos, id, false)
	if err != nil {
		return nil, err
	}
	if !access.CanAccess(p, scope, access.ActionView) {
		return nil, common.ErrorForbidden
	}
	return &ProjectDetail{Project: project, StaffIDs: scope.Project.StaffIDs}, nil
}

// List returns the projects visible to the principal: everything for admins,
// assigned-or-created for staff, owned for clients.
func (s *ProjectService) List(ctx context.Context, p models.Principal) ([]*models.Project, error) {
	repo := s.repos.Projects(s.db)
	switch p.Role {
	case models.RoleAdmin:
		return repo.List(ctx)
	case models.RoleStaff:
		return repo.ListByStaff(ctx, p.ID)
	case models.RoleClient:
		return repo.ListByClient(ctx, p.ID)
	default:
		return nil, common.ErrorForbidden
	}
}

// UpdateInput carries the optional mutations of a project update. Nil fields
// are left untouched.
type UpdateInput struct {
	Title  *string
	Status *models.ProjectStatus
}

// Update renames a project and/or transitions its status under edit policy.
func (s *ProjectService) Update(ctx context.Context, p models.Principal, id string, in UpdateInput) (*models.Project, error) {
	project, scope, err := projectScope(ctx, s.db, s.repos, id, false)
	if err != nil {
		return nil, err
	}
	if !access.CanAccess(p, scope, access.ActionEdit) {
		return nil, common.ErrorForbidden
	}

	if in.Title != nil {
		title, err := validateTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		if err := s.repos.Projects(s.db).UpdateTitle(ctx, id, title); err != nil {
			return nil, err
		}
		project.Title = title
	}

	if in.Status != nil {
		if err := s.changeStatus(ctx, p, project, *in.Status); err != nil {
			return nil, err
		}
	}
	return project, nil
}

// SubmitForCompletion transitions a project to COMPLETED, enforcing the
// at-least-one-delivery guard for non-admins.
func (s *ProjectService) SubmitForCompletion(ctx context.Context, p models.Principal, id string) (*models.Project, error) {
	project, scope, err := projectScope(ctx, s.db, s.repos, id, false)
	if err != nil {
		return nil, err
	}
	if !access.CanAccess(p, scope, access.ActionEdit) {
		return nil, common.ErrorForbidden
	}
	if err := s.changeStatus(ctx, p, project, models.StatusCompleted); err != nil {
		return nil, err
	}
	return project, nil
}

// changeStatus applies the lifecycle state machine. Entering COMPLETED
// stamps the submission metadata; leaving it clears every completion field.
// Admins may complete an empty project; everyone else needs at least one
// delivery on record.
func (s *ProjectService) changeStatus(ctx context.Context, p models.Principal, project *models.Project, next models.ProjectStatus) error {
	if !models.ValidStatus(next) {
		return common.NewValidationError("status", "must be PENDING, IN_PROGRESS, or COMPLETED")
	}
	if next == project.Status {
		return nil
	}

	repo := s.repos.Projects(s.db)

	if next == models.StatusCompleted {
		if !p.IsAdmin() {
			n, err := s.repos.Items(s.db).CountByProject(ctx, project.ID, models.KindDelivery)
			if err != nil {
				return err
			}
			if n == 0 {
				return &common.StateConflictError{Reason: "a project needs at least one delivery before it can be completed"}
			}
		}
		at := nowFunc()
		if err := repo.MarkCompleted(ctx, project.ID, at, p.ID); err != nil {
			return err
		}
		project.Status = models.StatusCompleted
		project.CompletionSubmittedAt = &at
		byID := p.ID
		project.CompletionSubmittedByID = &byID
		s.logger.Info(ctx, "project completed", "project_id", project.ID, "by", p.ID)
		return nil
	}

	if err := repo.SetStatusClearingCompletion(ctx, project.ID, next); err != nil {
		return err
	}
	project.Status = next
	project.CompletionSubmittedAt = nil
	project.CompletionSubmittedByID = nil
	project.CompletionNotifiedAt = nil
	project.CompletionNotifiedByID = nil
	project.CompletionNotificationEmail = nil
	project.CompletionNotificationEmailCc = nil
	return nil
}

// Delete removes a project and everything under it. Admin only; the uploaded
// objects are left for out-of-band storage cleanup.
func (s *ProjectService) Delete(ctx context.Context, p models.Principal, id string) error {
	if !p.IsAdmin() {
		return common.ErrorForbidden
	}
	if err := s.repos.Projects(s.db).Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "project deleted", "project_id", id)
	return nil
}

// SetStaff replaces a project's staff assignment with the given set. Admins
// may assign anyone; staff may only add or remove themselves, and the
// resulting set must still include them if they were making room for
// themselves. The assignment table and the denormalized staff pointer are
// rewritten in one transaction, then newly assigned staff are notified in
// the background.
func (s *ProjectService) SetStaff(ctx context.Context, p models.Principal, id string, staffIDs []string, notes string) error {
	project, scope, err := projectScope(ctx, s.db, s.repos, id, false)
	if err != nil {
		return err
	}
	if !access.CanAccess(p, scope, access.ActionEdit) {
		return common.ErrorForbidden
	}

	staffIDs = dedupe(staffIDs)

	if !p.IsAdmin() {
		if err := checkSelfOnlyEdit(p.ID, scope.Project.StaffIDs, staffIDs); err != nil {
			return err
		}
	}

	// Resolve every target up front so the transaction cannot fail on an
	// unknown user and so the fan-out has names and emails.
	usersRepo := s.repos.Users(s.db)
	targets := make([]*models.User, 0, len(staffIDs))
	for _, staffID := range staffIDs {
		u, err := usersRepo.GetByID(ctx, staffID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.NewValidationError("staffIds", fmt.Sprintf("unknown user %q", staffID))
			}
			return err
		}
		if u.Role != models.RoleStaff {
			return common.NewValidationError("staffIds", fmt.Sprintf("user %q is not staff", staffID))
		}
		targets = append(targets, u)
	}

	previous := map[string]bool{}
	for _, sid := range scope.Project.StaffIDs {
		previous[sid] = true
	}

	now := nowFunc()
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Assignments(tx).DeleteByProject(ctx, id); err != nil {
			return err
		}
		for _, staffID := range staffIDs {
			a := &models.StaffAssignment{
				ProjectID:    id,
				StaffID:      staffID,
				AssignedByID: p.ID,
				AssignedAt:   now,
			}
			if err := s.repos.Assignments(tx).Insert(ctx, a); err != nil {
				return err
			}
		}
		var denorm *string
		if len(staffIDs) > 0 {
			denorm = &staffIDs[0]
		}
		return s.repos.Projects(tx).SetStaffID(ctx, id, denorm)
	})
	if err != nil {
		return fmt.Errorf("rewriting staff assignment: %w", err)
	}

	s.logger.Info(ctx, "staff assignment updated", "project_id", id, "staff_count", len(staffIDs))

	client, err := usersRepo.GetByID(ctx, project.ClientID)
	if err != nil {
		// The fan-out still runs, just without client contact details.
		s.logger.Warn(ctx, "client lookup for notification failed", "project_id", id, "error", err.Error())
		client = &models.User{}
	}

	go s.fanOutAssignments(project, client, targets, previous, p.Name, notes)
	return nil
}

// checkSelfOnlyEdit enforces the self-service rule for staff: the actor
// must remain in the resulting set, and the diff between the current and
// requested set may only touch the actor. In practice a staff member can
// add themselves or leave things unchanged, never reassign others.
func checkSelfOnlyEdit(actorID string, current, requested []string) error {
	req := map[string]bool{}
	for _, sid := range requested {
		req[sid] = true
	}
	if !req[actorID] {
		return common.ErrorForbidden
	}

	cur := map[string]bool{}
	for _, sid := range current {
		cur[sid] = true
	}
	for sid := range req {
		if !cur[sid] && sid != actorID {
			return &common.StateConflictError{Reason: "staff members may only add or remove themselves"}
		}
	}
	for sid := range cur {
		if !req[sid] && sid != actorID {
			return &common.StateConflictError{Reason: "staff members may only add or remove themselves"}
		}
	}
	return nil
}

// fanOutAssignments emails each newly assigned staff member. Best-effort:
// failures are logged and counted, never surfaced to the caller.
func (s *ProjectService) fanOutAssignments(project *models.Project, client *models.User,
	targets []*models.User, previous map[string]bool, assignedBy, notes string) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	for _, u := range targets {
		if previous[u.ID] || u.Email == "" {
			continue
		}
		n := notify.AssignmentNotification{
			To:             u.Email,
			StaffName:      u.Name,
			ProjectTitle:   project.Title,
			ProjectID:      project.ID,
			ClientName:     client.Name,
			ClientEmail:    client.Email,
			AssignedByName: assignedBy,
			Notes:          notes,
		}
		if err := s.notifier.NotifyAssignment(ctx, n); err != nil {
			s.metrics.NotifyFailures.Inc()
			s.logger.Error(ctx, "assignment notification failed", "project_id", project.ID, "staff_id", u.ID, "error", err.Error())
		}
	}
}

// NotifyCompletion announces a completed project to the client address given
// and stamps the notification bookkeeping. Delivery is best-effort; the
// stamp records the attempt either way.
func (s *ProjectService) NotifyCompletion(ctx context.Context, p models.Principal, id, email string, cc *string) (*models.Project, error) {
	if email == "" {
		return nil, common.NewValidationError("email", "must not be empty")
	}

	project, scope, err := projectScope(ctx, s.db, s.repos, id, false)
	if err != nil {
		return nil, err
	}
	if !access.CanAccess(p, scope, access.ActionEdit) {
		return nil, common.ErrorForbidden
	}
	if project.Status != models.StatusCompleted {
		return nil, &common.StateConflictError{Reason: "only completed projects can be announced"}
	}

	clientName := ""
	if client, err := s.repos.Users(s.db).GetByID(ctx, project.ClientID); err == nil {
		clientName = client.Name
	}

	n := notify.CompletionNotification{
		To:           email,
		Cc:           cc,
		ProjectTitle: project.Title,
		ProjectID:    project.ID,
		ClientName:   clientName,
	}
	if err := s.notifier.NotifyCompletion(ctx, n); err != nil {
		s.metrics.NotifyFailures.Inc()
		s.logger.Error(ctx, "completion notification failed", "project_id", id, "error", err.Error())
	}

	at := nowFunc()
	if err := s.repos.Projects(s.db).MarkCompletionNotified(ctx, id, at, p.ID, email, cc); err != nil {
		return nil, err
	}
	project.CompletionNotifiedAt = &at
	byID := p.ID
	project.CompletionNotifiedByID = &byID
	project.CompletionNotificationEmail = &email
	project.CompletionNotificationEmailCc = cc

	s.logger.Info(ctx, "completion notification recorded", "project_id", id, "email", email)
	return project, nil
}

func dedupe(ids []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

package postgres

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"hrcore/internal/models"
	"hrcore/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func TestDecideAbsenceConcurrency(t *testing.T) {
	ctx := context.Background()
	st, _, cleanup := setupTestStore(t, ctx)
	t.Cleanup(cleanup)

	manager := seedUser(t, ctx, st, models.RoleManager, "")
	employee := seedUser(t, ctx, st, models.RoleEmployee, manager.UserID)
	request := seedAbsence(t, ctx, st, employee.UserID)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, approve := range []bool{true, false} {
		wg.Add(1)
		go func(approve bool) {
			defer wg.Done()
			_, err := st.DecideAbsence(ctx, store.DecideAbsenceInput{
				RequestID: request.RequestID,
				ActorID:   manager.UserID,
				ActorRole: models.RoleManager,
				Approve:   approve,
				Reason:    "conflict",
			})
			errs <- err
		}(approve)
	}
	wg.Wait()
	close(errs)

	var succeeded, lost int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, store.ErrAlreadyDecided):
			lost++
		default:
			t.Fatalf("decide error: %v", err)
		}
	}
	if succeeded != 1 || lost != 1 {
		t.Fatalf("expected exactly one winner, got %d winners and %d losers", succeeded, lost)
	}
}

func TestDecideAbsenceNonManagerDenied(t *testing.T) {
	ctx := context.Background()
	st, _, cleanup := setupTestStore(t, ctx)
	t.Cleanup(cleanup)

	manager := seedUser(t, ctx, st, models.RoleManager, "")
	otherManager := seedUser(t, ctx, st, models.RoleManager, "")
	employee := seedUser(t, ctx, st, models.RoleEmployee, manager.UserID)
	request := seedAbsence(t, ctx, st, employee.UserID)

	_, err := st.DecideAbsence(ctx, store.DecideAbsenceInput{
		RequestID: request.RequestID,
		ActorID:   otherManager.UserID,
		ActorRole: models.RoleManager,
		Approve:   true,
	})
	if !errors.Is(err, store.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}

	_, err = st.DecideAbsence(ctx, store.DecideAbsenceInput{
		RequestID: request.RequestID,
		ActorID:   employee.UserID,
		ActorRole: models.RoleEmployee,
		Approve:   true,
	})
	if !errors.Is(err, store.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied for employee, got %v", err)
	}
}

func TestAmendAbsenceOverridesDecision(t *testing.T) {
	ctx := context.Background()
	st, _, cleanup := setupTestStore(t, ctx)
	t.Cleanup(cleanup)

	manager := seedUser(t, ctx, st, models.RoleManager, "")
	employee := seedUser(t, ctx, st, models.RoleEmployee, manager.UserID)
	request := seedAbsence(t, ctx, st, employee.UserID)

	approved, err := st.DecideAbsence(ctx, store.DecideAbsenceInput{
		RequestID: request.RequestID,
		ActorID:   manager.UserID,
		ActorRole: models.RoleManager,
		Approve:   true,
	})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if approved.Status != models.StatusApproved {
		t.Fatalf("status = %q", approved.Status)
	}

	comment := "policy review"
	amended, err := st.AmendAbsence(ctx, store.AmendAbsenceInput{
		RequestID: request.RequestID,
		ActorID:   manager.UserID,
		ActorRole: models.RoleManager,
		Status:    models.StatusRejected,
		Comment:   &comment,
	})
	if err != nil {
		t.Fatalf("amend: %v", err)
	}
	if amended.Status != models.StatusRejected {
		t.Fatalf("amended status = %q", amended.Status)
	}
	if amended.RejectionReason == nil || *amended.RejectionReason != comment {
		t.Fatalf("rejection reason = %v", amended.RejectionReason)
	}
}

func TestAssignManagerRejectsCycle(t *testing.T) {
	ctx := context.Background()
	st, _, cleanup := setupTestStore(t, ctx)
	t.Cleanup(cleanup)

	top := seedUser(t, ctx, st, models.RoleManager, "")
	middle := seedUser(t, ctx, st, models.RoleManager, top.UserID)

	if _, err := st.AssignManager(ctx, top.UserID, middle.UserID); !errors.Is(err, store.ErrHierarchyCycle) {
		t.Fatalf("expected ErrHierarchyCycle, got %v", err)
	}

	if _, err := st.AssignManager(ctx, top.UserID, top.UserID); !errors.Is(err, store.ErrHierarchyCycle) {
		t.Fatalf("expected self-managing to be a cycle, got %v", err)
	}
}

func TestAssignManagerRequiresManagerRole(t *testing.T) {
	ctx := context.Background()
	st, _, cleanup := setupTestStore(t, ctx)
	t.Cleanup(cleanup)

	manager := seedUser(t, ctx, st, models.RoleManager, "")
	employeeA := seedUser(t, ctx, st, models.RoleEmployee, manager.UserID)
	employeeB := seedUser(t, ctx, st, models.RoleEmployee, manager.UserID)

	if _, err := st.AssignManager(ctx, employeeA.UserID, employeeB.UserID); !errors.Is(err, store.ErrNotAssignableManager) {
		t.Fatalf("expected ErrNotAssignableManager, got %v", err)
	}
}

func TestEmployeeAbsenceVisibility(t *testing.T) {
	ctx := context.Background()
	st, _, cleanup := setupTestStore(t, ctx)
	t.Cleanup(cleanup)

	manager := seedUser(t, ctx, st, models.RoleManager, "")
	employeeA := seedUser(t, ctx, st, models.RoleEmployee, manager.UserID)
	employeeB := seedUser(t, ctx, st, models.RoleEmployee, manager.UserID)
	seedAbsence(t, ctx, st, employeeA.UserID)
	seedAbsence(t, ctx, st, employeeB.UserID)

	viewer := store.Viewer{UserID: employeeA.UserID, Role: models.RoleEmployee}
	own, err := st.SearchAbsences(ctx, viewer, store.AbsenceFilter{}, store.Page{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(own) != 1 || own[0].UserID != employeeA.UserID {
		t.Fatalf("employee should only see own requests, got %d", len(own))
	}

	// A filter on another user's records narrows the allowed set to
	// nothing instead of widening it.
	other, err := st.SearchAbsences(ctx, viewer, store.AbsenceFilter{UserID: employeeB.UserID}, store.Page{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected empty result, got %d", len(other))
	}

	all, err := st.SearchAbsences(ctx, store.Viewer{UserID: manager.UserID, Role: models.RoleManager}, store.AbsenceFilter{}, store.Page{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("manager should see both requests, got %d", len(all))
	}
}

func TestReceivedFeedbackOnlyApproved(t *testing.T) {
	ctx := context.Background()
	st, _, cleanup := setupTestStore(t, ctx)
	t.Cleanup(cleanup)

	manager := seedUser(t, ctx, st, models.RoleManager, "")
	author := seedUser(t, ctx, st, models.RoleEmployee, manager.UserID)
	recipient := seedUser(t, ctx, st, models.RoleEmployee, manager.UserID)

	feedback, err := st.SubmitFeedback(ctx, store.SubmitFeedbackInput{
		FromUserID: author.UserID,
		ToUserID:   recipient.UserID,
		Content:    "great sprint work",
	})
	if err != nil {
		t.Fatalf("submit feedback: %v", err)
	}

	received, err := st.ReceivedFeedback(ctx, recipient.UserID, store.Page{})
	if err != nil {
		t.Fatalf("received: %v", err)
	}
	if len(received) != 0 {
		t.Fatalf("pending feedback should not appear in the inbox, got %d", len(received))
	}

	if _, err := st.DecideFeedback(ctx, store.DecideFeedbackInput{
		FeedbackID: feedback.FeedbackID,
		ActorID:    manager.UserID,
		ActorRole:  models.RoleManager,
		Approve:    true,
	}); err != nil {
		t.Fatalf("approve feedback: %v", err)
	}

	received, err = st.ReceivedFeedback(ctx, recipient.UserID, store.Page{})
	if err != nil {
		t.Fatalf("received: %v", err)
	}
	if len(received) != 1 {
		t.Fatalf("approved feedback should appear in the inbox, got %d", len(received))
	}
}

func TestSessionRegistryLifecycle(t *testing.T) {
	ctx := context.Background()
	st, _, cleanup := setupTestStore(t, ctx)
	t.Cleanup(cleanup)

	manager := seedUser(t, ctx, st, models.RoleManager, "")
	now := time.Now().UTC()

	live := models.Session{
		TokenJTI:  uuid.NewString(),
		UserID:    manager.UserID,
		Role:      models.RoleManager,
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}
	expired := models.Session{
		TokenJTI:  uuid.NewString(),
		UserID:    manager.UserID,
		Role:      models.RoleManager,
		IssuedAt:  now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	}
	if err := st.RegisterSession(ctx, live); err != nil {
		t.Fatalf("register live: %v", err)
	}
	if err := st.RegisterSession(ctx, expired); err != nil {
		t.Fatalf("register expired: %v", err)
	}
	if err := st.RegisterSession(ctx, live); !errors.Is(err, store.ErrDuplicateToken) {
		t.Fatalf("expected ErrDuplicateToken, got %v", err)
	}

	if _, err := st.GetSession(ctx, expired.TokenJTI); !errors.Is(err, store.ErrSessionNotFound) {
		t.Fatalf("expired session should read as absent, got %v", err)
	}

	removed, err := st.SweepExpiredSessions(ctx, now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 1 {
		t.Fatalf("sweep removed = %d, want 1", removed)
	}

	if _, err := st.GetSession(ctx, live.TokenJTI); err != nil {
		t.Fatalf("live session should survive the sweep: %v", err)
	}

	if err := st.RevokeSession(ctx, live.TokenJTI); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := st.GetSession(ctx, live.TokenJTI); !errors.Is(err, store.ErrSessionNotFound) {
		t.Fatalf("revoked session should read as absent, got %v", err)
	}
	// Revoking again stays quiet.
	if err := st.RevokeSession(ctx, live.TokenJTI); err != nil {
		t.Fatalf("revoke twice: %v", err)
	}
}

func seedUser(t *testing.T, ctx context.Context, st *Store, role, managerID string) models.User {
	t.Helper()
	user, err := st.CreateUser(ctx, store.CreateUserInput{
		Email:     uuid.NewString() + "@example.com",
		FirstName: "Test",
		LastName:  "User",
		Role:      role,
		ManagerID: managerID,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func seedAbsence(t *testing.T, ctx context.Context, st *Store, userID string) models.AbsenceRequest {
	t.Helper()
	start := time.Now().UTC().AddDate(0, 0, 7)
	request, err := st.SubmitAbsence(ctx, store.SubmitAbsenceInput{
		UserID:      userID,
		StartDate:   start,
		EndDate:     start.AddDate(0, 0, 2),
		Type:        models.AbsenceVacation,
		Reason:      "planned leave",
		CreatedByID: userID,
	})
	if err != nil {
		t.Fatalf("submit absence: %v", err)
	}
	return request
}

func setupTestStore(t *testing.T, ctx context.Context) (*Store, *pgxpool.Pool, func()) {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		dsn = os.Getenv("DB_DSN")
	}
	if dsn == "" {
		t.Skip("TEST_DB_DSN or DB_DSN is required for integration tests")
	}

	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := createSchema(ctx, dsn, schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	pool, err := newPoolWithSchema(ctx, dsn, schema)
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("apply migrations: %v", err)
	}

	st := NewStore(pool)
	cleanup := func() {
		pool.Close()
		_ = dropSchema(context.Background(), dsn, schema)
	}
	return st, pool, cleanup
}

func createSchema(ctx context.Context, dsn, schema string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)
	_, err = conn.Exec(ctx, "CREATE SCHEMA "+schema)
	return err
}

func dropSchema(ctx context.Context, dsn, schema string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)
	_, err = conn.Exec(ctx, "DROP SCHEMA "+schema+" CASCADE")
	return err
}

func newPoolWithSchema(ctx context.Context, dsn, schema string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	return pgxpool.NewWithConfig(ctx, cfg)
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	dir := filepath.Join("..", "..", "..", "migrations")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	for _, name := range files {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(content)) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, string(content)); err != nil {
			return err
		}
	}
	return nil
}

package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/B-Mitchell/JobRecruit/db"
	"github.com/B-Mitchell/JobRecruit/migrations"
	"github.com/B-Mitchell/JobRecruit/models"
	"github.com/B-Mitchell/JobRecruit/service"
	_ "github.com/mattn/go-sqlite3"
)

// ─────────────────────────────────────────────────────────────────────────────
// Test fixture
// ─────────────────────────────────────────────────────────────────────────────

func newTestServices(t *testing.T) (*service.Services, *db.DB) {
	t.Helper()

	database, err := db.Open(db.Config{
		DSN:          ":memory:",
		DriverName:   "sqlite3",
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if err := migrations.Bootstrap(context.Background(), database); err != nil {
		t.Fatalf("schema: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return service.New(database, logger), database
}

func completeSeeker(t *testing.T, svc *service.Services, id string) *models.Profile {
	t.Helper()
	p, err := svc.Profiles.Complete(context.Background(),
		service.Identity{ID: id, Email: id + "@mail.test"},
		models.CompleteProfileParams{
			Name: "Seeker " + id,
			Role: models.RoleJobSeeker,
			JobSeeker: &models.JobSeekerDetails{
				Skills:     []string{" Go ", "", "Postgres"},
				Education:  "BSc Computer Science",
				Experience: "4 years backend",
				ResumeURL:  "https://cv.test/" + id,
			},
		})
	if err != nil {
		t.Fatalf("complete job seeker %s: %v", id, err)
	}
	return p
}

func completeEmployer(t *testing.T, svc *service.Services, id string) *models.Profile {
	t.Helper()
	p, err := svc.Profiles.Complete(context.Background(),
		service.Identity{ID: id, Email: id + "@corp.test"},
		models.CompleteProfileParams{
			Name: "Employer " + id,
			Role: models.RoleEmployer,
			Employer: &models.EmployerDetails{
				CompanyName:    "Acme",
				CompanyProfile: "Tools for builders",
				CompanyWebsite: "https://acme.test",
			},
		})
	if err != nil {
		t.Fatalf("complete employer %s: %v", id, err)
	}
	return p
}

func postListing(t *testing.T, svc *service.Services, poster, title, category string) *models.Listing {
	t.Helper()
	l, err := svc.Listings.Create(context.Background(), poster, models.CreateListingParams{
		Title:       title,
		Description: "Design and run services",
		Salary:      "120k",
		Location:    "Remote",
		Category:    category,
		CompanyName: "Acme",
	})
	if err != nil {
		t.Fatalf("create listing %q: %v", title, err)
	}
	return l
}

func application() models.SubmitApplicationParams {
	return models.SubmitApplicationParams{
		Name:        "Jane Doe",
		Email:       "jane@mail.test",
		ResumeURL:   "https://cv.test/jane",
		CoverLetter: "I would love to join.",
	}
}

func ptr[T any](v T) *T { return &v }

// ─────────────────────────────────────────────────────────────────────────────
// Identities and profiles
// ─────────────────────────────────────────────────────────────────────────────

func TestIdentities_Resolve(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	if _, err := svc.Identities.Resolve(ctx, "  "); !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	p, err := svc.Identities.Resolve(ctx, "fresh")
	if err != nil || p != nil {
		t.Fatalf("incomplete identity: expected (nil, nil), got (%v, %v)", p, err)
	}

	completeSeeker(t, svc, "fresh")
	p, err = svc.Identities.Resolve(ctx, "fresh")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !p.IsJobSeeker() || p.Email != "fresh@mail.test" {
		t.Fatalf("unexpected profile %+v", p)
	}
	if got := strings.Join(p.JobSeeker.Skills, ","); got != "Go,Postgres" {
		t.Fatalf("skills not cleaned: %q", got)
	}
}

func TestProfiles_Complete_Validation(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	who := service.Identity{ID: "u1", Email: "u1@mail.test"}

	seeker := &models.JobSeekerDetails{Skills: []string{"Go"}, Education: "e", Experience: "x", ResumeURL: "https://cv.test"}
	employer := &models.EmployerDetails{CompanyName: "c", CompanyProfile: "p", CompanyWebsite: "https://c.test"}

	tests := []struct {
		name string
		who  service.Identity
		p    models.CompleteProfileParams
	}{
		{"unknown role", who, models.CompleteProfileParams{Name: "n", Role: "admin", JobSeeker: seeker}},
		{"missing name", who, models.CompleteProfileParams{Role: models.RoleJobSeeker, JobSeeker: seeker}},
		{"missing variant", who, models.CompleteProfileParams{Name: "n", Role: models.RoleEmployer}},
		{"both variants", who, models.CompleteProfileParams{Name: "n", Role: models.RoleJobSeeker, JobSeeker: seeker, Employer: employer}},
		{"wrong variant", who, models.CompleteProfileParams{Name: "n", Role: models.RoleEmployer, JobSeeker: seeker}},
		{"blank skills", who, models.CompleteProfileParams{Name: "n", Role: models.RoleJobSeeker,
			JobSeeker: &models.JobSeekerDetails{Skills: []string{" ", ""}, Education: "e", Experience: "x", ResumeURL: "https://cv.test"}}},
		{"bad website", who, models.CompleteProfileParams{Name: "n", Role: models.RoleEmployer,
			Employer: &models.EmployerDetails{CompanyName: "c", CompanyProfile: "p", CompanyWebsite: "not a url"}}},
		{"no email on identity", service.Identity{ID: "u1"}, models.CompleteProfileParams{Name: "n", Role: models.RoleEmployer, Employer: employer}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Profiles.Complete(ctx, tc.who, tc.p)
			if !errors.Is(err, service.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	if p, _ := svc.Identities.Resolve(ctx, "u1"); p != nil {
		t.Fatal("rejected completion must not create a profile")
	}
}

func TestProfiles_Complete_Once(t *testing.T) {
	svc, _ := newTestServices(t)
	completeSeeker(t, svc, "once")

	_, err := svc.Profiles.Complete(context.Background(),
		service.Identity{ID: "once", Email: "once@corp.test"},
		models.CompleteProfileParams{
			Name: "Switcher", Role: models.RoleEmployer,
			Employer: &models.EmployerDetails{CompanyName: "c", CompanyProfile: "p", CompanyWebsite: "https://c.test"},
		})
	if !errors.Is(err, service.ErrProfileExists) {
		t.Fatalf("expected ErrProfileExists, got %v", err)
	}
	if !db.IsDuplicateKey(err) {
		t.Fatal("driver error should stay in the chain")
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Listings
// ─────────────────────────────────────────────────────────────────────────────

func TestListings_Create(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	completeEmployer(t, svc, "emp")
	completeSeeker(t, svc, "seeker")

	l := postListing(t, svc, "emp", "  Backend Engineer ", "technology")
	if l.Title != "Backend Engineer" || l.JobType != models.JobTypeFullTime || l.PostedBy != "emp" {
		t.Fatalf("unexpected listing %+v", l)
	}

	_, err := svc.Listings.Create(ctx, "seeker", models.CreateListingParams{
		Title: "t", Description: "d", Salary: "s", Location: "l", Category: "finance", CompanyName: "c",
	})
	if !errors.Is(err, service.ErrProfileRequired) {
		t.Fatalf("job seeker posting: expected ErrProfileRequired, got %v", err)
	}

	_, err = svc.Listings.Create(ctx, "emp", models.CreateListingParams{
		Title: "t", Description: "d", Salary: "s", Location: "l", Category: "farming", CompanyName: "c",
	})
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("unknown category: expected ErrInvalidInput, got %v", err)
	}
	if !strings.Contains(err.Error(), "category") {
		t.Fatalf("error should name the field: %v", err)
	}
}

func TestListings_UpdateAndDelete(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	completeEmployer(t, svc, "owner")
	completeEmployer(t, svc, "rival")
	l := postListing(t, svc, "owner", "Backend Engineer", "technology")

	if _, err := svc.Listings.Update(ctx, "owner", models.UpdateListingParams{ID: l.ID}); !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("empty update: expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Listings.Update(ctx, "rival", models.UpdateListingParams{ID: l.ID, Salary: ptr("1")}); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("rival update: expected ErrForbidden, got %v", err)
	}
	got, err := svc.Listings.Update(ctx, "owner", models.UpdateListingParams{ID: l.ID, Salary: ptr(" 150k ")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Salary != "150k" {
		t.Fatalf("salary %q", got.Salary)
	}

	if err := svc.Listings.Delete(ctx, l.ID, "rival"); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("rival delete: expected ErrForbidden, got %v", err)
	}
	if err := svc.Listings.Delete(ctx, l.ID, "owner"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Listings.Get(ctx, l.ID, "owner"); !db.IsNotFound(err) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestListings_ReadsRequireProfile(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	completeEmployer(t, svc, "E")
	l := postListing(t, svc, "E", "Backend Engineer", "technology")

	if _, err := svc.Listings.Get(ctx, l.ID, "nobody"); !errors.Is(err, service.ErrProfileRequired) {
		t.Fatalf("get: expected ErrProfileRequired, got %v", err)
	}
	if _, err := svc.Listings.List(ctx, "nobody", models.ListingFilter{}); !errors.Is(err, service.ErrProfileRequired) {
		t.Fatalf("list: expected ErrProfileRequired, got %v", err)
	}
	if got, err := svc.Listings.Get(ctx, l.ID, "E"); err != nil || got.ID != l.ID {
		t.Fatalf("poster get: %v", err)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// End-to-end scenarios
// ─────────────────────────────────────────────────────────────────────────────

func TestScenario_ApplyAndApprove(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	completeEmployer(t, svc, "E")
	completeSeeker(t, svc, "S")

	l := postListing(t, svc, "E", "Backend Engineer", "technology")

	submitted, err := svc.Applications.Submit(ctx, "S", l.ID, application())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if submitted.Status != models.StatusPending || submitted.JobTitle != "Backend Engineer" {
		t.Fatalf("unexpected application %+v", submitted)
	}

	review, err := svc.Applications.ListForJob(ctx, l.ID, "E")
	if err != nil {
		t.Fatalf("list for job: %v", err)
	}
	if len(review) != 1 || review[0].Status != models.StatusPending {
		t.Fatalf("expected one pending application, got %v", review)
	}

	approved, err := svc.Applications.UpdateStatus(ctx, models.UpdateStatusParams{
		ID: review[0].ID, ReviewerID: "E", Status: models.StatusApproved,
	})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.CanReview() {
		t.Fatal("approved application must not be reviewable")
	}

	mine, err := svc.Applications.ListMine(ctx, "S")
	if err != nil || len(mine) != 1 || mine[0].Status != models.StatusApproved {
		t.Fatalf("applicant view: %v (%v)", mine, err)
	}

	_, err = svc.Applications.UpdateStatus(ctx, models.UpdateStatusParams{
		ID: review[0].ID, ReviewerID: "E", Status: models.StatusRejected,
	})
	if !errors.Is(err, service.ErrInvalidTransition) {
		t.Fatalf("second review: expected ErrInvalidTransition, got %v", err)
	}
}

func TestScenario_FilterEngineerInFinance(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	completeEmployer(t, svc, "E")

	postListing(t, svc, "E", "Backend Engineer", "technology")
	want := postListing(t, svc, "E", "Payments Engineer", "finance")
	postListing(t, svc, "E", "Financial Analyst", "finance")

	got, err := svc.Listings.List(ctx, "E", models.ListingFilter{Query: " engineer ", Category: "finance"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != want.ID {
		t.Fatalf("expected only %q, got %d listings", want.Title, len(got))
	}
}

func TestApplications_Guards(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	completeEmployer(t, svc, "E")
	completeSeeker(t, svc, "S")
	l := postListing(t, svc, "E", "Backend Engineer", "technology")

	bad := application()
	bad.Email = "not-an-email"
	if _, err := svc.Applications.Submit(ctx, "S", l.ID, bad); !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("bad email: expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Applications.Submit(ctx, "E", l.ID, application()); !errors.Is(err, service.ErrProfileRequired) {
		t.Fatalf("employer applying: expected ErrProfileRequired, got %v", err)
	}
	if _, err := svc.Applications.ListForJob(ctx, l.ID, "S"); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("applicant reviewing: expected ErrForbidden, got %v", err)
	}

	if _, err := svc.Listings.Update(ctx, "E", models.UpdateListingParams{ID: l.ID, Status: ptr(models.ListingClosed)}); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := svc.Applications.Submit(ctx, "S", l.ID, application()); !errors.Is(err, service.ErrListingClosed) {
		t.Fatalf("closed listing: expected ErrListingClosed, got %v", err)
	}

	_, err := svc.Applications.UpdateStatus(ctx, models.UpdateStatusParams{ID: "x", ReviewerID: "E", Status: models.StatusPending})
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("status pending: expected ErrInvalidInput, got %v", err)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Messages
// ─────────────────────────────────────────────────────────────────────────────

func TestMessages_Send_Validation(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	completeSeeker(t, svc, "a")

	if _, err := svc.Messages.Send(ctx, "a", models.SendMessageParams{RecipientID: "b", Content: "   "}); !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("blank content: expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Messages.Send(ctx, "a", models.SendMessageParams{RecipientID: "a", Content: "hi"}); !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("self message: expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Messages.Send(ctx, "ghost", models.SendMessageParams{RecipientID: "a", Content: "hi"}); !errors.Is(err, service.ErrProfileRequired) {
		t.Fatalf("no profile: expected ErrProfileRequired, got %v", err)
	}

	m, err := svc.Messages.Send(ctx, "a", models.SendMessageParams{RecipientID: " b ", Content: "  hello  ", JobID: ptr("")})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if m.Content != "hello" || m.RecipientID != "b" || m.JobID != nil {
		t.Fatalf("unexpected message %+v", m)
	}
}

func TestMessages_Conversation(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	completeSeeker(t, svc, "a")
	completeEmployer(t, svc, "b")

	for i, from := range []string{"a", "b", "a", "b"} {
		to := "b"
		if from == "b" {
			to = "a"
		}
		if _, err := svc.Messages.Send(ctx, from, models.SendMessageParams{RecipientID: to, Content: string(rune('1' + i))}); err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	conv, err := svc.Messages.Conversation(ctx, "b", "a")
	if err != nil {
		t.Fatalf("conversation: %v", err)
	}
	var got strings.Builder
	for _, m := range conv {
		got.WriteString(m.Content)
	}
	if got.String() != "1234" {
		t.Fatalf("conversation order %q", got.String())
	}
	if _, err := svc.Messages.Conversation(ctx, "a", ""); !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestMessages_Inbox(t *testing.T) {
	svc, database := newTestServices(t)
	ctx := context.Background()
	completeSeeker(t, svc, "me")
	completeEmployer(t, svc, "alice")
	completeEmployer(t, svc, "bob")

	send := func(from, content string) {
		t.Helper()
		if _, err := svc.Messages.Send(ctx, from, models.SendMessageParams{RecipientID: "me", Content: content}); err != nil {
			t.Fatalf("send: %v", err)
		}
	}
	send("alice", "a1")
	send("bob", "b1")
	send("alice", "a2")

	// A row written before sender profiles were enforced.
	_, err := database.Exec(ctx,
		`INSERT INTO messages (id, sender_id, recipient_id, content, created_at) VALUES ($1, $2, $3, $4, $5)`,
		"legacy-1", "legacy-user", "me", "old", time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("legacy insert: %v", err)
	}

	inbox, err := svc.Messages.Inbox(ctx, "me")
	if err != nil {
		t.Fatalf("inbox: %v", err)
	}
	if len(inbox) != 3 {
		t.Fatalf("expected 3 senders, got %d", len(inbox))
	}

	want := []struct{ sender, name, last string }{
		{"alice", "Employer alice", "a2"},
		{"bob", "Employer bob", "b1"},
		{"legacy-user", "legacy-user", "old"},
	}
	for i, w := range want {
		e := inbox[i]
		if e.SenderID != w.sender || e.SenderName != w.name || e.LastMessage.Content != w.last {
			t.Fatalf("entry %d: got %s/%s/%s want %s/%s/%s",
				i, e.SenderID, e.SenderName, e.LastMessage.Content, w.sender, w.name, w.last)
		}
		if !e.UpdatedAt.Equal(e.LastMessage.CreatedAt) {
			t.Fatalf("entry %d: UpdatedAt differs from its last message", i)
		}
	}

	empty, err := svc.Messages.Inbox(ctx, "alice")
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty inbox, got %v (%v)", empty, err)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Admin
// ─────────────────────────────────────────────────────────────────────────────

func TestAdmin_RequiresCapability(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	completeEmployer(t, svc, "boss")

	if _, err := svc.Admin.Stats(ctx, "boss"); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("non-admin: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Admin.Users(ctx, "nobody"); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("no profile: expected ErrForbidden, got %v", err)
	}
}

func TestAdmin_Stats(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	completeEmployer(t, svc, "boss")
	completeSeeker(t, svc, "s")
	open := postListing(t, svc, "boss", "Open role", "technology")
	closed := postListing(t, svc, "boss", "Closed role", "finance")
	if _, err := svc.Applications.Submit(ctx, "s", open.ID, application()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Listings.Update(ctx, "boss", models.UpdateListingParams{ID: closed.ID, Status: ptr(models.ListingClosed)}); err != nil {
		t.Fatalf("close: %v", err)
	}

	if err := svc.Admin.SetAdmin(ctx, true, "boss"); err != nil {
		t.Fatalf("grant: %v", err)
	}
	st, err := svc.Admin.Stats(ctx, "boss")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if *st != (models.Stats{ActiveJobs: 1, Users: 2, Applications: 1}) {
		t.Fatalf("unexpected stats %+v", *st)
	}

	users, err := svc.Admin.Users(ctx, "boss")
	if err != nil || len(users) != 2 {
		t.Fatalf("users: %d (%v)", len(users), err)
	}
	jobs, err := svc.Admin.Jobs(ctx, "boss")
	if err != nil || len(jobs) != 2 {
		t.Fatalf("jobs: %d (%v)", len(jobs), err)
	}
}

func TestAdmin_SetAdmin_AllOrNothing(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	completeEmployer(t, svc, "a")

	err := svc.Admin.SetAdmin(ctx, true, "a", "ghost")
	if !db.IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	admins, err := svc.Admin.Admins(ctx)
	if err != nil {
		t.Fatalf("admins: %v", err)
	}
	if len(admins) != 0 {
		t.Fatalf("grant should have rolled back, got %d admins", len(admins))
	}

	if err := svc.Admin.SetAdmin(ctx, true); !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

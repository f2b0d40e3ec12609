package models_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/B-Mitchell/JobRecruit/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// Application status lifecycle
// ─────────────────────────────────────────────────────────────────────────────

func TestApplicationStatus_Transitions(t *testing.T) {
	all := []models.ApplicationStatus{models.StatusPending, models.StatusApproved, models.StatusRejected}
	allowed := map[[2]models.ApplicationStatus]bool{
		{models.StatusPending, models.StatusApproved}: true,
		{models.StatusPending, models.StatusRejected}: true,
	}
	for _, from := range all {
		for _, to := range all {
			got := from.CanTransitionTo(to)
			if got != allowed[[2]models.ApplicationStatus{from, to}] {
				t.Fatalf("%s -> %s: got %v", from, to, got)
			}
		}
	}
	if models.ApplicationStatus("withdrawn").Valid() {
		t.Fatal("unknown status reported valid")
	}
	if models.StatusPending.CanTransitionTo("withdrawn") {
		t.Fatal("transition to unknown status allowed")
	}
}

func TestApplication_CanReview(t *testing.T) {
	a := &models.Application{Status: models.StatusPending}
	if !a.CanReview() {
		t.Fatal("pending application should be reviewable")
	}
	a.Status = models.StatusApproved
	if a.CanReview() {
		t.Fatal("approved application should not be reviewable")
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Listing filter
// ─────────────────────────────────────────────────────────────────────────────

func TestListingFilter_Matches(t *testing.T) {
	l := &models.Listing{
		Title:       "Senior Backend Engineer",
		Description: "Go services",
		CompanyName: "Acme",
		Category:    "technology",
		JobType:     models.JobTypeFullTime,
		Location:    "Remote",
	}
	tests := []struct {
		name string
		f    models.ListingFilter
		want bool
	}{
		{"empty matches all", models.ListingFilter{}, true},
		{"title case-insensitive", models.ListingFilter{Query: "ENGINEER"}, true},
		{"description", models.ListingFilter{Query: "go serv"}, true},
		{"company", models.ListingFilter{Query: "acm"}, true},
		{"no text match", models.ListingFilter{Query: "nurse"}, false},
		{"category exact", models.ListingFilter{Category: "technology"}, true},
		{"category mismatch", models.ListingFilter{Query: "engineer", Category: "finance"}, false},
		{"category is not substring", models.ListingFilter{Category: "tech"}, false},
		{"location is case-sensitive", models.ListingFilter{Location: "remote"}, false},
		{"all facets", models.ListingFilter{Query: "backend", Category: "technology", JobType: "full-time", Location: "Remote"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.f.Matches(l); got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestListingFilter_Normalize(t *testing.T) {
	f := models.ListingFilter{Query: "  go ", Category: " finance"}.Normalize()
	if f.Query != "go" || f.Category != "finance" {
		t.Fatalf("unexpected normalized filter %+v", f)
	}
}

func TestUpdateListingParams_Empty(t *testing.T) {
	if !(models.UpdateListingParams{ID: "x"}).Empty() {
		t.Fatal("params with only an id should be empty")
	}
	title := "New"
	if (models.UpdateListingParams{Title: &title}).Empty() {
		t.Fatal("params with a title should not be empty")
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Profile helpers
// ─────────────────────────────────────────────────────────────────────────────

func TestSkills_RoundTrip(t *testing.T) {
	joined := models.JoinSkills([]string{" Go", "", "SQL ", "Kubernetes"})
	if joined != "Go,SQL,Kubernetes" {
		t.Fatalf("unexpected join %q", joined)
	}
	if got := models.SplitSkills(joined); !reflect.DeepEqual(got, []string{"Go", "SQL", "Kubernetes"}) {
		t.Fatalf("unexpected split %v", got)
	}
	if models.SplitSkills("  ") != nil {
		t.Fatal("blank column should split to nil")
	}
}

func TestProfile_RolePredicates(t *testing.T) {
	var nobody *models.Profile
	if nobody.IsEmployer() || nobody.IsJobSeeker() || nobody.IsAdminUser() {
		t.Fatal("nil profile has no capabilities")
	}
	p := &models.Profile{Role: models.RoleEmployer}
	if !p.IsEmployer() || p.IsJobSeeker() {
		t.Fatal("employer predicates wrong")
	}
	if models.Role("admin").Valid() {
		t.Fatal("admin is a flag, not a role")
	}
}

func TestMessage_Later(t *testing.T) {
	now := time.Now()
	a := &models.Message{ID: "a", CreatedAt: now}
	b := &models.Message{ID: "b", CreatedAt: now}
	c := &models.Message{ID: "0", CreatedAt: now.Add(time.Second)}
	if !b.Later(a) || a.Later(b) {
		t.Fatal("equal timestamps should order by id")
	}
	if !c.Later(b) {
		t.Fatal("later timestamp should win regardless of id")
	}
}

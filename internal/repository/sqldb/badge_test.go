package sqldb

import (
	"context"
	"testing"
	"time"
)

func TestListEligibleBadges_Boundary(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")

	// Friendly Booper needs 10.
	eligible, err := db.ListEligibleBadges(ctx, alice.ID, 9)
	if err != nil {
		t.Fatalf("ListEligibleBadges() error = %v", err)
	}
	if len(eligible) != 1 || eligible[0].Name != "First Boop" {
		t.Errorf("at 9 boops eligible = %v, want [First Boop]", names(eligible))
	}

	eligible, _ = db.ListEligibleBadges(ctx, alice.ID, 10)
	if len(eligible) != 2 || eligible[1].Name != "Friendly Booper" {
		t.Errorf("at 10 boops eligible = %v, want [First Boop Friendly Booper]", names(eligible))
	}
}

func TestListEligibleBadges_SkipsEarnedAndOrdersByThreshold(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")

	all, _ := db.ListEligibleBadges(ctx, alice.ID, 1000)
	if ok, err := db.AwardBadge(ctx, alice.ID, all[0].ID, time.Now()); err != nil || !ok {
		t.Fatalf("AwardBadge() = %v, %v", ok, err)
	}

	eligible, _ := db.ListEligibleBadges(ctx, alice.ID, 1000)
	if len(eligible) != len(all)-1 {
		t.Fatalf("eligible after award = %d, want %d", len(eligible), len(all)-1)
	}
	for i := 1; i < len(eligible); i++ {
		if eligible[i-1].Threshold > eligible[i].Threshold {
			t.Errorf("eligible not in threshold order: %v", names(eligible))
		}
	}
	if eligible[0].Name == "First Boop" {
		t.Error("earned badge is still listed as eligible")
	}
}

func TestAwardBadge_DuplicateReportsFalse(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	badges, _ := db.ListBadges(ctx)

	first, err := db.AwardBadge(ctx, alice.ID, badges[0].ID, time.Now())
	if err != nil || !first {
		t.Fatalf("first AwardBadge() = %v, %v", first, err)
	}
	second, err := db.AwardBadge(ctx, alice.ID, badges[0].ID, time.Now())
	if err != nil {
		t.Fatalf("duplicate AwardBadge() error = %v, want nil", err)
	}
	if second {
		t.Error("duplicate AwardBadge() = true, want false")
	}

	earned, _ := db.ListUserBadges(ctx, alice.ID)
	if len(earned) != 1 {
		t.Errorf("ListUserBadges() = %d, want 1", len(earned))
	}
	if earned[0].EarnedAt.IsZero() {
		t.Error("EarnedAt not populated")
	}
}

func TestListBadges_UnlockPaws(t *testing.T) {
	db := newTestDB(t)
	badges, err := db.ListBadges(context.Background())
	if err != nil {
		t.Fatalf("ListBadges() error = %v", err)
	}
	var century bool
	for _, b := range badges {
		if b.Threshold == 100 {
			century = true
			if b.UnlocksPaw == nil || *b.UnlocksPaw != "lightning" {
				t.Errorf("100-threshold badge unlocks %v, want lightning", b.UnlocksPaw)
			}
		}
		if b.Name == "First Boop" && b.UnlocksPaw != nil {
			t.Errorf("First Boop unlocks %q, want nil", *b.UnlocksPaw)
		}
	}
	if !century {
		t.Error("no 100-threshold badge seeded")
	}
}

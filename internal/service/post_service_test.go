package service

import (
	"errors"
	"testing"

	"github.com/judgmentpress/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return gdb
}

func seedUser(t *testing.T, gdb *gorm.DB, username string) *db.User {
	t.Helper()
	user, err := db.CreateUser(gdb, username, "password", "")
	if err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

func strPtr(s string) *string { return &s }

func TestPostServiceCreateThenGet(t *testing.T) {
	gdb := setupServiceTestDB(t)
	user := seedUser(t, gdb, "alice")
	svc := NewPostService(gdb)

	created, err := svc.Create(user.ID, PostInput{Title: "T", Content: "C"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := svc.Get(created.ID, user.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Title != "T" || got.Content != "C" {
		t.Fatalf("unexpected post %+v", got)
	}
	if got.Status != db.PostStatusDraft {
		t.Fatalf("expected draft, got %s", got.Status)
	}
	if got.WordPressPostID != nil {
		t.Fatalf("expected no remote id, got %d", *got.WordPressPostID)
	}
	if got.Summary != nil || got.ImageURL != nil {
		t.Fatalf("optional fields should be nil")
	}
}

func TestPostServiceCreateValidates(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewPostService(gdb)

	if _, err := svc.Create(1, PostInput{Title: "  ", Content: "C"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank title, got %v", err)
	}
	if _, err := svc.Create(1, PostInput{Title: "T"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank content, got %v", err)
	}
}

func TestPostServiceListIsOwnerScoped(t *testing.T) {
	gdb := setupServiceTestDB(t)
	alice := seedUser(t, gdb, "alice")
	bob := seedUser(t, gdb, "bob")
	svc := NewPostService(gdb)

	for _, title := range []string{"first", "second"} {
		if _, err := svc.Create(alice.ID, PostInput{Title: title, Content: "body"}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	if _, err := svc.Create(bob.ID, PostInput{Title: "bob's", Content: "body"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	posts, err := svc.List(alice.ID, PostFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[0].Title != "second" {
		t.Fatalf("expected newest first, got %s", posts[0].Title)
	}

	published, err := svc.List(alice.ID, PostFilter{Status: db.PostStatusPublished})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(published) != 0 {
		t.Fatalf("expected no published posts, got %d", len(published))
	}

	if _, err := svc.List(alice.ID, PostFilter{Status: "archived"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown status, got %v", err)
	}
}

func TestPostServiceUpdateIsPartial(t *testing.T) {
	gdb := setupServiceTestDB(t)
	user := seedUser(t, gdb, "alice")
	svc := NewPostService(gdb)

	created, err := svc.Create(user.ID, PostInput{
		Title:    "Original",
		Content:  "<p>body</p>",
		Summary:  strPtr("short"),
		Keywords: []string{"bail", "appeal"},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	keywords := []string{" contract ", "tort"}
	updated, err := svc.Update(created.ID, user.ID, PostUpdate{
		Title:    strPtr("Renamed"),
		Keywords: &keywords,
		ImageURL: strPtr("https://img.example.com/a.png"),
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if updated.Title != "Renamed" {
		t.Fatalf("expected title to change, got %s", updated.Title)
	}
	if updated.Content != "<p>body</p>" {
		t.Fatalf("content should be untouched, got %s", updated.Content)
	}
	if updated.Summary == nil || *updated.Summary != "short" {
		t.Fatalf("summary should be untouched, got %v", updated.Summary)
	}
	if len(updated.Keywords) != 2 || updated.Keywords[0] != "contract" || updated.Keywords[1] != "tort" {
		t.Fatalf("unexpected keywords %#v", updated.Keywords)
	}
	if updated.ImageURL == nil || *updated.ImageURL != "https://img.example.com/a.png" {
		t.Fatalf("unexpected image url %v", updated.ImageURL)
	}
	if updated.Status != db.PostStatusDraft {
		t.Fatalf("update must not change status")
	}

	cleared, err := svc.Update(created.ID, user.ID, PostUpdate{Summary: strPtr("")})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if cleared.Summary != nil {
		t.Fatalf("expected summary to be cleared, got %v", *cleared.Summary)
	}
}

func TestPostServiceUpdateOtherUsersPost(t *testing.T) {
	gdb := setupServiceTestDB(t)
	alice := seedUser(t, gdb, "alice")
	bob := seedUser(t, gdb, "bob")
	svc := NewPostService(gdb)

	created, err := svc.Create(alice.ID, PostInput{Title: "T", Content: "C"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.Update(created.ID, bob.ID, PostUpdate{Title: strPtr("stolen")}); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
	got, err := svc.Get(created.ID, alice.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Title != "T" {
		t.Fatalf("post should be unchanged, got %s", got.Title)
	}
}

func TestPostServiceDeleteOtherUsersPostReportsNotFound(t *testing.T) {
	gdb := setupServiceTestDB(t)
	alice := seedUser(t, gdb, "alice")
	bob := seedUser(t, gdb, "bob")
	svc := NewPostService(gdb)

	created, err := svc.Create(alice.ID, PostInput{Title: "T", Content: "C"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	err = svc.Delete(created.ID, bob.ID)
	if !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
	if errors.Is(err, ErrForbidden) {
		t.Fatalf("cross-user delete must not report forbidden")
	}

	if _, err := svc.Get(created.ID, alice.ID); err != nil {
		t.Fatalf("post should survive a foreign delete: %v", err)
	}

	if err := svc.Delete(created.ID, alice.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if _, err := svc.Get(created.ID, alice.ID); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound after delete, got %v", err)
	}
	if err := svc.Delete(created.ID, alice.ID); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("second delete should report not found, got %v", err)
	}
}

func TestPostServiceMarkPublished(t *testing.T) {
	gdb := setupServiceTestDB(t)
	user := seedUser(t, gdb, "alice")
	svc := NewPostService(gdb)

	created, err := svc.Create(user.ID, PostInput{Title: "T", Content: "C"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.MarkPublished(created.ID, user.ID, 0); !errors.Is(err, ErrPublishedWithoutRemote) {
		t.Fatalf("expected ErrPublishedWithoutRemote, got %v", err)
	}
	unchanged, _ := svc.Get(created.ID, user.ID)
	if unchanged.Status != db.PostStatusDraft || unchanged.WordPressPostID != nil {
		t.Fatalf("rejected publish must leave the post untouched")
	}

	published, err := svc.MarkPublished(created.ID, user.ID, 4242)
	if err != nil {
		t.Fatalf("mark published failed: %v", err)
	}
	if published.Status != db.PostStatusPublished || published.WordPressPostID == nil || *published.WordPressPostID != 4242 {
		t.Fatalf("unexpected post after publish %+v", published)
	}
	if !published.IsPublished() {
		t.Fatalf("expected IsPublished to hold")
	}

	if _, err := svc.MarkPublished(created.ID, user.ID+100, 1); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound for foreign owner, got %v", err)
	}
}

func TestPostStatusMatchesRemoteID(t *testing.T) {
	gdb := setupServiceTestDB(t)
	user := seedUser(t, gdb, "alice")
	svc := NewPostService(gdb)

	for i := 0; i < 4; i++ {
		post, err := svc.Create(user.ID, PostInput{Title: "T", Content: "C"})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if i%2 == 0 {
			if _, err := svc.MarkPublished(post.ID, user.ID, int64(100+i)); err != nil {
				t.Fatalf("mark published failed: %v", err)
			}
		}
	}

	posts, err := svc.List(user.ID, PostFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for _, post := range posts {
		published := post.Status == db.PostStatusPublished
		hasRemote := post.WordPressPostID != nil
		if published != hasRemote {
			t.Fatalf("post %d: status %s with remote id present=%v", post.ID, post.Status, hasRemote)
		}
	}
}

package repository

import (
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"blogpulse/internal/models"
	"blogpulse/internal/storage"
)

func newTestDB(t *testing.T) *storage.PostgresDB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db := &storage.PostgresDB{DB: gdb}
	if err := db.AutoMigrate(&models.User{}, &models.Comment{}, &models.Conversation{}, &models.ChatMessage{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestCommentRepository_TopLevelOrdering(t *testing.T) {
	db := newTestDB(t)
	repo := NewCommentRepository(db)

	base := time.Now().Add(-time.Hour)
	first := &models.Comment{PostID: "post-42", UserID: 1, Body: "first"}
	first.CreatedAt = base
	second := &models.Comment{PostID: "post-42", UserID: 2, Body: "second"}
	second.CreatedAt = base.Add(time.Minute)
	other := &models.Comment{PostID: "post-99", UserID: 1, Body: "elsewhere"}

	for _, c := range []*models.Comment{second, first, other} {
		if err := repo.Create(c); err != nil {
			t.Fatal(err)
		}
	}

	// 回覆不能出現在頂層列表
	reply := &models.Comment{PostID: "post-42", UserID: 2, Body: "reply", ParentCommentID: &first.ID}
	if err := repo.Create(reply); err != nil {
		t.Fatal(err)
	}

	comments, err := repo.FindTopLevelByPostID("post-42")
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 2 {
		t.Fatalf("got %d top-level comments, want 2", len(comments))
	}
	if comments[0].Body != "first" || comments[1].Body != "second" {
		t.Errorf("comments out of creation order: [%s, %s]", comments[0].Body, comments[1].Body)
	}
}

func TestCommentRepository_FindByID(t *testing.T) {
	db := newTestDB(t)
	repo := NewCommentRepository(db)

	comment := &models.Comment{PostID: "post-1", UserID: 1, Body: "hello"}
	if err := repo.Create(comment); err != nil {
		t.Fatal(err)
	}

	found, err := repo.FindByID(comment.ID)
	if err != nil {
		t.Fatal(err)
	}
	if found.Body != "hello" {
		t.Errorf("body = %q", found.Body)
	}

	if _, err := repo.FindByID(9999); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("missing id error = %v, want ErrRecordNotFound", err)
	}
}

func TestConversationRepository_ListOrderAndTouch(t *testing.T) {
	db := newTestDB(t)
	repo := NewConversationRepository(db)

	older := &models.Conversation{UserID: 1, Title: "older"}
	newer := &models.Conversation{UserID: 1, Title: "newer"}
	foreign := &models.Conversation{UserID: 2, Title: "not mine"}
	base := time.Now().Add(-time.Hour)
	older.UpdatedAt = base
	newer.UpdatedAt = base.Add(time.Minute)
	for _, c := range []*models.Conversation{older, newer, foreign} {
		if err := repo.Create(c); err != nil {
			t.Fatal(err)
		}
	}

	conversations, err := repo.FindByUser(1, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(conversations) != 2 {
		t.Fatalf("got %d conversations, want 2", len(conversations))
	}
	if conversations[0].Title != "newer" {
		t.Errorf("first conversation = %q, want most recently updated", conversations[0].Title)
	}

	// Touch 之後舊對話要浮到最前面
	if err := repo.Touch(older.ID); err != nil {
		t.Fatal(err)
	}
	conversations, err = repo.FindByUser(1, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if conversations[0].Title != "older" {
		t.Errorf("first conversation after touch = %q, want older", conversations[0].Title)
	}

	count, err := repo.CountByUser(1)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestConversationRepository_FindByIDAndUserScoping(t *testing.T) {
	db := newTestDB(t)
	repo := NewConversationRepository(db)

	conv := &models.Conversation{UserID: 1, Title: "mine"}
	if err := repo.Create(conv); err != nil {
		t.Fatal(err)
	}

	if _, err := repo.FindByIDAndUser(conv.ID, 1); err != nil {
		t.Errorf("owner lookup error = %v", err)
	}
	if _, err := repo.FindByIDAndUser(conv.ID, 2); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("non-owner lookup error = %v, want ErrRecordNotFound", err)
	}
}

func TestConversationRepository_DeleteWithMessages(t *testing.T) {
	db := newTestDB(t)
	conversations := NewConversationRepository(db)
	messages := NewMessageRepository(db)

	conv := &models.Conversation{UserID: 1, Title: "doomed"}
	if err := conversations.Create(conv); err != nil {
		t.Fatal(err)
	}
	for _, content := range []string{"q", "a"} {
		if err := messages.Create(&models.ChatMessage{
			ConversationID: conv.ID, UserID: 1, Role: models.RoleUser, Content: content,
		}); err != nil {
			t.Fatal(err)
		}
	}

	if err := conversations.DeleteWithMessages(conv.ID, 1); err != nil {
		t.Fatal(err)
	}

	if _, err := conversations.FindByIDAndUser(conv.ID, 1); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("conversation still present after delete: %v", err)
	}
	remaining, err := messages.FindByConversation(conv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 0 {
		t.Errorf("%d messages left behind after delete, want 0", len(remaining))
	}
}

func TestMessageRepository_RecentWindow(t *testing.T) {
	db := newTestDB(t)
	repo := NewMessageRepository(db)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		msg := &models.ChatMessage{
			ConversationID: 1,
			UserID:         1,
			Role:           models.RoleUser,
			Content:        string(rune('a' + i)),
		}
		msg.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.Create(msg); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := repo.FindRecentByConversation(1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 3 {
		t.Fatalf("got %d recent messages, want 3", len(recent))
	}
	// 由新到舊
	if recent[0].Content != "e" || recent[2].Content != "c" {
		t.Errorf("recent window = [%s..%s], want newest first", recent[0].Content, recent[2].Content)
	}

	all, err := repo.FindByConversation(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 5 || all[0].Content != "a" || all[4].Content != "e" {
		t.Errorf("full history not in chronological order")
	}
}

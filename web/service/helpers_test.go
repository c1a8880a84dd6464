package service

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yamdb/api-yamdb/config"
	"github.com/yamdb/api-yamdb/database"
	"github.com/yamdb/api-yamdb/database/model"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{
		Type:   config.DatabaseTypeSQLite,
		SQLite: config.SQLiteConfig{Path: config.MemoryPath},
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string, role model.Role) *model.User {
	t.Helper()
	u := &model.User{Username: username, Email: username + "@example.com", Role: role}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createTitle(t *testing.T, db *gorm.DB, name string, year int) *model.Title {
	t.Helper()
	title := &model.Title{Name: name, Year: year}
	require.NoError(t, db.Omit("Category", "Genres").Create(title).Error)
	return title
}

func createReview(t *testing.T, db *gorm.DB, titleID int, author *model.User, score int) *model.Review {
	t.Helper()
	r := &model.Review{TitleId: titleID, Score: score, Feedback: model.Feedback{Text: "review", AuthorId: author.Id}}
	require.NoError(t, db.Omit("Author").Create(r).Error)
	return r
}

func ptr[T any](v T) *T {
	return &v
}

type sentMail struct {
	Subject, Body, To string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Deliver(_ context.Context, subject, body, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{Subject: subject, Body: body, To: to})
	return m.err
}

var codePattern = regexp.MustCompile(`code: ([0-9A-Za-z]{16})`)

// lastCode extracts the confirmation code from the newest mail.
func (m *fakeMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	match := codePattern.FindStringSubmatch(m.sent[len(m.sent)-1].Body)
	require.Len(t, match, 2, "mail body has no confirmation code")
	return match[1]
}

package model

import "time"

type Category struct {
	Id   int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"size:256;not null;index"`
	Slug string `json:"slug" gorm:"size:50;uniqueIndex;not null"`
}

type Genre struct {
	Id   int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"size:256;not null;index"`
	Slug string `json:"slug" gorm:"size:50;uniqueIndex;not null"`
}

type Title struct {
	Id          int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string    `json:"name" gorm:"size:256;not null;index"`
	Year        int       `json:"year" gorm:"not null;index"`
	Description *string   `json:"description" gorm:"type:text"`
	CategoryId  *int      `json:"-" gorm:"index"`
	Category    *Category `json:"category" gorm:"constraint:OnDelete:SET NULL"`
	Genres      []Genre   `json:"genre" gorm:"many2many:genre_titles"`

	// Rating is filled by the read query from the reviews table.
	Rating *float64 `json:"rating" gorm:"->;-:migration"`
}

// GenreTitle links a title to one of its genres.
type GenreTitle struct {
	TitleId int `gorm:"primaryKey"`
	GenreId int `gorm:"primaryKey;index"`
}

func (GenreTitle) TableName() string {
	return "genre_titles"
}

// Feedback is the part shared by reviews and comments.
type Feedback struct {
	Text     string    `json:"text" gorm:"type:text;not null"`
	AuthorId int       `json:"-" gorm:"not null;index"`
	PubDate  time.Time `json:"pub_date" gorm:"autoCreateTime;index"`
}

func (f Feedback) AuthorID() int {
	return f.AuthorId
}

// Review is unique per (title, author); the index is created by the
// database package because AuthorId lives in the embedded Feedback.
type Review struct {
	Id      int  `json:"id" gorm:"primaryKey;autoIncrement"`
	TitleId int  `json:"-" gorm:"not null;index"`
	Author  User `json:"-" gorm:"foreignKey:AuthorId;constraint:OnDelete:CASCADE"`
	Feedback
	Score int `json:"score" gorm:"not null;check:chk_reviews_score,score >= 1 AND score <= 10"`
}

type Comment struct {
	Id       int  `json:"id" gorm:"primaryKey;autoIncrement"`
	ReviewId int  `json:"-" gorm:"not null;index"`
	Author   User `json:"-" gorm:"foreignKey:AuthorId;constraint:OnDelete:CASCADE"`
	Feedback
}

// AuditLog records one successful state-changing request.
type AuditLog struct {
	Id          int       `json:"id" gorm:"primaryKey;autoIncrement"`
	UserId      int       `json:"user_id" gorm:"index"`
	Username    string    `json:"username" gorm:"size:150"`
	Action      string    `json:"action" gorm:"size:16;index"`
	Resource    string    `json:"resource" gorm:"size:64;index"`
	ResourceKey string    `json:"resource_key" gorm:"size:256"`
	IP          string    `json:"ip" gorm:"size:64"`
	UserAgent   string    `json:"user_agent" gorm:"size:512"`
	Details     string    `json:"details" gorm:"type:text"`
	Timestamp   time.Time `json:"timestamp" gorm:"autoCreateTime;index"`
}

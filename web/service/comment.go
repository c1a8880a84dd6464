package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yamdb/api-yamdb/database"
	"github.com/yamdb/api-yamdb/database/model"
	"github.com/yamdb/api-yamdb/web/entity"
	"github.com/yamdb/api-yamdb/web/permission"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommentDTO struct {
	Id      int       `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	PubDate time.Time `json:"pub_date"`
}

func toCommentDTO(c *model.Comment) CommentDTO {
	return CommentDTO{Id: c.Id, Text: c.Text, Author: c.Author.Username, PubDate: c.PubDate}
}

type CommentInput struct {
	Text *string `json:"text"`
}

func (in CommentInput) validate() error {
	if strings.TrimSpace(deref(in.Text)) == "" {
		return entity.NewValidationError("text", "this field may not be blank")
	}
	return nil
}

type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

// requireReview checks that the title exists and the review belongs to it.
func requireReview(tx *gorm.DB, titleID, reviewID int) error {
	if err := requireTitle(tx, titleID); err != nil {
		return err
	}
	var n int64
	if err := tx.Model(&model.Review{}).Where("id = ? AND title_id = ?", reviewID, titleID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("review %d of title %d: %w", reviewID, titleID, entity.ErrNotFound)
	}
	return nil
}

func (s *CommentService) List(ctx context.Context, titleID, reviewID int, q PageQuery) ([]CommentDTO, int64, error) {
	db := s.db.WithContext(ctx)
	if err := requireReview(db, titleID, reviewID); err != nil {
		return nil, 0, err
	}
	var comments []model.Comment
	total, err := paginate(db.Model(&model.Comment{}).Where("review_id = ?", reviewID), q, &comments, func(tx *gorm.DB) *gorm.DB {
		return tx.Preload("Author").Order("pub_date, id")
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]CommentDTO, 0, len(comments))
	for i := range comments {
		out = append(out, toCommentDTO(&comments[i]))
	}
	return out, total, nil
}

func (s *CommentService) load(tx *gorm.DB, titleID, reviewID, commentID int) (*model.Comment, error) {
	if err := requireReview(tx, titleID, reviewID); err != nil {
		return nil, err
	}
	var c model.Comment
	err := tx.Preload("Author").Where("id = ? AND review_id = ?", commentID, reviewID).Take(&c).Error
	if database.IsNotFound(err) {
		return nil, fmt.Errorf("comment %d of review %d: %w", commentID, reviewID, entity.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CommentService) Get(ctx context.Context, titleID, reviewID, commentID int) (CommentDTO, error) {
	c, err := s.load(s.db.WithContext(ctx), titleID, reviewID, commentID)
	if err != nil {
		return CommentDTO{}, err
	}
	return toCommentDTO(c), nil
}

func (s *CommentService) Create(ctx context.Context, actor *model.User, titleID, reviewID int, in CommentInput) (CommentDTO, error) {
	db := s.db.WithContext(ctx)
	if err := requireReview(db, titleID, reviewID); err != nil {
		return CommentDTO{}, err
	}
	if err := permission.CollectionAuthenticatedOrReadOnly.Check(permission.Request{Actor: actor, Method: http.MethodPost}); err != nil {
		return CommentDTO{}, err
	}
	if err := in.validate(); err != nil {
		return CommentDTO{}, err
	}
	c := model.Comment{
		ReviewId: reviewID,
		Feedback: model.Feedback{Text: *in.Text, AuthorId: actor.Id},
	}
	if err := db.Omit(clause.Associations).Create(&c).Error; err != nil {
		return CommentDTO{}, err
	}
	c.Author = *actor
	return toCommentDTO(&c), nil
}

func (s *CommentService) Update(ctx context.Context, actor *model.User, titleID, reviewID, commentID int, in CommentInput) (CommentDTO, error) {
	db := s.db.WithContext(ctx)
	c, err := s.load(db, titleID, reviewID, commentID)
	if err != nil {
		return CommentDTO{}, err
	}
	if err := permission.ObjectAuthorModeratorAdminOrReadOnly.Check(permission.Request{Actor: actor, Method: http.MethodPatch, Object: c}); err != nil {
		return CommentDTO{}, err
	}
	if in.Text == nil {
		return toCommentDTO(c), nil
	}
	if err := in.validate(); err != nil {
		return CommentDTO{}, err
	}
	if err := db.Model(&model.Comment{}).Where("id = ?", c.Id).Update("text", *in.Text).Error; err != nil {
		return CommentDTO{}, err
	}
	c.Text = *in.Text
	return toCommentDTO(c), nil
}

func (s *CommentService) Delete(ctx context.Context, actor *model.User, titleID, reviewID, commentID int) error {
	db := s.db.WithContext(ctx)
	c, err := s.load(db, titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	if err := permission.ObjectAuthorModeratorAdminOrReadOnly.Check(permission.Request{Actor: actor, Method: http.MethodDelete, Object: c}); err != nil {
		return err
	}
	return db.Where("id = ?", c.Id).Delete(&model.Comment{}).Error
}

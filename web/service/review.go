package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yamdb/api-yamdb/database"
	"github.com/yamdb/api-yamdb/database/model"
	"github.com/yamdb/api-yamdb/util/metrics"
	"github.com/yamdb/api-yamdb/web/entity"
	"github.com/yamdb/api-yamdb/web/permission"
	"github.com/yamdb/api-yamdb/web/validator"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewDTO struct {
	Id      int       `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

func toReviewDTO(r *model.Review) ReviewDTO {
	return ReviewDTO{
		Id:      r.Id,
		Text:    r.Text,
		Author:  r.Author.Username,
		Score:   r.Score,
		PubDate: r.PubDate,
	}
}

// ReviewInput is the write shape; nil fields are left unchanged on update.
type ReviewInput struct {
	Text  *string `json:"text"`
	Score *int    `json:"score"`
}

func (in ReviewInput) validate(create bool) error {
	verr := &entity.ValidationError{}
	if in.Text != nil || create {
		if strings.TrimSpace(deref(in.Text)) == "" {
			verr.Add("text", "this field may not be blank")
		}
	}
	if in.Score != nil {
		if err := validator.ValidateScore(*in.Score); err != nil {
			verr.Add("score", err.Error())
		}
	} else if create {
		verr.Add("score", "this field is required")
	}
	return verr.Err()
}

type ReviewService struct {
	db *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

func (s *ReviewService) List(ctx context.Context, titleID int, q PageQuery) ([]ReviewDTO, int64, error) {
	db := s.db.WithContext(ctx)
	if err := requireTitle(db, titleID); err != nil {
		return nil, 0, err
	}
	var reviews []model.Review
	total, err := paginate(db.Model(&model.Review{}).Where("title_id = ?", titleID), q, &reviews, func(tx *gorm.DB) *gorm.DB {
		return tx.Preload("Author").Order("pub_date, id")
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]ReviewDTO, 0, len(reviews))
	for i := range reviews {
		out = append(out, toReviewDTO(&reviews[i]))
	}
	return out, total, nil
}

func (s *ReviewService) Get(ctx context.Context, titleID, reviewID int) (ReviewDTO, error) {
	r, err := loadReview(s.db.WithContext(ctx), titleID, reviewID)
	if err != nil {
		return ReviewDTO{}, err
	}
	return toReviewDTO(r), nil
}

// loadReview fetches a review only if it belongs to the title.
func loadReview(tx *gorm.DB, titleID, reviewID int) (*model.Review, error) {
	var r model.Review
	err := tx.Preload("Author").Where("id = ? AND title_id = ?", reviewID, titleID).Take(&r).Error
	if database.IsNotFound(err) {
		return nil, fmt.Errorf("review %d of title %d: %w", reviewID, titleID, entity.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Create adds actor's review of the title. Each author reviews a title at
// most once; the unique index settles concurrent attempts.
func (s *ReviewService) Create(ctx context.Context, actor *model.User, titleID int, in ReviewInput) (ReviewDTO, error) {
	var review model.Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireTitle(tx, titleID); err != nil {
			return err
		}
		if err := permission.CollectionAuthenticatedOrReadOnly.Check(permission.Request{Actor: actor, Method: http.MethodPost}); err != nil {
			return err
		}
		if err := in.validate(true); err != nil {
			return err
		}

		var n int64
		if err := tx.Model(&model.Review{}).Where("title_id = ? AND author_id = ?", titleID, actor.Id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return entity.ErrDuplicateReview
		}

		review = model.Review{
			TitleId:  titleID,
			Feedback: model.Feedback{Text: *in.Text, AuthorId: actor.Id},
			Score:    *in.Score,
		}
		err := tx.Omit(clause.Associations).Create(&review).Error
		if database.IsDuplicate(err) {
			return entity.ErrDuplicateReview
		}
		return err
	})
	if err != nil {
		return ReviewDTO{}, err
	}
	metrics.ReviewsCreated.Inc()
	review.Author = *actor
	return toReviewDTO(&review), nil
}

func (s *ReviewService) Update(ctx context.Context, actor *model.User, titleID, reviewID int, in ReviewInput) (ReviewDTO, error) {
	db := s.db.WithContext(ctx)
	r, err := loadReview(db, titleID, reviewID)
	if err != nil {
		return ReviewDTO{}, err
	}
	if err := permission.ObjectAuthorModeratorAdminOrReadOnly.Check(permission.Request{Actor: actor, Method: http.MethodPatch, Object: r}); err != nil {
		return ReviewDTO{}, err
	}
	if err := in.validate(false); err != nil {
		return ReviewDTO{}, err
	}

	changes := map[string]any{}
	if in.Text != nil {
		changes["text"] = *in.Text
		r.Text = *in.Text
	}
	if in.Score != nil {
		changes["score"] = *in.Score
		r.Score = *in.Score
	}
	if len(changes) > 0 {
		if err := db.Model(&model.Review{}).Where("id = ?", r.Id).Updates(changes).Error; err != nil {
			return ReviewDTO{}, err
		}
	}
	return toReviewDTO(r), nil
}

// Delete removes the review and its comments.
func (s *ReviewService) Delete(ctx context.Context, actor *model.User, titleID, reviewID int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := loadReview(tx, titleID, reviewID)
		if err != nil {
			return err
		}
		if err := permission.ObjectAuthorModeratorAdminOrReadOnly.Check(permission.Request{Actor: actor, Method: http.MethodDelete, Object: r}); err != nil {
			return err
		}
		if err := tx.Where("review_id = ?", r.Id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", r.Id).Delete(&model.Review{}).Error
	})
}

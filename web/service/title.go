package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/yamdb/api-yamdb/database"
	"github.com/yamdb/api-yamdb/database/model"
	"github.com/yamdb/api-yamdb/web/entity"
	"github.com/yamdb/api-yamdb/web/permission"
	"github.com/yamdb/api-yamdb/web/validator"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TitleDTO struct {
	Id          int       `json:"id"`
	Name        string    `json:"name"`
	Year        int       `json:"year"`
	Rating      *float64  `json:"rating"`
	Description *string   `json:"description"`
	Genre       []SlugDTO `json:"genre"`
	Category    *SlugDTO  `json:"category"`
}

func toTitleDTO(t *model.Title) TitleDTO {
	dto := TitleDTO{
		Id:          t.Id,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      t.Rating,
		Description: t.Description,
		Genre:       make([]SlugDTO, 0, len(t.Genres)),
	}
	for _, g := range t.Genres {
		dto.Genre = append(dto.Genre, SlugDTO{Name: g.Name, Slug: g.Slug})
	}
	if t.Category != nil {
		dto.Category = &SlugDTO{Name: t.Category.Name, Slug: t.Category.Slug}
	}
	return dto
}

// TitleInput is the write shape; nil fields are left unchanged on update.
// Genre and Category refer to slugs, and an empty Category clears it.
type TitleInput struct {
	Name        *string   `json:"name"`
	Year        *int      `json:"year"`
	Description *string   `json:"description"`
	Genre       *[]string `json:"genre"`
	Category    *string   `json:"category"`
}

type TitleFilter struct {
	Genre    string
	Category string
	Name     string
	Year     *int
}

type TitleService struct {
	db         *gorm.DB
	validator  *validator.Validator
	categories *CategoryService
	genres     *GenreService
}

func NewTitleService(db *gorm.DB, v *validator.Validator) *TitleService {
	return &TitleService{
		db:         db,
		validator:  v,
		categories: NewCategoryService(db),
		genres:     NewGenreService(db),
	}
}

func withRating(tx *gorm.DB) *gorm.DB {
	return tx.Select("titles.*, " + ratingColumn).
		Preload("Category").
		Preload("Genres", func(db *gorm.DB) *gorm.DB { return db.Order("genres.name") })
}

func (s *TitleService) List(ctx context.Context, f TitleFilter, q PageQuery) ([]TitleDTO, int64, error) {
	base := s.db.WithContext(ctx).Model(&model.Title{})
	if f.Category != "" {
		base = base.Where("titles.category_id IN (?)",
			s.db.Model(&model.Category{}).Select("id").Where("slug = ?", f.Category))
	}
	if f.Genre != "" {
		base = base.Where("titles.id IN (?)",
			s.db.Model(&model.GenreTitle{}).Select("genre_titles.title_id").
				Joins("JOIN genres ON genres.id = genre_titles.genre_id").
				Where("genres.slug = ?", f.Genre))
	}
	if name := strings.TrimSpace(f.Name); name != "" {
		base = base.Where(containsClause("titles.name"), containsPattern(name))
	}
	if f.Year != nil {
		base = base.Where("titles.year = ?", *f.Year)
	}

	var titles []model.Title
	total, err := paginate(base, q, &titles, func(tx *gorm.DB) *gorm.DB {
		return withRating(tx).Order("titles.name, titles.id")
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]TitleDTO, 0, len(titles))
	for i := range titles {
		out = append(out, toTitleDTO(&titles[i]))
	}
	return out, total, nil
}

func (s *TitleService) Get(ctx context.Context, id int) (TitleDTO, error) {
	t, err := s.load(s.db.WithContext(ctx), id)
	if err != nil {
		return TitleDTO{}, err
	}
	return toTitleDTO(t), nil
}

func (s *TitleService) load(tx *gorm.DB, id int) (*model.Title, error) {
	var t model.Title
	err := withRating(tx.Model(&model.Title{})).Where("titles.id = ?", id).Take(&t).Error
	if database.IsNotFound(err) {
		return nil, fmt.Errorf("title %d: %w", id, entity.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TitleService) validate(in TitleInput, create bool) error {
	verr := &entity.ValidationError{}
	if in.Name != nil || create {
		if msg := validator.CheckLength(strings.TrimSpace(deref(in.Name)), validator.MaxNameLength); msg != "" {
			verr.Add("name", msg)
		}
	}
	if create && in.Year == nil {
		verr.Add("year", "this field is required")
	}
	if create && in.Genre == nil {
		verr.Add("genre", "this field is required")
	}
	if !verr.Empty() {
		return verr
	}
	if in.Year != nil {
		return s.validator.ValidateYear(*in.Year)
	}
	return nil
}

func (s *TitleService) Create(ctx context.Context, actor *model.User, in TitleInput) (TitleDTO, error) {
	if err := permission.AdminOrReadOnly.Check(permission.Request{Actor: actor, Method: http.MethodPost}); err != nil {
		return TitleDTO{}, err
	}
	if err := s.validate(in, true); err != nil {
		return TitleDTO{}, err
	}

	var created *model.Title
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t := model.Title{
			Name:        strings.TrimSpace(*in.Name),
			Year:        *in.Year,
			Description: in.Description,
		}
		if err := s.applyRelations(tx, &t, in); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&t).Error; err != nil {
			return err
		}
		if err := s.replaceGenres(tx, t.Id, in); err != nil {
			return err
		}
		var err error
		created, err = s.load(tx, t.Id)
		return err
	})
	if err != nil {
		return TitleDTO{}, err
	}
	return toTitleDTO(created), nil
}

func (s *TitleService) Update(ctx context.Context, actor *model.User, id int, in TitleInput) (TitleDTO, error) {
	if err := permission.AdminOrReadOnly.Check(permission.Request{Actor: actor, Method: http.MethodPatch}); err != nil {
		return TitleDTO{}, err
	}
	if err := s.validate(in, false); err != nil {
		return TitleDTO{}, err
	}

	var updated *model.Title
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := s.load(tx, id)
		if err != nil {
			return err
		}
		if err := s.applyRelations(tx, t, in); err != nil {
			return err
		}
		changes := map[string]any{"category_id": t.CategoryId}
		if in.Name != nil {
			changes["name"] = strings.TrimSpace(*in.Name)
		}
		if in.Year != nil {
			changes["year"] = *in.Year
		}
		if in.Description != nil {
			changes["description"] = *in.Description
		}
		if err := tx.Model(&model.Title{}).Where("id = ?", id).Updates(changes).Error; err != nil {
			return err
		}
		if err := s.replaceGenres(tx, id, in); err != nil {
			return err
		}
		updated, err = s.load(tx, id)
		return err
	})
	if err != nil {
		return TitleDTO{}, err
	}
	return toTitleDTO(updated), nil
}

// applyRelations resolves the category slug in in onto t. Genre slugs are
// checked here too so that a bad request writes nothing.
func (s *TitleService) applyRelations(tx *gorm.DB, t *model.Title, in TitleInput) error {
	verr := &entity.ValidationError{}
	if in.Category != nil {
		t.CategoryId = nil
		if slug := strings.TrimSpace(*in.Category); slug != "" {
			ids, err := s.categories.resolve(tx, "category", []string{slug})
			if err := collect(verr, err); err != nil {
				return err
			}
			if len(ids) == 1 {
				t.CategoryId = &ids[0]
			}
		}
	}
	if in.Genre != nil {
		_, err := s.genres.resolve(tx, "genre", *in.Genre)
		if err := collect(verr, err); err != nil {
			return err
		}
	}
	return verr.Err()
}

func (s *TitleService) replaceGenres(tx *gorm.DB, titleID int, in TitleInput) error {
	if in.Genre == nil {
		return nil
	}
	ids, err := s.genres.resolve(tx, "genre", *in.Genre)
	if err != nil {
		return err
	}
	if err := tx.Where("title_id = ?", titleID).Delete(&model.GenreTitle{}).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	links := make([]model.GenreTitle, 0, len(ids))
	for _, gid := range ids {
		links = append(links, model.GenreTitle{TitleId: titleID, GenreId: gid})
	}
	return tx.Create(&links).Error
}

// Delete removes the title with its reviews, their comments and its genre links.
func (s *TitleService) Delete(ctx context.Context, actor *model.User, id int) error {
	if err := permission.AdminOrReadOnly.Check(permission.Request{Actor: actor, Method: http.MethodDelete}); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireTitle(tx, id); err != nil {
			return err
		}
		reviews := tx.Model(&model.Review{}).Select("id").Where("title_id = ?", id)
		if err := tx.Where("review_id IN (?)", reviews).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("title_id = ?", id).Delete(&model.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("title_id = ?", id).Delete(&model.GenreTitle{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Title{}).Error
	})
}

func requireTitle(tx *gorm.DB, id int) error {
	var n int64
	if err := tx.Model(&model.Title{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("title %d: %w", id, entity.ErrNotFound)
	}
	return nil
}

// collect merges a validation error into verr and passes any other error through.
func collect(verr *entity.ValidationError, err error) error {
	if err == nil {
		return nil
	}
	var v *entity.ValidationError
	if errors.As(err, &v) {
		for field, msgs := range v.Fields {
			for _, m := range msgs {
				verr.Add(field, m)
			}
		}
		return nil
	}
	return err
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

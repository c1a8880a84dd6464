package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/yamdb/api-yamdb/database"
	"github.com/yamdb/api-yamdb/database/model"
	"github.com/yamdb/api-yamdb/web/entity"
	"github.com/yamdb/api-yamdb/web/permission"
	"github.com/yamdb/api-yamdb/web/validator"
	"gorm.io/gorm"
)

// SlugDTO is the public shape of categories and genres.
type SlugDTO struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type SlugInput struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (in SlugInput) validate() error {
	verr := &entity.ValidationError{}
	if msg := validator.CheckLength(in.Name, validator.MaxNameLength); msg != "" {
		verr.Add("name", msg)
	}
	if msg := validator.CheckLength(in.Slug, validator.MaxSlugLength); msg != "" {
		verr.Add("slug", msg)
	} else if err := validator.ValidateSlug(in.Slug); err != nil {
		verr.Add("slug", err.Error())
	}
	return verr.Err()
}

// taxonomy is the list/create/delete logic shared by categories and genres.
type taxonomy[T model.Category | model.Genre] struct {
	db   *gorm.DB
	noun string
	// unlink detaches titles from the row before it is deleted.
	unlink func(tx *gorm.DB, id int) error
}

func (t *taxonomy[T]) list(ctx context.Context, search string, q PageQuery) ([]SlugDTO, int64, error) {
	base := t.db.WithContext(ctx).Model(new(T))
	if search = strings.TrimSpace(search); search != "" {
		base = base.Where(containsClause("name"), containsPattern(search))
	}
	var out []SlugDTO
	total, err := paginate(base, q, &out, func(tx *gorm.DB) *gorm.DB {
		return tx.Select("name", "slug").Order("name, id")
	})
	return out, total, err
}

func (t *taxonomy[T]) create(ctx context.Context, actor *model.User, in SlugInput) (SlugDTO, error) {
	if err := permission.AdminOrReadOnly.Check(permission.Request{Actor: actor, Method: http.MethodPost}); err != nil {
		return SlugDTO{}, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.TrimSpace(in.Slug)
	if err := in.validate(); err != nil {
		return SlugDTO{}, err
	}

	db := t.db.WithContext(ctx)
	var n int64
	if err := db.Model(new(T)).Where("slug = ?", in.Slug).Count(&n).Error; err != nil {
		return SlugDTO{}, err
	}
	if n > 0 {
		return SlugDTO{}, t.slugTaken()
	}
	err := db.Model(new(T)).Create(map[string]any{"name": in.Name, "slug": in.Slug}).Error
	if database.IsDuplicate(err) {
		return SlugDTO{}, t.slugTaken()
	}
	if err != nil {
		return SlugDTO{}, err
	}
	return SlugDTO{Name: in.Name, Slug: in.Slug}, nil
}

func (t *taxonomy[T]) slugTaken() error {
	return entity.NewValidationError("slug", t.noun+" with this slug already exists")
}

func (t *taxonomy[T]) delete(ctx context.Context, actor *model.User, slug string) error {
	if err := permission.AdminOrReadOnly.Check(permission.Request{Actor: actor, Method: http.MethodDelete}); err != nil {
		return err
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row struct{ Id int }
		err := tx.Model(new(T)).Select("id").Where("slug = ?", slug).Take(&row).Error
		if database.IsNotFound(err) {
			return fmt.Errorf("%s %q: %w", t.noun, slug, entity.ErrNotFound)
		}
		if err != nil {
			return err
		}
		if err := t.unlink(tx, row.Id); err != nil {
			return err
		}
		return tx.Where("id = ?", row.Id).Delete(new(T)).Error
	})
}

// resolve maps slugs to ids, reporting unknown slugs against field.
func (t *taxonomy[T]) resolve(tx *gorm.DB, field string, slugs []string) ([]int, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	var rows []struct {
		Id   int
		Slug string
	}
	if err := tx.Model(new(T)).Select("id", "slug").Where("slug IN ?", slugs).Find(&rows).Error; err != nil {
		return nil, err
	}
	ids := make(map[string]int, len(rows))
	for _, r := range rows {
		ids[r.Slug] = r.Id
	}
	out := make([]int, 0, len(slugs))
	seen := make(map[int]bool, len(slugs))
	verr := &entity.ValidationError{}
	for _, s := range slugs {
		id, ok := ids[s]
		if !ok {
			verr.Add(field, fmt.Sprintf("object with slug=%s does not exist", s))
			continue
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, verr.Err()
}

type CategoryService struct {
	taxonomy[model.Category]
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{taxonomy[model.Category]{
		db:   db,
		noun: "category",
		unlink: func(tx *gorm.DB, id int) error {
			return tx.Model(&model.Title{}).Where("category_id = ?", id).Update("category_id", nil).Error
		},
	}}
}

func (s *CategoryService) List(ctx context.Context, search string, q PageQuery) ([]SlugDTO, int64, error) {
	return s.list(ctx, search, q)
}

func (s *CategoryService) Create(ctx context.Context, actor *model.User, in SlugInput) (SlugDTO, error) {
	return s.create(ctx, actor, in)
}

// Delete removes the category; its titles become uncategorised.
func (s *CategoryService) Delete(ctx context.Context, actor *model.User, slug string) error {
	return s.delete(ctx, actor, slug)
}

type GenreService struct {
	taxonomy[model.Genre]
}

func NewGenreService(db *gorm.DB) *GenreService {
	return &GenreService{taxonomy[model.Genre]{
		db:   db,
		noun: "genre",
		unlink: func(tx *gorm.DB, id int) error {
			return tx.Where("genre_id = ?", id).Delete(&model.GenreTitle{}).Error
		},
	}}
}

func (s *GenreService) List(ctx context.Context, search string, q PageQuery) ([]SlugDTO, int64, error) {
	return s.list(ctx, search, q)
}

func (s *GenreService) Create(ctx context.Context, actor *model.User, in SlugInput) (SlugDTO, error) {
	return s.create(ctx, actor, in)
}

// Delete removes the genre and its title links; the titles stay.
func (s *GenreService) Delete(ctx context.Context, actor *model.User, slug string) error {
	return s.delete(ctx, actor, slug)
}

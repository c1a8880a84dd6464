package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yamdb/api-yamdb/database"
	"github.com/yamdb/api-yamdb/database/model"
	"github.com/yamdb/api-yamdb/logger"
	"github.com/yamdb/api-yamdb/web/entity"
	"github.com/yamdb/api-yamdb/web/validator"
	"gorm.io/gorm"
)

type UserDTO struct {
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Bio       string     `json:"bio"`
	Role      model.Role `json:"role"`
}

func ToUserDTO(u *model.User) UserDTO {
	return UserDTO{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		Role:      u.Role,
	}
}

// UserInput is the write shape; nil fields are left unchanged on update.
type UserInput struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Bio       *string `json:"bio"`
	Role      *string `json:"role"`
}

// UserService manages accounts. Callers gate it with permission.AdminOnly,
// except for the *Me methods and the CLI helpers.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func validateUserInput(in UserInput, create bool) error {
	verr := &entity.ValidationError{}
	if in.Username != nil || create {
		username := deref(in.Username)
		if msg := validator.CheckLength(username, validator.MaxUsernameLength); msg != "" {
			verr.Add("username", msg)
		} else if err := validator.ValidateUsername(username); err != nil {
			return err
		}
	}
	if in.Email != nil || create {
		if err := validator.ValidateEmail(deref(in.Email)); err != nil {
			verr.Add("email", err.Error())
		}
	}
	for field, v := range map[string]*string{"first_name": in.FirstName, "last_name": in.LastName} {
		if v != nil && len([]rune(*v)) > validator.MaxUsernameLength {
			verr.Add(field, fmt.Sprintf("ensure this field has no more than %d characters", validator.MaxUsernameLength))
		}
	}
	if in.Role != nil {
		if _, ok := model.ParseRole(*in.Role); !ok {
			verr.Add("role", fmt.Sprintf("%q is not a valid choice", *in.Role))
		}
	}
	return verr.Err()
}

func (in UserInput) apply(u *model.User) {
	if in.Username != nil {
		u.Username = *in.Username
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if in.Bio != nil {
		u.Bio = *in.Bio
	}
	if in.Role != nil {
		u.Role, _ = model.ParseRole(*in.Role)
	}
}

// checkUnique reports which of u's unique fields are taken by other users.
func checkUnique(db *gorm.DB, u *model.User) error {
	verr := &entity.ValidationError{}
	var others []model.User
	err := db.Select("id", "username", "email").
		Where("(username = ? OR email = ?) AND id <> ?", u.Username, u.Email, u.Id).
		Find(&others).Error
	if err != nil {
		return err
	}
	for _, o := range others {
		if o.Username == u.Username {
			verr.Add("username", "a user with that username already exists")
		}
		if o.Email == u.Email {
			verr.Add("email", "a user with that email already exists")
		}
	}
	return verr.Err()
}

func (s *UserService) List(ctx context.Context, search string, q PageQuery) ([]UserDTO, int64, error) {
	base := s.db.WithContext(ctx).Model(&model.User{})
	if search = strings.TrimSpace(search); search != "" {
		base = base.Where(containsClause("username"), containsPattern(search))
	}
	var users []model.User
	total, err := paginate(base, q, &users, func(tx *gorm.DB) *gorm.DB {
		return tx.Order("username")
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]UserDTO, 0, len(users))
	for i := range users {
		out = append(out, ToUserDTO(&users[i]))
	}
	return out, total, nil
}

func (s *UserService) Create(ctx context.Context, in UserInput) (UserDTO, error) {
	if err := validateUserInput(in, true); err != nil {
		return UserDTO{}, err
	}
	u := &model.User{Role: model.RoleUser}
	in.apply(u)
	if err := s.save(ctx, u, true); err != nil {
		return UserDTO{}, err
	}
	return ToUserDTO(u), nil
}

func (s *UserService) save(ctx context.Context, u *model.User, create bool) error {
	db := s.db.WithContext(ctx)
	if err := checkUnique(db, u); err != nil {
		return err
	}
	var err error
	if create {
		err = db.Create(u).Error
	} else {
		err = db.Save(u).Error
	}
	if database.IsDuplicate(err) {
		return entity.NewValidationError("username", "a user with that username or email already exists")
	}
	return err
}

// GetByUsername loads a user. The reserved name "me" never resolves.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if username == "me" {
		return nil, fmt.Errorf("user %q: %w", username, entity.ErrNotFound)
	}
	var u model.User
	err := s.db.WithContext(ctx).Where("username = ?", username).Take(&u).Error
	if database.IsNotFound(err) {
		return nil, fmt.Errorf("user %q: %w", username, entity.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserService) GetByID(ctx context.Context, id int) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&u).Error
	if database.IsNotFound(err) {
		return nil, fmt.Errorf("user %d: %w", id, entity.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserService) Get(ctx context.Context, username string) (UserDTO, error) {
	u, err := s.GetByUsername(ctx, username)
	if err != nil {
		return UserDTO{}, err
	}
	return ToUserDTO(u), nil
}

func (s *UserService) Update(ctx context.Context, username string, in UserInput) (UserDTO, error) {
	u, err := s.GetByUsername(ctx, username)
	if err != nil {
		return UserDTO{}, err
	}
	if err := validateUserInput(in, false); err != nil {
		return UserDTO{}, err
	}
	in.apply(u)
	if err := s.save(ctx, u, false); err != nil {
		return UserDTO{}, err
	}
	return ToUserDTO(u), nil
}

// Delete removes the user with their reviews and comments, including
// other users' comments on those reviews.
func (s *UserService) Delete(ctx context.Context, username string) error {
	u, err := s.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reviews := tx.Model(&model.Review{}).Select("id").Where("author_id = ?", u.Id)
		if err := tx.Where("author_id = ? OR review_id IN (?)", u.Id, reviews).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", u.Id).Delete(&model.Review{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", u.Id).Delete(&model.User{}).Error
	})
}

// UpdateMe applies a self-service edit. Role changes are ignored unless
// the actor has admin capability.
func (s *UserService) UpdateMe(ctx context.Context, actor *model.User, in UserInput) (UserDTO, error) {
	if actor == nil {
		return UserDTO{}, entity.ErrNotAuthenticated
	}
	if !actor.IsAdmin() {
		in.Role = nil
	}
	u, err := s.GetByID(ctx, actor.Id)
	if err != nil {
		return UserDTO{}, err
	}
	if err := validateUserInput(in, false); err != nil {
		return UserDTO{}, err
	}
	in.apply(u)
	if err := s.save(ctx, u, false); err != nil {
		return UserDTO{}, err
	}
	return ToUserDTO(u), nil
}

// SetRole changes a user's role.
func (s *UserService) SetRole(ctx context.Context, username, role string) (UserDTO, error) {
	return s.Update(ctx, username, UserInput{Role: &role})
}

// CreateSuperuser creates an admin account, or promotes the account that
// already owns exactly this pair.
func (s *UserService) CreateSuperuser(ctx context.Context, username, email string) (UserDTO, error) {
	if err := validateUserInput(UserInput{Username: &username, Email: &email}, true); err != nil {
		return UserDTO{}, err
	}
	db := s.db.WithContext(ctx)
	u, err := matchIdentity(db, username, email)
	switch {
	case errors.Is(err, entity.ErrNotFound):
		u = &model.User{Username: username, Email: email}
	case err != nil:
		return UserDTO{}, err
	}
	u.Role = model.RoleAdmin
	u.IsStaff = true
	u.IsSuperuser = true
	if err := s.save(ctx, u, u.Id == 0); err != nil {
		return UserDTO{}, err
	}
	logger.Infof("superuser %s ready", username)
	return ToUserDTO(u), nil
}

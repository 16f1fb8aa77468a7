package dto

import (
	"strings"

	"github.com/hugh/go-companies/internal/api/validation"
	"github.com/hugh/go-companies/internal/database/models"
)

const (
	firstNameMax = 30
	lastNameMax  = 50
)

type CreateUserRequest struct {
	Email           string  `json:"email"`
	Password        string  `json:"password"`
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	UserType        string  `json:"user_type"`
	CompanyID       *uint   `json:"company_id"`
	Avatar          *string `json:"avatar"`
	TelephoneNumber string  `json:"telephone_number"`
}

// Role returns the requested role, defaulting to client.
func (r CreateUserRequest) Role() models.Role {
	if r.UserType == "" {
		return models.RoleClient
	}
	return models.Role(r.UserType)
}

func (r CreateUserRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Email == "" {
		errors["email"] = msgRequired
	} else if !validation.IsValidEmail(r.Email) {
		errors["email"] = "Enter a valid email address."
	}
	if r.Password == "" {
		errors["password"] = msgRequired
	} else if ok, msg := validation.CheckPasswordLength(r.Password); !ok {
		errors["password"] = msg
	}
	if validation.TooLong(r.FirstName, firstNameMax) {
		errors["first_name"] = maxLength(firstNameMax)
	}
	if validation.TooLong(r.LastName, lastNameMax) {
		errors["last_name"] = maxLength(lastNameMax)
	}
	if !r.Role().Valid() {
		errors["user_type"] = `"` + r.UserType + `" is not a valid choice.`
	}
	if r.TelephoneNumber != "" && !validation.IsValidPhone(r.TelephoneNumber) {
		errors["telephone_number"] = "Enter a valid phone number."
	}

	return errors
}

// Model converts a validated request into a user. The password hash is set by the caller.
func (r CreateUserRequest) Model() *models.User {
	role := r.Role()
	return &models.User{
		Email:           strings.TrimSpace(r.Email),
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		UserType:        role,
		CompanyID:       r.CompanyID,
		Avatar:          r.Avatar,
		TelephoneNumber: validation.NormalizePhone(r.TelephoneNumber),
		IsActive:        true,
		IsSuperAdmin:    role == models.RoleSuperAdmin,
	}
}

// UpdateUserRequest carries the profile fields a user may change.
type UpdateUserRequest struct {
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	Avatar          *string `json:"avatar"`
	TelephoneNumber *string `json:"telephone_number"`
}

func (r UpdateUserRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.FirstName != nil && validation.TooLong(*r.FirstName, firstNameMax) {
		errors["first_name"] = maxLength(firstNameMax)
	}
	if r.LastName != nil && validation.TooLong(*r.LastName, lastNameMax) {
		errors["last_name"] = maxLength(lastNameMax)
	}
	if r.TelephoneNumber != nil && *r.TelephoneNumber != "" && !validation.IsValidPhone(*r.TelephoneNumber) {
		errors["telephone_number"] = "Enter a valid phone number."
	}

	return errors
}

func (r UpdateUserRequest) Apply(user *models.User) {
	if r.FirstName != nil {
		user.FirstName = *r.FirstName
	}
	if r.LastName != nil {
		user.LastName = *r.LastName
	}
	if r.Avatar != nil {
		user.Avatar = r.Avatar
	}
	if r.TelephoneNumber != nil {
		user.TelephoneNumber = validation.NormalizePhone(*r.TelephoneNumber)
	}
}

type UserResponse struct {
	ID              uint        `json:"id"`
	Email           string      `json:"email"`
	FirstName       string      `json:"first_name"`
	LastName        string      `json:"last_name"`
	UserType        models.Role `json:"user_type"`
	CompanyID       *uint       `json:"company_id"`
	Avatar          *string     `json:"avatar"`
	TelephoneNumber string      `json:"telephone_number"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		UserType:        u.UserType,
		CompanyID:       u.CompanyID,
		Avatar:          u.Avatar,
		TelephoneNumber: u.TelephoneNumber,
	}
}

// UserListItem is a user enriched with a snapshot of its company. Company is
// null for users without one.
type UserListItem struct {
	ID              uint            `json:"id"`
	FirstName       string          `json:"first_name"`
	LastName        string          `json:"last_name"`
	Email           string          `json:"email"`
	UserType        models.Role     `json:"user_type"`
	TelephoneNumber string          `json:"telephone_number"`
	Avatar          *string         `json:"avatar"`
	Company         *CompanySummary `json:"company"`
}

// BuildUserList expects users with their Company preloaded.
func BuildUserList(users []models.User) []UserListItem {
	out := make([]UserListItem, 0, len(users))
	for _, u := range users {
		out = append(out, UserListItem{
			ID:              u.ID,
			FirstName:       u.FirstName,
			LastName:        u.LastName,
			Email:           u.Email,
			UserType:        u.UserType,
			TelephoneNumber: u.TelephoneNumber,
			Avatar:          u.Avatar,
			Company:         NewCompanySummary(u.Company),
		})
	}
	return out
}

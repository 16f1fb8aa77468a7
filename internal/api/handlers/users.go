package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hugh/go-companies/internal/access"
	"github.com/hugh/go-companies/internal/api/dto"
	"github.com/hugh/go-companies/internal/api/middleware"
	"github.com/hugh/go-companies/internal/auth"
	"github.com/hugh/go-companies/internal/events"
	"github.com/hugh/go-companies/internal/store"
)

const msgEmailTaken = "user with this email already exists."

type UserHandler struct {
	users     store.UserStore
	companies store.CompanyStore
	events    events.Publisher
	logger    *slog.Logger
}

func NewUserHandler(users store.UserStore, companies store.CompanyStore, publisher events.Publisher, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:     users,
		companies: companies,
		events:    publisher,
		logger:    logger,
	}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeInternal(w, r, h.logger, "failed to list users", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BuildUserList(users))
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	raw, id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, userNotFound(raw))
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, userNotFound(raw))
			return
		}
		writeInternal(w, r, h.logger, "failed to get user", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewUserResponse(user))
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	raw, id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, userNotFound(raw))
		return
	}

	h.updateProfile(w, r, id, raw)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	raw, id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, userNotFound(raw))
		return
	}

	soft, _ := strconv.ParseBool(r.URL.Query().Get("soft_delete"))

	var err error
	eventType := events.UserDeleted
	if soft {
		eventType = events.UserSoftDeleted
		err = h.users.SoftDelete(r.Context(), id)
	} else {
		err = h.users.Delete(r.Context(), id)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, userNotFound(raw))
			return
		}
		writeInternal(w, r, h.logger, "failed to delete user", err)
		return
	}

	publish(r.Context(), h.events, eventType, id, nil)
	writeMessage(w, http.StatusOK, fmt.Sprintf("Successfully delete user with id=%d", id))
}

// Create registers a new user. Admins may only create clients; super admins
// may create any role.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	role := req.Role()
	if role.Valid() && !access.CanCreateUserWithRole(middleware.GetUserRole(r.Context()), role) {
		writeMessage(w, http.StatusBadRequest, "You are can't create user with user_type="+string(role))
		return
	}

	errs := req.Validate()
	if req.CompanyID != nil {
		exists, err := h.companies.Exists(r.Context(), *req.CompanyID)
		if err != nil {
			writeInternal(w, r, h.logger, "failed to check company", err)
			return
		}
		if !exists {
			errs["company_id"] = fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", *req.CompanyID)
		}
	}
	if _, bad := errs["email"]; !bad {
		taken, err := h.users.EmailTaken(r.Context(), req.Email)
		if err != nil {
			writeInternal(w, r, h.logger, "failed to check email", err)
			return
		}
		if taken {
			errs["email"] = msgEmailTaken
		}
	}
	if len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeInternal(w, r, h.logger, "failed to hash password", err)
		return
	}

	user := req.Model()
	user.PasswordHash = hash
	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeValidation(w, map[string]string{"email": msgEmailTaken})
			return
		}
		writeInternal(w, r, h.logger, "failed to create user", err)
		return
	}

	publish(r.Context(), h.events, events.UserCreated, user.ID, map[string]interface{}{
		"email":     user.Email,
		"user_type": user.UserType,
	})
	writeJSON(w, http.StatusCreated, dto.NewUserResponse(user))
}

// Account returns the caller's own profile.
func (h *UserHandler) Account(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetUserID(r.Context())

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, userNotFound(strconv.FormatUint(uint64(id), 10)))
			return
		}
		writeInternal(w, r, h.logger, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewUserResponse(user))
}

func (h *UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetUserID(r.Context())
	h.updateProfile(w, r, id, strconv.FormatUint(uint64(id), 10))
}

func (h *UserHandler) updateProfile(w http.ResponseWriter, r *http.Request, id uint, raw string) {
	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, userNotFound(raw))
			return
		}
		writeInternal(w, r, h.logger, "failed to get user", err)
		return
	}

	var req dto.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	req.Apply(user)
	if err := h.users.Update(r.Context(), user); err != nil {
		writeInternal(w, r, h.logger, "failed to update user", err)
		return
	}

	publish(r.Context(), h.events, events.UserUpdated, user.ID, nil)
	writeMessage(w, http.StatusOK, fmt.Sprintf("Successfully update user with id=%d", user.ID))
}

func userNotFound(raw string) string {
	return "User with id=" + raw + " does not exist"
}

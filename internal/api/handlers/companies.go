package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hugh/go-companies/internal/api/dto"
	"github.com/hugh/go-companies/internal/api/middleware"
	"github.com/hugh/go-companies/internal/events"
	"github.com/hugh/go-companies/internal/store"
)

const (
	viewPartial = "partial"
	viewFull    = "full"
)

type CompanyHandler struct {
	companies store.CompanyStore
	users     store.UserStore
	posts     store.PostStore
	events    events.Publisher
	logger    *slog.Logger
}

func NewCompanyHandler(companies store.CompanyStore, users store.UserStore, posts store.PostStore, publisher events.Publisher, logger *slog.Logger) *CompanyHandler {
	return &CompanyHandler{
		companies: companies,
		users:     users,
		posts:     posts,
		events:    publisher,
		logger:    logger,
	}
}

// List renders every company, either bare (partial) or with employees and
// their posts (full).
func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	view := chi.URLParam(r, "view")
	if view != viewPartial && view != viewFull {
		writeError(w, http.StatusBadRequest, "View option must be partial or full not "+view)
		return
	}

	companies, err := h.companies.List(r.Context())
	if err != nil {
		writeInternal(w, r, h.logger, "failed to list companies", err)
		return
	}

	if view == viewPartial {
		writeJSON(w, http.StatusOK, dto.NewCompanyList(companies))
		return
	}

	companyIDs := make([]uint, 0, len(companies))
	for _, c := range companies {
		companyIDs = append(companyIDs, c.ID)
	}
	users, err := h.users.ListByCompanies(r.Context(), companyIDs)
	if err != nil {
		writeInternal(w, r, h.logger, "failed to list employees", err)
		return
	}

	userIDs := make([]uint, 0, len(users))
	for _, u := range users {
		userIDs = append(userIDs, u.ID)
	}
	posts, err := h.posts.ListByUsers(r.Context(), userIDs)
	if err != nil {
		writeInternal(w, r, h.logger, "failed to list employee posts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BuildCompanyFullView(companies, users, posts))
}

func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	raw, id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, companyNotFound(raw))
		return
	}

	company, err := h.companies.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, companyNotFound(raw))
			return
		}
		writeInternal(w, r, h.logger, "failed to get company", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewCompanyResponse(company))
}

func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	raw, id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, companyNotFound(raw))
		return
	}

	company, err := h.companies.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, companyNotFound(raw))
			return
		}
		writeInternal(w, r, h.logger, "failed to get company", err)
		return
	}

	var req dto.UpdateCompanyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	req.Apply(company)
	if err := h.companies.Update(r.Context(), company); err != nil {
		writeInternal(w, r, h.logger, "failed to update company", err)
		return
	}

	publish(r.Context(), h.events, events.CompanyUpdated, company.ID, map[string]interface{}{"name": company.Name})
	writeMessage(w, http.StatusOK, fmt.Sprintf("Successfully update company with id=%d", company.ID))
}

func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCompanyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	company := req.Model()
	if err := h.companies.Create(r.Context(), company); err != nil {
		writeInternal(w, r, h.logger, "failed to create company", err)
		return
	}

	publish(r.Context(), h.events, events.CompanyCreated, company.ID, map[string]interface{}{"name": company.Name})
	writeJSON(w, http.StatusCreated, dto.NewCompanyResponse(company))
}

// MyCompany returns the company the caller works for. The caller's company
// is the one stored on its account when the request was authenticated.
func (h *CompanyHandler) MyCompany(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFrom(r.Context())
	if caller.CompanyID == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("User with id=%d has no company", caller.ID))
		return
	}

	company, err := h.companies.Get(r.Context(), *caller.CompanyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("User with id=%d has no company", caller.ID))
			return
		}
		writeInternal(w, r, h.logger, "failed to get caller company", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewCompanyResponse(company))
}

func companyNotFound(raw string) string {
	return "Company with id=" + raw + " does not exist"
}

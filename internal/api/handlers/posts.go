package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hugh/go-companies/internal/access"
	"github.com/hugh/go-companies/internal/api/dto"
	"github.com/hugh/go-companies/internal/api/middleware"
	"github.com/hugh/go-companies/internal/api/validation"
	"github.com/hugh/go-companies/internal/database/models"
	"github.com/hugh/go-companies/internal/events"
	"github.com/hugh/go-companies/internal/store"
)

const msgTitleTaken = "post with this title already exists."

type PostHandler struct {
	posts  store.PostStore
	users  store.UserStore
	events events.Publisher
	logger *slog.Logger
}

func NewPostHandler(posts store.PostStore, users store.UserStore, publisher events.Publisher, logger *slog.Logger) *PostHandler {
	return &PostHandler{
		posts:  posts,
		users:  users,
		events: publisher,
		logger: logger,
	}
}

// List returns every post matching the optional title, text, topic and
// company query filters.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := store.PostFilter{
		Title:   query.Get("title"),
		Text:    query.Get("text"),
		Topic:   query.Get("topic"),
		Company: query.Get("company"),
	}

	posts, err := h.posts.List(r.Context(), filter)
	if err != nil {
		writeInternal(w, r, h.logger, "failed to list posts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BuildPostListItems(posts))
}

// CompanyPosts returns the posts written by the caller's colleagues.
func (h *PostHandler) CompanyPosts(w http.ResponseWriter, r *http.Request) {
	companyID := middleware.GetUserCompanyID(r.Context())
	if companyID == nil {
		writeJSON(w, http.StatusOK, []dto.PostResponse{})
		return
	}

	posts, err := h.posts.ListByCompany(r.Context(), *companyID)
	if err != nil {
		writeInternal(w, r, h.logger, "failed to list company posts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewPostList(posts))
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, ok := h.loadPost(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, dto.NewPostResponse(post))
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	post, ok := h.loadPost(w, r)
	if !ok {
		return
	}

	var req dto.UpdatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	errs := req.Validate()
	if _, bad := errs["title"]; !bad && req.Title != nil {
		taken, err := h.posts.TitleTaken(r.Context(), *req.Title, post.ID)
		if err != nil {
			writeInternal(w, r, h.logger, "failed to check title", err)
			return
		}
		if taken {
			errs["title"] = msgTitleTaken
		}
	}
	if len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	req.Apply(post)
	if err := h.posts.Update(r.Context(), post); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeValidation(w, map[string]string{"title": msgTitleTaken})
			return
		}
		writeInternal(w, r, h.logger, "failed to update post", err)
		return
	}

	publish(r.Context(), h.events, events.PostUpdated, post.ID, map[string]interface{}{"title": post.Title})
	writeMessage(w, http.StatusOK, fmt.Sprintf("Successfully update post with id=%d", post.ID))
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	raw, id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, postNotFound(raw))
		return
	}

	if err := h.posts.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, postNotFound(raw))
			return
		}
		writeInternal(w, r, h.logger, "failed to delete post", err)
		return
	}

	publish(r.Context(), h.events, events.PostDeleted, id, nil)
	writeMessage(w, http.StatusOK, fmt.Sprintf("Successfully delete post with id=%d", id))
}

// Create adds a post. user_id defaults to the caller; clients may only post
// as themselves.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	caller := middleware.CallerFrom(r.Context())
	ownerID, ok := req.OwnerID(caller.ID)
	if ok && !access.CanCreatePostFor(caller, ownerID) {
		writeMessage(w, http.StatusBadRequest, "You're can't create post for another user")
		return
	}

	errs := req.Validate()
	if ok {
		_, err := h.users.Get(r.Context(), ownerID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			errs["user_id"] = fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", ownerID)
		case err != nil:
			writeInternal(w, r, h.logger, "failed to check post owner", err)
			return
		}
	}
	if _, bad := errs["title"]; !bad {
		taken, err := h.posts.TitleTaken(r.Context(), req.Title, 0)
		if err != nil {
			writeInternal(w, r, h.logger, "failed to check title", err)
			return
		}
		if taken {
			errs["title"] = msgTitleTaken
		}
	}
	if len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	post := req.Model(ownerID)
	if err := h.posts.Create(r.Context(), post); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeValidation(w, map[string]string{"title": msgTitleTaken})
			return
		}
		writeInternal(w, r, h.logger, "failed to create post", err)
		return
	}

	publish(r.Context(), h.events, events.PostCreated, post.ID, map[string]interface{}{
		"title":   post.Title,
		"user_id": post.UserID,
	})
	writeJSON(w, http.StatusCreated, dto.NewPostResponse(post))
}

// BulkUpdate validates every entry before writing any of them. The title
// check runs against all stored posts, the addressed post included.
func (h *PostHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req dto.BulkUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	updated := make([]models.Post, 0, len(req.PostsToUpdate))
	seenTitles := make(map[string]struct{}, len(req.PostsToUpdate))

	for _, entry := range req.PostsToUpdate {
		id, ok := validation.ParseID(entry.ID)
		if !ok {
			writeError(w, http.StatusBadRequest, "Field id must be integer")
			return
		}

		post, err := h.posts.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, fmt.Sprintf("Post with id=%d does not exist", id))
				return
			}
			writeInternal(w, r, h.logger, "failed to get post", err)
			return
		}

		if errs := entry.Validate(); len(errs) > 0 {
			writeValidation(w, errs)
			return
		}

		if title := entry.NewTitle(); title != "" {
			if _, dup := seenTitles[title]; dup {
				writeError(w, http.StatusBadRequest, "Post with title="+title+" already exist")
				return
			}
			taken, err := h.posts.TitleTaken(r.Context(), title, 0)
			if err != nil {
				writeInternal(w, r, h.logger, "failed to check title", err)
				return
			}
			if taken {
				writeError(w, http.StatusBadRequest, "Post with title="+title+" already exist")
				return
			}
			seenTitles[title] = struct{}{}
		}

		entry.Apply(post)
		updated = append(updated, *post)
	}

	if err := h.posts.BulkUpdate(r.Context(), updated); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "Post title already exist")
			return
		}
		writeInternal(w, r, h.logger, "failed to bulk update posts", err)
		return
	}

	for _, post := range updated {
		publish(r.Context(), h.events, events.PostsBulkUpdated, post.ID, map[string]interface{}{"title": post.Title})
	}
	writeMessage(w, http.StatusOK, "Successfully update posts")
}

// loadPost resolves the {id} path parameter, writing the 404 itself.
func (h *PostHandler) loadPost(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	raw, id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusNotFound, postNotFound(raw))
		return nil, false
	}

	post, err := h.posts.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, postNotFound(raw))
			return nil, false
		}
		writeInternal(w, r, h.logger, "failed to get post", err)
		return nil, false
	}
	return post, true
}

func postNotFound(raw string) string {
	return "Post with id=" + raw + " does not exist"
}

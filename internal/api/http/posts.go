package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/umbrella-forecast/backend/internal/posts"
)

type createPostRequest struct {
	Content  string `json:"content" validate:"required"`
	ImageURL string `json:"imageUrl"`
}

type editPostRequest struct {
	Content string `json:"content" validate:"required"`
}

func (h *Handlers) listPosts(c *fiber.Ctx) error {
	city := c.Params("city")

	postList, err := h.Posts.LoadCity(c.Context(), city)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load posts")
	}

	return c.JSON(fiber.Map{"posts": postList})
}

func (h *Handlers) createPost(c *fiber.Ctx) error {
	city := c.Params("city")
	userID := currentUserID(c)

	var req createPostRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "content is required")
	}

	profile, err := h.Users.Profile(c.Context(), userID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load profile")
	}

	post := posts.Post{
		ID:        uuid.NewString(),
		Content:   req.Content,
		ImageURL:  req.ImageURL,
		Timestamp: h.Posts.Timestamp(),
		Username:  profile.Username,
		UserID:    userID,
	}

	postList, err := h.Posts.Append(c.Context(), city, post)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to save post")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"post":  post,
		"posts": postList,
	})
}

func (h *Handlers) editPost(c *fiber.Ctx) error {
	city := c.Params("city")
	postID := c.Params("id")
	userID := currentUserID(c)

	var req editPostRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	existing, err := h.Posts.Get(c.Context(), city, postID)
	if err != nil {
		if errors.Is(err, posts.ErrPostNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "post not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load post")
	}
	if existing.UserID != userID {
		return fiber.NewError(fiber.StatusForbidden, "only the author can edit a post")
	}

	updated, err := h.Posts.Edit(c.Context(), city, postID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, posts.ErrEmptyContent):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		case errors.Is(err, posts.ErrPostNotFound):
			return fiber.NewError(fiber.StatusNotFound, "post not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to save post")
	}

	return c.JSON(updated)
}

func (h *Handlers) deletePost(c *fiber.Ctx) error {
	city := c.Params("city")
	postID := c.Params("id")
	userID := currentUserID(c)

	existing, err := h.Posts.Get(c.Context(), city, postID)
	if err != nil {
		if errors.Is(err, posts.ErrPostNotFound) {
			// Deleting an absent post succeeds so retries stay safe.
			return c.SendStatus(fiber.StatusNoContent)
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load post")
	}
	if existing.UserID != userID {
		return fiber.NewError(fiber.StatusForbidden, "only the author can delete a post")
	}

	if err := h.Posts.Delete(c.Context(), city, postID); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to delete post")
	}
	if err := h.Images.Remove(postID); err != nil {
		h.Logger.Warn("removing post images failed", "postId", postID, "error", err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handlers) uploadImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "image file is required")
	}

	postID := c.FormValue("postId")
	if postID == "" {
		postID = uuid.NewString()
	}

	src, err := file.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "cannot read uploaded file")
	}
	defer src.Close()

	url, err := h.Images.Save(postID, file.Filename, src)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to store image")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"postId": postID,
		"url":    url,
	})
}

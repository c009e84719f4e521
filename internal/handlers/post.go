package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecoloop/internal/models"
	"ecoloop/internal/services"
	"ecoloop/internal/store"
	"ecoloop/internal/utils"
)

type PostHandler struct {
	posts        *services.Posts
	interactions *services.Interactions
}

func NewPostHandler(posts *services.Posts, interactions *services.Interactions) *PostHandler {
	return &PostHandler{posts: posts, interactions: interactions}
}

// postRequest decodes the tagged union as sent by clients. The variant
// payloads decode into the model types directly so their own JSON rules
// apply.
type postRequest struct {
	PostType    models.PostType           `json:"postType" binding:"required"`
	Title       string                    `json:"title"`
	Description string                    `json:"description"`
	Location    string                    `json:"location"`
	Waste       *models.WasteDetails      `json:"waste"`
	Initiative  *models.InitiativeDetails `json:"initiative"`
	Forum       *models.ForumDetails      `json:"forum"`
}

type postPatchRequest struct {
	PostType    models.PostType           `json:"postType"`
	Title       *string                   `json:"title"`
	Description *string                   `json:"description"`
	Location    *string                   `json:"location"`
	Waste       *models.WasteDetails      `json:"waste"`
	Initiative  *models.InitiativeDetails `json:"initiative"`
	Forum       *models.ForumDetails      `json:"forum"`
}

type statusRequest struct {
	Status models.PostStatus `json:"status" binding:"required"`
}

type commentRequest struct {
	Body string `json:"body"`
}

type supportRequest struct {
	Message string `json:"message"`
}

type postView struct {
	*models.Post
	DescriptionHTML string `json:"descriptionHtml"`
}

func renderPost(p *models.Post) postView {
	return postView{Post: p, DescriptionHTML: utils.RenderMarkdown(p.Description)}
}

type commentView struct {
	models.Comment
	BodyHTML string `json:"bodyHtml"`
}

func (h *PostHandler) Create(c *gin.Context) {
	var req postRequest
	if !bindJSON(c, &req) {
		return
	}
	post, err := h.posts.Create(c.Request.Context(), actor(c), services.PostDraft{
		PostType:    req.PostType,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Waste:       req.Waste,
		Initiative:  req.Initiative,
		Forum:       req.Forum,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, renderPost(post))
}

// List supports ?postType=&status=&userId=&limit=&offset=.
func (h *PostHandler) List(c *gin.Context) {
	posts, err := h.posts.List(c.Request.Context(), store.PostFilter{
		PostType: models.PostType(c.Query("postType")),
		Status:   models.PostStatus(c.Query("status")),
		UserID:   c.Query("userId"),
		Limit:    pageSize(c),
		Offset:   max(utils.StringToInt(c.Query("offset")), 0),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]postView, len(posts))
	for i := range posts {
		views[i] = renderPost(&posts[i])
	}
	c.JSON(http.StatusOK, gin.H{"posts": views})
}

func (h *PostHandler) Detail(c *gin.Context) {
	post, err := h.posts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, renderPost(post))
}

func (h *PostHandler) Update(c *gin.Context) {
	var req postPatchRequest
	if !bindJSON(c, &req) {
		return
	}
	post, err := h.posts.Update(c.Request.Context(), actor(c), c.Param("id"), services.PostPatch{
		PostType:    req.PostType,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Waste:       req.Waste,
		Initiative:  req.Initiative,
		Forum:       req.Forum,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, renderPost(post))
}

func (h *PostHandler) SetStatus(c *gin.Context) {
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	post, err := h.posts.SetStatus(c.Request.Context(), actor(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, renderPost(post))
}

func (h *PostHandler) Delete(c *gin.Context) {
	if err := h.posts.Delete(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PostHandler) CreateComment(c *gin.Context) {
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}
	comment, err := h.interactions.Comment(c.Request.Context(), actor(c), c.Param("id"), req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, commentView{Comment: *comment, BodyHTML: utils.RenderMarkdown(comment.Body)})
}

func (h *PostHandler) Comments(c *gin.Context) {
	list, err := h.interactions.Comments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]commentView, len(list))
	for i, cm := range list {
		views[i] = commentView{Comment: cm, BodyHTML: utils.RenderMarkdown(cm.Body)}
	}
	c.JSON(http.StatusOK, gin.H{"comments": views})
}

func (h *PostHandler) Support(c *gin.Context) {
	var req supportRequest
	if !bindJSON(c, &req) {
		return
	}
	support, err := h.interactions.Support(c.Request.Context(), actor(c), c.Param("id"), req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, support)
}

func (h *PostHandler) Supports(c *gin.Context) {
	list, err := h.interactions.Supports(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"supports": list})
}

package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"openbands/internal/pkg"
	"openbands/internal/service"
)

type PostHandler struct {
	svc *service.PostService
}

type CreatePostReq struct {
	WalletAddress string `json:"walletAddress"`
	Title         string `json:"title"`
	Content       string `json:"content"`
}

type CreateCommentReq struct {
	WalletAddress string `json:"walletAddress"`
	Content       string `json:"content"`
}

func NewPostHandler(svc *service.PostService) *PostHandler {
	return &PostHandler{svc: svc}
}

func (h *PostHandler) Create(c *gin.Context) {
	communityID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || communityID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid community id"})
		return
	}

	var req CreatePostReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	wallet, ok := pkg.NormalizeAddress(req.WalletAddress)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid wallet address"})
		return
	}

	post, err := h.svc.CreatePost(c.Request.Context(), wallet, communityID, req.Title, req.Content)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "post": post})
}

// List pages posts by community, preferring the (created_at, id) cursor and
// falling back to page numbers.
func (h *PostHandler) List(c *gin.Context) {
	communityID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || communityID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid community id"})
		return
	}

	lastIDStr := c.Query("last_id")
	lastTSStr := c.Query("last_created_at")

	if lastIDStr != "" || lastTSStr != "" {
		var lastID uint64
		var lastTS int64
		if lastIDStr != "" {
			if v, e := strconv.ParseUint(lastIDStr, 10, 64); e == nil {
				lastID = v
			} else {
				c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid last_id"})
				return
			}
		}
		if lastTSStr != "" {
			if v, e := strconv.ParseInt(lastTSStr, 10, 64); e == nil {
				lastTS = v
			} else {
				c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid last_created_at"})
				return
			}
		}

		size, _ := strconv.Atoi(c.Query("size"))

		list, nextID, nextTS, err := h.svc.ListByCommunityCursor(c.Request.Context(), communityID, lastID, lastTS, size)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"posts":             list,
			"next_last_id":      nextID,
			"next_created_at":   nextTS,
			"next_created_at_s": time.Unix(nextTS, 0).Format(time.RFC3339),
		})
		return
	}

	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("size"))

	list, err := h.svc.ListByCommunity(c.Request.Context(), communityID, page, size)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"posts": list,
		"page":  page,
		"size":  size,
	})
}

func (h *PostHandler) CreateComment(c *gin.Context) {
	postID, err := strconv.ParseUint(c.Param("postID"), 10, 64)
	if err != nil || postID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid post id"})
		return
	}

	var req CreateCommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	wallet, ok := pkg.NormalizeAddress(req.WalletAddress)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid wallet address"})
		return
	}

	comment, err := h.svc.CreateComment(c.Request.Context(), wallet, postID, req.Content)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "comment": comment})
}

func (h *PostHandler) ListComments(c *gin.Context) {
	postID, err := strconv.ParseUint(c.Param("postID"), 10, 64)
	if err != nil || postID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid post id"})
		return
	}

	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("size"))

	list, err := h.svc.ListComments(c.Request.Context(), postID, page, size)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": list, "page": page, "size": size})
}

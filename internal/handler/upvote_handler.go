package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"openbands/internal/pkg"
	"openbands/internal/service"
)

type UpvoteHandler struct {
	svc *service.UpvoteService
}

func NewUpvoteHandler(svc *service.UpvoteService) *UpvoteHandler {
	return &UpvoteHandler{svc: svc}
}

func (h *UpvoteHandler) TogglePost(c *gin.Context) {
	postID, err := strconv.ParseUint(c.Param("postID"), 10, 64)
	if err != nil || postID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid post id"})
		return
	}

	var req WalletReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	wallet, ok := pkg.NormalizeAddress(req.WalletAddress)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid wallet address"})
		return
	}

	upvoted, count, err := h.svc.TogglePost(c.Request.Context(), wallet, postID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"upvoted":     upvoted,
		"upvoteCount": count,
	})
}

func (h *UpvoteHandler) ToggleComment(c *gin.Context) {
	commentID, err := strconv.ParseUint(c.Param("commentID"), 10, 64)
	if err != nil || commentID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid comment id"})
		return
	}

	var req WalletReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	wallet, ok := pkg.NormalizeAddress(req.WalletAddress)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid wallet address"})
		return
	}

	upvoted, count, err := h.svc.ToggleComment(c.Request.Context(), wallet, commentID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"upvoted":     upvoted,
		"upvoteCount": count,
	})
}

// PostCount reads through the cache; walletAddress is optional and only
// used to report whether the caller has upvoted.
func (h *UpvoteHandler) PostCount(c *gin.Context) {
	postID, err := strconv.ParseUint(c.Param("postID"), 10, 64)
	if err != nil || postID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid post id"})
		return
	}

	var wallet string
	if raw := c.Query("walletAddress"); raw != "" {
		var ok bool
		if wallet, ok = pkg.NormalizeAddress(raw); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid wallet address"})
			return
		}
	}

	count, err := h.svc.GetPostUpvoteCount(c.Request.Context(), wallet, postID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	resp := gin.H{"upvoteCount": count}
	if wallet != "" {
		upvoted, err := h.svc.HasUpvotedPost(c.Request.Context(), wallet, postID)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		resp["upvoted"] = upvoted
	}
	c.JSON(http.StatusOK, resp)
}

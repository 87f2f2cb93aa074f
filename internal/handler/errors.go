package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"openbands/internal/chain"
	"openbands/internal/service"
)

// writeServiceError maps service errors onto the response taxonomy:
// 403 denial with reason, 404 missing entity, 429 rate limit, 500 for
// store/chain failures (logged, not retried).
func writeServiceError(c *gin.Context, err error) {
	var denied *service.DeniedError
	switch {
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"msg": err.Error()})
	case errors.As(err, &denied):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "reason": denied.Reason})
	case errors.Is(err, service.ErrCommunityNotFound),
		errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrCommentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"msg": err.Error()})
	case errors.Is(err, chain.ErrUnavailable):
		log.Printf("registry err: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "attestation registry unavailable"})
	default:
		log.Printf("internal err: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "internal error"})
	}
}

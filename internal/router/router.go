package router

import (
	"github.com/gin-gonic/gin"

	"openbands/internal/handler"
)

type Handlers struct {
	Community *handler.CommunityHandler
	Post      *handler.PostHandler
	Upvote    *handler.UpvoteHandler
	Verify    *handler.VerifyHandler
}

func InitRouter(h Handlers) *gin.Engine {
	r := gin.Default()

	api := r.Group("/api")

	communities := api.Group("/communities")
	{
		communities.POST("", h.Community.Create)
		communities.GET("", h.Community.List)
		communities.GET("/:id", h.Community.Get)
		communities.POST("/:id/join", h.Community.Join)
		communities.DELETE("/:id/join", h.Community.Leave)

		communities.POST("/:id/posts", h.Post.Create)
		communities.GET("/:id/posts", h.Post.List)
		communities.POST("/:id/posts/:postID/upvote", h.Upvote.TogglePost)
		communities.GET("/:id/posts/:postID/upvotes", h.Upvote.PostCount)
		communities.POST("/:id/posts/:postID/comments", h.Post.CreateComment)
		communities.GET("/:id/posts/:postID/comments", h.Post.ListComments)
		communities.POST("/:id/comments/:commentID/upvote", h.Upvote.ToggleComment)
	}

	verify := api.Group("/verify")
	{
		verify.POST("/email/code", h.Verify.SendCode)
		verify.POST("/email/confirm", h.Verify.ConfirmCode)
		verify.POST("/proof-inputs", h.Verify.ProofInputs)
	}

	return r
}

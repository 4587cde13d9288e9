package routes

import (
	"github.com/alumnet/alumnet-backend/internal/handler"
	"github.com/alumnet/alumnet-backend/internal/middleware"
	"github.com/alumnet/alumnet-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
)

// Setup configures all API routes
func Setup(
	router *gin.Engine,
	mentorshipHandler *handler.MentorshipHandler,
	moderationHandler *handler.ModerationHandler,
	conversationHandler *handler.ConversationHandler,
	notificationHandler *handler.NotificationHandler,
	wsHandler *handler.WSHandler,
	jwtManager *jwt.Manager,
) {
	auth := middleware.JWTAuth(jwtManager)

	api := router.Group("/api/v1")

	// Mentor directory (mentor-global-block filter applied)
	api.GET("/mentors", auth, moderationHandler.ListMentors)

	// Mentorship request lifecycle
	mentorship := api.Group("/mentorship/requests", auth)
	{
		mentorship.POST("", mentorshipHandler.Create)
		mentorship.GET("/sent", mentorshipHandler.ListSent)
		mentorship.GET("/received", mentorshipHandler.ListReceived)
		mentorship.GET("/:id", mentorshipHandler.Get)
		mentorship.POST("/:id/respond", mentorshipHandler.Respond)
		mentorship.POST("/:id/cancel", mentorshipHandler.Cancel)
	}

	// Conversations and messages
	conversations := api.Group("/conversations", auth)
	{
		conversations.POST("/direct", conversationHandler.CreateDirect)
		conversations.GET("", conversationHandler.List)
		conversations.GET("/:id/messages", conversationHandler.Messages)
		conversations.POST("/:id/messages", conversationHandler.SendMessage)
		conversations.POST("/:id/read", conversationHandler.MarkRead)
	}

	// Notifications
	notifications := api.Group("/notifications", auth)
	{
		notifications.GET("", notificationHandler.List)
		notifications.GET("/unread-count", notificationHandler.UnreadCount)
		notifications.POST("/:id/read", notificationHandler.MarkRead)
		notifications.POST("/read-all", notificationHandler.MarkAllRead)
	}

	// Admin moderation surface
	admin := api.Group("/admin", auth, middleware.RequireAdmin())
	{
		admin.GET("/mentorship/requests", mentorshipHandler.AdminList)
		admin.POST("/mentorship/requests/:id/force-stop", mentorshipHandler.ForceStop)
		admin.POST("/blocks", moderationHandler.CreateBlock)
		admin.GET("/blocks", moderationHandler.ListBlocks)
		admin.PATCH("/blocks/:id", moderationHandler.ToggleBlock)
		admin.POST("/conversations/:id/block", conversationHandler.AdminBlock)
		admin.GET("/conversations/:id/snapshot", conversationHandler.Snapshot)
	}

	// Realtime chat channel
	router.GET("/ws/chat", auth, wsHandler.Connect)
}

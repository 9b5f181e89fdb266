package realtor

import (
	"strings"

	handlershared "github.com/realty-ledger/internal/http/handlers/shared"
	"github.com/realty-ledger/internal/http/response"
	"github.com/realty-ledger/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListNotifications 经纪人通知列表
func (h *Handler) ListNotifications(c *gin.Context) {
	realtorID, ok := handlershared.ParamUint(c, "id", "error.realtor_invalid")
	if !ok {
		return
	}
	page, pageSize := handlershared.ReadPagination(c)
	ctx := c.Request.Context()
	rows, total, err := h.NotificationService.ListForRealtor(ctx, repository.NotificationListFilter{
		Page:       page,
		PageSize:   pageSize,
		RealtorID:  realtorID,
		UnreadOnly: c.Query("unread") == "true" || c.Query("unread") == "1",
		RequestNo:  strings.TrimSpace(c.Query("request_no")),
	})
	if err != nil {
		handlershared.RespondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// GetUnreadCount 未读通知数量
func (h *Handler) GetUnreadCount(c *gin.Context) {
	realtorID, ok := handlershared.ParamUint(c, "id", "error.realtor_invalid")
	if !ok {
		return
	}
	count, err := h.NotificationService.CountUnread(c.Request.Context(), realtorID)
	if err != nil {
		handlershared.RespondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"unread": count})
}

// MarkNotificationRead 标记通知已读
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	realtorID, ok := handlershared.ParamUint(c, "id", "error.realtor_invalid")
	if !ok {
		return
	}
	notificationID, ok := handlershared.ParamUint(c, "notification_id", "error.notification_not_found")
	if !ok {
		return
	}
	if err := h.NotificationService.MarkRead(c.Request.Context(), realtorID, notificationID); err != nil {
		handlershared.RespondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

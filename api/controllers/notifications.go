package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/indyhub/exchange-backend/api/middleware"
	"github.com/indyhub/exchange-backend/api/responses"
	"github.com/indyhub/exchange-backend/internal/notifications"
	"github.com/indyhub/exchange-backend/pkg/db/models"
	"github.com/indyhub/exchange-backend/pkg/enums"
	pkgerrors "github.com/indyhub/exchange-backend/pkg/errors"
	"github.com/indyhub/exchange-backend/pkg/logger"
)

type notificationResponse struct {
	ID        uuid.UUID               `json:"id"`
	Type      enums.NotificationType  `json:"type"`
	Level     enums.NotificationLevel `json:"level"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Link      *string                 `json:"link,omitempty"`
	ReadAt    *time.Time              `json:"read_at,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
}

func notificationFromModel(row models.Notification) notificationResponse {
	return notificationResponse{
		ID:        row.ID,
		Type:      row.Type,
		Level:     row.Level,
		Title:     row.Title,
		Message:   row.Message,
		Link:      row.Link,
		ReadAt:    row.ReadAt,
		CreatedAt: row.CreatedAt,
	}
}

type notificationListResponse struct {
	Notifications []notificationResponse `json:"notifications"`
	NextCursor    string                 `json:"next_cursor,omitempty"`
}

func userIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	userID, err := uuid.Parse(raw)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return userID, nil
}

// NotificationsList pages through the acting user's notifications.
func NotificationsList(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := queryLimit(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unreadOnly, err := queryBool(r, "unreadOnly")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), notifications.ListParams{
			UserID:     userID,
			Limit:      limit,
			Cursor:     strings.TrimSpace(r.URL.Query().Get("cursor")),
			UnreadOnly: unreadOnly,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := notificationListResponse{
			Notifications: make([]notificationResponse, 0, len(result.Items)),
			NextCursor:    result.Cursor,
		}
		for _, row := range result.Items {
			resp.Notifications = append(resp.Notifications, notificationFromModel(row))
		}
		responses.WriteSuccess(w, resp)
	}
}

// NotificationMarkRead flags one notification as read.
func NotificationMarkRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		notificationID, err := uuidParam(r, "notificationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.MarkRead(r.Context(), userID, notificationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"read": true})
	}
}

// NotificationsMarkAllRead flags every unread notification as read.
func NotificationsMarkAllRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		count, err := svc.MarkAllRead(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"marked_read": count})
	}
}

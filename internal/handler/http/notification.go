package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/notification"
	"github.com/workpay-hr/payroll-backend-go/internal/handler/http/response"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/jwt"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/sse"
)

const streamKeepalive = 30 * time.Second

type NotificationHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	UnreadCount(w http.ResponseWriter, r *http.Request)
	MarkAsRead(w http.ResponseWriter, r *http.Request)
	MarkAllAsRead(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)

	GetPreferences(w http.ResponseWriter, r *http.Request)
	UpdatePreference(w http.ResponseWriter, r *http.Request)

	GetSSEToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type notificationHandlerImpl struct {
	notifService notification.Service
	jwtService   jwt.Service
}

func NewNotificationHandler(notifService notification.Service, jwtService jwt.Service) NotificationHandler {
	return &notificationHandlerImpl{
		notifService: notifService,
		jwtService:   jwtService,
	}
}

// recipient returns the caller's user id, answering 401 when there is none.
func recipient(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.HandleError(w, jwt.ErrMissingClaims)
		return "", false
	}
	return userID, true
}

func (h *notificationHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := recipient(w, r)
	if !ok {
		return
	}

	result, err := h.notifService.List(r.Context(), userID, notification.ListFilter{
		Page:       getIntQueryParam(r, "page", 1),
		Limit:      getIntQueryParam(r, "limit", 20),
		UnreadOnly: getBoolQueryParam(r, "unread_only", false),
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result, response.NewMeta(result.Page, result.Limit, result.TotalCount))
}

func (h *notificationHandlerImpl) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := recipient(w, r)
	if !ok {
		return
	}

	count, err := h.notifService.UnreadCount(r.Context(), userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, notification.UnreadCountResponse{UnreadCount: count})
}

func (h *notificationHandlerImpl) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := recipient(w, r)
	if !ok {
		return
	}
	var req notification.MarkAsReadRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	updated, err := h.notifService.MarkRead(r.Context(), userID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Notifications marked as read", notification.MarkReadResponse{Updated: updated})
}

func (h *notificationHandlerImpl) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := recipient(w, r)
	if !ok {
		return
	}

	updated, err := h.notifService.MarkAllRead(r.Context(), userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "All notifications marked as read", notification.MarkReadResponse{Updated: updated})
}

func (h *notificationHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := recipient(w, r)
	if !ok {
		return
	}

	if err := h.notifService.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Notification deleted", nil)
}

func (h *notificationHandlerImpl) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := recipient(w, r)
	if !ok {
		return
	}

	prefs, err := h.notifService.Preferences(r.Context(), userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, prefs)
}

func (h *notificationHandlerImpl) UpdatePreference(w http.ResponseWriter, r *http.Request) {
	userID, ok := recipient(w, r)
	if !ok {
		return
	}
	var req notification.UpdatePreferenceRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	pref, err := h.notifService.UpdatePreference(r.Context(), userID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Preference updated", pref)
}

// GetSSEToken issues the short-lived token Stream expects, since EventSource
// cannot send an Authorization header.
func (h *notificationHandlerImpl) GetSSEToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := recipient(w, r)
	if !ok {
		return
	}

	token, expiresIn, err := h.jwtService.GenerateSSEToken(userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, notification.SSETokenResponse{Token: token, ExpiresIn: expiresIn})
}

func (h *notificationHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		response.Unauthorized(w, "Missing token")
		return
	}
	userID, err := h.jwtService.ValidateSSEToken(token)
	if err != nil {
		response.Unauthorized(w, "Invalid token")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.notifService.Subscribe(r.Context(), userID)
	defer cleanup()

	write := func(ev sse.Event) bool {
		if _, err := ev.WriteTo(w); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !write(sse.Event{Event: "connected", Data: map[string]string{"user_id": userID}}) {
		return
	}

	keepalive := time.NewTicker(streamKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !write(sse.Event{ID: ev.Data.ID, Event: ev.Event, Data: ev.Data}) {
				return
			}
		case now := <-keepalive.C:
			if !write(sse.Event{Event: "ping", Data: map[string]int64{"timestamp": now.Unix()}}) {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"talkie/internal/usecase"
	"talkie/pkg/response"
)

type ChatHandler struct {
	lifecycleUseCase *usecase.ChatLifecycleUseCase
	messageUseCase   *usecase.MessageUseCase
}

func NewChatHandler(lifecycleUseCase *usecase.ChatLifecycleUseCase, messageUseCase *usecase.MessageUseCase) *ChatHandler {
	return &ChatHandler{
		lifecycleUseCase: lifecycleUseCase,
		messageUseCase:   messageUseCase,
	}
}

type sendMessageRequest struct {
	Text           string   `json:"text"`
	AttachmentURLs []string `json:"attachments_url,omitempty" validate:"omitempty,dive,url"`
}

// LeaveGroup removes the authenticated caller from a group chat.
func (h *ChatHandler) LeaveGroup(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	chatID := c.Param("id")

	if err := h.lifecycleUseCase.LeaveGroup(c.Request().Context(), uid, chatID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "left"})
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	username, _ := c.Get("username").(string)

	message, err := h.messageUseCase.SendMessage(c.Request().Context(), username, c.Param("id"), usecase.SendMessageInput{
		Text:           req.Text,
		AttachmentURLs: req.AttachmentURLs,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

func (h *ChatHandler) GetChatMessages(c echo.Context) error {
	username, _ := c.Get("username").(string)

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if limit <= 0 {
		limit = 24
	}

	messages, total, err := h.messageUseCase.ListMessages(c.Request().Context(), username, c.Param("id"), limit, offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, messages, total, limit, offset)
}

func (h *ChatHandler) TogglePinnedMessage(c echo.Context) error {
	username, _ := c.Get("username").(string)

	err := h.messageUseCase.TogglePinned(c.Request().Context(), username, c.Param("id"), c.Param("messageId"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "toggled"})
}

func (h *ChatHandler) MarkMessageRead(c echo.Context) error {
	username, _ := c.Get("username").(string)

	err := h.messageUseCase.MarkRead(c.Request().Context(), username, c.Param("id"), c.Param("messageId"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "read"})
}

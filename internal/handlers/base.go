package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/gblms/roadmap-service/internal/utils"
)

// ErrorResponse is the uniform error body returned by every endpoint.
type ErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// BaseHandler carries the shared logging helpers embedded by all handlers.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs a request-scoped message.
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c, h.logger).Info(msg, args...)
}

// LogError logs a request-scoped error.
func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	args = append(args, "error", err)
	utils.FromContext(c, h.logger).Error(msg, args...)
}

// RespondWithError logs err and writes the uniform error body.
func (h *BaseHandler) RespondWithError(c *gin.Context, status int, msg string, err error) {
	resp := ErrorResponse{Message: msg}
	if err != nil {
		h.LogError(c, err, msg)
		resp.Details = err.Error()
	}
	c.JSON(status, resp)
}

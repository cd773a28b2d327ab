package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/creativevault/pkg/internal/types"
)

// Moderate 批量审核.
func (h *Handlers) Moderate(c *gin.Context) {
	var req types.ModerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, malformed(err))

		return
	}

	resp, err := h.Moderation.Moderate(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// ModerationCounts 各状态数量.
func (h *Handlers) ModerationCounts(c *gin.Context) {
	resp, err := h.Moderation.Counts(c.Request.Context())
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteCreatives 批量删除.
func (h *Handlers) DeleteCreatives(c *gin.Context) {
	var req types.DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, malformed(err))

		return
	}

	resp, err := h.Moderation.Delete(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/creativevault/pkg/internal/types"
)

// ListCreatives 公开目录，只返回已发布记录.
func (h *Handlers) ListCreatives(c *gin.Context) {
	var q types.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, malformed(err))

		return
	}

	resp, err := h.Catalog.ListPublished(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListAdminCreatives 管理目录，支持 status 过滤.
func (h *Handlers) ListAdminCreatives(c *gin.Context) {
	var q types.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, malformed(err))

		return
	}

	resp, err := h.Catalog.ListAdmin(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetCreative 公开读取单条已发布记录.
func (h *Handlers) GetCreative(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	rec, err := h.Catalog.GetPublished(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "creative": rec})
}

// GetAdminCreative 读取任意状态的单条记录.
func (h *Handlers) GetAdminCreative(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	rec, err := h.Catalog.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "creative": rec})
}

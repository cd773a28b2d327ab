package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListReferences 返回全部参考数据.
func (h *Handlers) ListReferences(c *gin.Context) {
	set, err := h.References.All(c.Request.Context())
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, set)
}

// ScanOrphans 返回孤儿对象与缺失资产报告.
func (h *Handlers) ScanOrphans(c *gin.Context) {
	report, err := h.Maintenance.ScanOrphans(c.Request.Context())
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, report)
}

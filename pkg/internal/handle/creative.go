package handle

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/yeisme/creativevault/pkg/internal/service"
	"github.com/yeisme/creativevault/pkg/internal/types"
)

// multipartMemory 解析 multipart 时保留在内存中的最大字节数，超出部分写入临时文件.
const multipartMemory = 8 << 20

// CreateCreative 摄取一条素材.
//
// POST /api/v1/creatives，multipart 表单，资产可以是文件或地址.
func (h *Handlers) CreateCreative(c *gin.Context) {
	if err := h.parseMultipart(c); err != nil {
		writeError(c, err)

		return
	}

	var form types.CreativeForm
	if err := c.ShouldBindWith(&form, binding.FormMultipart); err != nil {
		writeError(c, malformed(err))

		return
	}

	resp, err := h.Creatives.Create(c.Request.Context(), form, assetFiles(c))
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusCreated, resp)
}

// UpdateCreative 部分更新素材，或通过 delete_file_type 清空一个资产.
//
// POST /api/v1/creatives/update.
func (h *Handlers) UpdateCreative(c *gin.Context) {
	if err := h.parseMultipart(c); err != nil {
		writeError(c, err)

		return
	}

	var form types.UpdateCreativeForm
	if err := c.ShouldBindWith(&form, binding.FormMultipart); err != nil {
		writeError(c, malformed(err))

		return
	}

	resp, err := h.Creatives.Update(c.Request.Context(), form, assetFiles(c))
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) parseMultipart(c *gin.Context) error {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		return malformed(err)
	}

	return nil
}

func assetFiles(c *gin.Context) service.AssetFiles {
	return service.AssetFiles{
		Media:     filePart(c, types.PartMedia),
		Thumbnail: filePart(c, types.PartThumbnail),
		Archive:   filePart(c, types.PartArchive),
	}
}

// filePart 读取文件字段，缺失或为空时返回 nil.
func filePart(c *gin.Context, name string) *service.FilePart {
	fh, err := c.FormFile(name)
	if err != nil || fh.Size == 0 {
		return nil
	}

	return &service.FilePart{
		Filename:    fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

package versioning

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ArulGupta2102/Bucket-Versioning-Endpoints/internal/storage"
)

const metadataHeaderPrefix = "X-Amz-Meta-"

// Handler maps the bucket-versioning REST routes onto the service.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Status GET /bucket-versioning/status
func (h *Handler) Status(c echo.Context) error {
	enabled, err := h.svc.VersioningEnabled(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, statusResponse{Enabled: enabled})
}

// ListFiles GET /bucket-versioning/files — current objects in the bucket.
func (h *Handler) ListFiles(c echo.Context) error {
	objects, err := h.svc.ListCurrent(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, objects)
}

// ListAllVersions GET /bucket-versioning/versions
func (h *Handler) ListAllVersions(c echo.Context) error {
	versions, err := h.svc.ListAllVersions(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, versions)
}

// ListVersionsForKey GET /bucket-versioning/versions/:key — merged versions
// and delete markers for the key, newest first.
func (h *Handler) ListVersionsForKey(c echo.Context) error {
	key, err := pathKey(c)
	if err != nil {
		return err
	}

	versions, err := h.svc.ListVersionsForKey(c.Request().Context(), key)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, versions)
}

// DownloadVersion GET /bucket-versioning/versions/:key/:versionId/download
func (h *Handler) DownloadVersion(c echo.Context) error {
	return h.stream(c, c.Param("versionId"), true, false)
}

// VersionMetadata GET /bucket-versioning/versions/:key/:versionId/metadata —
// body with the version's user metadata reflected as response headers.
func (h *Handler) VersionMetadata(c echo.Context) error {
	return h.stream(c, c.Param("versionId"), false, true)
}

// Current GET /bucket-versioning/current/:key — current body plus metadata
// headers.
func (h *Handler) Current(c echo.Context) error {
	return h.stream(c, "", false, true)
}

// Download GET /bucket-versioning/download/:key — current body as attachment.
func (h *Handler) Download(c echo.Context) error {
	return h.stream(c, "", true, false)
}

func (h *Handler) stream(c echo.Context, versionID string, attachment, withMetadata bool) error {
	key, err := pathKey(c)
	if err != nil {
		return err
	}

	body, stat, err := h.svc.Open(c.Request().Context(), key, versionID)
	if err != nil {
		return httpError(err)
	}
	defer body.Close()

	header := c.Response().Header()
	if attachment {
		header.Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", path.Base(key)))
	}
	if withMetadata {
		for k, v := range stat.UserMetadata {
			header.Set(metadataHeaderPrefix+k, v)
		}
		if stat.ETag != "" {
			header.Set("ETag", stat.ETag)
		}
		if !stat.LastModified.IsZero() {
			header.Set(echo.HeaderLastModified, stat.LastModified.UTC().Format(http.TimeFormat))
		}
		if stat.VersionID != "" {
			header.Set("X-Version-Id", stat.VersionID)
		}
	}

	contentType := stat.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	return c.Stream(http.StatusOK, contentType, body)
}

// DeleteVersion DELETE /bucket-versioning/versions/:key/:versionId
func (h *Handler) DeleteVersion(c echo.Context) error {
	key, err := pathKey(c)
	if err != nil {
		return err
	}
	versionID := c.Param("versionId")
	if versionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "version id is required")
	}

	result, err := h.svc.DeleteVersion(c.Request().Context(), key, versionID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// DeleteCurrent DELETE /bucket-versioning/delete/:key — deletes the current
// version; on a versioned bucket this creates a delete marker.
func (h *Handler) DeleteCurrent(c echo.Context) error {
	key, err := pathKey(c)
	if err != nil {
		return err
	}

	result, err := h.svc.DeleteCurrent(c.Request().Context(), key)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, deleteResponse{DeleteVersionID: result.DeleteMarkerVersionID})
}

// Undelete PUT /bucket-versioning/undelete/:key — removes the most recent
// delete marker, restoring the previously current version.
func (h *Handler) Undelete(c echo.Context) error {
	key, err := pathKey(c)
	if err != nil {
		return err
	}

	result, err := h.svc.Undelete(c.Request().Context(), key)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// Upload POST /bucket-versioning/upload/:key — multipart form with field
// "file". Request X-Amz-Meta-* headers are stored as user metadata.
func (h *Handler) Upload(c echo.Context) error {
	key, err := pathKey(c)
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "field 'file' is required")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot open uploaded file")
	}
	defer src.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}

	result, err := h.svc.Upload(c.Request().Context(), key, src, fileHeader.Size, contentType, userMetadataFromRequest(c.Request()))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, result)
}

// pathKey returns the URL-decoded :key parameter. Keys containing slashes
// must be percent-encoded by the client.
func pathKey(c echo.Context) (string, error) {
	key, err := url.PathUnescape(c.Param("key"))
	if err != nil || key == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid object key")
	}
	return key, nil
}

func userMetadataFromRequest(r *http.Request) map[string]string {
	var meta map[string]string
	for name, values := range r.Header {
		if strings.HasPrefix(name, metadataHeaderPrefix) && len(values) > 0 {
			if meta == nil {
				meta = make(map[string]string)
			}
			meta[strings.TrimPrefix(name, metadataHeaderPrefix)] = values[0]
		}
	}
	return meta
}

// httpError translates service errors into HTTP responses. Backend failures
// keep their wrapped message; no retry is attempted at any layer.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNoDeleteMarker):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ArulGupta2102/Bucket-Versioning-Endpoints/internal/modules/versioning"
	"github.com/ArulGupta2102/Bucket-Versioning-Endpoints/internal/obs/metrics"
)

func New(h *versioning.Handler, m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(m.Middleware())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	api := e.Group("/bucket-versioning")
	{
		api.GET("/status", h.Status)
		api.GET("/files", h.ListFiles)
		api.GET("/versions", h.ListAllVersions)
		api.GET("/versions/:key", h.ListVersionsForKey)
		api.GET("/versions/:key/:versionId/download", h.DownloadVersion)
		api.GET("/versions/:key/:versionId/metadata", h.VersionMetadata)
		api.DELETE("/versions/:key/:versionId", h.DeleteVersion)
		api.GET("/current/:key", h.Current)
		api.GET("/download/:key", h.Download)
		api.DELETE("/delete/:key", h.DeleteCurrent)
		api.PUT("/undelete/:key", h.Undelete)
		api.POST("/upload/:key", h.Upload)
	}

	return e
}

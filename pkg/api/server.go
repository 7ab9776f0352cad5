// Package api provides the REST API server for shaketool
package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/james-see/shaketool/pkg/converter"
	"github.com/james-see/shaketool/pkg/converter/formats"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Default upload limits.
const (
	DefaultMaxUpload = 32 << 20
	// DefaultMaxCells bounds the pattern cells an uploaded song may declare,
	// and the cells a MIDI export may render.
	DefaultMaxCells = 1 << 21
)

// Config holds the server settings.
type Config struct {
	Port      int
	MaxUpload int64
	MaxCells  int
}

// DefaultConfig returns the settings used when no flags are given.
func DefaultConfig() Config {
	return Config{Port: 8080, MaxUpload: DefaultMaxUpload, MaxCells: DefaultMaxCells}
}

type server struct {
	cfg Config
}

// @title shaketool API
// @version 1.0
// @description API for converting ShakeTracker 0.2 songs to 0.4 modules
// @host localhost:8080
// @BasePath /api/v1

// StartServer starts the API server on the configured port
func StartServer(cfg Config) error {
	return NewRouter(cfg).Run(fmt.Sprintf(":%d", cfg.Port))
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(cfg Config) *gin.Engine {
	srv := &server{cfg: cfg}

	r := gin.Default()
	r.MaxMultipartMemory = cfg.MaxUpload

	r.Use(corsMiddleware())

	r.GET("/health", healthCheck)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.POST("/convert", srv.handleConvert)
		v1.POST("/inspect", srv.handleInspect)
		v1.POST("/export/midi", srv.handleExportMIDI)
		v1.GET("/formats", listFormats)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (s *server) newConverter() *converter.Converter {
	midi := converter.NewMIDIConverter()
	midi.MaxCells = s.cfg.MaxCells
	return converter.New(&formats.SHT2{MaxCells: s.cfg.MaxCells}, formats.NewSHT4()).WithMIDI(midi)
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "shaketool",
	})
}

// listFormats godoc
// @Summary List supported formats
// @Description Returns the recognised file formats and conversions
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/formats [get]
func listFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"formats":     []converter.Format{converter.FormatV2, converter.FormatV4, converter.FormatMIDI},
		"conversions": converter.GetSupportedConversions(),
	})
}

// handleConvert godoc
// @Summary Convert a 0.2 song to a 0.4 module
// @Description Upload a ShakeTracker 0.2 song and receive the 0.4 module
// @Tags convert
// @Accept multipart/form-data
// @Produce application/octet-stream
// @Param file formData file true "0.2 song to convert"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Failure 413 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/convert [post]
func (s *server) handleConvert(c *gin.Context) {
	name, data, ok := s.readUpload(c, converter.FormatV2)
	if !ok {
		return
	}

	result, err := s.newConverter().ConvertBytes(data)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	sendFile(c, outputName(name, "_v4.sng"), "application/octet-stream", result)
}

// handleInspect godoc
// @Summary Inspect a 0.4 module
// @Description Upload a ShakeTracker 0.4 module and receive its sections sorted by name
// @Tags inspect
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "0.4 module to inspect"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/inspect [post]
func (s *server) handleInspect(c *gin.Context) {
	_, data, ok := s.readUpload(c, converter.FormatV4)
	if !ok {
		return
	}

	sorted, err := s.newConverter().Inspect(bytes.NewReader(data))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"header":   sorted.Header,
		"sections": sorted.Dump(),
	})
}

// handleExportMIDI godoc
// @Summary Render a 0.2 song as MIDI
// @Description Upload a ShakeTracker 0.2 song and receive a Standard MIDI File
// @Tags convert
// @Accept multipart/form-data
// @Produce audio/midi
// @Param file formData file true "0.2 song to render"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/export/midi [post]
func (s *server) handleExportMIDI(c *gin.Context) {
	name, data, ok := s.readUpload(c, converter.FormatV2)
	if !ok {
		return
	}

	result, err := s.newConverter().SongToMIDI(bytes.NewReader(data))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	sendFile(c, outputName(name, ".mid"), "audio/midi", result)
}

// readUpload reads the "file" form field and checks that it holds want. On
// failure the error response has already been written.
func (s *server) readUpload(c *gin.Context, want converter.Format) (string, []byte, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return "", nil, false
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUpload+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return "", nil, false
	}
	if int64(len(data)) > s.cfg.MaxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxUpload),
		})
		return "", nil, false
	}

	if got := converter.DetectFormat(data); got != want {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("expected a %s file, got %s", want, got),
		})
		return "", nil, false
	}

	return header.Filename, data, true
}

func outputName(upload, suffix string) string {
	base := filepath.Base(upload)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		base = "converted"
	}
	return base + suffix
}

func sendFile(c *gin.Context, name, contentType string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
	c.Data(http.StatusOK, contentType, data)
}

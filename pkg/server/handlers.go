package server

import (
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "factgraph",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type ingestTextRequest struct {
	Text   string `json:"text" binding:"required"`
	Source string `json:"source"`
}

// ingestDocument handles POST /api/v1/documents. Accepts either a
// multipart upload under the "file" field or a JSON body with inline
// text.
func (s *Server) ingestDocument(c *gin.Context) {
	if file, err := c.FormFile("file"); err == nil {
		s.ingestUpload(c, file)
		return
	}

	var req ingestTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected a file upload or a JSON body with text"})
		return
	}

	result := s.client.ProcessText(c.Request.Context(), req.Text, req.Source)
	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) ingestUpload(c *gin.Context, file *multipart.FileHeader) {
	if max := s.config.MaxFileSizeMB; max > 0 && file.Size > int64(max)*1024*1024 {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "file exceeds maximum size",
		})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ext := filepath.Ext(file.Filename)
	result := s.client.ProcessDocument(c.Request.Context(), "", data, ext, file.Filename)
	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

type queryRequest struct {
	Question string `json:"question" binding:"required"`
}

func (s *Server) runQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	result := s.client.Query(c.Request.Context(), req.Question)
	if !result.Success {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) searchEntities(c *gin.Context) {
	term := c.Query("q")
	if term == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q parameter is required"})
		return
	}
	limit := intQuery(c, "limit", 10)

	hits, err := s.client.Search(c.Request.Context(), term, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": hits, "count": len(hits)})
}

func (s *Server) entityDetails(c *gin.Context) {
	info := s.client.EntityDetails(c.Request.Context(), c.Param("name"))
	if !info.Success {
		c.JSON(http.StatusInternalServerError, info)
		return
	}
	if info.Entity == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "entity not found"})
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) querySuggestions(c *gin.Context) {
	suggestions := s.client.Suggestions(c.Query("q"))
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

func (s *Server) graphStats(c *gin.Context) {
	stats, err := s.client.GetStatistics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) graphData(c *gin.Context) {
	limit := intQuery(c, "limit", 100)

	data, err := s.client.GetGraphData(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, data)
}

type exportRequest struct {
	Path   string `json:"path" binding:"required"`
	Format string `json:"format"`
	Limit  int    `json:"limit"`
}

func (s *Server) exportGraph(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	if err := s.client.Export(c.Request.Context(), req.Path, req.Format, req.Limit); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": req.Path, "format": req.Format})
}

func (s *Server) clearGraph(c *gin.Context) {
	if err := s.client.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

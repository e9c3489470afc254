package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"legischat/internal/ingest"
	"legischat/internal/repository"
	"legischat/internal/transport/http/response"
)

type IngestHandler struct {
	coordinator *ingest.Coordinator
	runRepo     *repository.IngestRunRepository
	maxDepth    int
}

type IngestRequest struct {
	URL      string `json:"url" binding:"required,url"`
	MaxDepth *int   `json:"max_depth"`
}

func NewIngestHandler(coordinator *ingest.Coordinator, runRepo *repository.IngestRunRepository, defaultMaxDepth int) *IngestHandler {
	return &IngestHandler{
		coordinator: coordinator,
		runRepo:     runRepo,
		maxDepth:    defaultMaxDepth,
	}
}

func (h *IngestHandler) Ingest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	maxDepth := h.maxDepth
	if req.MaxDepth != nil {
		if *req.MaxDepth < 0 {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "max_depth must not be negative")
			return
		}
		maxDepth = *req.MaxDepth
	}

	inserted, err := h.coordinator.Ingest(c.Request.Context(), req.URL, maxDepth)
	if err != nil {
		if errors.Is(err, ingest.ErrDuplicateURL) {
			response.Error(c, http.StatusConflict, response.CodeDuplicateIngestion, "url already ingested")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "ingestion failed")
		return
	}
	response.OK(c, gin.H{"inserted_chunks": inserted})
}

func (h *IngestHandler) ListURLs(c *gin.Context) {
	urls, err := h.coordinator.ListIngestedURLs(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list ingested urls failed")
		return
	}
	response.OK(c, gin.H{"urls": urls})
}

func (h *IngestHandler) ListRuns(c *gin.Context) {
	runs, err := h.runRepo.ListRecent(50)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list ingest runs failed")
		return
	}
	response.OK(c, runs)
}

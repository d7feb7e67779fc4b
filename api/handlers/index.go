package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/meghashyamc/searchbadges/db/kvdb"
	"github.com/meghashyamc/searchbadges/logger"
	"github.com/meghashyamc/searchbadges/services/index"
	"github.com/meghashyamc/searchbadges/validation"
)

const (
	indexStatusInProgress = "in_progress"
	indexStatusComplete   = "complete"
	indexStatusFailed     = "failed"
)

type IndexRequest struct {
	Path           string   `json:"path" validate:"required,valid_path"`
	ExcludeFolders []string `json:"exclude_folders" validate:"dive,valid_path"`
}

type IndexResponse struct {
	ID string `json:"id"`
}

type IndexStatusResponse struct {
	ID       string `json:"id"`
	Progress int    `json:"progress"`
	Status   string `json:"status"`
}

func SetupIndex(router *gin.Engine, logger logger.Logger, service *index.Service, validator *validation.Validator) {
	router.POST("/index", handleCreateIndex(service, logger, validator))
	router.GET("/index/:id", handleGetIndexStatus(service, logger))
}

func handleCreateIndex(service *index.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := IndexRequest{}
		if err := c.ShouldBindJSON(&request); err != nil {
			logger.Warn("could not extract expected params from index request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request body parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate index request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		requestID := uuid.NewString()
		if err := service.Build(request.Path, request.ExcludeFolders, requestID); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, index.ErrIndexingInProgress) {
				status = http.StatusConflict
			}
			logger.Warn("could not start indexing", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, status, []string{err.Error()})
			return
		}

		writeResponse(c, IndexResponse{ID: requestID}, http.StatusAccepted, nil)
	}
}

func handleGetIndexStatus(service *index.Service, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.Param("id")
		progress, err := service.GetStatus(requestID)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, kvdb.ErrNotFound) {
				status = http.StatusNotFound
			}
			logger.Warn("could not get index status", "request_id", requestID, "err", err.Error())
			c.Abort()
			writeResponse(c, nil, status, []string{err.Error()})
			return
		}

		response := IndexStatusResponse{ID: requestID, Progress: progress, Status: indexStatusInProgress}
		switch progress {
		case index.ProgressStatusComplete:
			response.Status = indexStatusComplete
		case index.ProgressStatusFailed:
			response.Status = indexStatusFailed
		}
		writeResponse(c, response, http.StatusOK, nil)
	}
}

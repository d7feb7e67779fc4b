package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/searchbadges/badges"
	"github.com/meghashyamc/searchbadges/db/kvdb"
	"github.com/meghashyamc/searchbadges/logger"
	"github.com/meghashyamc/searchbadges/services/search"
	"github.com/meghashyamc/searchbadges/validation"
)

const defaultResultsPerPage = 20

type SearchRequest struct {
	Query   string   `form:"query" json:"query" validate:"max=1000"`
	Lang    string   `form:"lang" json:"lang" validate:"valid_lang"`
	Filters []string `form:"filter" json:"filter" validate:"max=10,dive,required"`
	PerPage int      `form:"per_page" json:"per_page" validate:"min=0,max=100"`
	Page    int      `form:"page" json:"page" validate:"min=0"`
}

func (r *SearchRequest) setDefaults() {
	if r.PerPage == 0 {
		r.PerPage = defaultResultsPerPage
	}

	if r.Page == 0 {
		r.Page = 1
	}
}

type SearchResponse struct {
	Query        string              `json:"query"`
	ActiveBadges []badges.FilterView `json:"active_badges"`
	Results      []search.Match      `json:"results"`
	PageDetails  Pagination          `json:"page_details"`
}

func SetupSearch(router *gin.Engine, logger logger.Logger, service *search.Service, validator *validation.Validator) {
	router.GET("/search", handleSearch(service, logger, validator))
	router.GET("/results/:id/data", handleResultData(service, logger))
	router.POST("/options", handleOptions(service, logger))
}

func handleSearch(service *search.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := SearchRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from search request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request parameters"})
			return
		}
		request.setDefaults()

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate search request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}
		if strings.TrimSpace(request.Query) == "" && len(request.Filters) == 0 {
			logger.Warn("search request has neither a query nor a filter")
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{"missing required field 'query'"})
			return
		}

		limit := request.PerPage
		offset := (request.Page - 1) * request.PerPage
		results, err := service.Search(search.Request{
			Query:     request.Query,
			Lang:      request.Lang,
			FilterIDs: request.Filters,
			Limit:     limit,
			Offset:    offset,
		})
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, search.ErrUnknownFilter) {
				status = http.StatusNotAcceptable
			}
			logger.Error("search failed", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, status, []string{err.Error()})
			return
		}

		c.Header(HeaderPaginationTotalCount, strconv.FormatUint(results.Total, 10))
		searchResponse := SearchResponse{
			Query:        results.Query,
			ActiveBadges: results.ActiveBadges,
			Results:      results.Results,
			PageDetails: calculatePagination(
				int(results.Total),
				limit,
				offset),
		}

		writeResponse(c, searchResponse, http.StatusOK, nil)
	}
}

func handleResultData(service *search.Service, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		fragment, err := service.Data(id)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, kvdb.ErrNotFound) {
				status = http.StatusNotFound
			}
			logger.Warn("could not load result data", "id", id, "err", err.Error())
			c.Abort()
			writeResponse(c, nil, status, []string{err.Error()})
			return
		}

		writeResponse(c, fragment, http.StatusOK, nil)
	}
}

// handleOptions applies what it can; invalid options are ignored by the
// service.
func handleOptions(service *search.Service, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		options := search.Options{}
		if err := c.ShouldBindJSON(&options); err != nil {
			logger.Warn("could not extract search options", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request body parameters"})
			return
		}

		service.Options(options)
		writeResponse(c, nil, http.StatusNoContent, nil)
	}
}

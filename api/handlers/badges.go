package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/searchbadges/badges"
	"github.com/meghashyamc/searchbadges/logger"
	"github.com/meghashyamc/searchbadges/services/search"
	"github.com/meghashyamc/searchbadges/validation"
)

type SuggestRequest struct {
	Query string `form:"query" json:"query" validate:"required,valid_query,max=1000"`
	Lang  string `form:"lang" json:"lang" validate:"valid_lang"`
}

type SuggestResponse struct {
	Suggestions []badges.Suggestion `json:"suggestions"`
}

type BadgesRequest struct {
	Lang string `form:"lang" json:"lang" validate:"valid_lang"`
}

func SetupBadges(router *gin.Engine, logger logger.Logger, service *search.Service, validator *validation.Validator) {
	router.GET("/suggest", handleSuggest(service, logger, validator))
	router.GET("/badges", handleBadges(service, logger, validator))
}

func handleSuggest(service *search.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := SuggestRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from suggest request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate suggest request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		suggestions := service.Suggest(request.Query, request.Lang)
		writeResponse(c, SuggestResponse{Suggestions: suggestions}, http.StatusOK, nil)
	}
}

// handleBadges serves the widget configuration; the shortcut style follows
// the client's User-Agent unless configured.
func handleBadges(service *search.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := BadgesRequest{}
		if err := c.ShouldBindQuery(&request); err != nil {
			logger.Warn("could not extract expected params from badges request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate badges request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		writeResponse(c, service.Badges(request.Lang, c.Request.UserAgent()), http.StatusOK, nil)
	}
}

package api

import (
	"errors"
	"os"
	"strings"
)

func (s *Server) registerRoutes() error {
	if s == nil || s.router == nil {
		return nil
	}

	api := s.router.Group("/api")
	apiKey := strings.TrimSpace(os.Getenv("IDIOM_EVAL_API_KEY"))
	if apiKey != "" {
		api.Use(apiKeyAuthMiddleware(apiKey))
	} else if strings.EqualFold(strings.TrimSpace(os.Getenv("IDIOM_EVAL_DISABLE_AUTH")), "true") {
		// Unauthenticated access was requested explicitly.
	} else {
		return errors.New("api: missing auth configuration: set IDIOM_EVAL_API_KEY or set IDIOM_EVAL_DISABLE_AUTH=true")
	}

	api.GET("/health", s.handleHealth)
	api.GET("/models", s.handleListModels)
	api.GET("/models/:model/predictions", s.handleListPredictions)
	api.GET("/models/:model/discrepancies", s.handleListDiscrepancies)
	api.GET("/models/:model/overview", s.handleModelOverview)
	api.GET("/overview", s.handleOverview)

	return nil
}

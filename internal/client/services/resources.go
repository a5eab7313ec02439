package services

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/leasekeeper/internal/client/models"
	"github.com/dmitrijs2005/leasekeeper/internal/logging"
)

// ResourceService reads and writes authenticated API resources. A session
// that could not be renewed is reported as "session expired".
type ResourceService interface {
	Fetch(ctx context.Context, path string) models.Result
	Send(ctx context.Context, method, path string, body any) models.Result
}

type resourceService struct {
	api    API
	logger logging.Logger
}

func NewResourceService(api API, logger logging.Logger) ResourceService {
	return &resourceService{api: api, logger: logger}
}

func (s *resourceService) Fetch(ctx context.Context, path string) models.Result {
	var out any
	if err := s.api.GetJSON(ctx, path, &out); err != nil {
		s.logger.Debug(ctx, "resource request failed", "method", http.MethodGet, "path", path, "error", err)
		return models.Fail(errorMessage(err))
	}
	return models.Ok(out)
}

func (s *resourceService) Send(ctx context.Context, method, path string, body any) models.Result {
	var out any
	if err := s.api.DoJSON(ctx, method, path, body, &out); err != nil {
		s.logger.Debug(ctx, "resource request failed", "method", method, "path", path, "error", err)
		return models.Fail(errorMessage(err))
	}
	return models.Ok(out)
}

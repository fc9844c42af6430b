package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/fyrsmithlabs/embedd/internal/dispatch"
	"github.com/fyrsmithlabs/embedd/internal/embedder"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:     "ok",
		Workers:    s.dispatcher.Workers(),
		QueueDepth: s.dispatcher.QueueDepth(),
	})
}

// handleMethods lists every backend with its catalog, in registration order.
func (s *Server) handleMethods(c echo.Context) error {
	methods := s.dispatcher.Registry().Methods()
	resp := MethodsResponse{Methods: make([]MethodResponse, 0, len(methods))}
	for _, e := range methods {
		m := MethodResponse{ID: e.MethodID(), Name: e.MethodName()}
		for _, info := range e.Models() {
			inputs := make([]string, 0, len(info.Inputs))
			for _, t := range info.Inputs {
				inputs = append(inputs, t.String())
			}
			m.Models = append(m.Models, ModelResponse{
				ID:         info.ID,
				Name:       info.Name,
				InputTypes: inputs,
				Dimension:  info.Dimension,
			})
		}
		resp.Methods = append(resp.Methods, m)
	}
	return c.JSON(http.StatusOK, resp)
}

// handleValidate resolves names to IDs without embedding anything.
func (s *Server) handleValidate(c echo.Context) error {
	var req ValidateRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(c.Request().Context(), "invalid validate request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Method == "" || req.Model == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "method and model fields are required")
	}

	t := embedder.InputText
	if req.InputType != "" {
		var err error
		if t, err = embedder.ParseInputType(req.InputType); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	target, err := s.dispatcher.Resolve(req.Method, req.Model, t)
	if err != nil {
		return s.httpError(c, err)
	}
	return c.JSON(http.StatusOK, ValidateResponse{MethodID: target.MethodID, ModelID: target.ModelID})
}

// handleEmbed embeds a batch of texts and returns one flat buffer.
func (s *Server) handleEmbed(c echo.Context) error {
	var req EmbedRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(c.Request().Context(), "invalid embed request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Method == "" || req.Model == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "method and model fields are required")
	}
	if len(req.Inputs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "inputs must not be empty")
	}

	target, err := s.dispatcher.Resolve(req.Method, req.Model, embedder.InputText)
	if err != nil {
		return s.httpError(c, err)
	}

	res, err := s.dispatcher.Embed(c.Request().Context(), target, embedder.Texts(req.Inputs))
	if err != nil {
		return s.httpError(c, err)
	}
	s.prom.embedded.WithLabelValues(target.Method, target.Model).Add(float64(res.Count))

	return c.JSON(http.StatusOK, EmbedResponse{
		Method:     target.Method,
		Model:      target.Model,
		Count:      res.Count,
		Dimension:  res.Dimension,
		Embeddings: res.Flat,
	})
}

// httpError maps embedding errors to status codes.
func (s *Server) httpError(c echo.Context, err error) error {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error(c.Request().Context(), "request failed", zap.Int("status", code), zap.Error(err))
	}
	return echo.NewHTTPError(code, err.Error()).SetInternal(err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, embedder.ErrEmptyInput), errors.Is(err, embedder.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, embedder.ErrUnknownMethod), errors.Is(err, embedder.ErrUnknownModel):
		return http.StatusNotFound
	case errors.Is(err, embedder.ErrUnsupportedInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, embedder.ErrBackendInit), errors.Is(err, embedder.ErrEmbedFailed):
		return http.StatusBadGateway
	case errors.Is(err, dispatch.ErrClosed), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/caselode/caselode/pkg/vector"
)

// ErrorResponse is the body returned for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse reports a collection's indexing state.
type StatusResponse struct {
	Collection string `json:"collection"`
	Status     string `json:"status"`
	Ready      bool   `json:"ready"`
}

// CountResponse reports a collection's point count.
type CountResponse struct {
	Collection string `json:"collection"`
	Count      uint64 `json:"count"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleCollectionStatus returns the indexing state of a collection.
func (s *Server) handleCollectionStatus(c *fiber.Ctx) error {
	ctx := c.Context()
	name := c.Params("name")

	exists, err := s.store.CollectionExists(ctx, name)
	if err != nil {
		s.logger.Error("failed to check collection", zap.String("collection", name), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to check collection"})
	}
	if !exists {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "collection not found"})
	}

	status, err := s.store.CollectionStatus(ctx, name)
	if err != nil {
		s.logger.Error("failed to get collection status", zap.String("collection", name), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to get collection status"})
	}

	return c.JSON(StatusResponse{
		Collection: name,
		Status:     status.String(),
		Ready:      status == vector.StatusReady,
	})
}

// handleCollectionCount returns the number of points in a collection.
func (s *Server) handleCollectionCount(c *fiber.Ctx) error {
	ctx := c.Context()
	name := c.Params("name")

	exists, err := s.store.CollectionExists(ctx, name)
	if err != nil {
		s.logger.Error("failed to check collection", zap.String("collection", name), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to check collection"})
	}
	if !exists {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "collection not found"})
	}

	count, err := s.store.Count(ctx, name)
	if err != nil {
		s.logger.Error("failed to count collection", zap.String("collection", name), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to count collection"})
	}

	return c.JSON(CountResponse{
		Collection: name,
		Count:      count,
	})
}

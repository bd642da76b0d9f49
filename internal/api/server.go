package api

import "github.com/RoyceAzure/lab/pizzabot/internal/api/handler"

type Server struct {
	UserHandler   *handler.UserHandler
	HealthHandler *handler.HealthHandler
}

func NewServer(
	userHandler *handler.UserHandler,
	healthHandler *handler.HealthHandler,
) *Server {
	return &Server{
		UserHandler:   userHandler,
		HealthHandler: healthHandler,
	}
}

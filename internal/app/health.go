package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/ideabox/internal/pkg/goerror"
	"github.com/shandysiswandi/ideabox/internal/pkg/router"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var errDependencyDown = errors.New("dependency is not reachable")

type healthResponse struct {
	Status string `json:"status"`
}

func (healthResponse) Message() string {
	return "service is healthy"
}

// health pings the backing stores that were configured at startup.
func (a *App) health(r *router.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for _, c := range a.mongoClients {
		if err := c.Ping(ctx, readpref.Primary()); err != nil {
			slog.ErrorContext(ctx, "health check failed", "dependency", "mongodb", "error", err)
			return nil, goerror.NewUnavailable(errors.Join(errDependencyDown, err), "")
		}
	}

	if a.dbConn != nil {
		if err := a.dbConn.Ping(ctx); err != nil {
			slog.ErrorContext(ctx, "health check failed", "dependency", "postgres", "error", err)
			return nil, goerror.NewUnavailable(errors.Join(errDependencyDown, err), "")
		}
	}

	if a.cacheConn != nil {
		if err := a.cacheConn.Ping(ctx).Err(); err != nil {
			slog.ErrorContext(ctx, "health check failed", "dependency", "redis", "error", err)
			return nil, goerror.NewUnavailable(errors.Join(errDependencyDown, err), "")
		}
	}

	return healthResponse{Status: "ok"}, nil
}

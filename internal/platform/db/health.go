package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

const pingTimeout = 5 * time.Second

// PoolStats is a point-in-time snapshot of the pgx pool.
type PoolStats struct {
	Total           int32  `json:"total"`
	Idle            int32  `json:"idle"`
	InUse           int32  `json:"in_use"`
	Max             int32  `json:"max"`
	Acquires        int64  `json:"acquires"`
	AcquireDuration string `json:"acquire_duration"`
}

func snapshot(pool *pgxpool.Pool) PoolStats {
	stat := pool.Stat()
	return PoolStats{
		Total:           stat.TotalConns(),
		Idle:            stat.IdleConns(),
		InUse:           stat.AcquiredConns(),
		Max:             stat.MaxConns(),
		Acquires:        stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
	}
}

type healthResponse struct {
	Status string    `json:"status"`
	Error  string    `json:"error,omitempty"`
	Pool   PoolStats `json:"pool"`
}

// HealthHandler pings the database and reports pool statistics.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), pingTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok", Pool: snapshot(pool)}
		if err := pool.Ping(ctx); err != nil {
			resp.Status = "unavailable"
			resp.Error = err.Error()
			return c.JSON(http.StatusServiceUnavailable, resp)
		}
		return c.JSON(http.StatusOK, resp)
	}
}

package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"campdesk/config"
	"campdesk/internal/api/handler"
	"campdesk/internal/api/middleware"
	"campdesk/pkg/jwt"
	"campdesk/pkg/redis"
)

// Setup builds the gin engine with every route mounted.
// db, rdb and gatherer may be nil; the corresponding probes and limits are then skipped.
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	db *gorm.DB,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	if cfg.Server.BodyLimit > 0 {
		r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	}

	// ── probes ──
	r.GET("/health", healthHandler(db))
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// mutating routes share one limiter
	var limited gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if cfg.RateLimit.Enabled && rdb != nil {
		limited = middleware.RateLimit(rdb, cfg.RateLimit.Limit, cfg.RateLimit.Window)
	}

	staffOrAdmin := middleware.RoleAuth(middleware.RoleAdmin, middleware.RoleStaff)
	adminOnly := middleware.RoleAuth(middleware.RoleAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
	{
		// verification + registration queries
		regs := v1.Group("/registrations")
		{
			regs.GET("", staffOrAdmin, h.Registration.ListRegistrations)
			regs.GET("/unallocated", staffOrAdmin, h.Registration.ListUnallocated)
			regs.POST("/verify-qr", staffOrAdmin, limited, h.Verification.VerifyQR)
			regs.GET("/:id", staffOrAdmin, h.Registration.GetRegistration)
			regs.GET("/:id/logs", adminOnly, h.Registration.ListLogs)
			regs.POST("/:id/verify", staffOrAdmin, limited, h.Verification.Verify)
			regs.GET("/:id/unverify-eligibility", staffOrAdmin, h.Verification.CheckUnverifyEligibility)
			regs.POST("/:id/unverify", staffOrAdmin, limited, h.Verification.Unverify)
		}

		// allocation engine
		allocs := v1.Group("/allocations", adminOnly)
		{
			allocs.POST("/auto", limited, h.Allocation.AutoAllocate)
			allocs.POST("/empty", limited, h.Allocation.EmptyAllRooms)
			allocs.POST("", limited, h.Allocation.ManualAllocate)
			allocs.DELETE("/:registration_id", limited, h.Allocation.RemoveAllocation)
		}

		// rooms
		rooms := v1.Group("/rooms")
		{
			rooms.GET("", staffOrAdmin, h.Room.ListRooms)
			rooms.GET("/:id", staffOrAdmin, h.Room.GetRoom)
			rooms.POST("", adminOnly, limited, h.Room.CreateRoom)
			rooms.PUT("/:id", adminOnly, limited, h.Room.UpdateRoom)
			rooms.DELETE("/:id", adminOnly, limited, h.Room.DeleteRoom)
		}

		// aggregates
		accommodation := v1.Group("/accommodation")
		{
			accommodation.GET("/stats", staffOrAdmin, h.Accommodation.GetStats)
			accommodation.GET("/export", adminOnly, h.Accommodation.ExportRoster)
		}
	}

	return r
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "ok"})
	}
}

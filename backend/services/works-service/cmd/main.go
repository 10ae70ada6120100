// backend/services/works-service/cmd/main.go

package main

import (
	"context"
	"net/http"
	_ "time/tzdata"

	"github.com/gorilla/mux"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"
	"github.com/shiftly/mono-repo/backend/shared/go-middleware"
	"github.com/shiftly/mono-repo/backend/shared/go-utils"

	"github.com/shiftly/mono-repo/backend/services/works-service/internal/app"
	"github.com/shiftly/mono-repo/backend/services/works-service/internal/config"
	"github.com/shiftly/mono-repo/backend/services/works-service/internal/controllers"
	"github.com/shiftly/mono-repo/backend/services/works-service/internal/services"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize works-service:", err)
	}
	defer application.Close()

	if cfg.LDFlag_SeedDbWithTestData {
		if err := app.SeedAllTestData(context.Background(), application.Works); err != nil {
			utils.Logger.WithError(err).Fatal("Failed to seed test data")
		} else {
			utils.Logger.Info("Seeded test data successfully")
		}
	}

	limiter := services.NewAttemptLimiter(cfg.LDFlag_CompletionAttemptLimit, cfg.LDFlag_CompletionAttemptWindow)
	if limiter == nil {
		utils.Logger.Info("Completion attempt throttle disabled")
	}
	workService := services.NewWorkService(application.Works, services.WithAttemptLimiter(limiter))
	auditService := services.NewAuditService(application.Works)

	// A nil *pgxpool.Pool must not become a non-nil Pinger.
	var pinger controllers.Pinger
	if application.DB != nil {
		pinger = application.DB
	}

	var auth mux.MiddlewareFunc
	if cfg.RSAPublicKey != nil {
		auth = middleware.AuthMiddleware(cfg.RSAPublicKey, cfg.TokenIssuer)
	} else {
		utils.Logger.Warn("RSA_PUBLIC_KEY not set; works routes are unauthenticated")
	}

	router := controllers.NewRouter(
		controllers.NewWorksController(workService),
		controllers.NewHealthController(pinger),
		auth,
	)

	c := cron.New()
	_, auditErr := c.AddFunc(cfg.AuditSchedule, func() {
		if _, e := auditService.RunActiveSlotAudit(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Active slot audit failed")
		}
	})
	if auditErr != nil {
		utils.Logger.WithError(auditErr).Fatal("Failed to schedule active slot audit cron")
	}
	c.Start()
	defer c.Stop()

	allowedOrigins := []string{cfg.AppUrl}
	if !cfg.LDFlag_CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, utils.CORSLowSecurityAllowedOriginLocalhost)
	}

	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("works-service failed to start:", err)
	}
}

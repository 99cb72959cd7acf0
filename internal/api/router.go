package api

import (
	"fmt"
	"log"
	"net/http"
	"time"

	_ "github.com/kedarnathdev/protectedData/docs"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/kedarnathdev/protectedData/internal/api/handlers"
	"github.com/kedarnathdev/protectedData/internal/api/middleware"
	"github.com/kedarnathdev/protectedData/internal/config"
	"github.com/rs/cors"
)

func SetupRouter() http.Handler {
	mainMux := http.NewServeMux()
	c := cors.New(config.Envs.CorsConfig)

	// General traffic cap plus a tighter cap on operations worth
	// brute-forcing (creation, password checks, admin login).
	general := middleware.NewRateLimiter(100, 15*time.Minute)
	sensitive := middleware.NewRateLimiter(10, 15*time.Minute)

	// ---------- PUBLIC ROUTES ----------
	mainMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	mainMux.HandleFunc("/docs/", httpSwagger.WrapHandler)

	mainMux.Handle("/api/shorten", sensitive.Limit(http.HandlerFunc(handlers.CreateDrop)))
	mainMux.HandleFunc("/api/search", handlers.SearchBySerial)
	mainMux.Handle("/api/{shortId}/verify", sensitive.Limit(http.HandlerFunc(handlers.VerifyDrop)))
	mainMux.HandleFunc("/api/{shortId}/download", handlers.DownloadDrop)

	mainMux.Handle("/api/admin/login", sensitive.Limit(http.HandlerFunc(handlers.AdminLogin)))

	// ---------- ADMIN ROUTES ----------
	// Exact patterns: a catch-all /api/admin/ prefix would collide with the
	// /api/{shortId}/... wildcards above.
	mainMux.Handle("/api/admin/urls",
		middleware.AdminAuth(http.HandlerFunc(handlers.AdminListDrops)))
	mainMux.Handle("/api/admin/urls/{id}",
		middleware.AdminAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPut:
				handlers.AdminUpdateDrop(w, r)
			case http.MethodDelete:
				handlers.AdminDeleteDrop(w, r)
			default:
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
		})))

	// Verification page shell for shared links
	mainMux.HandleFunc("/{shortId}", handlers.DropPage)

	log.Println("Router initialized")
	handler := c.Handler(general.Limit(mainMux))
	handler = middleware.Logger(handler)
	return handler
}

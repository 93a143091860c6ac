package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/iothub/internal/relay/secrets"
	"github.com/aussiebroadwan/iothub/internal/relay/service"
	"github.com/aussiebroadwan/iothub/pkg/httpx"
	"github.com/aussiebroadwan/iothub/pkg/slogx"

	_ "github.com/aussiebroadwan/iothub/api/relay" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	secretSource secrets.Source
	brokerParam  string

	RelayService *service.RelayService
	ResetService *service.ResetService
}

func NewRouter(
	buildVersion string,
	secretSource secrets.Source,
	brokerParam string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		secretSource: secretSource,
		brokerParam:  brokerParam,
	}

	// Default middleware chain. CORS is global: the relay is called from
	// browser clients hosted on a different origin.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.CORS(),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerCommands()
	r.registerReset()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			IoT Hub Relay API
//	@version		0.1.0
//	@description	Relays authenticated device commands to the MQTT control broker and
//	@description	hosts the admin escalation endpoint for expired temporary passwords.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/iothub
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerCommands() {
	h := &CommandHandler{RelayService: r.RelayService}

	// POST /set-led - strict rate limit (each request opens a broker session)
	r.Mux.Handle("POST /set-led",
		httpx.Chain(http.HandlerFunc(h.HandleSetLED),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerReset() {
	h := &ResetHandler{ResetService: r.ResetService}

	// POST /reset-expired-password - strict rate limit (admin-side identity operation)
	r.Mux.Handle("POST /reset-expired-password",
		httpx.Chain(http.HandlerFunc(h.HandleReset),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.secretSource, r.brokerParam),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

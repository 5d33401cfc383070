package server

import (
	nethttp "net/http"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/orphancare/charity-service/internal/conf"
	"github.com/orphancare/charity-service/internal/service"
	"github.com/orphancare/charity-service/pkg/auth"
)

// NewHTTPServer new an HTTP server.
// /healthz and /metrics bypass the middleware chain and need no token.
func NewHTTPServer(c *conf.Server, ac *conf.Auth, sponsorship *service.SponsorshipService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
			auth.Server(ac.JWTSecret),
			auth.Authorize(operationRoles()),
		),
	}
	if c.HTTP != nil {
		if c.HTTP.Network != "" {
			opts = append(opts, http.Network(c.HTTP.Network))
		}
		if c.HTTP.Addr != "" {
			opts = append(opts, http.Address(c.HTTP.Addr))
		}
		if d := c.HTTP.Timeout.AsDuration(); d > 0 {
			opts = append(opts, http.Timeout(d))
		}
	}
	srv := http.NewServer(opts...)
	srv.Handle("/metrics", promhttp.Handler())
	srv.HandleFunc("/healthz", func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.WriteHeader(nethttp.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	service.RegisterSponsorshipHTTPServer(srv, sponsorship)
	return srv
}

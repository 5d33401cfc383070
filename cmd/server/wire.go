//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/registry"
	"github.com/google/wire"

	"github.com/orphancare/charity-service/internal/biz"
	"github.com/orphancare/charity-service/internal/conf"
	"github.com/orphancare/charity-service/internal/data"
	"github.com/orphancare/charity-service/internal/job"
	"github.com/orphancare/charity-service/internal/metrics"
	"github.com/orphancare/charity-service/internal/server"
	"github.com/orphancare/charity-service/internal/service"
)

// wireApp init kratos application.
func wireApp(*conf.Server, *conf.Data, *conf.RocketMQ, *conf.Auth, *conf.Job, registry.Registrar, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		metrics.ProviderSet,
		data.ProviderSet,
		biz.ProviderSet,
		service.ProviderSet,
		server.ProviderSet,
		job.ProviderSet,
		newApp,
	))
}

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go-kratos/kratos/contrib/config/apollo/v2"
	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/registry"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/go-kratos/kratos/v2/transport/grpc"
	"github.com/go-kratos/kratos/v2/transport/http"
	_ "go.uber.org/automaxprocs"

	"github.com/orphancare/charity-service/internal/conf"
	"github.com/orphancare/charity-service/internal/job"
	"github.com/orphancare/charity-service/pkg/env"
	zapLog "github.com/orphancare/charity-service/pkg/log"
	nacosRegistry "github.com/orphancare/charity-service/pkg/registry"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name is the name of the compiled software.
	Name string
	// Version is the version of the compiled software.
	Version string
	// id is the service instance id.
	id string
	// Command line flags
	flagConf string
)

func init() {
	var err error
	id, err = os.Hostname()
	if err != nil {
		id = "unknown"
	}

	if Name == "" {
		Name = env.GetOrDefault("SERVICE_NAME", "charity-service")
	}

	if Version == "" {
		Version = env.GetOrDefault("SERVICE_VERSION", "0.0.1")
	}
}

func newApp(logger log.Logger, gs *grpc.Server, hs *http.Server, r registry.Registrar, jobs *job.Registry) *kratos.App {
	servers := []transport.Server{gs, hs}
	servers = append(servers, jobs.Servers()...)
	opts := []kratos.Option{
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(servers...),
	}
	if r != nil {
		opts = append(opts, kratos.Registrar(r))
	}
	return kratos.New(opts...)
}

func main() {
	flag.StringVar(&flagConf, "conf", "", "config file path (e.g., ./configs/config.yaml)")
	flag.Parse()

	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	zl := zapLog.New(env.GetOrDefault("LOG_FORMAT", zapLog.FormatConsole), zapLog.ParseLevel(env.GetOrDefault("LOG_LEVEL", "info")))
	defer func() { _ = zl.Sync() }()
	logger := log.With(zl, "service.name", Name, "service.version", Version)
	logHelper := log.NewHelper(logger)

	// Load configuration
	bc, cleanup, err := loadConfig()
	if err != nil {
		logHelper.Errorf("failed to load config: %v", err)
		return err
	}
	defer cleanup()

	if err := resolveAuth(bc); err != nil {
		logHelper.Errorf("invalid auth config: %v", err)
		return err
	}

	var r registry.Registrar
	if nacosRegistry.NacosEnabled() {
		nr, err := nacosRegistry.NewNacosRegistryFromEnv()
		if err != nil {
			logHelper.Errorf("failed to create nacos registry: %v", err)
			return err
		}
		r = nr
	} else {
		logHelper.Warnf("%s not set, running without service registration", nacosRegistry.EnvNacosServerAddrs)
	}

	app, appCleanup, err := wireApp(bc.Server, bc.Data, bc.RocketMQ, bc.Auth, bc.Job, r, logger)
	if err != nil {
		logHelper.Errorf("failed to wire app: %v", err)
		return err
	}
	defer appCleanup()

	// start and wait for stop signal
	if err := app.Run(); err != nil {
		logHelper.Errorf("app exited with error: %v", err)
		return err
	}
	return nil
}

// resolveAuth lets JWT_SECRET override the configured signing secret.
// One of the two must be set.
func resolveAuth(bc *conf.Bootstrap) error {
	if bc.Auth == nil {
		bc.Auth = &conf.Auth{}
	}
	secret, err := env.Require("JWT_SECRET")
	switch {
	case err == nil:
		bc.Auth.JWTSecret = secret
	case bc.Auth.JWTSecret == "":
		return fmt.Errorf("%w and auth.jwt_secret is empty", err)
	}
	return nil
}

// configSource picks the config source.
// Priority: -conf flag > CONFIG_FILE env > Apollo. The Apollo namespace keeps
// the service config under the "bootstrap" key.
func configSource() (source config.Source, key string) {
	confFile := flagConf
	if confFile == "" {
		confFile = env.Get("CONFIG_FILE")
	}
	if confFile != "" {
		return file.NewSource(confFile), ""
	}
	return apollo.NewSource(
		apollo.WithAppID(env.GetOrDefault("APOLLO_APP_ID", Name)),
		apollo.WithCluster(env.GetOrDefault("APOLLO_CLUSTER", "dev")),
		apollo.WithEndpoint(env.GetOrDefault("APOLLO_ENDPOINT", "http://localhost:8080")),
		apollo.WithNamespace(env.GetOrDefault("APOLLO_NAMESPACE", "application,bootstrap.yaml")),
		apollo.WithSecret(env.Get("APOLLO_SECRET")),
	), "bootstrap"
}

func loadConfig() (*conf.Bootstrap, func(), error) {
	source, key := configSource()
	c := config.New(config.WithSource(source))
	if err := c.Load(); err != nil {
		return nil, nil, err
	}

	var bc conf.Bootstrap
	var err error
	if key == "" {
		err = c.Scan(&bc)
	} else {
		err = c.Value(key).Scan(&bc)
	}
	if err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	return &bc, func() { _ = c.Close() }, nil
}

package registry

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/nacos-group/nacos-sdk-go/clients"
	"github.com/nacos-group/nacos-sdk-go/clients/naming_client"
	"github.com/nacos-group/nacos-sdk-go/common/constant"
	"github.com/nacos-group/nacos-sdk-go/vo"

	"github.com/orphancare/charity-service/pkg/env"
	"github.com/orphancare/charity-service/pkg/registry/nacos"
)

// Environment variable keys for Nacos configuration.
const (
	EnvNacosServerAddrs = "NACOS_SERVER_ADDRS" // e.g. "10.0.0.1:8848,10.0.0.2"
	EnvNacosNamespaceID = "NACOS_NAMESPACE_ID"
	EnvNacosLogDir      = "NACOS_LOG_DIR"
	EnvNacosCacheDir    = "NACOS_CACHE_DIR"
	EnvNacosLogLevel    = "NACOS_LOG_LEVEL" // debug, info, warn, error
	EnvNacosGroup       = "NACOS_GROUP"
	EnvNacosCluster     = "NACOS_CLUSTER"
	EnvNacosWeight      = "NACOS_WEIGHT"
)

// Default values for Nacos configuration.
const (
	DefaultNacosPort     uint64 = 8848
	DefaultNacosLogDir          = "/tmp/nacos/log"
	DefaultNacosCacheDir        = "/tmp/nacos/cache"
	DefaultNacosLogLevel        = "warn"
	DefaultNacosGroup           = "DEFAULT_GROUP"
	DefaultNacosCluster         = "DEFAULT"
	DefaultNacosWeight          = 100
)

// NacosConfig holds the configuration for Nacos client and registrar.
type NacosConfig struct {
	ServerAddrs []ServerAddr
	NamespaceID string
	LogDir      string
	CacheDir    string
	LogLevel    string
	Group       string
	Cluster     string
	Weight      float64
}

// ServerAddr represents a Nacos server address.
type ServerAddr struct {
	IP   string
	Port uint64
}

// NacosEnabled reports whether a Nacos server is configured. Without one the
// service runs unregistered.
func NacosEnabled() bool {
	return strings.TrimSpace(env.Get(EnvNacosServerAddrs)) != ""
}

// NewNacosConfigFromEnv reads a NacosConfig from environment variables.
// NACOS_SERVER_ADDRS must name at least one server.
func NewNacosConfigFromEnv() (*NacosConfig, error) {
	addrs, err := parseServerAddrs(env.Get(EnvNacosServerAddrs))
	if err != nil {
		return nil, err
	}

	weight := float64(DefaultNacosWeight)
	if raw := env.Get(EnvNacosWeight); raw != "" {
		weight, err = strconv.ParseFloat(raw, 64)
		if err != nil || weight <= 0 {
			return nil, fmt.Errorf("invalid %s %q", EnvNacosWeight, raw)
		}
	}

	return &NacosConfig{
		ServerAddrs: addrs,
		NamespaceID: env.Get(EnvNacosNamespaceID),
		LogDir:      env.GetOrDefault(EnvNacosLogDir, DefaultNacosLogDir),
		CacheDir:    env.GetOrDefault(EnvNacosCacheDir, DefaultNacosCacheDir),
		LogLevel:    env.GetOrDefault(EnvNacosLogLevel, DefaultNacosLogLevel),
		Group:       env.GetOrDefault(EnvNacosGroup, DefaultNacosGroup),
		Cluster:     env.GetOrDefault(EnvNacosCluster, DefaultNacosCluster),
		Weight:      weight,
	}, nil
}

// parseServerAddrs parses a comma-separated list of "host[:port]" entries.
func parseServerAddrs(addrs string) ([]ServerAddr, error) {
	var result []ServerAddr
	for _, part := range strings.Split(addrs, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		addr, err := parseServerAddr(part)
		if err != nil {
			return nil, err
		}
		result = append(result, addr)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%s is empty", EnvNacosServerAddrs)
	}
	return result, nil
}

// parseServerAddr parses "host", "host:port" or "[v6]:port".
func parseServerAddr(addr string) (ServerAddr, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		// no port
		return ServerAddr{IP: strings.Trim(addr, "[]"), Port: DefaultNacosPort}, nil
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil || port == 0 {
		return ServerAddr{}, fmt.Errorf("invalid nacos server port in %q", addr)
	}
	return ServerAddr{IP: host, Port: port}, nil
}

// NewNacosNamingClient creates a Nacos naming client from configuration.
func NewNacosNamingClient(cfg *NacosConfig) (naming_client.INamingClient, error) {
	serverConfigs := make([]constant.ServerConfig, 0, len(cfg.ServerAddrs))
	for _, addr := range cfg.ServerAddrs {
		serverConfigs = append(serverConfigs, constant.ServerConfig{IpAddr: addr.IP, Port: addr.Port})
	}

	clientConfig := &constant.ClientConfig{
		NamespaceId:         cfg.NamespaceID,
		NotLoadCacheAtStart: true,
		LogDir:              cfg.LogDir,
		CacheDir:            cfg.CacheDir,
		LogLevel:            cfg.LogLevel,
	}

	return clients.NewNamingClient(vo.NacosClientParam{
		ClientConfig:  clientConfig,
		ServerConfigs: serverConfigs,
	})
}

// NewNacosRegistry creates a Kratos registrar using Nacos.
func NewNacosRegistry(client naming_client.INamingClient, cfg *NacosConfig) *nacos.Registry {
	return nacos.New(client,
		nacos.WithGroup(cfg.Group),
		nacos.WithCluster(cfg.Cluster),
		nacos.WithWeight(cfg.Weight),
	)
}

// NewNacosRegistryFromEnv builds the registrar from environment variables.
func NewNacosRegistryFromEnv() (*nacos.Registry, error) {
	cfg, err := NewNacosConfigFromEnv()
	if err != nil {
		return nil, err
	}
	client, err := NewNacosNamingClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create nacos naming client: %w", err)
	}
	return NewNacosRegistry(client, cfg), nil
}

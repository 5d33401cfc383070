// Package nacos registers service instances in Nacos. The service only
// announces itself, it never discovers others.
package nacos

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net"
	"net/url"
	"strconv"

	"github.com/go-kratos/kratos/v2/registry"
	"github.com/nacos-group/nacos-sdk-go/clients/naming_client"
	"github.com/nacos-group/nacos-sdk-go/common/constant"
	"github.com/nacos-group/nacos-sdk-go/vo"
)

var (
	ErrServiceInstanceNameEmpty = errors.New("kratos/nacos: ServiceInstance.Name can not be empty")
	ErrInvalidPort              = errors.New("kratos/nacos: invalid port number")
)

var _ registry.Registrar = (*Registry)(nil)

type options struct {
	weight  float64
	cluster string
	group   string
}

// Option is nacos option.
type Option func(o *options)

// WithWeight with weight option.
func WithWeight(weight float64) Option {
	return func(o *options) { o.weight = weight }
}

// WithCluster with cluster option.
func WithCluster(cluster string) Option {
	return func(o *options) { o.cluster = cluster }
}

// WithGroup with group option.
func WithGroup(group string) Option {
	return func(o *options) { o.group = group }
}

// Registry is a nacos registrar.
type Registry struct {
	opts options
	cli  naming_client.INamingClient
}

// New new a nacos registry.
func New(cli naming_client.INamingClient, opts ...Option) *Registry {
	op := options{
		cluster: "DEFAULT",
		group:   constant.DEFAULT_GROUP,
		weight:  100,
	}
	for _, option := range opts {
		option(&op)
	}
	return &Registry{
		opts: op,
		cli:  cli,
	}
}

// buildMetadata builds the metadata map for registration.
// A "weight" entry in the instance metadata overrides the configured weight.
func (r *Registry) buildMetadata(si *registry.ServiceInstance, scheme string) (map[string]string, float64) {
	weight := r.opts.weight
	md := map[string]string{}
	if si.Metadata != nil {
		md = maps.Clone(si.Metadata)
		if w, ok := si.Metadata["weight"]; ok {
			if parsed, err := strconv.ParseFloat(w, 64); err == nil {
				weight = parsed
			}
		}
	}
	md["kind"] = scheme
	md["version"] = si.Version
	return md, weight
}

// parseEndpoint splits an endpoint such as "grpc://10.0.0.1:9000".
func parseEndpoint(endpoint string) (scheme, host string, port uint64, err error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", "", 0, err
	}
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		return "", "", 0, err
	}
	port, err = strconv.ParseUint(portStr, 10, 16)
	if err != nil || port == 0 {
		return "", "", 0, fmt.Errorf("%w: %q", ErrInvalidPort, portStr)
	}
	return u.Scheme, host, port, nil
}

// Register registers one nacos instance per endpoint, named <name>.<scheme>.
func (r *Registry) Register(_ context.Context, si *registry.ServiceInstance) error {
	if si.Name == "" {
		return ErrServiceInstanceNameEmpty
	}
	for _, endpoint := range si.Endpoints {
		scheme, host, port, err := parseEndpoint(endpoint)
		if err != nil {
			return err
		}
		md, weight := r.buildMetadata(si, scheme)
		_, err = r.cli.RegisterInstance(vo.RegisterInstanceParam{
			Ip:          host,
			Port:        port,
			ServiceName: si.Name + "." + scheme,
			Weight:      weight,
			Enable:      true,
			Healthy:     true,
			Ephemeral:   true,
			Metadata:    md,
			ClusterName: r.opts.cluster,
			GroupName:   r.opts.group,
		})
		if err != nil {
			return fmt.Errorf("register instance %s: %w", endpoint, err)
		}
	}
	return nil
}

// Deregister removes the instances added by Register.
func (r *Registry) Deregister(_ context.Context, si *registry.ServiceInstance) error {
	for _, endpoint := range si.Endpoints {
		scheme, host, port, err := parseEndpoint(endpoint)
		if err != nil {
			return err
		}
		if _, err = r.cli.DeregisterInstance(vo.DeregisterInstanceParam{
			Ip:          host,
			Port:        port,
			ServiceName: si.Name + "." + scheme,
			GroupName:   r.opts.group,
			Cluster:     r.opts.cluster,
			Ephemeral:   true,
		}); err != nil {
			return fmt.Errorf("deregister instance %s: %w", endpoint, err)
		}
	}
	return nil
}

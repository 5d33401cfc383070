package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServerAddrs(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []ServerAddr
		wantErr bool
	}{
		{name: "empty", input: "", wantErr: true},
		{name: "only commas", input: ",,,", wantErr: true},
		{name: "host without port", input: "10.0.0.1", want: []ServerAddr{{IP: "10.0.0.1", Port: 8848}}},
		{name: "host with port", input: "10.0.0.1:9848", want: []ServerAddr{{IP: "10.0.0.1", Port: 9848}}},
		{
			name:  "mixed list with blanks",
			input: " nacos-0:8848 ,, nacos-1 ",
			want:  []ServerAddr{{IP: "nacos-0", Port: 8848}, {IP: "nacos-1", Port: 8848}},
		},
		{name: "ipv6 with port", input: "[::1]:8849", want: []ServerAddr{{IP: "::1", Port: 8849}}},
		{name: "bracketed ipv6 without port", input: "[::1]", want: []ServerAddr{{IP: "::1", Port: 8848}}},
		{name: "non numeric port", input: "10.0.0.1:abc", wantErr: true},
		{name: "port out of range", input: "10.0.0.1:70000", wantErr: true},
		{name: "zero port", input: "10.0.0.1:0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseServerAddrs(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewNacosConfigFromEnv(t *testing.T) {
	t.Run("requires a server", func(t *testing.T) {
		t.Setenv(EnvNacosServerAddrs, "")
		assert.False(t, NacosEnabled())

		_, err := NewNacosConfigFromEnv()
		assert.Error(t, err)
	})

	t.Run("defaults", func(t *testing.T) {
		t.Setenv(EnvNacosServerAddrs, "nacos:8848")
		for _, k := range []string{EnvNacosNamespaceID, EnvNacosLogDir, EnvNacosCacheDir, EnvNacosLogLevel, EnvNacosGroup, EnvNacosCluster, EnvNacosWeight} {
			t.Setenv(k, "")
		}

		cfg, err := NewNacosConfigFromEnv()
		require.NoError(t, err)
		assert.True(t, NacosEnabled())
		assert.Equal(t, &NacosConfig{
			ServerAddrs: []ServerAddr{{IP: "nacos", Port: 8848}},
			LogDir:      DefaultNacosLogDir,
			CacheDir:    DefaultNacosCacheDir,
			LogLevel:    DefaultNacosLogLevel,
			Group:       DefaultNacosGroup,
			Cluster:     DefaultNacosCluster,
			Weight:      DefaultNacosWeight,
		}, cfg)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv(EnvNacosServerAddrs, "10.0.0.1,10.0.0.2:9848")
		t.Setenv(EnvNacosNamespaceID, "charity-prod")
		t.Setenv(EnvNacosLogDir, "/var/log/nacos")
		t.Setenv(EnvNacosCacheDir, "/var/cache/nacos")
		t.Setenv(EnvNacosLogLevel, "debug")
		t.Setenv(EnvNacosGroup, "charity")
		t.Setenv(EnvNacosCluster, "eu-west")
		t.Setenv(EnvNacosWeight, "50")

		cfg, err := NewNacosConfigFromEnv()
		require.NoError(t, err)
		assert.Equal(t, []ServerAddr{{IP: "10.0.0.1", Port: 8848}, {IP: "10.0.0.2", Port: 9848}}, cfg.ServerAddrs)
		assert.Equal(t, "charity-prod", cfg.NamespaceID)
		assert.Equal(t, "/var/log/nacos", cfg.LogDir)
		assert.Equal(t, "/var/cache/nacos", cfg.CacheDir)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "charity", cfg.Group)
		assert.Equal(t, "eu-west", cfg.Cluster)
		assert.Equal(t, 50.0, cfg.Weight)
	})

	t.Run("bad weight", func(t *testing.T) {
		t.Setenv(EnvNacosServerAddrs, "nacos")
		t.Setenv(EnvNacosWeight, "-1")

		_, err := NewNacosConfigFromEnv()
		assert.Error(t, err)
	})
}

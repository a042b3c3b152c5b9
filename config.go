package wttp

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/perma-web/wttp/pkg/access"
	"github.com/perma-web/wttp/pkg/headers"
	"github.com/perma-web/wttp/pkg/logging"
	"github.com/perma-web/wttp/pkg/types"
)

// Config configures a site. Only Paths[0] is used at the moment; future
// versions may use multiple paths for sharding or tiering.
type Config struct {
	// Paths contains data directories. Currently only Paths[0] is used.
	Paths []string
	// MinimumFreeGB is a free-space threshold for on-disk operations.
	MinimumFreeGB int
	// Logger is an optional structured logger. If nil, a stderr logger is
	// used.
	Logger *logrus.Logger
	// DefaultHeader governs every path that has no header of its own. It
	// is fixed for the site's lifetime. If nil, a public read-write
	// header is used.
	DefaultHeader *types.HeaderInfo
	// RoyaltyRate is the per-byte royalty charged when already-registered
	// content is re-registered by a different publisher.
	RoyaltyRate uint64
	// Roles answers role-membership queries. If nil, the site owns an
	// in-process registry.
	Roles access.RoleRegistry
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = logging.NewLogger()
	}
	if c.DefaultHeader == nil {
		h := headers.NewHeader(types.CachePresetNone, types.CORSPresetPublicReadWrite, types.Role{})
		c.DefaultHeader = &h
	}
	if c.Roles == nil {
		c.Roles = access.NewMemoryRoles()
	}
	return c
}

// FileConfig is the YAML shape the cmd tools read.
type FileConfig struct {
	Paths         []string `yaml:"paths"`
	MinimumFreeGB int      `yaml:"minimumFreeGB"`
	RoyaltyRate   uint64   `yaml:"royaltyRate"`
}

// LoadConfig reads a YAML site configuration.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("error reading config %s: %w", path, err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return Config{}, fmt.Errorf("error parsing config %s: %w", path, err)
	}

	return Config{
		Paths:         fc.Paths,
		MinimumFreeGB: fc.MinimumFreeGB,
		RoyaltyRate:   fc.RoyaltyRate,
	}, nil
}

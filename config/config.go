// Package config 读取命名的数据库连接配置
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"gopkg.in/yaml.v3"

	"github.com/startdusk/sequel/internal/errs"
)

type Config struct {
	// Default 是不指定名字时使用的连接, 只有一个连接时可以省略
	Default     string                `yaml:"default"`
	Connections map[string]Connection `yaml:"connections"`
}

type Connection struct {
	Driver string `yaml:"driver"`
	// DSN 支持 ${ENV} 形式的环境变量
	DSN string `yaml:"dsn"`
	// Dialect 为空时按 Driver 推断
	Dialect string `yaml:"dialect"`

	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	for name, conn := range cfg.Connections {
		conn.DSN = os.ExpandEnv(conn.DSN)
		if err := conn.Validate(); err != nil {
			return nil, fmt.Errorf("config: connection %s: %w", name, err)
		}
		cfg.Connections[name] = conn
	}
	if cfg.Default == "" && len(cfg.Connections) == 1 {
		for name := range cfg.Connections {
			cfg.Default = name
		}
	}
	if cfg.Default != "" {
		if _, ok := cfg.Connections[cfg.Default]; !ok {
			return nil, fmt.Errorf("config: default connection %s: %w", cfg.Default, ErrUnknownConnection)
		}
	}
	return &cfg, nil
}

var ErrUnknownConnection = fmt.Errorf("%w: unknown connection", errs.ErrArgument)

// Connection 按名字查找连接, 名字为空时返回默认连接
func (c *Config) Connection(name string) (Connection, error) {
	if name == "" {
		name = c.Default
	}
	conn, ok := c.Connections[name]
	if !ok {
		return Connection{}, fmt.Errorf("config: %w %q", ErrUnknownConnection, name)
	}
	return conn, nil
}

func (c Connection) Validate() error {
	if c.Driver == "" {
		return fmt.Errorf("%w: driver is required", errs.ErrArgument)
	}
	if c.DSN == "" {
		return fmt.Errorf("%w: dsn is required", errs.ErrArgument)
	}
	switch c.Driver {
	case "mysql":
		if _, err := mysql.ParseDSN(c.DSN); err != nil {
			return fmt.Errorf("%w: %w", errs.ErrArgument, err)
		}
	case "postgres":
		if strings.HasPrefix(c.DSN, "postgres://") || strings.HasPrefix(c.DSN, "postgresql://") {
			if _, err := pq.ParseURL(c.DSN); err != nil {
				return fmt.Errorf("%w: %w", errs.ErrArgument, err)
			}
		}
	}
	return nil
}

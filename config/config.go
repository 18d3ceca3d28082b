package config

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// SysConfig system settings
type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	NodeID   int64  `yaml:"node_id"` // snowflake node number, 0-1023
	Debug    bool   `yaml:"debug"`
	SeedDemo bool   `yaml:"seed_demo"` // insert demo products into an empty catalog
}

// WebConfig admin api server settings
type WebConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Timeout int    `yaml:"timeout"` // read and write timeout in seconds
}

// DBConfig database settings
type DBConfig struct {
	Type     string `yaml:"type"` // postgres | sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
}

// LogConfig logging settings
type LogConfig struct {
	Mode       string `yaml:"mode"` // development | production
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

type AppConfig struct {
	System   SysConfig `yaml:"system"`
	Web      WebConfig `yaml:"web"`
	Database DBConfig  `yaml:"database"`
	Logger   LogConfig `yaml:"logger"`
}

// GetLogDir returns the log directory under the work directory
func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

// GetDataDir returns the data directory under the work directory
func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}

// WebAddr returns host:port of the admin api listener
func (c *AppConfig) WebAddr() string {
	return fmt.Sprintf("%s:%d", c.Web.Host, c.Web.Port)
}

func (c *AppConfig) initDirs() {
	_ = os.MkdirAll(c.GetLogDir(), 0o755)
	_ = os.MkdirAll(c.GetDataDir(), 0o755)
}

// DefaultAppConfig returns a config that runs locally on sqlite
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		System: SysConfig{
			Appid:    "ToughCatalog",
			Location: "Asia/Jakarta",
			Workdir:  "/var/toughcatalog",
			NodeID:   1,
			Debug:    true,
			SeedDemo: true,
		},
		Web: WebConfig{
			Host:    "0.0.0.0",
			Port:    1826,
			Timeout: 30,
		},
		Database: DBConfig{
			Type:     "sqlite",
			Host:     "127.0.0.1",
			Port:     5432,
			Name:     "toughcatalog.db",
			User:     "postgres",
			Passwd:   "myroot",
			MaxConn:  100,
			IdleConn: 10,
			Debug:    false,
		},
		Logger: LogConfig{
			Mode:       "development",
			FileEnable: false,
			Filename:   "/var/toughcatalog/logs/toughcatalog.log",
		},
	}
}

// LoadConfig reads the yaml file when it exists, then applies environment
// overrides. An empty path means defaults plus environment.
func LoadConfig(cfile string) (*AppConfig, error) {
	cfg := DefaultAppConfig()
	if cfile != "" {
		data, err := os.ReadFile(cfile)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", cfile)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", cfile)
		}
	}
	applyEnv(cfg)
	cfg.Database.Type = strings.ToLower(strings.TrimSpace(cfg.Database.Type))
	return cfg, nil
}

// MustLoad is LoadConfig that also creates the work directories, for main.
func MustLoad(cfile string) *AppConfig {
	cfg, err := LoadConfig(cfile)
	if err != nil {
		panic(err)
	}
	cfg.initDirs()
	return cfg
}

func applyEnv(cfg *AppConfig) {
	setString := func(name string, dst *string) {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			if n, err := cast.ToIntE(v); err == nil {
				*dst = n
			}
		}
	}
	setBool := func(name string, dst *bool) {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			if b, err := cast.ToBoolE(v); err == nil {
				*dst = b
			}
		}
	}

	setString("TOUGHCATALOG_SYSTEM_WORKDIR", &cfg.System.Workdir)
	setString("TOUGHCATALOG_SYSTEM_LOCATION", &cfg.System.Location)
	setBool("TOUGHCATALOG_SYSTEM_DEBUG", &cfg.System.Debug)
	setBool("TOUGHCATALOG_SYSTEM_SEED_DEMO", &cfg.System.SeedDemo)
	if v, ok := os.LookupEnv("TOUGHCATALOG_SYSTEM_NODE_ID"); ok && v != "" {
		if n, err := cast.ToInt64E(v); err == nil {
			cfg.System.NodeID = n
		}
	}

	setString("TOUGHCATALOG_WEB_HOST", &cfg.Web.Host)
	setInt("TOUGHCATALOG_WEB_PORT", &cfg.Web.Port)

	setString("TOUGHCATALOG_DB_TYPE", &cfg.Database.Type)
	setString("TOUGHCATALOG_DB_HOST", &cfg.Database.Host)
	setInt("TOUGHCATALOG_DB_PORT", &cfg.Database.Port)
	setString("TOUGHCATALOG_DB_NAME", &cfg.Database.Name)
	setString("TOUGHCATALOG_DB_USER", &cfg.Database.User)
	setString("TOUGHCATALOG_DB_PWD", &cfg.Database.Passwd)
	setBool("TOUGHCATALOG_DB_DEBUG", &cfg.Database.Debug)

	setString("TOUGHCATALOG_LOGGER_MODE", &cfg.Logger.Mode)
	setBool("TOUGHCATALOG_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)
	setString("TOUGHCATALOG_LOGGER_FILENAME", &cfg.Logger.Filename)
}

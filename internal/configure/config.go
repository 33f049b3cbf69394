package configure

import (
	"bytes"
	"encoding/json"
	"os"
	"reflect"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/seventv/slide-inverter/task"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const EnvPrefix = "SI"

func checkErr(err error) {
	if err != nil {
		zap.S().Fatalw("config",
			"error", err,
		)
	}
}

// Default is the configuration before any file, flag or environment override.
func Default() Config {
	c := Config{
		Level:      "info",
		ConfigFile: "config.yaml",
	}

	c.Inversion.Foreground = "#FFFFFF"
	c.Inversion.Background = "#000000"
	c.Inversion.InvertImages = true
	c.Inversion.FileSuffix = task.DefaultFileSuffix
	c.Inversion.FolderName = task.DefaultFolderName
	c.Inversion.JPEGQuality = task.DefaultJPEGQuality
	c.Inversion.MaxImagePixels = task.DefaultMaxImagePixels

	c.Server.Bind = "0.0.0.0:3000"
	c.Server.MaxBodyBytes = 256 << 20
	c.Server.CacheSize = 16

	c.Health.Bind = "0.0.0.0:9000"
	c.Monitoring.Bind = "0.0.0.0:9100"

	return c
}

// New builds the config from defaults, the config file, flags and the
// environment. Flags are bound by name; aliases map a flag name onto a
// config key when the two differ.
func New(flags *pflag.FlagSet, aliases map[string]string) *Config {
	InitLogging("info")

	c, err := Load(flags, aliases)
	checkErr(err)

	InitLogging(c.Level)

	return c
}

func Load(flags *pflag.FlagSet, aliases map[string]string) (*Config, error) {
	config := viper.New()

	// Default config
	b, _ := json.Marshal(Default())
	tmp := viper.New()
	defaultConfig := bytes.NewReader(b)
	tmp.SetConfigType("json")
	if err := tmp.ReadConfig(defaultConfig); err != nil {
		return nil, err
	}
	if err := config.MergeConfigMap(tmp.AllSettings()); err != nil {
		return nil, err
	}

	if flags != nil {
		var err error
		flags.VisitAll(func(f *pflag.Flag) {
			key := f.Name
			if alias, ok := aliases[f.Name]; ok {
				key = alias
			}
			err = multierr.Append(err, config.BindPFlag(key, f))
		})
		if err != nil {
			return nil, err
		}
	}

	// Environment
	config.SetEnvPrefix(EnvPrefix)
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AllowEmptyEnv(true)
	config.AutomaticEnv()

	bindEnvs(config, Config{})

	// File
	if file := config.GetString("config"); file != "" {
		if _, err := os.Stat(file); err == nil {
			config.SetConfigFile(file)
			if err := config.MergeInConfig(); err != nil {
				return nil, err
			}
		}
	}

	c := &Config{}
	if err := config.Unmarshal(c); err != nil {
		return nil, err
	}

	return c, nil
}

func bindEnvs(config *viper.Viper, iface interface{}, parts ...string) {
	ifv := reflect.ValueOf(iface)
	ift := reflect.TypeOf(iface)
	for i := 0; i < ift.NumField(); i++ {
		v := ifv.Field(i)
		t := ift.Field(i)
		tv, ok := t.Tag.Lookup("mapstructure")
		if !ok {
			continue
		}
		switch v.Kind() {
		case reflect.Struct:
			bindEnvs(config, v.Interface(), append(parts, tv)...)
		default:
			_ = config.BindEnv(strings.Join(append(parts, tv), "."))
		}
	}
}

type Config struct {
	Level      string `mapstructure:"level" json:"level"`
	ConfigFile string `mapstructure:"config" json:"config"`
	NoHeader   bool   `mapstructure:"noheader" json:"noheader"`

	Worker struct {
		Jobs int `mapstructure:"jobs" json:"jobs"`
	} `mapstructure:"worker" json:"worker"`

	Inversion Inversion `mapstructure:"inversion" json:"inversion"`

	Output struct {
		Path     string `mapstructure:"path" json:"path"`
		Progress bool   `mapstructure:"progress" json:"progress"`
	} `mapstructure:"output" json:"output"`

	Server struct {
		Bind         string `mapstructure:"bind" json:"bind"`
		MaxBodyBytes int    `mapstructure:"max_body_bytes" json:"max_body_bytes"`
		CacheSize    int    `mapstructure:"cache_size" json:"cache_size"`
	} `mapstructure:"server" json:"server"`

	Health struct {
		Bind    string `mapstructure:"bind" json:"bind"`
		Enabled bool   `mapstructure:"enabled" json:"enabled"`
	} `mapstructure:"health" json:"health"`

	S3 struct {
		Region      string `mapstructure:"region" json:"region"`
		Endpoint    string `mapstructure:"endpoint" json:"endpoint"`
		AccessToken string `mapstructure:"access_token" json:"access_token"`
		SecretKey   string `mapstructure:"secret_key" json:"secret_key"`
	} `mapstructure:"s3" json:"s3"`

	Monitoring struct {
		Bind    string `mapstructure:"bind" json:"bind"`
		Enabled bool   `mapstructure:"enabled" json:"enabled"`
		Labels  Labels `mapstructure:"labels" json:"labels"`
	} `mapstructure:"monitoring" json:"monitoring"`
}

// Inversion holds the user facing color settings as strings.
type Inversion struct {
	Foreground   string `mapstructure:"foreground" json:"foreground"`
	Background   string `mapstructure:"background" json:"background"`
	InvertImages bool   `mapstructure:"invert_images" json:"invert_images"`
	FileSuffix   string `mapstructure:"file_suffix" json:"file_suffix"`
	FolderName   string `mapstructure:"folder_name" json:"folder_name"`
	JPEGQuality  int    `mapstructure:"jpeg_quality" json:"jpeg_quality"`

	MaxImagePixels int `mapstructure:"max_image_pixels" json:"max_image_pixels"`
}

// Build parses the colors and validates the result. Errors here are
// configuration mistakes and should stop the run before any work starts.
func (i Inversion) Build() (task.Config, error) {
	cfg, err := task.ConfigFromHex(i.Foreground, i.Background)
	if err != nil {
		return cfg, err
	}

	cfg.InvertImages = i.InvertImages
	cfg.FileSuffix = i.FileSuffix
	cfg.FolderName = i.FolderName
	cfg.JPEGQuality = i.JPEGQuality
	cfg.MaxImagePixels = i.MaxImagePixels

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

type Labels []struct {
	Key   string `mapstructure:"key" json:"key"`
	Value string `mapstructure:"value" json:"value"`
}

func (l Labels) ToPrometheus() prometheus.Labels {
	mp := prometheus.Labels{}

	for _, v := range l {
		mp[v.Key] = v.Value
	}

	return mp
}

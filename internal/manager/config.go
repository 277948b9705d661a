package manager

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type UISettings struct {
	InitialLevel int  `mapstructure:"initial_level" yaml:"initial_level"`
	ApplyOnStart bool `mapstructure:"apply_on_start" yaml:"apply_on_start"`
}

type DisplaySettings struct {
	Backends    []string      `mapstructure:"backends" yaml:"backends"`
	SysfsRoot   string        `mapstructure:"sysfs_root" yaml:"sysfs_root"`
	DDCUtilPath string        `mapstructure:"ddcutil_path" yaml:"ddcutil_path"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type OverlaySettings struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
	EwwPath string `mapstructure:"eww_path" yaml:"eww_path"`
}

type LogSettings struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// Settings is the decoded dusk.yaml.
type Settings struct {
	UI      UISettings      `mapstructure:"ui" yaml:"ui"`
	Display DisplaySettings `mapstructure:"display" yaml:"display"`
	Overlay OverlaySettings `mapstructure:"overlay" yaml:"overlay"`
	Log     LogSettings     `mapstructure:"log" yaml:"log"`
}

// Defaults returns the settings used when no config file exists.
func Defaults() Settings {
	s := Settings{
		UI: UISettings{InitialLevel: 50},
		Display: DisplaySettings{
			Backends:    []string{"backlight", "ddcutil"},
			SysfsRoot:   "/sys/class/backlight",
			DDCUtilPath: "ddcutil",
			Timeout:     3 * time.Second,
		},
		Overlay: OverlaySettings{Backend: "x11", EwwPath: "eww"},
		Log:     LogSettings{Level: "info"},
	}
	if runtime.GOOS == "windows" {
		s.Display.Backends = []string{"dxva2"}
		s.Overlay.Backend = "win32"
	}
	return s
}

// DefaultConfigPath is $XDG_CONFIG_HOME/dusk/dusk.yaml or the platform
// equivalent.
func DefaultConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	return filepath.Join(configDir, "dusk", "dusk.yaml")
}

type ConfigManager struct {
	mu   sync.Mutex
	v    *viper.Viper
	path string
}

func NewConfig(path string) *ConfigManager {
	if path == "" {
		path = DefaultConfigPath()
	}
	return &ConfigManager{path: path}
}

func (c *ConfigManager) Path() string { return c.path }

// Load reads the config file. A missing file is not an error; defaults and
// DUSK_* environment variables still apply.
func (c *ConfigManager) Load() (Settings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := viper.New()
	v.SetConfigFile(c.path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("dusk")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Defaults())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Settings{}, fmt.Errorf("failed to read config: %w", err)
		}
	}
	c.v = v
	return decode(v)
}

// Watch calls onChange with the re-read settings whenever the file changes.
// Load must have been called first.
func (c *ConfigManager) Watch(onChange func(Settings, error)) {
	c.mu.Lock()
	v := c.v
	c.mu.Unlock()
	if v == nil {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		onChange(decode(v))
	})
	v.WatchConfig()
}

func setDefaults(v *viper.Viper, s Settings) {
	v.SetDefault("ui.initial_level", s.UI.InitialLevel)
	v.SetDefault("ui.apply_on_start", s.UI.ApplyOnStart)
	v.SetDefault("display.backends", s.Display.Backends)
	v.SetDefault("display.sysfs_root", s.Display.SysfsRoot)
	v.SetDefault("display.ddcutil_path", s.Display.DDCUtilPath)
	v.SetDefault("display.timeout", s.Display.Timeout)
	v.SetDefault("overlay.backend", s.Overlay.Backend)
	v.SetDefault("overlay.eww_path", s.Overlay.EwwPath)
	v.SetDefault("log.level", s.Log.Level)
}

func decode(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if s.UI.InitialLevel < 0 || s.UI.InitialLevel > 100 {
		return Settings{}, fmt.Errorf("ui.initial_level must be within 0-100, got %d", s.UI.InitialLevel)
	}
	return s, nil
}

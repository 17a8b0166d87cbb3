package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultAppName names the config and data directories.
const DefaultAppName = "arcboard"

// Paths are the resolved per-user locations for one app name.
type Paths struct {
	AppName    string
	ConfigPath string
	DataDir    string
	DBPath     string
	LogDir     string
}

// Options selects which app directory to resolve.
type Options struct {
	AppName string
	DevMode bool
}

// Bases are the platform base directories before the app name is appended.
type Bases struct {
	Config string
	Data   string
}

// DefaultPaths resolves paths for the default app name.
func DefaultPaths() (Paths, error) {
	return DefaultPathsWithOptions(Options{})
}

// DefaultPathsWithOptions resolves paths from the running OS and environment.
func DefaultPathsWithOptions(opts Options) (Paths, error) {
	bases, err := userBases(runtime.GOOS)
	if err != nil {
		return Paths{}, err
	}
	env := map[string]string{}
	for _, key := range []string{"XDG_CONFIG_HOME", "XDG_DATA_HOME", "APPDATA", "LOCALAPPDATA"} {
		env[key] = os.Getenv(key)
	}
	return PathsFor(runtime.GOOS, env, bases, AppName(opts))
}

// AppName applies the default name and the dev suffix.
func AppName(opts Options) string {
	name := strings.TrimSpace(opts.AppName)
	if name == "" {
		name = DefaultAppName
	}
	if opts.DevMode {
		name += "-dev"
	}
	return name
}

func userBases(goos string) (Bases, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return Bases{}, fmt.Errorf("user config dir: %w", err)
	}
	bases := Bases{Config: configDir, Data: configDir}
	switch goos {
	case "linux":
		home, err := os.UserHomeDir()
		if err != nil {
			return Bases{}, fmt.Errorf("user home dir: %w", err)
		}
		bases.Data = filepath.Join(home, ".local", "share")
	case "windows":
		if v := strings.TrimSpace(os.Getenv("LOCALAPPDATA")); v != "" {
			bases.Data = v
		}
	}
	return bases, nil
}

// PathsFor resolves paths for goos given environment overrides and bases.
func PathsFor(goos string, env map[string]string, bases Bases, appName string) (Paths, error) {
	if bases.Config == "" || bases.Data == "" {
		return Paths{}, fmt.Errorf("empty base dirs")
	}
	appName = strings.TrimSpace(appName)
	if appName == "" {
		return Paths{}, fmt.Errorf("empty app name")
	}

	switch goos {
	case "linux":
		bases = override(bases, env["XDG_CONFIG_HOME"], env["XDG_DATA_HOME"])
	case "windows":
		bases = override(bases, env["APPDATA"], env["LOCALAPPDATA"])
	}

	dataDir := filepath.Join(bases.Data, appName)
	return Paths{
		AppName:    appName,
		ConfigPath: filepath.Join(bases.Config, appName, "config.toml"),
		DataDir:    dataDir,
		DBPath:     filepath.Join(dataDir, appName+".db"),
		LogDir:     filepath.Join(dataDir, "log"),
	}, nil
}

func override(b Bases, config, data string) Bases {
	if config != "" {
		b.Config = config
	}
	if data != "" {
		b.Data = data
	}
	return b
}

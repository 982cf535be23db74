package main

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/testpulse/dashboard/internal/settings"
	"github.com/testpulse/dashboard/internal/worker"
)

const (
	configBaseName   = "dashboard"
	configFolderPath = "."

	envPrefix = "DASHBOARD"

	listenFlagName = "listen"
	mockFlagName   = "mock"
	apiURLFlagName = "api-url"
	storeFlagName  = "store"

	listenKey    = "listen"
	mockKey      = "mock"
	apiURLKey    = "api.url"
	apiTokenKey  = "api.token"
	apiOriginKey = "api.origin"
	storeURLKey  = "store.url"
	cacheDirKey  = "cache.dir"
	cacheTTLKey  = "cache.ttl"

	// settingsPrefix holds the user preferences when no database is configured.
	settingsPrefix = "settings"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultListen        = ":8080"
	defaultCacheTTL      = 10 * time.Minute
	defaultLogLevel      = "info"
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(listenKey, defaultListen)
	viper.SetDefault(mockKey, false)
	viper.SetDefault(apiURLKey, "")
	viper.SetDefault(apiTokenKey, "")
	viper.SetDefault(apiOriginKey, "")
	viper.SetDefault(storeURLKey, "")
	viper.SetDefault(cacheDirKey, "")
	viper.SetDefault(cacheTTLKey, defaultCacheTTL)

	viper.SetDefault(settingsPrefix+"."+settings.KeyAutoRefresh, "true")
	viper.SetDefault(settingsPrefix+"."+settings.KeyRefreshInterval, worker.DefaultInterval.String())

	viper.SetDefault(logFilenameKey, "")
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("Failed to read config file", "error", err)
		}
	}
}

// useMock honours the legacy USE_MOCK switch alongside DASHBOARD_MOCK.
func useMock() bool {
	return viper.GetBool(mockKey) || os.Getenv("USE_MOCK") == "true"
}

// storeURL falls back to the conventional DATABASE_URL.
func storeURL() string {
	if u := viper.GetString(storeURLKey); u != "" {
		return u
	}
	return os.Getenv("DATABASE_URL")
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger installs the default slog logger. Without a log file it
// writes to stderr; with one it rotates through lumberjack.
func configureLogger() {
	var w io.Writer = os.Stderr
	if path := viper.GetString(logFilenameKey); path != "" {
		w = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    viper.GetInt(logMaxSizeKey),
			MaxBackups: viper.GetInt(logMaxBackupsKey),
			MaxAge:     viper.GetInt(logMaxAgeKey),
			Compress:   viper.GetBool(logCompressKey),
		}
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo),
	})
	slog.SetDefault(slog.New(handler))
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/syncroom/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 80,
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	gracePeriodSec = configVar[int]{
		envKey:       "SERVER_ROOM_GRACE_PERIOD_SEC",
		flagKey:      "room-grace-period-sec",
		defaultValue: 60,
	}
	chatLimit = configVar[int]{
		envKey:       "SERVER_CHAT_LIMIT",
		flagKey:      "chat-limit",
		defaultValue: 200,
	}
	chatMaxLength = configVar[int]{
		envKey:       "SERVER_CHAT_MAX_LENGTH",
		flagKey:      "chat-max-length",
		defaultValue: 500,
	}
	chatRateMs = configVar[int]{
		envKey:       "SERVER_CHAT_RATE_MS",
		flagKey:      "chat-rate-ms",
		defaultValue: 750,
	}
	syncTolerance = configVar[float64]{
		envKey:       "SERVER_SYNC_TOLERANCE",
		flagKey:      "sync-tolerance",
		defaultValue: 0.75,
	}
	defaultMediaURL = configVar[string]{
		envKey:       "SERVER_DEFAULT_MEDIA_URL",
		flagKey:      "default-media-url",
		defaultValue: "https://www.w3schools.com/html/mov_bbb.mp4",
	}
	defaultImageURL = configVar[string]{
		envKey:       "SERVER_DEFAULT_IMAGE_URL",
		flagKey:      "default-image-url",
		defaultValue: "",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.Int(gracePeriodSec.flagKey, gracePeriodSec.defaultValue, "Seconds an empty room survives before deletion")
	pflag.Int(chatLimit.flagKey, chatLimit.defaultValue, "Maximum number of retained chat messages per room")
	pflag.Int(chatMaxLength.flagKey, chatMaxLength.defaultValue, "Maximum chat message length")
	pflag.Int(chatRateMs.flagKey, chatRateMs.defaultValue, "Minimum milliseconds between chat messages per session")
	pflag.Float64(syncTolerance.flagKey, syncTolerance.defaultValue, "Playback drift tolerance in seconds")
	pflag.String(defaultMediaURL.flagKey, defaultMediaURL.defaultValue, "Media played in a freshly created room")
	pflag.String(defaultImageURL.flagKey, defaultImageURL.defaultValue, "Image shown in a freshly created room instead of the default media")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(gracePeriodSec.flagKey, gracePeriodSec.envKey)
	viper.BindEnv(chatLimit.flagKey, chatLimit.envKey)
	viper.BindEnv(chatMaxLength.flagKey, chatMaxLength.envKey)
	viper.BindEnv(chatRateMs.flagKey, chatRateMs.envKey)
	viper.BindEnv(syncTolerance.flagKey, syncTolerance.envKey)
	viper.BindEnv(defaultMediaURL.flagKey, defaultMediaURL.envKey)
	viper.BindEnv(defaultImageURL.flagKey, defaultImageURL.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)

	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(gracePeriodSec.flagKey, gracePeriodSec.defaultValue)
	viper.SetDefault(chatLimit.flagKey, chatLimit.defaultValue)
	viper.SetDefault(chatMaxLength.flagKey, chatMaxLength.defaultValue)
	viper.SetDefault(chatRateMs.flagKey, chatRateMs.defaultValue)
	viper.SetDefault(syncTolerance.flagKey, syncTolerance.defaultValue)
	viper.SetDefault(defaultMediaURL.flagKey, defaultMediaURL.defaultValue)
	viper.SetDefault(defaultImageURL.flagKey, defaultImageURL.defaultValue)
	viper.SetDefault(redisPort.flagKey, redisPort.defaultValue)
	viper.SetDefault(redisHost.flagKey, redisHost.defaultValue)
	viper.SetDefault(redisPassword.flagKey, redisPassword.defaultValue)

	return &app.AppConfig{
		Host:            viper.GetString(host.flagKey),
		Port:            viper.GetInt(port.flagKey),
		LogLevel:        viper.GetString(logLevel.flagKey),
		GracePeriodSec:  viper.GetInt(gracePeriodSec.flagKey),
		ChatLimit:       viper.GetInt(chatLimit.flagKey),
		ChatMaxLength:   viper.GetInt(chatMaxLength.flagKey),
		ChatRateMs:      viper.GetInt(chatRateMs.flagKey),
		SyncTolerance:   viper.GetFloat64(syncTolerance.flagKey),
		DefaultMediaURL: viper.GetString(defaultMediaURL.flagKey),
		DefaultImageURL: viper.GetString(defaultImageURL.flagKey),
		RedisPort:       viper.GetInt(redisPort.flagKey),
		RedisHost:       viper.GetString(redisHost.flagKey),
		RedisPassword:   viper.GetString(redisPassword.flagKey),
	}
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()
	if err := appConfig.Validate(); err != nil {
		log.Fatal(err)
	}

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}

package config

import (
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment override, e.g. AGENTCOST_SERVER_ADDRESS
const EnvPrefix = "AGENTCOST_"

// applyEnvOverrides applies AGENTCOST_SECTION_FIELD variables. Values that
// do not parse are ignored.
func applyEnvOverrides(cfg *Config, getenv func(string) string) {
	env := func(name string) string { return getenv(EnvPrefix + name) }

	// Catalog
	if val := env("CATALOG_PATH"); val != "" {
		cfg.Catalog.Path = val
	}
	setInt(env("CATALOG_CACHE_TTL_SECONDS"), &cfg.Catalog.CacheTTLSeconds)
	setBool(env("CATALOG_WATCH"), &cfg.Catalog.Watch)
	setInt(env("CATALOG_WATCH_DEBOUNCE_MILLIS"), &cfg.Catalog.WatchDebounceMillis)

	// Server
	if val := env("SERVER_ADDRESS"); val != "" {
		cfg.Server.Address = val
	}
	setInt(env("SERVER_READ_TIMEOUT_SECONDS"), &cfg.Server.ReadTimeoutSeconds)
	setInt(env("SERVER_WRITE_TIMEOUT_SECONDS"), &cfg.Server.WriteTimeoutSeconds)
	setInt(env("SERVER_IDLE_TIMEOUT_SECONDS"), &cfg.Server.IdleTimeoutSeconds)
	setInt(env("SERVER_SHUTDOWN_TIMEOUT_SECONDS"), &cfg.Server.ShutdownTimeoutSeconds)
	if val := env("SERVER_MAX_BODY_BYTES"); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Server.MaxBodyBytes = n
		}
	}

	// Output
	if val := env("OUTPUT_FORMAT"); val != "" {
		cfg.Output.DefaultFormat = strings.ToLower(val)
	}
	setBool(env("OUTPUT_SHOW_DETAILS"), &cfg.Output.ShowDetails)

	// Logging
	if val := env("LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := env("LOG_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}
	if val := env("LOG_OUTPUT"); val != "" {
		cfg.Logging.Output = val
	}

	// Recommendations
	setInt(env("RECOMMEND_REPLICA_THRESHOLD"), &cfg.Recommendations.ReplicaThreshold)
	setInt(env("RECOMMEND_TARGET_REPLICAS"), &cfg.Recommendations.TargetReplicas)
	if val := env("RECOMMEND_MODEL_SWITCH_MIN_EMAILS"); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Recommendations.ModelSwitchMinEmails = n
		}
	}
	if val := env("RECOMMEND_LOW_VOLUME_MAX_EMAILS"); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Recommendations.LowVolumeMaxEmails = n
		}
	}
	if val := env("RECOMMEND_TARGET_POLLING_MINUTES"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Recommendations.TargetPollingMinutes = f
		}
	}
}

func setInt(val string, dst *int) {
	if val == "" {
		return
	}
	if n, err := strconv.Atoi(val); err == nil {
		*dst = n
	}
}

func setBool(val string, dst *bool) {
	if val == "" {
		return
	}
	if b, err := strconv.ParseBool(val); err == nil {
		*dst = b
	}
}

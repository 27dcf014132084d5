package config

import "time"

// Compile time variables are set by -ldflags.
var (
	ServiceVersion string
	CommitSHA      string
)

const (
	Development = 1 << iota
	Sandbox
	Staging
	Production
)

type (
	ServiceConfig struct {
		App            App            `json:"app"`
		HTTPServer     HTTPServer     `json:"http_server"`
		Database       Database       `json:"database"`
		SessionStore   SessionStore   `json:"session_store"`
		Reconciler     Reconciler     `json:"reconciler"`
		Permissions    Permissions    `json:"permissions"`
		CatalogCache   CatalogCache   `json:"catalog_cache"`
		Realtime       Realtime       `json:"realtime"`
		RateLimiting   RateLimiting   `json:"rate_limiting"`
		Idempotency    Idempotency    `json:"idempotency"`
		CircuitBreaker CircuitBreaker `json:"circuit_breaker"`
		Logging        Logging        `json:"logging"`
		Telemetry      Telemetry      `json:"telemetry"`
	}

	App struct {
		ServiceName    string      `envconfig:"APP_SERVICE_NAME" default:"casebook" json:"service_name"`
		ServiceVersion string      `json:"service_version"`
		CommitSHA      string      `json:"commit_sha"`
		APIVersion     string      `envconfig:"APP_API_VERSION" default:"v1" json:"api_version"`
		Env            Environment `json:"environment"`
	}

	Environment struct {
		Name string `envconfig:"APP_ENVIRONMENT" default:"development" json:"env"`
	}

	HTTPServer struct {
		Host            string        `envconfig:"HTTP_SERVER_HOST" default:"0.0.0.0" json:"host"`
		Port            uint          `envconfig:"HTTP_SERVER_PORT" default:"8080" json:"port"`
		ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s" json:"read_timeout"`
		WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s" json:"write_timeout"`
		IdleTimeout     time.Duration `envconfig:"HTTP_IDLE_TIMEOUT" default:"60s" json:"idle_timeout"`
		ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"30s" json:"shutdown_timeout"`
	}

	Database struct {
		Host            string        `envconfig:"POSTGRES_HOST" default:"postgres" json:"host"`
		Port            uint          `envconfig:"POSTGRES_PORT" default:"5432" json:"port"`
		Database        string        `envconfig:"POSTGRES_DATABASE" default:"casebook" json:"database"`
		Username        string        `envconfig:"POSTGRES_USERNAME" default:"postgres" json:"username"`
		Password        string        `envconfig:"POSTGRES_PASSWORD" default:"" json:"password,omitempty"`
		SSLMode         string        `envconfig:"POSTGRES_SSL_MODE" default:"disable" json:"ssl_mode"`
		MaxConnections  int           `envconfig:"POSTGRES_MAX_CONNECTIONS" default:"25" json:"max_connections"`
		MinConnections  int           `envconfig:"POSTGRES_MIN_CONNECTIONS" default:"5" json:"min_connections"`
		ConnectTimeout  time.Duration `envconfig:"POSTGRES_CONNECT_TIMEOUT" default:"10s" json:"connect_timeout"`
		MaxConnLifetime time.Duration `envconfig:"POSTGRES_MAX_CONN_LIFETIME" default:"1h" json:"max_conn_lifetime"`
		MaxConnIdleTime time.Duration `envconfig:"POSTGRES_MAX_CONN_IDLE_TIME" default:"30m" json:"max_conn_idle_time"`
	}

	SessionStore struct {
		Address      string        `envconfig:"SESSION_STORE_ADDRESS" default:"keydb:6379" json:"address"`
		Password     string        `envconfig:"SESSION_STORE_PASSWORD" default:"" json:"password,omitempty"`
		DB           uint          `envconfig:"SESSION_STORE_DB" default:"0" json:"db"`
		PoolSize     uint          `envconfig:"SESSION_STORE_POOL_SIZE" default:"10" json:"pool_size"`
		MinIdleConns uint          `envconfig:"SESSION_STORE_MIN_IDLE_CONNS" default:"2" json:"min_idle_conns"`
		DialTimeout  time.Duration `envconfig:"SESSION_STORE_DIAL_TIMEOUT" default:"5s" json:"dial_timeout"`
		ReadTimeout  time.Duration `envconfig:"SESSION_STORE_READ_TIMEOUT" default:"3s" json:"read_timeout"`
		WriteTimeout time.Duration `envconfig:"SESSION_STORE_WRITE_TIMEOUT" default:"3s" json:"write_timeout"`
		PoolTimeout  time.Duration `envconfig:"SESSION_STORE_POOL_TIMEOUT" default:"4s" json:"pool_timeout"`
		MaxRetries   uint          `envconfig:"SESSION_STORE_MAX_RETRIES" default:"3" json:"max_retries"`
		EntryTTL     time.Duration `envconfig:"SESSION_STORE_ENTRY_TTL" default:"168h" json:"entry_ttl"`
	}

	Reconciler struct {
		// CheckInterval throttles how often one session may actually hit
		// the database for a version check.
		CheckInterval time.Duration `envconfig:"RECONCILER_CHECK_INTERVAL" default:"60s" json:"check_interval"`

		// AutoLogoutTimeout is how long an unacknowledged mismatch may
		// stand before the session is force-logged-out.
		AutoLogoutTimeout time.Duration `envconfig:"RECONCILER_AUTO_LOGOUT_TIMEOUT" default:"15s" json:"auto_logout_timeout"`

		// SweepInterval is how often the background sweeper scans for
		// timed-out pending mismatches.
		SweepInterval time.Duration `envconfig:"RECONCILER_SWEEP_INTERVAL" default:"5s" json:"sweep_interval"`
	}

	Permissions struct {
		CacheTTL        time.Duration `envconfig:"PERMISSIONS_CACHE_TTL" default:"5m" json:"cache_ttl"`
		RefreshLeeway   time.Duration `envconfig:"PERMISSIONS_REFRESH_LEEWAY" default:"1m" json:"refresh_leeway"`
		RetryMaxElapsed time.Duration `envconfig:"PERMISSIONS_RETRY_MAX_ELAPSED" default:"2m" json:"retry_max_elapsed"`
	}

	CatalogCache struct {
		MaxEntries    int           `envconfig:"CATALOG_CACHE_MAX_ENTRIES" default:"1000" json:"max_entries"`
		MaxValueBytes int           `envconfig:"CATALOG_CACHE_MAX_VALUE_BYTES" default:"1048576" json:"max_value_bytes"`
		DefaultTTL    time.Duration `envconfig:"CATALOG_CACHE_DEFAULT_TTL" default:"5m" json:"default_ttl"`
	}

	Realtime struct {
		Channel           string        `envconfig:"REALTIME_CHANNEL" default:"casebook_changes" json:"channel"`
		ReconnectMinDelay time.Duration `envconfig:"REALTIME_RECONNECT_MIN_DELAY" default:"1s" json:"reconnect_min_delay"`
		ReconnectMaxDelay time.Duration `envconfig:"REALTIME_RECONNECT_MAX_DELAY" default:"30s" json:"reconnect_max_delay"`
	}

	RateLimiting struct {
		Enabled           bool     `envconfig:"RATE_LIMIT_ENABLED" default:"true" json:"enabled"`
		RequestsPerSecond uint     `envconfig:"RATE_LIMIT_REQUESTS_PER_SECOND" default:"50" json:"requests_per_second"`
		BurstSize         uint     `envconfig:"RATE_LIMIT_BURST_SIZE" default:"20" json:"burst_size"`
		SkipPaths         []string `envconfig:"RATE_LIMIT_SKIP_PATHS" default:"/v1/health" json:"skip_paths"`
	}

	Idempotency struct {
		Enabled          bool          `envconfig:"IDEMPOTENCY_ENABLED" default:"true" json:"enabled"`
		HeaderName       string        `envconfig:"IDEMPOTENCY_HEADER_NAME" default:"Idempotency-Key" json:"header_name"`
		ReplayedHeader   string        `envconfig:"IDEMPOTENCY_REPLAYED_HEADER" default:"Idempotency-Replayed" json:"replayed_header"`
		RequiredMethods  []string      `envconfig:"IDEMPOTENCY_REQUIRED_METHODS" default:"POST" json:"required_methods"`
		CacheTTL         time.Duration `envconfig:"IDEMPOTENCY_CACHE_TTL" default:"24h" json:"cache_ttl"`
		LockTTL          time.Duration `envconfig:"IDEMPOTENCY_LOCK_TTL" default:"30s" json:"lock_ttl"`
		GracefulDegraded bool          `envconfig:"IDEMPOTENCY_GRACEFUL_DEGRADED" default:"true" json:"graceful_degraded"`
	}

	CircuitBreaker struct {
		Enabled          bool          `envconfig:"CIRCUIT_BREAKER_ENABLED" default:"true" json:"enabled"`
		MaxRequests      uint          `envconfig:"CIRCUIT_BREAKER_MAX_REQUESTS" default:"3" json:"max_requests"`
		Interval         time.Duration `envconfig:"CIRCUIT_BREAKER_INTERVAL" default:"60s" json:"interval"`
		Timeout          time.Duration `envconfig:"CIRCUIT_BREAKER_TIMEOUT" default:"30s" json:"timeout"`
		FailureThreshold uint          `envconfig:"CIRCUIT_BREAKER_FAILURE_THRESHOLD" default:"5" json:"failure_threshold"`
	}

	Logging struct {
		Level     string    `envconfig:"LOG_LEVEL" default:"info" json:"level"`
		Format    string    `envconfig:"LOG_FORMAT" default:"json" json:"format"`
		AccessLog AccessLog `json:"access_log"`
	}

	AccessLog struct {
		Enabled         bool `envconfig:"ACCESS_LOG_ENABLED" default:"true" json:"enabled"`
		LogHealthChecks bool `envconfig:"ACCESS_LOG_HEALTH_CHECKS" default:"false" json:"log_health_checks"`
	}

	Telemetry struct {
		Enabled        bool    `envconfig:"OTEL_ENABLED" default:"false" json:"enabled"`
		OTLPEndpoint   string  `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"" json:"otlp_endpoint"`
		ServiceName    string  `envconfig:"OTEL_SERVICE_NAME" default:"casebook" json:"service_name"`
		ServiceVersion string  `envconfig:"OTEL_SERVICE_VERSION" default:"1.0.0" json:"service_version"`
		Metrics        Metrics `json:"metrics"`
		Traces         Traces  `json:"traces"`
	}

	Metrics struct {
		Enabled bool `envconfig:"METRICS_ENABLED" default:"false" json:"enabled"`
	}

	Traces struct {
		Enabled      bool    `envconfig:"TRACES_ENABLED" default:"false" json:"enabled"`
		SamplerRatio float64 `envconfig:"TRACES_SAMPLER_RATIO" default:"1.0" json:"sampler_ratio"`
	}
)

func (c *ServiceConfig) GetEnvironment() int {
	switch c.App.Env.Name {
	case "production", "prod":
		return Production
	case "staging", "stg":
		return Staging
	case "sandbox", "sbx":
		return Sandbox
	default:
		return Development
	}
}

func (c *ServiceConfig) IsProduction() bool {
	return c.GetEnvironment() == Production
}

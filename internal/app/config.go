package app

import (
	"errors"
	"time"

	"github.com/iamusmankhan101/visioncare/pkg/config"
	"github.com/iamusmankhan101/visioncare/pkg/email"
	"github.com/iamusmankhan101/visioncare/pkg/httpserver"
	"github.com/iamusmankhan101/visioncare/pkg/notifications/fcm"
	"github.com/iamusmankhan101/visioncare/pkg/notifications/webpush"
	"github.com/iamusmankhan101/visioncare/pkg/notifications/whatsapp"
	"github.com/iamusmankhan101/visioncare/pkg/pg"
	"github.com/iamusmankhan101/visioncare/pkg/ratelimiter"
	"github.com/iamusmankhan101/visioncare/pkg/redis"
	"github.com/iamusmankhan101/visioncare/pkg/validator"
)

// Registry backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
)

var ErrInvalidConfig = errors.New("app: invalid configuration")

// Config holds the service level settings. Component settings live in their
// own packages and are composed in Configs.
type Config struct {
	Env     string `env:"APP_ENV" envDefault:"development"`
	Service string `env:"SERVICE_NAME" envDefault:"notifyd"`

	RegistryBackend string `env:"REGISTRY_BACKEND" envDefault:"memory"`
	SQLitePath      string `env:"SQLITE_PATH" envDefault:"notifications.db"`

	DedupTTL            time.Duration `env:"DEDUP_TTL" envDefault:"60s"`
	SendTimeout         time.Duration `env:"SEND_TIMEOUT" envDefault:"10s"`
	DispatchConcurrency int           `env:"DISPATCH_CONCURRENCY" envDefault:"16"`
	BackgroundDispatch  bool          `env:"WEBHOOK_BACKGROUND_DISPATCH" envDefault:"false"`
	StatsRecent         int           `env:"STATS_RECENT" envDefault:"20"`

	// Mock routes every channel without credentials to the log adapter.
	Mock bool `env:"NOTIFY_MOCK" envDefault:"false"`

	WebhookSecret  string        `env:"WEBHOOK_SECRET"`
	WebhookMaxAge  time.Duration `env:"WEBHOOK_MAX_AGE" envDefault:"5m"`
	AdminURL       string        `env:"ADMIN_URL" envDefault:"/admin/mobile"`
	PublicBaseURL  string        `env:"PUBLIC_BASE_URL"`
	PollInterval   time.Duration `env:"POLL_INTERVAL" envDefault:"10s"`
	OrdersTable    string        `env:"ORDERS_TABLE" envDefault:"orders"`
	RunMigrations  bool          `env:"PG_RUN_MIGRATIONS" envDefault:"true"`
	DedupWithRedis bool          `env:"DEDUP_REDIS" envDefault:"true"`
	RateLimit      bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
}

func (c Config) Validate() error {
	backends := []string{BackendMemory, BackendPostgres, BackendSQLite, BackendRedis}
	return validator.Apply(
		validator.OneOf("REGISTRY_BACKEND", c.RegistryBackend, backends),
		validator.Required("ADMIN_URL", c.AdminURL),
		validator.Rule{
			Check: func() bool { return c.DispatchConcurrency > 0 },
			Error: validator.ValidationError{Field: "DISPATCH_CONCURRENCY", Message: "must be positive"},
		},
		validator.Rule{
			Check: func() bool { return c.DedupTTL > 0 && c.SendTimeout > 0 },
			Error: validator.ValidationError{Field: "DEDUP_TTL", Message: "durations must be positive"},
		},
	)
}

// Configs is every configuration section the binaries load.
type Configs struct {
	App      Config
	HTTP     httpserver.Config
	PG       pg.Config
	Redis    redis.Config
	WebPush  webpush.Config
	FCM      fcm.Config
	WhatsApp whatsapp.Config
	Email    email.Config
	Limit    ratelimiter.Config
}

// LoadConfigs reads every section from the environment (and .env).
func LoadConfigs() (Configs, error) {
	var c Configs
	errs := []error{
		config.Load(&c.App),
		config.Load(&c.HTTP),
		config.Load(&c.PG),
		config.Load(&c.Redis),
		config.Load(&c.WebPush),
		config.Load(&c.FCM),
		config.Load(&c.WhatsApp),
		config.Load(&c.Email),
		config.Load(&c.Limit),
	}
	if err := errors.Join(errs...); err != nil {
		return Configs{}, err
	}
	if err := c.validate(); err != nil {
		return Configs{}, errors.Join(ErrInvalidConfig, err)
	}
	return c, nil
}

// validate checks rules spanning sections.
func (c Configs) validate() error {
	rules := validator.When(c.App.RegistryBackend == BackendPostgres,
		validator.Required("PG_CONN_URL", c.PG.ConnectionString))
	rules = append(rules, validator.When(c.App.RegistryBackend == BackendRedis,
		validator.Required("REDIS_URL", c.Redis.ConnectionURL))...)
	rules = append(rules, validator.When(c.App.RegistryBackend == BackendSQLite,
		validator.Required("SQLITE_PATH", c.App.SQLitePath))...)
	return validator.Apply(rules...)
}

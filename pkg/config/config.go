package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "FOTOPRINT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "FOTOPRINT_DB_DSN"
	EnvDBHost = "FOTOPRINT_DB_HOST"
	EnvDBUser = "FOTOPRINT_DB_USER"
	EnvDBName = "FOTOPRINT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Admin        AdminConfig
	Midtrans     MidtransConfig
	Fotoshare    FotoshareConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FOTOPRINT_APP_ENV" required:"true"`
	Port         string `envconfig:"FOTOPRINT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FOTOPRINT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FOTOPRINT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FOTOPRINT_DB_DSN"`
	Driver string `envconfig:"FOTOPRINT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FOTOPRINT_DB_HOST"`
	LegacyPort     int    `envconfig:"FOTOPRINT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FOTOPRINT_DB_USER"`
	LegacyPassword string `envconfig:"FOTOPRINT_DB_PASSWORD"`
	LegacyName     string `envconfig:"FOTOPRINT_DB_NAME"`
	LegacySSLMode  string `envconfig:"FOTOPRINT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FOTOPRINT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FOTOPRINT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FOTOPRINT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FOTOPRINT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FOTOPRINT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FOTOPRINT_REDIS_ADDR"`
	Password     string        `envconfig:"FOTOPRINT_REDIS_PASSWORD"`
	DB           int           `envconfig:"FOTOPRINT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FOTOPRINT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FOTOPRINT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FOTOPRINT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FOTOPRINT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FOTOPRINT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// AdminConfig holds the operator credential. PasswordHash is an Argon2id hash
// produced by pkg/security; the plaintext never lives in the environment.
type AdminConfig struct {
	PasswordHash string `envconfig:"FOTOPRINT_ADMIN_PASSWORD_HASH" required:"true"`
}

type MidtransConfig struct {
	ServerKey      string        `envconfig:"FOTOPRINT_MIDTRANS_SERVER_KEY" required:"true"`
	IsProduction   bool          `envconfig:"FOTOPRINT_MIDTRANS_IS_PRODUCTION" default:"false"`
	RequestTimeout time.Duration `envconfig:"FOTOPRINT_MIDTRANS_REQUEST_TIMEOUT" default:"15s"`
}

// SnapBaseURL selects the Snap API host for the configured environment.
func (m MidtransConfig) SnapBaseURL() string {
	if m.IsProduction {
		return "https://app.midtrans.com"
	}
	return "https://app.sandbox.midtrans.com"
}

type FotoshareConfig struct {
	AllowedHost string `envconfig:"FOTOPRINT_FOTOSHARE_HOST" default:"fotoshare.co"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FOTOPRINT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FOTOPRINT_AUTO_MIGRATE" default:"false"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FOTOPRINT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FOTOPRINT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FOTOPRINT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FOTOPRINT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FOTOPRINT_ARGON_KEY_LEN" default:"32"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}

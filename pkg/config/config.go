package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Store         StoreConfig
	Stripe        StripeConfig
	PayPal        PayPalConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Media         MediaConfig
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
	Env          string   `envconfig:"PROSTORE_APP_ENV" required:"true"`
	Port         string   `envconfig:"PROSTORE_APP_PORT" required:"true"`
	Name         string   `envconfig:"PROSTORE_APP_NAME" default:"Prostore"`
	ServerURL    string   `envconfig:"PROSTORE_SERVER_URL" default:"http://localhost:3000"`
	LogLevel     string   `envconfig:"PROSTORE_LOG_LEVEL" default:"info"`
	LogFormat    string   `envconfig:"PROSTORE_LOG_FORMAT" default:"json"`
	LogWarnStack bool     `envconfig:"PROSTORE_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"PROSTORE_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN string `envconfig:"PROSTORE_DB_DSN"`

	LegacyHost     string `envconfig:"PROSTORE_DB_HOST"`
	LegacyPort     int    `envconfig:"PROSTORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PROSTORE_DB_USER"`
	LegacyPassword string `envconfig:"PROSTORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"PROSTORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"PROSTORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PROSTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PROSTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PROSTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PROSTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PROSTORE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PROSTORE_REDIS_ADDR"`
	Password     string        `envconfig:"PROSTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"PROSTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PROSTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PROSTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PROSTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PROSTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PROSTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"PROSTORE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"PROSTORE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"PROSTORE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"PROSTORE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// AccessTokenTTL is the lifetime of a signed access token.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PROSTORE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PROSTORE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PROSTORE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PROSTORE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PROSTORE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PROSTORE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"PROSTORE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"PROSTORE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"PROSTORE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"PROSTORE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"PROSTORE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PROSTORE_AUTO_MIGRATE" default:"false"`
	Uploads     bool `envconfig:"PROSTORE_FEATURE_UPLOADS" default:"true"`
}

// StoreConfig carries storefront tunables.
type StoreConfig struct {
	PageSize              int           `envconfig:"PROSTORE_PAGE_SIZE" default:"2"`
	LatestProductsLimit   int           `envconfig:"PROSTORE_LATEST_PRODUCTS_LIMIT" default:"4"`
	PaymentMethods        []string      `envconfig:"PROSTORE_PAYMENT_METHODS" default:"PayPal,Stripe,CashOnDelivery"`
	DefaultPaymentMethod  string        `envconfig:"PROSTORE_DEFAULT_PAYMENT_METHOD" default:"CashOnDelivery"`
	ProductCacheTTL       time.Duration `envconfig:"PROSTORE_PRODUCT_CACHE_TTL" default:"10m"`
	PaymentIdempotencyTTL time.Duration `envconfig:"PROSTORE_PAYMENT_IDEMPOTENCY_TTL" default:"720h"`
	SessionCartCookieTTL  time.Duration `envconfig:"PROSTORE_SESSION_CART_COOKIE_TTL" default:"720h"`
	SecureCookies         bool          `envconfig:"PROSTORE_SECURE_COOKIES" default:"false"`
}

type StripeConfig struct {
	APIKey   string `envconfig:"PROSTORE_STRIPE_SECRET_KEY"`
	Secret   string `envconfig:"PROSTORE_STRIPE_WEBHOOK_SECRET"`
	Env      string `envconfig:"PROSTORE_STRIPE_ENV" default:"test"`
	Currency string `envconfig:"PROSTORE_STRIPE_CURRENCY" default:"usd"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// Enabled reports whether Stripe credentials are configured.
func (s StripeConfig) Enabled() bool {
	return strings.TrimSpace(s.APIKey) != "" && strings.TrimSpace(s.Secret) != ""
}

type PayPalConfig struct {
	ClientID  string        `envconfig:"PROSTORE_PAYPAL_CLIENT_ID" default:"sb"`
	AppSecret string        `envconfig:"PROSTORE_PAYPAL_APP_SECRET"`
	APIURL    string        `envconfig:"PROSTORE_PAYPAL_API_URL" default:"https://api-m.sandbox.paypal.com"`
	Timeout   time.Duration `envconfig:"PROSTORE_PAYPAL_TIMEOUT" default:"10s"`
}

// Enabled reports whether PayPal credentials are configured.
func (p PayPalConfig) Enabled() bool {
	return strings.TrimSpace(p.AppSecret) != "" && strings.TrimSpace(p.ClientID) != ""
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PROSTORE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"PROSTORE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PROSTORE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName    string `envconfig:"PROSTORE_GCS_BUCKET_NAME"`
	PublicBaseURL string `envconfig:"PROSTORE_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
}

type MediaConfig struct {
	MaxImageMB int `envconfig:"PROSTORE_MEDIA_MAX_IMAGE_MB" default:"4"`
	MaxFiles   int `envconfig:"PROSTORE_MEDIA_MAX_FILES" default:"1"`
}

// MaxImageBytes converts the configured ceiling into bytes.
func (m MediaConfig) MaxImageBytes() int64 {
	if m.MaxImageMB <= 0 {
		return 4 << 20
	}
	return int64(m.MaxImageMB) << 20
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

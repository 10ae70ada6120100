// backend/services/works-service/internal/config/config.go

package config

import (
	"crypto/rsa"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"
	"github.com/shiftly/mono-repo/backend/shared/go-middleware"
	"github.com/shiftly/mono-repo/backend/shared/go-utils"
)

type Config struct {
	OrganizationName string
	AppName          string
	AppPort          string
	AppUrl           string
	Env              string
	UniqueRunNumber  string
	UniqueRunnerID   string

	// Database; empty selects the in-memory store.
	DBUrl string

	// Auth; nil disables the bearer-token middleware.
	RSAPublicKey *rsa.PublicKey
	TokenIssuer  string

	AuditSchedule string

	// LaunchDarkly flags
	LDFlag_SeedDbWithTestData      bool
	LDFlag_CORSHighSecurity        bool
	LDFlag_UsingIsolatedSchema     bool
	LDFlag_CompletionAttemptLimit  int
	LDFlag_CompletionAttemptWindow time.Duration
}

const (
	OrganizationName     = utils.OrganizationName
	LDConnectionTimeout  = 5 * time.Second
	DefaultAppName       = "works-service"
	DefaultAuditSchedule = "@every 10m"
	DefaultAttemptWindow = 15 * time.Minute
)

// build-time overrides
var (
	AppName             string
	UniqueRunNumber     string
	UniqueRunnerID      string
	LDServerContextKey  string
	LDServerContextKind string
)

// flagSource answers feature-flag lookups; LaunchDarkly when an SDK key is
// configured, plain env vars otherwise.
type flagSource interface {
	Bool(key string, def bool) (bool, error)
	Int(key string, def int) (int, error)
	Close()
}

type ldFlags struct {
	client *ld.LDClient
	ctx    ldcontext.Context
}

func (f *ldFlags) Bool(key string, def bool) (bool, error) {
	return f.client.BoolVariation(key, f.ctx, def)
}

func (f *ldFlags) Int(key string, def int) (int, error) {
	return f.client.IntVariation(key, f.ctx, def)
}

func (f *ldFlags) Close() { _ = f.client.Close() }

// envFlags maps flag "seed_db_with_test_data" to env SEED_DB_WITH_TEST_DATA.
type envFlags struct {
	getenv func(string) string
}

func (f envFlags) Bool(key string, def bool) (bool, error) {
	v := f.getenv(strings.ToUpper(key))
	if v == "" {
		return def, nil
	}
	return strconv.ParseBool(v)
}

func (f envFlags) Int(key string, def int) (int, error) {
	v := f.getenv(strings.ToUpper(key))
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func (envFlags) Close() {}

func LoadConfig() *Config {
	if AppName == "" {
		utils.Logger.Warnf("AppName ldflag missing, defaulting to %s", DefaultAppName)
		AppName = DefaultAppName
	}
	utils.Logger.Info("Loading config for app: ", AppName)

	var flags flagSource = envFlags{getenv: os.Getenv}
	if sdkKey := os.Getenv("LD_SDK_KEY"); sdkKey != "" {
		ldClient, err := ld.MakeClient(sdkKey, LDConnectionTimeout)
		if err != nil {
			utils.Logger.WithError(err).Fatal("Failed to create LaunchDarkly client")
		}
		if !ldClient.Initialized() {
			_ = ldClient.Close()
			utils.Logger.Fatal("LaunchDarkly client failed to initialize")
		}
		flags = &ldFlags{client: ldClient, ctx: serverContext()}
	} else {
		utils.Logger.Info("LD_SDK_KEY not set; reading feature flags from env")
	}
	cfg, err := loadAndRelease(os.Getenv, flags)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Invalid configuration")
	}
	return cfg
}

// loadAndRelease closes the flag source once the config is read; flags are
// evaluated at startup only, so the returned Config holds no client.
func loadAndRelease(getenv func(string) string, flags flagSource) (*Config, error) {
	defer flags.Close()
	return loadConfig(getenv, flags)
}

func serverContext() ldcontext.Context {
	kind, key := LDServerContextKind, LDServerContextKey
	if kind == "" {
		kind = "service"
	}
	if key == "" {
		key = AppName
	}
	return ldcontext.NewWithKind(ldcontext.Kind(kind), key)
}

func loadConfig(getenv func(string) string, flags flagSource) (*Config, error) {
	env := getenv("ENV")
	if env == "" {
		return nil, fmt.Errorf("ENV env var is missing")
	}
	appPort := getenv("APP_PORT")
	if appPort == "" {
		return nil, fmt.Errorf("APP_PORT env var is missing")
	}
	if _, err := strconv.Atoi(appPort); err != nil {
		return nil, fmt.Errorf("APP_PORT %q is not a port number", appPort)
	}
	appUrl := getenv("APP_URL_FROM_ANYWHERE")
	if appUrl == "" {
		appUrl = "http://localhost:" + appPort
	}

	cfg := &Config{
		OrganizationName: OrganizationName,
		AppName:          AppName,
		AppPort:          appPort,
		AppUrl:           appUrl,
		Env:              env,
		UniqueRunNumber:  UniqueRunNumber,
		UniqueRunnerID:   UniqueRunnerID,
		DBUrl:            getenv("DB_URL"),
		TokenIssuer:      getenv("TOKEN_ISSUER"),
		AuditSchedule:    getenv("AUDIT_SCHEDULE"),
	}
	if cfg.AppName == "" {
		cfg.AppName = DefaultAppName
	}
	if cfg.TokenIssuer == "" {
		cfg.TokenIssuer = middleware.DefaultTokenIssuer
	}
	if cfg.AuditSchedule == "" {
		cfg.AuditSchedule = DefaultAuditSchedule
	}

	if pubB64 := getenv("RSA_PUBLIC_KEY_BASE64"); pubB64 != "" {
		pub, err := middleware.ParseRSAPublicKeyBase64(pubB64)
		if err != nil {
			return nil, fmt.Errorf("RSA_PUBLIC_KEY_BASE64: %w", err)
		}
		cfg.RSAPublicKey = pub
	} else {
		utils.Logger.Warn("RSA_PUBLIC_KEY_BASE64 not set; requests are not authenticated")
	}

	var err error
	if cfg.LDFlag_SeedDbWithTestData, err = flags.Bool("seed_db_with_test_data", false); err != nil {
		return nil, fmt.Errorf("seed_db_with_test_data flag: %w", err)
	}
	utils.Logger.Debugf("seed_db_with_test_data flag: %t", cfg.LDFlag_SeedDbWithTestData)

	if cfg.LDFlag_CORSHighSecurity, err = flags.Bool("cors_high_security", false); err != nil {
		return nil, fmt.Errorf("cors_high_security flag: %w", err)
	}
	utils.Logger.Debugf("cors_high_security flag: %t", cfg.LDFlag_CORSHighSecurity)

	if cfg.LDFlag_UsingIsolatedSchema, err = flags.Bool("using_isolated_schema", false); err != nil {
		return nil, fmt.Errorf("using_isolated_schema flag: %w", err)
	}
	utils.Logger.Debugf("using_isolated_schema flag: %t", cfg.LDFlag_UsingIsolatedSchema)

	if cfg.LDFlag_CompletionAttemptLimit, err = flags.Int("completion_attempt_limit", 0); err != nil {
		return nil, fmt.Errorf("completion_attempt_limit flag: %w", err)
	}
	if cfg.LDFlag_CompletionAttemptLimit < 0 {
		return nil, fmt.Errorf("completion_attempt_limit must be >= 0, got %d", cfg.LDFlag_CompletionAttemptLimit)
	}
	utils.Logger.Debugf("completion_attempt_limit flag: %d", cfg.LDFlag_CompletionAttemptLimit)

	windowSecs, err := flags.Int("completion_attempt_window_seconds", int(DefaultAttemptWindow/time.Second))
	if err != nil {
		return nil, fmt.Errorf("completion_attempt_window_seconds flag: %w", err)
	}
	if windowSecs <= 0 {
		return nil, fmt.Errorf("completion_attempt_window_seconds must be > 0, got %d", windowSecs)
	}
	cfg.LDFlag_CompletionAttemptWindow = time.Duration(windowSecs) * time.Second

	if cfg.LDFlag_UsingIsolatedSchema && (cfg.UniqueRunnerID == "" || cfg.UniqueRunNumber == "") {
		return nil, fmt.Errorf("using_isolated_schema requires UniqueRunnerID and UniqueRunNumber ldflags")
	}

	return cfg, nil
}

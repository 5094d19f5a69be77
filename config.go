package mailroom

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config represents the main config
type Config struct {
	DB struct {
		Type string // "sqlite", "bolt", "mysql"
		Path string
		DSN  string
	}

	HTTP struct {
		Addr    string
		Domain  string
		BaseURL string `mapstructure:"base_url"`
	}

	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
	}

	Mail struct {
		From     string
		Operator string
	}

	Newsletter struct {
		BatchSize int `mapstructure:"batch_size"`
		Markdown  bool
		Product   struct {
			Name string
			Link string
		}
		Cron struct {
			Spec    string
			Subject string
			Text    string
			HTML    string
		}
	}

	Templates struct {
		Dir string
	}

	Queue struct {
		Type  string // "", "amqp", "redis"
		URL   string
		Topic string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	Admin struct {
		Username     string
		PasswordHash string        `mapstructure:"password_hash"`
		JWTSecret    string        `mapstructure:"jwt_secret"`
		TokenTTL     time.Duration `mapstructure:"token_ttl"`
	}

	Sentry struct {
		DSN string
	}

	Log struct {
		Level  string
		File   string
		Pretty bool
	}
}

// SetDefaults registers every key so that environment variables can override them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("db.type", "sqlite")
	v.SetDefault("db.path", "mailroom.db")
	v.SetDefault("db.dsn", "")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.domain", "")
	v.SetDefault("http.base_url", "")
	v.SetDefault("smtp.host", "localhost")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.operator", "")
	v.SetDefault("newsletter.batch_size", 100)
	v.SetDefault("newsletter.markdown", false)
	v.SetDefault("newsletter.product.name", "Newsletter")
	v.SetDefault("newsletter.product.link", "")
	v.SetDefault("newsletter.cron.spec", "")
	v.SetDefault("newsletter.cron.subject", "")
	v.SetDefault("newsletter.cron.text", "")
	v.SetDefault("newsletter.cron.html", "")
	v.SetDefault("templates.dir", "templates")
	v.SetDefault("queue.type", "")
	v.SetDefault("queue.url", "")
	v.SetDefault("queue.topic", "newsletter.dispatch")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password_hash", "")
	v.SetDefault("admin.jwt_secret", "")
	v.SetDefault("admin.token_ttl", 12*time.Hour)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.pretty", false)
}

// LoadConfig reads config.{yaml,toml,json} from dir (or . and ./config when dir is empty),
// an optional .env file and the environment.
func LoadConfig(dir string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "godotenv.Load")
	}

	v := viper.New()
	v.SetConfigName("config")
	if dir != "" {
		v.AddConfigPath(dir)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "viper.ReadInConfig")
		}
	}

	return UnmarshalConfig(v)
}

// UnmarshalConfig decodes v into a Config.
func UnmarshalConfig(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "viper.Unmarshal")
	}

	if config.Newsletter.BatchSize <= 0 {
		config.Newsletter.BatchSize = 100
	}
	if config.Mail.Operator == "" {
		config.Mail.Operator = config.Mail.From
	}

	return &config, nil
}

package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel           slog.Level                `json:"LogLevel" yaml:"logLevel"`
	Listen             string                    `json:"Listen" yaml:"listen" validate:"required"`
	BaseURL            string                    `json:"BaseURL" yaml:"baseURL" validate:"required,url"`
	Site               SiteConfig                `json:"Site" yaml:"site" validate:"required"`
	Content            ContentConfig             `json:"Content" yaml:"content" validate:"required"`
	Markdown           MarkdownConfig            `json:"Markdown" yaml:"markdown"`
	Projects           ProjectsConfig            `json:"Projects" yaml:"projects" validate:"required"`
	Contact            ContactConfig             `json:"Contact" yaml:"contact" validate:"required"`
	LocalePath         string                    `json:"LocalePath" yaml:"localePath" validate:"required"`
	AvailableLanguages []AvailableLanguageConfig `json:"AvailableLanguages" yaml:"availableLanguages" validate:"required,min=1,dive"`
}

type SiteConfig struct {
	Author       string        `json:"Author" yaml:"author" validate:"required"`
	StaticDir    string        `json:"StaticDir" yaml:"staticDir"`
	AllowOrigins string        `json:"AllowOrigins" yaml:"allowOrigins"`
	FeedCacheTTL time.Duration `json:"FeedCacheTTL" yaml:"feedCacheTTL"`
	APICacheTTL  time.Duration `json:"APICacheTTL" yaml:"apiCacheTTL"`
}

type ContentConfig struct {
	Storage       StorageConfig `json:"Storage" yaml:"storage" validate:"required"`
	Pattern       string        `json:"Pattern" yaml:"pattern"`
	WatchInterval time.Duration `json:"WatchInterval" yaml:"watchInterval"`
	Watch         bool          `json:"Watch" yaml:"watch"`
}

type StorageConfig struct {
	Type string    `json:"Type" yaml:"type" validate:"required,oneof=fs b2 s3"`
	FS   *FSConfig `json:"FS" yaml:"fs" validate:"required_if=Type fs"`
	B2   *B2Config `json:"B2" yaml:"b2" validate:"required_if=Type b2"`
	S3   *S3Config `json:"S3" yaml:"s3" validate:"required_if=Type s3"`
}

type FSConfig struct {
	Root string `json:"Root" yaml:"root" validate:"required"`
}

type B2Config struct {
	BucketName     string `json:"BucketName" yaml:"bucketName" validate:"required,min=1"`
	Prefix         string `json:"Prefix" yaml:"prefix"`
	KeyID          string `json:"KeyID" yaml:"keyID"`
	ApplicationKey string `json:"ApplicationKey" yaml:"applicationKey"`
}

type S3Config struct {
	BucketName      string `json:"BucketName" yaml:"bucketName" validate:"required,min=1"`
	Region          string `json:"Region" yaml:"region" validate:"required,min=1"`
	Endpoint        string `json:"Endpoint" yaml:"endpoint"`
	Prefix          string `json:"Prefix" yaml:"prefix"`
	AccessKeyID     string `json:"AccessKeyID" yaml:"accessKeyID"`
	SecretAccessKey string `json:"SecretAccessKey" yaml:"secretAccessKey"`
}

type MarkdownConfig struct {
	Classes       map[string]string `json:"Classes" yaml:"classes"`
	ExternalLinks bool              `json:"ExternalLinks" yaml:"externalLinks"`
}

type ProjectsConfig struct {
	DataFile string       `json:"DataFile" yaml:"dataFile" validate:"required"`
	GitHub   GitHubConfig `json:"GitHub" yaml:"github"`
}

type GitHubConfig struct {
	APIBase  string        `json:"APIBase" yaml:"apiBase" validate:"omitempty,url"`
	Token    string        `json:"Token" yaml:"token"`
	CacheTTL time.Duration `json:"CacheTTL" yaml:"cacheTTL"`
	Timeout  time.Duration `json:"Timeout" yaml:"timeout"`
}

type ContactConfig struct {
	CookieKey     string          `json:"CookieKey" yaml:"cookieKey" validate:"omitempty,base64"`
	SecureCookie  bool            `json:"SecureCookie" yaml:"secureCookie"`
	ChallengeTTL  time.Duration   `json:"ChallengeTTL" yaml:"challengeTTL"`
	RateLimit     RateLimitConfig `json:"RateLimit" yaml:"rateLimit"`
	Salt          string          `json:"Salt" yaml:"salt" validate:"required"`
	Db            DbConfig        `json:"Db" yaml:"db" validate:"required"`
	Mail          MailConfig      `json:"Mail" yaml:"mail" validate:"required"`
	TemplatesPath string          `json:"TemplatesPath" yaml:"templatesPath"`
}

type RateLimitConfig struct {
	Max    int           `json:"Max" yaml:"max"`
	Window time.Duration `json:"Window" yaml:"window"`
}

type DbConfig struct {
	Type string        `json:"Type" yaml:"type" validate:"required,oneof=sqlite3"`
	Cfg  Sqlite3Config `json:"Config" yaml:"config"`
}

type Sqlite3Config struct {
	DSN string `json:"DSN" yaml:"dsn" validate:"required"`
}

type MailConfig struct {
	Enabled     bool   `json:"Enabled" yaml:"enabled"`
	MailHost    string `json:"MailHost" yaml:"mailHost" validate:"required_if=Enabled true"`
	Port        int    `json:"Port" yaml:"port"`
	PublicName  string `json:"PublicName" yaml:"publicName" validate:"required"`
	MailAddress string `json:"MailAddress" yaml:"mailAddress" validate:"required,email"`
	Recipient   string `json:"Recipient" yaml:"recipient" validate:"required,email"`
	Username    string `json:"Username" yaml:"username"`
	Password    string `json:"Password" yaml:"password"`
	Lang        string `json:"Lang" yaml:"lang"`
}

type AvailableLanguageConfig struct {
	Name    string `json:"Name" yaml:"name" validate:"required"`
	Alt     string `json:"Alt" yaml:"alt"`
	LocFile string `json:"LocFile" yaml:"locFile" validate:"required,filepath"`
}

func LoadConfig(path string, config *Config) error {
	fileBytes, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("fail to read config file: %w", err)
	}

	expandedFileBytes := []byte(os.ExpandEnv(string(fileBytes)))

	if err = yaml.Unmarshal(expandedFileBytes, config); err != nil {
		return fmt.Errorf("fail to parse config: %w", err)
	}

	return nil
}

func InitConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	config := &Config{}
	if err := LoadConfig(path, config); err != nil {
		return nil, err
	}

	config.setDefaults()

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// DefaultLanguage is the first configured language.
func (c *Config) DefaultLanguage() string {
	return c.AvailableLanguages[0].Name
}

func (c *Config) setDefaults() {
	if c.Listen == "" {
		c.Listen = ":3000"
	}
	if c.Site.AllowOrigins == "" {
		c.Site.AllowOrigins = "*"
	}
	if c.Site.FeedCacheTTL == 0 {
		c.Site.FeedCacheTTL = time.Hour
	}
	if c.Site.APICacheTTL == 0 {
		c.Site.APICacheTTL = 5 * time.Minute
	}
	if c.Content.Pattern == "" {
		c.Content.Pattern = "**.md"
	}
	if c.Content.WatchInterval == 0 {
		c.Content.WatchInterval = 10 * time.Minute
	}
	if c.Projects.GitHub.APIBase == "" {
		c.Projects.GitHub.APIBase = "https://api.github.com"
	}
	if c.Projects.GitHub.CacheTTL == 0 {
		c.Projects.GitHub.CacheTTL = time.Hour
	}
	if c.Projects.GitHub.Timeout == 0 {
		c.Projects.GitHub.Timeout = 10 * time.Second
	}
	if c.Contact.ChallengeTTL == 0 {
		c.Contact.ChallengeTTL = 15 * time.Minute
	}
	if c.Contact.RateLimit.Max == 0 {
		c.Contact.RateLimit.Max = 5
	}
	if c.Contact.RateLimit.Window == 0 {
		c.Contact.RateLimit.Window = time.Hour
	}
	if c.Contact.Db.Type == "" {
		c.Contact.Db.Type = "sqlite3"
	}
	if c.Contact.Mail.Port == 0 {
		c.Contact.Mail.Port = 587
	}
	if c.Contact.Mail.Lang == "" {
		c.Contact.Mail.Lang = "en"
	}
	if c.Contact.TemplatesPath == "" {
		c.Contact.TemplatesPath = "views"
	}
}

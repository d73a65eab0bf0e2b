package locale

import (
	"fmt"
	"os"

	"github.com/adeneu/portfolio-web/config"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type LocaleConfig struct {
	Feed FeedConfig `yaml:"Feed" json:"Feed" validate:"required"`
	Mail MailConfig `yaml:"Mail" json:"Mail" validate:"required"`
}

type FeedConfig struct {
	Title       string `yaml:"Title" json:"Title" validate:"required"`
	Description string `yaml:"Description" json:"Description" validate:"required"`
}

type MailConfig struct {
	Contact ContactMailConfig `yaml:"Contact" json:"Contact" validate:"required"`
}

// ContactMailConfig holds the strings of the message relayed from the
// contact form. "{}" in Subject is replaced by the sender's name.
type ContactMailConfig struct {
	Subject  string `yaml:"Subject" json:"Subject" validate:"required"`
	Header   string `yaml:"Header" json:"Header" validate:"required"`
	Name     string `yaml:"Name" json:"Name" validate:"required"`
	Email    string `yaml:"Email" json:"Email" validate:"required"`
	Topic    string `yaml:"Topic" json:"Topic" validate:"required"`
	Message  string `yaml:"Message" json:"Message" validate:"required"`
	SentFrom string `yaml:"SentFrom" json:"SentFrom" validate:"required"`
}

func LoadConfig(path string, config *LocaleConfig) error {
	fileBytes, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("fail to read locale file: %w", err)
	}

	if err = yaml.Unmarshal(fileBytes, config); err != nil {
		return fmt.Errorf("fail to parse locale file: %w", err)
	}

	return nil
}

func InitConfig(path string) (*LocaleConfig, error) {
	config := &LocaleConfig{}
	if err := LoadConfig(path, config); err != nil {
		return nil, err
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid locale '%s': %w", path, err)
	}

	return config, nil
}

// InitAll loads the locale file of every available language.
func InitAll(localePath string, languages []config.AvailableLanguageConfig) (map[string]*LocaleConfig, error) {
	localization := make(map[string]*LocaleConfig, len(languages))
	for _, lang := range languages {
		localeCfg, err := InitConfig(localePath + lang.LocFile)
		if err != nil {
			return nil, fmt.Errorf("fail to initialize a locale: %w", err)
		}
		localization[lang.Name] = localeCfg
	}
	return localization, nil
}

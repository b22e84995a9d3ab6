package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	// LabelsConfig keeps fixed texts placed on generated slides.
	LabelsConfig struct {
		ServiceDateLayout string `yaml:"service_date_layout" validate:"required"`
		SermonSpeaker     string `yaml:"sermon_speaker"`
		DefaultPrayer     string `yaml:"default_prayer"`
		Praise            string `yaml:"praise" validate:"required"`
		Offering          string `yaml:"offering" validate:"required"`
		Closing           string `yaml:"closing" validate:"required"`
	}

	DocumentConfig struct {
		TemplatePath          string       `yaml:"template_path" sanitize:"assure_file_access"`
		OutputNameTemplate    string       `yaml:"output_name_template"`
		FileNameTransliterate bool         `yaml:"file_name_transliterate"`
		FixZip                bool         `yaml:"fix_zip"`
		Labels                LabelsConfig `yaml:"labels"`
	}

	CorpusConfig struct {
		Dir         string `yaml:"dir"`
		Encoding    string `yaml:"encoding" validate:"required"`
		Placeholder string `yaml:"missing_placeholder"`
		Cache       bool   `yaml:"cache"`
	}

	StoreConfig struct {
		Path string `yaml:"path" sanitize:"path_clean" validate:"required,filepath"`
	}

	CleanupConfig struct {
		OutputDir string        `yaml:"output_dir"`
		Interval  time.Duration `yaml:"interval" validate:"gt=0"`
		DeckTTL   time.Duration `yaml:"deck_ttl" validate:"gt=0"`
		PlanTTL   time.Duration `yaml:"plan_ttl" validate:"gt=0"`
	}

	LyricsConfig struct {
		ChromeBin string        `yaml:"chrome_bin"`
		Headless  bool          `yaml:"headless"`
		HomeURL   string        `yaml:"home_url" validate:"required,url"`
		Timeout   time.Duration `yaml:"timeout" validate:"gt=0"`
	}

	BuildConfig struct {
		Jobs   int  `yaml:"jobs" validate:"min=1,max=64"`
		Strict bool `yaml:"strict"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Document  DocumentConfig `yaml:"document"`
		Corpus    CorpusConfig   `yaml:"corpus"`
		Store     StoreConfig    `yaml:"store"`
		Cleanup   CleanupConfig  `yaml:"cleanup"`
		Lyrics    LyricsConfig   `yaml:"lyrics"`
		Build     BuildConfig    `yaml:"build"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("configuration sanitizing failed: %w", err)
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration tamplate to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}

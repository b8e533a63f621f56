package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"onemd/common"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	// HeadingStyle describes a single heading level. Index in
	// DocumentConfig.Headings is level-1.
	HeadingStyle struct {
		FontSize    float64 `yaml:"font_size" validate:"gt=0"`
		Bold        bool    `yaml:"bold"`
		SpaceBefore float64 `yaml:"space_before" validate:"gte=0"`
		SpaceAfter  float64 `yaml:"space_after" validate:"gte=0"`
	}

	ParagraphConfig struct {
		FontFamily  string  `yaml:"font_family" validate:"required"`
		FontSize    float64 `yaml:"font_size" validate:"gt=0"`
		SpaceBefore float64 `yaml:"space_before" validate:"gte=0"`
		SpaceAfter  float64 `yaml:"space_after" validate:"gte=0"`
	}

	ListsConfig struct {
		Indent         float64 `yaml:"indent" validate:"gte=0"`
		BulletWidth    float64 `yaml:"bullet_width" validate:"gte=0"`
		NumberWidth    float64 `yaml:"number_width" validate:"gte=0"`
		MarkerFontSize float64 `yaml:"marker_font_size" validate:"gt=0"`
	}

	QuotesConfig struct {
		Margin  float64 `yaml:"margin" validate:"gte=0"`
		Shading string  `yaml:"shading" validate:"omitempty,hexcolor"`
	}

	TablesConfig struct {
		// Overhead is horizontal space the host spends on borders and cell
		// padding of a single column table.
		Overhead      float64 `yaml:"overhead" validate:"gte=0"`
		HeaderShading string  `yaml:"header_shading" validate:"omitempty,hexcolor"`
	}

	CodeConfig struct {
		FontFamily string  `yaml:"font_family" validate:"required"`
		FontSize   float64 `yaml:"font_size" validate:"gt=0"`
		Background string  `yaml:"background" validate:"omitempty,hexcolor"`
		Color      string  `yaml:"color" validate:"omitempty,hexcolor"`
		Highlight  bool    `yaml:"highlight"`
		Style      string  `yaml:"style" validate:"required_if=Highlight true"`
	}

	InlineCodeConfig struct {
		FontFamily   string `yaml:"font_family" validate:"required"`
		Background   string `yaml:"background" validate:"omitempty,hexcolor"`
		Color        string `yaml:"color" validate:"omitempty,hexcolor"`
		PaddingChar  string `yaml:"padding_char"`
		PaddingCount int    `yaml:"padding_count" validate:"gte=0,lte=8"`
	}

	RuleConfig struct {
		Style     common.RuleStyle `yaml:"style"`
		Char      string           `yaml:"char" validate:"required_if=Style 0"`
		Count     int              `yaml:"count" validate:"gte=1"`
		Color     string           `yaml:"color" validate:"omitempty,hexcolor"`
		Thickness int              `yaml:"thickness" validate:"gte=1,lte=10"`
	}

	ImagesConfig struct {
		Align       common.ImageAlign `yaml:"align"`
		MaxWidth    int               `yaml:"max_width" validate:"gte=0"`
		MaxSize     int64             `yaml:"max_size" validate:"gt=0"`
		Timeout     time.Duration     `yaml:"timeout" validate:"gte=0"`
		AllowRemote bool              `yaml:"allow_remote"`
		JPEGQuality int               `yaml:"jpeg_quality_level" validate:"min=40,max=100"`
	}

	MathConfig struct {
		Enable       bool          `yaml:"enable"`
		Command      []string      `yaml:"command" validate:"required_if=Enable true,dive,required"`
		Timeout      time.Duration `yaml:"timeout" validate:"gte=0"`
		ReadyTimeout time.Duration `yaml:"ready_timeout" validate:"gte=0"`
	}

	// DocumentConfig is style configuration of the produced outline. It is
	// read only during conversion.
	DocumentConfig struct {
		Width      float64          `yaml:"width" validate:"gte=50"`
		Headings   []HeadingStyle   `yaml:"headings" validate:"len=6,dive"`
		Paragraph  ParagraphConfig  `yaml:"paragraph"`
		Lists      ListsConfig      `yaml:"lists"`
		Quotes     QuotesConfig     `yaml:"quotes"`
		Tables     TablesConfig     `yaml:"tables"`
		Code       CodeConfig       `yaml:"code"`
		InlineCode InlineCodeConfig `yaml:"inline_code"`
		Rule       RuleConfig       `yaml:"rule"`
		Images     ImagesConfig     `yaml:"images"`
		Math       MathConfig       `yaml:"math"`
	}

	OutputConfig struct {
		Format                common.OutputFmt `yaml:"format"`
		NameTemplate          string           `yaml:"name_template"`
		FileNameTransliterate bool             `yaml:"file_name_transliterate"`
		Indent                int              `yaml:"indent" validate:"gte=0,lte=8"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Document  DocumentConfig `yaml:"document"`
		Output    OutputConfig   `yaml:"output"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

// Heading returns style for requested heading level, levels outside of 1-6
// are clamped.
func (d *DocumentConfig) Heading(level int) HeadingStyle {
	idx := min(max(level-1, 0), len(d.Headings)-1)
	if idx < 0 {
		return HeadingStyle{FontSize: d.Paragraph.FontSize}
	}
	return d.Headings[idx]
}

const (
	// NOTE: must match yaml field name above
	OutputNameTemplateFieldName TemplateFieldName = "name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// Only fields we defined are allowed, so no yaml.Unmarshal here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
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

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	// NOTE: lists (headings, math command) are replaced as a whole, not merged
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

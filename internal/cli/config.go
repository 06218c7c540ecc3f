package cli

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/toyz/feigo/internal/errors"
	"github.com/toyz/feigo/internal/markers"
)

// DefaultConfigFile is read from the working directory when no -config flag
// is given. A missing default file is not an error.
const DefaultConfigFile = "feigo.yaml"

var validate = validator.New()

// Config holds the settings of one feigo run.
type Config struct {
	// Dir is the directory package patterns are resolved against.
	Dir string `validate:"required"`

	// Patterns are go package patterns such as ./... or ./api.
	Patterns []string `validate:"required,min=1,dive,required"`

	// Format selects the projection encoding.
	Format string `validate:"oneof=json yaml"`

	// Output is the file projections are written to. Empty or "-" means stdout.
	Output string

	AlwaysEncodeBody bool

	// MarkerPrefix is the comment namespace, feigo unless set.
	MarkerPrefix string `validate:"required,alphanum"`

	Watch    bool
	Debounce time.Duration `validate:"gte=0"`

	Verbose bool
	Quiet   bool `validate:"excluded_with=Verbose"`
}

// Overrides is a partial Config. Nil fields leave the target untouched. It
// is both the on-disk shape of feigo.yaml and the carrier for explicit flags.
type Overrides struct {
	Dir              *string        `yaml:"dir"`
	Patterns         []string       `yaml:"patterns"`
	Format           *string        `yaml:"format"`
	Output           *string        `yaml:"output"`
	AlwaysEncodeBody *bool          `yaml:"alwaysEncodeBody"`
	MarkerPrefix     *string        `yaml:"markerPrefix"`
	Watch            *bool          `yaml:"watch"`
	Debounce         *time.Duration `yaml:"debounce"`
	Verbose          *bool          `yaml:"verbose"`
	Quiet            *bool          `yaml:"quiet"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Dir:          ".",
		Patterns:     []string{"./..."},
		Format:       "json",
		MarkerPrefix: markers.DefaultPrefix,
		Debounce:     300 * time.Millisecond,
	}
}

// LoadConfig builds a Config from defaults, the config file and the
// environment, in that order. An empty path tries DefaultConfigFile.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		file, err := ParseOverrides(bytes.NewReader(data))
		if err != nil {
			return Config{}, errors.WrapConfigurationError(path, "parse", err)
		}
		cfg.Merge(file)
	case explicit || !stderrors.Is(err, os.ErrNotExist):
		return Config{}, errors.WrapConfigurationError(path, "read", err)
	}

	ApplyEnvOverrides(&cfg)
	return cfg, nil
}

// ParseOverrides decodes feigo.yaml content. Unknown keys are rejected.
func ParseOverrides(r io.Reader) (Overrides, error) {
	var o Overrides
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&o); err != nil && !stderrors.Is(err, io.EOF) {
		return Overrides{}, err
	}
	return o, nil
}

// Merge applies every set field of o.
func (c *Config) Merge(o Overrides) {
	if o.Dir != nil {
		c.Dir = *o.Dir
	}
	if o.Patterns != nil {
		c.Patterns = o.Patterns
	}
	if o.Format != nil {
		c.Format = *o.Format
	}
	if o.Output != nil {
		c.Output = *o.Output
	}
	if o.AlwaysEncodeBody != nil {
		c.AlwaysEncodeBody = *o.AlwaysEncodeBody
	}
	if o.MarkerPrefix != nil {
		c.MarkerPrefix = *o.MarkerPrefix
	}
	if o.Watch != nil {
		c.Watch = *o.Watch
	}
	if o.Debounce != nil {
		c.Debounce = *o.Debounce
	}
	if o.Verbose != nil {
		c.Verbose = *o.Verbose
	}
	if o.Quiet != nil {
		c.Quiet = *o.Quiet
	}
}

// ApplyEnvOverrides applies FEIGO_FORMAT and FEIGO_OUTPUT.
func ApplyEnvOverrides(cfg *Config) {
	if format := strings.TrimSpace(os.Getenv("FEIGO_FORMAT")); format != "" {
		cfg.Format = strings.ToLower(format)
	}
	if output := strings.TrimSpace(os.Getenv("FEIGO_OUTPUT")); output != "" {
		cfg.Output = output
	}
}

// Validate checks the merged configuration.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var valErrs validator.ValidationErrors
	if !stderrors.As(err, &valErrs) {
		return errors.WrapConfigurationError("feigo", "validate", err)
	}

	messages := make([]string, 0, len(valErrs))
	for _, ve := range valErrs {
		messages = append(messages, ve.Field()+": "+formatValidationError(ve))
	}
	return errors.ConfigurationError("feigo", strings.Join(messages, "; "))
}

// WritesToStdout reports whether projections go to standard output.
func (c Config) WritesToStdout() bool {
	return c.Output == "" || c.Output == "-"
}

func formatValidationError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "required"
	case "min":
		return fmt.Sprintf("must have at least %s entries", ve.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", strings.ReplaceAll(ve.Param(), " ", ", "))
	case "alphanum":
		return "must be alphanumeric"
	case "gte":
		return fmt.Sprintf("must be at least %s", ve.Param())
	case "excluded_with":
		return fmt.Sprintf("cannot be combined with %s", ve.Param())
	default:
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}

package recordcsv

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

// Profile is the YAML form of a Configuration. Unset keys keep their defaults.
//
//	separator: ";"
//	locale: fr-FR
//	fallbackLocale: en-US
//	encoding: utf-16le
//	headers: true
//	autoGenerate: never
//	bom: false
type Profile struct {
	Separator      *string `yaml:"separator,omitempty"`
	Locale         *string `yaml:"locale,omitempty"`
	FallbackLocale string  `yaml:"fallbackLocale,omitempty"`
	Encoding       string  `yaml:"encoding,omitempty"`
	Headers        *bool   `yaml:"headers,omitempty"`
	AutoGenerate   string  `yaml:"autoGenerate,omitempty"`
	BOM            *bool   `yaml:"bom,omitempty"`
	KeepStreamOpen *bool   `yaml:"keepStreamOpen,omitempty"`
	Strict         bool    `yaml:"strict,omitempty"`
	CRLF           bool    `yaml:"crlf,omitempty"`
}

// LoadConfiguration reads a YAML profile from path.
func LoadConfiguration(path string) (*Configuration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open profile: %w", err)
	}
	defer f.Close()
	cfg, err := DecodeConfiguration(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// DecodeConfiguration reads a YAML profile from r.
func DecodeConfiguration(r io.Reader) (*Configuration, error) {
	var p Profile
	if err := yaml.NewDecoder(r).Decode(&p); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: profile: %v", ErrInvalidArgument, err)
	}
	cfg := NewConfiguration()
	if err := p.Apply(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Apply sets every key of p on cfg. The locale is applied before the
// separator so that an explicit separator wins.
func (p *Profile) Apply(cfg *Configuration) error {
	if p.Locale != nil {
		if err := cfg.SetLocaleName(*p.Locale); err != nil {
			return err
		}
	}
	if p.FallbackLocale != "" {
		fb, err := ParseLocale(p.FallbackLocale)
		if err != nil {
			return err
		}
		cfg.SetFallback(FallbackTo(fb))
	}
	if p.Separator != nil {
		if err := cfg.SetSeparator(*p.Separator); err != nil {
			return err
		}
	}
	if p.Encoding != "" {
		enc, err := LookupEncoding(p.Encoding)
		if err != nil {
			return err
		}
		if err := cfg.SetEncoding(enc); err != nil {
			return err
		}
	}
	if p.Headers != nil {
		cfg.SetHasHeaders(*p.Headers)
	}
	if p.AutoGenerate != "" {
		a, err := parseAutoGenerate(p.AutoGenerate)
		if err != nil {
			return err
		}
		if err := cfg.SetAutoGenerate(a); err != nil {
			return err
		}
	}
	if p.BOM != nil {
		cfg.SetAddBOM(*p.BOM)
	}
	if p.KeepStreamOpen != nil {
		cfg.SetKeepStreamOpen(*p.KeepStreamOpen)
	}
	cfg.SetStrict(p.Strict)
	cfg.SetCRLF(p.CRLF)
	return nil
}

func parseAutoGenerate(s string) (AutoGenerate, error) {
	switch s {
	case "default", "unset":
		return AutoDefault, nil
	case "always", "true":
		return AutoAlways, nil
	case "never", "false":
		return AutoNever, nil
	}
	return 0, fmt.Errorf("%w: autoGenerate %q", ErrInvalidArgument, s)
}

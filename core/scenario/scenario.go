// Package scenario loads agent configurations from HCL, YAML or JSON files.
// Unset optional fields take the dashboard defaults.
package scenario

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"

	"agent-cost/core/engine"
	"agent-cost/core/types"
	"agent-cost/internal/errors"
)

// Format is a scenario file format
type Format string

const (
	FormatHCL  Format = "hcl"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatForPath picks the format from a file extension
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return FormatHCL, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", errors.Inputf("unsupported scenario file %q: use .hcl, .yaml, .yml or .json", path)
	}
}

// Scenario is a named pair of agent configurations
type Scenario struct {
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	Voice       *types.VoiceUsage `json:"voice,omitempty"`
	Email       *types.EmailUsage `json:"email,omitempty"`

	// Path is the file the scenario was loaded from
	Path string `json:"-"`
}

// Request converts the scenario into an estimate request
func (s *Scenario) Request() engine.Request {
	return engine.Request{Voice: s.Voice, Email: s.Email}
}

// document is the file shape. Optional fields are pointers so an absent
// field falls back to its default instead of zero.
type document struct {
	Name        string      `hcl:"name,optional" json:"name" yaml:"name"`
	Description string      `hcl:"description,optional" json:"description" yaml:"description"`
	Voice       *voiceBlock `hcl:"voice,block" json:"voice" yaml:"voice"`
	Email       *emailBlock `hcl:"email,block" json:"email" yaml:"email"`
}

type voiceBlock struct {
	MinutesPerCall    *float64 `hcl:"minutes_per_call,optional" json:"minutes_per_call" yaml:"minutes_per_call"`
	CallsPerDay       *int     `hcl:"calls_per_day,optional" json:"calls_per_day" yaml:"calls_per_day"`
	Model             *string  `hcl:"model,optional" json:"model" yaml:"model"`
	PhoneNumbers      *int     `hcl:"phone_numbers,optional" json:"phone_numbers" yaml:"phone_numbers"`
	MinReplicas       *int     `hcl:"min_replicas,optional" json:"min_replicas" yaml:"min_replicas"`
	BusinessHoursOnly *bool    `hcl:"business_hours_only,optional" json:"business_hours_only" yaml:"business_hours_only"`
}

type emailBlock struct {
	EmailsPerDay           *int     `hcl:"emails_per_day,optional" json:"emails_per_day" yaml:"emails_per_day"`
	PollingIntervalMinutes *float64 `hcl:"polling_interval_minutes,optional" json:"polling_interval_minutes" yaml:"polling_interval_minutes"`
	Model                  *string  `hcl:"model,optional" json:"model" yaml:"model"`
	RAGEnabled             *bool    `hcl:"rag_enabled,optional" json:"rag_enabled" yaml:"rag_enabled"`
	ManualPageCount        *int     `hcl:"manual_page_count,optional" json:"manual_page_count" yaml:"manual_page_count"`
	BusinessHoursOnly      *bool    `hcl:"business_hours_only,optional" json:"business_hours_only" yaml:"business_hours_only"`
}

// Load reads a scenario file
func Load(path string) (*Scenario, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("scenario file", path)
		}
		return nil, errors.Wrapf(errors.TypeParsing, err, "reading scenario %s", path)
	}
	s, err := Parse(data, path, format)
	if err != nil {
		return nil, err
	}
	s.Path = path
	return s, nil
}

// Parse decodes and validates scenario bytes. filename is used in
// diagnostics only.
func Parse(data []byte, filename string, format Format) (*Scenario, error) {
	var doc document
	switch format {
	case FormatHCL:
		if err := decodeHCL(data, filename, &doc); err != nil {
			return nil, err
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, errors.Parsing(fmt.Sprintf("malformed YAML scenario %s", filename), err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, errors.Parsing(fmt.Sprintf("malformed JSON scenario %s", filename), err)
		}
	default:
		return nil, errors.Inputf("unsupported scenario format %q", format)
	}
	return doc.resolve()
}

func decodeHCL(data []byte, filename string, doc *document) error {
	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if !diags.HasErrors() {
		diags = append(diags, gohcl.DecodeBody(file.Body, nil, doc)...)
	}
	if !diags.HasErrors() {
		return nil
	}

	var problems []string
	for _, diag := range diags {
		if diag.Severity != hcl.DiagError {
			continue
		}
		line := 0
		if diag.Subject != nil {
			line = diag.Subject.Start.Line
		}
		problems = append(problems, fmt.Sprintf("%s:%d: %s: %s", filename, line, diag.Summary, diag.Detail))
	}
	return errors.Problems(errors.TypeParsing, "malformed HCL scenario", problems)
}

func (d *document) resolve() (*Scenario, error) {
	s := &Scenario{Name: d.Name, Description: d.Description}
	var problems []string

	if d.Voice != nil {
		v := types.DefaultVoiceUsage()
		if d.Voice.MinutesPerCall == nil {
			problems = append(problems, "voice.minutes_per_call is required")
		} else {
			v.MinutesPerCall = *d.Voice.MinutesPerCall
		}
		if d.Voice.CallsPerDay == nil {
			problems = append(problems, "voice.calls_per_day is required")
		} else {
			v.CallsPerDay = *d.Voice.CallsPerDay
		}
		if d.Voice.Model != nil {
			v.Model = types.VoiceModel(types.NormalizeModelKey(*d.Voice.Model))
		}
		setInt(&v.PhoneNumbers, d.Voice.PhoneNumbers)
		setInt(&v.MinReplicas, d.Voice.MinReplicas)
		setBool(&v.BusinessHoursOnly, d.Voice.BusinessHoursOnly)
		s.Voice = &v
	}

	if d.Email != nil {
		e := types.DefaultEmailUsage()
		if d.Email.EmailsPerDay == nil {
			problems = append(problems, "email.emails_per_day is required")
		} else {
			e.EmailsPerDay = *d.Email.EmailsPerDay
		}
		if d.Email.PollingIntervalMinutes != nil {
			e.PollingIntervalMinutes = *d.Email.PollingIntervalMinutes
		}
		if d.Email.Model != nil {
			e.Model = types.EmailModel(types.NormalizeModelKey(*d.Email.Model))
		}
		setBool(&e.RAGEnabled, d.Email.RAGEnabled)
		setInt(&e.ManualPageCount, d.Email.ManualPageCount)
		setBool(&e.BusinessHoursOnly, d.Email.BusinessHoursOnly)
		s.Email = &e
	}

	if s.Voice == nil && s.Email == nil {
		problems = append(problems, "scenario needs a voice or email block")
	}
	if err := errors.Problems(errors.TypeInput, "invalid scenario", problems); err != nil {
		return nil, err
	}

	if s.Voice != nil {
		if err := s.Voice.Validate(); err != nil {
			return nil, err
		}
	}
	if s.Email != nil {
		if err := s.Email.Validate(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

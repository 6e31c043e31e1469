// Package profile holds the marker configuration shared by every lexicon
// component. A Profile is built once (defaults, then an optional YAML file,
// then SFMLEX_* environment overrides), validated, and passed explicitly to
// the tokenizer, assembler, index, and validators.
package profile

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/sfmlex/core/errors"
)

// Profile describes the marker conventions of one lexicon database.
//
// Markers are stored without the leader character.
type Profile struct {
	// Leader is the single character that begins every field line.
	Leader string `json:"leader" yaml:"leader" validate:"required,len=1"`

	// HeaderMarker marks preamble lines (e.g. "\_sh v3.0") kept as header text.
	HeaderMarker string `json:"header_marker" yaml:"header_marker" validate:"omitempty,marker"`

	// RecordMarker begins each entry.
	RecordMarker string `json:"record_marker" yaml:"record_marker" validate:"required,marker"`

	// EntryMarkers contribute keys to the index (headwords and subentries).
	EntryMarkers []string `json:"entry_markers" yaml:"entry_markers" validate:"required,min=1,dive,marker"`

	// HomographMarker holds an explicit homograph number for the field before it.
	HomographMarker string `json:"homograph_marker" yaml:"homograph_marker" validate:"omitempty,marker"`

	// ExcludeMarkers keep a record out of the index when present.
	ExcludeMarkers []string `json:"exclude_markers" yaml:"exclude_markers" validate:"dive,marker"`

	// LinkMarkers are fields whose value should name exactly one entry.
	LinkMarkers []string `json:"link_markers" yaml:"link_markers" validate:"dive,marker"`

	// VariantMarkers are link markers that also get the symmetric-variant check.
	VariantMarkers []string `json:"variant_markers" yaml:"variant_markers" validate:"dive,marker"`

	// NoHomographMarkers keep a record out of homograph numbering.
	NoHomographMarkers []string `json:"no_homograph_markers" yaml:"no_homograph_markers" validate:"dive,marker"`

	// MinorMarkers identify minor entries that redirect to a main entry.
	MinorMarkers []string `json:"minor_markers" yaml:"minor_markers" validate:"dive,marker"`

	// BackrefMarkers are main-entry fields that may name a minor entry.
	BackrefMarkers []string `json:"backref_markers" yaml:"backref_markers" validate:"dive,marker"`

	// MaxHomograph bounds automatic homograph numbering.
	MaxHomograph int `json:"max_homograph" yaml:"max_homograph" validate:"min=1,max=9999"`

	// ResyncWindow is how far ahead reconciliation looks to realign.
	ResyncWindow int `json:"resync_window" yaml:"resync_window" validate:"min=0,max=100"`
}

// Default returns the MDF (Multi-Dictionary Formatter) conventions.
func Default() *Profile {
	return &Profile{
		Leader:          `\`,
		HeaderMarker:    "_",
		RecordMarker:    "lx",
		EntryMarkers:    []string{"lx", "se"},
		HomographMarker: "hm",
		LinkMarkers: []string{
			"cf", "cflx", "lxS", "lxW", "cfse", "cfsn", "sy", "mn", "mnse", "mnva", "an", "lv",
			"ccf", "cdiff", "cfcpx", "cfroot",
		},
		VariantMarkers: []string{
			"va", "vase", "vasn", "valx", "vaN", "vaNS", "vaNSW", "vaNW", "vaS", "vaSW", "vaW",
		},
		NoHomographMarkers: []string{"mn", "mnse"},
		MinorMarkers:       []string{"mnse", "mnva"},
		BackrefMarkers: []string{
			"va", "se", "valx", "lxS", "lxW", "vaN", "vaW", "vaS", "vaSW", "vaNW", "vaNS", "vaNSW",
		},
		MaxHomograph: 99,
		ResyncWindow: 5,
	}
}

// Load builds a profile with priority: env > file > defaults.
// An empty path skips the file step.
func Load(path string) (*Profile, error) {
	p := Default()

	if path != "" {
		if err := loadFile(path, p); err != nil {
			return nil, err
		}
	}

	loadFromEnv(p)

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func loadFile(path string, p *Profile) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewIO("read", path, err)
	}

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, p); err != nil {
		if jsonErr := json.Unmarshal(data, p); jsonErr != nil {
			perr := errors.NewParse("profile", path, err.Error())
			perr.Err = err
			return perr
		}
	}
	return nil
}

// EnvPrefix starts every environment override, e.g. SFMLEX_LINK_MARKERS.
const EnvPrefix = "SFMLEX_"

func loadFromEnv(p *Profile) {
	for name, dst := range map[string]*string{
		"LEADER":           &p.Leader,
		"HEADER_MARKER":    &p.HeaderMarker,
		"RECORD_MARKER":    &p.RecordMarker,
		"HOMOGRAPH_MARKER": &p.HomographMarker,
	} {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	for name, dst := range map[string]*[]string{
		"ENTRY_MARKERS":        &p.EntryMarkers,
		"EXCLUDE_MARKERS":      &p.ExcludeMarkers,
		"LINK_MARKERS":         &p.LinkMarkers,
		"VARIANT_MARKERS":      &p.VariantMarkers,
		"NO_HOMOGRAPH_MARKERS": &p.NoHomographMarkers,
		"MINOR_MARKERS":        &p.MinorMarkers,
		"BACKREF_MARKERS":      &p.BackrefMarkers,
	} {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = splitList(v)
		}
	}
	for name, dst := range map[string]*int{
		"MAX_HOMOGRAPH": &p.MaxHomograph,
		"RESYNC_WINDOW": &p.ResyncWindow,
	} {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			if i, err := strconv.Atoi(v); err == nil {
				*dst = i
			}
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// profileValidate is shared; validator instances cache struct metadata.
var profileValidate *validator.Validate

func init() {
	profileValidate = validator.New()
	_ = profileValidate.RegisterValidation("marker", validateMarker)
}

// validateMarker accepts a non-empty marker name with no whitespace and no
// leading backslash.
func validateMarker(fl validator.FieldLevel) bool {
	m := fl.Field().String()
	if m == "" || strings.HasPrefix(m, `\`) {
		return false
	}
	return strings.IndexFunc(m, unicode.IsSpace) < 0
}

// Validate checks the profile and reports the first offending field.
func (p *Profile) Validate() error {
	err := profileValidate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		verr := errors.NewValidation(fe.Namespace(), "failed '"+fe.Tag()+"' check")
		verr.Value = fieldValue(fe.Value())
		return verr
	}
	return errors.Wrap(err, "validate profile")
}

func fieldValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	default:
		return ""
	}
}

// HeaderTag is the line prefix that marks header lines, or "" if disabled.
func (p *Profile) HeaderTag() string {
	if p.HeaderMarker == "" {
		return ""
	}
	return p.Leader + p.HeaderMarker
}

// IsVariant reports whether m is a variant link marker.
func (p *Profile) IsVariant(m string) bool {
	return contains(p.VariantMarkers, m)
}

// IsLink reports whether m names a link field, variant links included.
func (p *Profile) IsLink(m string) bool {
	return contains(p.LinkMarkers, m) || contains(p.VariantMarkers, m)
}

func contains(list []string, m string) bool {
	for _, s := range list {
		if s == m {
			return true
		}
	}
	return false
}

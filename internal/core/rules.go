package core

// rules.go defines the configurable vocabulary behind classification.
//
// The rule history of this system drifted between several district-detection
// variants. Rather than hard-coding one, the variant is an explicit setting
// (DistrictRule + SearchWindow) with a documented default. Omitted keys in a
// rules file fall back to DefaultRuleSet.

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DistrictRule selects how strictly an address must show an administrative unit.
type DistrictRule string

const (
	// RuleDistrict requires a district marker preceded by at least one
	// character, with or without a county marker before it.
	RuleDistrict DistrictRule = "district"

	// RuleCountyThenDistrict requires a county marker followed later by a
	// district marker.
	RuleCountyThenDistrict DistrictRule = "county_then_district"

	// RuleCountyOrDistrict accepts either marker class on its own.
	RuleCountyOrDistrict DistrictRule = "county_or_district"
)

// WindowMode selects how much of the address the district check looks at.
type WindowMode string

const (
	WindowFull   WindowMode = "full"
	WindowFirstN WindowMode = "first_n"
)

// SearchWindow bounds the district check to a prefix of the address.
type SearchWindow struct {
	Mode WindowMode `yaml:"mode" json:"mode" validate:"required,oneof=full first_n"`
	N    int        `yaml:"n,omitempty" json:"n,omitempty" validate:"gte=0"`
}

// ColumnRule is one address-column matcher. Exactly one field is set.
type ColumnRule struct {
	Exact    string `yaml:"exact,omitempty" json:"exact,omitempty"`
	Contains string `yaml:"contains,omitempty" json:"contains,omitempty"`
	Index    *int   `yaml:"index,omitempty" json:"index,omitempty" validate:"omitempty,gte=0"`
}

// RuleSet is the complete classification and export vocabulary.
type RuleSet struct {
	Islands            []string          `yaml:"islands" json:"islands" validate:"required,min=1,dive,required"`
	PostalMarkers      []string          `yaml:"postal_markers" json:"postalMarkers" validate:"dive,required"`
	CountyMarkers      []string          `yaml:"county_markers" json:"countyMarkers" validate:"dive,len=1"`
	DistrictMarkers    []string          `yaml:"district_markers" json:"districtMarkers" validate:"required,min=1,dive,len=1"`
	PhoneColumnMarkers []string          `yaml:"phone_column_markers" json:"phoneColumnMarkers" validate:"dive,required"`
	Normalize          map[string]string `yaml:"normalize" json:"normalize" validate:"dive,keys,required,endkeys"`
	DistrictRule       DistrictRule      `yaml:"district_rule" json:"districtRule" validate:"required,oneof=district county_then_district county_or_district"`
	SearchWindow       SearchWindow      `yaml:"district_search_window" json:"districtSearchWindow"`
	AddressColumns     []ColumnRule      `yaml:"address_columns" json:"addressColumns" validate:"required,min=1,dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultRuleSet returns the compiled-in vocabulary.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		Islands:            []string{"澎湖", "金門", "連江", "馬祖", "蘭嶼", "綠島", "琉球"},
		PostalMarkers:      []string{"i郵箱", "郵政信箱", "PO BOX", "郵局"},
		CountyMarkers:      []string{"縣", "市"},
		DistrictMarkers:    []string{"鄉", "鎮", "市", "區"},
		PhoneColumnMarkers: []string{"電話", "連"},
		Normalize:          map[string]string{"台": "臺"},
		DistrictRule:       RuleDistrict,
		SearchWindow:       SearchWindow{Mode: WindowFull},
		AddressColumns: []ColumnRule{
			{Exact: "收件人地址"},
			{Exact: "收件地址"},
			{Contains: "地址"},
			{Contains: "地"},
		},
	}
}

// ParseRuleSet decodes YAML rules. Keys left out of data keep their defaults.
func ParseRuleSet(data []byte) (RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("parse rules: %w", err)
	}
	rs.fillDefaults(DefaultRuleSet())
	if err := rs.Validate(); err != nil {
		return RuleSet{}, err
	}
	return rs, nil
}

// LoadRuleSet reads rules from a YAML file. An empty path yields the defaults.
func LoadRuleSet(path string) (RuleSet, error) {
	if path == "" {
		return DefaultRuleSet(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("read rules file: %w", err)
	}
	return ParseRuleSet(data)
}

func (rs *RuleSet) fillDefaults(def RuleSet) {
	if rs.Islands == nil {
		rs.Islands = def.Islands
	}
	if rs.PostalMarkers == nil {
		rs.PostalMarkers = def.PostalMarkers
	}
	if rs.CountyMarkers == nil {
		rs.CountyMarkers = def.CountyMarkers
	}
	if rs.DistrictMarkers == nil {
		rs.DistrictMarkers = def.DistrictMarkers
	}
	if rs.PhoneColumnMarkers == nil {
		rs.PhoneColumnMarkers = def.PhoneColumnMarkers
	}
	if rs.Normalize == nil {
		rs.Normalize = def.Normalize
	}
	if rs.DistrictRule == "" {
		rs.DistrictRule = def.DistrictRule
	}
	if rs.SearchWindow.Mode == "" {
		rs.SearchWindow = def.SearchWindow
	}
	if rs.AddressColumns == nil {
		rs.AddressColumns = def.AddressColumns
	}
}

// Validate checks field constraints and the cross-field rules the struct
// tags cannot express. Returns an error describing all failures.
func (rs RuleSet) Validate() error {
	var errs []string

	if err := validate.Struct(rs); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate rules: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
	}

	if rs.SearchWindow.Mode == WindowFirstN && rs.SearchWindow.N <= 0 {
		errs = append(errs, "district_search_window.n must be positive when mode is first_n")
	}
	if rs.DistrictRule != RuleDistrict && len(rs.CountyMarkers) == 0 {
		errs = append(errs, fmt.Sprintf("district_rule %q needs at least one county marker", rs.DistrictRule))
	}
	for i, c := range rs.AddressColumns {
		set := 0
		if c.Exact != "" {
			set++
		}
		if c.Contains != "" {
			set++
		}
		if c.Index != nil {
			set++
		}
		if set != 1 {
			errs = append(errs, fmt.Sprintf("address_columns[%d] must set exactly one of exact, contains, index", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid rules:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Matchers builds the column matcher chain described by AddressColumns.
func (rs RuleSet) Matchers() []ColumnMatcher {
	matchers := make([]ColumnMatcher, 0, len(rs.AddressColumns))
	for _, c := range rs.AddressColumns {
		switch {
		case c.Exact != "":
			matchers = append(matchers, ExactMatcher(c.Exact))
		case c.Contains != "":
			matchers = append(matchers, ContainsMatcher(c.Contains))
		case c.Index != nil:
			matchers = append(matchers, IndexMatcher(*c.Index))
		}
	}
	return matchers
}

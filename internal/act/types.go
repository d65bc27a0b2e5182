// Package act holds the data model of an action package, the provider
// registries, and the contexts handed to providers while steps are generated
// and executed.
package act

// ConfigurableValue marks a field that is resolved from the run-time
// ActionPackageConfig instead of the action's own data.
const ConfigurableValue = "$configurable"

// GroupTargetPrefix prefixes a location that refers to the planet of another
// material group, e.g. "$group-target:Base Supplies".
const GroupTargetPrefix = "$group-target:"

// Defaults applied to contract actions when a field is left unset.
const (
	DefaultCurrency      = "NCC"
	DefaultDaysToFulfill = 3
)

// Trade directions for CONT Trade.
const (
	TradeBuying  = "BUYING"
	TradeSelling = "SELLING"
)

// ActionPackage is a named, ordered list of actions plus the material groups
// they reference. It is treated as immutable during a generation run.
type ActionPackage struct {
	Global  PackageGlobal   `yaml:"global" json:"global"`
	Actions []Action        `yaml:"actions" json:"actions"`
	Groups  []MaterialGroup `yaml:"groups" json:"groups"`
}

// PackageGlobal carries package-wide settings.
type PackageGlobal struct {
	Name string `yaml:"name" json:"name"`
}

// Action is one user-authored entry of a package. Type selects the provider;
// the remaining fields are interpreted by that provider.
type Action struct {
	Type          string   `yaml:"type" json:"type"`
	Name          string   `yaml:"name" json:"name"`
	Group         string   `yaml:"group,omitempty" json:"group,omitempty"`
	ContOrigin    string   `yaml:"cont_origin,omitempty" json:"contOrigin,omitempty"`
	ContDest      string   `yaml:"cont_dest,omitempty" json:"contDest,omitempty"`
	ContLocation  string   `yaml:"cont_location,omitempty" json:"contLocation,omitempty"`
	ContTradeType string   `yaml:"cont_trade_type,omitempty" json:"contTradeType,omitempty"`
	PaymentPerTon *float64 `yaml:"payment_per_ton,omitempty" json:"paymentPerTon,omitempty"`
	DaysToFulfill *int     `yaml:"days_to_fulfill,omitempty" json:"daysToFulfill,omitempty"`
	Currency      string   `yaml:"currency,omitempty" json:"currency,omitempty"`
	ContractNote  string   `yaml:"contract_note,omitempty" json:"contractNote,omitempty"`
}

// PaymentRate returns the payment per ton, 0 when unset.
func (a Action) PaymentRate() float64 {
	if a.PaymentPerTon == nil {
		return 0
	}
	return *a.PaymentPerTon
}

// Days returns the days-to-fulfill, DefaultDaysToFulfill when unset.
func (a Action) Days() int {
	if a.DaysToFulfill == nil {
		return DefaultDaysToFulfill
	}
	return *a.DaysToFulfill
}

// CurrencyOrDefault returns the requested currency or DefaultCurrency.
func (a Action) CurrencyOrDefault() string {
	if a.Currency == "" {
		return DefaultCurrency
	}
	return a.Currency
}

// MaterialGroup is a named, typed source of a material bill.
type MaterialGroup struct {
	Type      string `yaml:"type" json:"type"`
	Name      string `yaml:"name" json:"name"`
	Planet    string `yaml:"planet,omitempty" json:"planet,omitempty"`
	Materials string `yaml:"materials,omitempty" json:"materials,omitempty"`
}

// ActionPackageConfig resolves the configurable placeholders of a package for
// one run. Keys are action and group names.
type ActionPackageConfig struct {
	Actions        map[string]ActionConfig        `yaml:"actions" json:"actions"`
	MaterialGroups map[string]MaterialGroupConfig `yaml:"material_groups" json:"materialGroups"`
}

// Action returns the config of the named action, or the zero value.
func (c ActionPackageConfig) Action(name string) ActionConfig {
	if c.Actions == nil {
		return ActionConfig{}
	}
	return c.Actions[name]
}

// MaterialGroup returns the config of the named group, or the zero value.
func (c ActionPackageConfig) MaterialGroup(name string) MaterialGroupConfig {
	if c.MaterialGroups == nil {
		return MaterialGroupConfig{}
	}
	return c.MaterialGroups[name]
}

// ActionConfig holds the configure-time answers for an action. An empty string
// means the value was not provided.
type ActionConfig struct {
	Origin      string `yaml:"origin,omitempty" json:"origin,omitempty"`
	Destination string `yaml:"destination,omitempty" json:"destination,omitempty"`
	Location    string `yaml:"location,omitempty" json:"location,omitempty"`
}

// MaterialGroupConfig holds the configure-time answers for a material group.
type MaterialGroupConfig struct {
	Materials string `yaml:"materials,omitempty" json:"materials,omitempty"`
	Planet    string `yaml:"planet,omitempty" json:"planet,omitempty"`
}

// State is the read-only snapshot shared by every action of a run.
// Warehouses maps an exchange code to ticker -> on-hand quantity.
type State struct {
	Warehouses map[string]map[string]int `json:"WAR"`
}

// RunResult is the outcome of one generation pass. Fail is true whenever
// Steps is empty or any action failed.
type RunResult struct {
	Steps []Step `json:"steps"`
	Fail  bool   `json:"fail"`
}

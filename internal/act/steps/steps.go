// Package steps implements the action steps that drive the game's contract
// editor, and the autosuggest helpers they share.
package steps

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/xkilldash9x/prunact/internal/act"
	"github.com/xkilldash9x/prunact/internal/act/selectors"
	"github.com/xkilldash9x/prunact/internal/gamedata"
)

// Step type tags.
const (
	TypeContSend  = "CONT_SEND"
	TypeContTrade = "CONT_TRADE"
)

// ContractDraftsCommand opens the contract draft list; "<command> <id>"
// opens a single draft.
const ContractDraftsCommand = "CONTD"

// Template option values of the template type select.
const (
	TemplateShip    = "SHIP"
	TemplateBuying  = act.TradeBuying
	TemplateSelling = act.TradeSelling
)

// Timings bounds every wait of the contract steps.
type Timings struct {
	CreateButton      time.Duration `mapstructure:"create_button" yaml:"create_button"`
	TradeCreateButton time.Duration `mapstructure:"trade_create_button" yaml:"trade_create_button"`
	DraftCreated      time.Duration `mapstructure:"draft_created" yaml:"draft_created"`
	SelectTemplate    time.Duration `mapstructure:"select_template" yaml:"select_template"`
	Currency          time.Duration `mapstructure:"currency" yaml:"currency"`
	AddGroup          time.Duration `mapstructure:"add_group" yaml:"add_group"`
	ApplyReady        time.Duration `mapstructure:"apply_ready" yaml:"apply_ready"`
	ApplyBusy         time.Duration `mapstructure:"apply_busy" yaml:"apply_busy"`
	ApplySettle       time.Duration `mapstructure:"apply_settle" yaml:"apply_settle"`
	Suggestions       time.Duration `mapstructure:"suggestions" yaml:"suggestions"`
	MaterialSettle    time.Duration `mapstructure:"material_settle" yaml:"material_settle"`
}

// DefaultTimings matches the pace of the live game client.
func DefaultTimings() Timings {
	return Timings{
		CreateButton:      5 * time.Second,
		TradeCreateButton: 10 * time.Second,
		DraftCreated:      8 * time.Second,
		SelectTemplate:    5 * time.Second,
		Currency:          3 * time.Second,
		AddGroup:          2 * time.Second,
		ApplyReady:        5 * time.Second,
		ApplyBusy:         3 * time.Second,
		ApplySettle:       5 * time.Second,
		Suggestions:       5 * time.Second,
		MaterialSettle:    200 * time.Millisecond,
	}
}

// Deps are the collaborators of the contract steps.
type Deps struct {
	Selectors selectors.Set
	Materials gamedata.MaterialCatalog
	Drafts    gamedata.ContractDraftSource
	// Now stamps contract names. Defaults to time.Now.
	Now     func() time.Time
	Timings Timings
}

// Register adds the contract steps to b.
func Register(b *act.RegistryBuilder, deps Deps) {
	r := newRunner(deps)
	b.AddStep(act.NewStepInfo(TypeContSend, describeContSend, r.executeContSend)).
		AddStep(act.NewStepInfo(TypeContTrade, describeContTrade, r.executeContTrade))
}

// ContSendData is the payload of a CONT_SEND step.
type ContSendData struct {
	PackageName   string         `json:"packageName"`
	Materials     map[string]int `json:"materials"`
	ContractNote  string         `json:"contractNote,omitempty"`
	Payment       int            `json:"payment"`
	Currency      string         `json:"currency"`
	DaysToFulfill int            `json:"daysToFulfill"`
	ContOrigin    string         `json:"contOrigin,omitempty"`
	ContDest      string         `json:"contDest,omitempty"`
}

// NewContSend encodes a CONT_SEND step.
func NewContSend(data ContSendData) (act.Step, error) {
	return act.EncodeStep(TypeContSend, data)
}

// ContTradeData is the payload of a CONT_TRADE step.
type ContTradeData struct {
	PackageName   string             `json:"packageName"`
	Materials     map[string]int     `json:"materials"`
	Prices        map[string]float64 `json:"prices"`
	TradeType     string             `json:"tradeType"`
	Location      string             `json:"location"`
	Currency      string             `json:"currency"`
	DaysToFulfill int                `json:"daysToFulfill"`
}

// NewContTrade encodes a CONT_TRADE step.
func NewContTrade(data ContTradeData) (act.Step, error) {
	return act.EncodeStep(TypeContTrade, data)
}

var numbers = message.NewPrinter(language.English)

// fixed0 renders a number rounded to an integer with thousands separators.
func fixed0(v float64) string {
	return numbers.Sprintf("%d", int64(act.RoundHalfUp(v)))
}

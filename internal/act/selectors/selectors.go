// Package selectors names the parts of the game page the action steps drive.
// The page styles its components with CSS modules, so class names carry a
// hash suffix ("Button__btn___UJGZ1b"); selectors match on the stable prefix.
package selectors

// Set is the full selector configuration.
type Set struct {
	Button            Button            `mapstructure:"button" yaml:"button"`
	TemplateSelection TemplateSelection `mapstructure:"template_selection" yaml:"template_selection"`
	MaterialSelector  MaterialSelector  `mapstructure:"material_selector" yaml:"material_selector"`
	AddressSelector   AddressSelector   `mapstructure:"address_selector" yaml:"address_selector"`
	ColoredIcon       ColoredIcon       `mapstructure:"colored_icon" yaml:"colored_icon"`
	Tile              Tile              `mapstructure:"tile" yaml:"tile"`
	ContractDrafts    ContractDrafts    `mapstructure:"contract_drafts" yaml:"contract_drafts"`
}

type Button struct {
	Btn string `mapstructure:"btn" yaml:"btn"`
	// DisabledClass is a class prefix, tested with dom.Driver.MatchesClass.
	DisabledClass string `mapstructure:"disabled_class" yaml:"disabled_class"`
}

type TemplateSelection struct {
	TemplateTypeSelect string `mapstructure:"template_type_select" yaml:"template_type_select"`
	Group              string `mapstructure:"group" yaml:"group"`
}

type MaterialSelector struct {
	Container            string `mapstructure:"container" yaml:"container"`
	Input                string `mapstructure:"input" yaml:"input"`
	SuggestionsContainer string `mapstructure:"suggestions_container" yaml:"suggestions_container"`
	SuggestionsList      string `mapstructure:"suggestions_list" yaml:"suggestions_list"`
	SuggestionEntry      string `mapstructure:"suggestion_entry" yaml:"suggestion_entry"`
}

type AddressSelector struct {
	Container         string `mapstructure:"container" yaml:"container"`
	Input             string `mapstructure:"input" yaml:"input"`
	SuggestionContent string `mapstructure:"suggestion_content" yaml:"suggestion_content"`
	// PortalID is the id of the page-level overlay the suggestions render in.
	PortalID string `mapstructure:"portal_id" yaml:"portal_id"`
}

type ColoredIcon struct {
	Label string `mapstructure:"label" yaml:"label"`
}

type Tile struct {
	Frame        string `mapstructure:"frame" yaml:"frame"`
	Command      string `mapstructure:"command" yaml:"command"`
	Anchor       string `mapstructure:"anchor" yaml:"anchor"`
	CommandInput string `mapstructure:"command_input" yaml:"command_input"`
}

type ContractDrafts struct {
	// NaturalID matches the cells holding a draft's natural id.
	NaturalID string `mapstructure:"natural_id" yaml:"natural_id"`
}

// Default returns the selectors of the current game client.
func Default() Set {
	return Set{
		Button: Button{
			Btn:           `[class*="Button__btn"]`,
			DisabledClass: "Button__disabled",
		},
		TemplateSelection: TemplateSelection{
			TemplateTypeSelect: `[class*="TemplateSelection__templateTypeSelect"]`,
			Group:              `[class*="TemplateSelection__group"]`,
		},
		MaterialSelector: MaterialSelector{
			Container:            `[class*="MaterialSelector__container"]`,
			Input:                `[class*="MaterialSelector__input"]`,
			SuggestionsContainer: `[class*="MaterialSelector__suggestionsContainer"]`,
			SuggestionsList:      `[class*="MaterialSelector__suggestionsList"]`,
			SuggestionEntry:      `[class*="MaterialSelector__suggestionEntry"]`,
		},
		AddressSelector: AddressSelector{
			Container:         `[class*="AddressSelector__container"]`,
			Input:             `[class*="AddressSelector__input"]`,
			SuggestionContent: `[class*="AddressSelector__suggestionContent"]`,
			PortalID:          "autosuggest-portal",
		},
		ColoredIcon: ColoredIcon{
			Label: `[class*="ColoredIcon__label"]`,
		},
		Tile: Tile{
			Frame:        `[class*="TileFrame__frame"]`,
			Command:      `[class*="TileFrame__cmd"]`,
			Anchor:       `[class*="TileFrame__anchor"]`,
			CommandInput: `[class*="PanelSelector__input"]`,
		},
		ContractDrafts: ContractDrafts{
			NaturalID: `[class*="ContractDrafts__naturalId"]`,
		},
	}
}

// Merge fills every empty field of s from Default.
func (s Set) Merge() Set {
	d := Default()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&s.Button.Btn, d.Button.Btn)
	fill(&s.Button.DisabledClass, d.Button.DisabledClass)
	fill(&s.TemplateSelection.TemplateTypeSelect, d.TemplateSelection.TemplateTypeSelect)
	fill(&s.TemplateSelection.Group, d.TemplateSelection.Group)
	fill(&s.MaterialSelector.Container, d.MaterialSelector.Container)
	fill(&s.MaterialSelector.Input, d.MaterialSelector.Input)
	fill(&s.MaterialSelector.SuggestionsContainer, d.MaterialSelector.SuggestionsContainer)
	fill(&s.MaterialSelector.SuggestionsList, d.MaterialSelector.SuggestionsList)
	fill(&s.MaterialSelector.SuggestionEntry, d.MaterialSelector.SuggestionEntry)
	fill(&s.AddressSelector.Container, d.AddressSelector.Container)
	fill(&s.AddressSelector.Input, d.AddressSelector.Input)
	fill(&s.AddressSelector.SuggestionContent, d.AddressSelector.SuggestionContent)
	fill(&s.AddressSelector.PortalID, d.AddressSelector.PortalID)
	fill(&s.ColoredIcon.Label, d.ColoredIcon.Label)
	fill(&s.Tile.Frame, d.Tile.Frame)
	fill(&s.Tile.Command, d.Tile.Command)
	fill(&s.Tile.Anchor, d.Tile.Anchor)
	fill(&s.Tile.CommandInput, d.Tile.CommandInput)
	fill(&s.ContractDrafts.NaturalID, d.ContractDrafts.NaturalID)
	return s
}

// Package icon renders UI symbols in one of several styles.
//
// Icons can be displayed as emoji, nerd-font glyphs, plain ASCII, kaomoji,
// or Unicode squares depending on user preference.
package icon

import (
	"github.com/spf13/viper"
	"github.com/vidhunt/vidhunt/key"
)

const (
	emoji   = "emoji"
	nerd    = "nerd"
	plain   = "plain"
	kaomoji = "kaomoji"
	squares = "squares"
)

// AvailableVariants returns all supported icon styles.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain, kaomoji, squares}
}

// Icon identifies a symbol.
type Icon int

const (
	Lua Icon = iota + 1
	Go
	Fail
	Success
	Progress
	Search
	Link
	Mark
	Proxy
	Stream
)

type iconDef struct {
	emoji   string
	nerd    string
	plain   string
	kaomoji string
	squares string
}

var icons = map[Icon]*iconDef{
	Lua:      {emoji: "🌙", nerd: "", plain: "lua", kaomoji: "(=^･ω･^=)", squares: "🟦"},
	Go:       {emoji: "🐹", nerd: "", plain: "go", kaomoji: "ʕ•ᴥ•ʔ", squares: "🟦"},
	Fail:     {emoji: "💀", nerd: "", plain: "X", kaomoji: "(×﹏×)", squares: "🟥"},
	Success:  {emoji: "🎉", nerd: "", plain: "OK", kaomoji: "(ᵔᴥᵔ)", squares: "🟩"},
	Progress: {emoji: "👨‍🍳", nerd: "", plain: "...", kaomoji: "┗(･ω･;)┛", squares: "🟨"},
	Search:   {emoji: "🔍", nerd: "", plain: "?", kaomoji: "⌐■-■", squares: "🟪"},
	Link:     {emoji: "🔗", nerd: "", plain: "->", kaomoji: "(・-・)>", squares: "🟫"},
	Mark:     {emoji: "📌", nerd: "", plain: "*", kaomoji: "(•̀ᴗ•́)و", squares: "🟧"},
	Proxy:    {emoji: "🛰", nerd: "", plain: "~", kaomoji: "(ﾉ◕ヮ◕)ﾉ", squares: "⬜"},
	Stream:   {emoji: "🎬", nerd: "", plain: ">", kaomoji: "(⌐▨_▨)", squares: "⬛"},
}

// Get renders the symbol for the configured variant.
func (d *iconDef) Get() string {
	switch viper.GetString(key.IconsVariant) {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case plain:
		return d.plain
	case kaomoji:
		return d.kaomoji
	case squares:
		return d.squares
	default:
		return ""
	}
}

// Get returns the rendered symbol for i, or an empty string for an unknown icon.
func Get(i Icon) string {
	d, ok := icons[i]
	if !ok {
		return ""
	}

	return d.Get()
}

// Package custom provides a bridge between the Go core and Lua-based provider scripts.
package custom

import (
	"fmt"
	"strings"
	"sync"

	libs "github.com/metafates/mangal-lua-libs"
	"github.com/vidhunt/vidhunt/constant"
	"github.com/vidhunt/vidhunt/internal/scraper"
	"github.com/vidhunt/vidhunt/util"
	lua "github.com/yuin/gopher-lua"
)

// IDfromName generates a provider identifier for a Lua script basename when the script declares none.
func IDfromName(name string) string {
	return strings.ToLower(util.SanitizeFilename(name))
}

// Script is a loaded Lua provider. Its kind and capabilities follow from the scrape functions it defines.
type Script struct {
	ID       string
	Name     string
	Rank     int
	Flags    []string
	Disabled bool
	External bool
	Path     string

	hasMovie bool
	hasShow  bool
	hasEmbed bool

	// mu serializes access to state; a Lua state is not safe for concurrent use.
	mu    sync.Mutex
	state *lua.LState
	call  *callState
}

// LoadScript executes a Lua provider script and reads its metadata.
func LoadScript(path string) (*Script, error) {
	state := lua.NewState()
	libs.Preload(state)

	name := util.FileStem(path)
	s := &Script{Path: path, state: state}
	s.registerModule()
	s.registerTLSClient()

	if err := scraper.PreCompileAndLoad(state, path); err != nil {
		state.Close()
		return nil, err
	}

	s.hasMovie = state.GetGlobal(constant.ScrapeMovieFn).Type() == lua.LTFunction
	s.hasShow = state.GetGlobal(constant.ScrapeShowFn).Type() == lua.LTFunction
	s.hasEmbed = state.GetGlobal(constant.ScrapeEmbedFn).Type() == lua.LTFunction

	switch {
	case s.hasEmbed && (s.hasMovie || s.hasShow):
		state.Close()
		return nil, fmt.Errorf("%s defines both %s and source scrapers", name, constant.ScrapeEmbedFn)
	case !s.hasEmbed && !s.hasMovie && !s.hasShow:
		state.Close()
		return nil, fmt.Errorf("%s defines none of %s, %s, %s", name, constant.ScrapeMovieFn, constant.ScrapeShowFn, constant.ScrapeEmbedFn)
	}

	s.ID = globalString(state, constant.LuaID, IDfromName(name))
	s.Name = globalString(state, constant.LuaName, name)
	s.Rank = int(globalNumber(state, constant.LuaRank))
	s.Disabled = lua.LVAsBool(state.GetGlobal(constant.LuaDisabled))
	s.External = lua.LVAsBool(state.GetGlobal(constant.LuaExternal))
	if flags, ok := state.GetGlobal(constant.LuaFlags).(*lua.LTable); ok {
		s.Flags = tableStrings(flags)
	}

	return s, nil
}

// IsEmbed reports whether the script is an embed.
func (s *Script) IsEmbed() bool {
	return s.hasEmbed
}

// Close releases the Lua state.
func (s *Script) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Close()
}

func globalString(L *lua.LState, name, def string) string {
	if v := L.GetGlobal(name); v.Type() == lua.LTString && v.String() != "" {
		return v.String()
	}
	return def
}

func globalNumber(L *lua.LState, name string) lua.LNumber {
	if v, ok := L.GetGlobal(name).(lua.LNumber); ok {
		return v
	}
	return 0
}

// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

// Scraper Function Identifiers - a Lua provider implements any subset of these globals.
// Which ones are present decides the provider kind and its media capabilities.
const (
	ScrapeMovieFn = "ScrapeMovie"
	ScrapeShowFn  = "ScrapeShow"
	ScrapeEmbedFn = "ScrapeEmbed"
)

// Provider metadata globals read from a Lua provider script.
const (
	LuaID       = "ID"
	LuaName     = "NAME"
	LuaRank     = "RANK"
	LuaFlags    = "FLAGS"
	LuaDisabled = "DISABLED"
	LuaExternal = "EXTERNAL"
)

// CustomProviderExtension is the file extension of Lua provider scripts.
const CustomProviderExtension = ".lua"

// SourceTemplate is a Go text/template for scaffolding new Lua provider scripts.
const SourceTemplate = `{{ $divider := repeat "-" (plus (max (len .URL) (len .Name) (len .Author) 3) 12) }}{{ $divider }}
-- @name    {{ .Name }}
-- @url     {{ .URL }}
-- @author  {{ .Author }}
-- @license MIT
{{ $divider }}

----- METADATA -----
ID = "{{ .ID }}"
NAME = "{{ .Name }}"
RANK = {{ .Rank }}
FLAGS = { }
--- END METADATA ---

---@alias stream { id: string, type: "hls"|"file", playlist: string|nil, qualities: table|nil, headers: table|nil, flags: string[]|nil }
---@alias bundle { streams: stream[]|nil, embeds: { embed: string, url: string }[]|nil }
---@alias request { type: "movie"|"show", id: string, title: string, year: number, season: number|nil, episode: number|nil }

----- MAIN -----

--- Resolves streams for a movie. Remove to drop movie support.
-- @param req request
-- @return bundle
function {{ .ScrapeMovieFn }}(req)
	vidhunt.notfound("not implemented")
end

--- Resolves streams for a show episode. Remove to drop show support.
-- @param req request
-- @return bundle
function {{ .ScrapeShowFn }}(req)
	vidhunt.notfound("not implemented")
end

--- END MAIN ---

-- ex: ts=4 sw=4 et filetype=lua
`

// Package custom provides a bridge between the Go core and Lua-based provider scripts.
package custom

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/vidhunt/vidhunt/feature"
	"github.com/vidhunt/vidhunt/media"
	"github.com/vidhunt/vidhunt/source"
	"github.com/vidhunt/vidhunt/stream"
	lua "github.com/yuin/gopher-lua"
)

// Helper to get string from table with default
func getString(table *lua.LTable, key string) string {
	val := table.RawGetString(key)
	if val.Type() == lua.LTString {
		return val.String()
	}
	return ""
}

// getStringField is a helper to get a string field from a Lua table with a default.
func getStringField(tbl *lua.LTable, key string, def string) string {
	val := tbl.RawGetString(key)
	if val == lua.LNil {
		return def
	}
	return val.String()
}

// Helper to get string list from table (comma-separated or table)
func getStringList(table *lua.LTable, key string) []string {
	val := table.RawGetString(key)
	if val.Type() == lua.LTString {
		return lo.Map(strings.Split(val.String(), ","), func(s string, _ int) string {
			return strings.TrimSpace(s)
		})
	}
	if tbl, ok := val.(*lua.LTable); ok {
		return tableStrings(tbl)
	}
	return nil
}

func tableStrings(tbl *lua.LTable) []string {
	var list []string
	tbl.ForEach(func(_, v lua.LValue) {
		if v.Type() == lua.LTString {
			list = append(list, v.String())
		}
	})
	return list
}

func getStringMap(table *lua.LTable, key string) map[string]string {
	tbl, ok := table.RawGetString(key).(*lua.LTable)
	if !ok {
		return nil
	}

	m := make(map[string]string)
	tbl.ForEach(func(k, v lua.LValue) {
		m[k.String()] = v.String()
	})
	return m
}

func requestToTable(L *lua.LState, req media.Request) *lua.LTable {
	table := L.NewTable()
	table.RawSetString("type", lua.LString(req.Type))
	table.RawSetString("id", lua.LString(req.ID))
	table.RawSetString("title", lua.LString(req.Title))
	table.RawSetString("year", lua.LNumber(req.ReleaseYear))
	if req.Season != nil {
		table.RawSetString("season", lua.LNumber(req.Season.Number))
	}
	if req.Episode != nil {
		table.RawSetString("episode", lua.LNumber(req.Episode.Number))
	}
	return table
}

func bundleFromTable(table *lua.LTable) (*source.Bundle, error) {
	bundle := &source.Bundle{}
	var errs []error

	if streams, ok := table.RawGetString("streams").(*lua.LTable); ok {
		streams.ForEach(func(_, v lua.LValue) {
			tbl, ok := v.(*lua.LTable)
			if !ok {
				return
			}
			s, err := streamFromTable(tbl)
			if err != nil {
				errs = append(errs, err)
				return
			}
			bundle.Streams = append(bundle.Streams, s)
		})
	}

	if embeds, ok := table.RawGetString("embeds").(*lua.LTable); ok {
		embeds.ForEach(func(_, v lua.LValue) {
			tbl, ok := v.(*lua.LTable)
			if !ok {
				return
			}
			ref := source.EmbedRef{EmbedID: getString(tbl, "embed"), URL: getString(tbl, "url")}
			if ref.EmbedID == "" || ref.URL == "" {
				errs = append(errs, fmt.Errorf("embed must have embed and url"))
				return
			}
			bundle.Embeds = append(bundle.Embeds, ref)
		})
	}

	if bundle.Empty() && len(errs) > 0 {
		return nil, errs[0]
	}

	return bundle, nil
}

func streamFromTable(table *lua.LTable) (stream.Stream, error) {
	flags, err := feature.ParseSet(getStringList(table, "flags")...)
	if err != nil {
		return stream.Stream{}, err
	}

	s := stream.Stream{
		ID:               getStringField(table, "id", "primary"),
		Type:             stream.Type(getString(table, "type")),
		Playlist:         getString(table, "playlist"),
		Flags:            flags,
		Headers:          getStringMap(table, "headers"),
		PreferredHeaders: getStringMap(table, "preferred_headers"),
		ThumbnailTrack:   getString(table, "thumbnail_track"),
		Captions:         []stream.Caption{},
	}

	if qualities, ok := table.RawGetString("qualities").(*lua.LTable); ok {
		s.Qualities = make(map[stream.Quality]stream.Source)
		qualities.ForEach(func(k, v lua.LValue) {
			switch q := v.(type) {
			case lua.LString:
				s.Qualities[stream.Quality(k.String())] = stream.Source{Type: "mp4", URL: string(q)}
			case *lua.LTable:
				s.Qualities[stream.Quality(k.String())] = stream.Source{
					Type: getStringField(q, "type", "mp4"),
					URL:  getString(q, "url"),
				}
			}
		})
	}

	if captions, ok := table.RawGetString("captions").(*lua.LTable); ok {
		captions.ForEach(func(_, v lua.LValue) {
			tbl, ok := v.(*lua.LTable)
			if !ok {
				return
			}
			s.Captions = append(s.Captions, stream.Caption{
				ID:                  getStringField(tbl, "id", getString(tbl, "url")),
				Language:            getString(tbl, "language"),
				URL:                 getString(tbl, "url"),
				Type:                stream.CaptionType(getStringField(tbl, "type", "vtt")),
				HasCorsRestrictions: lua.LVAsBool(tbl.RawGetString("cors_restricted")),
			})
		})
	}

	if err := s.Validate(); err != nil {
		return stream.Stream{}, err
	}

	return s, nil
}

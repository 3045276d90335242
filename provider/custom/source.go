// Package custom provides a bridge between the Go core and Lua-based provider scripts.
package custom

import (
	"context"
	"fmt"

	"github.com/vidhunt/vidhunt/constant"
	"github.com/vidhunt/vidhunt/media"
	"github.com/vidhunt/vidhunt/source"
	lua "github.com/yuin/gopher-lua"
)

// callState is the scrape call currently running on a script.
type callState struct {
	ctx      context.Context
	sc       *source.Context
	notFound *string
}

// MovieScraper returns the movie scraper, or nil when the script has none.
func (s *Script) MovieScraper() source.MovieScraper {
	if !s.hasMovie {
		return nil
	}
	return func(ctx context.Context, sc *source.Context, req media.Request) (*source.Bundle, error) {
		return s.invoke(ctx, sc, constant.ScrapeMovieFn, func(L *lua.LState) lua.LValue { return requestToTable(L, req) })
	}
}

// ShowScraper returns the show scraper, or nil when the script has none.
func (s *Script) ShowScraper() source.ShowScraper {
	if !s.hasShow {
		return nil
	}
	return func(ctx context.Context, sc *source.Context, req media.Request) (*source.Bundle, error) {
		return s.invoke(ctx, sc, constant.ScrapeShowFn, func(L *lua.LState) lua.LValue { return requestToTable(L, req) })
	}
}

// EmbedScraper returns the embed scraper, or nil when the script is a source.
func (s *Script) EmbedScraper() source.EmbedScraper {
	if !s.hasEmbed {
		return nil
	}
	return func(ctx context.Context, ec *source.EmbedContext) (*source.Bundle, error) {
		return s.invoke(ctx, ec.Context, constant.ScrapeEmbedFn, func(*lua.LState) lua.LValue { return lua.LString(ec.URL) })
	}
}

// invoke runs a scrape function with exclusive access to the Lua state.
func (s *Script) invoke(ctx context.Context, sc *source.Context, fn string, arg func(*lua.LState) lua.LValue) (*source.Bundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.call = &callState{ctx: ctx, sc: sc}
	defer func() { s.call = nil }()

	s.state.SetContext(ctx)
	defer s.state.RemoveContext()

	val, err := s.callFn(fn, arg(s.state))
	if err != nil {
		if s.call.notFound != nil {
			return nil, source.NotFound(*s.call.notFound)
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", fn, ctx.Err())
		}
		return nil, err
	}

	switch v := val.(type) {
	case *lua.LNilType:
		return &source.Bundle{}, nil
	case *lua.LTable:
		return bundleFromTable(v)
	default:
		return nil, fmt.Errorf("%s returned %s, expected table", fn, val.Type())
	}
}

// callFn executes a global Lua function safely.
func (s *Script) callFn(fn string, args ...lua.LValue) (lua.LValue, error) {
	luaFn := s.state.GetGlobal(fn)
	if luaFn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("function %s is not defined", fn)
	}

	err := s.state.CallByParam(lua.P{
		Fn:      luaFn,
		NRet:    1,
		Protect: true,
	}, args...)
	if err != nil {
		return nil, err
	}

	retval := s.state.Get(-1)
	s.state.Pop(1)
	return retval, nil
}

// Package custom provides a bridge between the Go core and Lua-based provider scripts.
package custom

// The "vidhunt" global gives scripts access to the scrape context:
//
//	vidhunt.notfound(reason)               → aborts the scrape as not found
//	vidhunt.progress(percentage)           → reports progress, 0-100
//	vidhunt.fetch(url [, options_tbl])     → {status, body, final_url, headers}
//	vidhunt.proxied_fetch(url [, options]) → same, through the proxied fetcher
//
// options_tbl accepts method, body, headers and query tables.

import (
	"context"
	"strings"

	"github.com/vidhunt/vidhunt/network"
	lua "github.com/yuin/gopher-lua"
)

const moduleName = "vidhunt"

func (s *Script) registerModule() {
	L := s.state
	mod := L.NewTable()

	L.SetField(mod, "notfound", L.NewFunction(s.luaNotFound))
	L.SetField(mod, "progress", L.NewFunction(s.luaProgress))
	L.SetField(mod, "fetch", L.NewFunction(func(L *lua.LState) int {
		return s.luaFetch(L, false)
	}))
	L.SetField(mod, "proxied_fetch", L.NewFunction(func(L *lua.LState) int {
		return s.luaFetch(L, true)
	}))

	L.SetGlobal(moduleName, mod)
}

func (s *Script) luaNotFound(L *lua.LState) int {
	reason := L.OptString(1, "")
	if s.call != nil {
		s.call.notFound = &reason
	}
	L.RaiseError("not found: %s", reason)
	return 0
}

func (s *Script) luaProgress(L *lua.LState) int {
	p := float64(L.CheckNumber(1))
	if s.call != nil {
		s.call.sc.Progress(p)
	}
	return 0
}

func (s *Script) luaFetch(L *lua.LState, proxied bool) int {
	if s.call == nil || s.call.sc == nil {
		L.RaiseError("fetch called outside of a scrape")
		return 0
	}

	req := network.Request{URL: L.CheckString(1), Method: "GET"}
	if opts := L.OptTable(2, nil); opts != nil {
		req.Method = strings.ToUpper(getStringField(opts, "method", "GET"))
		if body := getStringField(opts, "body", ""); body != "" {
			req.Body = []byte(body)
		}
		req.Headers = getStringMap(opts, "headers")
		req.Query = getStringMap(opts, "query")
	}

	fetcher := s.call.sc.Fetcher
	if proxied {
		fetcher = s.call.sc.ProxiedFetcher
	}
	if fetcher == nil {
		L.RaiseError("fetcher unavailable")
		return 0
	}

	resp, err := fetcher.Fetch(s.context(), req)
	if err != nil {
		L.RaiseError("fetch %s failed: %s", req.URL, err.Error())
		return 0
	}

	result := L.NewTable()
	L.SetField(result, "status", lua.LNumber(resp.StatusCode))
	L.SetField(result, "body", lua.LString(resp.Body))
	L.SetField(result, "final_url", lua.LString(resp.FinalURL))

	headers := L.NewTable()
	for k := range resp.Headers {
		headers.RawSetString(strings.ToLower(k), lua.LString(resp.Headers.Get(k)))
	}
	L.SetField(result, "headers", headers)

	L.Push(result)
	return 1
}

// context returns the context of the running scrape.
func (s *Script) context() context.Context {
	if s.call != nil && s.call.ctx != nil {
		return s.call.ctx
	}
	return context.Background()
}

// Package custom provides a bridge between the Go core and Lua-based provider scripts.
//
// The "http_tls" global performs requests with a Chrome TLS fingerprint, for provider
// sites whose CDN rejects the Go client hello.
//
// Lua API:
//
//	http_tls.get(url)              → returns body string
//	http_tls.get(url, headers_tbl) → returns body string with custom headers
//	http_tls.request(options_tbl)  → returns {status, body}
//
// request accepts method, url, body, headers and cache. Cached responses are kept on disk.
package custom

import (
	"net/http"

	"github.com/vidhunt/vidhunt/internal/cache"
	"github.com/vidhunt/vidhunt/network"
	lua "github.com/yuin/gopher-lua"
)

var tlsFetcher network.Fetcher = network.NewTLS()

// browserHeaders make a fingerprinted request look like a real browser navigation.
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.5",
}

type tlsCacheEntry struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

// registerTLSClient injects the "http_tls" global module into the script's Lua state.
func (s *Script) registerTLSClient() {
	L := s.state
	mod := L.NewTable()

	L.SetField(mod, "get", L.NewFunction(s.httpTLSGet))
	L.SetField(mod, "request", L.NewFunction(s.httpTLSRequest))

	L.SetGlobal("http_tls", mod)
}

func (s *Script) httpTLSGet(L *lua.LState) int {
	req := network.Request{Method: http.MethodGet, URL: L.CheckString(1)}
	if tbl := L.OptTable(2, nil); tbl != nil {
		req.Headers = map[string]string{}
		tbl.ForEach(func(k, v lua.LValue) {
			req.Headers[k.String()] = v.String()
		})
	}

	entry, err := s.doTLSRequest(req)
	if err != nil {
		L.RaiseError("http_tls.get failed: %s", err.Error())
		return 0
	}

	L.Push(lua.LString(entry.Body))
	return 1
}

func (s *Script) httpTLSRequest(L *lua.LState) int {
	opts := L.CheckTable(1)

	req := network.Request{
		Method:  getStringField(opts, "method", http.MethodGet),
		URL:     getStringField(opts, "url", ""),
		Headers: getStringMap(opts, "headers"),
	}
	if body := getStringField(opts, "body", ""); body != "" {
		req.Body = []byte(body)
	}

	if req.URL == "" {
		L.RaiseError("http_tls.request: url is required")
		return 0
	}

	shouldCache := lua.LVAsBool(opts.RawGetString("cache"))

	var key string
	if shouldCache {
		key = cache.GenerateKey(req.URL+string(req.Body), req.Method)
		var entry tlsCacheEntry
		if cache.Read(key, &entry) {
			L.Push(entryTable(L, entry))
			return 1
		}
	}

	entry, err := s.doTLSRequest(req)
	if err != nil {
		L.RaiseError("http_tls.request failed: %s", err.Error())
		return 0
	}

	if shouldCache && entry.Status == http.StatusOK {
		_ = cache.Write(key, entry)
	}

	L.Push(entryTable(L, entry))
	return 1
}

func (s *Script) doTLSRequest(req network.Request) (tlsCacheEntry, error) {
	headers := make(map[string]string, len(browserHeaders)+len(req.Headers))
	for k, v := range browserHeaders {
		headers[k] = v
	}
	for k, v := range req.Headers {
		headers[k] = v
	}
	req.Headers = headers

	resp, err := tlsFetcher.Fetch(s.context(), req)
	if err != nil {
		return tlsCacheEntry{}, err
	}

	return tlsCacheEntry{Status: resp.StatusCode, Body: string(resp.Body)}, nil
}

func entryTable(L *lua.LState, entry tlsCacheEntry) *lua.LTable {
	result := L.NewTable()
	L.SetField(result, "status", lua.LNumber(entry.Status))
	L.SetField(result, "body", lua.LString(entry.Body))
	return result
}

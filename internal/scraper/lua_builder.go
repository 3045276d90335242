// Package scraper compiles and runs Lua provider scripts.
package scraper

import (
	"bytes"
	"crypto/sha256"
	"sync"

	"github.com/vidhunt/vidhunt/filesystem"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

// bytecodeCache maps a script's content hash to its compiled prototype.
var bytecodeCache sync.Map

// PreCompileAndLoad executes a Lua script within the provided LState, utilizing a bytecode cache to minimize compilation overhead.
func PreCompileAndLoad(L *lua.LState, scriptPath string) error {
	source, err := filesystem.API().ReadFile(scriptPath)
	if err != nil {
		return err
	}

	proto, err := Compile(source, scriptPath)
	if err != nil {
		return err
	}

	L.Push(L.NewFunctionFromProto(proto))
	return L.PCall(0, lua.MultRet, nil)
}

// Compile parses source into a prototype, reusing a cached one for identical content.
func Compile(source []byte, name string) (*lua.FunctionProto, error) {
	key := sha256.Sum256(source)
	if cached, ok := bytecodeCache.Load(key); ok {
		return cached.(*lua.FunctionProto), nil
	}

	chunk, err := parse.Parse(bytes.NewReader(source), name)
	if err != nil {
		return nil, err
	}

	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, err
	}

	bytecodeCache.Store(key, proto)
	return proto, nil
}

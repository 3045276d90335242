// Package config registers the configuration keys and loads them through viper.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/vidhunt/vidhunt/color"
	"github.com/vidhunt/vidhunt/constant"
	"github.com/vidhunt/vidhunt/key"
	"github.com/vidhunt/vidhunt/style"
)

// Field is a registered configuration key with its default value.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty renders the field with its current value for terminal output.
func (f Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env is the environment variable that overrides the field.
func (f Field) Env() string {
	return strings.ToUpper(constant.Vidhunt + "_" + EnvKeyReplacer.Replace(f.Key))
}

type fieldJSON struct {
	Key         string `json:"key"`
	Env         string `json:"env"`
	Type        string `json:"type"`
	Value       any    `json:"value"`
	Default     any    `json:"default"`
	Description string `json:"description"`
}

func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(fieldJSON{
		Key:         f.Key,
		Env:         f.Env(),
		Type:        f.typeName(),
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
	})
}

func (f Field) typeName() string {
	if f.Value == nil {
		return "unknown"
	}
	return reflect.TypeOf(f.Value).String()
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

func init() {
	// register validates and adds a new configuration field to the global registry.
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		f := Field{Key: k, Value: v, Description: desc}
		Default[k] = f
	}

	register(key.SourcesOrder, []string{}, "Source ids to try first, in this order.\nSources not listed keep their rank order after the listed ones")
	register(key.SourcesDisabled, []string{}, "Source or embed ids to disable without removing them")
	register(key.SourcesIncludeExternal, false, "Include opt-in external sources in resolution")
	register(key.SourcesUpdateURL, "", "Base URL to fetch provider script updates from.\nType \"vidhunt sources update\" to apply them")
	register(key.EmbedsOrder, []string{}, "Embed ids to try first, in this order")
	register(key.RunnerTarget, "native", "Runtime target that decides the allowed stream flags.\nAvailable options are: browser, extension, native, any")
	register(key.RunnerTimeout, 60, "Deadline for a whole resolution, in seconds. 0 disables it")
	register(key.RunnerValidate, true, "Probe streams for playability before accepting them")
	register(key.ProxyURL, "", "Base URL of the rewriting proxy used for CORS and header restricted streams")
	register(key.ValidatorAttempts, 2, "Attempts per playability probe")
	register(key.ValidatorTimeout, 10, "Timeout of a single playability probe, in seconds")
	register(key.NetworkTLSFingerprint, false, "Use a browser TLS fingerprint for provider requests")
	register(key.PlayerMPVPath, "mpv", "mpv executable used to play resolved streams")
	register(key.ServerAddress, ":8080", "Listen address of the HTTP API")
	register(key.ServerMetrics, true, "Expose prometheus metrics on /metrics")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, kaomoji, plain, squares, nerd (nerd-font required)")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, true, "Enable automatic version check")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(f Field) string { return f.typeName() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename . }}`))

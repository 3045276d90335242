package provider

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/vidhunt/vidhunt/constant"
	"github.com/vidhunt/vidhunt/feature"
	"github.com/vidhunt/vidhunt/filesystem"
	"github.com/vidhunt/vidhunt/log"
	"github.com/vidhunt/vidhunt/provider/custom"
)

// CommonScript is a shared helper library that scripts require. It is not a provider.
const CommonScript = "common" + constant.CustomProviderExtension

// CustomProviders loads every Lua provider script in dir.
// Scripts that fail to load are skipped and reported in the joined error, so one broken script does not hide the rest.
func CustomProviders(dir string) ([]*Source, []*Embed, error) {
	files, err := filesystem.API().ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}

	var (
		sources []*Source
		embeds  []*Embed
		errs    []error
	)

	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != constant.CustomProviderExtension || f.Name() == CommonScript {
			continue
		}

		src, embed, err := LoadScript(filepath.Join(dir, f.Name()))
		if err != nil {
			errs = append(errs, fmt.Errorf("load %s: %w", f.Name(), err))
			continue
		}

		if embed != nil {
			embeds = append(embeds, embed)
		} else {
			sources = append(sources, src)
		}
	}

	return sources, embeds, errors.Join(errs...)
}

// LoadScript loads one Lua provider script. Exactly one of the returned providers is non-nil.
func LoadScript(path string) (*Source, *Embed, error) {
	script, err := custom.LoadScript(path)
	if err != nil {
		return nil, nil, err
	}

	flags, err := feature.ParseSet(script.Flags...)
	if err != nil {
		script.Close()
		return nil, nil, err
	}

	if script.IsEmbed() {
		return nil, NewEmbed(EmbedDef{
			ID:       script.ID,
			Name:     script.Name,
			Rank:     script.Rank,
			Disabled: script.Disabled,
			Flags:    flags,
			Custom:   true,
			Scrape:   script.EmbedScraper(),
		}), nil
	}

	return NewSource(SourceDef{
		ID:          script.ID,
		Name:        script.Name,
		Rank:        script.Rank,
		Disabled:    script.Disabled,
		Flags:       flags,
		External:    script.External,
		Custom:      true,
		ScrapeMovie: script.MovieScraper(),
		ScrapeShow:  script.ShowScraper(),
	}), nil, nil
}

// LoadOptions configures Load.
type LoadOptions struct {
	// Dir holds custom provider scripts. Empty skips custom providers.
	Dir string
	// Disabled lists provider ids to disable on top of what the providers declare.
	Disabled []string
}

// Load builds a registry from the builtin providers and the custom scripts in opts.Dir.
// Scripts that fail to load are logged and left out. Registry validation errors are returned.
func Load(opts LoadOptions) (*Registry, error) {
	sources, embeds := Builtins()

	if opts.Dir != "" {
		customSources, customEmbeds, err := CustomProviders(opts.Dir)
		if err != nil {
			log.Warnf("custom providers: %s", err)
		}
		sources = append(sources, customSources...)
		embeds = append(embeds, customEmbeds...)
	}

	for _, s := range sources {
		if lo.Contains(opts.Disabled, s.ID) {
			s.Disabled = true
		}
	}
	for _, e := range embeds {
		if lo.Contains(opts.Disabled, e.ID) {
			e.Disabled = true
		}
	}

	return Build(sources, embeds)
}

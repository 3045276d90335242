package provider

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/vidhunt/vidhunt/filesystem"
	"github.com/vidhunt/vidhunt/log"
	"github.com/vidhunt/vidhunt/network"
)

// UpdateOptions configures UpdateScripts.
type UpdateOptions struct {
	// BaseURL is the directory the scripts are served from.
	BaseURL string
	// Dir is the local scripts directory.
	Dir string
	// Names are the script file names to update.
	Names []string
	// Fetcher downloads the scripts. Nil uses a standard fetcher.
	Fetcher network.Fetcher
}

// UpdateScripts downloads scripts and replaces the local copies whose content changed.
// Unchanged scripts are not rewritten. It returns the names that were updated;
// failures of individual scripts are joined into the error and do not stop the others.
func UpdateScripts(ctx context.Context, opts UpdateOptions) ([]string, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("no update url configured")
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = network.NewStandard(nil)
	}

	if err := filesystem.API().MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, err
	}

	var (
		updated []string
		errs    []error
	)

	for _, name := range opts.Names {
		changed, err := updateScript(ctx, fetcher, opts.BaseURL, opts.Dir, name)
		if err != nil {
			log.Warnf("script update failed for %s: %s", name, err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}

		if changed {
			log.Infof("updated provider script %s", name)
			updated = append(updated, name)
		}
	}

	return updated, errors.Join(errs...)
}

func updateScript(ctx context.Context, fetcher network.Fetcher, baseURL, dir, name string) (bool, error) {
	if name != filepath.Base(name) {
		return false, fmt.Errorf("invalid script name %q", name)
	}

	resp, err := fetcher.Fetch(ctx, network.Request{
		Method: http.MethodGet,
		URL:    strings.TrimSuffix(baseURL, "/") + "/" + name,
	})
	if err != nil {
		return false, err
	}

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	localPath := filepath.Join(dir, name)
	if local, err := filesystem.API().ReadFile(localPath); err == nil && sha256.Sum256(local) == sha256.Sum256(resp.Body) {
		return false, nil
	}

	if err := filesystem.WriteAtomic(localPath, resp.Body, 0o644); err != nil {
		return false, err
	}

	return true, nil
}

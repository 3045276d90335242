// Package version compares release versions and checks for newer releases.
package version

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/metafates/gache"
	"github.com/vidhunt/vidhunt/filesystem"
	"github.com/vidhunt/vidhunt/network"
	"github.com/vidhunt/vidhunt/where"
)

// ReleasesURL is the GitHub API endpoint of the latest release.
const ReleasesURL = "https://api.github.com/repos/vidhunt/vidhunt/releases/latest"

const checkTimeout = 5 * time.Second

var versionCacher = gache.New[string](&gache.Options{
	Path:       filepath.Join(where.Cache(), "version.json"),
	Lifetime:   time.Hour * 24 * 2,
	FileSystem: &filesystem.GacheFs{},
})

// Latest returns the latest released version without the "v" prefix.
// The answer is cached for two days to stay clear of API rate limits.
func Latest() (string, error) {
	ver, expired, err := versionCacher.Get()
	if err != nil {
		return "", err
	}

	if !expired && ver != "" {
		return ver, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	ver, err = fetchLatest(ctx, network.NewStandard(nil), ReleasesURL)
	if err != nil {
		return "", err
	}

	_ = versionCacher.Set(ver)
	return ver, nil
}

func fetchLatest(ctx context.Context, fetcher network.Fetcher, url string) (string, error) {
	resp, err := fetcher.Fetch(ctx, network.Request{
		URL:     url,
		Headers: map[string]string{"Accept": "application/vnd.github+json"},
	})
	if err != nil {
		return "", err
	}

	if !resp.OK() {
		return "", fmt.Errorf("release check: status %d", resp.StatusCode)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.Unmarshal(resp.Body, &release); err != nil {
		return "", err
	}

	if release.TagName == "" {
		return "", errors.New("empty tag name")
	}

	return strings.TrimPrefix(release.TagName, "v"), nil
}

// Package player hands a resolved stream to a local media player or the system URL handler.
package player

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/vidhunt/vidhunt/constant"
	"github.com/vidhunt/vidhunt/log"
	"github.com/vidhunt/vidhunt/stream"
)

// MPV plays streams with mpv.
type MPV struct {
	// Path is the mpv executable. Empty means "mpv" from PATH.
	Path string
}

// Args returns the mpv arguments that play s.
// Required headers win over preferred ones. Captions are attached as external subtitle files.
func (m MPV) Args(s stream.Stream, title string) ([]string, error) {
	target, err := sanitizeMediaTarget(s.URL())
	if err != nil {
		return nil, fmt.Errorf("invalid media target: %w", err)
	}

	args := []string{"--no-terminal", "--force-window=yes"}
	if t := sanitizeTitle(title); t != "" {
		args = append(args, "--force-media-title="+t)
	}

	if headers := headerFields(s); headers != "" {
		args = append(args, "--http-header-fields="+headers)
	}

	for _, c := range s.Captions {
		sub, err := sanitizeMediaTarget(c.URL)
		if err != nil {
			log.Debugf("skipping caption %s: %s", c.ID, err)
			continue
		}
		args = append(args, "--sub-file="+sub)
	}

	return append(args, target), nil
}

// Play runs mpv on s and waits for it to exit. Cancelling ctx kills the player.
func (m MPV) Play(ctx context.Context, s stream.Stream, title string) error {
	args, err := m.Args(s, title)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, lo.Ternary(m.Path != "", m.Path, "mpv"), args...)
	cmd.SysProcAttr = sysProcAttr()
	cmd.Cancel = func() error { return killProcess(cmd) }

	log.Infof("starting mpv for stream %s", s.ID)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run mpv: %w", err)
	}
	return nil
}

// Open opens s with the default handler of the system, usually a browser.
// Headers cannot be passed this way, so s should not require any.
func Open(s stream.Stream) error {
	target, err := sanitizeMediaTarget(s.URL())
	if err != nil {
		return err
	}

	if len(s.Headers) > 0 {
		log.Warnf("stream %s requires headers the system handler cannot send", s.ID)
	}

	cmd, ok := openCommand(target)
	if !ok {
		return fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
	return cmd.Start()
}

func openCommand(input string) (*exec.Cmd, bool) {
	switch runtime.GOOS {
	case constant.Windows:
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", input), true
	case constant.Darwin:
		return exec.Command("open", input), true
	case constant.Linux:
		return exec.Command("xdg-open", input), true
	case constant.Android:
		return exec.Command("termux-open", input), true
	default:
		return nil, false
	}
}

// headerFields renders the stream headers in mpv's comma separated format, sorted by name.
func headerFields(s stream.Stream) string {
	headers := lo.Assign(s.PreferredHeaders, s.Headers)
	names := lo.Keys(headers)
	sort.Strings(names)

	return strings.Join(lo.Map(names, func(name string, _ int) string {
		return name + ": " + strings.ReplaceAll(headers[name], ",", "%2C")
	}), ",")
}

func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in URL")
	}

	// mpv would read a leading dash as a flag
	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("url must not start with '-'")
	}

	u, err := url.Parse(l)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return l, nil
	default:
		return "", fmt.Errorf("unsupported URL scheme: %q", u.Scheme)
	}
}

func sanitizeTitle(title string) string {
	t := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ", "\x00", "").Replace(title)
	return strings.TrimSpace(t)
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/oszuidwest/zwfm-ledsync/internal/types"
	"github.com/oszuidwest/zwfm-ledsync/internal/util"
	"golang.org/x/mod/semver"
)

const (
	releasesURL = "https://api.github.com/repos/oszuidwest/zwfm-ledsync/releases/latest"

	releasePollInterval = 24 * time.Hour
	releaseFirstPoll    = 30 * time.Second
	releaseTimeout      = 30 * time.Second
	releaseAttempts     = 3
	releaseRetryDelay   = time.Minute
)

// errTransient marks a release lookup that is worth repeating.
var errTransient = errors.New("transient release lookup failure")

type githubRelease struct {
	TagName    string `json:"tag_name"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
}

// VersionChecker polls GitHub for the latest published release.
type VersionChecker struct {
	url    string
	client *http.Client

	mu     sync.RWMutex
	latest string
	etag   string
}

// NewVersionChecker starts polling in the background until ctx is done.
func NewVersionChecker(ctx context.Context) *VersionChecker {
	vc := newVersionChecker(releasesURL)
	go vc.poll(ctx)
	return vc
}

func newVersionChecker(url string) *VersionChecker {
	return &VersionChecker{
		url:    url,
		client: &http.Client{Timeout: releaseTimeout},
	}
}

func (vc *VersionChecker) poll(ctx context.Context) {
	wait := releaseFirstPoll
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
		vc.refresh(ctx)
		wait = releasePollInterval
	}
}

// refresh runs check up to releaseAttempts times while it fails transiently.
func (vc *VersionChecker) refresh(ctx context.Context) {
	for attempt := 1; ; attempt++ {
		err := vc.check(ctx)
		if err == nil {
			return
		}
		slog.Debug("release check failed", "attempt", attempt, "error", err)
		if !errors.Is(err, errTransient) || attempt == releaseAttempts {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(releaseRetryDelay):
		}
	}
}

// check performs one conditional release lookup and records the result.
func (vc *VersionChecker) check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, vc.url, nil)
	if err != nil {
		return util.WrapError("build release request", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "zwfm-ledsync/"+Version)

	vc.mu.RLock()
	if vc.etag != "" {
		req.Header.Set("If-None-Match", vc.etag)
	}
	vc.mu.RUnlock()

	resp, err := vc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", errTransient, err)
	}
	defer util.SafeCloseFunc(resp.Body, "release response")()

	if err := releaseStatus(resp.StatusCode); err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return fmt.Errorf("%w: decode release: %w", errTransient, err)
	}
	if release.Draft || release.Prerelease {
		return nil
	}
	if release.TagName == "" {
		return fmt.Errorf("%w: release without tag", errTransient)
	}

	vc.mu.Lock()
	vc.latest = normalizeVersion(release.TagName)
	if etag := resp.Header.Get("ETag"); etag != "" {
		vc.etag = etag
	}
	vc.mu.Unlock()
	return nil
}

// releaseStatus maps a GitHub status code to a check outcome. 304 and 404
// (no releases yet) are not failures. Rate limits and server errors are
// transient, other client errors are final.
func releaseStatus(code int) error {
	switch {
	case code == http.StatusOK, code == http.StatusNotModified, code == http.StatusNotFound:
		return nil
	case code == http.StatusForbidden, code == http.StatusTooManyRequests, code >= 500:
		return fmt.Errorf("%w: status %d", errTransient, code)
	default:
		return fmt.Errorf("release lookup: status %d", code)
	}
}

// Info returns the running build and, once known, the latest release.
func (vc *VersionChecker) Info() types.VersionInfo {
	vc.mu.RLock()
	latest := vc.latest
	vc.mu.RUnlock()

	info := types.VersionInfo{
		Current:   normalizeVersion(Version),
		Latest:    latest,
		Commit:    Commit,
		BuildTime: util.FormatHumanTime(BuildTime),
	}
	if latest != "" {
		info.UpdateAvail = isNewerVersion(latest, info.Current)
	}
	return info
}

func normalizeVersion(v string) string {
	return strings.TrimPrefix(strings.TrimSpace(v), "v")
}

// isNewerVersion compares two versions by semver. Builds without a valid
// version, such as "dev", never report an update.
func isNewerVersion(latest, current string) bool {
	l, c := "v"+normalizeVersion(latest), "v"+normalizeVersion(current)
	if !semver.IsValid(l) || !semver.IsValid(c) {
		return false
	}
	return semver.Compare(l, c) > 0
}

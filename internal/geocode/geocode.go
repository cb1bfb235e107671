// Package geocode resolves mower coordinates into a display address.
// Resolution is best-effort enrichment: every failure degrades to an
// empty address and is never surfaced to the caller.
package geocode

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	appLog "mowercal/internal/log"
)

// Resolver reverse-geocodes coordinates against a Nominatim-style
// endpoint, with a small disk cache so repeated queries for a parked
// mower do not hammer the public service.
type Resolver struct {
	client    *http.Client
	baseURL   string
	userAgent string
	cacheDir  string
}

// cacheEntry is the on-disk form of one resolved coordinate.
type cacheEntry struct {
	Address   string    `json:"address"`
	UpdatedAt time.Time `json:"updated_at"`
}

// reverseResponse is the subset of the Nominatim jsonv2 response we use.
type reverseResponse struct {
	Address struct {
		Road        string `json:"road"`
		HouseNumber string `json:"house_number"`
		Town        string `json:"town"`
	} `json:"address"`
}

// NewResolver creates a Resolver. cacheDir may be empty, in which case a
// relative directory is used so development runs without root
// permissions.
func NewResolver(baseURL, userAgent, cacheDir string) *Resolver {
	if cacheDir == "" {
		cacheDir = "./var/geocode-cache"
	}
	return &Resolver{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		cacheDir:  cacheDir,
	}
}

// Reverse returns a display address "<road> <house_number>, <town>" for
// the coordinate, or "" when the lookup fails for any reason. It never
// returns an error; failures are logged and suppressed.
func (r *Resolver) Reverse(ctx context.Context, lat, lon float64) string {
	key := fmt.Sprintf("%.5f, %.5f", lat, lon)

	if addr, ok := r.loadCached(key); ok {
		return addr
	}

	addr, err := r.fetch(ctx, lat, lon)
	if err != nil {
		appLog.Warn("reverse geocode failed", err, "position", key)
		return ""
	}

	r.saveCached(key, addr)
	return addr
}

func (r *Resolver) fetch(ctx context.Context, lat, lon float64) (string, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lon))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocode: %s", resp.Status)
	}

	var rev reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&rev); err != nil {
		return "", err
	}

	// All three components are required for a usable display address;
	// anything less counts as "no result".
	a := rev.Address
	if a.Road == "" || a.HouseNumber == "" || a.Town == "" {
		return "", fmt.Errorf("reverse geocode: incomplete address")
	}

	return fmt.Sprintf("%s %s, %s", a.Road, a.HouseNumber, a.Town), nil
}

func (r *Resolver) cachePath(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(r.cacheDir, hex.EncodeToString(sum[:8])+".json")
}

func (r *Resolver) loadCached(key string) (string, bool) {
	data, err := os.ReadFile(r.cachePath(key))
	if err != nil {
		return "", false
	}
	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return "", false
	}
	return entry.Address, true
}

func (r *Resolver) saveCached(key, addr string) {
	if err := os.MkdirAll(r.cacheDir, 0o700); err != nil {
		appLog.Warn("geocode cache dir create failed", err, "dir", r.cacheDir)
		return
	}

	entry := cacheEntry{Address: addr, UpdatedAt: time.Now().UTC()}
	data, err := json.MarshalIndent(&entry, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(r.cachePath(key), data, 0o600); err != nil {
		appLog.Warn("geocode cache write failed", err, "key", key)
	}
}

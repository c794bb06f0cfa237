package version

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/studiowebux/apiquest/internal/errdef"
)

const (
	// ReleasesURL is the latest-release endpoint of the project
	ReleasesURL  = "https://api.github.com/repos/studiowebux/apiquest/releases/latest"
	checkTimeout = 5 * time.Second
)

type release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Update describes the latest published release
type Update struct {
	Current   string
	Latest    string
	URL       string
	Available bool
}

// Checker asks a release endpoint whether a newer version exists
type Checker struct {
	URL    string
	Client *http.Client
}

// NewChecker queries ReleasesURL
func NewChecker() *Checker {
	return &Checker{
		URL:    ReleasesURL,
		Client: &http.Client{Timeout: checkTimeout},
	}
}

// Check compares current with the latest release
func (c *Checker) Check(ctx context.Context, current string) (Update, error) {
	update := Update{Current: strings.TrimPrefix(current, "v")}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return update, errdef.Wrap(errdef.CodeNetwork, err, "failed to create request")
	}
	req.Header.Set("User-Agent", "apiquest/"+update.Current)
	req.Header.Set("Accept", "application/vnd.github+json")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return update, errdef.Wrap(errdef.CodeNetwork, err, "failed to fetch latest release")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return update, errdef.New(errdef.CodeNetwork, "release check returned %d", resp.StatusCode)
	}

	var latest release
	if err := json.NewDecoder(resp.Body).Decode(&latest); err != nil {
		return update, errdef.Wrap(errdef.CodeNetwork, err, "failed to decode release")
	}

	update.Latest = strings.TrimPrefix(latest.TagName, "v")
	update.URL = latest.HTMLURL
	update.Available = update.Latest != "" && isNewer(update.Latest, update.Current)
	return update, nil
}

// isNewer compares dotted numeric versions. Pre-release and build suffixes
// are ignored, so "0.2.0-dev" equals "0.2.0".
func isNewer(latest, current string) bool {
	l := parseVersion(latest)
	c := parseVersion(current)

	for i := 0; i < max(len(l), len(c)); i++ {
		lv, cv := part(l, i), part(c, i)
		if lv != cv {
			return lv > cv
		}
	}
	return false
}

func part(parts []int, i int) int {
	if i < len(parts) {
		return parts[i]
	}
	return 0
}

func parseVersion(version string) []int {
	if idx := strings.IndexAny(version, "-+"); idx != -1 {
		version = version[:idx]
	}

	fields := strings.Split(version, ".")
	result := make([]int, 0, len(fields))
	for _, f := range fields {
		num, err := strconv.Atoi(f)
		if err != nil {
			continue
		}
		result = append(result, num)
	}
	return result
}

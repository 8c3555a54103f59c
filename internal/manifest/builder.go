// Package manifest renders the audit document written for every processing
// attempt, success or failure.
package manifest

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"vidpublisher/internal/core/domain"
)

// Status labels embedded in manifests and manifest filenames.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// URL sentinel used when an attempt produced no publish URL.
const noURL = "n/a"

// Build renders the manifest for one processing attempt. Pure: no I/O, and
// deterministic given its inputs.
func Build(job domain.Job, result domain.DispatchResult, status string, generatedAt time.Time) string {
	url := result.URL
	if url == "" {
		url = noURL
	}

	var b strings.Builder
	b.WriteString("# Video Publishing Manifest\n\n")

	b.WriteString("## Video Details\n")
	fmt.Fprintf(&b, "- Job ID: %s\n", job.ID)
	fmt.Fprintf(&b, "- Asset ID: %s\n", job.AssetID)
	fmt.Fprintf(&b, "- Platform: %s\n", job.Platform)
	fmt.Fprintf(&b, "- Scheduled At: %s\n", job.ScheduledAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Published At: %s\n", generatedAt.UTC().Format(time.RFC3339))

	b.WriteString("\n## Publishing Details\n")
	fmt.Fprintf(&b, "- Status: %s\n", status)
	fmt.Fprintf(&b, "- Public URL: %s\n", url)
	if result.Error != "" {
		fmt.Fprintf(&b, "- Error: %s\n", result.Error)
	}

	if result.EmbedCode != "" {
		b.WriteString("\n## Embed Code\n")
		fmt.Fprintf(&b, "```html\n%s\n```\n", result.EmbedCode)
	}

	return b.String()
}

// ParseFields extracts the "- Key: value" lines of a manifest into a map.
// Used by automated checks that verify field presence rather than byte
// layout.
func ParseFields(content string) map[string]string {
	fields := make(map[string]string)
	sc := bufio.NewScanner(strings.NewReader(content))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "- ") {
			continue
		}
		key, value, ok := strings.Cut(strings.TrimPrefix(line, "- "), ": ")
		if !ok {
			continue
		}
		fields[key] = value
	}
	return fields
}

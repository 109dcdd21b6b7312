package transcript

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
	"unicode"
)

var (
	// timestampLineRe matches lines starting with a two-digit time
	// component, covering VTT and SRT cue timings.
	timestampLineRe = regexp.MustCompile(`^\d{2}:\d{2}`)
	cueIDRe         = regexp.MustCompile(`^\d+$`)
	inlineTagRe     = regexp.MustCompile(`<[^>]*>`)
	metadataLineRe  = regexp.MustCompile(`^(Kind|Language):`)
	blockStartRe    = regexp.MustCompile(`^(NOTE|STYLE|REGION)\b`)
)

const maxSubtitleLine = 1 << 20

// ParseSubtitles extracts the caption text of a WebVTT or SRT document.
// Header, metadata, timing and cue-number lines are dropped, as are lines
// whose first token is pure punctuation (dialogue dashes, ">>" speaker
// markers). The remaining lines are joined with single spaces in file order.
func ParseSubtitles(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSubtitleLine)

	var (
		parts     []string
		inHeader  bool
		skipBlock bool
		first     = true
	)

	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))

		if first {
			first = false
			if strings.HasPrefix(line, "WEBVTT") {
				inHeader = true
				continue
			}
		}

		if line == "" {
			inHeader = false
			skipBlock = false
			continue
		}
		if inHeader {
			// The header ends at a blank line or at the first cue timing.
			if !isCueTiming(line) {
				continue
			}
			inHeader = false
		}
		if skipBlock {
			continue
		}

		switch {
		case blockStartRe.MatchString(line):
			skipBlock = true
			continue
		case metadataLineRe.MatchString(line),
			isCueTiming(line),
			cueIDRe.MatchString(line):
			continue
		}

		text := strings.TrimSpace(html.UnescapeString(inlineTagRe.ReplaceAllString(line, "")))
		fields := strings.Fields(text)
		if len(fields) == 0 || isPunctuationOnly(fields[0]) {
			continue
		}
		parts = append(parts, strings.Join(fields, " "))
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read subtitles: %w", err)
	}

	return strings.Join(parts, " "), nil
}

func isCueTiming(line string) bool {
	return timestampLineRe.MatchString(line) || strings.Contains(line, "-->")
}

func isPunctuationOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

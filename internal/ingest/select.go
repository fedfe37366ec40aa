package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/riskledger/internal/event"
)

// selectionKey orders candidate packets. Later as_of dates win; within a
// date the filename time bucket decides, then filesystem mtime, then name.
type selectionKey struct {
	asOfOrdinal int
	timeBucket  int
	mtimeNanos  int64
	name        string
}

func (k selectionKey) less(other selectionKey) bool {
	if k.asOfOrdinal != other.asOfOrdinal {
		return k.asOfOrdinal < other.asOfOrdinal
	}
	if k.timeBucket != other.timeBucket {
		return k.timeBucket < other.timeBucket
	}
	if k.mtimeNanos != other.mtimeNanos {
		return k.mtimeNanos < other.mtimeNanos
	}
	return k.name < other.name
}

// SelectLatestPacket scans dir for *.packet.json files and returns the path
// and raw bytes of the newest usable one. Unreadable files, malformed JSON,
// and missing or unparseable as_of dates skip that candidate with a warning
// rather than failing the run; when nothing usable remains, the error lists
// every skipped candidate.
func SelectLatestPacket(dir string, logger *slog.Logger) (string, []byte, error) {
	if logger == nil {
		logger = slog.Default()
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*"+PacketSuffix))
	if err != nil {
		return "", nil, fmt.Errorf("scan packet dir: %w", err)
	}
	if len(paths) == 0 {
		return "", nil, fmt.Errorf("no packets found in %s", dir)
	}
	sort.Strings(paths)

	var (
		bestKey  selectionKey
		bestPath string
		bestData []byte
		problems []string
	)
	for _, path := range paths {
		name := filepath.Base(path)

		data, err := os.ReadFile(path)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", name, err))
			logger.Warn("skipping packet", "file", name, "error", err)
			continue
		}

		var probe struct {
			AsOf string `json:"as_of"`
		}
		if err := json.Unmarshal(data, &probe); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", name, err))
			logger.Warn("skipping packet", "file", name, "error", err)
			continue
		}

		asOf := strings.TrimSpace(probe.AsOf)
		if asOf == "" {
			problems = append(problems, name+": missing as_of")
			logger.Warn("skipping packet", "file", name, "reason", "missing as_of")
			continue
		}
		ord := event.DateOrdinal(asOf)
		if ord < 0 {
			problems = append(problems, fmt.Sprintf("%s: invalid as_of %q", name, asOf))
			logger.Warn("skipping packet", "file", name, "reason", "invalid as_of", "as_of", asOf)
			continue
		}

		key := selectionKey{
			asOfOrdinal: ord,
			timeBucket:  timeBucket(name),
			mtimeNanos:  mtimeNanos(path),
			name:        name,
		}
		if bestPath == "" || bestKey.less(key) {
			bestKey, bestPath, bestData = key, path, data
		}
	}

	if bestPath == "" {
		if len(problems) > 0 {
			return "", nil, fmt.Errorf("no usable packet found; encountered: %s", strings.Join(problems, "; "))
		}
		return "", nil, errors.New("no usable packet found")
	}
	return bestPath, bestData, nil
}

// timeBucket extracts the optional HHMM or HHMMSS suffix from a packet
// filename (2025-09-24-1430.packet.json) as seconds of day, so later
// deliveries for one as_of date outrank earlier ones. Files without a valid
// suffix bucket to -1 and sort first.
func timeBucket(name string) int {
	if !strings.HasSuffix(name, PacketSuffix) {
		return -1
	}
	stem := strings.TrimSuffix(name, PacketSuffix)
	parts := strings.Split(stem, "-")
	if len(parts) <= 3 {
		return -1
	}

	candidate := strings.Join(parts[3:], "")
	if candidate == "" {
		return -1
	}
	for _, r := range candidate {
		if r < '0' || r > '9' {
			return -1
		}
	}

	var hours, minutes, seconds int
	switch len(candidate) {
	case 4:
		hours, _ = strconv.Atoi(candidate[:2])
		minutes, _ = strconv.Atoi(candidate[2:])
	case 6:
		hours, _ = strconv.Atoi(candidate[:2])
		minutes, _ = strconv.Atoi(candidate[2:4])
		seconds, _ = strconv.Atoi(candidate[4:])
	default:
		return -1
	}
	if hours >= 24 || minutes >= 60 || seconds >= 60 {
		return -1
	}
	return hours*3600 + minutes*60 + seconds
}

func mtimeNanos(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return -1
	}
	return info.ModTime().UnixNano()
}

// Package changearchive decides whether a freshly-parsed capture represents
// a new baseline, a no-op repeat, or a change against the prior snapshot
// for that (device, capture_type) pair, and classifies the severity of any
// change detected.
package changearchive

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/scottpeterman/velocitycmdb/internal/audit"
	"github.com/scottpeterman/velocitycmdb/internal/config"
	"github.com/scottpeterman/velocitycmdb/internal/errs"
	"github.com/scottpeterman/velocitycmdb/internal/logging"
	"github.com/scottpeterman/velocitycmdb/internal/metrics"
	"github.com/scottpeterman/velocitycmdb/internal/models"
)

// Store is the subset of *store.Store the archive needs, narrowed to an
// interface so tests can supply an in-memory fake.
type Store interface {
	LatestSnapshot(deviceID int64, captureType string) (models.CaptureSnapshot, error)
	InsertSnapshot(snap models.CaptureSnapshot) (int64, error)
	InsertChange(c models.CaptureChange) (int64, error)
}

// Outcome reports what Archive decided for one capture.
type Outcome struct {
	Baseline     bool // true if no prior snapshot existed
	Unchanged    bool // true if the content hash matched the prior snapshot
	SnapshotID   int64
	ChangeID     int64 // zero unless a change record was written
	Severity     models.Severity
	LinesAdded   int
	LinesRemoved int
}

// diffDir is the directory under the data directory where unified diffs are
// written, relative to DataDir.
const diffDir = "diffs"

// Archive runs the change-detection decision procedure for one capture: hash
// content, compare against the most recent snapshot for (deviceID, captureType), and
// record a new snapshot plus change row when the content differs. Untracked
// capture types are rejected by the caller before this is invoked; Archive
// itself only acts on the tracked set.
func Archive(st Store, dataDir string, deviceID int64, captureType, filePath, content string, capturedAt time.Time, sev config.SeverityThresholds) (Outcome, error) {
	if !models.IsTracked(captureType) {
		return Outcome{}, fmt.Errorf("changearchive: capture type %q is not tracked for change history", captureType)
	}

	hash := hashContent(content)

	prev, err := st.LatestSnapshot(deviceID, captureType)
	switch {
	case err == errs.ErrNotFound:
		id, insErr := st.InsertSnapshot(models.CaptureSnapshot{
			DeviceID: deviceID, CaptureType: captureType, Content: content,
			ContentHash: hash, FilePath: filePath, CapturedAt: capturedAt,
		})
		if insErr != nil {
			return Outcome{}, insErr
		}
		return Outcome{Baseline: true, SnapshotID: id}, nil
	case err != nil:
		return Outcome{}, err
	}

	if prev.ContentHash == hash {
		return Outcome{Unchanged: true, SnapshotID: prev.ID}, nil
	}

	newID, err := st.InsertSnapshot(models.CaptureSnapshot{
		DeviceID: deviceID, CaptureType: captureType, Content: content,
		ContentHash: hash, FilePath: filePath, CapturedAt: capturedAt,
	})
	if err != nil {
		return Outcome{}, err
	}

	added, removed, diffText := diffLines(prev.Content, content)

	diffPath, err := writeDiff(dataDir, deviceID, captureType, capturedAt, diffText)
	if err != nil {
		return Outcome{}, err
	}

	severity := Classify(captureType, added, removed, sev)

	prevID := prev.ID
	changeID, err := st.InsertChange(models.CaptureChange{
		DeviceID: deviceID, CaptureType: captureType, DetectedAt: capturedAt,
		PreviousSnapshotID: &prevID, CurrentSnapshotID: newID,
		LinesAdded: added, LinesRemoved: removed, DiffPath: diffPath, Severity: severity,
	})
	if err != nil {
		return Outcome{}, err
	}

	metrics.ChangesDetected.WithLabelValues(captureType, string(severity)).Inc()

	ev := audit.NewEvent(audit.EventTypeChangeDetected, fmt.Sprintf("device-%d", deviceID)).
		WithCaptureType(captureType).
		WithMessage(fmt.Sprintf("+%d/-%d lines, severity %s", added, removed, severity)).
		WithSuccess()
	if severity == models.SeverityCritical {
		ev = ev.WithSeverity(audit.SeverityWarning)
	}
	if auditErr := audit.Log(ev); auditErr != nil {
		logging.WithOperation("changearchive").WithError(auditErr).Warn("audit log write failed")
	}

	return Outcome{
		SnapshotID: newID, ChangeID: changeID, Severity: severity,
		LinesAdded: added, LinesRemoved: removed,
	}, nil
}

func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// diffContextLines is the number of unchanged lines retained on either side
// of each changed hunk in the written diff.
const diffContextLines = 3

// diffLine is one line of the flattened line diff: op is '+', '-', or ' '.
type diffLine struct {
	op   byte
	text string
}

// diffLines computes a unified line diff between before and after, returning
// the added/removed line counts and a hunked diff body with
// diffContextLines of context around each change. Unchanged lines outside
// that window are elided, so a one-line edit to a large config produces a
// small diff file.
func diffLines(before, after string) (added, removed int, diffText string) {
	// Each distinct line is encoded as one rune from U+E000 up (clear of the
	// surrogate range), so the rune diff below is a line diff.
	codes, lineOf := map[string]rune{}, map[rune]string{}
	encode := func(text string) (out []rune) {
		for _, line := range splitTextLines(text) {
			if _, ok := codes[line]; !ok {
				codes[line] = rune(0xE000 + len(codes))
				lineOf[codes[line]] = line
			}
			out = append(out, codes[line])
		}
		return out
	}
	diffs := diffmatchpatch.New().DiffMainRunes(encode(before), encode(after), false)

	var lines []diffLine
	for _, d := range diffs {
		var op byte
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = '+'
		case diffmatchpatch.DiffDelete:
			op = '-'
		default:
			op = ' '
		}
		for _, r := range d.Text {
			lines = append(lines, diffLine{op: op, text: lineOf[r]})
			switch op {
			case '+':
				added++
			case '-':
				removed++
			}
		}
	}

	return added, removed, renderHunks(lines)
}

func splitTextLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// renderHunks windows the flattened diff down to changed lines plus
// diffContextLines of surrounding context, emitting a standard
// "@@ -old,count +new,count @@" header per hunk.
func renderHunks(lines []diffLine) string {
	keep := make([]bool, len(lines))
	for i := range lines {
		if lines[i].op == ' ' {
			continue
		}
		lo := i - diffContextLines
		if lo < 0 {
			lo = 0
		}
		hi := i + diffContextLines
		if hi > len(lines)-1 {
			hi = len(lines) - 1
		}
		for j := lo; j <= hi; j++ {
			keep[j] = true
		}
	}

	var sb strings.Builder
	oldLine, newLine := 1, 1
	i := 0
	for i < len(lines) {
		if !keep[i] {
			// Only unchanged lines are ever skipped.
			oldLine++
			newLine++
			i++
			continue
		}

		hunkEnd := i
		for hunkEnd < len(lines) && keep[hunkEnd] {
			hunkEnd++
		}

		oldCount, newCount := 0, 0
		for k := i; k < hunkEnd; k++ {
			switch lines[k].op {
			case ' ':
				oldCount++
				newCount++
			case '-':
				oldCount++
			case '+':
				newCount++
			}
		}
		fmt.Fprintf(&sb, "@@ -%d,%d +%d,%d @@\n", oldLine, oldCount, newLine, newCount)

		for k := i; k < hunkEnd; k++ {
			sb.WriteByte(lines[k].op)
			sb.WriteString(lines[k].text)
			sb.WriteByte('\n')
			switch lines[k].op {
			case ' ':
				oldLine++
				newLine++
			case '-':
				oldLine++
			case '+':
				newLine++
			}
		}
		i = hunkEnd
	}
	return sb.String()
}

func writeDiff(dataDir string, deviceID int64, captureType string, capturedAt time.Time, diffText string) (string, error) {
	dir := filepath.Join(dataDir, diffDir, fmt.Sprintf("%d", deviceID), captureType)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("changearchive: creating diff directory: %w", err)
	}
	name := capturedAt.UTC().Format("20060102_150405") + ".diff"
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(diffText), 0o644); err != nil {
		return "", fmt.Errorf("changearchive: writing diff: %w", err)
	}
	return path, nil
}

// Classify applies the deterministic severity rules in order: any version
// change is critical; configs and inventory changes touching more lines
// than their configured cutoffs are critical, smaller ones moderate; any
// other capture type is minor.
func Classify(captureType string, linesAdded, linesRemoved int, sev config.SeverityThresholds) models.Severity {
	total := linesAdded + linesRemoved
	switch captureType {
	case "version":
		return models.SeverityCritical
	case "configs":
		if total > sev.ConfigsCriticalLines {
			return models.SeverityCritical
		}
		return models.SeverityModerate
	case "inventory":
		if total > sev.InventoryCriticalLines {
			return models.SeverityCritical
		}
		return models.SeverityModerate
	default:
		return models.SeverityMinor
	}
}

// Package store persists devices, components, captures, snapshots, changes,
// and ARP entries to SQLite via the pure-Go modernc.org/sqlite driver (no
// cgo, so the binary stays a single static artifact). Writes are funneled
// through one *sql.DB capped at a single open connection; reads use a
// separate read-only handle so queries never block on an in-flight write
// transaction.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/scottpeterman/velocitycmdb/internal/errs"
	"github.com/scottpeterman/velocitycmdb/internal/models"
)

// Store wraps the assets database (devices, components, captures,
// snapshots, changes) and the arp database (arp_entries), each with a
// single-writer handle and a separate read-only handle.
type Store struct {
	assetsWriter *sql.DB
	assetsReader *sql.DB
	arpWriter    *sql.DB
	arpReader    *sql.DB
}

// Open creates (if needed) and opens the assets and ARP databases at
// assetsPath and arpPath, applying schema migrations idempotently.
func Open(assetsPath, arpPath string) (*Store, error) {
	aw, err := sql.Open("sqlite", assetsPath)
	if err != nil {
		return nil, errs.NewFatalError("store", fmt.Sprintf("opening %s: %v", assetsPath, err))
	}
	aw.SetMaxOpenConns(1)

	ar, err := sql.Open("sqlite", "file:"+assetsPath+"?mode=ro")
	if err != nil {
		aw.Close()
		return nil, errs.NewFatalError("store", fmt.Sprintf("opening %s read-only: %v", assetsPath, err))
	}

	if _, err := aw.Exec(schema); err != nil {
		aw.Close()
		ar.Close()
		return nil, errs.NewFatalError("store", fmt.Sprintf("applying assets schema: %v", err))
	}

	rw, err := sql.Open("sqlite", arpPath)
	if err != nil {
		aw.Close()
		ar.Close()
		return nil, errs.NewFatalError("store", fmt.Sprintf("opening %s: %v", arpPath, err))
	}
	rw.SetMaxOpenConns(1)

	rr, err := sql.Open("sqlite", "file:"+arpPath+"?mode=ro")
	if err != nil {
		aw.Close()
		ar.Close()
		rw.Close()
		return nil, errs.NewFatalError("store", fmt.Sprintf("opening %s read-only: %v", arpPath, err))
	}

	if _, err := rw.Exec(arpSchema); err != nil {
		aw.Close()
		ar.Close()
		rw.Close()
		rr.Close()
		return nil, errs.NewFatalError("store", fmt.Sprintf("applying arp schema: %v", err))
	}

	return &Store{assetsWriter: aw, assetsReader: ar, arpWriter: rw, arpReader: rr}, nil
}

// Close closes all four handles.
func (s *Store) Close() error {
	s.assetsWriter.Close()
	s.assetsReader.Close()
	s.arpWriter.Close()
	return s.arpReader.Close()
}

// Ping verifies both read-only handles can still serve a query, for use by
// health checks.
func (s *Store) Ping() error {
	if err := s.assetsReader.Ping(); err != nil {
		return fmt.Errorf("assets db: %w", err)
	}
	if err := s.arpReader.Ping(); err != nil {
		return fmt.Errorf("arp db: %w", err)
	}
	return nil
}

// UpsertDevice inserts or updates a device keyed by NormalizedName and
// returns its row ID. Empty site/role values on update keep the existing
// assignment rather than clearing it.
func (s *Store) UpsertDevice(d models.Device) (int64, error) {
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now()
	}
	_, err := s.assetsWriter.Exec(`
		INSERT INTO devices (name, normalized_name, management_ip, ipv4_address, vendor_id,
			site_id, role_id, device_type, platform, model, software_version, serial,
			source_system, fingerprinted_at, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(normalized_name) DO UPDATE SET
			name=excluded.name, management_ip=excluded.management_ip,
			ipv4_address=excluded.ipv4_address, vendor_id=excluded.vendor_id,
			site_id=COALESCE(NULLIF(excluded.site_id, ''), devices.site_id),
			role_id=COALESCE(NULLIF(excluded.role_id, ''), devices.role_id),
			device_type=excluded.device_type, platform=excluded.platform,
			model=excluded.model, software_version=excluded.software_version,
			serial=excluded.serial, source_system=excluded.source_system,
			fingerprinted_at=excluded.fingerprinted_at, timestamp=excluded.timestamp
	`, d.Name, d.NormalizedName, d.ManagementIP, d.IPv4Address, d.VendorID, d.SiteID, d.RoleID,
		d.DeviceType, d.Platform, d.Model, d.SoftwareVersion, d.Serial, d.SourceSystem,
		d.FingerprintedAt, d.Timestamp)
	if err != nil {
		return 0, errs.NewIntegrityError("devices", "upsert", err)
	}
	// LastInsertId is not updated when the upsert takes the UPDATE path, so
	// the row ID is always read back by normalized name.
	return s.deviceIDByNormalizedName(d.NormalizedName)
}

// UpsertDiscoveredDevice records a device seen by the discovery crawler,
// touching only the addressing columns. Platform identity columns
// (device_type, model, software_version, serial, fingerprinted_at) are left
// as-is so a re-discovery never erases what fingerprinting already learned.
func (s *Store) UpsertDiscoveredDevice(d models.Device) (int64, error) {
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now()
	}
	_, err := s.assetsWriter.Exec(`
		INSERT INTO devices (name, normalized_name, management_ip, ipv4_address, site_id,
			source_system, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(normalized_name) DO UPDATE SET
			name=excluded.name, management_ip=excluded.management_ip,
			ipv4_address=excluded.ipv4_address, site_id=excluded.site_id,
			timestamp=excluded.timestamp
	`, d.Name, d.NormalizedName, d.ManagementIP, d.IPv4Address, d.SiteID,
		d.SourceSystem, d.Timestamp)
	if err != nil {
		return 0, errs.NewIntegrityError("devices", "upsert", err)
	}
	return s.deviceIDByNormalizedName(d.NormalizedName)
}

func (s *Store) deviceIDByNormalizedName(name string) (int64, error) {
	var id int64
	err := s.assetsReader.QueryRow(`SELECT id FROM devices WHERE normalized_name = ?`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store: looking up device %q: %w", name, err)
	}
	return id, nil
}

// DeviceByNormalizedName returns the device matching name, or errs.ErrNotFound.
func (s *Store) DeviceByNormalizedName(name string) (models.Device, error) {
	row := s.assetsReader.QueryRow(`
		SELECT id, name, normalized_name, management_ip, ipv4_address, vendor_id, site_id,
			role_id, device_type, platform, model, software_version, serial, source_system, timestamp
		FROM devices WHERE normalized_name = ?`, name)

	var d models.Device
	err := row.Scan(&d.ID, &d.Name, &d.NormalizedName, &d.ManagementIP, &d.IPv4Address, &d.VendorID,
		&d.SiteID, &d.RoleID, &d.DeviceType, &d.Platform, &d.Model, &d.SoftwareVersion, &d.Serial,
		&d.SourceSystem, &d.Timestamp)
	if err == sql.ErrNoRows {
		return models.Device{}, errs.ErrNotFound
	}
	if err != nil {
		return models.Device{}, fmt.Errorf("store: scanning device %q: %w", name, err)
	}
	return d, nil
}

// ReplaceComponents deletes every component for deviceID and inserts comps,
// implementing the "replace-by-device" upsert rule for inventory capture
// loads.
func (s *Store) ReplaceComponents(deviceID int64, comps []models.Component) error {
	tx, err := s.assetsWriter.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM components WHERE device_id = ?`, deviceID); err != nil {
		return errs.NewIntegrityError("components", "delete", err)
	}
	for _, c := range comps {
		_, err := tx.Exec(`
			INSERT INTO components (device_id, name, description, serial, position, have_sn, type,
				subtype, extraction_source, extraction_confidence)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(device_id, name, position) DO UPDATE SET
				description=excluded.description, serial=excluded.serial, have_sn=excluded.have_sn,
				type=excluded.type, subtype=excluded.subtype,
				extraction_source=excluded.extraction_source,
				extraction_confidence=excluded.extraction_confidence
		`, deviceID, c.Name, c.Description, c.Serial, c.Position, c.HaveSN, c.Type, c.Subtype,
			c.ExtractionSource, c.ExtractionConfidence)
		if err != nil {
			return errs.NewIntegrityError("components", "insert", err)
		}
	}
	return tx.Commit()
}

// UpsertCaptureCurrent writes the latest-capture row for (device, type),
// performed unconditionally regardless of whether the parse itself
// succeeded, so operators can always browse the raw output.
func (s *Store) UpsertCaptureCurrent(c models.CaptureCurrent) error {
	_, err := s.assetsWriter.Exec(`
		INSERT INTO captures_current (device_id, capture_type, file_path, size, captured_at, content_hash)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(device_id, capture_type) DO UPDATE SET
			file_path=excluded.file_path, size=excluded.size,
			captured_at=excluded.captured_at, content_hash=excluded.content_hash
	`, c.DeviceID, c.CaptureType, c.FilePath, c.Size, c.CapturedAt, c.ContentHash)
	if err != nil {
		return errs.NewIntegrityError("captures_current", "upsert", err)
	}
	return nil
}

// LatestSnapshot returns the most recent snapshot for (deviceID,
// captureType), or errs.ErrNotFound if none exists yet.
func (s *Store) LatestSnapshot(deviceID int64, captureType string) (models.CaptureSnapshot, error) {
	row := s.assetsReader.QueryRow(`
		SELECT id, device_id, capture_type, content, content_hash, file_path, captured_at
		FROM capture_snapshots
		WHERE device_id = ? AND capture_type = ?
		ORDER BY captured_at DESC, id DESC LIMIT 1
	`, deviceID, captureType)

	var snap models.CaptureSnapshot
	err := row.Scan(&snap.ID, &snap.DeviceID, &snap.CaptureType, &snap.Content, &snap.ContentHash,
		&snap.FilePath, &snap.CapturedAt)
	if err == sql.ErrNoRows {
		return models.CaptureSnapshot{}, errs.ErrNotFound
	}
	if err != nil {
		return models.CaptureSnapshot{}, fmt.Errorf("store: querying latest snapshot: %w", err)
	}
	return snap, nil
}

// InsertSnapshot inserts snap and returns its new ID. Content-hash
// deduplication is enforced by the UNIQUE(device_id, capture_type,
// content_hash) constraint; a duplicate insert returns errs.ErrIntegrity
// wrapped with the underlying driver error so callers can treat it as a
// no-op dedup rather than a real failure.
func (s *Store) InsertSnapshot(snap models.CaptureSnapshot) (int64, error) {
	res, err := s.assetsWriter.Exec(`
		INSERT INTO capture_snapshots (device_id, capture_type, captured_at, file_path, content, content_hash)
		VALUES (?, ?, ?, ?, ?, ?)
	`, snap.DeviceID, snap.CaptureType, snap.CapturedAt, snap.FilePath, snap.Content, snap.ContentHash)
	if err != nil {
		return 0, errs.NewIntegrityError("capture_snapshots", "insert", err)
	}
	return res.LastInsertId()
}

// InsertChange inserts an immutable change record and returns its new ID.
func (s *Store) InsertChange(c models.CaptureChange) (int64, error) {
	res, err := s.assetsWriter.Exec(`
		INSERT INTO capture_changes (device_id, capture_type, detected_at, previous_snapshot_id,
			current_snapshot_id, lines_added, lines_removed, diff_path, severity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.DeviceID, c.CaptureType, c.DetectedAt, c.PreviousSnapshotID, c.CurrentSnapshotID,
		c.LinesAdded, c.LinesRemoved, c.DiffPath, string(c.Severity))
	if err != nil {
		return 0, errs.NewIntegrityError("capture_changes", "insert", err)
	}
	return res.LastInsertId()
}

// InsertArpEntry appends one ARP sighting. ARP history is append-only:
// duplicate sightings across different captures are preserved, only
// duplicates within a single capture batch are collapsed by the caller
// before insert.
func (s *Store) InsertArpEntry(e models.ArpEntry) error {
	_, err := s.arpWriter.Exec(`
		INSERT INTO arp_entries (device_id, context_id, ip_address, mac_address, interface, entry_type, captured_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.DeviceID, e.ContextID, e.IPAddress, e.MACAddress, e.Interface, e.EntryType, e.CapturedAt)
	if err != nil {
		return errs.NewIntegrityError("arp_entries", "insert", err)
	}
	return nil
}

// SearchSnapshots runs a full-text query across all tracked snapshot
// content, returning matching snapshot IDs.
func (s *Store) SearchSnapshots(query string) ([]int64, error) {
	rows, err := s.assetsReader.Query(`
		SELECT rowid FROM capture_fts WHERE capture_fts MATCH ? ORDER BY rank
	`, query)
	if err != nil {
		return nil, fmt.Errorf("store: fts search: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scanning fts row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

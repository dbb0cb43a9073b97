package store

// schema is applied on Open against a fresh database. All writes funnel
// through one *sql.DB configured for a single connection (SetMaxOpenConns(1))
// so there is exactly one writer, matching the single-writer-goroutine
// requirement for the shared database.
const schema = `
CREATE TABLE IF NOT EXISTS devices (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	normalized_name TEXT NOT NULL UNIQUE,
	management_ip TEXT,
	ipv4_address TEXT,
	vendor_id TEXT,
	site_id TEXT,
	role_id TEXT,
	device_type TEXT,
	platform TEXT,
	model TEXT,
	software_version TEXT,
	serial TEXT,
	source_system TEXT,
	fingerprinted_at DATETIME,
	timestamp DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS components (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	device_id INTEGER NOT NULL REFERENCES devices(id),
	name TEXT NOT NULL,
	description TEXT,
	serial TEXT,
	position TEXT,
	have_sn INTEGER NOT NULL DEFAULT 0,
	type TEXT,
	subtype TEXT,
	extraction_source TEXT,
	extraction_confidence REAL,
	UNIQUE(device_id, name, position)
);

CREATE TABLE IF NOT EXISTS captures_current (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	device_id INTEGER NOT NULL REFERENCES devices(id),
	capture_type TEXT NOT NULL,
	file_path TEXT,
	size INTEGER,
	captured_at DATETIME NOT NULL,
	content_hash TEXT,
	UNIQUE(device_id, capture_type)
);

CREATE TABLE IF NOT EXISTS capture_snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	device_id INTEGER NOT NULL REFERENCES devices(id),
	capture_type TEXT NOT NULL,
	captured_at DATETIME NOT NULL,
	file_path TEXT,
	content TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	UNIQUE(device_id, capture_type, content_hash)
);

CREATE TABLE IF NOT EXISTS capture_changes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	device_id INTEGER NOT NULL REFERENCES devices(id),
	capture_type TEXT NOT NULL,
	detected_at DATETIME NOT NULL,
	previous_snapshot_id INTEGER REFERENCES capture_snapshots(id),
	current_snapshot_id INTEGER NOT NULL REFERENCES capture_snapshots(id),
	lines_added INTEGER NOT NULL,
	lines_removed INTEGER NOT NULL,
	diff_path TEXT,
	severity TEXT NOT NULL CHECK (severity IN ('minor', 'moderate', 'critical'))
);

CREATE VIRTUAL TABLE IF NOT EXISTS capture_fts USING fts5(
	content, content=capture_snapshots, content_rowid=id
);

CREATE TRIGGER IF NOT EXISTS capture_snapshots_ai AFTER INSERT ON capture_snapshots BEGIN
	INSERT INTO capture_fts(rowid, content) VALUES (new.id, new.content);
END;

CREATE INDEX IF NOT EXISTS idx_components_device ON components(device_id);
CREATE INDEX IF NOT EXISTS idx_snapshots_device_type ON capture_snapshots(device_id, capture_type, captured_at DESC);
`

// arpSchema is applied to the separate arp_cat.db database: ARP history is
// high-volume and append-only, so it is kept in its own file to avoid lock
// contention with the lower-churn assets tables.
const arpSchema = `
CREATE TABLE IF NOT EXISTS arp_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	device_id INTEGER NOT NULL,
	context_id TEXT,
	ip_address TEXT NOT NULL,
	mac_address TEXT NOT NULL,
	interface TEXT,
	entry_type TEXT,
	captured_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_arp_mac ON arp_entries(mac_address);
CREATE INDEX IF NOT EXISTS idx_arp_ip ON arp_entries(ip_address);
`

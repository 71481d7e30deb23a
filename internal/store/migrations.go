package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot_meta (
	id           INTEGER PRIMARY KEY CHECK(id = 1),
	unread_count INTEGER NOT NULL DEFAULT 0,
	current_page INTEGER NOT NULL DEFAULT 0,
	last_page    INTEGER NOT NULL DEFAULT 0,
	total        INTEGER NOT NULL DEFAULT 0,
	per_page     INTEGER NOT NULL DEFAULT 0,
	saved_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS cached_notifications (
	list       TEXT NOT NULL CHECK(list IN ('page', 'low_stock')),
	position   INTEGER NOT NULL,
	id         INTEGER NOT NULL,
	type       TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	message    TEXT NOT NULL DEFAULT '',
	priority   TEXT NOT NULL DEFAULT '',
	category   TEXT NOT NULL DEFAULT '',
	is_read    INTEGER NOT NULL DEFAULT 0 CHECK(is_read IN (0, 1)),
	read_at    DATETIME,
	created_at TEXT NOT NULL DEFAULT '',
	data       TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY (list, position)
);

CREATE INDEX IF NOT EXISTS idx_cached_notifications_id ON cached_notifications(id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_cached_notifications_is_read
	ON cached_notifications(is_read);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}

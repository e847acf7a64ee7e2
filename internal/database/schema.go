package database

const historySchema = `
CREATE TABLE check_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	checked_at TIMESTAMP NOT NULL,
	target_month TEXT NOT NULL,
	dry_run BOOLEAN NOT NULL DEFAULT 0,
	notification_sent BOOLEAN NOT NULL DEFAULT 0,
	error TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX idx_check_history_checked_at ON check_history(checked_at);

CREATE TABLE check_date (
	check_id INTEGER NOT NULL,
	date TEXT NOT NULL,
	status TEXT NOT NULL,
	has_link BOOLEAN NOT NULL DEFAULT 0,
	PRIMARY KEY (check_id, date),
	FOREIGN KEY (check_id) REFERENCES check_history(id) ON DELETE CASCADE
);
`

// historySchemaVersion is stored in PRAGMA user_version once historySchema is applied
const historySchemaVersion = 1

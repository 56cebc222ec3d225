package store

const schemaTips = `
	CREATE TABLE IF NOT EXISTS tips (
		id             TEXT PRIMARY KEY,
		hash           TEXT NOT NULL UNIQUE,
		amount         TEXT NOT NULL,
		from_address   TEXT NOT NULL,
		to_reference   TEXT NOT NULL,
		currency_id    TEXT NOT NULL,
		reference_type TEXT NOT NULL DEFAULT '',
		reference_id   TEXT NOT NULL DEFAULT '',
		created_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_tips_reference ON tips (reference_type, reference_id);
`

const (
	queryCheckDuplicateTip = `
		SELECT id FROM tips WHERE hash = ?`

	queryInsertTip = `
		INSERT INTO tips (id, hash, amount, from_address, to_reference, currency_id, reference_type, reference_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, hash, amount, from_address, to_reference, currency_id, reference_type, reference_id, created_at`

	queryGetTipByHash = `
		SELECT id, hash, amount, from_address, to_reference, currency_id, reference_type, reference_id, created_at
		FROM tips
		WHERE hash = ?`

	queryListRecentTips = `
		SELECT id, hash, amount, from_address, to_reference, currency_id, reference_type, reference_id, created_at
		FROM tips
		ORDER BY created_at DESC
		LIMIT ?`
)

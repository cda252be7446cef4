package database

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id                UUID PRIMARY KEY,
	conversation_id   TEXT,
	full_name         TEXT,
	email             TEXT,
	company           TEXT,
	use_case          TEXT,
	budget            TEXT,
	timeline          TEXT,
	raw_transcript    TEXT NOT NULL,
	call_duration_sec INTEGER NOT NULL DEFAULT 0,
	call_status       TEXT NOT NULL CHECK (call_status IN ('completed', 'abandoned', 'voicemail')),
	called_at         TIMESTAMPTZ NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_call_status ON leads(call_status);
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);
CREATE INDEX IF NOT EXISTS idx_leads_conversation_id ON leads(conversation_id);
`

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id                TEXT PRIMARY KEY,
	conversation_id   TEXT,
	full_name         TEXT,
	email             TEXT,
	company           TEXT,
	use_case          TEXT,
	budget            TEXT,
	timeline          TEXT,
	raw_transcript    TEXT NOT NULL,
	call_duration_sec INTEGER NOT NULL DEFAULT 0,
	call_status       TEXT NOT NULL CHECK (call_status IN ('completed', 'abandoned', 'voicemail')),
	called_at         DATETIME NOT NULL,
	created_at        DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leads_call_status ON leads(call_status);
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);
`

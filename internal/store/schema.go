package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS cases (
    file_path            TEXT PRIMARY KEY,
    case_id              TEXT NOT NULL,
    client_name          TEXT NOT NULL,
    jurisdiction         TEXT NOT NULL,
    plan_type            TEXT,
    grantors_json        TEXT NOT NULL DEFAULT '[]',
    debts_and_expenses   REAL NOT NULL DEFAULT 0,
    qtip_value           REAL NOT NULL DEFAULT 0,
    parse_errors         INTEGER NOT NULL DEFAULT 0,
    file_mtime_ns        INTEGER NOT NULL,
    file_size            INTEGER NOT NULL,
    parsed_at            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS assets (
    file_path            TEXT NOT NULL REFERENCES cases(file_path) ON DELETE CASCADE,
    position             INTEGER NOT NULL,
    description          TEXT NOT NULL,
    category             TEXT,
    value                TEXT NOT NULL,
    held_in_trust        INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (file_path, position)
);

CREATE TABLE IF NOT EXISTS file_tracker (
    file_path            TEXT PRIMARY KEY,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cases_case_id ON cases(case_id);
CREATE INDEX IF NOT EXISTS idx_cases_jurisdiction ON cases(jurisdiction);
CREATE INDEX IF NOT EXISTS idx_cases_plan_type ON cases(plan_type);
`

package store

// Decimal amounts are stored as TEXT to keep arbitrary precision; dates and
// timestamps as RFC 3339 TEXT in UTC.
const schema = `
CREATE TABLE IF NOT EXISTS connections (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL,
    api_key        TEXT NOT NULL,
    api_secret     TEXT NOT NULL,
    status         TEXT NOT NULL DEFAULT 'active',
    last_synced_at TEXT
);

CREATE TABLE IF NOT EXISTS ledger_accounts (
    id                INTEGER PRIMARY KEY,
    name              TEXT NOT NULL,
    currency          TEXT NOT NULL,
    balance           TEXT NOT NULL DEFAULT '0',
    available_balance TEXT NOT NULL DEFAULT '0'
);

CREATE TABLE IF NOT EXISTS broker_accounts (
    id                INTEGER PRIMARY KEY,
    connection_id     TEXT NOT NULL REFERENCES connections(id),
    external_id       TEXT NOT NULL,
    kind              TEXT NOT NULL,
    currency          TEXT NOT NULL DEFAULT '',
    balance           TEXT NOT NULL DEFAULT '0',
    available_balance TEXT NOT NULL DEFAULT '0',
    ledger_account_id INTEGER NOT NULL DEFAULT 0,
    UNIQUE(connection_id, external_id)
);

CREATE TABLE IF NOT EXISTS broker_records (
    id                INTEGER PRIMARY KEY,
    broker_account_id INTEGER NOT NULL REFERENCES broker_accounts(id),
    effective_id      TEXT NOT NULL,
    payload           TEXT NOT NULL,
    fetched_at        TEXT NOT NULL,
    UNIQUE(broker_account_id, effective_id)
);

CREATE TABLE IF NOT EXISTS entries (
    id                INTEGER PRIMARY KEY,
    ledger_account_id INTEGER NOT NULL REFERENCES ledger_accounts(id),
    external_id       TEXT NOT NULL,
    source            TEXT NOT NULL,
    kind              TEXT NOT NULL,
    date              TEXT NOT NULL,
    amount            TEXT NOT NULL,
    currency          TEXT NOT NULL,
    name              TEXT NOT NULL DEFAULT '',
    notes             TEXT NOT NULL DEFAULT '',
    quantity          TEXT NOT NULL DEFAULT '0',
    price_per_share   TEXT NOT NULL DEFAULT '0',
    price_currency    TEXT NOT NULL DEFAULT '',
    security_id       INTEGER NOT NULL DEFAULT 0,
    merchant_id       TEXT NOT NULL DEFAULT '',
    UNIQUE(ledger_account_id, external_id, source)
);

CREATE INDEX IF NOT EXISTS idx_entries_account_date ON entries(ledger_account_id, date);

CREATE TABLE IF NOT EXISTS transfers (
    id               INTEGER PRIMARY KEY,
    outflow_entry_id INTEGER NOT NULL REFERENCES entries(id),
    inflow_entry_id  INTEGER NOT NULL REFERENCES entries(id),
    status           TEXT NOT NULL,
    UNIQUE(outflow_entry_id, inflow_entry_id)
);

CREATE TABLE IF NOT EXISTS securities (
    id     INTEGER PRIMARY KEY,
    ticker TEXT NOT NULL UNIQUE,
    isin   TEXT NOT NULL DEFAULT '',
    name   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS merchants (
    id       TEXT PRIMARY KEY,
    name     TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS valuations (
    ledger_account_id INTEGER NOT NULL REFERENCES ledger_accounts(id),
    kind              TEXT NOT NULL,
    date              TEXT NOT NULL,
    balance           TEXT NOT NULL,
    UNIQUE(ledger_account_id, kind)
);
`

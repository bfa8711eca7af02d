package storage

const schema = `
-- Scheduling state lives in 'cards'; note content in 'notes'. A card's due
-- column is a position (new), a day index (review), or an epoch second
-- (learning), depending on its queue.
CREATE TABLE IF NOT EXISTS cards (
    id       INTEGER PRIMARY KEY,
    nid      INTEGER NOT NULL,
    did      INTEGER NOT NULL,
    ord      INTEGER NOT NULL DEFAULT 0,
    mod      INTEGER NOT NULL DEFAULT 0,
    usn      INTEGER NOT NULL DEFAULT -1,
    type     INTEGER NOT NULL DEFAULT 0,
    queue    INTEGER NOT NULL DEFAULT 0,
    due      INTEGER NOT NULL DEFAULT 0,
    ivl      INTEGER NOT NULL DEFAULT 0,
    factor   INTEGER NOT NULL DEFAULT 0,
    reps     INTEGER NOT NULL DEFAULT 0,
    lapses   INTEGER NOT NULL DEFAULT 0,
    left     INTEGER NOT NULL DEFAULT 0,
    odue     INTEGER NOT NULL DEFAULT 0,
    odid     INTEGER NOT NULL DEFAULT 0,
    last_ivl INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS ix_cards_nid ON cards (nid);
CREATE INDEX IF NOT EXISTS ix_cards_sched ON cards (did, queue, due);

CREATE TABLE IF NOT EXISTS notes (
    id        INTEGER PRIMARY KEY,
    guid      TEXT NOT NULL,
    mod       INTEGER NOT NULL DEFAULT 0,
    usn       INTEGER NOT NULL DEFAULT -1,
    tags      TEXT NOT NULL DEFAULT '',
    front     TEXT NOT NULL,
    back      TEXT NOT NULL DEFAULT '',
    context   TEXT NOT NULL DEFAULT '',
    csum      TEXT NOT NULL,
    source_id INTEGER,

    FOREIGN KEY(source_id) REFERENCES sources(id)
);
CREATE INDEX IF NOT EXISTS ix_notes_csum ON notes (csum);

-- Append-only audit log of answers, keyed by the answer's epoch millisecond.
CREATE TABLE IF NOT EXISTS revlog (
    id       INTEGER PRIMARY KEY,
    cid      INTEGER NOT NULL,
    usn      INTEGER NOT NULL,
    ease     INTEGER NOT NULL,
    ivl      INTEGER NOT NULL,
    last_ivl INTEGER NOT NULL,
    factor   INTEGER NOT NULL,
    time     INTEGER NOT NULL,
    type     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS ix_revlog_cid ON revlog (cid);

-- Decks and their shared configs are stored as JSON documents.
CREATE TABLE IF NOT EXISTS decks (
    id   INTEGER PRIMARY KEY,
    json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS deck_config (
    id   INTEGER PRIMARY KEY,
    json TEXT NOT NULL
);

-- Collection-level key/value configuration ('crt', 'collapseTime', ...).
CREATE TABLE IF NOT EXISTS col (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

-- The 'sources' table tracks card origins, either a local directory or a
-- git repository.
CREATE TABLE IF NOT EXISTS sources (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    path         TEXT NOT NULL UNIQUE,
    type         TEXT NOT NULL DEFAULT 'local',
    deck_id      INTEGER NOT NULL DEFAULT 1,
    last_scanned DATETIME
);
`

package store

const schema = `
-- One rendered image per row
CREATE TABLE IF NOT EXISTS batches (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    batch_id TEXT NOT NULL UNIQUE,
    batch_index INTEGER NOT NULL,
    size_arcsec REAL NOT NULL,
    magnitude REAL NOT NULL,
    repeat INTEGER NOT NULL,
    image_path TEXT NOT NULL,
    img_size INTEGER NOT NULL
);

-- Truth table
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    batch_ref INTEGER NOT NULL,
    idx INTEGER NOT NULL,
    x REAL NOT NULL,
    y REAL NOT NULL,
    flux REAL NOT NULL,
    magnitude REAL NOT NULL,
    size_arcsec REAL NOT NULL,
    size_px REAL NOT NULL,
    fwhm_px REAL NOT NULL,
    FOREIGN KEY (batch_ref) REFERENCES batches(id) ON DELETE CASCADE,
    UNIQUE(batch_ref, idx)
);

-- One row per source; detection columns are NULL without a candidate
CREATE TABLE IF NOT EXISTS matches (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source_ref INTEGER NOT NULL UNIQUE,
    detection_id INTEGER,
    x REAL,
    y REAL,
    distance REAL,
    fwhm REAL,
    mag_auto REAL,
    flux_radius REAL,
    out_of_range BOOLEAN,
    matches INTEGER NOT NULL,
    FOREIGN KEY (source_ref) REFERENCES sources(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_batches_grid ON batches(size_arcsec, magnitude);
CREATE INDEX IF NOT EXISTS idx_sources_batch ON sources(batch_ref);

CREATE VIEW IF NOT EXISTS outcomes AS
SELECT
    b.batch_id,
    b.size_arcsec,
    b.magnitude,
    s.idx,
    m.matches
FROM matches m
JOIN sources s ON m.source_ref = s.id
JOIN batches b ON s.batch_ref = b.id;
`

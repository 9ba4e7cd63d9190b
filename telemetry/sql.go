package telemetry

const (
	initSchemaSQL = `
CREATE TABLE IF NOT EXISTS samples (
    msg   TEXT    NOT NULL,
    inst  INTEGER NOT NULL,
    field TEXT    NOT NULL,
    seq   INTEGER NOT NULL,
    value REAL
);
CREATE INDEX IF NOT EXISTS idx_samples_msg_field ON samples (msg, field, inst, seq);
CREATE TABLE IF NOT EXISTS params (
    name  TEXT NOT NULL,
    value REAL NOT NULL
);`

	selectCatalogSQL = `
SELECT DISTINCT
    msg,
    inst,
    field
FROM samples
ORDER BY msg, inst, field`

	selectFieldSQL = `
SELECT 
    value
FROM samples
WHERE 
    msg = ?
    AND field = ?
ORDER BY seq`

	selectInstanceFieldSQL = `
SELECT 
    value
FROM samples
WHERE 
    msg = ?
    AND inst = ?
    AND field = ?
ORDER BY seq`

	selectParamSQL = `
SELECT 
    value
FROM params
WHERE 
    name = ?
ORDER BY rowid DESC
LIMIT 1`

	insertSampleSQL = `INSERT INTO samples (msg, inst, field, seq, value) VALUES (?, ?, ?, ?, ?)`

	insertParamSQL = `INSERT INTO params (name, value) VALUES (?, ?)`
)

package storage

import (
	_ "embed"
)

const (
	insertRunSQL = `
INSERT INTO runs (mode,
                  site,
                  polarisation,
                  azimuth,
                  band,
                  requested_start,
                  requested_end,
                  actual_start,
                  actual_end,
                  flag_threshold,
                  matched_files,
                  valid_files,
                  flagged_files,
                  unreadable_files)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	insertAverageSQL = `
INSERT INTO average_spectra (run_id,
                             frequency,
                             power)
VALUES (?, ?, ?)`

	selectRunsSQL = `
SELECT
    id,
    created_at,
    mode,
    site,
    polarisation,
    azimuth,
    band,
    requested_start,
    requested_end,
    actual_start,
    actual_end,
    flag_threshold,
    matched_files,
    valid_files,
    flagged_files,
    unreadable_files
FROM runs
ORDER BY created_at`

	selectAverageSQL = `
SELECT
    frequency,
    power
FROM average_spectra
WHERE
    run_id = ?
ORDER BY frequency`
)

//go:embed schema.sql
var schemaSQL string

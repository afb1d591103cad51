package rfi

import (
	"fmt"
	"regexp"
	"time"
)

// Measurement file names encode the full instrument configuration:
//
//	SITE_YYYYMMDD_HHmm<P><AAA>_<B>.EXT
//
// e.g. MRT_20190424_0648H000_1.TXT is the horizontal polarisation, azimuth
// 0 deg, band 1 file written at 06:48 on 24 April 2019 at site MRT. The
// name is the only metadata carried by a file, so Decode and Encode must
// round-trip exactly.
var namePattern = regexp.MustCompile(`^([A-Z0-9]+)_(\d{8}_\d{4})([A-Z])(\d{3})_(\d)\.([A-Za-z]+)$`)

// timestampLayout covers the date/time portion of a file name. Precision is
// one minute.
const timestampLayout = "20060102_1504"

// MeasurementExt is the extension of decoded text measurement files. The
// analyser also leaves raw .CSV captures next to them; those are never
// loaded by this pipeline.
const MeasurementExt = "TXT"

// FileRecord is the decoded identity of one physical measurement file.
type FileRecord struct {
	Site         string
	Timestamp    time.Time
	Polarisation Polarisation
	Azimuth      Azimuth
	Band         Band
	Path         string // set by the scanner; not part of the encoded name
}

// Name returns the encoded file name for the record.
func (r FileRecord) Name() string {
	return Encode(r)
}

// Matches reports whether the record was taken with the given instrument
// configuration.
func (r FileRecord) Matches(pol Polarisation, az Azimuth, band Band) bool {
	return r.Polarisation == pol && r.Azimuth == az && r.Band == band
}

// DecodeError reports a file name that does not follow the measurement
// naming convention.
type DecodeError struct {
	Name   string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %q: %s", e.Name, e.Reason)
}

// Decode parses a measurement file name into its configuration tuple. The
// extension must be present but its value is not checked here; the scanner
// decides which variants to admit.
func Decode(name string) (FileRecord, error) {
	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return FileRecord{}, &DecodeError{Name: name, Reason: "name does not match SITE_YYYYMMDD_HHmmPAAA_B.EXT"}
	}

	ts, err := time.Parse(timestampLayout, m[2])
	if err != nil {
		return FileRecord{}, &DecodeError{Name: name, Reason: fmt.Sprintf("invalid timestamp %q", m[2])}
	}

	pol, err := ParsePolarisation(m[3])
	if err != nil {
		return FileRecord{}, &DecodeError{Name: name, Reason: err.Error()}
	}

	az, err := ParseAzimuth(m[4])
	if err != nil {
		return FileRecord{}, &DecodeError{Name: name, Reason: err.Error()}
	}

	band, err := ParseBand(m[5])
	if err != nil {
		return FileRecord{}, &DecodeError{Name: name, Reason: err.Error()}
	}

	return FileRecord{
		Site:         m[1],
		Timestamp:    ts,
		Polarisation: pol,
		Azimuth:      az,
		Band:         band,
	}, nil
}

// Encode is the inverse of Decode for the .TXT variant. It is used for
// diagnostics and to verify the codec round-trips.
func Encode(r FileRecord) string {
	return fmt.Sprintf("%s_%s%s%s_%s.%s",
		r.Site,
		r.Timestamp.Format(timestampLayout),
		r.Polarisation,
		r.Azimuth,
		r.Band,
		MeasurementExt)
}

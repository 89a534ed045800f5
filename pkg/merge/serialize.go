package merge

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"cosmic-on-air/pkg/airports"
	"cosmic-on-air/pkg/devicelog"
)

// Artifact format version, bumped when the header layout changes.
const artifactVersion = "1.0"

const timeLayout = "2006-01-02T15:04:05Z"

// WriteRecord serializes a finalized record as a processed artifact: a
// self-describing "#"-prefixed header followed by comma-separated data rows.
// The header carries enough provenance to reprocess or audit the file
// without the raw inputs.
func WriteRecord(w io.Writer, r *Record) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# format = processedCOA-%s\n", artifactVersion)
	fmt.Fprintf(bw, "# data delimiter = comma\n")

	fmt.Fprintf(bw, "#\n")
	fmt.Fprintf(bw, "# device_id = %s\n", r.DeviceID)
	fmt.Fprintf(bw, "# detector_model = %s\n", r.Format)
	fmt.Fprintf(bw, "# detector_native_quantity = %s\n", r.Format.NativeQuantity())
	fmt.Fprintf(bw, "# cnt_1min_source = %s\n", r.Format.Cnt1MinSource())
	fmt.Fprintf(bw, "# cnt_5s_source = %s\n", r.Format.Cnt5SecSource())
	fmt.Fprintf(bw, "# processing_pipeline = cosmic-on-air\n")

	fmt.Fprintf(bw, "#\n")
	if r.HasReference {
		fmt.Fprintf(bw, "# reference_id = cari7a\n")
		fmt.Fprintf(bw, "# reference_model = CARI-7A\n")
		fmt.Fprintf(bw, "# reference_quantity = H*(10)_total-neutron\n")
		fmt.Fprintf(bw, "# reference_alignment_method = time_offset_max_r2\n")
		fmt.Fprintf(bw, "# reference_time_offset_s = %d\n", r.TimeOffsetSec)
		fmt.Fprintf(bw, "# reference_scaling_beta = %.4e\n", r.ScalingFactor)
		fmt.Fprintf(bw, "# reference_scaling_units = CPM / μSv/h\n")
		fmt.Fprintf(bw, "# reference_fit_r2 = %.4f\n", r.R2)
		fmt.Fprintf(bw, "#\n")
		fmt.Fprintf(bw, "# simulation_model = CARI-7A\n")
		fmt.Fprintf(bw, "# simulation_total = H*10_total\n")
		fmt.Fprintf(bw, "# simulation_neutron = H*10_neutron\n")
		fmt.Fprintf(bw, "# simulation_unit = μSv/h\n")
	} else {
		fmt.Fprintf(bw, "# reference_id = ???\n")
		fmt.Fprintf(bw, "# reference_model = ???\n")
		fmt.Fprintf(bw, "# reference_quantity = ???\n")
		fmt.Fprintf(bw, "# reference_alignment_method = ???\n")
		fmt.Fprintf(bw, "# reference_time_offset_s = %d\n", r.TimeOffsetSec)
		if r.ScalingFactor > 0 {
			fmt.Fprintf(bw, "# reference_scaling_beta = %.4e\n", r.ScalingFactor)
		} else {
			fmt.Fprintf(bw, "# reference_scaling_beta = ???\n")
		}
		fmt.Fprintf(bw, "# reference_scaling_units = ???\n")
		fmt.Fprintf(bw, "# reference_fit_r2 = ???\n")
		fmt.Fprintf(bw, "#\n")
		fmt.Fprintf(bw, "# simulation_model = ???\n")
		fmt.Fprintf(bw, "# simulation_total = ???\n")
		fmt.Fprintf(bw, "# simulation_neutron = ???\n")
		fmt.Fprintf(bw, "# simulation_unit = ???\n")
	}

	fmt.Fprintf(bw, "#\n")
	fmt.Fprintf(bw, "# airport_code_type = ICAO\n")
	fmt.Fprintf(bw, "# origin = %s\n", r.OriginICAO)
	fmt.Fprintf(bw, "# destination = %s\n", r.DestinationICAO)
	fmt.Fprintf(bw, "# flight_number = %s\n", r.FlightNumber)
	fmt.Fprintf(bw, "# takeoff_utc = %s\n", r.Takeoff.UTC().Format(timeLayout))
	fmt.Fprintf(bw, "# landing_utc = %s\n", r.Landing.UTC().Format(timeLayout))

	fmt.Fprintf(bw, "#\n")
	if r.TimestampsRepaired {
		fmt.Fprintf(bw, "# detector_timestamps = repaired\n")
	} else {
		fmt.Fprintf(bw, "# detector_timestamps = original\n")
	}

	fmt.Fprintf(bw, "#\n")
	fmt.Fprintf(bw, "# timestamp_format = UTC_ISO8601\n")
	fmt.Fprintf(bw, "# latitude_unit = degrees\n")
	fmt.Fprintf(bw, "# longitude_unit = degrees\n")
	fmt.Fprintf(bw, "# altitude_unit = metres\n")

	fmt.Fprintf(bw, "#\n")
	fmt.Fprintf(bw, "# citizen_id = %s\n", r.CitizenID)

	fmt.Fprintf(bw, "#\n")
	if r.HasReference {
		fmt.Fprintf(bw, "# columns = timestamp_utc, cnt_1min, cnt_5s, latitude, longitude, altitude, simulation_total, simulation_neutron\n")
	} else {
		fmt.Fprintf(bw, "# columns = timestamp_utc, cnt_1min, cnt_5s, latitude, longitude, altitude\n")
	}

	for i := range r.Times {
		fmt.Fprintf(bw, "%s, %d, %d, %.5f, %.5f, %.0f",
			r.Times[i].UTC().Format(timeLayout),
			r.Cnt1Min[i], r.Cnt5Sec[i],
			r.Lat[i], r.Lon[i], r.Alt[i])
		if r.HasReference {
			// The neutron column is the share itself, so readers can
			// rebuild total-neutron by subtraction.
			fmt.Fprintf(bw, ", %.4e, %.4e",
				r.SimTotal[i], r.SimTotal[i]-r.SimTotalMinusNeutron[i])
		}
		fmt.Fprintf(bw, "\n")
	}

	return bw.Flush()
}

// WriteFile writes the record's artifact to path.
func WriteFile(path string, r *Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}
	if err := WriteRecord(f, r); err != nil {
		f.Close()
		return fmt.Errorf("write artifact: %w", err)
	}
	return f.Close()
}

// ReadRecord parses a processed artifact back into a record.  Header keys
// are matched by substring so unknown keys pass through harmlessly and key
// order never matters.
func ReadRecord(reader io.Reader) (*Record, error) {
	r := &Record{Stage: StageFinalized}

	value := func(line string) string {
		return strings.TrimSpace(line[strings.Index(line, "=")+1:])
	}

	sc := bufio.NewScanner(reader)
	sc.Buffer(make([]byte, 64*1024), 2*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.HasPrefix(line, "#") {
			switch {
			case strings.Contains(line, "device_id ="):
				r.DeviceID = value(line)
			case strings.Contains(line, "reference_fit_r2 ="):
				r.R2, _ = strconv.ParseFloat(value(line), 64)
			case strings.Contains(line, "reference_time_offset_s ="):
				offset, err := strconv.Atoi(value(line))
				if err == nil {
					r.TimeOffsetSec = offset
				}
			case strings.Contains(line, "reference_scaling_beta ="):
				r.ScalingFactor, _ = strconv.ParseFloat(value(line), 64)
			case strings.Contains(line, "origin ="):
				r.OriginICAO = value(line)
				r.Origin = airports.CityFor(r.OriginICAO)
			case strings.Contains(line, "destination ="):
				r.DestinationICAO = value(line)
				r.Destination = airports.CityFor(r.DestinationICAO)
			case strings.Contains(line, "flight_number ="):
				r.FlightNumber = value(line)
			case strings.Contains(line, "takeoff_utc ="):
				takeoff, err := time.Parse(timeLayout, value(line))
				if err != nil {
					return nil, fmt.Errorf("artifact line %d: %w", lineNo, err)
				}
				r.Takeoff = takeoff
				r.Date = takeoff.Truncate(24 * time.Hour)
			case strings.Contains(line, "landing_utc ="):
				landing, err := time.Parse(timeLayout, value(line))
				if err != nil {
					return nil, fmt.Errorf("artifact line %d: %w", lineNo, err)
				}
				r.Landing = landing
			case strings.Contains(line, "simulation_model = CARI-7A"):
				r.HasReference = true
			case strings.Contains(line, "citizen_id ="):
				r.CitizenID = value(line)
			case strings.Contains(line, "detector_timestamps ="):
				r.TimestampsRepaired = value(line) == "repaired"
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		row := strings.Split(line, ",")
		if len(row) < 6 {
			return nil, fmt.Errorf("artifact line %d: short data row %q", lineNo, line)
		}
		ts, err := time.Parse(timeLayout, strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("artifact line %d: %w", lineNo, err)
		}
		c1, err1 := strconv.Atoi(strings.TrimSpace(row[1]))
		c5, err2 := strconv.Atoi(strings.TrimSpace(row[2]))
		lat, err3 := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
		lon, err4 := strconv.ParseFloat(strings.TrimSpace(row[4]), 64)
		alt, err5 := strconv.ParseFloat(strings.TrimSpace(row[5]), 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			return nil, fmt.Errorf("artifact line %d: malformed data row %q", lineNo, line)
		}
		r.Times = append(r.Times, ts)
		r.Cnt1Min = append(r.Cnt1Min, c1)
		r.Cnt5Sec = append(r.Cnt5Sec, c5)
		r.Lat = append(r.Lat, lat)
		r.Lon = append(r.Lon, lon)
		r.Alt = append(r.Alt, alt)

		if r.HasReference {
			if len(row) < 8 {
				return nil, fmt.Errorf("artifact line %d: missing simulation columns", lineNo)
			}
			total, err1 := strconv.ParseFloat(strings.TrimSpace(row[6]), 64)
			neutron, err2 := strconv.ParseFloat(strings.TrimSpace(row[7]), 64)
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("artifact line %d: malformed simulation columns", lineNo)
			}
			r.SimTotal = append(r.SimTotal, total)
			r.SimTotalMinusNeutron = append(r.SimTotalMinusNeutron, total-neutron)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan artifact: %w", err)
	}
	r.Format = formatFromDeviceID(r.DeviceID)
	return r, nil
}

// ReadFile parses the processed artifact at path.
func ReadFile(path string) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()
	return ReadRecord(f)
}

// formatFromDeviceID recovers the detector family from the stored device id.
func formatFromDeviceID(id string) devicelog.Format {
	id = strings.ToLower(id)
	switch {
	case strings.Contains(id, "safecast"):
		return devicelog.FormatSafecast
	case strings.Contains(id, "uct"):
		return devicelog.FormatUCT
	case strings.Contains(id, "gmc"):
		return devicelog.FormatGMC
	case strings.Contains(id, "radiacode"):
		return devicelog.FormatRadiacode
	case strings.Contains(id, "rium"):
		return devicelog.FormatRium
	default:
		return devicelog.FormatUnknown
	}
}

package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ising-mc/internal/experiment"
)

// ErrBadSnapshot reports a malformed text snapshot.
var ErrBadSnapshot = errors.New("report: malformed snapshot")

// WriteSnapshotText writes a "# T=... B=... eps=..." header followed by one
// comma separated row of spins per lattice row.
func WriteSnapshotText(w io.Writer, s experiment.Snapshot) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# T=%g B=%g eps=%g stage=%s sweep=%d\n", s.Temperature, s.Field, s.Anisotropy, s.Stage, s.Sweep)
	for _, row := range s.Spins {
		for j, v := range row {
			if j > 0 {
				bw.WriteByte(',')
			}
			bw.WriteString(strconv.Itoa(int(v)))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// ReadSnapshotText parses the output of WriteSnapshotText.
func ReadSnapshotText(r io.Reader) (experiment.Snapshot, error) {
	var s experiment.Snapshot
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return s, err
		}
		return s, fmt.Errorf("%w: empty input", ErrBadSnapshot)
	}
	if err := parseHeader(sc.Text(), &s); err != nil {
		return s, err
	}
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		row := make([]int8, len(parts))
		for j, p := range parts {
			switch strings.TrimSpace(p) {
			case "1", "+1":
				row[j] = 1
			case "-1":
				row[j] = -1
			default:
				return s, fmt.Errorf("%w: row %d column %d: %q", ErrBadSnapshot, len(s.Spins), j, p)
			}
		}
		if len(s.Spins) > 0 && len(row) != len(s.Spins[0]) {
			return s, fmt.Errorf("%w: row %d has %d columns, want %d", ErrBadSnapshot, len(s.Spins), len(row), len(s.Spins[0]))
		}
		s.Spins = append(s.Spins, row)
	}
	if err := sc.Err(); err != nil {
		return s, err
	}
	if len(s.Spins) == 0 {
		return s, fmt.Errorf("%w: no spins", ErrBadSnapshot)
	}
	return s, nil
}

func parseHeader(line string, s *experiment.Snapshot) error {
	if !strings.HasPrefix(line, "#") {
		return fmt.Errorf("%w: missing header", ErrBadSnapshot)
	}
	for _, field := range strings.Fields(strings.TrimPrefix(line, "#")) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		var err error
		switch key {
		case "T":
			s.Temperature, err = strconv.ParseFloat(value, 64)
		case "B":
			s.Field, err = strconv.ParseFloat(value, 64)
		case "eps":
			s.Anisotropy, err = strconv.ParseFloat(value, 64)
		case "stage":
			s.Stage = value
		case "sweep":
			s.Sweep, err = strconv.Atoi(value)
		}
		if err != nil {
			return fmt.Errorf("%w: header %s: %v", ErrBadSnapshot, key, err)
		}
	}
	return nil
}

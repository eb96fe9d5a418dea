package applications

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

type csvStreamer struct {
	buf          *bufio.Writer
	csv          *csv.Writer
	flushEvery   int
	pendingLines int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true
	return &csvStreamer{buf: buf, csv: writer, flushEvery: csvFlushEvery}
}

func (s *csvStreamer) writeRow(row []string) error {
	if err := s.csv.Write(row); err != nil {
		return err
	}
	s.pendingLines++
	if s.flushEvery > 0 && s.pendingLines >= s.flushEvery {
		return s.flush()
	}
	return nil
}

func (s *csvStreamer) flush() error {
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	s.pendingLines = 0
	return nil
}

// WriteCSV streams a posting's applicant sheet as CSV.
func WriteCSV(w io.Writer, rows []Row) error {
	streamer := newCSVStreamer(w)
	header := []string{"Application ID", "Student Name", "Email", "Registration No", "Department", "CGPA", "Status", "Applied At", "Reviewed By"}
	if err := streamer.writeRow(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			strconv.FormatInt(row.ID, 10),
			row.StudentName,
			row.StudentEmail,
			row.RegistrationNo,
			row.Department,
			strconv.FormatFloat(row.CGPA, 'f', 2, 64),
			row.Status,
			row.AppliedAt.UTC().Format(time.RFC3339),
			row.ReviewedBy,
		}
		if err := streamer.writeRow(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	return streamer.flush()
}

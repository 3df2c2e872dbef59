package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path"

	"github.com/webdiner/webdiner/app/models"
	"github.com/webdiner/webdiner/pkg/logger"
	"github.com/webdiner/webdiner/pkg/storage"
)

// ExportResult lists what an export wrote.
type ExportResult struct {
	Dir   string   `json:"dir"`
	Files []string `json:"files"`
	URLs  []string `json:"urls"`
}

// ReportService writes the day's report and roster to a storage disk.
type ReportService struct {
	aggregation *Aggregation
	disk        storage.Disk
}

func NewReportService(aggregation *Aggregation, disk storage.Disk) *ReportService {
	return &ReportService{aggregation: aggregation, disk: disk}
}

// Export writes reports/<date>/summary.json and reports/<date>/roster.csv.
// Existing files for the date are overwritten.
func (s *ReportService) Export(ctx context.Context, date models.Date) (*ExportResult, error) {
	report, err := s.aggregation.Aggregate(ctx, date)
	if err != nil {
		return nil, err
	}
	roster, err := s.aggregation.Roster(ctx, date)
	if err != nil {
		return nil, err
	}

	summary, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("services: encode report: %w", err)
	}
	table, err := rosterCSV(roster)
	if err != nil {
		return nil, fmt.Errorf("services: encode roster: %w", err)
	}

	res := &ExportResult{Dir: path.Join("reports", date.String())}
	for _, f := range []struct {
		name, contentType string
		body              []byte
	}{
		{"summary.json", "application/json", summary},
		{"roster.csv", "text/csv; charset=utf-8", table},
	} {
		p := path.Join(res.Dir, f.name)
		if err := s.disk.Put(ctx, p, f.body, f.contentType); err != nil {
			return nil, storageErr(err)
		}
		res.Files = append(res.Files, p)
		res.URLs = append(res.URLs, s.disk.URL(p))
	}

	logger.WithCtx(ctx).Info("report exported", "date", date.String(), "dir", res.Dir)
	return res, nil
}

// RosterCSV renders the roster for download.
func (s *ReportService) RosterCSV(ctx context.Context, date models.Date) ([]byte, error) {
	roster, err := s.aggregation.Roster(ctx, date)
	if err != nil {
		return nil, err
	}
	return rosterCSV(roster)
}

func rosterCSV(rows []RosterRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"employee_id", "name", "department", "status", "vendor", "item"})
	for _, r := range rows {
		status := ""
		if r.Status != nil {
			status = string(*r.Status)
		}
		_ = w.Write([]string{r.EmployeeID, r.Name, r.Department, status, r.VendorName, r.Label})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

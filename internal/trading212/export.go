package trading212

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cleared-dev/brokersync/internal/model"
)

// timeFormat is the UTC layout the export API expects for windows.
const timeFormat = "2006-01-02T15:04:05Z"

// Export job terminal states. Anything else means the job is still running.
const (
	statusFinished = "Finished"
	statusFailed   = "Failed"
	statusCanceled = "Canceled"
)

type exportRequest struct {
	DataIncluded dataIncluded `json:"dataIncluded"`
	TimeFrom     string       `json:"timeFrom"`
	TimeTo       string       `json:"timeTo"`
}

type dataIncluded struct {
	IncludeDividends    bool `json:"includeDividends"`
	IncludeInterest     bool `json:"includeInterest"`
	IncludeOrders       bool `json:"includeOrders"`
	IncludeTransactions bool `json:"includeTransactions"`
}

type exportJob struct {
	ReportID     int64  `json:"reportId"`
	Status       string `json:"status"`
	DownloadLink string `json:"downloadLink"`
}

// RequestExport submits an export job covering [from, to] for transactions,
// orders, dividends and interest, and returns the job id.
func (c *Client) RequestExport(ctx context.Context, from, to time.Time) (int64, error) {
	req := exportRequest{
		DataIncluded: dataIncluded{
			IncludeDividends:    true,
			IncludeInterest:     true,
			IncludeOrders:       true,
			IncludeTransactions: true,
		},
		TimeFrom: from.UTC().Format(timeFormat),
		TimeTo:   to.UTC().Format(timeFormat),
	}

	data, err := c.do(ctx, http.MethodPost, "/api/v0/history/exports", req)
	if err != nil {
		return 0, err
	}

	var job exportJob
	if err := json.Unmarshal(data, &job); err != nil {
		return 0, fmt.Errorf("parsing export response: %w", err)
	}
	c.log.Debug().Int64("job_id", job.ReportID).Msg("export requested")
	return job.ReportID, nil
}

// AwaitExport blocks until the export job completes and returns its download
// URL. It waits a grace delay before the first status check, then polls at a
// fixed interval up to maxPolls attempts before giving up with ErrTimeout.
func (c *Client) AwaitExport(ctx context.Context, jobID int64) (string, error) {
	if err := sleep(ctx, c.graceDelay); err != nil {
		return "", err
	}

	for attempt := 0; attempt < c.maxPolls; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, c.pollInterval); err != nil {
				return "", err
			}
		}

		job, err := c.findExport(ctx, jobID)
		if err != nil {
			return "", err
		}

		switch job.Status {
		case statusFinished:
			return job.DownloadLink, nil
		case statusFailed, statusCanceled:
			return "", fmt.Errorf("%w: job %d reported %s", ErrExportFailed, jobID, job.Status)
		default:
			c.log.Debug().Int64("job_id", jobID).Str("status", job.Status).Int("attempt", attempt+1).Msg("export not ready")
		}
	}
	return "", fmt.Errorf("%w: job %d after %d polls", ErrTimeout, jobID, c.maxPolls)
}

// findExport lists export jobs and returns the one matching jobID.
func (c *Client) findExport(ctx context.Context, jobID int64) (exportJob, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/v0/history/exports", nil)
	if err != nil {
		return exportJob{}, err
	}

	var jobs []exportJob
	if err := json.Unmarshal(data, &jobs); err != nil {
		return exportJob{}, fmt.Errorf("parsing export list: %w", err)
	}

	for _, job := range jobs {
		if job.ReportID == jobID {
			return job, nil
		}
	}
	return exportJob{}, fmt.Errorf("%w: export job %d", ErrNotFound, jobID)
}

// DownloadAndParse fetches the finished export file and parses it. The
// download link is presigned, so the request carries no auth header.
func (c *Client) DownloadAndParse(ctx context.Context, url string) ([]model.TransactionRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrDownloadFailed, resp.StatusCode)
	}

	records, err := ParseCSV(resp.Body)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// FetchTransactions is the only entry point callers should use: it requests
// an export over [from, to], waits for it and parses the result.
func (c *Client) FetchTransactions(ctx context.Context, from, to time.Time) ([]model.TransactionRecord, error) {
	jobID, err := c.RequestExport(ctx, from, to)
	if err != nil {
		return nil, err
	}

	url, err := c.AwaitExport(ctx, jobID)
	if err != nil {
		return nil, err
	}

	records, err := c.DownloadAndParse(ctx, url)
	if err != nil {
		return nil, err
	}

	c.log.Info().Int("records", len(records)).Time("from", from).Time("to", to).Msg("export fetched")
	return records, nil
}

// sleep waits for d unless the context is cancelled first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

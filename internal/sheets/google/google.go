package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	ports "paychart/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultRange is read when no range is configured.
const DefaultRange = "Salary!A1:H"

// Client reads salary rows from one spreadsheet range.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	salaryRange   string
}

var _ ports.SalaryReader = (*Client)(nil)

// Credentials holds service account material. JSON wins over File.
type Credentials struct {
	JSON string
	File string
}

// New creates a client using service account credentials.
func New(ctx context.Context, spreadsheetID, salaryRange string, creds Credentials) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(salaryRange) == "" {
		salaryRange = DefaultRange
	}

	svc, err := newSheetsService(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, salaryRange: salaryRange}, nil
}

func newSheetsService(ctx context.Context, creds Credentials) (*gsheet.Service, error) {
	inline := strings.TrimSpace(creds.JSON)
	file := strings.TrimSpace(creds.File)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var (
		credentialsJSON []byte
		err             error
	)
	switch {
	case inline != "":
		credentialsJSON = []byte(inline)
	case file != "":
		credentialsJSON, err = os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.DebugContext(ctx, "Creating Google Sheets service", "credentials_size", len(credentialsJSON))
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// ReadSalary reads the configured range. The first row must be a header
// naming the salary columns.
func (c *Client) ReadSalary(ctx context.Context) (any, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.salaryRange).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read range %q: %w", c.salaryRange, err)
	}
	rows, err := parseSalaryRows(resp.Values)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

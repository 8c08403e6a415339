// Package sheets reads statements from a Google Drive folder of
// spreadsheets and keeps the ledgers in a Google Sheets spreadsheet.
package sheets

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/gajana-dev/gajana/internal/config"
	"github.com/gajana-dev/gajana/internal/logger"
	"github.com/gajana-dev/gajana/internal/model"
)

const (
	spreadsheetMime = "application/vnd.google-apps.spreadsheet"
	userEntered     = "USER_ENTERED"
	insertRows      = "INSERT_ROWS"
)

// Client talks to the Drive and Sheets APIs. It serves as both the
// statement source and the ledger.
type Client struct {
	cfg    config.SheetsConfig
	sheets *sheetsapi.Service
	drive  *drive.Service
}

// New creates a Client. Without options it authenticates with the service
// account key in cfg.CredentialsFile.
func New(ctx context.Context, cfg config.SheetsConfig, opts ...option.ClientOption) (*Client, error) {
	if len(opts) == 0 {
		opts = []option.ClientOption{
			option.WithCredentialsFile(cfg.CredentialsFile),
			option.WithScopes(drive.DriveScope, sheetsapi.SpreadsheetsScope),
		}
	}
	ss, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	ds, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}
	return &Client{cfg: cfg, sheets: ss, drive: ds}, nil
}

// ListStatementFiles lists the spreadsheets in the statement folder.
func (c *Client) ListStatementFiles(ctx context.Context) ([]model.StatementFile, error) {
	q := fmt.Sprintf("'%s' in parents and mimeType='%s' and trashed=false", c.cfg.DriveFolderID, spreadsheetMime)

	var files []model.StatementFile
	err := c.invoke(ctx, "list statement files", func(ctx context.Context) error {
		files = files[:0]
		return c.drive.Files.List().
			Q(q).
			Spaces("drive").
			Fields("nextPageToken, files(id, name)").
			Pages(ctx, func(page *drive.FileList) error {
				for _, f := range page.Files {
					files = append(files, model.StatementFile{ID: f.Id, Name: f.Name})
				}
				return nil
			})
	})
	if err != nil {
		return nil, fmt.Errorf("listing drive folder %s: %w", c.cfg.DriveFolderID, err)
	}
	logger.FromContext(ctx).Debug().Int("count", len(files)).Msg("listed statement spreadsheets")
	return files, nil
}

// FirstSheetName returns the title of the first visible sheet, or "" when
// every sheet is hidden.
func (c *Client) FirstSheetName(ctx context.Context, sourceID string) (string, error) {
	var ss *sheetsapi.Spreadsheet
	err := c.invoke(ctx, "get spreadsheet", func(ctx context.Context) error {
		var err error
		ss, err = c.sheets.Spreadsheets.Get(sourceID).
			Fields("sheets(properties(title,hidden,sheetId))").
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return "", fmt.Errorf("reading sheet metadata of %s: %w", sourceID, err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && !s.Properties.Hidden && s.Properties.Title != "" {
			return s.Properties.Title, nil
		}
	}
	return "", nil
}

// GetSheetData reads rangeSpec from the named sheet, or from the first
// sheet when sheetName is empty.
func (c *Client) GetSheetData(ctx context.Context, sourceID, sheetName, rangeSpec string) ([][]string, error) {
	rng := a1(sheetName, rangeSpec)
	var vr *sheetsapi.ValueRange
	err := c.invoke(ctx, "get values", func(ctx context.Context) error {
		var err error
		vr, err = c.sheets.Spreadsheets.Values.Get(sourceID, rng).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("reading %s of %s: %w", rng, sourceID, err)
	}
	return toStrings(vr.Values), nil
}

// TransactionLog reads the header and data rows of a ledger sheet.
func (c *Client) TransactionLog(ctx context.Context, logType model.LogType) ([][]string, error) {
	return c.GetSheetData(ctx, c.cfg.SpreadsheetID, c.sheetName(logType), c.cfg.DataRange)
}

// AppendTransactions appends rows after the last row of the ledger sheet.
func (c *Client) AppendTransactions(ctx context.Context, logType model.LogType, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	rng := a1(c.sheetName(logType), "")
	body := &sheetsapi.ValueRange{Values: toValues(rows)}
	var resp *sheetsapi.AppendValuesResponse
	err := c.invoke(ctx, "append values", func(ctx context.Context) error {
		var err error
		resp, err = c.sheets.Spreadsheets.Values.Append(c.cfg.SpreadsheetID, rng, body).
			ValueInputOption(userEntered).
			InsertDataOption(insertRows).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("appending to %s: %w", rng, err)
	}
	if resp.Updates != nil {
		logger.FromContext(ctx).Debug().Int64("cells", resp.Updates.UpdatedCells).Str("range", resp.Updates.UpdatedRange).Msg("appended")
	}
	return nil
}

// ClearRange empties the data rows of the ledger sheet, keeping its header.
func (c *Client) ClearRange(ctx context.Context, logType model.LogType) error {
	rng := a1(c.sheetName(logType), c.cfg.ClearRange)
	err := c.invoke(ctx, "clear values", func(ctx context.Context) error {
		_, err := c.sheets.Spreadsheets.Values.Clear(c.cfg.SpreadsheetID, rng, &sheetsapi.ClearValuesRequest{}).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("clearing %s: %w", rng, err)
	}
	return nil
}

// WriteTransactions writes rows from the first data row of the ledger
// sheet, overwriting what is there.
func (c *Client) WriteTransactions(ctx context.Context, logType model.LogType, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	rng := a1(c.sheetName(logType), c.cfg.WriteStart)
	body := &sheetsapi.ValueRange{Values: toValues(rows)}
	err := c.invoke(ctx, "update values", func(ctx context.Context) error {
		_, err := c.sheets.Spreadsheets.Values.Update(c.cfg.SpreadsheetID, rng, body).
			ValueInputOption(userEntered).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", rng, err)
	}
	return nil
}

func (c *Client) sheetName(logType model.LogType) string {
	if logType == model.LogCreditCard {
		return c.cfg.CCSheet
	}
	return c.cfg.BankSheet
}

// a1 joins a sheet name and a cell range into A1 notation.
func a1(sheet, rng string) string {
	switch {
	case sheet == "":
		return rng
	case rng == "":
		return quote(sheet)
	default:
		return quote(sheet) + "!" + rng
	}
}

func quote(sheet string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}

func toValues(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		out[i] = make([]interface{}, len(row))
		for j, cell := range row {
			out[i][j] = cell
		}
	}
	return out
}

func toStrings(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = make([]string, len(row))
		for j, v := range row {
			switch v := v.(type) {
			case nil:
			case string:
				out[i][j] = v
			default:
				out[i][j] = fmt.Sprint(v)
			}
		}
	}
	return out
}

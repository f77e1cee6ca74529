// Package sheets publishes event rosters to a Google spreadsheet, one tab per
// event.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"

	"skiclub/internal/config"
)

// maxTitle is the longest tab name the Sheets API accepts.
const maxTitle = 100

type Client struct {
	srv           *sheetsv4.Service
	spreadsheetID string
}

// New builds a client from a service-account credentials file. Options are
// appended last, so tests can point it at a local server.
func New(ctx context.Context, cfg config.SheetsConfig, opts ...option.ClientOption) (*Client, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("sheets: spreadsheet id is required")
	}
	var base []option.ClientOption
	if cfg.CredentialsFile != "" {
		if _, err := os.Stat(cfg.CredentialsFile); err != nil {
			return nil, fmt.Errorf("sheets: service account json: %w", err)
		}
		base = append(base, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		base = append(base, option.WithEndpoint(cfg.Endpoint))
	}
	base = append(base, option.WithScopes(sheetsv4.SpreadsheetsScope))
	srv, err := sheetsv4.NewService(ctx, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("sheets: new service: %w", err)
	}
	return &Client{srv: srv, spreadsheetID: cfg.SpreadsheetID}, nil
}

func (c *Client) SpreadsheetID() string { return c.spreadsheetID }

// TabTitle turns an event label into a valid tab name.
func TabTitle(label string) string {
	label = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]*?/\:'`, r) {
			return ' '
		}
		return r
	}, label)
	label = strings.Join(strings.Fields(label), " ")
	if r := []rune(label); len(r) > maxTitle {
		label = string(r[:maxTitle])
	}
	if label == "" {
		label = "Roster"
	}
	return label
}

// ExportRoster replaces the content of tab with records, creating the tab when
// the spreadsheet does not have it yet. It returns the A1 range written.
func (c *Client) ExportRoster(ctx context.Context, tab string, records [][]string) (string, error) {
	tab = TabTitle(tab)
	if err := c.ensureTab(ctx, tab); err != nil {
		return "", err
	}
	rng := "'" + tab + "'"
	if _, err := c.srv.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &sheetsv4.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("sheets: clear %s: %w", tab, err)
	}
	values := make([][]interface{}, 0, len(records))
	for _, rec := range records {
		row := make([]interface{}, len(rec))
		for i, v := range rec {
			row[i] = v
		}
		values = append(values, row)
	}
	resp, err := c.srv.Spreadsheets.Values.Update(c.spreadsheetID, rng+"!A1", &sheetsv4.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("sheets: write %s: %w", tab, err)
	}
	return resp.UpdatedRange, nil
}

func (c *Client) ensureTab(ctx context.Context, tab string) error {
	ss, err := c.srv.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == tab {
			return nil
		}
	}
	req := &sheetsv4.BatchUpdateSpreadsheetRequest{Requests: []*sheetsv4.Request{{
		AddSheet: &sheetsv4.AddSheetRequest{Properties: &sheetsv4.SheetProperties{Title: tab}},
	}}}
	if _, err := c.srv.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("sheets: add tab %s: %w", tab, err)
	}
	return nil
}

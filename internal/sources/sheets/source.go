package sheets

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"simops/internal"
	"simops/internal/config"
	"simops/internal/sources"
)

type Source struct {
	service       *gsheets.Service
	spreadsheetID string
	worksheet     string
}

func NewSource(ctx context.Context, cfg config.Config) (*Source, error) {
	if err := cfg.Require("GOOGLE_SHEETS_ID", cfg.SheetsSpreadsheetID); err != nil {
		return nil, err
	}
	if err := cfg.Require("GOOGLE_CLIENT_ID", cfg.GoogleClientID); err != nil {
		return nil, err
	}
	if err := cfg.Require("GOOGLE_CLIENT_SECRET", cfg.GoogleClientSecret); err != nil {
		return nil, err
	}
	if err := cfg.Require("GOOGLE_REFRESH_TOKEN", cfg.GoogleRefreshToken); err != nil {
		return nil, err
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.GoogleRedirectURI,
		Scopes:       []string{gsheets.SpreadsheetsReadonlyScope},
	}

	httpClient := oauthCfg.Client(ctx, &oauth2.Token{RefreshToken: cfg.GoogleRefreshToken})
	httpClient.Timeout = time.Duration(cfg.SheetsTimeoutMs) * time.Millisecond

	svc, err := gsheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}
	return NewSourceWithService(svc, cfg.SheetsSpreadsheetID, cfg.SheetsWorksheet), nil
}

func NewSourceWithService(svc *gsheets.Service, spreadsheetID, worksheet string) *Source {
	return &Source{service: svc, spreadsheetID: spreadsheetID, worksheet: worksheet}
}

// Rows reads every populated cell of the worksheet.
func (s *Source) Rows(ctx context.Context) (internal.Sheet, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.worksheet).Context(ctx).Do()
	if err != nil {
		return internal.Sheet{}, fmt.Errorf("read sheet %s: %w", s.worksheet, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, values := range resp.Values {
		cells := make([]string, 0, len(values))
		for _, v := range values {
			if v == nil {
				cells = append(cells, "")
				continue
			}
			cells = append(cells, fmt.Sprint(v))
		}
		rows = append(rows, cells)
	}
	return sources.FromRows(rows), nil
}

package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"

	"github.com/xsolare/trip-scheduler-scraper/internal/logging"
	"github.com/xsolare/trip-scheduler-scraper/internal/models"
)

// locationID accepts location_id as either a JSON string or number.
type locationID string

func (id *locationID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = locationID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("location_id: %w", err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("location_id %s is not an integer", n)
	}
	*id = locationID(n.String())
	return nil
}

type nearbyLocation struct {
	LocationID locationID `json:"location_id" validate:"required"`
	Name       string     `json:"name" validate:"required"`
	Address    struct {
		AddressString string `json:"address_string"`
		City          string `json:"city"`
		Country       string `json:"country"`
	} `json:"address_obj"`
}

type nearbyResponse struct {
	Data []nearbyLocation `json:"data" validate:"required,dive"`
}

// APIEngine queries the TripAdvisor content API nearby-search endpoint.
type APIEngine struct {
	client   *resty.Client
	validate *validator.Validate
	logger   *slog.Logger
}

// NewAPIEngine creates an engine talking to baseURL (e.g. https://api.content.tripadvisor.com/api/v1).
func NewAPIEngine(baseURL string, timeout time.Duration, logger *slog.Logger) *APIEngine {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	return &APIEngine{client: client, validate: validator.New(), logger: logger}
}

// Acquire issues one nearby-search request. Transport, status and envelope
// failures all yield an empty result with a diagnostic; nothing is retried.
func (e *APIEngine) Acquire(ctx context.Context, opts Options) (*Result, error) {
	o, ok := opts.(APIOptions)
	if !ok {
		return nil, mismatch("APIOptions", opts)
	}
	logger := logging.FromContext(ctx, e.logger).With("strategy", StrategyAPI)
	res := &Result{}

	if o.APIKey == "" {
		logger.Warn("TRIPADVISOR_API_KEY is not set, skipping API request")
		res.diag("TRIPADVISOR_API_KEY is not set")
		return res, nil
	}

	var body nearbyResponse
	resp, err := e.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"key":      o.APIKey,
			"latLong":  o.LatLong,
			"category": o.Category,
			"language": o.Language,
		}).
		SetResult(&body).
		Get("/location/nearby_search")
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		logger.Error("nearby search request failed", "error", err)
		res.diag("request failed: %v", err)
		return res, nil
	}
	if resp.IsError() {
		logger.Error("nearby search returned an error", "status_code", resp.StatusCode(), "body", truncate(resp.String(), 300))
		res.diag("HTTP %d from content API", resp.StatusCode())
		return res, nil
	}
	if err := e.validate.Struct(body); err != nil {
		logger.Error("nearby search response failed validation", "error", err)
		res.diag("invalid response envelope: %v", err)
		return res, nil
	}

	raw := make([]models.ListItem, 0, len(body.Data))
	for _, loc := range body.Data {
		raw = append(raw, models.ListItem{
			Name:         loc.Name,
			Category:     o.Category,
			CanonicalURL: fmt.Sprintf("%s/Attraction_Review-g%s", siteURL, loc.LocationID),
		})
	}
	report := models.ValidateListItems(raw)
	for _, r := range report.Rejected {
		logger.Warn("location rejected", "name", r.Name, "reason", r.Reason)
	}
	res.Items = report.Valid
	logger.Info("nearby search complete", "locations", len(body.Data), "records", len(res.Items))
	return res, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

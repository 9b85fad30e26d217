package report

import (
	"fmt"
	"time"

	"erpsheets/internal/sanitize"
	"erpsheets/pkg/models"
	"github.com/rs/zerolog"
)

// Options toggles the optional parts of a report. The two toggles are independent.
type Options struct {
	DetailedView  bool `json:"detailedView"`
	FlagAnomalies bool `json:"flagAnomalies"`
}

// Request is a report request as received from a caller.
type Request struct {
	ClientIDs []string `json:"clientIds"`
	Options   *Options `json:"options"`
}

// Config is a validated report request.
type Config struct {
	ClientIDs []string  `json:"clientIds"`
	Options   Options   `json:"options"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewConfig validates req. Invalid client IDs are logged and skipped; the request fails with
// ErrInvalidRequest when it has no IDs or no options, and with ErrNoValidID when none is valid.
func NewConfig(req Request, now time.Time, log zerolog.Logger) (*Config, error) {
	const op = "NewConfig"

	if len(req.ClientIDs) == 0 {
		return nil, models.NewProcessingError(op, models.ErrInvalidRequest, "no clients selected")
	}
	if req.Options == nil {
		return nil, models.NewProcessingError(op, models.ErrInvalidRequest, "missing report options")
	}

	seen := make(map[string]bool, len(req.ClientIDs))
	var ids []string
	for _, raw := range req.ClientIDs {
		id, err := sanitize.ClientVendorID(raw)
		if err != nil {
			log.Warn().Err(err).Str("client_id", raw).Msg("Skipping invalid client id")
			continue
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, models.NewProcessingError(op, models.ErrNoValidID, fmt.Sprintf("%d ids, none valid", len(req.ClientIDs)))
	}

	return &Config{ClientIDs: ids, Options: *req.Options, CreatedAt: now}, nil
}

// Select returns the requested clients found in all, in request order.
func (c *Config) Select(all *models.OrderedMap[*models.ClientMarginAnalysis]) *models.OrderedMap[*models.ClientMarginAnalysis] {
	out := models.NewOrderedMap[*models.ClientMarginAnalysis]()
	for _, id := range c.ClientIDs {
		if client, ok := all.Get(id); ok {
			out.Set(id, client)
		}
	}
	return out
}

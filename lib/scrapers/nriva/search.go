package nriva

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"nriva-scraper/lib/ratelimit"

	"go.opentelemetry.io/otel/codes"
)

const searchPageLength = 100

// Criteria is the filter set submitted to the listing endpoint.
type Criteria struct {
	Gender      string `json:"gender"`
	MaxAge      int    `json:"max_age"`
	Citizenship string `json:"citizenship"`
}

// Slug renders the criteria as a filesystem-friendly key, e.g.
// "Female_USA_maxAge31".
func (c Criteria) Slug() string {
	return fmt.Sprintf("%s_%s_maxAge%d", c.Gender, c.Citizenship, c.MaxAge)
}

// Candidate is one search-result row. Id is the site-internal
// identifier used to fetch the detail page; it may be "" when the
// row carries no recognizable id. Fields keeps the raw row for the
// persisted snapshot.
type Candidate struct {
	Id     string
	Fields map[string]any
}

type searchFilter struct {
	Value string `json:"value"`
	Regex bool   `json:"regex"`
}

type searchOrder struct {
	Column int    `json:"column"`
	Dir    string `json:"dir"`
}

type searchPayload struct {
	Token       string        `json:"_token"`
	Gender      string        `json:"gender"`
	MaxAge      int           `json:"max_age"`
	Citizenship string        `json:"citizenship"`
	Draw        int           `json:"draw"`
	Start       int           `json:"start"`
	Length      int           `json:"length"`
	Search      searchFilter  `json:"search"`
	Order       []searchOrder `json:"order"`
}

type searchResponse struct {
	Data         []map[string]any `json:"data"`
	RecordsTotal int64            `json:"recordsTotal"`
}

// Search submits the filter criteria and pages through the listing
// endpoint until a short or empty page, waiting out the gate between
// page requests. Tokens are page-scoped, so the search page is
// fetched fresh for its own token first.
func (c *Client) Search(ctx context.Context, criteria Criteria, gate *ratelimit.Gate) ([]Candidate, error) {
	ctx, span := tracer.Start(ctx, "client:Search")
	defer span.End()

	token, err := c.searchToken(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "failed to resolve search token")
		return nil, err
	}

	slog.InfoContext(
		ctx, "searching profiles",
		"gender", criteria.Gender,
		"max_age", criteria.MaxAge,
		"citizenship", criteria.Citizenship,
	)

	var candidates []Candidate
	for page := 0; ; page++ {
		if page > 0 {
			err := gate.Wait(ctx)
			if err != nil {
				return nil, err
			}
		}

		payload := searchPayload{
			Token:       token,
			Gender:      criteria.Gender,
			MaxAge:      criteria.MaxAge,
			Citizenship: criteria.Citizenship,
			Draw:        page + 1,
			Start:       page * searchPageLength,
			Length:      searchPageLength,
			Search:      searchFilter{},
			Order:       []searchOrder{{Column: 1, Dir: "asc"}},
		}

		result, err := c.submitSearch(ctx, payload)
		if err != nil {
			span.SetStatus(codes.Error, "failed to submit search")
			return nil, err
		}

		if page == 0 && result.RecordsTotal > 0 {
			// informational only, a mismatch with the concatenated
			// page results is not an error
			slog.InfoContext(ctx, "server reported total", "records_total", result.RecordsTotal)
		}
		if len(result.Data) == 0 {
			break
		}

		for _, fields := range result.Data {
			candidates = append(candidates, Candidate{
				Id:     candidateId(fields),
				Fields: fields,
			})
		}
		slog.InfoContext(ctx, "processed search page", "page", page+1, "records", len(result.Data))

		if len(result.Data) < searchPageLength {
			break
		}
	}

	return candidates, nil
}

// SearchOnce submits the criteria as a single form post and returns
// the one resulting page. The paginated Search is preferred; this
// shape survives for listings small enough to fit one payload.
func (c *Client) SearchOnce(ctx context.Context, criteria Criteria) ([]Candidate, error) {
	ctx, span := tracer.Start(ctx, "client:SearchOnce")
	defer span.End()

	token, err := c.searchToken(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "failed to resolve search token")
		return nil, err
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("x-requested-with", "XMLHttpRequest").
		SetFormData(map[string]string{
			"_token":      token,
			"gender":      criteria.Gender,
			"max_age":     strconv.Itoa(criteria.MaxAge),
			"citizenship": criteria.Citizenship,
			"draw":        "1",
			"start":       "0",
			"length":      strconv.Itoa(searchPageLength),
		}).
		Post(searchEndpointPath)
	if err != nil {
		span.SetStatus(codes.Error, "failed to submit search form")
		return nil, fmt.Errorf("submit search form: %w", err)
	}

	var result searchResponse
	err = json.Unmarshal(res.Body(), &result)
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse search response")
		return nil, fmt.Errorf("parse search response: %w", err)
	}

	var candidates []Candidate
	for _, fields := range result.Data {
		candidates = append(candidates, Candidate{
			Id:     candidateId(fields),
			Fields: fields,
		})
	}
	return candidates, nil
}

func (c *Client) searchToken(ctx context.Context) (string, error) {
	doc, _, err := c.fetchDocument(ctx, searchPagePath)
	if err != nil {
		return "", fmt.Errorf("fetch search page: %w", err)
	}
	token := ResolveToken(doc)
	if token == "" {
		return "", fmt.Errorf("could not find anti-forgery token on search page")
	}
	return token, nil
}

func (c *Client) submitSearch(ctx context.Context, payload searchPayload) (searchResponse, error) {
	var result searchResponse

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/json").
		SetHeader("x-requested-with", "XMLHttpRequest").
		SetBody(payload).
		Post(searchEndpointPath)
	if err != nil {
		return result, fmt.Errorf("submit search: %w", err)
	}

	err = json.Unmarshal(res.Body(), &result)
	if err != nil {
		return result, fmt.Errorf("parse search response: %w", err)
	}
	return result, nil
}

// the site-internal id of a search-result row, preferring member_id
// over profile_id, "" when neither is present
func candidateId(fields map[string]any) string {
	for _, key := range []string{"member_id", "profile_id"} {
		switch value := fields[key].(type) {
		case string:
			if value != "" {
				return value
			}
		case float64:
			return strconv.FormatFloat(value, 'f', -1, 64)
		case json.Number:
			return value.String()
		}
	}
	return ""
}

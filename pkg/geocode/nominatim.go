package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"
)

// nominatimPlace is one element of the Nominatim search response array.
// Nominatim encodes coordinates as JSON strings.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode issues a single search request, waiting on the rate limiter first.
// An address with every field blank still fires (no pre-validation
// short-circuit) and comes back unmatched.
func (g *geocoder) Geocode(ctx context.Context, addr AddressInput) (*Result, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit")
	}

	reqURL := g.baseURL + "/search?" + searchParams(addr).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		// Upstream refusal is treated as a no-match, not a failure.
		return &Result{Matched: false}, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read body")
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, eris.Wrap(err, "geocode: parse response")
	}
	if len(places) == 0 {
		return &Result{Matched: false}, nil
	}

	place := places[0]
	lat, latErr := strconv.ParseFloat(place.Lat, 64)
	lon, lonErr := strconv.ParseFloat(place.Lon, 64)
	if latErr != nil || lonErr != nil {
		return nil, eris.Errorf("geocode: invalid coordinates %q,%q", place.Lat, place.Lon)
	}

	return &Result{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: place.DisplayName,
		Matched:     true,
	}, nil
}

// searchParams builds the query with only the non-empty address fields plus
// the fixed response shape parameters.
func searchParams(addr AddressInput) url.Values {
	country := addr.Country
	if country == "" {
		country = defaultCountry
	}

	params := url.Values{}
	setIfNonEmpty(params, "street", addr.Street)
	setIfNonEmpty(params, "city", addr.City)
	setIfNonEmpty(params, "state", addr.State)
	setIfNonEmpty(params, "postalcode", addr.ZipCode)
	params.Set("country", country)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", "1")
	return params
}

func setIfNonEmpty(params url.Values, key, val string) {
	if val != "" {
		params.Set(key, val)
	}
}

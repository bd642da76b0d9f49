package geocoder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	ErrNoAPIKey       = errors.New("geocoder api key is not configured")
	ErrStreetNotFound = errors.New("street not found")
)

type Config struct {
	BaseURL string
	APIKey  string
	Country string
	City    string
	Lang    string
	Timeout time.Duration
}

type StreetResolver interface {
	ResolveStreet(ctx context.Context, street string) (string, error)
}

// yandex geocode json 回應, 只取需要的欄位
type geocodeResponse struct {
	Response struct {
		GeoObjectCollection struct {
			FeatureMember []struct {
				GeoObject struct {
					Name             string `json:"name"`
					MetaDataProperty struct {
						GeocoderMetaData struct {
							Precision string `json:"precision"`
							Kind      string `json:"kind"`
						} `json:"GeocoderMetaData"`
					} `json:"metaDataProperty"`
				} `json:"GeoObject"`
			} `json:"featureMember"`
		} `json:"GeoObjectCollection"`
	} `json:"response"`
}

type Client struct {
	cf     Config
	client *resty.Client
}

func NewClient(cf Config) *Client {
	if cf.Timeout == 0 {
		cf.Timeout = 5 * time.Second
	}
	if cf.Lang == "" {
		cf.Lang = "en_US"
	}
	return &Client{
		cf:     cf,
		client: resty.New().SetTimeout(cf.Timeout).SetBaseURL(cf.BaseURL),
	}
}

// ResolveStreet 回傳正式街道名稱
// 只接受精確度與類型都是 street 的結果
func (c *Client) ResolveStreet(ctx context.Context, street string) (string, error) {
	if c.cf.APIKey == "" {
		return "", ErrNoAPIKey
	}

	var result geocodeResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"apikey":  c.cf.APIKey,
			"geocode": c.query(street),
			"lang":    c.cf.Lang,
			"results": "1",
			"format":  "json",
		}).
		SetResult(&result).
		Get("")
	if err != nil {
		return "", fmt.Errorf("geocode request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("geocode request: status %d", resp.StatusCode())
	}

	members := result.Response.GeoObjectCollection.FeatureMember
	if len(members) == 0 {
		return "", ErrStreetNotFound
	}
	geo := members[0].GeoObject
	meta := geo.MetaDataProperty.GeocoderMetaData
	if meta.Precision != "street" || meta.Kind != "street" || geo.Name == "" {
		return "", ErrStreetNotFound
	}
	return geo.Name, nil
}

func (c *Client) query(street string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.cf.Country, c.cf.City, strings.TrimSpace(street)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

package loader

import (
	"context"
	"errors"

	"github.com/go-resty/resty/v2"
)

func loadHTTP(ctx context.Context, client *resty.Client, rawURL string) ([]byte, error) {
	if client == nil {
		return nil, errors.New("loader: http client is not configured")
	}
	if rawURL == "" {
		return nil, errors.New("loader: url is required")
	}

	resp, err := client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, errors.New("loader: unexpected status " + resp.Status())
	}
	return resp.Body(), nil
}

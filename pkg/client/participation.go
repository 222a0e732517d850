package client

import (
	"context"
	"net/url"
	"time"

	"webinars/pkg/model"
)

type ParticipationClient struct {
	httpClient *HttpClient
}

func NewParticipationClient(baseUrl string) *ParticipationClient {
	return &ParticipationClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func participationsPath(webinarID string) string {
	return "/api/v1/webinars/id/" + url.PathEscape(webinarID) + "/participations"
}

func (c *ParticipationClient) Book(ctx context.Context, webinarID string, req model.ParticipationRequest) (*Response, error) {
	return c.httpClient.POST(ctx, participationsPath(webinarID), req)
}

func (c *ParticipationClient) BookRaw(ctx context.Context, webinarID string, rawBody []byte) (*Response, error) {
	return c.httpClient.POSTRaw(ctx, participationsPath(webinarID), rawBody)
}

func (c *ParticipationClient) List(ctx context.Context, webinarID string) (*Response, error) {
	return c.httpClient.GET(ctx, participationsPath(webinarID))
}

func (c *ParticipationClient) WaitForHealthy(maxWait time.Duration) error {
	return c.httpClient.WaitForHealthy(maxWait)
}

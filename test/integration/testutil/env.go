package testutil

import (
	"os"
	"testing"
	"time"

	"webinars/pkg/client"
)

const DefaultHealthCheckTimeout = 30 * time.Second

// TestEnv describes a running participations service under test.
type TestEnv struct {
	ServerURL string
}

// NewTestEnv reads TEST_SERVER_URL and skips the test when it is unset.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	serverURL := getEnv("TEST_SERVER_URL", "")
	if serverURL == "" {
		t.Skip("TEST_SERVER_URL not set, skipping integration tests")
	}
	return &TestEnv{ServerURL: serverURL}
}

// Setup connects to the service's database and waits for the service to report healthy.
func (e *TestEnv) Setup(t *testing.T) (*MongoHelper, *client.ParticipationClient) {
	t.Helper()

	mongo := NewMongoHelper(t)

	c := client.NewParticipationClient(e.ServerURL)
	if err := c.WaitForHealthy(DefaultHealthCheckTimeout); err != nil {
		t.Fatalf("service not healthy: %v", err)
	}
	return mongo, c
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package config

import (
	"strings"
	"time"
)

const (
	SchedulerTicker = "ticker"
	SchedulerCron   = "cron"
)

// ClientConfig holds the credentials of one identity server client.
type ClientConfig struct {
	ID        string
	Secret    string
	Scopes    []string
	GrantType string
}

type Identity struct{}

var _ IdentityConfig = Identity{}

// GetIDSURI is the identity server base URI, below which the /connect
// endpoints live.
func (Identity) GetIDSURI() string {
	return strings.TrimRight(GetEnv("IDENTITY_IDS_URI", ""), "/")
}

func (Identity) GetAPIURI() string {
	return strings.TrimRight(GetEnv("IDENTITY_API_URI", ""), "/")
}

func (Identity) GetAPIVersion() string {
	return GetEnv("IDENTITY_API_VERSION", "2.0")
}

// GetIssuer enables OpenID discovery of the endpoints when set.
func (Identity) GetIssuer() string {
	return GetEnv("IDENTITY_ISSUER", "")
}

func (Identity) GetIPHeader() string {
	return GetEnv("IDENTITY_IP_HEADER", "X-Forwarded-For")
}

func (Identity) GetUserAgentHeader() string {
	return GetEnv("IDENTITY_USER_AGENT_HEADER", "User-Agent")
}

func (Identity) GetAPIClient() ClientConfig {
	return ClientConfig{
		ID:        GetEnv("IDENTITY_API_CLIENT_ID", ""),
		Secret:    GetEnv("IDENTITY_API_CLIENT_SECRET", ""),
		Scopes:    strings.Fields(GetEnv("IDENTITY_API_CLIENT_SCOPE", "")),
		GrantType: GetEnv("IDENTITY_API_CLIENT_GRANT_TYPE", "client_credentials"),
	}
}

func (Identity) GetIntrospectionClient() ClientConfig {
	return ClientConfig{
		ID:     GetEnv("IDENTITY_INTROSPECTION_CLIENT_ID", ""),
		Secret: GetEnv("IDENTITY_INTROSPECTION_CLIENT_SECRET", ""),
	}
}

func (Identity) GetConnectTimeout() time.Duration {
	return GetDuration("IDENTITY_CONNECT_TIMEOUT", 10*time.Second)
}

func (Identity) GetReadTimeout() time.Duration {
	return GetDuration("IDENTITY_READ_TIMEOUT", 120*time.Second)
}

// GetServiceIP is reported as the caller IP on the service's own token
// requests.
func (Identity) GetServiceIP() string {
	return GetEnv("IDENTITY_SERVICE_IP", "127.0.0.1")
}

func (Identity) GetTokenCheckInterval() time.Duration {
	return GetDuration("IDENTITY_TOKEN_CHECK_INTERVAL", time.Second)
}

// GetScheduler selects the refresh scheduler, SchedulerTicker or SchedulerCron.
func (Identity) GetScheduler() string {
	if strings.EqualFold(GetEnv("IDENTITY_SCHEDULER", SchedulerTicker), SchedulerCron) {
		return SchedulerCron
	}
	return SchedulerTicker
}

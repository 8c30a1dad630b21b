package platform

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ProfileClient resolves sender display names against the platform APIs.
// Lookups are best effort: any failure degrades to a "User {id}"
// placeholder instead of failing task creation.
type ProfileClient struct {
	client *resty.Client
	log    *zap.Logger

	// API base URLs, overridable in tests
	LineBase  string
	SlackBase string
	LarkBase  string
}

// NewProfileClient builds a client with a timeout short enough to stay
// inside the webhook response window.
func NewProfileClient(timeout time.Duration, log *zap.Logger) *ProfileClient {
	return &ProfileClient{
		client:    resty.New().SetTimeout(timeout),
		log:       log,
		LineBase:  "https://api.line.me",
		SlackBase: "https://slack.com/api",
		LarkBase:  "https://open.larksuite.com",
	}
}

// PlaceholderName is the degraded display name used when lookup fails
func PlaceholderName(senderID string) string {
	return fmt.Sprintf("User %s", senderID)
}

// LineSenderName fetches the group member profile of the sender
func (p *ProfileClient) LineSenderName(groupID, userID, channelToken string) string {
	if groupID == "" || userID == "" || channelToken == "" {
		return PlaceholderName(userID)
	}

	var result struct {
		DisplayName string `json:"displayName"`
	}
	resp, err := p.client.R().
		SetAuthToken(channelToken).
		SetResult(&result).
		Get(fmt.Sprintf("%s/v2/bot/group/%s/member/%s", p.LineBase, groupID, userID))
	if err != nil || resp.IsError() || result.DisplayName == "" {
		p.log.Warn("LINE profile lookup failed", zap.String("user_id", userID), zap.Error(err))
		return PlaceholderName(userID)
	}
	return result.DisplayName
}

// SlackSenderName fetches the user via users.info
func (p *ProfileClient) SlackSenderName(userID, botToken string) string {
	if userID == "" || botToken == "" {
		return PlaceholderName(userID)
	}

	var result struct {
		OK   bool `json:"ok"`
		User struct {
			Name     string `json:"name"`
			RealName string `json:"real_name"`
		} `json:"user"`
	}
	resp, err := p.client.R().
		SetAuthToken(botToken).
		SetQueryParam("user", userID).
		SetResult(&result).
		Get(p.SlackBase + "/users.info")
	if err != nil || resp.IsError() || !result.OK {
		p.log.Warn("Slack profile lookup failed", zap.String("user_id", userID), zap.Error(err))
		return PlaceholderName(userID)
	}
	if result.User.RealName != "" {
		return result.User.RealName
	}
	if result.User.Name != "" {
		return result.User.Name
	}
	return PlaceholderName(userID)
}

// LarkSenderName fetches the user through the contact API, obtaining a
// tenant access token first.
func (p *ProfileClient) LarkSenderName(openID, appID, appSecret string) string {
	if openID == "" || appID == "" || appSecret == "" {
		return PlaceholderName(openID)
	}

	var tokenResult struct {
		Code              int    `json:"code"`
		TenantAccessToken string `json:"tenant_access_token"`
	}
	resp, err := p.client.R().
		SetBody(map[string]string{"app_id": appID, "app_secret": appSecret}).
		SetResult(&tokenResult).
		Post(p.LarkBase + "/open-apis/auth/v3/tenant_access_token/internal")
	if err != nil || resp.IsError() || tokenResult.Code != 0 || tokenResult.TenantAccessToken == "" {
		p.log.Warn("Lark token fetch failed", zap.Error(err))
		return PlaceholderName(openID)
	}

	var userResult struct {
		Code int `json:"code"`
		Data struct {
			User struct {
				Name string `json:"name"`
			} `json:"user"`
		} `json:"data"`
	}
	resp, err = p.client.R().
		SetAuthToken(tokenResult.TenantAccessToken).
		SetQueryParam("user_id_type", "open_id").
		SetResult(&userResult).
		Get(fmt.Sprintf("%s/open-apis/contact/v3/users/%s", p.LarkBase, openID))
	if err != nil || resp.IsError() || userResult.Code != 0 || userResult.Data.User.Name == "" {
		p.log.Warn("Lark profile lookup failed", zap.String("open_id", openID), zap.Error(err))
		return PlaceholderName(openID)
	}
	return userResult.Data.User.Name
}

// Package line wraps the LINE Messaging API: webhook parsing, reply and push
// delivery, profile lookup, and the Flex message templates the bot sends.
package line

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/line/line-bot-sdk-go/v7/linebot"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Profile is the subset of a LINE user profile the bot uses.
type Profile struct {
	UserID      string
	DisplayName string
	PictureURL  string
}

// Messenger delivers messages to LINE users. Reply consumes a one-time
// reply token and is free; Push is metered.
type Messenger interface {
	Reply(ctx context.Context, replyToken string, msgs ...linebot.SendingMessage) error
	Push(ctx context.Context, userID string, msgs ...linebot.SendingMessage) error
	Profile(ctx context.Context, userID string) (Profile, error)
}

// ErrNoMessages is returned when Reply or Push is called without messages.
var ErrNoMessages = errors.New("line: no messages")

// Client is the Messenger backed by the LINE SDK.
type Client struct {
	bot    *linebot.Client
	secret string

	profiles *expirable.LRU[string, Profile]
	group    singleflight.Group
}

// ClientOption customizes a Client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	endpoint   string
	httpClient *http.Client
	cacheSize  int
	cacheTTL   time.Duration
}

// WithEndpoint points the client at another API base (tests, proxies).
func WithEndpoint(url string) ClientOption {
	return func(o *clientOptions) { o.endpoint = url }
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithProfileCache sizes the display-name cache.
func WithProfileCache(size int, ttl time.Duration) ClientOption {
	return func(o *clientOptions) { o.cacheSize, o.cacheTTL = size, ttl }
}

// NewClient builds a Client for the given channel credentials.
func NewClient(channelSecret, accessToken string, opts ...ClientOption) (*Client, error) {
	o := clientOptions{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cacheSize:  1000,
		cacheTTL:   30 * time.Minute,
	}
	for _, fn := range opts {
		fn(&o)
	}
	sdkOpts := []linebot.ClientOption{linebot.WithHTTPClient(o.httpClient)}
	if o.endpoint != "" {
		sdkOpts = append(sdkOpts, linebot.WithEndpointBase(o.endpoint))
	}
	bot, err := linebot.New(channelSecret, accessToken, sdkOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{
		bot:      bot,
		secret:   channelSecret,
		profiles: expirable.NewLRU[string, Profile](o.cacheSize, nil, o.cacheTTL),
	}, nil
}

// ParseRequest verifies the X-Line-Signature header and decodes the events.
// linebot.ErrInvalidSignature is returned for a bad signature.
func (c *Client) ParseRequest(r *http.Request) ([]*linebot.Event, error) {
	return c.bot.ParseRequest(r)
}

func (c *Client) Reply(ctx context.Context, replyToken string, msgs ...linebot.SendingMessage) error {
	if len(msgs) == 0 {
		return ErrNoMessages
	}
	_, err := c.bot.ReplyMessage(replyToken, msgs...).WithContext(ctx).Do()
	return err
}

func (c *Client) Push(ctx context.Context, userID string, msgs ...linebot.SendingMessage) error {
	if len(msgs) == 0 {
		return ErrNoMessages
	}
	_, err := c.bot.PushMessage(userID, msgs...).WithContext(ctx).Do()
	return err
}

// Profile returns the user's LINE profile. Lookups are cached and
// concurrent misses for the same user share one API call.
func (c *Client) Profile(ctx context.Context, userID string) (Profile, error) {
	if p, ok := c.profiles.Get(userID); ok {
		return p, nil
	}
	v, err, _ := c.group.Do(userID, func() (any, error) {
		res, err := c.bot.GetProfile(userID).WithContext(ctx).Do()
		if err != nil {
			return Profile{}, err
		}
		p := Profile{UserID: res.UserID, DisplayName: res.DisplayName, PictureURL: res.PictureURL}
		c.profiles.Add(userID, p)
		return p, nil
	})
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("line profile lookup failed")
		return Profile{}, err
	}
	return v.(Profile), nil
}

// DisplayName resolves a display name, returning fallback when the lookup
// fails or m is nil.
func DisplayName(ctx context.Context, m Messenger, userID, fallback string) string {
	if m == nil {
		return fallback
	}
	p, err := m.Profile(ctx, userID)
	if err != nil || p.DisplayName == "" {
		return fallback
	}
	return p.DisplayName
}

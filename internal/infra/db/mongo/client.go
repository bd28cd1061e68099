package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultConnectTimeout = 10 * time.Second

type Client struct {
	DB *mongo.Database
}

// New connects to the audit database. A non-positive connectTimeout falls
// back to 10s.
func New(uri, database string, connectTimeout time.Duration) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeoutOrDefault(connectTimeout))
	defer cancel()
	opts := options.Client().
		ApplyURI(uri).
		SetRetryWrites(true).
		SetAppName("amoita")
	m, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Client{DB: m.Database(database)}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.Client().Ping(ctx, nil)
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultConnectTimeout
	}
	return d
}

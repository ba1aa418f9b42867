// Package store is the optional persistence sink: it lets device records
// and log entries be queried outside the provider process. Grounded on the
// teacher's util/db.go (Mongo client lifecycle with reconnect-on-ping-
// failure) and logger/logger.go's MongoDBHook (a logrus.Hook that inserts
// each log entry as a document). Pure plumbing around the device-control
// core — nothing in devicecontrol/realdevice/simulator depends on it.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Client owns one Mongo connection, reconnecting in the background if the
// server becomes unreachable, matching the teacher's checkDBConnection loop.
type Client struct {
	uri    string
	mongo  *mongo.Client
	ctx    context.Context
	cancel context.CancelFunc
}

// Connect dials uri and starts the background health check. It returns an
// error rather than panicking (unlike the teacher's NewMongoClient) since
// the persistence sink is optional — a provider should still run without it
// if Mongo is unreachable at startup.
func Connect(uri string) (*Client, error) {
	ctx, cancel := context.WithCancel(context.Background())

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("store: connect to %s: %w", uri, err)
	}

	c := &Client{uri: uri, mongo: mongoClient, ctx: ctx, cancel: cancel}
	go c.watchConnection()
	return c, nil
}

// watchConnection pings the server every second, reconnecting on failure.
func (c *Client) watchConnection() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-time.After(time.Second):
		}
		if err := c.mongo.Ping(c.ctx, nil); err != nil {
			logrus.WithFields(logrus.Fields{"event": "store_reconnect"}).
				Warn("lost connection to Mongo, reconnecting: " + err.Error())
			reconnected, connErr := mongo.Connect(c.ctx, options.Client().ApplyURI(c.uri))
			if connErr != nil {
				continue
			}
			c.mongo = reconnected
		}
	}
}

// InsertDocument inserts doc into database.collection.
func (c *Client) InsertDocument(database, collection string, doc interface{}) error {
	_, err := c.mongo.Database(database).Collection(collection).InsertOne(c.ctx, doc)
	if err != nil {
		return fmt.Errorf("store: insert into %s.%s: %w", database, collection, err)
	}
	return nil
}

// Close stops the background health check and disconnects.
func (c *Client) Close() error {
	c.cancel()
	return c.mongo.Disconnect(context.Background())
}

// logEntry is the document shape persisted for each hooked log line,
// matching the teacher's logger.logEntry.
type logEntry struct {
	Level     string
	Message   string
	Timestamp int64
	Host      string
	EventName string
}

// LogHook is a logrus.Hook that persists every fired entry as a document,
// grounded on the teacher's logger.MongoDBHook.
type LogHook struct {
	Client     *Client
	Database   string
	Collection string
	Host       string
}

func (h *LogHook) Fire(entry *logrus.Entry) error {
	event, _ := entry.Data["event"].(string)
	doc := logEntry{
		Level:     entry.Level.String(),
		Message:   entry.Message,
		Timestamp: entry.Time.UnixMilli(),
		Host:      h.Host,
		EventName: event,
	}
	return h.Client.InsertDocument(h.Database, h.Collection, doc)
}

func (h *LogHook) Levels() []logrus.Level { return logrus.AllLevels }

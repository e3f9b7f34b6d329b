package nats

import (
	"log/slog"
	"os"

	natsgo "github.com/nats-io/nats.go"
)

type closeFunc = func()

// Connector opens a NATS connection and returns the func that closes it.
type Connector func() (nc *natsgo.Conn, close closeFunc, err error)

// ConnectURL dials natsURL. Extra options are applied after the defaults, so
// they win. Connection events are logged through slog.Default().
//
// The close func drains the connection: pending publishes are flushed and
// subscriptions finish their in-flight messages before it closes.
func ConnectURL(natsURL string, opts ...natsgo.Option) Connector {
	return func() (*natsgo.Conn, closeFunc, error) {
		log := slog.Default().With(slog.String("nats", natsURL))
		defaults := []natsgo.Option{
			natsgo.Name("mission"),
			natsgo.MaxReconnects(3),
			natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
				if err != nil {
					log.Warn("nats disconnected", slog.Any("error", err))
				}
			}),
			natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
				log.Info("nats reconnected", slog.String("server", nc.ConnectedUrl()))
			}),
		}

		nc, err := natsgo.Connect(natsURL, append(defaults, opts...)...)
		if err != nil {
			return nil, nil, err
		}
		return nc, func() {
			if err := nc.Drain(); err != nil {
				nc.Close()
			}
		}, nil
	}
}

// ConnectDefault dials $NATS_URL, falling back to the local default server.
func ConnectDefault() Connector {
	natsURL, ok := os.LookupEnv("NATS_URL")
	if !ok || natsURL == "" {
		natsURL = natsgo.DefaultURL
	}
	return ConnectURL(natsURL)
}

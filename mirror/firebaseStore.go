package mirror

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"
)

// FirebaseStore writes snapshots to a Firebase Realtime Database.
type FirebaseStore struct {
	client *db.Client
}

func NewFirebaseStore(ctx context.Context, databaseURL, credentialsFile string) (*FirebaseStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: databaseURL}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase database: %w", err)
	}
	return &FirebaseStore{client: client}, nil
}

func (s *FirebaseStore) Set(ctx context.Context, key string, snapshot any) error {
	return s.client.NewRef(key).Set(ctx, snapshot)
}

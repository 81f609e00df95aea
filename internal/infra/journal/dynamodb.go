package journal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"timesgate/internal/domain"
)

// PutItemAPI is the part of the DynamoDB client the journal needs.
type PutItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Store writes one item per executed action. Items expire through the
// table's TTL attribute, expires_at.
type Store struct {
	client    PutItemAPI
	tableName string
	logger    *slog.Logger
}

func NewStore(client PutItemAPI, tableName string, logger *slog.Logger) (*Store, error) {
	if tableName == "" {
		return nil, fmt.Errorf("journal table name is not set")
	}
	return &Store{client: client, tableName: tableName, logger: logger}, nil
}

// NewDynamoDBStore loads the default AWS config chain and builds a Store.
// An empty region keeps whatever the chain resolves.
func NewDynamoDBStore(ctx context.Context, tableName, region string, logger *slog.Logger) (*Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	logger.Info("journal enabled", "table", tableName, "region", cfg.Region)
	return NewStore(dynamodb.NewFromConfig(cfg), tableName, logger)
}

func (s *Store) Record(ctx context.Context, entry domain.JournalEntry) error {
	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return fmt.Errorf("marshaling journal entry: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("storing journal entry in dynamodb: %w", err)
	}

	s.logger.Debug("journal entry stored", "request_id", entry.RequestID, "action", entry.Action)
	return nil
}

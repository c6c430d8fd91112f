package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ymmc1111/ticketscout/internal/models"
)

// DynamoStore holds monitor jobs. The scan only reads the active set and
// writes back through ClaimJob and CommitUpdates; job creation and deletion
// belong to the sync component.
type DynamoStore struct {
	db        *dynamodb.Client
	tableName string
}

// Options for the store; Endpoint overrides the AWS endpoint for local
// development.
type Options struct {
	Region   string
	Table    string
	Endpoint string
}

func NewDynamoStore(ctx context.Context, opts Options) (*DynamoStore, error) {
	if opts.Table == "" {
		return nil, fmt.Errorf("dynamo table name is required")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, err
	}

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})

	return &DynamoStore{db: client, tableName: opts.Table}, nil
}

// ListActiveJobs returns every job with status ACTIVE, following Scan
// pagination so a large job set is not silently truncated.
func (s *DynamoStore) ListActiveJobs(ctx context.Context) ([]models.Job, error) {
	var jobs []models.Job
	var startKey map[string]types.AttributeValue

	for {
		out, err := s.db.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.tableName),
			ExclusiveStartKey: startKey,
			FilterExpression:  aws.String("#st = :active"),
			ExpressionAttributeNames: map[string]string{
				"#st": "status",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":active": &types.AttributeValueMemberS{Value: string(models.JobActive)},
			},
		})
		if err != nil {
			return nil, err
		}

		var page []models.Job
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		jobs = append(jobs, page...)

		if out.LastEvaluatedKey == nil {
			return jobs, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// ListJobs returns up to limit jobs regardless of status, for the UI feed.
func (s *DynamoStore) ListJobs(ctx context.Context, limit int32) ([]models.Job, error) {
	out, err := s.db.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.tableName),
		Limit:     aws.Int32(limit),
	})
	if err != nil {
		return nil, err
	}

	var jobs []models.Job
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// ClaimJob flips one job ACTIVE -> COMPLETE and stamps notification_sent_at,
// conditioned on the job still being ACTIVE. Two overlapping scans can both
// observe the same newly-available transition; only the one that wins this
// conditional update dispatches the notification.
func (s *DynamoStore) ClaimJob(ctx context.Context, jobID string, sentAtMs int64) (bool, error) {
	_, err := s.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"job_id": &types.AttributeValueMemberS{Value: jobID},
		},

		ConditionExpression: aws.String("#st = :active"),
		UpdateExpression:    aws.String("SET #st = :complete, notification_sent_at = :ns, updated_at = :u"),

		ExpressionAttributeNames: map[string]string{
			"#st": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":active":   &types.AttributeValueMemberS{Value: string(models.JobActive)},
			":complete": &types.AttributeValueMemberS{Value: string(models.JobComplete)},
			":ns":       &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", sentAtMs)},
			":u":        &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", sentAtMs)},
		},
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// CommitUpdates applies all staged availability updates in one
// TransactWriteItems call: either every job's snapshot is persisted or none
// is. No-op on an empty list. The transaction is subject to the service's
// 100-item limit; a scan staging more than that fails the commit, which
// surfaces as a scan-level failure.
func (s *DynamoStore) CommitUpdates(ctx context.Context, updates []models.JobUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	nowMs := time.Now().UnixMilli()
	items := make([]types.TransactWriteItem, 0, len(updates))
	for _, u := range updates {
		items = append(items, types.TransactWriteItem{
			Update: &types.Update{
				TableName: aws.String(s.tableName),
				Key: map[string]types.AttributeValue{
					"job_id": &types.AttributeValueMemberS{Value: u.JobID},
				},
				UpdateExpression: aws.String("SET current_availability = :ca, updated_at = :u"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":ca": &types.AttributeValueMemberS{Value: u.CurrentAvailability},
					":u":  &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", nowMs)},
				},
			},
		})
	}

	_, err := s.db.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	return err
}

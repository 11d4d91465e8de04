package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/diegoclair/slack-auto-away/internal/domain"
	"github.com/sirupsen/logrus"
)

type indexRepo struct {
	logger    *logrus.Entry
	dynamodb  DynamoDbAPI
	tableName string
}

func newIndexRepo(logger *logrus.Entry, client DynamoDbAPI, tableName string) *indexRepo {
	return &indexRepo{
		logger:    logger,
		dynamodb:  client,
		tableName: tableName,
	}
}

func indexKey(index domain.IndexName, userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: indexPrefix + string(index)},
		attrSK: &types.AttributeValueMemberS{Value: userID},
	}
}

// ListIDs follows LastEvaluatedKey until the whole index has been read.
func (r *indexRepo) ListIDs(ctx context.Context, index domain.IndexName) ([]string, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("#pk = :pk"),
		ExpressionAttributeNames: map[string]string{
			"#pk": attrPK,
			"#sk": attrSK,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: indexPrefix + string(index)},
		},
		ProjectionExpression: aws.String("#sk"),
		ConsistentRead:       aws.Bool(true),
	}

	var (
		ids   []string
		pages int
	)
	for {
		output, err := r.dynamodb.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query index %s: %w", index, err)
		}
		pages++

		for _, item := range output.Items {
			if sk, ok := item[attrSK].(*types.AttributeValueMemberS); ok {
				ids = append(ids, sk.Value)
			}
		}

		if len(output.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = output.LastEvaluatedKey
	}

	r.logger.WithFields(logrus.Fields{"index": index, "count": len(ids), "pages": pages}).Debug("listed index")
	return ids, nil
}

func (r *indexRepo) Add(ctx context.Context, index domain.IndexName, userID string) error {
	_, err := r.dynamodb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      indexKey(index, userID),
	})
	if err != nil {
		return fmt.Errorf("failed to add to index %s: %w", index, err)
	}
	return nil
}

func (r *indexRepo) Remove(ctx context.Context, index domain.IndexName, userID string) error {
	_, err := r.dynamodb.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       indexKey(index, userID),
	})
	if err != nil {
		return fmt.Errorf("failed to remove from index %s: %w", index, err)
	}
	return nil
}

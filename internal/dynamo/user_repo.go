package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/diegoclair/slack-auto-away/internal/domain/entity"
	"github.com/sirupsen/logrus"
)

type userRepo struct {
	logger    *logrus.Entry
	dynamodb  DynamoDbAPI
	tableName string
	now       func() time.Time
}

func newUserRepo(logger *logrus.Entry, client DynamoDbAPI, tableName string) *userRepo {
	return &userRepo{
		logger:    logger,
		dynamodb:  client,
		tableName: tableName,
		now:       time.Now,
	}
}

func userKey(userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: userPrefix + userID},
		attrSK: &types.AttributeValueMemberS{Value: profileSK},
	}
}

func (r *userRepo) Get(ctx context.Context, userID string) (*entity.UserRecord, error) {
	result, err := r.dynamodb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            userKey(userID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if result.Item == nil {
		return nil, nil
	}

	var record entity.UserRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	if record.UserID == "" {
		record.UserID = userID
	}

	return &record, nil
}

// Set is a read-merge-put. Concurrent writers for the same user resolve as last write wins.
func (r *userRepo) Set(ctx context.Context, userID string, patch entity.UserPatch) error {
	existing, err := r.Get(ctx, userID)
	if err != nil {
		return err
	}

	merged := entity.Merge(existing, userID, patch, r.now().UTC())

	item, err := attributevalue.MarshalMap(merged)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	for k, v := range userKey(userID) {
		item[k] = v
	}

	_, err = r.dynamodb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to store user: %w", err)
	}

	r.logger.WithField("userId", userID).Debug("stored user record")
	return nil
}

func (r *userRepo) Delete(ctx context.Context, userID string) error {
	_, err := r.dynamodb.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       userKey(userID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

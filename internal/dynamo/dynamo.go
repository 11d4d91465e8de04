// Package dynamo stores user records and index entries in a single DynamoDB table.
//
// Items are keyed by a string partition key "pk" and sort key "sk":
//
//	USER#<userId>   PROFILE     the user record
//	INDEX#<name>    <userId>    one index membership
package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/diegoclair/slack-auto-away/internal/domain/contract"
	"github.com/sirupsen/logrus"
)

const (
	attrPK = "pk"
	attrSK = "sk"

	userPrefix  = "USER#"
	indexPrefix = "INDEX#"
	profileSK   = "PROFILE"
)

// DynamoDbAPI defines the DynamoDB operations needed by the store
type DynamoDbAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

type instance struct {
	userRepo  contract.UserRepo
	indexRepo contract.IndexRepo
}

func NewInstance(logger *logrus.Entry, client DynamoDbAPI, tableName string) contract.DataManager {
	logger = logger.WithField("store", "dynamodb")
	return &instance{
		userRepo:  newUserRepo(logger, client, tableName),
		indexRepo: newIndexRepo(logger, client, tableName),
	}
}

func (i *instance) User() contract.UserRepo {
	return i.userRepo
}

func (i *instance) Index() contract.IndexRepo {
	return i.indexRepo
}

// WithTransaction runs fn directly: every write is a single-item put or delete,
// and the indices are recomputed from the record after each change.
func (i *instance) WithTransaction(ctx context.Context, fn func(dm contract.DataManager) error) error {
	return fn(i)
}

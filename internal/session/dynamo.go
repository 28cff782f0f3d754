package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// dynamodbAPI is the minimal DynamoDB interface required by Dynamo.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Dynamo stores session keys in a DynamoDB table with TTL enabled on the
// "ttl" attribute. DynamoDB deletes expired items lazily, so Get also checks
// the expiry itself: an expired key must be indistinguishable from an unset
// one.
type Dynamo struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

// NewDynamo creates a Dynamo store over the given table.
func NewDynamo(api dynamodbAPI, tableName string) (*Dynamo, error) {
	if api == nil {
		return nil, errors.New("session: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("session: table name must not be empty")
	}
	return &Dynamo{api: api, tableName: tableName, now: time.Now}, nil
}

func (d *Dynamo) Get(ctx context.Context, key string) (string, error) {
	out, err := d.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: key},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("session: get %q: %w", key, err)
	}
	if out == nil || len(out.Item) == 0 {
		return "", ErrNotFound
	}

	if ttl, ok := out.Item["ttl"]; ok {
		n, ok := ttl.(*types.AttributeValueMemberN)
		if !ok {
			return "", fmt.Errorf("session: get %q: ttl attribute is not a number", key)
		}
		expiry, err := strconv.ParseInt(n.Value, 10, 64)
		if err != nil {
			return "", fmt.Errorf("session: get %q: parse ttl: %w", key, err)
		}
		if d.now().Unix() >= expiry {
			return "", ErrNotFound
		}
	}

	v, ok := out.Item["value"]
	if !ok {
		return "", fmt.Errorf("session: get %q: missing value attribute", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("session: get %q: value attribute is not a string", key)
	}
	return s.Value, nil
}

func (d *Dynamo) Set(ctx context.Context, key, value string, ephemeral bool) error {
	item := map[string]types.AttributeValue{
		"PK":    &types.AttributeValueMemberS{Value: key},
		"value": &types.AttributeValueMemberS{Value: value},
	}
	if ephemeral {
		expiry := d.now().Add(EphemeralTTL).Unix()
		item["ttl"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(expiry, 10)}
	}

	_, err := d.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("session: set %q: %w", key, err)
	}
	return nil
}

func (d *Dynamo) Delete(ctx context.Context, key string) error {
	_, err := d.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return fmt.Errorf("session: delete %q: %w", key, err)
	}
	return nil
}

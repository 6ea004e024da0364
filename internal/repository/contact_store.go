package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"loops-assistant/internal/domain"
)

const (
	pkPrefixContact = "CONTACT#"
	skPrefixCapture = "CAPTURED#"
	ttlDuration     = 180 * 24 * time.Hour // 180-day retention
)

// dynamodbAPI is the minimal DynamoDB interface required by ContactStore.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// ContactStore persists captured contacts to a DynamoDB table.
type ContactStore struct {
	api       dynamodbAPI
	tableName string
}

func NewContactStore(api dynamodbAPI, tableName string) (*ContactStore, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &ContactStore{api: api, tableName: tableName}, nil
}

// RecordContact writes one item per capture; repeated captures from the same
// visitor are kept as separate items.
func (s *ContactStore) RecordContact(ctx context.Context, rec domain.ContactRecord) error {
	if rec.Name == "" || rec.Email == "" {
		return errors.New("repository: RecordContact: name and email are required")
	}
	at := rec.CapturedAt
	if at.IsZero() {
		at = time.Now()
	}

	_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                contactItem(newContactID(), rec, at.UTC()),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: RecordContact: %w", err)
	}
	return nil
}

func contactPK(id string) string {
	return pkPrefixContact + id
}

func captureSK(ts time.Time) string {
	return skPrefixCapture + ts.UTC().Format(time.RFC3339Nano)
}

func contactItem(id string, rec domain.ContactRecord, at time.Time) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":         &types.AttributeValueMemberS{Value: contactPK(id)},
		"SK":         &types.AttributeValueMemberS{Value: captureSK(at)},
		"name":       &types.AttributeValueMemberS{Value: rec.Name},
		"email":      &types.AttributeValueMemberS{Value: rec.Email},
		"message":    &types.AttributeValueMemberS{Value: rec.Message},
		"source":     &types.AttributeValueMemberS{Value: rec.Source},
		"capturedAt": &types.AttributeValueMemberS{Value: at.Format(time.RFC3339)},
		"ttl":        &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", at.Add(ttlDuration).Unix())},
	}
}

var newContactID = func() string {
	return uuid.NewString()
}

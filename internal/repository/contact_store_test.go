package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"loops-assistant/internal/domain"
)

type fakeDynamo struct {
	putErr       error
	lastPutInput *dynamodb.PutItemInput
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPutInput = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func mustNewStore(t *testing.T, db *fakeDynamo) *ContactStore {
	t.Helper()
	s, err := NewContactStore(db, "contacts")
	require.NoError(t, err)
	return s
}

func fixedContactID(t *testing.T, id string) {
	t.Helper()
	prev := newContactID
	newContactID = func() string { return id }
	t.Cleanup(func() { newContactID = prev })
}

func strValue(t *testing.T, item map[string]types.AttributeValue, key string) string {
	t.Helper()
	v, ok := item[key].(*types.AttributeValueMemberS)
	require.True(t, ok, "attribute %q is not a string", key)
	return v.Value
}

func TestRecordContact_HappyPath(t *testing.T) {
	fixedContactID(t, "id-1")
	db := &fakeDynamo{}
	s := mustNewStore(t, db)
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	err := s.RecordContact(context.Background(), domain.ContactRecord{
		Name: "A", Email: "a@b.com", Message: "hi", Source: "chatbot", CapturedAt: at,
	})
	require.NoError(t, err)

	in := db.lastPutInput
	require.Equal(t, "contacts", *in.TableName)
	require.Equal(t, "attribute_not_exists(PK) AND attribute_not_exists(SK)", *in.ConditionExpression)
	require.Equal(t, "CONTACT#id-1", strValue(t, in.Item, "PK"))
	require.Equal(t, "CAPTURED#2026-03-01T10:00:00Z", strValue(t, in.Item, "SK"))
	require.Equal(t, "A", strValue(t, in.Item, "name"))
	require.Equal(t, "a@b.com", strValue(t, in.Item, "email"))
	require.Equal(t, "hi", strValue(t, in.Item, "message"))
	require.Equal(t, "chatbot", strValue(t, in.Item, "source"))
	require.Equal(t, "2026-03-01T10:00:00Z", strValue(t, in.Item, "capturedAt"))

	ttl, ok := in.Item["ttl"].(*types.AttributeValueMemberN)
	require.True(t, ok)
	require.Equal(t, fmt.Sprintf("%d", at.Add(ttlDuration).Unix()), ttl.Value)
}

func TestRecordContact_DefaultsTimestamp(t *testing.T) {
	db := &fakeDynamo{}
	s := mustNewStore(t, db)

	require.NoError(t, s.RecordContact(context.Background(), domain.ContactRecord{Name: "A", Email: "a@b.com"}))
	require.Contains(t, strValue(t, db.lastPutInput.Item, "SK"), skPrefixCapture)
	require.NotEmpty(t, strValue(t, db.lastPutInput.Item, "capturedAt"))
}

func TestRecordContact_MissingFields(t *testing.T) {
	db := &fakeDynamo{}
	s := mustNewStore(t, db)
	err := s.RecordContact(context.Background(), domain.ContactRecord{Name: "A"})
	require.ErrorContains(t, err, "required")
	require.Nil(t, db.lastPutInput)
}

func TestRecordContact_DynamoError(t *testing.T) {
	db := &fakeDynamo{putErr: errors.New("ProvisionedThroughputExceededException")}
	s := mustNewStore(t, db)
	err := s.RecordContact(context.Background(), domain.ContactRecord{Name: "A", Email: "a@b.com"})
	require.ErrorContains(t, err, "RecordContact")
	require.ErrorContains(t, err, "ProvisionedThroughputExceededException")
}

func TestContactKeys(t *testing.T) {
	require.Equal(t, "CONTACT#abc", contactPK("abc"))
	ts := time.Date(2026, 2, 25, 10, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	require.Equal(t, "CAPTURED#2026-02-25T04:30:00Z", captureSK(ts))
}

func TestNewContactStore_Validation(t *testing.T) {
	_, err := NewContactStore(nil, "contacts")
	require.ErrorContains(t, err, "must not be nil")

	_, err = NewContactStore(&fakeDynamo{}, " ")
	require.ErrorContains(t, err, "must not be empty")
}

func TestLogStore_WritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogStore(slog.New(slog.NewJSONHandler(&buf, nil)))
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	err := s.RecordContact(context.Background(), domain.ContactRecord{Name: "A", Email: "a@b.com", Message: "hi", Source: "chatbot", CapturedAt: at})
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "contact capture", line["msg"])
	require.Equal(t, "A", line["name"])
	require.Equal(t, "a@b.com", line["email"])
	require.Equal(t, "hi", line["message"])
	require.Equal(t, "chatbot", line["source"])
	require.Equal(t, "2026-03-01T10:00:00Z", line["at"])
}

package dynamo

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumeResetInput_ConditionAndRemoval(t *testing.T) {
	r := NewUserRepo(nil, "users")
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	in, err := r.consumeResetInput("a@x.com", "tok-1", "$2a$hash", now)
	require.NoError(t, err)

	assert.Equal(t, "users", aws.ToString(in.TableName))
	assert.Equal(t, strKey(fieldEmail, "a@x.com"), in.Key)
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1 REMOVE #r0, #r1", aws.ToString(in.UpdateExpression))
	assert.Equal(t, "#ct = :ct AND #cx > :now", aws.ToString(in.ConditionExpression))
	assert.Equal(t, types.ReturnValueAllNew, in.ReturnValues)

	assert.Equal(t, map[string]string{
		"#f0": fieldPasswordHash,
		"#f1": fieldUpdatedAt,
		"#r0": fieldResetToken,
		"#r1": fieldResetTokenExpiry,
		"#ct": fieldResetToken,
		"#cx": fieldResetTokenExpiry,
	}, in.ExpressionAttributeNames)

	require.Len(t, in.ExpressionAttributeValues, 4)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "$2a$hash"}, in.ExpressionAttributeValues[":v0"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "2026-01-02T03:04:05Z"}, in.ExpressionAttributeValues[":v1"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "tok-1"}, in.ExpressionAttributeValues[":ct"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "1767323045"}, in.ExpressionAttributeValues[":now"])
}

func TestConsumeResetInput_ExpiryComparedAsUnixSeconds(t *testing.T) {
	r := NewUserRepo(nil, "users")
	now := time.Unix(1700000000, 999).In(time.FixedZone("GMT", 0))

	in, err := r.consumeResetInput("a@x.com", "tok-1", "h", now)
	require.NoError(t, err)
	assert.Equal(t, &types.AttributeValueMemberN{Value: "1700000000"}, in.ExpressionAttributeValues[":now"])
}

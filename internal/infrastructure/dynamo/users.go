package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/agribiz-identity/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	fieldEmail             = "email"
	fieldUserID            = "user_id"
	fieldRole              = "role"
	fieldPasswordHash      = "password_hash"
	fieldVerificationState = "verification_state"
	fieldResetToken        = "reset_token"
	fieldResetTokenExpiry  = "reset_token_expiry"
	fieldProfileImageURL   = "profile_image_url"
	fieldUpdatedAt         = "updated_at"

	indexUserID     = "user_id-index"
	indexResetToken = "reset_token-index"
	indexRole       = "role-index"
)

// UserRepo provides typed DynamoDB operations for the users table.
// Every account transition is a single conditional write; callers never
// read-modify-write a shared record.
type UserRepo struct {
	client    *dynamodb.Client
	tableName string
	now       func() time.Time
}

func NewUserRepo(client *dynamodb.Client, tableName string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName, now: time.Now}
}

// Create stores a new account. The email key is guarded by attribute_not_exists
// so two concurrent registrations for the same address cannot both land.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#e)"),
		ExpressionAttributeNames: map[string]string{"#e": fieldEmail},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("create user %s: %w", u.Email, domain.ErrDuplicateAccount)
	}
	return err
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey(fieldEmail, email),
		ProjectionExpression:     aws.String("#e"),
		ExpressionAttributeNames: map[string]string{"#e": fieldEmail},
	})
	if err != nil {
		return false, err
	}
	return out.Item != nil, nil
}

func (r *UserRepo) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	return r.queryGSI(ctx, indexUserID, fieldUserID, userID)
}

// MarkVerified flips the account to VERIFIED and returns the updated record.
func (r *UserRepo) MarkVerified(ctx context.Context, email string) (*domain.User, error) {
	return r.update(ctx, email, map[string]interface{}{
		fieldVerificationState: domain.Verified,
	}, nil)
}

// SetResetToken stores a reset token and its expiry, replacing any previous pair.
func (r *UserRepo) SetResetToken(ctx context.Context, email, token string, expiresAt time.Time) error {
	_, err := r.update(ctx, email, map[string]interface{}{
		fieldResetToken:       token,
		fieldResetTokenExpiry: expiresAt.Unix(),
	}, nil)
	return err
}

// ConsumeResetToken sets the new password hash and clears the reset pair in one
// conditional write. It fails with ErrInvalidOrExpiredResetToken when the token is
// unknown, expired or was consumed by a concurrent request.
func (r *UserRepo) ConsumeResetToken(ctx context.Context, token, passwordHash string) (*domain.User, error) {
	holder, err := r.queryGSI(ctx, indexResetToken, fieldResetToken, token)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("consume reset token: %w", domain.ErrInvalidOrExpiredResetToken)
		}
		return nil, err
	}

	in, err := r.consumeResetInput(holder.Email, token, passwordHash, r.now())
	if err != nil {
		return nil, err
	}
	out, err := r.client.UpdateItem(ctx, in)
	if isConditionFailed(err) {
		return nil, fmt.Errorf("consume reset token: %w", domain.ErrInvalidOrExpiredResetToken)
	}
	if err != nil {
		return nil, err
	}
	return unmarshalUser(out.Attributes)
}

// consumeResetInput builds the write that redeems a reset token: it only applies
// while the stored token matches and has not expired, and removes both reset fields.
func (r *UserRepo) consumeResetInput(email, token, passwordHash string, now time.Time) (*dynamodb.UpdateItemInput, error) {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldPasswordHash: passwordHash,
		fieldUpdatedAt:    now.UTC(),
	}, fieldResetToken, fieldResetTokenExpiry)
	if err != nil {
		return nil, err
	}
	ue.condition(
		map[string]string{"#ct": fieldResetToken, "#cx": fieldResetTokenExpiry},
		map[string]types.AttributeValue{
			":ct":  &types.AttributeValueMemberS{Value: token},
			":now": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", now.Unix())},
		},
	)
	return &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldEmail, email),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("#ct = :ct AND #cx > :now"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ReturnValues:              types.ReturnValueAllNew,
	}, nil
}

// UpdatePassword replaces the password hash and clears any outstanding reset token.
func (r *UserRepo) UpdatePassword(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	return r.update(ctx, email, map[string]interface{}{
		fieldPasswordHash: passwordHash,
	}, []string{fieldResetToken, fieldResetTokenExpiry})
}

// UpdateProfile applies a partial set of profile attributes.
func (r *UserRepo) UpdateProfile(ctx context.Context, email string, fields map[string]interface{}) (*domain.User, error) {
	return r.update(ctx, email, fields, nil)
}

func (r *UserRepo) SetProfileImage(ctx context.Context, email, url string) (*domain.User, error) {
	return r.update(ctx, email, map[string]interface{}{fieldProfileImageURL: url}, nil)
}

// ListByRole returns a page of accounts with the given role from role-index.
// cursor is the opaque value returned by the previous call; empty means no more pages.
func (r *UserRepo) ListByRole(ctx context.Context, role string, limit int32, cursor string) ([]domain.User, string, error) {
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexRole),
		KeyConditionExpression:    aws.String("#r = :r"),
		ExpressionAttributeNames:  map[string]string{"#r": fieldRole},
		ExpressionAttributeValues: map[string]types.AttributeValue{":r": &types.AttributeValueMemberS{Value: role}},
		Limit:                     aws.Int32(limit),
	}
	if cursor != "" {
		key, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = key
	}
	out, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, "", err
	}
	users := make([]domain.User, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &users); err != nil {
		return nil, "", err
	}
	next, err := encodeCursor(out.LastEvaluatedKey)
	if err != nil {
		return nil, "", err
	}
	return users, next, nil
}

// update applies SET/REMOVE to an existing record and returns the new image.
// A missing record surfaces as ErrNotFound instead of an upsert.
func (r *UserRepo) update(ctx context.Context, email string, set map[string]interface{}, remove []string) (*domain.User, error) {
	fields := make(map[string]interface{}, len(set)+1)
	for k, v := range set {
		fields[k] = v
	}
	fields[fieldUpdatedAt] = r.now().UTC()
	ue, err := buildUpdateExpr(fields, remove...)
	if err != nil {
		return nil, err
	}
	ue.condition(map[string]string{"#ce": fieldEmail}, nil)
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldEmail, email),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#ce)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if isConditionFailed(err) {
		return nil, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return unmarshalUser(out.Attributes)
}

func (r *UserRepo) queryGSI(ctx context.Context, index, attr, value string) (*domain.User, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("user by %s: %w", attr, domain.ErrNotFound)
	}
	return unmarshalUser(out.Items[0])
}

func unmarshalUser(item map[string]types.AttributeValue) (*domain.User, error) {
	var u domain.User
	if err := attributevalue.UnmarshalMap(item, &u); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &u, nil
}

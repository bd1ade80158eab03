package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/example/ec-cart-offers/internal/apperr"
	"github.com/example/ec-cart-offers/internal/domain/cart"
	"github.com/shopspring/decimal"
)

var _ CartRepository = (*DynamoCartStore)(nil)

const (
	userIndex  = "user_id-index"
	guestIndex = "guest_session_id-index"
)

// DynamoAPI is the subset of the DynamoDB client the cart store uses.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoCartStore stores carts in DynamoDB with id as the partition key.
// Owner lookups go through two sparse GSIs: user_id-index for signed-in
// carts and guest_session_id-index for carts without a user.
//
// DynamoDB has no unique secondary indexes, so Create checks the owner
// before writing and two racing first adds can still create two carts.
type DynamoCartStore struct {
	client    DynamoAPI
	tableName string
}

// dynamoCart represents the DynamoDB item structure
type dynamoCart struct {
	ID             string           `dynamodbav:"id"`
	UserID         string           `dynamodbav:"user_id,omitempty"`
	SessionID      string           `dynamodbav:"session_id,omitempty"`
	GuestSessionID string           `dynamodbav:"guest_session_id,omitempty"`
	Items          []dynamoCartItem `dynamodbav:"items"`
	TotalAmount    string           `dynamodbav:"total_amount"`
	AppliedCoupon  *dynamoCoupon    `dynamodbav:"applied_coupon,omitempty"`
	Status         string           `dynamodbav:"status"`
	CreatedAt      string           `dynamodbav:"created_at"`
	UpdatedAt      string           `dynamodbav:"updated_at"`
}

type dynamoCartItem struct {
	ProductID string            `dynamodbav:"product_id"`
	Name      string            `dynamodbav:"name"`
	ImageURL  string            `dynamodbav:"image_url,omitempty"`
	Quantity  int               `dynamodbav:"quantity"`
	Price     string            `dynamodbav:"price_at_add_to_cart"`
	Variant   map[string]any    `dynamodbav:"variant,omitempty"`
}

type dynamoCoupon struct {
	CouponCode     string `dynamodbav:"coupon_code"`
	DiscountAmount string `dynamodbav:"discount_amount"`
}

func NewDynamoCartStore(client DynamoAPI, tableName string) *DynamoCartStore {
	return &DynamoCartStore{client: client, tableName: tableName}
}

func (s *DynamoCartStore) FindByID(ctx context.Context, id string) (*cart.Cart, bool, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, false, apperr.Infrastructure(fmt.Errorf("failed to get cart: %w", err))
	}
	if result.Item == nil {
		return nil, false, nil
	}
	c, err := unmarshalCart(result.Item)
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

func (s *DynamoCartStore) FindByOwner(ctx context.Context, owner cart.Owner) (*cart.Cart, bool, error) {
	index, attr, value := userIndex, "user_id", owner.UserID
	if owner.UserID == "" {
		index, attr, value = guestIndex, "guest_session_id", owner.SessionID
	}
	if value == "" {
		return nil, false, nil
	}

	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(index),
		KeyConditionExpression: aws.String(attr + " = :owner"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: value},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, false, apperr.Infrastructure(fmt.Errorf("failed to query cart by owner: %w", err))
	}
	if len(result.Items) == 0 {
		return nil, false, nil
	}
	c, err := unmarshalCart(result.Items[0])
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

func (s *DynamoCartStore) Create(ctx context.Context, c *cart.Cart) (*cart.Cart, error) {
	_, exists, err := s.FindByOwner(ctx, c.Owner())
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateCart
	}

	err = s.put(ctx, c, "attribute_not_exists(id)")
	if isConditionFailed(err) {
		return nil, ErrDuplicateID
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *DynamoCartStore) Update(ctx context.Context, c *cart.Cart) (*cart.Cart, error) {
	err := s.put(ctx, c, "attribute_exists(id)")
	if isConditionFailed(err) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *DynamoCartStore) Delete(ctx context.Context, id string) (bool, error) {
	result, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return false, apperr.Infrastructure(fmt.Errorf("failed to delete cart: %w", err))
	}
	return len(result.Attributes) > 0, nil
}

func (s *DynamoCartStore) put(ctx context.Context, c *cart.Cart, condition string) error {
	av, err := attributevalue.MarshalMap(toDynamoCart(c))
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                av,
		ConditionExpression: aws.String(condition),
	})
	if err != nil && !isConditionFailed(err) {
		return apperr.Infrastructure(fmt.Errorf("failed to put cart: %w", err))
	}
	return err
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

func toDynamoCart(c *cart.Cart) dynamoCart {
	item := dynamoCart{
		ID:          c.ID,
		UserID:      c.UserID,
		SessionID:   c.SessionID,
		Items:       make([]dynamoCartItem, 0, len(c.Items)),
		TotalAmount: c.TotalAmount.String(),
		Status:      string(c.Status),
		CreatedAt:   c.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:   c.UpdatedAt.Format(time.RFC3339Nano),
	}
	if c.UserID == "" {
		item.GuestSessionID = c.SessionID
	}
	for _, it := range c.Items {
		item.Items = append(item.Items, dynamoCartItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			ImageURL:  it.ImageURL,
			Quantity:  it.Quantity,
			Price:     it.PriceAtAddToCart.String(),
			Variant:   it.Variant,
		})
	}
	if c.AppliedCoupon != nil {
		item.AppliedCoupon = &dynamoCoupon{
			CouponCode:     c.AppliedCoupon.CouponCode,
			DiscountAmount: c.AppliedCoupon.DiscountAmount.String(),
		}
	}
	return item
}

func unmarshalCart(av map[string]types.AttributeValue) (*cart.Cart, error) {
	var dc dynamoCart
	if err := attributevalue.UnmarshalMap(av, &dc); err != nil {
		return nil, apperr.Infrastructure(fmt.Errorf("failed to unmarshal cart: %w", err))
	}

	total, err := decimal.NewFromString(dc.TotalAmount)
	if err != nil {
		return nil, apperr.Infrastructure(fmt.Errorf("bad total_amount on cart %s: %w", dc.ID, err))
	}
	createdAt, err := time.Parse(time.RFC3339Nano, dc.CreatedAt)
	if err != nil {
		return nil, apperr.Infrastructure(fmt.Errorf("bad created_at on cart %s: %w", dc.ID, err))
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, dc.UpdatedAt)
	if err != nil {
		return nil, apperr.Infrastructure(fmt.Errorf("bad updated_at on cart %s: %w", dc.ID, err))
	}

	c := &cart.Cart{
		ID:          dc.ID,
		UserID:      dc.UserID,
		SessionID:   dc.SessionID,
		Items:       make([]cart.Item, 0, len(dc.Items)),
		TotalAmount: total,
		Status:      cart.Status(dc.Status),
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
	for _, it := range dc.Items {
		price, err := decimal.NewFromString(it.Price)
		if err != nil {
			return nil, apperr.Infrastructure(fmt.Errorf("bad price on cart %s: %w", dc.ID, err))
		}
		var variant cart.Variant
		if len(it.Variant) > 0 {
			variant = cart.Variant(it.Variant)
		}
		c.Items = append(c.Items, cart.Item{
			ProductID:        it.ProductID,
			Name:             it.Name,
			ImageURL:         it.ImageURL,
			Quantity:         it.Quantity,
			PriceAtAddToCart: price,
			Variant:          variant,
		})
	}
	if dc.AppliedCoupon != nil {
		discount, err := decimal.NewFromString(dc.AppliedCoupon.DiscountAmount)
		if err != nil {
			return nil, apperr.Infrastructure(fmt.Errorf("bad discount on cart %s: %w", dc.ID, err))
		}
		c.AppliedCoupon = &cart.AppliedCoupon{CouponCode: dc.AppliedCoupon.CouponCode, DiscountAmount: discount}
	}
	return c, nil
}

package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/example/ec-cart-offers/internal/apperr"
	"github.com/example/ec-cart-offers/internal/domain/cart"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo keeps items in memory and understands the condition
// expressions and GSI queries DynamoCartStore issues.
type fakeDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
	err   error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func stringAttr(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	id := stringAttr(in.Item["id"])
	_, exists := f.items[id]
	switch aws.ToString(in.ConditionExpression) {
	case "attribute_not_exists(id)":
		if exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("item exists")}
		}
	case "attribute_exists(id)":
		if !exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("item missing")}
		}
	}
	f.items[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.GetItemOutput{Item: f.items[stringAttr(in.Key["id"])]}, nil
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	attr := strings.TrimSuffix(aws.ToString(in.IndexName), "-index")
	want := stringAttr(in.ExpressionAttributeValues[":owner"])
	var out []map[string]types.AttributeValue
	for _, item := range f.items {
		if av, ok := item[attr]; ok && stringAttr(av) == want {
			out = append(out, item)
		}
	}
	return &dynamodb.QueryOutput{Items: out}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	id := stringAttr(in.Key["id"])
	old, ok := f.items[id]
	if !ok {
		return &dynamodb.DeleteItemOutput{}, nil
	}
	delete(f.items, id)
	return &dynamodb.DeleteItemOutput{Attributes: old}, nil
}

func TestDynamoCartStore_RoundTrip(t *testing.T) {
	s := NewDynamoCartStore(newFakeDynamo(), "carts")
	ctx := context.Background()

	c := newCart(t, "cart-1", cart.Owner{SessionID: "S1"})
	c.AddItem(cart.Item{ProductID: "P1", Name: "Mug", Quantity: 2, PriceAtAddToCart: decimal.RequireFromString("10.25")})
	c.AddItem(cart.Item{ProductID: "P1", Name: "Mug", Quantity: 1, PriceAtAddToCart: decimal.RequireFromString("10.25"), Variant: cart.Variant{"size": "M"}})
	c.AppliedCoupon = &cart.AppliedCoupon{CouponCode: "SAVE", DiscountAmount: decimal.NewFromInt(3)}

	_, err := s.Create(ctx, c)
	require.NoError(t, err)

	loaded, ok, err := s.FindByID(ctx, "cart-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, loaded.Items, 2)
	assert.Nil(t, loaded.Items[0].Variant)
	assert.Equal(t, "M", loaded.Items[1].Variant["size"])
	assert.True(t, c.TotalAmount.Equal(loaded.TotalAmount))
	assert.Equal(t, "SAVE", loaded.AppliedCoupon.CouponCode)
	assert.True(t, c.CreatedAt.Equal(loaded.CreatedAt))

	byOwner, ok, err := s.FindByOwner(ctx, cart.Owner{SessionID: "S1"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "cart-1", byOwner.ID)
}

func TestDynamoCartStore_SignedInCartIsNotAGuestCart(t *testing.T) {
	s := NewDynamoCartStore(newFakeDynamo(), "carts")
	ctx := context.Background()

	_, err := s.Create(ctx, newCart(t, "cart-1", cart.Owner{UserID: "u1", SessionID: "S1"}))
	require.NoError(t, err)

	_, ok, err := s.FindByOwner(ctx, cart.Owner{SessionID: "S1"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.FindByOwner(ctx, cart.Owner{UserID: "u1"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDynamoCartStore_CreateDuplicateOwner(t *testing.T) {
	s := NewDynamoCartStore(newFakeDynamo(), "carts")
	ctx := context.Background()

	_, err := s.Create(ctx, newCart(t, "cart-1", cart.Owner{UserID: "u1"}))
	require.NoError(t, err)

	_, err = s.Create(ctx, newCart(t, "cart-2", cart.Owner{UserID: "u1"}))
	assert.ErrorIs(t, err, ErrDuplicateCart)

	_, err = s.Create(ctx, newCart(t, "cart-1", cart.Owner{UserID: "u2"}))
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestDynamoCartStore_UpdateUnknownCart(t *testing.T) {
	s := NewDynamoCartStore(newFakeDynamo(), "carts")

	_, err := s.Update(context.Background(), newCart(t, "missing", cart.Owner{SessionID: "S1"}))

	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestDynamoCartStore_Delete(t *testing.T) {
	s := NewDynamoCartStore(newFakeDynamo(), "carts")
	ctx := context.Background()
	_, err := s.Create(ctx, newCart(t, "cart-1", cart.Owner{SessionID: "S1"}))
	require.NoError(t, err)

	deleted, err := s.Delete(ctx, "cart-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.Delete(ctx, "cart-1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestDynamoCartStore_ClientErrorIsInfrastructure(t *testing.T) {
	fake := newFakeDynamo()
	fake.err = errors.New("throttled")
	s := NewDynamoCartStore(fake, "carts")

	_, _, err := s.FindByID(context.Background(), "cart-1")

	assert.ErrorIs(t, err, apperr.ErrInfrastructure)
}

func TestDynamoCartStore_StructuredVariantRoundTrip(t *testing.T) {
	s := NewDynamoCartStore(newFakeDynamo(), "carts")
	ctx := context.Background()

	variant := cart.Variant{"size": 42, "fit": map[string]any{"waist": 32, "leg": "long"}}
	c := newCart(t, "cart-1", cart.Owner{SessionID: "S1"})
	c.AddItem(cart.Item{ProductID: "P1", Quantity: 1, PriceAtAddToCart: decimal.NewFromInt(10), Variant: variant})
	_, err := s.Create(ctx, c)
	require.NoError(t, err)

	loaded, ok, err := s.FindByID(ctx, "cart-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, variant.Key(), loaded.Items[0].Variant.Key())
	assert.Equal(t, 1, loaded.LineQuantity("P1", variant))
}

func TestDynamoCartStore_CorruptTimestampIsInfrastructure(t *testing.T) {
	for _, attr := range []string{"created_at", "updated_at"} {
		t.Run(attr, func(t *testing.T) {
			fake := newFakeDynamo()
			s := NewDynamoCartStore(fake, "carts")

			item, err := attributevalue.MarshalMap(toDynamoCart(newCart(t, "cart-1", cart.Owner{SessionID: "S1"})))
			require.NoError(t, err)
			item[attr] = &types.AttributeValueMemberS{Value: "yesterday"}
			fake.items["cart-1"] = item

			c, ok, err := s.FindByID(context.Background(), "cart-1")

			assert.ErrorIs(t, err, apperr.ErrInfrastructure)
			assert.False(t, ok)
			assert.Nil(t, c)
		})
	}
}

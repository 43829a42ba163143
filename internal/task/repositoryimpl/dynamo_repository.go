package repositoryimpl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/taskdeck/taskdeck/internal/task"
	"github.com/taskdeck/taskdeck/pkg/cerr"
)

// DynamoRepository stores tasks in a single DynamoDB table keyed by
// (PK, SK). Conditional writes give the atomic compare-and-act semantics
// the update and delete operations rely on.
type DynamoRepository struct {
	client *dynamodb.Client
	table  string
}

// NewDynamoRepository creates a repository against the given table. An
// endpoint override is supported for local DynamoDB instances.
func NewDynamoRepository(ctx context.Context, table, region, endpoint string) (*DynamoRepository, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	var opts []func(*dynamodb.Options)
	if endpoint != "" {
		opts = append(opts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	return &DynamoRepository{
		client: dynamodb.NewFromConfig(cfg, opts...),
		table:  table,
	}, nil
}

func (r *DynamoRepository) key(owner, id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: owner},
		"SK": &types.AttributeValueMemberS{Value: id},
	}
}

func (r *DynamoRepository) Create(ctx context.Context, t *task.Task) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal task: %w", err))
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	if err != nil {
		return wrapDynamoError("put", err)
	}
	return nil
}

func (r *DynamoRepository) ListByOwner(ctx context.Context, owner string) ([]*task.Task, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(owner))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to build query expression: %w", err))
	}

	var tasks []*task.Task
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, wrapDynamoError("query", err)
		}
		var batch []*task.Task
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal tasks: %w", err))
		}
		tasks = append(tasks, batch...)
	}
	return tasks, nil
}

func (r *DynamoRepository) Update(ctx context.Context, owner, id string, changes task.Changes, updatedAt time.Time) (*task.Task, error) {
	update := expression.Set(expression.Name("updatedAt"), expression.Value(updatedAt))
	for field, value := range changes {
		update = update.Set(expression.Name(field), expression.Value(value))
	}
	cond := expression.Name("PK").Equal(expression.Value(owner)).
		And(expression.Name("SK").Equal(expression.Value(id)))
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to build update expression: %w", err))
	}

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       r.key(owner, id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, wrapDynamoError("update", err)
	}

	var updated task.Task
	if err := attributevalue.UnmarshalMap(out.Attributes, &updated); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal updated task: %w", err))
	}
	return &updated, nil
}

func (r *DynamoRepository) Delete(ctx context.Context, owner, id string) (*task.Task, error) {
	cond := expression.Name("PK").Equal(expression.Value(owner)).
		And(expression.Name("SK").Equal(expression.Value(id)))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to build delete expression: %w", err))
	}

	out, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(r.table),
		Key:                       r.key(owner, id),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllOld,
	})
	if err != nil {
		return nil, wrapDynamoError("delete", err)
	}

	var deleted task.Task
	if err := attributevalue.UnmarshalMap(out.Attributes, &deleted); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal deleted task: %w", err))
	}
	return &deleted, nil
}

// wrapDynamoError translates a failed conditional check into not-found.
// Whether the item is missing or owned by another caller is deliberately
// indistinguishable.
func wrapDynamoError(op string, err error) error {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return cerr.NewError(cerr.NotFound, "task not found or does not belong to user", err)
	}
	return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("dynamodb %s failed: %w", op, err))
}

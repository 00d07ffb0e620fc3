package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/deliverhub/deliverhub/internal/common"
)

// sqsAPI is the subset of the SQS client used here, split out for tests.
type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSNotifier publishes notification payloads to the queue consumed by the
// external mail pipeline.
type SQSNotifier struct {
	client   sqsAPI
	queueURL string
}

// NewSQSNotifier wraps an SQS client for the given queue.
func NewSQSNotifier(client *sqs.Client, queueURL string) *SQSNotifier {
	return &SQSNotifier{client: client, queueURL: queueURL}
}

func (n *SQSNotifier) NotifyAssignment(ctx context.Context, msg AssignmentNotification) error {
	return n.send(ctx, "staff_assigned", msg)
}

func (n *SQSNotifier) NotifyCompletion(ctx context.Context, msg CompletionNotification) error {
	return n.send(ctx, "project_completed", msg)
}

func (n *SQSNotifier) send(ctx context.Context, kind string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	_, err = n.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(n.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"kind": {
				DataType:    aws.String("String"),
				StringValue: aws.String(kind),
			},
		},
	})
	if err != nil {
		return &common.UpstreamError{Op: "sqs send message", Err: err}
	}
	return nil
}
